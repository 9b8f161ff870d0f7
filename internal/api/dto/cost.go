package dto

type PricingInput struct {
	Method        string `json:"pricing_method"`
	BaseRate      Number `json:"base_rate"`
	PricePerKm    Number `json:"price_per_km"`
	PricePerTrip  Number `json:"price_per_trip"`
	PricePerM3    Number `json:"price_per_m3"`
	StopFee       Number `json:"stop_fee"`
	FuelSurcharge Number `json:"fuel_surcharge"`
	TollFee       Number `json:"toll_fee"`
	InsuranceFee  Number `json:"insurance_fee"`
}

type PricingResponse struct {
	Method        string  `json:"pricing_method"`
	BaseRate      float64 `json:"base_rate"`
	PricePerKm    float64 `json:"price_per_km"`
	PricePerTrip  float64 `json:"price_per_trip"`
	PricePerM3    float64 `json:"price_per_m3"`
	StopFee       float64 `json:"stop_fee"`
	FuelSurcharge float64 `json:"fuel_surcharge"`
	TollFee       float64 `json:"toll_fee"`
	InsuranceFee  float64 `json:"insurance_fee"`
}

type CostRequest struct {
	PricingInput
	TotalDistanceKm Number `json:"total_distance_km"`
	TotalStops      int    `json:"total_stops"`
	TotalVolume     Number `json:"total_volume"`
}

type CostResponse struct {
	BaseCost      float64 `json:"base_cost"`
	DistanceCost  float64 `json:"distance_cost"`
	StopCost      float64 `json:"stop_cost"`
	SurchargeCost float64 `json:"surcharge_cost"`
	TotalCost     float64 `json:"total_cost"`
	// Rounded to whole currency units and grouped for display.
	EstimatedCost   float64 `json:"estimated_cost"`
	EstimatedCostVN string  `json:"estimated_cost_display"`
	Formula         string  `json:"formula"`
}
