package domain

// Location is an entry of the location directory (warehouses, stores, hubs).
type Location struct {
	LocationID string
	Code       string
	Address    string
	Category   string
	Status     string
}

// CarrierRate is the raw rate card of a carrier for one pricing method,
// optionally narrowed to a vehicle type and service area.
type CarrierRate struct {
	CarrierName   string
	Method        PricingMethod
	VehicleType   string
	ServiceArea   string
	BaseRate      float64
	PerKmRate     float64
	PerM3Rate     float64
	PerTripRate   float64
	StopFee       float64
	FuelSurcharge float64
	RemoteAreaFee float64
	InsuranceRate float64
}

// PricingInput maps the rate card onto the calculator inputs.
// The remote area fee is billed as the toll fee.
func (r CarrierRate) PricingInput() PricingInput {
	return PricingInput{
		Method:        r.Method,
		BaseRate:      r.BaseRate,
		PricePerKm:    r.PerKmRate,
		PricePerTrip:  r.PerTripRate,
		PricePerM3:    r.PerM3Rate,
		StopFee:       r.StopFee,
		FuelSurcharge: r.FuelSurcharge,
		TollFee:       r.RemoteAreaFee,
		InsuranceFee:  r.InsuranceRate,
	}
}
