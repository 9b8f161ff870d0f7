package dto

type OpenSessionRequest struct {
	RequestID string `json:"request_id"`
}

// FormRequest is a partial update; absent fields are left unchanged.
type FormRequest struct {
	PickupLocationID *string       `json:"pickup_location_id"`
	Carrier          *string       `json:"carrier"`
	Method           *string       `json:"pricing_method"`
	VehicleType      *string       `json:"vehicle_type"`
	ServiceArea      *string       `json:"service_area"`
	Department       *string       `json:"department"`
	Note             *string       `json:"note"`
	Pricing          *PricingInput `json:"pricing"`
}

type FormResponse struct {
	PickupLocationID string `json:"pickup_location_id"`
	Carrier          string `json:"carrier"`
	Method           string `json:"pricing_method"`
	VehicleType      string `json:"vehicle_type"`
	ServiceArea      string `json:"service_area"`
	Department       string `json:"department"`
	Note             string `json:"note"`
	RequestID        string `json:"request_id,omitempty"`
}

type StopPointResponse struct {
	Key             string   `json:"key"`
	DeliveryAddress string   `json:"delivery_address"`
	TransferIDs     []string `json:"transfer_ids"`
	Selected        bool     `json:"selected"`
	// Totals over currently selected members.
	Packages            int      `json:"packages"`
	Volume              float64  `json:"volume"`
	Products            int      `json:"products"`
	OrderCount          int      `json:"order_count"`
	SelectedTransferIDs []string `json:"selected_transfer_ids"`
	DistanceKm          *float64 `json:"distance_km"`
}

type SessionResponse struct {
	ID                  string              `json:"id"`
	Form                FormResponse        `json:"form"`
	Pricing             PricingResponse     `json:"pricing"`
	RateApplied         *bool               `json:"rate_applied,omitempty"`
	Transfers           []TransferResponse  `json:"transfers"`
	SelectedTransferIDs []string            `json:"selected_transfer_ids"`
	StopPoints          []StopPointResponse `json:"stop_points"`
	SelectedStopKeys    []string            `json:"selected_stop_keys"`
	TotalDistanceKm     float64             `json:"total_distance_km"`
	DistanceError       string              `json:"distance_error,omitempty"`
	Cost                CostResponse        `json:"cost"`
	Draft               bool                `json:"draft"`
	Submitted           bool                `json:"submitted"`
}

type DistancesResponse struct {
	Distances map[string]float64 `json:"distances"`
	TotalKm   float64            `json:"total_km"`
	Error     string             `json:"error,omitempty"`
	Applied   bool               `json:"applied"`
}

type ValidateResponse struct {
	OK       bool     `json:"ok"`
	Messages []string `json:"messages"`
}

type StopLineResponse struct {
	Index        int     `json:"index"`
	StopKey      string  `json:"stop_key"`
	Address      string  `json:"address"`
	SourceCode   string  `json:"source_code"`
	Packages     int     `json:"packages"`
	Volume       float64 `json:"volume"`
	DistanceKm   float64 `json:"distance_km"`
	OrderCount   int     `json:"order_count"`
	ProductCount int     `json:"product_count"`
	TransferIDs  string  `json:"transfer_ids"`
}

type SubmitResponse struct {
	RequestID       string             `json:"request_id"`
	PickupAddress   string             `json:"pickup_address"`
	Stops           []StopLineResponse `json:"stops"`
	TotalPackages   int                `json:"total_packages"`
	TotalVolume     float64            `json:"total_volume"`
	TotalDistanceKm float64            `json:"total_distance_km"`
	TotalOrders     int                `json:"total_orders"`
	TotalProducts   int                `json:"total_products"`
	EstimatedCost   float64            `json:"estimated_cost"`
	Formula         string             `json:"formula"`
	Warnings        []string           `json:"warnings,omitempty"`
}

type DraftResponse struct {
	RequestID string `json:"request_id"`
}
