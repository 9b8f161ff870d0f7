package dto

type TransferResponse struct {
	TransferID       string  `json:"transfer_id"`
	DeliveryAddress  string  `json:"delivery_address"`
	TotalPackages    int     `json:"total_packages"`
	Volume           float64 `json:"volume"`
	TotalProducts    int     `json:"total_products"`
	PickupLocationID string  `json:"pickup_location_id"`
	Status           string  `json:"status,omitempty"`
}

type ListTransfersResponse struct {
	Transfers []TransferResponse `json:"transfers"`
}

type LocationResponse struct {
	LocationID string `json:"location_id"`
	Code       string `json:"code"`
	Address    string `json:"address"`
	Category   string `json:"category"`
	Status     string `json:"status"`
}

type ListLocationsResponse struct {
	Locations []LocationResponse `json:"locations"`
}
