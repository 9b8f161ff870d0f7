package domain

// StopLine is one delivery stop of a persisted transport request.
type StopLine struct {
	Index        int
	StopKey      string
	Address      string
	SourceCode   string
	Packages     int
	Volume       float64
	DistanceKm   float64
	OrderCount   int
	ProductCount int
	TransferIDs  string
}

// SubmissionPayload is the persistence-ready representation of a transport
// request. It is built once per submit and never mutated after being sent.
type SubmissionPayload struct {
	RequestID     string
	PickupAddress string
	PickupCode    string
	Carrier       string
	VehicleType   string
	ServiceArea   string
	Department    string
	Note          string
	Stops         []StopLine

	TotalPackages   int
	TotalVolume     float64
	TotalDistanceKm float64
	TotalOrders     int
	TotalProducts   int

	Pricing       PricingInput
	EstimatedCost float64
	Formula       string
}
