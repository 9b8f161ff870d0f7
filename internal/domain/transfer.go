package domain

// Represents a single shipment record pending transport assignment.
// Transfers are read-only to the pricing core: they are listed by an
// upstream service filtered to the "pending transport" status and leave the
// selection once that status changes.
type Transfer struct {
	TransferID       string
	DeliveryAddress  string
	TotalPackages    int
	Volume           float64
	TotalProducts    int
	PickupLocationID string
	Status           string
}

const TransferStatusPending = "pending_transport"
