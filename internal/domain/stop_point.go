package domain

import "fmt"

// MaxStopPoints is the number of distinct delivery addresses one transport
// request may serve.
const MaxStopPoints = 10

// StopPoint buckets the transfers delivered to one address.
// Membership is append-only for the lifetime of a draft; per-stop totals used
// for pricing are always recomputed from the currently selected members.
type StopPoint struct {
	Key             string
	DeliveryAddress string
	TransferIDs     []string
	TotalPackages   int
	TotalVolume     float64
}

// StopKey returns the synthetic key of the n-th stop point (1-based).
func StopKey(n int) string {
	return fmt.Sprintf("stop%d", n)
}

// HasMember reports whether transferID belongs to the stop point.
func (s *StopPoint) HasMember(transferID string) bool {
	for _, id := range s.TransferIDs {
		if id == transferID {
			return true
		}
	}
	return false
}

// StopTotals are the per-stop aggregates over currently selected members.
type StopTotals struct {
	Packages    int
	Volume      float64
	Products    int
	OrderCount  int
	TransferIDs []string
}
