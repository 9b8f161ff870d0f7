package ports

import "context"

// Distance and travel duration between two addresses.
type DistanceResult struct {
	DistanceMeters  int
	DurationSeconds int
}

// Km returns the distance in kilometres.
func (r DistanceResult) Km() float64 { return float64(r.DistanceMeters) / 1000 }

// Contract for a routing provider. Implementations range from a
// deterministic placeholder to a real road-network service and are
// interchangeable without touching callers.
type DistanceProvider interface {
	// Return travel distance and estimated duration between two addresses.
	GetDistance(ctx context.Context, origin string, destination string) (DistanceResult, error)
}
