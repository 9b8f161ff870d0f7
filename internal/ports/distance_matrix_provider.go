package ports

import "context"

// Optional extension of DistanceProvider that supports batched lookups.
// Callers detect it with a type assertion and fall back to per-pair calls.
type DistanceMatrixProvider interface {
	DistanceProvider
	// Return distances from one origin to many destinations.
	GetDistances(ctx context.Context, origin string, destinations []string) (map[string]DistanceResult, error)
}
