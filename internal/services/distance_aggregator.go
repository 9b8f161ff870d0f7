package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"transport-request-service/internal/domain"
	"transport-request-service/internal/platform/obs"
	"transport-request-service/internal/ports"
)

// Upper bound on concurrent per-stop lookups when the provider has no
// batched endpoint.
const maxConcurrentLookups = 5

// DistanceResult is the outcome of one aggregation. On failure Distances is
// empty and Err carries the reason; the caller decides what to keep.
type DistanceResult struct {
	Distances map[string]float64
	TotalKm   float64
	Err       string
}

func (r DistanceResult) OK() bool { return r.Err == "" }

// DistanceAggregator computes the pickup -> stop distance of every selected
// stop point through a substitutable routing provider.
type DistanceAggregator struct {
	provider ports.DistanceProvider
}

func NewDistanceAggregator(provider ports.DistanceProvider) *DistanceAggregator {
	return &DistanceAggregator{provider: provider}
}

// Calculate never returns an error. Identical inputs yield identical
// distances as long as the provider is deterministic.
func (a *DistanceAggregator) Calculate(
	ctx context.Context,
	pickupLocationID string,
	selectedStopKeys []string,
	stops []domain.StopPoint,
	locations []domain.Location,
) (res DistanceResult) {
	defer func() {
		outcome := "ok"
		if !res.OK() {
			outcome = "error"
			obs.L(ctx).Warn("distance aggregation failed",
				zap.String("pickup_location_id", pickupLocationID),
				zap.String("err", res.Err),
			)
		}
		obs.DistanceComputations.WithLabelValues(outcome).Inc()
	}()

	fail := func(format string, args ...any) DistanceResult {
		return DistanceResult{Distances: map[string]float64{}, Err: fmt.Sprintf(format, args...)}
	}

	if a.provider == nil {
		return fail("no routing provider configured")
	}
	if len(selectedStopKeys) == 0 {
		return DistanceResult{Distances: map[string]float64{}}
	}

	origin := ""
	for _, l := range locations {
		if l.LocationID == pickupLocationID {
			origin = normalizeAddress(l.Address)
			break
		}
	}
	if origin == "" {
		return fail("pickup location %q not found", pickupLocationID)
	}

	byKey := make(map[string]domain.StopPoint, len(stops))
	for _, sp := range stops {
		byKey[sp.Key] = sp
	}

	// stop key -> normalized destination address
	dest := make(map[string]string, len(selectedStopKeys))
	unique := make([]string, 0, len(selectedStopKeys))
	seen := map[string]bool{}
	for _, k := range selectedStopKeys {
		sp, ok := byKey[k]
		if !ok {
			return fail("stop point %q not found", k)
		}
		d := normalizeAddress(sp.DeliveryAddress)
		if d == "" {
			return fail("stop point %q has no delivery address", k)
		}
		dest[k] = d
		if d != origin && !seen[d] {
			seen[d] = true
			unique = append(unique, d)
		}
	}

	results := map[string]ports.DistanceResult{}
	if len(unique) > 0 {
		var err error
		results, err = a.lookup(ctx, origin, unique)
		if err != nil {
			return fail("distance lookup from %q: %v", origin, err)
		}
	}

	out := DistanceResult{Distances: make(map[string]float64, len(dest))}
	for _, k := range selectedStopKeys {
		if dest[k] == origin {
			out.Distances[k] = 0
			continue
		}
		r, ok := results[dest[k]]
		if !ok {
			return fail("missing distance for stop %q", k)
		}
		km := r.Km()
		out.Distances[k] = km
		out.TotalKm += km
	}

	return out
}

// Prefer a single origin->many lookup when supported to reduce external API calls.
func (a *DistanceAggregator) lookup(
	ctx context.Context,
	origin string,
	destinations []string,
) (map[string]ports.DistanceResult, error) {
	if mp, ok := a.provider.(ports.DistanceMatrixProvider); ok {
		results, err := mp.GetDistances(ctx, origin, destinations)
		if err != nil {
			return nil, fmt.Errorf("get matrix distances: %w", err)
		}
		return results, nil
	}

	var (
		mu      sync.Mutex
		results = make(map[string]ports.DistanceResult, len(destinations))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLookups)
	for _, d := range destinations {
		d := d
		g.Go(func() error {
			r, err := a.provider.GetDistance(gctx, origin, d)
			if err != nil {
				return fmt.Errorf("get distance to %q: %w", d, err)
			}
			mu.Lock()
			results[d] = r
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func normalizeAddress(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
