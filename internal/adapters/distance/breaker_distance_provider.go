package distance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"transport-request-service/internal/platform/obs"
	"transport-request-service/internal/ports"
)

var ErrProviderUnavailable = errors.New("routing provider unavailable")

// BreakerDistanceProvider guards a routing provider with a circuit breaker so
// an unhealthy backend fails fast instead of stalling every recompute.
// Batched lookups pass through when the wrapped provider supports them.
type BreakerDistanceProvider struct {
	inner ports.DistanceProvider
	name  string
	cb    *gobreaker.CircuitBreaker
}

func NewBreakerDistanceProvider(name string, inner ports.DistanceProvider) *BreakerDistanceProvider {
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			// Cancellation is the caller's doing, not a provider fault.
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			obs.L(context.Background()).Warn("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &BreakerDistanceProvider{
		inner: inner,
		name:  name,
		cb:    gobreaker.NewCircuitBreaker(settings),
	}
}

func (b *BreakerDistanceProvider) GetDistance(
	ctx context.Context,
	origin string,
	destination string,
) (ports.DistanceResult, error) {
	v, err := b.execute(func() (any, error) {
		return b.inner.GetDistance(ctx, origin, destination)
	})
	if err != nil {
		return ports.DistanceResult{}, err
	}
	return v.(ports.DistanceResult), nil
}

func (b *BreakerDistanceProvider) GetDistances(
	ctx context.Context,
	origin string,
	destinations []string,
) (map[string]ports.DistanceResult, error) {
	mp, ok := b.inner.(ports.DistanceMatrixProvider)
	if !ok {
		out := make(map[string]ports.DistanceResult, len(destinations))
		for _, d := range destinations {
			r, err := b.GetDistance(ctx, origin, d)
			if err != nil {
				return nil, err
			}
			out[d] = r
		}
		return out, nil
	}

	v, err := b.execute(func() (any, error) {
		return mp.GetDistances(ctx, origin, destinations)
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]ports.DistanceResult), nil
}

func (b *BreakerDistanceProvider) execute(fn func() (any, error)) (any, error) {
	start := time.Now()
	v, err := b.cb.Execute(fn)
	obs.RoutingLatency.WithLabelValues(b.name).Observe(time.Since(start).Seconds())

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%s: %w: %v", b.name, ErrProviderUnavailable, err)
	}
	return v, err
}
