package distance

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"

	"transport-request-service/internal/ports"
)

// PlaceholderDistanceProvider stands in for a routing API. It derives a
// synthetic but stable distance from the (origin, destination) pair, so
// repeated calls with the same input always agree.
type PlaceholderDistanceProvider struct {
	// MinMeters and SpanMeters bound the synthetic distance to
	// [MinMeters, MinMeters+SpanMeters).
	MinMeters  int
	SpanMeters int
	// SpeedKmh converts distance to duration.
	SpeedKmh int
}

func NewPlaceholderDistanceProvider() *PlaceholderDistanceProvider {
	return &PlaceholderDistanceProvider{MinMeters: 2000, SpanMeters: 38000, SpeedKmh: 30}
}

func (p *PlaceholderDistanceProvider) GetDistance(
	ctx context.Context,
	origin string,
	destination string,
) (ports.DistanceResult, error) {
	if err := ctx.Err(); err != nil {
		return ports.DistanceResult{}, err
	}

	o := strings.Join(strings.Fields(origin), " ")
	d := strings.Join(strings.Fields(destination), " ")
	if o == "" || d == "" {
		return ports.DistanceResult{}, errors.New("placeholder distance: origin and destination must be non-empty")
	}
	if o == d {
		return ports.DistanceResult{}, nil
	}

	h := fnv.New64a()
	h.Write([]byte(o))
	h.Write([]byte{'|'})
	h.Write([]byte(d))

	span := max(p.SpanMeters, 1)
	// Round to 100 m so displayed kilometres stay short.
	meters := (p.MinMeters + int(h.Sum64()%uint64(span))) / 100 * 100

	speed := max(p.SpeedKmh, 1)
	seconds := meters * 36 / (speed * 10)

	return ports.DistanceResult{DistanceMeters: meters, DurationSeconds: seconds}, nil
}

func (p *PlaceholderDistanceProvider) GetDistances(
	ctx context.Context,
	origin string,
	destinations []string,
) (map[string]ports.DistanceResult, error) {
	out := make(map[string]ports.DistanceResult, len(destinations))
	for _, d := range destinations {
		r, err := p.GetDistance(ctx, origin, d)
		if err != nil {
			return nil, err
		}
		out[d] = r
	}
	return out, nil
}
