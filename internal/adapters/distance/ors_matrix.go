package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"

	"transport-request-service/internal/domain"
	"transport-request-service/internal/ports"
)

const defaultMatrixBatch = 25

type matrixRequest struct {
	Locations    [][]float64 `json:"locations"`
	Sources      []int       `json:"sources"`
	Destinations []int       `json:"destinations"`
	Metrics      []string    `json:"metrics"`
	Units        string      `json:"units,omitempty"`
}

type matrixResponse struct {
	Distances [][]*float64 `json:"distances"`
	Durations [][]*float64 `json:"durations"`
}

type bounds struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

func (b bounds) contains(c domain.Coordinates) bool {
	return c.Lat >= b.MinLat && c.Lat <= b.MaxLat && c.Lon >= b.MinLon && c.Lon <= b.MaxLon
}

// countryBounds are loose boxes around the service countries. A geocode
// outside them resolved to the wrong place and would price a bogus route.
var countryBounds = map[string]bounds{
	"VN": {MinLat: 8.0, MaxLat: 23.5, MinLon: 102.0, MaxLon: 110.0},
}

// UnroutableStopsError lists the stop addresses the routing service could
// not reach from the pickup.
type UnroutableStopsError struct {
	Pickup string
	Stops  []string
	Reason string
}

func (e *UnroutableStopsError) Error() string {
	return fmt.Sprintf("no route from pickup %q to %s: %s",
		e.Pickup, strings.Join(quoteAll(e.Stops), ", "), e.Reason)
}

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}

// routeStops fetches pickup-to-stop distances in batches of o.matrixBatch
// stops. Every stop without a route is collected before failing.
func (o *ORSDistanceProvider) routeStops(
	ctx context.Context,
	pickup string,
	pickupAt domain.Coordinates,
	stops []string,
	stopAt []domain.Coordinates,
) (map[string]ports.DistanceResult, error) {
	if len(stops) != len(stopAt) {
		return nil, fmt.Errorf("route stops: %d stops but %d coordinates", len(stops), len(stopAt))
	}

	if b, ok := countryBounds[o.country]; ok {
		if !b.contains(pickupAt) {
			return nil, fmt.Errorf("route stops: pickup %q geocoded outside %s", pickup, o.country)
		}
		var outside []string
		for i, c := range stopAt {
			if !b.contains(c) {
				outside = append(outside, stops[i])
			}
		}
		if len(outside) > 0 {
			return nil, &UnroutableStopsError{Pickup: pickup, Stops: outside, Reason: "geocoded outside " + o.country}
		}
	}

	batch := o.matrixBatch
	if batch <= 0 {
		batch = defaultMatrixBatch
	}

	out := make(map[string]ports.DistanceResult, len(stops))
	var unroutable []string
	for start := 0; start < len(stops); start += batch {
		end := min(start+batch, len(stops))
		row, err := o.matrixRow(ctx, pickupAt, stopAt[start:end])
		if err != nil {
			return nil, fmt.Errorf("route stops %d-%d: %w", start+1, end, err)
		}
		for i, r := range row {
			addr := stops[start+i]
			if r == nil {
				unroutable = append(unroutable, addr)
				continue
			}
			out[addr] = *r
		}
	}

	if len(unroutable) > 0 {
		return nil, &UnroutableStopsError{Pickup: pickup, Stops: unroutable, Reason: "no road route"}
	}
	return out, nil
}

// matrixRow asks for one source row; a nil entry means no route.
func (o *ORSDistanceProvider) matrixRow(
	ctx context.Context,
	pickupAt domain.Coordinates,
	stopAt []domain.Coordinates,
) ([]*ports.DistanceResult, error) {
	req := matrixRequest{
		Locations:    [][]float64{pickupAt.CoordsToList()},
		Sources:      []int{0},
		Destinations: make([]int, len(stopAt)),
		Metrics:      []string{"distance", "duration"},
		Units:        "m",
	}
	for i, c := range stopAt {
		req.Locations = append(req.Locations, c.CoordsToList())
		req.Destinations[i] = i + 1
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal matrix request: %w", err)
	}

	resp, err := o.call(ctx, http.MethodPost, "/v2/matrix/"+o.profile, nil, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var mr matrixResponse
	if err := json.NewDecoder(resp.Body).Decode(&mr); err != nil {
		return nil, fmt.Errorf("decode matrix response: %w", err)
	}
	if len(mr.Distances) != 1 || len(mr.Durations) != 1 ||
		len(mr.Distances[0]) != len(stopAt) || len(mr.Durations[0]) != len(stopAt) {
		return nil, fmt.Errorf("matrix response shape does not match %d stops", len(stopAt))
	}

	row := make([]*ports.DistanceResult, len(stopAt))
	for i := range stopAt {
		m, s := mr.Distances[0][i], mr.Durations[0][i]
		if m == nil || s == nil {
			continue
		}
		// Stored as whole meters and seconds.
		row[i] = &ports.DistanceResult{
			DistanceMeters:  int(math.Round(*m)),
			DurationSeconds: int(math.Round(*s)),
		}
	}
	return row, nil
}
