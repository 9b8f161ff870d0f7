package distance

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"transport-request-service/internal/domain"
	"transport-request-service/internal/platform/obs"
)

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// geocodeMany resolves addresses one by one with /geocode/search.
// Duplicates are skipped; each call may be retried under o.retry.
func (o *ORSDistanceProvider) geocodeMany(
	ctx context.Context,
	addresses []string,
) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, "ors.geocodeMany")(&err)

	seen := make(map[string]struct{}, len(addresses))
	out := make(map[string]domain.Coordinates, len(addresses))
	for _, a := range addresses {
		norm := o.normalize(a)
		if _, ok := seen[norm]; ok {
			continue
		}
		seen[norm] = struct{}{}

		coord, err := o.geocodeOne(ctx, norm)
		if err != nil {
			return nil, err
		}
		out[norm] = coord
	}

	return out, nil
}

func (o *ORSDistanceProvider) geocodeOne(ctx context.Context, address string) (domain.Coordinates, error) {
	q := url.Values{}
	q.Set("text", address)
	if o.country != "" {
		q.Set("boundary.country", o.country)
	}
	q.Set("size", "1")

	resp, err := o.call(ctx, http.MethodGet, "/geocode/search", q, nil)
	if err != nil {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: %w", address, err)
	}
	defer resp.Body.Close()

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Coordinates{}, fmt.Errorf("decode geocode response: %w", err)
	}

	if len(decoded.Features) == 0 {
		return domain.Coordinates{}, fmt.Errorf("no geocode results for %q", address)
	}

	coords := decoded.Features[0].Geometry.Coordinates
	if len(coords) != 2 {
		return domain.Coordinates{}, fmt.Errorf("invalid coordinate format for %q", address)
	}

	return domain.Coordinates{Lon: coords[0], Lat: coords[1]}, nil
}
