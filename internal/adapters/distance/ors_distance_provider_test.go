package distance

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"transport-request-service/internal/domain"
	"transport-request-service/internal/ports"
)

type memDistanceCache struct {
	mu sync.Mutex
	m  map[string]ports.DistanceResult
}

func (c *memDistanceCache) GetMany(_ context.Context, origin string, dests []string) (map[string]ports.DistanceResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := map[string]ports.DistanceResult{}
	for _, d := range dests {
		if r, ok := c.m[origin+"|"+d]; ok {
			out[d] = r
		}
	}
	return out, nil
}

func (c *memDistanceCache) PutMany(_ context.Context, origin string, results map[string]ports.DistanceResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for d, r := range results {
		c.m[origin+"|"+d] = r
	}
	return nil
}

type memGeocodeCache struct {
	mu sync.Mutex
	m  map[string]domain.Coordinates
}

func (c *memGeocodeCache) GetMany(_ context.Context, addrs []string) (map[string]domain.Coordinates, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := map[string]domain.Coordinates{}
	for _, a := range addrs {
		if v, ok := c.m[a]; ok {
			out[a] = v
		}
	}
	return out, nil
}

func (c *memGeocodeCache) PutMany(_ context.Context, results map[string]domain.Coordinates) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for a, v := range results {
		c.m[a] = v
	}
	return nil
}

// fakeORS answers geocode and matrix calls. The n-th destination of a matrix
// request is n km away. The first matrixFailures matrix calls answer with
// failureCode (503 when unset). Destinations whose longitude is in noRouteLon
// come back as null.
type fakeORS struct {
	geocodeCalls   atomic.Int32
	matrixCalls    atomic.Int32
	matrixFailures int32
	failureCode    int
	noRouteLon     map[float64]bool
	coords         map[string][]float64
	lastCountry    atomic.Value
}

func (f *fakeORS) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/geocode/search", func(w http.ResponseWriter, r *http.Request) {
		f.geocodeCalls.Add(1)
		f.lastCountry.Store(r.URL.Query().Get("boundary.country"))
		c, ok := f.coords[r.URL.Query().Get("text")]
		features := []map[string]any{}
		if ok {
			features = append(features, map[string]any{"geometry": map[string]any{"coordinates": c}})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"features": features})
	})
	mux.HandleFunc("/v2/matrix/driving-car", func(w http.ResponseWriter, r *http.Request) {
		if f.matrixCalls.Add(1) <= f.matrixFailures {
			code := f.failureCode
			if code == 0 {
				code = http.StatusServiceUnavailable
			}
			http.Error(w, "busy", code)
			return
		}
		var req matrixRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		dist := make([]*float64, len(req.Destinations))
		dur := make([]*float64, len(req.Destinations))
		for i, idx := range req.Destinations {
			if f.noRouteLon[req.Locations[idx][0]] {
				continue
			}
			m, s := float64(i+1)*1000, float64(i+1)*120
			dist[i], dur[i] = &m, &s
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"distances": [][]*float64{dist},
			"durations": [][]*float64{dur},
		})
	})
	return mux
}

func newFakeORS(t *testing.T, failures int32, opts ...ORSOption) (*fakeORS, *ORSDistanceProvider) {
	t.Helper()

	f := &fakeORS{
		matrixFailures: failures,
		noRouteLon:     map[float64]bool{},
		coords: map[string][]float64{
			"12 Nguyen Van Linh": {106.72, 10.73},
			"88 Le Loi":          {106.70, 10.77},
			"5 Phan Xich Long":   {106.69, 10.80},
			"1 Orchard Rd":       {103.83, 1.30},
		},
	}
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)

	opts = append([]ORSOption{WithBaseURL(srv.URL), WithRetry(4, time.Millisecond)}, opts...)
	p, err := NewORSDistanceProvider("key",
		&memDistanceCache{m: map[string]ports.DistanceResult{}},
		&memGeocodeCache{m: map[string]domain.Coordinates{}},
		opts...,
	)
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	return f, p
}

func TestORSGetDistancesUsesCaches(t *testing.T) {
	f, p := newFakeORS(t, 0)
	ctx := context.Background()

	got, err := p.GetDistances(ctx, " 12 Nguyen  Van Linh", []string{"88 Le Loi", "5 Phan Xich Long", "88  Le Loi"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results keyed by normalized address, got %v", got)
	}
	if got["88 Le Loi"].DistanceMeters != 1000 || got["5 Phan Xich Long"].DistanceMeters != 2000 {
		t.Fatalf("unexpected distances: %v", got)
	}
	if f.geocodeCalls.Load() != 3 || f.matrixCalls.Load() != 1 {
		t.Fatalf("expected 3 geocode and 1 matrix call, got %d and %d", f.geocodeCalls.Load(), f.matrixCalls.Load())
	}
	if c, _ := f.lastCountry.Load().(string); c != "VN" {
		t.Fatalf("expected geocoding restricted to VN, got %q", c)
	}

	r, err := p.GetDistance(ctx, "12 Nguyen Van Linh", "5 Phan Xich Long")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.DistanceMeters != 2000 {
		t.Fatalf("expected cached 2000 m, got %d", r.DistanceMeters)
	}
	if f.geocodeCalls.Load() != 3 || f.matrixCalls.Load() != 1 {
		t.Fatalf("cached lookup must not call ORS again")
	}
}

func TestORSRetriesTransientFailures(t *testing.T) {
	f, p := newFakeORS(t, 1)

	r, err := p.GetDistance(context.Background(), "12 Nguyen Van Linh", "88 Le Loi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.DistanceMeters != 1000 {
		t.Fatalf("expected 1000 m, got %d", r.DistanceMeters)
	}
	if f.matrixCalls.Load() != 2 {
		t.Fatalf("expected one retry, got %d matrix calls", f.matrixCalls.Load())
	}
}

func TestORSUnknownAddress(t *testing.T) {
	_, p := newFakeORS(t, 0)

	if _, err := p.GetDistance(context.Background(), "12 Nguyen Van Linh", "nowhere"); err == nil {
		t.Fatalf("expected error for an address without geocode results")
	}
}

func TestORSBatchesStops(t *testing.T) {
	f, p := newFakeORS(t, 0, WithMatrixBatch(1))

	got, err := p.GetDistances(context.Background(), "12 Nguyen Van Linh", []string{"88 Le Loi", "5 Phan Xich Long"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 || f.matrixCalls.Load() != 2 {
		t.Fatalf("expected 2 results from 2 matrix calls, got %v from %d", got, f.matrixCalls.Load())
	}
}

func TestORSReportsEveryUnroutableStop(t *testing.T) {
	f, p := newFakeORS(t, 0)
	f.noRouteLon[106.70] = true
	f.noRouteLon[106.69] = true

	_, err := p.GetDistances(context.Background(), "12 Nguyen Van Linh", []string{"88 Le Loi", "5 Phan Xich Long"})

	var ue *UnroutableStopsError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnroutableStopsError, got %v", err)
	}
	slices.Sort(ue.Stops)
	if !slices.Equal(ue.Stops, []string{"5 Phan Xich Long", "88 Le Loi"}) || ue.Pickup != "12 Nguyen Van Linh" {
		t.Fatalf("unexpected error detail: %+v", ue)
	}
}

func TestORSRejectsStopOutsideServiceCountry(t *testing.T) {
	f, p := newFakeORS(t, 0)

	_, err := p.GetDistances(context.Background(), "12 Nguyen Van Linh", []string{"88 Le Loi", "1 Orchard Rd"})

	var ue *UnroutableStopsError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnroutableStopsError, got %v", err)
	}
	if !slices.Equal(ue.Stops, []string{"1 Orchard Rd"}) {
		t.Fatalf("expected only the foreign stop, got %v", ue.Stops)
	}
	if f.matrixCalls.Load() != 0 {
		t.Fatalf("matrix must not be called for a foreign stop")
	}
}

func TestORSDoesNotRetryClientErrors(t *testing.T) {
	f, p := newFakeORS(t, 1)
	f.failureCode = http.StatusUnauthorized

	if _, err := p.GetDistance(context.Background(), "12 Nguyen Van Linh", "88 Le Loi"); err == nil {
		t.Fatalf("expected error for 401")
	}
	if f.matrixCalls.Load() != 1 {
		t.Fatalf("expected a single matrix call, got %d", f.matrixCalls.Load())
	}
}

func TestRetryPolicyDelay(t *testing.T) {
	p := retryPolicy{Attempts: 4, Base: 100 * time.Millisecond, Max: time.Second}

	tests := []struct {
		name    string
		attempt int
		err     error
		want    time.Duration
	}{
		{"first backoff", 1, errors.New("x"), 100 * time.Millisecond},
		{"doubles", 3, errors.New("x"), 400 * time.Millisecond},
		{"retry-after wins", 1, &routingStatusError{Code: 429, RetryAfter: 500 * time.Millisecond}, 500 * time.Millisecond},
		{"capped", 1, &routingStatusError{Code: 429, RetryAfter: time.Minute}, time.Second},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := p.delay(tc.attempt, tc.err); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
