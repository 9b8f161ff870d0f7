package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transport-request-service/internal/adapters/distance"
	"transport-request-service/internal/api/dto"
	"transport-request-service/internal/domain"
	"transport-request-service/internal/services"
)

type memCatalog struct {
	locations []domain.Location
	transfers []domain.Transfer
}

func (m *memCatalog) ListPendingTransfers(_ context.Context, pickup string) ([]domain.Transfer, error) {
	var out []domain.Transfer
	for _, t := range m.transfers {
		if t.PickupLocationID == pickup {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memCatalog) ListLocations(context.Context) ([]domain.Location, error) {
	return m.locations, nil
}

func (m *memCatalog) GetLocation(_ context.Context, id string) (domain.Location, error) {
	for _, l := range m.locations {
		if l.LocationID == id {
			return l, nil
		}
	}
	return domain.Location{}, domain.ErrNotFound
}

type memStore struct {
	mu      sync.Mutex
	saved   map[string]domain.SubmissionPayload
	deleted []string
}

func (m *memStore) Create(_ context.Context, p domain.SubmissionPayload) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := fmt.Sprintf("REQ-%d", len(m.saved)+1)
	m.saved[id] = p
	return id, nil
}

func (m *memStore) Update(_ context.Context, id string, p domain.SubmissionPayload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved[id] = p
	return nil
}

func (m *memStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, id)
	return nil
}

func newTestServer(t *testing.T) (*httptest.Server, *memStore) {
	t.Helper()

	catalog := &memCatalog{
		locations: []domain.Location{{LocationID: "WH", Code: "WH01", Address: "12 Nguyen Van Linh"}},
	}
	for i := 1; i <= 11; i++ {
		catalog.transfers = append(catalog.transfers, domain.Transfer{
			TransferID:       fmt.Sprintf("T%02d", i),
			DeliveryAddress:  fmt.Sprintf("ST%d - %d Le Loi", i, i),
			TotalPackages:    2,
			Volume:           0.5,
			TotalProducts:    10,
			PickupLocationID: "WH",
		})
	}

	store := &memStore{saved: map[string]domain.SubmissionPayload{}}
	sessions := services.NewSessionStore(services.SessionDeps{
		Transfers:  catalog,
		Locations:  catalog,
		Aggregator: services.NewDistanceAggregator(distance.NewPlaceholderDistanceProvider()),
	})

	srv := httptest.NewServer(NewRouter(Deps{
		Transfers: catalog,
		Locations: catalog,
		Sessions:  sessions,
		Submitter: &services.Submitter{Store: store},
	}))
	t.Cleanup(srv.Close)
	return srv, store
}

func do(t *testing.T, method, url string, body any, out any) int {
	t.Helper()

	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, rd)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	if out != nil && res.StatusCode < 300 && res.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(res.Body).Decode(out))
	}
	return res.StatusCode
}

func TestHealthAndRequestID(t *testing.T) {
	srv, _ := newTestServer(t)

	res, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.NotEmpty(t, res.Header.Get("X-Request-ID"))
}

func TestCostEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	var out dto.CostResponse
	status := do(t, http.MethodPost, srv.URL+"/cost", map[string]any{
		"pricing_method":    "perKm",
		"base_rate":         "50.000",
		"price_per_km":      10000,
		"stop_fee":          "20.000",
		"toll_fee":          5000,
		"total_distance_km": "10",
		"total_stops":       2,
	}, &out)

	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 50000.0, out.BaseCost)
	assert.Equal(t, 60000.0, out.DistanceCost)
	assert.Equal(t, 40000.0, out.StopCost)
	assert.Equal(t, 5000.0, out.SurchargeCost)
	assert.Equal(t, 155000.0, out.TotalCost)
	assert.Equal(t, "155.000", out.EstimatedCostVN)
}

func TestCostEndpointRejectsUnknownFields(t *testing.T) {
	srv, _ := newTestServer(t)

	status := do(t, http.MethodPost, srv.URL+"/cost", map[string]any{"bogus": 1}, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestSessionFlow(t *testing.T) {
	srv, store := newTestServer(t)

	var sess dto.SessionResponse
	require.Equal(t, http.StatusCreated, do(t, http.MethodPost, srv.URL+"/sessions", nil, &sess))
	base := srv.URL + "/sessions/" + sess.ID

	require.Equal(t, http.StatusOK, do(t, http.MethodPut, base+"/form", map[string]any{
		"pickup_location_id": "WH",
		"carrier":            "Saigon Express",
		"pricing_method":     "PER_KM",
		"vehicle_type":       "truck",
		"service_area":       "inner",
		"department":         "Logistics",
		"pricing":            map[string]any{"base_rate": 200000, "price_per_km": "12.000"},
	}, &sess))
	assert.Len(t, sess.Transfers, 11)

	for i := 1; i <= 10; i++ {
		require.Equal(t, http.StatusOK, do(t, http.MethodPost, fmt.Sprintf("%s/transfers/T%02d", base, i), nil, &sess))
	}
	assert.Len(t, sess.SelectedStopKeys, 10)
	assert.Greater(t, sess.TotalDistanceKm, 0.0)

	status := do(t, http.MethodPost, base+"/transfers/T11", nil, nil)
	assert.Equal(t, http.StatusConflict, status)

	var v dto.ValidateResponse
	require.Equal(t, http.StatusOK, do(t, http.MethodPost, base+"/validate", nil, &v))
	assert.True(t, v.OK, "%v", v.Messages)

	var sub dto.SubmitResponse
	require.Equal(t, http.StatusCreated, do(t, http.MethodPost, base+"/submit", nil, &sub))
	assert.Equal(t, "REQ-1", sub.RequestID)
	assert.Len(t, sub.Stops, 10)
	assert.Equal(t, "ST1", sub.Stops[0].SourceCode)
	assert.Equal(t, 20, sub.TotalPackages)
	assert.Contains(t, store.saved, "REQ-1")

	require.Equal(t, http.StatusNoContent, do(t, http.MethodDelete, base, nil, nil))
	assert.Equal(t, http.StatusNotFound, do(t, http.MethodGet, base, nil, nil))
	assert.Empty(t, store.deleted, "submitted requests are not deleted on close")
}

func TestSubmitInvalidSession(t *testing.T) {
	srv, store := newTestServer(t)

	var sess dto.SessionResponse
	require.Equal(t, http.StatusCreated, do(t, http.MethodPost, srv.URL+"/sessions", nil, &sess))

	res, err := http.Post(srv.URL+"/sessions/"+sess.ID+"/submit", "application/json", strings.NewReader(""))
	require.NoError(t, err)
	defer res.Body.Close()

	var body struct {
		Error    string   `json:"error"`
		Messages []string `json:"messages"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	assert.Contains(t, body.Messages, "carrier is required")
	assert.Empty(t, store.saved)
}

func TestUnknownSession(t *testing.T) {
	srv, _ := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, do(t, http.MethodGet, srv.URL+"/sessions/nope", nil, nil))
}
