package services

import (
	"context"
	"fmt"
	"sync"

	"transport-request-service/internal/domain"
	"transport-request-service/internal/ports"
)

const (
	pickupID   = "LOC-1"
	pickupAddr = "1 Warehouse Rd"
)

type fakeTransfers struct {
	byPickup map[string][]domain.Transfer
}

func (f *fakeTransfers) ListPendingTransfers(_ context.Context, id string) ([]domain.Transfer, error) {
	return f.byPickup[id], nil
}

type fakeLocations struct {
	locations []domain.Location
}

func (f *fakeLocations) ListLocations(context.Context) ([]domain.Location, error) {
	return f.locations, nil
}

func (f *fakeLocations) GetLocation(_ context.Context, id string) (domain.Location, error) {
	for _, l := range f.locations {
		if l.LocationID == id {
			return l, nil
		}
	}
	return domain.Location{}, fmt.Errorf("location %q: %w", id, domain.ErrNotFound)
}

type fakeRates struct {
	rates []domain.CarrierRate
	last  ports.RateQuery
}

func (f *fakeRates) GetRate(_ context.Context, q ports.RateQuery) (domain.CarrierRate, error) {
	f.last = q
	for _, r := range f.rates {
		if r.CarrierName == q.CarrierName && r.Method == q.Method {
			return r, nil
		}
	}
	return domain.CarrierRate{}, fmt.Errorf("rate %s: %w", q.CarrierName, domain.ErrNotFound)
}

type fakeStore struct {
	mu        sync.Mutex
	created   []domain.SubmissionPayload
	updated   map[string]domain.SubmissionPayload
	deleted   []string
	createErr error
	block     bool
	nextID    int
}

func (f *fakeStore) Create(ctx context.Context, p domain.SubmissionPayload) (string, error) {
	if f.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.nextID++
	f.created = append(f.created, p)
	return fmt.Sprintf("REQ-%d", f.nextID), nil
}

func (f *fakeStore) Update(_ context.Context, id string, p domain.SubmissionPayload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updated == nil {
		f.updated = map[string]domain.SubmissionPayload{}
	}
	f.updated[id] = p
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeStore) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created) + len(f.updated) + len(f.deleted)
}

type fakeStatus struct {
	err error
	ids []string
}

func (f *fakeStatus) MarkAssigned(_ context.Context, _ string, ids []string) error {
	f.ids = append(f.ids, ids...)
	return f.err
}

func demoLocations() []domain.Location {
	return []domain.Location{
		{LocationID: pickupID, Code: "WH01", Address: pickupAddr},
		{LocationID: "LOC-2", Code: "ST22", Address: "5 Phan Xich Long"},
	}
}

func demoTransfers() []domain.Transfer {
	return []domain.Transfer{
		{TransferID: "T1", DeliveryAddress: "ST14 - 88 Le Loi", TotalPackages: 4, Volume: 1.2, TotalProducts: 30, PickupLocationID: pickupID},
		{TransferID: "T2", DeliveryAddress: "ST14 - 88 Le Loi", TotalPackages: 2, Volume: 0.5, TotalProducts: 10, PickupLocationID: pickupID},
		{TransferID: "T3", DeliveryAddress: "5 Phan Xich Long", TotalPackages: 6, Volume: 2, TotalProducts: 50, PickupLocationID: pickupID},
		{TransferID: "T4", DeliveryAddress: "9 Unknown St", TotalPackages: 1, Volume: 0.1, TotalProducts: 2, PickupLocationID: pickupID},
	}
}
