package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transport-request-service/internal/adapters/distance"
	"transport-request-service/internal/domain"
	"transport-request-service/internal/ports"
)

func TestSubmitValidationBlocksPersistence(t *testing.T) {
	store := &fakeStore{}
	status := &fakeStatus{}
	sb := &Submitter{Store: store, Status: status}

	_, err := sb.Submit(context.Background(), NewSession("", SessionDeps{}))

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.NotEmpty(t, verr.Messages)
	assert.Equal(t, 0, store.calls())
	assert.Empty(t, status.ids)
}

func TestSubmitPersistsAndMarksTransfers(t *testing.T) {
	store := &fakeStore{}
	status := &fakeStatus{}
	sb := &Submitter{Store: store, Status: status}

	s := readySession(t, domain.MethodPerM3)
	res, err := sb.Submit(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, "REQ-1", res.RequestID)
	require.Len(t, store.created, 1)
	assert.Len(t, store.created[0].Stops, 3)
	assert.ElementsMatch(t, []string{"T1", "T3", "T4"}, status.ids)
	assert.Empty(t, res.Warnings)
	assert.True(t, s.Snapshot().Submitted)

	// Distances were filled in before the payload was built.
	assert.Equal(t, 11.5, store.created[0].TotalDistanceKm)
}

func TestSubmitPerKmComputesMissingDistances(t *testing.T) {
	store := &fakeStore{}
	sb := &Submitter{Store: store}

	s := readySession(t, domain.MethodPerKm)
	require.Empty(t, s.Snapshot().Distances)

	res, err := sb.Submit(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, store.created, 1)
	assert.Equal(t, 11.5, store.created[0].TotalDistanceKm)
	assert.Equal(t, 190000.0, res.Payload.EstimatedCost)
}

func TestSubmitPerKmFailsWhenRoutingFails(t *testing.T) {
	provider := distance.NewMockDistanceProvider(demoPairs())
	provider.Hook = func(context.Context, string, string) error {
		return errors.New("routing down")
	}
	store := &fakeStore{}
	sb := &Submitter{Store: store}

	_, err := sb.Submit(context.Background(), readySessionWith(t, domain.MethodPerKm, provider))
	require.Error(t, err)
	assert.Equal(t, 0, store.calls())
}

func TestSubmitRevalidatesAfterDistanceLookup(t *testing.T) {
	provider := distance.NewMockDistanceProvider(demoPairs())
	s := readySessionWith(t, domain.MethodPerTrip, provider)

	// Another request clears the selection while distances are in flight.
	var once sync.Once
	provider.Hook = func(context.Context, string, string) error {
		once.Do(func() {
			for _, id := range []string{"T1", "T3", "T4"} {
				s.DeselectTransfer(id)
			}
		})
		return nil
	}

	store := &fakeStore{}
	status := &fakeStatus{}
	sb := &Submitter{Store: store, Status: status}

	_, err := sb.Submit(context.Background(), s)

	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Messages, "at least one stop point must be selected")
	assert.Equal(t, 0, store.calls())
	assert.Empty(t, status.ids)
	assert.False(t, s.Snapshot().Submitted)
}

func TestSubmitUpdatesExistingRequest(t *testing.T) {
	store := &fakeStore{}
	sb := &Submitter{Store: store}

	s := readySession(t, domain.MethodPerTrip)
	s.markPersisted("REQ-77", false)

	res, err := sb.Submit(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, "REQ-77", res.RequestID)
	assert.Contains(t, store.updated, "REQ-77")
	assert.Empty(t, store.created)
}

func TestSubmitSwallowsQuotaAndTimeoutOnStatusUpdate(t *testing.T) {
	for _, statusErr := range []error{
		fmt.Errorf("mark: %w", ports.ErrQuotaExceeded),
		fmt.Errorf("mark: %w", context.DeadlineExceeded),
	} {
		sb := &Submitter{Store: &fakeStore{}, Status: &fakeStatus{err: statusErr}}
		res, err := sb.Submit(context.Background(), readySession(t, domain.MethodPerTrip))
		require.NoError(t, err)
		assert.Empty(t, res.Warnings)
	}

	sb := &Submitter{Store: &fakeStore{}, Status: &fakeStatus{err: errors.New("boom")}}
	res, err := sb.Submit(context.Background(), readySession(t, domain.MethodPerTrip))
	require.NoError(t, err)
	assert.Len(t, res.Warnings, 1)
}

func TestSubmitPrimaryFailureKeepsDraft(t *testing.T) {
	store := &fakeStore{createErr: errors.New("sheet unavailable")}
	sb := &Submitter{Store: store}
	s := readySession(t, domain.MethodPerTrip)

	_, err := sb.Submit(context.Background(), s)
	require.Error(t, err)

	snap := s.Snapshot()
	assert.False(t, snap.Submitted)
	assert.Len(t, snap.SelectedTransferIDs, 3)
}

func TestSubmitTimesOut(t *testing.T) {
	sb := &Submitter{Store: &fakeStore{block: true}, Timeout: 20 * time.Millisecond}

	_, err := sb.Submit(context.Background(), readySession(t, domain.MethodPerTrip))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSaveDraftAndAbandon(t *testing.T) {
	store := &fakeStore{}
	sb := &Submitter{Store: store}
	s := readySession(t, domain.MethodPerTrip)

	id, err := sb.SaveDraft(context.Background(), s)
	require.NoError(t, err)

	require.NoError(t, sb.Abandon(context.Background(), s))
	assert.Equal(t, []string{id}, store.deleted)
	assert.Empty(t, s.Form().RequestID)

	// Nothing left to delete.
	require.NoError(t, sb.Abandon(context.Background(), s))
	assert.Len(t, store.deleted, 1)
}

func TestAbandonNeverDeletesSubmittedRequest(t *testing.T) {
	store := &fakeStore{}
	sb := &Submitter{Store: store}
	s := readySession(t, domain.MethodPerTrip)

	_, err := sb.Submit(context.Background(), s)
	require.NoError(t, err)
	require.NoError(t, sb.Abandon(context.Background(), s))
	assert.Empty(t, store.deleted)
}
