package services

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"transport-request-service/internal/domain"
	"transport-request-service/internal/platform/obs"
	"transport-request-service/internal/ports"
	"transport-request-service/internal/registry"
)

// DraftForm holds the header fields of a transport request being edited.
type DraftForm struct {
	PickupLocationID string
	Carrier          string
	Method           domain.PricingMethod
	VehicleType      string
	ServiceArea      string
	Department       string
	Note             string
	// RequestID is set when the draft edits a persisted request.
	RequestID string
}

// FormUpdate carries a partial form change. Nil fields are left untouched.
// Pricing, when set, overrides rate-card values.
type FormUpdate struct {
	PickupLocationID *string
	Carrier          *string
	Method           *domain.PricingMethod
	VehicleType      *string
	ServiceArea      *string
	Department       *string
	Note             *string
	Pricing          *domain.PricingInput
}

// SessionDeps are the collaborators shared by every session.
type SessionDeps struct {
	Transfers  ports.TransferRepository
	Locations  ports.LocationDirectory
	Rates      ports.CarrierRateProvider
	Aggregator *DistanceAggregator
}

// Session owns the state of one open draft: form fields, the stop point
// registry and the distance table. All methods are safe for concurrent use.
//
// Distance recomputation runs without the lock. Each run is tagged with a
// sequence number and the reset epoch; a result is applied only if no later
// run has been applied and no reset happened in between.
type Session struct {
	ID      string
	Created time.Time

	deps SessionDeps

	mu          sync.Mutex
	form        DraftForm
	pricing     domain.PricingInput
	reg         *registry.Registry
	locations   []domain.Location
	distances   map[string]float64
	distanceErr string
	seq         uint64
	applied     uint64
	epoch       uint64
	// draft is true while the persisted request has not been submitted.
	draft     bool
	submitted bool
}

func NewSession(id string, deps SessionDeps) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	return &Session{
		ID:        id,
		Created:   time.Now(),
		deps:      deps,
		reg:       registry.New(),
		distances: map[string]float64{},
	}
}

// Form returns a copy of the form fields.
func (s *Session) Form() DraftForm {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

func (s *Session) Pricing() domain.PricingInput {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().pricingInput()
}

// SetPickup loads the pending transfers of a pickup location and clears the
// selection, the stop points and the distances. In-flight distance runs
// started before the change are dropped when they complete.
func (s *Session) SetPickup(ctx context.Context, locationID string) (err error) {
	defer obs.Time(ctx, "session.SetPickup")(&err)

	locationID = strings.TrimSpace(locationID)
	if locationID == "" {
		s.mu.Lock()
		s.resetLocked("", nil, nil)
		s.mu.Unlock()
		return nil
	}

	if s.deps.Transfers == nil || s.deps.Locations == nil {
		return errors.New("set pickup: transfer and location sources are required")
	}

	locations, err := s.deps.Locations.ListLocations(ctx)
	if err != nil {
		return fmt.Errorf("set pickup: list locations: %w", err)
	}
	if !slices.ContainsFunc(locations, func(l domain.Location) bool { return l.LocationID == locationID }) {
		return fmt.Errorf("set pickup: location %q: %w", locationID, domain.ErrNotFound)
	}

	transfers, err := s.deps.Transfers.ListPendingTransfers(ctx, locationID)
	if err != nil {
		return fmt.Errorf("set pickup: list transfers: %w", err)
	}

	s.mu.Lock()
	s.resetLocked(locationID, transfers, locations)
	s.mu.Unlock()
	return nil
}

func (s *Session) resetLocked(locationID string, transfers []domain.Transfer, locations []domain.Location) {
	s.epoch++
	s.form.PickupLocationID = locationID
	s.reg.Reset(transfers)
	s.locations = locations
	s.distances = map[string]float64{}
	s.distanceErr = ""
}

// Reset clears every selection without changing the pickup location.
// Used when the draft is closed.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked(s.form.PickupLocationID, nil, s.locations)
}

// UpdateForm applies a partial form change. A pickup change resets the
// selection. When carrier and method are known and no explicit pricing is
// given, the matching rate card is applied; rateApplied reports whether one
// was found.
func (s *Session) UpdateForm(ctx context.Context, u FormUpdate) (rateApplied bool, err error) {
	if u.PickupLocationID != nil && strings.TrimSpace(*u.PickupLocationID) != s.Form().PickupLocationID {
		if err := s.SetPickup(ctx, *u.PickupLocationID); err != nil {
			return false, err
		}
	}

	s.mu.Lock()
	setIf(&s.form.Carrier, u.Carrier)
	setIf(&s.form.VehicleType, u.VehicleType)
	setIf(&s.form.ServiceArea, u.ServiceArea)
	setIf(&s.form.Department, u.Department)
	setIf(&s.form.Note, u.Note)
	if u.Method != nil {
		s.form.Method = *u.Method
	}
	if u.Pricing != nil {
		s.pricing = *u.Pricing
	}
	form := s.form
	s.mu.Unlock()

	if u.Pricing != nil || s.deps.Rates == nil || form.Carrier == "" || !form.Method.Valid() {
		return false, nil
	}

	in, err := ApplyCarrierRate(ctx, s.deps.Rates, form)
	if errors.Is(err, domain.ErrNotFound) {
		obs.L(ctx).Info("no carrier rate for draft",
			zap.String("session_id", s.ID),
			zap.String("carrier", form.Carrier),
			zap.Stringer("method", form.Method),
		)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("update form: %w", err)
	}

	s.mu.Lock()
	s.pricing = in
	s.mu.Unlock()
	return true, nil
}

func setIf(dst *string, v *string) {
	if v != nil {
		*dst = strings.TrimSpace(*v)
	}
}

// SelectTransfer adds a transfer to the selection. It fails with
// domain.ErrStopCapacity when an eleventh stop point would be needed.
func (s *Session) SelectTransfer(transferID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.reg.SelectedStopKeys()
	if err := s.reg.SelectTransfer(transferID); err != nil {
		return err
	}
	// A key freed by a pruned stop may be reused for a new address.
	for _, k := range s.reg.SelectedStopKeys() {
		if !slices.Contains(before, k) {
			delete(s.distances, k)
		}
	}
	return nil
}

func (s *Session) DeselectTransfer(transferID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reg.DeselectTransfer(transferID)
	s.pruneDistancesLocked()
}

func (s *Session) pruneDistancesLocked() {
	keys := s.reg.SelectedStopKeys()
	maps.DeleteFunc(s.distances, func(k string, _ float64) bool {
		return !slices.Contains(keys, k)
	})
}

// RecomputeDistances runs the aggregator for the current pickup and stop
// selection. applied is false when the result was superseded by a later run
// or by a reset and therefore discarded.
func (s *Session) RecomputeDistances(ctx context.Context) (res DistanceResult, applied bool) {
	s.mu.Lock()
	s.seq++
	seq, epoch := s.seq, s.epoch
	pickup := s.form.PickupLocationID
	keys := s.reg.SelectedStopKeys()
	stops := s.reg.StopPoints()
	locations := slices.Clone(s.locations)
	s.mu.Unlock()

	if pickup == "" {
		return DistanceResult{Distances: map[string]float64{}, Err: domain.ErrPickupRequired.Error()}, false
	}
	if s.deps.Aggregator == nil {
		return DistanceResult{Distances: map[string]float64{}, Err: "no distance aggregator configured"}, false
	}

	res = s.deps.Aggregator.Calculate(ctx, pickup, keys, stops, locations)

	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch || seq <= s.applied {
		obs.StaleDistanceResults.Inc()
		obs.L(ctx).Debug("stale distance result dropped",
			zap.String("session_id", s.ID),
			zap.Uint64("seq", seq),
		)
		return res, false
	}
	s.applied = seq

	if !res.OK() {
		s.distanceErr = res.Err
		return res, true
	}

	addrAt := make(map[string]string, len(stops))
	for _, sp := range stops {
		addrAt[sp.Key] = sp.DeliveryAddress
	}
	for k, km := range res.Distances {
		// The key may have been pruned and reused for another address.
		if cur, ok := s.reg.StopPoint(k); ok && cur.DeliveryAddress == addrAt[k] {
			s.distances[k] = km
		}
	}
	s.distanceErr = ""
	s.pruneDistancesLocked()
	return res, true
}

// EnsureDistances recomputes only when a selected stop lacks a distance.
func (s *Session) EnsureDistances(ctx context.Context) error {
	s.mu.Lock()
	missing := false
	for _, k := range s.reg.SelectedStopKeys() {
		if _, ok := s.distances[k]; !ok {
			missing = true
			break
		}
	}
	s.mu.Unlock()

	if !missing {
		return nil
	}

	res, applied := s.RecomputeDistances(ctx)
	if !res.OK() {
		return fmt.Errorf("ensure distances: %s", res.Err)
	}
	if !applied {
		return errors.New("ensure distances: result superseded")
	}
	return nil
}

// Cost computes the cost breakdown from the current state.
func (s *Session) Cost() domain.CostBreakdown {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view().cost()
}

// Validate returns the messages blocking submission; empty means ok.
func (s *Session) Validate() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return validateSubmission(s.view())
}

// BuildPayload assembles the persistence payload from the current state.
func (s *Session) BuildPayload() domain.SubmissionPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return assemblePayload(s.view())
}

// validatedPayload validates and assembles under one lock so a concurrent
// selection change cannot slip between the two.
func (s *Session) validatedPayload() (domain.SubmissionPayload, []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.view()
	if msgs := validateSubmission(v); len(msgs) > 0 {
		return domain.SubmissionPayload{}, msgs
	}
	return assemblePayload(v), nil
}

func (s *Session) view() draftView {
	return draftView{
		form:      s.form,
		pricing:   s.pricing,
		reg:       s.reg,
		distances: s.distances,
		locations: s.locations,
	}
}

// Snapshot is a point-in-time copy of a session for display.
type Snapshot struct {
	ID                  string
	Form                DraftForm
	Pricing             domain.PricingInput
	Transfers           []domain.Transfer
	SelectedTransferIDs []string
	StopPoints          []domain.StopPoint
	SelectedStopKeys    []string
	StopTotals          map[string]domain.StopTotals
	Distances           map[string]float64
	DistanceError       string
	Cost                domain.CostBreakdown
	Draft               bool
	Submitted           bool
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := s.view()
	keys := s.reg.SelectedStopKeys()
	totals := make(map[string]domain.StopTotals, len(keys))
	for _, k := range keys {
		totals[k] = s.reg.StopTotals(k)
	}

	return Snapshot{
		ID:                  s.ID,
		Form:                s.form,
		Pricing:             v.pricingInput(),
		Transfers:           s.reg.Transfers(),
		SelectedTransferIDs: s.reg.SelectedTransferIDs(),
		StopPoints:          s.reg.StopPoints(),
		SelectedStopKeys:    keys,
		StopTotals:          totals,
		Distances:           maps.Clone(s.distances),
		DistanceError:       s.distanceErr,
		Cost:                v.cost(),
		Draft:               s.draft,
		Submitted:           s.submitted,
	}
}

func (s *Session) markPersisted(requestID string, draft bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form.RequestID = requestID
	s.draft = draft
	s.submitted = requestID != "" && !draft
}

func (s *Session) persistedDraft() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form.RequestID, s.draft && s.form.RequestID != ""
}

// SessionStore holds the open sessions by id.
type SessionStore struct {
	deps SessionDeps

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewSessionStore(deps SessionDeps) *SessionStore {
	return &SessionStore{deps: deps, sessions: map[string]*Session{}}
}

// Open starts a new draft. A non-empty requestID edits a persisted request.
func (st *SessionStore) Open(requestID string) *Session {
	s := NewSession("", st.deps)
	s.form.RequestID = strings.TrimSpace(requestID)

	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s
}

func (st *SessionStore) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	s, ok := st.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %q: %w", id, domain.ErrNotFound)
	}
	return s, nil
}

// Close removes a session and resets its state so that in-flight distance
// runs are dropped.
func (st *SessionStore) Close(id string) (*Session, error) {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("session %q: %w", id, domain.ErrNotFound)
	}
	s.Reset()
	return s, nil
}

func (st *SessionStore) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}
