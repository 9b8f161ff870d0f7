package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"transport-request-service/internal/domain"
	"transport-request-service/internal/platform/obs"
	"transport-request-service/internal/ports"
)

const DefaultPersistTimeout = 15 * time.Second

type SubmitResult struct {
	RequestID string
	Payload   domain.SubmissionPayload
	// Warnings lists best-effort side effects that failed after the
	// request itself was saved.
	Warnings []string
}

// Submitter validates, assembles and persists drafts.
type Submitter struct {
	Store   ports.TransportRequestStore
	Status  ports.TransferStatusUpdater
	Timeout time.Duration
}

func (sb *Submitter) timeout() time.Duration {
	if sb.Timeout <= 0 {
		return DefaultPersistTimeout
	}
	return sb.Timeout
}

// Submit fills in missing distances, then validates and assembles the
// payload from one consistent view of the session. Validation failures
// return a *domain.ValidationError before any persistence call. A failed
// save leaves the session untouched so the caller can retry.
func (sb *Submitter) Submit(ctx context.Context, s *Session) (_ SubmitResult, err error) {
	defer obs.Time(ctx, "submit")(&err)

	if sb.Store == nil {
		return SubmitResult{}, errors.New("submit: no transport request store configured")
	}

	if err := s.EnsureDistances(ctx); err != nil {
		if s.Form().Method == domain.MethodPerKm {
			obs.Submissions.WithLabelValues("error").Inc()
			return SubmitResult{}, fmt.Errorf("submit: %w", err)
		}
		obs.L(ctx).Warn("submitting without complete distances", zap.String("session_id", s.ID), zap.Error(err))
	}

	payload, msgs := s.validatedPayload()
	if len(msgs) > 0 {
		obs.Submissions.WithLabelValues("invalid").Inc()
		return SubmitResult{}, &domain.ValidationError{Messages: msgs}
	}

	id, err := sb.save(ctx, payload)
	if err != nil {
		obs.Submissions.WithLabelValues("error").Inc()
		return SubmitResult{}, fmt.Errorf("submit: %w", err)
	}
	payload.RequestID = id
	s.markPersisted(id, false)
	obs.Submissions.WithLabelValues("ok").Inc()

	res := SubmitResult{RequestID: id, Payload: payload}
	if w := sb.markAssigned(ctx, id, payload); w != "" {
		res.Warnings = append(res.Warnings, w)
	}
	return res, nil
}

// SaveDraft persists the current state without validation so it can be
// resumed or abandoned later.
func (sb *Submitter) SaveDraft(ctx context.Context, s *Session) (_ string, err error) {
	defer obs.Time(ctx, "submit.SaveDraft")(&err)

	if sb.Store == nil {
		return "", errors.New("save draft: no transport request store configured")
	}

	id, err := sb.save(ctx, s.BuildPayload())
	if err != nil {
		return "", fmt.Errorf("save draft: %w", err)
	}
	s.markPersisted(id, true)
	return id, nil
}

// Abandon deletes the persisted draft of a session, if any. Submitted
// requests are never deleted.
func (sb *Submitter) Abandon(ctx context.Context, s *Session) (err error) {
	defer obs.Time(ctx, "submit.Abandon")(&err)

	id, ok := s.persistedDraft()
	if !ok || sb.Store == nil {
		return nil
	}

	pctx, cancel := context.WithTimeout(ctx, sb.timeout())
	defer cancel()

	if err := sb.Store.Delete(pctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("abandon draft %q: %w", id, err)
	}
	s.markPersisted("", false)
	return nil
}

func (sb *Submitter) save(ctx context.Context, p domain.SubmissionPayload) (string, error) {
	pctx, cancel := context.WithTimeout(ctx, sb.timeout())
	defer cancel()

	if p.RequestID != "" {
		if err := sb.Store.Update(pctx, p.RequestID, p); err != nil {
			return "", fmt.Errorf("update request %q: %w", p.RequestID, err)
		}
		return p.RequestID, nil
	}

	id, err := sb.Store.Create(pctx, p)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	return id, nil
}

// markAssigned is best effort. Quota and timeout failures are logged and
// swallowed; any other failure is logged and returned as a warning.
func (sb *Submitter) markAssigned(ctx context.Context, requestID string, p domain.SubmissionPayload) string {
	if sb.Status == nil {
		return ""
	}

	var ids []string
	for _, st := range p.Stops {
		ids = append(ids, splitIDs(st.TransferIDs)...)
	}
	if len(ids) == 0 {
		return ""
	}

	pctx, cancel := context.WithTimeout(ctx, sb.timeout())
	defer cancel()

	err := sb.Status.MarkAssigned(pctx, requestID, ids)
	if err == nil {
		return ""
	}

	log := obs.L(ctx).With(zap.String("request_id", requestID), zap.Int("transfers", len(ids)), zap.Error(err))
	if errors.Is(err, ports.ErrQuotaExceeded) || errors.Is(err, context.DeadlineExceeded) {
		log.Warn("transfer status update skipped")
		return ""
	}
	log.Error("transfer status update failed")
	return fmt.Sprintf("transfer status update failed: %v", err)
}

func splitIDs(joined string) []string {
	var out []string
	for _, id := range strings.Split(joined, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
