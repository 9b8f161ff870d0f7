package ports

import (
	"context"
	"errors"

	"transport-request-service/internal/domain"
)

// ErrQuotaExceeded is returned by backends that throttle writes.
var ErrQuotaExceeded = errors.New("backend quota exceeded")

// TransportRequestStore persists submitted transport requests.
type TransportRequestStore interface {
	Create(ctx context.Context, p domain.SubmissionPayload) (string, error)
	Update(ctx context.Context, requestID string, p domain.SubmissionPayload) error
	Delete(ctx context.Context, requestID string) error
}
