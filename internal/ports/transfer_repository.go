package ports

import (
	"context"

	"transport-request-service/internal/domain"
)

// Port: a boundary for listing transfers awaiting transport.
type TransferRepository interface {
	// Retrieve transfers in pending-transport status picked up at the given location.
	ListPendingTransfers(ctx context.Context, pickupLocationID string) ([]domain.Transfer, error)
}

// TransferStatusUpdater flags transfers once a transport request covers them.
// It is a best-effort side channel: callers log its failures.
type TransferStatusUpdater interface {
	MarkAssigned(ctx context.Context, requestID string, transferIDs []string) error
}
