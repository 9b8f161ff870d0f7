package ports

import (
	"context"

	"transport-request-service/internal/domain"
)

// LocationDirectory resolves pickup and stop display names and codes.
type LocationDirectory interface {
	ListLocations(ctx context.Context) ([]domain.Location, error)
	GetLocation(ctx context.Context, locationID string) (domain.Location, error)
}
