package ports

import (
	"context"

	"transport-request-service/internal/domain"
)

type RateQuery struct {
	CarrierName string
	Method      domain.PricingMethod
	VehicleType string
	ServiceArea string
}

// CarrierRateProvider returns the rate card best matching the query, or an
// error wrapping domain.ErrNotFound.
type CarrierRateProvider interface {
	GetRate(ctx context.Context, q RateQuery) (domain.CarrierRate, error)
}
