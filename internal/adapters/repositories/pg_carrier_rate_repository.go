package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"transport-request-service/internal/domain"
	"transport-request-service/internal/ports"
)

type PgCarrierRateRepository struct{ DB *sql.DB }

func NewPgCarrierRateRepository(db *sql.DB) *PgCarrierRateRepository {
	return &PgCarrierRateRepository{DB: db}
}

// GetRate returns the most specific rate card for the query. Rows with an
// empty vehicle type or service area act as wildcards.
func (s *PgCarrierRateRepository) GetRate(ctx context.Context, q ports.RateQuery) (domain.CarrierRate, error) {
	if s.DB == nil {
		return domain.CarrierRate{}, errors.New("carrier rate repository: DB is nil")
	}

	var (
		r      domain.CarrierRate
		method string
	)
	err := s.DB.QueryRowContext(ctx, `
	SELECT
		carrier_name, pricing_method, vehicle_type, service_area,
		base_rate, per_km_rate, per_m3_rate, per_trip_rate,
		stop_fee, fuel_surcharge, remote_area_fee, insurance_rate
	FROM carrier_rates
	WHERE carrier_name = $1
		AND pricing_method = $2
		AND (vehicle_type = $3 OR vehicle_type = '')
		AND (service_area = $4 OR service_area = '')
	ORDER BY (vehicle_type <> '')::int + (service_area <> '')::int DESC,
		(vehicle_type <> '')::int DESC
	LIMIT 1;
	`, q.CarrierName, string(q.Method), q.VehicleType, q.ServiceArea).Scan(
		&r.CarrierName, &method, &r.VehicleType, &r.ServiceArea,
		&r.BaseRate, &r.PerKmRate, &r.PerM3Rate, &r.PerTripRate,
		&r.StopFee, &r.FuelSurcharge, &r.RemoteAreaFee, &r.InsuranceRate,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CarrierRate{}, fmt.Errorf("get rate %s/%s: %w", q.CarrierName, q.Method, domain.ErrNotFound)
	}
	if err != nil {
		return domain.CarrierRate{}, fmt.Errorf("get rate %s/%s: %w", q.CarrierName, q.Method, err)
	}

	r.Method = domain.ParsePricingMethod(method)
	return r, nil
}
