package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"transport-request-service/internal/domain"
	"transport-request-service/internal/platform/obs"
)

// PgTransportRequestStore persists submitted transport requests with their
// stop lines. Header and stops are written in one transaction.
type PgTransportRequestStore struct{ DB *sql.DB }

func NewPgTransportRequestStore(db *sql.DB) *PgTransportRequestStore {
	return &PgTransportRequestStore{DB: db}
}

func (s *PgTransportRequestStore) Create(ctx context.Context, p domain.SubmissionPayload) (_ string, err error) {
	defer obs.Time(ctx, "requests.Create")(&err)

	if s.DB == nil {
		return "", errors.New("transport request store: DB is nil")
	}

	id := p.RequestID
	if id == "" {
		id = uuid.NewString()
	}

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
		INSERT INTO transport_requests (
			request_id, pickup_address, pickup_code, carrier, vehicle_type, service_area,
			department, note, pricing_method, base_rate, price_per_km, price_per_trip,
			price_per_m3, stop_fee, fuel_surcharge, toll_fee, insurance_fee,
			total_packages, total_volume, total_distance_km, total_orders, total_products,
			estimated_cost, formula
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24);
		`, headerArgs(id, p)...)
		if err != nil {
			return fmt.Errorf("insert transport request: %w", err)
		}
		return insertStops(ctx, tx, id, p.Stops)
	})
	if err != nil {
		return "", fmt.Errorf("create transport request: %w", classify(err))
	}

	return id, nil
}

func (s *PgTransportRequestStore) Update(ctx context.Context, requestID string, p domain.SubmissionPayload) (err error) {
	defer obs.Time(ctx, "requests.Update")(&err)

	if s.DB == nil {
		return errors.New("transport request store: DB is nil")
	}

	err = s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
		UPDATE transport_requests
		SET pickup_address = $2, pickup_code = $3, carrier = $4, vehicle_type = $5,
			service_area = $6, department = $7, note = $8, pricing_method = $9,
			base_rate = $10, price_per_km = $11, price_per_trip = $12, price_per_m3 = $13,
			stop_fee = $14, fuel_surcharge = $15, toll_fee = $16, insurance_fee = $17,
			total_packages = $18, total_volume = $19, total_distance_km = $20,
			total_orders = $21, total_products = $22, estimated_cost = $23, formula = $24,
			updated_at = now()
		WHERE request_id = $1;
		`, headerArgs(requestID, p)...)
		if err != nil {
			return fmt.Errorf("update transport request: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return fmt.Errorf("update transport request %q: %w", requestID, domain.ErrNotFound)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM transport_request_stops WHERE request_id = $1;`, requestID); err != nil {
			return fmt.Errorf("clear stops: %w", err)
		}
		return insertStops(ctx, tx, requestID, p.Stops)
	})
	if err != nil {
		return fmt.Errorf("update transport request: %w", classify(err))
	}
	return nil
}

func (s *PgTransportRequestStore) Delete(ctx context.Context, requestID string) (err error) {
	defer obs.Time(ctx, "requests.Delete")(&err)

	if s.DB == nil {
		return errors.New("transport request store: DB is nil")
	}

	res, err := s.DB.ExecContext(ctx, `DELETE FROM transport_requests WHERE request_id = $1;`, requestID)
	if err != nil {
		return fmt.Errorf("delete transport request %q: %w", requestID, classify(err))
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("delete transport request %q: %w", requestID, domain.ErrNotFound)
	}
	return nil
}

func (s *PgTransportRequestStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func headerArgs(id string, p domain.SubmissionPayload) []any {
	return []any{
		id, p.PickupAddress, p.PickupCode, p.Carrier, p.VehicleType, p.ServiceArea,
		p.Department, p.Note, string(p.Pricing.Method), p.Pricing.BaseRate, p.Pricing.PricePerKm,
		p.Pricing.PricePerTrip, p.Pricing.PricePerM3, p.Pricing.StopFee, p.Pricing.FuelSurcharge,
		p.Pricing.TollFee, p.Pricing.InsuranceFee,
		p.TotalPackages, p.TotalVolume, p.TotalDistanceKm, p.TotalOrders, p.TotalProducts,
		p.EstimatedCost, p.Formula,
	}
}

func insertStops(ctx context.Context, tx *sql.Tx, requestID string, stops []domain.StopLine) error {
	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO transport_request_stops (
		request_id, stop_index, stop_key, address, source_code, packages, volume,
		distance_km, order_count, product_count, transfer_ids
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`)
	if err != nil {
		return fmt.Errorf("insert stops: prepare: %w", err)
	}
	defer stmt.Close()

	for _, st := range stops {
		if _, err := stmt.ExecContext(ctx,
			requestID, st.Index, st.StopKey, st.Address, st.SourceCode, st.Packages, st.Volume,
			st.DistanceKm, st.OrderCount, st.ProductCount, st.TransferIDs,
		); err != nil {
			return fmt.Errorf("insert stop %d: %w", st.Index, err)
		}
	}
	return nil
}
