package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"transport-request-service/internal/domain"
	"transport-request-service/internal/platform/obs"
)

// Postgres-backed implementation of the TransferRepository and
// TransferStatusUpdater ports.
type PgTransferRepository struct{ DB *sql.DB }

func NewPgTransferRepository(db *sql.DB) *PgTransferRepository {
	return &PgTransferRepository{DB: db}
}

// Return pending transfers for a pickup location, ordered by id.
func (s *PgTransferRepository) ListPendingTransfers(
	ctx context.Context,
	pickupLocationID string,
) (_ []domain.Transfer, err error) {
	defer obs.Time(ctx, "transfers.ListPending")(&err)

	if s.DB == nil {
		return nil, errors.New("transfer repository: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, `
	SELECT
		transfer_id,
		delivery_address,
		total_packages,
		volume,
		total_products,
		pickup_location_id,
		status
	FROM transfers
	WHERE pickup_location_id = $1
		AND status = $2
	ORDER BY transfer_id;
	`, pickupLocationID, domain.TransferStatusPending)
	if err != nil {
		return nil, fmt.Errorf("list transfers: query transfers table: %w", err)
	}
	defer rows.Close()

	transfers := make([]domain.Transfer, 0, 64)
	for rows.Next() {
		var t domain.Transfer
		if err := rows.Scan(
			&t.TransferID,
			&t.DeliveryAddress,
			&t.TotalPackages,
			&t.Volume,
			&t.TotalProducts,
			&t.PickupLocationID,
			&t.Status,
		); err != nil {
			return nil, fmt.Errorf("list transfers: scan row: %w", err)
		}
		transfers = append(transfers, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list transfers: row iteration: %w", err)
	}

	return transfers, nil
}

// MarkAssigned moves transfers out of the pending status once a transport
// request covers them.
func (s *PgTransferRepository) MarkAssigned(ctx context.Context, requestID string, transferIDs []string) (err error) {
	defer obs.Time(ctx, "transfers.MarkAssigned")(&err)

	if s.DB == nil {
		return errors.New("transfer repository: DB is nil")
	}
	if len(transferIDs) == 0 {
		return nil
	}

	_, err = s.DB.ExecContext(ctx, `
	UPDATE transfers
	SET status = 'assigned',
		request_id = $1
	WHERE transfer_id = ANY($2::text[])
		AND status = $3;
	`, requestID, transferIDs, domain.TransferStatusPending)
	if err != nil {
		return fmt.Errorf("mark transfers assigned: %w", classify(err))
	}
	return nil
}
