package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"transport-request-service/internal/domain"
)

type PgLocationDirectory struct{ DB *sql.DB }

func NewPgLocationDirectory(db *sql.DB) *PgLocationDirectory {
	return &PgLocationDirectory{DB: db}
}

func (s *PgLocationDirectory) ListLocations(ctx context.Context) ([]domain.Location, error) {
	if s.DB == nil {
		return nil, errors.New("location directory: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, `
	SELECT location_id, code, address, category, status
	FROM locations
	ORDER BY code, location_id;
	`)
	if err != nil {
		return nil, fmt.Errorf("list locations: query locations table: %w", err)
	}
	defer rows.Close()

	var out []domain.Location
	for rows.Next() {
		var l domain.Location
		if err := rows.Scan(&l.LocationID, &l.Code, &l.Address, &l.Category, &l.Status); err != nil {
			return nil, fmt.Errorf("list locations: scan row: %w", err)
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list locations: row iteration: %w", err)
	}

	return out, nil
}

func (s *PgLocationDirectory) GetLocation(ctx context.Context, locationID string) (domain.Location, error) {
	if s.DB == nil {
		return domain.Location{}, errors.New("location directory: DB is nil")
	}

	var l domain.Location
	err := s.DB.QueryRowContext(ctx, `
	SELECT location_id, code, address, category, status
	FROM locations
	WHERE location_id = $1;
	`, locationID).Scan(&l.LocationID, &l.Code, &l.Address, &l.Category, &l.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Location{}, fmt.Errorf("get location %q: %w", locationID, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Location{}, fmt.Errorf("get location %q: %w", locationID, err)
	}

	return l, nil
}
