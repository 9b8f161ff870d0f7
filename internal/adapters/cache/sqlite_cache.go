package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"transport-request-service/internal/domain"
	"transport-request-service/internal/platform/obs"
	"transport-request-service/internal/ports"
)

// SQLite backed caches for a single instance deployment. Both share one
// database file; InitSqliteSchema creates their tables.

func InitSqliteSchema(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return errors.New("init sqlite cache schema: DB is nil")
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS distance_cache (
			origin TEXT NOT NULL,
			destination TEXT NOT NULL,
			distance_meters INTEGER NOT NULL,
			duration_seconds INTEGER NOT NULL,
			PRIMARY KEY (origin, destination)
		);`,
		`CREATE TABLE IF NOT EXISTS geocode_cache (
			address TEXT PRIMARY KEY,
			lon REAL NOT NULL,
			lat REAL NOT NULL
		);`,
	}

	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init sqlite cache schema: exec statement #%d: %w", i+1, err)
		}
	}
	return nil
}

type SqliteDistanceCache struct {
	DB *sql.DB
}

func NewSqliteDistanceCache(db *sql.DB) *SqliteDistanceCache {
	return &SqliteDistanceCache{DB: db}
}

func (s *SqliteDistanceCache) GetMany(
	ctx context.Context,
	origin string,
	destinations []string,
) (_ map[string]ports.DistanceResult, err error) {
	defer obs.Time(ctx, "distance.cache.sqlite.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("distance cache: db is nil")
	}
	if origin == "" {
		return nil, errors.New("get distance cache: origin must not be empty")
	}

	uniq := uniqueKeys(destinations)
	if len(uniq) == 0 {
		return map[string]ports.DistanceResult{}, nil
	}

	args := make([]any, 0, 1+len(uniq))
	args = append(args, origin)
	for _, d := range uniq {
		args = append(args, d)
	}

	// SQLite cannot bind a slice to IN (...); only the placeholder list is
	// interpolated, every value stays parameterized.
	q := fmt.Sprintf(`
	SELECT destination, distance_meters, duration_seconds
	FROM distance_cache
	WHERE origin = ?
		AND destination IN (%s);
	`, placeholders(len(uniq)))

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("get distance cache: query distance_cache table: %w", err)
	}
	defer rows.Close()

	return scanDistances(rows, len(uniq))
}

func (s *SqliteDistanceCache) PutMany(
	ctx context.Context,
	origin string,
	results map[string]ports.DistanceResult,
) error {
	return putDistances(ctx, s.DB, origin, results, `
	INSERT OR REPLACE INTO distance_cache (origin, destination, distance_meters, duration_seconds)
	VALUES (?, ?, ?, ?)
	`)
}

type SqliteGeocodeCache struct {
	DB *sql.DB
}

func NewSqliteGeocodeCache(db *sql.DB) *SqliteGeocodeCache {
	return &SqliteGeocodeCache{DB: db}
}

func (s *SqliteGeocodeCache) GetMany(
	ctx context.Context,
	addresses []string,
) (_ map[string]domain.Coordinates, err error) {
	defer obs.Time(ctx, "geocode.cache.sqlite.GetMany")(&err)

	if s.DB == nil {
		return nil, errors.New("geocode cache: db is nil")
	}

	uniq := uniqueKeys(addresses)
	if len(uniq) == 0 {
		return map[string]domain.Coordinates{}, nil
	}

	args := make([]any, 0, len(uniq))
	for _, a := range uniq {
		args = append(args, a)
	}

	q := fmt.Sprintf(`
	SELECT address, lon, lat
	FROM geocode_cache
	WHERE address IN (%s);
	`, placeholders(len(uniq)))

	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("get geocode cache: query geocode_cache table: %w", err)
	}
	defer rows.Close()

	return scanCoordinates(rows, len(uniq))
}

func (s *SqliteGeocodeCache) PutMany(ctx context.Context, results map[string]domain.Coordinates) error {
	return putCoordinates(ctx, s.DB, results, `
	INSERT OR REPLACE INTO geocode_cache (address, lon, lat)
	VALUES (?, ?, ?)
	`)
}
