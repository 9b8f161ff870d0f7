package repositories

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"transport-request-service/internal/ports"
)

// classify maps Postgres resource exhaustion (SQLSTATE class 53) and
// statement cancellation onto ports.ErrQuotaExceeded so callers can treat
// them as throttling rather than data errors.
func classify(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if strings.HasPrefix(pgErr.Code, "53") || pgErr.Code == "57014" {
			return errors.Join(ports.ErrQuotaExceeded, err)
		}
	}
	return err
}
