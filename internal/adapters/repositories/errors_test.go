package repositories

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"transport-request-service/internal/ports"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		quota bool
	}{
		{"nil", nil, false},
		{"plain", errors.New("boom"), false},
		{"too many connections", &pgconn.PgError{Code: "53300"}, true},
		{"disk full wrapped", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "53100"}), true},
		{"statement timeout", &pgconn.PgError{Code: "57014"}, true},
		{"unique violation", &pgconn.PgError{Code: "23505"}, false},
	}

	for _, c := range cases {
		got := classify(c.err)
		if c.err == nil {
			if got != nil {
				t.Fatalf("%s: classify(nil) = %v", c.name, got)
			}
			continue
		}
		if errors.Is(got, ports.ErrQuotaExceeded) != c.quota {
			t.Fatalf("%s: quota = %v, want %v", c.name, !c.quota, c.quota)
		}
		if !errors.Is(got, c.err) {
			t.Fatalf("%s: original error lost", c.name)
		}
	}
}
