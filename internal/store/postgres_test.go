package store

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestIsUniqueViolation(t *testing.T) {
	pkErr := &pgconn.PgError{Code: "23505", ConstraintName: "jobs_pkey"}
	ownerTitleErr := &pgconn.PgError{Code: "23505", ConstraintName: "jobs_owner_title_key"}

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"address primary key", pkErr, true},
		{"owner title constraint", ownerTitleErr, true},
		{"wrapped by driver plumbing", fmt.Errorf("insert: %w", pkErr), true},
		{"foreign key violation", &pgconn.PgError{Code: "23503"}, false},
		{"plain error", errors.New("connection reset"), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isUniqueViolation(tt.err); got != tt.want {
				t.Fatalf("isUniqueViolation(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}
