// Package store persists job records and the transition event log. The
// postgres store is the production backend; the memory store backs tests and
// the no-database dev mode. Both serialize transitions per address, which is
// the only ordering the state machine relies on.
package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"github.com/cloudmesh/ledger/internal/domain"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// ApplyFunc evaluates a state transition against the current committed record
// for an address, nil when no record exists there.
type ApplyFunc func(current *domain.Job) (*domain.Job, *domain.Event, error)

// PostgresStore persists jobs and events in postgres.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates a PostgresStore on an open connection pool.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate applies the embedded schema migrations in filename order.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	entries, err := fs.Glob(migrationFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(entries)

	for _, name := range entries {
		stmt, err := migrationFS.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := s.db.ExecContext(ctx, string(stmt)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

const jobColumns = `address, owner, title, code_cid, result_cid, start_time, end_time, status, job_type, cost, cost_paid, bump`

// Apply runs fn against the latest committed record at addr while holding a
// row lock on it, then persists the returned record and appends the event in
// the same transaction. On error nothing is written.
func (s *PostgresStore) Apply(ctx context.Context, addr domain.Address, fn ApplyFunc) (*domain.Event, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var current *domain.Job
	var row domain.Job
	err = tx.GetContext(ctx, &row,
		`SELECT `+jobColumns+` FROM jobs WHERE address = $1 FOR UPDATE`, addr)
	switch {
	case err == nil:
		current = &row
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, fmt.Errorf("lock job %s: %w", addr, err)
	}

	next, event, err := fn(current)
	if err != nil {
		return nil, err
	}

	if current == nil {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO jobs (`+jobColumns+`)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
			next.Address, next.Owner, next.Title, next.CodeCid, next.ResultCid,
			next.StartTime, next.EndTime, next.Status, next.JobType,
			int64(next.Cost), next.CostPaid, int16(next.Bump))
	} else {
		_, err = tx.ExecContext(ctx,
			`UPDATE jobs
			 SET result_cid = $2, end_time = $3, status = $4, cost = $5, cost_paid = $6
			 WHERE address = $1`,
			next.Address, next.ResultCid, next.EndTime, next.Status,
			int64(next.Cost), next.CostPaid)
	}
	if err != nil {
		// FOR UPDATE locks nothing for an absent address, so two concurrent
		// creates can both observe nil and race to the insert. The loser of
		// that race failed its precondition, not the database.
		if current == nil && isUniqueViolation(err) {
			return nil, domain.ErrAddressAlreadyInUse
		}
		return nil, fmt.Errorf("persist job %s: %w", addr, err)
	}

	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return nil, fmt.Errorf("encode event payload: %w", err)
	}
	err = tx.QueryRowxContext(ctx,
		`INSERT INTO job_events (kind, address, payload)
		 VALUES ($1, $2, $3)
		 RETURNING seq, emitted_at`,
		event.Kind, event.Address, payload,
	).Scan(&event.Seq, &event.EmittedAt)
	if err != nil {
		return nil, fmt.Errorf("append event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return event, nil
}

// isUniqueViolation reports whether err is a postgres unique-constraint
// violation. Both the address primary key and the (owner, title) constraint
// mean the same thing here: the derived address is already in use.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// Get retrieves the job at addr.
func (s *PostgresStore) Get(ctx context.Context, addr domain.Address) (*domain.Job, error) {
	var job domain.Job
	err := s.db.GetContext(ctx, &job,
		`SELECT `+jobColumns+` FROM jobs WHERE address = $1`, addr)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get job %s: %w", addr, err)
	}
	return &job, nil
}

// ListAll returns every job in insertion order.
func (s *PostgresStore) ListAll(ctx context.Context) ([]domain.Job, error) {
	var jobs []domain.Job
	err := s.db.SelectContext(ctx, &jobs,
		`SELECT `+jobColumns+` FROM jobs ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

// ListByOwner returns the owner's jobs in insertion order.
func (s *PostgresStore) ListByOwner(ctx context.Context, owner domain.PublicKey) ([]domain.Job, error) {
	var jobs []domain.Job
	err := s.db.SelectContext(ctx, &jobs,
		`SELECT `+jobColumns+` FROM jobs WHERE owner = $1 ORDER BY seq`, owner)
	if err != nil {
		return nil, fmt.Errorf("list jobs for %s: %w", owner, err)
	}
	return jobs, nil
}
