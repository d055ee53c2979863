// Package postgres persists case records in PostgreSQL through a pgx connection pool.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/couchcryptid/dengue-data-service/internal/domain"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Ping(ctx context.Context) error
	Close()
}

// Store implements the record store on PostgreSQL.
type Store struct {
	pool Pool
}

// New wraps an existing pool.
func New(pool Pool) *Store {
	return &Store{pool: pool}
}

// Connect creates a pool for connString and verifies it with a ping.
func Connect(ctx context.Context, connString string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}
	cfg.MaxConns = 10
	cfg.MinConns = 1
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Store{pool: pool}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS case_records (
	id          TEXT PRIMARY KEY,
	loc         TEXT NOT NULL,
	region      TEXT NOT NULL,
	cases       INTEGER NOT NULL CHECK (cases >= 0),
	deaths      INTEGER NOT NULL CHECK (deaths >= 0),
	report_date DATE NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_case_records_region ON case_records (upper(trim(region)));
`

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, migration); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (s *Store) Close() {
	s.pool.Close()
}

// FetchAll returns every record in insertion order.
func (s *Store) FetchAll(ctx context.Context) ([]domain.CaseRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, loc, region, cases, deaths, to_char(report_date, 'YYYY-MM-DD') FROM case_records ORDER BY created_at, id`)
	if err != nil {
		return nil, unavailable("fetch all", err)
	}
	defer rows.Close()

	var out []domain.CaseRecord
	for rows.Next() {
		var r domain.CaseRecord
		if err := rows.Scan(&r.ID, &r.Location, &r.Region, &r.Cases, &r.Deaths, &r.ReportDate); err != nil {
			return nil, unavailable("scan record", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("fetch all", err)
	}
	return out, nil
}

// Create inserts record under a fresh uuid and returns the id.
func (s *Store) Create(ctx context.Context, record domain.CaseRecord) (string, error) {
	date, err := reportDate(record)
	if err != nil {
		return "", err
	}
	id := uuid.New().String()

	_, err = s.pool.Exec(ctx,
		`INSERT INTO case_records (id, loc, region, cases, deaths, report_date) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, record.Location, record.Region, record.Cases, record.Deaths, date,
	)
	if err != nil {
		return "", unavailable("insert record", err)
	}
	return id, nil
}

// Update replaces the fields of the record with id.
func (s *Store) Update(ctx context.Context, id string, record domain.CaseRecord) error {
	date, err := reportDate(record)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE case_records SET loc = $1, region = $2, cases = $3, deaths = $4, report_date = $5 WHERE id = $6`,
		record.Location, record.Region, record.Cases, record.Deaths, date, id,
	)
	if err != nil {
		return unavailable("update record "+id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: record %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// Delete removes the record with id.
func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM case_records WHERE id = $1`, id)
	if err != nil {
		return unavailable("delete record "+id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: record %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// reportDate validates record and returns its date as a time for the DATE column.
func reportDate(record domain.CaseRecord) (time.Time, error) {
	if err := record.Validate(); err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.DateOnly, record.ReportDate)
}

func unavailable(op string, err error) error {
	return fmt.Errorf("postgres: %s: %w: %w", op, domain.ErrStoreUnavailable, err)
}
