// Package sqlite persists case records in a local SQLite file via modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/couchcryptid/dengue-data-service/internal/domain"
)

// Store implements the record store on SQLite.
type Store struct {
	db *sql.DB
}

// Open opens a SQLite database at dsn and configures WAL mode.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, fmt.Errorf("sqlite: exec %s: %w", pragma, err)
		}
	}
	return &Store{db: db}, nil
}

const migration = `
CREATE TABLE IF NOT EXISTS case_records (
	id          TEXT PRIMARY KEY,
	loc         TEXT NOT NULL,
	region      TEXT NOT NULL,
	cases       INTEGER NOT NULL CHECK (cases >= 0),
	deaths      INTEGER NOT NULL CHECK (deaths >= 0),
	report_date TEXT NOT NULL,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_case_records_region ON case_records(region);
`

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, migration); err != nil {
		return fmt.Errorf("sqlite: migrate: %w", err)
	}
	return nil
}

// Ping checks the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return unavailable("ping", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// FetchAll returns every record in insertion order.
func (s *Store) FetchAll(ctx context.Context) ([]domain.CaseRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, loc, region, cases, deaths, report_date FROM case_records ORDER BY rowid`)
	if err != nil {
		return nil, unavailable("fetch all", err)
	}
	defer rows.Close() //nolint:errcheck

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
	if err := record.Validate(); err != nil {
		return "", err
	}
	id := uuid.New().String()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO case_records (id, loc, region, cases, deaths, report_date) VALUES (?, ?, ?, ?, ?, ?)`,
		id, record.Location, record.Region, record.Cases, record.Deaths, record.ReportDate,
	)
	if err != nil {
		return "", unavailable("insert record", err)
	}
	return id, nil
}

// Update replaces the fields of the record with id.
func (s *Store) Update(ctx context.Context, id string, record domain.CaseRecord) error {
	if err := record.Validate(); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE case_records SET loc = ?, region = ?, cases = ?, deaths = ?, report_date = ? WHERE id = ?`,
		record.Location, record.Region, record.Cases, record.Deaths, record.ReportDate, id,
	)
	if err != nil {
		return unavailable("update record "+id, err)
	}
	return checkRowsAffected(res, id)
}

// Delete removes the record with id.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM case_records WHERE id = ?`, id)
	if err != nil {
		return unavailable("delete record "+id, err)
	}
	return checkRowsAffected(res, id)
}

func checkRowsAffected(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable("rows affected", err)
	}
	if n == 0 {
		return fmt.Errorf("sqlite: record %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("sqlite: %s: %w: %w", op, domain.ErrStoreUnavailable, err)
}
