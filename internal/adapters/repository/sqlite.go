package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/SFZPL/tms-sub000/internal/domain/model"
)

// CurrentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const CurrentSchemaVersion = 1

// SQLiteStore is a Store backed by a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the schedule database at path and
// applies migrations.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// Pragmas in the DSN apply to every pooled connection.
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := verifyWALMode(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	_ = os.Chmod(path, 0o600)

	return &SQLiteStore{db: db}, nil
}

// DB exposes the underlying handle for maintenance tasks.
func (s *SQLiteStore) DB() *sql.DB { return s.db }

// Close implements Store.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// migrate applies schema migrations based on user_version.
func migrate(db *sql.DB) error {
	version, err := userVersion(db)
	if err != nil {
		return err
	}

	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS employees (
		  id        TEXT PRIMARY KEY,
		  name      TEXT NOT NULL,
		  name_norm TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS commitments (
		  id             INTEGER PRIMARY KEY AUTOINCREMENT,
		  employee_id    TEXT NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
		  start_at       INTEGER NOT NULL,
		  end_at         INTEGER NOT NULL,
		  work_item_id   TEXT,
		  work_item_name TEXT,
		  deadline       TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_commitments_employee_start
		ON commitments(employee_id, start_at);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if err := setUserVersion(db, 1); err != nil {
			return err
		}
	}

	return nil
}

func verifyWALMode(db *sql.DB) error {
	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode;").Scan(&journalMode); err != nil {
		return fmt.Errorf("failed to verify journal mode: %w", err)
	}
	if journalMode != "wal" {
		return fmt.Errorf("expected WAL mode, got %s", journalMode)
	}
	return nil
}

func userVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get user_version: %w", err)
	}
	return version, nil
}

func setUserVersion(db *sql.DB, version int) error {
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", version)); err != nil {
		return fmt.Errorf("failed to set user_version: %w", err)
	}
	return nil
}

// UpsertEmployee implements Store.
func (s *SQLiteStore) UpsertEmployee(ctx context.Context, e Employee) error {
	if err := validateEmployee(e); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO employees (id, name, name_norm) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, name_norm = excluded.name_norm
	`, e.ID, e.Name, model.NormalizeName(e.Name))
	if err != nil {
		return fmt.Errorf("upsert employee %s: %w", e.ID, err)
	}
	return nil
}

// AddCommitment implements Store.
func (s *SQLiteStore) AddCommitment(ctx context.Context, employeeID string, c model.Commitment) error {
	if err := validateCommitment(c); err != nil {
		return err
	}
	if ok, err := s.employeeExists(ctx, employeeID); err != nil {
		return err
	} else if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownEmployee, employeeID)
	}

	var deadline sql.NullString
	if c.Deadline != nil {
		deadline = sql.NullString{String: c.Deadline.Format(time.RFC3339), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO commitments (employee_id, start_at, end_at, work_item_id, work_item_name, deadline)
		VALUES (?, ?, ?, ?, ?, ?)
	`, employeeID, c.Start.Unix(), c.End.Unix(), toNullString(c.WorkItemID), toNullString(c.WorkItemName), deadline)
	if err != nil {
		return fmt.Errorf("add commitment for %s: %w", employeeID, err)
	}
	return nil
}

// Employees implements Store.
func (s *SQLiteStore) Employees(ctx context.Context) ([]Employee, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM employees ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list employees: %w", err)
	}
	defer rows.Close()

	var out []Employee
	for rows.Next() {
		var e Employee
		if err := rows.Scan(&e.ID, &e.Name); err != nil {
			return nil, fmt.Errorf("scan employee: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ResolveDesignerID implements availability.CommitmentSource.
func (s *SQLiteStore) ResolveDesignerID(ctx context.Context, name string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM employees WHERE name_norm = ? ORDER BY id LIMIT 1`,
		model.NormalizeName(name),
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("resolve %q: %w", name, err)
	}

	employees, err := s.Employees(ctx)
	if err != nil {
		return "", err
	}
	e, ok := MatchEmployee(employees, name)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrNotFound, name)
	}
	return e.ID, nil
}

// ListCommitments implements availability.CommitmentSource, ordered by start.
func (s *SQLiteStore) ListCommitments(ctx context.Context, designerID string) ([]model.Commitment, error) {
	if ok, err := s.employeeExists(ctx, designerID); err != nil {
		return nil, err
	} else if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEmployee, designerID)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT start_at, end_at, work_item_id, work_item_name, deadline
		FROM commitments
		WHERE employee_id = ?
		ORDER BY start_at, id
	`, designerID)
	if err != nil {
		return nil, fmt.Errorf("list commitments for %s: %w", designerID, err)
	}
	defer rows.Close()

	out := []model.Commitment{}
	for rows.Next() {
		var (
			start, end       int64
			itemID, itemName sql.NullString
			deadline         sql.NullString
		)
		if err := rows.Scan(&start, &end, &itemID, &itemName, &deadline); err != nil {
			return nil, fmt.Errorf("scan commitment: %w", err)
		}
		c := model.Commitment{
			Start:        time.Unix(start, 0).UTC(),
			End:          time.Unix(end, 0).UTC(),
			WorkItemID:   itemID.String,
			WorkItemName: itemName.String,
		}
		if deadline.Valid {
			d, err := time.Parse(time.RFC3339, deadline.String)
			if err != nil {
				return nil, fmt.Errorf("parse deadline %q: %w", deadline.String, err)
			}
			c.Deadline = &d
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) employeeExists(ctx context.Context, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM employees WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup employee %s: %w", id, err)
	}
	return true, nil
}

func toNullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
