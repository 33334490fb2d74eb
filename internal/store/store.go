package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/jimezsa/heyjobs/internal/models"
	_ "modernc.org/sqlite"
)

// ErrLocked is returned when another process holds the database lock.
var ErrLocked = errors.New("database is in use by another run")

const (
	MemoryPath = ":memory:"
	lockSuffix = ".lock"
)

const dropSchema = `DROP TABLE IF EXISTS job_adds;`

const createSchema = `
CREATE TABLE job_adds (
    id    INTEGER PRIMARY KEY AUTOINCREMENT,
    uid   TEXT NOT NULL CHECK (uid <> '' AND length(uid) <= 500),
    title TEXT NOT NULL CHECK (title <> '' AND length(title) <= 500)
);
`

// Store persists job records in SQLite. Only one Store may be open per
// database file at a time.
type Store struct {
	db       *sql.DB
	lockPath string
}

// Open opens (or creates) the database at path and takes the run lock.
// It does not touch the schema; call Reset for that.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	var lockPath string
	if path != MemoryPath {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
		lockPath = path + lockSuffix
		if err := acquireLock(lockPath); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		releaseLock(lockPath)
		return nil, err
	}
	// An in-memory database lives and dies with its connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		releaseLock(lockPath)
		return nil, err
	}

	return &Store{db: db, lockPath: lockPath}, nil
}

// Close closes the database and releases the run lock.
func (s *Store) Close() error {
	err := s.db.Close()
	releaseLock(s.lockPath)
	return err
}

// Reset drops and recreates the job table. Every previously stored record
// is discarded.
func (s *Store) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, dropSchema); err != nil {
		tx.Rollback()
		return fmt.Errorf("drop schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, createSchema); err != nil {
		tx.Rollback()
		return fmt.Errorf("create schema: %w", err)
	}
	return tx.Commit()
}

// SaveAll inserts each record in its own transaction. A failing record is
// rolled back and reported; the remaining records are still attempted.
func (s *Store) SaveAll(ctx context.Context, records []models.JobRecord) models.SaveReport {
	var report models.SaveReport
	for _, record := range records {
		saved, err := s.save(ctx, record)
		if err != nil {
			report.Failed = append(report.Failed, models.RecordFailure{
				Record: record,
				Err:    err,
				Reason: err.Error(),
			})
			continue
		}
		report.Saved = append(report.Saved, saved)
	}
	return report
}

func (s *Store) save(ctx context.Context, record models.JobRecord) (models.JobRecord, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return record, err
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO job_adds (uid, title) VALUES (?, ?)`,
		record.UID, record.Title,
	)
	if err != nil {
		tx.Rollback()
		return record, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		tx.Rollback()
		return record, err
	}

	if err := tx.Commit(); err != nil {
		return record, err
	}
	record.ID = id
	return record, nil
}

// List returns every stored record ordered by id.
func (s *Store) List(ctx context.Context) ([]models.JobRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, uid, title FROM job_adds ORDER BY id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.JobRecord
	for rows.Next() {
		var record models.JobRecord
		if err := rows.Scan(&record.ID, &record.UID, &record.Title); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM job_adds`).Scan(&n)
	return n, err
}

func acquireLock(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%w: remove %s if no other run is active", ErrLocked, path)
		}
		return err
	}
	defer f.Close()
	if _, err := f.WriteString(strconv.Itoa(os.Getpid()) + "\n"); err != nil {
		_ = os.Remove(path)
		return err
	}
	return nil
}

func releaseLock(path string) {
	if path == "" {
		return
	}
	_ = os.Remove(path)
}
