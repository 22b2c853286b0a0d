package history

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"crchecker/internal/services"
	"crchecker/internal/verification"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema changes.
const schemaVersion = 1

// timeLayout keeps stored timestamps fixed-width so they sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// StatusError marks runs that ended with an error instead of a verdict.
const StatusError = "ERROR"

var (
	// ErrSchemaMismatch indicates the database schema version doesn't match the expected version.
	ErrSchemaMismatch = errors.New("schema version mismatch")
	// ErrNotFound reports that no run matches the requested identifier.
	ErrNotFound = errors.New("run not found")
	// ErrAmbiguous reports that an identifier prefix matches several runs.
	ErrAmbiguous = errors.New("run identifier is ambiguous")
)

// Entry summarizes one stored run.
type Entry struct {
	ID           string
	AlbumPath    string
	LogFile      string
	Status       string
	Tracks       int
	Failed       int
	ErrorKind    string
	ErrorMessage string
	Duration     time.Duration
	CreatedAt    time.Time
}

// Store manages run history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the history database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}
	if tableExists == 0 {
		return s.createSchema(ctx)
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to start over)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

func (s *Store) createSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema: %w", err)
	}
	return nil
}

// Record stores a completed run and its track records.
func (s *Store) Record(ctx context.Context, run *verification.Run) error {
	if run == nil {
		return errors.New("nil run")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (
            id, album_path, log_file, status, track_count, failed_count, duration_ms, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		run.AlbumPath,
		nullableString(run.LogFile),
		string(run.Status),
		len(run.Tracks),
		len(run.Failed()),
		run.Duration.Milliseconds(),
		formatTime(run.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for _, t := range run.Tracks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO tracks (run_id, position, file_name, expected, actual, status) VALUES (?, ?, ?, ?, ?, ?)`,
			run.ID, t.Position, t.FileName, t.ExpectedChecksum, t.ActualChecksum, string(t.Status),
		); err != nil {
			return fmt.Errorf("insert track %d: %w", t.Position, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// RecordError stores a run that ended with cause instead of a verdict and
// returns its generated identifier.
func (s *Store) RecordError(ctx context.Context, albumPath string, cause error, at time.Time) (string, error) {
	id := uuid.NewString()
	message := ""
	if cause != nil {
		message = cause.Error()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, album_path, status, error_kind, error_message, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, albumPath, StatusError, nullableString(services.Kind(cause)), nullableString(message), formatTime(at),
	)
	if err != nil {
		return "", fmt.Errorf("insert error run: %w", err)
	}
	return id, nil
}

const entryColumns = `id, album_path, log_file, status, track_count, failed_count,
    error_kind, error_message, duration_ms, created_at`

// Recent returns up to limit runs, newest first. A limit of zero or less
// returns every run.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	query := "SELECT " + entryColumns + " FROM runs ORDER BY created_at DESC, rowid DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return entries, nil
}

// Get returns the run whose identifier equals or starts with id.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, ErrNotFound
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+entryColumns+" FROM runs WHERE id = ? OR id LIKE ? ESCAPE '\\' ORDER BY id LIMIT 2",
		id, escapeLike(id)+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("query run: %w", err)
	}
	defer rows.Close()

	var matches []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		if entry.ID == id {
			return &entry, nil
		}
		matches = append(matches, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run: %w", err)
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return &matches[0], nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrAmbiguous, id)
	}
}

// Tracks returns the stored records of a run ordered by position.
func (s *Store) Tracks(ctx context.Context, runID string) ([]verification.TrackRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT position, file_name, expected, actual, status FROM tracks WHERE run_id = ? ORDER BY position",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query tracks: %w", err)
	}
	defer rows.Close()

	var tracks []verification.TrackRecord
	for rows.Next() {
		var t verification.TrackRecord
		var status string
		if err := rows.Scan(&t.Position, &t.FileName, &t.ExpectedChecksum, &t.ActualChecksum, &status); err != nil {
			return nil, fmt.Errorf("scan track: %w", err)
		}
		t.Status = verification.Status(status)
		tracks = append(tracks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tracks: %w", err)
	}
	return tracks, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		entry      Entry
		logFile    sql.NullString
		errKind    sql.NullString
		errMessage sql.NullString
		durationMS int64
		createdAt  string
	)
	if err := row.Scan(
		&entry.ID, &entry.AlbumPath, &logFile, &entry.Status, &entry.Tracks, &entry.Failed,
		&errKind, &errMessage, &durationMS, &createdAt,
	); err != nil {
		return Entry{}, fmt.Errorf("scan run: %w", err)
	}
	entry.LogFile = logFile.String
	entry.ErrorKind = errKind.String
	entry.ErrorMessage = errMessage.String
	entry.Duration = time.Duration(durationMS) * time.Millisecond
	if ts, err := time.Parse(timeLayout, createdAt); err == nil {
		entry.CreatedAt = ts
	}
	return entry, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(timeLayout)
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
