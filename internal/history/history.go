package history

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3" // Required by the library implementation.
)

// Entry is one asked question together with its outcome.
type Entry struct {
	ID        int64
	Source    string
	Question  string
	Processed string
	Answer    string
	Error     string
	CreatedAt time.Time
}

type Store struct {
	db  *sql.DB
	log *slog.Logger
}

//go:embed migrations/*.sql
var migrationsFS embed.FS

func Open(ctx context.Context, dbPath string, log *slog.Logger) (*Store, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, errors.New("DB path is empty")
	}

	dbFile, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open DB file: %w", err)
	}

	if err = migrateUp(ctx, dbFile, dbPath, log); err != nil {
		_ = dbFile.Close()

		return nil, err
	}

	return &Store{db: dbFile, log: log}, nil
}

func migrateUp(ctx context.Context, dbFile *sql.DB, dbPath string, log *slog.Logger) error {
	dbInstance, err := sqlite3.WithInstance(dbFile, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("create DB instance: %w", err)
	}

	srcInstance, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create source instance: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", srcInstance, "sqlite3", dbInstance)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	migrateErr := m.Up()

	version, dirty, versionErr := m.Version()
	fields := []any{
		"dbPath", dbPath,
	}

	if versionErr == nil {
		fields = append(fields, "version", version, "dirty", dirty)
	} else if !errors.Is(versionErr, migrate.ErrNilVersion) {
		log.WarnContext(ctx, "Failed to fetch migration version",
			"error", versionErr,
			"dbPath", dbPath)
	}

	if migrateErr != nil {
		if !errors.Is(migrateErr, migrate.ErrNoChange) {
			return fmt.Errorf("apply migrations: %w", migrateErr)
		}

		log.InfoContext(ctx, "No migrations to apply", fields...)
	} else {
		log.InfoContext(ctx, "DB is migrated", fields...)
	}

	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Record(ctx context.Context, e Entry) error {
	if strings.TrimSpace(e.Source) == "" {
		return errors.New("entry source is empty")
	}

	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := "insert into questions (source, question, processed, answer, error, created_at) values (?, ?, ?, ?, ?, ?)"

	_, err := s.db.ExecContext(ctx, query,
		e.Source, e.Question, e.Processed, e.Answer, e.Error, createdAt.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("insert question: %w", err)
	}

	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		return nil, nil
	}

	query := "select id, source, question, processed, answer, error, created_at from questions order by created_at desc, id desc limit ?"

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer func() {
		if err = rows.Close(); err != nil {
			s.log.ErrorContext(ctx, "Failed to close rows",
				"error", err,
				"operation", "Recent")
		}
	}()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			createdAt int64
		)
		if err = rows.Scan(&e.ID, &e.Source, &e.Question, &e.Processed, &e.Answer, &e.Error, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		e.CreatedAt = time.UnixMilli(createdAt).UTC()
		entries = append(entries, e)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return entries, nil
}

// PruneBefore deletes entries created strictly before t.
func (s *Store) PruneBefore(ctx context.Context, t time.Time) (int64, error) {
	query := "delete from questions where created_at < ?"

	res, err := s.db.ExecContext(ctx, query, t.UTC().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("delete questions: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	return n, nil
}
