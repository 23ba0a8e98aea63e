package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rabiehflowers/storefront/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db        *sql.DB
	catalogMu sync.Mutex // Serializes full-catalog rewrites to prevent SQLITE_BUSY
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS flowers (
		id TEXT PRIMARY KEY,
		position INTEGER NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL,
		category TEXT NOT NULL,
		image_url TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_flowers_position ON flowers(position);

	CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		email TEXT NOT NULL,
		password TEXT NOT NULL,
		address TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// LoadCatalog retrieves the full catalog ordered by stored position.
func (s *SQLiteStore) LoadCatalog(ctx context.Context) ([]domain.Flower, error) {
	query := `
		SELECT id, name, description, category, image_url
		FROM flowers ORDER BY position`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	var flowers []domain.Flower
	for rows.Next() {
		var f domain.Flower
		if err := rows.Scan(&f.ID, &f.Name, &f.Description, &f.Category, &f.ImageURL); err != nil {
			return nil, fmt.Errorf("scan flower row: %w", err)
		}
		flowers = append(flowers, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog rows: %w", err)
	}

	return flowers, nil
}

// ReplaceCatalog persists the full catalog inside a single transaction.
func (s *SQLiteStore) ReplaceCatalog(ctx context.Context, flowers []domain.Flower) error {
	s.catalogMu.Lock()
	defer s.catalogMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin catalog transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // No-op after a successful commit.

	if _, err := tx.ExecContext(ctx, `DELETE FROM flowers`); err != nil {
		return fmt.Errorf("clear catalog: %w", err)
	}

	insert := `
		INSERT INTO flowers (id, position, name, description, category, image_url)
		VALUES (?, ?, ?, ?, ?, ?)`
	for i, f := range flowers {
		if _, err := tx.ExecContext(ctx, insert, f.ID, i, f.Name, f.Description, f.Category, f.ImageURL); err != nil {
			return fmt.Errorf("insert flower %s: %w", f.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit catalog: %w", err)
	}
	return nil
}

// GetSettings retrieves the owner settings record.
func (s *SQLiteStore) GetSettings(ctx context.Context) (*domain.Settings, error) {
	query := `SELECT email, password, address FROM settings WHERE id = 1`

	row := s.db.QueryRowContext(ctx, query)

	var settings domain.Settings
	err := row.Scan(&settings.Email, &settings.Password, &settings.Address)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan settings row: %w", err)
	}

	return &settings, nil
}

// SaveSettings replaces the owner settings record wholesale.
func (s *SQLiteStore) SaveSettings(ctx context.Context, settings *domain.Settings) error {
	query := `
	INSERT INTO settings (id, email, password, address, updated_at)
	VALUES (1, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		email = excluded.email,
		password = excluded.password,
		address = excluded.address,
		updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		settings.Email, settings.Password, settings.Address, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
