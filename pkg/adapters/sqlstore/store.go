// Package sqlstore persists draft slots in a SQL database.
//
// One table holds every slot. SQLite (modernc.org/sqlite, pure Go) suits a
// single host; PostgreSQL (lib/pq) lets several HTTP replicas share drafts.
package sqlstore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/govform/pkg/domain"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// Dialect selects driver name and placeholder style.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

func (d Dialect) placeholder(n int) string {
	if d == Postgres {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// Store implements ports.SlotStore over database/sql.
type Store struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time

	getSQL    string
	upsertSQL string
	deleteSQL string
	listSQL   string
}

// OpenSQLite opens (or creates) a SQLite database file and applies the schema.
func OpenSQLite(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)
	return open(db, SQLite)
}

// OpenPostgres connects with a lib/pq DSN and applies the schema.
func OpenPostgres(dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres db: %w", err)
	}
	return open(db, Postgres)
}

// New wraps an existing handle. The caller keeps ownership of migrations.
func New(db *sql.DB, dialect Dialect) *Store {
	s := &Store{db: db, dialect: dialect, now: time.Now}
	p := dialect.placeholder
	s.getSQL = "SELECT slot_value FROM draft_slots WHERE slot_key = " + p(1)
	s.upsertSQL = fmt.Sprintf(`INSERT INTO draft_slots (slot_key, slot_value, updated_at) VALUES (%s, %s, %s)
ON CONFLICT (slot_key) DO UPDATE SET slot_value = excluded.slot_value, updated_at = excluded.updated_at`, p(1), p(2), p(3))
	s.deleteSQL = "DELETE FROM draft_slots WHERE slot_key = " + p(1)
	s.listSQL = "SELECT slot_key FROM draft_slots ORDER BY slot_key"
	return s
}

func open(db *sql.DB, dialect Dialect) (*Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s db: %w", dialect, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return New(db, dialect), nil
}

// Get reads one slot.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, s.getSQL, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domain.ErrSlotNotFound
		}
		return "", fmt.Errorf("get slot: %w", err)
	}
	return value, nil
}

// Set upserts one slot.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("key cannot be empty")
	}
	if _, err := s.db.ExecContext(ctx, s.upsertSQL, key, value, s.now().UTC().UnixMilli()); err != nil {
		return fmt.Errorf("set slot: %w", err)
	}
	return nil
}

// Delete removes one slot.
func (s *Store) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, s.deleteSQL, key); err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	return nil
}

// List returns every stored key.
func (s *Store) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.listSQL)
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan slot key: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
