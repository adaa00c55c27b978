// Package repository persists GameDay records in a SQL database.
//
// A Store owns the connection pool and the schema. Loads work through
// Sessions: records are queued with AddAll (plain inserts) or Merge
// (insert or overwrite the present columns) and written in one transaction
// by Commit. A Commit that hits an existing key fails with ErrConflict and
// writes nothing.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/okian/breakingball/internal/domain/model"
	"github.com/okian/breakingball/pkg/logger"
)

// Store is a database holding the GameDay tables.
type Store struct {
	db      *sql.DB
	dialect Dialect
	log     logger.Logger

	maxOpenConns    int
	connMaxLifetime time.Duration
}

// Connect opens the database named by dsn with the dialect named driver and
// verifies it answers.
func Connect(ctx context.Context, driver, dsn string, opts ...Option) (*Store, error) {
	d, err := DialectFor(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(d.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d.Name, err)
	}
	s := NewStore(db, d, opts...)
	if d.Name == SQLite.Name && isMemory(dsn) {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", d.Name, err)
	}
	return s, nil
}

// NewStore wraps an open database.
func NewStore(db *sql.DB, d Dialect, opts ...Option) *Store {
	s := &Store{
		db:      db,
		dialect: d,
		log:     logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.maxOpenConns > 0 {
		db.SetMaxOpenConns(s.maxOpenConns)
	}
	if s.connMaxLifetime > 0 {
		db.SetConnMaxLifetime(s.connMaxLifetime)
	}
	s.log = s.log.Named("repository")
	return s
}

func isMemory(dsn string) bool {
	return dsn == "" || strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

// DB returns the underlying pool.
func (s *Store) DB() *sql.DB { return s.db }

// Dialect returns the dialect statements are rendered in.
func (s *Store) Dialect() Dialect { return s.dialect }

// Init creates every missing table.
func (s *Store) Init(ctx context.Context) error {
	for i, stmt := range s.dialect.DDL() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create %s: %w", schema[i].name, err)
		}
	}
	s.log.Info(ctx, "schema ready", logger.String("dialect", s.dialect.Name), logger.Int("tables", len(schema)))
	return nil
}

// Reset drops every table and creates them again empty.
func (s *Store) Reset(ctx context.Context) error {
	for i := len(schema) - 1; i >= 0; i-- {
		if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+quote(schema[i].name)); err != nil {
			return fmt.Errorf("drop %s: %w", schema[i].name, err)
		}
	}
	s.log.Warn(ctx, "schema dropped", logger.String("dialect", s.dialect.Name))
	return s.Init(ctx)
}

// Count returns the number of rows in table.
func (s *Store) Count(ctx context.Context, table string) (int, error) {
	if _, ok := lookupTable(table); !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+quote(table)).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

// Counts returns the row count of every table.
func (s *Store) Counts(ctx context.Context) (map[string]int, error) {
	out := make(map[string]int, len(model.Tables))
	for _, t := range model.Tables {
		n, err := s.Count(ctx, t)
		if err != nil {
			return nil, err
		}
		out[t] = n
	}
	return out, nil
}

// Open starts a session. Every session must be closed.
func (s *Store) Open(ctx context.Context) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Session{store: s, log: s.log}, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	return s.db.Close()
}
