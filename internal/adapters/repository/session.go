package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/breakingball/internal/domain/model"
	"github.com/okian/breakingball/pkg/logger"
	"github.com/okian/breakingball/pkg/metrics"
)

type op struct {
	rec   model.Record
	merge bool
}

// Session queues records and writes them in one transaction.
// A Session is not meant to be shared between loads.
type Session struct {
	store *Store
	log   logger.Logger

	mu      sync.Mutex
	pending []op
	closed  bool
}

// AddAll queues records to be inserted. Nil records are ignored.
func (s *Session) AddAll(recs ...model.Record) error {
	return s.queue(false, recs)
}

// Merge queues records to be inserted or, when the key exists, to overwrite
// the stored row's columns with the record's present columns.
func (s *Session) Merge(recs ...model.Record) error {
	return s.queue(true, recs)
}

func (s *Session) queue(merge bool, recs []model.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	for _, r := range recs {
		if r == nil {
			continue
		}
		s.pending = append(s.pending, op{rec: r, merge: merge})
	}
	return nil
}

// Pending returns the number of queued records.
func (s *Session) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Commit writes every queued record in one transaction and empties the
// queue. On failure nothing is written; a key collision of a plain insert
// is reported as ErrConflict.
func (s *Session) Commit(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	ops := s.pending
	s.pending = nil
	s.mu.Unlock()

	if len(ops) == 0 {
		return nil
	}

	start := time.Now()
	d := s.store.dialect
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}

	written := make(map[string]int)
	for _, o := range ops {
		stmt, args, err := render(d, o)
		if err != nil {
			s.abort(ctx, tx)
			return err
		}
		if _, err := tx.ExecContext(ctx, stmt, args...); err != nil {
			s.abort(ctx, tx)
			return s.classify(o.rec.Table(), err)
		}
		written[o.rec.Table()]++
	}
	if err := tx.Commit(); err != nil {
		return s.classify("", err)
	}

	for table, n := range written {
		metrics.RecordRecordsWritten(table, n)
	}
	metrics.RecordPersistLatency(float64(time.Since(start).Milliseconds()))
	s.log.Debug(ctx, "committed", logger.Int("records", len(ops)), logger.Duration("took", time.Since(start)))
	return nil
}

func (s *Session) abort(ctx context.Context, tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		s.log.Warn(ctx, "rollback failed", logger.Error(err))
	}
}

func (s *Session) classify(table string, err error) error {
	if s.store.dialect.IsConflict(err) {
		return fmt.Errorf("%w: %s: %w", ErrConflict, table, err)
	}
	if table == "" {
		return fmt.Errorf("commit: %w", err)
	}
	return fmt.Errorf("write %s: %w", table, err)
}

// Rollback discards every queued record.
func (s *Session) Rollback() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	s.pending = nil
	return nil
}

// Exists reports whether table holds a row matching every column of where.
func (s *Session) Exists(ctx context.Context, table string, where ...model.Column) (bool, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return false, ErrSessionClosed
	}

	t, ok := lookupTable(table)
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	names := make([]string, len(where))
	args := make([]any, len(where))
	for i, c := range where {
		if !t.has(c.Name) {
			return false, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, table, c.Name)
		}
		names[i] = c.Name
		args[i] = c.Value
	}

	var one int
	err := s.store.db.QueryRowContext(ctx, s.store.dialect.exists(table, names), args...).Scan(&one)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("exists %s: %w", table, err)
	}
	return true, nil
}

// Close discards anything still queued. Closing twice is allowed.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed && len(s.pending) > 0 {
		s.log.Debug(context.Background(), "discarding uncommitted records", logger.Int("records", len(s.pending)))
	}
	s.closed = true
	s.pending = nil
	return nil
}

// render builds the statement and arguments writing one record.
func render(d Dialect, o op) (string, []any, error) {
	table := o.rec.Table()
	t, ok := lookupTable(table)
	if !ok {
		return "", nil, fmt.Errorf("%w: %q", ErrUnknownTable, table)
	}
	vals := model.Values(o.rec)
	names := make([]string, len(vals))
	args := make([]any, len(vals))
	for i, c := range vals {
		if !t.has(c.Name) {
			return "", nil, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, table, c.Name)
		}
		names[i] = c.Name
		args[i] = c.Value
	}
	if o.merge {
		return d.upsert(table, t.key, names), args, nil
	}
	return d.insert(table, names), args, nil
}

func (t tableDef) has(name string) bool {
	for _, c := range t.columns {
		if c.name == name {
			return true
		}
	}
	return false
}
