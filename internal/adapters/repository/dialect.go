package repository

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// pgUniqueViolation is the SQLSTATE of a duplicate key.
const pgUniqueViolation = "23505"

// Dialect holds what differs between the supported databases.
type Dialect struct {
	// Name is the configuration name of the dialect.
	Name string
	// Driver is the database/sql driver name.
	Driver string

	types    map[string]string
	bind     func(n int) string
	conflict func(err error) bool
}

// Postgres speaks to PostgreSQL through lib/pq.
var Postgres = Dialect{
	Name:   "postgres",
	Driver: "postgres",
	types: map[string]string{
		kindInt:       "INTEGER",
		kindFloat:     "DOUBLE PRECISION",
		kindText:      "TEXT",
		kindBool:      "BOOLEAN",
		kindDate:      "DATE",
		kindTimestamp: "TIMESTAMPTZ",
	},
	bind: func(n int) string { return "$" + strconv.Itoa(n) },
	conflict: func(err error) bool {
		var pqErr *pq.Error
		return errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation
	},
}

// SQLite speaks to an embedded database through modernc.org/sqlite.
var SQLite = Dialect{
	Name:   "sqlite",
	Driver: "sqlite",
	types: map[string]string{
		kindInt:       "INTEGER",
		kindFloat:     "REAL",
		kindText:      "TEXT",
		kindBool:      "BOOLEAN",
		kindDate:      "DATE",
		kindTimestamp: "TIMESTAMP",
	},
	bind: func(int) string { return "?" },
	conflict: func(err error) bool {
		var sqliteErr *sqlite.Error
		if !errors.As(err, &sqliteErr) {
			return false
		}
		code := sqliteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	},
}

// DialectFor returns the dialect registered under name.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case Postgres.Name, "postgresql", "pg":
		return Postgres, nil
	case SQLite.Name, "sqlite3":
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("%w: %q", ErrUnknownDialect, name)
	}
}

// IsConflict reports whether err is a unique or primary key violation.
func (d Dialect) IsConflict(err error) bool {
	return err != nil && d.conflict(err)
}

func (d Dialect) placeholders(from, n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = d.bind(from + i)
	}
	return strings.Join(ps, ", ")
}

// insert renders a plain INSERT of the named columns.
func (d Dialect) insert(table string, names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quote(n)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quote(table), strings.Join(quoted, ", "), d.placeholders(1, len(names)))
}

// upsert renders an INSERT that overwrites the non-key columns it names
// when the key already exists. Columns it does not name keep their value.
func (d Dialect) upsert(table string, key, names []string) string {
	isKey := make(map[string]bool, len(key))
	keys := make([]string, len(key))
	for i, k := range key {
		isKey[k] = true
		keys[i] = quote(k)
	}
	var sets []string
	for _, n := range names {
		if isKey[n] {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = excluded.%s", quote(n), quote(n)))
	}

	stmt := d.insert(table, names) + " ON CONFLICT (" + strings.Join(keys, ", ") + ")"
	if len(sets) == 0 {
		return stmt + " DO NOTHING"
	}
	return stmt + " DO UPDATE SET " + strings.Join(sets, ", ")
}

// exists renders a lookup of a row matching every named column.
func (d Dialect) exists(table string, names []string) string {
	conds := make([]string, len(names))
	for i, n := range names {
		conds[i] = fmt.Sprintf("%s = %s", quote(n), d.bind(i+1))
	}
	stmt := "SELECT 1 FROM " + quote(table)
	if len(conds) > 0 {
		stmt += " WHERE " + strings.Join(conds, " AND ")
	}
	return stmt + " LIMIT 1"
}
