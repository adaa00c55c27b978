// Package model contains the typed records produced from GameDay documents and
// written by the repository.
//
// Optional fields are pointers. A nil field is absent: it is left out of the
// column list so that a merge never overwrites a stored value with NULL.
package model

import "time"

// Table names.
const (
	TableGames     = "games"
	TableTeams     = "teams"
	TableTeamStats = "team_stats"
	TableBatters   = "batters"
	TablePitchers  = "pitchers"
	TableAtBats    = "at_bats"
	TablePitches   = "pitches"
	TableRunners   = "runners"
)

// Tables lists every table in creation order.
var Tables = []string{
	TableGames,
	TableTeams,
	TableTeamStats,
	TableBatters,
	TablePitchers,
	TableAtBats,
	TablePitches,
	TableRunners,
}

// StatusFinal is the game status after which the feeds stop changing.
const StatusFinal = "Final"

// Column is a named value ready to be bound to a statement.
type Column struct {
	Name  string
	Value any
}

// Record is a row of one table.
type Record interface {
	// Table is the destination table.
	Table() string
	// Key returns the natural primary key columns.
	Key() []Column
	// Columns returns the present non-key columns.
	Columns() []Column
}

// Values returns the key columns followed by the present non-key columns.
func Values(r Record) []Column {
	key := r.Key()
	rest := r.Columns()
	out := make([]Column, 0, len(key)+len(rest))
	out = append(out, key...)
	return append(out, rest...)
}

// columns accumulates present values, skipping nil pointers.
type columns []Column

func (c *columns) add(name string, v any) {
	switch x := v.(type) {
	case *int:
		if x == nil {
			return
		}
		v = *x
	case *float64:
		if x == nil {
			return
		}
		v = *x
	case *string:
		if x == nil {
			return
		}
		v = *x
	case *bool:
		if x == nil {
			return
		}
		v = *x
	case *time.Time:
		if x == nil {
			return
		}
		v = *x
	}
	*c = append(*c, Column{Name: name, Value: v})
}

func key(pairs ...any) []Column {
	out := make([]Column, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, Column{Name: pairs[i].(string), Value: pairs[i+1]})
	}
	return out
}
