package repository

import (
	"fmt"
	"strings"

	"github.com/okian/breakingball/internal/domain/model"
)

// Column kinds mapped to a SQL type by each dialect.
const (
	kindInt       = "int"
	kindFloat     = "float"
	kindText      = "text"
	kindBool      = "bool"
	kindDate      = "date"
	kindTimestamp = "timestamp"
)

type columnDef struct {
	name string
	kind string
}

type tableDef struct {
	name    string
	key     []string
	columns []columnDef
}

func cols(pairs ...string) []columnDef {
	out := make([]columnDef, 0, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, columnDef{name: pairs[i], kind: pairs[i+1]})
	}
	return out
}

// schema lists every table in creation order. Key columns come first.
var schema = []tableDef{
	{
		name: model.TableGames,
		key:  []string{"game_id"},
		columns: cols(
			"game_id", kindText,
			"game_date", kindDate,
			"game_datetime", kindTimestamp,
			"season", kindInt,
			"venue", kindText,
			"game_type", kindText,
			"inning", kindInt,
			"outs", kindInt,
			"top_inning", kindBool,
			"status", kindText,
			"home_team_id", kindInt,
			"away_team_id", kindInt,
			"home_team_runs", kindInt,
			"away_team_runs", kindInt,
			"home_team_hits", kindInt,
			"away_team_hits", kindInt,
			"home_team_errors", kindInt,
			"away_team_errors", kindInt,
			"url", kindText,
		),
	},
	{
		name: model.TableTeams,
		key:  []string{"team_id", "season"},
		columns: cols(
			"team_id", kindInt,
			"season", kindInt,
			"name", kindText,
			"short_name", kindText,
			"league", kindText,
			"division", kindText,
		),
	},
	{
		name: model.TableTeamStats,
		key:  []string{"game_id", "team_id"},
		columns: cols(
			"game_id", kindText,
			"team_id", kindInt,
			"at_home", kindBool,
			"games_back", kindFloat,
			"games_back_wildcard", kindFloat,
			"wins", kindInt,
			"losses", kindInt,
			"winrate", kindFloat,
			"avg", kindFloat,
			"at_bats", kindInt,
			"runs", kindInt,
			"hits", kindInt,
			"doubles", kindInt,
			"triples", kindInt,
			"home_runs", kindInt,
			"rbis", kindInt,
			"walks", kindInt,
			"putouts", kindInt,
			"da", kindInt,
			"strikeouts", kindInt,
			"left_on_base", kindInt,
			"era", kindFloat,
		),
	},
	{
		name: model.TableBatters,
		key:  []string{"game_id", "team_id", "batter_id"},
		columns: cols(
			"game_id", kindText,
			"team_id", kindInt,
			"batter_id", kindInt,
			"name", kindText,
			"full_name", kindText,
			"avg", kindFloat,
			"batting_order", kindInt,
			"at_bats", kindInt,
			"strikeouts", kindInt,
			"flyouts", kindInt,
			"hits", kindInt,
			"doubles", kindInt,
			"triples", kindInt,
			"home_runs", kindInt,
			"walks", kindInt,
			"hit_by_pitch", kindInt,
			"sac_bunts", kindInt,
			"sac_flys", kindInt,
			"rbi", kindInt,
			"assists", kindInt,
			"runs", kindInt,
			"left_on_base", kindInt,
			"caught_stealing", kindInt,
			"stolen_bases", kindInt,
			"season_walks", kindInt,
			"season_hits", kindInt,
			"season_home_runs", kindInt,
			"season_runs", kindInt,
			"season_rbi", kindInt,
			"season_strikeouts", kindInt,
			"position", kindText,
			"putouts", kindInt,
			"errors", kindInt,
			"fielding", kindFloat,
		),
	},
	{
		name: model.TablePitchers,
		key:  []string{"pitcher_id", "game_id"},
		columns: cols(
			"pitcher_id", kindInt,
			"game_id", kindText,
			"team_id", kindInt,
			"name", kindText,
			"full_name", kindText,
			"position", kindText,
			"outs", kindInt,
			"batters_faced", kindInt,
			"home_runs", kindInt,
			"walks", kindInt,
			"strikeouts", kindInt,
			"earned_runs", kindInt,
			"runs", kindInt,
			"hits", kindInt,
			"wins", kindInt,
			"losses", kindInt,
			"saves", kindInt,
			"era", kindFloat,
			"pitches_thrown", kindInt,
			"strikes", kindInt,
			"blown_saves", kindInt,
			"holds", kindInt,
			"season_innings_pitched", kindFloat,
			"season_hits", kindInt,
			"season_runs", kindInt,
			"season_earned_runs", kindInt,
			"season_walks", kindInt,
			"season_strikeouts", kindInt,
			"game_score", kindInt,
			"win", kindText,
			"loss", kindText,
			"save", kindText,
			"blown_save", kindText,
		),
	},
	{
		name: model.TableAtBats,
		key:  []string{"game_id", "at_bat_number"},
		columns: cols(
			"game_id", kindText,
			"at_bat_number", kindInt,
			"inning", kindInt,
			"inning_half", kindText,
			"balls", kindInt,
			"strikes", kindInt,
			"outs", kindInt,
			"start_time", kindTimestamp,
			"batter_id", kindInt,
			"pitcher_id", kindInt,
			"stands", kindText,
			"p_throws", kindText,
			"description", kindText,
			"event_num", kindInt,
			"event", kindText,
			"score", kindBool,
			"home_team_runs", kindInt,
			"away_team_runs", kindInt,
		),
	},
	{
		name: model.TablePitches,
		key:  []string{"game_id", "pitch_id"},
		columns: cols(
			"game_id", kindText,
			"pitch_id", kindInt,
			"at_bat_number", kindInt,
			"description", kindText,
			"type", kindText,
			"timestamp", kindTimestamp,
			"x", kindFloat,
			"y", kindFloat,
			"event_num", kindInt,
			"sv_id", kindText,
			"play_guid", kindText,
			"start_speed", kindFloat,
			"end_speed", kindFloat,
			"sz_top", kindFloat,
			"sz_bottom", kindFloat,
			"pfx_x", kindFloat,
			"pfx_z", kindFloat,
			"x0", kindFloat,
			"y0", kindFloat,
			"z0", kindFloat,
			"vx0", kindFloat,
			"vy0", kindFloat,
			"vz0", kindFloat,
			"ax", kindFloat,
			"ay", kindFloat,
			"az", kindFloat,
			"break_y", kindFloat,
			"break_angle", kindFloat,
			"break_length", kindFloat,
			"pitch_type", kindText,
			"type_confidence", kindFloat,
			"zone", kindInt,
			"nasty", kindInt,
			"spin_dir", kindFloat,
			"spin_rate", kindFloat,
		),
	},
	{
		name: model.TableRunners,
		key:  []string{"game_id", "at_bat_number", "runner_id"},
		columns: cols(
			"game_id", kindText,
			"at_bat_number", kindInt,
			"runner_id", kindInt,
			"start", kindText,
			"end", kindText,
			"event", kindText,
			"event_num", kindInt,
			"score", kindBool,
			"rbi", kindBool,
			"earned", kindBool,
		),
	},
}

func lookupTable(name string) (tableDef, bool) {
	for _, t := range schema {
		if t.name == name {
			return t, true
		}
	}
	return tableDef{}, false
}

// quote returns name as a quoted identifier. Several columns (end, type,
// timestamp) are reserved words.
func quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// createTable renders the CREATE TABLE statement of t.
func (d Dialect) createTable(t tableDef) string {
	isKey := make(map[string]bool, len(t.key))
	for _, k := range t.key {
		isKey[k] = true
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", quote(t.name))
	for _, c := range t.columns {
		fmt.Fprintf(&b, "\t%s %s", quote(c.name), d.types[c.kind])
		if isKey[c.name] {
			b.WriteString(" NOT NULL")
		}
		b.WriteString(",\n")
	}
	keys := make([]string, len(t.key))
	for i, k := range t.key {
		keys[i] = quote(k)
	}
	fmt.Fprintf(&b, "\tPRIMARY KEY (%s)\n)", strings.Join(keys, ", "))
	return b.String()
}

// DDL returns the statements creating every table.
func (d Dialect) DDL() []string {
	out := make([]string, 0, len(schema))
	for _, t := range schema {
		out = append(out, d.createTable(t))
	}
	return out
}
