package model

import "time"

// Game is one scheduled contest, read from linescore.xml.
type Game struct {
	GameID       string
	GameDate     time.Time // always the date encoded in GameID
	GameDatetime *time.Time
	Season       int
	Venue        *string
	GameType     *string
	Inning       *int
	Outs         *int
	TopInning    bool
	Status       *string
	HomeTeamID   *int
	AwayTeamID   *int
	HomeRuns     *int
	AwayRuns     *int
	HomeHits     *int
	AwayHits     *int
	HomeErrors   *int
	AwayErrors   *int
	URL          string
}

func (g *Game) Table() string { return TableGames }

func (g *Game) Key() []Column { return key("game_id", g.GameID) }

func (g *Game) Columns() []Column {
	var c columns
	c.add("game_date", g.GameDate)
	c.add("game_datetime", g.GameDatetime)
	c.add("season", g.Season)
	c.add("venue", g.Venue)
	c.add("game_type", g.GameType)
	c.add("inning", g.Inning)
	c.add("outs", g.Outs)
	c.add("top_inning", g.TopInning)
	c.add("status", g.Status)
	c.add("home_team_id", g.HomeTeamID)
	c.add("away_team_id", g.AwayTeamID)
	c.add("home_team_runs", g.HomeRuns)
	c.add("away_team_runs", g.AwayRuns)
	c.add("home_team_hits", g.HomeHits)
	c.add("away_team_hits", g.AwayHits)
	c.add("home_team_errors", g.HomeErrors)
	c.add("away_team_errors", g.AwayErrors)
	c.add("url", g.URL)
	return c
}

// Team is one club in one season. The same club recurs every season it plays,
// possibly renamed or realigned.
type Team struct {
	TeamID    int
	Season    int
	Name      *string
	ShortName *string
	League    *string
	Division  *string
}

func (t *Team) Table() string { return TableTeams }

func (t *Team) Key() []Column { return key("team_id", t.TeamID, "season", t.Season) }

func (t *Team) Columns() []Column {
	var c columns
	c.add("name", t.Name)
	c.add("short_name", t.ShortName)
	c.add("league", t.League)
	c.add("division", t.Division)
	return c
}

// TeamStats is a club's standing and aggregate line for one game.
type TeamStats struct {
	GameID            string
	TeamID            int
	AtHome            bool
	GamesBack         *float64
	GamesBackWildcard *float64
	Wins              int
	Losses            int
	Winrate           float64
	Avg               *float64
	AtBats            *int
	Runs              *int
	Hits              *int
	Doubles           *int
	Triples           *int
	HomeRuns          *int
	RBIs              *int
	Walks             *int
	Putouts           *int
	DA                *int
	Strikeouts        *int
	LeftOnBase        *int
	ERA               *float64
}

func (s *TeamStats) Table() string { return TableTeamStats }

func (s *TeamStats) Key() []Column { return key("game_id", s.GameID, "team_id", s.TeamID) }

func (s *TeamStats) Columns() []Column {
	var c columns
	c.add("at_home", s.AtHome)
	c.add("games_back", s.GamesBack)
	c.add("games_back_wildcard", s.GamesBackWildcard)
	c.add("wins", s.Wins)
	c.add("losses", s.Losses)
	c.add("winrate", s.Winrate)
	c.add("avg", s.Avg)
	c.add("at_bats", s.AtBats)
	c.add("runs", s.Runs)
	c.add("hits", s.Hits)
	c.add("doubles", s.Doubles)
	c.add("triples", s.Triples)
	c.add("home_runs", s.HomeRuns)
	c.add("rbis", s.RBIs)
	c.add("walks", s.Walks)
	c.add("putouts", s.Putouts)
	c.add("da", s.DA)
	c.add("strikeouts", s.Strikeouts)
	c.add("left_on_base", s.LeftOnBase)
	c.add("era", s.ERA)
	return c
}

// Winrate returns wins/(wins+losses), or 0 when no games were decided.
func Winrate(wins, losses int) float64 {
	if wins+losses == 0 {
		return 0
	}
	return float64(wins) / float64(wins+losses)
}
