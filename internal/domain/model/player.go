package model

// Batter is one player's batting and fielding line for one game.
type Batter struct {
	GameID   string
	TeamID   int
	BatterID int

	Name         *string
	FullName     *string
	Avg          *float64
	BattingOrder *int
	AtBats       *int
	Strikeouts   *int
	Flyouts      *int
	Hits         *int
	Doubles      *int
	Triples      *int
	HomeRuns     *int
	Walks        *int
	HitByPitch   *int
	SacBunts     *int
	SacFlys      *int
	RBI          *int
	Assists      *int
	Runs         *int
	LeftOnBase   *int
	CaughtSteal  *int
	StolenBases  *int

	SeasonWalks      *int
	SeasonHits       *int
	SeasonHomeRuns   *int
	SeasonRuns       *int
	SeasonRBI        *int
	SeasonStrikeouts *int

	Position *string
	Putouts  *int
	Errors   *int
	Fielding *float64
}

func (b *Batter) Table() string { return TableBatters }

func (b *Batter) Key() []Column {
	return key("game_id", b.GameID, "team_id", b.TeamID, "batter_id", b.BatterID)
}

func (b *Batter) Columns() []Column {
	var c columns
	c.add("name", b.Name)
	c.add("full_name", b.FullName)
	c.add("avg", b.Avg)
	c.add("batting_order", b.BattingOrder)
	c.add("at_bats", b.AtBats)
	c.add("strikeouts", b.Strikeouts)
	c.add("flyouts", b.Flyouts)
	c.add("hits", b.Hits)
	c.add("doubles", b.Doubles)
	c.add("triples", b.Triples)
	c.add("home_runs", b.HomeRuns)
	c.add("walks", b.Walks)
	c.add("hit_by_pitch", b.HitByPitch)
	c.add("sac_bunts", b.SacBunts)
	c.add("sac_flys", b.SacFlys)
	c.add("rbi", b.RBI)
	c.add("assists", b.Assists)
	c.add("runs", b.Runs)
	c.add("left_on_base", b.LeftOnBase)
	c.add("caught_stealing", b.CaughtSteal)
	c.add("stolen_bases", b.StolenBases)
	c.add("season_walks", b.SeasonWalks)
	c.add("season_hits", b.SeasonHits)
	c.add("season_home_runs", b.SeasonHomeRuns)
	c.add("season_runs", b.SeasonRuns)
	c.add("season_rbi", b.SeasonRBI)
	c.add("season_strikeouts", b.SeasonStrikeouts)
	c.add("position", b.Position)
	c.add("putouts", b.Putouts)
	c.add("errors", b.Errors)
	c.add("fielding", b.Fielding)
	return c
}

// Pitcher is one pitcher's line for one game.
//
// Win, Loss, Save and BlownSave hold the feed's decision attributes verbatim
// (usually "true"). They are not normalized to booleans.
type Pitcher struct {
	PitcherID int
	GameID    string

	TeamID        *int
	Name          *string
	FullName      *string
	Position      *string
	Outs          *int
	BattersFaced  *int
	HomeRuns      *int
	Walks         *int
	Strikeouts    *int
	EarnedRuns    *int
	Runs          *int
	Hits          *int
	Wins          *int
	Losses        *int
	Saves         *int
	ERA           *float64
	PitchesThrown *int
	Strikes       *int
	BlownSaves    *int
	Holds         *int

	SeasonInningsPitched *float64
	SeasonHits           *int
	SeasonRuns           *int
	SeasonEarnedRuns     *int
	SeasonWalks          *int
	SeasonStrikeouts     *int
	GameScore            *int

	Win       *string
	Loss      *string
	Save      *string
	BlownSave *string
}

func (p *Pitcher) Table() string { return TablePitchers }

func (p *Pitcher) Key() []Column { return key("pitcher_id", p.PitcherID, "game_id", p.GameID) }

func (p *Pitcher) Columns() []Column {
	var c columns
	c.add("team_id", p.TeamID)
	c.add("name", p.Name)
	c.add("full_name", p.FullName)
	c.add("position", p.Position)
	c.add("outs", p.Outs)
	c.add("batters_faced", p.BattersFaced)
	c.add("home_runs", p.HomeRuns)
	c.add("walks", p.Walks)
	c.add("strikeouts", p.Strikeouts)
	c.add("earned_runs", p.EarnedRuns)
	c.add("runs", p.Runs)
	c.add("hits", p.Hits)
	c.add("wins", p.Wins)
	c.add("losses", p.Losses)
	c.add("saves", p.Saves)
	c.add("era", p.ERA)
	c.add("pitches_thrown", p.PitchesThrown)
	c.add("strikes", p.Strikes)
	c.add("blown_saves", p.BlownSaves)
	c.add("holds", p.Holds)
	c.add("season_innings_pitched", p.SeasonInningsPitched)
	c.add("season_hits", p.SeasonHits)
	c.add("season_runs", p.SeasonRuns)
	c.add("season_earned_runs", p.SeasonEarnedRuns)
	c.add("season_walks", p.SeasonWalks)
	c.add("season_strikeouts", p.SeasonStrikeouts)
	c.add("game_score", p.GameScore)
	c.add("win", p.Win)
	c.add("loss", p.Loss)
	c.add("save", p.Save)
	c.add("blown_save", p.BlownSave)
	return c
}
