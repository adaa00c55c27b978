package model

import "time"

// AtBat is one plate appearance, read from the inning files.
type AtBat struct {
	GameID      string
	AtBatNumber int

	Inning      *int
	InningHalf  string // "top" or "bottom"
	Balls       *int
	Strikes     *int
	Outs        *int
	StartTime   *time.Time
	BatterID    *int
	PitcherID   *int
	Stands      *string
	PThrows     *string
	Description *string
	EventNum    *int
	Event       *string
	Score       bool
	HomeRuns    *int
	AwayRuns    *int
}

func (a *AtBat) Table() string { return TableAtBats }

func (a *AtBat) Key() []Column {
	return key("game_id", a.GameID, "at_bat_number", a.AtBatNumber)
}

func (a *AtBat) Columns() []Column {
	var c columns
	c.add("inning", a.Inning)
	c.add("inning_half", a.InningHalf)
	c.add("balls", a.Balls)
	c.add("strikes", a.Strikes)
	c.add("outs", a.Outs)
	c.add("start_time", a.StartTime)
	c.add("batter_id", a.BatterID)
	c.add("pitcher_id", a.PitcherID)
	c.add("stands", a.Stands)
	c.add("p_throws", a.PThrows)
	c.add("description", a.Description)
	c.add("event_num", a.EventNum)
	c.add("event", a.Event)
	c.add("score", a.Score)
	c.add("home_team_runs", a.HomeRuns)
	c.add("away_team_runs", a.AwayRuns)
	return c
}

// Pitch is one pitch of an at-bat with its tracking data.
type Pitch struct {
	GameID  string
	PitchID int
	// Synthetic is set when PitchID was assigned from document order because
	// the feed carried no usable id.
	Synthetic bool

	AtBatNumber    int
	Description    *string
	Type           *string
	Timestamp      *time.Time
	X              *float64
	Y              *float64
	EventNum       *int
	SvID           *string
	PlayGUID       *string
	StartSpeed     *float64
	EndSpeed       *float64
	SzTop          *float64
	SzBottom       *float64
	PfxX           *float64
	PfxZ           *float64
	X0             *float64
	Y0             *float64
	Z0             *float64
	VX0            *float64
	VY0            *float64
	VZ0            *float64
	AX             *float64
	AY             *float64
	AZ             *float64
	BreakY         *float64
	BreakAngle     *float64
	BreakLength    *float64
	PitchType      *string
	TypeConfidence *float64
	Zone           *int
	Nasty          *int
	SpinDir        *float64
	SpinRate       *float64
}

func (p *Pitch) Table() string { return TablePitches }

func (p *Pitch) Key() []Column { return key("game_id", p.GameID, "pitch_id", p.PitchID) }

func (p *Pitch) Columns() []Column {
	var c columns
	c.add("at_bat_number", p.AtBatNumber)
	c.add("description", p.Description)
	c.add("type", p.Type)
	c.add("timestamp", p.Timestamp)
	c.add("x", p.X)
	c.add("y", p.Y)
	c.add("event_num", p.EventNum)
	c.add("sv_id", p.SvID)
	c.add("play_guid", p.PlayGUID)
	c.add("start_speed", p.StartSpeed)
	c.add("end_speed", p.EndSpeed)
	c.add("sz_top", p.SzTop)
	c.add("sz_bottom", p.SzBottom)
	c.add("pfx_x", p.PfxX)
	c.add("pfx_z", p.PfxZ)
	c.add("x0", p.X0)
	c.add("y0", p.Y0)
	c.add("z0", p.Z0)
	c.add("vx0", p.VX0)
	c.add("vy0", p.VY0)
	c.add("vz0", p.VZ0)
	c.add("ax", p.AX)
	c.add("ay", p.AY)
	c.add("az", p.AZ)
	c.add("break_y", p.BreakY)
	c.add("break_angle", p.BreakAngle)
	c.add("break_length", p.BreakLength)
	c.add("pitch_type", p.PitchType)
	c.add("type_confidence", p.TypeConfidence)
	c.add("zone", p.Zone)
	c.add("nasty", p.Nasty)
	c.add("spin_dir", p.SpinDir)
	c.add("spin_rate", p.SpinRate)
	return c
}

// Runner is a baserunner's movement during one at-bat.
type Runner struct {
	GameID      string
	AtBatNumber int
	RunnerID    int

	Start    *string
	End      *string
	Event    *string
	EventNum *int
	Score    bool
	RBI      bool
	Earned   bool
}

func (r *Runner) Table() string { return TableRunners }

func (r *Runner) Key() []Column {
	return key("game_id", r.GameID, "at_bat_number", r.AtBatNumber, "runner_id", r.RunnerID)
}

func (r *Runner) Columns() []Column {
	var c columns
	c.add("start", r.Start)
	c.add("end", r.End)
	c.add("event", r.Event)
	c.add("event_num", r.EventNum)
	c.add("score", r.Score)
	c.add("rbi", r.RBI)
	c.add("earned", r.Earned)
	return c
}
