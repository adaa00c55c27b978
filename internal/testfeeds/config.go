package testfeeds

import "time"

// Config holds configuration for the fixture server
type Config struct {
	Addr        string    // Listen address
	Start       time.Time // First day to publish
	End         time.Time // Last day to publish
	GamesPerDay int       // Synthetic games per day
	Status      string    // Linescore status of every game
	LogFile     string    // Log file for server output
	Verbose     bool      // Log every request
}

// Stats holds fixture server statistics
type Stats struct {
	Days      int
	Games     int
	Requests  int
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}
