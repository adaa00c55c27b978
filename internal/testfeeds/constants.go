package testfeeds

import "time"

// Server configuration constants.
const (
	DefaultAddr        = "127.0.0.1:9180"
	DefaultGamesPerDay = 8
	ReadHeaderTimeout  = 5 * time.Second
	ShutdownTimeout    = 5 * time.Second
)
