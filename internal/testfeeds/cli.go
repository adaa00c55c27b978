package testfeeds

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/okian/breakingball/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string, verbose bool) error {
	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "fixture_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	if err := logger.Init(logger.WithWriter(io.MultiWriter(os.Stdout, file))); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	if verbose {
		_ = logger.SetLevelString("debug")
	}
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the fixture server.
func ShowHelp() {
	os.Stdout.WriteString(`GameDay Fixture Server
======================

Serves synthetic GameDay feeds (day listings, linescore, boxscore and inning
files) for local runs of the loader.

Usage:
  go run cmd/gameday-fixture/main.go [options]

Options:
  -addr string
        Listen address (default "127.0.0.1:9180")
  -start string
        First day to publish, YYYY-MM-DD (default today)
  -end string
        Last day to publish, YYYY-MM-DD (default start)
  -games int
        Games per day, at most 15 (default 8)
  -status string
        Linescore status of every game (default "Final")
  -log string
        Log file for server output (default: fixture_log_TIMESTAMP.log)
  -verbose
        Log every request
  -help
        Show this help message

Examples:
  # Publish a week of games
  go run cmd/gameday-fixture/main.go -start 2015-04-20 -end 2015-04-26

  # Point the loader at it
  BREAKINGBALL_BASE_URL=http://127.0.0.1:9180/components/game/mlb/ \
    go run ./cmd load --start-date 2015-04-20 --end-date 2015-04-26
`)
}
