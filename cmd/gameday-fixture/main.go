package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/breakingball/internal/testfeeds"
)

const dateLayout = "2006-01-02"

func main() {
	var (
		addr    = flag.String("addr", testfeeds.DefaultAddr, "Listen address")
		start   = flag.String("start", "", "First day to publish, YYYY-MM-DD (default today)")
		end     = flag.String("end", "", "Last day to publish, YYYY-MM-DD (default start)")
		games   = flag.Int("games", testfeeds.DefaultGamesPerDay, "Games per day")
		status  = flag.String("status", "Final", "Linescore status of every game")
		logFile = flag.String("log", "", "Log file for server output (default: fixture_log_TIMESTAMP.log)")
		verbose = flag.Bool("verbose", false, "Log every request")
		help    = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testfeeds.ShowHelp()
		return
	}

	first := time.Now().UTC()
	if *start != "" {
		d, err := time.Parse(dateLayout, *start)
		if err != nil {
			os.Stderr.WriteString("Invalid -start: " + err.Error() + "\n")
			os.Exit(2)
		}
		first = d
	}
	last := first
	if *end != "" {
		d, err := time.Parse(dateLayout, *end)
		if err != nil {
			os.Stderr.WriteString("Invalid -end: " + err.Error() + "\n")
			os.Exit(2)
		}
		last = d
	}

	if err := testfeeds.SetupLogging(*logFile, *verbose); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	config := &testfeeds.Config{
		Addr:        *addr,
		Start:       first,
		End:         last,
		GamesPerDay: *games,
		Status:      *status,
		LogFile:     *logFile,
		Verbose:     *verbose,
	}

	if err := testfeeds.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Fixture server failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
