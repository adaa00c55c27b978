package testfeeds

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/okian/breakingball/internal/domain/gameid"
	"github.com/okian/breakingball/pkg/logger"
)

// Build publishes config.GamesPerDay synthetic games for every day of the
// configured range.
func Build(config *Config, stats *Stats) *Tree {
	tree := NewTree()
	for _, day := range gameid.DateRange(config.Start, config.End) {
		for _, g := range Generate(day, config.GamesPerDay, config.Status) {
			tree.AddGame(g)
			stats.Games++
		}
		stats.Days++
	}
	return tree
}

// Run serves the fixture tree until ctx is done.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}
	tree := Build(config, stats)

	var handler http.Handler = tree
	if config.Verbose {
		handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Get().Debug(r.Context(), "fixture request", logger.String("path", r.URL.Path))
			tree.ServeHTTP(w, r)
		})
	}

	srv := &http.Server{
		Addr:              config.Addr,
		Handler:           handler,
		ReadHeaderTimeout: ReadHeaderTimeout,
	}

	logger.Get().Info(ctx, "serving gameday fixtures",
		logger.String("addr", config.Addr),
		logger.String("base_url", tree.BaseURL("http://"+config.Addr)),
		logger.Int("days", stats.Days),
		logger.Int("games", stats.Games),
		logger.String("status", config.Status))

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("fixture server failed: %w", err)
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Get().Warn(ctx, "fixture server shutdown", logger.Error(err))
	}

	stats.Requests = tree.TotalHits()
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(stats)
	return nil
}

// displayFinalStats logs the final server statistics.
func displayFinalStats(stats *Stats) {
	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("days", stats.Days),
		logger.Int("games", stats.Games),
		logger.Int("requests", stats.Requests),
		logger.String("duration", stats.Duration.String()))
}
