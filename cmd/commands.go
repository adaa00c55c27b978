package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/okian/breakingball/internal/adapters/http/api"
	"github.com/okian/breakingball/internal/adapters/http/swagger"
	service "github.com/okian/breakingball/internal/app"
	"github.com/okian/breakingball/pkg/logger"
	"github.com/spf13/cobra"
)

// ErrConfirmationRequired is returned by destructive commands run without
// --yes.
var ErrConfirmationRequired = errors.New("refusing to drop tables without --yes")

type loadOptions struct {
	*rootOptions
	startDate string
	endDate   string
	gameID    string
	refresh   bool
}

func newLoadCommand(root *rootOptions) *cobra.Command {
	opts := &loadOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load every game between two dates",
		Long: `Load every game listed on each day from --start-date to --end-date.

Games already stored as Final are skipped unless --refresh is given.

Example:
  breakingball load --start-date 2015-04-27
  breakingball load --start-date 2015-04-01 --end-date 2015-04-30 --refresh
  breakingball load --game-id gid_2015_04_27_phimlb_slnmlb_1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoad(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.startDate, "start-date", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&opts.endDate, "end-date", "", "last day, YYYY-MM-DD (default start date)")
	cmd.Flags().StringVar(&opts.gameID, "game-id", "", "load a single game instead of a range")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "reload games already stored as Final")
	cmd.MarkFlagsMutuallyExclusive("start-date", "game-id")
	cmd.MarkFlagsOneRequired("start-date", "game-id")

	return cmd
}

// dates parses the range flags.
func (o *loadOptions) dates() (time.Time, time.Time, error) {
	start, err := time.Parse(time.DateOnly, o.startDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --start-date %q: %w", o.startDate, err)
	}
	if o.endDate == "" {
		return start, start, nil
	}
	end, err := time.Parse(time.DateOnly, o.endDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid --end-date %q: %w", o.endDate, err)
	}
	return start, end, nil
}

func runLoad(cmd *cobra.Command, opts *loadOptions) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	var start, end time.Time
	if opts.gameID == "" {
		var err error
		if start, end, err = opts.dates(); err != nil {
			return err
		}
	}

	rt, err := opts.open(ctx)
	if err != nil {
		return err
	}
	defer rt.close()
	svc, err := rt.service()
	if err != nil {
		return err
	}

	if opts.gameID != "" {
		outcome, err := svc.LoadGame(ctx, opts.gameID, !opts.refresh)
		if outcome != nil {
			fmt.Fprintf(out, "%s: %s, %d records\n", outcome.GameID, outcome.State, outcome.Records)
		}
		return err
	}

	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	began := time.Now()
	var result *multierror.Error
	report, err := svc.LoadRange(ctx, start, end, opts.refresh)
	if err != nil {
		result = multierror.Append(result, err)
	}
	if err := svc.Wait(ctx); err != nil {
		result = multierror.Append(result, err)
	}
	if report != nil {
		fmt.Fprintf(out, "%d days, %d games listed, %d queued, %d duplicates in %s\n",
			report.Days, report.Games, report.Queued, report.Duplicates, time.Since(began).Round(time.Millisecond))
	}
	return result.ErrorOrNil()
}

type watchOptions struct {
	*rootOptions
	schedule string
}

func newWatchCommand(root *rootOptions) *cobra.Command {
	opts := &watchOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Reload today's games on a schedule until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.schedule, "schedule", "", "cron spec (default watch_schedule)")
	return cmd
}

func runWatch(cmd *cobra.Command, opts *watchOptions) error {
	ctx := cmd.Context()
	spec := opts.schedule
	if spec == "" {
		spec = opts.cfg.WatchSchedule
	}
	if spec == "" {
		return fmt.Errorf("%w: empty", service.ErrInvalidSchedule)
	}

	rt, err := opts.open(ctx)
	if err != nil {
		return err
	}
	defer rt.close()
	svc, err := rt.service(service.WithWatchSchedule(spec))
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()
	go startServiceMetricsUpdater(ctx, svc)

	today := svc.Today()
	if _, err := svc.LoadRange(ctx, today, today, !opts.cfg.SkipIfFinal); err != nil {
		rt.log.Warn(ctx, "first watch run incomplete", logger.Error(err))
	}

	<-ctx.Done()
	rt.log.Info(context.Background(), "watch interrupted")
	return nil
}

type serveOptions struct {
	*rootOptions
	watch bool
}

func newServeCommand(root *rootOptions) *cobra.Command {
	opts := &serveOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the loader behind the ops HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.watch, "watch", false, "also reload today's games on watch_schedule")
	return cmd
}

// newMux registers every HTTP route.
func newMux(ctx context.Context, svc *service.Service) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc).Register(ctx, mux)
	return mux
}

func runServe(cmd *cobra.Command, opts *serveOptions) error {
	ctx := cmd.Context()

	rt, err := opts.open(ctx)
	if err != nil {
		return err
	}
	defer rt.close()

	var extra []service.Option
	if opts.watch && opts.cfg.WatchSchedule != "" {
		extra = append(extra, service.WithWatchSchedule(opts.cfg.WatchSchedule))
	}
	svc, err := rt.service(extra...)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()
	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              opts.cfg.Addr,
		Handler:           newMux(ctx, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		rt.log.Info(ctx, "starting HTTP server", logger.String("addr", opts.cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}
	rt.log.Info(context.Background(), "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		rt.log.Error(shutdownCtx, "server shutdown failed", logger.Error(err))
	}
	rt.log.Info(shutdownCtx, "server stopped")
	return nil
}

func newDBCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create every missing table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDB(cmd, root, false)
		},
	})

	var yes bool
	reset := &cobra.Command{
		Use:   "reset",
		Short: "Drop every table and create them again empty",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return ErrConfirmationRequired
			}
			return runDB(cmd, root, true)
		},
	}
	reset.Flags().BoolVar(&yes, "yes", false, "confirm dropping every table")
	cmd.AddCommand(reset)

	return cmd
}

func runDB(cmd *cobra.Command, root *rootOptions, reset bool) error {
	ctx := cmd.Context()
	store, err := root.openStore(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	if reset {
		err = store.Reset(ctx)
	} else {
		err = store.Init(ctx)
	}
	if err != nil {
		return err
	}
	counts, err := store.Counts(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %d tables ready\n", root.cfg.DBDriver, len(counts))
	return nil
}
