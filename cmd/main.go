// Command breakingball loads MLB GameDay feeds into a relational database.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/breakingball/internal/adapters/gameday"
	"github.com/okian/breakingball/internal/adapters/mq/queue"
	"github.com/okian/breakingball/internal/adapters/repository"
	service "github.com/okian/breakingball/internal/app"
	"github.com/okian/breakingball/internal/config"
	"github.com/okian/breakingball/pkg/logger"
	"github.com/okian/breakingball/pkg/metrics"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// Server and updater timing.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Stderr.WriteString("breakingball: " + err.Error() + "\n")
		os.Exit(1)
	}
}

// rootOptions holds global flags and what PersistentPreRunE builds from
// them.
type rootOptions struct {
	configPath string
	logLevel   string

	cfg *config.Config
	log logger.Logger
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "breakingball",
		Short:         "Load MLB GameDay feeds into a database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd.Context())
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "YAML config file (overrides BREAKINGBALL_CONFIG)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")

	cmd.AddCommand(newLoadCommand(opts))
	cmd.AddCommand(newWatchCommand(opts))
	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newDBCommand(opts))
	return cmd
}

// setup loads config and initializes logging.
func (o *rootOptions) setup(ctx context.Context) error {
	if err := logger.Init(); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	o.log = logger.Get()

	if o.configPath != "" {
		if err := os.Setenv(config.EnvPrefix+"CONFIG", o.configPath); err != nil {
			return err
		}
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		o.log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	o.cfg = cfg
	return nil
}

// backends holds the connections a command opens.
type backends struct {
	cfg    *config.Config
	log    logger.Logger
	store  *repository.Store
	client *gameday.Client
	redis  *redis.Client
}

// openStore connects to the configured database.
func (o *rootOptions) openStore(ctx context.Context) (*repository.Store, error) {
	store, err := repository.Connect(ctx, o.cfg.DBDriver, o.cfg.DBDSN, repository.WithLogger(o.log))
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", o.cfg.DBDriver, err)
	}
	return store, nil
}

// open connects every backend a loading command needs and makes sure the
// schema exists.
func (o *rootOptions) open(ctx context.Context) (*backends, error) {
	store, err := o.openStore(ctx)
	if err != nil {
		return nil, err
	}
	rt := &backends{cfg: o.cfg, log: o.log, store: store}
	if err := store.Init(ctx); err != nil {
		rt.close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	rt.client = gameday.New(
		gameday.WithBaseURL(o.cfg.BaseURL),
		gameday.WithTimeout(o.cfg.HTTPTimeout()),
		gameday.WithRetries(uint(o.cfg.HTTPRetries)),
		gameday.WithRateLimit(o.cfg.HTTPRPS, o.cfg.HTTPBurst),
		gameday.WithUserAgent(o.cfg.UserAgent),
		gameday.WithLogger(o.log),
	)

	if o.cfg.QueueBackend == config.QueueRedis {
		rt.redis, err = queue.DialRedis(ctx, o.cfg.RedisAddr)
		if err != nil {
			rt.close()
			return nil, err
		}
	}
	return rt, nil
}

// service builds the loader service; extra options are applied last.
func (rt *backends) service(opts ...service.Option) (*service.Service, error) {
	loc, err := rt.cfg.Location()
	if err != nil {
		return nil, err
	}
	base := []service.Option{
		service.WithLogger(rt.log),
		service.WithWorkerCount(rt.cfg.WorkerCount),
		service.WithQueueSize(rt.cfg.QueueSize),
		service.WithDedupeSize(rt.cfg.DedupeSize),
		service.WithSkipIfFinal(rt.cfg.SkipIfFinal),
		service.WithLocation(loc),
	}
	if rt.redis != nil {
		base = append(base, service.WithRedisQueue(rt.redis, rt.cfg.RedisKey))
	}
	return service.New(rt.store, rt.client, append(base, opts...)...), nil
}

func (rt *backends) close() {
	var errs []error
	if rt.redis != nil {
		errs = append(errs, rt.redis.Close())
	}
	if rt.store != nil {
		errs = append(errs, rt.store.Close())
	}
	if err := errors.Join(errs...); err != nil {
		rt.log.Warn(context.Background(), "close failed", logger.Error(err))
	}
}

// startServiceMetricsUpdater refreshes gauges that only the service can
// read, such as the length of a shared queue.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(ctx, svc)
		}
	}
}

func updateServiceMetrics(ctx context.Context, svc *service.Service) {
	stats := svc.GetStats(ctx)
	if queueLen, ok := stats["queueLength"].(int); ok {
		metrics.UpdateQueueSize(queueLen)
	}
	if workerCount, ok := stats["workerCount"].(int); ok {
		metrics.UpdateWorkerCount(workerCount)
	}
}
