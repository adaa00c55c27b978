// Package config defines process configuration and its loading.
//
// Values are layered from defaults, an optional YAML file and the
// environment. Validation failures wrap ErrInvalidConfig.
package config

import (
	"runtime"
)

// Queue backends.
const (
	QueueMemory = "memory"
	QueueRedis  = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of load workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets how many queued game ids are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// QueueBackend selects the job queue: memory or redis.
	QueueBackend string `koanf:"queue_backend"`
	RedisAddr    string `koanf:"redis_addr"`
	RedisKey     string `koanf:"redis_key"`

	// DBDriver is sqlite or postgres; DBDSN is handed to the driver as is.
	DBDriver string `koanf:"db_driver"`
	DBDSN    string `koanf:"db_dsn"`

	// BaseURL is the root of the GameDay tree.
	BaseURL       string  `koanf:"base_url"`
	HTTPTimeoutMS int     `koanf:"http_timeout_ms"`
	HTTPRetries   int     `koanf:"http_retries"`
	HTTPRPS       float64 `koanf:"http_rps"`
	HTTPBurst     int     `koanf:"http_burst"`
	UserAgent     string  `koanf:"user_agent"`

	// Timezone is the zone feed timestamps are converted to.
	Timezone string `koanf:"timezone"`

	// SkipIfFinal leaves games already stored as final untouched.
	SkipIfFinal bool `koanf:"skip_if_final"`

	// WatchSchedule is a cron spec for reloading today's games. Empty
	// disables watching.
	WatchSchedule string `koanf:"watch_schedule"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:      "info",
		Addr:          ":9080",
		QueueSize:     10_000,
		WorkerCount:   runtime.NumCPU() * 2,
		DedupeSize:    50_000,
		QueueBackend:  QueueMemory,
		RedisAddr:     "localhost:6379",
		RedisKey:      "breakingball:jobs",
		DBDriver:      "sqlite",
		DBDSN:         "gameday.db",
		BaseURL:       "http://gd2.mlb.com/components/game/mlb/",
		HTTPTimeoutMS: 10_000,
		HTTPRetries:   3,
		HTTPRPS:       5,
		HTTPBurst:     5,
		UserAgent:     "breakingball/1.0",
		Timezone:      "America/New_York",
		SkipIfFinal:   true,
		WatchSchedule: "@every 5m",
	}
}
