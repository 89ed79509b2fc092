// Package config loads lanesd settings from LANES_-prefixed environment
// variables using caarlos0/env/v11.
//
// Call [Load] once at startup and derive the library settings with
// [Config.Lanes] and [Config.Throttles].
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/xraph/lanes"
	"github.com/xraph/lanes/notify"
	"github.com/xraph/lanes/throttle"
)

// Store drivers.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreSQLite   = "sqlite"
	StoreRedis    = "redis"
)

// Config holds all daemon configuration sourced from the environment.
type Config struct {
	// ── Store ────────────────────────────────────────────────────
	Store       string `env:"STORE"        envDefault:"memory"`
	DatabaseURL string `env:"DATABASE_URL"`
	SQLitePath  string `env:"SQLITE_PATH"  envDefault:"lanes.db"`
	RedisURL    string `env:"REDIS_URL"    envDefault:"redis://localhost:6379/0"`

	// ── HTTP ─────────────────────────────────────────────────────
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":8080"`
	APIToken   string `env:"API_TOKEN"`

	// ── Queue ────────────────────────────────────────────────────
	PollInterval       time.Duration `env:"POLL_INTERVAL"        envDefault:"1s"`
	HeartbeatInterval  time.Duration `env:"HEARTBEAT_INTERVAL"   envDefault:"1s"`
	HeartbeatMissLimit int           `env:"HEARTBEAT_MISS_LIMIT" envDefault:"3"`
	JobTimeout         time.Duration `env:"JOB_TIMEOUT"          envDefault:"30s"`
	BaseBackoff        time.Duration `env:"BASE_BACKOFF"         envDefault:"1s"`
	MaxBackoff         time.Duration `env:"MAX_BACKOFF"          envDefault:"0s"`
	DefaultMaxRetries  int           `env:"DEFAULT_MAX_RETRIES"  envDefault:"3"`
	DeadLetterCapacity int           `env:"DEAD_LETTER_CAPACITY" envDefault:"1000"`
	RetentionWindow    time.Duration `env:"RETENTION_WINDOW"     envDefault:"1h"`
	CleanupInterval    time.Duration `env:"CLEANUP_INTERVAL"     envDefault:"1m"`
	MetricsInterval    time.Duration `env:"METRICS_INTERVAL"     envDefault:"10s"`
	ThroughputWindow   time.Duration `env:"THROUGHPUT_WINDOW"    envDefault:"1m"`
	ShutdownGrace      time.Duration `env:"SHUTDOWN_GRACE"       envDefault:"30s"`
	RestoreDeadLetters bool          `env:"RESTORE_DEAD_LETTERS" envDefault:"true"`

	// Workers lists the worker pools started with the daemon, e.g.
	// "mailer:email.send:4;hooks:webhook.deliver|email.send:8".
	Workers WorkerPools `env:"WORKERS" envDefault:"default:*:4"`

	// Cron lists recurring submissions as ";"-separated
	// "name|schedule|type[|payload]" entries, e.g.
	// "cleanup|@every 1h|tmp.sweep".
	Cron CronEntries `env:"CRON"`

	// Per-type admission limits, e.g. "email.send:5,webhook.deliver:10".
	ThrottleConcurrency map[string]int     `env:"THROTTLE_CONCURRENCY"`
	ThrottleRate        map[string]float64 `env:"THROTTLE_RATE"`

	// ── Email (email.send) ───────────────────────────────────────
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT"     envDefault:"587"`
	SMTPUsername string `env:"SMTP_USERNAME"`
	SMTPPassword string `env:"SMTP_PASSWORD"`
	SMTPFrom     string `env:"SMTP_FROM"     envDefault:"lanes@localhost"`
	SMTPTLS      bool   `env:"SMTP_TLS"      envDefault:"true"`

	// ── Webhooks (webhook.deliver) ───────────────────────────────
	WebhookSecret  string        `env:"WEBHOOK_SECRET"`
	WebhookTimeout time.Duration `env:"WEBHOOK_TIMEOUT" envDefault:"10s"`

	// NotifyURL receives lifecycle events as signed webhooks when set.
	// NotifyEvents narrows the forwarded events; empty means all.
	NotifyURL    string   `env:"NOTIFY_URL"`
	NotifyEvents []string `env:"NOTIFY_EVENTS" envSeparator:","`

	// ── Logging ──────────────────────────────────────────────────
	LogLevel  string `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load parses Config from LANES_-prefixed environment variables and
// validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: "LANES_"}); err != nil {
		return nil, fmt.Errorf("lanes/config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings the environment parser cannot.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreSQLite, StoreRedis:
	case StorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: LANES_DATABASE_URL is required for the postgres store", lanes.ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown store %q", lanes.ErrInvalidConfig, c.Store)
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	if err := c.validateNotify(); err != nil {
		return err
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("%w: log format must be json or text, got %q", lanes.ErrInvalidConfig, c.LogFormat)
	}
	return c.Lanes().Validate()
}

func (c *Config) validateNotify() error {
	if c.NotifyURL == "" {
		return nil
	}
	u, err := url.Parse(c.NotifyURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: LANES_NOTIFY_URL must be an absolute http(s) URL", lanes.ErrInvalidConfig)
	}
	for _, ev := range c.NotifyEvents {
		if !slices.Contains(notify.Events(), ev) {
			return fmt.Errorf("%w: unknown notify event %q", lanes.ErrInvalidConfig, ev)
		}
	}
	return nil
}

// Lanes returns the queue manager settings.
func (c *Config) Lanes() lanes.Config {
	return lanes.Config{
		PollInterval:       c.PollInterval,
		HeartbeatInterval:  c.HeartbeatInterval,
		HeartbeatMissLimit: c.HeartbeatMissLimit,
		JobTimeout:         c.JobTimeout,
		BaseBackoff:        c.BaseBackoff,
		MaxBackoff:         c.MaxBackoff,
		DefaultMaxRetries:  c.DefaultMaxRetries,
		DeadLetterCapacity: c.DeadLetterCapacity,
		RetentionWindow:    c.RetentionWindow,
		CleanupInterval:    c.CleanupInterval,
		MetricsInterval:    c.MetricsInterval,
		ThroughputWindow:   c.ThroughputWindow,
		ShutdownGrace:      c.ShutdownGrace,
		RestoreDeadLetters: c.RestoreDeadLetters,
	}
}

// Throttles merges the concurrency and rate maps into per-type limits,
// sorted by type.
func (c *Config) Throttles() []throttle.Config {
	byType := make(map[string]*throttle.Config)
	get := func(t string) *throttle.Config {
		if tc, ok := byType[t]; ok {
			return tc
		}
		tc := &throttle.Config{Type: t}
		byType[t] = tc
		return tc
	}
	for t, n := range c.ThrottleConcurrency {
		get(t).MaxConcurrency = n
	}
	for t, r := range c.ThrottleRate {
		tc := get(t)
		tc.RateLimit = r
		tc.RateBurst = max(1, int(r))
	}

	out := make([]throttle.Config, 0, len(byType))
	for _, tc := range byType {
		out = append(out, *tc)
	}
	slices.SortFunc(out, func(a, b throttle.Config) int { return strings.Compare(a.Type, b.Type) })
	return out
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("%w: log level %q", lanes.ErrInvalidConfig, c.LogLevel)
	}
	return lvl, nil
}

// WorkerPool is one worker registered at start-up.
type WorkerPool struct {
	Name        string
	Types       []string
	Concurrency int
}

// WorkerPools is a ";"-separated list of "name:type1|type2:concurrency".
type WorkerPools []WorkerPool

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *WorkerPools) UnmarshalText(text []byte) error {
	var pools WorkerPools
	for _, spec := range strings.Split(string(text), ";") {
		spec = strings.TrimSpace(spec)
		if spec == "" {
			continue
		}
		parts := strings.Split(spec, ":")
		if len(parts) != 3 {
			return fmt.Errorf("worker pool %q: want name:types:concurrency", spec)
		}
		n, err := strconv.Atoi(parts[2])
		if err != nil || n < 1 {
			return fmt.Errorf("worker pool %q: concurrency must be a positive integer", spec)
		}
		pools = append(pools, WorkerPool{
			Name:        parts[0],
			Types:       strings.Split(parts[1], "|"),
			Concurrency: n,
		})
	}
	*p = pools
	return nil
}

// CronEntry is one recurring submission registered at start-up.
type CronEntry struct {
	Name     string
	Schedule string
	JobType  string
	Payload  []byte
}

// CronEntries is a ";"-separated list of "name|schedule|type[|payload]".
// Payloads must not contain ";".
type CronEntries []CronEntry

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *CronEntries) UnmarshalText(text []byte) error {
	var entries CronEntries
	for _, spec := range strings.Split(string(text), ";") {
		spec = strings.TrimSpace(spec)
		if spec == "" {
			continue
		}
		parts := strings.SplitN(spec, "|", 4)
		if len(parts) < 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
			return fmt.Errorf("cron entry %q: want name|schedule|type[|payload]", spec)
		}
		e := CronEntry{Name: parts[0], Schedule: parts[1], JobType: parts[2], Payload: []byte("{}")}
		if len(parts) == 4 {
			e.Payload = []byte(parts[3])
		}
		entries = append(entries, e)
	}
	*c = entries
	return nil
}
