package lanes

import (
	"fmt"
	"time"
)

// Config holds configuration for a queue manager.
type Config struct {
	// PollInterval is how often an idle worker's dispatch loop ticks.
	// Submissions and releases wake workers between ticks.
	PollInterval time.Duration

	// HeartbeatInterval is the expected spacing of worker heartbeats.
	// It must not be shorter than PollInterval.
	HeartbeatInterval time.Duration

	// HeartbeatMissLimit is how many heartbeat intervals may pass before a
	// worker is considered lost and its jobs are reclaimed.
	HeartbeatMissLimit int

	// JobTimeout is the handler timeout for jobs submitted without one.
	JobTimeout time.Duration

	// BaseBackoff is the delay before the first retry. Retry n waits
	// BaseBackoff * 2^(n-1).
	BaseBackoff time.Duration

	// MaxBackoff caps the retry delay. Zero means uncapped.
	MaxBackoff time.Duration

	// DefaultMaxRetries is the retry budget for jobs submitted without one.
	DefaultMaxRetries int

	// DeadLetterCapacity bounds the dead-letter queue; the oldest entry is
	// evicted when it is full.
	DeadLetterCapacity int

	// RetentionWindow is how long completed jobs stay in memory.
	RetentionWindow time.Duration

	// CleanupInterval is how often completed jobs are evicted and stale
	// workers reclaimed.
	CleanupInterval time.Duration

	// MetricsInterval is how often the metrics snapshot is recomputed and
	// published to extensions.
	MetricsInterval time.Duration

	// ThroughputWindow is the trailing window used for the throughput metric.
	ThroughputWindow time.Duration

	// ShutdownGrace is how long the daemon waits for in-flight jobs on exit.
	ShutdownGrace time.Duration

	// RestoreDeadLetters reloads persisted dead jobs into the dead-letter
	// queue on start.
	RestoreDeadLetters bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		PollInterval:       1 * time.Second,
		HeartbeatInterval:  1 * time.Second,
		HeartbeatMissLimit: 3,
		JobTimeout:         30 * time.Second,
		BaseBackoff:        1 * time.Second,
		DefaultMaxRetries:  3,
		DeadLetterCapacity: 1000,
		RetentionWindow:    1 * time.Hour,
		CleanupInterval:    1 * time.Minute,
		MetricsInterval:    10 * time.Second,
		ThroughputWindow:   1 * time.Minute,
		ShutdownGrace:      30 * time.Second,
		RestoreDeadLetters: true,
	}
}

// StaleAfter is the heartbeat age past which a worker is considered lost.
func (c Config) StaleAfter() time.Duration {
	return c.HeartbeatInterval * time.Duration(c.HeartbeatMissLimit)
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	switch {
	case c.PollInterval <= 0:
		return fmt.Errorf("%w: poll interval must be positive", ErrInvalidConfig)
	case c.HeartbeatInterval < c.PollInterval:
		return fmt.Errorf("%w: heartbeat interval %s is shorter than poll interval %s",
			ErrInvalidConfig, c.HeartbeatInterval, c.PollInterval)
	case c.HeartbeatMissLimit < 1:
		return fmt.Errorf("%w: heartbeat miss limit must be at least 1", ErrInvalidConfig)
	case c.JobTimeout <= 0:
		return fmt.Errorf("%w: job timeout must be positive", ErrInvalidConfig)
	case c.BaseBackoff < 0 || c.MaxBackoff < 0:
		return fmt.Errorf("%w: backoff delays must not be negative", ErrInvalidConfig)
	case c.DefaultMaxRetries < 0:
		return fmt.Errorf("%w: default max retries must not be negative", ErrInvalidConfig)
	case c.DeadLetterCapacity < 1:
		return fmt.Errorf("%w: dead-letter capacity must be at least 1", ErrInvalidConfig)
	case c.RetentionWindow < 0:
		return fmt.Errorf("%w: retention window must not be negative", ErrInvalidConfig)
	case c.CleanupInterval <= 0 || c.MetricsInterval <= 0:
		return fmt.Errorf("%w: cleanup and metrics intervals must be positive", ErrInvalidConfig)
	case c.ThroughputWindow <= 0:
		return fmt.Errorf("%w: throughput window must be positive", ErrInvalidConfig)
	}
	return nil
}
