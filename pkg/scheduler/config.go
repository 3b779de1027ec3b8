package scheduler

import (
	"runtime"

	"go.uber.org/zap"

	"github.com/vnykmshr/reqflow/pkg/common/validation"
	"github.com/vnykmshr/reqflow/pkg/metrics"
)

const (
	// MinConcurrency is the smallest allowed executor ceiling.
	MinConcurrency = 1
	// MaxConcurrencyLimit is the largest allowed executor ceiling.
	MaxConcurrencyLimit = 8
	// fallbackConcurrency is used when host capacity cannot be determined.
	fallbackConcurrency = 4

	defaultEventBuffer = 256
)

// Config holds scheduler configuration.
type Config struct {
	// Name identifies the scheduler in logs and metrics.
	Name string

	// MaxConcurrency caps simultaneous executions, between MinConcurrency
	// and MaxConcurrencyLimit. Zero selects a default derived from host
	// CPU capacity.
	MaxConcurrency int

	// Executor performs the network work for dispatched tasks. Required.
	Executor Executor

	// Validator screens task targets at dispatch time. Nil selects the
	// default URL validator.
	Validator TargetValidator

	// EventBuffer sizes the internal event channel. Zero selects a default.
	EventBuffer int

	// Logger receives structured scheduler logs. Nil disables logging.
	Logger *zap.Logger

	// Metrics configures Prometheus instrumentation.
	Metrics metrics.Config
}

// DefaultConfig returns a Config with sensible defaults. The executor must
// still be supplied by the caller.
func DefaultConfig() Config {
	return Config{
		Name:           "default",
		MaxConcurrency: defaultConcurrency(),
		EventBuffer:    defaultEventBuffer,
		Metrics:        metrics.DefaultConfig(),
	}
}

// Validate checks the configuration for correctness.
func (c Config) Validate() error {
	if err := validation.ValidateNotNil("scheduler", "executor", c.Executor); err != nil {
		return err
	}
	if c.MaxConcurrency != 0 {
		if err := validation.ValidateRange("scheduler", "maxConcurrency", c.MaxConcurrency, MinConcurrency, MaxConcurrencyLimit); err != nil {
			return err
		}
	}
	if c.EventBuffer < 0 {
		return validation.ValidatePositive("scheduler", "eventBuffer", c.EventBuffer)
	}
	return nil
}

// defaultConcurrency derives the executor ceiling from host CPU capacity,
// clamped to the allowed range.
func defaultConcurrency() int {
	n := runtime.NumCPU()
	if n < MinConcurrency {
		return fallbackConcurrency
	}
	if n > MaxConcurrencyLimit {
		return MaxConcurrencyLimit
	}
	return n
}
