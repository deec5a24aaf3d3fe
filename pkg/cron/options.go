package cron

import (
	"log/slog"
	"time"
)

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithCheckInterval sets how often the runner checks for due jobs.
func WithCheckInterval(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.checkInterval = d
		}
	}
}

// WithConcurrency sets how many tenants may be processed in parallel within
// one firing. Defaults to 1 (sequential).
func WithConcurrency(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithJobTimeout bounds each tenant's iteration. A timed-out iteration is
// logged and isolated like any other failure.
func WithJobTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.jobTimeout = d
		}
	}
}

// WithFailureThreshold escalates the firing summary to Error level when the
// failed-tenant ratio reaches the threshold (0 < ratio <= 1). Zero disables
// escalation; partial failures then log at Warn.
func WithFailureThreshold(ratio float64) RunnerOption {
	return func(r *Runner) {
		if ratio > 0 && ratio <= 1 {
			r.failureRatio = ratio
		}
	}
}

// WithRunnerLogger sets the runner logger.
func WithRunnerLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}
