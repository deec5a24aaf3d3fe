package cron

import "errors"

var (
	// ErrNilTenantLister is returned when a Runner is created without a
	// tenant source.
	ErrNilTenantLister = errors.New("tenant lister is nil")

	// ErrInvalidJob is returned when a job registration is missing its name,
	// schedule or function.
	ErrInvalidJob = errors.New("invalid job registration")

	// ErrJobAlreadyRegistered is returned on duplicate job names.
	ErrJobAlreadyRegistered = errors.New("job already registered")

	// ErrJobNotRegistered is returned when triggering an unknown job.
	ErrJobNotRegistered = errors.New("job not registered")

	// ErrNoJobsRegistered is returned when starting a runner with no jobs.
	ErrNoJobsRegistered = errors.New("no jobs registered")

	// ErrJobPanicked wraps a recovered panic from one tenant's iteration.
	ErrJobPanicked = errors.New("job panicked")
)
