package scheduler

import "errors"

var (
	// ErrJobNotFound is returned when a job is not registered
	ErrJobNotFound = errors.New("job not found")

	// ErrDuplicateJob is returned when a job name is registered twice
	ErrDuplicateJob = errors.New("job already registered")

	// ErrInvalidSchedule is returned for a cron expression that does not parse
	ErrInvalidSchedule = errors.New("invalid cron schedule")
)
