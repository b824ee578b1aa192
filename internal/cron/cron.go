// Package cron runs periodic background checks, such as re-validating the
// document directory served by the gateway.
package cron

import "context"

// Job is a periodic background task.
type Job interface {
	// Name identifies the job in logs. It must be unique per scheduler.
	Name() string

	// Schedule is a 5-field cron expression ("*/5 * * * *") or a
	// descriptor such as "@hourly" or "@every 5m".
	Schedule() string

	// Run executes the job once. It should return early when ctx is done.
	Run(ctx context.Context) error
}
