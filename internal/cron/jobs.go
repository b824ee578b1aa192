package cron

import (
	"context"
	"log/slog"

	"github.com/flemzord/tgapi/internal/document"
)

// DefaultCheckSchedule is used when DocumentCheckJob.ScheduleExpr is empty.
const DefaultCheckSchedule = "*/5 * * * *"

// DocumentCheckJob re-validates every document under Dir, so that a broken
// template is reported before anything tries to send it.
type DocumentCheckJob struct {
	Dir          string
	Logger       *slog.Logger
	ScheduleExpr string

	// Defaults is read at the start of every run so that reloaded
	// configuration applies without re-registering the job.
	Defaults func() document.Defaults

	// Report, when set, receives the result of every completed run.
	Report func(document.CheckResult)
}

// Compile-time interface check.
var _ Job = (*DocumentCheckJob)(nil)

// Name implements Job.
func (j *DocumentCheckJob) Name() string { return "document_check" }

// Schedule implements Job.
func (j *DocumentCheckJob) Schedule() string {
	if j.ScheduleExpr != "" {
		return j.ScheduleExpr
	}
	return DefaultCheckSchedule
}

// Run checks the directory and logs each failing document.
func (j *DocumentCheckJob) Run(ctx context.Context) error {
	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var defaults document.Defaults
	if j.Defaults != nil {
		defaults = j.Defaults()
	}

	res, err := document.CheckDir(ctx, j.Dir, defaults)
	if err != nil {
		return err
	}

	for _, f := range res.Failures {
		logger.Warn("cron: invalid document", "source", f.Source, "error", f.Err)
	}
	logger.Info("cron: documents checked",
		"dir", j.Dir,
		"files", res.Files,
		"valid", res.Valid,
		"invalid", res.Invalid(),
	)

	if j.Report != nil {
		j.Report(res)
	}
	return nil
}
