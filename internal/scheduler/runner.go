// Package scheduler runs periodic maintenance jobs inside the service process.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Job is one unit of periodic work. Errors are logged; the schedule continues.
type Job func(ctx context.Context) error

type Runner struct {
	cron    *cron.Cron
	log     zerolog.Logger
	baseCtx context.Context
}

func New(baseCtx context.Context, log zerolog.Logger) *Runner {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &Runner{
		cron: cron.New(
			cron.WithSeconds(),
			cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
		),
		log:     log,
		baseCtx: baseCtx,
	}
}

// Add registers job under a six-field (seconds first) cron spec.
func (r *Runner) Add(name, spec string, job Job) (cron.EntryID, error) {
	return r.cron.AddFunc(spec, func() {
		r.run(name, job)
	})
}

func (r *Runner) run(name string, job Job) {
	started := time.Now()
	if err := job(r.baseCtx); err != nil {
		r.log.Error().Err(err).Str("job", name).Msg("scheduled job failed")
		return
	}
	r.log.Debug().Str("job", name).Dur("took", time.Since(started)).Msg("scheduled job done")
}

func (r *Runner) Start() {
	r.log.Info().Int("jobs", len(r.cron.Entries())).Msg("scheduler started")
	r.cron.Start()
}

func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	r.log.Info().Msg("scheduler stopped")
}
