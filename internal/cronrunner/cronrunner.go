// Package cronrunner wraps robfig/cron/v3 with a base context and the
// no-overlap guarantee spec §5 requires of the Ingest Loop, adapted
// from the polymarket backend's internal/cron runner.
package cronrunner

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

type Runner struct {
	cron    *cron.Cron
	logger  *zap.Logger
	baseCtx context.Context
}

func New(logger *zap.Logger, baseCtx context.Context) *Runner {
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &Runner{
		cron:    cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger}))),
		logger:  logger,
		baseCtx: baseCtx,
	}
}

// Add schedules job under spec, guarded by SkipIfStillRunning so an
// overrunning cycle never overlaps its successor.
func (r *Runner) Add(spec string, job func(context.Context)) (cron.EntryID, error) {
	return r.cron.AddFunc(spec, func() {
		job(r.baseCtx)
	})
}

func (r *Runner) Start() {
	if r.logger != nil {
		r.logger.Info("cron started")
	}
	r.cron.Start()
}

func (r *Runner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
	if r.logger != nil {
		r.logger.Info("cron stopped")
	}
}

// cronLogger adapts *zap.Logger to cron.Logger's Info/Error surface.
type cronLogger struct{ l *zap.Logger }

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	if c.l != nil {
		c.l.Sugar().Infow(msg, keysAndValues...)
	}
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	if c.l != nil {
		c.l.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
	}
}
