package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Reminder is the job the scheduler runs on every tick.
type Reminder interface {
	RemindOverdue(ctx context.Context) (int, error)
}

// StartScheduler runs the overdue reminder on spec, a cron expression with a
// leading seconds field. The caller stops the returned cron on shutdown.
func StartScheduler(spec string, reminder Reminder, log *zap.SugaredLogger) (*cron.Cron, error) {
	c := cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cronLogger(log)), cron.SkipIfStillRunning(cronLogger(log))))

	if _, err := c.AddFunc(spec, func() { RunReminder(reminder, log) }); err != nil {
		return nil, fmt.Errorf("failed to add cron job %q: %w", spec, err)
	}

	c.Start()
	log.Infow("scheduler started", "spec", spec)
	return c, nil
}

// cronLogger routes cron's own messages, including recovered panics, through zap.
func cronLogger(log *zap.SugaredLogger) cron.Logger {
	return cron.PrintfLogger(zap.NewStdLog(log.Desugar()))
}

func RunReminder(reminder Reminder, log *zap.SugaredLogger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	log.Info("running overdue reminder job")
	n, err := reminder.RemindOverdue(ctx)
	if err != nil {
		log.Errorw("overdue reminder job failed", "error", err)
		return
	}
	log.Infow("overdue reminder job finished", "reminded", n)
}
