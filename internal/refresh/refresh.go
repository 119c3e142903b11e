// Package refresh keeps registered users' pregnancy week current and
// delivers the weekly tip SMS on a cron schedule.
package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/lafiya-uwa/ussdcare/internal/models"
	"github.com/lafiya-uwa/ussdcare/internal/notify"
	"github.com/lafiya-uwa/ussdcare/internal/store"
	"github.com/lafiya-uwa/ussdcare/internal/validate"
)

// DefaultSchedule runs the refresh every Monday at 09:00 local time.
const DefaultSchedule = "0 9 * * 1"

// runTimeout bounds one full refresh pass.
const runTimeout = 10 * time.Minute

// TipSource produces the weekly tip message for a user.
type TipSource interface {
	WeeklyTip(ctx context.Context, name string, week int) string
}

// Runner recomputes each active user's pregnancy week from her expected
// delivery date and sends the tip of the week.
type Runner struct {
	store    store.Store
	notifier notify.Service
	tips     TipSource
	schedule string
	cron     *cron.Cron
}

// Option configures a Runner.
type Option func(*Runner)

// WithSchedule overrides the cron expression (5-field, minute precision).
func WithSchedule(expr string) Option {
	return func(r *Runner) { r.schedule = expr }
}

// NewRunner creates a weekly refresh runner.
func NewRunner(st store.Store, notifier notify.Service, tipSource TipSource, opts ...Option) *Runner {
	if notifier == nil {
		notifier = notify.Noop{}
	}
	r := &Runner{store: st, notifier: notifier, tips: tipSource, schedule: DefaultSchedule}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start registers the refresh job and starts the cron scheduler.
func (r *Runner) Start() error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	c := cron.New(cron.WithParser(parser), cron.WithChain(cron.Recover(cron.DefaultLogger)))
	_, err := c.AddFunc(r.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		if err := r.RunOnce(ctx); err != nil {
			slog.Error("Weekly refresh run failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", r.schedule, err)
	}
	c.Start()
	r.cron = c
	slog.Info("Weekly refresh scheduled", "schedule", r.schedule)
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (r *Runner) Stop() {
	if r.cron != nil {
		ctx := r.cron.Stop()
		<-ctx.Done()
	}
}

// RunOnce performs one refresh pass over all active users. Per-user failures
// are logged and counted but do not stop the pass.
func (r *Runner) RunOnce(ctx context.Context) error {
	users, err := r.store.ListActiveUsers()
	if err != nil {
		return fmt.Errorf("failed to list active users: %w", err)
	}
	now := time.Now()
	var failures int
	for _, u := range users {
		week := validate.PregnancyWeekAt(u.ExpectedDeliveryDate, now)
		if week != u.CurrentWeek {
			if err := r.store.UpdateUser(u.PhoneNumber, models.UserUpdate{CurrentWeek: &week}); err != nil {
				slog.Error("Refresh week update failed", "error", err, "phone", u.PhoneNumber)
				failures++
				continue
			}
			slog.Debug("Refresh advanced pregnancy week", "phone", u.PhoneNumber, "from", u.CurrentWeek, "to", week)
		}
		msg := r.tips.WeeklyTip(ctx, u.Name, week)
		if err := r.notifier.SendSMS(ctx, u.PhoneNumber, msg); err != nil {
			slog.Error("Weekly tip delivery failed", "error", err, "phone", u.PhoneNumber)
			failures++
		}
	}
	slog.Info("Weekly refresh pass completed", "users", len(users), "failures", failures)
	if failures > 0 {
		return fmt.Errorf("weekly refresh completed with %d failures", failures)
	}
	return nil
}
