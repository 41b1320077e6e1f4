package updater

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday,
	"wed": time.Wednesday, "thu": time.Thursday, "fri": time.Friday,
	"sat": time.Saturday,
}

// Trigger fires scheduled batch runs. A fire that lands while a previous
// run is still active is skipped, not queued.
type Trigger struct {
	orch   *Orchestrator
	cfg    Config
	logger *slog.Logger

	now func() time.Time // test seam
}

// NewTrigger creates a Trigger for the orchestrator.
func NewTrigger(orch *Orchestrator, cfg Config, logger *slog.Logger) *Trigger {
	cfg.defaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Trigger{orch: orch, cfg: cfg, logger: logger, now: time.Now}
}

// Run blocks until ctx is cancelled, firing a batch run at each scheduled
// time. Returns immediately when the updater is disabled.
func (t *Trigger) Run(ctx context.Context) {
	if !t.cfg.Enabled {
		t.logger.Info("updater: schedule disabled")
		return
	}

	for {
		next := nextFire(t.now(), t.cfg.Schedule)
		t.logger.Info("updater: next scheduled run", "at", next)

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if _, err := t.orch.Run(ctx); err != nil {
			if errors.Is(err, ErrRunInProgress) {
				t.logger.Warn("updater: scheduled fire skipped, run still active")
				continue
			}
			t.logger.Error("updater: scheduled run failed", "error", err)
		}
	}
}

// nextFire returns the first scheduled time strictly after now. Scans at
// most eight days, which covers every weekly pattern.
func nextFire(now time.Time, s Schedule) time.Time {
	base := time.Date(now.Year(), now.Month(), now.Day(),
		s.Hour, s.Minute, 0, 0, now.Location())

	for i := 0; i < 8; i++ {
		c := base.AddDate(0, 0, i)
		if c.After(now) && dayEnabled(c.Weekday(), s.Days) {
			return c
		}
	}
	// Unreachable with a sane schedule.
	return base.AddDate(0, 0, 8)
}

// dayEnabled matches a weekday against the configured day names. Empty
// means every day.
func dayEnabled(w time.Weekday, days []string) bool {
	if len(days) == 0 {
		return true
	}
	for _, d := range days {
		name := strings.ToLower(strings.TrimSpace(d))
		if len(name) > 3 {
			name = name[:3]
		}
		if wd, ok := weekdayNames[name]; ok && wd == w {
			return true
		}
	}
	return false
}
