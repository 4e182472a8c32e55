package worker

import (
	"context"
	"log/slog"
	"time"
)

// Periodic runs Task once at start and then on every tick until the context
// is cancelled.
type Periodic struct {
	Name     string
	Interval time.Duration
	Task     func(ctx context.Context) error
	Logger   *slog.Logger
}

func NewPeriodic(name string, interval time.Duration, task func(ctx context.Context) error, logger *slog.Logger) *Periodic {
	if logger == nil {
		logger = slog.Default()
	}
	return &Periodic{Name: name, Interval: interval, Task: task, Logger: logger}
}

// Start blocks until ctx is done. Task failures are logged and the next tick
// still runs.
func (w *Periodic) Start(ctx context.Context) error {
	w.Logger.Info("periodic worker started", "worker", w.Name, "interval", w.Interval.String())

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	w.run(ctx)
	for {
		select {
		case <-ctx.Done():
			w.Logger.Info("periodic worker stopped", "worker", w.Name)
			return nil
		case <-ticker.C:
			w.run(ctx)
		}
	}
}

func (w *Periodic) run(ctx context.Context) {
	if err := w.Task(ctx); err != nil {
		w.Logger.Error("periodic task failed", "worker", w.Name, "error", err)
	}
}
