package worker

import (
	"context"
	"time"

	"agenda/internal/models"

	"github.com/rs/zerolog"
)

// ReminderSender dispatches due 24h reminders.
type ReminderSender interface {
	SendReminders(ctx context.Context) (int, error)
}

// ReminderWorker runs reminder dispatch on a fixed interval.
type ReminderWorker struct {
	reminders ReminderSender
	interval  time.Duration
	logger    *zerolog.Logger
}

func NewReminderWorker(reminders ReminderSender, interval time.Duration, logger *zerolog.Logger) *ReminderWorker {
	if interval <= 0 {
		interval = models.DefaultReminderInterval * time.Minute
	}
	return &ReminderWorker{reminders: reminders, interval: interval, logger: logger}
}

// Start runs one pass immediately and then every interval until ctx is done.
func (w *ReminderWorker) Start(ctx context.Context) {
	w.logger.Info().Dur("interval", w.interval).Msg("Reminder worker started")
	defer w.logger.Info().Msg("Reminder worker stopped")

	w.runOnce(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *ReminderWorker) runOnce(ctx context.Context) {
	n, err := w.reminders.SendReminders(ctx)
	if err != nil && ctx.Err() == nil {
		w.logger.Error().Err(err).Int("sent", n).Msg("Reminder pass failed")
	}
}
