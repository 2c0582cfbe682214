package service

import (
	"context"
	"time"

	"agenda/internal/models"
	"agenda/internal/notify"
	"agenda/internal/schedule"
)

// SendReminders notifies clients of CONFIRMED bookings that take place tomorrow in the
// profile's timezone and have no successful reminder yet. It returns how many were attempted.
func (s *BookingService) SendReminders(ctx context.Context) (int, error) {
	now := s.clock()
	today := schedule.DayOf(now.UTC())

	profiles := make(map[int64]*models.Profile)
	attempted := 0

	// Timezones shift "tomorrow" by at most a day either way around UTC.
	for offset := 0; offset <= 2; offset++ {
		date := today.AddDate(0, 0, offset)
		bookings, err := s.store.GetBookingsForDate(ctx, date, models.StatusConfirmed)
		if err != nil {
			return attempted, err
		}

		for _, b := range bookings {
			if err := ctx.Err(); err != nil {
				return attempted, err
			}

			profile, ok := profiles[b.ProfileID]
			if !ok {
				profile, err = s.store.GetProfile(ctx, b.ProfileID)
				if err != nil {
					s.logger.Error().Err(err).Int64("booking_id", b.ID).Msg("Failed to load profile for reminder")
					continue
				}
				profiles[b.ProfileID] = profile
			}
			if !b.Date.Equal(localTomorrow(now, profile.Timezone)) {
				continue
			}

			sent, err := s.store.HasSentNotification(ctx, b.ID, models.NotificationReminder24h)
			if err != nil {
				s.logger.Error().Err(err).Int64("booking_id", b.ID).Msg("Failed to check reminder history")
				continue
			}
			if sent {
				continue
			}

			msg := notify.Reminder24h(messageData(b, profile, s.serviceFor(ctx, b)))
			s.notifier.Notify(ctx, b.ID, models.NotificationReminder24h, b.ClientPhone, msg)
			attempted++
		}
	}

	if attempted > 0 {
		s.logger.Info().Int("count", attempted).Msg("Reminders dispatched")
	}
	return attempted, nil
}

func localTomorrow(now time.Time, tz string) time.Time {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		loc = time.UTC
	}
	return schedule.DayOf(now.In(loc)).AddDate(0, 0, 1)
}
