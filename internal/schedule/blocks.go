package schedule

import (
	"fmt"
	"time"

	"agenda/internal/domain"
	"agenda/internal/models"
)

// ValidateBlock checks the date range and, for time-bounded blocks, the time range.
func ValidateBlock(b *models.ScheduleBlock) error {
	if b.EndDate.Before(b.StartDate) {
		return fmt.Errorf("%w: %s > %s", domain.ErrInvalidRange, FormatDate(b.StartDate), FormatDate(b.EndDate))
	}
	if b.AllDay {
		return nil
	}
	if b.StartTime == "" || b.EndTime == "" {
		return fmt.Errorf("%w: bloqueo parcial sin horario", domain.ErrInvalidTime)
	}
	_, err := NewInterval(b.StartTime, b.EndTime)
	return err
}

// BlockedIntervals returns the intervals of date made unavailable by blocks.
// An all-day block covers the whole day.
func BlockedIntervals(blocks []*models.ScheduleBlock, date time.Time) []Interval {
	var out []Interval
	for _, b := range blocks {
		if !b.CoversDate(date) {
			continue
		}
		if b.AllDay {
			out = append(out, Interval{Start: 0, End: models.MinutesPerDay})
			continue
		}
		iv, err := NewInterval(b.StartTime, b.EndTime)
		if err != nil {
			continue
		}
		out = append(out, iv)
	}
	return out
}
