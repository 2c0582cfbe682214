// Package schedule holds the pure availability engine: wall-clock arithmetic,
// half-open interval overlap and slot enumeration. Nothing here touches storage.
package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"agenda/internal/domain"
	"agenda/internal/models"
)

// TimeToMinutes parses "HH:MM" into a minute-of-day offset in [0, 1439].
func TimeToMinutes(s string) (int, error) {
	s = strings.TrimSpace(s)
	hh, mm, ok := strings.Cut(s, ":")
	if !ok || len(hh) != 2 || len(mm) != 2 {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidTime, s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidTime, s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidTime, s)
	}
	return h*60 + m, nil
}

// MinutesToTime formats a minute-of-day offset as zero-padded "HH:MM".
// 1440 renders as "24:00" so an interval ending at midnight stays representable.
func MinutesToTime(m int) string {
	if m < 0 {
		m = 0
	}
	if m > models.MinutesPerDay {
		m = models.MinutesPerDay
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

// ParseDate parses a YYYY-MM-DD calendar day. The result carries no time component.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(models.DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", domain.ErrInvalidDate, s)
	}
	return d, nil
}

func FormatDate(d time.Time) string {
	return d.Format(models.DateLayout)
}

// DayOf strips the clock part of t, keeping its calendar day.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
