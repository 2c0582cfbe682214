package schedule

import "agenda/internal/models"

// ApplicableWindows selects the windows a service can be booked in on one day.
// Active windows scoped to the service replace the profile-wide ones; inactive and
// malformed windows are ignored. Input order is preserved.
func ApplicableWindows(windows []*models.AvailabilityWindow, serviceID int64) []Interval {
	var own, shared []Interval
	for _, w := range windows {
		if !w.IsActive {
			continue
		}
		iv, err := NewInterval(w.StartTime, w.EndTime)
		if err != nil {
			continue
		}
		switch {
		case w.ServiceID == nil:
			shared = append(shared, iv)
		case *w.ServiceID == serviceID:
			own = append(own, iv)
		}
	}
	if len(own) > 0 {
		return own
	}
	return shared
}

// SiblingIntervals returns active windows sharing candidate's scope and day,
// leaving out candidate itself so an update is checked against the others only.
func SiblingIntervals(candidate *models.AvailabilityWindow, windows []*models.AvailabilityWindow) []Interval {
	var out []Interval
	for _, w := range windows {
		if !w.IsActive || w.DayOfWeek != candidate.DayOfWeek || !w.SameScope(candidate) {
			continue
		}
		if candidate.ID != 0 && w.ID == candidate.ID {
			continue
		}
		iv, err := NewInterval(w.StartTime, w.EndTime)
		if err != nil {
			continue
		}
		out = append(out, iv)
	}
	return out
}

// BusyIntervals converts bookings to intervals. Only active statuses block.
func BusyIntervals(bookings []*models.Booking) []Interval {
	out := make([]Interval, 0, len(bookings))
	for _, b := range bookings {
		if !b.Status.Active() {
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
