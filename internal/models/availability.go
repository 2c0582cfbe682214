package models

import "time"

// AvailabilityWindow is a recurring weekly open interval.
// ServiceID == nil means the window applies to every service of the profile.
type AvailabilityWindow struct {
	ID        int64        `json:"id"`
	ProfileID int64        `json:"profile_id"`
	ServiceID *int64       `json:"service_id,omitempty"`
	DayOfWeek time.Weekday `json:"day_of_week"`
	StartTime string       `json:"start_time"`
	EndTime   string       `json:"end_time"`
	IsActive  bool         `json:"is_active"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// SameScope reports whether both windows belong to the same profile/service scope.
func (w *AvailabilityWindow) SameScope(other *AvailabilityWindow) bool {
	if w.ProfileID != other.ProfileID {
		return false
	}
	if w.ServiceID == nil || other.ServiceID == nil {
		return w.ServiceID == nil && other.ServiceID == nil
	}
	return *w.ServiceID == *other.ServiceID
}

// ScheduleBlock is a one-off exception over [StartDate, EndDate] inclusive.
type ScheduleBlock struct {
	ID        int64     `json:"id"`
	ProfileID int64     `json:"profile_id"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	AllDay    bool      `json:"all_day"`
	StartTime string    `json:"start_time,omitempty"`
	EndTime   string    `json:"end_time,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CoversDate reports whether date falls into the block's date range.
func (b *ScheduleBlock) CoversDate(date time.Time) bool {
	d := date.Format(DateLayout)
	return d >= b.StartDate.Format(DateLayout) && d <= b.EndDate.Format(DateLayout)
}
