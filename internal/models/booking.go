package models

import "time"

type BookingStatus string

const (
	StatusPending   BookingStatus = "PENDING"
	StatusConfirmed BookingStatus = "CONFIRMED"
	StatusCancelled BookingStatus = "CANCELLED"
	StatusCompleted BookingStatus = "COMPLETED"
	StatusNoShow    BookingStatus = "NO_SHOW"
)

// ActiveStatuses are the statuses that occupy a slot.
var ActiveStatuses = []BookingStatus{StatusPending, StatusConfirmed}

func (s BookingStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted, StatusNoShow:
		return true
	}
	return false
}

// Active reports whether a booking in this status blocks its interval.
func (s BookingStatus) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Terminal reports whether no further transition is possible.
func (s BookingStatus) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted || s == StatusNoShow
}

type CancelledBy string

const (
	CancelledByClient       CancelledBy = "client"
	CancelledByProfessional CancelledBy = "professional"
)

func (c CancelledBy) Valid() bool {
	return c == CancelledByClient || c == CancelledByProfessional
}

type Booking struct {
	ID                 int64         `json:"id"`
	ProfileID          int64         `json:"profile_id"`
	ServiceID          int64         `json:"service_id"`
	Date               time.Time     `json:"date"`
	StartTime          string        `json:"start_time"`
	EndTime            string        `json:"end_time"`
	Status             BookingStatus `json:"status"`
	ClientName         string        `json:"client_name"`
	ClientEmail        string        `json:"client_email"`
	ClientPhone        string        `json:"client_phone"`
	Notes              string        `json:"notes,omitempty"`
	WhatsappNotified   bool          `json:"whatsapp_notified"`
	CancelledAt        *time.Time    `json:"cancelled_at,omitempty"`
	CancelledBy        CancelledBy   `json:"cancelled_by,omitempty"`
	CancellationReason string        `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
	Version            int64         `json:"version"`
}

// DateKey returns the booking day as YYYY-MM-DD.
func (b *Booking) DateKey() string {
	return b.Date.Format(DateLayout)
}

// StatusChange describes one compare-and-set status update.
type StatusChange struct {
	Status             BookingStatus
	CancelledAt        *time.Time
	CancelledBy        CancelledBy
	CancellationReason string
}

// ClientInfo carries the identity of a client without an account.
type ClientInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Notes string `json:"notes,omitempty"`
}
