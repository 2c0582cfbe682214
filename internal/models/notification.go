package models

import "time"

type NotificationType string

const (
	NotificationNewBooking   NotificationType = "NEW_BOOKING"
	NotificationConfirmation NotificationType = "CONFIRMATION"
	NotificationReminder24h  NotificationType = "REMINDER_24H"
	NotificationCancellation NotificationType = "CANCELLATION"
)

type NotificationStatus string

const (
	NotificationSent   NotificationStatus = "SENT"
	NotificationFailed NotificationStatus = "FAILED"
)

// Notification is an append-only audit row of one delivery attempt.
type Notification struct {
	ID        int64              `json:"id"`
	BookingID int64              `json:"booking_id"`
	Type      NotificationType   `json:"type"`
	Recipient string             `json:"recipient"`
	Message   string             `json:"message"`
	Status    NotificationStatus `json:"status"`
	MessageID string             `json:"message_id,omitempty"`
	Error     string             `json:"error,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

// SendResult is what a sender reports for one message. Senders never fail with an error.
type SendResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}
