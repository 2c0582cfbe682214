package domain

import (
	"context"
	"time"

	"agenda/internal/models"
)

// CatalogStore reads and writes users, profiles and services.
type CatalogStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id int64) (*models.User, error)
	CreateProfile(ctx context.Context, profile *models.Profile) error
	GetProfile(ctx context.Context, id int64) (*models.Profile, error)
	CreateService(ctx context.Context, service *models.Service) error
	UpdateService(ctx context.Context, service *models.Service) error
	GetService(ctx context.Context, id int64) (*models.Service, error)
}

// AvailabilityStore holds recurring windows and one-off blocks.
type AvailabilityStore interface {
	GetActiveWindows(ctx context.Context, profileID int64, day time.Weekday) ([]*models.AvailabilityWindow, error)
	GetWindow(ctx context.Context, id int64) (*models.AvailabilityWindow, error)
	CreateWindow(ctx context.Context, window *models.AvailabilityWindow) error
	UpdateWindow(ctx context.Context, window *models.AvailabilityWindow) error
	GetBlocksForDate(ctx context.Context, profileID int64, date time.Time) ([]*models.ScheduleBlock, error)
	ListBlocks(ctx context.Context, profileID int64, from, to time.Time) ([]*models.ScheduleBlock, error)
	GetBlock(ctx context.Context, id int64) (*models.ScheduleBlock, error)
	CreateBlock(ctx context.Context, block *models.ScheduleBlock) error
	DeleteBlock(ctx context.Context, id int64) error
}

// BookingStore persists bookings. CreateBooking must reject an interval that overlaps
// an active booking of the same profile and date with ErrSlotTaken.
type BookingStore interface {
	GetBookings(ctx context.Context, profileID int64, date time.Time, statuses []models.BookingStatus) ([]*models.Booking, error)
	GetBookingsByDateRange(ctx context.Context, profileID int64, from, to time.Time) ([]*models.Booking, error)
	GetBookingsForDate(ctx context.Context, date time.Time, status models.BookingStatus) ([]*models.Booking, error)
	CreateBooking(ctx context.Context, booking *models.Booking) error
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	UpdateBookingStatus(ctx context.Context, id, version int64, change models.StatusChange) (*models.Booking, error)
	SetWhatsappNotified(ctx context.Context, id int64, notified bool) error
}

// NotificationStore is the append-only audit trail of delivery attempts.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, bookingID int64) ([]*models.Notification, error)
	HasSentNotification(ctx context.Context, bookingID int64, typ models.NotificationType) (bool, error)
}

// Store is everything the engine needs from persistence.
type Store interface {
	CatalogStore
	AvailabilityStore
	BookingStore
	NotificationStore
}

// Sender delivers one message. It never fails with an error; the outcome is in the result.
type Sender interface {
	Send(ctx context.Context, recipient, message string) models.SendResult
	Provider() string
}

// Locker serializes booking creation per key.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}
