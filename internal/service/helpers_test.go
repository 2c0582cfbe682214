package service

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"agenda/internal/database"
	"agenda/internal/events"
	"agenda/internal/models"
	"agenda/internal/repository"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockSender is a mock implementation of domain.Sender
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, recipient, message string) models.SendResult {
	args := m.Called(ctx, recipient, message)
	return args.Get(0).(models.SendResult)
}

func (m *MockSender) Provider() string { return "mock" }

var (
	sent   = models.SendResult{Success: true, MessageID: "wamid.1"}
	failed = models.SendResult{Success: false, Error: "provider down"}
)

// monday is the reference day of most scenarios.
var monday = time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)

type harness struct {
	db           *database.DB
	sender       *MockSender
	catalog      *CatalogService
	availability *AvailabilityService
	bookings     *BookingService
	now          time.Time

	user    *models.User
	profile *models.Profile
	service *models.Service

	mu       sync.Mutex
	received []string
}

type harnessOption func(*harnessConfig)

type harnessConfig struct {
	hideBlocked bool
	now         time.Time
	timezone    string
}

func withVisibleBlocks() harnessOption { return func(c *harnessConfig) { c.hideBlocked = false } }

func withNow(now time.Time) harnessOption { return func(c *harnessConfig) { c.now = now } }

func withTimezone(tz string) harnessOption { return func(c *harnessConfig) { c.timezone = tz } }

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	cfg := harnessConfig{
		hideBlocked: true,
		now:         time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC),
		timezone:    "UTC",
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	logger := zerolog.New(io.Discard)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	h := &harness{db: db, sender: new(MockSender), now: cfg.now}

	bus := events.NewEventBus(&logger)
	for _, typ := range events.BookingEventTypes {
		bus.Subscribe(typ, func(e *events.Event) error {
			h.mu.Lock()
			defer h.mu.Unlock()
			h.received = append(h.received, e.Type)
			return nil
		})
	}

	h.catalog = NewCatalogService(db, &logger)
	h.availability = NewAvailabilityService(db, AvailabilityOptions{SlotStep: models.SlotStepMinutes, HideBlocked: cfg.hideBlocked}, &logger)
	notifier := NewNotifier(h.sender, db, time.Second, &logger)
	h.bookings = NewBookingService(db, h.availability, repository.NewMemoryLocker(), notifier, bus,
		BookingOptions{MaxBookingDays: 30, Clock: func() time.Time { return h.now }}, &logger)

	ctx := context.Background()
	h.user = &models.User{Name: "Lucia Gomez", Email: "lucia@example.com", Phone: "+5491100000001"}
	require.NoError(t, db.CreateUser(ctx, h.user))

	h.profile = &models.Profile{UserID: h.user.ID, Slug: "lucia", DisplayName: "Lic. Lucia Gomez", Phone: "+5491100000002", Timezone: cfg.timezone}
	require.NoError(t, h.catalog.CreateProfile(ctx, h.profile))

	h.service = &models.Service{ProfileID: h.profile.ID, Name: "Sesion", DurationMinutes: 30, IsActive: true}
	require.NoError(t, h.catalog.CreateService(ctx, h.user.ID, h.service))

	return h
}

func (h *harness) window(t *testing.T, day time.Weekday, start, end string, serviceID *int64) *models.AvailabilityWindow {
	t.Helper()
	w := &models.AvailabilityWindow{ProfileID: h.profile.ID, ServiceID: serviceID, DayOfWeek: day, StartTime: start, EndTime: end, IsActive: true}
	require.NoError(t, h.availability.CreateWindow(context.Background(), h.user.ID, w))
	return w
}

func (h *harness) request(date time.Time, start string) CreateBookingRequest {
	return CreateBookingRequest{
		ProfileID: h.profile.ID,
		ServiceID: h.service.ID,
		Date:      date,
		StartTime: start,
		Client:    models.ClientInfo{Name: "Juan Perez", Email: "juan@example.com", Phone: "+5491155550000"},
	}
}

// book creates a booking with a succeeding sender.
func (h *harness) book(t *testing.T, date time.Time, start string) *models.Booking {
	t.Helper()
	h.sender.On("Send", mock.Anything, mock.Anything, mock.Anything).Return(sent).Maybe()
	b, err := h.bookings.CreateBooking(context.Background(), h.request(date, start))
	require.NoError(t, err)
	return b
}

func (h *harness) events() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.received...)
}

func (h *harness) notifications(t *testing.T, bookingID int64) []*models.Notification {
	t.Helper()
	list, err := h.db.ListNotifications(context.Background(), bookingID)
	require.NoError(t, err)
	return list
}
