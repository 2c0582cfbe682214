package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"agenda/internal/domain"
	"agenda/internal/events"
	"agenda/internal/metrics"
	"agenda/internal/models"
	"agenda/internal/notify"
	"agenda/internal/schedule"

	"github.com/rs/zerolog"
)

// BookingOptions tunes the booking state machine.
type BookingOptions struct {
	// MaxBookingDays is how far ahead of today a booking may be placed.
	MaxBookingDays int
	// Clock returns the current instant. Defaults to time.Now.
	Clock func() time.Time
}

// BookingService drives bookings through their lifecycle.
type BookingService struct {
	store          domain.Store
	availability   *AvailabilityService
	locker         domain.Locker
	notifier       *Notifier
	events         domain.EventPublisher
	clock          func() time.Time
	maxBookingDays int
	logger         *zerolog.Logger
}

func NewBookingService(
	store domain.Store,
	availability *AvailabilityService,
	locker domain.Locker,
	notifier *Notifier,
	publisher domain.EventPublisher,
	opts BookingOptions,
	logger *zerolog.Logger,
) *BookingService {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.MaxBookingDays <= 0 {
		opts.MaxBookingDays = models.DefaultMaxBookingDays
	}
	return &BookingService{
		store:          store,
		availability:   availability,
		locker:         locker,
		notifier:       notifier,
		events:         publisher,
		clock:          opts.Clock,
		maxBookingDays: opts.MaxBookingDays,
		logger:         logger,
	}
}

// CreateBookingRequest is a public booking request from a client without an account.
type CreateBookingRequest struct {
	ProfileID int64
	ServiceID int64
	Date      time.Time
	StartTime string
	Client    models.ClientInfo
}

// CreateBooking re-validates the requested interval and stores it as PENDING.
// The professional is notified afterwards; a failed notification does not fail the booking.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*models.Booking, error) {
	booking, err := s.createBooking(ctx, req)
	if err != nil {
		if isDomainError(err) {
			metrics.IncRejection(domain.Kind(err).Error())
			s.logger.Info().
				Int64("profile_id", req.ProfileID).
				Int64("service_id", req.ServiceID).
				Str("date", schedule.FormatDate(req.Date)).
				Str("start_time", req.StartTime).
				Str("reason", err.Error()).
				Msg("Booking rejected")
		}
		return nil, err
	}

	metrics.IncTransition(string(booking.Status))
	s.logger.Info().
		Int64("booking_id", booking.ID).
		Int64("profile_id", booking.ProfileID).
		Str("date", booking.DateKey()).
		Str("start_time", booking.StartTime).
		Msg("Booking created")
	s.publishEvent(events.EventBookingCreated, booking)

	profile, svc := s.bookingContext(ctx, booking)
	msg := notify.NewBooking(messageData(booking, profile, svc))
	res := s.notifier.Notify(ctx, booking.ID, models.NotificationNewBooking, s.professionalPhone(ctx, profile), msg)
	if res.Success {
		if err := s.store.SetWhatsappNotified(context.WithoutCancel(ctx), booking.ID, true); err != nil {
			s.logger.Error().Err(err).Int64("booking_id", booking.ID).Msg("Failed to flag booking as notified")
		} else {
			booking.WhatsappNotified = true
		}
	}
	return booking, nil
}

func (s *BookingService) createBooking(ctx context.Context, req CreateBookingRequest) (*models.Booking, error) {
	client, err := normalizeClient(req.Client)
	if err != nil {
		return nil, err
	}

	svc, err := s.availability.bookableService(ctx, req.ProfileID, req.ServiceID)
	if err != nil {
		return nil, err
	}
	profile, err := s.store.GetProfile(ctx, req.ProfileID)
	if err != nil {
		return nil, err
	}

	date := schedule.DayOf(req.Date)
	if err := s.checkDateWindow(profile, date); err != nil {
		return nil, err
	}

	start, err := schedule.TimeToMinutes(req.StartTime)
	if err != nil {
		return nil, err
	}
	end := start + svc.DurationMinutes
	if end > models.MinutesPerDay {
		return nil, domain.ErrOutsideHours
	}
	candidate := schedule.Interval{Start: start, End: end}

	booking := &models.Booking{
		ProfileID:   req.ProfileID,
		ServiceID:   req.ServiceID,
		Date:        date,
		StartTime:   schedule.MinutesToTime(start),
		EndTime:     schedule.MinutesToTime(end),
		Status:      models.StatusPending,
		ClientName:  client.Name,
		ClientEmail: client.Email,
		ClientPhone: client.Phone,
		Notes:       client.Notes,
	}

	key := fmt.Sprintf("%d:%s", req.ProfileID, schedule.FormatDate(date))
	err = s.locker.WithLock(ctx, key, func(ctx context.Context) error {
		if err := s.availability.checkSlot(ctx, req.ProfileID, req.ServiceID, date, candidate); err != nil {
			return err
		}
		return s.store.CreateBooking(ctx, booking)
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

// checkDateWindow rejects days before today or beyond the booking horizon, both taken in the profile's timezone.
func (s *BookingService) checkDateWindow(profile *models.Profile, date time.Time) error {
	loc, err := time.LoadLocation(profile.Timezone)
	if err != nil {
		loc = time.UTC
	}
	today := schedule.DayOf(s.clock().In(loc))
	if date.Before(today) {
		return domain.ErrPastDate
	}
	if date.After(today.AddDate(0, 0, s.maxBookingDays)) {
		return domain.ErrDateTooFar
	}
	return nil
}

// ConfirmBooking moves a PENDING booking to CONFIRMED and notifies the client.
func (s *BookingService) ConfirmBooking(ctx context.Context, bookingID, actingUserID int64) (*models.Booking, error) {
	booking, profile, err := s.ownedBooking(ctx, bookingID, actingUserID)
	if err != nil {
		return nil, err
	}
	updated, err := s.transition(ctx, booking, actionConfirm, models.StatusChange{})
	if err != nil {
		return nil, err
	}
	s.publishEvent(events.EventBookingConfirmed, updated)

	svc := s.serviceFor(ctx, updated)
	msg := notify.Confirmation(messageData(updated, profile, svc))
	s.notifier.Notify(ctx, updated.ID, models.NotificationConfirmation, updated.ClientPhone, msg)
	return updated, nil
}

// CancelRequest describes who cancels a booking and why.
type CancelRequest struct {
	BookingID   int64
	CancelledBy models.CancelledBy
	Reason      string
	// ActingUserID identifies the professional when CancelledBy is professional.
	ActingUserID int64
	// ClientEmail must match the booking when CancelledBy is client.
	ClientEmail string
}

// CancelBooking cancels a PENDING or CONFIRMED booking and notifies both parties.
func (s *BookingService) CancelBooking(ctx context.Context, req CancelRequest) (*models.Booking, error) {
	if !req.CancelledBy.Valid() {
		return nil, domain.ErrInvalidActor
	}

	var (
		booking *models.Booking
		profile *models.Profile
		err     error
	)
	switch req.CancelledBy {
	case models.CancelledByProfessional:
		booking, profile, err = s.ownedBooking(ctx, req.BookingID, req.ActingUserID)
		if err != nil {
			return nil, err
		}
	case models.CancelledByClient:
		booking, err = s.store.GetBooking(ctx, req.BookingID)
		if err != nil {
			return nil, err
		}
		if !sameEmail(booking.ClientEmail, req.ClientEmail) {
			return nil, domain.ErrBookingNotFound
		}
		profile, err = s.store.GetProfile(ctx, booking.ProfileID)
		if err != nil {
			return nil, err
		}
	}

	now := s.clock().UTC()
	updated, err := s.transition(ctx, booking, actionCancel, models.StatusChange{
		CancelledAt:        &now,
		CancelledBy:        req.CancelledBy,
		CancellationReason: strings.TrimSpace(req.Reason),
	})
	if err != nil {
		return nil, err
	}
	s.publishEvent(events.EventBookingCancelled, updated)

	data := messageData(updated, profile, s.serviceFor(ctx, updated))
	s.notifier.Notify(ctx, updated.ID, models.NotificationCancellation, updated.ClientPhone, notify.Cancellation(data, false))
	s.notifier.Notify(ctx, updated.ID, models.NotificationCancellation, s.professionalPhone(ctx, profile), notify.Cancellation(data, true))
	return updated, nil
}

// CompleteBooking marks a CONFIRMED booking as attended.
func (s *BookingService) CompleteBooking(ctx context.Context, bookingID, actingUserID int64) (*models.Booking, error) {
	booking, _, err := s.ownedBooking(ctx, bookingID, actingUserID)
	if err != nil {
		return nil, err
	}
	updated, err := s.transition(ctx, booking, actionComplete, models.StatusChange{})
	if err != nil {
		return nil, err
	}
	s.publishEvent(events.EventBookingCompleted, updated)
	return updated, nil
}

// MarkNoShow records that the client of a CONFIRMED booking did not attend.
func (s *BookingService) MarkNoShow(ctx context.Context, bookingID, actingUserID int64) (*models.Booking, error) {
	booking, _, err := s.ownedBooking(ctx, bookingID, actingUserID)
	if err != nil {
		return nil, err
	}
	updated, err := s.transition(ctx, booking, actionNoShow, models.StatusChange{})
	if err != nil {
		return nil, err
	}
	s.publishEvent(events.EventBookingNoShow, updated)
	return updated, nil
}

// GetBooking returns a booking of a profile owned by actingUserID.
func (s *BookingService) GetBooking(ctx context.Context, bookingID, actingUserID int64) (*models.Booking, error) {
	booking, _, err := s.ownedBooking(ctx, bookingID, actingUserID)
	return booking, err
}

// ListBookings returns every booking of a profile between from and to, inclusive.
func (s *BookingService) ListBookings(ctx context.Context, actingUserID, profileID int64, from, to time.Time) ([]*models.Booking, error) {
	from, to = schedule.DayOf(from), schedule.DayOf(to)
	if to.Before(from) {
		return nil, domain.ErrInvalidRange
	}
	if _, err := ownedProfile(ctx, s.store, profileID, actingUserID); err != nil {
		return nil, err
	}
	return s.store.GetBookingsByDateRange(ctx, profileID, from, to)
}

// Notifications returns the delivery audit trail of a booking.
func (s *BookingService) Notifications(ctx context.Context, bookingID, actingUserID int64) ([]*models.Notification, error) {
	if _, _, err := s.ownedBooking(ctx, bookingID, actingUserID); err != nil {
		return nil, err
	}
	return s.store.ListNotifications(ctx, bookingID)
}

// transition applies act to booking with a compare-and-set on its version.
func (s *BookingService) transition(ctx context.Context, booking *models.Booking, act action, change models.StatusChange) (*models.Booking, error) {
	next, err := nextStatus(booking.Status, act)
	if err != nil {
		return nil, err
	}
	change.Status = next
	updated, err := s.store.UpdateBookingStatus(ctx, booking.ID, booking.Version, change)
	if err != nil {
		return nil, err
	}

	metrics.IncTransition(string(next))
	s.logger.Info().
		Int64("booking_id", updated.ID).
		Str("from", string(booking.Status)).
		Str("to", string(updated.Status)).
		Msg("Booking status changed")
	return updated, nil
}

// ownedBooking loads a booking whose profile belongs to actingUserID.
// A booking of someone else's profile is reported as not found.
func (s *BookingService) ownedBooking(ctx context.Context, bookingID, actingUserID int64) (*models.Booking, *models.Profile, error) {
	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	profile, err := s.store.GetProfile(ctx, booking.ProfileID)
	if err != nil {
		return nil, nil, err
	}
	if !profile.OwnedBy(actingUserID) {
		return nil, nil, domain.ErrBookingNotFound
	}
	return booking, profile, nil
}

// professionalPhone is the profile phone, falling back to the owner's account phone.
func (s *BookingService) professionalPhone(ctx context.Context, profile *models.Profile) string {
	if profile == nil {
		return ""
	}
	if profile.Phone != "" {
		return profile.Phone
	}
	user, err := s.store.GetUser(ctx, profile.UserID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("profile_id", profile.ID).Msg("Failed to load profile owner")
		return ""
	}
	return user.Phone
}

func (s *BookingService) bookingContext(ctx context.Context, booking *models.Booking) (*models.Profile, *models.Service) {
	profile, err := s.store.GetProfile(ctx, booking.ProfileID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("booking_id", booking.ID).Msg("Failed to load profile for notification")
	}
	return profile, s.serviceFor(ctx, booking)
}

func (s *BookingService) serviceFor(ctx context.Context, booking *models.Booking) *models.Service {
	svc, err := s.store.GetService(ctx, booking.ServiceID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("booking_id", booking.ID).Msg("Failed to load service for notification")
		return nil
	}
	return svc
}

func (s *BookingService) publishEvent(eventType string, booking *models.Booking) {
	if s.events == nil || booking == nil {
		return
	}
	payload := events.BookingEventPayload{
		BookingID:   booking.ID,
		ProfileID:   booking.ProfileID,
		ServiceID:   booking.ServiceID,
		Date:        booking.DateKey(),
		StartTime:   booking.StartTime,
		EndTime:     booking.EndTime,
		Status:      string(booking.Status),
		ClientName:  booking.ClientName,
		ClientEmail: booking.ClientEmail,
		ClientPhone: booking.ClientPhone,
		CancelledBy: string(booking.CancelledBy),
		Reason:      booking.CancellationReason,
		Version:     booking.Version,
		OccurredAt:  s.clock().UTC(),
	}
	if err := s.events.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Int64("booking_id", booking.ID).Msg("Failed to publish event")
	}
}

func messageData(b *models.Booking, profile *models.Profile, svc *models.Service) notify.MessageData {
	d := notify.MessageData{
		ClientName:  b.ClientName,
		ClientPhone: b.ClientPhone,
		Date:        b.Date,
		StartTime:   b.StartTime,
		EndTime:     b.EndTime,
		Notes:       b.Notes,
		CancelledBy: b.CancelledBy,
		Reason:      b.CancellationReason,
	}
	if profile != nil {
		d.ProfessionalName = profile.DisplayName
	}
	if svc != nil {
		d.ServiceName = svc.Name
	}
	return d
}

func normalizeClient(c models.ClientInfo) (models.ClientInfo, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Notes = strings.TrimSpace(c.Notes)
	if c.Name == "" || c.Email == "" || c.Phone == "" {
		return c, domain.ErrMissingClient
	}
	if _, err := mail.ParseAddress(c.Email); err != nil {
		return c, &domain.Error{Kind: domain.ErrValidation, Message: "Email invalido"}
	}
	return c, nil
}

func sameEmail(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b)) && strings.TrimSpace(b) != ""
}
