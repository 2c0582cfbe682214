package service

import (
	"context"
	"errors"
	"time"

	"agenda/internal/domain"
	"agenda/internal/metrics"
	"agenda/internal/models"
	"agenda/internal/schedule"

	"github.com/rs/zerolog"
)

type AvailabilityOptions struct {
	// SlotStep is the stride between candidate starts, in minutes.
	SlotStep int
	// HideBlocked subtracts schedule blocks from generated slots.
	HideBlocked bool
}

// AvailabilityService answers "when can this service be booked" and manages the
// recurring windows and one-off blocks that answer depends on.
type AvailabilityService struct {
	store  domain.Store
	opts   AvailabilityOptions
	logger *zerolog.Logger
}

func NewAvailabilityService(store domain.Store, opts AvailabilityOptions, logger *zerolog.Logger) *AvailabilityService {
	if opts.SlotStep <= 0 {
		opts.SlotStep = models.SlotStepMinutes
	}
	return &AvailabilityService{store: store, opts: opts, logger: logger}
}

// GetAvailableSlots lists free start times for a service on date, window by window.
func (s *AvailabilityService) GetAvailableSlots(ctx context.Context, profileID, serviceID int64, date time.Time) ([]string, error) {
	svc, err := s.bookableService(ctx, profileID, serviceID)
	if err != nil {
		return nil, err
	}

	date = schedule.DayOf(date)
	windows, err := s.store.GetActiveWindows(ctx, profileID, date.Weekday())
	if err != nil {
		return nil, err
	}
	open := schedule.ApplicableWindows(windows, serviceID)
	if len(open) == 0 {
		metrics.ObserveSlots(0)
		return []string{}, nil
	}

	bookings, err := s.store.GetBookings(ctx, profileID, date, models.ActiveStatuses)
	if err != nil {
		return nil, err
	}
	busy := schedule.BusyIntervals(bookings)

	if s.opts.HideBlocked {
		blocks, err := s.store.GetBlocksForDate(ctx, profileID, date)
		if err != nil {
			return nil, err
		}
		busy = append(busy, schedule.BlockedIntervals(blocks, date)...)
	}

	slots := schedule.GenerateSlots(open, svc.DurationMinutes, s.opts.SlotStep, busy)
	metrics.ObserveSlots(len(slots))
	return slots, nil
}

// bookableService resolves a service that exists, is active and belongs to profileID.
func (s *AvailabilityService) bookableService(ctx context.Context, profileID, serviceID int64) (*models.Service, error) {
	svc, err := s.store.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	if !svc.IsActive || svc.ProfileID != profileID {
		return nil, domain.ErrServiceNotFound
	}
	return svc, nil
}

// checkSlot re-validates a candidate interval against windows, blocks and active bookings.
// The first failing reason is returned.
func (s *AvailabilityService) checkSlot(ctx context.Context, profileID, serviceID int64, date time.Time, candidate schedule.Interval) error {
	windows, err := s.store.GetActiveWindows(ctx, profileID, date.Weekday())
	if err != nil {
		return err
	}
	open := schedule.ApplicableWindows(windows, serviceID)
	if len(open) == 0 {
		return domain.ErrClosedDay
	}

	inside := false
	for _, w := range open {
		if w.Contains(candidate) {
			inside = true
			break
		}
	}
	if !inside {
		return domain.ErrOutsideHours
	}

	blocks, err := s.store.GetBlocksForDate(ctx, profileID, date)
	if err != nil {
		return err
	}
	if schedule.FirstConflict(candidate, schedule.BlockedIntervals(blocks, date)) >= 0 {
		return domain.ErrDateBlocked
	}

	bookings, err := s.store.GetBookings(ctx, profileID, date, models.ActiveStatuses)
	if err != nil {
		return err
	}
	if schedule.FirstConflict(candidate, schedule.BusyIntervals(bookings)) >= 0 {
		return domain.ErrSlotTaken
	}
	return nil
}

// CreateWindow adds a recurring window to a profile owned by actingUserID.
func (s *AvailabilityService) CreateWindow(ctx context.Context, actingUserID int64, w *models.AvailabilityWindow) error {
	if _, err := ownedProfile(ctx, s.store, w.ProfileID, actingUserID); err != nil {
		return err
	}
	w.ID = 0
	if err := s.validateWindow(ctx, w); err != nil {
		return err
	}
	if err := s.store.CreateWindow(ctx, w); err != nil {
		return err
	}
	s.logger.Info().
		Int64("profile_id", w.ProfileID).
		Int64("window_id", w.ID).
		Str("day", w.DayOfWeek.String()).
		Str("range", w.StartTime+"-"+w.EndTime).
		Msg("Availability window created")
	return nil
}

// UpdateWindow replaces a window's day, range, scope and active flag.
// The window is checked against its siblings without its own previous value.
func (s *AvailabilityService) UpdateWindow(ctx context.Context, actingUserID int64, w *models.AvailabilityWindow) error {
	current, err := s.store.GetWindow(ctx, w.ID)
	if err != nil {
		return err
	}
	if _, err := ownedProfile(ctx, s.store, current.ProfileID, actingUserID); err != nil {
		return err
	}
	w.ProfileID = current.ProfileID
	w.CreatedAt = current.CreatedAt
	if err := s.validateWindow(ctx, w); err != nil {
		return err
	}
	return s.store.UpdateWindow(ctx, w)
}

func (s *AvailabilityService) validateWindow(ctx context.Context, w *models.AvailabilityWindow) error {
	if w.DayOfWeek < time.Sunday || w.DayOfWeek > time.Saturday {
		return domain.ErrInvalidDay
	}
	candidate, err := schedule.NewInterval(w.StartTime, w.EndTime)
	if err != nil {
		return err
	}
	if w.ServiceID != nil {
		svc, err := s.store.GetService(ctx, *w.ServiceID)
		if err != nil {
			return err
		}
		if svc.ProfileID != w.ProfileID {
			return domain.ErrServiceNotFound
		}
	}
	if !w.IsActive {
		return nil
	}

	existing, err := s.store.GetActiveWindows(ctx, w.ProfileID, w.DayOfWeek)
	if err != nil {
		return err
	}
	return schedule.CheckSiblings(candidate, schedule.SiblingIntervals(w, existing))
}

// CreateBlock adds a dated exception to a profile owned by actingUserID.
func (s *AvailabilityService) CreateBlock(ctx context.Context, actingUserID int64, b *models.ScheduleBlock) error {
	if _, err := ownedProfile(ctx, s.store, b.ProfileID, actingUserID); err != nil {
		return err
	}
	b.StartDate = schedule.DayOf(b.StartDate)
	b.EndDate = schedule.DayOf(b.EndDate)
	if err := schedule.ValidateBlock(b); err != nil {
		return err
	}
	if err := s.store.CreateBlock(ctx, b); err != nil {
		return err
	}
	s.logger.Info().
		Int64("profile_id", b.ProfileID).
		Int64("block_id", b.ID).
		Str("from", schedule.FormatDate(b.StartDate)).
		Str("to", schedule.FormatDate(b.EndDate)).
		Msg("Schedule block created")
	return nil
}

func (s *AvailabilityService) DeleteBlock(ctx context.Context, actingUserID, blockID int64) error {
	b, err := s.store.GetBlock(ctx, blockID)
	if err != nil {
		return err
	}
	if _, err := ownedProfile(ctx, s.store, b.ProfileID, actingUserID); err != nil {
		return err
	}
	return s.store.DeleteBlock(ctx, blockID)
}

func (s *AvailabilityService) ListBlocks(ctx context.Context, actingUserID, profileID int64, from, to time.Time) ([]*models.ScheduleBlock, error) {
	if to.Before(from) {
		return nil, domain.ErrInvalidRange
	}
	if _, err := ownedProfile(ctx, s.store, profileID, actingUserID); err != nil {
		return nil, err
	}
	return s.store.ListBlocks(ctx, profileID, from, to)
}

// isDomainError reports whether err carries one of the engine's error kinds.
func isDomainError(err error) bool {
	var derr *domain.Error
	return errors.As(err, &derr)
}
