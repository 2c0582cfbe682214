package database

import (
	"context"
	"sync"
	"testing"
	"time"

	"agenda/internal/domain"
	"agenda/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBooking(f fixture, date time.Time, start, end string) *models.Booking {
	return &models.Booking{
		ProfileID:   f.profile.ID,
		ServiceID:   f.service.ID,
		Date:        date,
		StartTime:   start,
		EndTime:     end,
		ClientName:  "Juan Perez",
		ClientEmail: "juan@example.com",
		ClientPhone: "+5491122223333",
	}
}

func TestCreateBooking(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	f := seed(t, db)
	monday := day(2025, 3, 3)

	b := newBooking(f, monday, "10:00", "10:30")
	require.NoError(t, db.CreateBooking(ctx, b))
	assert.NotZero(t, b.ID)
	assert.Equal(t, models.StatusPending, b.Status)
	assert.Equal(t, int64(1), b.Version)

	got, err := db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-03", got.DateKey())
	assert.Equal(t, "10:00", got.StartTime)
	assert.Equal(t, "10:30", got.EndTime)
	assert.Equal(t, models.StatusPending, got.Status)
	assert.False(t, got.WhatsappNotified)
	assert.Nil(t, got.CancelledAt)

	tests := []struct {
		name       string
		start, end string
		wantErr    error
	}{
		{name: "same start", start: "10:00", end: "10:30", wantErr: domain.ErrSlotTaken},
		{name: "partial overlap", start: "10:15", end: "10:45", wantErr: domain.ErrSlotTaken},
		{name: "covering", start: "09:45", end: "10:45", wantErr: domain.ErrSlotTaken},
		{name: "touching before", start: "09:30", end: "10:00"},
		{name: "touching after", start: "10:30", end: "11:00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := db.CreateBooking(ctx, newBooking(f, monday, tt.start, tt.end))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, domain.ErrConflict)
				return
			}
			assert.NoError(t, err)
		})
	}

	t.Run("OtherDay", func(t *testing.T) {
		assert.NoError(t, db.CreateBooking(ctx, newBooking(f, monday.AddDate(0, 0, 7), "10:00", "10:30")))
	})
}

func TestCreateBooking_CancelledFreesSlot(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	f := seed(t, db)
	monday := day(2025, 3, 3)

	b := newBooking(f, monday, "10:00", "10:30")
	require.NoError(t, db.CreateBooking(ctx, b))

	now := time.Now()
	_, err := db.UpdateBookingStatus(ctx, b.ID, b.Version, models.StatusChange{
		Status:             models.StatusCancelled,
		CancelledAt:        &now,
		CancelledBy:        models.CancelledByClient,
		CancellationReason: "No puedo",
	})
	require.NoError(t, err)

	again := newBooking(f, monday, "10:00", "10:30")
	require.NoError(t, db.CreateBooking(ctx, again))

	all, err := db.GetBookings(ctx, f.profile.ID, monday, nil)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := db.GetBookings(ctx, f.profile.ID, monday, models.ActiveStatuses)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, again.ID, active[0].ID)
}

func TestCreateBooking_Concurrent(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	f := seed(t, db)
	monday := day(2025, 3, 3)

	const numGoroutines = 10
	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	results := make(chan error, numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			results <- db.CreateBooking(ctx, newBooking(f, monday, "10:00", "10:30"))
		}()
	}
	wg.Wait()
	close(results)

	success := 0
	for err := range results {
		if err == nil {
			success++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrSlotTaken)
	}
	assert.Equal(t, 1, success, "only one booking may take the slot")

	active, err := db.GetBookings(ctx, f.profile.ID, monday, models.ActiveStatuses)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}

func TestUpdateBookingStatus(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	f := seed(t, db)

	b := newBooking(f, day(2025, 3, 3), "10:00", "10:30")
	require.NoError(t, db.CreateBooking(ctx, b))

	updated, err := db.UpdateBookingStatus(ctx, b.ID, 1, models.StatusChange{Status: models.StatusConfirmed})
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, updated.Status)
	assert.Equal(t, int64(2), updated.Version)

	t.Run("StaleVersion", func(t *testing.T) {
		_, err := db.UpdateBookingStatus(ctx, b.ID, 1, models.StatusChange{Status: models.StatusCompleted})
		assert.ErrorIs(t, err, domain.ErrConcurrentModified)

		got, err := db.GetBooking(ctx, b.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusConfirmed, got.Status)
	})

	t.Run("Cancellation", func(t *testing.T) {
		at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		got, err := db.UpdateBookingStatus(ctx, b.ID, 2, models.StatusChange{
			Status:             models.StatusCancelled,
			CancelledAt:        &at,
			CancelledBy:        models.CancelledByProfessional,
			CancellationReason: "Enfermedad",
		})
		require.NoError(t, err)
		assert.Equal(t, models.StatusCancelled, got.Status)
		require.NotNil(t, got.CancelledAt)
		assert.True(t, at.Equal(*got.CancelledAt))
		assert.Equal(t, models.CancelledByProfessional, got.CancelledBy)
		assert.Equal(t, "Enfermedad", got.CancellationReason)
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := db.UpdateBookingStatus(ctx, 999, 1, models.StatusChange{Status: models.StatusConfirmed})
		assert.ErrorIs(t, err, domain.ErrBookingNotFound)
	})
}

func TestBookingQueries(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	f := seed(t, db)

	tuesday := day(2025, 3, 4)
	first := newBooking(f, tuesday, "11:00", "11:30")
	second := newBooking(f, tuesday, "09:00", "09:30")
	later := newBooking(f, day(2025, 3, 10), "09:00", "09:30")
	for _, b := range []*models.Booking{first, second, later} {
		require.NoError(t, db.CreateBooking(ctx, b))
	}
	_, err := db.UpdateBookingStatus(ctx, first.ID, first.Version, models.StatusChange{Status: models.StatusConfirmed})
	require.NoError(t, err)

	t.Run("ByDateRange", func(t *testing.T) {
		got, err := db.GetBookingsByDateRange(ctx, f.profile.ID, day(2025, 3, 1), day(2025, 3, 4))
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, second.ID, got[0].ID, "ordered by start time")
	})

	t.Run("ForDateByStatus", func(t *testing.T) {
		got, err := db.GetBookingsForDate(ctx, tuesday, models.StatusConfirmed)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, first.ID, got[0].ID)
	})

	t.Run("WhatsappFlag", func(t *testing.T) {
		require.NoError(t, db.SetWhatsappNotified(ctx, second.ID, true))
		got, err := db.GetBooking(ctx, second.ID)
		require.NoError(t, err)
		assert.True(t, got.WhatsappNotified)
		assert.ErrorIs(t, db.SetWhatsappNotified(ctx, 999, true), domain.ErrBookingNotFound)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := db.GetBooking(ctx, 999)
		assert.ErrorIs(t, err, domain.ErrBookingNotFound)
	})
}
