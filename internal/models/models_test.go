package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBookingStatus(t *testing.T) {
	t.Run("Active", func(t *testing.T) {
		assert.True(t, StatusPending.Active())
		assert.True(t, StatusConfirmed.Active())
		assert.False(t, StatusCancelled.Active())
		assert.False(t, StatusCompleted.Active())
		assert.False(t, StatusNoShow.Active())
	})

	t.Run("Terminal", func(t *testing.T) {
		assert.False(t, StatusPending.Terminal())
		assert.False(t, StatusConfirmed.Terminal())
		assert.True(t, StatusCancelled.Terminal())
		assert.True(t, StatusCompleted.Terminal())
		assert.True(t, StatusNoShow.Terminal())
	})

	t.Run("Valid", func(t *testing.T) {
		assert.True(t, StatusNoShow.Valid())
		assert.False(t, BookingStatus("pending").Valid())
		assert.False(t, BookingStatus("").Valid())
	})
}

func TestAvailabilityWindow_SameScope(t *testing.T) {
	svc1, svc2 := int64(1), int64(2)
	profileWide := &AvailabilityWindow{ProfileID: 10}
	otherProfile := &AvailabilityWindow{ProfileID: 11}
	forSvc1 := &AvailabilityWindow{ProfileID: 10, ServiceID: &svc1}
	forSvc1Again := &AvailabilityWindow{ProfileID: 10, ServiceID: &svc1}
	forSvc2 := &AvailabilityWindow{ProfileID: 10, ServiceID: &svc2}

	assert.True(t, profileWide.SameScope(&AvailabilityWindow{ProfileID: 10}))
	assert.False(t, profileWide.SameScope(otherProfile))
	assert.False(t, profileWide.SameScope(forSvc1))
	assert.False(t, forSvc1.SameScope(profileWide))
	assert.True(t, forSvc1.SameScope(forSvc1Again))
	assert.False(t, forSvc1.SameScope(forSvc2))
}

func TestScheduleBlock_CoversDate(t *testing.T) {
	block := &ScheduleBlock{
		StartDate: time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 7, 12, 0, 0, 0, 0, time.UTC),
		AllDay:    true,
	}

	assert.False(t, block.CoversDate(time.Date(2025, 7, 9, 0, 0, 0, 0, time.UTC)))
	assert.True(t, block.CoversDate(time.Date(2025, 7, 10, 0, 0, 0, 0, time.UTC)))
	assert.True(t, block.CoversDate(time.Date(2025, 7, 12, 23, 0, 0, 0, time.UTC)))
	assert.False(t, block.CoversDate(time.Date(2025, 7, 13, 0, 0, 0, 0, time.UTC)))
}

func TestProfile_OwnedBy(t *testing.T) {
	p := &Profile{ID: 1, UserID: 42}
	assert.True(t, p.OwnedBy(42))
	assert.False(t, p.OwnedBy(7))
	assert.False(t, p.OwnedBy(0))

	var nilProfile *Profile
	assert.False(t, nilProfile.OwnedBy(42))
}

func TestIsAllowedDuration(t *testing.T) {
	for _, d := range AllowedDurations {
		assert.True(t, IsAllowedDuration(d), "duration %d", d)
	}
	assert.False(t, IsAllowedDuration(0))
	assert.False(t, IsAllowedDuration(20))
	assert.False(t, IsAllowedDuration(180))
}

func TestBookingJSONDate(t *testing.T) {
	b := Booking{ID: 3, Date: time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC), StartTime: "10:00", Status: StatusPending}

	raw, err := json.Marshal(b)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.Equal(t, "2025-03-03", fields["date"])
	assert.Equal(t, "10:00", fields["start_time"])
	assert.Equal(t, float64(3), fields["id"])

	var back Booking
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.True(t, b.Date.Equal(back.Date))
	assert.Equal(t, StatusPending, back.Status)

	assert.Error(t, json.Unmarshal([]byte(`{"date":"03/03/2025"}`), &back))
}

func TestScheduleBlockJSONDates(t *testing.T) {
	b := &ScheduleBlock{
		StartDate: time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, time.March, 7, 0, 0, 0, 0, time.UTC),
		AllDay:    true,
	}
	raw, err := json.Marshal(b)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"start_date":"2025-03-03"`)
	assert.Contains(t, string(raw), `"end_date":"2025-03-07"`)

	var back ScheduleBlock
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.True(t, back.EndDate.Equal(b.EndDate))
	assert.True(t, back.AllDay)
}
