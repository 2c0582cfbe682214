package database

import (
	"context"
	"testing"

	"agenda/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifications(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	f := seed(t, db)

	b := newBooking(f, day(2025, 3, 3), "10:00", "10:30")
	require.NoError(t, db.CreateBooking(ctx, b))

	failed := &models.Notification{
		BookingID: b.ID,
		Type:      models.NotificationReminder24h,
		Recipient: b.ClientPhone,
		Message:   "Recordatorio",
		Status:    models.NotificationFailed,
		Error:     "timeout",
	}
	require.NoError(t, db.CreateNotification(ctx, failed))
	assert.NotZero(t, failed.ID)

	sent, err := db.HasSentNotification(ctx, b.ID, models.NotificationReminder24h)
	require.NoError(t, err)
	assert.False(t, sent, "a failed attempt does not count as sent")

	require.NoError(t, db.CreateNotification(ctx, &models.Notification{
		BookingID: b.ID,
		Type:      models.NotificationReminder24h,
		Recipient: b.ClientPhone,
		Message:   "Recordatorio",
		Status:    models.NotificationSent,
		MessageID: "wamid.1",
	}))

	sent, err = db.HasSentNotification(ctx, b.ID, models.NotificationReminder24h)
	require.NoError(t, err)
	assert.True(t, sent)

	list, err := db.ListNotifications(ctx, b.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, models.NotificationFailed, list[0].Status)
	assert.Equal(t, "timeout", list[0].Error)
	assert.Equal(t, "wamid.1", list[1].MessageID)
}
