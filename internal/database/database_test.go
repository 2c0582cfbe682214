package database

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"agenda/internal/domain"
	"agenda/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

type fixture struct {
	user    *models.User
	profile *models.Profile
	service *models.Service
}

func seed(t *testing.T, db *DB) fixture {
	t.Helper()
	ctx := context.Background()

	user := &models.User{Name: "Lucia Gomez", Email: "lucia@example.com", Phone: "+5491100000000"}
	require.NoError(t, db.CreateUser(ctx, user))

	profile := &models.Profile{UserID: user.ID, Slug: "lucia", DisplayName: "Lucia Psicologa"}
	require.NoError(t, db.CreateProfile(ctx, profile))

	service := &models.Service{ProfileID: profile.ID, Name: "Sesion", DurationMinutes: 30, PriceCents: 1500000, IsActive: true}
	require.NoError(t, db.CreateService(ctx, service))

	return fixture{user: user, profile: profile, service: service}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNewDB_DirectoryCreation(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "agenda.db")
	logger := zerolog.Nop()

	db, err := NewDB(dbPath, &logger)
	require.NoError(t, err)
	defer db.Close()

	assert.FileExists(t, dbPath)
	assert.NoError(t, db.PingContext(context.Background()))
}

func TestNewDB_SchemaIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	assert.NoError(t, db.createTables())
}

func TestCatalog(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	f := seed(t, db)

	t.Run("GetUser", func(t *testing.T) {
		u, err := db.GetUser(ctx, f.user.ID)
		require.NoError(t, err)
		assert.Equal(t, "lucia@example.com", u.Email)
	})

	t.Run("ProfileDefaultsTimezone", func(t *testing.T) {
		p, err := db.GetProfile(ctx, f.profile.ID)
		require.NoError(t, err)
		assert.Equal(t, models.DefaultTimezone, p.Timezone)
		assert.Equal(t, f.user.ID, p.UserID)
	})

	t.Run("DuplicateSlug", func(t *testing.T) {
		err := db.CreateProfile(ctx, &models.Profile{UserID: f.user.ID, Slug: "lucia", DisplayName: "Otra"})
		assert.ErrorIs(t, err, domain.ErrSlugTaken)
	})

	t.Run("UpdateService", func(t *testing.T) {
		svc := *f.service
		svc.DurationMinutes = 60
		svc.IsActive = false
		require.NoError(t, db.UpdateService(ctx, &svc))

		got, err := db.GetService(ctx, svc.ID)
		require.NoError(t, err)
		assert.Equal(t, 60, got.DurationMinutes)
		assert.False(t, got.IsActive)
	})

	t.Run("NotFound", func(t *testing.T) {
		_, err := db.GetProfile(ctx, 999)
		assert.ErrorIs(t, err, domain.ErrProfileNotFound)
		_, err = db.GetService(ctx, 999)
		assert.ErrorIs(t, err, domain.ErrServiceNotFound)
		_, err = db.GetUser(ctx, 999)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		err = db.UpdateService(ctx, &models.Service{ID: 999})
		assert.ErrorIs(t, err, domain.ErrServiceNotFound)
	})
}

func TestDB_ErrorPaths(t *testing.T) {
	logger := zerolog.New(io.Discard)
	db, err := NewDB(":memory:", &logger)
	require.NoError(t, err)
	db.Close()

	ctx := context.Background()

	_, err = db.GetBookings(ctx, 1, day(2025, 3, 3), nil)
	assert.Error(t, err)
	assert.Error(t, db.CreateBooking(ctx, &models.Booking{}))
	_, err = db.GetActiveWindows(ctx, 1, time.Monday)
	assert.Error(t, err)
	assert.Error(t, db.CreateNotification(ctx, &models.Notification{}))
	_, err = db.HasSentNotification(ctx, 1, models.NotificationReminder24h)
	assert.Error(t, err)
}
