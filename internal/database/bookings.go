package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"agenda/internal/domain"
	"agenda/internal/models"
)

const bookingColumns = `id, profile_id, service_id, date, start_time, end_time, status,
	client_name, client_email, client_phone, notes, whatsapp_notified,
	cancelled_at, cancelled_by, cancellation_reason, created_at, updated_at, version`

func scanBooking(row rowScanner) (*models.Booking, error) {
	var b models.Booking
	var dateStr string
	var cancelledAt sql.NullTime
	err := row.Scan(
		&b.ID, &b.ProfileID, &b.ServiceID, &dateStr, &b.StartTime, &b.EndTime, &b.Status,
		&b.ClientName, &b.ClientEmail, &b.ClientPhone, &b.Notes, &b.WhatsappNotified,
		&cancelledAt, &b.CancelledBy, &b.CancellationReason, &b.CreatedAt, &b.UpdatedAt, &b.Version,
	)
	if err != nil {
		return nil, err
	}
	b.Date, err = time.Parse(models.DateLayout, dateStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse booking date %s: %w", dateStr, err)
	}
	if cancelledAt.Valid {
		t := cancelledAt.Time
		b.CancelledAt = &t
	}
	return &b, nil
}

func (db *DB) queryBookings(ctx context.Context, query string, args ...interface{}) ([]*models.Booking, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// GetBookings returns a profile's bookings on date, filtered by statuses when any are given.
func (db *DB) GetBookings(ctx context.Context, profileID int64, date time.Time, statuses []models.BookingStatus) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE profile_id = ? AND date = ?`
	args := []interface{}{profileID, date.Format(models.DateLayout)}
	if len(statuses) > 0 {
		query += ` AND status IN (` + placeholders(len(statuses)) + `)`
		for _, s := range statuses {
			args = append(args, string(s))
		}
	}
	query += ` ORDER BY start_time ASC`
	return db.queryBookings(ctx, query, args...)
}

func (db *DB) GetBookingsByDateRange(ctx context.Context, profileID int64, from, to time.Time) ([]*models.Booking, error) {
	return db.queryBookings(ctx, `SELECT `+bookingColumns+` FROM bookings
              WHERE profile_id = ? AND date >= ? AND date <= ?
              ORDER BY date ASC, start_time ASC`,
		profileID, from.Format(models.DateLayout), to.Format(models.DateLayout))
}

// GetBookingsForDate returns bookings of every profile on date with the given status.
func (db *DB) GetBookingsForDate(ctx context.Context, date time.Time, status models.BookingStatus) ([]*models.Booking, error) {
	return db.queryBookings(ctx, `SELECT `+bookingColumns+` FROM bookings
              WHERE date = ? AND status = ?
              ORDER BY profile_id ASC, start_time ASC`,
		date.Format(models.DateLayout), string(status))
}

func (db *DB) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	b, err := scanBooking(db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, domain.ErrBookingNotFound)
	}
	return b, nil
}

// CreateBooking re-checks for overlapping active bookings and inserts inside one
// immediate transaction. Any overlap, or a unique index hit, fails with ErrSlotTaken.
func (db *DB) CreateBooking(ctx context.Context, booking *models.Booking) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	date := booking.Date.Format(models.DateLayout)

	// HH:MM с ведущими нулями сравнивается лексикографически так же, как по минутам
	var conflictID int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM bookings
              WHERE profile_id = ? AND date = ? AND status IN (?, ?)
              AND start_time < ? AND end_time > ?
              LIMIT 1`,
		booking.ProfileID, date, string(models.StatusPending), string(models.StatusConfirmed),
		booking.EndTime, booking.StartTime,
	).Scan(&conflictID)
	switch {
	case err == nil:
		db.logger.Debug().
			Int64("profile_id", booking.ProfileID).
			Int64("conflict_id", conflictID).
			Str("date", date).
			Str("start", booking.StartTime).
			Msg("Booking overlaps an active booking")
		return domain.ErrSlotTaken
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("failed to check overlap in tx: %w", err)
	}

	if booking.Status == "" {
		booking.Status = models.StatusPending
	}
	now := time.Now()
	result, err := tx.ExecContext(ctx, `INSERT INTO bookings (
				profile_id, service_id, date, start_time, end_time, status,
				client_name, client_email, client_phone, notes, whatsapp_notified,
				created_at, updated_at, version
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, 1)`,
		booking.ProfileID, booking.ServiceID, date, booking.StartTime, booking.EndTime, string(booking.Status),
		booking.ClientName, booking.ClientEmail, booking.ClientPhone, booking.Notes,
		now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSlotTaken
		}
		return fmt.Errorf("failed to insert booking in tx: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id in tx: %w", err)
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSlotTaken
		}
		return fmt.Errorf("failed to commit booking: %w", err)
	}

	booking.ID = id
	booking.WhatsappNotified = false
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Version = 1
	return nil
}

// UpdateBookingStatus applies change only if the row still has the given version.
// A lost race fails with ErrConcurrentModified.
func (db *DB) UpdateBookingStatus(ctx context.Context, id, version int64, change models.StatusChange) (*models.Booking, error) {
	var cancelledAt interface{}
	if change.CancelledAt != nil {
		cancelledAt = *change.CancelledAt
	}
	result, err := db.ExecContext(ctx, `UPDATE bookings
              SET status = ?, cancelled_at = ?, cancelled_by = ?, cancellation_reason = ?,
                  version = version + 1, updated_at = ?
              WHERE id = ? AND version = ?`,
		string(change.Status), cancelledAt, string(change.CancelledBy), change.CancellationReason,
		time.Now(), id, version)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrSlotTaken
		}
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		if _, err := db.GetBooking(ctx, id); err != nil {
			return nil, err
		}
		return nil, domain.ErrConcurrentModified
	}
	return db.GetBooking(ctx, id)
}

func (db *DB) SetWhatsappNotified(ctx context.Context, id int64, notified bool) error {
	result, err := db.ExecContext(ctx, `UPDATE bookings SET whatsapp_notified = ? WHERE id = ?`, notified, id)
	if err != nil {
		return fmt.Errorf("failed to update whatsapp flag: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.ErrBookingNotFound
	}
	return nil
}
