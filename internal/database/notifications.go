package database

import (
	"context"
	"fmt"
	"time"

	"agenda/internal/models"
)

// CreateNotification appends one delivery attempt to the audit trail.
func (db *DB) CreateNotification(ctx context.Context, n *models.Notification) error {
	now := time.Now()
	result, err := db.ExecContext(ctx, `INSERT INTO notifications (
				booking_id, type, recipient, message, status, message_id, error, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.BookingID, string(n.Type), n.Recipient, n.Message, string(n.Status), n.MessageID, n.Error, now)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	n.ID = id
	n.CreatedAt = now
	return nil
}

func (db *DB) ListNotifications(ctx context.Context, bookingID int64) ([]*models.Notification, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, booking_id, type, recipient, message, status, message_id, error, created_at
              FROM notifications WHERE booking_id = ? ORDER BY id ASC`, bookingID)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var out []*models.Notification
	for rows.Next() {
		n := &models.Notification{}
		if err := rows.Scan(&n.ID, &n.BookingID, &n.Type, &n.Recipient, &n.Message,
			&n.Status, &n.MessageID, &n.Error, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (db *DB) HasSentNotification(ctx context.Context, bookingID int64, typ models.NotificationType) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notifications
              WHERE booking_id = ? AND type = ? AND status = ?`,
		bookingID, string(typ), string(models.NotificationSent)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check notification: %w", err)
	}
	return count > 0, nil
}
