package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"agenda/internal/domain"
	"agenda/internal/models"
)

const windowColumns = `id, profile_id, service_id, day_of_week, start_time, end_time, is_active, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanWindow(row rowScanner) (*models.AvailabilityWindow, error) {
	var w models.AvailabilityWindow
	var serviceID sql.NullInt64
	var day int
	if err := row.Scan(&w.ID, &w.ProfileID, &serviceID, &day, &w.StartTime, &w.EndTime,
		&w.IsActive, &w.CreatedAt, &w.UpdatedAt); err != nil {
		return nil, err
	}
	if serviceID.Valid {
		id := serviceID.Int64
		w.ServiceID = &id
	}
	w.DayOfWeek = time.Weekday(day)
	return &w, nil
}

// GetActiveWindows returns active windows of every scope for one weekday, ordered by start time.
func (db *DB) GetActiveWindows(ctx context.Context, profileID int64, day time.Weekday) ([]*models.AvailabilityWindow, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+windowColumns+`
              FROM availability_windows
              WHERE profile_id = ? AND day_of_week = ? AND is_active = 1
              ORDER BY start_time ASC, id ASC`, profileID, int(day))
	if err != nil {
		return nil, fmt.Errorf("failed to get windows: %w", err)
	}
	defer rows.Close()

	var windows []*models.AvailabilityWindow
	for rows.Next() {
		w, err := scanWindow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan window: %w", err)
		}
		windows = append(windows, w)
	}
	return windows, rows.Err()
}

func (db *DB) GetWindow(ctx context.Context, id int64) (*models.AvailabilityWindow, error) {
	w, err := scanWindow(db.QueryRowContext(ctx, `SELECT `+windowColumns+` FROM availability_windows WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, domain.ErrWindowNotFound)
	}
	return w, nil
}

func (db *DB) CreateWindow(ctx context.Context, w *models.AvailabilityWindow) error {
	now := time.Now()
	result, err := db.ExecContext(ctx, `INSERT INTO availability_windows (
				profile_id, service_id, day_of_week, start_time, end_time, is_active, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		w.ProfileID, nullableID(w.ServiceID), int(w.DayOfWeek), w.StartTime, w.EndTime, w.IsActive, now, now)
	if err != nil {
		return fmt.Errorf("failed to create window: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	w.ID = id
	w.CreatedAt = now
	w.UpdatedAt = now
	return nil
}

func (db *DB) UpdateWindow(ctx context.Context, w *models.AvailabilityWindow) error {
	now := time.Now()
	result, err := db.ExecContext(ctx, `UPDATE availability_windows
              SET service_id = ?, day_of_week = ?, start_time = ?, end_time = ?, is_active = ?, updated_at = ?
              WHERE id = ?`,
		nullableID(w.ServiceID), int(w.DayOfWeek), w.StartTime, w.EndTime, w.IsActive, now, w.ID)
	if err != nil {
		return fmt.Errorf("failed to update window: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.ErrWindowNotFound
	}
	w.UpdatedAt = now
	return nil
}

func nullableID(id *int64) interface{} {
	if id == nil {
		return nil
	}
	return *id
}

const blockColumns = `id, profile_id, start_date, end_date, all_day, start_time, end_time, reason, created_at`

func scanBlock(row rowScanner) (*models.ScheduleBlock, error) {
	var b models.ScheduleBlock
	var startDate, endDate string
	if err := row.Scan(&b.ID, &b.ProfileID, &startDate, &endDate, &b.AllDay,
		&b.StartTime, &b.EndTime, &b.Reason, &b.CreatedAt); err != nil {
		return nil, err
	}
	var err error
	if b.StartDate, err = time.Parse(models.DateLayout, startDate); err != nil {
		return nil, fmt.Errorf("failed to parse block start date %s: %w", startDate, err)
	}
	if b.EndDate, err = time.Parse(models.DateLayout, endDate); err != nil {
		return nil, fmt.Errorf("failed to parse block end date %s: %w", endDate, err)
	}
	return &b, nil
}

func (db *DB) queryBlocks(ctx context.Context, query string, args ...interface{}) ([]*models.ScheduleBlock, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to get blocks: %w", err)
	}
	defer rows.Close()

	var blocks []*models.ScheduleBlock
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan block: %w", err)
		}
		blocks = append(blocks, b)
	}
	return blocks, rows.Err()
}

// GetBlocksForDate returns the blocks whose inclusive date range contains date.
func (db *DB) GetBlocksForDate(ctx context.Context, profileID int64, date time.Time) ([]*models.ScheduleBlock, error) {
	d := date.Format(models.DateLayout)
	return db.queryBlocks(ctx, `SELECT `+blockColumns+` FROM schedule_blocks
              WHERE profile_id = ? AND start_date <= ? AND end_date >= ?
              ORDER BY start_date ASC, id ASC`, profileID, d, d)
}

// ListBlocks returns the blocks intersecting [from, to].
func (db *DB) ListBlocks(ctx context.Context, profileID int64, from, to time.Time) ([]*models.ScheduleBlock, error) {
	return db.queryBlocks(ctx, `SELECT `+blockColumns+` FROM schedule_blocks
              WHERE profile_id = ? AND start_date <= ? AND end_date >= ?
              ORDER BY start_date ASC, id ASC`,
		profileID, to.Format(models.DateLayout), from.Format(models.DateLayout))
}

func (db *DB) GetBlock(ctx context.Context, id int64) (*models.ScheduleBlock, error) {
	b, err := scanBlock(db.QueryRowContext(ctx, `SELECT `+blockColumns+` FROM schedule_blocks WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, domain.ErrBlockNotFound)
	}
	return b, nil
}

func (db *DB) CreateBlock(ctx context.Context, b *models.ScheduleBlock) error {
	now := time.Now()
	startTime, endTime := b.StartTime, b.EndTime
	if b.AllDay {
		startTime, endTime = "", ""
	}
	result, err := db.ExecContext(ctx, `INSERT INTO schedule_blocks (
				profile_id, start_date, end_date, all_day, start_time, end_time, reason, created_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ProfileID, b.StartDate.Format(models.DateLayout), b.EndDate.Format(models.DateLayout),
		b.AllDay, startTime, endTime, b.Reason, now)
	if err != nil {
		return fmt.Errorf("failed to create block: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	b.ID = id
	b.StartTime, b.EndTime = startTime, endTime
	b.CreatedAt = now
	return nil
}

func (db *DB) DeleteBlock(ctx context.Context, id int64) error {
	result, err := db.ExecContext(ctx, `DELETE FROM schedule_blocks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete block: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.ErrBlockNotFound
	}
	return nil
}
