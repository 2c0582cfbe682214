package database

import (
	"context"
	"fmt"
	"time"

	"agenda/internal/domain"
	"agenda/internal/models"
)

func (db *DB) CreateUser(ctx context.Context, user *models.User) error {
	now := time.Now()
	result, err := db.ExecContext(ctx,
		`INSERT INTO users (name, email, phone, created_at) VALUES (?, ?, ?, ?)`,
		user.Name, user.Email, user.Phone, now)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	user.ID = id
	user.CreatedAt = now
	return nil
}

func (db *DB) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var u models.User
	err := db.QueryRowContext(ctx,
		`SELECT id, name, email, phone, created_at FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.CreatedAt)
	if err != nil {
		return nil, notFound(err, domain.ErrNotFound)
	}
	return &u, nil
}

// CreateProfile stores a profile. A duplicate slug fails with ErrSlugTaken.
func (db *DB) CreateProfile(ctx context.Context, p *models.Profile) error {
	if p.Timezone == "" {
		p.Timezone = models.DefaultTimezone
	}
	now := time.Now()
	result, err := db.ExecContext(ctx, `INSERT INTO profiles (
				user_id, slug, display_name, phone, timezone, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.UserID, p.Slug, p.DisplayName, p.Phone, p.Timezone, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSlugTaken
		}
		return fmt.Errorf("failed to create profile: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	p.ID = id
	p.CreatedAt = now
	p.UpdatedAt = now
	return nil
}

func (db *DB) GetProfile(ctx context.Context, id int64) (*models.Profile, error) {
	var p models.Profile
	err := db.QueryRowContext(ctx, `SELECT id, user_id, slug, display_name, phone, timezone, created_at, updated_at
              FROM profiles WHERE id = ?`, id,
	).Scan(&p.ID, &p.UserID, &p.Slug, &p.DisplayName, &p.Phone, &p.Timezone, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, notFound(err, domain.ErrProfileNotFound)
	}
	return &p, nil
}

func (db *DB) CreateService(ctx context.Context, s *models.Service) error {
	now := time.Now()
	result, err := db.ExecContext(ctx, `INSERT INTO services (
				profile_id, name, duration_minutes, price_cents, is_active, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.ProfileID, s.Name, s.DurationMinutes, s.PriceCents, s.IsActive, now, now)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	s.ID = id
	s.CreatedAt = now
	s.UpdatedAt = now
	return nil
}

func (db *DB) UpdateService(ctx context.Context, s *models.Service) error {
	now := time.Now()
	result, err := db.ExecContext(ctx, `UPDATE services
              SET name = ?, duration_minutes = ?, price_cents = ?, is_active = ?, updated_at = ?
              WHERE id = ?`,
		s.Name, s.DurationMinutes, s.PriceCents, s.IsActive, now, s.ID)
	if err != nil {
		return fmt.Errorf("failed to update service: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.ErrServiceNotFound
	}
	s.UpdatedAt = now
	return nil
}

func (db *DB) GetService(ctx context.Context, id int64) (*models.Service, error) {
	var s models.Service
	err := db.QueryRowContext(ctx, `SELECT id, profile_id, name, duration_minutes, price_cents, is_active, created_at, updated_at
              FROM services WHERE id = ?`, id,
	).Scan(&s.ID, &s.ProfileID, &s.Name, &s.DurationMinutes, &s.PriceCents, &s.IsActive, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, notFound(err, domain.ErrServiceNotFound)
	}
	return &s, nil
}
