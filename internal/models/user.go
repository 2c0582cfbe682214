package models

import "time"

// User is the account behind a professional's profile.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

// Profile is a professional's public booking page.
type Profile struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Slug        string    `json:"slug"`
	DisplayName string    `json:"display_name"`
	Phone       string    `json:"phone"`
	Timezone    string    `json:"timezone"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// OwnedBy reports whether userID owns the profile.
func (p *Profile) OwnedBy(userID int64) bool {
	return p != nil && userID != 0 && p.UserID == userID
}

type Service struct {
	ID              int64     `json:"id"`
	ProfileID       int64     `json:"profile_id"`
	Name            string    `json:"name"`
	DurationMinutes int       `json:"duration_minutes"`
	PriceCents      int64     `json:"price_cents"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
