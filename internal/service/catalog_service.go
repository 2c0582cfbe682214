package service

import (
	"context"
	"regexp"
	"strings"
	"time"

	"agenda/internal/domain"
	"agenda/internal/models"

	"github.com/rs/zerolog"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9](?:[a-z0-9-]{1,58}[a-z0-9])?$`)

// CatalogService manages profiles and the services they offer.
type CatalogService struct {
	store  domain.CatalogStore
	logger *zerolog.Logger
}

func NewCatalogService(store domain.CatalogStore, logger *zerolog.Logger) *CatalogService {
	return &CatalogService{store: store, logger: logger}
}

func (s *CatalogService) CreateProfile(ctx context.Context, p *models.Profile) error {
	p.Slug = strings.ToLower(strings.TrimSpace(p.Slug))
	if !slugPattern.MatchString(p.Slug) {
		return domain.ErrInvalidSlug
	}
	if strings.TrimSpace(p.DisplayName) == "" {
		return domain.ErrInvalidName
	}
	if p.Timezone == "" {
		p.Timezone = models.DefaultTimezone
	}
	if _, err := time.LoadLocation(p.Timezone); err != nil {
		return domain.ErrInvalidTimezone
	}
	if _, err := s.store.GetUser(ctx, p.UserID); err != nil {
		return err
	}
	if err := s.store.CreateProfile(ctx, p); err != nil {
		return err
	}
	s.logger.Info().Int64("profile_id", p.ID).Str("slug", p.Slug).Msg("Profile created")
	return nil
}

// CreateService adds a service to a profile owned by actingUserID.
func (s *CatalogService) CreateService(ctx context.Context, actingUserID int64, svc *models.Service) error {
	if err := validateService(svc); err != nil {
		return err
	}
	if _, err := s.ownedProfile(ctx, svc.ProfileID, actingUserID); err != nil {
		return err
	}
	if err := s.store.CreateService(ctx, svc); err != nil {
		return err
	}
	s.logger.Info().Int64("profile_id", svc.ProfileID).Int64("service_id", svc.ID).Msg("Service created")
	return nil
}

// UpdateService edits name, duration, price and the active flag. The owning profile cannot change.
func (s *CatalogService) UpdateService(ctx context.Context, actingUserID int64, svc *models.Service) error {
	current, err := s.store.GetService(ctx, svc.ID)
	if err != nil {
		return err
	}
	if _, err := s.ownedProfile(ctx, current.ProfileID, actingUserID); err != nil {
		return err
	}
	if err := validateService(svc); err != nil {
		return err
	}
	svc.ProfileID = current.ProfileID
	svc.CreatedAt = current.CreatedAt
	return s.store.UpdateService(ctx, svc)
}

// ownedProfile loads a profile and fails with ErrNotOwner when actingUserID does not own it.
func (s *CatalogService) ownedProfile(ctx context.Context, profileID, actingUserID int64) (*models.Profile, error) {
	return ownedProfile(ctx, s.store, profileID, actingUserID)
}

func ownedProfile(ctx context.Context, store domain.CatalogStore, profileID, actingUserID int64) (*models.Profile, error) {
	profile, err := store.GetProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if !profile.OwnedBy(actingUserID) {
		return nil, domain.ErrNotOwner
	}
	return profile, nil
}

func validateService(svc *models.Service) error {
	svc.Name = strings.TrimSpace(svc.Name)
	if svc.Name == "" {
		return domain.ErrInvalidName
	}
	if !models.IsAllowedDuration(svc.DurationMinutes) {
		return domain.ErrInvalidDuration
	}
	if svc.PriceCents < 0 {
		return &domain.Error{Kind: domain.ErrValidation, Message: "El precio no puede ser negativo"}
	}
	return nil
}
