// Command seed fills a database with demo professionals, schedules and bookings.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"agenda/internal/config"
	"agenda/internal/database"
	"agenda/internal/events"
	"agenda/internal/logging"
	"agenda/internal/models"
	"agenda/internal/notify"
	"agenda/internal/repository"
	"agenda/internal/schedule"
	"agenda/internal/service"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/rs/zerolog"
)

var serviceNames = []string{
	"Consulta inicial",
	"Sesion de seguimiento",
	"Evaluacion",
	"Terapia individual",
	"Control mensual",
	"Asesoria online",
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

type seeder struct {
	db           *database.DB
	catalog      *service.CatalogService
	availability *service.AvailabilityService
	bookings     *service.BookingService
	logger       *zerolog.Logger
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}
	logger := baseLogger.With().Str("component", "seed").Logger()

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer db.Close()

	// уведомления при сидировании никуда не уходят
	availability := service.NewAvailabilityService(db, service.AvailabilityOptions{
		SlotStep:    cfg.Booking.SlotStepMinutes,
		HideBlocked: cfg.Booking.HideBlocked(),
	}, &logger)
	notifier := service.NewNotifier(notify.NewNoopSender(&logger), db, time.Second, &logger)
	s := &seeder{
		db:           db,
		catalog:      service.NewCatalogService(db, &logger),
		availability: availability,
		bookings: service.NewBookingService(db, availability, repository.NewMemoryLocker(), notifier,
			events.NewEventBus(&logger), service.BookingOptions{MaxBookingDays: cfg.Booking.MaxBookingDays}, &logger),
		logger: &logger,
	}

	profiles := envInt("SEED_PROFILES", 5)
	bookingsPerProfile := envInt("SEED_BOOKINGS", 10)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	for i := 0; i < profiles; i++ {
		profile, services, err := s.seedProfessional(ctx, i)
		if err != nil {
			return fmt.Errorf("seed professional %d: %w", i, err)
		}
		created := s.seedBookings(ctx, profile, services, bookingsPerProfile)
		logger.Info().Str("slug", profile.Slug).Int("services", len(services)).Int("bookings", created).Msg("Professional seeded")
	}

	logger.Info().Int("profiles", profiles).Msg("seed complete")
	return nil
}

func (s *seeder) seedProfessional(ctx context.Context, n int) (*models.Profile, []*models.Service, error) {
	name := gofakeit.Name()
	user := &models.User{Name: name, Email: gofakeit.Email(), Phone: fakePhone()}
	if err := s.db.CreateUser(ctx, user); err != nil {
		return nil, nil, err
	}

	profile := &models.Profile{
		UserID:      user.ID,
		Slug:        slugFor(name, n),
		DisplayName: name,
		Phone:       fakePhone(),
		Timezone:    models.DefaultTimezone,
	}
	if err := s.catalog.CreateProfile(ctx, profile); err != nil {
		return nil, nil, err
	}

	count := gofakeit.Number(1, 3)
	services := make([]*models.Service, 0, count)
	for i := 0; i < count; i++ {
		svc := &models.Service{
			ProfileID:       profile.ID,
			Name:            serviceNames[gofakeit.Number(0, len(serviceNames)-1)],
			DurationMinutes: models.AllowedDurations[gofakeit.Number(0, 3)],
			PriceCents:      int64(gofakeit.Number(10, 80)) * 1000,
			IsActive:        true,
		}
		if err := s.catalog.CreateService(ctx, user.ID, svc); err != nil {
			return nil, nil, err
		}
		services = append(services, svc)
	}

	// утро и вечер по будням, суббота только утро
	for day := time.Monday; day <= time.Saturday; day++ {
		ranges := [][2]string{{"09:00", "13:00"}, {"14:00", "18:00"}}
		if day == time.Saturday {
			ranges = ranges[:1]
		}
		for _, r := range ranges {
			w := &models.AvailabilityWindow{ProfileID: profile.ID, DayOfWeek: day, StartTime: r[0], EndTime: r[1], IsActive: true}
			if err := s.availability.CreateWindow(ctx, user.ID, w); err != nil {
				return nil, nil, err
			}
		}
	}
	return profile, services, nil
}

// seedBookings books random free slots over the next two weeks and returns how many it created.
func (s *seeder) seedBookings(ctx context.Context, profile *models.Profile, services []*models.Service, target int) int {
	created := 0
	for attempt := 0; attempt < target*4 && created < target; attempt++ {
		svc := services[gofakeit.Number(0, len(services)-1)]
		date := schedule.DayOf(time.Now().AddDate(0, 0, gofakeit.Number(1, 14)))

		slots, err := s.availability.GetAvailableSlots(ctx, profile.ID, svc.ID, date)
		if err != nil || len(slots) == 0 {
			continue
		}

		_, err = s.bookings.CreateBooking(ctx, service.CreateBookingRequest{
			ProfileID: profile.ID,
			ServiceID: svc.ID,
			Date:      date,
			StartTime: slots[gofakeit.Number(0, len(slots)-1)],
			Client: models.ClientInfo{
				Name:  gofakeit.Name(),
				Email: gofakeit.Email(),
				Phone: fakePhone(),
			},
		})
		if err != nil {
			s.logger.Debug().Err(err).Str("slug", profile.Slug).Msg("seed booking rejected")
			continue
		}
		created++
	}
	return created
}

func slugFor(name string, n int) string {
	base := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if len(base) > 50 {
		base = strings.Trim(base[:50], "-")
	}
	return fmt.Sprintf("%s-%d", base, n+1)
}

func fakePhone() string {
	return "+54911" + gofakeit.Numerify("########")
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
