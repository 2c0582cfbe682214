package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"agenda/internal/api"
	"agenda/internal/config"
	"agenda/internal/database"
	"agenda/internal/domain"
	"agenda/internal/events"
	"agenda/internal/export"
	"agenda/internal/google"
	"agenda/internal/logging"
	"agenda/internal/metrics"
	"agenda/internal/notify"
	"agenda/internal/repository"
	"agenda/internal/service"
	"agenda/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	if err := prepareDirectories(cfg); err != nil {
		logger.Error().Err(err).Msg("prepare directories")
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Monitoring.PrometheusEnabled {
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	redisClient := initRedis(ctx, cfg, &logger)
	if redisClient != nil {
		defer func() { _ = repository.Close(redisClient) }()
	}
	locker := initLocker(cfg, redisClient, &logger)

	sender, err := notify.New(cfg.Notifier, &logger)
	if err != nil {
		logger.Error().Err(err).Str("provider", cfg.Notifier.Provider).Msg("init notifier")
		return err
	}

	eventBus := events.NewEventBus(&logger)
	if syncWorker := initSyncWorker(ctx, cfg, redisClient, &logger); syncWorker != nil {
		syncWorker.Subscribe(eventBus)
		go syncWorker.Start(ctx)
	}

	availability := service.NewAvailabilityService(db, service.AvailabilityOptions{
		SlotStep:    cfg.Booking.SlotStepMinutes,
		HideBlocked: cfg.Booking.HideBlocked(),
	}, &logger)
	notifier := service.NewNotifier(sender, db, cfg.Notifier.Timeout(), &logger)
	bookings := service.NewBookingService(db, availability, locker, notifier, eventBus, service.BookingOptions{
		MaxBookingDays: cfg.Booking.MaxBookingDays,
	}, &logger)

	if cfg.Reminder.Enabled {
		reminders := worker.NewReminderWorker(bookings, time.Duration(cfg.Reminder.IntervalMinutes)*time.Minute, &logger)
		go reminders.Start(ctx)
	}

	backup := database.NewBackupService(db, cfg.Backup, &logger)
	go backup.Start(ctx)

	httpServer := api.NewHTTPServer(cfg.API, api.Deps{
		Slots:    availability,
		Schedule: availability,
		Bookings: bookings,
		Exporter: export.NewBookingExporter(bookings, db, cfg.Exports.Path, &logger),
		Metrics:  cfg.Monitoring.PrometheusEnabled,
	}, &logger)

	return serve(ctx, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func prepareDirectories(cfg *config.Config) error {
	for _, dir := range []string{cfg.Exports.Path, cfg.Backup.StoragePath} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, client); err != nil {
		// локи переживут падение redis через локальный fallback
		logger.Warn().Err(err).Str("addr", cfg.Redis.Address).Msg("redis ping failed, locks start on fallback")
	} else {
		logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	}
	return client
}

func initLocker(cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) domain.Locker {
	local := repository.NewMemoryLocker()
	if redisClient == nil {
		logger.Info().Msg("redis not configured, using in-process slot locks")
		return local
	}
	primary := repository.NewRedisLocker(redisClient, cfg.Booking.LockTTL(), cfg.Booking.LockTTL(), logger)
	return repository.NewFailoverLocker(primary, local, logger)
}

func initSyncWorker(ctx context.Context, cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) *worker.SyncWorker {
	if !cfg.Sync.Enabled {
		return nil
	}
	if !cfg.Google.Enabled() {
		logger.Warn().Msg("sync enabled but google sheets is not configured, skipping")
		return nil
	}

	mirror, err := google.NewSheetsMirror(ctx, cfg.Google)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sync")
		return nil
	}
	if err := mirror.EnsureHeader(ctx); err != nil {
		logger.Warn().Err(err).Msg("google sheets header check failed, continuing without sync")
		return nil
	}
	if err := mirror.WarmUpCache(ctx); err != nil {
		logger.Warn().Err(err).Msg("google sheets cache warm-up failed")
	}

	logger.Info().Str("sheet", cfg.Google.SheetName).Msg("google sheets connected")
	return worker.NewSyncWorker(mirror, redisClient, cfg.Sync, worker.DefaultRetryPolicy, logger)
}

func serve(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		if !cfg.API.HTTP.Enabled {
			logger.Warn().Msg("HTTP API is disabled in config, only background workers run")
			return
		}
		errCh <- httpServer.Start()
	}()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}

	logger.Info().Msg("agenda stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
