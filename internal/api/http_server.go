package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"agenda/internal/config"
	"agenda/internal/domain"
	"agenda/internal/metrics"
	"agenda/internal/models"
	"agenda/internal/service"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// SlotFinder lists bookable start times.
type SlotFinder interface {
	GetAvailableSlots(ctx context.Context, profileID, serviceID int64, date time.Time) ([]string, error)
}

// ScheduleManager edits recurring windows and one-off blocks.
type ScheduleManager interface {
	CreateWindow(ctx context.Context, actingUserID int64, w *models.AvailabilityWindow) error
	UpdateWindow(ctx context.Context, actingUserID int64, w *models.AvailabilityWindow) error
	CreateBlock(ctx context.Context, actingUserID int64, b *models.ScheduleBlock) error
	DeleteBlock(ctx context.Context, actingUserID, blockID int64) error
	ListBlocks(ctx context.Context, actingUserID, profileID int64, from, to time.Time) ([]*models.ScheduleBlock, error)
}

// BookingEngine drives bookings through their lifecycle.
type BookingEngine interface {
	CreateBooking(ctx context.Context, req service.CreateBookingRequest) (*models.Booking, error)
	ConfirmBooking(ctx context.Context, bookingID, actingUserID int64) (*models.Booking, error)
	CancelBooking(ctx context.Context, req service.CancelRequest) (*models.Booking, error)
	CompleteBooking(ctx context.Context, bookingID, actingUserID int64) (*models.Booking, error)
	MarkNoShow(ctx context.Context, bookingID, actingUserID int64) (*models.Booking, error)
	GetBooking(ctx context.Context, bookingID, actingUserID int64) (*models.Booking, error)
	ListBookings(ctx context.Context, actingUserID, profileID int64, from, to time.Time) ([]*models.Booking, error)
	Notifications(ctx context.Context, bookingID, actingUserID int64) ([]*models.Notification, error)
}

// Exporter streams a profile's bookings as a workbook.
type Exporter interface {
	Export(ctx context.Context, w io.Writer, actingUserID, profileID int64, from, to time.Time) error
}

// HTTPServer is the JSON surface over the booking engine.
type HTTPServer struct {
	cfg      config.APIConfig
	slots    SlotFinder
	schedule ScheduleManager
	bookings BookingEngine
	exporter Exporter
	auth     *HTTPAuth
	server   *http.Server
	logger   *zerolog.Logger
}

// Deps bundles the engine components served over HTTP.
type Deps struct {
	Slots    SlotFinder
	Schedule ScheduleManager
	Bookings BookingEngine
	Exporter Exporter
	// Metrics mounts the Prometheus handler on /metrics.
	Metrics bool
}

func NewHTTPServer(cfg config.APIConfig, deps Deps, logger *zerolog.Logger) *HTTPServer {
	srv := &HTTPServer{
		cfg:      cfg,
		slots:    deps.Slots,
		schedule: deps.Schedule,
		bookings: deps.Bookings,
		exporter: deps.Exporter,
		auth:     NewHTTPAuth(cfg),
		logger:   logger,
	}

	mux := http.NewServeMux()
	a := srv.auth

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if deps.Metrics {
		mux.Handle("GET /metrics", promhttp.Handler())
	}

	// публичная часть: клиенты без аккаунта
	mux.HandleFunc("GET /api/v1/profiles/{id}/slots", a.require(permReadSlots, srv.handleSlots))
	mux.HandleFunc("POST /api/v1/bookings", a.require(permWriteBookings, srv.handleCreateBooking))
	mux.HandleFunc("POST /api/v1/bookings/{id}/cancel", a.require(permWriteBookings, srv.handleCancel))

	// кабинет профессионала
	manage := func(perm string, h http.HandlerFunc) http.HandlerFunc { return a.require(perm, withUser(h)) }
	mux.HandleFunc("GET /api/v1/bookings/{id}", manage(permManageBookings, srv.handleGetBooking))
	mux.HandleFunc("GET /api/v1/bookings/{id}/notifications", manage(permManageBookings, srv.handleNotifications))
	mux.HandleFunc("POST /api/v1/bookings/{id}/confirm", manage(permManageBookings, srv.transition(srv.bookings.ConfirmBooking)))
	mux.HandleFunc("POST /api/v1/bookings/{id}/complete", manage(permManageBookings, srv.transition(srv.bookings.CompleteBooking)))
	mux.HandleFunc("POST /api/v1/bookings/{id}/no-show", manage(permManageBookings, srv.transition(srv.bookings.MarkNoShow)))
	mux.HandleFunc("GET /api/v1/profiles/{id}/bookings", manage(permManageBookings, srv.handleListBookings))
	mux.HandleFunc("GET /api/v1/profiles/{id}/export", manage(permManageBookings, srv.handleExport))

	mux.HandleFunc("POST /api/v1/profiles/{id}/windows", manage(permManageSchedule, srv.handleCreateWindow))
	mux.HandleFunc("PUT /api/v1/windows/{id}", manage(permManageSchedule, srv.handleUpdateWindow))
	mux.HandleFunc("GET /api/v1/profiles/{id}/blocks", manage(permManageSchedule, srv.handleListBlocks))
	mux.HandleFunc("POST /api/v1/profiles/{id}/blocks", manage(permManageSchedule, srv.handleCreateBlock))
	mux.HandleFunc("DELETE /api/v1/blocks/{id}", manage(permManageSchedule, srv.handleDeleteBlock))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.loggingMiddleware(mux),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}
	return srv
}

// Handler returns the root handler, for embedding and tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.server.Handler
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

const requestIDHeader = "X-Request-ID"

func (s *HTTPServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.IncHTTP(route, recorder.status)

		s.logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("route", route).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("http request")
	})
}

// writeDomainError maps the engine's error kinds to HTTP status codes.
func (s *HTTPServer) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	switch domain.Kind(err) {
	case domain.ErrNotFound:
		status = http.StatusNotFound
	case domain.ErrForbidden:
		status = http.StatusForbidden
	case domain.ErrConflict:
		status = http.StatusConflict
	case domain.ErrInvalidTransition:
		status = http.StatusUnprocessableEntity
	case domain.ErrValidation:
		status = http.StatusBadRequest
	default:
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
