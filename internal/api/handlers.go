package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"agenda/internal/models"
	"agenda/internal/schedule"
	"agenda/internal/service"
)

var errBadJSON = errors.New("invalid JSON body")

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", r.PathValue("id"))
	}
	return id, nil
}

func decodeBody(r *http.Request, v any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		return errBadJSON
	}
	return nil
}

// dateRange reads from/to query params as YYYY-MM-DD.
func dateRange(r *http.Request) (time.Time, time.Time, error) {
	from, err := schedule.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := schedule.ParseDate(r.URL.Query().Get("to"))
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

func (s *HTTPServer) handleSlots(w http.ResponseWriter, r *http.Request) {
	profileID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	serviceID, err := strconv.ParseInt(r.URL.Query().Get("service_id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "service_id is required")
		return
	}
	date, err := schedule.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	slots, err := s.slots.GetAvailableSlots(r.Context(), profileID, serviceID, date)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"date":  schedule.FormatDate(date),
		"slots": slots,
	})
}

type createBookingBody struct {
	ProfileID int64             `json:"profile_id"`
	ServiceID int64             `json:"service_id"`
	Date      string            `json:"date"`
	StartTime string            `json:"start_time"`
	Client    models.ClientInfo `json:"client"`
}

func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	var body createBookingBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	date, err := schedule.ParseDate(body.Date)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	booking, err := s.bookings.CreateBooking(r.Context(), service.CreateBookingRequest{
		ProfileID: body.ProfileID,
		ServiceID: body.ServiceID,
		Date:      date,
		StartTime: body.StartTime,
		Client:    body.Client,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, booking)
}

type cancelBody struct {
	CancelledBy models.CancelledBy `json:"cancelled_by"`
	ClientEmail string             `json:"client_email,omitempty"`
	Reason      string             `json:"reason,omitempty"`
}

func (s *HTTPServer) handleCancel(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var body cancelBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	req := service.CancelRequest{
		BookingID:   id,
		CancelledBy: body.CancelledBy,
		Reason:      body.Reason,
		ClientEmail: body.ClientEmail,
	}
	if body.CancelledBy == models.CancelledByProfessional {
		userID, err := strconv.ParseInt(strings.TrimSpace(r.Header.Get(userIDHeader)), 10, 64)
		if err != nil || userID <= 0 {
			writeError(w, http.StatusUnauthorized, errMissingUser.Error())
			return
		}
		req.ActingUserID = userID
	}

	booking, err := s.bookings.CancelBooking(r.Context(), req)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

type transitionFunc func(ctx context.Context, bookingID, actingUserID int64) (*models.Booking, error)

// transition adapts a professional-driven status change to a handler.
func (s *HTTPServer) transition(fn transitionFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		booking, err := fn(r.Context(), id, actingUser(r))
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, booking)
	}
}

func (s *HTTPServer) handleGetBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	booking, err := s.bookings.GetBooking(r.Context(), id, actingUser(r))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}

func (s *HTTPServer) handleNotifications(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	list, err := s.bookings.Notifications(r.Context(), id, actingUser(r))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"notifications": list})
}

func (s *HTTPServer) handleListBookings(w http.ResponseWriter, r *http.Request) {
	profileID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	from, to, err := dateRange(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	list, err := s.bookings.ListBookings(r.Context(), actingUser(r), profileID, from, to)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"bookings": list})
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	profileID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	from, to, err := dateRange(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	// сначала собираем файл целиком, чтобы ошибка не пришла после заголовков
	var buf bytes.Buffer
	if err := s.exporter.Export(r.Context(), &buf, actingUser(r), profileID, from, to); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="reservas_%s_%s.xlsx"`,
		schedule.FormatDate(from), schedule.FormatDate(to)))
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

type windowBody struct {
	ServiceID *int64 `json:"service_id,omitempty"`
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	IsActive  *bool  `json:"is_active,omitempty"`
}

func (b windowBody) window() *models.AvailabilityWindow {
	active := true
	if b.IsActive != nil {
		active = *b.IsActive
	}
	return &models.AvailabilityWindow{
		ServiceID: b.ServiceID,
		DayOfWeek: time.Weekday(b.DayOfWeek),
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
		IsActive:  active,
	}
}

func (s *HTTPServer) handleCreateWindow(w http.ResponseWriter, r *http.Request) {
	profileID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var body windowBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	window := body.window()
	window.ProfileID = profileID
	if err := s.schedule.CreateWindow(r.Context(), actingUser(r), window); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, window)
}

func (s *HTTPServer) handleUpdateWindow(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var body windowBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	window := body.window()
	window.ID = id
	if err := s.schedule.UpdateWindow(r.Context(), actingUser(r), window); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, window)
}

type blockBody struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	AllDay    bool   `json:"all_day"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

func (s *HTTPServer) handleCreateBlock(w http.ResponseWriter, r *http.Request) {
	profileID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	var body blockBody
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	start, err := schedule.ParseDate(body.StartDate)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	end, err := schedule.ParseDate(body.EndDate)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	block := &models.ScheduleBlock{
		ProfileID: profileID,
		StartDate: start,
		EndDate:   end,
		AllDay:    body.AllDay,
		StartTime: body.StartTime,
		EndTime:   body.EndTime,
		Reason:    body.Reason,
	}
	if err := s.schedule.CreateBlock(r.Context(), actingUser(r), block); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, block)
}

func (s *HTTPServer) handleListBlocks(w http.ResponseWriter, r *http.Request) {
	profileID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	from, to, err := dateRange(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	list, err := s.schedule.ListBlocks(r.Context(), actingUser(r), profileID, from, to)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"blocks": list})
}

func (s *HTTPServer) handleDeleteBlock(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.schedule.DeleteBlock(r.Context(), actingUser(r), id); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
