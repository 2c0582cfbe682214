package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"agenda/internal/config"
	"agenda/internal/events"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// ErrRowNotFound is returned when a booking has no row in the sheet yet.
var ErrRowNotFound = errors.New("booking row not found")

var sheetHeaders = []interface{}{
	"ID", "Perfil", "Servicio", "Fecha", "Inicio", "Fin", "Estado",
	"Cliente", "Email", "Telefono", "Cancelado por", "Motivo", "Version", "Actualizado",
}

// lastColumn is the column letter of the last header.
const lastColumn = "N"

// SheetsMirror keeps one row per booking in a Google spreadsheet.
type SheetsMirror struct {
	service       *sheets.Service
	spreadsheetID string
	sheetName     string
	rowCache      map[int64]int
	cacheMu       sync.RWMutex
}

// NewSheetsMirror authenticates with a service account file.
func NewSheetsMirror(ctx context.Context, cfg config.GoogleConfig) (*SheetsMirror, error) {
	// Читаем файл учетных данных сервисного аккаунта
	credentialsJSON, err := os.ReadFile(cfg.GoogleCredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("unable to read credentials file: %w", err)
	}

	jwtConfig, err := google.JWTConfigFromJSON(credentialsJSON, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx, option.WithHTTPClient(jwtConfig.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Sheets service: %w", err)
	}
	return newSheetsMirror(srv, cfg.BookingSpreadSheetID, cfg.SheetName), nil
}

func newSheetsMirror(srv *sheets.Service, spreadsheetID, sheetName string) *SheetsMirror {
	if sheetName == "" {
		sheetName = "Reservas"
	}
	return &SheetsMirror{
		service:       srv,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		rowCache:      make(map[int64]int),
	}
}

func (s *SheetsMirror) rangeOf(cells string) string {
	return s.sheetName + "!" + cells
}

// TestConnection проверяет доступ к таблице
func (s *SheetsMirror) TestConnection(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.rangeOf("A1")).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("connection test failed: %w", err)
	}
	return nil
}

// EnsureHeader writes the header row.
func (s *SheetsMirror) EnsureHeader(ctx context.Context) error {
	_, err := s.service.Spreadsheets.Values.Update(s.spreadsheetID, s.rangeOf("A1:"+lastColumn+"1"), &sheets.ValueRange{
		Values: [][]interface{}{sheetHeaders},
	}).ValueInputOption("RAW").Context(ctx).Do()
	return err
}

// WarmUpCache populates the row index cache by reading the entire ID column.
func (s *SheetsMirror) WarmUpCache(ctx context.Context) error {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.rangeOf("A:A")).Context(ctx).Do()
	if err != nil {
		return err
	}

	cache := make(map[int64]int, len(resp.Values))
	for i, row := range resp.Values {
		if id := cellID(row); id > 0 {
			cache[id] = i + 1
		}
	}

	s.cacheMu.Lock()
	s.rowCache = cache
	s.cacheMu.Unlock()
	return nil
}

// UpsertBooking rewrites the booking's row or appends one when it is missing.
func (s *SheetsMirror) UpsertBooking(ctx context.Context, b events.BookingEventPayload) error {
	if b.BookingID == 0 {
		return errors.New("booking id is required")
	}

	rowIdx, err := s.FindBookingRow(ctx, b.BookingID)
	if errors.Is(err, ErrRowNotFound) {
		return s.appendBooking(ctx, b)
	}
	if err != nil {
		return err
	}

	rangeData := s.rangeOf(fmt.Sprintf("A%d:%s%d", rowIdx, lastColumn, rowIdx))
	_, err = s.service.Spreadsheets.Values.Update(s.spreadsheetID, rangeData, &sheets.ValueRange{
		Values: [][]interface{}{bookingRowValues(b)},
	}).ValueInputOption("RAW").Context(ctx).Do()
	return err
}

func (s *SheetsMirror) appendBooking(ctx context.Context, b events.BookingEventPayload) error {
	_, err := s.service.Spreadsheets.Values.Append(s.spreadsheetID, s.rangeOf("A:A"), &sheets.ValueRange{
		Values: [][]interface{}{bookingRowValues(b)},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return err
	}
	// позиция новой строки неизвестна до следующего чтения столбца
	s.deleteCachedRow(b.BookingID)
	return nil
}

// FindBookingRow locates the 1-based row of bookingID in column A.
func (s *SheetsMirror) FindBookingRow(ctx context.Context, bookingID int64) (int, error) {
	if row, ok := s.getCachedRow(bookingID); ok {
		return row, nil
	}

	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, s.rangeOf("A:A")).Context(ctx).Do()
	if err != nil {
		return 0, err
	}
	for i, row := range resp.Values {
		if cellID(row) == bookingID {
			s.setCachedRow(bookingID, i+1)
			return i + 1, nil
		}
	}
	return 0, ErrRowNotFound
}

func (s *SheetsMirror) getCachedRow(id int64) (int, bool) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	row, ok := s.rowCache[id]
	return row, ok
}

func (s *SheetsMirror) setCachedRow(id int64, row int) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	s.rowCache[id] = row
}

func (s *SheetsMirror) deleteCachedRow(id int64) {
	s.cacheMu.Lock()
	defer s.cacheMu.Unlock()
	delete(s.rowCache, id)
}

// cellID reads a booking id from the first cell, stored either as number or text.
func cellID(row []interface{}) int64 {
	if len(row) == 0 {
		return 0
	}
	switch v := row[0].(type) {
	case float64:
		return int64(v)
	case string:
		id, _ := strconv.ParseInt(v, 10, 64)
		return id
	}
	return 0
}

func bookingRowValues(b events.BookingEventPayload) []interface{} {
	return []interface{}{
		b.BookingID,
		b.ProfileID,
		b.ServiceID,
		b.Date,
		b.StartTime,
		b.EndTime,
		b.Status,
		b.ClientName,
		b.ClientEmail,
		b.ClientPhone,
		b.CancelledBy,
		b.Reason,
		b.Version,
		b.OccurredAt.Format(time.DateTime),
	}
}
