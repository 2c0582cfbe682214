// Package export renders a professional's bookings as an Excel workbook.
package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"agenda/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const (
	bookingsSheet = "Reservas"
	summarySheet  = "Resumen"
)

var bookingHeaders = []string{
	"Fecha", "Inicio", "Fin", "Servicio", "Cliente", "Email", "Telefono",
	"Estado", "Notas", "Cancelada por", "Motivo",
}

var statusColors = map[models.BookingStatus]string{
	models.StatusPending:   "#FFF2CC",
	models.StatusConfirmed: "#E2EFDA",
	models.StatusCompleted: "#DDEBF7",
	models.StatusCancelled: "#F8CBAD",
	models.StatusNoShow:    "#D9D9D9",
}

var statusOrder = []models.BookingStatus{
	models.StatusPending, models.StatusConfirmed, models.StatusCompleted, models.StatusCancelled, models.StatusNoShow,
}

// BookingLister returns the bookings of a profile the caller owns.
type BookingLister interface {
	ListBookings(ctx context.Context, actingUserID, profileID int64, from, to time.Time) ([]*models.Booking, error)
}

type ServiceGetter interface {
	GetService(ctx context.Context, id int64) (*models.Service, error)
}

// BookingExporter builds .xlsx reports of bookings over a date range.
type BookingExporter struct {
	bookings BookingLister
	services ServiceGetter
	path     string
	logger   *zerolog.Logger
}

func NewBookingExporter(bookings BookingLister, services ServiceGetter, path string, logger *zerolog.Logger) *BookingExporter {
	return &BookingExporter{bookings: bookings, services: services, path: path, logger: logger}
}

// Export writes the workbook for profileID to w.
func (e *BookingExporter) Export(ctx context.Context, w io.Writer, actingUserID, profileID int64, from, to time.Time) error {
	f, err := e.build(ctx, actingUserID, profileID, from, to)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

// ExportToFile saves the workbook under the exports directory and returns its path.
func (e *BookingExporter) ExportToFile(ctx context.Context, actingUserID, profileID int64, from, to time.Time) (string, error) {
	f, err := e.build(ctx, actingUserID, profileID, from, to)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := os.MkdirAll(e.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %w", err)
	}
	fileName := fmt.Sprintf("reservas_%d_%s_a_%s.xlsx", profileID,
		from.Format(models.DateLayout), to.Format(models.DateLayout))
	filePath := filepath.Join(e.path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %w", err)
	}

	e.logger.Info().Str("file_path", filePath).Int64("profile_id", profileID).Msg("Excel file created")
	return filePath, nil
}

func (e *BookingExporter) build(ctx context.Context, actingUserID, profileID int64, from, to time.Time) (*excelize.File, error) {
	bookings, err := e.bookings.ListBookings(ctx, actingUserID, profileID, from, to)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", bookingsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}

	_ = f.SetCellValue(bookingsSheet, "A1", fmt.Sprintf("Periodo: %s - %s",
		from.Format("02/01/2006"), to.Format("02/01/2006")))
	lastCol, _ := excelize.ColumnNumberToName(len(bookingHeaders))
	_ = f.MergeCell(bookingsSheet, "A1", lastCol+"1")
	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(bookingsSheet, "A1", "A1", titleStyle)

	e.writeHeaders(f)
	e.writeRows(ctx, f, bookings)
	e.writeSummary(f, bookings)

	_ = f.SetColWidth(bookingsSheet, "A", "C", 12)
	_ = f.SetColWidth(bookingsSheet, "D", lastCol, 22)
	return f, nil
}

func (e *BookingExporter) writeHeaders(f *excelize.File) {
	style, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	for i, h := range bookingHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 2)
		_ = f.SetCellValue(bookingsSheet, cell, h)
		_ = f.SetCellStyle(bookingsSheet, cell, cell, style)
	}
}

func (e *BookingExporter) writeRows(ctx context.Context, f *excelize.File, bookings []*models.Booking) {
	styles := make(map[models.BookingStatus]int, len(statusColors))
	for status, color := range statusColors {
		id, err := f.NewStyle(&excelize.Style{
			Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		})
		if err == nil {
			styles[status] = id
		}
	}

	names := make(map[int64]string)
	for i, b := range bookings {
		row := i + 3
		values := []interface{}{
			b.DateKey(), b.StartTime, b.EndTime, e.serviceName(ctx, names, b.ServiceID),
			b.ClientName, b.ClientEmail, b.ClientPhone, string(b.Status),
			b.Notes, string(b.CancelledBy), b.CancellationReason,
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		_ = f.SetSheetRow(bookingsSheet, start, &values)

		if style, ok := styles[b.Status]; ok {
			statusCell, _ := excelize.CoordinatesToCellName(8, row)
			_ = f.SetCellStyle(bookingsSheet, statusCell, statusCell, style)
		}
	}
}

func (e *BookingExporter) serviceName(ctx context.Context, cache map[int64]string, id int64) string {
	if name, ok := cache[id]; ok {
		return name
	}
	name := fmt.Sprintf("#%d", id)
	if svc, err := e.services.GetService(ctx, id); err == nil {
		name = svc.Name
	} else {
		e.logger.Warn().Err(err).Int64("service_id", id).Msg("Error getting service for export")
	}
	cache[id] = name
	return name
}

func (e *BookingExporter) writeSummary(f *excelize.File, bookings []*models.Booking) {
	if _, err := f.NewSheet(summarySheet); err != nil {
		e.logger.Error().Err(err).Msg("Error creating summary sheet")
		return
	}

	counts := make(map[models.BookingStatus]int)
	for _, b := range bookings {
		counts[b.Status]++
	}

	_ = f.SetCellValue(summarySheet, "A1", "Estado")
	_ = f.SetCellValue(summarySheet, "B1", "Cantidad")
	for i, status := range statusOrder {
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", i+2), string(status))
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", i+2), counts[status])
	}
	total := len(statusOrder) + 2
	_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", total), "Total")
	_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", total), len(bookings))
}
