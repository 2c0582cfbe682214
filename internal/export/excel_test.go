package export

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"agenda/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type MockLister struct {
	mock.Mock
}

func (m *MockLister) ListBookings(ctx context.Context, actingUserID, profileID int64, from, to time.Time) ([]*models.Booking, error) {
	args := m.Called(ctx, actingUserID, profileID, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Booking), args.Error(1)
}

type staticServices map[int64]*models.Service

func (s staticServices) GetService(_ context.Context, id int64) (*models.Service, error) {
	if svc, ok := s[id]; ok {
		return svc, nil
	}
	return nil, errors.New("not found")
}

var (
	from = time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	to   = time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
)

func sampleBookings() []*models.Booking {
	return []*models.Booking{
		{ID: 1, ServiceID: 10, Date: from, StartTime: "09:00", EndTime: "09:30", Status: models.StatusConfirmed,
			ClientName: "Juan Perez", ClientEmail: "juan@example.com", ClientPhone: "+5491155550000"},
		{ID: 2, ServiceID: 11, Date: from, StartTime: "10:00", EndTime: "11:00", Status: models.StatusCancelled,
			ClientName: "Ana Diaz", CancelledBy: models.CancelledByClient, CancellationReason: "Viaje"},
	}
}

func newExporter(t *testing.T, lister BookingLister) *BookingExporter {
	t.Helper()
	logger := zerolog.New(io.Discard)
	services := staticServices{10: {ID: 10, Name: "Sesion"}}
	return NewBookingExporter(lister, services, t.TempDir(), &logger)
}

func TestExport_Workbook(t *testing.T) {
	lister := new(MockLister)
	lister.On("ListBookings", mock.Anything, int64(1), int64(2), from, to).Return(sampleBookings(), nil)

	var buf bytes.Buffer
	require.NoError(t, newExporter(t, lister).Export(context.Background(), &buf, 1, 2, from, to))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{bookingsSheet, summarySheet}, f.GetSheetList())

	title, _ := f.GetCellValue(bookingsSheet, "A1")
	assert.Equal(t, "Periodo: 03/03/2025 - 09/03/2025", title)

	rows, err := f.GetRows(bookingsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, bookingHeaders, rows[1])
	assert.Equal(t, []string{"2025-03-03", "09:00", "09:30", "Sesion", "Juan Perez", "juan@example.com", "+5491155550000", "CONFIRMED"}, rows[2])
	assert.Equal(t, "#11", rows[3][3])
	assert.Equal(t, "Viaje", rows[3][10])

	total, _ := f.GetCellValue(summarySheet, "B7")
	assert.Equal(t, "2", total)
	confirmed, _ := f.GetCellValue(summarySheet, "B3")
	assert.Equal(t, "1", confirmed)

	lister.AssertExpectations(t)
}

func TestExportToFile(t *testing.T) {
	lister := new(MockLister)
	lister.On("ListBookings", mock.Anything, int64(1), int64(2), from, to).Return([]*models.Booking{}, nil)

	path, err := newExporter(t, lister).ExportToFile(context.Background(), 1, 2, from, to)
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Contains(t, path, "reservas_2_2025-03-03_a_2025-03-09.xlsx")
}

func TestExport_ListError(t *testing.T) {
	boom := errors.New("forbidden")
	lister := new(MockLister)
	lister.On("ListBookings", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil, boom)

	var buf bytes.Buffer
	err := newExporter(t, lister).Export(context.Background(), &buf, 1, 2, from, to)
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, buf.Len())
}
