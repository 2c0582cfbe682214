package schedule

import (
	"testing"

	"agenda/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name                   string
		aStart, aEnd, bStart, bEnd int
		want                   bool
	}{
		{"disjoint", 540, 570, 600, 630, false},
		{"touching end to start", 570, 600, 600, 630, false},
		{"touching start to end", 600, 630, 570, 600, false},
		{"partial overlap", 585, 615, 600, 630, true},
		{"contained", 600, 610, 590, 630, true},
		{"containing", 590, 630, 600, 610, true},
		{"identical", 600, 630, 600, 630, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd))
			assert.Equal(t, tt.want, Overlaps(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd), "overlap must be symmetric")
		})
	}
}

func TestNewInterval(t *testing.T) {
	iv, err := NewInterval("09:00", "12:00")
	require.NoError(t, err)
	assert.Equal(t, Interval{Start: 540, End: 720}, iv)
	assert.Equal(t, "09:00-12:00", iv.String())

	_, err = NewInterval("12:00", "12:00")
	assert.ErrorIs(t, err, domain.ErrInvalidRange)

	_, err = NewInterval("13:00", "12:00")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = NewInterval("bad", "12:00")
	assert.ErrorIs(t, err, domain.ErrInvalidTime)
}

func TestFirstConflict(t *testing.T) {
	busy := []Interval{{Start: 540, End: 570}, {Start: 600, End: 630}}

	assert.Equal(t, -1, FirstConflict(Interval{Start: 570, End: 600}, busy))
	assert.Equal(t, 0, FirstConflict(Interval{Start: 555, End: 585}, busy))
	assert.Equal(t, 1, FirstConflict(Interval{Start: 615, End: 645}, busy))
	assert.Equal(t, -1, FirstConflict(Interval{Start: 0, End: 30}, nil))
}

func TestCheckSiblings(t *testing.T) {
	siblings := []Interval{{Start: 540, End: 720}}

	assert.NoError(t, CheckSiblings(Interval{Start: 720, End: 900}, siblings))
	err := CheckSiblings(Interval{Start: 700, End: 900}, siblings)
	assert.ErrorIs(t, err, domain.ErrWindowOverlap)
	assert.ErrorIs(t, err, domain.ErrConflict)
}
