package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateSlots_MondayMorning(t *testing.T) {
	windows := []Interval{{Start: 9 * 60, End: 12 * 60}}

	slots := GenerateSlots(windows, 30, 15, nil)
	assert.Equal(t, []string{
		"09:00", "09:15", "09:30", "09:45", "10:00", "10:15",
		"10:30", "10:45", "11:00", "11:15", "11:30",
	}, slots)
}

func TestGenerateSlots_ExcludesOverlapsOnly(t *testing.T) {
	windows := []Interval{{Start: 9 * 60, End: 12 * 60}}
	busy := []Interval{{Start: 10 * 60, End: 10*60 + 30}}

	slots := GenerateSlots(windows, 30, 15, busy)
	assert.NotContains(t, slots, "09:45")
	assert.NotContains(t, slots, "10:00")
	assert.NotContains(t, slots, "10:15")
	assert.Contains(t, slots, "09:30", "ending exactly at the booking start is not a conflict")
	assert.Contains(t, slots, "10:30", "starting exactly at the booking end is not a conflict")
	assert.Len(t, slots, 8)
}

func TestGenerateSlots_LastSlotFillsWindow(t *testing.T) {
	slots := GenerateSlots([]Interval{{Start: 600, End: 650}}, 45, 15, nil)
	assert.Equal(t, []string{"10:00"}, slots)

	slots = GenerateSlots([]Interval{{Start: 600, End: 640}}, 45, 15, nil)
	assert.Empty(t, slots)
	assert.NotNil(t, slots)
}

func TestGenerateSlots_WindowOrder(t *testing.T) {
	windows := []Interval{{Start: 14 * 60, End: 15 * 60}, {Start: 9 * 60, End: 10 * 60}}

	slots := GenerateSlots(windows, 60, 15, nil)
	assert.Equal(t, []string{"14:00", "09:00"}, slots)
}

func TestGenerateSlots_DoesNotDeduplicate(t *testing.T) {
	windows := []Interval{{Start: 540, End: 600}, {Start: 540, End: 600}}

	slots := GenerateSlots(windows, 60, 15, nil)
	assert.Equal(t, []string{"09:00", "09:00"}, slots)
}

func TestGenerateSlots_InvalidInputs(t *testing.T) {
	windows := []Interval{{Start: 540, End: 600}}
	assert.Empty(t, GenerateSlots(windows, 0, 15, nil))
	assert.Empty(t, GenerateSlots(windows, 30, 0, nil))
	assert.Empty(t, GenerateSlots(nil, 30, 15, nil))
}

func TestGenerateSlots_Idempotent(t *testing.T) {
	windows := []Interval{{Start: 540, End: 720}, {Start: 840, End: 1080}}
	busy := []Interval{{Start: 600, End: 660}, {Start: 900, End: 915}}

	first := GenerateSlots(windows, 45, 15, busy)
	second := GenerateSlots(windows, 45, 15, busy)
	assert.Equal(t, first, second)
}

func TestGenerateSlots_EverySlotValid(t *testing.T) {
	windows := []Interval{{Start: 480, End: 780}, {Start: 840, End: 1200}}
	busy := []Interval{{Start: 500, End: 545}, {Start: 700, End: 760}, {Start: 1000, End: 1090}}
	const duration = 60

	for _, s := range GenerateSlots(windows, duration, 15, busy) {
		start, err := TimeToMinutes(s)
		assert.NoError(t, err)
		candidate := Interval{Start: start, End: start + duration}

		inside := false
		for _, w := range windows {
			if w.Contains(candidate) {
				inside = true
			}
		}
		assert.True(t, inside, "slot %s must fit a window", s)
		assert.Equal(t, -1, FirstConflict(candidate, busy), "slot %s must not overlap a booking", s)
	}
}
