package schedule

import (
	"fmt"

	"agenda/internal/domain"
)

// Interval is a half-open [Start, End) range in minutes of day.
type Interval struct {
	Start int
	End   int
}

// NewInterval parses a pair of "HH:MM" strings and checks start < end.
func NewInterval(start, end string) (Interval, error) {
	s, err := TimeToMinutes(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := TimeToMinutes(end)
	if err != nil {
		return Interval{}, err
	}
	iv := Interval{Start: s, End: e}
	if err := iv.Validate(); err != nil {
		return Interval{}, err
	}
	return iv, nil
}

func (iv Interval) Validate() error {
	if iv.Start >= iv.End {
		return fmt.Errorf("%w: %s-%s", domain.ErrInvalidRange, MinutesToTime(iv.Start), MinutesToTime(iv.End))
	}
	return nil
}

// Contains reports whether other lies entirely inside iv.
func (iv Interval) Contains(other Interval) bool {
	return other.Start >= iv.Start && other.End <= iv.End
}

func (iv Interval) Overlaps(other Interval) bool {
	return Overlaps(iv.Start, iv.End, other.Start, other.End)
}

func (iv Interval) String() string {
	return MinutesToTime(iv.Start) + "-" + MinutesToTime(iv.End)
}

// Overlaps is the half-open interval test. Touching endpoints do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && aEnd > bStart
}

// FirstConflict returns the index of the first busy interval overlapping iv, or -1.
func FirstConflict(iv Interval, busy []Interval) int {
	for i, b := range busy {
		if iv.Overlaps(b) {
			return i
		}
	}
	return -1
}

// CheckSiblings fails with ErrWindowOverlap when candidate overlaps any sibling.
func CheckSiblings(candidate Interval, siblings []Interval) error {
	if i := FirstConflict(candidate, siblings); i >= 0 {
		return fmt.Errorf("%w: %s vs %s", domain.ErrWindowOverlap, candidate, siblings[i])
	}
	return nil
}
