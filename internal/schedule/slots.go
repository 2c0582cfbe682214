package schedule

// GenerateSlots enumerates start times inside each window, stepping by step minutes
// while start+duration fits in the window, skipping starts that overlap a busy interval.
// Output is window by window, ascending inside each window. Duplicates are not removed.
func GenerateSlots(windows []Interval, duration, step int, busy []Interval) []string {
	slots := make([]string, 0)
	if duration <= 0 || step <= 0 {
		return slots
	}
	for _, w := range windows {
		for start := w.Start; start+duration <= w.End; start += step {
			candidate := Interval{Start: start, End: start + duration}
			if FirstConflict(candidate, busy) >= 0 {
				continue
			}
			slots = append(slots, MinutesToTime(start))
		}
	}
	return slots
}
