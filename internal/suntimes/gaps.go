package suntimes

import "time"

// MissingDates enumerates every calendar date in [start, end] (closed range,
// ascending) and returns the ones absent from existing, keyed by DayKey.
// The output is duplicate-free, strictly ascending, and a subset of the
// range. A start after end is a caller contract violation and returns
// ErrInvalidDateRange; the calculator itself has no other failure modes.
func MissingDates(start, end time.Time, existing map[string]struct{}) ([]time.Time, error) {
	start = NormalizeDate(start)
	end = NormalizeDate(end)

	if end.Before(start) {
		return nil, ErrInvalidDateRange
	}

	var gaps []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if _, ok := existing[DayKey(d)]; !ok {
			gaps = append(gaps, d)
		}
	}
	return gaps, nil
}
