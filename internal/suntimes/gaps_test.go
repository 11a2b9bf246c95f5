package suntimes

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(s string) time.Time {
	t, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

func keySet(days ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(days))
	for _, d := range days {
		set[d] = struct{}{}
	}
	return set
}

func TestMissingDatesEmptyStore(t *testing.T) {
	gaps, err := MissingDates(date("2024-01-01"), date("2024-01-03"), keySet())
	require.NoError(t, err)

	require.Len(t, gaps, 3)
	assert.Equal(t, date("2024-01-01"), gaps[0])
	assert.Equal(t, date("2024-01-02"), gaps[1])
	assert.Equal(t, date("2024-01-03"), gaps[2])
}

func TestMissingDatesSubtractsExisting(t *testing.T) {
	existing := keySet("2024-01-01", "2024-01-02")

	gaps, err := MissingDates(date("2024-01-01"), date("2024-01-03"), existing)
	require.NoError(t, err)

	require.Len(t, gaps, 1)
	assert.Equal(t, date("2024-01-03"), gaps[0])
}

func TestMissingDatesFullyCovered(t *testing.T) {
	existing := keySet("2024-01-01", "2024-01-02", "2024-01-03")

	gaps, err := MissingDates(date("2024-01-01"), date("2024-01-03"), existing)
	require.NoError(t, err)
	assert.Empty(t, gaps)
}

func TestMissingDatesSingleDay(t *testing.T) {
	gaps, err := MissingDates(date("2024-06-15"), date("2024-06-15"), keySet())
	require.NoError(t, err)
	require.Len(t, gaps, 1)
	assert.Equal(t, date("2024-06-15"), gaps[0])
}

func TestMissingDatesStartAfterEnd(t *testing.T) {
	_, err := MissingDates(date("2024-01-10"), date("2024-01-01"), keySet())
	assert.ErrorIs(t, err, ErrInvalidDateRange)
}

func TestMissingDatesIgnoresDatesOutsideRange(t *testing.T) {
	// Existing dates outside the range must not affect the output.
	existing := keySet("2023-12-31", "2024-01-04")

	gaps, err := MissingDates(date("2024-01-01"), date("2024-01-03"), existing)
	require.NoError(t, err)
	assert.Len(t, gaps, 3)
}

// The output must partition the range against the existing set: ascending,
// duplicate-free, disjoint from existing, and jointly covering [start, end].
func TestMissingDatesPartitionProperty(t *testing.T) {
	start, end := date("2024-03-01"), date("2024-03-31")
	existing := keySet("2024-03-02", "2024-03-05", "2024-03-06", "2024-03-30")

	gaps, err := MissingDates(start, end, existing)
	require.NoError(t, err)

	seen := make(map[string]struct{})
	for i, g := range gaps {
		key := DayKey(g)

		_, dup := seen[key]
		assert.False(t, dup, "duplicate gap %s", key)
		seen[key] = struct{}{}

		_, inExisting := existing[key]
		assert.False(t, inExisting, "gap %s already stored", key)

		assert.False(t, g.Before(start) || g.After(end), "gap %s outside range", key)
		if i > 0 {
			assert.True(t, gaps[i-1].Before(g), "gaps not strictly ascending at %d", i)
		}
	}

	totalDays := int(end.Sub(start).Hours()/24) + 1
	assert.Equal(t, totalDays, len(gaps)+len(existing))
}

func TestMissingDatesNormalizesTimestamps(t *testing.T) {
	// Mid-day timestamps must behave like their calendar day.
	start := time.Date(2024, 1, 1, 13, 45, 0, 0, time.UTC)
	end := time.Date(2024, 1, 2, 4, 10, 0, 0, time.UTC)

	gaps, err := MissingDates(start, end, keySet("2024-01-01"))
	require.NoError(t, err)
	require.Len(t, gaps, 1)
	assert.Equal(t, date("2024-01-02"), gaps[0])
}
