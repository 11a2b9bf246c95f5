package suntimes

import (
	"context"
	"errors"
	"log"
	"time"
)

// Service reconciles requested date ranges against the store, fetching only
// the missing dates from the provider and persisting them idempotently.
type Service struct {
	store    Store
	resolver Resolver
	provider Provider
}

// NewService creates a new Service.
func NewService(store Store, resolver Resolver, provider Provider) *Service {
	return &Service{
		store:    store,
		resolver: resolver,
		provider: provider,
	}
}

// Reconcile returns the complete, date-ordered sun-time dataset for the
// location and inclusive [start, end] range, fetching whatever the store is
// missing. The steady state (everything already stored) performs zero
// external calls. The returned slice is always re-read from the store so it
// reflects true store state, including writes from a concurrent
// reconciliation of the same range.
func (s *Service) Reconcile(ctx context.Context, location string, start, end time.Time) ([]SunTimeRecord, error) {
	start = NormalizeDate(start)
	end = NormalizeDate(end)

	if end.Before(start) {
		return nil, ErrInvalidDateRange
	}

	log.Printf("INFO: reconciling %q from %s to %s", location, DayKey(start), DayKey(end))

	coords, err := s.resolver.Resolve(ctx, location)
	if err != nil {
		return nil, err
	}
	log.Printf("INFO: resolved %q to (%f, %f)", location, coords.Latitude, coords.Longitude)

	existing, err := s.store.DatesPresent(location, start, end)
	if err != nil {
		return nil, err
	}

	gaps, err := MissingDates(start, end, existing)
	if err != nil {
		return nil, err
	}

	if len(gaps) > 0 {
		log.Printf("INFO: %d of %d dates missing for %q; fetching", len(gaps), len(existing)+len(gaps), location)
		if err := s.fetchAndStore(ctx, location, coords, gaps, start, end); err != nil {
			return nil, err
		}
	}

	return s.store.RecordsFor(location, start, end)
}

// fetchAndStore performs the single batched provider fetch for the whole
// requested window and persists results for the gap dates. A provider error
// aborts before anything is written. Individual insert failures are logged
// and skipped: a duplicate means a concurrent reconciliation already
// satisfied the gap, and one bad provider row must not lose the rest.
func (s *Service) fetchAndStore(ctx context.Context, location string, coords Coordinates, gaps []time.Time, start, end time.Time) error {
	results, err := s.provider.Fetch(ctx, coords.Latitude, coords.Longitude, start, end)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		// Legitimate no-data outcome. Persist a placeholder for every gap
		// date so none of them is re-fetched on the next request.
		log.Printf("INFO: provider returned no results for %q; writing %d placeholder records", location, len(gaps))
		for _, date := range gaps {
			s.insertTolerant(placeholderRecord(location, coords, date))
		}
		return nil
	}

	gapSet := make(map[string]struct{}, len(gaps))
	for _, d := range gaps {
		gapSet[DayKey(d)] = struct{}{}
	}

	for _, result := range results {
		date, err := ParseDate(result.Date)
		if err != nil {
			log.Printf("ERROR: provider result has unparseable date %q; skipping", result.Date)
			continue
		}
		// Results outside the gap set are redundant: either the date is
		// already stored or the provider returned more than asked. Existing
		// records are immutable and never overwritten.
		if _, ok := gapSet[DayKey(date)]; !ok {
			continue
		}
		s.insertTolerant(recordFromResult(location, coords, date, result))
	}
	return nil
}

func (s *Service) insertTolerant(record *SunTimeRecord) {
	if err := s.store.Insert(record); err != nil {
		if errors.Is(err, ErrDuplicateRecord) {
			// Lost the race against a concurrent reconciliation; the gap is
			// already satisfied.
			log.Printf("INFO: record for %q on %s already exists; skipping", record.Location, DayKey(record.Date))
			return
		}
		log.Printf("ERROR: failed to store record for %q on %s: %v", record.Location, DayKey(record.Date), err)
	}
}

func recordFromResult(location string, coords Coordinates, date time.Time, result ProviderResult) *SunTimeRecord {
	return &SunTimeRecord{
		Location:                  location,
		Latitude:                  coords.Latitude,
		Longitude:                 coords.Longitude,
		Date:                      date,
		Sunrise:                   result.Sunrise,
		Sunset:                    result.Sunset,
		SolarNoon:                 result.SolarNoon,
		DayLength:                 result.DayLength,
		CivilTwilightBegin:        result.CivilTwilightBegin,
		CivilTwilightEnd:          result.CivilTwilightEnd,
		NauticalTwilightBegin:     result.NauticalTwilightBegin,
		NauticalTwilightEnd:       result.NauticalTwilightEnd,
		AstronomicalTwilightBegin: result.AstronomicalTwilightBegin,
		AstronomicalTwilightEnd:   result.AstronomicalTwilightEnd,
		GoldenHour:                result.GoldenHour,
		GoldenHourEnd:             result.GoldenHourEnd,
		Timezone:                  result.Timezone,
		Status:                    result.Status,
	}
}

func placeholderRecord(location string, coords Coordinates, date time.Time) *SunTimeRecord {
	return &SunTimeRecord{
		Location:  location,
		Latitude:  coords.Latitude,
		Longitude: coords.Longitude,
		Date:      date,
		Sunrise:   TimeUnavailable,
		Sunset:    TimeUnavailable,
		SolarNoon: TimeUnavailable,
		DayLength: ZeroDayLength,
		Status:    StatusPolarNoData,
	}
}

// List delegates to the underlying store.
func (s *Service) List(filter ListFilter) ([]SunTimeRecord, error) {
	return s.store.List(filter)
}

// Get delegates to the underlying store.
func (s *Service) Get(id string) (SunTimeRecord, error) {
	return s.store.FindByID(id)
}

// Delete delegates to the underlying store.
func (s *Service) Delete(id string) error {
	return s.store.DeleteByID(id)
}
