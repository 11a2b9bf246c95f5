package store

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sunwatch/suntimes-service/internal/suntimes"
)

// listLimit caps how many rows a single List call may return.
const listLimit = 1000

// RecordStore is a GORM/SQLite implementation of the suntimes.Store
// contract. The unique composite index on (location, date) is the single
// arbiter for concurrent inserts of the same day: the loser gets
// ErrDuplicateRecord, never a silent overwrite.
type RecordStore struct {
	db *gorm.DB
}

// Open opens (creating if needed) the SQLite database at path and runs
// migrations. Use ":memory:" for an ephemeral store.
func Open(path string) (*RecordStore, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.AutoMigrate(&suntimes.SunTimeRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate sun_time_records: %w", err)
	}

	return &RecordStore{db: db}, nil
}

// RecordsFor returns all records for the location within [start, end]
// inclusive, ascending by date.
func (s *RecordStore) RecordsFor(location string, start, end time.Time) ([]suntimes.SunTimeRecord, error) {
	var records []suntimes.SunTimeRecord
	err := s.rangeQuery(location, start, end).
		Order("date ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	return records, nil
}

// DatesPresent returns the set of day keys already stored for the location
// within [start, end].
func (s *RecordStore) DatesPresent(location string, start, end time.Time) (map[string]struct{}, error) {
	var dates []time.Time
	err := s.rangeQuery(location, start, end).
		Pluck("date", &dates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query stored dates: %w", err)
	}

	present := make(map[string]struct{}, len(dates))
	for _, d := range dates {
		present[suntimes.DayKey(d)] = struct{}{}
	}
	return present, nil
}

func (s *RecordStore) rangeQuery(location string, start, end time.Time) *gorm.DB {
	return s.db.Model(&suntimes.SunTimeRecord{}).
		Where("location = ?", location).
		Where("date >= ? AND date <= ?", suntimes.NormalizeDate(start), suntimes.NormalizeDate(end))
}

// Insert persists a new record. The date is truncated to its UTC calendar
// day before writing so the uniqueness constraint compares days, not
// timestamps. A second insert for the same (location, date) fails with
// ErrDuplicateRecord.
func (s *RecordStore) Insert(record *suntimes.SunTimeRecord) error {
	if err := validateRecord(record); err != nil {
		return err
	}
	record.Date = suntimes.NormalizeDate(record.Date)

	if err := s.db.Create(record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return suntimes.ErrDuplicateRecord
		}
		log.Printf("ERROR: failed to insert record: %v", err)
		return fmt.Errorf("failed to insert record: %w", err)
	}
	return nil
}

func validateRecord(record *suntimes.SunTimeRecord) error {
	if strings.TrimSpace(record.Location) == "" {
		return fmt.Errorf("%w: location is required", suntimes.ErrValidation)
	}
	if record.Date.IsZero() {
		return fmt.Errorf("%w: date is required", suntimes.ErrValidation)
	}
	if record.Latitude < -90 || record.Latitude > 90 {
		return fmt.Errorf("%w: latitude must be between -90 and 90", suntimes.ErrValidation)
	}
	if record.Longitude < -180 || record.Longitude > 180 {
		return fmt.Errorf("%w: longitude must be between -180 and 180", suntimes.ErrValidation)
	}
	return nil
}

// FindByID returns the record with the given id.
func (s *RecordStore) FindByID(id string) (suntimes.SunTimeRecord, error) {
	var record suntimes.SunTimeRecord
	err := s.db.First(&record, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return suntimes.SunTimeRecord{}, suntimes.ErrNotFound
		}
		return suntimes.SunTimeRecord{}, fmt.Errorf("failed to find record: %w", err)
	}
	return record, nil
}

// DeleteByID removes the record with the given id.
func (s *RecordStore) DeleteByID(id string) error {
	result := s.db.Delete(&suntimes.SunTimeRecord{}, "id = ?", id)
	if result.Error != nil {
		return fmt.Errorf("failed to delete record: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return suntimes.ErrNotFound
	}
	return nil
}

// List returns records matching the filter, ascending by date, capped at
// 1000 rows.
func (s *RecordStore) List(filter suntimes.ListFilter) ([]suntimes.SunTimeRecord, error) {
	query := s.db.Model(&suntimes.SunTimeRecord{})

	if filter.Location != "" {
		query = query.Where("location = ?", filter.Location)
	}
	if !filter.Start.IsZero() && !filter.End.IsZero() {
		query = query.Where("date >= ? AND date <= ?",
			suntimes.NormalizeDate(filter.Start), suntimes.NormalizeDate(filter.End))
	}

	limit := filter.Limit
	if limit <= 0 || limit > listLimit {
		limit = listLimit
	}

	var records []suntimes.SunTimeRecord
	if err := query.Order("date ASC").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	return records, nil
}
