package suntimes

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sunwatch/suntimes-service/internal/common"
)

const (
	// DateLayout is the canonical day-key format used for dates throughout
	// the service (gap sets, provider payloads, API responses).
	DateLayout = "2006-01-02"

	// TimeUnavailable marks a time-of-day field that has no value for the
	// day, e.g. no sunrise during polar night.
	TimeUnavailable = "N/A"

	// StatusPolarNoData is the status written on placeholder records when
	// the provider legitimately returns no data for a date.
	StatusPolarNoData = "POLAR_REGION_NO_DATA"

	// ZeroDayLength is the day length stored on placeholder records.
	ZeroDayLength = "00:00:00"
)

// SunTimeRecord is one calendar day's sun data for one location.
// Records are write-once: created when a gap is filled, never mutated.
// The (location, date) pair is unique, enforced by the store.
type SunTimeRecord struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	Location  string    `gorm:"not null;uniqueIndex:idx_sun_time_location_date,priority:1" json:"location"`
	Latitude  float64   `gorm:"not null" json:"latitude"`
	Longitude float64   `gorm:"not null" json:"longitude"`
	Date      time.Time `gorm:"not null;index;uniqueIndex:idx_sun_time_location_date,priority:2" json:"date"`

	Sunrise   string `json:"sunrise"`
	Sunset    string `json:"sunset"`
	SolarNoon string `json:"solar_noon"`
	DayLength string `json:"day_length"`

	CivilTwilightBegin        string `json:"civil_twilight_begin"`
	CivilTwilightEnd          string `json:"civil_twilight_end"`
	NauticalTwilightBegin     string `json:"nautical_twilight_begin"`
	NauticalTwilightEnd       string `json:"nautical_twilight_end"`
	AstronomicalTwilightBegin string `json:"astronomical_twilight_begin"`
	AstronomicalTwilightEnd   string `json:"astronomical_twilight_end"`
	GoldenHour                string `json:"golden_hour"`
	GoldenHourEnd             string `json:"golden_hour_end"`

	Timezone string `json:"timezone,omitempty"`
	Status   string `json:"status,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SunTimeRecord) TableName() string {
	return "sun_time_records"
}

func (r *SunTimeRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// IsPolarRegion reports whether the record marks a polar day/night date.
func (r *SunTimeRecord) IsPolarRegion() bool {
	return r.Status != "" && common.HasAny(r.Status, "POLAR", "MIDNIGHT")
}

// HasSunrise reports whether the record carries a usable sunrise time.
func (r *SunTimeRecord) HasSunrise() bool {
	return r.Sunrise != "" && r.Sunrise != TimeUnavailable
}

// HasSunset reports whether the record carries a usable sunset time.
func (r *SunTimeRecord) HasSunset() bool {
	return r.Sunset != "" && r.Sunset != TimeUnavailable
}

// Coordinates is the transient result of resolving a free-text location.
// It is never persisted by the core.
type Coordinates struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	FormattedAddress string  `json:"formatted_address,omitempty"`
	City             string  `json:"city,omitempty"`
	Country          string  `json:"country,omitempty"`
}

// ProviderResult is one day's raw sun-time payload as returned by the
// external provider, before it is turned into a SunTimeRecord.
type ProviderResult struct {
	Date                      string `json:"date"`
	Sunrise                   string `json:"sunrise"`
	Sunset                    string `json:"sunset"`
	SolarNoon                 string `json:"solar_noon"`
	DayLength                 string `json:"day_length"`
	CivilTwilightBegin        string `json:"civil_twilight_begin"`
	CivilTwilightEnd          string `json:"civil_twilight_end"`
	NauticalTwilightBegin     string `json:"nautical_twilight_begin"`
	NauticalTwilightEnd       string `json:"nautical_twilight_end"`
	AstronomicalTwilightBegin string `json:"astronomical_twilight_begin"`
	AstronomicalTwilightEnd   string `json:"astronomical_twilight_end"`
	GoldenHour                string `json:"golden_hour"`
	GoldenHourEnd             string `json:"golden_hour_end"`
	Timezone                  string `json:"timezone"`
	Status                    string `json:"status"`
}

// DayKey returns the canonical map key for a date, truncated to the day.
func DayKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ParseDate parses a YYYY-MM-DD string into a UTC midnight time.Time.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// NormalizeDate truncates a timestamp to its UTC calendar day.
func NormalizeDate(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
