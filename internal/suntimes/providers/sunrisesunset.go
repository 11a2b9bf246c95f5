package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"github.com/sunwatch/suntimes-service/internal/suntimes"
)

const (
	// maxDateRangeDays is the widest window the provider accepts per query.
	maxDateRangeDays = 365

	userAgent = "suntimes-service/1.0"
)

// SunriseSunsetProvider implements the suntimes.Provider interface for
// api.sunrisesunset.io.
type SunriseSunsetProvider struct {
	name     string
	baseURL  string
	timezone string
	client   *http.Client
	circuit  *gobreaker.CircuitBreaker
}

// Option configures a SunriseSunsetProvider.
type Option func(*SunriseSunsetProvider)

// WithBaseURL overrides the provider endpoint, mainly for tests.
func WithBaseURL(u string) Option {
	return func(p *SunriseSunsetProvider) { p.baseURL = u }
}

// WithTimezone asks the provider to format times in the given timezone
// instead of the location's local one.
func WithTimezone(tz string) Option {
	return func(p *SunriseSunsetProvider) { p.timezone = tz }
}

func NewSunriseSunsetProvider(client *http.Client, opts ...Option) *SunriseSunsetProvider {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "sunrisesunset",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	p := &SunriseSunsetProvider{
		name:    "sunrisesunset.io",
		baseURL: "https://api.sunrisesunset.io/json",
		client:  client,
		circuit: cb,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *SunriseSunsetProvider) Name() string {
	return p.name
}

// Fetch performs one batched query covering the whole [start, end] window.
// Parameter violations fail fast without touching the network. An empty
// result set (ZERO_RESULTS or a success envelope with no rows) is returned
// as a nil error with an empty slice: that is the legitimate polar outcome,
// distinct from every error path.
func (p *SunriseSunsetProvider) Fetch(ctx context.Context, lat, lon float64, start, end time.Time) ([]suntimes.ProviderResult, error) {
	if err := validateParameters(lat, lon, start, end); err != nil {
		return nil, err
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("lat", fmt.Sprintf("%f", lat))
		values.Set("lng", fmt.Sprintf("%f", lon))
		values.Set("date_start", start.UTC().Format(suntimes.DateLayout))
		values.Set("date_end", end.UTC().Format(suntimes.DateLayout))
		if p.timezone != "" {
			values.Set("timezone", p.timezone)
		}

		u := fmt.Sprintf("%s?%s", p.baseURL, values.Encode())
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", userAgent)
		return req, nil
	}

	resp, err := doRequestWithBreaker(ctx, p.client, p.circuit, buildRequest)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", suntimes.ErrProviderUnavailable, err)
	}

	var payload struct {
		Results json.RawMessage `json:"results"`
		Status  string          `json:"status"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", suntimes.ErrMalformedResponse, err)
	}

	if payload.Status != "OK" {
		return classifyStatus(payload.Status, lat, lon)
	}

	return decodeResults(payload.Results, lat, lon)
}

func validateParameters(lat, lon float64, start, end time.Time) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude must be between -90 and 90", suntimes.ErrInvalidQuery)
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("%w: longitude must be between -180 and 180", suntimes.ErrInvalidQuery)
	}
	start = suntimes.NormalizeDate(start)
	end = suntimes.NormalizeDate(end)
	if end.Before(start) {
		return fmt.Errorf("%w: end date must be on or after start date", suntimes.ErrInvalidDateRange)
	}
	if days := int(end.Sub(start).Hours() / 24); days > maxDateRangeDays {
		return fmt.Errorf("%w: date range cannot exceed %d days, requested %d", suntimes.ErrInvalidDateRange, maxDateRangeDays, days)
	}
	return nil
}

func classifyStatus(status string, lat, lon float64) ([]suntimes.ProviderResult, error) {
	switch status {
	case "ZERO_RESULTS":
		// Valid for polar regions during parts of the year.
		log.Printf("INFO: provider returned ZERO_RESULTS for (%f, %f)", lat, lon)
		return []suntimes.ProviderResult{}, nil
	case "INVALID_REQUEST":
		return nil, fmt.Errorf("%w: provider rejected the request", suntimes.ErrInvalidQuery)
	case "INVALID_DATE":
		return nil, fmt.Errorf("%w: provider rejected the date format", suntimes.ErrInvalidDateRange)
	default:
		return nil, fmt.Errorf("%w: status %s", suntimes.ErrProvider, status)
	}
}

// decodeResults accepts either an array of day results or, for single-day
// queries, a bare object, and normalizes both to a slice.
func decodeResults(raw json.RawMessage, lat, lon float64) ([]suntimes.ProviderResult, error) {
	if len(raw) == 0 || string(raw) == "null" {
		log.Printf("INFO: provider returned no results for (%f, %f)", lat, lon)
		return []suntimes.ProviderResult{}, nil
	}

	var results []suntimes.ProviderResult
	if err := json.Unmarshal(raw, &results); err == nil {
		return results, nil
	}

	var single suntimes.ProviderResult
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, fmt.Errorf("%w: unexpected results shape", suntimes.ErrMalformedResponse)
	}
	return []suntimes.ProviderResult{single}, nil
}
