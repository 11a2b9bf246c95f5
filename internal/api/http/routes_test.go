package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/sunwatch/suntimes-service/internal/store"
	"github.com/sunwatch/suntimes-service/internal/suntimes"
)

type stubResolver struct {
	coords suntimes.Coordinates
	err    error
}

func (r stubResolver) Resolve(ctx context.Context, location string) (suntimes.Coordinates, error) {
	if r.err != nil {
		return suntimes.Coordinates{}, r.err
	}
	return r.coords, nil
}

type stubProvider struct {
	results []suntimes.ProviderResult
	err     error
	calls   int
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Fetch(ctx context.Context, lat, lon float64, start, end time.Time) ([]suntimes.ProviderResult, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.results, nil
}

func newTestApp(t *testing.T, resolver suntimes.Resolver, provider suntimes.Provider) (*fiber.App, *store.RecordStore) {
	t.Helper()

	recordStore, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	svc := suntimes.NewService(recordStore, resolver, provider)
	RegisterRoutes(app, svc)
	return app, recordStore
}

func decodeError(t *testing.T, resp *http.Response) (message, code string) {
	t.Helper()
	var body struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body.Error.Message, body.Error.Code
}

// TestCreateMissingParameter verifies the required-field check produces the
// MISSING_PARAMETER envelope.
func TestCreateMissingParameter(t *testing.T) {
	app, _ := newTestApp(t, stubResolver{}, &stubProvider{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sun_times",
		strings.NewReader(`{"location": "Lisbon", "start_date": "2024-01-01"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}

	message, code := decodeError(t, resp)
	if code != "MISSING_PARAMETER" {
		t.Fatalf("expected code MISSING_PARAMETER, got %q", code)
	}
	if !strings.Contains(message, "end_date") {
		t.Fatalf("expected message to name the missing field, got %q", message)
	}
}

// TestCreateInvalidDateRange verifies an inverted range is rejected before
// any resolution or fetch.
func TestCreateInvalidDateRange(t *testing.T) {
	provider := &stubProvider{}
	app, _ := newTestApp(t, stubResolver{err: suntimes.ErrResolverUnavailable}, provider)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sun_times",
		strings.NewReader(`{"location": "Lisbon", "start_date": "2024-01-10", "end_date": "2024-01-01"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
	if _, code := decodeError(t, resp); code != "INVALID_DATE_RANGE" {
		t.Fatalf("expected code INVALID_DATE_RANGE, got %q", code)
	}
	if provider.calls != 0 {
		t.Fatalf("provider must not be called, got %d calls", provider.calls)
	}
}

func TestCreateUnknownLocation(t *testing.T) {
	app, _ := newTestApp(t, stubResolver{err: suntimes.ErrLocationNotFound}, &stubProvider{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sun_times",
		strings.NewReader(`{"location": "Atlantis", "start_date": "2024-01-01", "end_date": "2024-01-02"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("expected status %d, got %d", http.StatusUnprocessableEntity, resp.StatusCode)
	}
	if _, code := decodeError(t, resp); code != "LOCATION_NOT_FOUND" {
		t.Fatalf("expected code LOCATION_NOT_FOUND, got %q", code)
	}
}

func TestCreateProviderFailure(t *testing.T) {
	resolver := stubResolver{coords: suntimes.Coordinates{Latitude: 38.7, Longitude: -9.1}}
	app, _ := newTestApp(t, resolver, &stubProvider{err: suntimes.ErrProviderUnavailable})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sun_times",
		strings.NewReader(`{"location": "Lisbon", "start_date": "2024-01-01", "end_date": "2024-01-02"}`))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected status %d, got %d", http.StatusBadGateway, resp.StatusCode)
	}
	if _, code := decodeError(t, resp); code != "EXTERNAL_API_ERROR" {
		t.Fatalf("expected code EXTERNAL_API_ERROR, got %q", code)
	}
}

// TestCreateHappyPath exercises reconcile end to end: empty store, resolver
// and provider stubbed, three days requested and returned in order.
func TestCreateHappyPath(t *testing.T) {
	resolver := stubResolver{coords: suntimes.Coordinates{Latitude: 38.7223, Longitude: -9.1393}}
	provider := &stubProvider{results: []suntimes.ProviderResult{
		{Date: "2024-01-01", Sunrise: "7:54:01 AM", Sunset: "5:21:35 PM", DayLength: "9:27:34"},
		{Date: "2024-01-02", Sunrise: "7:54:07 AM", Sunset: "5:22:25 PM", DayLength: "9:28:18"},
		{Date: "2024-01-03", Sunrise: "7:54:10 AM", Sunset: "5:23:17 PM", DayLength: "9:29:07"},
	}}
	app, _ := newTestApp(t, resolver, provider)

	body := `{"location": "Lisbon", "start_date": "2024-01-01", "end_date": "2024-01-03"}`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sun_times", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var payload struct {
		Count   int `json:"count"`
		Records []struct {
			Location         string   `json:"location"`
			Sunrise          string   `json:"sunrise"`
			FormattedDate    string   `json:"formatted_date"`
			DayLengthMinutes *float64 `json:"day_length_minutes"`
			IsPolarRegion    bool     `json:"is_polar_region"`
		} `json:"records"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if payload.Count != 3 {
		t.Fatalf("expected 3 records, got %d", payload.Count)
	}
	for i, want := range []string{"2024-01-01", "2024-01-02", "2024-01-03"} {
		if payload.Records[i].FormattedDate != want {
			t.Fatalf("expected record %d on %s, got %s", i, want, payload.Records[i].FormattedDate)
		}
		if payload.Records[i].DayLengthMinutes == nil {
			t.Fatalf("expected day_length_minutes on record %d", i)
		}
		if payload.Records[i].IsPolarRegion {
			t.Fatalf("record %d should not be flagged polar", i)
		}
	}

	// Second identical request is served from the store: no new fetch.
	req = httptest.NewRequest(http.MethodPost, "/api/v1/sun_times", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}
	if provider.calls != 1 {
		t.Fatalf("expected exactly 1 provider call, got %d", provider.calls)
	}
}

func TestListWithFilters(t *testing.T) {
	app, recordStore := newTestApp(t, stubResolver{}, &stubProvider{})

	seed := func(location, date string) {
		d, _ := suntimes.ParseDate(date)
		if err := recordStore.Insert(&suntimes.SunTimeRecord{
			Location: location, Latitude: 38.7, Longitude: -9.1, Date: d,
		}); err != nil {
			t.Fatalf("failed to seed record: %v", err)
		}
	}
	seed("Lisbon", "2024-01-01")
	seed("Lisbon", "2024-01-02")
	seed("Porto", "2024-01-01")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sun_times?location=Lisbon&start_date=2024-01-01&end_date=2024-01-01", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var payload struct {
		Count int `json:"count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Count != 1 {
		t.Fatalf("expected 1 record, got %d", payload.Count)
	}
}

func TestShowAndDelete(t *testing.T) {
	app, recordStore := newTestApp(t, stubResolver{}, &stubProvider{})

	d, _ := suntimes.ParseDate("2024-01-01")
	rec := &suntimes.SunTimeRecord{Location: "Lisbon", Latitude: 38.7, Longitude: -9.1, Date: d}
	if err := recordStore.Insert(rec); err != nil {
		t.Fatalf("failed to seed record: %v", err)
	}

	// Show.
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/sun_times/"+rec.ID, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	// Delete.
	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/api/v1/sun_times/"+rec.ID, nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected status %d, got %d", http.StatusNoContent, resp.StatusCode)
	}

	// Both now 404 with the NOT_FOUND code.
	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		resp, err = app.Test(httptest.NewRequest(method, "/api/v1/sun_times/"+rec.ID, nil))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("%s: expected status %d, got %d", method, http.StatusNotFound, resp.StatusCode)
		}
		if _, code := decodeError(t, resp); code != "NOT_FOUND" {
			t.Fatalf("%s: expected code NOT_FOUND, got %q", method, code)
		}
	}
}
