package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sunwatch/suntimes-service/internal/suntimes"
)

const nominatimUserAgent = "suntimes-service/1.0"

// NominatimResolver resolves free-text locations against the OpenStreetMap
// Nominatim search API. It needs no API key.
type NominatimResolver struct {
	baseURL string
	client  *http.Client
}

// NewNominatimResolver creates a resolver against the given base URL
// (https://nominatim.openstreetmap.org when empty).
func NewNominatimResolver(client *http.Client, baseURL string) *NominatimResolver {
	if baseURL == "" {
		baseURL = "https://nominatim.openstreetmap.org"
	}
	return &NominatimResolver{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

// Resolve maps a free-text location to coordinates. An empty result set is
// ErrLocationNotFound; transport and server failures are
// ErrResolverUnavailable.
func (r *NominatimResolver) Resolve(ctx context.Context, location string) (suntimes.Coordinates, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return suntimes.Coordinates{}, fmt.Errorf("%w: location cannot be empty", suntimes.ErrLocationNotFound)
	}

	values := url.Values{}
	values.Set("q", location)
	values.Set("format", "json")
	values.Set("limit", "1")
	values.Set("addressdetails", "1")

	u := fmt.Sprintf("%s/search?%s", r.baseURL, values.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return suntimes.Coordinates{}, err
	}
	req.Header.Set("User-Agent", nominatimUserAgent)

	resp, err := r.client.Do(req)
	if err != nil {
		return suntimes.Coordinates{}, fmt.Errorf("%w: %v", suntimes.ErrResolverUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return suntimes.Coordinates{}, fmt.Errorf("%w: nominatim returned status %d", suntimes.ErrResolverUnavailable, resp.StatusCode)
	}

	var results []struct {
		Lat         string `json:"lat"`
		Lon         string `json:"lon"`
		DisplayName string `json:"display_name"`
		Address     struct {
			City    string `json:"city"`
			Town    string `json:"town"`
			Village string `json:"village"`
			Country string `json:"country"`
		} `json:"address"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return suntimes.Coordinates{}, fmt.Errorf("%w: %v", suntimes.ErrResolverUnavailable, err)
	}

	if len(results) == 0 {
		return suntimes.Coordinates{}, fmt.Errorf(
			"%w: %q not found, check the spelling or try a different format (e.g. \"City, Country\")",
			suntimes.ErrLocationNotFound, location)
	}

	first := results[0]
	lat, err := strconv.ParseFloat(first.Lat, 64)
	if err != nil {
		return suntimes.Coordinates{}, fmt.Errorf("%w: bad latitude %q", suntimes.ErrResolverUnavailable, first.Lat)
	}
	lon, err := strconv.ParseFloat(first.Lon, 64)
	if err != nil {
		return suntimes.Coordinates{}, fmt.Errorf("%w: bad longitude %q", suntimes.ErrResolverUnavailable, first.Lon)
	}

	city := first.Address.City
	if city == "" {
		city = first.Address.Town
	}
	if city == "" {
		city = first.Address.Village
	}

	formatted := first.DisplayName
	if formatted == "" {
		formatted = location
	}

	return suntimes.Coordinates{
		Latitude:         lat,
		Longitude:        lon,
		FormattedAddress: formatted,
		City:             city,
		Country:          first.Address.Country,
	}, nil
}
