package geocoding

import (
	"context"
	"fmt"
	"strings"

	"github.com/kelvins/geocoder"

	"github.com/sunwatch/suntimes-service/internal/suntimes"
)

// GoogleResolver resolves locations through the Google Geocoding API via the
// kelvins/geocoder client. Requires an API key.
type GoogleResolver struct{}

// NewGoogleResolver configures the geocoder client with the API key and
// returns a resolver backed by it.
func NewGoogleResolver(apiKey string) *GoogleResolver {
	geocoder.ApiKey = apiKey
	return &GoogleResolver{}
}

// Resolve maps a free-text location to coordinates. "City" or
// "City, Country" forms are supported.
func (r *GoogleResolver) Resolve(ctx context.Context, location string) (suntimes.Coordinates, error) {
	location = strings.TrimSpace(location)
	if location == "" {
		return suntimes.Coordinates{}, fmt.Errorf("%w: location cannot be empty", suntimes.ErrLocationNotFound)
	}

	address := addressFromText(location)

	loc, err := geocoder.Geocoding(address)
	if err != nil {
		if isNoResults(err) {
			return suntimes.Coordinates{}, fmt.Errorf("%w: %q not found", suntimes.ErrLocationNotFound, location)
		}
		return suntimes.Coordinates{}, fmt.Errorf("%w: %v", suntimes.ErrResolverUnavailable, err)
	}

	return suntimes.Coordinates{
		Latitude:         loc.Latitude,
		Longitude:        loc.Longitude,
		FormattedAddress: location,
		City:             address.City,
		Country:          address.Country,
	}, nil
}

// addressFromText splits "City, Country" style input into an Address; a
// single segment is treated as the city.
func addressFromText(location string) geocoder.Address {
	parts := strings.Split(location, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	address := geocoder.Address{City: parts[0]}
	if len(parts) > 1 {
		address.Country = parts[len(parts)-1]
	}
	if len(parts) > 2 {
		address.State = parts[1]
	}
	return address
}

func isNoResults(err error) bool {
	msg := strings.ToUpper(err.Error())
	return strings.Contains(msg, "ZERO_RESULTS") || strings.Contains(msg, "NO RESULTS")
}
