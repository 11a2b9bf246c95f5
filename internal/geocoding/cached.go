package geocoding

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/sunwatch/suntimes-service/internal/suntimes"
)

// DefaultCacheExpiry is how long resolved coordinates stay cached.
// Coordinates for a place effectively never change, so this is generous.
const DefaultCacheExpiry = 30 * 24 * time.Hour

// CachedResolver wraps any resolver with an expiring in-memory cache keyed
// by normalized location text. Only successful resolutions are cached;
// failures always hit the inner resolver again.
type CachedResolver struct {
	inner suntimes.Resolver
	cache *cache.Cache
}

// NewCachedResolver creates a caching wrapper around inner. A non-positive
// expiry falls back to DefaultCacheExpiry.
func NewCachedResolver(inner suntimes.Resolver, expiry time.Duration) *CachedResolver {
	if expiry <= 0 {
		expiry = DefaultCacheExpiry
	}
	return &CachedResolver{
		inner: inner,
		cache: cache.New(expiry, expiry/2),
	}
}

func (r *CachedResolver) Resolve(ctx context.Context, location string) (suntimes.Coordinates, error) {
	key := cacheKey(location)

	if cached, ok := r.cache.Get(key); ok {
		if coords, ok := cached.(suntimes.Coordinates); ok {
			return coords, nil
		}
	}

	coords, err := r.inner.Resolve(ctx, location)
	if err != nil {
		return suntimes.Coordinates{}, err
	}

	r.cache.SetDefault(key, coords)
	log.Printf("INFO: cached coordinates for %q", location)
	return coords, nil
}

// cacheKey normalizes a location into a stable cache key: lowercase, with
// every non-alphanumeric run collapsed to underscores.
func cacheKey(location string) string {
	var b strings.Builder
	b.WriteString("geocoding:")
	for _, c := range strings.ToLower(strings.TrimSpace(location)) {
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') {
			b.WriteRune(c)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String()
}
