package suntimes

import (
	"context"
	"time"
)

// Provider abstracts the external sun-time data source. Fetch performs one
// batched query covering the whole [start, end] window and returns one
// result per day. An empty slice with a nil error is the legitimate
// "no data" outcome (polar regions); it is not an error.
type Provider interface {
	Name() string
	Fetch(ctx context.Context, lat, lon float64, start, end time.Time) ([]ProviderResult, error)
}

// Resolver maps a free-text location to coordinates. Implementations
// distinguish ErrLocationNotFound from ErrResolverUnavailable.
type Resolver interface {
	Resolve(ctx context.Context, location string) (Coordinates, error)
}

// ListFilter narrows a Store.List call. Zero values mean "no filter".
// Start and End only apply when both are set.
type ListFilter struct {
	Location string
	Start    time.Time
	End      time.Time
	Limit    int
}

// Store is the contract the persistent record store must satisfy. Insert
// must atomically reject a duplicate (location, date) pair; records are
// write-once, so no update operation exists.
type Store interface {
	RecordsFor(location string, start, end time.Time) ([]SunTimeRecord, error)
	DatesPresent(location string, start, end time.Time) (map[string]struct{}, error)
	Insert(record *SunTimeRecord) error
	FindByID(id string) (SunTimeRecord, error)
	DeleteByID(id string) error
	List(filter ListFilter) ([]SunTimeRecord, error)
}
