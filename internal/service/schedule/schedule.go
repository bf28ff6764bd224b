// Package schedule holds the administrative services for airports,
// itineraries, airplanes and flights. Each create or update validates
// its input declaratively and checks that referenced rows exist before
// touching the store.
package schedule

import "context"

// Cache is the slice of the redis cache the schedule services need to
// keep read paths coherent after mutations. A nil Cache is valid.
type Cache interface {
	InvalidateFlights(ctx context.Context) error
	InvalidateFlightContext(ctx context.Context, flightID int64) error
	InvalidateAllFlightContexts(ctx context.Context) error
}
