package domain

import "time"

type Itinerary struct {
	ID                   int64
	Code                 string
	OriginAirportID      int64
	DestinationAirportID int64
	DurationMinutes      int
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
