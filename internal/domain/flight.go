package domain

import "time"

type Flight struct {
	ID            int64
	ItineraryID   int64
	AirplaneID    int64
	DepartureTime time.Time
	ArrivalTime   time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// FlightContext is a flight hydrated with everything a reservation
// confirmation needs: its itinerary, both airports and the airplane.
// It is assembled in one repository query and reused for every
// reservation returned against the same flight.
type FlightContext struct {
	Flight             Flight
	Itinerary          Itinerary
	OriginAirport      Airport
	DestinationAirport Airport
	Airplane           Airplane
}
