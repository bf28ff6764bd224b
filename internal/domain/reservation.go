package domain

import "time"

type Reservation struct {
	ID            int64
	PassengerName string
	FlightID      int64
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ReservationDetail pairs a reservation with the flight context it was
// booked against. This is the denormalized confirmation shape.
type ReservationDetail struct {
	Reservation Reservation
	Context     FlightContext
}
