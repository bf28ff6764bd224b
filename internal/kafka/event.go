package kafka

import "time"

const (
	EventReservationBooked    = "reservation_booked"
	EventReservationCancelled = "reservation_cancelled"
)

// ReservationEvent is the payload published on every reservation
// lifecycle change. EventID is a fresh uuid per message.
type ReservationEvent struct {
	EventID       string    `json:"event_id"`
	Type          string    `json:"type"`
	ReservationID int64     `json:"reservation_id"`
	FlightID      int64     `json:"flight_id"`
	PassengerName string    `json:"passenger_name"`
	ItineraryCode string    `json:"itinerary_code"`
	OccurredAt    time.Time `json:"occurred_at"`
}
