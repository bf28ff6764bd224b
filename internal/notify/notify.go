package notify

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/mkraev/airsched/internal/kafka"
)

// Sender turns reservation events into passenger confirmations. The
// delivery channel is a stub; see the worker for where it is consumed.
type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.ReservationEvent) error {
	var text string
	switch event.Type {
	case kafka.EventReservationBooked:
		text = fmt.Sprintf("Seat confirmed for %s on flight %d (%s).", event.PassengerName, event.FlightID, event.ItineraryCode)
	case kafka.EventReservationCancelled:
		text = fmt.Sprintf("Reservation %d for %s was cancelled.", event.ReservationID, event.PassengerName)
	default:
		log.Warn("unknown reservation event", "type", event.Type)
		return nil
	}

	log.Info("notification", "reservation_id", event.ReservationID, "text", text)
	return nil
}
