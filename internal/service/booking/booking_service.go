package booking

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"
	"github.com/mkraev/airsched/internal/domain"
	"github.com/mkraev/airsched/internal/kafka"
	"github.com/mkraev/airsched/internal/repository"
)

// ErrNoSuchFlight is returned when the requested flight does not exist.
var ErrNoSuchFlight = errors.New("no such flight exists")

// ErrFlightFull is returned when every seat of the flight's airplane is
// already reserved.
var ErrFlightFull = errors.New("the flight is already full")

// ErrReservationNotFound is returned by Cancel for an unknown id.
var ErrReservationNotFound = errors.New("reservation not found")

type BookingUseCase interface {
	Book(ctx context.Context, input BookInput) (*domain.ReservationDetail, error)
	ListByFlight(ctx context.Context, flightID int64) ([]domain.ReservationDetail, error)
	Cancel(ctx context.Context, reservationID int64) error
}

// ContextCache fronts the flight-context resolver. A nil cache is valid
// and every resolve goes to the store.
type ContextCache interface {
	GetFlightContext(ctx context.Context, flightID int64) (*domain.FlightContext, error)
	SetFlightContext(ctx context.Context, fc *domain.FlightContext) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	reservations       repository.ReservationRepository
	flights            repository.FlightRepository
	cache              ContextCache
	producer           Producer
	reservationsTopic  string
	notificationsTopic string
}

type BookInput struct {
	PassengerName string `json:"passengerName"`
	FlightID      int64  `json:"flightId"`
}

func (in BookInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.PassengerName, validation.Required, is.Alphanumeric, validation.Length(2, 0)),
		validation.Field(&in.FlightID, validation.Required, validation.Min(int64(1))),
	)
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func NewBookingService(
	reservations repository.ReservationRepository,
	flights repository.FlightRepository,
	cache ContextCache,
	producer Producer,
	reservationsTopic string,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		reservations:      reservations,
		flights:           flights,
		cache:             cache,
		producer:          producer,
		reservationsTopic: reservationsTopic,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

// Book admits the passenger onto the flight if a seat is free. The
// admission itself is decided inside the reservation repository's
// transaction; the context resolved here is only used to build the
// confirmation and to pre-reject unknown flights.
func (s *BookingService) Book(ctx context.Context, input BookInput) (*domain.ReservationDetail, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	fc, err := s.resolveContext(ctx, input.FlightID)
	if err != nil {
		return nil, err
	}

	res := &domain.Reservation{
		PassengerName: input.PassengerName,
		FlightID:      input.FlightID,
	}
	if err := s.reservations.CreateAdmitted(ctx, res); err != nil {
		switch {
		case errors.Is(err, repository.ErrFlightFull):
			return nil, ErrFlightFull
		case errors.Is(err, repository.ErrNotFound):
			// Flight deleted between resolve and admit.
			return nil, ErrNoSuchFlight
		}
		return nil, err
	}

	s.publish(ctx, kafka.EventReservationBooked, res, fc)
	return &domain.ReservationDetail{Reservation: *res, Context: *fc}, nil
}

// ListByFlight resolves the flight context once and reuses it for every
// returned reservation.
func (s *BookingService) ListByFlight(ctx context.Context, flightID int64) ([]domain.ReservationDetail, error) {
	fc, err := s.resolveContext(ctx, flightID)
	if err != nil {
		return nil, err
	}

	rows, err := s.reservations.ListByFlight(ctx, flightID)
	if err != nil {
		return nil, err
	}

	details := make([]domain.ReservationDetail, 0, len(rows))
	for _, row := range rows {
		details = append(details, domain.ReservationDetail{Reservation: row, Context: *fc})
	}
	return details, nil
}

func (s *BookingService) Cancel(ctx context.Context, reservationID int64) error {
	res, err := s.reservations.GetByID(ctx, reservationID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrReservationNotFound
		}
		return err
	}

	if err := s.reservations.Delete(ctx, reservationID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrReservationNotFound
		}
		return err
	}

	s.publish(ctx, kafka.EventReservationCancelled, res, nil)
	return nil
}

func (s *BookingService) resolveContext(ctx context.Context, flightID int64) (*domain.FlightContext, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetFlightContext(ctx, flightID); err == nil && cached != nil {
			return cached, nil
		}
	}

	fc, err := s.flights.GetContext(ctx, flightID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNoSuchFlight
		}
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetFlightContext(ctx, fc)
	}
	return fc, nil
}

func (s *BookingService) publish(ctx context.Context, eventType string, res *domain.Reservation, fc *domain.FlightContext) {
	if s.producer == nil || s.reservationsTopic == "" {
		return
	}

	event := kafka.ReservationEvent{
		EventID:       uuid.NewString(),
		Type:          eventType,
		ReservationID: res.ID,
		FlightID:      res.FlightID,
		PassengerName: res.PassengerName,
		OccurredAt:    time.Now(),
	}
	if fc != nil {
		event.ItineraryCode = fc.Itinerary.Code
	}

	if err := s.producer.Publish(ctx, s.reservationsTopic, event.EventID, event); err != nil {
		log.Warn("publish reservation event failed", "type", eventType, "reservation_id", res.ID, "err", err)
		return
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, event.EventID, event); err != nil {
			log.Warn("publish notification failed", "type", eventType, "reservation_id", res.ID, "err", err)
		}
	}
}

var _ BookingUseCase = (*BookingService)(nil)
