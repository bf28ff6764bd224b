package schedule

import (
	"context"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/mkraev/airsched/internal/domain"
	"github.com/mkraev/airsched/internal/repository"
)

type FlightUseCase interface {
	Create(ctx context.Context, input FlightInput) (*domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	GetContext(ctx context.Context, id int64) (*domain.FlightContext, error)
	List(ctx context.Context, filter repository.FlightFilter) ([]domain.Flight, error)
	Update(ctx context.Context, id int64, input FlightInput) (*domain.Flight, error)
	Delete(ctx context.Context, id int64) error
}

type FlightInput struct {
	ItineraryID   int64     `json:"itineraryId"`
	AirplaneID    int64     `json:"airplaneId"`
	DepartureTime time.Time `json:"departureTime"`
	ArrivalTime   time.Time `json:"arrivalTime"`
}

func (in FlightInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.ItineraryID, validation.Required, validation.Min(int64(1))),
		validation.Field(&in.AirplaneID, validation.Required, validation.Min(int64(1))),
		validation.Field(&in.DepartureTime, validation.Required),
		validation.Field(&in.ArrivalTime, validation.Required, validation.Min(in.DepartureTime).Exclusive()),
	)
}

// FlightCache is the read-side cache used by the flight service. It is
// a subset of what the booking service uses plus list invalidation.
type FlightCache interface {
	Cache
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	SetFlights(ctx context.Context, flights []domain.Flight) error
}

type FlightService struct {
	repo        repository.FlightRepository
	itineraries repository.ItineraryRepository
	airplanes   repository.AirplaneRepository
	cache       FlightCache
}

func NewFlightService(
	repo repository.FlightRepository,
	itineraries repository.ItineraryRepository,
	airplanes repository.AirplaneRepository,
	cache FlightCache,
) *FlightService {
	return &FlightService{repo: repo, itineraries: itineraries, airplanes: airplanes, cache: cache}
}

func (s *FlightService) Create(ctx context.Context, input FlightInput) (*domain.Flight, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, input); err != nil {
		return nil, err
	}

	flight := &domain.Flight{
		ItineraryID:   input.ItineraryID,
		AirplaneID:    input.AirplaneID,
		DepartureTime: input.DepartureTime,
		ArrivalTime:   input.ArrivalTime,
	}
	if err := s.repo.Create(ctx, flight); err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.InvalidateFlights(ctx)
	}
	return flight, nil
}

func (s *FlightService) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *FlightService) GetContext(ctx context.Context, id int64) (*domain.FlightContext, error) {
	return s.repo.GetContext(ctx, id)
}

// List serves the unfiltered listing from cache when possible; filtered
// queries always hit the store.
func (s *FlightService) List(ctx context.Context, filter repository.FlightFilter) ([]domain.Flight, error) {
	unfiltered := filter == repository.FlightFilter{}
	if unfiltered && s.cache != nil {
		if cached, err := s.cache.GetFlights(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	flights, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if unfiltered && s.cache != nil {
		_ = s.cache.SetFlights(ctx, flights)
	}
	return flights, nil
}

func (s *FlightService) Update(ctx context.Context, id int64, input FlightInput) (*domain.Flight, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkReferences(ctx, input); err != nil {
		return nil, err
	}

	flight := &domain.Flight{
		ID:            id,
		ItineraryID:   input.ItineraryID,
		AirplaneID:    input.AirplaneID,
		DepartureTime: input.DepartureTime,
		ArrivalTime:   input.ArrivalTime,
	}
	if err := s.repo.Update(ctx, flight); err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.InvalidateFlights(ctx)
		_ = s.cache.InvalidateFlightContext(ctx, id)
	}
	return flight, nil
}

func (s *FlightService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.InvalidateFlights(ctx)
		_ = s.cache.InvalidateFlightContext(ctx, id)
	}
	return nil
}

func (s *FlightService) checkReferences(ctx context.Context, input FlightInput) error {
	ok, err := s.itineraries.Exists(ctx, input.ItineraryID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("itinerary %d: %w", input.ItineraryID, repository.ErrNotFound)
	}

	ok, err = s.airplanes.Exists(ctx, input.AirplaneID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("airplane %d: %w", input.AirplaneID, repository.ErrNotFound)
	}
	return nil
}

var _ FlightUseCase = (*FlightService)(nil)
