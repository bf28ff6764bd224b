package schedule

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/mkraev/airsched/internal/domain"
	"github.com/mkraev/airsched/internal/repository"
)

type ItineraryUseCase interface {
	Create(ctx context.Context, input ItineraryInput) (*domain.Itinerary, error)
	GetByID(ctx context.Context, id int64) (*domain.Itinerary, error)
	List(ctx context.Context) ([]domain.Itinerary, error)
	Update(ctx context.Context, id int64, input ItineraryInput) (*domain.Itinerary, error)
	Delete(ctx context.Context, id int64) error
}

type ItineraryInput struct {
	Code                 string `json:"code"`
	OriginAirportID      int64  `json:"originAirportId"`
	DestinationAirportID int64  `json:"destinationAirportId"`
	DurationMinutes      int    `json:"durationMinutes"`
}

func (in ItineraryInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Code, validation.Required, is.Alphanumeric),
		validation.Field(&in.OriginAirportID, validation.Required, validation.Min(int64(1))),
		validation.Field(&in.DestinationAirportID, validation.Required, validation.Min(int64(1))),
		validation.Field(&in.DurationMinutes, validation.Required, validation.Min(1)),
	)
}

type ItineraryService struct {
	repo     repository.ItineraryRepository
	airports repository.AirportRepository
	cache    Cache
}

func NewItineraryService(repo repository.ItineraryRepository, airports repository.AirportRepository, cache Cache) *ItineraryService {
	return &ItineraryService{repo: repo, airports: airports, cache: cache}
}

func (s *ItineraryService) Create(ctx context.Context, input ItineraryInput) (*domain.Itinerary, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkAirports(ctx, input); err != nil {
		return nil, err
	}

	itinerary := &domain.Itinerary{
		Code:                 input.Code,
		OriginAirportID:      input.OriginAirportID,
		DestinationAirportID: input.DestinationAirportID,
		DurationMinutes:      input.DurationMinutes,
	}
	if err := s.repo.Create(ctx, itinerary); err != nil {
		return nil, err
	}
	return itinerary, nil
}

func (s *ItineraryService) GetByID(ctx context.Context, id int64) (*domain.Itinerary, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ItineraryService) List(ctx context.Context) ([]domain.Itinerary, error) {
	return s.repo.List(ctx)
}

func (s *ItineraryService) Update(ctx context.Context, id int64, input ItineraryInput) (*domain.Itinerary, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkAirports(ctx, input); err != nil {
		return nil, err
	}

	itinerary := &domain.Itinerary{
		ID:                   id,
		Code:                 input.Code,
		OriginAirportID:      input.OriginAirportID,
		DestinationAirportID: input.DestinationAirportID,
		DurationMinutes:      input.DurationMinutes,
	}
	if err := s.repo.Update(ctx, itinerary); err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.InvalidateAllFlightContexts(ctx)
	}
	return itinerary, nil
}

func (s *ItineraryService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.InvalidateAllFlightContexts(ctx)
	}
	return nil
}

func (s *ItineraryService) checkAirports(ctx context.Context, input ItineraryInput) error {
	ok, err := s.airports.Exists(ctx, input.OriginAirportID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("origin airport %d: %w", input.OriginAirportID, repository.ErrNotFound)
	}

	ok, err = s.airports.Exists(ctx, input.DestinationAirportID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("destination airport %d: %w", input.DestinationAirportID, repository.ErrNotFound)
	}
	return nil
}

var _ ItineraryUseCase = (*ItineraryService)(nil)
