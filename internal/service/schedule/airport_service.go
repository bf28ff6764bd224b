package schedule

import (
	"context"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/mkraev/airsched/internal/domain"
	"github.com/mkraev/airsched/internal/repository"
)

// Timezones are stored as fixed GMT offsets, e.g. GMT+3 or GMT-11.
var timezonePattern = regexp.MustCompile(`^GMT[+-](?:[0-9]|1[0-2])$`)

type AirportUseCase interface {
	Create(ctx context.Context, input AirportInput) (*domain.Airport, error)
	GetByID(ctx context.Context, id int64) (*domain.Airport, error)
	List(ctx context.Context) ([]domain.Airport, error)
	Update(ctx context.Context, id int64, input AirportInput) (*domain.Airport, error)
	Delete(ctx context.Context, id int64) error
}

type AirportInput struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timezone  string  `json:"timezone"`
}

func (in AirportInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, is.Alphanumeric),
		validation.Field(&in.Latitude, validation.Min(-90.0), validation.Max(90.0)),
		validation.Field(&in.Longitude, validation.Min(-180.0), validation.Max(180.0)),
		validation.Field(&in.Timezone, validation.Required, validation.Match(timezonePattern)),
	)
}

type AirportService struct {
	repo  repository.AirportRepository
	cache Cache
}

func NewAirportService(repo repository.AirportRepository, cache Cache) *AirportService {
	return &AirportService{repo: repo, cache: cache}
}

func (s *AirportService) Create(ctx context.Context, input AirportInput) (*domain.Airport, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	airport := &domain.Airport{
		Name:      input.Name,
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
		Timezone:  input.Timezone,
	}
	if err := s.repo.Create(ctx, airport); err != nil {
		return nil, err
	}
	return airport, nil
}

func (s *AirportService) GetByID(ctx context.Context, id int64) (*domain.Airport, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *AirportService) List(ctx context.Context) ([]domain.Airport, error) {
	return s.repo.List(ctx)
}

func (s *AirportService) Update(ctx context.Context, id int64, input AirportInput) (*domain.Airport, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	airport := &domain.Airport{
		ID:        id,
		Name:      input.Name,
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
		Timezone:  input.Timezone,
	}
	if err := s.repo.Update(ctx, airport); err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.InvalidateAllFlightContexts(ctx)
	}
	return airport, nil
}

func (s *AirportService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.InvalidateAllFlightContexts(ctx)
	}
	return nil
}

var _ AirportUseCase = (*AirportService)(nil)
