package schedule

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/mkraev/airsched/internal/domain"
	"github.com/mkraev/airsched/internal/repository"
)

type AirplaneUseCase interface {
	Create(ctx context.Context, input AirplaneInput) (*domain.Airplane, error)
	GetByID(ctx context.Context, id int64) (*domain.Airplane, error)
	List(ctx context.Context) ([]domain.Airplane, error)
	Update(ctx context.Context, id int64, input AirplaneInput) (*domain.Airplane, error)
	Delete(ctx context.Context, id int64) error
}

type AirplaneInput struct {
	Name     string `json:"name"`
	Model    string `json:"model"`
	Capacity int    `json:"capacity"`
}

func (in AirplaneInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Name, validation.Required, is.Alphanumeric),
		validation.Field(&in.Model, validation.Required),
		validation.Field(&in.Capacity, validation.Required, validation.Min(1)),
	)
}

type AirplaneService struct {
	repo  repository.AirplaneRepository
	cache Cache
}

func NewAirplaneService(repo repository.AirplaneRepository, cache Cache) *AirplaneService {
	return &AirplaneService{repo: repo, cache: cache}
}

func (s *AirplaneService) Create(ctx context.Context, input AirplaneInput) (*domain.Airplane, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	airplane := &domain.Airplane{
		Name:     input.Name,
		Model:    input.Model,
		Capacity: input.Capacity,
	}
	if err := s.repo.Create(ctx, airplane); err != nil {
		return nil, err
	}
	return airplane, nil
}

func (s *AirplaneService) GetByID(ctx context.Context, id int64) (*domain.Airplane, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *AirplaneService) List(ctx context.Context) ([]domain.Airplane, error) {
	return s.repo.List(ctx)
}

func (s *AirplaneService) Update(ctx context.Context, id int64, input AirplaneInput) (*domain.Airplane, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	airplane := &domain.Airplane{
		ID:       id,
		Name:     input.Name,
		Model:    input.Model,
		Capacity: input.Capacity,
	}
	if err := s.repo.Update(ctx, airplane); err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.InvalidateAllFlightContexts(ctx)
	}
	return airplane, nil
}

func (s *AirplaneService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.InvalidateAllFlightContexts(ctx)
	}
	return nil
}

var _ AirplaneUseCase = (*AirplaneService)(nil)
