package booking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mkraev/airsched/internal/domain"
	"github.com/mkraev/airsched/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockReservationRepository struct {
	mock.Mock
}

func (m *MockReservationRepository) CreateAdmitted(ctx context.Context, reservation *domain.Reservation) error {
	args := m.Called(ctx, reservation)
	return args.Error(0)
}

func (m *MockReservationRepository) GetByID(ctx context.Context, id int64) (*domain.Reservation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Reservation), args.Error(1)
}

func (m *MockReservationRepository) ListByFlight(ctx context.Context, flightID int64) ([]domain.Reservation, error) {
	args := m.Called(ctx, flightID)
	return args.Get(0).([]domain.Reservation), args.Error(1)
}

func (m *MockReservationRepository) CountByFlight(ctx context.Context, flightID int64) (int, error) {
	args := m.Called(ctx, flightID)
	return args.Int(0), args.Error(1)
}

func (m *MockReservationRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockFlightRepository struct {
	mock.Mock
}

func (m *MockFlightRepository) Create(ctx context.Context, flight *domain.Flight) error {
	args := m.Called(ctx, flight)
	return args.Error(0)
}

func (m *MockFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) GetContext(ctx context.Context, id int64) (*domain.FlightContext, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FlightContext), args.Error(1)
}

func (m *MockFlightRepository) List(ctx context.Context, filter repository.FlightFilter) ([]domain.Flight, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) Update(ctx context.Context, flight *domain.Flight) error {
	args := m.Called(ctx, flight)
	return args.Error(0)
}

func (m *MockFlightRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockFlightRepository) Exists(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

type MockContextCache struct {
	mock.Mock
}

func (m *MockContextCache) GetFlightContext(ctx context.Context, flightID int64) (*domain.FlightContext, error) {
	args := m.Called(ctx, flightID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.FlightContext), args.Error(1)
}

func (m *MockContextCache) SetFlightContext(ctx context.Context, fc *domain.FlightContext) error {
	args := m.Called(ctx, fc)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) Publish(ctx context.Context, topic, key string, value interface{}) error {
	args := m.Called(ctx, topic, key, value)
	return args.Error(0)
}

func sampleContext(flightID int64, capacity int) *domain.FlightContext {
	return &domain.FlightContext{
		Flight: domain.Flight{
			ID:            flightID,
			ItineraryID:   7,
			AirplaneID:    3,
			DepartureTime: time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
			ArrivalTime:   time.Date(2026, 9, 1, 13, 30, 0, 0, time.UTC),
		},
		Itinerary: domain.Itinerary{
			ID:                   7,
			Code:                 "SVOLED1",
			OriginAirportID:      1,
			DestinationAirportID: 2,
			DurationMinutes:      210,
		},
		OriginAirport:      domain.Airport{ID: 1, Name: "Sheremetyevo", Latitude: 55.97, Longitude: 37.41, Timezone: "GMT+3"},
		DestinationAirport: domain.Airport{ID: 2, Name: "Pulkovo", Latitude: 59.8, Longitude: 30.26, Timezone: "GMT+3"},
		Airplane:           domain.Airplane{ID: 3, Name: "RA73001", Model: "A320", Capacity: capacity},
	}
}

func TestBookingService_Book_Success(t *testing.T) {
	reservations := &MockReservationRepository{}
	flights := &MockFlightRepository{}
	service := NewBookingService(reservations, flights, nil, nil, "")

	fc := sampleContext(42, 180)
	flights.On("GetContext", mock.Anything, int64(42)).Return(fc, nil)
	reservations.On("CreateAdmitted", mock.Anything, mock.AnythingOfType("*domain.Reservation")).
		Run(func(args mock.Arguments) {
			res := args.Get(1).(*domain.Reservation)
			res.ID = 100
			res.CreatedAt = time.Now()
			res.UpdatedAt = res.CreatedAt
		}).Return(nil)

	detail, err := service.Book(context.Background(), BookInput{PassengerName: "Ivanov", FlightID: 42})
	assert.NoError(t, err)
	assert.Equal(t, int64(100), detail.Reservation.ID)
	assert.Equal(t, "Ivanov", detail.Reservation.PassengerName)
	assert.Equal(t, int64(42), detail.Reservation.FlightID)
	assert.Equal(t, *fc, detail.Context)

	reservations.AssertExpectations(t)
	flights.AssertExpectations(t)
}

func TestBookingService_Book_ValidationErrors(t *testing.T) {
	reservations := &MockReservationRepository{}
	flights := &MockFlightRepository{}
	service := NewBookingService(reservations, flights, nil, nil, "")

	cases := []struct {
		name  string
		input BookInput
	}{
		{"empty name", BookInput{PassengerName: "", FlightID: 1}},
		{"one rune name", BookInput{PassengerName: "A", FlightID: 1}},
		{"non alphanumeric name", BookInput{PassengerName: "Iva nov!", FlightID: 1}},
		{"zero flight id", BookInput{PassengerName: "Ivanov", FlightID: 0}},
		{"negative flight id", BookInput{PassengerName: "Ivanov", FlightID: -5}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.Book(context.Background(), tc.input)
			assert.Error(t, err)
		})
	}

	// The store is never touched for malformed input.
	flights.AssertNotCalled(t, "GetContext", mock.Anything, mock.Anything)
	reservations.AssertNotCalled(t, "CreateAdmitted", mock.Anything, mock.Anything)
}

func TestBookingService_Book_NoSuchFlight(t *testing.T) {
	reservations := &MockReservationRepository{}
	flights := &MockFlightRepository{}
	service := NewBookingService(reservations, flights, nil, nil, "")

	flights.On("GetContext", mock.Anything, int64(9999)).Return(nil, repository.ErrNotFound)

	_, err := service.Book(context.Background(), BookInput{PassengerName: "Ivanov", FlightID: 9999})
	assert.ErrorIs(t, err, ErrNoSuchFlight)

	reservations.AssertNotCalled(t, "CreateAdmitted", mock.Anything, mock.Anything)
}

func TestBookingService_Book_FlightFull(t *testing.T) {
	reservations := &MockReservationRepository{}
	flights := &MockFlightRepository{}
	service := NewBookingService(reservations, flights, nil, nil, "")

	flights.On("GetContext", mock.Anything, int64(42)).Return(sampleContext(42, 1), nil)
	reservations.On("CreateAdmitted", mock.Anything, mock.Anything).Return(repository.ErrFlightFull)

	_, err := service.Book(context.Background(), BookInput{PassengerName: "Ivanov", FlightID: 42})
	assert.ErrorIs(t, err, ErrFlightFull)
}

func TestBookingService_Book_FlightDeletedBetweenResolveAndAdmit(t *testing.T) {
	reservations := &MockReservationRepository{}
	flights := &MockFlightRepository{}
	service := NewBookingService(reservations, flights, nil, nil, "")

	flights.On("GetContext", mock.Anything, int64(42)).Return(sampleContext(42, 1), nil)
	reservations.On("CreateAdmitted", mock.Anything, mock.Anything).Return(repository.ErrNotFound)

	_, err := service.Book(context.Background(), BookInput{PassengerName: "Ivanov", FlightID: 42})
	assert.ErrorIs(t, err, ErrNoSuchFlight)
}

func TestBookingService_Book_CacheHit(t *testing.T) {
	reservations := &MockReservationRepository{}
	flights := &MockFlightRepository{}
	cache := &MockContextCache{}
	service := NewBookingService(reservations, flights, cache, nil, "")

	fc := sampleContext(42, 180)
	cache.On("GetFlightContext", mock.Anything, int64(42)).Return(fc, nil)
	reservations.On("CreateAdmitted", mock.Anything, mock.Anything).Return(nil)

	_, err := service.Book(context.Background(), BookInput{PassengerName: "Ivanov", FlightID: 42})
	assert.NoError(t, err)

	flights.AssertNotCalled(t, "GetContext", mock.Anything, mock.Anything)
	cache.AssertExpectations(t)
}

func TestBookingService_Book_CacheMissFillsCache(t *testing.T) {
	reservations := &MockReservationRepository{}
	flights := &MockFlightRepository{}
	cache := &MockContextCache{}
	service := NewBookingService(reservations, flights, cache, nil, "")

	fc := sampleContext(42, 180)
	cache.On("GetFlightContext", mock.Anything, int64(42)).Return(nil, nil)
	cache.On("SetFlightContext", mock.Anything, fc).Return(nil)
	flights.On("GetContext", mock.Anything, int64(42)).Return(fc, nil)
	reservations.On("CreateAdmitted", mock.Anything, mock.Anything).Return(nil)

	_, err := service.Book(context.Background(), BookInput{PassengerName: "Ivanov", FlightID: 42})
	assert.NoError(t, err)
	cache.AssertExpectations(t)
}

func TestBookingService_Book_PublishFailureTolerated(t *testing.T) {
	reservations := &MockReservationRepository{}
	flights := &MockFlightRepository{}
	producer := &MockProducer{}
	service := NewBookingService(reservations, flights, nil, producer, "reservation-events")

	flights.On("GetContext", mock.Anything, int64(42)).Return(sampleContext(42, 180), nil)
	reservations.On("CreateAdmitted", mock.Anything, mock.Anything).Return(nil)
	producer.On("Publish", mock.Anything, "reservation-events", mock.Anything, mock.Anything).
		Return(errors.New("broker down"))

	detail, err := service.Book(context.Background(), BookInput{PassengerName: "Ivanov", FlightID: 42})
	assert.NoError(t, err)
	assert.NotNil(t, detail)
	producer.AssertExpectations(t)
}

func TestBookingService_Book_PublishesNotifications(t *testing.T) {
	reservations := &MockReservationRepository{}
	flights := &MockFlightRepository{}
	producer := &MockProducer{}
	service := NewBookingService(reservations, flights, nil, producer, "reservation-events",
		WithNotificationsTopic("reservation-notifications"))

	flights.On("GetContext", mock.Anything, int64(42)).Return(sampleContext(42, 180), nil)
	reservations.On("CreateAdmitted", mock.Anything, mock.Anything).Return(nil)
	producer.On("Publish", mock.Anything, "reservation-events", mock.Anything, mock.Anything).Return(nil)
	producer.On("Publish", mock.Anything, "reservation-notifications", mock.Anything, mock.Anything).Return(nil)

	_, err := service.Book(context.Background(), BookInput{PassengerName: "Ivanov", FlightID: 42})
	assert.NoError(t, err)
	producer.AssertExpectations(t)
}

func TestBookingService_ListByFlight(t *testing.T) {
	reservations := &MockReservationRepository{}
	flights := &MockFlightRepository{}
	service := NewBookingService(reservations, flights, nil, nil, "")

	fc := sampleContext(42, 180)
	rows := []domain.Reservation{
		{ID: 1, PassengerName: "Ivanov", FlightID: 42},
		{ID: 2, PassengerName: "Petrova", FlightID: 42},
	}
	flights.On("GetContext", mock.Anything, int64(42)).Return(fc, nil).Once()
	reservations.On("ListByFlight", mock.Anything, int64(42)).Return(rows, nil)

	details, err := service.ListByFlight(context.Background(), 42)
	assert.NoError(t, err)
	assert.Len(t, details, 2)
	assert.Equal(t, "Ivanov", details[0].Reservation.PassengerName)
	assert.Equal(t, "Petrova", details[1].Reservation.PassengerName)
	assert.Equal(t, *fc, details[0].Context)
	assert.Equal(t, *fc, details[1].Context)

	// The context is resolved once for the whole listing.
	flights.AssertNumberOfCalls(t, "GetContext", 1)
}

func TestBookingService_ListByFlight_NoSuchFlight(t *testing.T) {
	reservations := &MockReservationRepository{}
	flights := &MockFlightRepository{}
	service := NewBookingService(reservations, flights, nil, nil, "")

	flights.On("GetContext", mock.Anything, int64(9999)).Return(nil, repository.ErrNotFound)

	_, err := service.ListByFlight(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrNoSuchFlight)
	reservations.AssertNotCalled(t, "ListByFlight", mock.Anything, mock.Anything)
}

func TestBookingService_Cancel(t *testing.T) {
	reservations := &MockReservationRepository{}
	flights := &MockFlightRepository{}
	service := NewBookingService(reservations, flights, nil, nil, "")

	res := &domain.Reservation{ID: 5, PassengerName: "Ivanov", FlightID: 42}
	reservations.On("GetByID", mock.Anything, int64(5)).Return(res, nil)
	reservations.On("Delete", mock.Anything, int64(5)).Return(nil)

	assert.NoError(t, service.Cancel(context.Background(), 5))
	reservations.AssertExpectations(t)
}

func TestBookingService_Cancel_NotFound(t *testing.T) {
	reservations := &MockReservationRepository{}
	flights := &MockFlightRepository{}
	service := NewBookingService(reservations, flights, nil, nil, "")

	reservations.On("GetByID", mock.Anything, int64(5)).Return(nil, repository.ErrNotFound)

	err := service.Cancel(context.Background(), 5)
	assert.ErrorIs(t, err, ErrReservationNotFound)
	reservations.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

// fakeReservationRepo enforces the capacity rule the way the postgres
// repository does, with a mutex standing in for the row lock. It lets
// the capacity properties run against real service code paths.
type fakeReservationRepo struct {
	mu       sync.Mutex
	capacity map[int64]int
	nextID   int64
	rows     []domain.Reservation
}

func newFakeReservationRepo(capacity map[int64]int) *fakeReservationRepo {
	return &fakeReservationRepo{capacity: capacity}
}

func (f *fakeReservationRepo) CreateAdmitted(_ context.Context, res *domain.Reservation) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	capacity, ok := f.capacity[res.FlightID]
	if !ok {
		return repository.ErrNotFound
	}
	taken := 0
	for _, row := range f.rows {
		if row.FlightID == res.FlightID {
			taken++
		}
	}
	if taken >= capacity {
		return repository.ErrFlightFull
	}

	f.nextID++
	res.ID = f.nextID
	res.CreatedAt = time.Now()
	res.UpdatedAt = res.CreatedAt
	f.rows = append(f.rows, *res)
	return nil
}

func (f *fakeReservationRepo) GetByID(_ context.Context, id int64) (*domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.ID == id {
			r := row
			return &r, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeReservationRepo) ListByFlight(_ context.Context, flightID int64) ([]domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Reservation, 0)
	for _, row := range f.rows {
		if row.FlightID == flightID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeReservationRepo) CountByFlight(_ context.Context, flightID int64) (int, error) {
	rows, _ := f.ListByFlight(context.Background(), flightID)
	return len(rows), nil
}

func (f *fakeReservationRepo) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, row := range f.rows {
		if row.ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

var _ repository.ReservationRepository = (*fakeReservationRepo)(nil)

func TestBookingService_CapacityBoundary(t *testing.T) {
	repo := newFakeReservationRepo(map[int64]int{42: 2})
	flights := &MockFlightRepository{}
	flights.On("GetContext", mock.Anything, int64(42)).Return(sampleContext(42, 2), nil)
	service := NewBookingService(repo, flights, nil, nil, "")

	ctx := context.Background()
	_, err := service.Book(ctx, BookInput{PassengerName: "PassengerA", FlightID: 42})
	assert.NoError(t, err)
	_, err = service.Book(ctx, BookInput{PassengerName: "PassengerB", FlightID: 42})
	assert.NoError(t, err)
	_, err = service.Book(ctx, BookInput{PassengerName: "PassengerC", FlightID: 42})
	assert.ErrorIs(t, err, ErrFlightFull)

	details, err := service.ListByFlight(ctx, 42)
	assert.NoError(t, err)
	assert.Len(t, details, 2)
	assert.Equal(t, "PassengerA", details[0].Reservation.PassengerName)
	assert.Equal(t, "PassengerB", details[1].Reservation.PassengerName)
}

func TestBookingService_ConcurrentBookingsNeverOvershoot(t *testing.T) {
	const capacity = 5
	const attempts = 40

	repo := newFakeReservationRepo(map[int64]int{42: capacity})
	flights := &MockFlightRepository{}
	flights.On("GetContext", mock.Anything, int64(42)).Return(sampleContext(42, capacity), nil)
	service := NewBookingService(repo, flights, nil, nil, "")

	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.Book(context.Background(), BookInput{PassengerName: "Passenger", FlightID: 42})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	admitted, rejected := 0, 0
	for err := range results {
		switch {
		case err == nil:
			admitted++
		case errors.Is(err, ErrFlightFull):
			rejected++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, capacity, admitted)
	assert.Equal(t, attempts-capacity, rejected)

	n, _ := repo.CountByFlight(context.Background(), 42)
	assert.Equal(t, capacity, n)
}

func TestBookingService_CancelThenRebook(t *testing.T) {
	repo := newFakeReservationRepo(map[int64]int{42: 1})
	flights := &MockFlightRepository{}
	flights.On("GetContext", mock.Anything, int64(42)).Return(sampleContext(42, 1), nil)
	service := NewBookingService(repo, flights, nil, nil, "")

	ctx := context.Background()
	first, err := service.Book(ctx, BookInput{PassengerName: "Ivanov", FlightID: 42})
	assert.NoError(t, err)

	_, err = service.Book(ctx, BookInput{PassengerName: "Petrova", FlightID: 42})
	assert.ErrorIs(t, err, ErrFlightFull)

	assert.NoError(t, service.Cancel(ctx, first.Reservation.ID))

	// Canceling twice rejects the second attempt.
	assert.ErrorIs(t, service.Cancel(ctx, first.Reservation.ID), ErrReservationNotFound)

	second, err := service.Book(ctx, BookInput{PassengerName: "Petrova", FlightID: 42})
	assert.NoError(t, err)
	assert.NotEqual(t, first.Reservation.ID, second.Reservation.ID)

	n, _ := repo.CountByFlight(ctx, 42)
	assert.Equal(t, 1, n)
}
