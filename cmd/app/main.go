package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/getsentry/sentry-go"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/mkraev/airsched/config"
	"github.com/mkraev/airsched/internal/bootstrap"
	"github.com/mkraev/airsched/internal/cache"
	"github.com/mkraev/airsched/internal/kafka"
	"github.com/mkraev/airsched/internal/repository"
	"github.com/mkraev/airsched/internal/service/booking"
	"github.com/mkraev/airsched/internal/service/schedule"
)

func main() {
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatal("load config", "err", err)
	}

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN}); err != nil {
			log.Fatal("init sentry", "err", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatal("connect postgres", "err", err)
	}
	defer pool.Close()

	cacheTTL := time.Duration(cfg.Cache.TTLSeconds) * time.Second
	redisCache := cache.NewRedisCache(cfg.Redis, cacheTTL)

	producer := kafka.NewProducer(cfg.Kafka.Brokers)
	defer producer.Close()

	airportRepo := repository.NewAirportRepository(pool)
	itineraryRepo := repository.NewItineraryRepository(pool)
	airplaneRepo := repository.NewAirplaneRepository(pool)
	flightRepo := repository.NewFlightRepository(pool)
	reservationRepo := repository.NewReservationRepository(pool)

	svc := bootstrap.Services{
		Airports:    schedule.NewAirportService(airportRepo, redisCache),
		Itineraries: schedule.NewItineraryService(itineraryRepo, airportRepo, redisCache),
		Airplanes:   schedule.NewAirplaneService(airplaneRepo, redisCache),
		Flights:     schedule.NewFlightService(flightRepo, itineraryRepo, airplaneRepo, redisCache),
		Reservations: booking.NewBookingService(
			reservationRepo,
			flightRepo,
			redisCache,
			producer,
			cfg.Kafka.ReservationsTopic,
			booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		),
	}

	log.Info("starting server", "addr", cfg.HTTP.Address)
	if err := bootstrap.Run(ctx, cfg, svc); err != nil {
		log.Fatal("server error", "err", err)
	}
}
