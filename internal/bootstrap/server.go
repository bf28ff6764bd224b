package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mkraev/airsched/api"
	"github.com/mkraev/airsched/config"
	"github.com/mkraev/airsched/internal/service/booking"
	"github.com/mkraev/airsched/internal/service/schedule"
	httpSwagger "github.com/swaggo/http-swagger"
)

// Services bundles everything the HTTP surface needs.
type Services struct {
	Airports     schedule.AirportUseCase
	Itineraries  schedule.ItineraryUseCase
	Airplanes    schedule.AirplaneUseCase
	Flights      schedule.FlightUseCase
	Reservations booking.BookingUseCase
}

// Run starts the HTTP server and blocks until the context is canceled
// or the server fails.
func Run(ctx context.Context, cfg *config.Config, svc Services) error {
	router := NewRouter(cfg, svc)

	srv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func NewRouter(cfg *config.Config, svc Services) *gin.Engine {
	router := gin.Default()

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api.NewAirportHandler(svc.Airports).Register(router.Group("/airports"))
	api.NewItineraryHandler(svc.Itineraries).Register(router.Group("/itineraries"))
	api.NewAirplaneHandler(svc.Airplanes).Register(router.Group("/airplanes"))

	flights := router.Group("/flights")
	api.NewFlightHandler(svc.Flights).Register(flights)
	api.NewReservationHandler(svc.Reservations).Register(router.Group("/reservations"), flights)

	if cfg.HTTP.SwaggerDir != "" {
		router.StaticFile("/docs/openapi.json", cfg.HTTP.SwaggerDir+"/openapi.json")
		router.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(
			httpSwagger.URL("/docs/openapi.json"),
		)))
	}

	return router
}
