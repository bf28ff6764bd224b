package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mkraev/airsched/internal/domain"
	"github.com/mkraev/airsched/internal/service/booking"
)

type ReservationHandler struct {
	service booking.BookingUseCase
}

func NewReservationHandler(service booking.BookingUseCase) *ReservationHandler {
	return &ReservationHandler{service: service}
}

func (h *ReservationHandler) Register(router *gin.RouterGroup, flights *gin.RouterGroup) {
	router.POST("/", h.book)
	router.DELETE("/", h.cancel)
	flights.GET("/:id/reservations", h.listByFlight)
}

// The confirmation shape is denormalized on purpose: a reservation
// carries the full flight, itinerary, both airports and the airplane,
// so a client never needs follow-up lookups. Listing reuses the same
// shape per item.

type airportView struct {
	ID        int64   `json:"ID"`
	Name      string  `json:"Name"`
	Latitude  float64 `json:"Latitude"`
	Longitude float64 `json:"Longitude"`
	Timezone  string  `json:"Timezone"`
}

type itineraryView struct {
	ID                 int64       `json:"ID"`
	Code               string      `json:"Code"`
	OriginAirport      airportView `json:"OriginAirport"`
	DestinationAirport airportView `json:"DestinationAirport"`
	DurationMinutes    int         `json:"DurationMinutes"`
}

type airplaneView struct {
	ID       int64  `json:"ID"`
	Name     string `json:"Name"`
	Model    string `json:"Model"`
	Capacity int    `json:"Capacity"`
}

type flightView struct {
	ID            int64         `json:"ID"`
	DepartureTime string        `json:"DepartureTime"`
	ArrivalTime   string        `json:"ArrivalTime"`
	Itinerary     itineraryView `json:"Itinerary"`
	Airplane      airplaneView  `json:"Airplane"`
}

type reservationView struct {
	ID            int64      `json:"ID"`
	PassengerName string     `json:"PassengerName"`
	Flight        flightView `json:"Flight"`
	UpdatedAt     string     `json:"updatedAt"`
	CreatedAt     string     `json:"createdAt"`
}

func toReservationView(d domain.ReservationDetail) reservationView {
	fc := d.Context
	return reservationView{
		ID:            d.Reservation.ID,
		PassengerName: d.Reservation.PassengerName,
		Flight: flightView{
			ID:            fc.Flight.ID,
			DepartureTime: fc.Flight.DepartureTime.Format(time.RFC3339),
			ArrivalTime:   fc.Flight.ArrivalTime.Format(time.RFC3339),
			Itinerary: itineraryView{
				ID:                 fc.Itinerary.ID,
				Code:               fc.Itinerary.Code,
				OriginAirport:      toAirportView(fc.OriginAirport),
				DestinationAirport: toAirportView(fc.DestinationAirport),
				DurationMinutes:    fc.Itinerary.DurationMinutes,
			},
			Airplane: airplaneView{
				ID:       fc.Airplane.ID,
				Name:     fc.Airplane.Name,
				Model:    fc.Airplane.Model,
				Capacity: fc.Airplane.Capacity,
			},
		},
		UpdatedAt: d.Reservation.UpdatedAt.Format(time.RFC3339),
		CreatedAt: d.Reservation.CreatedAt.Format(time.RFC3339),
	}
}

func toAirportView(a domain.Airport) airportView {
	return airportView{
		ID:        a.ID,
		Name:      a.Name,
		Latitude:  a.Latitude,
		Longitude: a.Longitude,
		Timezone:  a.Timezone,
	}
}

func (h *ReservationHandler) book(c *gin.Context) {
	var req booking.BookInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	detail, err := h.service.Book(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, booking.ErrNoSuchFlight):
			c.JSON(http.StatusConflict, gin.H{"error": "No such flight exists."})
		case errors.Is(err, booking.ErrFlightFull):
			c.JSON(http.StatusConflict, gin.H{"error": "The flight is already full."})
		default:
			writeError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     "Reservation successfully created.",
		"reservation": toReservationView(*detail),
	})
}

func (h *ReservationHandler) listByFlight(c *gin.Context) {
	flightID, ok := parseID(c, "id")
	if !ok {
		return
	}

	details, err := h.service.ListByFlight(c.Request.Context(), flightID)
	if err != nil {
		if errors.Is(err, booking.ErrNoSuchFlight) {
			c.JSON(http.StatusConflict, gin.H{"error": "No such flight exists."})
			return
		}
		writeError(c, err)
		return
	}

	views := make([]reservationView, 0, len(details))
	for _, d := range details {
		views = append(views, toReservationView(d))
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      "Reservations successfully retrieved.",
		"reservations": views,
	})
}

// cancel takes a body of exactly {"ID": <int>}. Anything else, missing
// or extra fields included, is a 400.
func (h *ReservationHandler) cancel(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	raw, present := fields["ID"]
	if !present || len(fields) != 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must contain exactly one field: ID"})
		return
	}
	var id int64
	if err := json.Unmarshal(raw, &id); err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID must be a positive integer"})
		return
	}

	if err := h.service.Cancel(c.Request.Context(), id); err != nil {
		if errors.Is(err, booking.ErrReservationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "No such reservation exists."})
			return
		}
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Reservation successfully cancelled."})
}
