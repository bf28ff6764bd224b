// Package repository holds the pgx-backed storage for scheduling data
// and reservations. The sentinel errors below let service and handler
// layers tell failure kinds apart without depending on postgres error
// codes.
package repository

import "errors"

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned on uniqueness violations and on deletes
// blocked by dependent rows (restrict-delete policy).
var ErrConflict = errors.New("conflict")

// ErrFlightFull is returned by the reservation admission transaction
// when the flight already carries as many reservations as its airplane
// has seats.
var ErrFlightFull = errors.New("flight is full")
