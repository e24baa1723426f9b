// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current church is not
// authorized to mutate a listing owned by someone else, while
// ErrConflict signals a business-rule collision such as a
// double-booked venue.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an operation collides with existing
// state, such as booking a venue whose window is already taken.
var ErrConflict = errors.New("conflict")

// ErrVenueNotFound indicates that a venue was not located in the DB.
var ErrVenueNotFound = errors.New("venue not found")

// ErrEquipmentNotFound indicates that an equipment item was not located in the DB.
var ErrEquipmentNotFound = errors.New("equipment not found")

// ErrBookingNotFound indicates that a booking was not located in the DB.
var ErrBookingNotFound = errors.New("booking not found")

// ErrChurchNotFound indicates that a church account was not located in the DB.
var ErrChurchNotFound = errors.New("church not found")
