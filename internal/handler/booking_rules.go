package handler

// booking_rules.go holds the pure rules of the booking engine: window
// validation, conflict predicates, pricing and the status workflow.  They are
// kept free of I/O so the engine's arithmetic can be tested directly.

import (
	"math"
	"time"

	"github.com/ndlovu/church-venue-hire/internal/repository"
)

// Venues operate between these hours, evaluated on the UTC clock the whole
// pipeline runs on (windows are normalized to UTC at the handler and stored
// with loc=UTC).  A booking may end exactly at closing time but not start
// at it.
const (
	openingHour = 7
	closingHour = 18
)

// Price options accepted on venue bookings.
const (
	PriceHourly  = "hourly"
	PriceHalfDay = "half_day"
	PriceFullDay = "full_day"
)

// validateWindow checks the requested rental window against the clock and,
// when a venue is involved, against operating hours.  Equipment rented on
// its own travels to the renter, so it is not bound to venue hours.  It
// returns an empty string when the window is valid and a client-facing
// message otherwise.
func validateWindow(start, end, now time.Time, venueInvolved bool) string {
	if !start.After(now) {
		return "Start date must be in the future"
	}
	if !end.After(start) {
		return "End date must be after start date"
	}
	if venueInvolved && !withinOperatingHours(start, end) {
		return "Booking times are outside operating hours (07:00-18:00 UTC)"
	}
	return ""
}

// withinOperatingHours reports whether both ends of the window fall inside
// opening hours.  The end may land exactly on the closing hour.
func withinOperatingHours(start, end time.Time) bool {
	if start.Hour() < openingHour || start.Hour() >= closingHour {
		return false
	}
	if end.Hour() < openingHour {
		return false
	}
	if end.Hour() > closingHour {
		return false
	}
	if end.Hour() == closingHour && (end.Minute() != 0 || end.Second() != 0 || end.Nanosecond() != 0) {
		return false
	}
	return true
}

// overlaps reports whether two half-open windows [aStart, aEnd) and
// [bStart, bEnd) intersect.  A booking ending exactly when another starts
// does not conflict.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// billableHours returns the number of whole hours charged for a window.
// Partial hours round up: 90 minutes bills as 2 hours.
func billableHours(start, end time.Time) int64 {
	h := end.Sub(start).Hours()
	if h <= 0 {
		return 0
	}
	return int64(math.Ceil(h))
}

// venuePrice computes the venue portion of a booking's total for the chosen
// price option.  Venues without a half-day or full-day rate fall back to 4
// and 8 hourly units respectively.
func venuePrice(option string, v *repository.BookedVenue, hours int64) float64 {
	switch option {
	case PriceHalfDay:
		if v.PricePerHalfDay != nil {
			return roundMoney(*v.PricePerHalfDay)
		}
		return roundMoney(v.PricePerHour * 4)
	case PriceFullDay:
		if v.PricePerDay != nil {
			return roundMoney(*v.PricePerDay)
		}
		return roundMoney(v.PricePerHour * 8)
	default: // hourly
		return roundMoney(v.PricePerHour * float64(hours))
	}
}

// hourlyEquivalentRate is the per-hour rate for a piece of equipment: its
// hourly price, or a daily price spread over 24 hours when no hourly price
// is set.
func hourlyEquivalentRate(pricePerHour float64, pricePerDay *float64) float64 {
	if pricePerHour > 0 {
		return pricePerHour
	}
	if pricePerDay != nil {
		return *pricePerDay / 24
	}
	return 0
}

// equipmentPrice computes the charge for renting equipment over a window.
func equipmentPrice(pricePerHour float64, pricePerDay *float64, hours int64) float64 {
	return roundMoney(hourlyEquivalentRate(pricePerHour, pricePerDay) * float64(hours))
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}

// validPriceOption reports whether an option is one of the accepted values.
func validPriceOption(option string) bool {
	switch option {
	case PriceHourly, PriceHalfDay, PriceFullDay:
		return true
	}
	return false
}

// bookingTransitions is the status workflow: owners decide pending bookings,
// approved bookings run to completion or get cancelled, and terminal states
// never move again.
var bookingTransitions = map[string][]string{
	repository.StatusPending:  {repository.StatusApproved, repository.StatusRejected},
	repository.StatusApproved: {repository.StatusCompleted, repository.StatusCancelled},
}

// validTransition reports whether a booking may move from one status to
// another.
func validTransition(from, to string) bool {
	for _, next := range bookingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
