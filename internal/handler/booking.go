package handler

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/ndlovu/church-venue-hire/internal/queue"
	"github.com/ndlovu/church-venue-hire/internal/repository"
	queue_publisher "github.com/ndlovu/church-venue-hire/internal/service"
)

// EventPublisher sends a booking lifecycle event to the message broker.
// Handlers publish after commit and never fail a request over a broker
// problem.
type EventPublisher func(ctx context.Context, ev queue.BookingEvent) error

// BookingHandler implements the booking engine: transactional conflict
// checking, price computation and the status workflow.
type BookingHandler struct {
	Bookings  *repository.BookingRepo
	Venues    *repository.VenueRepo
	Equipment *repository.EquipmentRepo
	Publish   EventPublisher
}

func NewBookingHandler(b *repository.BookingRepo, v *repository.VenueRepo, e *repository.EquipmentRepo) *BookingHandler {
	if b == nil || v == nil || e == nil {
		panic("nil repository passed to NewBookingHandler")
	}
	return &BookingHandler{Bookings: b, Venues: v, Equipment: e, Publish: queue_publisher.PublishBookingEvent}
}

type createBookingReq struct {
	BookingType  string    `json:"booking_type"`
	VenueID      *uint64   `json:"venue_id"`
	EquipmentID  *uint64   `json:"equipment_id"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	PriceOption  string    `json:"price_option"`
	EquipmentIDs []uint64  `json:"equipment_ids"` // add-ons for venue_with_equipment
	EventType    *string   `json:"event_type"`
	Attendees    *int64    `json:"attendees"`
	Notes        *string   `json:"notes"`
}

// Create places a booking.  The availability check and the insert run inside
// one transaction with a row lock on the booked listing, so two clients
// racing for the same window cannot both succeed.  Deadlocked or
// lock-timed-out transactions are retried a few times before giving up.
func (h *BookingHandler) Create(c echo.Context) error {
	bookerID, err := getChurchID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req createBookingReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.BookingType = strings.ToLower(strings.TrimSpace(req.BookingType))
	switch req.BookingType {
	case repository.TypeVenue:
		if req.VenueID == nil || *req.VenueID == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "venue_id is required"})
		}
		if len(req.EquipmentIDs) > 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "equipment_ids require booking_type venue_with_equipment"})
		}
	case repository.TypeVenueWithEquipment:
		if req.VenueID == nil || *req.VenueID == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "venue_id is required"})
		}
		if len(req.EquipmentIDs) == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "equipment_ids must not be empty for venue_with_equipment"})
		}
	case repository.TypeEquipment:
		if req.EquipmentID == nil || *req.EquipmentID == 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "equipment_id is required"})
		}
		if len(req.EquipmentIDs) > 0 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "equipment_ids require booking_type venue_with_equipment"})
		}
	default:
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "booking_type must be venue, equipment or venue_with_equipment"})
	}
	// Only the reference the booking type targets may be persisted; a stray
	// cross-type id would be counted by the overlap queries and resolve the
	// wrong owner.
	if req.BookingType == repository.TypeEquipment {
		req.VenueID = nil
	} else {
		req.EquipmentID = nil
	}

	start := req.StartDate.UTC()
	end := req.EndDate.UTC()
	venueInvolved := req.BookingType != repository.TypeEquipment
	if msg := validateWindow(start, end, time.Now().UTC(), venueInvolved); msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	option := strings.ToLower(strings.TrimSpace(req.PriceOption))
	if option == "" || req.BookingType == repository.TypeEquipment {
		option = PriceHourly
	}
	if !validPriceOption(option) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price_option must be hourly, half_day or full_day"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	booking := &repository.Booking{
		ChurchID:    bookerID,
		VenueID:     req.VenueID,
		EquipmentID: req.EquipmentID,
		BookingType: req.BookingType,
		StartDate:   start,
		EndDate:     end,
		PriceOption: option,
		EventType:   req.EventType,
		Attendees:   req.Attendees,
		Notes:       req.Notes,
	}

	// Deadlocks between two bookings locking different rows resolve by
	// retrying the loser.
	var txErr error
	for attempt := 1; attempt <= 3; attempt++ {
		txErr = h.createInTx(ctx, bookerID, booking, req.EquipmentIDs, start, end, option)
		if txErr == nil || !isRetryableTxErr(txErr) {
			break
		}
		booking.ID = 0
		time.Sleep(time.Duration(attempt) * 50 * time.Millisecond)
	}
	if txErr != nil {
		var be *bookingError
		if errors.As(txErr, &be) {
			return c.JSON(be.status, echo.Map{"error": be.msg})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create booking failed"})
	}
	if detail, err := h.Bookings.GetWithParties(ctx, booking.ID); err == nil {
		// Both sides hear about the new request: the owner to act on it,
		// the booker as a receipt.
		h.publishAsync(ctx, queue.KindBookingRequested, detail, detail.OwnerID, detail.OwnerEmail)
		h.publishAsync(ctx, queue.KindBookingRequested, detail, detail.ChurchID, detail.BookerEmail)
	} else {
		log.Printf("booking: load booking %d for notification failed: %v", booking.ID, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": booking.ID, "message": "Booking request submitted"})
}

// bookingError carries a client-facing rejection out of the transaction.
type bookingError struct {
	status int
	msg    string
}

func (e *bookingError) Error() string { return e.msg }

func reject(msg string) *bookingError { return &bookingError{status: http.StatusBadRequest, msg: msg} }

func isRetryableTxErr(err error) bool {
	var be *bookingError
	if errors.As(err, &be) {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "1213") || strings.Contains(s, "1205")
}

// createInTx runs the engine's critical section: lock the listing, count
// overlapping bookings, price the request and insert the booking plus its
// line items.
func (h *BookingHandler) createInTx(ctx context.Context, bookerID uint64, b *repository.Booking, addonIDs []uint64, start, end time.Time, option string) error {
	tx, err := h.Bookings.DB().BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	hours := billableHours(start, end)
	var addons []repository.BookingAddon

	switch b.BookingType {
	case repository.TypeVenue, repository.TypeVenueWithEquipment:
		v, err := h.Venues.GetForBookingTx(ctx, tx, *b.VenueID)
		if err != nil {
			if errors.Is(err, repository.ErrVenueNotFound) {
				return &bookingError{status: http.StatusNotFound, msg: "venue not found"}
			}
			return err
		}
		if !v.IsAvailable {
			return reject("Venue is not available for booking")
		}
		if v.OwnerID == bookerID {
			return reject("You cannot book your own listing")
		}
		n, err := h.Bookings.CountVenueOverlapsTx(ctx, tx, v.ID, start, end)
		if err != nil {
			return err
		}
		if n > 0 {
			return reject("Venue is already booked for the selected dates")
		}

		total := venuePrice(option, v, hours)
		if len(addonIDs) > 0 {
			rates, err := h.Equipment.RatesByIDsTx(ctx, tx, addonIDs)
			if err != nil {
				return err
			}
			for _, id := range addonIDs {
				rate, ok := rates[id]
				if !ok {
					return reject("One of the selected equipment items does not exist")
				}
				total = roundMoney(total + equipmentPrice(rate.PricePerHour, rate.PricePerDay, hours))
				addons = append(addons, repository.BookingAddon{EquipmentID: id, Quantity: 1})
			}
		}
		b.TotalPrice = total

	case repository.TypeEquipment:
		e, err := h.Equipment.GetForBookingTx(ctx, tx, *b.EquipmentID)
		if err != nil {
			if errors.Is(err, repository.ErrEquipmentNotFound) {
				return &bookingError{status: http.StatusNotFound, msg: "equipment not found"}
			}
			return err
		}
		if !e.IsAvailable {
			return reject("Equipment is not available for booking")
		}
		if e.OwnerID == bookerID {
			return reject("You cannot book your own listing")
		}
		n, err := h.Bookings.CountEquipmentOverlapsTx(ctx, tx, e.ID, start, end)
		if err != nil {
			return err
		}
		if n >= e.Quantity {
			return reject("Equipment is fully booked for the selected dates")
		}
		b.TotalPrice = equipmentPrice(e.PricePerHour, e.PricePerDay, hours)
	}

	if err := h.Bookings.CreateTx(ctx, tx, b); err != nil {
		return err
	}
	if err := h.Bookings.AddEquipmentBulkTx(ctx, tx, b.ID, addons); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

type statusReq struct {
	Status string `json:"status"`
}

var statusTargets = map[string]bool{
	repository.StatusApproved:  true,
	repository.StatusRejected:  true,
	repository.StatusCancelled: true,
	repository.StatusCompleted: true,
}

// statusEventKinds maps a decision to the event published to the booker.
// Cancelling or completing an approved booking emits nothing.
var statusEventKinds = map[string]string{
	repository.StatusApproved: queue.KindBookingApproved,
	repository.StatusRejected: queue.KindBookingRejected,
}

// UpdateStatus moves a booking through the workflow.  Only the listing
// owner decides; the booker never moves the status.
func (h *BookingHandler) UpdateStatus(c echo.Context) error {
	callerID, err := getChurchID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var req statusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	target := strings.ToLower(strings.TrimSpace(req.Status))
	if !statusTargets[target] {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be approved, rejected, completed or cancelled"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	d, err := h.Bookings.GetWithParties(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}

	if d.OwnerID != callerID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only the listing owner can decide this booking"})
	}

	if !validTransition(d.Status, target) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot move booking from " + d.Status + " to " + target})
	}

	if err := h.Bookings.UpdateStatus(ctx, id, target); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update status failed"})
	}
	d.Status = target

	if kind, ok := statusEventKinds[target]; ok {
		h.publishAsync(ctx, kind, d, d.ChurchID, d.BookerEmail)
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "Booking " + target})
}

// ListMine returns the bookings the authenticated church has placed.
func (h *BookingHandler) ListMine(c echo.Context) error {
	churchID, err := getChurchID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	out, err := h.Bookings.ListByBooker(ctx, churchID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, out)
}

// ListForMyListings returns the bookings placed against the authenticated
// church's venues and equipment, pending requests first.
func (h *BookingHandler) ListForMyListings(c echo.Context) error {
	churchID, err := getChurchID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	out, err := h.Bookings.ListForOwner(ctx, churchID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, out)
}

// GetBooking returns one booking to either of its parties.
func (h *BookingHandler) GetBooking(c echo.Context) error {
	callerID, err := getChurchID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	d, err := h.Bookings.GetWithParties(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if d.ChurchID != callerID && d.OwnerID != callerID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your booking"})
	}
	return c.JSON(http.StatusOK, d)
}

// publishAsync fires a booking event without blocking or failing the
// request.  The broker being down only loses a notification.
func (h *BookingHandler) publishAsync(ctx context.Context, kind string, d *repository.BookingDetail, recipientID uint64, recipientEmail string) {
	if h.Publish == nil {
		return
	}
	ev := queue.BookingEvent{
		Kind:           kind,
		BookingID:      d.ID,
		BookingType:    d.BookingType,
		ItemName:       d.ItemName,
		BookerName:     d.BookerName,
		OwnerName:      d.OwnerName,
		RecipientID:    recipientID,
		RecipientEmail: recipientEmail,
		StartDate:      d.StartDate.UTC().Format(time.RFC3339),
		EndDate:        d.EndDate.UTC().Format(time.RFC3339),
		TotalPrice:     d.TotalPrice,
		OccurredAt:     time.Now().UTC().Format(time.RFC3339),
	}
	go func(bg context.Context) {
		if err := h.Publish(bg, ev); err != nil {
			log.Printf("booking: publish %s event failed: %v", kind, err)
		}
	}(context.WithoutCancel(ctx))
}
