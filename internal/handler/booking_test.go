package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndlovu/church-venue-hire/internal/queue"
	"github.com/ndlovu/church-venue-hire/internal/repository"
)

func newBookingTest(t *testing.T) (*BookingHandler, sqlmock.Sqlmock, chan queue.BookingEvent) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	events := make(chan queue.BookingEvent, 4)
	h := NewBookingHandler(
		repository.NewBookingRepo(db),
		repository.NewVenueRepo(db),
		repository.NewEquipmentRepo(db),
	)
	h.Publish = func(_ context.Context, ev queue.BookingEvent) error {
		events <- ev
		return nil
	}
	return h, mock, events
}

func doJSON(h echo.HandlerFunc, method, target, body string, churchID uint64, params map[string]string) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("church_id", churchID)
	if len(params) > 0 {
		names := make([]string, 0, len(params))
		values := make([]string, 0, len(params))
		for k, v := range params {
			names = append(names, k)
			values = append(values, v)
		}
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	_ = h(c)
	return rec
}

// bookingWindow returns a valid future rental window inside operating hours.
func bookingWindow() (time.Time, time.Time) {
	d := time.Now().UTC().AddDate(0, 0, 7)
	start := time.Date(d.Year(), d.Month(), d.Day(), 10, 0, 0, 0, time.UTC)
	return start, start.Add(3 * time.Hour)
}

func detailColumns() []string {
	return []string{
		"id", "church_id", "venue_id", "equipment_id", "booking_type",
		"start_date", "end_date", "price_option", "total_price", "status",
		"event_type", "attendees", "notes", "created_at",
		"item_name", "booker_name", "booker_email", "owner_id", "owner_name", "owner_email",
	}
}

func expectDetail(mock sqlmock.Sqlmock, id uint64, bookerID, ownerID uint64, status string, start, end time.Time) {
	venueID := uint64(3)
	rows := sqlmock.NewRows(detailColumns()).AddRow(
		id, bookerID, venueID, nil, "venue",
		start, end, "hourly", 450.0, status,
		nil, nil, nil, time.Now().UTC(),
		"Main Hall", "Grace Fellowship", "bookings@grace.example", ownerID, "St Mark", "admin@stmark.example",
	)
	mock.ExpectQuery("FROM bookings b").WithArgs(id).WillReturnRows(rows)
	mock.ExpectQuery("FROM booking_equipment be").WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"equipment_id", "name", "quantity"}))
}

func TestCreateVenueBookingWithAddon(t *testing.T) {
	h, mock, events := newBookingTest(t)
	start, end := bookingWindow()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(3).WillReturnRows(
		sqlmock.NewRows([]string{"id", "church_id", "price_per_hour", "price_per_half_day", "price_per_day", "is_available"}).
			AddRow(3, 2, 100.0, nil, nil, true))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("FROM equipment WHERE id IN").WithArgs(9).WillReturnRows(
		sqlmock.NewRows([]string{"id", "price_per_hour", "price_per_day"}).AddRow(9, 50.0, nil))
	mock.ExpectExec("INSERT INTO bookings").WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectExec("INSERT INTO booking_equipment").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	expectDetail(mock, 7, 1, 2, "pending", start, end)

	body, _ := json.Marshal(map[string]any{
		"booking_type":  "venue_with_equipment",
		"venue_id":      3,
		"start_date":    start.Format(time.RFC3339),
		"end_date":      end.Format(time.RFC3339),
		"equipment_ids": []uint64{9},
	})
	rec := doJSON(h.Create, http.MethodPost, "/v1/bookings", string(body), 1, nil)

	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Booking request submitted")
	require.NoError(t, mock.ExpectationsWereMet())

	// Both the owner and the booker are told about the new request.
	recipients := map[uint64]bool{}
	for i := 0; i < 2; i++ {
		select {
		case ev := <-events:
			assert.Equal(t, queue.KindBookingRequested, ev.Kind)
			assert.Equal(t, uint64(7), ev.BookingID)
			recipients[ev.RecipientID] = true
		case <-time.After(time.Second):
			t.Fatal("expected two booking.requested events")
		}
	}
	assert.True(t, recipients[2], "owner should be notified")
	assert.True(t, recipients[1], "booker should be notified")
}

func TestCreateVenueBookingConflict(t *testing.T) {
	h, mock, _ := newBookingTest(t)
	start, end := bookingWindow()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(3).WillReturnRows(
		sqlmock.NewRows([]string{"id", "church_id", "price_per_hour", "price_per_half_day", "price_per_day", "is_available"}).
			AddRow(3, 2, 100.0, nil, nil, true))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectRollback()

	body, _ := json.Marshal(map[string]any{
		"booking_type": "venue",
		"venue_id":     3,
		"start_date":   start.Format(time.RFC3339),
		"end_date":     end.Format(time.RFC3339),
	})
	rec := doJSON(h.Create, http.MethodPost, "/v1/bookings", string(body), 1, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Venue is already booked for the selected dates")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateEquipmentBookingFullyBooked(t *testing.T) {
	h, mock, _ := newBookingTest(t)
	start, end := bookingWindow()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(5).WillReturnRows(
		sqlmock.NewRows([]string{"id", "church_id", "quantity", "price_per_hour", "price_per_day", "is_available"}).
			AddRow(5, 2, 2, 50.0, nil, true))
	// Two overlapping bookings already hold both units.
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectRollback()

	body, _ := json.Marshal(map[string]any{
		"booking_type": "equipment",
		"equipment_id": 5,
		"start_date":   start.Format(time.RFC3339),
		"end_date":     end.Format(time.RFC3339),
	})
	rec := doJSON(h.Create, http.MethodPost, "/v1/bookings", string(body), 1, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Equipment is fully booked for the selected dates")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateEquipmentBookingDropsStrayVenueID(t *testing.T) {
	h, mock, _ := newBookingTest(t)
	start, end := bookingWindow()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(5).WillReturnRows(
		sqlmock.NewRows([]string{"id", "church_id", "quantity", "price_per_hour", "price_per_day", "is_available"}).
			AddRow(5, 2, 2, 50.0, nil, true))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings`).WithArgs(5, end, start).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	// venue_id must be NULL even though the request carried one.
	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(1, nil, 5, "equipment", start, end, "hourly", 150.0, nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(8, 1))
	mock.ExpectCommit()
	expectDetail(mock, 8, 1, 2, "pending", start, end)

	body, _ := json.Marshal(map[string]any{
		"booking_type": "equipment",
		"equipment_id": 5,
		"venue_id":     3,
		"start_date":   start.Format(time.RFC3339),
		"end_date":     end.Format(time.RFC3339),
	})
	rec := doJSON(h.Create, http.MethodPost, "/v1/bookings", string(body), 1, nil)

	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateVenueBookingDropsStrayEquipmentID(t *testing.T) {
	h, mock, _ := newBookingTest(t)
	start, end := bookingWindow()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(3).WillReturnRows(
		sqlmock.NewRows([]string{"id", "church_id", "price_per_hour", "price_per_half_day", "price_per_day", "is_available"}).
			AddRow(3, 2, 100.0, nil, nil, true))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bookings`).WithArgs(3, end, start).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	// equipment_id must be NULL even though the request carried one.
	mock.ExpectExec("INSERT INTO bookings").
		WithArgs(1, 3, nil, "venue", start, end, "hourly", 300.0, nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectCommit()
	expectDetail(mock, 9, 1, 2, "pending", start, end)

	body, _ := json.Marshal(map[string]any{
		"booking_type": "venue",
		"venue_id":     3,
		"equipment_id": 5,
		"start_date":   start.Format(time.RFC3339),
		"end_date":     end.Format(time.RFC3339),
	})
	rec := doJSON(h.Create, http.MethodPost, "/v1/bookings", string(body), 1, nil)

	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingOwnListing(t *testing.T) {
	h, mock, _ := newBookingTest(t)
	start, end := bookingWindow()

	mock.ExpectBegin()
	mock.ExpectQuery("FOR UPDATE").WithArgs(3).WillReturnRows(
		sqlmock.NewRows([]string{"id", "church_id", "price_per_hour", "price_per_half_day", "price_per_day", "is_available"}).
			AddRow(3, 1, 100.0, nil, nil, true))
	mock.ExpectRollback()

	body, _ := json.Marshal(map[string]any{
		"booking_type": "venue",
		"venue_id":     3,
		"start_date":   start.Format(time.RFC3339),
		"end_date":     end.Format(time.RFC3339),
	})
	rec := doJSON(h.Create, http.MethodPost, "/v1/bookings", string(body), 1, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "cannot book your own listing")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookingRejectsPastStart(t *testing.T) {
	h, _, _ := newBookingTest(t)

	past := time.Now().UTC().Add(-24 * time.Hour)
	body, _ := json.Marshal(map[string]any{
		"booking_type": "venue",
		"venue_id":     3,
		"start_date":   past.Format(time.RFC3339),
		"end_date":     past.Add(2 * time.Hour).Format(time.RFC3339),
	})
	rec := doJSON(h.Create, http.MethodPost, "/v1/bookings", string(body), 1, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Start date must be in the future")
}

func TestUpdateStatusApprove(t *testing.T) {
	h, mock, events := newBookingTest(t)
	start, end := bookingWindow()

	expectDetail(mock, 7, 1, 2, "pending", start, end)
	mock.ExpectExec("UPDATE bookings SET status").WithArgs("approved", 7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := doJSON(h.UpdateStatus, http.MethodPatch, "/v1/bookings/7/status",
		`{"status":"approved"}`, 2, map[string]string{"id": "7"})

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Booking approved")
	require.NoError(t, mock.ExpectationsWereMet())

	select {
	case ev := <-events:
		assert.Equal(t, queue.KindBookingApproved, ev.Kind)
		assert.Equal(t, uint64(1), ev.RecipientID, "decisions notify the booker")
	case <-time.After(time.Second):
		t.Fatal("expected a booking.approved event")
	}
}

func TestUpdateStatusForbiddenForStranger(t *testing.T) {
	h, mock, _ := newBookingTest(t)
	start, end := bookingWindow()

	expectDetail(mock, 7, 1, 2, "pending", start, end)

	rec := doJSON(h.UpdateStatus, http.MethodPatch, "/v1/bookings/7/status",
		`{"status":"approved"}`, 99, map[string]string{"id": "7"})

	assert.Equal(t, http.StatusForbidden, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusCancelIsOwnerDecision(t *testing.T) {
	h, mock, events := newBookingTest(t)
	start, end := bookingWindow()

	// The booker does not move the status, not even to cancelled.
	expectDetail(mock, 7, 1, 2, "approved", start, end)

	rec := doJSON(h.UpdateStatus, http.MethodPut, "/v1/bookings/7/status",
		`{"status":"cancelled"}`, 1, map[string]string{"id": "7"})

	assert.Equal(t, http.StatusForbidden, rec.Code)

	// The owner can, and cancelling emits no notification.
	expectDetail(mock, 7, 1, 2, "approved", start, end)
	mock.ExpectExec("UPDATE bookings SET status").WithArgs("cancelled", 7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec = doJSON(h.UpdateStatus, http.MethodPut, "/v1/bookings/7/status",
		`{"status":"cancelled"}`, 2, map[string]string{"id": "7"})

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())

	select {
	case ev := <-events:
		t.Fatalf("unexpected event %s", ev.Kind)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUpdateStatusInvalidTransition(t *testing.T) {
	h, mock, _ := newBookingTest(t)
	start, end := bookingWindow()

	// pending cannot jump straight to completed.
	expectDetail(mock, 7, 1, 2, "pending", start, end)

	rec := doJSON(h.UpdateStatus, http.MethodPatch, "/v1/bookings/7/status",
		`{"status":"completed"}`, 2, map[string]string{"id": "7"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "cannot move booking from pending to completed")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatusTerminalIsImmutable(t *testing.T) {
	h, mock, _ := newBookingTest(t)
	start, end := bookingWindow()

	expectDetail(mock, 7, 1, 2, "rejected", start, end)

	rec := doJSON(h.UpdateStatus, http.MethodPatch, "/v1/bookings/7/status",
		`{"status":"approved"}`, 2, map[string]string{"id": "7"})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetBookingNotFound(t *testing.T) {
	h, mock, _ := newBookingTest(t)

	mock.ExpectQuery("FROM bookings b").WithArgs(42).
		WillReturnRows(sqlmock.NewRows(detailColumns()))

	rec := doJSON(h.GetBooking, http.MethodGet, "/v1/bookings/42", "", 1, map[string]string{"id": "42"})

	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
