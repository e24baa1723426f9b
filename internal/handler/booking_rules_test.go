package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ndlovu/church-venue-hire/internal/repository"
)

func at(hour, min int) time.Time {
	return time.Date(2026, time.September, 14, hour, min, 0, 0, time.UTC)
}

func TestValidateWindow(t *testing.T) {
	now := time.Date(2026, time.September, 1, 12, 0, 0, 0, time.UTC)

	const outsideHours = "Booking times are outside operating hours (07:00-18:00 UTC)"

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		venue bool
		want  string
	}{
		{"valid same day", at(9, 0), at(12, 0), true, ""},
		{"start in past", now.Add(-time.Hour), now.Add(time.Hour), true, "Start date must be in the future"},
		{"start equals now", now, now.Add(time.Hour), true, "Start date must be in the future"},
		{"end before start", at(12, 0), at(9, 0), true, "End date must be after start date"},
		{"end equals start", at(12, 0), at(12, 0), true, "End date must be after start date"},
		{"starts before opening", at(6, 59), at(9, 0), true, outsideHours},
		{"starts at opening", at(7, 0), at(9, 0), true, ""},
		{"starts at closing", at(18, 0), at(18, 30), true, outsideHours},
		{"ends exactly at closing", at(15, 0), at(18, 0), true, ""},
		{"ends past closing", at(15, 0), at(18, 1), true, outsideHours},
		{"offset clocks evaluate in UTC", // 07:00+02:00 is 05:00 UTC
			time.Date(2026, time.September, 14, 7, 0, 0, 0, time.FixedZone("SAST", 2*3600)).UTC(),
			time.Date(2026, time.September, 14, 9, 0, 0, 0, time.FixedZone("SAST", 2*3600)).UTC(),
			true, outsideHours},
		{"equipment ignores venue hours", at(5, 0), at(22, 0), false, ""},
		{"equipment still needs a future start", now.Add(-time.Hour), now.Add(time.Hour), false, "Start date must be in the future"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, validateWindow(tc.start, tc.end, now, tc.venue))
		})
	}
}

func TestOverlaps(t *testing.T) {
	// Existing booking 10:00-12:00.
	bStart, bEnd := at(10, 0), at(12, 0)

	assert.True(t, overlaps(at(11, 0), at(13, 0), bStart, bEnd), "partial overlap at the end")
	assert.True(t, overlaps(at(9, 0), at(11, 0), bStart, bEnd), "partial overlap at the start")
	assert.True(t, overlaps(at(9, 0), at(13, 0), bStart, bEnd), "fully covering")
	assert.True(t, overlaps(at(10, 30), at(11, 30), bStart, bEnd), "fully inside")

	// Half-open windows: touching edges do not conflict.
	assert.False(t, overlaps(at(12, 0), at(14, 0), bStart, bEnd), "starts when the other ends")
	assert.False(t, overlaps(at(8, 0), at(10, 0), bStart, bEnd), "ends when the other starts")
	assert.False(t, overlaps(at(13, 0), at(14, 0), bStart, bEnd), "disjoint")
}

func TestBillableHours(t *testing.T) {
	assert.Equal(t, int64(3), billableHours(at(9, 0), at(12, 0)))
	assert.Equal(t, int64(2), billableHours(at(9, 0), at(10, 30)), "partial hours round up")
	assert.Equal(t, int64(1), billableHours(at(9, 0), at(9, 1)))
	assert.Equal(t, int64(0), billableHours(at(9, 0), at(9, 0)))
}

func TestVenuePrice(t *testing.T) {
	halfDay := 300.0
	fullDay := 500.0
	full := &repository.BookedVenue{PricePerHour: 100, PricePerHalfDay: &halfDay, PricePerDay: &fullDay}
	hourlyOnly := &repository.BookedVenue{PricePerHour: 100}

	assert.Equal(t, 300.0, venuePrice(PriceHourly, full, 3))
	assert.Equal(t, 300.0, venuePrice(PriceHalfDay, full, 3), "flat rate regardless of hours")
	assert.Equal(t, 500.0, venuePrice(PriceFullDay, full, 3))

	// Missing tier rates fall back to hourly multiples.
	assert.Equal(t, 400.0, venuePrice(PriceHalfDay, hourlyOnly, 3))
	assert.Equal(t, 800.0, venuePrice(PriceFullDay, hourlyOnly, 3))
}

func TestEquipmentPrice(t *testing.T) {
	day := 240.0

	assert.Equal(t, 150.0, equipmentPrice(50, nil, 3))
	assert.Equal(t, 150.0, equipmentPrice(50, &day, 3), "hourly rate wins when present")
	assert.Equal(t, 30.0, equipmentPrice(0, &day, 3), "daily rate spread over 24 hours")
	assert.Equal(t, 0.0, equipmentPrice(0, nil, 3))
}

func TestValidPriceOption(t *testing.T) {
	assert.True(t, validPriceOption("hourly"))
	assert.True(t, validPriceOption("half_day"))
	assert.True(t, validPriceOption("full_day"))
	assert.False(t, validPriceOption("weekly"))
	assert.False(t, validPriceOption(""))
}

func TestValidTransition(t *testing.T) {
	allowed := map[[2]string]bool{
		{repository.StatusPending, repository.StatusApproved}:   true,
		{repository.StatusPending, repository.StatusRejected}:   true,
		{repository.StatusApproved, repository.StatusCompleted}: true,
		{repository.StatusApproved, repository.StatusCancelled}: true,
	}
	statuses := []string{
		repository.StatusPending, repository.StatusApproved, repository.StatusRejected,
		repository.StatusCompleted, repository.StatusCancelled,
	}
	for _, from := range statuses {
		for _, to := range statuses {
			assert.Equalf(t, allowed[[2]string{from, to}], validTransition(from, to), "%s -> %s", from, to)
		}
	}
}
