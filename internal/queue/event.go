// Package queue defines message payloads exchanged over the message broker.
package queue

// Event kinds carried in BookingEvent.Kind. New requests notify both
// parties; owner decisions notify the booker.
const (
	KindBookingRequested = "booking.requested"
	KindBookingApproved  = "booking.approved"
	KindBookingRejected  = "booking.rejected"
)

// BookingEvent is published on each booking lifecycle change. It carries
// enough information for downstream consumers to write notifications or
// feed analytics without querying the primary database. Recipient* identify
// the church the notification is addressed to: the owner for new requests,
// the booker for decisions.
type BookingEvent struct {
	Kind           string  `json:"kind"`
	BookingID      uint64  `json:"booking_id"`
	BookingType    string  `json:"booking_type"`
	ItemName       string  `json:"item_name"`
	BookerName     string  `json:"booker_name"`
	OwnerName      string  `json:"owner_name"`
	RecipientID    uint64  `json:"recipient_id"`
	RecipientEmail string  `json:"recipient_email"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	TotalPrice     float64 `json:"total_price"`
	OccurredAt     string  `json:"occurred_at"`
}
