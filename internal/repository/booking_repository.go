package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// Booking statuses.  New bookings start in StatusPending and move forward
// through the owner workflow; Completed and Cancelled are terminal.
const (
	StatusPending   = "pending"
	StatusApproved  = "approved"
	StatusRejected  = "rejected"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Booking types.  A plain venue booking reserves the venue alone, an
// equipment booking targets a single stocked item, and a venue-with-equipment
// booking reserves a venue together with add-on line items in
// booking_equipment.
const (
	TypeVenue              = "venue"
	TypeEquipment          = "equipment"
	TypeVenueWithEquipment = "venue_with_equipment"
)

// Booking represents one reservation row.  Exactly one of VenueID and
// EquipmentID is set depending on BookingType.
type Booking struct {
	ID          uint64    `json:"id"`
	ChurchID    uint64    `json:"church_id"`
	VenueID     *uint64   `json:"venue_id,omitempty"`
	EquipmentID *uint64   `json:"equipment_id,omitempty"`
	BookingType string    `json:"booking_type"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	PriceOption string    `json:"price_option"`
	TotalPrice  float64   `json:"total_price"`
	Status      string    `json:"status"`
	EventType   *string   `json:"event_type,omitempty"`
	Attendees   *int64    `json:"attendees,omitempty"`
	Notes       *string   `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// BookingAddon is one equipment line item attached to a venue booking.
type BookingAddon struct {
	EquipmentID uint64 `json:"equipment_id"`
	Name        string `json:"name,omitempty"`
	Quantity    int64  `json:"quantity"`
}

// BookingDetail is a booking joined with the names of what was booked and
// who is on each side of it.  Owner* refer to the church listing the
// resource; Booker* to the church that placed the booking.
type BookingDetail struct {
	Booking
	ItemName    string         `json:"item_name"`
	BookerName  string         `json:"booker_name"`
	BookerEmail string         `json:"booker_email"`
	OwnerID     uint64         `json:"owner_id"`
	OwnerName   string         `json:"owner_name"`
	OwnerEmail  string         `json:"owner_email"`
	Addons      []BookingAddon `json:"equipment,omitempty"`
}

// BookingRepo encapsulates all database queries related to bookings and
// their equipment line items.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo constructs a BookingRepo with the provided DB handle.
func NewBookingRepo(db *sql.DB) *BookingRepo {
	return &BookingRepo{db: db}
}

// DB exposes the underlying sql.DB so handlers can open the transaction the
// booking engine runs in.
func (r *BookingRepo) DB() *sql.DB { return r.db }

// CountVenueOverlapsTx counts bookings on a venue whose window overlaps
// [start, end) and whose status still blocks the calendar.  Windows are
// half-open: a booking ending exactly at start does not overlap.  The caller
// must already hold the venue row lock for the count to be race-free.
func (r *BookingRepo) CountVenueOverlapsTx(ctx context.Context, tx *sql.Tx, venueID uint64, start, end time.Time) (int64, error) {
	const q = `SELECT COUNT(*) FROM bookings
	           WHERE venue_id = ?
	             AND status IN ('pending', 'approved')
	             AND start_date < ? AND end_date > ?`
	var n int64
	err := tx.QueryRowContext(ctx, q, venueID, end, start).Scan(&n)
	return n, err
}

// CountEquipmentOverlapsTx counts bookings holding units of an equipment
// item over [start, end).  The booking is allowed as long as the count stays
// below the item's stocked quantity.
func (r *BookingRepo) CountEquipmentOverlapsTx(ctx context.Context, tx *sql.Tx, equipmentID uint64, start, end time.Time) (int64, error) {
	const q = `SELECT COUNT(*) FROM bookings
	           WHERE equipment_id = ?
	             AND status IN ('pending', 'approved')
	             AND start_date < ? AND end_date > ?`
	var n int64
	err := tx.QueryRowContext(ctx, q, equipmentID, end, start).Scan(&n)
	return n, err
}

// CreateTx inserts the booking row inside the caller's transaction and
// populates the generated ID.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *Booking) error {
	const q = `INSERT INTO bookings
		(church_id, venue_id, equipment_id, booking_type, start_date, end_date,
		 price_option, total_price, status, event_type, attendees, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'pending', ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q,
		b.ChurchID, b.VenueID, b.EquipmentID, b.BookingType, b.StartDate, b.EndDate,
		b.PriceOption, b.TotalPrice, b.EventType, b.Attendees, b.Notes)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	b.Status = StatusPending
	return nil
}

// AddEquipmentBulkTx inserts all add-on line items for a venue booking in a
// single multi-row INSERT so the booking and its line items commit together.
func (r *BookingRepo) AddEquipmentBulkTx(ctx context.Context, tx *sql.Tx, bookingID uint64, addons []BookingAddon) error {
	if len(addons) == 0 {
		return nil
	}
	var sb strings.Builder
	sb.WriteString(`INSERT INTO booking_equipment (booking_id, equipment_id, quantity) VALUES `)
	args := make([]any, 0, len(addons)*3)
	for i, a := range addons {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(?, ?, ?)")
		args = append(args, bookingID, a.EquipmentID, a.Quantity)
	}
	_, err := tx.ExecContext(ctx, sb.String(), args...)
	return err
}

const bookingDetailCols = `b.id, b.church_id, b.venue_id, b.equipment_id, b.booking_type,
	b.start_date, b.end_date, b.price_option, b.total_price, b.status,
	b.event_type, b.attendees, b.notes, b.created_at,
	COALESCE(v.name, e.name, ''),
	booker.name, booker.email,
	COALESCE(v.church_id, e.church_id, 0),
	COALESCE(owner.name, ''), COALESCE(owner.email, '')`

const bookingDetailJoins = `FROM bookings b
	JOIN churches booker ON booker.id = b.church_id
	LEFT JOIN venues v ON v.id = b.venue_id
	LEFT JOIN equipment e ON e.id = b.equipment_id
	LEFT JOIN churches owner ON owner.id = COALESCE(v.church_id, e.church_id)`

func scanBookingDetail(scan func(dest ...any) error) (*BookingDetail, error) {
	var d BookingDetail
	if err := scan(
		&d.ID, &d.ChurchID, &d.VenueID, &d.EquipmentID, &d.BookingType,
		&d.StartDate, &d.EndDate, &d.PriceOption, &d.TotalPrice, &d.Status,
		&d.EventType, &d.Attendees, &d.Notes, &d.CreatedAt,
		&d.ItemName,
		&d.BookerName, &d.BookerEmail,
		&d.OwnerID,
		&d.OwnerName, &d.OwnerEmail,
	); err != nil {
		return nil, err
	}
	return &d, nil
}

// GetWithParties fetches one booking with both sides' names and emails.
// Handlers use it for authorization (booker vs owner) and for the payloads
// of notification events.  Returns ErrBookingNotFound when absent.
func (r *BookingRepo) GetWithParties(ctx context.Context, id uint64) (*BookingDetail, error) {
	q := `SELECT ` + bookingDetailCols + ` ` + bookingDetailJoins + ` WHERE b.id = ?`
	d, err := scanBookingDetail(r.db.QueryRowContext(ctx, q, id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadAddons(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (r *BookingRepo) loadAddons(ctx context.Context, d *BookingDetail) error {
	const q = `SELECT be.equipment_id, COALESCE(e.name, ''), be.quantity
	           FROM booking_equipment be
	           LEFT JOIN equipment e ON e.id = be.equipment_id
	           WHERE be.booking_id = ?`
	rows, err := r.db.QueryContext(ctx, q, d.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var a BookingAddon
		if err := rows.Scan(&a.EquipmentID, &a.Name, &a.Quantity); err != nil {
			return err
		}
		d.Addons = append(d.Addons, a)
	}
	return rows.Err()
}

// ListByBooker returns the bookings a church has placed, newest first.
func (r *BookingRepo) ListByBooker(ctx context.Context, churchID uint64) ([]*BookingDetail, error) {
	q := `SELECT ` + bookingDetailCols + ` ` + bookingDetailJoins + `
	      WHERE b.church_id = ?
	      ORDER BY b.created_at DESC`
	return r.listDetails(ctx, q, churchID)
}

// ListForOwner returns the bookings placed against any of a church's
// listings, pending first, then newest first within a status.
func (r *BookingRepo) ListForOwner(ctx context.Context, ownerID uint64) ([]*BookingDetail, error) {
	q := `SELECT ` + bookingDetailCols + ` ` + bookingDetailJoins + `
	      WHERE COALESCE(v.church_id, e.church_id) = ?
	      ORDER BY b.status = 'pending' DESC, b.created_at DESC`
	return r.listDetails(ctx, q, ownerID)
}

func (r *BookingRepo) listDetails(ctx context.Context, q string, arg any) ([]*BookingDetail, error) {
	rows, err := r.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*BookingDetail, 0)
	for rows.Next() {
		d, err := scanBookingDetail(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, d := range out {
		if d.BookingType == TypeVenueWithEquipment {
			if err := r.loadAddons(ctx, d); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// UpdateStatus moves a booking to a new status.  The handler validates the
// transition before calling; this method only persists it.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id uint64, status string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE bookings SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookingNotFound
	}
	return nil
}
