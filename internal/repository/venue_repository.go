// Package repository contains data access logic separated from HTTP handlers.
// This file defines the Venue model and repository methods for CRUD, filtered
// browsing and the row-locked lookup used by the booking engine. A Venue is a
// physical space listed by a church; it is never hard-deleted while bookings
// reference it — owners flip is_available instead.
package repository

import (
	"context"      // context allows passing deadlines and cancellation signals to DB operations
	"database/sql" // sql provides generic database operations and drivers
	"errors"       // errors is used for sentinel comparisons
	"strings"      // strings builds the dynamic filter clause
	"time"         // time holds DATETIME columns
)

// Venue represents a venue listing persisted in the database.  Amenities and
// Images are JSON-encoded arrays in their TEXT columns.  The Church* fields
// are populated from a JOIN on list/detail queries and are empty elsewhere.
type Venue struct {
	ID              uint64    `json:"id"`
	ChurchID        uint64    `json:"church_id"`
	Name            string    `json:"name"`
	Description     *string   `json:"description,omitempty"`
	Capacity        *int64    `json:"capacity,omitempty"`
	PricePerHour    float64   `json:"price_per_hour"`
	PricePerHalfDay *float64  `json:"price_per_half_day,omitempty"`
	PricePerDay     *float64  `json:"price_per_day,omitempty"`
	Address         *string   `json:"address,omitempty"`
	City            *string   `json:"city,omitempty"`
	Province        *string   `json:"province,omitempty"`
	ZipCode         *string   `json:"zip_code,omitempty"`
	Amenities       []string  `json:"amenities"`
	Images          []string  `json:"images"`
	IsAvailable     bool      `json:"is_available"`
	CreatedAt       time.Time `json:"created_at"`

	ChurchName     string  `json:"church_name,omitempty"`
	ChurchCity     *string `json:"church_city,omitempty"`
	ChurchProvince *string `json:"church_province,omitempty"`
	ChurchPhone    *string `json:"church_phone,omitempty"`
	ChurchEmail    string  `json:"church_email,omitempty"`
}

// VenueFilter restricts ListAvailable.  Zero values mean "no constraint".
// MinCapacity is inclusive (capacity >= value); MaxPrice is inclusive
// against price_per_hour.
type VenueFilter struct {
	City        string
	Province    string
	MinCapacity *int64
	MaxPrice    *float64
}

// BookedVenue carries the fields the booking engine needs while holding the
// venue row lock: pricing tiers, the availability gate and the owner.
type BookedVenue struct {
	ID              uint64
	OwnerID         uint64
	PricePerHour    float64
	PricePerHalfDay *float64
	PricePerDay     *float64
	IsAvailable     bool
}

// VenueRepo encapsulates all database queries related to venues.
type VenueRepo struct {
	db *sql.DB
}

// NewVenueRepo constructs a VenueRepo with the provided DB handle.
func NewVenueRepo(db *sql.DB) *VenueRepo {
	return &VenueRepo{db: db}
}

// DB exposes the underlying sql.DB so callers can begin transactions
// spanning multiple repositories.
func (r *VenueRepo) DB() *sql.DB { return r.db }

// Create inserts a new venue.  On success the generated ID and the
// DB-default fields (is_available, created_at) are populated on v.
func (r *VenueRepo) Create(ctx context.Context, v *Venue) error {
	const qInsert = `INSERT INTO venues
		(church_id, name, description, capacity, price_per_hour, price_per_half_day, price_per_day,
		 address, city, province, zip_code, amenities, images)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, qInsert,
		v.ChurchID, v.Name, v.Description, v.Capacity, v.PricePerHour, v.PricePerHalfDay, v.PricePerDay,
		v.Address, v.City, v.Province, v.ZipCode, encodeStringList(v.Amenities), encodeStringList(v.Images))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	v.ID = uint64(id)

	const qSelect = `SELECT is_available, created_at FROM venues WHERE id = ?`
	return r.db.QueryRowContext(ctx, qSelect, v.ID).Scan(&v.IsAvailable, &v.CreatedAt)
}

const venueJoinCols = `v.id, v.church_id, v.name, v.description, v.capacity,
	v.price_per_hour, v.price_per_half_day, v.price_per_day,
	v.address, v.city, v.province, v.zip_code, v.amenities, v.images, v.is_available, v.created_at,
	c.name, c.city, c.province`

func scanVenueJoin(scan func(dest ...any) error) (*Venue, error) {
	var v Venue
	var amenities, images sql.NullString
	if err := scan(
		&v.ID, &v.ChurchID, &v.Name, &v.Description, &v.Capacity,
		&v.PricePerHour, &v.PricePerHalfDay, &v.PricePerDay,
		&v.Address, &v.City, &v.Province, &v.ZipCode, &amenities, &images, &v.IsAvailable, &v.CreatedAt,
		&v.ChurchName, &v.ChurchCity, &v.ChurchProvince,
	); err != nil {
		return nil, err
	}
	v.Amenities = decodeStringList(amenities)
	v.Images = decodeStringList(images)
	return &v, nil
}

// ListAvailable returns venues with is_available = true matching the filter,
// most recently created first.  City and province match the venue's own
// location or the owning church's.
func (r *VenueRepo) ListAvailable(ctx context.Context, f VenueFilter) ([]*Venue, error) {
	q := `SELECT ` + venueJoinCols + `
	      FROM venues v
	      JOIN churches c ON c.id = v.church_id
	      WHERE v.is_available = TRUE`
	args := []any{}
	if f.City != "" {
		q += " AND (v.city LIKE ? OR c.city LIKE ?)"
		pat := "%" + f.City + "%"
		args = append(args, pat, pat)
	}
	if f.Province != "" {
		q += " AND (v.province LIKE ? OR c.province LIKE ?)"
		pat := "%" + f.Province + "%"
		args = append(args, pat, pat)
	}
	if f.MinCapacity != nil {
		q += " AND v.capacity >= ?"
		args = append(args, *f.MinCapacity)
	}
	if f.MaxPrice != nil {
		q += " AND v.price_per_hour <= ?"
		args = append(args, *f.MaxPrice)
	}
	q += " ORDER BY v.created_at DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*Venue, 0)
	for rows.Next() {
		v, err := scanVenueJoin(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByOwner returns all venues listed by a church, newest first,
// regardless of availability.
func (r *VenueRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]*Venue, error) {
	q := `SELECT ` + venueJoinCols + `
	      FROM venues v
	      JOIN churches c ON c.id = v.church_id
	      WHERE v.church_id = ?
	      ORDER BY v.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*Venue, 0)
	for rows.Next() {
		v, err := scanVenueJoin(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches a single venue with the owning church's contact details.
// It returns ErrVenueNotFound if no row is found.
func (r *VenueRepo) GetByID(ctx context.Context, id uint64) (*Venue, error) {
	const q = `SELECT ` + venueJoinCols + `, c.phone, c.email, c.address
	           FROM venues v
	           JOIN churches c ON c.id = v.church_id
	           WHERE v.id = ?`
	var v Venue
	var amenities, images sql.NullString
	var churchAddress sql.NullString
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&v.ID, &v.ChurchID, &v.Name, &v.Description, &v.Capacity,
		&v.PricePerHour, &v.PricePerHalfDay, &v.PricePerDay,
		&v.Address, &v.City, &v.Province, &v.ZipCode, &amenities, &images, &v.IsAvailable, &v.CreatedAt,
		&v.ChurchName, &v.ChurchCity, &v.ChurchProvince,
		&v.ChurchPhone, &v.ChurchEmail, &churchAddress,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrVenueNotFound
		}
		return nil, err
	}
	v.Amenities = decodeStringList(amenities)
	v.Images = decodeStringList(images)
	return &v, nil
}

// Update rewrites a venue's attributes if it belongs to the given owner.
// It returns ErrVenueNotFound when the venue does not exist and
// ErrForbidden when it is owned by a different church.
func (r *VenueRepo) Update(ctx context.Context, id, ownerID uint64, v *Venue) error {
	if err := r.checkOwner(ctx, id, ownerID); err != nil {
		return err
	}
	const q = `UPDATE venues SET
		name = ?, description = ?, capacity = ?, price_per_hour = ?, price_per_half_day = ?, price_per_day = ?,
		address = ?, city = ?, province = ?, zip_code = ?, amenities = ?, images = ?, is_available = ?
		WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q,
		v.Name, v.Description, v.Capacity, v.PricePerHour, v.PricePerHalfDay, v.PricePerDay,
		v.Address, v.City, v.Province, v.ZipCode, encodeStringList(v.Amenities), encodeStringList(v.Images),
		v.IsAvailable, id)
	return err
}

// Delete removes a venue the owner no longer wants listed.  Venues with
// historical bookings should be disabled via is_available instead; the
// FK constraint on bookings surfaces as an error here if violated.
func (r *VenueRepo) Delete(ctx context.Context, id, ownerID uint64) error {
	if err := r.checkOwner(ctx, id, ownerID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM venues WHERE id = ?`, id)
	if err != nil && strings.Contains(err.Error(), "1451") {
		return ErrConflict // rows in bookings still reference this venue
	}
	return err
}

func (r *VenueRepo) checkOwner(ctx context.Context, id, ownerID uint64) error {
	var dbOwner uint64
	err := r.db.QueryRowContext(ctx, `SELECT church_id FROM venues WHERE id = ?`, id).Scan(&dbOwner)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrVenueNotFound
	}
	if err != nil {
		return err
	}
	if dbOwner != ownerID {
		return ErrForbidden
	}
	return nil
}

// GetForBookingTx loads the pricing and availability fields of a venue
// inside the caller's transaction, taking a row lock (FOR UPDATE) so that
// concurrent booking attempts on the same venue serialize on this row
// until the caller commits or rolls back.
func (r *VenueRepo) GetForBookingTx(ctx context.Context, tx *sql.Tx, id uint64) (*BookedVenue, error) {
	const q = `SELECT id, church_id, price_per_hour, price_per_half_day, price_per_day, is_available
	           FROM venues WHERE id = ? FOR UPDATE`
	var bv BookedVenue
	err := tx.QueryRowContext(ctx, q, id).Scan(
		&bv.ID, &bv.OwnerID, &bv.PricePerHour, &bv.PricePerHalfDay, &bv.PricePerDay, &bv.IsAvailable)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVenueNotFound
	}
	if err != nil {
		return nil, err
	}
	return &bv, nil
}

// DistinctProvinces returns the provinces venues are currently listed in.
// Used by the public province lookup.
func (r *VenueRepo) DistinctProvinces(ctx context.Context) ([]string, error) {
	const q = `SELECT DISTINCT province FROM venues
	           WHERE province IS NOT NULL AND province != ''
	           ORDER BY province`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
