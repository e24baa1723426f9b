package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// Equipment represents a rentable item listing.  Quantity is the number of
// identical units the owner stocks; the booking engine books against it.
type Equipment struct {
	ID           uint64    `json:"id"`
	ChurchID     uint64    `json:"church_id"`
	Name         string    `json:"name"`
	Description  *string   `json:"description,omitempty"`
	Category     *string   `json:"category,omitempty"`
	Quantity     int64     `json:"quantity"`
	PricePerHour float64   `json:"price_per_hour"`
	PricePerDay  *float64  `json:"price_per_day,omitempty"`
	Images       []string  `json:"images"`
	IsAvailable  bool      `json:"is_available"`
	CreatedAt    time.Time `json:"created_at"`

	ChurchName     string  `json:"church_name,omitempty"`
	ChurchCity     *string `json:"church_city,omitempty"`
	ChurchProvince *string `json:"church_province,omitempty"`
	ChurchPhone    *string `json:"church_phone,omitempty"`
	ChurchEmail    string  `json:"church_email,omitempty"`
}

// EquipmentFilter restricts ListAvailable.  Zero values mean "no constraint".
type EquipmentFilter struct {
	Category string
	City     string
	Province string
	MaxPrice *float64
}

// BookedEquipment carries the fields the booking engine needs while holding
// the equipment row lock.
type BookedEquipment struct {
	ID           uint64
	OwnerID      uint64
	Quantity     int64
	PricePerHour float64
	PricePerDay  *float64
	IsAvailable  bool
}

// EquipmentRate is the pricing view used when attaching add-ons to a venue
// booking.
type EquipmentRate struct {
	ID           uint64
	PricePerHour float64
	PricePerDay  *float64
}

// EquipmentRepo encapsulates all database queries related to equipment.
type EquipmentRepo struct {
	db *sql.DB
}

// NewEquipmentRepo constructs an EquipmentRepo with the provided DB handle.
func NewEquipmentRepo(db *sql.DB) *EquipmentRepo {
	return &EquipmentRepo{db: db}
}

// Create inserts a new equipment listing and populates the generated ID and
// DB-default fields on e.
func (r *EquipmentRepo) Create(ctx context.Context, e *Equipment) error {
	if e.Quantity <= 0 {
		e.Quantity = 1
	}
	const qInsert = `INSERT INTO equipment
		(church_id, name, description, category, quantity, price_per_hour, price_per_day, images)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, qInsert,
		e.ChurchID, e.Name, e.Description, e.Category, e.Quantity, e.PricePerHour, e.PricePerDay,
		encodeStringList(e.Images))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)

	const qSelect = `SELECT is_available, created_at FROM equipment WHERE id = ?`
	return r.db.QueryRowContext(ctx, qSelect, e.ID).Scan(&e.IsAvailable, &e.CreatedAt)
}

const equipmentJoinCols = `e.id, e.church_id, e.name, e.description, e.category, e.quantity,
	e.price_per_hour, e.price_per_day, e.images, e.is_available, e.created_at,
	c.name, c.city, c.province`

func scanEquipmentJoin(scan func(dest ...any) error) (*Equipment, error) {
	var e Equipment
	var images sql.NullString
	if err := scan(
		&e.ID, &e.ChurchID, &e.Name, &e.Description, &e.Category, &e.Quantity,
		&e.PricePerHour, &e.PricePerDay, &images, &e.IsAvailable, &e.CreatedAt,
		&e.ChurchName, &e.ChurchCity, &e.ChurchProvince,
	); err != nil {
		return nil, err
	}
	e.Images = decodeStringList(images)
	return &e, nil
}

// ListAvailable returns equipment with is_available = true matching the
// filter, most recently created first.  Location filters match the owning
// church since equipment has no address of its own.
func (r *EquipmentRepo) ListAvailable(ctx context.Context, f EquipmentFilter) ([]*Equipment, error) {
	q := `SELECT ` + equipmentJoinCols + `
	      FROM equipment e
	      JOIN churches c ON c.id = e.church_id
	      WHERE e.is_available = TRUE`
	args := []any{}
	if f.Category != "" {
		q += " AND e.category = ?"
		args = append(args, f.Category)
	}
	if f.City != "" {
		q += " AND c.city LIKE ?"
		args = append(args, "%"+f.City+"%")
	}
	if f.Province != "" {
		q += " AND c.province LIKE ?"
		args = append(args, "%"+f.Province+"%")
	}
	if f.MaxPrice != nil {
		q += " AND e.price_per_hour <= ?"
		args = append(args, *f.MaxPrice)
	}
	q += " ORDER BY e.created_at DESC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*Equipment, 0)
	for rows.Next() {
		e, err := scanEquipmentJoin(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByOwner returns all equipment listed by a church, newest first.
func (r *EquipmentRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]*Equipment, error) {
	q := `SELECT ` + equipmentJoinCols + `
	      FROM equipment e
	      JOIN churches c ON c.id = e.church_id
	      WHERE e.church_id = ?
	      ORDER BY e.created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]*Equipment, 0)
	for rows.Next() {
		e, err := scanEquipmentJoin(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches a single equipment listing with the owner's contact
// details.  Returns ErrEquipmentNotFound if no row is found.
func (r *EquipmentRepo) GetByID(ctx context.Context, id uint64) (*Equipment, error) {
	const q = `SELECT ` + equipmentJoinCols + `, c.phone, c.email
	           FROM equipment e
	           JOIN churches c ON c.id = e.church_id
	           WHERE e.id = ?`
	var e Equipment
	var images sql.NullString
	err := r.db.QueryRowContext(ctx, q, id).Scan(
		&e.ID, &e.ChurchID, &e.Name, &e.Description, &e.Category, &e.Quantity,
		&e.PricePerHour, &e.PricePerDay, &images, &e.IsAvailable, &e.CreatedAt,
		&e.ChurchName, &e.ChurchCity, &e.ChurchProvince,
		&e.ChurchPhone, &e.ChurchEmail,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEquipmentNotFound
		}
		return nil, err
	}
	e.Images = decodeStringList(images)
	return &e, nil
}

// Update rewrites an equipment listing if it belongs to the given owner.
func (r *EquipmentRepo) Update(ctx context.Context, id, ownerID uint64, e *Equipment) error {
	if err := r.checkOwner(ctx, id, ownerID); err != nil {
		return err
	}
	if e.Quantity <= 0 {
		e.Quantity = 1
	}
	const q = `UPDATE equipment SET
		name = ?, description = ?, category = ?, quantity = ?, price_per_hour = ?, price_per_day = ?,
		images = ?, is_available = ?
		WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q,
		e.Name, e.Description, e.Category, e.Quantity, e.PricePerHour, e.PricePerDay,
		encodeStringList(e.Images), e.IsAvailable, id)
	return err
}

// Delete removes an equipment listing owned by the given church.
func (r *EquipmentRepo) Delete(ctx context.Context, id, ownerID uint64) error {
	if err := r.checkOwner(ctx, id, ownerID); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM equipment WHERE id = ?`, id)
	if err != nil && strings.Contains(err.Error(), "1451") {
		return ErrConflict // rows in bookings still reference this equipment
	}
	return err
}

func (r *EquipmentRepo) checkOwner(ctx context.Context, id, ownerID uint64) error {
	var dbOwner uint64
	err := r.db.QueryRowContext(ctx, `SELECT church_id FROM equipment WHERE id = ?`, id).Scan(&dbOwner)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrEquipmentNotFound
	}
	if err != nil {
		return err
	}
	if dbOwner != ownerID {
		return ErrForbidden
	}
	return nil
}

// GetForBookingTx loads quantity, pricing and availability of an equipment
// item inside the caller's transaction with a row lock, serializing
// concurrent booking attempts against the same item.
func (r *EquipmentRepo) GetForBookingTx(ctx context.Context, tx *sql.Tx, id uint64) (*BookedEquipment, error) {
	const q = `SELECT id, church_id, quantity, price_per_hour, price_per_day, is_available
	           FROM equipment WHERE id = ? FOR UPDATE`
	var be BookedEquipment
	err := tx.QueryRowContext(ctx, q, id).Scan(
		&be.ID, &be.OwnerID, &be.Quantity, &be.PricePerHour, &be.PricePerDay, &be.IsAvailable)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEquipmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &be, nil
}

// RatesByIDsTx fetches the hourly and daily rates for a set of equipment
// items within the caller's transaction.  Used when pricing add-ons attached
// to a venue booking.  IDs that do not exist are simply absent from the map.
func (r *EquipmentRepo) RatesByIDsTx(ctx context.Context, tx *sql.Tx, ids []uint64) (map[uint64]EquipmentRate, error) {
	out := make(map[uint64]EquipmentRate, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	q := `SELECT id, price_per_hour, price_per_day FROM equipment WHERE id IN (` + placeholders + `)`
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var er EquipmentRate
		if err := rows.Scan(&er.ID, &er.PricePerHour, &er.PricePerDay); err != nil {
			return nil, err
		}
		out[er.ID] = er
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
