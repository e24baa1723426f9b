package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/ndlovu/church-venue-hire/internal/utils"
)

// Church mirrors the 'churches' table.  A church is both a potential
// resource owner and a potential booker.  PasswordHash is never serialized.
type Church struct {
	ID           uint64    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Phone        *string   `json:"phone,omitempty"`
	Address      *string   `json:"address,omitempty"`
	City         *string   `json:"city,omitempty"`
	Province     *string   `json:"province,omitempty"`
	ZipCode      *string   `json:"zip_code,omitempty"`
	Description  *string   `json:"description,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type ChurchRepo struct{ DB *sql.DB }

func NewChurchRepo(db *sql.DB) *ChurchRepo { return &ChurchRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

// churchCols is the column list shared by the single-row lookups.
const churchCols = "id,name,email,password_hash,role,phone,address,city,province,zip_code,description,created_at"

// Create hashes the password, inserts the church and returns its ID.  The
// role is always MEMBER on registration; admins are promoted out of band.
func (r *ChurchRepo) Create(ctx context.Context, c *Church, password string, cost int) (uint64, error) {
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO churches (name, email, password_hash, role, phone, address, city, province, zip_code, description)
		 VALUES (?,?,?,'MEMBER',?,?,?,?,?,?)`,
		c.Name, c.Email, hash, c.Phone, c.Address, c.City, c.Province, c.ZipCode, c.Description)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	c.ID = uint64(id)
	c.Role = "MEMBER"
	return c.ID, nil
}

// GetByEmail fetches a church by normalized email.
func (r *ChurchRepo) GetByEmail(ctx context.Context, email string) (Church, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var c Church
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+churchCols+" FROM churches WHERE email=? LIMIT 1", email).
		Scan(&c.ID, &c.Name, &c.Email, &c.PasswordHash, &c.Role, &c.Phone, &c.Address,
			&c.City, &c.Province, &c.ZipCode, &c.Description, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrChurchNotFound
	}
	return c, err
}

// GetByID fetches a church by id.  It returns ErrChurchNotFound when the
// row is absent so handlers can map it to a 404.
func (r *ChurchRepo) GetByID(ctx context.Context, id uint64) (Church, error) {
	var c Church
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+churchCols+" FROM churches WHERE id=? LIMIT 1", id).
		Scan(&c.ID, &c.Name, &c.Email, &c.PasswordHash, &c.Role, &c.Phone, &c.Address,
			&c.City, &c.Province, &c.ZipCode, &c.Description, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrChurchNotFound
	}
	return c, err
}

// ListAll returns the public church directory ordered by name.  Password
// hashes are not selected.
func (r *ChurchRepo) ListAll(ctx context.Context) ([]Church, error) {
	const q = `SELECT id, name, email, phone, city, province, description, created_at
	           FROM churches ORDER BY name`
	rows, err := r.DB.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Church, 0)
	for rows.Next() {
		var c Church
		if err := rows.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.City, &c.Province, &c.Description, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
