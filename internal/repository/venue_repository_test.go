package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func venueColumns() []string {
	return []string{
		"id", "church_id", "name", "description", "capacity",
		"price_per_hour", "price_per_half_day", "price_per_day",
		"address", "city", "province", "zip_code", "amenities", "images", "is_available", "created_at",
		"church_name", "church_city", "church_province",
	}
}

func venueRow(rows *sqlmock.Rows, id uint64, name string) *sqlmock.Rows {
	return rows.AddRow(
		id, 2, name, nil, 150,
		100.0, nil, nil,
		nil, "Durban", "KwaZulu-Natal", nil, `["parking","sound system"]`, nil, true, time.Now().UTC(),
		"Grace Fellowship", "Durban", "KwaZulu-Natal",
	)
}

func TestListAvailableAppliesFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewVenueRepo(db)

	minCap := int64(100)
	maxPrice := 120.0
	mock.ExpectQuery("FROM venues v").
		WithArgs("%Durban%", "%Durban%", "%KwaZulu-Natal%", "%KwaZulu-Natal%", minCap, maxPrice).
		WillReturnRows(venueRow(sqlmock.NewRows(venueColumns()), 3, "Main Hall"))

	out, err := repo.ListAvailable(context.Background(), VenueFilter{
		City:        "Durban",
		Province:    "KwaZulu-Natal",
		MinCapacity: &minCap,
		MaxPrice:    &maxPrice,
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "Main Hall", out[0].Name)
	assert.Equal(t, []string{"parking", "sound system"}, out[0].Amenities)
	assert.Empty(t, out[0].Images, "NULL images decode to an empty list")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListAvailableNoFilters(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewVenueRepo(db)

	rows := sqlmock.NewRows(venueColumns())
	venueRow(rows, 3, "Main Hall")
	venueRow(rows, 4, "Youth Centre")
	mock.ExpectQuery("FROM venues v").WillReturnRows(rows)

	out, err := repo.ListAvailable(context.Background(), VenueFilter{})
	require.NoError(t, err)
	assert.Len(t, out, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewVenueRepo(db)

	mock.ExpectQuery("FROM venues v").WithArgs(42).
		WillReturnRows(sqlmock.NewRows(append(venueColumns(), "phone", "email", "address")))

	_, err = repo.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrVenueNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRejectsForeignVenue(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewVenueRepo(db)

	mock.ExpectQuery("SELECT church_id FROM venues").WithArgs(3).
		WillReturnRows(sqlmock.NewRows([]string{"church_id"}).AddRow(2))

	err = repo.Update(context.Background(), 3, 99, &Venue{Name: "Hijacked", PricePerHour: 1})
	assert.ErrorIs(t, err, ErrForbidden)
	require.NoError(t, mock.ExpectationsWereMet())
}
