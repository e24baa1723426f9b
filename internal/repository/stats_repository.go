package repository

import (
	"context"
	"database/sql"
)

// PlatformStats is the aggregate snapshot shown on the admin dashboard.
type PlatformStats struct {
	Churches        int64   `json:"churches"`
	Venues          int64   `json:"venues"`
	Equipment       int64   `json:"equipment"`
	Bookings        int64   `json:"bookings"`
	PendingBookings int64   `json:"pending_bookings"`
	TotalRevenue    float64 `json:"total_revenue"`
}

// StatsRepo aggregates platform-wide counts for admin reporting.
type StatsRepo struct {
	db *sql.DB
}

// NewStatsRepo constructs a StatsRepo with the provided DB handle.
func NewStatsRepo(db *sql.DB) *StatsRepo {
	return &StatsRepo{db: db}
}

// Snapshot gathers the current platform totals.  Revenue sums the prices of
// bookings that reached approved or completed.
func (r *StatsRepo) Snapshot(ctx context.Context) (*PlatformStats, error) {
	const q = `SELECT
		(SELECT COUNT(*) FROM churches),
		(SELECT COUNT(*) FROM venues),
		(SELECT COUNT(*) FROM equipment),
		(SELECT COUNT(*) FROM bookings),
		(SELECT COUNT(*) FROM bookings WHERE status = 'pending'),
		(SELECT COALESCE(SUM(total_price), 0) FROM bookings WHERE status IN ('approved', 'completed'))`
	var s PlatformStats
	err := r.db.QueryRowContext(ctx, q).Scan(
		&s.Churches, &s.Venues, &s.Equipment, &s.Bookings, &s.PendingBookings, &s.TotalRevenue)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
