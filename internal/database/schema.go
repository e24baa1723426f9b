package database

import (
	"context"
	"database/sql"
	"fmt"
)

// Migrate creates the application tables when they do not exist yet.  The
// statements are ordered so that referenced tables exist before the tables
// holding the foreign keys.  amenities and images columns hold JSON-encoded
// arrays and are decoded in the repository layer.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS churches (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(16) NOT NULL DEFAULT 'MEMBER',
			phone VARCHAR(64),
			address VARCHAR(255),
			city VARCHAR(128),
			province VARCHAR(128),
			zip_code VARCHAR(32),
			description TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS refresh_tokens (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			church_id BIGINT UNSIGNED NOT NULL,
			token_hash CHAR(64) NOT NULL,
			expires_at DATETIME NOT NULL,
			revoked_at DATETIME NULL,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_refresh_tokens_hash (token_hash),
			FOREIGN KEY (church_id) REFERENCES churches(id)
		)`,
		`CREATE TABLE IF NOT EXISTS venues (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			church_id BIGINT UNSIGNED NOT NULL,
			name VARCHAR(255) NOT NULL,
			description TEXT,
			capacity INT,
			price_per_hour DECIMAL(10,2) NOT NULL,
			price_per_half_day DECIMAL(10,2),
			price_per_day DECIMAL(10,2),
			address VARCHAR(255),
			city VARCHAR(128),
			province VARCHAR(128),
			zip_code VARCHAR(32),
			amenities TEXT,
			images TEXT,
			is_available BOOLEAN NOT NULL DEFAULT TRUE,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (church_id) REFERENCES churches(id)
		)`,
		`CREATE TABLE IF NOT EXISTS equipment (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			church_id BIGINT UNSIGNED NOT NULL,
			name VARCHAR(255) NOT NULL,
			description TEXT,
			category VARCHAR(64),
			price_per_hour DECIMAL(10,2),
			price_per_day DECIMAL(10,2),
			quantity INT NOT NULL DEFAULT 1,
			images TEXT,
			is_available BOOLEAN NOT NULL DEFAULT TRUE,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (church_id) REFERENCES churches(id)
		)`,
		`CREATE TABLE IF NOT EXISTS bookings (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			church_id BIGINT UNSIGNED NOT NULL,
			venue_id BIGINT UNSIGNED NULL,
			equipment_id BIGINT UNSIGNED NULL,
			booking_type VARCHAR(32) NOT NULL,
			start_date DATETIME NOT NULL,
			end_date DATETIME NOT NULL,
			price_option VARCHAR(16) NOT NULL DEFAULT 'hourly',
			total_price DECIMAL(10,2) NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'pending',
			event_type VARCHAR(128),
			attendees INT,
			notes TEXT,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			INDEX idx_bookings_venue_window (venue_id, start_date, end_date),
			INDEX idx_bookings_equipment_window (equipment_id, start_date, end_date),
			FOREIGN KEY (church_id) REFERENCES churches(id),
			FOREIGN KEY (venue_id) REFERENCES venues(id),
			FOREIGN KEY (equipment_id) REFERENCES equipment(id)
		)`,
		`CREATE TABLE IF NOT EXISTS booking_equipment (
			id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
			booking_id BIGINT UNSIGNED NOT NULL,
			equipment_id BIGINT UNSIGNED NOT NULL,
			quantity INT NOT NULL DEFAULT 1,
			FOREIGN KEY (booking_id) REFERENCES bookings(id) ON DELETE CASCADE,
			FOREIGN KEY (equipment_id) REFERENCES equipment(id)
		)`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
