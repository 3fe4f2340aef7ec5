// Package store archives raw reconciliation inputs (imported trips
// and fetched timesheet snapshots) in Postgres. Match results are
// never persisted; every run recomputes them.
package store

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"github.com/Haokaiiii/WFX-Timesheet/internal/config"
	"github.com/Haokaiiii/WFX-Timesheet/internal/model"
)

// Connection holds the archive database connection.
type Connection struct {
	DB *sql.DB
}

// NewConnection opens and pings the archive database.
func NewConnection(cfg config.DatabaseConfig) (*Connection, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("store: ping database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	return &Connection{DB: db}, nil
}

// Close closes the database connection.
func (c *Connection) Close() error {
	return c.DB.Close()
}

// EnsureSchema creates the archive tables when missing.
func (c *Connection) EnsureSchema() error {
	_, err := c.DB.Exec(`
		CREATE TABLE IF NOT EXISTS archived_trip (
			id              BIGSERIAL PRIMARY KEY,
			run_id          TEXT NOT NULL,
			staff_id        TEXT NOT NULL,
			trip_date       DATE NOT NULL,
			start_minute    INT NOT NULL,
			end_minute      INT NOT NULL,
			origin          TEXT NOT NULL,
			destination     TEXT NOT NULL,
			distance_km     DOUBLE PRECISION NOT NULL,
			driving_minutes INT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_archived_trip_staff_date
			ON archived_trip (staff_id, trip_date);

		CREATE TABLE IF NOT EXISTS archived_timesheet (
			id          BIGSERIAL PRIMARY KEY,
			run_id      TEXT NOT NULL,
			entry_id    TEXT NOT NULL,
			staff_id    TEXT NOT NULL,
			entry_date  DATE NOT NULL,
			job_id      TEXT,
			minutes     INT NOT NULL,
			start_minute INT
		);
		CREATE INDEX IF NOT EXISTS idx_archived_timesheet_staff_date
			ON archived_timesheet (staff_id, entry_date);
	`)
	if err != nil {
		return fmt.Errorf("store: ensure schema: %w", err)
	}
	return nil
}

// ArchiveTrips stores one run's imported trips.
func (c *Connection) ArchiveTrips(runID string, trips []*model.Trip) error {
	stmt, err := c.DB.Prepare(`
		INSERT INTO archived_trip (
			run_id, staff_id, trip_date, start_minute, end_minute,
			origin, destination, distance_km, driving_minutes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`)
	if err != nil {
		return fmt.Errorf("store: prepare trip insert: %w", err)
	}
	defer stmt.Close()

	for _, trip := range trips {
		if _, err := stmt.Exec(runID, trip.StaffID, trip.Date, trip.StartMinute,
			trip.EndMinute, trip.Origin, trip.Destination, trip.DistanceKm,
			trip.DrivingMinutes); err != nil {
			return fmt.Errorf("store: insert trip: %w", err)
		}
	}
	return nil
}

// ArchiveTimesheets stores one run's fetched timesheet snapshot.
func (c *Connection) ArchiveTimesheets(runID string, entries []*model.TimesheetEntry) error {
	stmt, err := c.DB.Prepare(`
		INSERT INTO archived_timesheet (
			run_id, entry_id, staff_id, entry_date, job_id, minutes, start_minute
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`)
	if err != nil {
		return fmt.Errorf("store: prepare timesheet insert: %w", err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		jobID := sql.NullString{String: entry.JobID, Valid: entry.JobID != ""}
		start := sql.NullInt64{Int64: int64(entry.StartMinute), Valid: entry.HasDeclaredStart()}
		if _, err := stmt.Exec(runID, entry.ID, entry.StaffID, entry.Date,
			jobID, entry.Minutes, start); err != nil {
			return fmt.Errorf("store: insert timesheet entry: %w", err)
		}
	}
	return nil
}

// ListTrips returns archived trips for a staff member between two
// dates inclusive, most recent first.
func (c *Connection) ListTrips(staffID, from, to string, limit int) ([]*model.Trip, error) {
	if limit <= 0 || limit > 500 {
		limit = 500
	}

	rows, err := c.DB.Query(`
		SELECT staff_id, to_char(trip_date, 'YYYY-MM-DD'), start_minute, end_minute,
		       origin, destination, distance_km, driving_minutes
		FROM archived_trip
		WHERE staff_id = $1 AND trip_date BETWEEN $2 AND $3
		ORDER BY trip_date DESC, start_minute DESC
		LIMIT $4
	`, staffID, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list trips: %w", err)
	}
	defer rows.Close()

	var trips []*model.Trip
	for rows.Next() {
		trip := &model.Trip{}
		if err := rows.Scan(&trip.StaffID, &trip.Date, &trip.StartMinute,
			&trip.EndMinute, &trip.Origin, &trip.Destination,
			&trip.DistanceKm, &trip.DrivingMinutes); err != nil {
			return nil, fmt.Errorf("store: scan trip: %w", err)
		}
		trips = append(trips, trip)
	}
	return trips, rows.Err()
}
