package entity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// AmbulanceRepository defines the interface for ambulance persistence.
// This abstraction allows for different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type AmbulanceRepository interface {
	// GetByID retrieves an ambulance by its unique identifier.
	// Returns ErrNotFound if the ambulance does not exist.
	GetByID(ctx context.Context, id int64) (*Ambulance, error)

	// List retrieves all ambulances ordered by identifier.
	List(ctx context.Context) ([]Ambulance, error)

	// Create inserts a new ambulance and notifies the change notifier.
	Create(ctx context.Context, a *Ambulance) error

	// Update modifies an existing ambulance and notifies the change notifier.
	// Returns ErrNotFound if the ambulance does not exist.
	Update(ctx context.Context, a *Ambulance) error

	// Delete removes an ambulance by ID and notifies the change notifier.
	// Returns ErrNotFound if the ambulance does not exist.
	Delete(ctx context.Context, id int64) error
}

// SQLiteAmbulanceRepository implements AmbulanceRepository using SQLite.
type SQLiteAmbulanceRepository struct {
	db       *sql.DB
	notifier ChangeNotifier
}

// NewSQLiteAmbulanceRepository creates a new SQLite-backed repository.
// The db parameter should be an open SQLite connection.
func NewSQLiteAmbulanceRepository(db *sql.DB) *SQLiteAmbulanceRepository {
	return &SQLiteAmbulanceRepository{db: db, notifier: NopNotifier{}}
}

// SetNotifier wires the change notifier invoked after each commit.
func (r *SQLiteAmbulanceRepository) SetNotifier(n ChangeNotifier) {
	if n == nil {
		n = NopNotifier{}
	}
	r.notifier = n
}

const ambulanceColumns = `id, identifier, capability, status, orientation,
	latitude, longitude, location_timestamp, comment, updated_by, updated_on`

// GetByID retrieves an ambulance by its unique identifier.
func (r *SQLiteAmbulanceRepository) GetByID(ctx context.Context, id int64) (*Ambulance, error) {
	query := `SELECT ` + ambulanceColumns + ` FROM ambulances WHERE id = ?`

	a, err := scanAmbulance(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying ambulance by id: %w", err)
	}
	return a, nil
}

// List retrieves all ambulances ordered by identifier.
func (r *SQLiteAmbulanceRepository) List(ctx context.Context) ([]Ambulance, error) {
	query := `SELECT ` + ambulanceColumns + ` FROM ambulances ORDER BY identifier`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying ambulances: %w", err)
	}
	defer rows.Close()

	var ambulances []Ambulance
	for rows.Next() {
		a, err := scanAmbulance(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning ambulance: %w", err)
		}
		ambulances = append(ambulances, *a)
	}
	return ambulances, rows.Err()
}

// Create inserts a new ambulance.
func (r *SQLiteAmbulanceRepository) Create(ctx context.Context, a *Ambulance) error {
	a.UpdatedOn = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO ambulances (identifier, capability, status, orientation,
			latitude, longitude, location_timestamp, comment, updated_by, updated_on)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.Identifier, a.Capability, a.Status, a.Orientation,
		a.Location.Latitude, a.Location.Longitude,
		formatTime(a.LocationTimestamp), a.Comment, a.UpdatedBy, formatTime(a.UpdatedOn),
	)
	if err != nil {
		return fmt.Errorf("inserting ambulance: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading ambulance id: %w", err)
	}
	a.ID = id

	r.notifier.EntitySaved(ctx, KindAmbulance, a, true)
	return nil
}

// Update modifies an existing ambulance.
func (r *SQLiteAmbulanceRepository) Update(ctx context.Context, a *Ambulance) error {
	a.UpdatedOn = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, `
		UPDATE ambulances
		SET identifier = ?, capability = ?, status = ?, orientation = ?,
			latitude = ?, longitude = ?, location_timestamp = ?,
			comment = ?, updated_by = ?, updated_on = ?
		WHERE id = ?`,
		a.Identifier, a.Capability, a.Status, a.Orientation,
		a.Location.Latitude, a.Location.Longitude,
		formatTime(a.LocationTimestamp), a.Comment, a.UpdatedBy, formatTime(a.UpdatedOn),
		a.ID,
	)
	if err != nil {
		return fmt.Errorf("updating ambulance: %w", err)
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}

	r.notifier.EntitySaved(ctx, KindAmbulance, a, false)
	return nil
}

// Delete removes an ambulance by ID.
func (r *SQLiteAmbulanceRepository) Delete(ctx context.Context, id int64) error {
	a, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM ambulances WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting ambulance: %w", err)
	}

	r.notifier.EntityDeleted(ctx, KindAmbulance, a)
	return nil
}

// scanAmbulance scans one ambulance row.
func scanAmbulance(row interface{ Scan(...any) error }) (*Ambulance, error) {
	var a Ambulance
	var locationTS, updatedOn sql.NullString

	err := row.Scan(&a.ID, &a.Identifier, &a.Capability, &a.Status, &a.Orientation,
		&a.Location.Latitude, &a.Location.Longitude, &locationTS,
		&a.Comment, &a.UpdatedBy, &updatedOn)
	if err != nil {
		return nil, err
	}

	a.LocationTimestamp = parseTime(locationTS)
	a.UpdatedOn = parseTime(updatedOn)
	return &a, nil
}

// formatTime stores timestamps as RFC3339 strings; zero times as NULL-safe "".
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// parseTime reverses formatTime; unparseable values become zero times.
func parseTime(s sql.NullString) time.Time {
	if !s.Valid || s.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return time.Time{}
	}
	return t
}
