package entity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// HospitalRepository defines the interface for hospital persistence.
type HospitalRepository interface {
	// GetByID retrieves a hospital by its unique identifier.
	// Returns ErrNotFound if the hospital does not exist.
	GetByID(ctx context.Context, id int64) (*Hospital, error)

	// List retrieves all hospitals ordered by name.
	List(ctx context.Context) ([]Hospital, error)

	// Create inserts a new hospital and notifies the change notifier.
	Create(ctx context.Context, h *Hospital) error

	// Update modifies an existing hospital and notifies the change notifier.
	// Returns ErrNotFound if the hospital does not exist.
	Update(ctx context.Context, h *Hospital) error

	// Delete removes a hospital by ID and notifies the change notifier.
	// Deleting a hospital also removes its equipment items.
	Delete(ctx context.Context, id int64) error
}

// SQLiteHospitalRepository implements HospitalRepository using SQLite.
type SQLiteHospitalRepository struct {
	db       *sql.DB
	notifier ChangeNotifier
}

// NewSQLiteHospitalRepository creates a new SQLite-backed repository.
func NewSQLiteHospitalRepository(db *sql.DB) *SQLiteHospitalRepository {
	return &SQLiteHospitalRepository{db: db, notifier: NopNotifier{}}
}

// SetNotifier wires the change notifier invoked after each commit.
func (r *SQLiteHospitalRepository) SetNotifier(n ChangeNotifier) {
	if n == nil {
		n = NopNotifier{}
	}
	r.notifier = n
}

const hospitalColumns = `id, name, address, comment, latitude, longitude, updated_by, updated_on`

// GetByID retrieves a hospital by its unique identifier.
func (r *SQLiteHospitalRepository) GetByID(ctx context.Context, id int64) (*Hospital, error) {
	query := `SELECT ` + hospitalColumns + ` FROM hospitals WHERE id = ?`

	h, err := scanHospital(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying hospital by id: %w", err)
	}
	return h, nil
}

// List retrieves all hospitals ordered by name.
func (r *SQLiteHospitalRepository) List(ctx context.Context) ([]Hospital, error) {
	query := `SELECT ` + hospitalColumns + ` FROM hospitals ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying hospitals: %w", err)
	}
	defer rows.Close()

	var hospitals []Hospital
	for rows.Next() {
		h, err := scanHospital(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning hospital: %w", err)
		}
		hospitals = append(hospitals, *h)
	}
	return hospitals, rows.Err()
}

// Create inserts a new hospital.
func (r *SQLiteHospitalRepository) Create(ctx context.Context, h *Hospital) error {
	h.UpdatedOn = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO hospitals (name, address, comment, latitude, longitude, updated_by, updated_on)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		h.Name, h.Address, h.Comment,
		h.Location.Latitude, h.Location.Longitude,
		h.UpdatedBy, formatTime(h.UpdatedOn),
	)
	if err != nil {
		return fmt.Errorf("inserting hospital: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading hospital id: %w", err)
	}
	h.ID = id

	r.notifier.EntitySaved(ctx, KindHospital, h, true)
	return nil
}

// Update modifies an existing hospital.
func (r *SQLiteHospitalRepository) Update(ctx context.Context, h *Hospital) error {
	h.UpdatedOn = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, `
		UPDATE hospitals
		SET name = ?, address = ?, comment = ?, latitude = ?, longitude = ?,
			updated_by = ?, updated_on = ?
		WHERE id = ?`,
		h.Name, h.Address, h.Comment,
		h.Location.Latitude, h.Location.Longitude,
		h.UpdatedBy, formatTime(h.UpdatedOn),
		h.ID,
	)
	if err != nil {
		return fmt.Errorf("updating hospital: %w", err)
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}

	r.notifier.EntitySaved(ctx, KindHospital, h, false)
	return nil
}

// Delete removes a hospital by ID. Equipment items cascade in the
// database; the notifier sees only the hospital deletion.
func (r *SQLiteHospitalRepository) Delete(ctx context.Context, id int64) error {
	h, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM hospitals WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting hospital: %w", err)
	}

	r.notifier.EntityDeleted(ctx, KindHospital, h)
	return nil
}

// scanHospital scans one hospital row.
func scanHospital(row interface{ Scan(...any) error }) (*Hospital, error) {
	var h Hospital
	var updatedOn sql.NullString

	err := row.Scan(&h.ID, &h.Name, &h.Address, &h.Comment,
		&h.Location.Latitude, &h.Location.Longitude,
		&h.UpdatedBy, &updatedOn)
	if err != nil {
		return nil, err
	}

	h.UpdatedOn = parseTime(updatedOn)
	return &h, nil
}
