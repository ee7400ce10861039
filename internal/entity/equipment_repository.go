package entity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// EquipmentRepository defines the interface for equipment definitions and
// per-hospital equipment items.
type EquipmentRepository interface {
	// GetByID retrieves an equipment definition by ID.
	// Returns ErrNotFound if it does not exist.
	GetByID(ctx context.Context, id int64) (*Equipment, error)

	// List retrieves all equipment definitions ordered by name.
	List(ctx context.Context) ([]Equipment, error)

	// Create inserts a new equipment definition.
	Create(ctx context.Context, e *Equipment) error

	// Update modifies an equipment definition and notifies the change
	// notifier so dependent hospital state can be refreshed.
	Update(ctx context.Context, e *Equipment) error

	// Delete removes an equipment definition. Hospital items referencing
	// it cascade in the database.
	Delete(ctx context.Context, id int64) error

	// GetItem retrieves one hospital's item of an equipment definition.
	GetItem(ctx context.Context, hospitalID, equipmentID int64) (*HospitalEquipment, error)

	// SaveItem creates or updates a hospital's equipment item. Creation
	// and value update are distinguished in the change notification.
	SaveItem(ctx context.Context, item *HospitalEquipment) error

	// DeleteItem removes a hospital's equipment item.
	DeleteItem(ctx context.Context, hospitalID, equipmentID int64) error

	// ListHospitalEquipment returns all equipment items held by one hospital,
	// ordered by equipment name.
	ListHospitalEquipment(ctx context.Context, hospitalID int64) ([]HospitalEquipment, error)

	// HospitalsWithEquipment returns the IDs of hospitals holding an item
	// of the given equipment definition.
	HospitalsWithEquipment(ctx context.Context, equipmentID int64) ([]int64, error)
}

// SQLiteEquipmentRepository implements EquipmentRepository using SQLite.
type SQLiteEquipmentRepository struct {
	db       *sql.DB
	notifier ChangeNotifier
}

// NewSQLiteEquipmentRepository creates a new SQLite-backed repository.
func NewSQLiteEquipmentRepository(db *sql.DB) *SQLiteEquipmentRepository {
	return &SQLiteEquipmentRepository{db: db, notifier: NopNotifier{}}
}

// SetNotifier wires the change notifier invoked after each commit.
func (r *SQLiteEquipmentRepository) SetNotifier(n ChangeNotifier) {
	if n == nil {
		n = NopNotifier{}
	}
	r.notifier = n
}

// GetByID retrieves an equipment definition by ID.
func (r *SQLiteEquipmentRepository) GetByID(ctx context.Context, id int64) (*Equipment, error) {
	var e Equipment
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, type, default_value FROM equipment WHERE id = ?`, id,
	).Scan(&e.ID, &e.Name, &e.Type, &e.DefaultValue)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying equipment by id: %w", err)
	}
	return &e, nil
}

// List retrieves all equipment definitions ordered by name.
func (r *SQLiteEquipmentRepository) List(ctx context.Context) ([]Equipment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, type, default_value FROM equipment ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("querying equipment: %w", err)
	}
	defer rows.Close()

	var defs []Equipment
	for rows.Next() {
		var e Equipment
		if err := rows.Scan(&e.ID, &e.Name, &e.Type, &e.DefaultValue); err != nil {
			return nil, fmt.Errorf("scanning equipment: %w", err)
		}
		defs = append(defs, e)
	}
	return defs, rows.Err()
}

// Create inserts a new equipment definition.
func (r *SQLiteEquipmentRepository) Create(ctx context.Context, e *Equipment) error {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO equipment (name, type, default_value) VALUES (?, ?, ?)`,
		e.Name, e.Type, e.DefaultValue,
	)
	if err != nil {
		return fmt.Errorf("inserting equipment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading equipment id: %w", err)
	}
	e.ID = id

	r.notifier.EntitySaved(ctx, KindEquipment, e, true)
	return nil
}

// Update modifies an equipment definition.
func (r *SQLiteEquipmentRepository) Update(ctx context.Context, e *Equipment) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE equipment SET name = ?, type = ?, default_value = ? WHERE id = ?`,
		e.Name, e.Type, e.DefaultValue, e.ID,
	)
	if err != nil {
		return fmt.Errorf("updating equipment: %w", err)
	}

	if affected, _ := result.RowsAffected(); affected == 0 {
		return ErrNotFound
	}

	r.notifier.EntitySaved(ctx, KindEquipment, e, false)
	return nil
}

// Delete removes an equipment definition.
func (r *SQLiteEquipmentRepository) Delete(ctx context.Context, id int64) error {
	e, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}

	// Capture the holders before the cascade wipes the items, so the
	// notifier can refresh each affected hospital.
	holders, err := r.HospitalsWithEquipment(ctx, id)
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM equipment WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting equipment: %w", err)
	}

	for _, hospitalID := range holders {
		r.notifier.EntityDeleted(ctx, KindHospitalEquipment, &HospitalEquipment{
			HospitalID:    hospitalID,
			EquipmentID:   e.ID,
			EquipmentName: e.Name,
			EquipmentType: e.Type,
		})
	}
	r.notifier.EntityDeleted(ctx, KindEquipment, e)
	return nil
}

const itemColumns = `he.hospital_id, he.equipment_id, e.name, e.type,
	he.value, he.comment, he.updated_by, he.updated_on`

// GetItem retrieves one hospital's item of an equipment definition.
func (r *SQLiteEquipmentRepository) GetItem(ctx context.Context, hospitalID, equipmentID int64) (*HospitalEquipment, error) {
	query := `SELECT ` + itemColumns + `
		FROM hospital_equipment he
		JOIN equipment e ON e.id = he.equipment_id
		WHERE he.hospital_id = ? AND he.equipment_id = ?`

	item, err := scanItem(r.db.QueryRowContext(ctx, query, hospitalID, equipmentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying equipment item: %w", err)
	}
	return item, nil
}

// SaveItem creates or updates a hospital's equipment item.
func (r *SQLiteEquipmentRepository) SaveItem(ctx context.Context, item *HospitalEquipment) error {
	def, err := r.GetByID(ctx, item.EquipmentID)
	if err != nil {
		return err
	}
	item.EquipmentName = def.Name
	item.EquipmentType = def.Type
	item.UpdatedOn = time.Now().UTC()

	_, existsErr := r.GetItem(ctx, item.HospitalID, item.EquipmentID)
	wasCreated := errors.Is(existsErr, ErrNotFound)
	if existsErr != nil && !wasCreated {
		return existsErr
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO hospital_equipment (hospital_id, equipment_id, value, comment, updated_by, updated_on)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(hospital_id, equipment_id) DO UPDATE SET
			value = excluded.value,
			comment = excluded.comment,
			updated_by = excluded.updated_by,
			updated_on = excluded.updated_on`,
		item.HospitalID, item.EquipmentID, item.Value, item.Comment,
		item.UpdatedBy, formatTime(item.UpdatedOn),
	)
	if err != nil {
		return fmt.Errorf("saving equipment item: %w", err)
	}

	r.notifier.EntitySaved(ctx, KindHospitalEquipment, item, wasCreated)
	return nil
}

// DeleteItem removes a hospital's equipment item.
func (r *SQLiteEquipmentRepository) DeleteItem(ctx context.Context, hospitalID, equipmentID int64) error {
	item, err := r.GetItem(ctx, hospitalID, equipmentID)
	if err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx,
		`DELETE FROM hospital_equipment WHERE hospital_id = ? AND equipment_id = ?`,
		hospitalID, equipmentID,
	); err != nil {
		return fmt.Errorf("deleting equipment item: %w", err)
	}

	r.notifier.EntityDeleted(ctx, KindHospitalEquipment, item)
	return nil
}

// ListHospitalEquipment returns all equipment items held by one hospital.
func (r *SQLiteEquipmentRepository) ListHospitalEquipment(ctx context.Context, hospitalID int64) ([]HospitalEquipment, error) {
	query := `SELECT ` + itemColumns + `
		FROM hospital_equipment he
		JOIN equipment e ON e.id = he.equipment_id
		WHERE he.hospital_id = ?
		ORDER BY e.name`

	rows, err := r.db.QueryContext(ctx, query, hospitalID)
	if err != nil {
		return nil, fmt.Errorf("querying hospital equipment: %w", err)
	}
	defer rows.Close()

	var items []HospitalEquipment
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning equipment item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// HospitalsWithEquipment returns the IDs of hospitals holding an item of
// the given equipment definition.
func (r *SQLiteEquipmentRepository) HospitalsWithEquipment(ctx context.Context, equipmentID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT hospital_id FROM hospital_equipment WHERE equipment_id = ? ORDER BY hospital_id`,
		equipmentID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying equipment holders: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning hospital id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// scanItem scans one hospital_equipment row joined with its definition.
func scanItem(row interface{ Scan(...any) error }) (*HospitalEquipment, error) {
	var item HospitalEquipment
	var updatedOn sql.NullString

	err := row.Scan(&item.HospitalID, &item.EquipmentID,
		&item.EquipmentName, &item.EquipmentType,
		&item.Value, &item.Comment, &item.UpdatedBy, &updatedOn)
	if err != nil {
		return nil, err
	}

	item.UpdatedOn = parseTime(updatedOn)
	return &item, nil
}
