package broker

import (
	"context"
	"fmt"

	"github.com/openems/dispatch-core/internal/entity"
	"github.com/openems/dispatch-core/internal/infrastructure/logging"
)

// SeedSource supplies the full current state of the system of record.
// Satisfied by the repositories.
type SeedSource interface {
	ListAmbulances(ctx context.Context) ([]entity.Ambulance, error)
	ListHospitals(ctx context.Context) ([]entity.Hospital, error)
	ListHospitalEquipment(ctx context.Context, hospitalID int64) ([]entity.HospitalEquipment, error)
}

// Seed publishes the complete current state to the broker: settings,
// every ambulance, every hospital with its metadata and equipment values.
// Run at service start so retained broker state converges with the
// database after downtime. Reading the state is fatal; publishing follows
// the façade's absorb-and-log rules.
func Seed(ctx context.Context, facade *Facade, src SeedSource, log *logging.Logger) error {
	if facade.Degraded() {
		log.Warn("Skipping startup seed; broker mirror is degraded")
		return nil
	}

	if err := facade.PublishSettings(entity.DefaultSettings()); err != nil {
		return fmt.Errorf("seeding settings: %w", err)
	}

	ambulances, err := src.ListAmbulances(ctx)
	if err != nil {
		return fmt.Errorf("seeding ambulances: %w", err)
	}
	for i := range ambulances {
		if err := facade.PublishAmbulance(&ambulances[i]); err != nil {
			return fmt.Errorf("seeding ambulance %d: %w", ambulances[i].ID, err)
		}
	}

	hospitals, err := src.ListHospitals(ctx)
	if err != nil {
		return fmt.Errorf("seeding hospitals: %w", err)
	}

	var items int
	for i := range hospitals {
		h := &hospitals[i]
		if err := facade.PublishHospital(h); err != nil {
			return fmt.Errorf("seeding hospital %d: %w", h.ID, err)
		}

		equipment, err := src.ListHospitalEquipment(ctx, h.ID)
		if err != nil {
			return fmt.Errorf("seeding hospital %d equipment: %w", h.ID, err)
		}
		if err := facade.PublishHospitalMetadata(h.ID, equipment); err != nil {
			return fmt.Errorf("seeding hospital %d metadata: %w", h.ID, err)
		}
		for j := range equipment {
			if err := facade.PublishEquipmentValue(&equipment[j]); err != nil {
				return fmt.Errorf("seeding hospital %d equipment %q: %w", h.ID, equipment[j].EquipmentName, err)
			}
			items++
		}
	}

	log.Info("Startup seed published",
		"ambulances", len(ambulances),
		"hospitals", len(hospitals),
		"equipment_items", items,
	)
	return nil
}
