package broker

import (
	"context"

	"github.com/openems/dispatch-core/internal/entity"
	"github.com/openems/dispatch-core/internal/infrastructure/logging"
)

// EquipmentLister supplies the current equipment membership the bridge
// needs to rebuild a hospital's metadata topic. Satisfied by the
// equipment repository.
type EquipmentLister interface {
	ListHospitalEquipment(ctx context.Context, hospitalID int64) ([]entity.HospitalEquipment, error)
	HospitalsWithEquipment(ctx context.Context, equipmentID int64) ([]int64, error)
}

// Bridge translates storage commit notifications into broker publishes.
// It implements entity.ChangeNotifier and sits between the repositories
// and the publish façade.
//
// The bridge runs on the storage layer's commit path and therefore
// absorbs every failure: a broker problem is logged and swallowed, never
// returned or panicked back into a transaction that already committed.
//
// Metadata cascade: creating or deleting an equipment item changes which
// items a hospital holds, so the holder's metadata topic is republished.
// Updating an item's value does not change membership and leaves the
// metadata topic untouched.
type Bridge struct {
	manager *Manager
	lister  EquipmentLister
	log     *logging.Logger
}

// NewBridge creates a bridge publishing through the manager's façade.
func NewBridge(manager *Manager, lister EquipmentLister, log *logging.Logger) *Bridge {
	return &Bridge{
		manager: manager,
		lister:  lister,
		log:     log.With("component", "bridge"),
	}
}

// EntitySaved implements entity.ChangeNotifier.
func (b *Bridge) EntitySaved(ctx context.Context, kind entity.Kind, e any, wasCreated bool) {
	defer b.recover(kind)
	facade := b.manager.Facade()

	switch kind {
	case entity.KindAmbulance:
		if a, ok := e.(*entity.Ambulance); ok {
			b.absorb(kind, facade.PublishAmbulance(a))
		}

	case entity.KindHospital:
		h, ok := e.(*entity.Hospital)
		if !ok {
			return
		}
		b.absorb(kind, facade.PublishHospital(h))
		if wasCreated {
			b.republishMetadata(ctx, facade, h.ID)
		}

	case entity.KindHospitalEquipment:
		item, ok := e.(*entity.HospitalEquipment)
		if !ok {
			return
		}
		b.absorb(kind, facade.PublishEquipmentValue(item))
		// Creation changes membership; a value update does not.
		if wasCreated {
			b.republishMetadata(ctx, facade, item.HospitalID)
		}

	case entity.KindEquipment:
		def, ok := e.(*entity.Equipment)
		if !ok || wasCreated {
			// A new definition has no holders yet.
			return
		}
		b.republishDefinitionHolders(ctx, facade, def)

	case entity.KindCall:
		if c, ok := e.(*entity.Call); ok {
			b.absorb(kind, facade.PublishCall(c))
		}

	case entity.KindProfile:
		if p, ok := e.(*entity.Profile); ok {
			b.absorb(kind, facade.PublishProfile(p))
		}

	case entity.KindSettings:
		if s, ok := e.(*entity.Settings); ok {
			b.absorb(kind, facade.PublishSettings(s))
		}
	}
}

// EntityDeleted implements entity.ChangeNotifier.
func (b *Bridge) EntityDeleted(ctx context.Context, kind entity.Kind, e any) {
	defer b.recover(kind)
	facade := b.manager.Facade()

	switch kind {
	case entity.KindAmbulance:
		if a, ok := e.(*entity.Ambulance); ok {
			b.absorb(kind, facade.RemoveAmbulance(a.ID))
		}

	case entity.KindHospital:
		if h, ok := e.(*entity.Hospital); ok {
			b.absorb(kind, facade.RemoveHospital(h.ID))
		}

	case entity.KindHospitalEquipment:
		item, ok := e.(*entity.HospitalEquipment)
		if !ok {
			return
		}
		b.absorb(kind, facade.RemoveEquipmentValue(item.HospitalID, item.EquipmentName))
		b.republishMetadata(ctx, facade, item.HospitalID)

	case entity.KindEquipment:
		// Holder items are deleted and notified individually before the
		// definition goes; nothing is left to clear here.

	case entity.KindCall:
		if c, ok := e.(*entity.Call); ok {
			b.absorb(kind, facade.RemoveCall(c.ID))
		}

	case entity.KindProfile:
		if p, ok := e.(*entity.Profile); ok {
			b.absorb(kind, facade.RemoveProfile(p.Username))
		}
	}
}

// republishMetadata rebuilds one hospital's metadata topic from its
// current equipment membership.
func (b *Bridge) republishMetadata(ctx context.Context, facade *Facade, hospitalID int64) {
	items, err := b.lister.ListHospitalEquipment(ctx, hospitalID)
	if err != nil {
		b.log.Error("Listing equipment for metadata republish failed",
			"hospital_id", hospitalID,
			"error", err,
		)
		return
	}
	b.absorb(entity.KindHospital, facade.PublishHospitalMetadata(hospitalID, items))
}

// republishDefinitionHolders refreshes every hospital referencing a
// changed equipment definition: metadata plus each holder's item value,
// since the definition's name and type are denormalized into both.
func (b *Bridge) republishDefinitionHolders(ctx context.Context, facade *Facade, def *entity.Equipment) {
	holders, err := b.lister.HospitalsWithEquipment(ctx, def.ID)
	if err != nil {
		b.log.Error("Listing holders for definition republish failed",
			"equipment_id", def.ID,
			"error", err,
		)
		return
	}

	for _, hospitalID := range holders {
		items, err := b.lister.ListHospitalEquipment(ctx, hospitalID)
		if err != nil {
			b.log.Error("Listing equipment for definition republish failed",
				"hospital_id", hospitalID,
				"error", err,
			)
			continue
		}
		for i := range items {
			if items[i].EquipmentID == def.ID {
				b.absorb(entity.KindHospitalEquipment, facade.PublishEquipmentValue(&items[i]))
			}
		}
		b.absorb(entity.KindHospital, facade.PublishHospitalMetadata(hospitalID, items))
	}
}

// absorb logs a façade error without letting it escape to the storage layer.
func (b *Bridge) absorb(kind entity.Kind, err error) {
	if err != nil {
		b.log.Error("Broker state publish failed",
			"kind", string(kind),
			"error", err,
		)
	}
}

// recover keeps a publish-path panic out of the storage commit path.
func (b *Bridge) recover(kind entity.Kind) {
	if r := recover(); r != nil {
		b.log.Error("Broker bridge panic recovered",
			"kind", string(kind),
			"panic", r,
		)
	}
}
