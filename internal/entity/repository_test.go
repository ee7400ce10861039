package entity_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/openems/dispatch-core/internal/entity"
	"github.com/openems/dispatch-core/internal/infrastructure/database"
	_ "github.com/openems/dispatch-core/migrations"
)

// testDB opens a migrated throwaway database under t.TempDir().
func testDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.Open(database.Config{
		Path:        filepath.Join(t.TempDir(), "dispatch.db"),
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return db
}

// notification records one ChangeNotifier call.
type notification struct {
	kind       entity.Kind
	entity     any
	wasCreated bool
	deleted    bool
}

// recordingNotifier captures notifications for assertions.
type recordingNotifier struct {
	events []notification
}

func (n *recordingNotifier) EntitySaved(_ context.Context, kind entity.Kind, e any, wasCreated bool) {
	n.events = append(n.events, notification{kind: kind, entity: e, wasCreated: wasCreated})
}

func (n *recordingNotifier) EntityDeleted(_ context.Context, kind entity.Kind, e any) {
	n.events = append(n.events, notification{kind: kind, entity: e, deleted: true})
}

func TestAmbulanceRepository_CRUD(t *testing.T) {
	db := testDB(t)
	notifier := &recordingNotifier{}
	repo := entity.NewSQLiteAmbulanceRepository(db.DB)
	repo.SetNotifier(notifier)
	ctx := context.Background()

	a := &entity.Ambulance{
		Identifier: "AMB-7",
		Capability: entity.CapabilityAdvanced,
		Status:     entity.StatusAvailable,
		Location:   entity.Location{Latitude: 46.77, Longitude: 23.59},
		UpdatedBy:  "dispatcher",
	}
	if err := repo.Create(ctx, a); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if a.ID == 0 {
		t.Fatal("Create() did not assign an ID")
	}

	got, err := repo.GetByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Identifier != "AMB-7" || got.Status != entity.StatusAvailable {
		t.Errorf("GetByID() = %+v, want identifier AMB-7 status AV", got)
	}

	got.Status = entity.StatusPatientBound
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	list, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 1 || list[0].Status != entity.StatusPatientBound {
		t.Errorf("List() = %+v, want one patient-bound ambulance", list)
	}

	if err := repo.Delete(ctx, a.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByID(ctx, a.ID); !errors.Is(err, entity.ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}

	// create, update, delete
	if len(notifier.events) != 3 {
		t.Fatalf("got %d notifications, want 3", len(notifier.events))
	}
	if !notifier.events[0].wasCreated || notifier.events[0].kind != entity.KindAmbulance {
		t.Errorf("first notification = %+v, want ambulance created", notifier.events[0])
	}
	if notifier.events[1].wasCreated {
		t.Error("update notification reported wasCreated = true")
	}
	if !notifier.events[2].deleted {
		t.Error("delete notification not recorded")
	}
}

func TestAmbulanceRepository_UpdateMissing(t *testing.T) {
	db := testDB(t)
	repo := entity.NewSQLiteAmbulanceRepository(db.DB)

	err := repo.Update(context.Background(), &entity.Ambulance{ID: 999, Identifier: "ghost"})
	if !errors.Is(err, entity.ErrNotFound) {
		t.Errorf("Update() error = %v, want ErrNotFound", err)
	}
}

func TestHospitalRepository_CRUD(t *testing.T) {
	db := testDB(t)
	notifier := &recordingNotifier{}
	repo := entity.NewSQLiteHospitalRepository(db.DB)
	repo.SetNotifier(notifier)
	ctx := context.Background()

	h := &entity.Hospital{
		Name:     "County Emergency",
		Address:  "1 Main St",
		Location: entity.Location{Latitude: 46.75, Longitude: 23.57},
	}
	if err := repo.Create(ctx, h); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	h.Comment = "renovated"
	if err := repo.Update(ctx, h); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := repo.GetByID(ctx, h.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.Comment != "renovated" {
		t.Errorf("comment = %q, want renovated", got.Comment)
	}

	if err := repo.Delete(ctx, h.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByID(ctx, h.ID); !errors.Is(err, entity.ErrNotFound) {
		t.Errorf("GetByID() after delete error = %v, want ErrNotFound", err)
	}
}

func TestEquipmentRepository_ItemLifecycle(t *testing.T) {
	db := testDB(t)
	notifier := &recordingNotifier{}

	hospitals := entity.NewSQLiteHospitalRepository(db.DB)
	repo := entity.NewSQLiteEquipmentRepository(db.DB)
	repo.SetNotifier(notifier)
	ctx := context.Background()

	h := &entity.Hospital{Name: "General"}
	if err := hospitals.Create(ctx, h); err != nil {
		t.Fatalf("creating hospital: %v", err)
	}

	def := &entity.Equipment{Name: "Tomography", Type: entity.EquipmentTypeInteger, DefaultValue: "0"}
	if err := repo.Create(ctx, def); err != nil {
		t.Fatalf("creating definition: %v", err)
	}
	notifier.events = nil

	item := &entity.HospitalEquipment{
		HospitalID:  h.ID,
		EquipmentID: def.ID,
		Value:       "3",
		UpdatedBy:   "admin",
	}
	if err := repo.SaveItem(ctx, item); err != nil {
		t.Fatalf("SaveItem() create error = %v", err)
	}
	if item.EquipmentName != "Tomography" {
		t.Errorf("SaveItem() did not denormalize name, got %q", item.EquipmentName)
	}
	if len(notifier.events) != 1 || !notifier.events[0].wasCreated {
		t.Fatalf("item creation notification = %+v, want wasCreated", notifier.events)
	}

	item.Value = "2"
	if err := repo.SaveItem(ctx, item); err != nil {
		t.Fatalf("SaveItem() update error = %v", err)
	}
	if last := notifier.events[len(notifier.events)-1]; last.wasCreated {
		t.Error("value update notification reported wasCreated = true")
	}

	got, err := repo.GetItem(ctx, h.ID, def.ID)
	if err != nil {
		t.Fatalf("GetItem() error = %v", err)
	}
	if got.Value != "2" {
		t.Errorf("item value = %q, want 2", got.Value)
	}

	items, err := repo.ListHospitalEquipment(ctx, h.ID)
	if err != nil {
		t.Fatalf("ListHospitalEquipment() error = %v", err)
	}
	if len(items) != 1 || items[0].EquipmentName != "Tomography" {
		t.Errorf("ListHospitalEquipment() = %+v, want one Tomography item", items)
	}

	holders, err := repo.HospitalsWithEquipment(ctx, def.ID)
	if err != nil {
		t.Fatalf("HospitalsWithEquipment() error = %v", err)
	}
	if len(holders) != 1 || holders[0] != h.ID {
		t.Errorf("HospitalsWithEquipment() = %v, want [%d]", holders, h.ID)
	}

	if err := repo.DeleteItem(ctx, h.ID, def.ID); err != nil {
		t.Fatalf("DeleteItem() error = %v", err)
	}
	if _, err := repo.GetItem(ctx, h.ID, def.ID); !errors.Is(err, entity.ErrNotFound) {
		t.Errorf("GetItem() after delete error = %v, want ErrNotFound", err)
	}
}

func TestEquipmentRepository_DeleteDefinitionNotifiesHolders(t *testing.T) {
	db := testDB(t)
	notifier := &recordingNotifier{}

	hospitals := entity.NewSQLiteHospitalRepository(db.DB)
	repo := entity.NewSQLiteEquipmentRepository(db.DB)
	ctx := context.Background()

	h1 := &entity.Hospital{Name: "North"}
	h2 := &entity.Hospital{Name: "South"}
	for _, h := range []*entity.Hospital{h1, h2} {
		if err := hospitals.Create(ctx, h); err != nil {
			t.Fatalf("creating hospital: %v", err)
		}
	}

	def := &entity.Equipment{Name: "Ventilator", Type: entity.EquipmentTypeInteger}
	if err := repo.Create(ctx, def); err != nil {
		t.Fatalf("creating definition: %v", err)
	}
	for _, h := range []*entity.Hospital{h1, h2} {
		item := &entity.HospitalEquipment{HospitalID: h.ID, EquipmentID: def.ID, Value: "1"}
		if err := repo.SaveItem(ctx, item); err != nil {
			t.Fatalf("SaveItem() error = %v", err)
		}
	}

	repo.SetNotifier(notifier)
	if err := repo.Delete(ctx, def.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	// One item deletion per holder, then the definition itself.
	if len(notifier.events) != 3 {
		t.Fatalf("got %d notifications, want 3: %+v", len(notifier.events), notifier.events)
	}
	for _, ev := range notifier.events[:2] {
		if ev.kind != entity.KindHospitalEquipment || !ev.deleted {
			t.Errorf("holder notification = %+v, want hospital_equipment deleted", ev)
		}
	}
	if last := notifier.events[2]; last.kind != entity.KindEquipment || !last.deleted {
		t.Errorf("final notification = %+v, want equipment deleted", last)
	}

	items, err := repo.ListHospitalEquipment(ctx, h1.ID)
	if err != nil {
		t.Fatalf("ListHospitalEquipment() error = %v", err)
	}
	if len(items) != 0 {
		t.Errorf("items survived definition delete: %+v", items)
	}
}

func TestEquipmentRepository_SaveItemUnknownDefinition(t *testing.T) {
	db := testDB(t)
	repo := entity.NewSQLiteEquipmentRepository(db.DB)

	err := repo.SaveItem(context.Background(), &entity.HospitalEquipment{
		HospitalID:  1,
		EquipmentID: 42,
	})
	if !errors.Is(err, entity.ErrNotFound) {
		t.Errorf("SaveItem() error = %v, want ErrNotFound", err)
	}
}
