package entity

import "context"

// ChangeNotifier receives entity-lifecycle notifications from the storage
// layer's commit path. Repositories call it synchronously after their own
// commit; implementations must absorb every downstream failure and never
// return control-flow errors back into the storage layer.
type ChangeNotifier interface {
	// EntitySaved reports a created or updated entity. wasCreated
	// distinguishes creation (which may cascade derived state, e.g.
	// aggregate membership) from a value update (which must not).
	EntitySaved(ctx context.Context, kind Kind, entity any, wasCreated bool)

	// EntityDeleted reports a removed entity.
	EntityDeleted(ctx context.Context, kind Kind, entity any)
}

// NopNotifier is a ChangeNotifier that does nothing. Repositories fall
// back to it when no notifier is wired, so the storage layer never has to
// nil-check.
type NopNotifier struct{}

// EntitySaved implements ChangeNotifier.
func (NopNotifier) EntitySaved(context.Context, Kind, any, bool) {}

// EntityDeleted implements ChangeNotifier.
func (NopNotifier) EntityDeleted(context.Context, Kind, any) {}
