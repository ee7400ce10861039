package mqtt

import "sync"

// MessageID identifies an in-flight publish or subscribe issued by this
// client. IDs are assigned locally and are unique for the lifetime of the
// client.
type MessageID uint32

// opKind distinguishes pending operation types.
type opKind int

const (
	opPublish opKind = iota
	opSubscribe
)

// pendingOp is an in-flight operation awaiting its acknowledgment.
type pendingOp struct {
	kind  opKind
	topic string
}

// pendingOps tracks in-flight operations by message id.
//
// Invariant: every id seen in an acknowledgment must have a matching entry.
// An unmatched id is a protocol violation and is surfaced as an error,
// never silently dropped.
type pendingOps struct {
	mu     sync.Mutex
	nextID MessageID
	ops    map[MessageID]pendingOp
}

func newPendingOps() *pendingOps {
	return &pendingOps{ops: make(map[MessageID]pendingOp)}
}

// track registers a new in-flight operation and returns its id.
func (p *pendingOps) track(kind opKind, topic string) MessageID {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.nextID++
	id := p.nextID
	p.ops[id] = pendingOp{kind: kind, topic: topic}
	return id
}

// ack removes the pending entry for id and returns it.
// Returns *ProtocolViolation if no such entry exists.
func (p *pendingOps) ack(id MessageID) (pendingOp, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	op, ok := p.ops[id]
	if !ok {
		return pendingOp{}, &ProtocolViolation{ID: id}
	}
	delete(p.ops, id)
	return op, nil
}

// count returns the number of operations still awaiting acknowledgment.
func (p *pendingOps) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.ops)
}
