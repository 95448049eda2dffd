// Package correlate tracks conversations that are awaiting a backend reply.
// Many conversations share one physical stream; replies are matched back to
// their originating chat purely by conversation id.
package correlate

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Pending is the single-assignment reply slot for one registered
// conversation. It also retains the original serialized envelope so the
// supervisor can re-send it verbatim after a reconnect.
type Pending struct {
	ConversationID string
	Envelope       []byte
	CreatedAt      time.Time

	seq      uint64
	reply    chan string
	resolved bool
}

// Wait blocks until the backend reply arrives or ctx is done.
func (p *Pending) Wait(ctx context.Context) (string, error) {
	select {
	case text := <-p.reply:
		return text, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// Snapshot is one unresolved entry as captured for resynchronization.
type Snapshot struct {
	ConversationID string
	Envelope       []byte
}

// Table maps conversation ids to their pending reply slots. At most one
// live entry exists per conversation; registering again overwrites the
// previous one (latest register wins) and the superseded waiter is left to
// time out on its own.
type Table struct {
	mu      sync.Mutex
	entries map[string]*Pending
	seq     uint64
}

func NewTable() *Table {
	return &Table{
		entries: make(map[string]*Pending),
	}
}

// Register creates the pending slot for a conversation, replacing any
// unresolved slot already present for the same id. The superseded slot is
// never resolved afterwards.
func (t *Table) Register(conversationID string, payload []byte) *Pending {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.seq++
	p := &Pending{
		ConversationID: conversationID,
		Envelope:       payload,
		CreatedAt:      time.Now(),
		seq:            t.seq,
		reply:          make(chan string, 1),
	}
	t.entries[conversationID] = p
	return p
}

// Resolve completes the live slot for a conversation exactly once. It
// reports whether a waiter existed and was completed; resolving an absent
// or already-resolved slot is a no-op.
func (t *Table) Resolve(conversationID, text string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.entries[conversationID]
	if !ok || p.resolved {
		return false
	}
	p.resolved = true
	delete(t.entries, conversationID)
	p.reply <- text
	return true
}

// Cancel removes a conversation's entry without resolving it, but only if
// p is still the live entry. A handler that timed out after being
// superseded must not evict the newer registration.
func (t *Table) Cancel(conversationID string, p *Pending) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if current, ok := t.entries[conversationID]; ok && current == p {
		delete(t.entries, conversationID)
	}
}

// SnapshotUnresolved returns every unresolved entry in registration order.
// The supervisor uses it to rebuild the send queue after a reconnect.
func (t *Table) SnapshotUnresolved() []Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	pending := make([]*Pending, 0, len(t.entries))
	for _, p := range t.entries {
		pending = append(pending, p)
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].seq < pending[j].seq
	})

	snapshots := make([]Snapshot, 0, len(pending))
	for _, p := range pending {
		snapshots = append(snapshots, Snapshot{
			ConversationID: p.ConversationID,
			Envelope:       p.Envelope,
		})
	}
	return snapshots
}

func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
