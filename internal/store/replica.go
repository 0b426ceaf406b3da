package store

import (
	"context"
	"errors"
	"sync"
)

// MaxPayloadBytes caps the document size a replica accepts. Larger writes
// fail with ErrQuotaExceeded.
const MaxPayloadBytes = 1 << 20

// ErrQuotaExceeded is returned when the replica refuses a write for space.
var ErrQuotaExceeded = errors.New("replica storage quota exceeded")

// ChangeReason says why a replica reported an external change.
type ChangeReason int

const (
	// ReasonServerChange means another device wrote the document.
	ReasonServerChange ChangeReason = iota
	// ReasonInitialSync is delivered once when a watch is established.
	ReasonInitialSync
	// ReasonQuotaViolation means the replica is out of space.
	ReasonQuotaViolation
	// ReasonAccountChange means the replica identity changed, e.g. after a
	// reconnect to a different server.
	ReasonAccountChange
)

func (r ChangeReason) String() string {
	switch r {
	case ReasonServerChange:
		return "server_change"
	case ReasonInitialSync:
		return "initial_sync"
	case ReasonQuotaViolation:
		return "quota_violation"
	case ReasonAccountChange:
		return "account_change"
	}
	return "unknown"
}

// Replica is the remote key-value slot the config is mirrored to.
type Replica interface {
	// Load returns the stored document, or nil if the slot is empty.
	Load(ctx context.Context) ([]byte, error)
	// Save replaces the document.
	Save(ctx context.Context, data []byte) error
	// Watch calls fn for every external change until ctx is done. Writes
	// made through this replica are not reported back to it.
	Watch(ctx context.Context, fn func(ChangeReason)) error
	Close() error
}

// MemoryReplica is an in-process Replica. Handles created with Peer share
// one slot and see each other's writes as server changes, which models
// several devices syncing through one backend.
type MemoryReplica struct {
	shared *memorySlot
	id     int
}

type memorySlot struct {
	mu       sync.Mutex
	data     []byte
	quota    int
	nextID   int
	watchers map[int][]chan ChangeReason
}

// NewMemoryReplica returns an empty replica.
func NewMemoryReplica() *MemoryReplica {
	slot := &memorySlot{quota: MaxPayloadBytes, watchers: make(map[int][]chan ChangeReason)}
	return &MemoryReplica{shared: slot, id: slot.register()}
}

func (s *memorySlot) register() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	return s.nextID
}

// Peer returns another handle on the same slot.
func (r *MemoryReplica) Peer() *MemoryReplica {
	return &MemoryReplica{shared: r.shared, id: r.shared.register()}
}

// SetQuota changes the maximum payload size.
func (r *MemoryReplica) SetQuota(n int) {
	r.shared.mu.Lock()
	defer r.shared.mu.Unlock()
	r.shared.quota = n
}

// Load implements Replica.
func (r *MemoryReplica) Load(ctx context.Context) ([]byte, error) {
	r.shared.mu.Lock()
	defer r.shared.mu.Unlock()
	if r.shared.data == nil {
		return nil, nil
	}
	return append([]byte(nil), r.shared.data...), nil
}

// Save implements Replica.
func (r *MemoryReplica) Save(ctx context.Context, data []byte) error {
	r.shared.mu.Lock()
	if len(data) > r.shared.quota {
		r.shared.mu.Unlock()
		r.emit(ReasonQuotaViolation, r.id)
		return ErrQuotaExceeded
	}
	r.shared.data = append([]byte(nil), data...)
	r.shared.mu.Unlock()

	r.emit(ReasonServerChange, r.id)
	return nil
}

// Emit delivers reason to every watcher on the slot.
func (r *MemoryReplica) Emit(reason ChangeReason) {
	r.emit(reason, 0)
}

func (r *MemoryReplica) emit(reason ChangeReason, from int) {
	r.shared.mu.Lock()
	defer r.shared.mu.Unlock()
	for id, chans := range r.shared.watchers {
		if id == from && reason == ReasonServerChange {
			continue
		}
		for _, ch := range chans {
			select {
			case ch <- reason:
			default:
			}
		}
	}
}

// Watch implements Replica.
func (r *MemoryReplica) Watch(ctx context.Context, fn func(ChangeReason)) error {
	ch := make(chan ChangeReason, 16)
	r.shared.mu.Lock()
	r.shared.watchers[r.id] = append(r.shared.watchers[r.id], ch)
	r.shared.mu.Unlock()

	defer func() {
		r.shared.mu.Lock()
		defer r.shared.mu.Unlock()
		chans := r.shared.watchers[r.id]
		for i, c := range chans {
			if c == ch {
				r.shared.watchers[r.id] = append(chans[:i], chans[i+1:]...)
				break
			}
		}
	}()

	fn(ReasonInitialSync)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case reason := <-ch:
			fn(reason)
		}
	}
}

// Close implements Replica.
func (r *MemoryReplica) Close() error {
	return nil
}
