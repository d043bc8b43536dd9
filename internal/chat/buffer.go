package chat

import (
	"sync"
	"time"

	"github.com/kidzonehq/kidzone-backend/internal/models"
)

// Buffer holds locally-created, not-yet-confirmed messages keyed by
// conversation key. It is process-local and has exactly two writers: the
// Sender appends, and the reconciliation step prunes. A pending message
// leaves the buffer only when its confirmed counterpart arrives or the
// user explicitly retries/discards it.
type Buffer struct {
	mu      sync.Mutex
	pending map[string][]models.Message
}

func NewBuffer() *Buffer {
	return &Buffer{pending: make(map[string][]models.Message)}
}

// Add appends an optimistic message to the pending list for key.
func (b *Buffer) Add(key string, m models.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pending[key] = append(b.pending[key], m)
}

// Apply reconciles a fresh confirmed snapshot for key against the pending
// list, replaces the pending list with the survivors, and returns the
// rendered view. Once a clientId has been seen confirmed its pending copy
// is gone for good.
func (b *Buffer) Apply(key string, confirmed []models.Message) []models.Message {
	b.mu.Lock()
	defer b.mu.Unlock()

	rendered, still := Reconcile(confirmed, b.pending[key])
	if len(still) == 0 {
		delete(b.pending, key)
	} else {
		b.pending[key] = still
	}
	return rendered
}

// Pending returns a copy of the pending list for key.
func (b *Buffer) Pending(key string) []models.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Message(nil), b.pending[key]...)
}

// Stale returns pending messages for key that were created before
// now-olderThan. These are sends that never got a store confirmation;
// the surface offers the user a retry or discard for each.
func (b *Buffer) Stale(key string, olderThan time.Duration, now time.Time) []models.Message {
	cutoff := now.Add(-olderThan)

	b.mu.Lock()
	defer b.mu.Unlock()

	var stale []models.Message
	for _, m := range b.pending[key] {
		if m.CreatedAt.Before(cutoff) {
			stale = append(stale, m)
		}
	}
	return stale
}

// Take removes and returns the pending message with the given clientId,
// for a user-triggered retry.
func (b *Buffer) Take(key, clientID string) (models.Message, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	list := b.pending[key]
	for i, m := range list {
		if m.ClientID == clientID {
			b.pending[key] = append(list[:i:i], list[i+1:]...)
			if len(b.pending[key]) == 0 {
				delete(b.pending, key)
			}
			return m, true
		}
	}
	return models.Message{}, false
}

// Discard drops the pending message with the given clientId.
func (b *Buffer) Discard(key, clientID string) bool {
	_, ok := b.Take(key, clientID)
	return ok
}
