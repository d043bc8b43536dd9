package chat

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/kidzonehq/kidzone-backend/internal/models"
	"github.com/kidzonehq/kidzone-backend/internal/store"
)

// MessageReader is the query the stream re-runs on every change
// notification for its conversation key.
type MessageReader interface {
	ListMessages(ctx context.Context, key string) ([]models.Message, error)
}

// Snapshot is one rendered view of a conversation: the confirmed history
// merged with the still-pending optimistic tail.
type Snapshot struct {
	Key      string           `json:"conversationKey"`
	Messages []models.Message `json:"messages"`
	Loading  bool             `json:"loading"`
}

// Stream maintains the live, ordered message view for at most one
// conversation key. Switching keys tears down the previous subscription
// first; an epoch counter guards against a torn-down subscription's
// callback overwriting fresh state, since hub teardown is not synchronous
// with in-flight re-queries.
type Stream struct {
	messages MessageReader
	notifier Notifier
	buf      *Buffer
	log      zerolog.Logger

	mu      sync.Mutex
	key     string
	epoch   int
	cancel  func()
	loading bool

	updates chan Snapshot
}

func NewStream(messages MessageReader, notifier Notifier, buf *Buffer, log zerolog.Logger) *Stream {
	return &Stream{
		messages: messages,
		notifier: notifier,
		buf:      buf,
		log:      log,
		updates:  make(chan Snapshot, 1),
	}
}

// Updates delivers rendered snapshots. When the consumer lags, older
// snapshots are coalesced away; only completeness of the latest view
// matters.
func (s *Stream) Updates() <-chan Snapshot {
	return s.updates
}

// Key returns the active conversation key.
func (s *Stream) Key() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key
}

// SetKey switches the stream to a new conversation. The previous
// subscription is cancelled before the new one is established. An empty
// key deactivates the stream and delivers an empty snapshot.
func (s *Stream) SetKey(ctx context.Context, key string) {
	s.mu.Lock()
	if key == s.key && s.cancel != nil {
		s.mu.Unlock()
		return
	}
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.epoch++
	epoch := s.epoch
	s.key = key
	s.loading = key != ""
	s.mu.Unlock()

	if key == "" {
		s.deliver(epoch, Snapshot{})
		return
	}

	ch, unsub := s.notifier.Subscribe(store.TopicConversation(key))
	runCtx, stop := context.WithCancel(ctx)

	s.mu.Lock()
	if epoch != s.epoch {
		// Lost a race with a newer SetKey.
		s.mu.Unlock()
		unsub()
		stop()
		return
	}
	s.cancel = func() {
		unsub()
		stop()
	}
	s.mu.Unlock()

	go s.run(runCtx, epoch, key, ch)
}

// Close tears down the active subscription, if any.
func (s *Stream) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.epoch++
	s.key = ""
}

func (s *Stream) run(ctx context.Context, epoch int, key string, ch <-chan struct{}) {
	s.refresh(ctx, epoch, key)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ch:
			s.refresh(ctx, epoch, key)
		}
	}
}

// refresh re-queries the confirmed history and runs it through the
// optimistic buffer. Each delivered snapshot is the complete state for
// the key, never a delta.
func (s *Stream) refresh(ctx context.Context, epoch int, key string) {
	confirmed, err := s.messages.ListMessages(ctx, key)
	if err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("message stream refresh failed")
		s.mu.Lock()
		if epoch == s.epoch {
			s.loading = false
		}
		s.mu.Unlock()
		return
	}

	rendered := s.buf.Apply(key, confirmed)

	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		return
	}
	s.loading = false
	s.mu.Unlock()

	s.deliver(epoch, Snapshot{Key: key, Messages: rendered})
}

func (s *Stream) deliver(epoch int, snap Snapshot) {
	s.mu.Lock()
	if epoch != s.epoch {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	select {
	case s.updates <- snap:
	default:
		select {
		case <-s.updates:
		default:
		}
		s.updates <- snap
	}
}
