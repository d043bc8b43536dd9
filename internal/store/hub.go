package store

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Topic names. Every durable chat write publishes the conversation topic
// plus a per-user topic for each participant, so both "one conversation"
// and "all my conversations" subscribers can re-query.
const topicPrefix = "chat:"

func TopicConversation(key string) string {
	return topicPrefix + "conv:" + key
}

func TopicUser(userID string) string {
	return topicPrefix + "user:" + userID
}

// Hub is the live-update side of the store. Subscribers get a coalescing
// signal channel: a tick means "something under this topic changed,
// re-run your query". Payloads are never carried on the channel, so every
// delivered snapshot is re-read from the store and is complete
// authoritative state, not a delta.
//
// With a Redis client attached, publishes also fan out across processes.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[int]chan struct{}
	next int

	rdb *redis.Client
	log zerolog.Logger
}

func NewHub(rdb *redis.Client, log zerolog.Logger) *Hub {
	return &Hub{
		subs: make(map[string]map[int]chan struct{}),
		rdb:  rdb,
		log:  log,
	}
}

// Subscribe registers interest in a topic. The returned cancel func must
// be called exactly once; after it returns no more ticks are delivered.
func (h *Hub) Subscribe(topic string) (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	h.mu.Lock()
	id := h.next
	h.next++
	if h.subs[topic] == nil {
		h.subs[topic] = make(map[int]chan struct{})
	}
	h.subs[topic][id] = ch
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if m := h.subs[topic]; m != nil {
			delete(m, id)
			if len(m) == 0 {
				delete(h.subs, topic)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish notifies local subscribers of the given topics and, when Redis
// is configured, mirrors the notification to other processes. A process
// may see its own Redis echo; the coalescing channels make that harmless.
func (h *Hub) Publish(topics ...string) {
	for _, t := range topics {
		h.notifyLocal(t)
		if h.rdb != nil {
			if err := h.rdb.Publish(context.Background(), t, "").Err(); err != nil {
				h.log.Warn().Err(err).Str("topic", t).Msg("redis publish failed")
			}
		}
	}
}

func (h *Hub) notifyLocal(topic string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs[topic] {
		select {
		case ch <- struct{}{}:
		default:
			// Subscriber already has a pending tick; it will re-query
			// anyway, so dropping here loses nothing.
		}
	}
}

// Run consumes cross-process notifications from Redis until ctx is done.
// No-op when Redis is not configured.
func (h *Hub) Run(ctx context.Context) {
	if h.rdb == nil {
		return
	}

	sub := h.rdb.PSubscribe(ctx, topicPrefix+"*")
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				h.log.Warn().Msg("redis subscription channel closed")
				return
			}
			h.notifyLocal(msg.Channel)
		}
	}
}
