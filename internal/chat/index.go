package chat

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/kidzonehq/kidzone-backend/internal/models"
	"github.com/kidzonehq/kidzone-backend/internal/store"
)

// SummaryReader is the query the index re-runs on every change
// notification. Results come back ordered by last activity descending,
// missing timestamps last.
type SummaryReader interface {
	ListConversationsFor(ctx context.Context, userID string) ([]models.Conversation, error)
}

// Notifier is the subscription side of the store hub.
type Notifier interface {
	Subscribe(topic string) (<-chan struct{}, func())
}

// ConversationEntry is one row of the conversation list: a summary joined
// with the directory for the non-self participant's display identity.
// Derived, never stored.
type ConversationEntry struct {
	ConversationKey    string     `json:"conversationKey"`
	OtherParticipantID string     `json:"otherParticipantId"`
	OtherDisplayName   string     `json:"otherDisplayName"`
	LastText           string     `json:"lastText"`
	LastAt             *time.Time `json:"lastAt"`
}

// BuildEntries joins summaries with the directory for userID. Shared by
// the live index and the one-shot HTTP listing.
func BuildEntries(convs []models.Conversation, dir *Directory, userID string) []ConversationEntry {
	entries := make([]ConversationEntry, 0, len(convs))
	for _, c := range convs {
		otherID := c.Other(userID)
		entries = append(entries, ConversationEntry{
			ConversationKey:    c.Key,
			OtherParticipantID: otherID,
			OtherDisplayName:   dir.DisplayFor(otherID).Name,
			LastText:           c.LastText,
			LastAt:             c.LastAt,
		})
	}
	return entries
}

// Index maintains a live conversation list for one user. Each hub tick
// triggers a full re-query; on query error the index keeps its last known
// entries rather than clearing.
type Index struct {
	summaries SummaryReader
	notifier  Notifier
	dir       *Directory
	userID    string
	log       zerolog.Logger

	mu      sync.Mutex
	entries []ConversationEntry

	updates chan []ConversationEntry
}

func NewIndex(summaries SummaryReader, notifier Notifier, dir *Directory, userID string, log zerolog.Logger) *Index {
	return &Index{
		summaries: summaries,
		notifier:  notifier,
		dir:       dir,
		userID:    userID,
		log:       log,
		updates:   make(chan []ConversationEntry, 1),
	}
}

// Updates delivers a fresh entry list after every applied change. Stale
// values are coalesced away when the consumer lags.
func (ix *Index) Updates() <-chan []ConversationEntry {
	return ix.updates
}

// Entries returns the last known list.
func (ix *Index) Entries() []ConversationEntry {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	return append([]ConversationEntry(nil), ix.entries...)
}

// Run subscribes to the user's change topic and keeps the list current
// until ctx is done. A new conversation appears without any reload: the
// summary upsert publishes the user topic, the index re-queries.
func (ix *Index) Run(ctx context.Context) {
	ch, cancel := ix.notifier.Subscribe(store.TopicUser(ix.userID))
	defer cancel()

	ix.refresh(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ch:
			ix.refresh(ctx)
		}
	}
}

func (ix *Index) refresh(ctx context.Context) {
	convs, err := ix.summaries.ListConversationsFor(ctx, ix.userID)
	if err != nil {
		// Degrade to the last known value.
		ix.log.Error().Err(err).Str("user", ix.userID).Msg("conversation index refresh failed")
		return
	}

	entries := BuildEntries(convs, ix.dir, ix.userID)

	ix.mu.Lock()
	ix.entries = entries
	ix.mu.Unlock()

	select {
	case ix.updates <- entries:
	default:
		select {
		case <-ix.updates:
		default:
		}
		ix.updates <- entries
	}
}
