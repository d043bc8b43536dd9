package chat

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/kidzonehq/kidzone-backend/internal/models"
)

func TestBuildEntriesJoinsDirectory(t *testing.T) {
	st, _, db := newTestStore(t)
	seedUser(t, db, "alice", "Alice A", "alice", "a@example.com")
	seedUser(t, db, "bob", "", "bobby", "b@example.com")

	dir := LoadDirectory(context.Background(), st, "alice", zerolog.Nop())

	now := time.Now()
	a, b := CanonicalPair("alice", "bob")
	convs := []models.Conversation{{
		Key:          ConversationKey("alice", "bob"),
		ParticipantA: a,
		ParticipantB: b,
		LastText:     "hi",
		LastAt:       &now,
	}}

	entries := BuildEntries(convs, dir, "alice")
	assert.Len(t, entries, 1)
	assert.Equal(t, "bob", entries[0].OtherParticipantID)
	assert.Equal(t, "bobby", entries[0].OtherDisplayName) // username fallback
	assert.Equal(t, "hi", entries[0].LastText)
}

func TestBuildEntriesUnknownOtherGetsGenericLabel(t *testing.T) {
	st, _, _ := newTestStore(t)
	dir := LoadDirectory(context.Background(), st, "alice", zerolog.Nop())

	a, b := CanonicalPair("alice", "ghost")
	entries := BuildEntries([]models.Conversation{{
		Key:          ConversationKey("alice", "ghost"),
		ParticipantA: a,
		ParticipantB: b,
	}}, dir, "alice")

	assert.Equal(t, "User", entries[0].OtherDisplayName)
}

// A new conversation must appear through the live index without any
// reload: the summary upsert publishes, the index re-queries.
func TestIndexPicksUpNewConversationLive(t *testing.T) {
	st, hub, db := newTestStore(t)
	seedUser(t, db, "alice", "Alice", "alice", "a@example.com")
	seedUser(t, db, "bob", "Bob", "bob", "b@example.com")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir := LoadDirectory(ctx, st, "alice", zerolog.Nop())
	ix := NewIndex(st, hub, dir, "alice", zerolog.Nop())
	go ix.Run(ctx)

	// Initial state: empty list.
	awaitEntries(t, ix, func(e []ConversationEntry) bool { return len(e) == 0 })

	sender := NewSender(st, NewBuffer(), hub.Publish, zerolog.Nop())
	_, err := sender.Send(ctx, testSession, "bob", "hi")
	assert.NoError(t, err)

	entries := awaitEntries(t, ix, func(e []ConversationEntry) bool { return len(e) == 1 })
	assert.Equal(t, "bob", entries[0].OtherParticipantID)
	assert.Equal(t, "Bob", entries[0].OtherDisplayName)
	assert.Equal(t, "hi", entries[0].LastText)
}

func awaitEntries(t *testing.T, ix *Index, cond func([]ConversationEntry) bool) []ConversationEntry {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case entries := <-ix.Updates():
			if cond(entries) {
				return entries
			}
		case <-deadline:
			t.Fatal("timed out waiting for index entries")
			return nil
		}
	}
}
