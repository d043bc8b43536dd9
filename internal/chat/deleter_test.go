package chat

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/kidzonehq/kidzone-backend/internal/models"
)

func seedConversation(t *testing.T, st interface {
	InsertMessage(ctx context.Context, m *models.Message) error
	UpsertConversation(ctx context.Context, c *models.Conversation) error
}, key string, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		m := &models.Message{
			ClientID:        NewClientID(),
			ConversationKey: key,
			SenderID:        "alice",
			RecipientID:     "bob",
			Text:            "msg",
		}
		assert.NoError(t, st.InsertMessage(ctx, m))
	}
	a, b := CanonicalPair("alice", "bob")
	assert.NoError(t, st.UpsertConversation(ctx, &models.Conversation{
		Key: key, ParticipantA: a, ParticipantB: b, LastText: "msg", LastSenderID: "alice",
	}))
}

// Scenario: deleting a conversation with 5 messages removes all of them
// but leaves the summary row with its last known text.
func TestDeleteConversationKeepsSummaryByDefault(t *testing.T) {
	st, hub, _ := newTestStore(t)
	key := ConversationKey("alice", "bob")
	seedConversation(t, st, key, 5)

	d := NewDeleter(st, hub.Publish, zerolog.Nop())
	report, err := d.DeleteConversation(context.Background(), key, DeletePolicy{})
	assert.NoError(t, err)
	assert.Equal(t, 5, report.Deleted)
	assert.Equal(t, 0, report.Failed)

	msgs, err := st.ListMessages(context.Background(), key)
	assert.NoError(t, err)
	assert.Empty(t, msgs)

	conv, err := st.GetConversation(context.Background(), key)
	assert.NoError(t, err)
	assert.Equal(t, "msg", conv.LastText)
}

func TestDeleteConversationRemoveSummaryPolicy(t *testing.T) {
	st, hub, _ := newTestStore(t)
	key := ConversationKey("alice", "bob")
	seedConversation(t, st, key, 2)

	d := NewDeleter(st, hub.Publish, zerolog.Nop())
	report, err := d.DeleteConversation(context.Background(), key, DeletePolicy{RemoveSummary: true})
	assert.NoError(t, err)
	assert.Equal(t, 2, report.Deleted)

	_, err = st.GetConversation(context.Background(), key)
	assert.Error(t, err)
}

func TestDeleteConversationEmptyKeyIsNoop(t *testing.T) {
	st, hub, _ := newTestStore(t)

	d := NewDeleter(st, hub.Publish, zerolog.Nop())
	report, err := d.DeleteConversation(context.Background(), ConversationKey("alice", "bob"), DeletePolicy{})
	assert.NoError(t, err)
	assert.Equal(t, 0, report.Deleted)
}

type flakyPurger struct {
	inner   MessagePurger
	failIDs map[string]bool
}

func (p flakyPurger) ListMessages(ctx context.Context, key string) ([]models.Message, error) {
	return p.inner.ListMessages(ctx, key)
}

func (p flakyPurger) DeleteMessage(ctx context.Context, id string) error {
	if p.failIDs[id] {
		return assert.AnError
	}
	return p.inner.DeleteMessage(ctx, id)
}

func (p flakyPurger) DeleteConversationSummary(ctx context.Context, key string) error {
	return p.inner.DeleteConversationSummary(ctx, key)
}

// Partial failure: surviving rows stay, the report says how many, and an
// error is returned without any compensating rollback.
func TestDeleteConversationPartialFailure(t *testing.T) {
	st, hub, _ := newTestStore(t)
	key := ConversationKey("alice", "bob")
	seedConversation(t, st, key, 3)

	msgs, err := st.ListMessages(context.Background(), key)
	assert.NoError(t, err)

	purger := flakyPurger{inner: st, failIDs: map[string]bool{msgs[1].ID: true}}
	d := NewDeleter(purger, hub.Publish, zerolog.Nop())

	report, err := d.DeleteConversation(context.Background(), key, DeletePolicy{})
	assert.Error(t, err)
	assert.Equal(t, 2, report.Deleted)
	assert.Equal(t, 1, report.Failed)

	left, err := st.ListMessages(context.Background(), key)
	assert.NoError(t, err)
	assert.Len(t, left, 1)
}
