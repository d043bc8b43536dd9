package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/kidzonehq/kidzone-backend/internal/models"
)

var testSession = Session{ID: "alice", DisplayName: "Alice", PhotoURL: "https://cdn/img.png"}

// Scenario: first message between two users creates the summary and
// makes the conversation visible from both sides.
func TestSendCreatesMessageAndSummary(t *testing.T) {
	st, _, _ := newTestStore(t)
	buf := NewBuffer()
	sender := NewSender(st, buf, nil, zerolog.Nop())
	ctx := context.Background()

	optimistic, err := sender.Send(ctx, testSession, "bob", "hi")
	assert.NoError(t, err)
	assert.Equal(t, models.MessageSending, optimistic.Status)
	assert.NotEmpty(t, optimistic.ClientID)

	key := ConversationKey("alice", "bob")

	// Confirmed row carries the same clientId and a store timestamp.
	msgs, err := st.ListMessages(ctx, key)
	assert.NoError(t, err)
	assert.Len(t, msgs, 1)
	assert.Equal(t, optimistic.ClientID, msgs[0].ClientID)
	assert.Equal(t, models.MessageSent, msgs[0].Status)
	assert.NotEqual(t, optimistic.ID, msgs[0].ID)

	// Summary exists with the last activity and is visible to both
	// participants.
	conv, err := st.GetConversation(ctx, key)
	assert.NoError(t, err)
	assert.Equal(t, "hi", conv.LastText)
	assert.Equal(t, "alice", conv.LastSenderID)
	assert.NotNil(t, conv.LastAt)

	for _, uid := range []string{"alice", "bob"} {
		convs, err := st.ListConversationsFor(ctx, uid)
		assert.NoError(t, err)
		assert.Len(t, convs, 1, "summary missing for %s", uid)
	}
}

// Scenario: the store confirms within the same tick; the rendered list
// shows exactly one copy.
func TestSendThenImmediateSnapshotRendersOnce(t *testing.T) {
	st, _, _ := newTestStore(t)
	buf := NewBuffer()
	sender := NewSender(st, buf, nil, zerolog.Nop())
	ctx := context.Background()

	optimistic, err := sender.Send(ctx, testSession, "bob", "hi")
	assert.NoError(t, err)

	key := ConversationKey("alice", "bob")
	confirmed, err := st.ListMessages(ctx, key)
	assert.NoError(t, err)

	rendered := buf.Apply(key, confirmed)
	assert.Len(t, rendered, 1)
	assert.Equal(t, models.MessageSent, rendered[0].Status)
	assert.Equal(t, optimistic.ClientID, rendered[0].ClientID)
	assert.Empty(t, buf.Pending(key))
}

// Scenario: no recipient selected. No write, no optimistic message.
func TestSendPreconditions(t *testing.T) {
	st, _, _ := newTestStore(t)
	buf := NewBuffer()
	sender := NewSender(st, buf, nil, zerolog.Nop())
	ctx := context.Background()

	_, err := sender.Send(ctx, testSession, "", "hi")
	assert.ErrorIs(t, err, ErrNoRecipient)

	_, err = sender.Send(ctx, testSession, "bob", "   ")
	assert.ErrorIs(t, err, ErrEmptyText)

	_, err = sender.Send(ctx, Session{}, "bob", "hi")
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	assert.Empty(t, buf.Pending(ConversationKey("alice", "bob")))
	msgs, _ := st.ListMessages(ctx, ConversationKey("alice", "bob"))
	assert.Empty(t, msgs)
}

type failingWriter struct {
	insertErr error
	upsertErr error
}

func (w failingWriter) InsertMessage(ctx context.Context, m *models.Message) error {
	return w.insertErr
}

func (w failingWriter) UpsertConversation(ctx context.Context, c *models.Conversation) error {
	return w.upsertErr
}

// Scenario: network failure during send. The optimistic copy stays
// visible as "sending"; the error is surfaced; nothing retries on its
// own.
func TestSendWriteFailureKeepsOptimisticCopy(t *testing.T) {
	buf := NewBuffer()
	sender := NewSender(failingWriter{insertErr: errors.New("network down")}, buf, nil, zerolog.Nop())

	optimistic, err := sender.Send(context.Background(), testSession, "bob", "hi")

	var werr *WriteError
	assert.ErrorAs(t, err, &werr)
	assert.Equal(t, "send", werr.Op)
	assert.Equal(t, models.MessageSending, optimistic.Status)

	key := ConversationKey("alice", "bob")
	pending := buf.Pending(key)
	assert.Len(t, pending, 1)
	assert.Equal(t, optimistic.ClientID, pending[0].ClientID)
}

func TestSendSummaryUpsertFailureSurfaced(t *testing.T) {
	buf := NewBuffer()
	sender := NewSender(failingWriter{upsertErr: errors.New("conflict storm")}, buf, nil, zerolog.Nop())

	_, err := sender.Send(context.Background(), testSession, "bob", "hi")

	var werr *WriteError
	assert.ErrorAs(t, err, &werr)
	assert.Equal(t, "summary upsert", werr.Op)
}

func TestRetryReusesClientID(t *testing.T) {
	st, _, _ := newTestStore(t)
	buf := NewBuffer()
	key := ConversationKey("alice", "bob")

	// First attempt fails, message stuck pending.
	failing := NewSender(failingWriter{insertErr: errors.New("down")}, buf, nil, zerolog.Nop())
	stuck, err := failing.Send(context.Background(), testSession, "bob", "hi")
	assert.Error(t, err)

	// User-triggered retry through a healthy store.
	healthy := NewSender(st, buf, nil, zerolog.Nop())
	retried, err := healthy.Retry(context.Background(), key, stuck.ClientID)
	assert.NoError(t, err)
	assert.Equal(t, stuck.ClientID, retried.ClientID)

	confirmed, err := st.ListMessages(context.Background(), key)
	assert.NoError(t, err)
	assert.Len(t, confirmed, 1)

	// Reconciliation drops the pending copy once the echo arrives.
	rendered := buf.Apply(key, confirmed)
	assert.Len(t, rendered, 1)
	assert.Empty(t, buf.Pending(key))
}

func TestRetryUnknownClientID(t *testing.T) {
	st, _, _ := newTestStore(t)
	sender := NewSender(st, NewBuffer(), nil, zerolog.Nop())

	_, err := sender.Retry(context.Background(), ConversationKey("alice", "bob"), "nope")
	assert.ErrorIs(t, err, ErrPendingNotFound)
}

func TestSendSanitizesText(t *testing.T) {
	st, _, _ := newTestStore(t)
	sender := NewSender(st, NewBuffer(), nil, zerolog.Nop())

	msg, err := sender.Send(context.Background(), testSession, "bob", "  hello <script>alert(1)</script> world  ")
	assert.NoError(t, err)
	assert.NotContains(t, msg.Text, "<script>")
	assert.Equal(t, "hello  world", msg.Text)
}
