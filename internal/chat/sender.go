package chat

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/kidzonehq/kidzone-backend/internal/models"
	"github.com/kidzonehq/kidzone-backend/internal/store"
)

// MessageWriter is the durable side the sender writes through.
type MessageWriter interface {
	InsertMessage(ctx context.Context, m *models.Message) error
	UpsertConversation(ctx context.Context, c *models.Conversation) error
}

// Sender validates and emits new messages: optimistic copy into the
// buffer first, then the durable insert and the idempotent summary
// upsert.
type Sender struct {
	writer MessageWriter
	buf    *Buffer
	notify func(topics ...string)
	log    zerolog.Logger
}

// NewSender wires a sender. notify may be nil; when set it is invoked
// after the optimistic insert so live streams render the copy before the
// durable write lands.
func NewSender(writer MessageWriter, buf *Buffer, notify func(topics ...string), log zerolog.Logger) *Sender {
	return &Sender{writer: writer, buf: buf, notify: notify, log: log}
}

// Send emits text to recipientID on behalf of sess.
//
// Any violated precondition aborts before any state is created. After the
// optimistic copy is buffered, a store failure leaves it in place with
// status "sending" and returns a WriteError; nothing is rolled back and
// no retry happens here.
func (sn *Sender) Send(ctx context.Context, sess Session, recipientID, text string) (models.Message, error) {
	if sess.ID == "" {
		return models.Message{}, ErrNotAuthenticated
	}
	if recipientID == "" {
		return models.Message{}, ErrNoRecipient
	}
	clean, err := SanitizeText(text)
	if err != nil {
		return models.Message{}, err
	}
	key := ConversationKey(sess.ID, recipientID)
	if key == "" {
		return models.Message{}, ErrNoConversation
	}

	displayName := sess.DisplayName
	if displayName == "" {
		displayName = fallbackLabel
	}

	clientID := NewClientID()
	optimistic := models.Message{
		ID:                "temp:" + clientID,
		ClientID:          clientID,
		ConversationKey:   key,
		SenderID:          sess.ID,
		RecipientID:       recipientID,
		Text:              clean,
		SenderDisplayName: displayName,
		SenderPhotoURL:    sess.PhotoURL,
		Status:            models.MessageSending,
		// Client-local now; superseded by the store timestamp on
		// reconciliation.
		CreatedAt: time.Now(),
	}
	sn.buf.Add(key, optimistic)
	if sn.notify != nil {
		sn.notify(store.TopicConversation(key))
	}

	return optimistic, sn.persist(ctx, optimistic)
}

// Retry re-attempts the durable write for a pending message that never
// got confirmed. The clientId is preserved, so if the original write did
// land after all, reconciliation de-duplicates.
func (sn *Sender) Retry(ctx context.Context, key, clientID string) (models.Message, error) {
	m, ok := sn.buf.Take(key, clientID)
	if !ok {
		return models.Message{}, ErrPendingNotFound
	}

	m.CreatedAt = time.Now()
	sn.buf.Add(key, m)
	if sn.notify != nil {
		sn.notify(store.TopicConversation(key))
	}

	return m, sn.persist(ctx, m)
}

func (sn *Sender) persist(ctx context.Context, optimistic models.Message) error {
	durable := optimistic
	// The store assigns the real id and timestamp.
	durable.ID = ""
	durable.CreatedAt = time.Time{}

	if err := sn.writer.InsertMessage(ctx, &durable); err != nil {
		sn.log.Error().Err(err).Str("clientId", optimistic.ClientID).Msg("message insert failed, optimistic copy kept pending")
		return &WriteError{Op: "send", Err: err}
	}

	a, b := CanonicalPair(optimistic.SenderID, optimistic.RecipientID)
	conv := models.Conversation{
		Key:          optimistic.ConversationKey,
		ParticipantA: a,
		ParticipantB: b,
		LastText:     optimistic.Text,
		LastSenderID: optimistic.SenderID,
	}
	if err := sn.writer.UpsertConversation(ctx, &conv); err != nil {
		sn.log.Error().Err(err).Str("key", conv.Key).Msg("conversation summary upsert failed")
		return &WriteError{Op: "summary upsert", Err: err}
	}
	return nil
}
