package store

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kidzonehq/kidzone-backend/internal/models"
	"github.com/kidzonehq/kidzone-backend/pkg/utils"
)

// Store is the durable side of the document-store collaborator: typed
// reads and writes over the chat tables. Every successful write publishes
// change topics through the Hub so live subscribers re-query.
type Store struct {
	db  *gorm.DB
	hub *Hub
	log zerolog.Logger
}

func New(db *gorm.DB, hub *Hub, log zerolog.Logger) *Store {
	return &Store{db: db, hub: hub, log: log}
}

// Notify republishes change topics without a write. Used after bulk
// operations that call the low-level row helpers directly.
func (s *Store) Notify(topics ...string) {
	s.hub.Publish(topics...)
}

// ListUsers returns all directory entries.
func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Order("username asc").Find(&users).Error
	return users, err
}

// GetUser looks up a single directory entry by id.
func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error
	return u, err
}

// ListMessages returns the confirmed history for one conversation key in
// non-decreasing creation-time order.
func (s *Store) ListMessages(ctx context.Context, key string) ([]models.Message, error) {
	var msgs []models.Message
	err := s.db.WithContext(ctx).
		Where(`"conversationKey" = ?`, key).
		Order(`"createdAt" asc`).
		Find(&msgs).Error
	return msgs, err
}

// InsertMessage persists a confirmed message. The store assigns the id
// and the authoritative creation timestamp; whatever client-local time
// the optimistic copy carried is discarded here.
func (s *Store) InsertMessage(ctx context.Context, m *models.Message) error {
	if m.ID == "" {
		m.ID = utils.GenerateID()
	}
	m.Status = models.MessageSent
	m.CreatedAt = time.Now().UTC()

	if err := s.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}

	s.hub.Publish(
		TopicConversation(m.ConversationKey),
		TopicUser(m.SenderID),
		TopicUser(m.RecipientID),
	)
	return nil
}

// UpsertConversation merge-writes a summary row: on conflict only the
// last-activity columns are updated, absent fields are never cleared.
// Safe to call from both participants concurrently; last writer wins.
func (s *Store) UpsertConversation(ctx context.Context, c *models.Conversation) error {
	if c.LastAt == nil {
		now := time.Now().UTC()
		c.LastAt = &now
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"lastText", "lastAt", "lastSenderId"}),
	}).Create(c).Error
	if err != nil {
		return err
	}

	s.hub.Publish(TopicUser(c.ParticipantA), TopicUser(c.ParticipantB))
	return nil
}

// ListConversationsFor returns every summary the user participates in,
// newest activity first. Rows that never recorded activity sort last.
func (s *Store) ListConversationsFor(ctx context.Context, userID string) ([]models.Conversation, error) {
	var convs []models.Conversation
	err := s.db.WithContext(ctx).
		Where(`"participantA" = ? OR "participantB" = ?`, userID, userID).
		Order(`"lastAt" DESC NULLS LAST`).
		Find(&convs).Error
	return convs, err
}

// GetConversation fetches one summary row.
func (s *Store) GetConversation(ctx context.Context, key string) (models.Conversation, error) {
	var c models.Conversation
	err := s.db.WithContext(ctx).First(&c, "key = ?", key).Error
	return c, err
}

// DeleteMessage removes a single message row. Callers doing bulk deletes
// should Notify the conversation topics once at the end instead of per
// row.
func (s *Store) DeleteMessage(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&models.Message{}, "id = ?", id).Error
}

// DeleteConversationSummary removes the summary row for a key.
func (s *Store) DeleteConversationSummary(ctx context.Context, key string) error {
	return s.db.WithContext(ctx).Delete(&models.Conversation{}, "key = ?", key).Error
}
