package models

import "time"

type MessageStatus string

const (
	// MessageSending marks an optimistic copy that has not been
	// confirmed by the store yet.
	MessageSending MessageStatus = "sending"
	// MessageSent marks a store-confirmed message.
	MessageSent MessageStatus = "sent"
)

// Message is a direct message between two users. The optimistic copy of a
// message (status "sending", temporary id) never reaches this table; only
// confirmed rows are durable.
type Message struct {
	ID string `gorm:"primaryKey;type:text" json:"id"`

	// ClientID correlates an optimistic copy with its confirmed row.
	// Generated by the sending client, unique per send.
	ClientID string `gorm:"column:clientId;index" json:"clientId"`

	ConversationKey string `gorm:"column:conversationKey;index" json:"conversationKey"`
	SenderID        string `gorm:"column:senderId;index" json:"senderId"`
	RecipientID     string `gorm:"column:recipientId;index" json:"recipientId"`

	Text string `json:"text"`

	SenderDisplayName string `gorm:"column:senderDisplayName" json:"senderDisplayName"`
	SenderPhotoURL    string `gorm:"column:senderPhotoUrl" json:"senderPhotoUrl"`

	Status MessageStatus `gorm:"type:text" json:"status"`

	CreatedAt time.Time `gorm:"column:createdAt;index" json:"createdAt"`
}

// Participants returns the unordered pair this message belongs to.
func (m Message) Participants() [2]string {
	return [2]string{m.SenderID, m.RecipientID}
}
