package models

import "time"

// Conversation is the denormalized last-activity summary for one
// conversation key, one row per unordered participant pair. It exists for
// fast list views and is never the source of truth for message content.
//
// ParticipantA/ParticipantB are stored in the same canonical order the
// key derivation uses, so the pair columns and the key always agree.
type Conversation struct {
	Key string `gorm:"primaryKey;type:text;column:key" json:"conversationKey"`

	ParticipantA string `gorm:"column:participantA;index" json:"-"`
	ParticipantB string `gorm:"column:participantB;index" json:"-"`

	LastText     string     `gorm:"column:lastText" json:"lastText"`
	LastAt       *time.Time `gorm:"column:lastAt;index" json:"lastAt"`
	LastSenderID string     `gorm:"column:lastSenderId" json:"lastSenderId"`
}

// Participants returns the unordered pair for this summary.
func (c Conversation) Participants() [2]string {
	return [2]string{c.ParticipantA, c.ParticipantB}
}

// Other returns the participant that is not userID, resolving the "other
// side" of the conversation by set difference over the pair.
func (c Conversation) Other(userID string) string {
	if c.ParticipantA == userID {
		return c.ParticipantB
	}
	return c.ParticipantA
}
