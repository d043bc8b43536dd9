package chat

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/kidzonehq/kidzone-backend/internal/models"
	"github.com/kidzonehq/kidzone-backend/internal/store"
)

// MessagePurger is what the deletion coordinator needs from the store.
type MessagePurger interface {
	ListMessages(ctx context.Context, key string) ([]models.Message, error)
	DeleteMessage(ctx context.Context, id string) error
	DeleteConversationSummary(ctx context.Context, key string) error
}

// DeletePolicy decides what a conversation purge covers. Removing the
// summary too makes the conversation disappear from list views; keeping
// it leaves the row discoverable with its last known text until a new
// send overwrites it.
type DeletePolicy struct {
	RemoveSummary bool
}

// DeleteReport counts the outcome of a purge. Partial failure is
// possible: some rows deleted, some not; no compensating transaction is
// attempted.
type DeleteReport struct {
	Deleted int `json:"deleted"`
	Failed  int `json:"failed"`
}

// Deleter bulk-removes all messages for a conversation key.
type Deleter struct {
	purger MessagePurger
	notify func(topics ...string)
	log    zerolog.Logger
}

func NewDeleter(purger MessagePurger, notify func(topics ...string), log zerolog.Logger) *Deleter {
	return &Deleter{purger: purger, notify: notify, log: log}
}

// DeleteConversation removes every message under key, then the summary if
// the policy says so. The caller is responsible for having confirmed the
// action with the user.
func (d *Deleter) DeleteConversation(ctx context.Context, key string, policy DeletePolicy) (DeleteReport, error) {
	msgs, err := d.purger.ListMessages(ctx, key)
	if err != nil {
		return DeleteReport{}, &WriteError{Op: "delete query", Err: err}
	}

	var report DeleteReport
	participants := make(map[string]struct{})
	for _, m := range msgs {
		participants[m.SenderID] = struct{}{}
		participants[m.RecipientID] = struct{}{}
		if err := d.purger.DeleteMessage(ctx, m.ID); err != nil {
			d.log.Error().Err(err).Str("id", m.ID).Msg("message delete failed")
			report.Failed++
			continue
		}
		report.Deleted++
	}

	if policy.RemoveSummary {
		if err := d.purger.DeleteConversationSummary(ctx, key); err != nil {
			d.log.Error().Err(err).Str("key", key).Msg("summary delete failed")
			report.Failed++
		}
	}

	if d.notify != nil {
		topics := []string{store.TopicConversation(key)}
		for id := range participants {
			topics = append(topics, store.TopicUser(id))
		}
		d.notify(topics...)
	}

	if report.Failed > 0 {
		return report, &WriteError{Op: "delete conversation", Err: errPartialDelete}
	}
	return report, nil
}

var errPartialDelete = partialDeleteError{}

type partialDeleteError struct{}

func (partialDeleteError) Error() string { return "some messages could not be deleted" }
