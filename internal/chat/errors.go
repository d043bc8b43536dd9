package chat

import (
	"errors"
	"fmt"
)

// Precondition failures. These abort an operation before any state is
// created and map to a 400-class response at the HTTP surface.
var (
	ErrEmptyText        = errors.New("message text is empty")
	ErrTooLong          = errors.New("message exceeds maximum length")
	ErrNoRecipient      = errors.New("no recipient selected")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNoConversation   = errors.New("conversation key not derivable")
)

// ErrRecipientNotFound means the directory has no entry for the selected
// recipient id.
var ErrRecipientNotFound = errors.New("recipient not found")

// ErrPendingNotFound means no pending message with the given clientId
// exists in the buffer.
var ErrPendingNotFound = errors.New("pending message not found")

// IsPrecondition reports whether err is one of the local precondition
// failures, as opposed to a store write failure.
func IsPrecondition(err error) bool {
	return errors.Is(err, ErrEmptyText) ||
		errors.Is(err, ErrTooLong) ||
		errors.Is(err, ErrNoRecipient) ||
		errors.Is(err, ErrNotAuthenticated) ||
		errors.Is(err, ErrNoConversation)
}

// WriteError wraps a store failure during send, summary upsert or delete.
// The optimistic state that preceded the write is left intact; the caller
// surfaces the cause to the user.
type WriteError struct {
	Op  string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("chat: %s failed: %v", e.Op, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
