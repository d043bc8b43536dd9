package chat

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NewClientID returns the correlation token joining an optimistic message
// to its confirmed counterpart: a millisecond timestamp plus a random
// suffix, unique with overwhelming probability across a session.
func NewClientID() string {
	return fmt.Sprintf("%d_%s", time.Now().UnixMilli(), uuid.NewString()[:8])
}
