package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConversationKeySymmetry(t *testing.T) {
	pairs := [][2]string{
		{"alice", "bob"},
		{"u_123", "u_456"},
		{"zz", "aa"},
		{"9f8e", "0a1b"},
	}
	for _, p := range pairs {
		assert.Equal(t, ConversationKey(p[0], p[1]), ConversationKey(p[1], p[0]), "key must be order-independent for %v", p)
	}
}

func TestConversationKeyDistinctness(t *testing.T) {
	// Ids containing the separator must not collide with ids that merely
	// join around it.
	k1 := ConversationKey("a_b", "c")
	k2 := ConversationKey("a", "b_c")
	assert.NotEqual(t, k1, k2)

	k3 := ConversationKey("alice", "bob")
	k4 := ConversationKey("alice", "carol")
	assert.NotEqual(t, k3, k4)

	// Percent escaping must round-trip without ambiguity.
	k5 := ConversationKey("a%5Fb", "c")
	assert.NotEqual(t, k1, k5)
}

func TestConversationKeyMissingInput(t *testing.T) {
	assert.Equal(t, "", ConversationKey("", "bob"))
	assert.Equal(t, "", ConversationKey("alice", ""))
	assert.Equal(t, "", ConversationKey("", ""))
}

func TestCanonicalPairMatchesKeyOrder(t *testing.T) {
	a, b := CanonicalPair("bob", "alice")
	assert.Equal(t, "alice", a)
	assert.Equal(t, "bob", b)

	// Same order regardless of argument order.
	a2, b2 := CanonicalPair("alice", "bob")
	assert.Equal(t, a, a2)
	assert.Equal(t, b, b2)
}
