package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConversationID_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"u1", "u2"}, {"b", "a"}, {"same", "same"}, {"", "x"},
		{"6500f1c2", "64ff0a11"}, {"Zed", "alice"},
	}
	for _, p := range pairs {
		assert.Equal(t, ConversationID(p[0], p[1]), ConversationID(p[1], p[0]), "pair %v", p)
	}
	assert.Equal(t, "conversation_u1_u2", ConversationID("u2", "u1"))
}

func TestConversationID_DistinctPairsDiffer(t *testing.T) {
	ids := []string{
		"u1", "u2", "u3", "u4", "alice", "bob",
		"a", "b", "c", "a_b", "b_c", "_", "__", `\`, `a\`, `\_`, `a\_b`, "a_b_c",
	}
	seen := map[string][2]string{}
	for i := range ids {
		for j := i + 1; j < len(ids); j++ {
			id := ConversationID(ids[i], ids[j])
			prev, dup := seen[id]
			assert.False(t, dup, "%v and %v collide on %s", prev, [2]string{ids[i], ids[j]}, id)
			seen[id] = [2]string{ids[i], ids[j]}
		}
	}
}

func TestConversationID_SeparatorInIDs(t *testing.T) {
	assert.NotEqual(t, ConversationID("a_b", "c"), ConversationID("a", "b_c"))
	assert.NotEqual(t, ConversationID(`a\`, "b"), ConversationID("a", `\b`))
	assert.Equal(t, `conversation_a\_b_c`, ConversationID("c", "a_b"))
	assert.Equal(t, `conversation_a\\_b`, ConversationID(`a\`, "b"))
}

func TestPersonalChannel(t *testing.T) {
	assert.Equal(t, "user:u1", PersonalChannel("u1"))
}
