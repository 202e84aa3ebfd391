// Package realtime implements the live side of direct messaging: who is
// connected, which connections listen to which conversation, ephemeral typing
// state, and the fan-out of messages, presence changes, and read receipts.
//
// The package is transport-agnostic. A transport (see internal/ws) adapts each
// authenticated connection to the Conn interface, hands it to Hub.Connect,
// feeds every inbound frame to Hub.Dispatch in arrival order, and calls
// Hub.Disconnect once the connection is gone.
package realtime

import "strings"

const (
	conversationPrefix = "conversation_"
	personalPrefix     = "user:"
)

// idEscaper makes "_" unambiguous as the pair separator. Ids without "_" or
// a backslash pass through unchanged.
var idEscaper = strings.NewReplacer(`\`, `\\`, "_", `\_`)

// ConversationID returns the canonical room id for the unordered pair {a, b}:
// the two ids sorted lexicographically, escaped, and joined with "_".
// ConversationID(a, b) == ConversationID(b, a) for all a, b, and distinct
// pairs never share an id.
func ConversationID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return conversationPrefix + idEscaper.Replace(a) + "_" + idEscaper.Replace(b)
}

// PersonalChannel returns the room addressing every notification meant for
// userID regardless of which conversations they joined.
func PersonalChannel(userID string) string {
	return personalPrefix + userID
}
