package models

import "time"

// ChatRole identifies the author of a conversation turn.
type ChatRole string

const (
	RoleSystem    ChatRole = "system"
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage is a single turn of a conversation, either supplied by the
// caller as history or produced by the engine.
type ChatMessage struct {
	Role    ChatRole `json:"role"`
	Content string   `json:"content"`
}

// Query is the immutable input to the engine: the user's free-text question
// plus optional prior conversation turns.
type Query struct {
	Text                string        `json:"text"`
	UserID              string        `json:"user_id"`
	ConversationHistory []ChatMessage `json:"conversation_history,omitempty"`
}

// IntentAnalysis is the result of lexical intent classification of a query.
// The flags are not mutually exclusive: a query can be both a counting and a
// comparison question at the same time.
type IntentAnalysis struct {
	IsCountQuery      bool
	IsAverageQuery    bool
	IsComparisonQuery bool
	// SuggestedDataType is the data category the query most likely targets,
	// or empty when no category vocabulary matched.
	SuggestedDataType DataType
	// SuggestedActivity is the activity token matched verbatim from the
	// query, or empty.
	SuggestedActivity string
}

// DateRange is an absolute, closed time interval. Start is never after End.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// TemporalIntent is the result of resolving a relative time phrase in the
// query against a reference instant.
type TemporalIntent struct {
	HasTemporalIntent bool
	DateRange         *DateRange
	// Label is the canonical name of the matched rule, e.g. "yesterday" or
	// "3 days ago". Empty when HasTemporalIntent is false.
	Label string
}
