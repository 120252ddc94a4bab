package models

import "time"

// DataType is the category of a stored piece of personal data.
type DataType string

const (
	DataTypeHealth         DataType = "health"
	DataTypeLocation       DataType = "location"
	DataTypeVoice          DataType = "voice"
	DataTypePhoto          DataType = "photo"
	DataTypeText           DataType = "text"
	DataTypeSharedActivity DataType = "shared_activity"
)

// Metadata keys a fragment may carry. The context builder tries these, in
// this order, when the fragment has no explicit OccurredAt timestamp.
const (
	MetadataKeyOccurredAt = "occurred_at"
	MetadataKeyTimestamp  = "timestamp"
	MetadataKeyCreatedAt  = "created_at"
	MetadataKeyActivity   = "activity"
)

// RetrievedFragment is a single piece of embedded personal data returned by
// the vector store, with a cosine-similarity-like relevance score in [0,1].
type RetrievedFragment struct {
	ID          string
	Score       float64
	OwnerUserID string
	DataType    DataType
	Text        string
	// OccurredAt is the instant the underlying data point happened, when
	// the store has one. Zero means unknown.
	OccurredAt time.Time
	// Metadata holds any extra fields the store returned alongside the
	// fragment, such as fallback timestamps or an activity tag.
	Metadata map[string]interface{}
}

// ExtractedEvent is a structured, separately-stored, date-queryable fact
// (for example a calendar entry pulled out of a note), distinct from
// embedded free text.
type ExtractedEvent struct {
	ID          string    `bson:"_id" json:"id"`
	Title       string    `bson:"title" json:"title"`
	Description string    `bson:"description,omitempty" json:"description,omitempty"`
	OccursAt    time.Time `bson:"occurs_at" json:"occurs_at"`
	Confidence  float64   `bson:"confidence" json:"confidence"`
	UserID      string    `bson:"user_id" json:"user_id"`
}
