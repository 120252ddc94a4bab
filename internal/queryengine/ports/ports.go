package ports

import (
	"context"

	"lifequery/internal/models"
)

// Embedder is the interface for the text embedding service. The userID and
// purpose tag are passed through for provider-side attribution and must not
// influence the vector.
type Embedder interface {
	Embed(ctx context.Context, text, userID, purpose string) ([]float32, error)
}

// VectorQuery describes one nearest-neighbour search against the vector
// store. OwnerIDs restricts results to fragments owned by those users;
// DataTypes, when non-empty, restricts results to those categories.
type VectorQuery struct {
	Vector    []float32
	OwnerIDs  []string
	TopK      int
	DataTypes []models.DataType
}

// VectorStore is the interface for querying embedded personal-data
// fragments.
type VectorStore interface {
	Query(ctx context.Context, q VectorQuery) ([]models.RetrievedFragment, error)
	// QueryByActivity narrows the search to fragments tagged with the given
	// activity (the activity-tagged location path).
	QueryByActivity(ctx context.Context, q VectorQuery, activity string) ([]models.RetrievedFragment, error)
}

// EventStore is the interface for the structured, date-queryable store of
// extracted events.
type EventStore interface {
	GetEvents(ctx context.Context, userID string, rng models.DateRange, limit int) ([]models.ExtractedEvent, error)
}

// Completion is the result of a single chat-completion call, including the
// token usage the provider reported.
type Completion struct {
	Text         string
	Model        string
	InputTokens  int
	OutputTokens int
}

// ChatModel is the interface for the chat-completion service.
type ChatModel interface {
	Complete(ctx context.Context, messages []models.ChatMessage) (*Completion, error)
	// CompleteWithSystem prepends a system instruction to the conversation.
	// Used for circle queries, which need attribution directives.
	CompleteWithSystem(ctx context.Context, system string, messages []models.ChatMessage) (*Completion, error)
}

// Directory is the interface for the circle/friend directory.
type Directory interface {
	GetCircle(ctx context.Context, id string) (*models.Circle, error)
	// GetPrivacySettings returns the consent each owner has granted to the
	// viewer. Owners without a record are absent from the map, which the
	// caller must treat as all-false.
	GetPrivacySettings(ctx context.Context, viewerID string, ownerIDs []string) (map[string]models.FriendPrivacySettings, error)
	GetDisplayName(ctx context.Context, userID string) (string, error)
}

// UsagePublisher is the interface for the external cost-accounting
// collaborator. Publishing is best effort; implementations must not be
// relied on for control flow.
type UsagePublisher interface {
	Publish(ctx context.Context, event models.UsageEvent) error
}
