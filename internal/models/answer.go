package models

import "time"

// ContextReference is the provenance record for one fragment that was placed
// in front of the language model for a given answer.
type ContextReference struct {
	ID          string   `json:"id"`
	Score       float64  `json:"score"`
	DataType    DataType `json:"data_type"`
	Snippet     string   `json:"snippet"`
	OwnerUserID string   `json:"owner_user_id,omitempty"`
}

// ProviderInfo carries accounting details of the single chat-completion call
// behind an answer. It is informational only and never drives control flow.
type ProviderInfo struct {
	Model        string        `json:"model"`
	InputTokens  int           `json:"input_tokens"`
	OutputTokens int           `json:"output_tokens"`
	Latency      time.Duration `json:"latency_ms"`
	// EstimatedCostUSD is a deterministic function of (model, input tokens,
	// output tokens) from a static pricing table; zero for unknown models.
	EstimatedCostUSD float64 `json:"estimated_cost_usd"`
}

// AnswerResult is the engine's final output: the generated answer, the
// provenance of the context it was grounded on, and provider accounting.
type AnswerResult struct {
	ResponseText string             `json:"response_text"`
	ContextUsed  []ContextReference `json:"context_used"`
	ProviderInfo ProviderInfo       `json:"provider_info"`
}

// UsageEvent is the record published (best effort) to the external
// cost-accounting collaborator after each answered query.
type UsageEvent struct {
	RequestID    string    `json:"request_id"`
	UserID       string    `json:"user_id"`
	CircleID     string    `json:"circle_id,omitempty"`
	Model        string    `json:"model"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	CostUSD      float64   `json:"cost_usd"`
	AnsweredAt   time.Time `json:"answered_at"`
}
