package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	olla "github.com/ollama/ollama/api"

	"lifequery/internal/models"
	"lifequery/internal/queryengine/ports"
)

// Ollama is a chat-completion client for a locally hosted Ollama instance.
type Ollama struct {
	client *olla.Client
	model  string
}

// NewOllama creates a new Ollama chat client. An empty baseURL defaults to
// "http://localhost:11434".
func NewOllama(model, baseURL string) (*Ollama, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	hc := &http.Client{
		Timeout: 120 * time.Second,
	}

	return &Ollama{client: olla.NewClient(parsedURL, hc), model: model}, nil
}

// Complete performs a single chat call.
func (o *Ollama) Complete(ctx context.Context, messages []models.ChatMessage) (*ports.Completion, error) {
	return o.complete(ctx, toOllamaMessages("", messages))
}

// CompleteWithSystem prepends a system instruction before the conversation.
func (o *Ollama) CompleteWithSystem(ctx context.Context, system string, messages []models.ChatMessage) (*ports.Completion, error) {
	return o.complete(ctx, toOllamaMessages(system, messages))
}

func (o *Ollama) complete(ctx context.Context, messages []olla.Message) (*ports.Completion, error) {
	stream := false

	var result *olla.ChatResponse
	err := o.client.Chat(ctx, &olla.ChatRequest{
		Model:    o.model,
		Messages: messages,
		Stream:   &stream,
	}, func(resp olla.ChatResponse) error {
		result = &resp
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to chat with ollama: %w", err)
	}
	if result == nil {
		return nil, fmt.Errorf("no response received from ollama")
	}

	return &ports.Completion{
		Text:         result.Message.Content,
		Model:        result.Model,
		InputTokens:  result.Metrics.PromptEvalCount,
		OutputTokens: result.Metrics.EvalCount,
	}, nil
}

func toOllamaMessages(system string, messages []models.ChatMessage) []olla.Message {
	out := make([]olla.Message, 0, len(messages)+1)
	if system != "" {
		out = append(out, olla.Message{Role: "system", Content: system})
	}
	for _, message := range messages {
		out = append(out, olla.Message{
			Role:    string(message.Role),
			Content: message.Content,
		})
	}
	return out
}

var _ ports.ChatModel = (*Ollama)(nil)
