// Package llm provides the concrete chat-completion clients. Each client
// implements the engine's ChatModel contract and reports the provider's
// token usage alongside the generated text.
package llm

import (
	"context"
	"fmt"

	openai "github.com/meguminnnnnnnnn/go-openai"

	"lifequery/internal/models"
	"lifequery/internal/queryengine/ports"
)

// OpenAI is a chat-completion client for the OpenAI API.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates a new OpenAI chat client.
func NewOpenAI(model, apiKey string) (*OpenAI, error) {
	config := openai.DefaultConfig(apiKey)
	client := openai.NewClientWithConfig(config)
	return &OpenAI{client: client, model: model}, nil
}

// Complete performs a single chat-completion call.
func (o *OpenAI) Complete(ctx context.Context, messages []models.ChatMessage) (*ports.Completion, error) {
	return o.complete(ctx, toOpenAIMessages("", messages))
}

// CompleteWithSystem prepends a system instruction before the conversation.
func (o *OpenAI) CompleteWithSystem(ctx context.Context, system string, messages []models.ChatMessage) (*ports.Completion, error) {
	return o.complete(ctx, toOpenAIMessages(system, messages))
}

func (o *OpenAI) complete(ctx context.Context, messages []openai.ChatCompletionMessage) (*ports.Completion, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    o.model,
		Messages: messages,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no completion choices returned")
	}

	return &ports.Completion{
		Text:         resp.Choices[0].Message.Content,
		Model:        resp.Model,
		InputTokens:  resp.Usage.PromptTokens,
		OutputTokens: resp.Usage.CompletionTokens,
	}, nil
}

func toOpenAIMessages(system string, messages []models.ChatMessage) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if system != "" {
		out = append(out, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	for _, message := range messages {
		out = append(out, openai.ChatCompletionMessage{
			Role:    string(message.Role),
			Content: message.Content,
		})
	}
	return out
}

var _ ports.ChatModel = (*OpenAI)(nil)
