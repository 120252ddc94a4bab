package llm

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"lifequery/internal/models"
	"lifequery/internal/queryengine/ports"
)

// Gemini is a chat-completion client for the Google GenAI API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a new Gemini chat client.
func NewGemini(ctx context.Context, model, apiKey string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &Gemini{client: client, model: model}, nil
}

// Complete performs a single chat call.
func (g *Gemini) Complete(ctx context.Context, messages []models.ChatMessage) (*ports.Completion, error) {
	return g.complete(ctx, "", messages)
}

// CompleteWithSystem sets a system instruction for the call.
func (g *Gemini) CompleteWithSystem(ctx context.Context, system string, messages []models.ChatMessage) (*ports.Completion, error) {
	return g.complete(ctx, system, messages)
}

func (g *Gemini) complete(ctx context.Context, system string, messages []models.ChatMessage) (*ports.Completion, error) {
	if len(messages) == 0 {
		return nil, fmt.Errorf("no messages to complete")
	}

	// A fresh model handle per call keeps the client re-entrant when a
	// system instruction is set.
	model := g.client.GenerativeModel(g.model)
	if system != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	}

	session := model.StartChat()
	session.History = toGenaiHistory(messages[:len(messages)-1])

	last := messages[len(messages)-1]
	resp, err := session.SendMessage(ctx, genai.Text(last.Content))
	if err != nil {
		return nil, fmt.Errorf("failed to send message to gemini: %w", err)
	}

	completion := &ports.Completion{
		Text:  firstCandidateText(resp),
		Model: g.model,
	}
	if resp.UsageMetadata != nil {
		completion.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		completion.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return completion, nil
}

func toGenaiHistory(messages []models.ChatMessage) []*genai.Content {
	history := make([]*genai.Content, 0, len(messages))
	for _, message := range messages {
		role := "user"
		if message.Role == models.RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(message.Content)},
		})
	}
	return history
}

func firstCandidateText(resp *genai.GenerateContentResponse) string {
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				return string(text)
			}
		}
	}
	return ""
}

var _ ports.ChatModel = (*Gemini)(nil)
