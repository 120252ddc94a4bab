package llm

import (
	"context"

	"lifequery/internal/models"
	"lifequery/internal/queryengine/ports"
	"lifequery/pkg/circuitbreaker"
)

// ResilientChat wraps a ChatModel with a circuit breaker. When the provider
// is hard down, calls fail fast with circuitbreaker.ErrOpen instead of each
// waiting out a provider timeout; the engine surfaces that as a
// chat-completion dependency failure like any other provider error.
type ResilientChat struct {
	inner   ports.ChatModel
	breaker *circuitbreaker.Breaker
}

// NewResilientChat wraps inner with the given breaker.
func NewResilientChat(inner ports.ChatModel, breaker *circuitbreaker.Breaker) *ResilientChat {
	return &ResilientChat{inner: inner, breaker: breaker}
}

// Complete implements ports.ChatModel.
func (r *ResilientChat) Complete(ctx context.Context, messages []models.ChatMessage) (*ports.Completion, error) {
	var completion *ports.Completion
	err := r.breaker.Do(func() error {
		var callErr error
		completion, callErr = r.inner.Complete(ctx, messages)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return completion, nil
}

// CompleteWithSystem implements ports.ChatModel.
func (r *ResilientChat) CompleteWithSystem(ctx context.Context, system string, messages []models.ChatMessage) (*ports.Completion, error) {
	var completion *ports.Completion
	err := r.breaker.Do(func() error {
		var callErr error
		completion, callErr = r.inner.CompleteWithSystem(ctx, system, messages)
		return callErr
	})
	if err != nil {
		return nil, err
	}
	return completion, nil
}

var _ ports.ChatModel = (*ResilientChat)(nil)
