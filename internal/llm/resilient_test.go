package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"lifequery/internal/models"
	"lifequery/internal/queryengine/ports"
	"lifequery/pkg/circuitbreaker"
)

type flakyChat struct {
	err   error
	calls int
}

func (f *flakyChat) Complete(_ context.Context, _ []models.ChatMessage) (*ports.Completion, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &ports.Completion{Text: "ok", Model: "test"}, nil
}

func (f *flakyChat) CompleteWithSystem(ctx context.Context, _ string, messages []models.ChatMessage) (*ports.Completion, error) {
	return f.Complete(ctx, messages)
}

func TestResilientChat_PassesThrough(t *testing.T) {
	inner := &flakyChat{}
	chat := NewResilientChat(inner, circuitbreaker.New(3, 1, time.Minute))

	completion, err := chat.Complete(context.Background(), nil)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if completion.Text != "ok" {
		t.Errorf("Text = %q", completion.Text)
	}
}

func TestResilientChat_FailsFastWhenOpen(t *testing.T) {
	inner := &flakyChat{err: errors.New("provider timeout")}
	chat := NewResilientChat(inner, circuitbreaker.New(2, 1, time.Minute))

	for i := 0; i < 2; i++ {
		if _, err := chat.Complete(context.Background(), nil); err == nil {
			t.Fatalf("call %d: expected provider error", i+1)
		}
	}
	callsBefore := inner.calls

	_, err := chat.CompleteWithSystem(context.Background(), "sys", nil)
	if !errors.Is(err, circuitbreaker.ErrOpen) {
		t.Fatalf("err = %v, want ErrOpen", err)
	}
	if inner.calls != callsBefore {
		t.Error("provider called while the breaker was open")
	}
}
