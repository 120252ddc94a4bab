// Package queryengine answers free-text questions over a user's private
// data. It classifies the query's intent and time frame, retrieves relevant
// fragments and events, applies circle privacy rules, builds a bounded
// context block, and invokes the chat-completion service exactly once.
//
// The engine is stateless and re-entrant: all collaborators are injected at
// construction and nothing is mutated between queries.
package queryengine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"lifequery/internal/models"
	"lifequery/internal/queryengine/contextbuild"
	"lifequery/internal/queryengine/intent"
	"lifequery/internal/queryengine/ports"
	"lifequery/internal/queryengine/privacy"
	"lifequery/internal/queryengine/retrieve"
	"lifequery/internal/queryengine/temporal"
	"lifequery/pkg/logger"
)

// snippetLength caps the provenance snippet returned per fragment.
const snippetLength = 120

// fallbackMemberLabel replaces a display name that could not be resolved.
const fallbackMemberLabel = "a circle member"

// Deps are the injected collaborators of the engine. EventStore and Usage
// are optional; everything else is required.
type Deps struct {
	Embedder  ports.Embedder
	Vectors   ports.VectorStore
	Events    ports.EventStore
	Chat      ports.ChatModel
	Directory ports.Directory
	Usage     ports.UsagePublisher
	Logger    *logger.Logger

	Retriever retrieve.Options
	// MaxContextChars caps the assembled context text; zero selects the
	// default.
	MaxContextChars int
	// Now is injectable for tests; defaults to time.Now.
	Now func() time.Time
}

// Engine is the query engine. Construct it with New; the zero value is not
// usable.
type Engine struct {
	retriever *retrieve.Retriever
	builder   *contextbuild.Builder
	chat      ports.ChatModel
	directory ports.Directory
	usage     ports.UsagePublisher
	log       *logger.Logger
	now       func() time.Time
}

// New constructs an Engine from its dependencies.
func New(deps Deps) *Engine {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &Engine{
		retriever: retrieve.New(deps.Embedder, deps.Vectors, deps.Events, deps.Retriever, deps.Logger),
		builder:   contextbuild.NewBuilder(deps.MaxContextChars),
		chat:      deps.Chat,
		directory: deps.Directory,
		usage:     deps.Usage,
		log:       deps.Logger,
		now:       now,
	}
}

// Answer runs the personal query pipeline: intent analysis, temporal
// resolution, retrieval over the user's own data, context building and a
// single chat-completion call.
func (e *Engine) Answer(ctx context.Context, query models.Query) (*models.AnswerResult, error) {
	analysis := intent.Analyze(query.Text)
	timeIntent := temporal.Resolve(query.Text, e.now())

	retrieved, err := e.retriever.RetrievePersonal(ctx, query.Text, query.UserID, analysis, timeIntent)
	if err != nil {
		return nil, err
	}

	contextText := e.builder.Build(retrieved.Fragments, retrieved.Events, analysis)
	messages := buildMessages(query, contextText)

	return e.complete(ctx, query, "", "", messages, retrieved.Fragments)
}

// AnswerCircle runs the circle query pipeline. Membership is verified
// before any retrieval; fragments pass through the per-member privacy
// filter before context building, and the generator receives a system
// instruction directing attribution by member name.
func (e *Engine) AnswerCircle(ctx context.Context, query models.Query, circleID string) (*models.AnswerResult, error) {
	circle, err := e.directory.GetCircle(ctx, circleID)
	if err != nil {
		return nil, ports.NewDependencyError(ports.DependencyDirectory, err)
	}
	if !circle.HasMember(query.UserID) {
		return nil, fmt.Errorf("circle %s: %w", circleID, ports.ErrNotCircleMember)
	}

	analysis := intent.Analyze(query.Text)
	timeIntent := temporal.Resolve(query.Text, e.now())

	retrieved, err := e.retriever.RetrieveCircle(ctx, query.Text, query.UserID, circle, analysis, timeIntent)
	if err != nil {
		return nil, err
	}

	owners := otherOwners(retrieved.Fragments, query.UserID)
	settings, err := e.directory.GetPrivacySettings(ctx, query.UserID, owners)
	if err != nil {
		// Fail closed: absent settings deny everything, so the query can
		// proceed on the viewer's own data.
		e.log.WithError(err).Warn("privacy settings lookup failed; treating all members as not sharing")
		settings = nil
	}

	visible := privacy.FilterFragments(query.UserID, circle, settings, retrieved.Fragments)
	contextText := e.builder.Build(visible, retrieved.Events, analysis)

	system := e.circleSystemInstruction(ctx, circle)
	messages := buildMessages(query, contextText)

	return e.complete(ctx, query, circleID, system, messages, visible)
}

// complete performs the single chat-completion call, assembles provider
// accounting and provenance, and publishes the usage event best effort.
func (e *Engine) complete(
	ctx context.Context,
	query models.Query,
	circleID, system string,
	messages []models.ChatMessage,
	used []models.RetrievedFragment,
) (*models.AnswerResult, error) {
	started := e.now()

	var (
		completion *ports.Completion
		err        error
	)
	if system != "" {
		completion, err = e.chat.CompleteWithSystem(ctx, system, messages)
	} else {
		completion, err = e.chat.Complete(ctx, messages)
	}
	if err != nil {
		return nil, ports.NewDependencyError(ports.DependencyChatCompletion, err)
	}

	result := &models.AnswerResult{
		ResponseText: completion.Text,
		ContextUsed:  contextReferences(used),
		ProviderInfo: models.ProviderInfo{
			Model:            completion.Model,
			InputTokens:      completion.InputTokens,
			OutputTokens:     completion.OutputTokens,
			Latency:          e.now().Sub(started),
			EstimatedCostUSD: estimateCost(completion.Model, completion.InputTokens, completion.OutputTokens),
		},
	}

	if e.usage != nil {
		event := models.UsageEvent{
			UserID:       query.UserID,
			CircleID:     circleID,
			Model:        completion.Model,
			InputTokens:  completion.InputTokens,
			OutputTokens: completion.OutputTokens,
			CostUSD:      result.ProviderInfo.EstimatedCostUSD,
			AnsweredAt:   e.now(),
		}
		if err := e.usage.Publish(ctx, event); err != nil {
			e.log.WithError(err).Warn("failed to publish usage event")
		}
	}

	return result, nil
}

// circleSystemInstruction names the circle and its members so the model can
// attribute facts by name. Display names are fetched concurrently; a failed
// lookup falls back to a generic label instead of failing the query.
func (e *Engine) circleSystemInstruction(ctx context.Context, circle *models.Circle) string {
	names := make([]string, len(circle.MemberIDs))
	group, groupCtx := errgroup.WithContext(ctx)

	for i, memberID := range circle.MemberIDs {
		group.Go(func() error {
			name, err := e.directory.GetDisplayName(groupCtx, memberID)
			if err != nil || name == "" {
				e.log.WithError(err).Warn(fmt.Sprintf("display name lookup failed for %s", memberID))
				name = fallbackMemberLabel
			}
			names[i] = name
			return nil
		})
	}
	_ = group.Wait() // goroutines never return errors; degraded names are kept

	return fmt.Sprintf(
		"You are answering a question asked within the shared circle %q, which has %d members: %s. "+
			"The context below mixes data from several members. When you use another member's data, "+
			"attribute it to that member by name.",
		circle.Name, len(circle.MemberIDs), strings.Join(names, ", "),
	)
}

// buildMessages appends the caller-supplied history unmodified, then the new
// user turn carrying the built context and the question.
func buildMessages(query models.Query, contextText string) []models.ChatMessage {
	messages := make([]models.ChatMessage, 0, len(query.ConversationHistory)+1)
	messages = append(messages, query.ConversationHistory...)
	messages = append(messages, models.ChatMessage{
		Role: models.RoleUser,
		Content: fmt.Sprintf(
			"Based on the following personal data, answer the question.\n\n%s\n\nQuestion: %s",
			contextText, query.Text,
		),
	})
	return messages
}

func contextReferences(fragments []models.RetrievedFragment) []models.ContextReference {
	refs := make([]models.ContextReference, len(fragments))
	for i, fragment := range fragments {
		refs[i] = models.ContextReference{
			ID:          fragment.ID,
			Score:       fragment.Score,
			DataType:    fragment.DataType,
			Snippet:     snippet(fragment.Text),
			OwnerUserID: fragment.OwnerUserID,
		}
	}
	return refs
}

func snippet(text string) string {
	runes := []rune(text)
	if len(runes) <= snippetLength {
		return text
	}
	return string(runes[:snippetLength]) + "..."
}

func otherOwners(fragments []models.RetrievedFragment, viewerID string) []string {
	seen := make(map[string]struct{})
	var owners []string
	for _, fragment := range fragments {
		if fragment.OwnerUserID == viewerID || fragment.OwnerUserID == "" {
			continue
		}
		if _, ok := seen[fragment.OwnerUserID]; ok {
			continue
		}
		seen[fragment.OwnerUserID] = struct{}{}
		owners = append(owners, fragment.OwnerUserID)
	}
	return owners
}
