// Package retrieve fans a classified query out to the embedding service,
// the vector store and (for temporal queries) the event store, and collects
// the candidate fragments and events for context building.
package retrieve

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"lifequery/internal/models"
	"lifequery/internal/queryengine/ports"
	"lifequery/internal/queryengine/privacy"
	"lifequery/pkg/logger"
)

// Default fan-out sizes. Counting queries trade precision for exhaustive
// recall, so their topK is expanded.
const (
	DefaultPersonalTopK = 10
	DefaultCountTopK    = 50
	DefaultCircleTopK   = 20
	DefaultEventLimit   = 50
)

// Options tunes the retriever's fan-out. Zero fields select the defaults.
type Options struct {
	PersonalTopK int
	CountTopK    int
	CircleTopK   int
	EventLimit   int
}

func (o Options) withDefaults() Options {
	if o.PersonalTopK <= 0 {
		o.PersonalTopK = DefaultPersonalTopK
	}
	if o.CountTopK <= 0 {
		o.CountTopK = DefaultCountTopK
	}
	if o.CircleTopK <= 0 {
		o.CircleTopK = DefaultCircleTopK
	}
	if o.EventLimit <= 0 {
		o.EventLimit = DefaultEventLimit
	}
	return o
}

// Retriever queries the external stores for one request. It holds no
// mutable state and is safe for concurrent use.
type Retriever struct {
	embedder ports.Embedder
	vectors  ports.VectorStore
	events   ports.EventStore
	opts     Options
	log      *logger.Logger
}

// New creates a Retriever. The event store may be nil when no structured
// event source is deployed.
func New(embedder ports.Embedder, vectors ports.VectorStore, events ports.EventStore, opts Options, log *logger.Logger) *Retriever {
	return &Retriever{
		embedder: embedder,
		vectors:  vectors,
		events:   events,
		opts:     opts.withDefaults(),
		log:      log,
	}
}

// Result is the combined outcome of one retrieval pass.
type Result struct {
	Fragments []models.RetrievedFragment
	Events    []models.ExtractedEvent
}

// RetrievePersonal runs the single-user retrieval path: embed the query,
// search the user's own fragments (with an optional data-type filter and
// expanded recall for counting queries), and, for temporal queries, fetch
// extracted events for the resolved range. The call chain never exceeds two
// sequential external calls: embedding, then vector and event queries in
// parallel.
func (r *Retriever) RetrievePersonal(
	ctx context.Context,
	queryText, userID string,
	intent models.IntentAnalysis,
	temporal models.TemporalIntent,
) (*Result, error) {
	vector, err := r.embedder.Embed(ctx, queryText, userID, "query")
	if err != nil {
		return nil, ports.NewDependencyError(ports.DependencyEmbedding, err)
	}

	topK := r.opts.PersonalTopK
	if intent.IsCountQuery {
		topK = r.opts.CountTopK
	}

	vq := ports.VectorQuery{
		Vector:   vector,
		OwnerIDs: []string{userID},
		TopK:     topK,
	}
	if intent.SuggestedDataType != "" {
		vq.DataTypes = []models.DataType{intent.SuggestedDataType}
	}

	return r.fanOut(ctx, userID, vq, intent.SuggestedActivity, temporal)
}

// RetrieveCircle runs the multi-user retrieval path across the circle's
// member set. The circle policy is applied here only as a coarse data-type
// filter; per-member consent is enforced afterwards by the privacy filter.
func (r *Retriever) RetrieveCircle(
	ctx context.Context,
	queryText, userID string,
	circle *models.Circle,
	intent models.IntentAnalysis,
	temporal models.TemporalIntent,
) (*Result, error) {
	vector, err := r.embedder.Embed(ctx, queryText, userID, "circle-query")
	if err != nil {
		return nil, ports.NewDependencyError(ports.DependencyEmbedding, err)
	}

	vq := ports.VectorQuery{
		Vector:    vector,
		OwnerIDs:  circle.MemberIDs,
		TopK:      r.opts.CircleTopK,
		DataTypes: privacy.AllowedDataTypes(circle.DataSharing),
	}

	return r.fanOut(ctx, userID, vq, intent.SuggestedActivity, temporal)
}

// fanOut issues the vector query and, when the query has temporal intent,
// the event query concurrently. A vector-store failure is fatal; an
// event-store failure is logged and degrades to zero events.
func (r *Retriever) fanOut(
	ctx context.Context,
	userID string,
	vq ports.VectorQuery,
	activity string,
	temporal models.TemporalIntent,
) (*Result, error) {
	result := &Result{}
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		var (
			fragments []models.RetrievedFragment
			err       error
		)
		if activity != "" {
			fragments, err = r.vectors.QueryByActivity(groupCtx, vq, activity)
		} else {
			fragments, err = r.vectors.Query(groupCtx, vq)
		}
		if err != nil {
			return ports.NewDependencyError(ports.DependencyVectorStore, err)
		}
		result.Fragments = fragments
		return nil
	})

	if temporal.HasTemporalIntent && temporal.DateRange != nil && r.events != nil {
		rng := *temporal.DateRange
		group.Go(func() error {
			events, err := r.events.GetEvents(groupCtx, userID, rng, r.opts.EventLimit)
			if err != nil {
				// Best effort: the query proceeds on vector fragments alone.
				r.log.WithError(err).Warn(fmt.Sprintf(
					"event store query failed for user %s; continuing without events", userID))
				return nil
			}
			result.Events = events
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}
