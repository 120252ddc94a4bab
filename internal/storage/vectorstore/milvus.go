// Package vectorstore adapts the Milvus client to the engine's VectorStore
// contract, translating owner/data-type filters into Milvus filter
// expressions.
package vectorstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"lifequery/internal/database/milvus"
	"lifequery/internal/models"
	"lifequery/internal/queryengine/ports"
	"lifequery/pkg/logger"
)

// Schema fields of the fragment collection that we filter on or output.
const (
	FieldID          = "id"
	FieldEmbedding   = "embedding"
	FieldOwnerUserID = "owner_user_id"
	FieldDataType    = "data_type"
	FieldActivity    = "activity"
	FieldText        = "text"
	FieldOccurredAt  = "occurred_at"
)

// MilvusStore implements ports.VectorStore on top of the shared Milvus
// client wrapper.
type MilvusStore struct {
	client     *milvus.Client
	collection string
	log        *logger.Logger
}

// NewMilvusStore creates a MilvusStore for the given collection.
func NewMilvusStore(client *milvus.Client, collection string, log *logger.Logger) (*MilvusStore, error) {
	if client == nil || client.Client == nil {
		return nil, fmt.Errorf("milvus client is not initialized")
	}
	return &MilvusStore{
		client:     client,
		collection: collection,
		log:        log,
	}, nil
}

// Query performs a nearest-neighbour search restricted to the requested
// owners and data types.
func (s *MilvusStore) Query(ctx context.Context, q ports.VectorQuery) ([]models.RetrievedFragment, error) {
	return s.search(ctx, q, "")
}

// QueryByActivity narrows the search to fragments tagged with the given
// activity.
func (s *MilvusStore) QueryByActivity(ctx context.Context, q ports.VectorQuery, activity string) ([]models.RetrievedFragment, error) {
	return s.search(ctx, q, activity)
}

func (s *MilvusStore) search(ctx context.Context, q ports.VectorQuery, activity string) ([]models.RetrievedFragment, error) {
	filterExpr := buildFilterExpression(q, activity)

	searchParams, _ := entity.NewIndexIvfFlatSearchParam(10)
	outputFields := []string{FieldID, FieldOwnerUserID, FieldDataType, FieldText, FieldOccurredAt}

	s.log.Debug(fmt.Sprintf("querying Milvus collection %q with filter: %q", s.collection, filterExpr))

	searchResults, err := s.client.Client.Search(
		ctx, s.collection, []string{}, filterExpr, outputFields,
		[]entity.Vector{entity.FloatVector(q.Vector)},
		FieldEmbedding, entity.COSINE, q.TopK, searchParams,
	)
	if err != nil {
		s.log.WithError(err).Error("milvus search failed")
		return nil, fmt.Errorf("failed to search in Milvus: %w", err)
	}

	var fragments []models.RetrievedFragment
	for _, res := range searchResults {
		idData := varcharColumn(res.Fields, FieldID)
		if idData == nil {
			s.log.Warn("search result is missing the id field, skipping")
			continue
		}
		ownerData := varcharColumn(res.Fields, FieldOwnerUserID)
		typeData := varcharColumn(res.Fields, FieldDataType)
		textData := varcharColumn(res.Fields, FieldText)
		occurredData := int64Column(res.Fields, FieldOccurredAt)

		for i := 0; i < res.ResultCount; i++ {
			fragment := models.RetrievedFragment{
				ID:    idData[i],
				Score: normalizeScore(res.Scores[i]),
			}
			if ownerData != nil {
				fragment.OwnerUserID = ownerData[i]
			}
			if typeData != nil {
				fragment.DataType = models.DataType(typeData[i])
			}
			if textData != nil {
				fragment.Text = textData[i]
			}
			if occurredData != nil && occurredData[i] > 0 {
				fragment.OccurredAt = time.Unix(occurredData[i], 0)
			}
			fragments = append(fragments, fragment)
		}
	}

	return fragments, nil
}

// buildFilterExpression renders the owner, data-type and activity
// restrictions as a Milvus filter expression.
func buildFilterExpression(q ports.VectorQuery, activity string) string {
	var conditions []string

	if len(q.OwnerIDs) == 1 {
		conditions = append(conditions, fmt.Sprintf(`%s == "%s"`, FieldOwnerUserID, q.OwnerIDs[0]))
	} else if len(q.OwnerIDs) > 1 {
		conditions = append(conditions, fmt.Sprintf(`%s in [%s]`, FieldOwnerUserID, quoteList(q.OwnerIDs)))
	}

	if len(q.DataTypes) == 1 {
		conditions = append(conditions, fmt.Sprintf(`%s == "%s"`, FieldDataType, q.DataTypes[0]))
	} else if len(q.DataTypes) > 1 {
		values := make([]string, len(q.DataTypes))
		for i, dataType := range q.DataTypes {
			values[i] = string(dataType)
		}
		conditions = append(conditions, fmt.Sprintf(`%s in [%s]`, FieldDataType, quoteList(values)))
	}

	if activity != "" {
		conditions = append(conditions, fmt.Sprintf(`%s == "%s"`, FieldActivity, activity))
	}

	return strings.Join(conditions, " and ")
}

func quoteList(values []string) string {
	quoted := make([]string, len(values))
	for i, value := range values {
		quoted[i] = fmt.Sprintf("%q", value)
	}
	return strings.Join(quoted, ", ")
}

// normalizeScore maps a cosine similarity into [0,1]. Negative similarity
// means no meaningful relevance and clamps to zero.
func normalizeScore(score float32) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return float64(score)
}

func varcharColumn(fields []entity.Column, name string) []string {
	for _, field := range fields {
		if field.Name() == name {
			if col, ok := field.(*entity.ColumnVarChar); ok {
				return col.Data()
			}
		}
	}
	return nil
}

func int64Column(fields []entity.Column, name string) []int64 {
	for _, field := range fields {
		if field.Name() == name {
			if col, ok := field.(*entity.ColumnInt64); ok {
				return col.Data()
			}
		}
	}
	return nil
}

// compile-time check that MilvusStore implements the VectorStore contract
var _ ports.VectorStore = (*MilvusStore)(nil)
