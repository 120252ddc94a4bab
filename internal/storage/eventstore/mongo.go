// Package eventstore adapts MongoDB to the engine's EventStore contract.
// Extracted events are structured, date-queryable facts kept separately
// from the embedded free text.
package eventstore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"lifequery/internal/models"
	"lifequery/internal/queryengine/ports"
)

// MongoEventStore implements ports.EventStore on a MongoDB collection.
type MongoEventStore struct {
	collection *mongo.Collection
}

// NewMongoEventStore creates a store over the named collection.
func NewMongoEventStore(db *mongo.Database, collectionName string) *MongoEventStore {
	return &MongoEventStore{
		collection: db.Collection(collectionName),
	}
}

// GetEvents returns up to limit events for the user whose occurrence time
// falls inside the closed range, ordered by occurrence time ascending.
func (s *MongoEventStore) GetEvents(ctx context.Context, userID string, rng models.DateRange, limit int) ([]models.ExtractedEvent, error) {
	filter := bson.M{
		"user_id": userID,
		"occurs_at": bson.M{
			"$gte": rng.Start,
			"$lte": rng.End,
		},
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "occurs_at", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := s.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query extracted events: %w", err)
	}
	defer cursor.Close(ctx)

	var events []models.ExtractedEvent
	if err := cursor.All(ctx, &events); err != nil {
		return nil, fmt.Errorf("failed to decode extracted events: %w", err)
	}
	return events, nil
}

var _ ports.EventStore = (*MongoEventStore)(nil)
