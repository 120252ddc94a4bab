package retrieve

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"lifequery/internal/models"
	"lifequery/internal/queryengine/ports"
	"lifequery/pkg/logger"
)

type fakeEmbedder struct {
	vector []float32
	err    error

	lastText    string
	lastUserID  string
	lastPurpose string
}

func (f *fakeEmbedder) Embed(_ context.Context, text, userID, purpose string) ([]float32, error) {
	f.lastText = text
	f.lastUserID = userID
	f.lastPurpose = purpose
	return f.vector, f.err
}

type fakeVectorStore struct {
	mu        sync.Mutex
	fragments []models.RetrievedFragment
	err       error

	lastQuery    ports.VectorQuery
	lastActivity string
	byActivity   bool
}

func (f *fakeVectorStore) Query(_ context.Context, q ports.VectorQuery) ([]models.RetrievedFragment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = q
	f.byActivity = false
	return f.fragments, f.err
}

func (f *fakeVectorStore) QueryByActivity(_ context.Context, q ports.VectorQuery, activity string) ([]models.RetrievedFragment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastQuery = q
	f.lastActivity = activity
	f.byActivity = true
	return f.fragments, f.err
}

type fakeEventStore struct {
	mu     sync.Mutex
	events []models.ExtractedEvent
	err    error

	called    bool
	lastRange models.DateRange
	lastLimit int
}

func (f *fakeEventStore) GetEvents(_ context.Context, _ string, rng models.DateRange, limit int) ([]models.ExtractedEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.called = true
	f.lastRange = rng
	f.lastLimit = limit
	return f.events, f.err
}

func testLogger() *logger.Logger {
	return logger.New("retrieve-test", "", "")
}

func TestRetrievePersonal_Defaults(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.1, 0.2}}
	vectors := &fakeVectorStore{fragments: []models.RetrievedFragment{{ID: "f1"}}}

	r := New(embedder, vectors, nil, Options{}, testLogger())
	result, err := r.RetrievePersonal(context.Background(), "what did I do?", "u1",
		models.IntentAnalysis{}, models.TemporalIntent{})
	if err != nil {
		t.Fatalf("RetrievePersonal: %v", err)
	}
	if len(result.Fragments) != 1 || result.Fragments[0].ID != "f1" {
		t.Errorf("Fragments = %v", result.Fragments)
	}

	if embedder.lastUserID != "u1" || embedder.lastPurpose != "query" {
		t.Errorf("embedder called with userID=%q purpose=%q", embedder.lastUserID, embedder.lastPurpose)
	}
	if vectors.lastQuery.TopK != DefaultPersonalTopK {
		t.Errorf("TopK = %d, want %d", vectors.lastQuery.TopK, DefaultPersonalTopK)
	}
	if len(vectors.lastQuery.OwnerIDs) != 1 || vectors.lastQuery.OwnerIDs[0] != "u1" {
		t.Errorf("OwnerIDs = %v, want [u1]", vectors.lastQuery.OwnerIDs)
	}
	if len(vectors.lastQuery.DataTypes) != 0 {
		t.Errorf("DataTypes = %v, want none", vectors.lastQuery.DataTypes)
	}
	if vectors.byActivity {
		t.Error("QueryByActivity used without a suggested activity")
	}
}

func TestRetrievePersonal_CountQueryExpandsTopK(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.1}}
	vectors := &fakeVectorStore{}

	r := New(embedder, vectors, nil, Options{}, testLogger())
	_, err := r.RetrievePersonal(context.Background(), "how many runs?", "u1",
		models.IntentAnalysis{IsCountQuery: true}, models.TemporalIntent{})
	if err != nil {
		t.Fatalf("RetrievePersonal: %v", err)
	}
	if vectors.lastQuery.TopK != DefaultCountTopK {
		t.Errorf("TopK = %d, want %d for count query", vectors.lastQuery.TopK, DefaultCountTopK)
	}
}

func TestRetrievePersonal_DataTypeFilterAndActivity(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.1}}
	vectors := &fakeVectorStore{}

	r := New(embedder, vectors, nil, Options{}, testLogger())
	analysis := models.IntentAnalysis{
		SuggestedDataType: models.DataTypeHealth,
		SuggestedActivity: "gym",
	}
	if _, err := r.RetrievePersonal(context.Background(), "gym sessions?", "u1", analysis, models.TemporalIntent{}); err != nil {
		t.Fatalf("RetrievePersonal: %v", err)
	}

	if len(vectors.lastQuery.DataTypes) != 1 || vectors.lastQuery.DataTypes[0] != models.DataTypeHealth {
		t.Errorf("DataTypes = %v, want [health]", vectors.lastQuery.DataTypes)
	}
	if !vectors.byActivity || vectors.lastActivity != "gym" {
		t.Errorf("expected activity search for %q, got byActivity=%v activity=%q",
			"gym", vectors.byActivity, vectors.lastActivity)
	}
}

func TestRetrievePersonal_EmbeddingFailureIsFatal(t *testing.T) {
	embedder := &fakeEmbedder{err: errors.New("quota exceeded")}
	vectors := &fakeVectorStore{}

	r := New(embedder, vectors, nil, Options{}, testLogger())
	_, err := r.RetrievePersonal(context.Background(), "anything", "u1",
		models.IntentAnalysis{}, models.TemporalIntent{})

	var depErr *ports.DependencyError
	if !errors.As(err, &depErr) || depErr.Dependency != ports.DependencyEmbedding {
		t.Fatalf("err = %v, want embedding DependencyError", err)
	}
}

func TestRetrievePersonal_VectorStoreFailureIsFatal(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.1}}
	vectors := &fakeVectorStore{err: errors.New("collection not loaded")}

	r := New(embedder, vectors, nil, Options{}, testLogger())
	_, err := r.RetrievePersonal(context.Background(), "anything", "u1",
		models.IntentAnalysis{}, models.TemporalIntent{})

	var depErr *ports.DependencyError
	if !errors.As(err, &depErr) || depErr.Dependency != ports.DependencyVectorStore {
		t.Fatalf("err = %v, want vector-store DependencyError", err)
	}
}

func TestRetrievePersonal_TemporalQueriesEventStore(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.1}}
	vectors := &fakeVectorStore{}
	events := &fakeEventStore{events: []models.ExtractedEvent{{Title: "dentist"}}}

	rng := models.DateRange{
		Start: time.Date(2026, 8, 18, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 8, 18, 23, 59, 59, 0, time.UTC),
	}
	temporal := models.TemporalIntent{HasTemporalIntent: true, DateRange: &rng, Label: "yesterday"}

	r := New(embedder, vectors, events, Options{EventLimit: 7}, testLogger())
	result, err := r.RetrievePersonal(context.Background(), "yesterday?", "u1",
		models.IntentAnalysis{}, temporal)
	if err != nil {
		t.Fatalf("RetrievePersonal: %v", err)
	}

	if !events.called {
		t.Fatal("event store not queried for a temporal query")
	}
	if events.lastLimit != 7 {
		t.Errorf("event limit = %d, want 7", events.lastLimit)
	}
	if !events.lastRange.Start.Equal(rng.Start) || !events.lastRange.End.Equal(rng.End) {
		t.Errorf("event range = %+v, want %+v", events.lastRange, rng)
	}
	if len(result.Events) != 1 || result.Events[0].Title != "dentist" {
		t.Errorf("Events = %v", result.Events)
	}
}

func TestRetrievePersonal_NoTemporalIntentSkipsEventStore(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.1}}
	events := &fakeEventStore{}

	r := New(embedder, &fakeVectorStore{}, events, Options{}, testLogger())
	if _, err := r.RetrievePersonal(context.Background(), "favourite food?", "u1",
		models.IntentAnalysis{}, models.TemporalIntent{}); err != nil {
		t.Fatalf("RetrievePersonal: %v", err)
	}
	if events.called {
		t.Error("event store queried without temporal intent")
	}
}

func TestRetrievePersonal_EventStoreFailureDegrades(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.1}}
	vectors := &fakeVectorStore{fragments: []models.RetrievedFragment{{ID: "f1"}}}
	events := &fakeEventStore{err: errors.New("mongo down")}

	rng := models.DateRange{Start: time.Now().Add(-24 * time.Hour), End: time.Now()}
	temporal := models.TemporalIntent{HasTemporalIntent: true, DateRange: &rng}

	r := New(embedder, vectors, events, Options{}, testLogger())
	result, err := r.RetrievePersonal(context.Background(), "yesterday?", "u1",
		models.IntentAnalysis{}, temporal)
	if err != nil {
		t.Fatalf("event store failure must not fail the query: %v", err)
	}
	if len(result.Events) != 0 {
		t.Errorf("Events = %v, want none after failure", result.Events)
	}
	if len(result.Fragments) != 1 {
		t.Errorf("Fragments = %v, want the vector results", result.Fragments)
	}
}

func TestRetrieveCircle_CoarsePolicyFilter(t *testing.T) {
	embedder := &fakeEmbedder{vector: []float32{0.1}}
	vectors := &fakeVectorStore{}

	circle := &models.Circle{
		ID:        "c1",
		MemberIDs: []string{"u1", "u2", "u3"},
		DataSharing: models.SharingPolicy{
			Health:   true,
			Location: true,
		},
	}

	r := New(embedder, vectors, nil, Options{}, testLogger())
	if _, err := r.RetrieveCircle(context.Background(), "who ran the most?", "u1",
		circle, models.IntentAnalysis{}, models.TemporalIntent{}); err != nil {
		t.Fatalf("RetrieveCircle: %v", err)
	}

	if embedder.lastPurpose != "circle-query" {
		t.Errorf("purpose = %q, want circle-query", embedder.lastPurpose)
	}
	if vectors.lastQuery.TopK != DefaultCircleTopK {
		t.Errorf("TopK = %d, want %d", vectors.lastQuery.TopK, DefaultCircleTopK)
	}
	if len(vectors.lastQuery.OwnerIDs) != 3 {
		t.Errorf("OwnerIDs = %v, want all members", vectors.lastQuery.OwnerIDs)
	}
	want := []models.DataType{models.DataTypeHealth, models.DataTypeLocation}
	if len(vectors.lastQuery.DataTypes) != len(want) {
		t.Fatalf("DataTypes = %v, want %v", vectors.lastQuery.DataTypes, want)
	}
	for i := range want {
		if vectors.lastQuery.DataTypes[i] != want[i] {
			t.Fatalf("DataTypes = %v, want %v", vectors.lastQuery.DataTypes, want)
		}
	}
}

func TestOptions_WithDefaults(t *testing.T) {
	opts := Options{CountTopK: 99}.withDefaults()
	if opts.PersonalTopK != DefaultPersonalTopK {
		t.Errorf("PersonalTopK = %d, want default", opts.PersonalTopK)
	}
	if opts.CountTopK != 99 {
		t.Errorf("CountTopK = %d, want 99 preserved", opts.CountTopK)
	}
	if opts.CircleTopK != DefaultCircleTopK || opts.EventLimit != DefaultEventLimit {
		t.Errorf("defaults not applied: %+v", opts)
	}
}
