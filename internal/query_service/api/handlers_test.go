package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"lifequery/internal/models"
	"lifequery/internal/queryengine"
	"lifequery/internal/queryengine/ports"
	"lifequery/pkg/logger"
)

type staticEmbedder struct{}

func (staticEmbedder) Embed(context.Context, string, string, string) ([]float32, error) {
	return []float32{0.1}, nil
}

type staticVectors struct{}

func (staticVectors) Query(context.Context, ports.VectorQuery) ([]models.RetrievedFragment, error) {
	return nil, nil
}

func (staticVectors) QueryByActivity(context.Context, ports.VectorQuery, string) ([]models.RetrievedFragment, error) {
	return nil, nil
}

type staticChat struct {
	err error
}

func (s staticChat) Complete(context.Context, []models.ChatMessage) (*ports.Completion, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &ports.Completion{Text: "an answer", Model: "gpt-4o"}, nil
}

func (s staticChat) CompleteWithSystem(ctx context.Context, _ string, m []models.ChatMessage) (*ports.Completion, error) {
	return s.Complete(ctx, m)
}

type staticDirectory struct {
	circle *models.Circle
}

func (s staticDirectory) GetCircle(context.Context, string) (*models.Circle, error) {
	if s.circle == nil {
		return nil, errors.New("circle not found")
	}
	return s.circle, nil
}

func (staticDirectory) GetPrivacySettings(context.Context, string, []string) (map[string]models.FriendPrivacySettings, error) {
	return nil, nil
}

func (staticDirectory) GetDisplayName(context.Context, string) (string, error) {
	return "Member", nil
}

func newTestRouter(chat ports.ChatModel, dir ports.Directory) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logger.New("api-test", "", "")
	engine := queryengine.New(queryengine.Deps{
		Embedder:  staticEmbedder{},
		Vectors:   staticVectors{},
		Chat:      chat,
		Directory: dir,
		Logger:    log,
		Now:       func() time.Time { return time.Date(2026, 8, 19, 12, 0, 0, 0, time.UTC) },
	})
	router := gin.New()
	RegisterRoutes(router, NewAPI(engine, log), nil)
	return router
}

func post(router *gin.Engine, path, userID, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestQueryHandler_OK(t *testing.T) {
	router := newTestRouter(staticChat{}, staticDirectory{})

	rec := post(router, "/api/v1/query", "u1", `{"text":"what did I do yesterday?"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "an answer") {
		t.Errorf("body missing answer: %s", rec.Body.String())
	}
}

func TestQueryHandler_MissingIdentity(t *testing.T) {
	router := newTestRouter(staticChat{}, staticDirectory{})

	rec := post(router, "/api/v1/query", "", `{"text":"hello"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestQueryHandler_BadPayload(t *testing.T) {
	router := newTestRouter(staticChat{}, staticDirectory{})

	rec := post(router, "/api/v1/query", "u1", `{"history":[]}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400 for missing text", rec.Code)
	}
}

func TestQueryHandler_DependencyFailureIs502(t *testing.T) {
	router := newTestRouter(staticChat{err: errors.New("provider down")}, staticDirectory{})

	rec := post(router, "/api/v1/query", "u1", `{"text":"hello"}`)
	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}

func TestCircleQueryHandler_NonMemberIs403(t *testing.T) {
	circle := &models.Circle{ID: "c1", Name: "Friends", MemberIDs: []string{"u2", "u3"}}
	router := newTestRouter(staticChat{}, staticDirectory{circle: circle})

	rec := post(router, "/api/v1/circles/c1/query", "u1", `{"text":"hello"}`)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}
