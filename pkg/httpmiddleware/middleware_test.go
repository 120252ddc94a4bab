package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"lifequery/pkg/ratelimiter"
)

func newTestRouter(middlewares ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middlewares...)
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return router
}

func TestUserIdentity_MissingHeaderRejected(t *testing.T) {
	router := newTestRouter(UserIdentity())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestUserIdentity_HeaderAccepted(t *testing.T) {
	router := newTestRouter(UserIdentity())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-User-ID", "u1")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestRequestID_GeneratedAndEchoed(t *testing.T) {
	router := newTestRouter(RequestID())

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("no request id assigned")
	}

	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("X-Request-ID", "caller-chosen")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("X-Request-ID"); got != "caller-chosen" {
		t.Errorf("request id = %q, want caller's id preserved", got)
	}
}

func TestPerUserRateLimit(t *testing.T) {
	limiter := ratelimiter.NewKeyed(func() ratelimiter.RateLimiter {
		return ratelimiter.NewTokenBucket(0.0001, 2)
	})
	router := newTestRouter(UserIdentity(), PerUserRateLimit(limiter))

	get := func(userID string) int {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.Header.Set("X-User-ID", userID)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec.Code
	}

	for i := 0; i < 2; i++ {
		if code := get("u1"); code != http.StatusOK {
			t.Fatalf("request %d for u1: status %d", i+1, code)
		}
	}
	if code := get("u1"); code != http.StatusTooManyRequests {
		t.Errorf("third request for u1: status %d, want 429", code)
	}
	// Another user keeps an independent budget.
	if code := get("u2"); code != http.StatusOK {
		t.Errorf("first request for u2: status %d, want 200", code)
	}
}
