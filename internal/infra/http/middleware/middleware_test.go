package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/xavierca1/ligue-leads/internal/entity"
)

func TestIdentity(t *testing.T) {
	var got entity.Caller
	h := Identity(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = CallerFrom(r.Context())
	}))

	t.Run("valid headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/leads", nil)
		req.Header.Set(HeaderAgentID, "agent-a")
		req.Header.Set(HeaderAgentRole, "Agent")
		w := httptest.NewRecorder()

		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, entity.Caller{ID: "agent-a", Role: entity.RoleAgent}, got)
	})

	t.Run("unknown role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/leads", nil)
		req.Header.Set(HeaderAgentID, "agent-a")
		req.Header.Set(HeaderAgentRole, "root")
		w := httptest.NewRecorder()

		h.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.JSONEq(t, `{"message":"Missing or invalid caller identity"}`, w.Body.String())
	})
}

func TestRateLimiter(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2, time.Minute)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("agent-a"))
	assert.True(t, rl.Allow("agent-a"))
	assert.False(t, rl.Allow("agent-a"))
	assert.True(t, rl.Allow("agent-b"))

	now = now.Add(2 * time.Minute)
	assert.True(t, rl.Allow("agent-a"))
}

func TestLimitSkipsReads(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	h := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/leads", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/leads/1/own", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/leads/1/own", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
