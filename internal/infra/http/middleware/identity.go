package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/xavierca1/ligue-leads/internal/entity"
)

const (
	HeaderAgentID   = "X-Agent-ID"
	HeaderAgentRole = "X-Agent-Role"
)

type callerKey struct{}

// Identity reads the caller set by the authenticating proxy in front of the
// service. Requests without a valid identity are rejected with 401.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(HeaderAgentID))
		role := entity.Role(strings.ToLower(strings.TrimSpace(r.Header.Get(HeaderAgentRole))))
		if id == "" || !role.Valid() {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"message": "Missing or invalid caller identity"})
			return
		}
		ctx := WithCaller(r.Context(), entity.Caller{ID: id, Role: role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func WithCaller(ctx context.Context, c entity.Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, c)
}

func CallerFrom(ctx context.Context) (entity.Caller, bool) {
	c, ok := ctx.Value(callerKey{}).(entity.Caller)
	return c, ok
}
