package common

import (
	"context"
	"net/http"
	"strings"
)

// UserHeader carries the caller's user identity. When absent the server
// operates in single-tenant mode under DefaultUserID.
const (
	UserHeader    = "X-Magnus-User"
	DefaultUserID = "default"
)

type contextKey int

const userIDKey contextKey = iota

// WithUserID stores a user ID in the request context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// UserIDFromContext retrieves the user ID from context, or DefaultUserID if absent.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok && id != "" {
		return id
	}
	return DefaultUserID
}

// ResolveUserID returns the user identity for a request: the UserHeader
// value when present, otherwise DefaultUserID.
func ResolveUserID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(UserHeader)); id != "" {
		return id
	}
	return DefaultUserID
}
