package common

import (
	"context"
	"net/http/httptest"
	"testing"
)

func TestResolveUserID(t *testing.T) {
	r := httptest.NewRequest("GET", "/api/portfolio", nil)
	if got := ResolveUserID(r); got != DefaultUserID {
		t.Errorf("expected default user, got %q", got)
	}

	r.Header.Set(UserHeader, "alice")
	if got := ResolveUserID(r); got != "alice" {
		t.Errorf("expected header user, got %q", got)
	}

	r.Header.Set(UserHeader, "   ")
	if got := ResolveUserID(r); got != DefaultUserID {
		t.Errorf("expected blank header to fall back to default, got %q", got)
	}
}

func TestUserIDContextRoundTrip(t *testing.T) {
	ctx := WithUserID(context.Background(), "bob")
	if got := UserIDFromContext(ctx); got != "bob" {
		t.Errorf("expected bob, got %q", got)
	}

	if got := UserIDFromContext(context.Background()); got != DefaultUserID {
		t.Errorf("expected default for empty context, got %q", got)
	}
}
