package auth

import (
	"context"
	"testing"
)

func TestUserIDFromContext(t *testing.T) {
	if _, ok := UserIDFromContext(context.Background()); ok {
		t.Error("expected no userID in a bare context")
	}

	ctx := WithUserID(context.Background(), "admin@example.com")
	userID, ok := UserIDFromContext(ctx)
	if !ok || userID != "admin@example.com" {
		t.Errorf("expected admin@example.com, got %q (%v)", userID, ok)
	}
}
