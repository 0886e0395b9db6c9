package common

import (
	"context"
	"strings"
)

type userIDKey struct{}

// WithUserID marks ctx as authenticated for id.
func WithUserID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, userIDKey{}, strings.TrimSpace(id))
}

// UserID returns the authenticated user id; ok is false for anonymous
// requests.
func UserID(ctx context.Context) (id string, ok bool) {
	id, _ = ctx.Value(userIDKey{}).(string)
	return id, id != ""
}
