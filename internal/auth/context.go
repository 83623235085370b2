package auth

import (
	"context"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// userIDContextKey is the context key for the ticket owner's user ID.
	userIDContextKey contextKey = "ticket_user_id"
)

// ContextWithUserID adds the authenticated user ID to the context.
func ContextWithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}

// UserIDFromContext retrieves the authenticated user ID from the context.
// The boolean is false when the request carried no valid ticket.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDContextKey).(int64)
	return id, ok
}

// MustUserIDFromContext retrieves the authenticated user ID from the context.
// Panics if not present (use only behind the ticket middleware).
func MustUserIDFromContext(ctx context.Context) int64 {
	id, ok := UserIDFromContext(ctx)
	if !ok {
		panic("ticket user not found in context - ensure ticket middleware is applied")
	}
	return id
}
