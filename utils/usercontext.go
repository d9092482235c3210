package utils

import (
	"context"
	"net/http"

	"tripbite/globals"
)

// UserIDFromContext returns the authenticated user id, or "" when the
// request was not authenticated.
func UserIDFromContext(ctx context.Context) string {
	userID, ok := ctx.Value(globals.UserIDKey).(string)
	if !ok {
		return ""
	}
	return userID
}

func GetUserIDFromRequest(r *http.Request) string {
	return UserIDFromContext(r.Context())
}

// WithUserID returns a copy of ctx carrying the authenticated user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, globals.UserIDKey, userID)
}
