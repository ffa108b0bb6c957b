package middleware

import "context"

type contextKey string

// ExternalIDKey holds the authenticated caller's external identity id.
const ExternalIDKey contextKey = "externalID"

// ExternalIDFromContext extracts the authenticated external id, if any.
func ExternalIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ExternalIDKey).(string)
	return id, ok && id != ""
}
