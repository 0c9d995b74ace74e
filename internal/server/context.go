package server

import "context"

type contextKey struct{ name string }

var (
	personIDKey  = contextKey{"person_id"}
	sessionIDKey = contextKey{"session_id"}
)

// WithIdentity returns a context with person_id and session_id set. The
// session middleware populates these for authenticated requests.
func WithIdentity(ctx context.Context, personID, sessionID string) context.Context {
	ctx = context.WithValue(ctx, personIDKey, personID)
	ctx = context.WithValue(ctx, sessionIDKey, sessionID)
	return ctx
}

// GetPersonID returns the person_id from context and true if set.
func GetPersonID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(personIDKey).(string)
	return v, ok
}

// GetSessionID returns the session_id from context and true if set.
func GetSessionID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(sessionIDKey).(string)
	return v, ok
}
