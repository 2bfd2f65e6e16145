package interceptors

import "context"

type contextKey struct{ name string }

var (
	userIDKey   = contextKey{"user_id"}
	tokenIDKey  = contextKey{"token_id"}
	clientIPKey = contextKey{"client_ip"}
)

// WithIdentity returns a context carrying the user_id and access token jti of a
// validated Bearer token. Handlers and the auth service read them via GetUserID and GetTokenID.
func WithIdentity(ctx context.Context, userID, tokenID string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	ctx = context.WithValue(ctx, tokenIDKey, tokenID)
	return ctx
}

// GetUserID returns the user_id from context and true if set; otherwise "", false.
func GetUserID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(userIDKey).(string)
	return v, ok
}

// GetTokenID returns the access token jti from context and true if set; otherwise "", false.
func GetTokenID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(tokenIDKey).(string)
	return v, ok
}

// WithClientIP returns a context carrying the caller's address for activity events.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey, ip)
}

// GetClientIP returns the client IP stored by WithClientIP, or "" if none.
func GetClientIP(ctx context.Context) string {
	v, _ := ctx.Value(clientIPKey).(string)
	return v
}
