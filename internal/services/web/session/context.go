package session

import "context"

// sessionContextKey is the context key for the materialized session.
type sessionContextKey struct{}

// accessTokenContextKey is the context key for the bearer access token.
type accessTokenContextKey struct{}

// NewContext stores a materialized session in context.
func NewContext(ctx context.Context, sess *Session) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// FromContext returns the materialized session stored in context, if any.
func FromContext(ctx context.Context) (*Session, bool) {
	if ctx == nil {
		return nil, false
	}
	sess, ok := ctx.Value(sessionContextKey{}).(*Session)
	if !ok || sess == nil {
		return nil, false
	}
	return sess, true
}

// WithAccessToken stores the request's bearer access token in context.
func WithAccessToken(ctx context.Context, token string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, accessTokenContextKey{}, token)
}

// AccessTokenFromContext returns the bearer access token stored in context.
func AccessTokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	token, _ := ctx.Value(accessTokenContextKey{}).(string)
	return token
}
