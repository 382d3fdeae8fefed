package upstream

import "context"

type bearerKey struct{}

// WithBearerToken stores the caller's token so outgoing requests can forward it.
func WithBearerToken(ctx context.Context, token string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, bearerKey{}, token)
}

// BearerTokenFromContext returns the forwarded token, if any.
func BearerTokenFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(bearerKey{}).(string); ok {
		return v
	}
	return ""
}
