package db

import "context"

type contextKey string

const userKey contextKey = "user"

// WithUser tags the context with the subject queries run on behalf of. The
// tag is advisory: it feeds error-log correlation and auditing, while the
// actual identity filter lives in each query's bind parameters.
func WithUser(ctx context.Context, subject string) context.Context {
	return context.WithValue(ctx, userKey, subject)
}

// UserFromContext returns the identity tag set by WithUser, or "".
func UserFromContext(ctx context.Context) string {
	user, _ := ctx.Value(userKey).(string)
	return user
}
