package logger

import "context"

type ctxKey int

const (
	loggerKey ctxKey = iota
	requestIDKey
	sessionIDKey
	profileIDKey
)

const (
	attrRequestID = "request_id"
	attrSessionID = "session_id"
	attrProfileID = "profile_id"
)

// Context ids in the order they are written.
var contextFields = [...]struct {
	key  ctxKey
	attr string
}{
	{requestIDKey, attrRequestID},
	{sessionIDKey, attrSessionID},
	{profileIDKey, attrProfileID},
}

// WithLogger stores l in ctx.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// WithRequestID stores the request id in ctx.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// WithSessionID stores the edit session id in ctx.
func WithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

// WithProfileID stores the profile id in ctx.
func WithProfileID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, profileIDKey, id)
}

// RequestIDFromContext returns the request id, or "".
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// Fields returns the ids stored in ctx as key/value pairs for With.
func Fields(ctx context.Context) []any {
	var args []any
	for _, f := range contextFields {
		if id, _ := ctx.Value(f.key).(string); id != "" {
			args = append(args, f.attr, id)
		}
	}
	return args
}

// FromContext returns the logger stored in ctx, or Default, tagged with
// the ids stored in ctx.
func FromContext(ctx context.Context) Logger {
	l, ok := ctx.Value(loggerKey).(Logger)
	if !ok {
		l = Default()
	}
	if args := Fields(ctx); len(args) > 0 {
		l = l.With(args...)
	}
	return l
}
