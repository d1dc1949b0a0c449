package logger

import (
	"context"
	"reflect"
	"testing"
)

func TestContext(t *testing.T) {
	ctx := context.Background()
	if FromContext(ctx) != Default() {
		t.Error("FromContext() without logger should return Default()")
	}
	if RequestIDFromContext(ctx) != "" || Fields(ctx) != nil {
		t.Error("empty context should carry no ids")
	}

	l, buf := newBuffered(t, "info", "json")
	ctx = WithLogger(ctx, l)
	ctx = WithRequestID(ctx, "01HQREQ")
	if RequestIDFromContext(ctx) != "01HQREQ" {
		t.Errorf("RequestIDFromContext() = %q", RequestIDFromContext(ctx))
	}

	FromContext(ctx).Info("handled")
	if entry := decode(t, buf); entry["request_id"] != "01HQREQ" {
		t.Errorf("entry = %v", entry)
	}
}

func TestFields(t *testing.T) {
	base := WithRequestID(context.Background(), "r1")

	tests := []struct {
		name string
		ctx  context.Context
		want []any
	}{
		{"request only", base, []any{"request_id", "r1"}},
		{"session", WithSessionID(base, "lwes-1"), []any{"request_id", "r1", "session_id", "lwes-1"}},
		{"profile", WithProfileID(base, "p1"), []any{"request_id", "r1", "profile_id", "p1"}},
		{"empty id skipped", WithProfileID(context.Background(), ""), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fields(tt.ctx); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Fields() = %v, want %v", got, tt.want)
			}
		})
	}

	l, buf := newBuffered(t, "info", "json")
	ctx := WithSessionID(WithLogger(base, l), "lwes-1")
	FromContext(ctx).Info("edited")
	entry := decode(t, buf)
	if entry["session_id"] != "lwes-1" || entry["request_id"] != "r1" {
		t.Errorf("entry = %v", entry)
	}
}
