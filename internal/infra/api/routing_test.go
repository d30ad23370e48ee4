package api

import (
	"context"
	"errors"
	"testing"
)

func TestRouteDispatchesExactlyOneHandler(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{401, "unauthorized"},
		{403, "forbidden"},
		{400, "validation"},
		{422, "validation"},
		{500, "server"},
		{0, "network"},
		{404, "unhandled"},
	}

	for _, tt := range tests {
		var calls []string
		record := func(name string) Handler {
			return func(ctx context.Context, e *Error) {
				calls = append(calls, name)
			}
		}

		r := NewRouter(nil)
		r.Register(Handlers{
			OnUnauthorized: record("unauthorized"),
			OnForbidden:    record("forbidden"),
			OnValidation:   record("validation"),
			OnServer:       record("server"),
			OnNetwork:      record("network"),
			OnUnhandled:    record("unhandled"),
		})

		r.Route(context.Background(), &Error{StatusCode: tt.status, Message: "x"})
		if len(calls) != 1 || calls[0] != tt.want {
			t.Errorf("status %d: calls = %v, want [%s]", tt.status, calls, tt.want)
		}
	}
}

func TestRegisterReplacesHandlers(t *testing.T) {
	r := NewRouter(nil)

	var first, second int
	r.Register(Handlers{OnServer: func(ctx context.Context, e *Error) { first++ }})
	r.Register(Handlers{OnServer: func(ctx context.Context, e *Error) { second++ }})

	r.Route(context.Background(), &Error{StatusCode: 500})
	if first != 0 {
		t.Errorf("replaced handler was invoked %d times", first)
	}
	if second != 1 {
		t.Errorf("active handler invoked %d times, want 1", second)
	}
}

func TestRouteWithoutHandlersIsSafe(t *testing.T) {
	r := NewRouter(nil)
	// Default (inert) handlers: must not panic for any kind.
	for _, status := range []int{0, 400, 401, 403, 404, 422, 500} {
		r.Route(context.Background(), &Error{StatusCode: status, Message: "x"})
	}
	r.Route(context.Background(), nil)
}

func TestReentrancyGuard(t *testing.T) {
	r := NewRouter(nil)

	var outer, nested int
	r.Register(Handlers{
		OnServer: func(ctx context.Context, e *Error) {
			outer++
			// Simulate a handler whose own network call fails: the
			// nested failure must degrade, not re-dispatch.
			inner := r.ClassifyAndRoute(ctx, 500, nil, nil)
			if inner == nil {
				t.Fatal("nested ClassifyAndRoute returned nil")
			}
			if inner.StatusCode != 0 {
				t.Errorf("nested error StatusCode = %d, want degraded 0", inner.StatusCode)
			}
			if d, _ := inner.Details["degraded"].(bool); !d {
				t.Error("nested error is not marked degraded")
			}
		},
		OnUnauthorized: func(ctx context.Context, e *Error) { nested++ },
	})

	e := r.ClassifyAndRoute(context.Background(), 500, []byte(`{"detail":"boom"}`), nil)
	if e.StatusCode != 500 {
		t.Errorf("outer StatusCode = %d, want 500", e.StatusCode)
	}
	if outer != 1 {
		t.Errorf("outer handler invoked %d times, want 1", outer)
	}
	if nested != 0 {
		t.Errorf("nested handler invoked %d times, want 0", nested)
	}
}

func TestClassifyAndRouteReturnsClassifiedError(t *testing.T) {
	r := NewRouter(nil)
	e := r.ClassifyAndRoute(context.Background(), 422, []byte(`{"detail": "Invalid severity value"}`), nil)
	if e.StatusCode != 422 {
		t.Errorf("StatusCode = %d, want 422", e.StatusCode)
	}
	if e.Message != "Invalid severity value" {
		t.Errorf("Message = %q", e.Message)
	}

	var err error = e
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Error("classified error does not satisfy errors.As(*Error)")
	}
}
