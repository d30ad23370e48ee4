package api

import (
	"context"
	"log/slog"
	"sync"

	"github.com/vietddude/sitewatch/internal/metrics"
)

// Handler reacts to one classified error outcome. Handlers receive a context
// already marked as "inside error handling": any request made with it that
// fails will not be routed again (see Router.Route).
type Handler func(ctx context.Context, e *Error)

// Handlers holds one handler slot per outcome kind. Registering a new set
// fully replaces the previous one; nil slots fall back to an inert
// log-only default.
type Handlers struct {
	OnUnauthorized Handler
	OnForbidden    Handler
	OnValidation   Handler
	OnServer       Handler
	OnNetwork      Handler
	OnUnhandled    Handler
}

// Router dispatches a classified error to exactly one handler. It performs
// no I/O of its own beyond logging.
type Router struct {
	mu       sync.RWMutex
	handlers Handlers
	log      *slog.Logger
}

// NewRouter creates a router populated with inert default handlers, so the
// pipeline is safe to invoke before the real session-owner handlers are
// registered.
func NewRouter(log *slog.Logger) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{log: log}
}

// Register replaces the active handler set.
func (r *Router) Register(h Handlers) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = h
}

func (r *Router) handler(k Kind) Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	switch k {
	case KindUnauthorized:
		return r.handlers.OnUnauthorized
	case KindForbidden:
		return r.handlers.OnForbidden
	case KindValidation:
		return r.handlers.OnValidation
	case KindServer:
		return r.handlers.OnServer
	case KindNetwork:
		return r.handlers.OnNetwork
	default:
		return r.handlers.OnUnhandled
	}
}

type routingCtxKey struct{}

func markRouting(ctx context.Context) context.Context {
	return context.WithValue(ctx, routingCtxKey{}, true)
}

func routingInProgress(ctx context.Context) bool {
	v, _ := ctx.Value(routingCtxKey{}).(bool)
	return v
}

// Route invokes the handler registered for e's kind. A failure that occurs
// while a handler is already running (a handler's own request failing) is
// not routed again: nested handling terminates within one extra level.
func (r *Router) Route(ctx context.Context, e *Error) {
	if e == nil {
		return
	}
	if routingInProgress(ctx) {
		r.log.Warn("nested error during handling, not routed",
			"kind", e.Kind().String(), "status", e.StatusCode)
		return
	}

	kind := e.Kind()
	metrics.OutcomesTotal.WithLabelValues(kind.String()).Inc()

	h := r.handler(kind)
	if h == nil {
		// Inert default: observability only, no user-facing action.
		r.log.Warn("unhandled API error outcome",
			"kind", kind.String(), "status", e.StatusCode, "message", e.Message)
		return
	}
	h(markRouting(ctx), e)
}

// ClassifyAndRoute is the composed entry point used by the transport
// adapter. When invoked while an error is already being handled it skips
// classification side effects and returns a degraded default error instead
// of recursing.
func (r *Router) ClassifyAndRoute(ctx context.Context, status int, body []byte, err error) *Error {
	if routingInProgress(ctx) {
		return Degraded("request failed during error handling")
	}
	e := Classify(status, body, err)
	r.Route(ctx, e)
	return e
}
