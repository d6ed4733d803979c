// Package actor provides request-scoped identity and trace extraction.
// The core accepts an actor identity as input; authentication is handled
// upstream and is out of scope here.
package actor

import (
	"context"
)

// Actor identifies who is performing an operation.
type Actor struct {
	Name string
}

type actorKey struct{}

// WithActor adds the acting identity to context.
func WithActor(ctx context.Context, a *Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// Get returns the Actor from context, or nil.
func Get(ctx context.Context) *Actor {
	if v, ok := ctx.Value(actorKey{}).(*Actor); ok {
		return v
	}
	return nil
}

// Name returns the actor name from context or "system" when absent.
// Write operations always record an actor; background jobs run as "system".
func Name(ctx context.Context) string {
	if a := Get(ctx); a != nil && a.Name != "" {
		return a.Name
	}
	return "system"
}

// TraceContext carries request correlation identifiers.
type TraceContext struct {
	TraceID   string
	RequestID string
}

type traceKey struct{}

// WithTrace adds trace identifiers to context.
func WithTrace(ctx context.Context, t *TraceContext) context.Context {
	return context.WithValue(ctx, traceKey{}, t)
}

// GetTrace returns trace identifiers from context, or nil.
func GetTrace(ctx context.Context) *TraceContext {
	if v, ok := ctx.Value(traceKey{}).(*TraceContext); ok {
		return v
	}
	return nil
}
