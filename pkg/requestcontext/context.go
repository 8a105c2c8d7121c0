// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values.
//
// Values are set by middleware and consumed by services; keeping this
// package free of net/http lets services import only what they need.
//
// Usage in services (read values):
//
//	authID := requestcontext.AuthID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"
)

// Context key types (unexported for encapsulation).
type (
	authIDKey      struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
	clientIPKey    struct{}
	deviceKey      struct{}
)

// AuthID retrieves the authenticated caller's identity (JWT subject) from
// the context. Empty when the request is unauthenticated.
func AuthID(ctx context.Context) string {
	if v, ok := ctx.Value(authIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithAuthID injects the authenticated caller's identity into the context.
func WithAuthID(ctx context.Context, authID string) context.Context {
	return context.WithValue(ctx, authIDKey{}, authID)
}

// RequestID retrieves the correlation ID from the context.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(requestIDKey{}).(string); ok {
		return v
	}
	return ""
}

// WithRequestID injects a correlation ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// ClientIP retrieves the client IP from the context.
func ClientIP(ctx context.Context) string {
	if v, ok := ctx.Value(clientIPKey{}).(string); ok {
		return v
	}
	return ""
}

// WithClientIP injects the client IP into the context.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPKey{}, ip)
}

// Device retrieves the coarse device descriptor derived from the
// User-Agent. Used only for audit enrichment, never for identity decisions.
func Device(ctx context.Context) string {
	if v, ok := ctx.Value(deviceKey{}).(string); ok {
		return v
	}
	return ""
}

// WithDevice injects a device descriptor into the context.
func WithDevice(ctx context.Context, device string) context.Context {
	return context.WithValue(ctx, deviceKey{}, device)
}

// Now retrieves the request-scoped time from the context, falling back to
// time.Now for non-HTTP contexts (workers, tests that don't pin time).
//
// Attestation generation reads time through here so age-boundary tests can
// pin "today" exactly.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
