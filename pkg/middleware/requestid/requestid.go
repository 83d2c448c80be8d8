package requestid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const headerKey = "X-Request-ID"

type contextKey struct{}

// Transport stamps each outbound request with an X-Request-ID header. An id
// already present on the request context or header is kept.
func Transport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		if req.Header.Get(headerKey) != "" {
			return next.RoundTrip(req)
		}
		reqID := Value(req.Context())
		if reqID == "" {
			reqID = generateID()
		}
		clone := req.Clone(req.Context())
		clone.Header.Set(headerKey, reqID)
		return next.RoundTrip(clone)
	})
}

// WithValue returns a context carrying the given request id.
func WithValue(ctx context.Context, reqID string) context.Context {
	return context.WithValue(ctx, contextKey{}, reqID)
}

// Value returns the request id stored in ctx.
func Value(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(contextKey{}).(string); ok {
		return id
	}
	return ""
}

// FromRequest returns the request id header, falling back to the context.
func FromRequest(req *http.Request) string {
	if req == nil {
		return ""
	}
	if id := req.Header.Get(headerKey); id != "" {
		return id
	}
	return Value(req.Context())
}

// New returns a fresh request id.
func New() string {
	return generateID()
}

func generateID() string {
	return uuid.NewString()
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
