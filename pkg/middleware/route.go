package middleware

import (
	"context"
	"net/http"
	"sync"
)

// UnmatchedRoute labels requests that were not attributed to a route.
const UnmatchedRoute = "unmatched"

type routeKey struct{}

type routeHolder struct {
	mu   sync.Mutex
	name string
}

// WithRouteHolder returns a context that can record the route name of a
// request. It is a no-op when ctx already carries a holder.
func WithRouteHolder(ctx context.Context) context.Context {
	if _, ok := ctx.Value(routeKey{}).(*routeHolder); ok {
		return ctx
	}
	return context.WithValue(ctx, routeKey{}, &routeHolder{})
}

// SetRouteName records the route that handled the request. It does nothing
// when no middleware installed a holder.
func SetRouteName(ctx context.Context, name string) {
	if h, ok := ctx.Value(routeKey{}).(*routeHolder); ok {
		h.mu.Lock()
		h.name = name
		h.mu.Unlock()
	}
}

// RouteName returns the recorded route name, or UnmatchedRoute.
func RouteName(ctx context.Context) string {
	if h, ok := ctx.Value(routeKey{}).(*routeHolder); ok {
		h.mu.Lock()
		defer h.mu.Unlock()
		if h.name != "" {
			return h.name
		}
	}
	return UnmatchedRoute
}

// withRoute makes sure r carries a route holder.
func withRoute(r *http.Request) *http.Request {
	ctx := WithRouteHolder(r.Context())
	if ctx == r.Context() {
		return r
	}
	return r.WithContext(ctx)
}
