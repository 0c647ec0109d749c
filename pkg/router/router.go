package router

import (
	"errors"
	"net/url"

	"github.com/vango-dev/scaffold/pkg/routepath"
)

var (
	// ErrNoMatch is returned by Resolve when no route matches and no
	// not-found route is configured.
	ErrNoMatch = errors.New("router: no route matches path")

	// ErrUnknownRoute is returned by URL for an unregistered name.
	ErrUnknownRoute = errors.New("router: unknown route name")
)

// NotFoundName is the name given to the not-found route.
const NotFoundName = "not-found"

// Router resolves paths against a frozen route table.
type Router struct {
	routes   []Route
	byName   map[string]int
	root     *node
	notFound *Route
}

// Option configures a Router.
type Option func(*Router)

// WithNotFound registers the component rendered when no route matches.
func WithNotFound(c Component) Option {
	return func(r *Router) {
		if c == nil {
			r.notFound = nil
			return
		}
		r.notFound = &Route{Path: "", Name: NotFoundName, Component: c}
	}
}

// New validates routes and builds a Router. The slice is copied; later
// changes to it do not affect the router.
func New(routes []Route, opts ...Option) (*Router, error) {
	if err := validate(routes); err != nil {
		return nil, err
	}

	r := &Router{
		routes: append([]Route(nil), routes...),
		byName: make(map[string]int, len(routes)),
		root:   newNode(""),
	}
	for i, route := range r.routes {
		r.root.insert(route.Path).route = i
		r.byName[route.Name] = i
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.notFound != nil {
		if _, clash := r.byName[NotFoundName]; clash {
			return nil, &ValidationErrors{Errors: []ValidationError{{
				Type:    ErrorDuplicateName,
				Index:   r.byName[NotFoundName],
				Name:    NotFoundName,
				Message: "name is reserved for the not-found route",
			}}}
		}
	}
	return r, nil
}

// Resolve canonicalizes path and returns the matching route.
// Errors from canonicalization are returned as-is; see package routepath.
func (r *Router) Resolve(path string) (*Match, error) {
	canon, err := routepath.Canonicalize(path)
	if err != nil {
		return nil, err
	}

	m := &Match{
		Path:     canon.Path,
		Query:    canon.Query,
		Redirect: canon.Changed,
	}

	if i := r.root.lookup(canon.Path); i >= 0 {
		m.Route = r.routes[i]
		m.Found = true
		return m, nil
	}

	if r.notFound == nil {
		return nil, ErrNoMatch
	}
	m.Route = *r.notFound
	// Not-found responses are rendered in place, never redirected.
	m.Redirect = false
	return m, nil
}

// Lookup returns the route registered under name.
func (r *Router) Lookup(name string) (Route, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Route{}, false
	}
	return r.routes[i], true
}

// URL builds the href of the named route with an optional query.
func (r *Router) URL(name string, query url.Values) (string, error) {
	route, ok := r.Lookup(name)
	if !ok {
		return "", ErrUnknownRoute
	}
	if len(query) == 0 {
		return route.Path, nil
	}
	return route.Path + "?" + query.Encode(), nil
}

// Routes returns the table in registration order.
func (r *Router) Routes() []Route {
	return append([]Route(nil), r.routes...)
}

// NotFound returns the not-found route, if configured.
func (r *Router) NotFound() (Route, bool) {
	if r.notFound == nil {
		return Route{}, false
	}
	return *r.notFound, true
}
