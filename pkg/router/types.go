package router

import (
	"context"
	"io"
	"net/url"
)

// Component is a page-rendering unit. The shell writes its output into the
// mount point of the host document. New rejects a nil Component but cannot
// see a nil pointer wrapped in one; such implementations must handle a nil
// receiver.
type Component interface {
	// Title returns the document title for the page.
	Title(req *Request) string

	// Render writes the page markup.
	Render(w io.Writer, req *Request) error
}

// Route associates a literal URL path with a symbolic name and a component.
type Route struct {
	// Path is the literal URL path (e.g. "/trade").
	Path string

	// Name identifies the route for programmatic navigation (e.g. "trade").
	Name string

	// Component renders the page.
	Component Component
}

// Request is passed to a Component when it renders.
type Request struct {
	// Context is the context of the HTTP request being served.
	Context context.Context

	// Route is the resolved route.
	Route Route

	// Path is the canonical request path.
	Path string

	// Query holds the parsed query string.
	Query url.Values

	// Languages are the client's preferred languages, most preferred first,
	// in Accept-Language form.
	Languages []string

	// Router is the router that resolved the request.
	Router *Router
}

// Match is the result of resolving a path.
type Match struct {
	// Route is the matched route, or the not-found route when Found is false.
	Route Route

	// Path is the canonical form of the requested path.
	Path string

	// Query is the raw query string of the request.
	Query string

	// Found is false when the not-found route was substituted.
	Found bool

	// Redirect is true when the requested path was not canonical. Callers
	// serving documents should redirect to Path.
	Redirect bool
}

// URL returns the canonical path plus the query string.
func (m *Match) URL() string {
	if m.Query == "" {
		return m.Path
	}
	return m.Path + "?" + m.Query
}
