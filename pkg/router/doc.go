// Package router resolves request paths against a static route table.
//
// A table is an ordered list of Route records, each associating a literal URL
// path, a symbolic name and the page component that renders it:
//
//	r, err := router.New([]router.Route{
//	    {Path: "/", Name: "home", Component: pages.Home},
//	    {Path: "/trade", Name: "trade", Component: pages.Trade},
//	    {Path: "/user", Name: "user", Component: pages.User},
//	}, router.WithNotFound(pages.NotFound))
//
//	m, err := r.Resolve("/trade/")
//	// m.Route.Name == "trade", m.Path == "/trade", m.Redirect == true
//
// The table is validated and frozen by New: paths and names must be unique,
// paths must be canonical literals (parameter and wildcard segments are not
// supported) and every route needs a component. A Router is immutable and
// safe for concurrent use.
//
// # Not found
//
// When no route matches, Resolve returns the route registered with
// WithNotFound and Match.Found set to false. Without a not-found route it
// returns ErrNoMatch.
//
// # Navigation by name
//
//	href, _ := r.URL("user", url.Values{"tab": {"orders"}})
//	// "/user?tab=orders"
package router
