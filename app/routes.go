// Package app is the site: its route table, pages and message catalogs,
// assembled into a mountable application shell.
package app

import (
	"github.com/vango-dev/scaffold/app/pages"
	"github.com/vango-dev/scaffold/pkg/router"
)

// Route names.
const (
	RouteHome  = "home"
	RouteTrade = "trade"
	RouteUser  = "user"
)

// Routes returns the route table. Order is significant only for display;
// paths are literal and never overlap.
func Routes(p *pages.Set) []router.Route {
	return []router.Route{
		{Path: "/", Name: RouteHome, Component: p.Home},
		{Path: "/trade", Name: RouteTrade, Component: p.Trade},
		{Path: "/user", Name: RouteUser, Component: p.User},
	}
}
