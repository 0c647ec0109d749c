// Package pages holds the page components of the site.
package pages

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/url"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"

	"github.com/vango-dev/scaffold/pkg/router"
)

//go:embed templates/*.html
var templates embed.FS

// Page is a component rendered from an embedded template with localized
// copy.
type Page struct {
	name    string
	titleID string
	tmpl    *template.Template
	bundle  *i18n.Bundle
}

// Set is the collection of site pages.
type Set struct {
	Home     *Page
	Trade    *Page
	User     *Page
	NotFound *Page
}

// New parses the page templates.
func New(bundle *i18n.Bundle) (*Set, error) {
	tmpl, err := template.ParseFS(templates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("pages: %w", err)
	}

	page := func(name, titleID string) (*Page, error) {
		if tmpl.Lookup(name) == nil {
			return nil, fmt.Errorf("pages: no template %q", name)
		}
		return &Page{name: name, titleID: titleID, tmpl: tmpl, bundle: bundle}, nil
	}

	s := &Set{}
	for _, p := range []struct {
		dst     **Page
		name    string
		titleID string
	}{
		{&s.Home, "home", "HomeTitle"},
		{&s.Trade, "trade", "TradeTitle"},
		{&s.User, "user", "UserTitle"},
		{&s.NotFound, router.NotFoundName, "NotFoundTitle"},
	} {
		if *p.dst, err = page(p.name, p.titleID); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// ErrNoPage is returned when rendering a nil *Page. Only New creates usable
// pages; a zero Set holds nil ones.
var ErrNoPage = errors.New("pages: page not created by New")

// Title returns the localized page title.
func (p *Page) Title(req *router.Request) string {
	if p == nil {
		return ""
	}
	return newView(p.bundle, req).T(p.titleID)
}

// Render writes the page markup.
func (p *Page) Render(w io.Writer, req *router.Request) error {
	if p == nil {
		return ErrNoPage
	}
	return p.tmpl.ExecuteTemplate(w, p.name, newView(p.bundle, req))
}

// NavLink is one entry of the navigation bar.
type NavLink struct {
	Href    string
	Label   string
	Current bool
}

// view is the data a page template is executed with.
type view struct {
	loc  *i18n.Localizer
	Path string
	Home string
	Nav  []NavLink
}

func newView(bundle *i18n.Bundle, req *router.Request) *view {
	v := &view{
		loc:  i18n.NewLocalizer(bundle, req.Languages...),
		Path: req.Path,
		Home: "/",
	}
	if req.Router == nil {
		return v
	}

	// An explicit language choice follows the visitor across navigation.
	var query url.Values
	if req.Query.Get("lang") != "" && len(req.Languages) > 0 {
		query = url.Values{"lang": {req.Languages[0]}}
	}
	if href, err := req.Router.URL("home", query); err == nil {
		v.Home = href
	}
	for _, route := range req.Router.Routes() {
		href, err := req.Router.URL(route.Name, query)
		if err != nil {
			href = route.Path
		}
		v.Nav = append(v.Nav, NavLink{
			Href:    href,
			Label:   v.T(navMessageID(route.Name)),
			Current: route.Name == req.Route.Name,
		})
	}
	return v
}

// T returns the localized message id. Missing messages render as the id.
func (v *view) T(id string) string {
	msg, err := v.loc.Localize(&i18n.LocalizeConfig{
		MessageID:    id,
		TemplateData: map[string]string{"Path": v.Path},
	})
	if err != nil {
		return id
	}
	return msg
}

// navMessageID maps a route name such as "trade" to "NavTrade".
func navMessageID(name string) string {
	if name == "" {
		return "Nav"
	}
	return "Nav" + strings.ToUpper(name[:1]) + name[1:]
}
