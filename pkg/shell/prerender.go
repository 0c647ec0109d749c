package shell

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"path"
	"strings"

	"github.com/vango-dev/scaffold/pkg/router"
)

// NotFoundFile is the document static hosts serve for unknown paths.
const NotFoundFile = "404.html"

// Page is a prerendered document.
type Page struct {
	// Route is the rendered route.
	Route router.Route

	// File is the output path relative to the output directory.
	File string

	// Status is the status the page is served with.
	Status int

	// HTML is the complete document.
	HTML []byte
}

// Prerender renders every route, and the not-found route when configured,
// in the default language. "/trade" is written as "trade/index.html".
func (a *App) Prerender(ctx context.Context) ([]Page, error) {
	routes := a.router.Routes()
	pages := make([]Page, 0, len(routes)+1)

	for _, route := range routes {
		page, err := a.prerender(ctx, route, route.Path, http.StatusOK)
		if err != nil {
			return nil, err
		}
		page.File = pageFile(route.Path)
		pages = append(pages, page)
	}

	if nf, ok := a.router.NotFound(); ok {
		page, err := a.prerender(ctx, nf, "/404", http.StatusNotFound)
		if err != nil {
			return nil, err
		}
		page.File = NotFoundFile
		pages = append(pages, page)
	}
	return pages, nil
}

func (a *App) prerender(ctx context.Context, route router.Route, urlPath string, status int) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}

	lang := a.languages[0]
	req := a.newRequest(ctx, &router.Match{Route: route, Path: urlPath}, lang)

	var body bytes.Buffer
	if err := route.Component.Render(&body, req); err != nil {
		return Page{}, fmt.Errorf("shell: render %s: %w", route.Name, err)
	}

	var doc bytes.Buffer
	data := a.documentData(route.Name, route.Component.Title(req), lang, body.String())
	if err := a.doc.Execute(&doc, data); err != nil {
		return Page{}, fmt.Errorf("shell: render %s: %w", route.Name, err)
	}

	return Page{Route: route, Status: status, HTML: doc.Bytes()}, nil
}

// pageFile maps a route path to the file a static host serves it from.
func pageFile(routePath string) string {
	rel := strings.Trim(routePath, "/")
	if rel == "" {
		return "index.html"
	}
	return path.Join(rel, "index.html")
}
