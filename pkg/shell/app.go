package shell

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/atomic"
	"golang.org/x/text/language"

	"github.com/vango-dev/scaffold/pkg/assets"
	"github.com/vango-dev/scaffold/pkg/middleware"
	"github.com/vango-dev/scaffold/pkg/router"
)

// DefaultSelector is the mount point of the host document.
const DefaultSelector = "#app"

// NavigateHeader marks client-side navigation requests.
const NavigateHeader = "X-Scaffold-Navigate"

// StaticRoute labels requests served from the static file system.
const StaticRoute = "static"

var (
	// ErrAlreadyMounted is returned by Mount after the first call.
	ErrAlreadyMounted = errors.New("shell: app already mounted")

	// ErrNoRouter is returned by New when Config.Router is nil.
	ErrNoRouter = errors.New("shell: router is required")

	// ErrInvalidSelector is returned for mount selectors other than "#id".
	ErrInvalidSelector = errors.New("shell: mount selector must be an id selector")

	// ErrMountPointMissing is returned when the document has no element
	// matching the selector.
	ErrMountPointMissing = errors.New("shell: mount point not found in document")
)

// Config configures an App.
type Config struct {
	// Router resolves request paths. Required.
	Router *router.Router

	// Selector is the mount point, "#app" by default.
	Selector string

	// Document is the host document. Defaults to the embedded template.
	Document *Document

	// Assets resolves bundle names. Defaults to unfingerprinted names at "/".
	Assets assets.Resolver

	// StaticFS is served before any route is consulted.
	StaticFS fs.FS

	// StaticPrefix is the URL prefix of StaticFS, "/" by default.
	StaticPrefix string

	// Inject places script tags in the head or at the end of the body.
	Inject string

	// Favicon is the favicon source name, resolved through Assets.
	Favicon string

	// Logger receives render failures. Defaults to slog.Default().
	Logger *slog.Logger

	// DevMode disables static caching and enables the reload client.
	DevMode bool

	// ReloadPath is the dev reload socket path. Ignored unless DevMode.
	ReloadPath string

	// Overlay shows build errors in the browser. Ignored unless DevMode.
	Overlay bool

	// Languages are the languages pages can be rendered in, the first
	// being the default. Defaults to English.
	Languages []language.Tag
}

// App is the root application instance.
type App struct {
	router       *router.Router
	mountID      string
	doc          *Document
	assets       assets.Resolver
	staticFS     fs.FS
	staticPrefix string
	inject       string
	favicon      string
	logger       *slog.Logger
	devMode      bool
	reloadPath   string
	overlay      bool
	languages    []language.Tag
	matcher      language.Matcher
	mounted      atomic.Bool
}

// Fragment is the response to a client-side navigation request.
type Fragment struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Title  string `json:"title"`
	HTML   string `json:"html"`
	Status int    `json:"status"`
}

// New creates an App. The host document must contain the mount point.
func New(cfg Config) (*App, error) {
	if cfg.Router == nil {
		return nil, ErrNoRouter
	}

	selector := cfg.Selector
	if selector == "" {
		selector = DefaultSelector
	}
	id, ok := strings.CutPrefix(selector, "#")
	if !ok || id == "" || strings.ContainsAny(id, " .#[]>:+~\"'") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSelector, selector)
	}

	a := &App{
		router:       cfg.Router,
		mountID:      id,
		doc:          cfg.Document,
		assets:       cfg.Assets,
		staticFS:     cfg.StaticFS,
		staticPrefix: cfg.StaticPrefix,
		inject:       cfg.Inject,
		favicon:      cfg.Favicon,
		logger:       cfg.Logger,
		devMode:      cfg.DevMode,
		overlay:      cfg.Overlay,
		languages:    cfg.Languages,
	}
	if cfg.DevMode {
		a.reloadPath = cfg.ReloadPath
	}
	if a.doc == nil {
		a.doc = DefaultDocument()
	}
	if a.assets == nil {
		a.assets = assets.NewPassthroughResolver("/")
	}
	if a.staticPrefix == "" {
		a.staticPrefix = "/"
	}
	if !strings.HasSuffix(a.staticPrefix, "/") {
		a.staticPrefix += "/"
	}
	if a.inject == "" {
		a.inject = InjectBody
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	if len(a.languages) == 0 {
		a.languages = []language.Tag{language.English}
	}
	a.matcher = language.NewMatcher(a.languages)

	if !a.doc.HasMountPoint(a.mountID) {
		return nil, fmt.Errorf("%w: %s", ErrMountPointMissing, selector)
	}
	return a, nil
}

// Selector returns the mount point selector.
func (a *App) Selector() string {
	return "#" + a.mountID
}

// Mounted reports whether Mount has been called.
func (a *App) Mounted() bool {
	return a.mounted.Load()
}

// Mount attaches the router to the mount point and returns the handler that
// serves the application. It succeeds once; later calls return
// ErrAlreadyMounted.
func (a *App) Mount() (http.Handler, error) {
	if !a.mounted.CompareAndSwap(false, true) {
		return nil, ErrAlreadyMounted
	}
	a.logger.Debug("app mounted",
		"selector", a.Selector(),
		"routes", len(a.router.Routes()),
		"dev", a.devMode)
	return http.HandlerFunc(a.serveHTTP), nil
}

func (a *App) serveHTTP(w http.ResponseWriter, r *http.Request) {
	if a.serveStatic(w, r) {
		middleware.SetRouteName(r.Context(), StaticRoute)
		return
	}

	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	target := r.URL.EscapedPath()
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	match, err := a.router.Resolve(target)
	if err != nil {
		if errors.Is(err, router.ErrNoMatch) {
			http.NotFound(w, r)
			return
		}
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	middleware.SetRouteName(r.Context(), match.Route.Name)

	if match.Redirect {
		http.Redirect(w, r, match.URL(), http.StatusPermanentRedirect)
		return
	}

	status := http.StatusOK
	if !match.Found {
		status = http.StatusNotFound
	}

	lang := a.negotiate(r)
	req := a.newRequest(r.Context(), match, lang)

	var body bytes.Buffer
	if err := match.Route.Component.Render(&body, req); err != nil {
		a.renderFailed(w, r, match, err)
		return
	}
	title := match.Route.Component.Title(req)

	if r.Header.Get(NavigateHeader) == "1" {
		a.writeFragment(w, status, Fragment{
			Name:   match.Route.Name,
			Path:   match.Path,
			Title:  title,
			HTML:   body.String(),
			Status: status,
		})
		return
	}

	var page bytes.Buffer
	if err := a.doc.Execute(&page, a.documentData(match.Route.Name, title, lang, body.String())); err != nil {
		a.renderFailed(w, r, match, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", "text/html; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	h.Set("Vary", "Accept-Language, "+NavigateHeader)
	w.WriteHeader(status)
	_, _ = w.Write(page.Bytes())
}

func (a *App) writeFragment(w http.ResponseWriter, status int, f Fragment) {
	data, err := json.Marshal(f)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h := w.Header()
	h.Set("Content-Type", "application/json; charset=utf-8")
	h.Set("Cache-Control", "no-cache")
	h.Set("Vary", "Accept-Language, "+NavigateHeader)
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func (a *App) renderFailed(w http.ResponseWriter, r *http.Request, match *router.Match, err error) {
	a.logger.ErrorContext(r.Context(), "render failed",
		"route", match.Route.Name,
		"path", match.Path,
		"error", err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (a *App) newRequest(ctx context.Context, match *router.Match, lang language.Tag) *router.Request {
	query, _ := url.ParseQuery(match.Query)
	return &router.Request{
		Context:   ctx,
		Route:     match.Route,
		Path:      match.Path,
		Query:     query,
		Languages: []string{lang.String()},
		Router:    a.router,
	}
}

func (a *App) documentData(route, title string, lang language.Tag, body string) *DocumentData {
	data := &DocumentData{
		Title:     title,
		Lang:      lang.String(),
		MountID:   a.mountID,
		Route:     route,
		Body:      template.HTML(body),
		Inject:    a.inject,
		ReloadURL: a.reloadPath,
		Overlay:   a.devMode && a.overlay,
	}
	if a.assets.Has(assets.EntryStyle) {
		data.Styles = append(data.Styles, a.assets.Asset(assets.EntryStyle))
	}
	if a.assets.Has(assets.EntryScript) {
		data.Scripts = append(data.Scripts, a.assets.Asset(assets.EntryScript))
	}
	if a.favicon != "" && a.assets.Has(a.favicon) {
		data.Favicon = a.assets.Asset(a.favicon)
	}
	return data
}

// negotiate picks the page language. A "lang" query parameter wins over
// Accept-Language.
func (a *App) negotiate(r *http.Request) language.Tag {
	var prefs []language.Tag
	if q := r.URL.Query().Get("lang"); q != "" {
		if tag, err := language.Parse(q); err == nil {
			prefs = append(prefs, tag)
		}
	}
	if accept, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language")); err == nil {
		prefs = append(prefs, accept...)
	}
	_, index, _ := a.matcher.Match(prefs...)
	return a.languages[index]
}
