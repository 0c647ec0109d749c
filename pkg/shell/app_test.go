package shell

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"golang.org/x/text/language"

	"github.com/vango-dev/scaffold/pkg/assets"
	"github.com/vango-dev/scaffold/pkg/middleware"
	"github.com/vango-dev/scaffold/pkg/router"
)

// testPage renders its name and the negotiated language.
type testPage struct {
	name string
	err  error
}

func (p testPage) Title(req *router.Request) string {
	return strings.ToUpper(p.name[:1]) + p.name[1:]
}

func (p testPage) Render(w io.Writer, req *router.Request) error {
	if p.err != nil {
		return p.err
	}
	_, err := fmt.Fprintf(w, "<section>%s page (%s)</section>", p.name, strings.Join(req.Languages, ","))
	return err
}

func testRouter(t *testing.T) *router.Router {
	t.Helper()
	r, err := router.New([]router.Route{
		{Path: "/", Name: "home", Component: testPage{name: "home"}},
		{Path: "/trade", Name: "trade", Component: testPage{name: "trade"}},
		{Path: "/user", Name: "user", Component: testPage{name: "user"}},
	}, router.WithNotFound(testPage{name: "missing"}))
	if err != nil {
		t.Fatalf("router.New: %v", err)
	}
	return r
}

func mountApp(t *testing.T, cfg Config) http.Handler {
	t.Helper()
	if cfg.Router == nil {
		cfg.Router = testRouter(t)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	app, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h, err := app.Mount()
	if err != nil {
		t.Fatalf("Mount: %v", err)
	}
	return h
}

func get(h http.Handler, target string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(Config{}); !errors.Is(err, ErrNoRouter) {
		t.Errorf("New(no router) error = %v, want ErrNoRouter", err)
	}

	r := testRouter(t)
	for _, sel := range []string{"app", ".app", "#", "#app main", "body > #app"} {
		if _, err := New(Config{Router: r, Selector: sel}); !errors.Is(err, ErrInvalidSelector) {
			t.Errorf("Selector %q: error = %v, want ErrInvalidSelector", sel, err)
		}
	}

	doc, err := ParseDocument("root", `<body><div id="root">{{.Body}}</div></body>`)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New(Config{Router: r, Document: doc}); !errors.Is(err, ErrMountPointMissing) {
		t.Errorf("document without #app: error = %v, want ErrMountPointMissing", err)
	}
	if _, err := New(Config{Router: r, Document: doc, Selector: "#root"}); err != nil {
		t.Errorf("document with #root: %v", err)
	}
}

func TestMount_Once(t *testing.T) {
	app, err := New(Config{Router: testRouter(t)})
	if err != nil {
		t.Fatal(err)
	}
	if app.Selector() != "#app" {
		t.Errorf("Selector() = %q, want #app", app.Selector())
	}
	if app.Mounted() {
		t.Error("Mounted() before Mount")
	}

	if _, err := app.Mount(); err != nil {
		t.Fatalf("first Mount: %v", err)
	}
	if !app.Mounted() {
		t.Error("Mounted() = false after Mount")
	}
	if h, err := app.Mount(); !errors.Is(err, ErrAlreadyMounted) || h != nil {
		t.Errorf("second Mount = (%v, %v), want (nil, ErrAlreadyMounted)", h, err)
	}
}

func TestMount_Concurrent(t *testing.T) {
	app, err := New(Config{Router: testRouter(t)})
	if err != nil {
		t.Fatal(err)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
	)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := app.Mount(); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("successful mounts = %d, want 1", successes)
	}
}

func TestServe_Routes(t *testing.T) {
	h := mountApp(t, Config{})

	tests := []struct {
		target string
		status int
		route  string
		body   string
	}{
		{"/", http.StatusOK, "home", "home page"},
		{"/trade", http.StatusOK, "trade", "trade page"},
		{"/user", http.StatusOK, "user", "user page"},
		{"/unknown-path", http.StatusNotFound, "not-found", "missing page"},
		{"/trade/extra", http.StatusNotFound, "not-found", "missing page"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := get(h, tt.target)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			body := rec.Body.String()
			if !strings.Contains(body, `<div id="app" data-route="`+tt.route+`">`) {
				t.Errorf("mount point for %s missing:\n%s", tt.route, body)
			}
			if !strings.Contains(body, tt.body) {
				t.Errorf("body missing %q", tt.body)
			}
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
				t.Errorf("Content-Type = %q", ct)
			}
		})
	}
}

func TestServe_CanonicalRedirect(t *testing.T) {
	h := mountApp(t, Config{})

	tests := map[string]string{
		"/trade/":        "/trade",
		"//user":         "/user",
		"/./trade":       "/trade",
		"/user/../trade": "/trade",
		"/trade/?tab=1":  "/trade?tab=1",
	}
	for target, want := range tests {
		rec := get(h, target)
		if rec.Code != http.StatusPermanentRedirect {
			t.Errorf("%s: status = %d, want 308", target, rec.Code)
			continue
		}
		if loc := rec.Header().Get("Location"); loc != want {
			t.Errorf("%s: Location = %q, want %q", target, loc, want)
		}
	}
}

func TestServe_BadRequestsAndMethods(t *testing.T) {
	h := mountApp(t, Config{})

	if rec := get(h, "/%00"); rec.Code != http.StatusBadRequest {
		t.Errorf("/%%00: status = %d, want 400", rec.Code)
	}
	if rec := get(h, "/../etc/passwd"); rec.Code != http.StatusBadRequest {
		t.Errorf("/../etc/passwd: status = %d, want 400", rec.Code)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/trade", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("POST status = %d, want 405", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != "GET, HEAD" {
		t.Errorf("Allow = %q", allow)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodHead, "/user", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("HEAD status = %d, want 200", rec.Code)
	}
}

func TestServe_NoNotFoundRoute(t *testing.T) {
	r, err := router.New([]router.Route{{Path: "/", Name: "home", Component: testPage{name: "home"}}})
	if err != nil {
		t.Fatal(err)
	}
	h := mountApp(t, Config{Router: r})

	if rec := get(h, "/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestServe_NavigationFragment(t *testing.T) {
	h := mountApp(t, Config{})

	rec := get(h, "/trade?tab=open", NavigateHeader, "1")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("Content-Type = %q", ct)
	}

	var f Fragment
	if err := json.Unmarshal(rec.Body.Bytes(), &f); err != nil {
		t.Fatalf("decode fragment: %v", err)
	}
	want := Fragment{Name: "trade", Path: "/trade", Title: "Trade", HTML: "<section>trade page (en)</section>", Status: 200}
	if f != want {
		t.Errorf("fragment = %+v, want %+v", f, want)
	}

	rec = get(h, "/unknown-path", NavigateHeader, "1")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &f); err != nil {
		t.Fatal(err)
	}
	if f.Name != router.NotFoundName || f.Status != http.StatusNotFound {
		t.Errorf("fragment = %+v", f)
	}
}

func TestServe_RenderError(t *testing.T) {
	r, err := router.New([]router.Route{
		{Path: "/", Name: "home", Component: testPage{name: "home", err: errors.New("boom")}},
	})
	if err != nil {
		t.Fatal(err)
	}

	var logs bytes.Buffer
	h := mountApp(t, Config{Router: r, Logger: slog.New(slog.NewTextHandler(&logs, nil))})

	rec := get(h, "/")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(logs.String(), "render failed") || !strings.Contains(logs.String(), "boom") {
		t.Errorf("render failure not logged: %s", logs.String())
	}
}

func TestServe_Assets(t *testing.T) {
	m := assets.NewManifest()
	m.Set(assets.EntryScript, "main.3F2A9B1C.js")
	m.Set(assets.EntryStyle, "styles/style.1a2b3c4d.css")
	m.Set("favicon.ico", "favicon.ico")

	h := mountApp(t, Config{
		Assets:  assets.NewResolver(m, "/"),
		Favicon: "favicon.ico",
		Inject:  InjectHead,
	})

	body := get(h, "/").Body.String()
	for _, want := range []string{
		`<script type="module" src="/main.3F2A9B1C.js"></script>`,
		`<link rel="stylesheet" href="/styles/style.1a2b3c4d.css" data-entry-style>`,
		`<link rel="icon" href="/favicon.ico">`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("document missing %s", want)
		}
	}
	if strings.Index(body, "<script") > strings.Index(body, "</head>") {
		t.Error("scripts should be injected into head")
	}
	if strings.Contains(body, "WebSocket") {
		t.Error("production document should not carry the reload client")
	}
}

func TestServe_DevReloadClient(t *testing.T) {
	h := mountApp(t, Config{DevMode: true, ReloadPath: "/_scaffold/reload", Overlay: true})

	body := get(h, "/").Body.String()
	if !strings.Contains(body, "new WebSocket") {
		t.Error("dev document should carry the reload client")
	}
	if !strings.Contains(body, "showOverlay(msg.error)") {
		t.Error("overlay should show the error field of the reload message")
	}
	if !strings.Contains(body, "swapStyles(msg.file)") {
		t.Error("css messages should swap the stylesheet in place")
	}

	h = mountApp(t, Config{DevMode: true, ReloadPath: "/_scaffold/reload"})
	body = get(h, "/").Body.String()
	if !strings.Contains(body, "console.error(msg.error)") {
		t.Error("without the overlay errors should go to the console")
	}
}

func TestServe_StaticFiles(t *testing.T) {
	static := fstest.MapFS{
		"main.3F2A9B1C.js":             {Data: []byte("console.log(1)")},
		"robots.txt":                   {Data: []byte("User-agent: *")},
		"assets/images/logo.a1b2c.png": {Data: []byte("png")},
		"trade/index.html":             {Data: []byte("prerendered")},
		"assets/images/nested/.keep":   {Data: nil},
	}

	h := mountApp(t, Config{StaticFS: static})

	tests := []struct {
		target string
		cache  string
	}{
		{"/main.3F2A9B1C.js", "public, max-age=31536000, immutable"},
		{"/assets/images/logo.a1b2c.png", "public, max-age=31536000, immutable"},
		{"/robots.txt", "public, max-age=3600, must-revalidate"},
	}
	for _, tt := range tests {
		rec := get(h, tt.target)
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d", tt.target, rec.Code)
			continue
		}
		if cc := rec.Header().Get("Cache-Control"); cc != tt.cache {
			t.Errorf("%s: Cache-Control = %q, want %q", tt.target, cc, tt.cache)
		}
	}

	// Directories fall through to the route table.
	if body := get(h, "/trade").Body.String(); !strings.Contains(body, "trade page") {
		t.Error("/trade should render the route, not the directory")
	}
	if rec := get(h, "/assets/images/nested"); rec.Code != http.StatusNotFound {
		t.Errorf("directory: status = %d, want 404", rec.Code)
	}

	dev := mountApp(t, Config{StaticFS: static, DevMode: true})
	if cc := get(dev, "/main.3F2A9B1C.js").Header().Get("Cache-Control"); !strings.HasPrefix(cc, "no-store") {
		t.Errorf("dev Cache-Control = %q", cc)
	}
}

func TestStaticRelPath(t *testing.T) {
	app := &App{staticFS: fstest.MapFS{}, staticPrefix: "/static/"}

	tests := map[string]bool{
		"/static/app.js":      true,
		"/static/css/a.css":   true,
		"/static/":            false,
		"/static//etc/passwd": false,
		"/static/../secret":   false,
		"/static/./app.js":    false,
		"/static/a\\b":        false,
		"/other/app.js":       false,
		"/static/a\x00b":      false,
	}
	for in, want := range tests {
		if _, ok := app.staticRelPath(in); ok != want {
			t.Errorf("staticRelPath(%q) ok = %v, want %v", in, ok, want)
		}
	}
}

func TestServe_Languages(t *testing.T) {
	h := mountApp(t, Config{Languages: []language.Tag{language.English, language.Chinese}})

	tests := []struct {
		target string
		accept string
		lang   string
	}{
		{"/", "", "en"},
		{"/", "zh-CN,zh;q=0.9,en;q=0.8", "zh"},
		{"/", "fr-FR", "en"},
		{"/?lang=en", "zh-CN", "en"},
		{"/?lang=zh", "", "zh"},
	}
	for _, tt := range tests {
		rec := get(h, tt.target, "Accept-Language", tt.accept)
		body := rec.Body.String()
		if !strings.Contains(body, `<html lang="`+tt.lang+`">`) {
			t.Errorf("%s [%s]: want lang %s in document", tt.target, tt.accept, tt.lang)
		}
		if !strings.Contains(body, "home page ("+tt.lang+")") {
			t.Errorf("%s [%s]: component did not receive %s", tt.target, tt.accept, tt.lang)
		}
	}
}

func TestServe_RecordsRouteName(t *testing.T) {
	h := mountApp(t, Config{StaticFS: fstest.MapFS{"robots.txt": {Data: []byte("x")}}})

	for target, want := range map[string]string{
		"/trade":      "trade",
		"/nowhere":    router.NotFoundName,
		"/robots.txt": StaticRoute,
	} {
		ctx := middleware.WithRouteHolder(context.Background())
		req := httptest.NewRequest(http.MethodGet, target, nil).WithContext(ctx)
		h.ServeHTTP(httptest.NewRecorder(), req)
		if got := middleware.RouteName(ctx); got != want {
			t.Errorf("%s: route = %q, want %q", target, got, want)
		}
	}
}

func TestPrerender(t *testing.T) {
	app, err := New(Config{Router: testRouter(t)})
	if err != nil {
		t.Fatal(err)
	}

	pages, err := app.Prerender(context.Background())
	if err != nil {
		t.Fatalf("Prerender: %v", err)
	}

	want := []struct {
		file   string
		status int
		route  string
	}{
		{"index.html", 200, "home"},
		{"trade/index.html", 200, "trade"},
		{"user/index.html", 200, "user"},
		{NotFoundFile, 404, router.NotFoundName},
	}
	if len(pages) != len(want) {
		t.Fatalf("pages = %d, want %d", len(pages), len(want))
	}
	for i, w := range want {
		p := pages[i]
		if p.File != w.file || p.Status != w.status || p.Route.Name != w.route {
			t.Errorf("page %d = {%s %d %s}, want %+v", i, p.File, p.Status, p.Route.Name, w)
		}
		if !bytes.Contains(p.HTML, []byte(`data-route="`+w.route+`"`)) {
			t.Errorf("page %s missing mount point", p.File)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := app.Prerender(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Prerender(canceled) error = %v", err)
	}
}
