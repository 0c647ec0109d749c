package dev

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/vango-dev/scaffold/internal/build"
	"github.com/vango-dev/scaffold/internal/config"
	"github.com/vango-dev/scaffold/pkg/assets"
	"github.com/vango-dev/scaffold/pkg/shell"
)

const devEntry = `import "./base.css";
document.getElementById("app").dataset.ready = "1";
`

const devDocument = `<!DOCTYPE html>
<html><head><title>{{.Title}}</title></head>
<body><div id="{{.MountID}}">{{.Body}}</div></body></html>
`

type fakeApps struct {
	mu   sync.Mutex
	docs []*shell.Document
}

func (f *fakeApps) mounts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.docs)
}

// app serves the resolved entry script at "/" and the bundles elsewhere.
func (f *fakeApps) app(doc *shell.Document, res assets.Resolver, static fs.FS) (http.Handler, error) {
	f.mu.Lock()
	f.docs = append(f.docs, doc)
	f.mu.Unlock()

	files := http.FileServer(http.FS(static))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			files.ServeHTTP(w, r)
			return
		}
		fmt.Fprint(w, res.Asset(assets.EntryScript))
	}), nil
}

func newDevProject(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	for name, data := range map[string]string{
		"web/src/index.js":      devEntry,
		"web/src/base.css":      "body { margin: 0; }\n",
		"web/public/index.html": devDocument,
	} {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(data), 0644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := config.New()
	cfg.SetPath(filepath.Join(dir, config.ConfigFileName))
	cfg.Mode = config.ModeDevelopment
	return cfg
}

func newDevServer(t *testing.T, cfg *config.Config) (*Server, *fakeApps) {
	t.Helper()
	apps := &fakeApps{}
	s, err := NewServer(ServerOptions{
		Config: cfg,
		App:    apps.app,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(s.Close)
	return s, apps
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestNewServer_RequiresApp(t *testing.T) {
	if _, err := NewServer(ServerOptions{Config: config.New()}); err == nil {
		t.Error("expected an error without App")
	}
}

func TestServer_Build(t *testing.T) {
	cfg := newDevProject(t)
	s, apps := newDevServer(t, cfg)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	if apps.mounts() != 1 {
		t.Fatalf("mounts = %d, want 1", apps.mounts())
	}

	// Before the first build the entry is unresolved.
	if _, body := get(t, srv.URL+"/"); body != "/main.js" {
		t.Errorf("unbuilt entry = %q", body)
	}

	if err := s.Build(context.Background()); err != nil {
		t.Fatalf("Build: %v", err)
	}
	if s.Builds() != 1 {
		t.Errorf("Builds = %d, want 1", s.Builds())
	}

	_, script := get(t, srv.URL+"/")
	if !strings.HasPrefix(script, "/bundle.") || !strings.HasSuffix(script, ".js") {
		t.Fatalf("entry = %q, want /bundle.<hash>.js", script)
	}
	status, js := get(t, srv.URL+script)
	if status != http.StatusOK {
		t.Fatalf("GET %s = %d", script, status)
	}
	if !strings.Contains(js, "margin: 0") {
		t.Error("stylesheet not injected into the development bundle")
	}

	if status, body := get(t, srv.URL+"/healthz"); status != http.StatusOK || body != "ok\n" {
		t.Errorf("healthz = %d %q", status, body)
	}
}

func TestServer_FailedBuildKeepsBundle(t *testing.T) {
	cfg := newDevProject(t)
	s, _ := newDevServer(t, cfg)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	if err := s.Build(context.Background()); err != nil {
		t.Fatal(err)
	}
	good := s.Manifest().Resolve(assets.EntryScript)

	conn := dialReload(t, srv.URL+ReloadPath, nil)
	waitClients(t, s.reload, 1)

	if err := os.WriteFile(cfg.EntryPath(), []byte("import ;\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := s.Build(context.Background()); err == nil {
		t.Fatal("expected a build error")
	}

	msg := readReload(t, conn)
	if msg.Type != ReloadTypeError || !strings.Contains(msg.Error, "E201") {
		t.Errorf("got %+v, want E201 error", msg)
	}
	if got := s.Manifest().Resolve(assets.EntryScript); got != good {
		t.Errorf("entry = %q after failed build, want %q", got, good)
	}
	if status, _ := get(t, srv.URL+"/"+good); status != http.StatusOK {
		t.Errorf("previous bundle status = %d", status)
	}

	if err := os.WriteFile(cfg.EntryPath(), []byte(devEntry), 0644); err != nil {
		t.Fatal(err)
	}
	if err := s.Build(context.Background()); err != nil {
		t.Fatal(err)
	}
	if msg := readReload(t, conn); msg.Type != ReloadTypeClear {
		t.Errorf("got %+v, want clear", msg)
	}
}

func TestServer_HandleChanges(t *testing.T) {
	cfg := newDevProject(t)
	var reloads []int
	apps := &fakeApps{}
	s, err := NewServer(ServerOptions{
		Config:   cfg,
		App:      apps.app,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		OnReload: func(clients int) { reloads = append(reloads, clients) },
	})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dialReload(t, srv.URL+ReloadPath, nil)
	waitClients(t, s.reload, 1)
	ctx := context.Background()

	s.handleChanges(ctx, []Change{{Path: cfg.EntryPath(), Type: ChangeScript}})
	if msg := readReload(t, conn); msg.Type != ReloadTypeFull {
		t.Errorf("script change: got %+v, want reload", msg)
	}
	if s.Builds() != 1 {
		t.Errorf("Builds = %d, want 1", s.Builds())
	}

	// Development stylesheets live in the bundle, so a style change is a
	// full reload too.
	s.handleChanges(ctx, []Change{{Path: "base.css", Type: ChangeStyle}})
	if msg := readReload(t, conn); msg.Type != ReloadTypeFull {
		t.Errorf("style change: got %+v, want reload", msg)
	}

	s.handleChanges(ctx, []Change{{Path: cfg.TemplatePath(), Type: ChangeTemplate}})
	if msg := readReload(t, conn); msg.Type != ReloadTypeFull {
		t.Errorf("template change: got %+v, want reload", msg)
	}
	if apps.mounts() != 2 {
		t.Errorf("mounts = %d, want 2 after a template change", apps.mounts())
	}
	if s.Builds() != 2 {
		t.Errorf("template change rebuilt the bundle: Builds = %d", s.Builds())
	}
	if len(reloads) != 3 || reloads[0] != 1 {
		t.Errorf("OnReload calls = %v", reloads)
	}
}

func TestServer_ExtractedStyleChange(t *testing.T) {
	cfg := newDevProject(t)
	extract := true
	cfg.CSS.Extract = &extract
	s, _ := newDevServer(t, cfg)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dialReload(t, srv.URL+ReloadPath, nil)
	waitClients(t, s.reload, 1)

	s.handleChanges(context.Background(), []Change{{Path: "base.css", Type: ChangeStyle}})
	msg := readReload(t, conn)
	if msg.Type != ReloadTypeCSS || !strings.HasPrefix(msg.File, "/styles/style.") {
		t.Errorf("got %+v, want css with the new stylesheet", msg)
	}
}

func TestServer_BrokenTemplate(t *testing.T) {
	cfg := newDevProject(t)
	s, apps := newDevServer(t, cfg)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	conn := dialReload(t, srv.URL+ReloadPath, nil)
	waitClients(t, s.reload, 1)

	if err := os.WriteFile(cfg.TemplatePath(), []byte("{{.Title"), 0644); err != nil {
		t.Fatal(err)
	}
	s.handleChanges(context.Background(), []Change{{Path: cfg.TemplatePath(), Type: ChangeTemplate}})

	msg := readReload(t, conn)
	if msg.Type != ReloadTypeError || !strings.Contains(msg.Error, "E203") {
		t.Errorf("got %+v, want E203 error", msg)
	}
	if apps.mounts() != 1 {
		t.Errorf("broken template replaced the application")
	}
}

func TestServer_DefaultDocument(t *testing.T) {
	cfg := newDevProject(t)
	if err := os.Remove(cfg.TemplatePath()); err != nil {
		t.Fatal(err)
	}
	_, apps := newDevServer(t, cfg)
	if apps.mounts() != 1 || apps.docs[0] == nil {
		t.Error("application not mounted with the embedded document")
	}
}

func TestServer_OnBuild(t *testing.T) {
	cfg := newDevProject(t)
	var got []*build.Result
	s, err := NewServer(ServerOptions{
		Config:  cfg,
		App:     (&fakeApps{}).app,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		OnBuild: func(res *build.Result, err error) { got = append(got, res) },
	})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	if err := s.Build(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] == nil || got[0].OutputDir != cfg.OutputPath() {
		t.Errorf("OnBuild results = %v", got)
	}
}
