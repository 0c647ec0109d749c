package app_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/go-chi/chi/v5"

	"github.com/vango-dev/scaffold/app"
	"github.com/vango-dev/scaffold/internal/server"
	"github.com/vango-dev/scaffold/pkg/assets"
)

// TestServeStack mounts the site behind the production middleware stack,
// next to a plain chi route, with bundles served from a build output.
func TestServeStack(t *testing.T) {
	dist := fstest.MapFS{
		"main.Q2ZTA5XJ.js":          {Data: []byte("console.log('app')")},
		"styles/style.3f9a1c0e.css": {Data: []byte("body{}")},
		"manifest.json":             {Data: []byte(`{"main.js":"main.Q2ZTA5XJ.js","main.css":"styles/style.3f9a1c0e.css"}`)},
	}
	manifest, err := assets.LoadFS(dist, assets.FileName)
	if err != nil {
		t.Fatal(err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	site, err := app.New(app.Options{
		Assets:   assets.NewResolver(manifest, "/"),
		StaticFS: dist,
		Logger:   logger,
	})
	if err != nil {
		t.Fatal(err)
	}
	handler, err := site.Mount()
	if err != nil {
		t.Fatal(err)
	}

	r := server.NewRouter(handler, server.Options{
		Logger: logger,
		Routes: func(r chi.Router) {
			r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("OK"))
			})
		},
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	t.Run("pages", func(t *testing.T) {
		tests := []struct {
			path   string
			status int
			route  string
		}{
			{"/", http.StatusOK, "home"},
			{"/trade", http.StatusOK, "trade"},
			{"/user", http.StatusOK, "user"},
			{"/unknown-path", http.StatusNotFound, "not-found"},
		}
		for _, tt := range tests {
			resp, err := http.Get(srv.URL + tt.path)
			if err != nil {
				t.Fatal(err)
			}
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()

			if resp.StatusCode != tt.status {
				t.Errorf("%s: status %d, want %d", tt.path, resp.StatusCode, tt.status)
			}
			page := string(body)
			if !strings.Contains(page, `data-route="`+tt.route+`"`) {
				t.Errorf("%s: not rendered by %s", tt.path, tt.route)
			}
			if !strings.Contains(page, `src="/main.Q2ZTA5XJ.js"`) || !strings.Contains(page, `href="/styles/style.3f9a1c0e.css"`) {
				t.Errorf("%s: bundles not linked", tt.path)
			}
		}
	})

	t.Run("canonical redirect", func(t *testing.T) {
		client := &http.Client{CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}}
		resp, err := client.Get(srv.URL + "/trade/?tab=spot")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusPermanentRedirect || resp.Header.Get("Location") != "/trade?tab=spot" {
			t.Errorf("redirect = %d %q", resp.StatusCode, resp.Header.Get("Location"))
		}
	})

	t.Run("bundles", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/main.Q2ZTA5XJ.js")
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("status %d", resp.StatusCode)
		}
		if cc := resp.Header.Get("Cache-Control"); !strings.Contains(cc, "immutable") {
			t.Errorf("Cache-Control = %q", cc)
		}
	})

	t.Run("chi routes", func(t *testing.T) {
		for path, want := range map[string]string{"/api/health": "OK", "/healthz": "ok\n"} {
			resp, err := http.Get(srv.URL + path)
			if err != nil {
				t.Fatal(err)
			}
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			if string(body) != want {
				t.Errorf("%s = %q, want %q", path, body, want)
			}
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, srv.URL+"/trade", nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("POST status = %d, want 405", resp.StatusCode)
		}
	})
}
