package shell

import (
	"bytes"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/vango-dev/scaffold/pkg/assets"
)

// staticRelPath returns a sanitized path inside the static file system for
// urlPath. Traversal and absolute-path tricks are rejected.
func (a *App) staticRelPath(urlPath string) (string, bool) {
	if a.staticFS == nil {
		return "", false
	}

	rel, ok := strings.CutPrefix(urlPath, a.staticPrefix)
	if !ok || rel == "" {
		return "", false
	}

	// NUL can arrive via %00.
	if strings.IndexByte(rel, 0) != -1 || strings.Contains(rel, "\\") {
		return "", false
	}

	// "/static//etc/passwd" strips to "/etc/passwd".
	if strings.HasPrefix(rel, "/") {
		return "", false
	}

	for _, seg := range strings.Split(rel, "/") {
		if seg == "." || seg == ".." {
			return "", false
		}
	}

	clean := path.Clean(rel)
	if !fs.ValidPath(clean) || clean == "." {
		return "", false
	}
	return clean, true
}

// serveStatic serves urlPath from the static file system. It reports false,
// writing nothing, when no regular file exists there.
func (a *App) serveStatic(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		return false
	}

	rel, ok := a.staticRelPath(r.URL.Path)
	if !ok {
		return false
	}

	f, err := a.staticFS.Open(rel)
	if err != nil {
		return false
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		return false
	}

	a.applyCacheHeaders(w, rel)

	if rs, ok := f.(io.ReadSeeker); ok {
		http.ServeContent(w, r, rel, info.ModTime(), rs)
		return true
	}

	data, err := fs.ReadFile(a.staticFS, rel)
	if err != nil {
		return false
	}
	http.ServeContent(w, r, rel, info.ModTime(), bytes.NewReader(data))
	return true
}

// applyCacheHeaders sets Cache-Control for a static file. Development
// responses are never cached; fingerprinted production files are immutable.
func (a *App) applyCacheHeaders(w http.ResponseWriter, filePath string) {
	switch {
	case a.devMode:
		w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	case assets.IsFingerprinted(filePath):
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	default:
		w.Header().Set("Cache-Control", "public, max-age=3600, must-revalidate")
	}
}
