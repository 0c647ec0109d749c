// Package assets resolves logical asset names to the fingerprinted files
// written by the build.
//
// The build writes manifest.json next to its output:
//
//	{
//	  "main.js": "main.Q2ZTA5XJ.js",
//	  "main.css": "styles/style.3f9a1c0e.css"
//	}
//
// The shell uses a Resolver to turn "main.js" into the URL of the current
// bundle:
//
//	m, _ := assets.Load("dist/manifest.json")
//	r := assets.NewResolver(m, "/")
//	r.Asset("main.js") // "/main.Q2ZTA5XJ.js"
package assets

import (
	"encoding/json"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
)

// FileName is the name of the manifest written by the build.
const FileName = "manifest.json"

// Logical names of the entry outputs.
const (
	EntryScript = "main.js"
	EntryStyle  = "main.css"
)

// Manifest maps logical asset names to output paths relative to the output
// directory. It is safe for concurrent use; the dev server swaps entries
// after every rebuild while requests read them.
type Manifest struct {
	entries map[string]string
	mu      sync.RWMutex
}

// NewManifest creates an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{
		entries: make(map[string]string),
	}
}

// Load reads a manifest file from disk.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// LoadFS reads a manifest file from fsys.
func LoadFS(fsys fs.FS, name string) (*Manifest, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes manifest JSON.
func Parse(data []byte) (*Manifest, error) {
	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = make(map[string]string)
	}
	return &Manifest{entries: entries}, nil
}

// Resolve returns the output path for source, or source unchanged.
func (m *Manifest) Resolve(source string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if resolved, ok := m.entries[source]; ok {
		return resolved
	}
	return source
}

// Has reports whether the manifest contains source.
func (m *Manifest) Has(source string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.entries[source]
	return ok
}

// Set adds or updates an entry.
func (m *Manifest) Set(source, resolved string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[source] = resolved
}

// Replace swaps all entries at once.
func (m *Manifest) Replace(entries map[string]string) {
	cp := make(map[string]string, len(entries))
	for k, v := range entries {
		cp[k] = v
	}

	m.mu.Lock()
	m.entries = cp
	m.mu.Unlock()
}

// Len returns the number of entries.
func (m *Manifest) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}

// All returns a copy of all entries.
func (m *Manifest) All() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]string, len(m.entries))
	for k, v := range m.entries {
		result[k] = v
	}
	return result
}

// Sources returns the logical names in sorted order.
func (m *Manifest) Sources() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.entries))
	for k := range m.entries {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// MarshalJSON encodes the entries.
func (m *Manifest) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.All())
}

// IsFingerprinted reports whether a file name carries a content hash, such as
// "main.Q2ZTA5XJ.js" or "style.3f9a1c0e.css". Hashes are either hex or the
// upper-case base32 alphabet the bundler uses, at least 5 characters long.
func IsFingerprinted(filePath string) bool {
	parts := strings.Split(path.Base(filePath), ".")
	if len(parts) < 3 {
		return false
	}

	hash := parts[len(parts)-2]
	if len(hash) < 5 {
		return false
	}
	return isHex(hash) || isBase32Upper(hash)
}

func isHex(s string) bool {
	for _, c := range s {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}

func isBase32Upper(s string) bool {
	for _, c := range s {
		if !((c >= 'A' && c <= 'Z') || (c >= '2' && c <= '7')) {
			return false
		}
	}
	return true
}
