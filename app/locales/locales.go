// Package locales embeds the message catalogs of the site.
package locales

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

// DefaultLanguage is the language pages fall back to.
var DefaultLanguage = language.English

//go:embed active.*.toml
var files embed.FS

// NewBundle loads every embedded catalog. The default language is always
// the first of Bundle.LanguageTags.
func NewBundle() (*i18n.Bundle, error) {
	return LoadBundle(files)
}

// LoadBundle loads the active.*.toml catalogs in fsys.
func LoadBundle(fsys fs.FS) (*i18n.Bundle, error) {
	bundle := i18n.NewBundle(DefaultLanguage)
	bundle.RegisterUnmarshalFunc("toml", toml.Unmarshal)

	names, err := fs.Glob(fsys, "active.*.toml")
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("locales: no catalogs found")
	}

	// Load the default catalog first so its tag leads LanguageTags.
	def := "active." + DefaultLanguage.String() + ".toml"
	sort.SliceStable(names, func(i, j int) bool {
		return names[i] == def && names[j] != def
	})

	for _, name := range names {
		if _, err := bundle.LoadMessageFileFS(fsys, name); err != nil {
			return nil, fmt.Errorf("locales: %s: %w", name, err)
		}
	}
	return bundle, nil
}
