package app

import (
	stderrors "errors"
	"io/fs"
	"log/slog"

	"golang.org/x/text/language"

	"github.com/vango-dev/scaffold/app/locales"
	"github.com/vango-dev/scaffold/app/pages"
	"github.com/vango-dev/scaffold/internal/errors"
	"github.com/vango-dev/scaffold/pkg/assets"
	"github.com/vango-dev/scaffold/pkg/router"
	"github.com/vango-dev/scaffold/pkg/shell"
)

// Options configures the site.
type Options struct {
	// Assets resolves bundle names to URLs.
	Assets assets.Resolver

	// StaticFS holds the build output.
	StaticFS fs.FS

	// Document overrides the embedded host document.
	Document *shell.Document

	// Inject is "head" or "body".
	Inject string

	// Favicon is the favicon source name.
	Favicon string

	Logger     *slog.Logger
	DevMode    bool
	ReloadPath string
	Overlay    bool
}

// NewRouter builds the router for the route table with the not-found page
// as fallback.
func NewRouter() (*router.Router, error) {
	r, _, err := newRouter()
	return r, err
}

func newRouter() (*router.Router, []language.Tag, error) {
	bundle, err := locales.NewBundle()
	if err != nil {
		return nil, nil, err
	}
	p, err := pages.New(bundle)
	if err != nil {
		return nil, nil, err
	}
	r, err := router.New(Routes(p), router.WithNotFound(p.NotFound))
	if err != nil {
		return nil, nil, errors.New("E301").Wrap(err)
	}
	return r, bundle.LanguageTags(), nil
}

// New creates the application shell for the site. The caller mounts it.
func New(opts Options) (*shell.App, error) {
	r, languages, err := newRouter()
	if err != nil {
		return nil, err
	}

	a, err := shell.New(shell.Config{
		Router:     r,
		Selector:   shell.DefaultSelector,
		Document:   opts.Document,
		Assets:     opts.Assets,
		StaticFS:   opts.StaticFS,
		Inject:     opts.Inject,
		Favicon:    opts.Favicon,
		Logger:     opts.Logger,
		DevMode:    opts.DevMode,
		ReloadPath: opts.ReloadPath,
		Overlay:    opts.Overlay,
		Languages:  languages,
	})
	if stderrors.Is(err, shell.ErrInvalidSelector) || stderrors.Is(err, shell.ErrMountPointMissing) {
		return nil, errors.New("E302").Wrap(err)
	}
	return a, err
}
