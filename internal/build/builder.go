package build

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/evanw/esbuild/pkg/api"

	"github.com/vango-dev/scaffold/internal/config"
	"github.com/vango-dev/scaffold/internal/errors"
	"github.com/vango-dev/scaffold/pkg/assets"
	"github.com/vango-dev/scaffold/pkg/shell"
)

// entryName is the output name of the entry point. The manifest publishes
// its bundles as assets.EntryScript and assets.EntryStyle.
const entryName = "main"

// OutputFile is a written file.
type OutputFile struct {
	// Path is relative to the output directory, slash separated.
	Path string

	// Size is the file size in bytes.
	Size int64
}

// Result contains the build output.
type Result struct {
	// Duration is how long the build took.
	Duration time.Duration

	// OutputDir is the absolute output directory.
	OutputDir string

	// Files are the written files, sorted by path.
	Files []OutputFile

	// Manifest maps logical asset names to emitted files.
	Manifest *assets.Manifest

	// Warnings are bundler warnings, one per line.
	Warnings []string

	// Pages is the number of prerendered documents.
	Pages int
}

// Options configures the builder.
type Options struct {
	// Prerender renders the documents written next to the bundles. It is
	// called with the new manifest before anything is written. Nil skips
	// prerendering.
	Prerender func(ctx context.Context, m *assets.Manifest) ([]shell.Page, error)

	// OnProgress is called with progress updates.
	OnProgress func(step string)
}

// Builder bundles the project described by a configuration. A Builder keeps
// an incremental bundler context between builds; call Close when done.
type Builder struct {
	config  *config.Config
	options Options

	mu    sync.Mutex
	esctx api.BuildContext
}

// New creates a new builder.
func New(cfg *config.Config, options Options) *Builder {
	return &Builder{
		config:  cfg,
		options: options,
	}
}

// Close releases the bundler context.
func (b *Builder) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.esctx != nil {
		b.esctx.Dispose()
		b.esctx = nil
	}
}

// Build bundles the entry point and writes the output directory. When the
// bundler reports errors nothing is written and the error carries the
// location of the first one.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	start := time.Now()
	entry := b.config.EntryPath()
	if _, err := os.Stat(entry); err != nil {
		return nil, errors.New("E205").
			WithDetail("No file at " + entry).
			WithSuggestion("Set \"entry\" in " + config.ConfigFileName)
	}

	esctx, err := b.context()
	if err != nil {
		return nil, err
	}

	b.progress("Bundling " + b.config.Entry + "...")
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			esctx.Cancel()
		case <-done:
		}
	}()
	res := esctx.Rebuild()
	close(done)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(res.Errors) > 0 {
		return nil, bundleError(res.Errors)
	}

	outDir := b.outputDir()
	files, manifest, err := b.collect(res, outDir)
	if err != nil {
		return nil, err
	}

	favicon, err := b.favicon()
	if err != nil {
		return nil, err
	}
	if favicon != nil {
		files = append(files, *favicon)
		manifest.Set(favicon.rel, favicon.rel)
	}

	var pages []shell.Page
	if b.options.Prerender != nil {
		b.progress("Rendering pages...")
		pages, err = b.options.Prerender(ctx, manifest)
		if err != nil {
			return nil, errors.New("E303").Wrap(err)
		}
	}

	if b.config.CleanOutput() || b.config.IsDev() {
		b.progress("Cleaning output directory...")
		if err := b.clean(outDir); err != nil {
			return nil, err
		}
	}

	b.progress("Writing output...")
	result := &Result{
		OutputDir: outDir,
		Manifest:  manifest,
		Warnings:  formatMessages(res.Warnings),
		Pages:     len(pages),
	}
	for _, f := range files {
		if err := writeFile(outDir, f.rel, f.contents); err != nil {
			return nil, err
		}
		result.Files = append(result.Files, OutputFile{Path: f.rel, Size: int64(len(f.contents))})
	}

	written, err := WritePages(outDir, pages, b.config.MinifyHTML())
	if err != nil {
		return nil, err
	}
	result.Files = append(result.Files, written...)

	data, err := json.MarshalIndent(manifest.All(), "", "  ")
	if err != nil {
		return nil, errors.New("E204").Wrap(err)
	}
	data = append(data, '\n')
	if err := writeFile(outDir, assets.FileName, data); err != nil {
		return nil, err
	}
	result.Files = append(result.Files, OutputFile{Path: assets.FileName, Size: int64(len(data))})

	sort.Slice(result.Files, func(i, j int) bool {
		return result.Files[i].Path < result.Files[j].Path
	})
	result.Duration = time.Since(start)
	return result, nil
}

// emitted is an output file held in memory until the build succeeds.
type emitted struct {
	rel      string
	contents []byte
}

// metafile is the part of esbuild's metafile the builder reads.
type metafile struct {
	Outputs map[string]struct {
		EntryPoint string `json:"entryPoint"`
		CSSBundle  string `json:"cssBundle"`
	} `json:"outputs"`
}

// collect names the bundler output and builds the manifest. The entry's
// stylesheet is renamed after the CSS file name pattern.
func (b *Builder) collect(res api.BuildResult, outDir string) ([]emitted, *assets.Manifest, error) {
	var meta metafile
	if err := json.Unmarshal([]byte(res.Metafile), &meta); err != nil {
		return nil, nil, errors.New("E204").Wrap(err)
	}

	wd := b.workingDir()
	var entryOut, cssOut string
	for key, out := range meta.Outputs {
		if out.EntryPoint != "" && strings.HasSuffix(key, ".js") {
			entryOut = filepath.Join(wd, key)
			if out.CSSBundle != "" {
				cssOut = filepath.Join(wd, out.CSSBundle)
			}
		}
	}

	manifest := assets.NewManifest()
	files := make([]emitted, 0, len(res.OutputFiles))
	var cssMap *api.OutputFile

	for i, f := range res.OutputFiles {
		rel, err := filepath.Rel(outDir, f.Path)
		if err != nil {
			return nil, nil, errors.New("E202").Wrap(err)
		}
		rel = filepath.ToSlash(rel)

		switch {
		case f.Path == entryOut:
			manifest.Set(assets.EntryScript, rel)
		case cssOut != "" && f.Path == cssOut+".map":
			cssMap = &res.OutputFiles[i]
			continue
		case f.Path == cssOut:
			continue
		case path.Ext(rel) == ".js" || path.Ext(rel) == ".map":
		default:
			manifest.Set(logicalName(rel), rel)
		}
		files = append(files, emitted{rel: rel, contents: f.Contents})
	}

	if cssOut != "" {
		for _, f := range res.OutputFiles {
			if f.Path != cssOut {
				continue
			}
			css := f.Contents
			rel := expandName(b.config.CSS.Filename, entryName, "css", css)
			if cssMap != nil {
				oldMap := filepath.Base(cssMap.Path)
				newMap := path.Base(rel) + ".map"
				css = []byte(strings.Replace(string(css), "sourceMappingURL="+oldMap, "sourceMappingURL="+newMap, 1))
				files = append(files, emitted{rel: rel + ".map", contents: cssMap.Contents})
			}
			files = append(files, emitted{rel: rel, contents: css})
			manifest.Set(assets.EntryStyle, rel)
		}
	}

	if !manifest.Has(assets.EntryScript) {
		return nil, nil, errors.New("E201").WithDetail("The bundler produced no entry bundle")
	}
	return files, manifest, nil
}

// favicon reads the configured favicon. It is copied under its own name.
func (b *Builder) favicon() (*emitted, error) {
	src := b.config.FaviconPath()
	if src == "" {
		return nil, nil
	}
	data, err := os.ReadFile(src)
	if err != nil {
		return nil, errors.New("E202").WithDetail("Cannot read favicon " + src).Wrap(err)
	}
	return &emitted{rel: filepath.Base(src), contents: data}, nil
}

// context returns the bundler context, creating it on first use.
func (b *Builder) context() (api.BuildContext, error) {
	if b.esctx != nil {
		return b.esctx, nil
	}

	opts, err := b.buildOptions()
	if err != nil {
		return nil, err
	}
	esctx, cerr := api.Context(opts)
	if cerr != nil {
		return nil, bundleError(cerr.Errors)
	}
	b.esctx = esctx
	return esctx, nil
}

// buildOptions derives esbuild options from the configuration.
func (b *Builder) buildOptions() (api.BuildOptions, error) {
	cfg := b.config

	target, ok := targets[strings.ToLower(cfg.Build.Target)]
	if !ok {
		return api.BuildOptions{}, errors.New("E101").
			WithDetail("Unknown build.target " + strconv.Quote(cfg.Build.Target)).
			WithSuggestion("Use esnext or es2015 through es2024")
	}

	define := map[string]string{
		"process.env.NODE_ENV": strconv.Quote(string(cfg.Mode)),
	}
	for k, v := range cfg.Define {
		define[k] = v
	}

	plugins := []api.Plugin{imagePlugin(cfg.Images.Extensions, cfg.Images.InlineLimit)}
	if !cfg.ExtractCSS() {
		plugins = append(plugins, styleInjectPlugin())
	}

	sourcemap := api.SourceMapNone
	switch {
	case cfg.IsDev():
		sourcemap = api.SourceMapInline
	case cfg.Build.SourceMaps:
		sourcemap = api.SourceMapLinked
	}

	minify := cfg.Minify()
	return api.BuildOptions{
		EntryPointsAdvanced: []api.EntryPoint{{InputPath: b.entryPath(), OutputPath: entryName}},
		AbsWorkingDir:       b.workingDir(),
		Outdir:              b.outputDir(),
		Bundle:              true,
		Write:               false,
		Metafile:            true,
		Format:              api.FormatESModule,
		Platform:            api.PlatformBrowser,
		Target:              target,
		Splitting:           cfg.SplitVendor(),
		EntryNames:          esbuildPattern(cfg.BundleFilename()),
		ChunkNames:          esbuildPattern(cfg.Output.ChunkFilename),
		AssetNames:          esbuildPattern(cfg.Images.Filename),
		PublicPath:          cfg.Output.PublicPath,
		MinifyWhitespace:    minify,
		MinifyIdentifiers:   minify,
		MinifySyntax:        minify,
		Sourcemap:           sourcemap,
		Define:              define,
		Charset:             api.CharsetUTF8,
		Plugins:             plugins,
		LogLevel:            api.LogLevelSilent,
	}, nil
}

var targets = map[string]api.Target{
	"esnext": api.ESNext,
	"es2015": api.ES2015,
	"es2016": api.ES2016,
	"es2017": api.ES2017,
	"es2018": api.ES2018,
	"es2019": api.ES2019,
	"es2020": api.ES2020,
	"es2021": api.ES2021,
	"es2022": api.ES2022,
	"es2023": api.ES2023,
	"es2024": api.ES2024,
}

func (b *Builder) entryPath() string {
	entry := b.config.EntryPath()
	abs, err := filepath.Abs(entry)
	if err != nil {
		return entry
	}
	return abs
}

func (b *Builder) workingDir() string {
	return b.config.Root()
}

func (b *Builder) outputDir() string {
	dir := b.config.OutputPath()
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	return abs
}

// clean removes outDir. Only directories strictly inside the project are
// removed.
func (b *Builder) clean(outDir string) error {
	abs, err := filepath.Abs(outDir)
	if err != nil {
		return errors.New("E202").Wrap(err)
	}
	if !config.Within(b.workingDir(), abs) {
		return errors.New("E202").
			WithDetail("Refusing to clean " + abs).
			WithSuggestion("Point output.dir at a dedicated directory such as dist")
	}
	if err := os.RemoveAll(abs); err != nil {
		return errors.New("E202").Wrap(err)
	}
	return nil
}

// progress reports build progress.
func (b *Builder) progress(step string) {
	if b.options.OnProgress != nil {
		b.options.OnProgress(step)
	}
}

func writeFile(dir, rel string, data []byte) error {
	dst := filepath.Join(dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return errors.New("E202").Wrap(err)
	}
	if err := os.WriteFile(dst, data, 0644); err != nil {
		return errors.New("E202").Wrap(err)
	}
	return nil
}

// bundleError converts bundler messages to a build error located at the
// first message.
func bundleError(msgs []api.Message) error {
	e := errors.New("E201").WithDetail(strings.Join(formatMessages(msgs), "\n"))
	if len(msgs) > 0 && msgs[0].Location != nil {
		l := msgs[0].Location
		e = e.WithLocation(l.File, l.Line, l.Column+1, l.LineText)
	}
	return e
}

// formatMessages renders bundler messages as "file:line:col: text".
func formatMessages(msgs []api.Message) []string {
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if l := m.Location; l != nil {
			out = append(out, fmt.Sprintf("%s:%d:%d: %s", l.File, l.Line, l.Column+1, m.Text))
			continue
		}
		out = append(out, m.Text)
	}
	return out
}
