package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/vango-dev/scaffold/internal/errors"
)

const (
	// ConfigFileName is the name of the JSON configuration file.
	ConfigFileName = "scaffold.json"

	// TOMLConfigFileName is the name of the TOML configuration file.
	TOMLConfigFileName = "scaffold.toml"

	// DefaultPort is the default development server port.
	DefaultPort = 8000

	// DefaultHost is the default development server host. Binding all
	// interfaces makes the dev server reachable by IP as well as localhost.
	DefaultHost = "0.0.0.0"

	// DefaultServePort is the default port of the production server.
	DefaultServePort = 8080

	// DefaultOutput is the default build output directory.
	DefaultOutput = "dist"

	// DefaultDevOutput is where the dev server writes its bundles.
	DefaultDevOutput = ".scaffold/dev"

	// DefaultInlineLimit is the size in bytes under which images are
	// inlined as data URLs.
	DefaultInlineLimit = 1024
)

// Mode selects development or production behavior.
type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeProduction  Mode = "production"
)

// Config represents the complete project configuration.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty" toml:"name,omitempty"`

	// Mode is the build mode. Environment variables override it.
	Mode Mode `json:"mode,omitempty" toml:"mode,omitempty"`

	// Entry is the bundle entry point.
	Entry string `json:"entry,omitempty" toml:"entry,omitempty"`

	// Template is the host document template.
	Template string `json:"template,omitempty" toml:"template,omitempty"`

	// Define maps identifiers to replacement expressions. The mode is
	// always defined as process.env.NODE_ENV.
	Define map[string]string `json:"define,omitempty" toml:"define,omitempty"`

	Output OutputConfig `json:"output,omitempty" toml:"output,omitempty"`
	CSS    CSSConfig    `json:"css,omitempty" toml:"css,omitempty"`
	Images ImageConfig  `json:"images,omitempty" toml:"images,omitempty"`
	HTML   HTMLConfig   `json:"html,omitempty" toml:"html,omitempty"`
	Build  BuildConfig  `json:"build,omitempty" toml:"build,omitempty"`
	Dev    DevConfig    `json:"dev,omitempty" toml:"dev,omitempty"`
	Serve  ServeConfig  `json:"serve,omitempty" toml:"serve,omitempty"`
	Deploy DeployConfig `json:"deploy,omitempty" toml:"deploy,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// OutputConfig contains production output settings.
type OutputConfig struct {
	// Dir is the output directory.
	Dir string `json:"dir,omitempty" toml:"dir,omitempty"`

	// Filename is the naming pattern of entry bundles.
	Filename string `json:"filename,omitempty" toml:"filename,omitempty"`

	// ChunkFilename is the naming pattern of split chunks.
	ChunkFilename string `json:"chunkFilename,omitempty" toml:"chunkFilename,omitempty"`

	// PublicPath is the URL prefix the output directory is served under.
	PublicPath string `json:"publicPath,omitempty" toml:"publicPath,omitempty"`

	// Clean removes stale files from Dir before writing.
	Clean *bool `json:"clean,omitempty" toml:"clean,omitempty"`
}

// CSSConfig controls stylesheet handling.
type CSSConfig struct {
	// Extract writes stylesheets to separate files. When false they are
	// injected at runtime by the bundle. Defaults to true in production and
	// false in development.
	Extract *bool `json:"extract,omitempty" toml:"extract,omitempty"`

	// Filename is the naming pattern of extracted stylesheets.
	Filename string `json:"filename,omitempty" toml:"filename,omitempty"`
}

// ImageConfig controls image handling.
type ImageConfig struct {
	// Extensions are the file extensions treated as images.
	Extensions []string `json:"extensions,omitempty" toml:"extensions,omitempty"`

	// InlineLimit is the size in bytes under which images become data URLs.
	InlineLimit int64 `json:"inlineLimit,omitempty" toml:"inlineLimit,omitempty"`

	// Filename is the naming pattern of emitted images.
	Filename string `json:"filename,omitempty" toml:"filename,omitempty"`
}

// HTMLConfig controls the generated host document.
type HTMLConfig struct {
	// Filename is the name of the generated document.
	Filename string `json:"filename,omitempty" toml:"filename,omitempty"`

	// Title is the fallback document title.
	Title string `json:"title,omitempty" toml:"title,omitempty"`

	// Inject places script tags in "head" or at the end of "body".
	Inject string `json:"inject,omitempty" toml:"inject,omitempty"`

	// Minify collapses whitespace between tags in production.
	Minify *bool `json:"minify,omitempty" toml:"minify,omitempty"`

	// Favicon is an optional favicon file copied to the output.
	Favicon string `json:"favicon,omitempty" toml:"favicon,omitempty"`
}

// BuildConfig contains production bundling settings.
type BuildConfig struct {
	// Minify enables JS and CSS minification in production.
	Minify *bool `json:"minify,omitempty" toml:"minify,omitempty"`

	// SourceMaps forces linked source maps in production.
	SourceMaps bool `json:"sourceMaps,omitempty" toml:"sourceMaps,omitempty"`

	// SplitVendor splits shared code into separate chunks in production.
	SplitVendor *bool `json:"splitVendor,omitempty" toml:"splitVendor,omitempty"`

	// Target is the JavaScript language target (e.g. "es2017").
	Target string `json:"target,omitempty" toml:"target,omitempty"`
}

// DevConfig contains development server settings.
type DevConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty" toml:"host,omitempty"`

	// Port is the port to run the dev server on.
	Port int `json:"port,omitempty" toml:"port,omitempty"`

	// Hot reloads connected browsers after every rebuild.
	Hot *bool `json:"hot,omitempty" toml:"hot,omitempty"`

	// Overlay shows build errors in the browser.
	Overlay *bool `json:"overlay,omitempty" toml:"overlay,omitempty"`

	// Open opens the browser on start.
	Open bool `json:"open,omitempty" toml:"open,omitempty"`

	// OutDir is where development bundles are written.
	OutDir string `json:"outDir,omitempty" toml:"outDir,omitempty"`

	// Filename is the naming pattern of the development bundle.
	Filename string `json:"filename,omitempty" toml:"filename,omitempty"`

	// Watch contains directories to watch for changes.
	Watch []string `json:"watch,omitempty" toml:"watch,omitempty"`

	// Ignore contains patterns to ignore during watch.
	Ignore []string `json:"ignore,omitempty" toml:"ignore,omitempty"`
}

// ServeConfig contains production server settings.
type ServeConfig struct {
	Host string `json:"host,omitempty" toml:"host,omitempty"`
	Port int    `json:"port,omitempty" toml:"port,omitempty"`

	// Metrics exposes Prometheus metrics at /metrics.
	Metrics *bool `json:"metrics,omitempty" toml:"metrics,omitempty"`
}

// DeployConfig contains object storage settings for 'scaffold deploy'.
type DeployConfig struct {
	Bucket string `json:"bucket,omitempty" toml:"bucket,omitempty"`
	Prefix string `json:"prefix,omitempty" toml:"prefix,omitempty"`
	Region string `json:"region,omitempty" toml:"region,omitempty"`

	// Endpoint overrides the S3 endpoint for compatible stores.
	Endpoint string `json:"endpoint,omitempty" toml:"endpoint,omitempty"`
}

// New creates a Config with default values.
func New() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads configuration from dir. scaffold.json is preferred over
// scaffold.toml when both exist.
func Load(dir string) (*Config, error) {
	for _, name := range []string{ConfigFileName, TOMLConfigFileName} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("E104").
		WithDetail("No " + ConfigFileName + " or " + TOMLConfigFileName + " found in " + dir).
		WithSuggestion("Create " + ConfigFileName + " at the project root; {} is a valid configuration")
}

// LoadFile reads configuration from path. The format follows the extension.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E104").WithDetail("No configuration at " + path)
		}
		return nil, errors.New("E101").Wrap(err)
	}

	cfg := &Config{}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, errors.New("E101").
				WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
				WithSuggestion("Check that " + filepath.Base(path) + " is valid TOML")
		}
	} else if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E101").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error()).
			WithSuggestion("Check that " + filepath.Base(path) + " is valid JSON")
	}

	cfg.configPath = path
	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	return cfg, cfg.Validate()
}

// SaveTo writes the configuration to path, as TOML for a .toml extension
// and JSON otherwise.
func (c *Config) SaveTo(path string) error {
	var data []byte
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		var b strings.Builder
		if err := toml.NewEncoder(&b).Encode(c); err != nil {
			return errors.New("E106").Wrap(err)
		}
		data = []byte(b.String())
	} else {
		var err error
		data, err = json.MarshalIndent(c, "", "  ")
		if err != nil {
			return errors.New("E106").Wrap(err)
		}
		data = append(data, '\n')
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New("E106").Wrap(err)
	}

	c.configPath = path
	return nil
}

// SetPath sets the config file path. Relative paths in the configuration
// resolve against its directory.
func (c *Config) SetPath(path string) {
	c.configPath = path
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Name == "" {
		c.Name = "scaffold"
	}
	if c.Mode == "" {
		c.Mode = ModeProduction
	}
	if c.Entry == "" {
		c.Entry = "./web/src/index.js"
	}
	if c.Template == "" {
		c.Template = "./web/public/index.html"
	}

	// Output
	if c.Output.Dir == "" {
		c.Output.Dir = DefaultOutput
	}
	if c.Output.Filename == "" {
		c.Output.Filename = "[name].[chunkhash:8].js"
	}
	if c.Output.ChunkFilename == "" {
		c.Output.ChunkFilename = "chunks/[name].[chunkhash:8].js"
	}
	if c.Output.PublicPath == "" {
		c.Output.PublicPath = "/"
	}
	if c.Output.Clean == nil {
		c.Output.Clean = boolPtr(true)
	}

	// CSS
	if c.CSS.Filename == "" {
		c.CSS.Filename = "styles/style.[hash:8].css"
	}

	// Images
	if len(c.Images.Extensions) == 0 {
		c.Images.Extensions = []string{".gif", ".jpg", ".jpeg", ".png", ".svg"}
	}
	if c.Images.InlineLimit == 0 {
		c.Images.InlineLimit = DefaultInlineLimit
	}
	if c.Images.Filename == "" {
		c.Images.Filename = "assets/images/[name].[hash:5].[ext]"
	}

	// HTML
	if c.HTML.Filename == "" {
		c.HTML.Filename = "index.html"
	}
	if c.HTML.Title == "" {
		c.HTML.Title = c.Name
	}
	if c.HTML.Inject == "" {
		c.HTML.Inject = "body"
	}
	if c.HTML.Minify == nil {
		c.HTML.Minify = boolPtr(true)
	}

	// Build
	if c.Build.Minify == nil {
		c.Build.Minify = boolPtr(true)
	}
	if c.Build.SplitVendor == nil {
		c.Build.SplitVendor = boolPtr(true)
	}
	if c.Build.Target == "" {
		c.Build.Target = "es2017"
	}

	// Dev
	if c.Dev.Host == "" {
		c.Dev.Host = DefaultHost
	}
	if c.Dev.Port == 0 {
		c.Dev.Port = DefaultPort
	}
	if c.Dev.Hot == nil {
		c.Dev.Hot = boolPtr(true)
	}
	if c.Dev.Overlay == nil {
		c.Dev.Overlay = boolPtr(true)
	}
	if c.Dev.OutDir == "" {
		c.Dev.OutDir = DefaultDevOutput
	}
	if c.Dev.Filename == "" {
		c.Dev.Filename = "bundle.[hash:8].js"
	}
	if c.Dev.Watch == nil {
		c.Dev.Watch = []string{"web"}
	}

	// Serve
	if c.Serve.Port == 0 {
		c.Serve.Port = DefaultServePort
	}
	if c.Serve.Metrics == nil {
		c.Serve.Metrics = boolPtr(true)
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Mode != ModeDevelopment && c.Mode != ModeProduction {
		return errors.New("E103").WithDetail("Unknown mode " + strconv.Quote(string(c.Mode)))
	}
	if c.Dev.Port < 0 || c.Dev.Port > 65535 {
		return errors.New("E102").WithDetail("dev.port " + strconv.Itoa(c.Dev.Port) + " is out of range")
	}
	if c.Serve.Port < 0 || c.Serve.Port > 65535 {
		return errors.New("E102").WithDetail("serve.port " + strconv.Itoa(c.Serve.Port) + " is out of range")
	}
	if c.HTML.Inject != "head" && c.HTML.Inject != "body" {
		return errors.New("E105").WithDetail("Got " + strconv.Quote(c.HTML.Inject))
	}
	root := c.Root()
	outputs := []struct{ key, dir string }{
		{"output.dir", c.Output.Dir},
		{"dev.outDir", c.Dev.OutDir},
	}
	for _, out := range outputs {
		if !Within(root, c.resolve(out.dir)) {
			return errors.New("E108").
				WithDetail(out.key + " " + strconv.Quote(out.dir) + " is not inside " + root).
				WithSuggestion("Use a dedicated directory such as dist")
		}
	}
	return nil
}

// Root returns the absolute project directory.
func (c *Config) Root() string {
	dir := c.Dir()
	if dir == "" {
		dir = "."
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return dir
	}
	return abs
}

// Within reports whether target lies strictly below root. The root itself
// and anything outside it, including its ancestors, are not within.
func Within(root, target string) bool {
	root, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	target, err = filepath.Abs(target)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// IsDev reports whether the configuration is in development mode.
func (c *Config) IsDev() bool {
	return c.Mode == ModeDevelopment
}

// BundleFilename returns the entry naming pattern for the current mode.
func (c *Config) BundleFilename() string {
	if c.IsDev() {
		return c.Dev.Filename
	}
	return c.Output.Filename
}

// ExtractCSS reports whether stylesheets are written to separate files.
func (c *Config) ExtractCSS() bool {
	if c.CSS.Extract != nil {
		return *c.CSS.Extract
	}
	return !c.IsDev()
}

// Minify reports whether bundles are minified.
func (c *Config) Minify() bool {
	return !c.IsDev() && *c.Build.Minify
}

// MinifyHTML reports whether the generated document is minified.
func (c *Config) MinifyHTML() bool {
	return !c.IsDev() && *c.HTML.Minify
}

// SplitVendor reports whether shared code is split into chunks.
func (c *Config) SplitVendor() bool {
	return !c.IsDev() && *c.Build.SplitVendor
}

// HotReload reports whether browsers reload after rebuilds.
func (c *Config) HotReload() bool {
	return c.IsDev() && *c.Dev.Hot
}

// ErrorOverlay reports whether build errors are shown in the browser.
func (c *Config) ErrorOverlay() bool {
	return c.IsDev() && *c.Dev.Overlay
}

// MetricsEnabled reports whether the production server exposes /metrics.
func (c *Config) MetricsEnabled() bool {
	return *c.Serve.Metrics
}

// CleanOutput reports whether the output directory is cleaned before a build.
func (c *Config) CleanOutput() bool {
	return *c.Output.Clean
}

// DevAddress returns the address the dev server listens on.
func (c *Config) DevAddress() string {
	return c.Dev.Host + ":" + strconv.Itoa(c.Dev.Port)
}

// DevURL returns a browsable URL for the dev server.
func (c *Config) DevURL() string {
	host := c.Dev.Host
	if host == "0.0.0.0" || host == "" {
		host = "localhost"
	}
	return "http://" + host + ":" + strconv.Itoa(c.Dev.Port)
}

// ServeAddress returns the address the production server listens on.
func (c *Config) ServeAddress() string {
	return c.Serve.Host + ":" + strconv.Itoa(c.Serve.Port)
}

// OutputPath returns the absolute path of the output directory for the
// current mode.
func (c *Config) OutputPath() string {
	if c.IsDev() {
		return c.resolve(c.Dev.OutDir)
	}
	return c.resolve(c.Output.Dir)
}

// EntryPath returns the absolute path of the entry point.
func (c *Config) EntryPath() string {
	return c.resolve(c.Entry)
}

// TemplatePath returns the absolute path of the document template.
func (c *Config) TemplatePath() string {
	return c.resolve(c.Template)
}

// FaviconPath returns the absolute path of the favicon, or "".
func (c *Config) FaviconPath() string {
	if c.HTML.Favicon == "" {
		return ""
	}
	return c.resolve(c.HTML.Favicon)
}

// WatchPaths returns the absolute paths watched by the dev server.
func (c *Config) WatchPaths() []string {
	paths := make([]string, 0, len(c.Dev.Watch))
	for _, p := range c.Dev.Watch {
		paths = append(paths, c.resolve(p))
	}
	return paths
}

func (c *Config) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range []string{ConfigFileName, TOMLConfigFileName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// FindProjectRoot walks up directories to find the project root.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E104").
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory
// or the closest parent containing one.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}

func boolPtr(b bool) *bool {
	return &b
}
