package assets

// Resolver turns logical asset names into URLs.
type Resolver interface {
	// Asset resolves source to its URL path, prefix included.
	Asset(source string) string

	// Has reports whether source is known. Passthrough resolvers know
	// every name.
	Has(source string) bool
}

type manifestResolver struct {
	manifest *Manifest
	prefix   string
}

// NewResolver creates a Resolver backed by a manifest. The prefix is the
// public path the output directory is served under, usually "/".
func NewResolver(m *Manifest, prefix string) Resolver {
	return &manifestResolver{
		manifest: m,
		prefix:   prefix,
	}
}

func (r *manifestResolver) Asset(source string) string {
	return r.prefix + r.manifest.Resolve(source)
}

func (r *manifestResolver) Has(source string) bool {
	return r.manifest.Has(source)
}

type passthrough struct {
	prefix string
}

// NewPassthroughResolver creates a resolver that returns names unchanged
// behind prefix. Useful when assets are not fingerprinted.
func NewPassthroughResolver(prefix string) Resolver {
	return &passthrough{prefix: prefix}
}

func (p *passthrough) Asset(source string) string {
	return p.prefix + source
}

func (p *passthrough) Has(string) bool {
	return true
}
