// Package build bundles the browser sources with esbuild.
//
// This package handles:
//   - JavaScript bundling, minification and code splitting
//   - Stylesheets: extracted to a fingerprinted file in production,
//     injected by the bundle in development
//   - Images: inlined as data URLs below the configured size limit,
//     emitted as fingerprinted files otherwise
//   - The asset manifest consumed by pkg/assets
//   - Prerendered documents for every route
//
// # Usage
//
//	builder := build.New(cfg, build.Options{})
//	defer builder.Close()
//
//	result, err := builder.Build(ctx)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("Built %d files in %s\n", len(result.Files), result.Duration)
//
// Nothing is written when the bundler reports errors; the previous output
// stays in place.
//
// # Output Structure
//
//	dist/
//	├── index.html                  # Prerendered documents
//	├── trade/index.html
//	├── 404.html
//	├── main.Q2ZTA5XJ.js            # Entry bundle
//	├── chunks/chunk.HG4KQ7TA.js    # Shared code
//	├── styles/style.3f9a1c0e.css   # Extracted stylesheet
//	├── assets/images/fe.7ZK2MQ4B.svg
//	└── manifest.json               # Asset manifest
//
// # Manifest
//
// The manifest maps logical names to emitted files:
//
//	{
//	  "main.js": "main.Q2ZTA5XJ.js",
//	  "main.css": "styles/style.3f9a1c0e.css",
//	  "assets/images/logo.png": "assets/images/logo.7ZK2MQ4B.png"
//	}
package build
