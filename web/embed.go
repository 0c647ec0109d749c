// Package web holds the browser sources and the host document template.
//
// The Go side only embeds public/index.html, the default document the
// application shell renders pages into. Everything under src/ is bundled
// by 'scaffold build' and 'scaffold dev'.
package web

import "embed"

// DocumentPath is the path of the host document inside Public.
const DocumentPath = "public/index.html"

// Public contains the host document template.
//
//go:embed public/index.html
var Public embed.FS
