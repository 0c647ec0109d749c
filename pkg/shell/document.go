package shell

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/vango-dev/scaffold/web"
)

// Inject positions for script tags.
const (
	InjectHead = "head"
	InjectBody = "body"
)

// Document is the host document pages are mounted into.
type Document struct {
	tmpl *template.Template
}

// DocumentData is the data a Document template is executed with.
type DocumentData struct {
	// Title is the document title.
	Title string

	// Lang is the BCP 47 language of the page.
	Lang string

	// MountID is the id of the mount point element, without "#".
	MountID string

	// Route is the name of the rendered route.
	Route string

	// Body is the rendered page markup placed inside the mount point.
	Body template.HTML

	// Styles and Scripts are stylesheet and module script URLs.
	Styles  []string
	Scripts []string

	// Inject is InjectHead or InjectBody.
	Inject string

	// Favicon is the favicon URL, if any.
	Favicon string

	// ReloadURL is the path of the dev reload socket. Empty outside dev.
	ReloadURL string

	// Overlay shows build errors in the page instead of the console.
	Overlay bool
}

// ParseDocument parses a document template.
func ParseDocument(name, text string) (*Document, error) {
	tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, fmt.Errorf("shell: parse document %s: %w", name, err)
	}
	return &Document{tmpl: tmpl}, nil
}

// ParseDocumentFS parses the document template at name in fsys.
func ParseDocumentFS(fsys fs.FS, name string) (*Document, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("shell: read document: %w", err)
	}
	return ParseDocument(name, string(data))
}

// ParseDocumentFile parses the document template at path on disk.
func ParseDocumentFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("shell: read document: %w", err)
	}
	return ParseDocument(path, string(data))
}

// DefaultDocument returns the embedded host document.
func DefaultDocument() *Document {
	doc, err := ParseDocumentFS(web.Public, web.DocumentPath)
	if err != nil {
		panic(err)
	}
	return doc
}

// Execute writes the document for data to w.
func (d *Document) Execute(w io.Writer, data *DocumentData) error {
	return d.tmpl.Execute(w, data)
}

// HasMountPoint reports whether the document renders an element with the
// given id.
func (d *Document) HasMountPoint(id string) bool {
	var buf bytes.Buffer
	probe := &DocumentData{MountID: id, Inject: InjectBody}
	if err := d.Execute(&buf, probe); err != nil {
		return false
	}
	html := buf.String()
	return strings.Contains(html, `id="`+id+`"`) || strings.Contains(html, `id='`+id+`'`)
}
