package build

import (
	"bytes"
	"os"
	"regexp"

	"github.com/vango-dev/scaffold/internal/config"
	"github.com/vango-dev/scaffold/internal/errors"
	"github.com/vango-dev/scaffold/pkg/shell"
)

// LoadDocument parses the project's document template. Projects without
// one use the embedded document.
func LoadDocument(cfg *config.Config) (*shell.Document, error) {
	path := cfg.TemplatePath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return shell.DefaultDocument(), nil
	}
	doc, err := shell.ParseDocumentFile(path)
	if err != nil {
		return nil, errors.New("E203").WithDetail(path).Wrap(err)
	}
	return doc, nil
}

var (
	interTagSpace = regexp.MustCompile(`>\s*\n\s*<`)
	rawBlock      = regexp.MustCompile(`(?is)<pre\b.*?</pre>|<textarea\b.*?</textarea>|<script\b.*?</script>|<style\b.*?</style>`)
)

// CollapseWhitespace removes line breaks and indentation between tags.
// The contents of pre, textarea, script and style elements are kept.
func CollapseWhitespace(html []byte) []byte {
	var out bytes.Buffer
	out.Grow(len(html))

	last := 0
	for _, loc := range rawBlock.FindAllIndex(html, -1) {
		out.Write(interTagSpace.ReplaceAll(html[last:loc[0]], []byte("><")))
		out.Write(html[loc[0]:loc[1]])
		last = loc[1]
	}
	out.Write(interTagSpace.ReplaceAll(html[last:], []byte("><")))
	return bytes.TrimSpace(out.Bytes())
}

// WritePages writes prerendered documents below dir.
func WritePages(dir string, pages []shell.Page, minify bool) ([]OutputFile, error) {
	files := make([]OutputFile, 0, len(pages))
	for _, p := range pages {
		html := p.HTML
		if minify {
			html = CollapseWhitespace(html)
		}
		if err := writeFile(dir, p.File, html); err != nil {
			return nil, err
		}
		files = append(files, OutputFile{Path: p.File, Size: int64(len(html))})
	}
	return files, nil
}
