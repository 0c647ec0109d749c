package build

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// imagePlugin inlines images smaller than limit as data URLs and emits the
// rest as files named by the asset pattern.
func imagePlugin(extensions []string, limit int64) api.Plugin {
	return api.Plugin{
		Name: "scaffold-images",
		Setup: func(build api.PluginBuild) {
			build.OnLoad(api.OnLoadOptions{Filter: extensionFilter(extensions)},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					data, err := os.ReadFile(args.Path)
					if err != nil {
						return api.OnLoadResult{}, err
					}
					contents := string(data)
					loader := api.LoaderFile
					if int64(len(data)) < limit {
						loader = api.LoaderDataURL
					}
					return api.OnLoadResult{Contents: &contents, Loader: loader}, nil
				})
		},
	}
}

// styleInjectPlugin turns stylesheet imports into modules that append a
// <style> element, so development builds need no separate CSS file.
func styleInjectPlugin() api.Plugin {
	return api.Plugin{
		Name: "scaffold-style-inject",
		Setup: func(build api.PluginBuild) {
			build.OnLoad(api.OnLoadOptions{Filter: `\.css$`},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					data, err := os.ReadFile(args.Path)
					if err != nil {
						return api.OnLoadResult{}, err
					}
					contents, err := styleModule(args.Path, string(data))
					if err != nil {
						return api.OnLoadResult{}, err
					}
					return api.OnLoadResult{Contents: &contents, Loader: api.LoaderJS}, nil
				})
		},
	}
}

func styleModule(source, css string) (string, error) {
	cssJSON, err := json.Marshal(css)
	if err != nil {
		return "", err
	}
	sourceJSON, err := json.Marshal(source)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`const css = %s;
const el = document.createElement("style");
el.setAttribute("data-source", %s);
el.textContent = css;
document.head.appendChild(el);
export default css;
`, cssJSON, sourceJSON), nil
}

// extensionFilter builds an esbuild filter matching any of extensions.
func extensionFilter(extensions []string) string {
	quoted := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		ext = strings.TrimPrefix(strings.ToLower(ext), ".")
		if ext != "" {
			quoted = append(quoted, regexp.QuoteMeta(ext))
		}
	}
	return `(?i)\.(` + strings.Join(quoted, "|") + `)$`
}
