package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Configuration Errors (E100-E199)
	// ============================================

	"E101": {
		Category: CategoryConfig,
		Message:  "Invalid configuration file",
		Detail:   "The configuration file could not be parsed.",
	},
	"E102": {
		Category: CategoryConfig,
		Message:  "Invalid port",
		Detail:   "Port must be between 0 and 65535.",
	},
	"E103": {
		Category: CategoryConfig,
		Message:  "Invalid mode",
		Detail:   "Mode must be either \"development\" or \"production\".",
	},
	"E104": {
		Category: CategoryConfig,
		Message:  "Configuration not found",
		Detail:   "No scaffold.json or scaffold.toml was found.",
	},
	"E105": {
		Category: CategoryConfig,
		Message:  "Invalid HTML inject position",
		Detail:   "html.inject must be \"head\" or \"body\".",
	},
	"E106": {
		Category: CategoryConfig,
		Message:  "Failed to write configuration",
	},
	"E107": {
		Category: CategoryConfig,
		Message:  "Failed to load environment file",
	},
	"E108": {
		Category: CategoryConfig,
		Message:  "Invalid output directory",
		Detail:   "Output directories are cleaned before every build and must lie inside the project.",
	},

	// ============================================
	// Build Errors (E200-E299)
	// ============================================

	"E201": {
		Category: CategoryBuild,
		Message:  "Bundle failed",
		Detail:   "The bundler reported errors. No output was written.",
	},
	"E202": {
		Category: CategoryBuild,
		Message:  "Failed to write build output",
	},
	"E203": {
		Category: CategoryBuild,
		Message:  "Invalid document template",
	},
	"E204": {
		Category: CategoryBuild,
		Message:  "Invalid asset manifest",
	},
	"E205": {
		Category: CategoryBuild,
		Message:  "Entry point not found",
	},

	// ============================================
	// Routing / Shell Errors (E300-E399)
	// ============================================

	"E301": {
		Category: CategoryRoute,
		Message:  "Invalid route table",
	},
	"E302": {
		Category: CategoryRoute,
		Message:  "Invalid mount point",
		Detail:   "The mount selector must be an element id selector such as \"#app\".",
	},
	"E303": {
		Category: CategoryRender,
		Message:  "Page render failed",
	},

	// ============================================
	// Deploy Errors (E400-E499)
	// ============================================

	"E401": {
		Category: CategoryDeploy,
		Message:  "No deploy bucket configured",
		Detail:   "Set deploy.bucket in the configuration or pass --bucket.",
	},
	"E402": {
		Category: CategoryDeploy,
		Message:  "Upload failed",
	},
	"E403": {
		Category: CategoryDeploy,
		Message:  "Nothing to deploy",
		Detail:   "The output directory is missing or empty. Run 'scaffold build' first.",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
