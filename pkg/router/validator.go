package router

import (
	"fmt"
	"strings"

	"github.com/vango-dev/scaffold/pkg/routepath"
)

// ValidationErrorType categorizes route table errors.
type ValidationErrorType string

const (
	ErrorEmptyPath      ValidationErrorType = "EMPTY_PATH"
	ErrorRelativePath   ValidationErrorType = "RELATIVE_PATH"
	ErrorNonCanonical   ValidationErrorType = "NON_CANONICAL_PATH"
	ErrorPatternSegment ValidationErrorType = "PATTERN_SEGMENT"
	ErrorEmptyName      ValidationErrorType = "EMPTY_NAME"
	ErrorDuplicatePath  ValidationErrorType = "DUPLICATE_PATH"
	ErrorDuplicateName  ValidationErrorType = "DUPLICATE_NAME"
	ErrorNilComponent   ValidationErrorType = "NIL_COMPONENT"
)

// ValidationError describes one invalid route.
type ValidationError struct {
	Type ValidationErrorType

	// Index is the position of the offending route in the table.
	Index int

	// Path and Name identify the offending route.
	Path string
	Name string

	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: route %d (%q, %q): %s", e.Type, e.Index, e.Name, e.Path, e.Message)
}

// ValidationErrors collects every problem found in a table.
type ValidationErrors struct {
	Errors []ValidationError
}

func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d route table errors:", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  %d. %s", i+1, err.Error())
	}
	return sb.String()
}

// Has reports whether an error of type typ was collected.
func (e *ValidationErrors) Has(typ ValidationErrorType) bool {
	for _, err := range e.Errors {
		if err.Type == typ {
			return true
		}
	}
	return false
}

// validate checks a table for the invariants New relies on.
func validate(routes []Route) error {
	var errs []ValidationError
	add := func(typ ValidationErrorType, i int, r Route, msg string) {
		errs = append(errs, ValidationError{Type: typ, Index: i, Path: r.Path, Name: r.Name, Message: msg})
	}

	paths := make(map[string]int, len(routes))
	names := make(map[string]int, len(routes))

	for i, r := range routes {
		switch {
		case r.Path == "":
			add(ErrorEmptyPath, i, r, "path is empty")
		case !strings.HasPrefix(r.Path, "/"):
			add(ErrorRelativePath, i, r, "path must start with /")
		case !routepath.IsCanonical(r.Path):
			add(ErrorNonCanonical, i, r, "path is not canonical")
		case hasPatternSegment(r.Path):
			add(ErrorPatternSegment, i, r, "parameter and wildcard segments are not supported")
		}

		if r.Name == "" {
			add(ErrorEmptyName, i, r, "name is empty")
		}
		if r.Component == nil {
			add(ErrorNilComponent, i, r, "component is nil")
		}

		if r.Path != "" {
			if j, ok := paths[r.Path]; ok {
				add(ErrorDuplicatePath, i, r, fmt.Sprintf("path already used by route %d", j))
			} else {
				paths[r.Path] = i
			}
		}
		if r.Name != "" {
			if j, ok := names[r.Name]; ok {
				add(ErrorDuplicateName, i, r, fmt.Sprintf("name already used by route %d", j))
			} else {
				names[r.Name] = i
			}
		}
	}

	if len(errs) > 0 {
		return &ValidationErrors{Errors: errs}
	}
	return nil
}

func hasPatternSegment(path string) bool {
	for _, seg := range splitPath(path) {
		if strings.HasPrefix(seg, ":") || strings.HasPrefix(seg, "*") {
			return true
		}
	}
	return false
}
