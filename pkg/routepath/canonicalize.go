// Package routepath normalizes request paths before they are matched against
// the route table.
//
// Canonical paths start with "/", contain no empty, "." or ".." segments and
// carry no trailing slash (except the root). Paths that cannot be normalized
// safely are rejected rather than repaired.
package routepath

import (
	"errors"
	"strings"
)

// Result is a canonicalized path.
type Result struct {
	// Path is the canonical path, without query string.
	Path string

	// Query is the raw query string, without the leading "?".
	Query string

	// Changed reports whether Path differs from the input path.
	Changed bool
}

// URL returns the canonical path with its query string.
func (r Result) URL() string {
	if r.Query == "" {
		return r.Path
	}
	return r.Path + "?" + r.Query
}

// Path canonicalization errors.
var (
	ErrInvalidPath          = errors.New("invalid path")
	ErrBackslashInPath      = errors.New("path contains backslash")
	ErrNullByteInPath       = errors.New("path contains null byte")
	ErrInvalidPercentEscape = errors.New("invalid percent escape sequence")
	ErrPathEscapesRoot      = errors.New("path escapes root via ..")
)

// Canonicalize normalizes a request path.
//
// Applied transformations:
//   - a missing leading slash is added
//   - repeated slashes collapse (/user//x → /user/x)
//   - "." segments are dropped, ".." segments pop their parent
//   - a trailing slash is removed, except for "/"
//
// Rejected inputs: backslashes, NUL bytes (literal or %00), malformed
// percent escapes and ".." segments that would climb above the root.
// A query string is split off and returned untouched.
func Canonicalize(input string) (Result, error) {
	if input == "" {
		return Result{Path: "/", Changed: true}, nil
	}

	raw, query := SplitPathAndQuery(input)

	if strings.Contains(raw, "\\") {
		return Result{}, ErrBackslashInPath
	}
	if strings.IndexByte(raw, 0) != -1 || strings.Contains(strings.ToUpper(raw), "%00") {
		return Result{}, ErrNullByteInPath
	}
	if strings.Contains(raw, "%") {
		if err := validateEscapes(raw); err != nil {
			return Result{}, err
		}
	}

	segments := make([]string, 0, strings.Count(raw, "/")+1)
	for _, seg := range strings.Split(raw, "/") {
		switch seg {
		case "", ".":
		case "..":
			if len(segments) == 0 {
				return Result{}, ErrPathEscapesRoot
			}
			segments = segments[:len(segments)-1]
		default:
			segments = append(segments, seg)
		}
	}

	path := "/" + strings.Join(segments, "/")
	return Result{
		Path:    path,
		Query:   query,
		Changed: path != raw,
	}, nil
}

// IsCanonical reports whether path is already in canonical form.
func IsCanonical(path string) bool {
	if path == "" || strings.Contains(path, "?") {
		return false
	}
	res, err := Canonicalize(path)
	return err == nil && !res.Changed
}

// ValidateNavigation canonicalizes a client-side navigation target.
// Targets must be site-relative: absolute and protocol-relative URLs are
// rejected so a navigation request can never leave the origin.
func ValidateNavigation(target string) (string, error) {
	if strings.HasPrefix(target, "//") || !strings.HasPrefix(target, "/") {
		return "", ErrInvalidPath
	}
	res, err := Canonicalize(target)
	if err != nil {
		return "", err
	}
	return res.URL(), nil
}

// SplitPathAndQuery splits input at the first "?".
func SplitPathAndQuery(input string) (path, query string) {
	path, query, _ = strings.Cut(input, "?")
	return path, query
}

func validateEscapes(path string) error {
	for i := 0; i < len(path); i++ {
		if path[i] != '%' {
			continue
		}
		if i+2 >= len(path) || !isHex(path[i+1]) || !isHex(path[i+2]) {
			return ErrInvalidPercentEscape
		}
		i += 2
	}
	return nil
}

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
