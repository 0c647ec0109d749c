package routepath

import (
	"errors"
	"testing"
)

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantPath    string
		wantQuery   string
		wantChanged bool
		wantErr     error
	}{
		{name: "root", input: "/", wantPath: "/"},
		{name: "empty", input: "", wantPath: "/", wantChanged: true},
		{name: "literal route", input: "/trade", wantPath: "/trade"},
		{name: "no leading slash", input: "user", wantPath: "/user", wantChanged: true},
		{name: "trailing slash", input: "/trade/", wantPath: "/trade", wantChanged: true},
		{name: "collapse slashes", input: "//user", wantPath: "/user", wantChanged: true},
		{name: "single dot", input: "/./trade", wantPath: "/trade", wantChanged: true},
		{name: "double dot", input: "/user/../trade", wantPath: "/trade", wantChanged: true},
		{name: "double dot to root", input: "/trade/..", wantPath: "/", wantChanged: true},
		{name: "query preserved", input: "/trade?pair=btc", wantPath: "/trade", wantQuery: "pair=btc"},
		{name: "valid escape", input: "/user%20list", wantPath: "/user%20list"},
		{name: "backslash", input: "/trade\\x", wantErr: ErrBackslashInPath},
		{name: "literal nul", input: "/trade\x00", wantErr: ErrNullByteInPath},
		{name: "encoded nul", input: "/trade%00", wantErr: ErrNullByteInPath},
		{name: "bad escape", input: "/trade%G1", wantErr: ErrInvalidPercentEscape},
		{name: "truncated escape", input: "/trade%2", wantErr: ErrInvalidPercentEscape},
		{name: "escapes root", input: "/../etc/passwd", wantErr: ErrPathEscapesRoot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Canonicalize(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Canonicalize(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Canonicalize(%q) unexpected error: %v", tt.input, err)
			}
			if got.Path != tt.wantPath {
				t.Errorf("Path = %q, want %q", got.Path, tt.wantPath)
			}
			if got.Query != tt.wantQuery {
				t.Errorf("Query = %q, want %q", got.Query, tt.wantQuery)
			}
			if got.Changed != tt.wantChanged {
				t.Errorf("Changed = %v, want %v", got.Changed, tt.wantChanged)
			}
		})
	}
}

func TestResultURL(t *testing.T) {
	if got := (Result{Path: "/user"}).URL(); got != "/user" {
		t.Errorf("URL() = %q", got)
	}
	if got := (Result{Path: "/user", Query: "tab=orders"}).URL(); got != "/user?tab=orders" {
		t.Errorf("URL() = %q", got)
	}
}

func TestIsCanonical(t *testing.T) {
	tests := map[string]bool{
		"/":       true,
		"/trade":  true,
		"/trade/": false,
		"trade":   false,
		"":        false,
		"/a?b=c":  false,
		"/a//b":   false,
	}
	for path, want := range tests {
		if got := IsCanonical(path); got != want {
			t.Errorf("IsCanonical(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestValidateNavigation(t *testing.T) {
	tests := []struct {
		target  string
		want    string
		wantErr bool
	}{
		{target: "/trade", want: "/trade"},
		{target: "/user/?tab=1", want: "/user?tab=1"},
		{target: "https://evil.example/", wantErr: true},
		{target: "//evil.example", wantErr: true},
		{target: "trade", wantErr: true},
		{target: "/../x", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ValidateNavigation(tt.target)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ValidateNavigation(%q) expected error, got %q", tt.target, got)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ValidateNavigation(%q) = %q, %v; want %q", tt.target, got, err, tt.want)
		}
	}
}
