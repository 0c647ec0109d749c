package main

import (
	"bytes"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCommands(t *testing.T) {
	want := []string{"build", "deploy", "dev", "routes", "serve", "version"}
	var got []string
	for _, c := range newRootCmd().Commands() {
		got = append(got, c.Name())
	}
	for _, name := range want {
		found := false
		for _, g := range got {
			if g == name {
				found = true
			}
		}
		if !found {
			t.Errorf("command %q not registered (have %v)", name, got)
		}
	}
}

func TestRoutesCmd(t *testing.T) {
	out, err := execute(t, "routes")
	if err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 5 {
		t.Fatalf("output:\n%s", out)
	}
	wants := [][]string{
		{"NAME", "PATH"},
		{"home", "/"},
		{"trade", "/trade"},
		{"user", "/user"},
		{"not-found", "*"},
	}
	for i, want := range wants {
		if fields := strings.Fields(lines[i]); strings.Join(fields, " ") != strings.Join(want, " ") {
			t.Errorf("line %d = %q, want %v", i, lines[i], want)
		}
	}
}

func TestRoutesCmd_Resolve(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/", "/ -> home (found)"},
		{"/trade", "/trade -> trade (found)"},
		{"/user/", "/user/ -> user (redirect to /user)"},
		{"/unknown-path", "/unknown-path -> not-found (not found)"},
	}
	for _, tt := range tests {
		out, err := execute(t, "routes", "--resolve", tt.path)
		if err != nil {
			t.Fatalf("%s: %v", tt.path, err)
		}
		if got := strings.TrimSpace(out); got != tt.want {
			t.Errorf("resolve %s = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.in); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, "version", "--short")
	if err != nil {
		t.Fatal(err)
	}
	if out != version+"\n" {
		t.Errorf("short = %q", out)
	}

	out, err = execute(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out, "scaffold "+version) || !strings.Contains(out, "esbuild") {
		t.Errorf("version output:\n%s", out)
	}
}
