package router

import (
	"reflect"
	"testing"
)

func TestSplitPath(t *testing.T) {
	tests := []struct {
		path string
		want []string
	}{
		{"/", nil},
		{"", nil},
		{"/trade", []string{"trade"}},
		{"/user/orders/", []string{"user", "orders"}},
	}
	for _, tt := range tests {
		if got := splitPath(tt.path); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("splitPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestNodeInsertReusesChildren(t *testing.T) {
	root := newNode("")
	a := root.insert("/user/orders")
	b := root.insert("/user/orders")
	if a != b {
		t.Error("insert should return the existing node")
	}
	root.insert("/user/settings")
	if len(root.children) != 1 {
		t.Fatalf("len(root.children) = %d, want 1", len(root.children))
	}
	if got := len(root.child("user").children); got != 2 {
		t.Errorf("len(user.children) = %d, want 2", got)
	}
}

func TestNodeLookup(t *testing.T) {
	root := newNode("")
	root.insert("/").route = 0
	root.insert("/trade").route = 1
	root.insert("/user/orders").route = 2

	tests := []struct {
		path string
		want int
	}{
		{"/", 0},
		{"/trade", 1},
		{"/user/orders", 2},
		{"/user", -1}, // intermediate node without a route
		{"/trade/x", -1},
		{"/tra", -1},
		{"/unknown-path", -1},
	}
	for _, tt := range tests {
		if got := root.lookup(tt.path); got != tt.want {
			t.Errorf("lookup(%q) = %d, want %d", tt.path, got, tt.want)
		}
	}
}
