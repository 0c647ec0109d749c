package router

import "strings"

// node is a node in the static segment tree. Each node matches one literal
// path segment; route is the index into the table of the route that ends at
// this node, or -1.
type node struct {
	segment  string
	route    int
	children []*node
}

func newNode(segment string) *node {
	return &node{segment: segment, route: -1}
}

// child finds a child node with an exact segment match.
func (n *node) child(segment string) *node {
	for _, c := range n.children {
		if c.segment == segment {
			return c
		}
	}
	return nil
}

// insert adds path to the tree and returns its terminal node.
func (n *node) insert(path string) *node {
	current := n
	for _, seg := range splitPath(path) {
		next := current.child(seg)
		if next == nil {
			next = newNode(seg)
			current.children = append(current.children, next)
		}
		current = next
	}
	return current
}

// lookup returns the route index for path, or -1.
func (n *node) lookup(path string) int {
	current := n
	for _, seg := range splitPath(path) {
		current = current.child(seg)
		if current == nil {
			return -1
		}
	}
	return current.route
}

// splitPath splits a canonical path into segments. The root has none.
func splitPath(path string) []string {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}
