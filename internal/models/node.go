package models

import (
	"encoding/json"
	"path/filepath"
	"sort"
	"strings"
)

// KindDirectory is the only node kind produced by a scan.
const KindDirectory = "directory"

// Node represents one directory in a scanned tree.
//
// Children distinguishes three states: nil means the node has children that
// were not expanded (depth limit or lazy mode), an empty non-nil slice means it
// has no permitted children, and a populated slice holds the expanded children.
// HasChildren is a hint that at least one permitted child directory exists,
// whether or not Children was populated.
type Node struct {
	Name        string
	Path        string
	Kind        string
	Children    []*Node
	HasChildren bool
}

// nodeJSON is the stable wire format for a Node.
type nodeJSON struct {
	Name        string   `json:"name"`
	Path        string   `json:"path"`
	Kind        string   `json:"kind"`
	Children    *[]*Node `json:"children,omitempty"`
	HasChildren bool     `json:"hasChildren"`
}

// NewDirectory creates an unexpanded directory node for path.
func NewDirectory(path string) *Node {
	return &Node{
		Name: NodeName(path),
		Path: path,
		Kind: KindDirectory,
	}
}

// NodeName returns the final path segment of path, or the path itself when it
// has no parent segment (a filesystem root such as "/").
func NodeName(path string) string {
	name := filepath.Base(path)
	if name == "." || name == string(filepath.Separator) || name == "" {
		return path
	}
	if vol := filepath.VolumeName(path); vol != "" && strings.TrimPrefix(path, vol) == string(filepath.Separator) {
		return path
	}
	return name
}

// Expanded reports whether the node's children were populated.
func (n *Node) Expanded() bool {
	return n.Children != nil
}

// SortChildren orders the node's children case-insensitively by name. Ties
// are broken by the exact name so the order is fully deterministic.
func (n *Node) SortChildren() {
	sort.Slice(n.Children, func(i, j int) bool {
		a, b := strings.ToLower(n.Children[i].Name), strings.ToLower(n.Children[j].Name)
		if a != b {
			return a < b
		}
		return n.Children[i].Name < n.Children[j].Name
	})
}

// Count returns the number of nodes in the subtree rooted at n.
func (n *Node) Count() int {
	if n == nil {
		return 0
	}
	count := 1
	for _, child := range n.Children {
		count += child.Count()
	}
	return count
}

// Walk visits every node in the subtree depth-first, parents before children.
// depth is 0 for n itself.
func (n *Node) Walk(fn func(node *Node, depth int)) {
	n.walk(fn, 0)
}

func (n *Node) walk(fn func(node *Node, depth int), depth int) {
	if n == nil {
		return
	}
	fn(n, depth)
	for _, child := range n.Children {
		child.walk(fn, depth+1)
	}
}

// Shallow returns a copy of n whose children are present but unexpanded.
// Children known to be leaves keep their empty Children slice. It is used to
// serve the top of a cached tree without exposing deeper levels.
func (n *Node) Shallow() *Node {
	out := &Node{
		Name:        n.Name,
		Path:        n.Path,
		Kind:        n.Kind,
		HasChildren: n.HasChildren,
	}
	if n.Children == nil {
		return out
	}
	out.Children = make([]*Node, 0, len(n.Children))
	for _, child := range n.Children {
		c := &Node{
			Name:        child.Name,
			Path:        child.Path,
			Kind:        child.Kind,
			HasChildren: child.HasChildren,
		}
		if child.Children != nil && len(child.Children) == 0 {
			c.Children = []*Node{}
		}
		out.Children = append(out.Children, c)
	}
	return out
}

// MarshalJSON encodes the node, omitting "children" for unexpanded nodes and
// writing an empty array for expanded nodes with no children.
func (n *Node) MarshalJSON() ([]byte, error) {
	out := nodeJSON{
		Name:        n.Name,
		Path:        n.Path,
		Kind:        n.Kind,
		HasChildren: n.HasChildren,
	}
	if n.Children != nil {
		children := n.Children
		out.Children = &children
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a node, preserving the expanded/unexpanded distinction.
func (n *Node) UnmarshalJSON(data []byte) error {
	var in nodeJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	n.Name = in.Name
	n.Path = in.Path
	n.Kind = in.Kind
	if n.Kind == "" {
		n.Kind = KindDirectory
	}
	n.HasChildren = in.HasChildren
	n.Children = nil
	if in.Children != nil {
		n.Children = *in.Children
		if n.Children == nil {
			n.Children = []*Node{}
		}
	}
	return nil
}
