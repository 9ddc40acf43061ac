// Package assembler turns a flat list of directory paths into a Node tree.
package assembler

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/harrison/nuxview/internal/models"
)

// ErrRootMissing is returned when the root path is not among the listed paths,
// either because it was filtered out or because it was never enumerated.
var ErrRootMissing = errors.New("root directory missing from enumeration")

// Assemble builds the tree rooted at rootPath from paths.
//
// Paths are processed shortest first, which places every parent before its
// descendants. A path whose parent was never materialized (because the parent
// was excluded) is dropped together with everything under it.
//
// When maxDepth > 0, nodes shallower than maxDepth are expanded (their
// Children slice is non-nil) and paths deeper than maxDepth are never
// materialized: they only mark their depth-limit ancestor's HasChildren hint.
// A node at maxDepth stays unexpanded only when it has such a hint; without
// one it is a leaf and gets an empty Children slice.
func Assemble(paths []string, rootPath string, maxDepth int) (*models.Node, error) {
	rootPath = filepath.Clean(rootPath)

	ordered := make([]string, 0, len(paths))
	for _, p := range paths {
		if p == "" {
			continue
		}
		ordered = append(ordered, filepath.Clean(p))
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		return len(ordered[i]) < len(ordered[j])
	})

	nodes := make(map[string]*models.Node, len(ordered))
	depths := make(map[string]int, len(ordered))
	var root *models.Node

	for _, p := range ordered {
		if _, seen := nodes[p]; seen {
			continue
		}
		if p == rootPath {
			root = models.NewDirectory(p)
			nodes[p] = root
			depths[p] = 0
			expand(root, 0, maxDepth)
			continue
		}

		parent, ok := nodes[filepath.Dir(p)]
		if !ok {
			continue
		}
		depth := depths[parent.Path] + 1
		parent.HasChildren = true
		if maxDepth > 0 && depth > maxDepth {
			continue
		}

		node := models.NewDirectory(p)
		nodes[p] = node
		depths[p] = depth
		expand(node, depth, maxDepth)
		parent.Children = append(parent.Children, node)
	}

	if root == nil {
		return nil, fmt.Errorf("assemble %s: %w", rootPath, ErrRootMissing)
	}

	for p, node := range nodes {
		if maxDepth > 0 && depths[p] == maxDepth && !node.HasChildren {
			node.Children = []*models.Node{}
		}
		node.SortChildren()
	}
	return root, nil
}

func expand(node *models.Node, depth, maxDepth int) {
	if maxDepth <= 0 || depth < maxDepth {
		node.Children = []*models.Node{}
	}
}

// Depth returns the number of path segments separating path from root, or -1
// when path is not root or a descendant of it.
func Depth(root, path string) int {
	root = filepath.Clean(root)
	path = filepath.Clean(path)
	if path == root {
		return 0
	}
	prefix := root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	if !strings.HasPrefix(path, prefix) {
		return -1
	}
	rel := strings.TrimPrefix(path, prefix)
	return strings.Count(rel, string(filepath.Separator)) + 1
}
