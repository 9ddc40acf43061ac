package traversal

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/harrison/nuxview/internal/exclude"
	"github.com/harrison/nuxview/internal/models"
)

// DefaultFanoutDepth is the number of top levels whose children are scanned
// in parallel. Deeper levels recurse serially inside the owning worker.
const DefaultFanoutDepth = 2

// Walker is the portable recursive strategy. Its worker pool is shared by the
// whole traversal and bounded at Workers goroutines; when the pool is full a
// subtree is scanned inline by the goroutine that found it.
type Walker struct {
	Workers     int
	FanoutDepth int
	Logger      Logger

	readDir func(name string) ([]fs.DirEntry, error)
}

// NewWalker creates a Walker. workers <= 0 selects 4 x NumCPU, fanoutDepth
// < 0 selects DefaultFanoutDepth.
func NewWalker(workers, fanoutDepth int, logger Logger) *Walker {
	if workers <= 0 {
		workers = 4 * runtime.NumCPU()
	}
	if fanoutDepth < 0 {
		fanoutDepth = DefaultFanoutDepth
	}
	return &Walker{
		Workers:     workers,
		FanoutDepth: fanoutDepth,
		Logger:      logger,
		readDir:     os.ReadDir,
	}
}

// Name returns models.StrategyWalk.
func (w *Walker) Name() string { return models.StrategyWalk }

// Available is always true.
func (w *Walker) Available() bool { return true }

type walkState struct {
	root     string
	rules    *exclude.RuleSet
	maxDepth int
	progress Progress
	sem      chan struct{}
}

// Traverse walks root up to opts.MaxDepth levels. A directory that cannot be
// listed is kept as a node with no children. Nodes at the depth limit are
// listed but not expanded, so a leaf there still gets an empty Children
// slice. The context is checked before each directory is listed.
func (w *Walker) Traverse(ctx context.Context, root string, opts Options, progress Progress) (*models.Node, error) {
	if progress == nil {
		progress = Discard
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("root %s is not a directory", root)
	}

	workers := w.Workers
	if workers <= 0 {
		workers = 1
	}
	root = filepath.Clean(root)
	st := &walkState{
		root:     root,
		rules:    opts.Rules,
		maxDepth: opts.depth(),
		progress: progress,
		sem:      make(chan struct{}, workers),
	}

	progress.Discovered(1)
	node := w.visit(ctx, st, root, 0)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return node, nil
}

func (w *Walker) visit(ctx context.Context, st *walkState, path string, depth int) *models.Node {
	node := models.NewDirectory(path)
	defer st.progress.Scanned(1)

	if ctx.Err() != nil {
		return node
	}

	children, err := w.listChildren(st.root, path, st.rules)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			logDebug(w.Logger, "permission denied: %s", path)
		} else {
			logWarn(w.Logger, "error scanning %s: %v", path, err)
		}
		node.Children = []*models.Node{}
		return node
	}

	node.HasChildren = len(children) > 0
	if depth >= st.maxDepth {
		if !node.HasChildren {
			node.Children = []*models.Node{}
		}
		return node
	}

	st.progress.Discovered(len(children))
	node.Children = make([]*models.Node, len(children))

	if depth < w.FanoutDepth {
		var wg sync.WaitGroup
		for i, child := range children {
			select {
			case st.sem <- struct{}{}:
				wg.Add(1)
				go func(i int, child string) {
					defer wg.Done()
					defer func() { <-st.sem }()
					node.Children[i] = w.visit(ctx, st, child, depth+1)
				}(i, child)
			default:
				node.Children[i] = w.visit(ctx, st, child, depth+1)
			}
		}
		wg.Wait()
	} else {
		for i, child := range children {
			node.Children[i] = w.visit(ctx, st, child, depth+1)
		}
	}

	node.SortChildren()
	return node
}

// listChildren returns the paths of path's immediate subdirectories that are
// not symlinks and not excluded below root.
func (w *Walker) listChildren(root, path string, rules *exclude.RuleSet) ([]string, error) {
	readDir := w.readDir
	if readDir == nil {
		readDir = os.ReadDir
	}
	entries, err := readDir(path)
	if err != nil {
		return nil, err
	}

	children := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type()&fs.ModeSymlink != 0 || !entry.IsDir() {
			continue
		}
		child := filepath.Join(path, entry.Name())
		if rules.Excluded(root, child, entry.Name()) {
			continue
		}
		children = append(children, child)
	}
	return children, nil
}
