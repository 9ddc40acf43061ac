// Package traversal implements the two interchangeable directory scanning
// strategies: a bulk enumeration that shells out to find(1) and assembles a
// flat path list, and a recursive walk with bounded parallel fan-out.
//
// Both strategies honor the same contract: the returned root's Path equals
// the cleaned absolute root, nodes shallower than MaxDepth are expanded,
// nodes at MaxDepth are unexpanded but carry an accurate HasChildren hint,
// symlinks are never followed, excluded directories and everything beneath
// them are absent, and children are sorted case-insensitively.
package traversal

import (
	"context"
	"errors"
	"fmt"

	"github.com/harrison/nuxview/internal/exclude"
	"github.com/harrison/nuxview/internal/models"
)

// DefaultMaxDepth bounds a scan when no explicit depth is requested.
const DefaultMaxDepth = 50

var (
	// ErrNoDirectories is returned when bulk enumeration yields no output.
	ErrNoDirectories = errors.New("no directories found")
	// ErrUnavailable is returned when a strategy cannot run on this host.
	ErrUnavailable = errors.New("traversal strategy unavailable")
)

// StrategyError wraps a failure of a specific traversal strategy.
type StrategyError struct {
	Strategy string
	Err      error
}

func (e *StrategyError) Error() string {
	return fmt.Sprintf("%s traversal: %v", e.Strategy, e.Err)
}

func (e *StrategyError) Unwrap() error {
	return e.Err
}

// Options configures a single traversal.
type Options struct {
	// MaxDepth is the deepest level whose nodes are produced; nodes shallower
	// than MaxDepth are expanded. Zero or negative means DefaultMaxDepth.
	MaxDepth int
	// Rules decides which directories are skipped. Nil skips nothing.
	Rules *exclude.RuleSet
}

func (o Options) depth() int {
	if o.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return o.MaxDepth
}

// Progress receives directory counts as a traversal proceeds.
type Progress interface {
	// Discovered grows the estimate of directories still to examine.
	Discovered(n int)
	// Scanned records directories produced.
	Scanned(n int)
}

// ceilingSetter is implemented by progress sinks that can cap the reported
// percent while post-processing is still outstanding.
type ceilingSetter interface {
	SetCeiling(percent int)
}

type discard struct{}

func (discard) Discovered(int) {}
func (discard) Scanned(int)    {}

// Discard is a Progress that ignores all updates.
var Discard Progress = discard{}

// Logger is the subset of the application logger used during traversal.
type Logger interface {
	LogDebug(message string)
	LogWarn(message string)
}

// Traverser scans a directory tree.
type Traverser interface {
	// Name identifies the strategy (models.StrategyBulk or models.StrategyWalk).
	Name() string
	// Available reports whether the strategy can run on this host.
	Available() bool
	// Traverse scans root and returns its tree.
	Traverse(ctx context.Context, root string, opts Options, progress Progress) (*models.Node, error)
}

// Select picks the strategy for a scan of maxDepth levels. One-level requests
// always use fallback (the walk), since a subprocess costs more than listing a
// single directory. Deeper requests use preferred when it is available; the
// returned degraded flag is true when preferred had to be skipped.
func Select(maxDepth int, preferred, fallback Traverser) (Traverser, bool) {
	if maxDepth == 1 || preferred == nil {
		return fallback, false
	}
	if !preferred.Available() {
		return fallback, true
	}
	return preferred, false
}

func logDebug(l Logger, format string, args ...interface{}) {
	if l != nil {
		l.LogDebug(fmt.Sprintf(format, args...))
	}
}

func logWarn(l Logger, format string, args ...interface{}) {
	if l != nil {
		l.LogWarn(fmt.Sprintf(format, args...))
	}
}
