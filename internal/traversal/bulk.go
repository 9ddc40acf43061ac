package traversal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/harrison/nuxview/internal/assembler"
	"github.com/harrison/nuxview/internal/exclude"
	"github.com/harrison/nuxview/internal/models"
)

const (
	// DefaultProgressBatch is the number of output lines between status updates.
	DefaultProgressBatch = 1000
	// BulkEnumerationCeiling caps the reported percent until assembly completes.
	BulkEnumerationCeiling = 90

	maxLineBytes = 1 << 20
)

// Bulk is the native enumeration strategy. It runs a single find(1) process
// scoped to the requested depth and assembles its flat output into a tree.
type Bulk struct {
	FindPath string
	Batch    int
	Logger   Logger

	lookPath func(file string) (string, error)
}

// NewBulk creates a Bulk strategy. An empty findPath selects "find"; batch <= 0
// selects DefaultProgressBatch.
func NewBulk(findPath string, batch int, logger Logger) *Bulk {
	if findPath == "" {
		findPath = "find"
	}
	if batch <= 0 {
		batch = DefaultProgressBatch
	}
	return &Bulk{
		FindPath: findPath,
		Batch:    batch,
		Logger:   logger,
		lookPath: exec.LookPath,
	}
}

// Name returns models.StrategyBulk.
func (b *Bulk) Name() string { return models.StrategyBulk }

// Available reports whether the find binary can be located.
func (b *Bulk) Available() bool {
	_, err := b.resolve()
	return err == nil
}

func (b *Bulk) resolve() (string, error) {
	lookPath := b.lookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}
	path, err := lookPath(b.FindPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return path, nil
}

// Traverse enumerates root with find and assembles the result. Errors printed
// by find (permission denials on individual subtrees) are discarded; a
// non-zero exit status is only an error when nothing was enumerated.
func (b *Bulk) Traverse(ctx context.Context, root string, opts Options, progress Progress) (*models.Node, error) {
	if progress == nil {
		progress = Discard
	}
	findPath, err := b.resolve()
	if err != nil {
		return nil, &StrategyError{Strategy: b.Name(), Err: err}
	}

	root = filepath.Clean(root)
	maxDepth := opts.depth()

	if cs, ok := progress.(ceilingSetter); ok {
		cs.SetCeiling(BulkEnumerationCeiling)
	}

	cmd := exec.CommandContext(ctx, findPath, BuildFindArgs(root, maxDepth, opts.Rules)...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &StrategyError{Strategy: b.Name(), Err: err}
	}
	if err := cmd.Start(); err != nil {
		return nil, &StrategyError{Strategy: b.Name(), Err: err}
	}

	paths, readErr := collectPaths(stdout, root, maxDepth, b.Batch, progress)
	if readErr != nil {
		// Drain so find is not blocked on a full pipe before Wait.
		_, _ = io.Copy(io.Discard, stdout)
	}
	waitErr := cmd.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if readErr != nil {
		return nil, &StrategyError{Strategy: b.Name(), Err: fmt.Errorf("read output: %w", readErr)}
	}
	if len(paths) == 0 {
		if waitErr != nil {
			return nil, &StrategyError{Strategy: b.Name(), Err: waitErr}
		}
		return nil, &StrategyError{Strategy: b.Name(), Err: ErrNoDirectories}
	}
	if waitErr != nil {
		logDebug(b.Logger, "find exited with %v after %d entries under %s; keeping partial result", waitErr, len(paths), root)
	}

	paths = filterPaths(paths, root, opts.Rules)
	tree, err := assembler.Assemble(paths, root, maxDepth)
	if err != nil {
		return nil, &StrategyError{Strategy: b.Name(), Err: err}
	}

	if cs, ok := progress.(ceilingSetter); ok {
		cs.SetCeiling(100)
	}
	return tree, nil
}

// BuildFindArgs returns the find(1) arguments that list the directories under
// root up to maxDepth+1 levels (the extra level only feeds HasChildren hints),
// pruning excluded names and path fragments below the root.
func BuildFindArgs(root string, maxDepth int, rules *exclude.RuleSet) []string {
	args := []string{"-H", root}
	if maxDepth > 0 {
		args = append(args, "-maxdepth", strconv.Itoa(maxDepth+1))
	}
	args = append(args, "-type", "d")

	var tests []string
	for _, name := range rules.Names() {
		if len(tests) > 0 {
			tests = append(tests, "-o")
		}
		tests = append(tests, "-name", escapeGlob(name))
	}
	for _, fragment := range rules.Fragments() {
		if len(tests) > 0 {
			tests = append(tests, "-o")
		}
		tests = append(tests, "-path", "*/"+escapeGlob(filepath.ToSlash(fragment)))
	}
	if len(tests) == 0 {
		return append(args, "-print")
	}

	args = append(args, "(", "!", "-path", escapeGlob(root), "(")
	args = append(args, tests...)
	args = append(args, ")", "-prune", "-o", "-print", ")")
	return args
}

func escapeGlob(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch r {
		case '\\', '*', '?', '[', ']':
			sb.WriteRune('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// collectPaths reads one path per line, reporting progress every batch lines.
// The total is kept one batch ahead of the scanned count so the reported
// percent rises towards, but never reaches, the ceiling. Lines deeper than
// maxDepth are kept for HasChildren hints but not counted, so the scanned
// count matches the nodes the walk would report.
func collectPaths(r io.Reader, root string, maxDepth, batch int, progress Progress) ([]string, error) {
	if batch <= 0 {
		batch = DefaultProgressBatch
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var paths []string
	counted, pending := 0, 0
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}
		paths = append(paths, line)
		if maxDepth > 0 && assembler.Depth(root, line) > maxDepth {
			continue
		}
		if counted == 0 {
			progress.Discovered(batch)
		}
		counted++
		pending++
		if pending == batch {
			progress.Discovered(batch)
			progress.Scanned(batch)
			pending = 0
		}
	}
	progress.Scanned(pending)
	return paths, scanner.Err()
}

// filterPaths drops excluded entries below root. It repeats in-process what
// the find expression already prunes, so the result does not depend on how
// find interprets the patterns.
func filterPaths(paths []string, root string, rules *exclude.RuleSet) []string {
	if rules.Len() == 0 {
		return paths
	}
	kept := paths[:0]
	for _, p := range paths {
		clean := filepath.Clean(p)
		if clean != root && rules.Excluded(root, clean, filepath.Base(clean)) {
			continue
		}
		kept = append(kept, clean)
	}
	return kept
}
