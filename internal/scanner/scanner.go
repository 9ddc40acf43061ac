// Package scanner orchestrates directory scans. It owns the process-wide
// scan status, runs at most one full scan at a time in the background, and
// answers synchronous one-level expansion and cached-tree requests.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/harrison/nuxview/internal/exclude"
	"github.com/harrison/nuxview/internal/history"
	"github.com/harrison/nuxview/internal/models"
	"github.com/harrison/nuxview/internal/tracker"
	"github.com/harrison/nuxview/internal/traversal"
)

var (
	// ErrPathNotFound is returned for a scan root that does not exist.
	ErrPathNotFound = errors.New("path not found")
	// ErrNotDirectory is returned for a scan root that is not a directory.
	ErrNotDirectory = errors.New("not a directory")
	// ErrCancelled is recorded as the last error of a stopped scan.
	ErrCancelled = errors.New("scan cancelled")
)

// FilesystemRoot is scanned live when no snapshot can be served.
const FilesystemRoot = "/"

// SnapshotStore persists the tree of the last successful full scan.
type SnapshotStore interface {
	Save(snap *models.Snapshot) error
	Load() (*models.Snapshot, error)
}

// HistoryRecorder stores one row per finished full scan.
type HistoryRecorder interface {
	Record(ctx context.Context, run *history.ScanRun) error
}

// historyPruner is implemented by recorders that can trim old rows.
type historyPruner interface {
	Prune(ctx context.Context, keep int) (int64, error)
}

// Logger is the subset of the application logger used by the scanner.
type Logger interface {
	LogDebug(message string)
	LogInfo(message string)
	LogWarn(message string)
	LogError(message string)
	LogScanStart(rootPath string, maxDepth int, strategy string)
	LogScanComplete(summary models.ScanSummary)
	LogDegraded(reason string)
}

// Options wires a Service. Walk is required; everything else is optional.
type Options struct {
	// DefaultMaxDepth applies to full scans that request no depth.
	DefaultMaxDepth int
	// Excludes are configured rules added to the built-in defaults.
	Excludes []string

	// Bulk is the preferred strategy for multi-level scans; nil disables it.
	Bulk traversal.Traverser
	// Walk is the portable strategy and the fallback.
	Walk traversal.Traverser

	Store       SnapshotStore
	History     HistoryRecorder
	HistoryKeep int
	Logger      Logger

	// FallbackRoot replaces FilesystemRoot for cached-tree fallbacks.
	FallbackRoot string
}

// StartResult reports the outcome of StartFullScan.
type StartResult struct {
	// Started is false when a scan was already in flight.
	Started bool
	// ScanID identifies the scan that was started.
	ScanID string
	Status models.ScanStatus
}

// CachedTree is the root of the last snapshot with its immediate children.
type CachedTree struct {
	Root      *models.Node `json:"root"`
	Timestamp string       `json:"timestamp"`
	Path      string       `json:"path"`
	// Live is true when no snapshot was available and Root was scanned now.
	Live bool `json:"live"`
}

// Service is the scan orchestrator.
type Service struct {
	opts    Options
	tracker *tracker.Tracker

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	now   func() time.Time
	newID func() string
}

// New creates a Service. It panics if opts.Walk is nil.
func New(opts Options) *Service {
	if opts.Walk == nil {
		panic("scanner: Options.Walk is required")
	}
	if opts.DefaultMaxDepth <= 0 {
		opts.DefaultMaxDepth = traversal.DefaultMaxDepth
	}
	if opts.FallbackRoot == "" {
		opts.FallbackRoot = FilesystemRoot
	}
	return &Service{
		opts:    opts,
		tracker: tracker.New(),
		now:     time.Now,
		newID:   func() string { return uuid.New().String() },
	}
}

// GetScanStatus returns a copy of the current scan status.
func (s *Service) GetScanStatus() models.ScanStatus {
	return s.tracker.Snapshot()
}

// StartFullScan launches a background scan of path. When a scan is already
// running it returns that scan's status with Started false and a nil error.
// A missing or non-directory path is rejected before any status changes.
// maxDepth <= 0 selects the configured default.
func (s *Service) StartFullScan(path string, maxDepth int, excludes []string) (StartResult, error) {
	if s.tracker.IsScanning() {
		return StartResult{Status: s.tracker.Snapshot()}, nil
	}

	root, err := resolveRoot(path)
	if err != nil {
		return StartResult{}, err
	}
	if maxDepth <= 0 {
		maxDepth = s.opts.DefaultMaxDepth
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	if !s.tracker.Begin(id, root) {
		return StartResult{Status: s.tracker.Snapshot()}, nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done

	go s.run(ctx, cancel, done, id, root, maxDepth, s.rules(excludes))

	return StartResult{Started: true, ScanID: id, Status: s.tracker.Snapshot()}, nil
}

// Stop cancels the running full scan, if any, and reports whether there was
// one. It does not wait for the scan to wind down; see Wait.
func (s *Service) Stop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel == nil || !s.tracker.IsScanning() {
		return false
	}
	s.cancel()
	return true
}

// Wait blocks until the most recently started full scan has finished,
// including its snapshot and history writes.
func (s *Service) Wait() {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done != nil {
		<-done
	}
}

func (s *Service) run(ctx context.Context, cancel context.CancelFunc, done chan struct{}, id, root string, maxDepth int, rules *exclude.RuleSet) {
	defer close(done)
	defer cancel()

	started := s.now()
	tree, strategy, err := s.traverseSafely(ctx, root, maxDepth, rules)
	if ctx.Err() != nil {
		tree, err = nil, ErrCancelled
	}

	if err == nil && s.opts.Store != nil {
		snap := models.NewSnapshot(id, root, tree, s.now())
		if saveErr := s.opts.Store.Save(snap); saveErr != nil {
			err = fmt.Errorf("save snapshot: %w", saveErr)
		}
	}

	s.tracker.Finish(err)
	status := s.tracker.Snapshot()

	summary := models.ScanSummary{
		ScanID:       id,
		RootPath:     root,
		Strategy:     strategy,
		MaxDepth:     maxDepth,
		ScannedCount: status.ScannedCount,
		Duration:     s.now().Sub(started),
		Err:          err,
	}
	if tree != nil {
		summary.NodeCount = tree.Count()
	}
	s.record(summary, started)
	if s.opts.Logger != nil {
		s.opts.Logger.LogScanComplete(summary)
	}
}

// traverseSafely converts a panic inside a strategy into an error so the
// status never stays stuck in the scanning state.
func (s *Service) traverseSafely(ctx context.Context, root string, maxDepth int, rules *exclude.RuleSet) (tree *models.Node, strategy string, err error) {
	defer func() {
		if r := recover(); r != nil {
			tree = nil
			err = fmt.Errorf("scan aborted: %v", r)
		}
	}()
	return s.traverse(ctx, root, maxDepth, rules)
}

func (s *Service) traverse(ctx context.Context, root string, maxDepth int, rules *exclude.RuleSet) (*models.Node, string, error) {
	opts := traversal.Options{MaxDepth: maxDepth, Rules: rules}

	chosen, degraded := traversal.Select(maxDepth, s.opts.Bulk, s.opts.Walk)
	if degraded {
		s.logDegraded(fmt.Sprintf("%s strategy unavailable, using %s", s.opts.Bulk.Name(), chosen.Name()))
	}
	s.tracker.SetStrategy(chosen.Name())
	if s.opts.Logger != nil {
		s.opts.Logger.LogScanStart(root, maxDepth, chosen.Name())
	}

	tree, err := chosen.Traverse(ctx, root, opts, s.tracker)
	if err == nil || chosen == s.opts.Walk || ctx.Err() != nil {
		return tree, chosen.Name(), err
	}

	s.logDegraded(fmt.Sprintf("%v; falling back to %s", err, s.opts.Walk.Name()))
	s.tracker.SetCeiling(tracker.RunningCeiling)
	s.tracker.SetStrategy(s.opts.Walk.Name())
	tree, err = s.opts.Walk.Traverse(ctx, root, opts, s.tracker)
	return tree, s.opts.Walk.Name(), err
}

func (s *Service) record(summary models.ScanSummary, started time.Time) {
	if s.opts.History == nil {
		return
	}
	run := &history.ScanRun{
		ID:           summary.ScanID,
		RootPath:     summary.RootPath,
		Strategy:     summary.Strategy,
		MaxDepth:     summary.MaxDepth,
		NodeCount:    summary.NodeCount,
		ScannedCount: summary.ScannedCount,
		Success:      summary.Err == nil,
		StartedAt:    started,
		FinishedAt:   started.Add(summary.Duration),
	}
	if summary.Err != nil {
		run.ErrorMessage = summary.Err.Error()
	}

	ctx := context.Background()
	if err := s.opts.History.Record(ctx, run); err != nil {
		s.logWarn(fmt.Sprintf("failed to record scan history: %v", err))
		return
	}
	if p, ok := s.opts.History.(historyPruner); ok && s.opts.HistoryKeep > 0 {
		if _, err := p.Prune(ctx, s.opts.HistoryKeep); err != nil {
			s.logWarn(fmt.Sprintf("failed to prune scan history: %v", err))
		}
	}
}

// ScanOneLevel synchronously lists path and its immediate children, each
// child carrying a HasChildren hint. It does not touch the scan status or
// the snapshot.
func (s *Service) ScanOneLevel(ctx context.Context, path string, excludes []string) (*models.Node, error) {
	root, err := resolveRoot(path)
	if err != nil {
		return nil, err
	}
	return s.opts.Walk.Traverse(ctx, root, traversal.Options{MaxDepth: 1, Rules: s.rules(excludes)}, traversal.Discard)
}

// GetCachedTree returns the last snapshot's root with its immediate children.
// Deeper levels are left for ScanOneLevel. Without a readable snapshot it
// falls back to a live one-level scan of the filesystem root.
func (s *Service) GetCachedTree(ctx context.Context) (*CachedTree, error) {
	if s.opts.Store != nil {
		snap, err := s.opts.Store.Load()
		if err == nil {
			return &CachedTree{Root: snap.Tree.Shallow(), Timestamp: snap.Timestamp, Path: snap.RootPath}, nil
		}
		s.logDebug(fmt.Sprintf("cached tree unavailable, scanning %s: %v", s.opts.FallbackRoot, err))
	}

	root, err := s.ScanOneLevel(ctx, s.opts.FallbackRoot, nil)
	if err != nil {
		return nil, err
	}
	return &CachedTree{
		Root:      root,
		Timestamp: s.now().Format(models.SnapshotTimeFormat),
		Path:      root.Path,
		Live:      true,
	}, nil
}

func (s *Service) rules(extra []string) *exclude.RuleSet {
	all := make([]string, 0, len(s.opts.Excludes)+len(extra))
	all = append(all, s.opts.Excludes...)
	all = append(all, extra...)
	return exclude.New(all...)
}

// resolveRoot returns the cleaned absolute form of path after checking it
// is an existing directory.
func resolveRoot(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: empty path", ErrPathNotFound)
	}
	root, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", path, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrPathNotFound, path)
		}
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s", ErrNotDirectory, path)
	}
	return root, nil
}

func (s *Service) logDebug(message string) {
	if s.opts.Logger != nil {
		s.opts.Logger.LogDebug(message)
	}
}

func (s *Service) logWarn(message string) {
	if s.opts.Logger != nil {
		s.opts.Logger.LogWarn(message)
	}
}

func (s *Service) logDegraded(reason string) {
	if s.opts.Logger != nil {
		s.opts.Logger.LogDegraded(reason)
	}
}
