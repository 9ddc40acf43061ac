// Package tracker holds the progress of the one full scan in flight.
//
// A Tracker is shared by reference with every worker of a scan. All field
// updates go through a single mutex that is never held across I/O. Callers
// outside the scan only ever see Snapshot copies.
package tracker

import (
	"sync"
	"time"

	"github.com/harrison/nuxview/internal/models"
)

const (
	// RunningCeiling is the highest percent reported while a scan is running.
	RunningCeiling = 99
	// complete is reported only after a successful Finish.
	complete = 100
)

// Tracker is a concurrency-safe set of scan progress counters.
type Tracker struct {
	mu         sync.Mutex
	scanning   bool
	scanned    int64
	total      int64
	percent    int
	ceiling    int
	lastErr    *string
	scanID     string
	rootPath   string
	strategy   string
	startedAt  time.Time
	finishedAt time.Time
	now        func() time.Time
}

// New creates an idle Tracker.
func New() *Tracker {
	return &Tracker{ceiling: RunningCeiling, now: time.Now}
}

// Begin resets all counters and marks a scan as running. It returns false,
// leaving the tracker untouched, if a scan is already running.
func (t *Tracker) Begin(scanID, rootPath string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.scanning {
		return false
	}
	t.scanning = true
	t.scanned = 0
	t.total = 0
	t.percent = 0
	t.ceiling = RunningCeiling
	t.lastErr = nil
	t.scanID = scanID
	t.rootPath = rootPath
	t.strategy = ""
	t.startedAt = t.now()
	t.finishedAt = time.Time{}
	return true
}

// SetStrategy records the traversal strategy in use.
func (t *Tracker) SetStrategy(strategy string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.strategy = strategy
}

// SetCeiling lowers (or restores) the cap on the running percent. Values
// above RunningCeiling are clamped so a running scan never reports 100.
func (t *Tracker) SetCeiling(ceiling int) {
	if ceiling > RunningCeiling {
		ceiling = RunningCeiling
	}
	if ceiling < 0 {
		ceiling = 0
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.ceiling = ceiling
	t.recompute()
}

// Discovered grows the running total by n directories yet to examine.
func (t *Tracker) Discovered(n int) {
	if n <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.total += int64(n)
	t.recompute()
}

// Scanned records n directories as produced.
func (t *Tracker) Scanned(n int) {
	if n <= 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.scanned += int64(n)
	if t.total < t.scanned {
		t.total = t.scanned
	}
	t.recompute()
}

// recompute must be called with mu held. The percent never decreases.
func (t *Tracker) recompute() {
	if !t.scanning || t.total == 0 {
		return
	}
	p := int(t.scanned * 100 / t.total)
	if p > t.ceiling {
		p = t.ceiling
	}
	if p > t.percent {
		t.percent = p
	}
}

// Finish marks the scan as no longer running. On success the percent becomes
// 100; on failure err is recorded and the percent is left where it was.
func (t *Tracker) Finish(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.scanning = false
	t.finishedAt = t.now()
	if err != nil {
		msg := err.Error()
		t.lastErr = &msg
		return
	}
	t.lastErr = nil
	t.percent = complete
}

// IsScanning reports whether a scan is running.
func (t *Tracker) IsScanning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scanning
}

// Snapshot returns a copy of the current status.
func (t *Tracker) Snapshot() models.ScanStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	status := models.ScanStatus{
		IsScanning:      t.scanning,
		ProgressPercent: t.percent,
		ScannedCount:    t.scanned,
		TotalCount:      t.total,
		ScanID:          t.scanID,
		RootPath:        t.rootPath,
		Strategy:        t.strategy,
	}
	if t.lastErr != nil {
		msg := *t.lastErr
		status.LastError = &msg
	}
	if !t.startedAt.IsZero() {
		started := t.startedAt
		status.StartedAt = &started
	}
	if !t.finishedAt.IsZero() {
		finished := t.finishedAt
		status.FinishedAt = &finished
	}
	return status
}
