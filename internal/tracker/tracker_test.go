package tracker

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_BeginRejectsSecondScan(t *testing.T) {
	tr := New()

	require.True(t, tr.Begin("scan-1", "/data"))
	assert.False(t, tr.Begin("scan-2", "/other"))

	status := tr.Snapshot()
	assert.True(t, status.IsScanning)
	assert.Equal(t, "scan-1", status.ScanID)
	assert.Equal(t, "/data", status.RootPath)
	assert.NotNil(t, status.StartedAt)
	assert.Nil(t, status.FinishedAt)
}

func TestTracker_PercentCappedWhileRunning(t *testing.T) {
	tr := New()
	tr.Begin("id", "/r")

	tr.Discovered(4)
	tr.Scanned(2)
	assert.Equal(t, 50, tr.Snapshot().ProgressPercent)

	tr.Scanned(2)
	status := tr.Snapshot()
	assert.Equal(t, RunningCeiling, status.ProgressPercent)
	assert.True(t, status.IsScanning)

	tr.Finish(nil)
	status = tr.Snapshot()
	assert.False(t, status.IsScanning)
	assert.Equal(t, 100, status.ProgressPercent)
	assert.Nil(t, status.LastError)
	assert.NotNil(t, status.FinishedAt)
}

func TestTracker_PercentNeverDecreases(t *testing.T) {
	tr := New()
	tr.Begin("id", "/r")

	tr.Discovered(2)
	tr.Scanned(1)
	assert.Equal(t, 50, tr.Snapshot().ProgressPercent)

	// total grows faster than scanned; ratio drops but reported percent holds
	tr.Discovered(100)
	tr.Scanned(1)
	assert.Equal(t, 50, tr.Snapshot().ProgressPercent)
	assert.Equal(t, int64(2), tr.Snapshot().ScannedCount)
	assert.Equal(t, int64(102), tr.Snapshot().TotalCount)
}

func TestTracker_SetCeiling(t *testing.T) {
	tr := New()
	tr.Begin("id", "/r")
	tr.SetCeiling(90)

	tr.Discovered(10)
	tr.Scanned(10)
	assert.Equal(t, 90, tr.Snapshot().ProgressPercent)

	tr.SetCeiling(150)
	assert.Equal(t, RunningCeiling, tr.Snapshot().ProgressPercent)
}

func TestTracker_FinishWithError(t *testing.T) {
	tr := New()
	tr.Begin("id", "/r")
	tr.Discovered(10)
	tr.Scanned(3)

	tr.Finish(errors.New("boom"))

	status := tr.Snapshot()
	assert.False(t, status.IsScanning)
	assert.Equal(t, 30, status.ProgressPercent)
	require.NotNil(t, status.LastError)
	assert.Equal(t, "boom", status.Err())

	// a new scan clears the error
	require.True(t, tr.Begin("id2", "/r"))
	assert.Nil(t, tr.Snapshot().LastError)
	assert.Equal(t, 0, tr.Snapshot().ProgressPercent)
}

func TestTracker_ConcurrentUpdates(t *testing.T) {
	tr := New()
	tr.Begin("id", "/r")

	const workers = 16
	const perWorker = 500

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				tr.Discovered(1)
				tr.Scanned(1)
				_ = tr.Snapshot()
			}
		}()
	}
	wg.Wait()

	status := tr.Snapshot()
	assert.Equal(t, int64(workers*perWorker), status.ScannedCount)
	assert.Equal(t, int64(workers*perWorker), status.TotalCount)
	assert.LessOrEqual(t, status.ProgressPercent, RunningCeiling)
}

func TestTracker_SnapshotIsACopy(t *testing.T) {
	tr := New()
	tr.Begin("id", "/r")
	tr.Finish(errors.New("first"))

	status := tr.Snapshot()
	*status.LastError = "mutated"

	assert.Equal(t, "first", tr.Snapshot().Err())
}
