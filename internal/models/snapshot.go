package models

import "time"

// SnapshotTimeFormat is the timestamp layout used in persisted snapshots.
const SnapshotTimeFormat = "2006-01-02T15:04:05.000000"

// Snapshot is the persisted result of the most recent successful full scan.
type Snapshot struct {
	Timestamp string `json:"timestamp"`
	RootPath  string `json:"rootPath"`
	ScanID    string `json:"scanId,omitempty"`
	Tree      *Node  `json:"tree"`
}

// NewSnapshot stamps tree with the given time.
func NewSnapshot(scanID, rootPath string, tree *Node, at time.Time) *Snapshot {
	return &Snapshot{
		Timestamp: at.Format(SnapshotTimeFormat),
		RootPath:  rootPath,
		ScanID:    scanID,
		Tree:      tree,
	}
}

// ScanSummary describes a finished full scan for logging and history.
type ScanSummary struct {
	ScanID       string
	RootPath     string
	Strategy     string
	MaxDepth     int
	NodeCount    int
	ScannedCount int64
	Duration     time.Duration
	Err          error
}
