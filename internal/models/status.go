package models

import "time"

// Strategy names reported in status and history
const (
	StrategyBulk = "bulk" // external bulk enumeration (find)
	StrategyWalk = "walk" // recursive bounded-parallel walk
)

// ScanStatus is a read-only copy of the progress of the current (or most
// recent) full scan.
type ScanStatus struct {
	IsScanning      bool       `json:"isScanning"`
	ProgressPercent int        `json:"progressPercent"`
	ScannedCount    int64      `json:"scannedCount"`
	TotalCount      int64      `json:"totalCount"`
	LastError       *string    `json:"lastError"`
	ScanID          string     `json:"scanId,omitempty"`
	RootPath        string     `json:"rootPath,omitempty"`
	Strategy        string     `json:"strategy,omitempty"`
	StartedAt       *time.Time `json:"startedAt,omitempty"`
	FinishedAt      *time.Time `json:"finishedAt,omitempty"`
}

// Err returns the last error message, or "" when there is none.
func (s ScanStatus) Err() string {
	if s.LastError == nil {
		return ""
	}
	return *s.LastError
}
