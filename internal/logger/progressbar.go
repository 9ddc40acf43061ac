package logger

import (
	"fmt"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// ProgressBar renders scan progress as "[=====     ] 123/456 (27%)". The
// percent is supplied by the caller because a scan's total only grows as
// directories are discovered.
type ProgressBar struct {
	current     int64
	total       int64
	percent     int
	width       int
	enableColor bool
	prefix      string
	mu          sync.RWMutex
}

// NewProgressBar creates a progress bar width characters wide.
func NewProgressBar(width int, enableColor bool) *ProgressBar {
	if width < 1 {
		width = 10
	}
	return &ProgressBar{width: width, enableColor: enableColor}
}

// Update sets the counters and percent. The percent is clamped to 0..100.
func (pb *ProgressBar) Update(current, total int64, percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.current = current
	pb.total = total
	pb.percent = percent
}

// Percentage returns the last percent set.
func (pb *ProgressBar) Percentage() int {
	pb.mu.RLock()
	defer pb.mu.RUnlock()
	return pb.percent
}

// SetPrefix sets text rendered before the bar.
func (pb *ProgressBar) SetPrefix(prefix string) {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.prefix = prefix
}

// Render returns the bar as a single line without a trailing newline.
func (pb *ProgressBar) Render() string {
	pb.mu.RLock()
	defer pb.mu.RUnlock()

	filled := pb.percent * pb.width / 100
	bar := "[" + strings.Repeat("=", filled) + strings.Repeat(" ", pb.width-filled) + "]"
	result := fmt.Sprintf("%s%s %d/%d (%d%%)", pb.prefix, bar, pb.current, pb.total, pb.percent)

	if !pb.enableColor {
		return result
	}
	if pb.percent < 100 {
		return color.New(color.FgCyan).Sprint(result)
	}
	return color.New(color.FgGreen).Sprint(result)
}
