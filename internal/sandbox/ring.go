package sandbox

import (
	"strings"
	"sync"
)

// DefaultLogCapacity bounds the per-process log buffer.
const DefaultLogCapacity = 5000

// logRing is a fixed-capacity FIFO line buffer. Appending beyond capacity
// evicts the oldest line.
type logRing struct {
	mu    sync.Mutex
	lines []string
	start int
	count int
}

func newLogRing(capacity int) *logRing {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &logRing{lines: make([]string, capacity)}
}

func (r *logRing) Append(line string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := (r.start + r.count) % len(r.lines)
	r.lines[idx] = line
	if r.count < len(r.lines) {
		r.count++
	} else {
		r.start = (r.start + 1) % len(r.lines)
	}
}

func (r *logRing) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Last returns up to n newest lines in arrival order. n <= 0 returns the
// whole buffer.
func (r *logRing) Last(n int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n <= 0 || n > r.count {
		n = r.count
	}
	out := make([]string, 0, n)
	for i := r.count - n; i < r.count; i++ {
		out = append(out, r.lines[(r.start+i)%len(r.lines)])
	}
	return out
}

// Counts reports buffered lines that look like errors or warnings. A line
// mentioning "warning" counts as a warning even when it also says "error".
func (r *logRing) Counts() (errorCount, warningCount int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := 0; i < r.count; i++ {
		line := strings.ToLower(r.lines[(r.start+i)%len(r.lines)])
		switch {
		case strings.Contains(line, "warning"):
			warningCount++
		case strings.Contains(line, "error"):
			errorCount++
		}
	}
	return errorCount, warningCount
}
