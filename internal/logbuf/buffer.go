package logbuf

import (
	"strings"
	"sync"
)

// DefaultMaxLines bounds per-game memory no matter how verbose or
// long-lived the game process is. Oldest lines are evicted first.
const DefaultMaxLines = 5000

// Buffer holds the most recent output lines for one game session, plus a
// counter of every line ever appended, including lines since evicted.
type Buffer struct {
	mu    sync.Mutex
	lines []string
	max   int
	total int
}

func NewBuffer(maxLines int) *Buffer {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	return &Buffer{
		lines: make([]string, 0, maxLines),
		max:   maxLines,
	}
}

// Append adds lines in order, evicting the oldest line for each append once
// the buffer is at capacity, and returns the new total-lines-ever count.
// The whole batch is appended under one lock acquisition, so a concurrent
// Snapshot never observes a partially-appended batch.
func (b *Buffer) Append(lines []string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, line := range lines {
		if len(b.lines) >= b.max {
			b.lines = b.lines[1:]
		}
		b.lines = append(b.lines, line)
		b.total++
	}
	return b.total
}

// Snapshot returns the buffered lines joined oldest-first.
func (b *Buffer) Snapshot() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.Join(b.lines, "\n")
}

// Len reports how many lines are currently buffered.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.lines)
}

// TotalLines reports how many lines were ever appended, evicted or not.
// It never decreases.
func (b *Buffer) TotalLines() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total
}
