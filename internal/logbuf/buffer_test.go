package logbuf

import (
	"fmt"
	"strings"
	"sync"
	"testing"
)

func TestBufferAppendAndSnapshot(t *testing.T) {
	buf := NewBuffer(10)

	total := buf.Append([]string{"line one", "line two", "line three"})
	if total != 3 {
		t.Errorf("Append returned total %d, want 3", total)
	}

	got := buf.Snapshot()
	want := "line one\nline two\nline three"
	if got != want {
		t.Errorf("Snapshot() = %q, want %q", got, want)
	}
}

func TestBufferEmptySnapshot(t *testing.T) {
	buf := NewBuffer(10)
	if got := buf.Snapshot(); got != "" {
		t.Errorf("Snapshot() of empty buffer = %q, want empty string", got)
	}
	if got := buf.Len(); got != 0 {
		t.Errorf("Len() of empty buffer = %d, want 0", got)
	}
}

func TestBufferEvictsOldestAtCapacity(t *testing.T) {
	buf := NewBuffer(3)

	for i := 1; i <= 5; i++ {
		buf.Append([]string{fmt.Sprintf("line %d", i)})
	}

	if got := buf.Len(); got != 3 {
		t.Errorf("Len() = %d, want 3", got)
	}
	if got := buf.TotalLines(); got != 5 {
		t.Errorf("TotalLines() = %d, want 5", got)
	}

	got := buf.Snapshot()
	want := "line 3\nline 4\nline 5"
	if got != want {
		t.Errorf("Snapshot() = %q, want %q", got, want)
	}
}

func TestBufferBatchLargerThanCapacity(t *testing.T) {
	buf := NewBuffer(3)

	batch := make([]string, 7)
	for i := range batch {
		batch[i] = fmt.Sprintf("line %d", i+1)
	}
	total := buf.Append(batch)

	if total != 7 {
		t.Errorf("Append returned total %d, want 7", total)
	}
	got := buf.Snapshot()
	want := "line 5\nline 6\nline 7"
	if got != want {
		t.Errorf("Snapshot() = %q, want %q", got, want)
	}
}

func TestBufferLenNeverExceedsCapacity(t *testing.T) {
	const max = 50
	buf := NewBuffer(max)

	for i := 0; i < 200; i++ {
		buf.Append([]string{fmt.Sprintf("line %d", i)})
		if l, tot := buf.Len(), buf.TotalLines(); l != min(tot, max) {
			t.Fatalf("after %d appends: Len() = %d, want min(total=%d, max=%d) = %d",
				i+1, l, tot, max, min(tot, max))
		}
	}
}

func TestBufferTotalLinesMonotonic(t *testing.T) {
	buf := NewBuffer(2)

	prev := 0
	for i := 0; i < 20; i++ {
		total := buf.Append([]string{"x"})
		if total <= prev {
			t.Fatalf("total went from %d to %d, want strictly increasing", prev, total)
		}
		prev = total
	}
}

func TestBufferDefaultCapacity(t *testing.T) {
	for _, n := range []int{0, -1} {
		buf := NewBuffer(n)
		buf.Append(make([]string, DefaultMaxLines+10))
		if got := buf.Len(); got != DefaultMaxLines {
			t.Errorf("NewBuffer(%d): Len() after overflow = %d, want %d", n, got, DefaultMaxLines)
		}
	}
}

func TestBufferConcurrentAppends(t *testing.T) {
	const (
		writers = 8
		perEach = 100
	)
	buf := NewBuffer(writers * perEach)

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perEach; i++ {
				buf.Append([]string{fmt.Sprintf("w%d-%d", w, i)})
			}
		}(w)
	}
	wg.Wait()

	if got := buf.TotalLines(); got != writers*perEach {
		t.Errorf("TotalLines() = %d, want %d", got, writers*perEach)
	}
	if got := buf.Len(); got != writers*perEach {
		t.Errorf("Len() = %d, want %d", got, writers*perEach)
	}
}

func TestBufferBatchAppendAtomicOrder(t *testing.T) {
	buf := NewBuffer(100)
	buf.Append([]string{"a1", "a2", "a3"})
	buf.Append([]string{"b1", "b2"})

	lines := strings.Split(buf.Snapshot(), "\n")
	want := []string{"a1", "a2", "a3", "b1", "b2"}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d", len(lines), len(want))
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}
