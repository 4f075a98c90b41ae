package logbuf

import (
	"bufio"
	"io"
	"time"
)

const (
	// DefaultTickInterval balances perceived live-update latency against
	// per-batch lock and notification overhead under high output volume.
	DefaultTickInterval = 100 * time.Millisecond

	// DefaultChannelCapacity bounds lines queued between reader and batcher.
	// A full channel suspends the reader, which stops draining the pipe and
	// eventually stalls the game process on write.
	DefaultChannelCapacity = 1000

	// maxLineBytes caps a single decoded line. Wine debug channels can emit
	// very long lines; anything beyond this ends the stream like an I/O error.
	maxLineBytes = 1024 * 1024
)

// Topic returns the notification topic for a game's log chunks.
func Topic(slug string) string {
	return "game-log:" + slug
}

// Chunk is one batch of freshly captured lines pushed to subscribers.
// It carries no history: a subscriber joining mid-session catches up from
// the buffer's Snapshot and uses TotalLines to track sync.
type Chunk struct {
	Slug       string   `json:"slug"`
	Lines      []string `json:"lines"`
	TotalLines int      `json:"total_lines"`
}

// Sink receives chunk notifications. Delivery is fire-and-forget: a chunk
// published while nobody is listening is gone, the buffer remains the
// source of truth for catch-up reads.
type Sink interface {
	Publish(topic string, chunk Chunk)
}

// Streamer pumps one raw output stream (stdout or stderr) into a shared
// buffer. A reader goroutine splits the stream into lines and feeds a
// bounded channel; a batcher goroutine drains the channel on a fixed tick,
// appends each non-empty batch to the buffer, and publishes exactly one
// chunk per batch.
//
// The two streams of one game run fully independent streamer pairs over the
// same buffer, so stdout/stderr interleaving reflects batcher timing, not
// the process's true output order. Order within one stream is preserved.
type Streamer struct {
	slug    string
	buffer  *Buffer
	sink    Sink
	tick    time.Duration
	chanCap int
	done    chan struct{}
}

func NewStreamer(slug string, buffer *Buffer, sink Sink) *Streamer {
	return &Streamer{
		slug:    slug,
		buffer:  buffer,
		sink:    sink,
		tick:    DefaultTickInterval,
		chanCap: DefaultChannelCapacity,
		done:    make(chan struct{}),
	}
}

// SetTickInterval overrides the batch interval. Must be called before Stream.
func (s *Streamer) SetTickInterval(d time.Duration) {
	if d > 0 {
		s.tick = d
	}
}

// SetChannelCapacity overrides the reader-to-batcher channel capacity.
// Must be called before Stream.
func (s *Streamer) SetChannelCapacity(n int) {
	if n > 0 {
		s.chanCap = n
	}
}

// Stream starts the reader and batcher goroutines and returns immediately.
// The pipeline ends on its own when r reaches end-of-file or fails; read
// errors are not surfaced, the stream simply stops producing chunks and the
// buffer stops growing.
func (s *Streamer) Stream(r io.Reader) {
	lines := make(chan string, s.chanCap)
	go s.readLoop(r, lines)
	go s.batchLoop(lines)
}

// Done is closed once the batcher has drained every remaining line and
// exited.
func (s *Streamer) Done() <-chan struct{} {
	return s.done
}

func (s *Streamer) readLoop(r io.Reader, lines chan<- string) {
	defer close(lines)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		// Blocks while the channel is full; this is the backpressure path.
		lines <- scanner.Text()
	}
	// A scanner error ends the stream the same way end-of-file does.
}

func (s *Streamer) batchLoop(lines <-chan string) {
	defer close(s.done)
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for range ticker.C {
		batch, closed := drain(lines)
		if len(batch) > 0 {
			total := s.buffer.Append(batch)
			if s.sink != nil {
				s.sink.Publish(Topic(s.slug), Chunk{
					Slug:       s.slug,
					Lines:      batch,
					TotalLines: total,
				})
			}
		}
		if closed {
			return
		}
	}
}

// drain takes every line currently queued without blocking. closed reports
// that the channel is closed and empty, meaning no line will ever arrive.
func drain(lines <-chan string) (batch []string, closed bool) {
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				return batch, true
			}
			batch = append(batch, line)
		default:
			return batch, false
		}
	}
}
