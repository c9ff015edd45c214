package agent

import (
	"strings"
	"sync"
)

// Chunk is one captured piece of worker output.
type Chunk struct {
	Stream Stream
	Text   string
}

// stderrMarker prefixes stderr chunks in rendered output so failures are
// distinguishable from normal worker progress.
const stderrMarker = "[stderr] "

// OutputBuffer retains the most recent output chunks of one slot. When
// capacity is reached the oldest chunks are discarded. Safe for
// concurrent use.
type OutputBuffer struct {
	mu     sync.RWMutex
	chunks []Chunk
	start  int
	count  int
}

// NewOutputBuffer creates a buffer retaining up to capacity chunks.
func NewOutputBuffer(capacity int) *OutputBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &OutputBuffer{chunks: make([]Chunk, capacity)}
}

// Append records one chunk, evicting the oldest when full.
func (b *OutputBuffer) Append(c Chunk) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.count < len(b.chunks) {
		b.chunks[(b.start+b.count)%len(b.chunks)] = c
		b.count++
		return
	}
	b.chunks[b.start] = c
	b.start = (b.start + 1) % len(b.chunks)
}

// Chunks returns the retained chunks in arrival order.
func (b *OutputBuffer) Chunks() []Chunk {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Chunk, 0, b.count)
	for i := 0; i < b.count; i++ {
		out = append(out, b.chunks[(b.start+i)%len(b.chunks)])
	}
	return out
}

// Len returns the number of retained chunks.
func (b *OutputBuffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// String renders the retained output for display, one chunk per line,
// stderr chunks prefixed with the error marker.
func (b *OutputBuffer) String() string {
	var sb strings.Builder
	for _, c := range b.Chunks() {
		if c.Stream == StreamStderr {
			sb.WriteString(stderrMarker)
		}
		sb.WriteString(c.Text)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Contains reports whether any retained chunk contains the substring.
func (b *OutputBuffer) Contains(substr string) bool {
	for _, c := range b.Chunks() {
		if strings.Contains(c.Text, substr) {
			return true
		}
	}
	return false
}

// Reset discards all retained chunks.
func (b *OutputBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.start = 0
	b.count = 0
}
