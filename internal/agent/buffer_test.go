package agent

import (
	"strings"
	"testing"
)

func TestOutputBufferEvictsOldest(t *testing.T) {
	buf := NewOutputBuffer(3)

	for _, text := range []string{"a", "b", "c", "d", "e"} {
		buf.Append(Chunk{Stream: StreamStdout, Text: text})
	}

	chunks := buf.Chunks()
	if len(chunks) != 3 {
		t.Fatalf("len(Chunks) = %d, want 3", len(chunks))
	}
	for i, want := range []string{"c", "d", "e"} {
		if chunks[i].Text != want {
			t.Errorf("chunks[%d] = %q, want %q", i, chunks[i].Text, want)
		}
	}
	if buf.Len() != 3 {
		t.Errorf("Len = %d, want 3", buf.Len())
	}
}

func TestOutputBufferString(t *testing.T) {
	buf := NewOutputBuffer(10)
	buf.Append(Chunk{Stream: StreamStdout, Text: "normal line"})
	buf.Append(Chunk{Stream: StreamStderr, Text: "broken pipe"})

	got := buf.String()
	want := "normal line\n[stderr] broken pipe\n"
	if got != want {
		t.Errorf("String = %q, want %q", got, want)
	}
}

func TestOutputBufferContains(t *testing.T) {
	buf := NewOutputBuffer(10)
	buf.Append(Chunk{Stream: StreamStdout, Text: "working..."})
	buf.Append(Chunk{Stream: StreamStdout, Text: "done: " + Sentinel})

	if !buf.Contains(Sentinel) {
		t.Error("Contains(sentinel) = false, want true")
	}
	if buf.Contains("absent") {
		t.Error("Contains(absent) = true, want false")
	}
}

func TestOutputBufferReset(t *testing.T) {
	buf := NewOutputBuffer(5)
	buf.Append(Chunk{Stream: StreamStdout, Text: "x"})
	buf.Reset()

	if buf.Len() != 0 {
		t.Errorf("Len after reset = %d, want 0", buf.Len())
	}
	if got := buf.String(); got != "" {
		t.Errorf("String after reset = %q, want empty", got)
	}

	// Reusable after reset.
	buf.Append(Chunk{Stream: StreamStdout, Text: "y"})
	if !strings.Contains(buf.String(), "y") {
		t.Error("append after reset lost the chunk")
	}
}

func TestOutputBufferMinimumCapacity(t *testing.T) {
	buf := NewOutputBuffer(0)
	buf.Append(Chunk{Stream: StreamStdout, Text: "only"})
	buf.Append(Chunk{Stream: StreamStdout, Text: "latest"})

	chunks := buf.Chunks()
	if len(chunks) != 1 || chunks[0].Text != "latest" {
		t.Errorf("chunks = %+v, want single latest chunk", chunks)
	}
}
