package agent

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/forgeworks/foreman/internal/errors"
	"github.com/forgeworks/foreman/internal/logging"
)

// fakeWorker feeds scripted events to the pool.
type fakeWorker struct {
	events chan WorkerEvent
	killed atomic.Bool
}

func newFakeWorker() *fakeWorker {
	return &fakeWorker{events: make(chan WorkerEvent, 16)}
}

func (f *fakeWorker) Events() <-chan WorkerEvent { return f.events }

func (f *fakeWorker) Kill() error {
	f.killed.Store(true)
	return nil
}

func (f *fakeWorker) stdout(text string) {
	f.events <- WorkerEvent{Kind: EventOutput, Stream: StreamStdout, Text: text}
}

func (f *fakeWorker) stderr(text string) {
	f.events <- WorkerEvent{Kind: EventOutput, Stream: StreamStderr, Text: text}
}

func (f *fakeWorker) exit(code int) {
	f.events <- WorkerEvent{Kind: EventExit, ExitCode: code}
	close(f.events)
}

// fakeSpawner hands out one fake worker per spawn call.
type fakeSpawner struct {
	mu      sync.Mutex
	workers []*fakeWorker
}

func (f *fakeSpawner) spawn(_ context.Context, _ string) (Worker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w := newFakeWorker()
	f.workers = append(f.workers, w)
	return w, nil
}

func (f *fakeSpawner) last() *fakeWorker {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.workers[len(f.workers)-1]
}

func newTestPool(t *testing.T, size int) (*Pool, *fakeSpawner) {
	t.Helper()
	spawner := &fakeSpawner{}
	return NewPool(size, 100, spawner.spawn, logging.Nop(), nil), spawner
}

// waitFor polls until cond holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

func slotState(p *Pool, id int) SlotState {
	return p.Slots()[id-1].State
}

func TestAssignSentinelCompletesBeforeExit(t *testing.T) {
	pool, spawner := newTestPool(t, 3)

	var completions atomic.Int32
	var gotRef atomic.Value
	pool.OnComplete(func(slotID int, ref string) {
		completions.Add(1)
		gotRef.Store(ref)
	})

	if err := pool.Assign(context.Background(), 1, Assignment{
		TaskID: "1-1", Title: "Build it", Instruction: "do the work", Ref: "42",
	}); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if got := slotState(pool, 1); got != StateWorking {
		t.Fatalf("state after assign = %s, want working", got)
	}

	w := spawner.last()
	w.stdout("starting up")
	w.stdout("all done: TASK_COMPLETE")

	waitFor(t, func() bool { return slotState(pool, 1) == StateDone }, "slot to reach done")
	if got := completions.Load(); got != 1 {
		t.Errorf("completions = %d, want 1", got)
	}
	if got := gotRef.Load(); got != "42" {
		t.Errorf("completion ref = %v, want 42", got)
	}

	// The subsequent clean exit must not fire completion again.
	w.exit(0)
	time.Sleep(50 * time.Millisecond)
	if got := completions.Load(); got != 1 {
		t.Errorf("completions after exit = %d, want 1", got)
	}
}

func TestCleanExitWithoutSentinelCompletes(t *testing.T) {
	pool, spawner := newTestPool(t, 1)

	var completions atomic.Int32
	pool.OnComplete(func(int, string) { completions.Add(1) })

	if err := pool.Assign(context.Background(), 1, Assignment{TaskID: "1-1", Ref: "7"}); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	w := spawner.last()
	w.stdout("quiet worker")
	w.exit(0)

	waitFor(t, func() bool { return slotState(pool, 1) == StateDone }, "slot to reach done")
	waitFor(t, func() bool { return completions.Load() == 1 }, "completion callback")
}

func TestNonZeroExitIsError(t *testing.T) {
	pool, spawner := newTestPool(t, 1)

	var completions atomic.Int32
	pool.OnComplete(func(int, string) { completions.Add(1) })

	if err := pool.Assign(context.Background(), 1, Assignment{TaskID: "1-1"}); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	w := spawner.last()
	w.stderr("something broke")
	w.exit(2)

	waitFor(t, func() bool { return slotState(pool, 1) == StateError }, "slot to reach error")
	if got := completions.Load(); got != 0 {
		t.Errorf("completions = %d, want 0", got)
	}

	// Buffered stderr is retained for display.
	out, err := pool.Output(1)
	if err != nil {
		t.Fatalf("Output: %v", err)
	}
	if want := "[stderr] something broke\n"; !strings.Contains(out, want) {
		t.Errorf("output missing stderr chunk:\n%s", out)
	}
	if want := "[stderr] worker exited with code 2\n"; !strings.Contains(out, want) {
		t.Errorf("output missing exit note:\n%s", out)
	}
}

func TestStderrDoesNotChangeState(t *testing.T) {
	pool, spawner := newTestPool(t, 1)

	if err := pool.Assign(context.Background(), 1, Assignment{TaskID: "1-1"}); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	w := spawner.last()
	// A sentinel on stderr must not complete the task.
	w.stderr("TASK_COMPLETE")

	waitFor(t, func() bool {
		out, _ := pool.Output(1)
		return out != ""
	}, "stderr chunk to land")

	if got := slotState(pool, 1); got != StateWorking {
		t.Errorf("state after stderr = %s, want working", got)
	}
}

func TestStopReturnsSlotToIdle(t *testing.T) {
	pool, spawner := newTestPool(t, 1)

	var completions atomic.Int32
	pool.OnComplete(func(int, string) { completions.Add(1) })

	if err := pool.Assign(context.Background(), 1, Assignment{TaskID: "1-1", Ref: "9"}); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	w := spawner.last()

	if err := pool.Stop(1); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	view := pool.Slots()[0]
	if view.State != StateIdle {
		t.Errorf("state after stop = %s, want idle", view.State)
	}
	if view.TaskID != "" || view.Ref != "" {
		t.Errorf("stop did not clear task/ref: %+v", view)
	}
	if !w.killed.Load() {
		t.Error("worker not killed on stop")
	}

	// A late exit from the killed worker must not resurrect the slot.
	w.exit(0)
	time.Sleep(50 * time.Millisecond)
	if got := slotState(pool, 1); got != StateIdle {
		t.Errorf("state after stale exit = %s, want idle", got)
	}
	if got := completions.Load(); got != 0 {
		t.Errorf("completions after stale exit = %d, want 0", got)
	}

	// Stop on an idle slot is a no-op.
	if err := pool.Stop(1); err != nil {
		t.Errorf("second Stop: %v", err)
	}
}

func TestAssignBusyAndTerminalSlots(t *testing.T) {
	pool, spawner := newTestPool(t, 1)

	if err := pool.Assign(context.Background(), 1, Assignment{TaskID: "1-1"}); err != nil {
		t.Fatalf("Assign: %v", err)
	}
	if err := pool.Assign(context.Background(), 1, Assignment{TaskID: "1-2"}); !errors.Is(err, errors.ErrSlotBusy) {
		t.Errorf("assign to working slot error = %v, want ErrSlotBusy", err)
	}

	spawner.last().exit(0)
	waitFor(t, func() bool { return slotState(pool, 1) == StateDone }, "slot to reach done")

	// A terminal slot resets automatically on the next assignment.
	if err := pool.Assign(context.Background(), 1, Assignment{TaskID: "1-2"}); err != nil {
		t.Fatalf("Assign after done: %v", err)
	}
	if got := slotState(pool, 1); got != StateWorking {
		t.Errorf("state after reassign = %s, want working", got)
	}
	out, _ := pool.Output(1)
	if out != "" {
		t.Errorf("buffer not cleared on reassign:\n%s", out)
	}
}

func TestIdleAndCapacity(t *testing.T) {
	pool, _ := newTestPool(t, 3)

	if got := pool.Size(); got != 3 {
		t.Fatalf("Size = %d, want 3", got)
	}

	id, ok := pool.Idle()
	if !ok || id != 1 {
		t.Fatalf("Idle = (%d, %v), want (1, true)", id, ok)
	}

	for i := 1; i <= 3; i++ {
		if err := pool.Assign(context.Background(), i, Assignment{TaskID: "1-1"}); err != nil {
			t.Fatalf("Assign slot %d: %v", i, err)
		}
	}
	if id, ok := pool.Idle(); ok {
		t.Errorf("Idle on full pool = (%d, true), want none", id)
	}
}

func TestSlotNotFound(t *testing.T) {
	pool, _ := newTestPool(t, 2)

	if err := pool.Assign(context.Background(), 0, Assignment{}); !errors.Is(err, errors.ErrSlotNotFound) {
		t.Errorf("Assign slot 0 error = %v, want ErrSlotNotFound", err)
	}
	if err := pool.Stop(5); !errors.Is(err, errors.ErrSlotNotFound) {
		t.Errorf("Stop slot 5 error = %v, want ErrSlotNotFound", err)
	}
	if _, err := pool.Output(3); !errors.Is(err, errors.ErrSlotNotFound) {
		t.Errorf("Output slot 3 error = %v, want ErrSlotNotFound", err)
	}
}

func TestSpawnFailureMarksSlotError(t *testing.T) {
	spawnErr := errors.New("command not found")
	spawn := func(context.Context, string) (Worker, error) { return nil, spawnErr }
	pool := NewPool(1, 10, spawn, logging.Nop(), nil)

	err := pool.Assign(context.Background(), 1, Assignment{TaskID: "1-1"})
	if !errors.Is(err, spawnErr) {
		t.Fatalf("Assign error = %v, want wrapped spawn error", err)
	}
	if got := slotState(pool, 1); got != StateError {
		t.Errorf("state after spawn failure = %s, want error", got)
	}
	out, _ := pool.Output(1)
	if out == "" {
		t.Error("spawn failure not recorded in output buffer")
	}
}
