package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/forgeworks/foreman/internal/errors"
	"github.com/forgeworks/foreman/internal/event"
	"github.com/forgeworks/foreman/internal/logging"
)

// CompletionFunc is invoked when a slot reaches done, with the slot id
// and the assignment's external reference. Fired at most once per
// assignment, even when the sentinel and a clean exit both arrive.
type CompletionFunc func(slotID int, ref string)

// slot is the pool's internal record for one worker position. All fields
// are guarded by the pool mutex except buffer, which is internally
// synchronized so Output never contends with event handling.
type slot struct {
	id     int
	state  SlotState
	taskID string
	title  string
	ref    string
	buffer *OutputBuffer
	worker Worker

	// gen increments on every assignment and stop. Events from a
	// previous worker carry a stale generation and are dropped, so a
	// killed process's late exit cannot corrupt a reassigned slot.
	gen uint64

	// completed latches once the completion callback has fired for the
	// current assignment.
	completed bool
}

// Pool owns a fixed set of worker slots. Slot count is the hard bound on
// concurrently running worker processes; the pool never queues work
// beyond its slots.
type Pool struct {
	mu         sync.Mutex
	slots      []*slot
	spawn      SpawnFunc
	logger     *logging.Logger
	bus        *event.Bus
	onComplete CompletionFunc
}

// NewPool creates a pool of size slots. Each slot's output buffer retains
// up to bufferChunks chunks. The bus may be nil.
func NewPool(size, bufferChunks int, spawn SpawnFunc, logger *logging.Logger, bus *event.Bus) *Pool {
	if size < 1 {
		size = 1
	}
	p := &Pool{spawn: spawn, logger: logger, bus: bus}
	for i := 1; i <= size; i++ {
		p.slots = append(p.slots, &slot{
			id:     i,
			state:  StateIdle,
			buffer: NewOutputBuffer(bufferChunks),
		})
	}
	return p
}

// OnComplete registers the completion callback. Only one callback is
// held; later calls replace earlier ones.
func (p *Pool) OnComplete(fn CompletionFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onComplete = fn
}

// Size returns the slot count.
func (p *Pool) Size() int { return len(p.slots) }

// Assign starts a worker for the assignment on the given slot. A done or
// error slot is reset and reused; a working slot is rejected with
// ErrSlotBusy. Spawn failure leaves the slot in error state with the
// failure recorded in its buffer.
func (p *Pool) Assign(ctx context.Context, slotID int, a Assignment) error {
	p.mu.Lock()

	s, err := p.slot(slotID)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	if s.state == StateWorking {
		ref := s.ref
		p.mu.Unlock()
		return errors.NewAgentError("slot has a running worker", errors.ErrSlotBusy).
			WithSlot(slotID).WithRef(ref)
	}

	s.gen++
	s.state = StateWorking
	s.taskID = a.TaskID
	s.title = a.Title
	s.ref = a.Ref
	s.completed = false
	s.buffer.Reset()

	worker, err := p.spawn(ctx, a.Instruction)
	if err != nil {
		s.state = StateError
		s.worker = nil
		s.buffer.Append(Chunk{Stream: StreamStderr, Text: err.Error()})
		notify := p.notifySlot(s)
		p.mu.Unlock()

		p.logger.Error("worker spawn failed", "slot", slotID, "ref", a.Ref, "error", err)
		if notify != nil {
			notify()
		}
		return errors.NewAgentError("spawn worker", err).WithSlot(slotID).WithRef(a.Ref)
	}
	s.worker = worker
	gen := s.gen
	notify := p.notifySlot(s)
	p.mu.Unlock()

	p.logger.Info("task assigned", "slot", slotID, "task", a.TaskID, "ref", a.Ref)
	if notify != nil {
		notify()
	}
	go p.consume(slotID, gen, worker.Events())
	return nil
}

// Stop terminates the slot's worker and returns the slot to idle,
// clearing its task and reference. No-op unless the slot is working. The
// slot is idle immediately; process teardown is not awaited.
func (p *Pool) Stop(slotID int) error {
	p.mu.Lock()

	s, err := p.slot(slotID)
	if err != nil {
		p.mu.Unlock()
		return err
	}
	if s.state != StateWorking {
		p.mu.Unlock()
		return nil
	}

	worker := s.worker
	s.gen++
	s.state = StateIdle
	s.taskID = ""
	s.title = ""
	s.ref = ""
	s.worker = nil
	s.completed = false
	notify := p.notifySlot(s)
	p.mu.Unlock()

	p.logger.Info("slot stopped", "slot", slotID)
	if notify != nil {
		notify()
	}
	if worker != nil {
		if err := worker.Kill(); err != nil {
			p.logger.Warn("worker kill failed", "slot", slotID, "error", err)
		}
	}
	return nil
}

// Idle returns the id of the first idle slot, or false when every slot
// is occupied or terminal.
func (p *Pool) Idle() (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, s := range p.slots {
		if s.state == StateIdle {
			return s.id, true
		}
	}
	return 0, false
}

// Slots returns a snapshot of every slot.
func (p *Pool) Slots() []SlotView {
	p.mu.Lock()
	defer p.mu.Unlock()

	views := make([]SlotView, 0, len(p.slots))
	for _, s := range p.slots {
		views = append(views, SlotView{
			ID:     s.id,
			State:  s.state,
			TaskID: s.taskID,
			Title:  s.title,
			Ref:    s.ref,
		})
	}
	return views
}

// Output returns the rendered output buffer of one slot.
func (p *Pool) Output(slotID int) (string, error) {
	p.mu.Lock()
	s, err := p.slot(slotID)
	p.mu.Unlock()
	if err != nil {
		return "", err
	}
	return s.buffer.String(), nil
}

// StopAll stops every working slot. Used on shutdown.
func (p *Pool) StopAll() {
	for _, v := range p.Slots() {
		if v.State == StateWorking {
			_ = p.Stop(v.ID)
		}
	}
}

// consume drains one worker's event channel, applying each event to the
// slot as long as the generation still matches. Runs on its own
// goroutine; all state mutation happens under the pool mutex, and
// callbacks fire after the mutex is released so they may call back into
// the pool.
func (p *Pool) consume(slotID int, gen uint64, events <-chan WorkerEvent) {
	for ev := range events {
		if notify := p.handleEvent(slotID, gen, ev); notify != nil {
			notify()
		}
	}
}

func (p *Pool) handleEvent(slotID int, gen uint64, ev WorkerEvent) func() {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, err := p.slot(slotID)
	if err != nil || s.gen != gen {
		return nil
	}

	switch ev.Kind {
	case EventOutput:
		s.buffer.Append(Chunk{Stream: ev.Stream, Text: ev.Text})

		// Stderr is display-only; the sentinel counts only on stdout.
		if ev.Stream == StreamStdout && s.state == StateWorking &&
			strings.Contains(ev.Text, Sentinel) {
			return p.finish(s)
		}
		return nil

	case EventExit:
		if s.state != StateWorking {
			// Sentinel already finished the slot; the exit only
			// releases process ownership.
			s.worker = nil
			return nil
		}
		if ev.ExitCode == 0 {
			return p.finish(s)
		}

		s.state = StateError
		s.worker = nil
		s.buffer.Append(Chunk{
			Stream: StreamStderr,
			Text:   fmt.Sprintf("worker exited with code %d", ev.ExitCode),
		})
		p.logger.Warn("worker failed", "slot", s.id, "task", s.taskID, "exit_code", ev.ExitCode)
		return p.notifySlot(s)
	}
	return nil
}

// finish moves a working slot to done and arranges for the completion
// callback to fire exactly once. Caller holds the mutex; the returned
// closure runs without it.
func (p *Pool) finish(s *slot) func() {
	s.state = StateDone
	s.worker = nil

	first := !s.completed
	s.completed = true
	id, ref, taskID := s.id, s.ref, s.taskID
	state := s.state
	onComplete := p.onComplete

	return func() {
		p.logger.Info("task done", "slot", id, "task", taskID, "ref", ref)
		if p.bus != nil {
			p.bus.Publish(event.SlotChanged{SlotID: id, State: string(state), Ref: ref})
			if first {
				p.bus.Publish(event.TaskCompleted{SlotID: id, Ref: ref})
			}
		}
		if first && onComplete != nil {
			onComplete(id, ref)
		}
	}
}

// notifySlot returns a closure publishing the slot's current state.
// Caller holds the mutex; the closure runs without it.
func (p *Pool) notifySlot(s *slot) func() {
	if p.bus == nil {
		return nil
	}
	id, ref := s.id, s.ref
	state := s.state
	return func() {
		p.bus.Publish(event.SlotChanged{SlotID: id, State: string(state), Ref: ref})
	}
}

func (p *Pool) slot(id int) (*slot, error) {
	if id < 1 || id > len(p.slots) {
		return nil, errors.NewAgentError("no such slot", errors.ErrSlotNotFound).WithSlot(id)
	}
	return p.slots[id-1], nil
}
