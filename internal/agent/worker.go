package agent

import (
	"bufio"
	"context"
	"io"
	"os/exec"
	"sync"

	"github.com/forgeworks/foreman/internal/errors"
)

// execWorker wraps one exec.Cmd with line-oriented output pumps. Stdout
// and stderr are read on separate pipes so stderr chunks can be tagged;
// both feed a single event channel consumed by the pool.
type execWorker struct {
	cmd    *exec.Cmd
	events chan WorkerEvent

	killOnce sync.Once
	killErr  error
}

// NewCommandSpawner returns a SpawnFunc that runs command with args plus
// the instruction appended as the final argument.
func NewCommandSpawner(command string, args []string) SpawnFunc {
	return func(ctx context.Context, instruction string) (Worker, error) {
		full := make([]string, 0, len(args)+1)
		full = append(full, args...)
		full = append(full, instruction)

		cmd := exec.CommandContext(ctx, command, full...)

		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return nil, errors.NewAgentError("open stdout pipe", err)
		}
		stderr, err := cmd.StderrPipe()
		if err != nil {
			return nil, errors.NewAgentError("open stderr pipe", err)
		}

		if err := cmd.Start(); err != nil {
			return nil, errors.NewAgentError("start worker process", errors.Join(errors.ErrSpawnFailed, err))
		}

		w := &execWorker{
			cmd:    cmd,
			events: make(chan WorkerEvent, 64),
		}

		var pumps sync.WaitGroup
		pumps.Add(2)
		go w.pump(stdout, StreamStdout, &pumps)
		go w.pump(stderr, StreamStderr, &pumps)

		go func() {
			pumps.Wait()
			err := cmd.Wait()

			code := 0
			if err != nil {
				code = 1
				var exitErr *exec.ExitError
				if errors.As(err, &exitErr) {
					code = exitErr.ExitCode()
				}
			}
			w.events <- WorkerEvent{Kind: EventExit, ExitCode: code, Err: err}
			close(w.events)
		}()

		return w, nil
	}
}

// pump forwards one output stream line by line until EOF.
func (w *execWorker) pump(r io.Reader, stream Stream, wg *sync.WaitGroup) {
	defer wg.Done()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		w.events <- WorkerEvent{Kind: EventOutput, Stream: stream, Text: scanner.Text()}
	}
}

// Events returns the worker's event channel.
func (w *execWorker) Events() <-chan WorkerEvent { return w.events }

// Kill terminates the process. The exit event still arrives on the
// channel once Wait observes the death.
func (w *execWorker) Kill() error {
	w.killOnce.Do(func() {
		if w.cmd.Process != nil {
			w.killErr = w.cmd.Process.Kill()
		}
	})
	return w.killErr
}
