package executil

import (
	"context"
	"sync"
)

// RecordedCommand captures a command that was executed.
type RecordedCommand struct {
	Cmd   string
	Args  []string
	Input string
}

// RecordingExecutor captures commands for testing.
// Configure Outputs and Errors maps to control return values, or Handler
// when output depends on the arguments.
type RecordingExecutor struct {
	mu       sync.Mutex
	Commands []RecordedCommand

	// Outputs maps command names to their output.
	// Key is the command name (e.g., "ollama").
	Outputs map[string][]byte

	// Errors maps command names to their error.
	Errors map[string]error

	// Handler, when set, takes precedence over Outputs and Errors.
	Handler func(cmd RecordedCommand) ([]byte, error)
}

// Run records the command and returns configured output/error.
func (e *RecordingExecutor) Run(ctx context.Context, cmd string, args ...string) ([]byte, error) {
	return e.record(RecordedCommand{Cmd: cmd, Args: args})
}

// RunInput records the command with its stdin and returns configured output/error.
func (e *RecordingExecutor) RunInput(ctx context.Context, input string, cmd string, args ...string) ([]byte, error) {
	return e.record(RecordedCommand{Cmd: cmd, Args: args, Input: input})
}

func (e *RecordingExecutor) record(rc RecordedCommand) ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.Commands = append(e.Commands, rc)

	if e.Handler != nil {
		return e.Handler(rc)
	}

	var out []byte
	var err error

	if e.Outputs != nil {
		out = e.Outputs[rc.Cmd]
	}
	if e.Errors != nil {
		err = e.Errors[rc.Cmd]
	}

	return out, err
}

// Named returns the recorded invocations of one command.
func (e *RecordingExecutor) Named(cmd string) []RecordedCommand {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []RecordedCommand
	for _, c := range e.Commands {
		if c.Cmd == cmd {
			out = append(out, c)
		}
	}
	return out
}

// Reset clears recorded commands.
func (e *RecordingExecutor) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Commands = nil
}
