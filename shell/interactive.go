package shell

import (
	"errors"
	"io"

	"github.com/peterh/liner"
)

// InteractiveReader reads lines through liner, giving the interactive
// session prompt display, line editing, and history. Close must be
// called before process exit to restore the terminal.
type InteractiveReader struct {
	state *liner.State
}

// NewInteractiveReader creates a liner-backed reader. Only use when
// stdin is a terminal; liner takes the terminal out of canonical mode.
func NewInteractiveReader() *InteractiveReader {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	return &InteractiveReader{state: state}
}

// ReadLine reads one line with editing support. Ctrl-C aborts the
// current line and reads as a blank line; Ctrl-D on an empty line is
// input exhaustion.
func (r *InteractiveReader) ReadLine(prompt string) (string, bool) {
	line, err := r.state.Prompt(prompt)
	if err != nil {
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if errors.Is(err, io.EOF) {
			return "", false
		}
		return "", false
	}
	if line != "" {
		r.state.AppendHistory(line)
	}
	return line, true
}

// Close restores the terminal state.
func (r *InteractiveReader) Close() error {
	return r.state.Close()
}
