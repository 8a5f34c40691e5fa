package shell

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"syscall"
)

// LineReader pulls one line of input at a time. ok is false only on
// genuine input exhaustion; a blank line returns ok=true with an empty
// string. The prompt is displayed before reading in whatever way the
// implementation supports.
type LineReader interface {
	ReadLine(prompt string) (line string, ok bool)
}

// ioLineReader reads lines from an io.Reader, writing the prompt to a
// separate writer first. Used for piped and scripted input.
type ioLineReader struct {
	br     *bufio.Reader
	prompt io.Writer
}

// NewLineReader creates a reader over r. The prompt is written to
// promptW before each read; pass nil to suppress prompts.
func NewLineReader(r io.Reader, promptW io.Writer) LineReader {
	return &ioLineReader{br: bufio.NewReader(r), prompt: promptW}
}

// ReadLine reads one line, retrying on EINTR. Some input layers mark
// the stream exhausted after an interrupted read; retrying here keeps
// a signal delivery from ending the session early.
func (r *ioLineReader) ReadLine(prompt string) (string, bool) {
	if r.prompt != nil {
		io.WriteString(r.prompt, prompt)
	}

	var sb strings.Builder
	for {
		chunk, err := r.br.ReadString('\n')
		sb.WriteString(chunk)
		if err == nil {
			return strings.TrimSuffix(sb.String(), "\n"), true
		}
		if errors.Is(err, syscall.EINTR) {
			continue
		}
		// Input exhausted. A partial final line still counts.
		if sb.Len() > 0 {
			return strings.TrimSuffix(sb.String(), "\n"), true
		}
		return "", false
	}
}
