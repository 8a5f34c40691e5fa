package shell

import (
	"bytes"
	"testing"
)

// scriptReader feeds a fixed sequence of lines, then reports input
// exhaustion. It records every prompt it was shown.
type scriptReader struct {
	lines   []string
	pos     int
	prompts []string
}

func (r *scriptReader) ReadLine(prompt string) (string, bool) {
	r.prompts = append(r.prompts, prompt)
	if r.pos >= len(r.lines) {
		return "", false
	}
	line := r.lines[r.pos]
	r.pos++
	return line, true
}

func newScriptedSession(lines []string) (*Session, *fakeAnalyzer, *scriptReader, *bytes.Buffer) {
	var buf bytes.Buffer
	an := &fakeAnalyzer{resolve: map[uint32]uint32{}}
	reader := &scriptReader{lines: lines}
	return NewSession(&buf, an, &fakeDisassembler{}, reader), an, reader, &buf
}

func TestRunStartupThenTerminate(t *testing.T) {
	s, an, reader, _ := newScriptedSession([]string{"io"})

	s.Run([]string{"summary", "quit"})

	if len(an.calls) != 1 || an.calls[0] != "summary" {
		t.Errorf("calls = %v", an.calls)
	}
	if len(reader.prompts) != 0 {
		t.Error("terminating startup batch still entered interactive mode")
	}
}

func TestRunStartupStopsAtTerminate(t *testing.T) {
	s, an, _, _ := newScriptedSession(nil)

	s.Run([]string{"quit", "summary"})

	if len(an.calls) != 0 {
		t.Errorf("commands after quit still ran: %v", an.calls)
	}
}

func TestRunInteractiveLoop(t *testing.T) {
	s, an, reader, _ := newScriptedSession([]string{"summary", "", "io", "quit", "epilogue"})

	s.Run(nil)

	want := []string{"summary", "io"}
	if len(an.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", an.calls, want)
	}
	for i := range want {
		if an.calls[i] != want[i] {
			t.Errorf("calls[%d] = %s, want %s", i, an.calls[i], want[i])
		}
	}
	// One prompt per line read, none after quit.
	if len(reader.prompts) != 4 {
		t.Errorf("prompted %d times, want 4", len(reader.prompts))
	}
}

func TestRunEndsOnInputExhaustion(t *testing.T) {
	s, an, _, _ := newScriptedSession([]string{"summary"})

	s.Run(nil)

	if len(an.calls) != 1 {
		t.Errorf("calls = %v", an.calls)
	}
}

func TestSetPrompt(t *testing.T) {
	s, _, reader, _ := newScriptedSession(nil)
	s.SetPrompt("debug> ")

	s.Run(nil)

	if len(reader.prompts) != 1 || reader.prompts[0] != "debug> " {
		t.Errorf("prompts = %v", reader.prompts)
	}
}

func TestDefaultPrompt(t *testing.T) {
	s, _, reader, _ := newScriptedSession(nil)

	s.Run(nil)

	if len(reader.prompts) != 1 || reader.prompts[0] != DefaultPrompt {
		t.Errorf("prompts = %v, want [%q]", reader.prompts, DefaultPrompt)
	}
}
