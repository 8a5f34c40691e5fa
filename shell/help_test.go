package shell

import (
	"strings"
	"testing"
)

func TestHelpListsEveryKey(t *testing.T) {
	s, _, _, buf := newTestSession()

	s.Execute("help")
	out := buf.String()

	if !strings.HasPrefix(out, helpPreamble) {
		t.Errorf("missing preamble:\n%s", out)
	}

	listed := map[string]bool{}
	for _, line := range strings.Split(strings.TrimSpace(strings.TrimPrefix(out, helpPreamble)), "\n") {
		listed[line] = true
	}
	want := []string{"function", "instruction", "disassemble", "summary", "io", "block", "at-virtual", "help"}
	if len(listed) != len(want) {
		t.Errorf("listed %d names, want %d:\n%s", len(listed), len(want), out)
	}
	for _, name := range want {
		if !listed[name] {
			t.Errorf("help output missing %q:\n%s", name, out)
		}
	}
}

func TestHelpNoSeparator(t *testing.T) {
	s, _, _, buf := newTestSession()

	s.Execute("help")
	if strings.HasSuffix(buf.String(), "\n\n") {
		t.Error("help printed the trailing separator")
	}
}

func TestHelpSingleCommand(t *testing.T) {
	s, _, _, buf := newTestSession()

	s.Execute("help function")
	if got := buf.String(); got != helpText["function"] {
		t.Errorf("output = %q, want the function help text", got)
	}
}

func TestHelpResolvesAliases(t *testing.T) {
	cases := map[string]string{
		"dis":  "disassemble",
		"fun":  "function",
		"inst": "instruction",
		"sum":  "summary",
		"h":    "help",
	}
	for alias, key := range cases {
		s, _, _, buf := newTestSession()
		s.Execute("help " + alias)
		if got := buf.String(); got != helpText[key] {
			t.Errorf("help %s = %q, want text for %s", alias, got, key)
		}
	}
}

func TestHelpUnregisteredCommands(t *testing.T) {
	// These commands exist but have no help entry.
	for _, name := range []string{"string", "str", "filename", "offset", "offsets", "epilogue", "epi", "quit"} {
		s, _, _, buf := newTestSession()
		s.Execute("help " + name)
		if got := buf.String(); got != "Invalid command: "+name+"\n" {
			t.Errorf("help %s = %q, want invalid-command message", name, got)
		}
	}
}

func TestHelpUnknownName(t *testing.T) {
	s, _, _, buf := newTestSession()

	s.Execute("help bogus_name")
	if got := buf.String(); got != "Invalid command: bogus_name\n" {
		t.Errorf("output = %q", got)
	}
}
