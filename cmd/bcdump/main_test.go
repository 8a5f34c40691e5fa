package main

import (
	"reflect"
	"testing"
)

func TestStartupCommandsList(t *testing.T) {
	got, err := startupCommands("summary; disassemble 1 ;quit", "")
	if err != nil {
		t.Fatalf("startupCommands failed: %v", err)
	}
	want := []string{"summary", "disassemble 1", "quit"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("startup = %q, want %q", got, want)
	}
}

func TestStartupCommandsEmpty(t *testing.T) {
	got, err := startupCommands("", "")
	if err != nil || got != nil {
		t.Errorf("startupCommands = %q, %v; want nil, nil", got, err)
	}
	got, err = startupCommands(" ; ; ", "")
	if err != nil || got != nil {
		t.Errorf("startupCommands = %q, %v; want nil, nil", got, err)
	}
}

func TestStartupCommandsMode(t *testing.T) {
	for _, mode := range []string{"instruction", "function"} {
		got, err := startupCommands("", mode)
		if err != nil {
			t.Fatalf("mode %s failed: %v", mode, err)
		}
		want := []string{mode, "quit"}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("mode %s: startup = %q, want %q", mode, got, want)
		}
	}
}

func TestStartupCommandsListWinsOverMode(t *testing.T) {
	got, err := startupCommands("summary;quit", "instruction")
	if err != nil {
		t.Fatalf("startupCommands failed: %v", err)
	}
	want := []string{"summary", "quit"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("startup = %q, want %q", got, want)
	}
}

func TestStartupCommandsInvalidMode(t *testing.T) {
	if _, err := startupCommands("", "bogus"); err == nil {
		t.Error("expected error for invalid mode")
	}
}
