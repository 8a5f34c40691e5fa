package shell

// Run drives the session: the startup command batch first, then the
// interactive read-dispatch loop. A terminate signal from a startup
// command skips interactive mode entirely; otherwise the loop runs
// until a command terminates it or input is exhausted.
func (s *Session) Run(startup []string) {
	for _, line := range startup {
		if s.Execute(line) {
			return
		}
	}

	for {
		line, ok := s.reader.ReadLine(s.prompt)
		if !ok {
			return
		}
		if s.Execute(line) {
			return
		}
	}
}
