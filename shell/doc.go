// Package shell implements the interactive command loop of bcdump:
// line reading, tokenization, command-table dispatch with aliasing,
// per-command option scoping, and the help subsystem.
//
// The shell is deliberately thin: every command validates its own
// arguments, then delegates to the analyzer or disassembler service it
// was constructed with. Recoverable errors (unknown commands, bad
// arity, unparseable integers) are printed to the session output and
// never terminate the loop; only the quit command or input exhaustion
// does.
package shell
