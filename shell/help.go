package shell

import "fmt"

// helpPreamble is printed before the command list by a bare help.
const helpPreamble = "These commands are defined internally. Type `help' to see this list.\n" +
	"Type `help name' to find out more about the command `name'.\n\n"

// helpText maps help keys to usage text. The key set is deliberately
// narrower than the command table: commands without an entry fall
// through to the invalid-command message even when they exist.
var helpText = map[string]string{
	"function": "'function': Display the runtime instruction frequency for each function\n" +
		"in descending order, together with its source location.\n" +
		"'function <FUNC_ID>': Dump basic block stats for function with id <FUNC_ID>.\n\n" +
		"USAGE: function <FUNC_ID>\n" +
		"       fun <FUNC_ID>\n",
	"instruction": "Computes the runtime instruction frequency for each instruction " +
		"and displays it in descending order.\n\n" +
		"USAGE: instruction\n" +
		"       inst\n",
	"disassemble": "'disassemble': Display bytecode disassembled output of the whole module.\n" +
		"'disassemble <FUNC_ID>': Display bytecode disassembled output of function with id <FUNC_ID>.\n" +
		"Add the '-offsets' flag to show virtual offsets for all instructions.\n\n" +
		"USAGE: disassemble <FUNC_ID> [-offsets]\n" +
		"       dis <FUNC_ID> [-offsets]\n",
	"summary": "Display overall summary information.\n\n" +
		"USAGE: summary\n",
	"io": "Visualize function page I/O access working set " +
		"in basic block profile trace.\n\n" +
		"USAGE: io\n",
	"block": "Display top hot basic blocks in sorted order.\n\n" +
		"USAGE: block\n",
	"at-virtual": "Display information about the function at a given virtual offset.\n\n" +
		"USAGE: at-virtual <OFFSET> [-json]\n",
	"help": "Help instructions for bcdump tool commands.\n\n" +
		"USAGE: help <COMMAND>\n" +
		"       h <COMMAND>\n",
}

// printHelp prints help for a single name. The name is first tried as
// a help key, then resolved through the command table's alias index so
// `help dis` shows the disassemble text. Names that resolve to a
// command without a help entry still print the invalid-command
// fallback.
func (s *Session) printHelp(name string) {
	if text, ok := helpText[name]; ok {
		fmt.Fprint(s.out, text)
		return
	}
	if cmd, ok := commandIndex[name]; ok && cmd.helpKey != "" {
		if text, ok := helpText[cmd.helpKey]; ok {
			fmt.Fprint(s.out, text)
			return
		}
	}
	fmt.Fprintf(s.out, "Invalid command: %s\n", name)
}

// printHelpAll prints the preamble and every registered help key.
// Enumeration order follows map iteration and is unspecified.
func (s *Session) printHelpAll() {
	fmt.Fprint(s.out, helpPreamble)
	for name := range helpText {
		fmt.Fprintln(s.out, name)
	}
}

// showUsage prints the usage text for a command whose arguments were
// malformed, falling back to the invalid-command message for commands
// without a help entry.
func (s *Session) showUsage(cmd *command) {
	if cmd.helpKey != "" {
		if text, ok := helpText[cmd.helpKey]; ok {
			fmt.Fprint(s.out, text)
			return
		}
	}
	fmt.Fprintf(s.out, "Invalid command: %s\n", cmd.name)
}
