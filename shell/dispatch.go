package shell

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/chazu/bcdump/pkg/bytecode"
	"github.com/chazu/bcdump/printer"
)

var log = commonlog.GetLogger("bcdump.shell")

// Disassembler is the slice of the disassembler service the shell
// drives. The option set is persistent state owned by the service;
// the shell only ever overrides it for the scope of one command.
type Disassembler interface {
	Options() bytecode.Options
	SetOptions(opts bytecode.Options)
	Disassemble(w io.Writer) error
	DisassembleFunction(id uint32, w io.Writer) error
}

// Analyzer is the slice of the profile analyzer the shell drives. Dump
// methods write to the analyzer's own output stream; methods taking an
// id return a range error for the shell to report.
type Analyzer interface {
	DumpFunctionStats()
	DumpFunctionBasicBlockStats(id uint32) error
	DumpInstructionStats()
	DumpString(id uint32) error
	DumpFileName(id uint32) error
	DumpIO()
	DumpSummary()
	DumpBasicBlockStats()
	DumpAllFunctionOffsets(p printer.Printer)
	DumpFunctionOffsets(id uint32, p printer.Printer) error
	FunctionFromVirtualOffset(offset uint32) (uint32, bool)
	DumpEpilogue()
}

// DefaultPrompt is the interactive prompt unless overridden by config.
const DefaultPrompt = "bcdump> "

// Session binds the dispatch core to its collaborating services.
type Session struct {
	out      io.Writer
	analyzer Analyzer
	dis      Disassembler
	reader   LineReader
	prompt   string
}

// NewSession creates a session writing command output to out and
// reading interactive input from reader.
func NewSession(out io.Writer, an Analyzer, dis Disassembler, reader LineReader) *Session {
	return &Session{
		out:      out,
		analyzer: an,
		dis:      dis,
		reader:   reader,
		prompt:   DefaultPrompt,
	}
}

// SetPrompt overrides the interactive prompt.
func (s *Session) SetPrompt(prompt string) {
	s.prompt = prompt
}

// tokenize splits one input line into whitespace-delimited tokens.
// Splitting is on single spaces, so consecutive spaces produce empty
// tokens; arity checks downstream reject those explicitly. An empty
// line yields a nil sequence, which dispatch treats as a no-op.
func tokenize(line string) []string {
	if line == "" {
		return nil
	}
	return strings.Split(line, " ")
}

// extractFlag removes the first exact occurrence of name from tokens,
// preserving the order of the rest. Returns the remaining tokens and
// whether the flag was present.
func extractFlag(tokens []string, name string) ([]string, bool) {
	for i, tok := range tokens {
		if tok == name {
			return append(tokens[:i:i], tokens[i+1:]...), true
		}
	}
	return tokens, false
}

// command is one entry of the dispatch table: a canonical name, its
// aliases, an optional help key, and the handler. Handlers return the
// termination signal plus ok=false when the command failed validation
// (which suppresses the trailing separator line).
type command struct {
	name    string
	aliases []string
	helpKey string
	run     func(s *Session, tokens []string) (terminate, ok bool)
}

// commandTable defines every command once. Lookup goes through
// commandIndex, which maps each name and alias to its entry.
var commandTable = []command{
	{name: "function", aliases: []string{"fun"}, helpKey: "function", run: (*Session).cmdFunction},
	{name: "instruction", aliases: []string{"inst"}, helpKey: "instruction", run: (*Session).cmdInstruction},
	{name: "disassemble", aliases: []string{"dis"}, helpKey: "disassemble", run: (*Session).cmdDisassemble},
	{name: "string", aliases: []string{"str"}, run: (*Session).cmdString},
	{name: "filename", run: (*Session).cmdFilename},
	{name: "offset", aliases: []string{"offsets"}, run: (*Session).cmdOffsets},
	{name: "io", run: (*Session).cmdIO},
	{name: "summary", aliases: []string{"sum"}, helpKey: "summary", run: (*Session).cmdSummary},
	{name: "block", helpKey: "block", run: (*Session).cmdBlock},
	{name: "at_virtual", aliases: []string{"at-virtual"}, helpKey: "at-virtual", run: (*Session).cmdAtVirtual},
	{name: "epilogue", aliases: []string{"epi"}, run: (*Session).cmdEpilogue},
	{name: "help", aliases: []string{"h"}, helpKey: "help", run: (*Session).cmdHelp},
	{name: "quit", run: (*Session).cmdQuit},
}

var commandIndex = map[string]*command{}

func init() {
	for i := range commandTable {
		cmd := &commandTable[i]
		commandIndex[cmd.name] = cmd
		for _, alias := range cmd.aliases {
			commandIndex[alias] = cmd
		}
	}
}

// Execute tokenizes and dispatches one input line.
// Returns true to signal loop termination.
func (s *Session) Execute(line string) bool {
	return s.dispatch(tokenize(line))
}

// dispatch routes a token sequence to its command handler. Empty
// sequences (and blank first tokens from all-whitespace lines) are
// no-ops. Unknown commands print the invalid-command fallback and
// never terminate. Successful non-terminating commands are followed
// by one blank separator line.
func (s *Session) dispatch(tokens []string) bool {
	if len(tokens) == 0 || tokens[0] == "" {
		return false
	}

	cmd, found := commandIndex[tokens[0]]
	if !found {
		s.printHelp(tokens[0])
		return false
	}
	log.Debugf("dispatch %s (%d tokens)", cmd.name, len(tokens))

	terminate, ok := cmd.run(s, tokens)
	if ok && !terminate {
		fmt.Fprintln(s.out)
	}
	return terminate
}

// parseUint parses an unsigned integer argument accepting any base
// prefix (0x.., 0o.., 0b.., decimal). On failure it prints the parse
// error for the named argument and returns ok=false.
func (s *Session) parseUint(token, what string) (uint32, bool) {
	v, err := strconv.ParseUint(token, 0, 32)
	if err != nil {
		fmt.Fprintf(s.out, "Error: cannot parse %s as integer.\n", what)
		return 0, false
	}
	return uint32(v), true
}

// reportErr prints a recoverable command error to the session output.
func (s *Session) reportErr(err error) {
	fmt.Fprintf(s.out, "Error: %v\n", err)
}

func (s *Session) cmdFunction(tokens []string) (bool, bool) {
	switch len(tokens) {
	case 1:
		s.analyzer.DumpFunctionStats()
	case 2:
		funcID, ok := s.parseUint(tokens[1], "func_id")
		if !ok {
			return false, false
		}
		if err := s.analyzer.DumpFunctionBasicBlockStats(funcID); err != nil {
			s.reportErr(err)
			return false, false
		}
	default:
		s.showUsage(commandIndex["function"])
		return false, false
	}
	return false, true
}

func (s *Session) cmdInstruction(tokens []string) (bool, bool) {
	if len(tokens) != 1 {
		s.showUsage(commandIndex["instruction"])
		return false, false
	}
	s.analyzer.DumpInstructionStats()
	return false, true
}

func (s *Session) cmdDisassemble(tokens []string) (bool, bool) {
	tokens, offsets := extractFlag(tokens, "-offsets")
	localOptions := bytecode.OptionNone
	if offsets {
		localOptions = bytecode.OptionIncludeVirtualOffsets
	}
	guard := holdOptions(s.dis, s.dis.Options()|localOptions)
	defer guard.Release()

	switch len(tokens) {
	case 1:
		if err := s.dis.Disassemble(s.out); err != nil {
			s.reportErr(err)
			return false, false
		}
	case 2:
		funcID, ok := s.parseUint(tokens[1], "func_id")
		if !ok {
			return false, false
		}
		if err := s.dis.DisassembleFunction(funcID, s.out); err != nil {
			s.reportErr(err)
			return false, false
		}
	default:
		s.showUsage(commandIndex["disassemble"])
		return false, false
	}
	return false, true
}

func (s *Session) cmdString(tokens []string) (bool, bool) {
	arg := ""
	if len(tokens) > 1 {
		arg = tokens[1]
	}
	stringID, ok := s.parseUint(arg, "string_id")
	if !ok {
		return false, false
	}
	if err := s.analyzer.DumpString(stringID); err != nil {
		s.reportErr(err)
		return false, false
	}
	return false, true
}

func (s *Session) cmdFilename(tokens []string) (bool, bool) {
	arg := ""
	if len(tokens) > 1 {
		arg = tokens[1]
	}
	filenameID, ok := s.parseUint(arg, "filename_id")
	if !ok {
		return false, false
	}
	if err := s.analyzer.DumpFileName(filenameID); err != nil {
		s.reportErr(err)
		return false, false
	}
	return false, true
}

func (s *Session) cmdOffsets(tokens []string) (bool, bool) {
	tokens, json := extractFlag(tokens, "-json")
	p := printer.New(s.out, json)
	switch len(tokens) {
	case 1:
		s.analyzer.DumpAllFunctionOffsets(p)
	case 2:
		funcID, ok := s.parseUint(tokens[1], "func_id")
		if !ok {
			return false, false
		}
		if err := s.analyzer.DumpFunctionOffsets(funcID, p); err != nil {
			s.reportErr(err)
			return false, false
		}
	default:
		fmt.Fprintln(s.out, "Usage: offsets [funcId]")
	}
	return false, true
}

func (s *Session) cmdIO(tokens []string) (bool, bool) {
	s.analyzer.DumpIO()
	return false, true
}

func (s *Session) cmdSummary(tokens []string) (bool, bool) {
	s.analyzer.DumpSummary()
	return false, true
}

func (s *Session) cmdBlock(tokens []string) (bool, bool) {
	s.analyzer.DumpBasicBlockStats()
	return false, true
}

func (s *Session) cmdAtVirtual(tokens []string) (bool, bool) {
	tokens, json := extractFlag(tokens, "-json")
	if len(tokens) != 2 {
		s.showUsage(commandIndex["at_virtual"])
		return false, false
	}
	virtualOffset, ok := s.parseUint(tokens[1], "virtualOffset")
	if !ok {
		return false, false
	}
	funcID, found := s.analyzer.FunctionFromVirtualOffset(virtualOffset)
	if !found {
		fmt.Fprintf(s.out, "Virtual offset %d is invalid.\n", virtualOffset)
		return false, true
	}
	p := printer.New(s.out, json)
	if err := s.analyzer.DumpFunctionOffsets(funcID, p); err != nil {
		s.reportErr(err)
		return false, false
	}
	return false, true
}

func (s *Session) cmdEpilogue(tokens []string) (bool, bool) {
	s.analyzer.DumpEpilogue()
	return false, true
}

func (s *Session) cmdHelp(tokens []string) (bool, bool) {
	if len(tokens) == 2 {
		s.printHelp(tokens[1])
	} else {
		s.printHelpAll()
	}
	return false, false
}

func (s *Session) cmdQuit(tokens []string) (bool, bool) {
	return true, true
}
