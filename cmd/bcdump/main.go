// bcdump - interactive inspector for compiled bytecode modules
//
// Build: go build ./cmd/bcdump
// Usage:
//   bcdump program.bcm                          # interactive session
//   bcdump -c "summary;quit" program.bcm        # scripted session
//   bcdump -profile-file trace.json program.bcm # with profile data
//   bcdump -show-section-ranges -human program.bcm
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
	"golang.org/x/term"

	"github.com/chazu/bcdump/analyzer"
	"github.com/chazu/bcdump/config"
	"github.com/chazu/bcdump/pkg/bytecode"
	"github.com/chazu/bcdump/shell"
)

func main() {
	os.Exit(run())
}

func run() int {
	outPath := flag.String("out", "", "Output file name")
	startupList := flag.String("c", "", "A list of commands to execute before entering "+
		"interactive mode separated by semicolon, like -c \"cmd1;cmd2;quit\"")
	prettyDisassemble := flag.Bool("pretty-disassemble", true, "Pretty print the disassembled bytecode (true by default)")
	analyzeMode := flag.String("mode", "", "The analysis mode you want to use (either instruction or function)")
	profileFile := flag.String("profile-file", "", "Log file in json format generated by the basic block profiler")
	showSectionRanges := flag.Bool("show-section-ranges", false, "Show the byte range of each section in the module")
	humanize := flag.Bool("human", false, "Print module section ranges in hex format")
	verbose := flag.Bool("v", false, "Verbose diagnostics")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: bcdump [options] <module-file>\n\n")
		fmt.Fprintf(os.Stderr, "Inspects a compiled bytecode module interactively.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  bcdump program.bcm                   # interactive session\n")
		fmt.Fprintf(os.Stderr, "  bcdump -c \"summary;quit\" program.bcm # run commands and exit\n")
	}
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)
	log := commonlog.GetLogger("bcdump")

	cfg, err := config.Discover()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: ignoring config: %v\n", err)
		cfg = config.Default()
	}

	inputPath := flag.Arg(0)
	if inputPath == "" {
		flag.Usage()
		return 1
	}

	data, err := os.ReadFile(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: fail to open file: %s: %v\n", inputPath, err)
		return 1
	}

	mod, err := bytecode.Deserialize(data)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: fail to deserialize bytecode: %v\n", err)
		return 1
	}
	log.Infof("loaded %s: %d functions, %d strings", inputPath, mod.FunctionCount(), mod.StringCount())

	output := os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: fail to open file %s: %v\n", *outPath, err)
			return 1
		}
		defer f.Close()
		output = f
	}

	if *showSectionRanges {
		walker := bytecode.NewSectionWalker(mod, output)
		walker.PrintSectionRanges(*humanize)
		return 0
	}

	var profileData []byte
	if *profileFile != "" {
		profileData, err = os.ReadFile(*profileFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: fail to open file: %s: %v\n", *profileFile, err)
			return 1
		}
	}

	startup, err := startupCommands(*startupList, *analyzeMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	an, err := analyzer.New(output, mod, profileData)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: fail to parse profile file: %v\n", err)
		return 1
	}

	// Include source information and function ids by default in
	// disassembly output.
	dis := bytecode.NewDisassembler(mod)
	options := bytecode.OptionIncludeSource | bytecode.OptionIncludeFunctionIDs
	if *prettyDisassemble && cfg.Disassembly.Pretty {
		options |= bytecode.OptionPretty
	}
	dis.SetOptions(options)

	var reader shell.LineReader
	if *outPath == "" && term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())) {
		ir := shell.NewInteractiveReader()
		defer ir.Close()
		reader = ir
	} else {
		reader = shell.NewLineReader(os.Stdin, output)
	}

	session := shell.NewSession(output, an, dis, reader)
	if cfg.Shell.Prompt != "" {
		session.SetPrompt(cfg.Shell.Prompt)
	}
	session.Run(startup)
	return 0
}

// startupCommands builds the startup batch from the -c list, or from
// the -mode shorthand when no explicit list was given.
func startupCommands(list, mode string) ([]string, error) {
	var startup []string
	for _, cmd := range strings.Split(list, ";") {
		cmd = strings.TrimSpace(cmd)
		if cmd != "" {
			startup = append(startup, cmd)
		}
	}
	if len(startup) > 0 {
		return startup, nil
	}

	switch mode {
	case "":
		return nil, nil
	case "instruction", "function":
		return []string{mode, "quit"}, nil
	default:
		return nil, fmt.Errorf("invalid analysis mode: %q (use instruction or function)", mode)
	}
}
