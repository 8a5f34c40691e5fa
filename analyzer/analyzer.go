// Package analyzer computes profile statistics and table lookups over
// a bytecode module, optionally weighted by a basic-block profile
// trace. All dump output goes to the writer supplied at construction;
// range and lookup failures are returned as errors for the caller to
// report.
package analyzer

import (
	"encoding/hex"
	"fmt"
	"io"
	"sort"

	"github.com/tliron/commonlog"

	"github.com/chazu/bcdump/pkg/bytecode"
	"github.com/chazu/bcdump/printer"
)

var log = commonlog.GetLogger("bcdump.analyzer")

// Analyzer answers the inspection commands of the interactive shell.
// It is constructed once per session and holds no per-command state.
type Analyzer struct {
	w     io.Writer
	mod   *bytecode.Module
	trace *Trace
}

// New creates an analyzer for the given module. profile is an optional
// JSON basic-block trace; pass nil to run without profile data.
func New(w io.Writer, mod *bytecode.Module, profile []byte) (*Analyzer, error) {
	a := &Analyzer{w: w, mod: mod}
	if profile != nil {
		t, err := ParseTrace(profile)
		if err != nil {
			return nil, err
		}
		a.trace = t
		log.Debugf("loaded profile trace: %d traced functions", len(t.Functions))
	}
	return a, nil
}

// HasProfile reports whether a profile trace was loaded.
func (a *Analyzer) HasProfile() bool {
	return a.trace != nil
}

// requireProfile prints the standard notice when a frequency command
// runs without a trace. Returns false when no trace is loaded.
func (a *Analyzer) requireProfile() bool {
	if a.trace == nil {
		fmt.Fprintf(a.w, "No profile data loaded. Run with -profile-file to enable frequency commands.\n")
		return false
	}
	return true
}

// functionWeight returns the number of dynamically executed
// instructions for a function: each traced block's execution count
// multiplied by its instruction count.
func (a *Analyzer) functionWeight(id uint32) uint64 {
	ft := a.trace.ForFunction(id)
	if ft == nil {
		return 0
	}
	f := &a.mod.Functions[id]
	blocks := BasicBlocks(f.Code)
	instrsAt := make(map[uint32]int, len(blocks))
	for _, b := range blocks {
		instrsAt[b.Start] = b.InstructionCount(f.Code)
	}

	var total uint64
	for _, bt := range ft.Blocks {
		total += bt.ExecutionCount * uint64(instrsAt[bt.Offset])
	}
	return total
}

// DumpFunctionStats prints the runtime instruction frequency of every
// function in descending order, with source information.
func (a *Analyzer) DumpFunctionStats() {
	if !a.requireProfile() {
		return
	}

	type row struct {
		id     uint32
		weight uint64
	}
	rows := make([]row, 0, len(a.mod.Functions))
	var total uint64
	for id := range a.mod.Functions {
		w := a.functionWeight(uint32(id))
		total += w
		rows = append(rows, row{id: uint32(id), weight: w})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].weight > rows[j].weight })

	fmt.Fprintf(a.w, "%-8s %-14s %-8s %s\n", "FUNC_ID", "INSTRUCTIONS", "PERCENT", "NAME")
	for _, r := range rows {
		pct := 0.0
		if total > 0 {
			pct = float64(r.weight) / float64(total) * 100
		}
		f := &a.mod.Functions[r.id]
		name := a.mod.FunctionName(r.id)
		if src := a.mod.FilenameFor(f); src != "" {
			name = fmt.Sprintf("%s (%s:%d)", name, src, f.Line)
		}
		fmt.Fprintf(a.w, "%-8d %-14d %-8.2f %s\n", r.id, r.weight, pct, name)
	}
}

// DumpFunctionBasicBlockStats prints block-level execution counts for
// one function.
func (a *Analyzer) DumpFunctionBasicBlockStats(id uint32) error {
	f, err := a.mod.FunctionByID(id)
	if err != nil {
		return err
	}
	if !a.requireProfile() {
		return nil
	}

	counts := make(map[uint32]uint64)
	if ft := a.trace.ForFunction(id); ft != nil {
		for _, bt := range ft.Blocks {
			counts[bt.Offset] = bt.ExecutionCount
		}
	}

	fmt.Fprintf(a.w, "Basic blocks for %s [%d]:\n", a.mod.FunctionName(id), id)
	fmt.Fprintf(a.w, "%-12s %-12s %-8s %s\n", "START", "END", "INSTRS", "COUNT")
	for _, b := range BasicBlocks(f.Code) {
		fmt.Fprintf(a.w, "%04X         %04X         %-8d %d\n", b.Start, b.End, b.InstructionCount(f.Code), counts[b.Start])
	}
	return nil
}

// DumpInstructionStats prints the runtime frequency of each opcode in
// descending order.
func (a *Analyzer) DumpInstructionStats() {
	if !a.requireProfile() {
		return
	}

	freq := make(map[bytecode.Opcode]uint64)
	for id := range a.mod.Functions {
		ft := a.trace.ForFunction(uint32(id))
		if ft == nil {
			continue
		}
		f := &a.mod.Functions[id]
		blocks := BasicBlocks(f.Code)
		blockAt := make(map[uint32]BasicBlock, len(blocks))
		for _, b := range blocks {
			blockAt[b.Start] = b
		}

		for _, bt := range ft.Blocks {
			b, ok := blockAt[bt.Offset]
			if !ok {
				continue
			}
			offset := int(b.Start)
			for offset < int(b.End) && offset < len(f.Code) {
				op := bytecode.Opcode(f.Code[offset])
				freq[op] += bt.ExecutionCount
				offset += op.InstructionLen()
			}
		}
	}

	type row struct {
		op    bytecode.Opcode
		count uint64
	}
	rows := make([]row, 0, len(freq))
	var total uint64
	for op, count := range freq {
		rows = append(rows, row{op: op, count: count})
		total += count
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		return rows[i].op < rows[j].op
	})

	fmt.Fprintf(a.w, "%-16s %-14s %s\n", "INSTRUCTION", "COUNT", "PERCENT")
	for _, r := range rows {
		pct := 0.0
		if total > 0 {
			pct = float64(r.count) / float64(total) * 100
		}
		fmt.Fprintf(a.w, "%-16s %-14d %.2f\n", r.op.String(), r.count, pct)
	}
}

// DumpString prints one string table entry.
func (a *Analyzer) DumpString(id uint32) error {
	if int(id) >= len(a.mod.Strings) {
		return fmt.Errorf("%w: %d (module has %d strings)", bytecode.ErrInvalidStringIndex, id, len(a.mod.Strings))
	}
	fmt.Fprintf(a.w, "String %d: %q\n", id, a.mod.Strings[id])
	return nil
}

// DumpFileName prints one filename table entry.
func (a *Analyzer) DumpFileName(id uint32) error {
	if int(id) >= len(a.mod.Filenames) {
		return fmt.Errorf("%w: %d (module has %d filenames)", bytecode.ErrInvalidFileIndex, id, len(a.mod.Filenames))
	}
	fmt.Fprintf(a.w, "Filename %d: %s\n", id, a.mod.Filenames[id])
	return nil
}

// DumpIO visualizes the page working set of the traced execution: one
// character per file page, '#' when the page holds code that ran.
func (a *Analyzer) DumpIO() {
	if !a.requireProfile() {
		return
	}

	pageSize := a.trace.PageSize
	touched := make(map[uint32]bool)
	for id := range a.mod.Functions {
		ft := a.trace.ForFunction(uint32(id))
		if ft == nil {
			continue
		}
		f := &a.mod.Functions[id]
		for _, bt := range ft.Blocks {
			if bt.ExecutionCount == 0 {
				continue
			}
			touched[(f.VirtualOffset+bt.Offset)/pageSize] = true
		}
	}

	pageCount := (a.mod.FileSize + pageSize - 1) / pageSize
	fmt.Fprintf(a.w, "Page I/O working set (%d-byte pages, '#' = touched):\n", pageSize)
	for page := uint32(0); page < pageCount; page++ {
		if touched[page] {
			fmt.Fprint(a.w, "#")
		} else {
			fmt.Fprint(a.w, ".")
		}
		if (page+1)%64 == 0 {
			fmt.Fprintln(a.w)
		}
	}
	if pageCount%64 != 0 {
		fmt.Fprintln(a.w)
	}
	fmt.Fprintf(a.w, "%d of %d pages touched\n", len(touched), pageCount)
}

// DumpSummary prints overall module information.
func (a *Analyzer) DumpSummary() {
	fmt.Fprintf(a.w, "Module version: %d\n", a.mod.Version)
	fmt.Fprintf(a.w, "File size:      %d bytes\n", a.mod.FileSize)
	fmt.Fprintf(a.w, "Functions:      %d\n", a.mod.FunctionCount())
	fmt.Fprintf(a.w, "Strings:        %d\n", a.mod.StringCount())
	fmt.Fprintf(a.w, "Filenames:      %d\n", len(a.mod.Filenames))
	fmt.Fprintf(a.w, "Debug info:     %v\n", a.mod.Debug != nil)
	fmt.Fprintf(a.w, "Epilogue:       %d bytes\n", len(a.mod.Epilogue))
	fmt.Fprintf(a.w, "Profile trace:  %v\n", a.trace != nil)
	fmt.Fprintln(a.w, "Sections:")
	for _, sec := range a.mod.Sections {
		fmt.Fprintf(a.w, "  %-16s %d bytes\n", sec.Name, sec.End-sec.Start)
	}
}

// hotBlockLimit caps the block command's output.
const hotBlockLimit = 20

// DumpBasicBlockStats prints the hottest basic blocks module-wide in
// descending execution order.
func (a *Analyzer) DumpBasicBlockStats() {
	if !a.requireProfile() {
		return
	}

	type row struct {
		funcID uint32
		offset uint32
		count  uint64
	}
	var rows []row
	for _, ft := range a.trace.Functions {
		if int(ft.FunctionID) >= len(a.mod.Functions) {
			log.Infof("trace references unknown function %d, skipping", ft.FunctionID)
			continue
		}
		for _, bt := range ft.Blocks {
			rows = append(rows, row{funcID: ft.FunctionID, offset: bt.Offset, count: bt.ExecutionCount})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].count != rows[j].count {
			return rows[i].count > rows[j].count
		}
		if rows[i].funcID != rows[j].funcID {
			return rows[i].funcID < rows[j].funcID
		}
		return rows[i].offset < rows[j].offset
	})

	fmt.Fprintf(a.w, "%-8s %-14s %-8s %s\n", "RANK", "COUNT", "OFFSET", "FUNCTION")
	for i, r := range rows {
		if i >= hotBlockLimit {
			break
		}
		fmt.Fprintf(a.w, "%-8d %-14d %04X     %s [%d]\n", i+1, r.count, r.offset, a.mod.FunctionName(r.funcID), r.funcID)
	}
}

// emitFunctionOffsets writes one function's offset record to the
// printer.
func (a *Analyzer) emitFunctionOffsets(id uint32, p printer.Printer) {
	f := &a.mod.Functions[id]
	p.OpenDict()
	p.KeyUint("functionId", uint64(id))
	p.KeyString("name", a.mod.FunctionName(id))
	p.KeyUint("start", uint64(f.VirtualOffset))
	p.KeyUint("end", uint64(f.VirtualOffset)+uint64(len(f.Code)))
	p.CloseDict()
}

// DumpAllFunctionOffsets writes the virtual offset range of every
// function through the supplied printer.
func (a *Analyzer) DumpAllFunctionOffsets(p printer.Printer) {
	p.OpenArray()
	for id := range a.mod.Functions {
		a.emitFunctionOffsets(uint32(id), p)
	}
	p.CloseArray()
	p.Close()
}

// DumpFunctionOffsets writes one function's virtual offset range
// through the supplied printer.
func (a *Analyzer) DumpFunctionOffsets(id uint32, p printer.Printer) error {
	if _, err := a.mod.FunctionByID(id); err != nil {
		return err
	}
	a.emitFunctionOffsets(id, p)
	p.Close()
	return nil
}

// FunctionFromVirtualOffset resolves an absolute byte position within
// the module file to the id of the function whose code occupies it.
func (a *Analyzer) FunctionFromVirtualOffset(offset uint32) (uint32, bool) {
	for id := range a.mod.Functions {
		f := &a.mod.Functions[id]
		if offset >= f.VirtualOffset && offset < f.VirtualOffset+uint32(len(f.Code)) {
			return uint32(id), true
		}
	}
	return 0, false
}

// epiloguePreviewLimit caps the epilogue hex dump.
const epiloguePreviewLimit = 256

// DumpEpilogue prints the module's trailing data.
func (a *Analyzer) DumpEpilogue() {
	if len(a.mod.Epilogue) == 0 {
		fmt.Fprintln(a.w, "No epilogue data.")
		return
	}
	fmt.Fprintf(a.w, "Epilogue: %d bytes\n", len(a.mod.Epilogue))
	preview := a.mod.Epilogue
	if len(preview) > epiloguePreviewLimit {
		preview = preview[:epiloguePreviewLimit]
	}
	fmt.Fprint(a.w, hex.Dump(preview))
	if len(a.mod.Epilogue) > epiloguePreviewLimit {
		fmt.Fprintf(a.w, "... (%d more bytes)\n", len(a.mod.Epilogue)-epiloguePreviewLimit)
	}
}
