package bytecode

import (
	"encoding/binary"
	"fmt"
	"io"
	"strings"
)

// Options is a bitmask of independent disassembly output toggles.
type Options uint8

const (
	OptionNone Options = 0

	// OptionIncludeSource appends source line comments from the debug
	// section to each instruction.
	OptionIncludeSource Options = 1 << 0

	// OptionIncludeFunctionIDs shows function ids in listing headers.
	OptionIncludeFunctionIDs Options = 1 << 1

	// OptionPretty renders full per-function header blocks.
	OptionPretty Options = 1 << 2

	// OptionIncludeVirtualOffsets prefixes every instruction with its
	// absolute byte position within the module file.
	OptionIncludeVirtualOffsets Options = 1 << 3
)

// Disassembler renders module code as a human-readable listing.
// It owns a persistent option set; callers that need different options
// for a single invocation save and restore around the call.
type Disassembler struct {
	mod  *Module
	opts Options
}

// NewDisassembler creates a disassembler for the given module with no
// options set.
func NewDisassembler(mod *Module) *Disassembler {
	return &Disassembler{mod: mod}
}

// Options returns the current option set.
func (d *Disassembler) Options() Options {
	return d.opts
}

// SetOptions replaces the current option set.
func (d *Disassembler) SetOptions(opts Options) {
	d.opts = opts
}

// Disassemble writes the listing for every function in id order.
func (d *Disassembler) Disassemble(w io.Writer) error {
	for id := range d.mod.Functions {
		if err := d.DisassembleFunction(uint32(id), w); err != nil {
			return err
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}

// DisassembleFunction writes the listing for a single function.
func (d *Disassembler) DisassembleFunction(id uint32, w io.Writer) error {
	f, err := d.mod.FunctionByID(id)
	if err != nil {
		return err
	}

	var sb strings.Builder
	d.writeHeader(&sb, id, f)

	offset := 0
	for offset < len(f.Code) {
		line, instrLen := d.instruction(f, offset)

		if d.opts&OptionIncludeVirtualOffsets != 0 {
			fmt.Fprintf(&sb, "%08X  ", f.VirtualOffset+uint32(offset))
		}

		if d.opts&OptionIncludeSource != 0 {
			if srcLine := d.mod.SourceLineAt(id, uint32(offset)); srcLine > 0 {
				fmt.Fprintf(&sb, "%04X  %-34s ; line %d\n", offset, line, srcLine)
				offset += instrLen
				continue
			}
		}
		fmt.Fprintf(&sb, "%04X  %s\n", offset, line)

		offset += instrLen
	}

	_, err = io.WriteString(w, sb.String())
	return err
}

// writeHeader renders the per-function header. Pretty mode emits a
// full block; otherwise a single line.
func (d *Disassembler) writeHeader(sb *strings.Builder, id uint32, f *Function) {
	name := d.mod.FunctionName(id)

	if d.opts&OptionPretty != 0 {
		fmt.Fprintf(sb, "; === %s ===\n", name)
		if d.opts&OptionIncludeFunctionIDs != 0 {
			fmt.Fprintf(sb, "; Function ID: %d\n", id)
		}
		fmt.Fprintf(sb, "; Parameters: %d\n", f.ParamCount)
		if src := d.mod.FilenameFor(f); src != "" {
			fmt.Fprintf(sb, "; Source: %s:%d\n", src, f.Line)
		}
		fmt.Fprintf(sb, "; Code: %d bytes at virtual offset 0x%X\n", len(f.Code), f.VirtualOffset)
		return
	}

	if d.opts&OptionIncludeFunctionIDs != 0 {
		fmt.Fprintf(sb, "%s [%d]:\n", name, id)
	} else {
		fmt.Fprintf(sb, "%s:\n", name)
	}
}

// instruction disassembles a single instruction at the given code
// offset. Returns the formatted string and the instruction length.
func (d *Disassembler) instruction(f *Function, offset int) (string, int) {
	if offset >= len(f.Code) {
		return "<end of code>", 0
	}

	op := Opcode(f.Code[offset])
	info := GetOpcodeInfo(op)

	switch op {
	case OpConst:
		idx := readUint16(f.Code, offset+1)
		constVal := ""
		if int(idx) < len(d.mod.Strings) {
			constVal = d.mod.Strings[idx]
			if len(constVal) > 20 {
				constVal = constVal[:17] + "..."
			}
		}
		return fmt.Sprintf("CONST %d ; %q", idx, constVal), 3

	case OpConstInt:
		val := int16(readUint16(f.Code, offset+1))
		return fmt.Sprintf("CONST_INT %d", val), 3

	case OpLoadGlobal, OpStoreGlobal:
		idx := readUint16(f.Code, offset+1)
		name := ""
		if int(idx) < len(d.mod.Strings) {
			name = d.mod.Strings[idx]
		}
		return fmt.Sprintf("%s %d ; %s", info.Name, idx, name), 3

	case OpJump, OpJumpTrue, OpJumpFalse, OpJumpNil:
		delta := int16(readUint16(f.Code, offset+1))
		target := offset + 3 + int(delta)
		return fmt.Sprintf("%s %+d (-> %04X)", info.Name, delta, target), 3

	case OpCall, OpTailCall:
		funcID := readUint16(f.Code, offset+1)
		argc := byte(0)
		if offset+3 < len(f.Code) {
			argc = f.Code[offset+3]
		}
		return fmt.Sprintf("%s %d (%s) argc=%d", info.Name, funcID, d.mod.FunctionName(uint32(funcID)), argc), 4

	case OpCallIndirect:
		argc := byte(0)
		if offset+1 < len(f.Code) {
			argc = f.Code[offset+1]
		}
		return fmt.Sprintf("CALL_INDIRECT argc=%d", argc), 2

	default:
		instrLen := 1 + info.OperandLen
		if info.OperandLen == 0 {
			return info.Name, instrLen
		}

		// Format operands generically
		operands := make([]string, 0, info.OperandLen)
		for i := 0; i < info.OperandLen; i++ {
			if offset+1+i < len(f.Code) {
				operands = append(operands, fmt.Sprintf("0x%02X", f.Code[offset+1+i]))
			}
		}
		return fmt.Sprintf("%s %s", info.Name, strings.Join(operands, " ")), instrLen
	}
}

// readUint16 reads a big-endian uint16 from code at the given offset.
func readUint16(code []byte, offset int) uint16 {
	if offset+1 >= len(code) {
		return 0
	}
	return binary.BigEndian.Uint16(code[offset:])
}
