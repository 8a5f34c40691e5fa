package bytecode

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// ModuleVersion is the current module format version.
// Increment when making incompatible changes to the format.
const ModuleVersion uint16 = 1

// Magic bytes for module files: "BCMD" (ByteCode MoDule)
var ModuleMagic = []byte{'B', 'C', 'M', 'D'}

// ModuleFlags contains format flags for a module.
type ModuleFlags uint16

const (
	// ModuleFlagDebug indicates a debug-info section is present.
	ModuleFlagDebug ModuleFlags = 1 << 0
)

var (
	ErrInvalidMagic       = errors.New("invalid magic number: expected BCMD")
	ErrVersionMismatch    = errors.New("module version mismatch")
	ErrCorruptHeader      = errors.New("corrupt module header")
	ErrUnexpectedEOF      = errors.New("unexpected end of module data")
	ErrInvalidFunctionID  = errors.New("invalid function id")
	ErrInvalidStringIndex = errors.New("invalid string table index")
	ErrInvalidFileIndex   = errors.New("invalid filename table index")
)

// Function is one entry of the module's function table.
type Function struct {
	NameIndex     uint32 // String table index of the function name
	ParamCount    uint8  // Number of parameters
	FilenameIndex uint16 // Filename table index of the defining source file
	Line          uint32 // Source line of the definition (1-based)
	Code          []byte // Bytecode instructions

	// VirtualOffset is the byte position of the first code byte within
	// the module file. Recorded by Deserialize; not stored in the file.
	VirtualOffset uint32
}

// CodeLen returns the length of the function's code in bytes.
func (f *Function) CodeLen() int {
	return len(f.Code)
}

// InstructionCount returns the number of instructions in the function.
// Note: this iterates through all code, so it's O(n).
func (f *Function) InstructionCount() int {
	count := 0
	offset := 0
	for offset < len(f.Code) {
		op := Opcode(f.Code[offset])
		offset += op.InstructionLen()
		count++
	}
	return count
}

// SourceLocation maps a code offset to a source location for debugging.
type SourceLocation struct {
	CodeOffset uint32 `cbor:"1,keyasint"` // Offset within the function's code
	Line       uint32 `cbor:"2,keyasint"` // Source line number (1-based)
	Column     uint16 `cbor:"3,keyasint"` // Source column number (1-based)
}

// FunctionDebug carries the debug records for one function.
type FunctionDebug struct {
	FunctionID uint32           `cbor:"1,keyasint"`
	Locations  []SourceLocation `cbor:"2,keyasint"`
}

// DebugInfo is the decoded debug-info section.
type DebugInfo struct {
	Functions []FunctionDebug `cbor:"1,keyasint"`
}

// Section describes the byte range one module section occupies in the
// file. Ranges are half-open: [Start, End).
type Section struct {
	Name  string
	Start uint32
	End   uint32
}

// Module is a deserialized bytecode module.
type Module struct {
	// Header
	Version uint16
	Flags   ModuleFlags

	// Tables
	Strings   []string
	Filenames []string
	Functions []Function

	// Debug information (present if ModuleFlagDebug is set)
	Debug *DebugInfo

	// Epilogue holds any trailing bytes after the last section.
	Epilogue []byte

	// Sections records the byte range of each section, in file order.
	// Populated by Deserialize.
	Sections []Section

	// FileSize is the total size of the module file in bytes.
	FileSize uint32
}

// cborEncMode uses canonical encoding so a re-serialized module is
// byte-for-byte deterministic.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("bytecode: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// FunctionCount returns the number of functions in the module.
func (m *Module) FunctionCount() int {
	return len(m.Functions)
}

// StringCount returns the number of string table entries.
func (m *Module) StringCount() int {
	return len(m.Strings)
}

// FunctionByID returns the function with the given id.
func (m *Module) FunctionByID(id uint32) (*Function, error) {
	if int(id) >= len(m.Functions) {
		return nil, fmt.Errorf("%w: %d (module has %d functions)", ErrInvalidFunctionID, id, len(m.Functions))
	}
	return &m.Functions[id], nil
}

// FunctionName returns the name of a function, or a placeholder when
// the name index is out of range.
func (m *Module) FunctionName(id uint32) string {
	if int(id) >= len(m.Functions) {
		return fmt.Sprintf("<function %d>", id)
	}
	f := &m.Functions[id]
	if int(f.NameIndex) >= len(m.Strings) {
		return fmt.Sprintf("<function %d>", id)
	}
	name := m.Strings[f.NameIndex]
	if name == "" {
		return fmt.Sprintf("<anonymous %d>", id)
	}
	return name
}

// FilenameFor returns the source filename of a function, or "" when
// the index is out of range.
func (m *Module) FilenameFor(f *Function) string {
	if int(f.FilenameIndex) >= len(m.Filenames) {
		return ""
	}
	return m.Filenames[f.FilenameIndex]
}

// DebugFor returns the debug records for a function id, or nil when
// the module carries no debug info for it.
func (m *Module) DebugFor(id uint32) *FunctionDebug {
	if m.Debug == nil {
		return nil
	}
	for i := range m.Debug.Functions {
		if m.Debug.Functions[i].FunctionID == id {
			return &m.Debug.Functions[i]
		}
	}
	return nil
}

// SourceLineAt returns the source line for a code offset within the
// given function, using the nearest debug record at or before the
// offset. Returns 0 if no mapping exists.
func (m *Module) SourceLineAt(id uint32, codeOffset uint32) uint32 {
	dbg := m.DebugFor(id)
	if dbg == nil {
		return 0
	}
	for i := len(dbg.Locations) - 1; i >= 0; i-- {
		if dbg.Locations[i].CodeOffset <= codeOffset {
			return dbg.Locations[i].Line
		}
	}
	return 0
}

// Serialize encodes the module to bytes.
// Format:
//
//	[magic:4] [version:2] [flags:2]
//	[string_count:4] [strings: len:u16 + bytes ...]
//	[filename_count:2] [filenames: len:u16 + bytes ...]
//	[function_count:4] [functions: name:u32 params:u8 file:u16 line:u32 code_len:u32 code ...]
//	[debug_len:4] [debug: CBOR] (if ModuleFlagDebug)
//	[epilogue bytes]
func (m *Module) Serialize() ([]byte, error) {
	estimatedSize := 16 + len(m.Strings)*16 + len(m.Epilogue)
	for i := range m.Functions {
		estimatedSize += 15 + len(m.Functions[i].Code)
	}
	buf := make([]byte, 0, estimatedSize)

	// Header
	buf = append(buf, ModuleMagic...)
	buf = binary.BigEndian.AppendUint16(buf, m.Version)
	buf = binary.BigEndian.AppendUint16(buf, uint16(m.Flags))

	// String table
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(m.Strings)))
	for _, s := range m.Strings {
		buf = binary.BigEndian.AppendUint16(buf, uint16(len(s)))
		buf = append(buf, s...)
	}

	// Filename table
	buf = binary.BigEndian.AppendUint16(buf, uint16(len(m.Filenames)))
	for _, s := range m.Filenames {
		buf = binary.BigEndian.AppendUint16(buf, uint16(len(s)))
		buf = append(buf, s...)
	}

	// Function table
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(m.Functions)))
	for i := range m.Functions {
		f := &m.Functions[i]
		buf = binary.BigEndian.AppendUint32(buf, f.NameIndex)
		buf = append(buf, f.ParamCount)
		buf = binary.BigEndian.AppendUint16(buf, f.FilenameIndex)
		buf = binary.BigEndian.AppendUint32(buf, f.Line)
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(f.Code)))
		buf = append(buf, f.Code...)
	}

	// Debug section
	if m.Flags&ModuleFlagDebug != 0 {
		debug := m.Debug
		if debug == nil {
			debug = &DebugInfo{}
		}
		payload, err := cborEncMode.Marshal(debug)
		if err != nil {
			return nil, fmt.Errorf("bytecode: marshal debug info: %w", err)
		}
		buf = binary.BigEndian.AppendUint32(buf, uint32(len(payload)))
		buf = append(buf, payload...)
	}

	// Epilogue
	buf = append(buf, m.Epilogue...)

	return buf, nil
}

// Deserialize decodes a module from bytes, recording per-function
// virtual offsets and per-section byte ranges as it walks the file.
func Deserialize(data []byte) (*Module, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("%w: need at least 8 bytes, got %d", ErrCorruptHeader, len(data))
	}

	// Check magic
	if string(data[0:4]) != string(ModuleMagic) {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidMagic, data[0:4])
	}

	m := &Module{
		Version:  binary.BigEndian.Uint16(data[4:6]),
		Flags:    ModuleFlags(binary.BigEndian.Uint16(data[6:8])),
		FileSize: uint32(len(data)),
	}
	m.Sections = append(m.Sections, Section{Name: "header", Start: 0, End: 8})

	// Version check
	if m.Version > ModuleVersion {
		return nil, fmt.Errorf("%w: file version %d, supported version %d", ErrVersionMismatch, m.Version, ModuleVersion)
	}

	pos := 8

	// String table
	if pos+4 > len(data) {
		return nil, fmt.Errorf("%w: reading string count", ErrUnexpectedEOF)
	}
	stringCount := binary.BigEndian.Uint32(data[pos:])
	pos += 4

	m.Strings = make([]string, stringCount)
	for i := range m.Strings {
		if pos+2 > len(data) {
			return nil, fmt.Errorf("%w: reading string %d length", ErrUnexpectedEOF, i)
		}
		strLen := binary.BigEndian.Uint16(data[pos:])
		pos += 2

		if pos+int(strLen) > len(data) {
			return nil, fmt.Errorf("%w: reading string %d", ErrUnexpectedEOF, i)
		}
		m.Strings[i] = string(data[pos : pos+int(strLen)])
		pos += int(strLen)
	}
	m.Sections = append(m.Sections, Section{Name: "string table", Start: 8, End: uint32(pos)})

	// Filename table
	sectionStart := pos
	if pos+2 > len(data) {
		return nil, fmt.Errorf("%w: reading filename count", ErrUnexpectedEOF)
	}
	filenameCount := binary.BigEndian.Uint16(data[pos:])
	pos += 2

	m.Filenames = make([]string, filenameCount)
	for i := range m.Filenames {
		if pos+2 > len(data) {
			return nil, fmt.Errorf("%w: reading filename %d length", ErrUnexpectedEOF, i)
		}
		nameLen := binary.BigEndian.Uint16(data[pos:])
		pos += 2

		if pos+int(nameLen) > len(data) {
			return nil, fmt.Errorf("%w: reading filename %d", ErrUnexpectedEOF, i)
		}
		m.Filenames[i] = string(data[pos : pos+int(nameLen)])
		pos += int(nameLen)
	}
	m.Sections = append(m.Sections, Section{Name: "filename table", Start: uint32(sectionStart), End: uint32(pos)})

	// Function table
	sectionStart = pos
	if pos+4 > len(data) {
		return nil, fmt.Errorf("%w: reading function count", ErrUnexpectedEOF)
	}
	functionCount := binary.BigEndian.Uint32(data[pos:])
	pos += 4

	m.Functions = make([]Function, functionCount)
	for i := range m.Functions {
		f := &m.Functions[i]

		if pos+15 > len(data) {
			return nil, fmt.Errorf("%w: reading function %d header", ErrUnexpectedEOF, i)
		}
		f.NameIndex = binary.BigEndian.Uint32(data[pos:])
		pos += 4
		f.ParamCount = data[pos]
		pos++
		f.FilenameIndex = binary.BigEndian.Uint16(data[pos:])
		pos += 2
		f.Line = binary.BigEndian.Uint32(data[pos:])
		pos += 4
		codeLen := binary.BigEndian.Uint32(data[pos:])
		pos += 4

		if pos+int(codeLen) > len(data) {
			return nil, fmt.Errorf("%w: reading function %d code (%d bytes)", ErrUnexpectedEOF, i, codeLen)
		}
		f.VirtualOffset = uint32(pos)
		f.Code = make([]byte, codeLen)
		copy(f.Code, data[pos:pos+int(codeLen)])
		pos += int(codeLen)
	}
	m.Sections = append(m.Sections, Section{Name: "function table", Start: uint32(sectionStart), End: uint32(pos)})

	// Debug section
	if m.Flags&ModuleFlagDebug != 0 {
		sectionStart = pos
		if pos+4 > len(data) {
			return nil, fmt.Errorf("%w: reading debug section length", ErrUnexpectedEOF)
		}
		debugLen := binary.BigEndian.Uint32(data[pos:])
		pos += 4

		if pos+int(debugLen) > len(data) {
			return nil, fmt.Errorf("%w: reading debug section (%d bytes)", ErrUnexpectedEOF, debugLen)
		}
		var debug DebugInfo
		if err := cbor.Unmarshal(data[pos:pos+int(debugLen)], &debug); err != nil {
			return nil, fmt.Errorf("bytecode: unmarshal debug info: %w", err)
		}
		m.Debug = &debug
		pos += int(debugLen)
		m.Sections = append(m.Sections, Section{Name: "debug info", Start: uint32(sectionStart), End: uint32(pos)})
	}

	// Everything after the last section is the epilogue.
	if pos < len(data) {
		m.Epilogue = make([]byte, len(data)-pos)
		copy(m.Epilogue, data[pos:])
		m.Sections = append(m.Sections, Section{Name: "epilogue", Start: uint32(pos), End: uint32(len(data))})
	}

	return m, nil
}
