package bytecode

import "fmt"

// Opcode represents a bytecode instruction.
// Opcodes are organized into ranges by category for easy identification.
type Opcode byte

const (
	// ========================================================================
	// Stack manipulation (0x00-0x0F)
	// ========================================================================

	OpNop  Opcode = 0x00 // No operation
	OpPop  Opcode = 0x01 // Pop top of stack
	OpDup  Opcode = 0x02 // Duplicate top of stack
	OpSwap Opcode = 0x03 // Swap top two stack elements

	// ========================================================================
	// Constants (0x10-0x1F)
	// ========================================================================

	OpConst      Opcode = 0x10 // Push string-table constant: OpConst <index:u16>
	OpConstNil   Opcode = 0x11 // Push nil
	OpConstTrue  Opcode = 0x12 // Push true
	OpConstFalse Opcode = 0x13 // Push false
	OpConstZero  Opcode = 0x14 // Push 0
	OpConstOne   Opcode = 0x15 // Push 1
	OpConstInt   Opcode = 0x16 // Push immediate integer: OpConstInt <value:i16>

	// ========================================================================
	// Local variables and parameters (0x20-0x2F)
	// ========================================================================

	OpLoadLocal  Opcode = 0x20 // Push local variable: OpLoadLocal <slot:u8>
	OpStoreLocal Opcode = 0x21 // Pop and store to local: OpStoreLocal <slot:u8>
	OpLoadParam  Opcode = 0x22 // Push parameter: OpLoadParam <index:u8>

	// ========================================================================
	// Globals (0x30-0x3F)
	// ========================================================================

	OpLoadGlobal  Opcode = 0x30 // Push global by name: OpLoadGlobal <name_index:u16>
	OpStoreGlobal Opcode = 0x31 // Pop and store to global: OpStoreGlobal <name_index:u16>

	// ========================================================================
	// Arithmetic (0x50-0x5F)
	// ========================================================================

	OpAdd Opcode = 0x50 // Pop two, push sum
	OpSub Opcode = 0x51 // Pop two, push difference (a - b where b is TOS)
	OpMul Opcode = 0x52 // Pop two, push product
	OpDiv Opcode = 0x53 // Pop two, push quotient
	OpMod Opcode = 0x54 // Pop two, push remainder
	OpNeg Opcode = 0x55 // Negate top of stack

	// ========================================================================
	// Comparison (0x60-0x67)
	// ========================================================================

	OpEq Opcode = 0x60 // Pop two, push true if equal
	OpNe Opcode = 0x61 // Pop two, push true if not equal
	OpLt Opcode = 0x62 // Pop two, push true if a < b
	OpLe Opcode = 0x63 // Pop two, push true if a <= b
	OpGt Opcode = 0x64 // Pop two, push true if a > b
	OpGe Opcode = 0x65 // Pop two, push true if a >= b

	// ========================================================================
	// Logical operations (0x68-0x6F)
	// ========================================================================

	OpNot Opcode = 0x68 // Logical NOT
	OpAnd Opcode = 0x69 // Logical AND
	OpOr  Opcode = 0x6A // Logical OR

	// ========================================================================
	// Control flow (0x80-0x8F)
	// ========================================================================

	OpJump      Opcode = 0x80 // Unconditional jump: OpJump <offset:i16>
	OpJumpTrue  Opcode = 0x81 // Jump if top is truthy: OpJumpTrue <offset:i16>
	OpJumpFalse Opcode = 0x82 // Jump if top is falsy: OpJumpFalse <offset:i16>
	OpJumpNil   Opcode = 0x83 // Jump if top is nil: OpJumpNil <offset:i16>

	// ========================================================================
	// Calls (0x90-0x9F)
	// ========================================================================

	OpCall         Opcode = 0x90 // Call function by id: OpCall <func:u16> <argc:u8>
	OpCallIndirect Opcode = 0x91 // Call function object on stack: OpCallIndirect <argc:u8>
	OpTailCall     Opcode = 0x92 // Tail call by id: OpTailCall <func:u16> <argc:u8>

	// ========================================================================
	// Return (0xF0-0xFF)
	// ========================================================================

	OpReturn    Opcode = 0xF0 // Return top of stack
	OpReturnNil Opcode = 0xF1 // Return nil
)

// OpcodeInfo provides metadata about each opcode for disassembly and
// basic-block analysis.
type OpcodeInfo struct {
	Name       string // Human-readable mnemonic
	OperandLen int    // Number of operand bytes following the opcode
}

// opcodeInfoTable maps opcodes to their metadata.
var opcodeInfoTable = map[Opcode]OpcodeInfo{
	// Stack manipulation
	OpNop:  {"NOP", 0},
	OpPop:  {"POP", 0},
	OpDup:  {"DUP", 0},
	OpSwap: {"SWAP", 0},

	// Constants
	OpConst:      {"CONST", 2},
	OpConstNil:   {"CONST_NIL", 0},
	OpConstTrue:  {"CONST_TRUE", 0},
	OpConstFalse: {"CONST_FALSE", 0},
	OpConstZero:  {"CONST_ZERO", 0},
	OpConstOne:   {"CONST_ONE", 0},
	OpConstInt:   {"CONST_INT", 2},

	// Locals and parameters
	OpLoadLocal:  {"LOAD_LOCAL", 1},
	OpStoreLocal: {"STORE_LOCAL", 1},
	OpLoadParam:  {"LOAD_PARAM", 1},

	// Globals
	OpLoadGlobal:  {"LOAD_GLOBAL", 2},
	OpStoreGlobal: {"STORE_GLOBAL", 2},

	// Arithmetic
	OpAdd: {"ADD", 0},
	OpSub: {"SUB", 0},
	OpMul: {"MUL", 0},
	OpDiv: {"DIV", 0},
	OpMod: {"MOD", 0},
	OpNeg: {"NEG", 0},

	// Comparison
	OpEq: {"EQ", 0},
	OpNe: {"NE", 0},
	OpLt: {"LT", 0},
	OpLe: {"LE", 0},
	OpGt: {"GT", 0},
	OpGe: {"GE", 0},

	// Logical
	OpNot: {"NOT", 0},
	OpAnd: {"AND", 0},
	OpOr:  {"OR", 0},

	// Control flow
	OpJump:      {"JUMP", 2},
	OpJumpTrue:  {"JUMP_TRUE", 2},
	OpJumpFalse: {"JUMP_FALSE", 2},
	OpJumpNil:   {"JUMP_NIL", 2},

	// Calls
	OpCall:         {"CALL", 3},
	OpCallIndirect: {"CALL_INDIRECT", 1},
	OpTailCall:     {"TAIL_CALL", 3},

	// Return
	OpReturn:    {"RETURN", 0},
	OpReturnNil: {"RETURN_NIL", 0},
}

// GetOpcodeInfo returns metadata for an opcode.
// Returns a zero OpcodeInfo with an UNKNOWN name if the opcode is not
// recognized; unknown bytes decode as one-byte instructions so a
// listing can continue past corrupt code.
func GetOpcodeInfo(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN(0x%02X)", byte(op)), OperandLen: 0}
}

// String returns the human-readable name of an opcode.
func (op Opcode) String() string {
	return GetOpcodeInfo(op).Name
}

// OperandLen returns the number of operand bytes for this opcode.
func (op Opcode) OperandLen() int {
	return GetOpcodeInfo(op).OperandLen
}

// InstructionLen returns the total length of an instruction (1 + operand bytes).
func (op Opcode) InstructionLen() int {
	return 1 + op.OperandLen()
}

// IsJump returns true if this opcode is a jump instruction.
func (op Opcode) IsJump() bool {
	return op >= OpJump && op <= OpJumpNil
}

// IsReturn returns true if this opcode terminates execution of a function.
func (op Opcode) IsReturn() bool {
	return op == OpReturn || op == OpReturnNil
}

// IsCall returns true if this opcode transfers control to another function.
func (op Opcode) IsCall() bool {
	return op >= OpCall && op <= OpTailCall
}

// AllOpcodes returns a slice of all defined opcodes.
// Useful for testing that all opcodes have metadata.
func AllOpcodes() []Opcode {
	opcodes := make([]Opcode, 0, len(opcodeInfoTable))
	for op := range opcodeInfoTable {
		opcodes = append(opcodes, op)
	}
	return opcodes
}

// OpcodeCount returns the number of defined opcodes.
func OpcodeCount() int {
	return len(opcodeInfoTable)
}
