package bytecode

import (
	"strings"
	"testing"
)

func TestAllOpcodesHaveMetadata(t *testing.T) {
	for _, op := range AllOpcodes() {
		info := GetOpcodeInfo(op)
		if info.Name == "" || strings.HasPrefix(info.Name, "UNKNOWN") {
			t.Errorf("opcode 0x%02X has no metadata", byte(op))
		}
		if info.OperandLen < 0 || info.OperandLen > 3 {
			t.Errorf("opcode %s has suspicious operand length %d", info.Name, info.OperandLen)
		}
	}
}

func TestUnknownOpcode(t *testing.T) {
	info := GetOpcodeInfo(Opcode(0xCC))
	if info.Name != "UNKNOWN(0xCC)" {
		t.Errorf("Name = %q, want UNKNOWN(0xCC)", info.Name)
	}
	if Opcode(0xCC).InstructionLen() != 1 {
		t.Error("unknown opcodes must decode as one-byte instructions")
	}
}

func TestInstructionLen(t *testing.T) {
	cases := []struct {
		op   Opcode
		want int
	}{
		{OpNop, 1},
		{OpConst, 3},
		{OpConstInt, 3},
		{OpLoadLocal, 2},
		{OpJumpFalse, 3},
		{OpCall, 4},
		{OpCallIndirect, 2},
		{OpReturn, 1},
	}
	for _, c := range cases {
		if got := c.op.InstructionLen(); got != c.want {
			t.Errorf("%s InstructionLen = %d, want %d", c.op, got, c.want)
		}
	}
}

func TestOpcodePredicates(t *testing.T) {
	if !OpJump.IsJump() || !OpJumpNil.IsJump() {
		t.Error("jump opcodes not classified as jumps")
	}
	if OpCall.IsJump() {
		t.Error("OpCall classified as a jump")
	}
	if !OpReturn.IsReturn() || !OpReturnNil.IsReturn() {
		t.Error("return opcodes not classified as returns")
	}
	if !OpCall.IsCall() || !OpTailCall.IsCall() || !OpCallIndirect.IsCall() {
		t.Error("call opcodes not classified as calls")
	}
	if OpAdd.IsCall() || OpAdd.IsJump() || OpAdd.IsReturn() {
		t.Error("OpAdd misclassified")
	}
}
