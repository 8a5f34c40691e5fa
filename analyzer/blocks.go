package analyzer

import (
	"sort"

	"github.com/chazu/bcdump/pkg/bytecode"
)

// BasicBlock is a straight-line instruction run with a single entry
// and exit. Offsets are half-open code offsets: [Start, End).
type BasicBlock struct {
	Start uint32
	End   uint32
}

// InstructionCount returns the number of instructions in the block.
func (b BasicBlock) InstructionCount(code []byte) int {
	count := 0
	offset := int(b.Start)
	for offset < int(b.End) && offset < len(code) {
		op := bytecode.Opcode(code[offset])
		offset += op.InstructionLen()
		count++
	}
	return count
}

// BasicBlocks partitions a function's code into basic blocks using
// leader analysis: the first instruction, every jump target, and every
// instruction following a jump or return starts a block.
func BasicBlocks(code []byte) []BasicBlock {
	if len(code) == 0 {
		return nil
	}

	leaders := map[uint32]bool{0: true}
	offset := 0
	for offset < len(code) {
		op := bytecode.Opcode(code[offset])
		instrLen := op.InstructionLen()
		next := offset + instrLen

		if op.IsJump() {
			delta := int16(readUint16(code, offset+1))
			target := next + int(delta)
			if target >= 0 && target < len(code) {
				leaders[uint32(target)] = true
			}
			if next < len(code) {
				leaders[uint32(next)] = true
			}
		} else if op.IsReturn() {
			if next < len(code) {
				leaders[uint32(next)] = true
			}
		}

		offset = next
	}

	starts := make([]uint32, 0, len(leaders))
	for l := range leaders {
		starts = append(starts, l)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })

	blocks := make([]BasicBlock, 0, len(starts))
	for i, start := range starts {
		end := uint32(len(code))
		if i+1 < len(starts) {
			end = starts[i+1]
		}
		blocks = append(blocks, BasicBlock{Start: start, End: end})
	}
	return blocks
}

// readUint16 reads a big-endian uint16, returning 0 on a short read.
func readUint16(code []byte, offset int) uint16 {
	if offset+1 >= len(code) {
		return 0
	}
	return uint16(code[offset])<<8 | uint16(code[offset+1])
}
