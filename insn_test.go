package i286dis

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpcodeMnemonicsComplete(t *testing.T) {
	for op := Opcode(0); op < opcodeCount; op++ {
		assert.NotEmpty(t, opcodeMnemonics[op], "opcode %d has no mnemonic", int(op))
	}
}

func TestIsTerminator(t *testing.T) {
	cases := []struct {
		op   Opcode
		want bool
	}{
		{OpJMP, true},
		{OpJMPF, true},
		{OpRET, true},
		{OpRETF, true},
		{OpIRET, true},
		{OpCALL, false},
		{OpJE, false},
		{OpNOP, false},
	}
	for _, c := range cases {
		ins := Instruction{Op: c.op}
		assert.Equal(t, c.want, ins.IsTerminator(), "opcode %s", c.op)
	}
}

func TestIsBranchIncludesTerminators(t *testing.T) {
	for _, op := range []Opcode{OpJMP, OpJMPF, OpRET, OpRETF, OpIRET, OpCALL, OpCALLF, OpJE, OpLOOP, OpJCXZ} {
		assert.True(t, Instruction{Op: op}.IsBranch(), "opcode %s should be a branch", op)
	}
	assert.False(t, Instruction{Op: OpNOP}.IsBranch())
}

func TestIsPrefix(t *testing.T) {
	for _, op := range []Opcode{OpPreLock, OpPreRep, OpPreRepne, OpPreCS, OpPreDS, OpPreES, OpPreSS} {
		assert.True(t, Instruction{Op: op}.IsPrefix())
	}
	assert.False(t, Instruction{Op: OpMOV}.IsPrefix())
}

func TestBranchNearRel8(t *testing.T) {
	// EB FE: JMP short -2, at address 0x100 with length 2 -> target 0x100.
	ins := Instruction{Addr: 0x100, Len: 2, Op: OpJMP, Opers: [3]Operand{Imm8(0xFE)}, NOpers: 1}
	target, ok := ins.Branch()
	assert.True(t, ok)
	assert.Equal(t, uint32(0x100), target)
}

func TestBranchNearRel16(t *testing.T) {
	// E9 03 00 at 0x100, len 3 -> target 0x100+3+3 = 0x106.
	ins := Instruction{Addr: 0x100, Len: 3, Op: OpJMP, Opers: [3]Operand{Imm16(3)}, NOpers: 1}
	target, ok := ins.Branch()
	assert.True(t, ok)
	assert.Equal(t, uint32(0x106), target)
}

func TestBranchFar(t *testing.T) {
	ins := Instruction{Op: OpJMPF, Opers: [3]Operand{Imm32(0x0010<<16 | 0x0020)}, NOpers: 1}
	target, ok := ins.Branch()
	assert.True(t, ok)
	assert.Equal(t, uint32(0x0010<<4+0x0020), target)
}

func TestBranchIndirectHasNoTarget(t *testing.T) {
	ins := Instruction{Op: OpJMP, Opers: [3]Operand{RegOp(BX)}, NOpers: 1}
	_, ok := ins.Branch()
	assert.False(t, ok)
}

func TestBadInstructionShape(t *testing.T) {
	ins := Instruction{Addr: 0x42, Len: 1, Op: OpBad}
	assert.True(t, ins.IsBad())
	assert.Equal(t, uint8(1), ins.Len)
}
