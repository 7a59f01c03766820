package i286dis

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func formatText(opts Options, ins Instruction) string {
	f := NewFormatter(opts)
	var buf bytes.Buffer
	f.FormatInsn(ins, &buf)
	return buf.String()
}

func TestFormatNoOperandInstruction(t *testing.T) {
	assert.Equal(t, "ret", formatText(0, Instruction{Op: OpRET}))
}

func TestFormatTwoOperandHex(t *testing.T) {
	ins := Instruction{Op: OpMOV, Opers: [3]Operand{RegOp(AX), Imm16(0x1234)}, NOpers: 2}
	assert.Equal(t, "mov ax, 0x1234", formatText(HexImm, ins))
}

func TestFormatTwoOperandDecimal(t *testing.T) {
	ins := Instruction{Op: OpMOV, Opers: [3]Operand{RegOp(AX), Imm16(0x1234)}, NOpers: 2}
	assert.Equal(t, "mov ax, 4660", formatText(0, ins))
}

func TestFormatThreeOperandImul(t *testing.T) {
	ins := Instruction{Op: OpIMUL, Opers: [3]Operand{RegOp(AX), RegOp(BX), Imm8(5)}, NOpers: 3}
	assert.Equal(t, "imul ax, bx, 0x5", formatText(HexImm, ins))
}

func TestFormatMemoryOperandNoDisp(t *testing.T) {
	ins := Instruction{Op: OpMOV, Opers: [3]Operand{RegOp(AX), MemOp(ModeBXSI, 0)}, NOpers: 2}
	assert.Equal(t, "mov ax, [bx + si]", formatText(HexDisp, ins))
}

func TestFormatMemoryOperandWithDisp(t *testing.T) {
	ins := Instruction{Op: OpMOV, Opers: [3]Operand{RegOp(AX), MemOp(ModeBP, 4)}, NOpers: 2}
	assert.Equal(t, "mov ax, ss:[bp + 0x4]", formatText(HexDisp, ins))
}

func TestFormatMemoryOperandNegativeDisp(t *testing.T) {
	ins := Instruction{Op: OpMOV, Opers: [3]Operand{RegOp(AX), MemOp(ModeBP, -4)}, NOpers: 2}
	assert.Equal(t, "mov ax, ss:[bp - 0x4]", formatText(HexDisp, ins))
}

func TestFormatAbsoluteMemoryOperand(t *testing.T) {
	ins := Instruction{Op: OpLIDT, Opers: [3]Operand{MemOp(ModeAbs, 0)}, NOpers: 1}
	assert.Equal(t, "lidt [0x0]", formatText(HexDisp, ins))
}

func TestFormatShortJumpWithType(t *testing.T) {
	ins := Instruction{Addr: 0x100, Len: 2, Op: OpJMP, Opers: [3]Operand{Imm8(0xFE)}, NOpers: 1}
	assert.Equal(t, "jmp short 0x100", formatText(JmpType|JmpAddr, ins))
}

func TestFormatJumpBothDisplacementAndAddress(t *testing.T) {
	ins := Instruction{Addr: 0x100, Len: 2, Op: OpJE, Opers: [3]Operand{Imm8(0x02)}, NOpers: 1}
	text := formatText(JmpBoth|HexImm, ins)
	assert.Equal(t, "je 0x2; 0x104", text)
}

func TestFormatFarJump(t *testing.T) {
	ins := Instruction{Op: OpJMPF, Opers: [3]Operand{Imm32(0x1000<<16 | 0x0020)}, NOpers: 1}
	assert.Equal(t, "jmpf far 0x1000:0x20", formatText(JmpType, ins))
}

func TestFormatIndirectFarCallFallsBackToOperand(t *testing.T) {
	// FF 1E 00 00: CALLF [0x0000] (group 4, reg=3, indirect far through memory).
	ins := Instruction{Op: OpCALLF, Opers: [3]Operand{MemOp(ModeAbs, 0)}, NOpers: 1}
	assert.Equal(t, "callf far [0x0]", formatText(JmpType|HexDisp, ins))
}

func TestFormatIndirectNearJumpEmitsWordKeyword(t *testing.T) {
	// FF E0: JMP AX (group 4, reg=4, indirect near through a register).
	ins := Instruction{Op: OpJMP, Opers: [3]Operand{RegOp(AX)}, NOpers: 1}
	assert.Equal(t, "jmp word ax", formatText(JmpType, ins))
}

func TestFormatIndirectNearJumpNoKeywordWithoutJmpType(t *testing.T) {
	ins := Instruction{Op: OpJMP, Opers: [3]Operand{RegOp(AX)}, NOpers: 1}
	assert.Equal(t, "jmp ax", formatText(0, ins))
}

func TestFormatterIsStatefulAcrossCalls(t *testing.T) {
	f := NewFormatter(HexImm)
	ins := Instruction{Op: OpMOV, Opers: [3]Operand{RegOp(AX), Imm16(1)}, NOpers: 2}
	var c FmtCursor
	var buf bytes.Buffer

	assert.True(t, f.Iterate(&c, &ins, &buf))
	assert.Equal(t, "mov", buf.String())
	assert.False(t, c.Done())

	buf.Reset()
	assert.True(t, f.Iterate(&c, &ins, &buf))
	assert.Equal(t, "ax", buf.String())
	assert.False(t, c.Done())

	buf.Reset()
	assert.True(t, f.Iterate(&c, &ins, &buf))
	assert.Equal(t, "0x1", buf.String())
	assert.True(t, c.Done())

	buf.Reset()
	assert.False(t, f.Iterate(&c, &ins, &buf))
}
