package i286dis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeAt(bytes []byte, base, ip uint32) Instruction {
	ctx := &DecodeContext{Bytes: bytes, Base: base, IP: ip}
	return Decode(ctx)
}

func TestDecodeSimpleFlagOps(t *testing.T) {
	bytes := []byte{0xF8, 0xFA, 0xFC}
	ins := decodeAt(bytes, 0x100, 0x100)
	assert.Equal(t, OpCLC, ins.Op)
	assert.EqualValues(t, 1, ins.Len)

	ins = decodeAt(bytes, 0x100, 0x101)
	assert.Equal(t, OpCLI, ins.Op)

	ins = decodeAt(bytes, 0x100, 0x102)
	assert.Equal(t, OpCLD, ins.Op)
}

func TestDecodeMovAxImm16(t *testing.T) {
	// B8 34 12: MOV AX, 0x1234 (little-endian).
	bytes := []byte{0xB8, 0x34, 0x12}
	ins := decodeAt(bytes, 0x100, 0x100)
	require.Equal(t, OpMOV, ins.Op)
	require.EqualValues(t, 3, ins.Len)
	require.EqualValues(t, 2, ins.NOpers)
	assert.Equal(t, RegOp(AX), ins.Opers[0])
	assert.Equal(t, Imm16(0x1234), ins.Opers[1])
}

func TestDecodeInt21(t *testing.T) {
	bytes := []byte{0xCD, 0x21}
	ins := decodeAt(bytes, 0x100, 0x100)
	assert.Equal(t, OpINT, ins.Op)
	assert.EqualValues(t, 2, ins.Len)
	assert.Equal(t, Imm8(0x21), ins.Opers[0])
}

func TestDecodeInt3(t *testing.T) {
	ins := decodeAt([]byte{0xCC}, 0x100, 0x100)
	assert.Equal(t, OpINT, ins.Op)
	assert.EqualValues(t, 1, ins.Len)
	assert.EqualValues(t, 1, ins.NOpers)
}

func TestDecodeRetNoOperand(t *testing.T) {
	ins := decodeAt([]byte{0xC3}, 0x100, 0x100)
	assert.Equal(t, OpRET, ins.Op)
	assert.EqualValues(t, 1, ins.Len)
}

func TestDecodeJmpShort(t *testing.T) {
	ins := decodeAt([]byte{0xEB, 0xFE}, 0x100, 0x100)
	require.Equal(t, OpJMP, ins.Op)
	require.EqualValues(t, 2, ins.Len)
	assert.Equal(t, Imm8(0xFE), ins.Opers[0])
	target, ok := ins.Branch()
	require.True(t, ok)
	assert.EqualValues(t, 0x100, target)
}

func TestDecodeJmpNear(t *testing.T) {
	bytes := []byte{0xE9, 0x03, 0x00}
	ins := decodeAt(bytes, 0x100, 0x100)
	require.Equal(t, OpJMP, ins.Op)
	require.EqualValues(t, 3, ins.Len)
	target, ok := ins.Branch()
	require.True(t, ok)
	assert.EqualValues(t, 0x106, target)
}

func TestDecodeJeShort(t *testing.T) {
	ins := decodeAt([]byte{0x74, 0x02}, 0x100, 0x100)
	require.Equal(t, OpJE, ins.Op)
	target, ok := ins.Branch()
	require.True(t, ok)
	assert.EqualValues(t, 0x104, target)
}

func TestDecodeGroup7Lidt(t *testing.T) {
	// 0F 01 1E 00 00: LIDT [0x0000] (group 7, reg=3, mod=00 rm=110 -> ABS disp).
	bytes := []byte{0x0F, 0x01, 0x1E, 0x00, 0x00}
	ins := decodeAt(bytes, 0x100, 0x100)
	require.Equal(t, OpLIDT, ins.Op)
	require.EqualValues(t, 5, ins.Len)
	require.EqualValues(t, 1, ins.NOpers)
	mem := ins.Opers[0]
	assert.Equal(t, OperMem, mem.Kind)
	assert.Equal(t, ModeAbs, mem.Mode)
	assert.EqualValues(t, 0, mem.Disp)
}

func TestDecodeGroup1AddImm8(t *testing.T) {
	// 80 C0 05: ADD AL, 5 (mod=11 reg=000(ADD) rm=000(AL), opcode 0x80 byte-form).
	bytes := []byte{0x80, 0xC0, 0x05}
	ins := decodeAt(bytes, 0x100, 0x100)
	require.Equal(t, OpADD, ins.Op)
	require.EqualValues(t, 3, ins.Len)
	assert.Equal(t, RegOp(AL), ins.Opers[0])
	assert.Equal(t, Imm8(5), ins.Opers[1])
}

func TestDecodeModRMMemoryDisplacement(t *testing.T) {
	// 8B 46 04: MOV AX, [BP+4] (mod=01 reg=000(AX) rm=110(BP), disp8=4).
	bytes := []byte{0x8B, 0x46, 0x04}
	ins := decodeAt(bytes, 0x100, 0x100)
	require.Equal(t, OpMOV, ins.Op)
	require.EqualValues(t, 3, ins.Len)
	assert.Equal(t, RegOp(AX), ins.Opers[0])
	mem := ins.Opers[1]
	assert.Equal(t, OperMem, mem.Kind)
	assert.Equal(t, ModeBP, mem.Mode)
	assert.EqualValues(t, 4, mem.Disp)
	assert.Equal(t, SS, mem.Seg)
}

func TestDecodeTruncatedOpcodeIsBad(t *testing.T) {
	// B8 requires two more bytes for the imm16; only one byte follows.
	bytes := []byte{0xB8, 0x34}
	ins := decodeAt(bytes, 0x100, 0x100)
	assert.True(t, ins.IsBad())
	assert.EqualValues(t, 1, ins.Len)
}

func TestDecodeUnmappedByteIsBad(t *testing.T) {
	ins := decodeAt([]byte{0x0F, 0x03}, 0x100, 0x100) // 0F 03 (LSL) is unmapped here
	assert.True(t, ins.IsBad())
}

func TestDecodeFarCallAddress(t *testing.T) {
	// 9A 00 02 00 10: CALLF 0x1000:0x0200 -> linear (0x1000<<4)+0x0200.
	bytes := []byte{0x9A, 0x00, 0x02, 0x00, 0x10}
	ins := decodeAt(bytes, 0x100, 0x100)
	require.Equal(t, OpCALLF, ins.Op)
	require.EqualValues(t, 5, ins.Len)
	target, ok := ins.Branch()
	require.True(t, ok)
	assert.EqualValues(t, uint32(0x1000<<4)+0x0200, target)
}

func TestDecodePrefixBytesAreStandalone(t *testing.T) {
	ins := decodeAt([]byte{0xF0}, 0x100, 0x100)
	assert.Equal(t, OpPreLock, ins.Op)
	assert.True(t, ins.IsPrefix())
	assert.EqualValues(t, 1, ins.Len)
}

func TestDecodeRegEncIncDecPushPop(t *testing.T) {
	ins := decodeAt([]byte{0x40}, 0x100, 0x100) // INC AX
	assert.Equal(t, OpINC, ins.Op)
	assert.Equal(t, RegOp(AX), ins.Opers[0])

	ins = decodeAt([]byte{0x5B}, 0x100, 0x100) // POP BX
	assert.Equal(t, OpPOP, ins.Op)
	assert.Equal(t, RegOp(BX), ins.Opers[0])
}

func TestDecodeGroup2ShiftImmediateCount(t *testing.T) {
	// C1 E0 04: SHL AX, 4 (group 2, mod=11 reg=100(SHL) rm=000(AX), Ib count).
	bytes := []byte{0xC1, 0xE0, 0x04}
	ins := decodeAt(bytes, 0x100, 0x100)
	require.Equal(t, OpSHL, ins.Op)
	require.EqualValues(t, 3, ins.Len)
	assert.Equal(t, RegOp(AX), ins.Opers[0])
	assert.Equal(t, Imm8(4), ins.Opers[1])
}

func TestDecodeSalc(t *testing.T) {
	ins := decodeAt([]byte{0xD6}, 0x100, 0x100)
	assert.Equal(t, OpSALC, ins.Op)
	assert.EqualValues(t, 1, ins.Len)
	assert.EqualValues(t, 0, ins.NOpers)
}

func TestDecodeXchgAxAxIsNop(t *testing.T) {
	ins := decodeAt([]byte{0x90}, 0x100, 0x100)
	assert.Equal(t, OpNOP, ins.Op)
}

func TestDecodeGroup4IndirectCallHasNoTarget(t *testing.T) {
	// FF D0: CALL AX (mod=11 reg=010(CALL) rm=000(AX)).
	ins := decodeAt([]byte{0xFF, 0xD0}, 0x100, 0x100)
	require.Equal(t, OpCALL, ins.Op)
	_, ok := ins.Branch()
	assert.False(t, ok)
}
