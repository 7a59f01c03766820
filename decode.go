package i286dis

// DecodeContext is a cursor over a byte image. IP advances on every
// successful fetch and always stays within [Base, Base+len(Bytes)].
type DecodeContext struct {
	Bytes []byte
	Base  uint32
	IP    uint32
}

func (ctx *DecodeContext) limit() uint32 { return ctx.Base + uint32(len(ctx.Bytes)) }

func (ctx *DecodeContext) fetch8() (uint8, bool) {
	if ctx.IP >= ctx.limit() {
		return 0, false
	}
	b := ctx.Bytes[ctx.IP-ctx.Base]
	ctx.IP++
	return b, true
}

func (ctx *DecodeContext) fetch16() (uint16, bool) {
	lo, ok := ctx.fetch8()
	if !ok {
		return 0, false
	}
	hi, ok := ctx.fetch8()
	if !ok {
		return 0, false
	}
	return uint16(lo) | uint16(hi)<<8, true
}

func (ctx *DecodeContext) fetch32() (uint32, bool) {
	lo, ok := ctx.fetch16()
	if !ok {
		return 0, false
	}
	hi, ok := ctx.fetch16()
	if !ok {
		return 0, false
	}
	return uint32(lo) | uint32(hi)<<16, true
}

// modrmFlags packs the direction/width/reg-kind bits that drive try_modrm_full.
type modrmFlags uint8

const (
	dirToRM  modrmFlags = 0 << 0
	dirToReg modrmFlags = 1 << 0
	regWide  modrmFlags = 1 << 1
	regSeg   modrmFlags = 1 << 2
)

func getReg(field uint8, wide bool) GPR {
	field &= 0x7
	if wide {
		return [8]GPR{AX, CX, DX, BX, SP, BP, SI, DI}[field]
	}
	return [8]GPR{AL, CL, DL, BL, AH, CH, DH, BH}[field]
}

func getSeg(field uint8) SReg {
	return [4]SReg{ES, CS, SS, DS}[field&0x3]
}

func getMemMode(rm, mod uint8) AddrMode {
	switch rm & 0x7 {
	case 0:
		return ModeBXSI
	case 1:
		return ModeBXDI
	case 2:
		return ModeBPSI
	case 3:
		return ModeBPDI
	case 4:
		return ModeSI
	case 5:
		return ModeDI
	case 6:
		if mod == 0 {
			return ModeAbs
		}
		return ModeBP
	default: // 7
		return ModeBX
	}
}

// tryModRM reads one ModR/M byte (and any trailing displacement) and
// returns the register-field value plus the r/m-side operand.
func tryModRM(ctx *DecodeContext, wide bool) (regField uint8, rm Operand, ok bool) {
	b, ok := ctx.fetch8()
	if !ok {
		return 0, Operand{}, false
	}
	mod := b >> 6
	reg := (b >> 3) & 0x7
	rmField := b & 0x7

	if mod == 3 {
		return reg, RegOp(getReg(rmField, wide)), true
	}

	mode := getMemMode(rmField, mod)
	var disp int16
	switch {
	case mode == ModeAbs:
		d, ok := ctx.fetch16()
		if !ok {
			return 0, Operand{}, false
		}
		disp = int16(d)
	case mod == 1:
		d, ok := ctx.fetch8()
		if !ok {
			return 0, Operand{}, false
		}
		disp = int16(int8(d))
	case mod == 2:
		d, ok := ctx.fetch16()
		if !ok {
			return 0, Operand{}, false
		}
		disp = int16(d)
	default:
		disp = 0
	}
	return reg, MemOp(mode, disp), true
}

// tryModRMFull decodes a ModR/M byte into a (reg-side, rm-side) operand
// pair ordered by the DIR_TO_REG/DIR_TO_RM flag.
func tryModRMFull(ctx *DecodeContext, flags modrmFlags) (regOper, rmOper Operand, ok bool) {
	wide := flags&regWide != 0
	reg, rm, ok := tryModRM(ctx, wide)
	if !ok {
		return Operand{}, Operand{}, false
	}
	if flags&regSeg != 0 {
		regOper = SegOp(getSeg(reg))
	} else {
		regOper = RegOp(getReg(reg, wide))
	}
	return regOper, rm, true
}

type encKind int

const (
	kNone encKind = iota
	kSimple
	kAccImm
	kImm
	kModRM
	kJmpFar
	kInt
	kInOut
	kRegEnc
	kPushPopSeg
	kPopRM
	kEnter
	kImul
	kMoff
	kMovImm
	kGroup1
	kGroup2
	kGroup3
	kGroup4
	kGroup6
	kGroup7
	kEscape0F
)

type encoding struct {
	kind  encKind
	op    Opcode
	flags modrmFlags
	arg   int
}

var group1Ops = [8]Opcode{OpADD, OpOR, OpADC, OpSBB, OpAND, OpSUB, OpXOR, OpCMP}
var group2Ops = [8]Opcode{OpROL, OpROR, OpRCL, OpRCR, OpSHL, OpSHR, OpBad, OpSAR}
var group3Ops = [8]Opcode{OpTEST, OpBad, OpNOT, OpNEG, OpMUL, OpIMUL, OpDIV, OpIDIV}
var group4EbOps = [8]Opcode{OpINC, OpDEC, OpBad, OpBad, OpBad, OpBad, OpBad, OpBad}
var group4EvOps = [8]Opcode{OpINC, OpDEC, OpCALL, OpCALLF, OpJMP, OpJMPF, OpPUSH, OpBad}
var group6Ops = [8]Opcode{OpSLDT, OpSTR, OpLLDT, OpLTR, OpVERR, OpVERW, OpBad, OpBad}
var group7Ops = [8]Opcode{OpSGDT, OpSIDT, OpLGDT, OpLIDT, OpSMSW, OpBad, OpLMSW, OpBad}

// jccOps maps the low nibble of a short (0x70-0x7F) or long (0F 0x80-0x8F)
// conditional jump opcode to its mnemonic.
var jccOps = [16]Opcode{
	OpJO, OpJNO, OpJB, OpJAE, OpJE, OpJNE, OpJBE, OpJA,
	OpJS, OpJNS, OpJP, OpJNP, OpJL, OpJGE, OpJLE, OpJG,
}

var encodings = buildPrimaryTable()
var encodings0F = buildEscapeTable()

func buildPrimaryTable() [256]encoding {
	var t [256]encoding

	// Group-1 ALU ops: 8 mnemonics x {Eb,Gb / Ev,Gv / Gb,Eb / Gv,Ev / AL,Ib / AX,Iv}
	// laid out in 6-byte bands at 0x00,0x08,0x10,...,0x38, with the segment
	// push/pop and DAA/DAS/AAA/AAS odd bytes out interleaved exactly as the
	// 8086/286 primary opcode map defines.
	for i, op := range group1Ops {
		base := byte(i * 8)
		t[base+0x00] = encoding{kind: kModRM, op: op, flags: dirToRM}
		t[base+0x01] = encoding{kind: kModRM, op: op, flags: dirToRM | regWide}
		t[base+0x02] = encoding{kind: kModRM, op: op, flags: dirToReg}
		t[base+0x03] = encoding{kind: kModRM, op: op, flags: dirToReg | regWide}
		t[base+0x04] = encoding{kind: kAccImm, op: op}
		t[base+0x05] = encoding{kind: kAccImm, op: op, flags: regWide}
	}
	t[0x06] = encoding{kind: kPushPopSeg, op: OpPUSH, arg: int(ES)}
	t[0x07] = encoding{kind: kPushPopSeg, op: OpPOP, arg: int(ES)}
	t[0x0E] = encoding{kind: kPushPopSeg, op: OpPUSH, arg: int(CS)}
	t[0x0F] = encoding{kind: kEscape0F}
	t[0x16] = encoding{kind: kPushPopSeg, op: OpPUSH, arg: int(SS)}
	t[0x17] = encoding{kind: kPushPopSeg, op: OpPOP, arg: int(SS)}
	t[0x1E] = encoding{kind: kPushPopSeg, op: OpPUSH, arg: int(DS)}
	t[0x1F] = encoding{kind: kPushPopSeg, op: OpPOP, arg: int(DS)}
	t[0x26] = encoding{kind: kSimple, op: OpPreES}
	t[0x27] = encoding{kind: kSimple, op: OpDAA}
	t[0x2E] = encoding{kind: kSimple, op: OpPreCS}
	t[0x2F] = encoding{kind: kSimple, op: OpDAS}
	t[0x36] = encoding{kind: kSimple, op: OpPreSS}
	t[0x37] = encoding{kind: kSimple, op: OpAAA}
	t[0x3E] = encoding{kind: kSimple, op: OpPreDS}
	t[0x3F] = encoding{kind: kSimple, op: OpAAS}

	for i := 0; i < 8; i++ {
		t[0x40+i] = encoding{kind: kRegEnc, op: OpINC, arg: i}
		t[0x48+i] = encoding{kind: kRegEnc, op: OpDEC, arg: i}
		t[0x50+i] = encoding{kind: kRegEnc, op: OpPUSH, arg: i}
		t[0x58+i] = encoding{kind: kRegEnc, op: OpPOP, arg: i}
		t[0x90+i] = encoding{kind: kRegEnc, op: OpXCHG, arg: i}
		t[0xB0+i] = encoding{kind: kRegEnc, op: OpMOV, arg: i}
		t[0xB8+i] = encoding{kind: kRegEnc, op: OpMOV, arg: i, flags: regWide}
	}

	t[0x60] = encoding{kind: kSimple, op: OpPUSHA}
	t[0x61] = encoding{kind: kSimple, op: OpPOPA}
	t[0x62] = encoding{kind: kModRM, op: OpBOUND, flags: dirToReg | regWide}
	t[0x63] = encoding{kind: kModRM, op: OpARPL, flags: dirToRM | regWide}
	t[0x68] = encoding{kind: kImm, op: OpPUSH, flags: regWide}
	t[0x69] = encoding{kind: kImul, flags: regWide}
	t[0x6A] = encoding{kind: kImm, op: OpPUSH}
	t[0x6B] = encoding{kind: kImul}
	t[0x6C] = encoding{kind: kSimple, op: OpINSB}
	t[0x6D] = encoding{kind: kSimple, op: OpINSW}
	t[0x6E] = encoding{kind: kSimple, op: OpOUTSB}
	t[0x6F] = encoding{kind: kSimple, op: OpOUTSW}

	for i := 0; i < 16; i++ {
		t[0x70+i] = encoding{kind: kImm, op: jccOps[i]}
	}

	t[0x80] = encoding{kind: kGroup1, arg: 0} // Eb, Ib
	t[0x81] = encoding{kind: kGroup1, arg: 1} // Ev, Iv
	t[0x83] = encoding{kind: kGroup1, arg: 2} // Ev, Ib (sign-extended)
	t[0x84] = encoding{kind: kModRM, op: OpTEST, flags: dirToRM}
	t[0x85] = encoding{kind: kModRM, op: OpTEST, flags: dirToRM | regWide}
	t[0x86] = encoding{kind: kModRM, op: OpXCHG, flags: dirToRM}
	t[0x87] = encoding{kind: kModRM, op: OpXCHG, flags: dirToRM | regWide}
	t[0x88] = encoding{kind: kModRM, op: OpMOV, flags: dirToRM}
	t[0x89] = encoding{kind: kModRM, op: OpMOV, flags: dirToRM | regWide}
	t[0x8A] = encoding{kind: kModRM, op: OpMOV, flags: dirToReg}
	t[0x8B] = encoding{kind: kModRM, op: OpMOV, flags: dirToReg | regWide}
	t[0x8C] = encoding{kind: kModRM, op: OpMOV, flags: dirToRM | regSeg}
	t[0x8D] = encoding{kind: kModRM, op: OpLEA, flags: dirToReg | regWide}
	t[0x8E] = encoding{kind: kModRM, op: OpMOV, flags: dirToReg | regSeg}
	t[0x8F] = encoding{kind: kPopRM}
	t[0x98] = encoding{kind: kSimple, op: OpCBW}
	t[0x99] = encoding{kind: kSimple, op: OpCWD}
	t[0x9A] = encoding{kind: kJmpFar, op: OpCALLF}
	t[0x9B] = encoding{kind: kSimple, op: OpWAIT}
	t[0x9C] = encoding{kind: kSimple, op: OpPUSHF}
	t[0x9D] = encoding{kind: kSimple, op: OpPOPF}
	t[0x9E] = encoding{kind: kSimple, op: OpSAHF}
	t[0x9F] = encoding{kind: kSimple, op: OpLAHF}
	t[0xA0] = encoding{kind: kMoff, flags: dirToReg}
	t[0xA1] = encoding{kind: kMoff, flags: dirToReg | regWide}
	t[0xA2] = encoding{kind: kMoff, flags: dirToRM}
	t[0xA3] = encoding{kind: kMoff, flags: dirToRM | regWide}
	t[0xA4] = encoding{kind: kSimple, op: OpMOVSB}
	t[0xA5] = encoding{kind: kSimple, op: OpMOVSW}
	t[0xA6] = encoding{kind: kSimple, op: OpCMPSB}
	t[0xA7] = encoding{kind: kSimple, op: OpCMPSW}
	t[0xA8] = encoding{kind: kAccImm, op: OpTEST}
	t[0xA9] = encoding{kind: kAccImm, op: OpTEST, flags: regWide}
	t[0xAA] = encoding{kind: kSimple, op: OpSTOSB}
	t[0xAB] = encoding{kind: kSimple, op: OpSTOSW}
	t[0xAC] = encoding{kind: kSimple, op: OpLODSB}
	t[0xAD] = encoding{kind: kSimple, op: OpLODSW}
	t[0xAE] = encoding{kind: kSimple, op: OpSCASB}
	t[0xAF] = encoding{kind: kSimple, op: OpSCASW}

	t[0xC0] = encoding{kind: kGroup2, arg: 0} // Eb, Ib count
	t[0xC1] = encoding{kind: kGroup2, arg: 1, flags: regWide}
	t[0xC2] = encoding{kind: kImm, op: OpRET, flags: regWide}
	t[0xC3] = encoding{kind: kSimple, op: OpRET}
	t[0xC4] = encoding{kind: kModRM, op: OpLES, flags: dirToReg | regWide}
	t[0xC5] = encoding{kind: kModRM, op: OpLDS, flags: dirToReg | regWide}
	t[0xC6] = encoding{kind: kMovImm}
	t[0xC7] = encoding{kind: kMovImm, flags: regWide}
	t[0xC8] = encoding{kind: kEnter}
	t[0xC9] = encoding{kind: kSimple, op: OpLEAVE}
	t[0xCA] = encoding{kind: kImm, op: OpRETF, flags: regWide}
	t[0xCB] = encoding{kind: kSimple, op: OpRETF}
	t[0xCC] = encoding{kind: kInt, arg: 3}
	t[0xCD] = encoding{kind: kInt, arg: 0}
	t[0xCE] = encoding{kind: kSimple, op: OpINTO}
	t[0xCF] = encoding{kind: kSimple, op: OpIRET}
	t[0xD0] = encoding{kind: kGroup2, arg: 2} // Eb, 1
	t[0xD1] = encoding{kind: kGroup2, arg: 2, flags: regWide}
	t[0xD2] = encoding{kind: kGroup2, arg: 3} // Eb, CL
	t[0xD3] = encoding{kind: kGroup2, arg: 3, flags: regWide}
	t[0xD4] = encoding{kind: kImm, op: OpAAM}
	t[0xD5] = encoding{kind: kImm, op: OpAAD}
	t[0xD6] = encoding{kind: kSimple, op: OpSALC}
	t[0xD7] = encoding{kind: kSimple, op: OpXLAT}

	t[0xE0] = encoding{kind: kImm, op: OpLOOPNE}
	t[0xE1] = encoding{kind: kImm, op: OpLOOPE}
	t[0xE2] = encoding{kind: kImm, op: OpLOOP}
	t[0xE3] = encoding{kind: kImm, op: OpJCXZ}
	t[0xE4] = encoding{kind: kInOut, arg: 0}
	t[0xE5] = encoding{kind: kInOut, arg: 1}
	t[0xE6] = encoding{kind: kInOut, arg: 2}
	t[0xE7] = encoding{kind: kInOut, arg: 3}
	t[0xE8] = encoding{kind: kImm, op: OpCALL, flags: regWide}
	t[0xE9] = encoding{kind: kImm, op: OpJMP, flags: regWide}
	t[0xEA] = encoding{kind: kJmpFar, op: OpJMPF}
	t[0xEB] = encoding{kind: kImm, op: OpJMP}
	t[0xEC] = encoding{kind: kInOut, arg: 4}
	t[0xED] = encoding{kind: kInOut, arg: 5}
	t[0xEE] = encoding{kind: kInOut, arg: 6}
	t[0xEF] = encoding{kind: kInOut, arg: 7}

	t[0xF0] = encoding{kind: kSimple, op: OpPreLock}
	t[0xF1] = encoding{kind: kInt, arg: 1}
	t[0xF2] = encoding{kind: kSimple, op: OpPreRepne}
	t[0xF3] = encoding{kind: kSimple, op: OpPreRep}
	t[0xF4] = encoding{kind: kSimple, op: OpHLT}
	t[0xF5] = encoding{kind: kSimple, op: OpCMC}
	t[0xF6] = encoding{kind: kGroup3}
	t[0xF7] = encoding{kind: kGroup3, flags: regWide}
	t[0xF8] = encoding{kind: kSimple, op: OpCLC}
	t[0xF9] = encoding{kind: kSimple, op: OpSTC}
	t[0xFA] = encoding{kind: kSimple, op: OpCLI}
	t[0xFB] = encoding{kind: kSimple, op: OpSTI}
	t[0xFC] = encoding{kind: kSimple, op: OpCLD}
	t[0xFD] = encoding{kind: kSimple, op: OpSTD}
	t[0xFE] = encoding{kind: kGroup4, arg: 0}
	t[0xFF] = encoding{kind: kGroup4, arg: 1, flags: regWide}

	return t
}

func buildEscapeTable() [256]encoding {
	var t [256]encoding
	t[0x00] = encoding{kind: kGroup6}
	t[0x01] = encoding{kind: kGroup7}
	t[0x02] = encoding{kind: kModRM, op: OpLAR, flags: dirToReg | regWide}
	t[0x06] = encoding{kind: kSimple, op: OpCLTS}
	for i := 0; i < 16; i++ {
		t[0x80+i] = encoding{kind: kImm, op: jccOps[i], flags: regWide}
	}
	t[0xAF] = encoding{kind: kModRM, op: OpIMUL, flags: dirToReg | regWide}
	return t
}

// Decode reads one instruction starting at ctx.IP and advances ctx.IP past
// it. A decode failure (unmapped opcode, truncated fetch, or a structural
// violation) yields a one-byte Instruction with Op == OpBad; ctx.IP is
// reset to start+1 so the byte is consumed. If there is no byte at all at
// ctx.IP, the result is also OpBad and ctx.IP is left unchanged.
func Decode(ctx *DecodeContext) Instruction {
	start := ctx.IP
	op8, ok := ctx.fetch8()
	if !ok {
		return badInsn(start)
	}

	enc := encodings[op8]
	ins, ok := decodeWith(ctx, enc)
	if !ok {
		ctx.IP = start + 1
		return badInsn(start)
	}
	ins.Addr = start
	ins.Len = uint8(ctx.IP - start)
	return ins
}

func badInsn(addr uint32) Instruction {
	return Instruction{Addr: addr, Len: 1, Op: OpBad}
}

func decodeWith(ctx *DecodeContext, enc encoding) (Instruction, bool) {
	switch enc.kind {
	case kNone:
		return Instruction{}, false

	case kEscape0F:
		b, ok := ctx.fetch8()
		if !ok {
			return Instruction{}, false
		}
		return decodeWith(ctx, encodings0F[b])

	case kSimple:
		return Instruction{Op: enc.op}, true

	case kAccImm:
		wide := enc.flags&regWide != 0
		var acc, imm Operand
		if wide {
			v, ok := ctx.fetch16()
			if !ok {
				return Instruction{}, false
			}
			acc, imm = RegOp(AX), Imm16(v)
		} else {
			v, ok := ctx.fetch8()
			if !ok {
				return Instruction{}, false
			}
			acc, imm = RegOp(AL), Imm8(v)
		}
		return Instruction{Op: enc.op, Opers: [3]Operand{acc, imm}, NOpers: 2}, true

	case kImm:
		wide := enc.flags&regWide != 0
		var imm Operand
		if wide {
			v, ok := ctx.fetch16()
			if !ok {
				return Instruction{}, false
			}
			imm = Imm16(v)
		} else {
			v, ok := ctx.fetch8()
			if !ok {
				return Instruction{}, false
			}
			imm = Imm8(v)
		}
		return Instruction{Op: enc.op, Opers: [3]Operand{imm}, NOpers: 1}, true

	case kModRM:
		reg, rm, ok := tryModRMFull(ctx, enc.flags)
		if !ok {
			return Instruction{}, false
		}
		var opers [3]Operand
		if enc.flags&dirToReg != 0 {
			opers[0], opers[1] = reg, rm
		} else {
			opers[0], opers[1] = rm, reg
		}
		return Instruction{Op: enc.op, Opers: opers, NOpers: 2}, true

	case kJmpFar:
		off, ok := ctx.fetch16()
		if !ok {
			return Instruction{}, false
		}
		seg, ok := ctx.fetch16()
		if !ok {
			return Instruction{}, false
		}
		imm := Imm32(uint32(seg)<<16 | uint32(off))
		return Instruction{Op: enc.op, Opers: [3]Operand{imm}, NOpers: 1}, true

	case kInt:
		switch enc.arg {
		case 3:
			return Instruction{Op: OpINT, Opers: [3]Operand{Imm8(3)}, NOpers: 1}, true
		case 1:
			return Instruction{Op: OpINT, Opers: [3]Operand{Imm8(1)}, NOpers: 1}, true
		default:
			v, ok := ctx.fetch8()
			if !ok {
				return Instruction{}, false
			}
			return Instruction{Op: OpINT, Opers: [3]Operand{Imm8(v)}, NOpers: 1}, true
		}

	case kInOut:
		return decodeInOut(ctx, enc.arg)

	case kRegEnc:
		return decodeRegEnc(ctx, enc)

	case kPushPopSeg:
		return Instruction{Op: enc.op, Opers: [3]Operand{SegOp(SReg(enc.arg))}, NOpers: 1}, true

	case kPopRM:
		reg, rm, ok := tryModRM(ctx, true)
		if !ok || reg != 0 {
			return Instruction{}, false
		}
		return Instruction{Op: OpPOP, Opers: [3]Operand{rm}, NOpers: 1}, true

	case kEnter:
		size, ok := ctx.fetch16()
		if !ok {
			return Instruction{}, false
		}
		level, ok := ctx.fetch8()
		if !ok {
			return Instruction{}, false
		}
		return Instruction{Op: OpENTER, Opers: [3]Operand{Imm16(size), Imm8(level)}, NOpers: 2}, true

	case kImul:
		reg, rm, ok := tryModRMFull(ctx, dirToReg|regWide)
		if !ok {
			return Instruction{}, false
		}
		var imm Operand
		if enc.flags&regWide != 0 {
			v, ok := ctx.fetch16()
			if !ok {
				return Instruction{}, false
			}
			imm = Imm16(v)
		} else {
			v, ok := ctx.fetch8()
			if !ok {
				return Instruction{}, false
			}
			imm = Imm8(v)
		}
		return Instruction{Op: OpIMUL, Opers: [3]Operand{reg, rm, imm}, NOpers: 3}, true

	case kMoff:
		wide := enc.flags&regWide != 0
		off, ok := ctx.fetch16()
		if !ok {
			return Instruction{}, false
		}
		mem := MemOp(ModeMoff, int16(off))
		var acc Operand
		if wide {
			acc = RegOp(AX)
		} else {
			acc = RegOp(AL)
		}
		var opers [3]Operand
		if enc.flags&dirToReg != 0 {
			opers[0], opers[1] = acc, mem
		} else {
			opers[0], opers[1] = mem, acc
		}
		return Instruction{Op: OpMOV, Opers: opers, NOpers: 2}, true

	case kMovImm:
		wide := enc.flags&regWide != 0
		reg, rm, ok := tryModRM(ctx, wide)
		if !ok || reg != 0 {
			return Instruction{}, false
		}
		var imm Operand
		if wide {
			v, ok := ctx.fetch16()
			if !ok {
				return Instruction{}, false
			}
			imm = Imm16(v)
		} else {
			v, ok := ctx.fetch8()
			if !ok {
				return Instruction{}, false
			}
			imm = Imm8(v)
		}
		return Instruction{Op: OpMOV, Opers: [3]Operand{rm, imm}, NOpers: 2}, true

	case kGroup1:
		return decodeGroup1(ctx, enc.arg)

	case kGroup2:
		return decodeGroup2(ctx, enc)

	case kGroup3:
		return decodeGroup3(ctx, enc.flags)

	case kGroup4:
		return decodeGroup4(ctx, enc)

	case kGroup6:
		return decodeGroupNoOperand(ctx, group6Ops[:])

	case kGroup7:
		return decodeGroupNoOperand(ctx, group7Ops[:])
	}

	return Instruction{}, false
}

func decodeInOut(ctx *DecodeContext, variant int) (Instruction, bool) {
	switch variant {
	case 0: // IN AL, Ib
		v, ok := ctx.fetch8()
		if !ok {
			return Instruction{}, false
		}
		return Instruction{Op: OpIN, Opers: [3]Operand{RegOp(AL), Imm8(v)}, NOpers: 2}, true
	case 1: // IN AX, Ib
		v, ok := ctx.fetch8()
		if !ok {
			return Instruction{}, false
		}
		return Instruction{Op: OpIN, Opers: [3]Operand{RegOp(AX), Imm8(v)}, NOpers: 2}, true
	case 2: // OUT Ib, AL
		v, ok := ctx.fetch8()
		if !ok {
			return Instruction{}, false
		}
		return Instruction{Op: OpOUT, Opers: [3]Operand{Imm8(v), RegOp(AL)}, NOpers: 2}, true
	case 3: // OUT Ib, AX
		v, ok := ctx.fetch8()
		if !ok {
			return Instruction{}, false
		}
		return Instruction{Op: OpOUT, Opers: [3]Operand{Imm8(v), RegOp(AX)}, NOpers: 2}, true
	case 4: // IN AL, DX
		return Instruction{Op: OpIN, Opers: [3]Operand{RegOp(AL), RegOp(DX)}, NOpers: 2}, true
	case 5: // IN AX, DX
		return Instruction{Op: OpIN, Opers: [3]Operand{RegOp(AX), RegOp(DX)}, NOpers: 2}, true
	case 6: // OUT DX, AL
		return Instruction{Op: OpOUT, Opers: [3]Operand{RegOp(DX), RegOp(AL)}, NOpers: 2}, true
	default: // OUT DX, AX
		return Instruction{Op: OpOUT, Opers: [3]Operand{RegOp(DX), RegOp(AX)}, NOpers: 2}, true
	}
}

func decodeRegEnc(ctx *DecodeContext, enc encoding) (Instruction, bool) {
	switch enc.op {
	case OpINC, OpDEC, OpPUSH, OpPOP:
		return Instruction{Op: enc.op, Opers: [3]Operand{RegOp(getReg(uint8(enc.arg), true))}, NOpers: 1}, true
	case OpXCHG:
		if enc.arg == 0 {
			return Instruction{Op: OpNOP}, true
		}
		r := getReg(uint8(enc.arg), true)
		return Instruction{Op: OpXCHG, Opers: [3]Operand{RegOp(AX), RegOp(r)}, NOpers: 2}, true
	case OpMOV:
		wide := enc.flags&regWide != 0
		r := getReg(uint8(enc.arg), wide)
		if wide {
			v, ok := ctx.fetch16()
			if !ok {
				return Instruction{}, false
			}
			return Instruction{Op: OpMOV, Opers: [3]Operand{RegOp(r), Imm16(v)}, NOpers: 2}, true
		}
		v, ok := ctx.fetch8()
		if !ok {
			return Instruction{}, false
		}
		return Instruction{Op: OpMOV, Opers: [3]Operand{RegOp(r), Imm8(v)}, NOpers: 2}, true
	}
	return Instruction{}, false
}

func decodeGroup1(ctx *DecodeContext, variant int) (Instruction, bool) {
	wide := variant != 0 // 0x80 is the only byte-form; 0x81/0x83 are word-form
	reg, rm, ok := tryModRM(ctx, wide)
	if !ok {
		return Instruction{}, false
	}
	op := group1Ops[reg&0x7]

	var imm Operand
	switch variant {
	case 0: // Eb, Ib
		v, ok := ctx.fetch8()
		if !ok {
			return Instruction{}, false
		}
		imm = Imm8(v)
	case 1: // Ev, Iv
		v, ok := ctx.fetch16()
		if !ok {
			return Instruction{}, false
		}
		imm = Imm16(v)
	default: // Ev, Ib sign-extended
		v, ok := ctx.fetch8()
		if !ok {
			return Instruction{}, false
		}
		imm = Imm8(v)
	}
	return Instruction{Op: op, Opers: [3]Operand{rm, imm}, NOpers: 2}, true
}

func decodeGroup2(ctx *DecodeContext, enc encoding) (Instruction, bool) {
	wide := enc.flags&regWide != 0
	reg, rm, ok := tryModRM(ctx, wide)
	if !ok {
		return Instruction{}, false
	}
	op := group2Ops[reg&0x7]
	if op == OpBad {
		return Instruction{}, false
	}

	var count Operand
	switch enc.arg {
	case 0, 1: // Ib
		v, ok := ctx.fetch8()
		if !ok {
			return Instruction{}, false
		}
		count = Imm8(v)
	case 2: // literal 1
		count = Imm8(1)
	default: // CL
		count = RegOp(CL)
	}
	return Instruction{Op: op, Opers: [3]Operand{rm, count}, NOpers: 2}, true
}

func decodeGroup3(ctx *DecodeContext, flags modrmFlags) (Instruction, bool) {
	wide := flags&regWide != 0
	reg, rm, ok := tryModRM(ctx, wide)
	if !ok {
		return Instruction{}, false
	}
	op := group3Ops[reg&0x7]
	if op == OpBad {
		return Instruction{}, false
	}

	if op == OpTEST {
		var imm Operand
		if wide {
			v, ok := ctx.fetch16()
			if !ok {
				return Instruction{}, false
			}
			imm = Imm16(v)
		} else {
			v, ok := ctx.fetch8()
			if !ok {
				return Instruction{}, false
			}
			imm = Imm8(v)
		}
		return Instruction{Op: op, Opers: [3]Operand{rm, imm}, NOpers: 2}, true
	}
	return Instruction{Op: op, Opers: [3]Operand{rm}, NOpers: 1}, true
}

func decodeGroup4(ctx *DecodeContext, enc encoding) (Instruction, bool) {
	wide := enc.flags&regWide != 0
	reg, rm, ok := tryModRM(ctx, wide)
	if !ok {
		return Instruction{}, false
	}
	var op Opcode
	if wide {
		op = group4EvOps[reg&0x7]
	} else {
		op = group4EbOps[reg&0x7]
	}
	if op == OpBad {
		return Instruction{}, false
	}
	return Instruction{Op: op, Opers: [3]Operand{rm}, NOpers: 1}, true
}

func decodeGroupNoOperand(ctx *DecodeContext, ops []Opcode) (Instruction, bool) {
	reg, rm, ok := tryModRM(ctx, true)
	if !ok {
		return Instruction{}, false
	}
	op := ops[reg&0x7]
	if op == OpBad {
		return Instruction{}, false
	}
	return Instruction{Op: op, Opers: [3]Operand{rm}, NOpers: 1}, true
}
