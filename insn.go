// Package i286dis decodes and disassembles Intel 286 real-mode machine code.
package i286dis

import "fmt"

// GPR names a general-purpose register operand.
type GPR int

const (
	AL GPR = iota
	CL
	DL
	BL
	AH
	CH
	DH
	BH
	AX
	CX
	DX
	BX
	SP
	BP
	SI
	DI
)

var gprMnemonics = [...]string{
	"al", "cl", "dl", "bl", "ah", "ch", "dh", "bh",
	"ax", "cx", "dx", "bx", "sp", "bp", "si", "di",
}

func (r GPR) String() string { return gprMnemonics[r] }

// SReg names a segment register operand.
type SReg int

const (
	ES SReg = iota
	CS
	SS
	DS
)

var sregMnemonics = [...]string{"es", "cs", "ss", "ds"}

func (s SReg) String() string { return sregMnemonics[s] }

// AddrMode names the addressing form of a memory operand.
type AddrMode int

const (
	ModeAbs  AddrMode = iota // direct 16-bit address, no base/index
	ModeMoff                 // MOV AL/AX, moffs / moffs, AL/AX absolute offset form
	ModeBXSI
	ModeBXDI
	ModeBPSI
	ModeBPDI
	ModeSI
	ModeDI
	ModeBP
	ModeBX
)

// defaultSeg reports the segment implied by an addressing mode absent an override.
func (m AddrMode) defaultSeg() SReg {
	switch m {
	case ModeBPSI, ModeBPDI, ModeBP:
		return SS
	default:
		return DS
	}
}

var addrBase = [...]string{
	ModeAbs:  "",
	ModeMoff: "",
	ModeBXSI: "bx + si",
	ModeBXDI: "bx + di",
	ModeBPSI: "bp + si",
	ModeBPDI: "bp + di",
	ModeSI:   "si",
	ModeDI:   "di",
	ModeBP:   "bp",
	ModeBX:   "bx",
}

// OperKind tags the variant held by an Operand.
type OperKind int

const (
	OperNone OperKind = iota
	OperImm8
	OperImm16
	OperImm32
	OperReg
	OperSeg
	OperMem
)

// Operand is a tagged value: exactly one of an immediate, a register, a
// segment register, or a memory expression.
type Operand struct {
	Kind OperKind
	Imm  uint32   // valid for OperImm8/16/32, holds the raw unsigned bit pattern
	Reg  GPR      // valid for OperReg
	Seg  SReg     // valid for OperSeg, and for OperMem's implied segment
	Mode AddrMode // valid for OperMem
	Disp int16    // valid for OperMem
}

func Imm8(v uint8) Operand   { return Operand{Kind: OperImm8, Imm: uint32(v)} }
func Imm16(v uint16) Operand { return Operand{Kind: OperImm16, Imm: uint32(v)} }
func Imm32(v uint32) Operand { return Operand{Kind: OperImm32, Imm: v} }
func RegOp(r GPR) Operand    { return Operand{Kind: OperReg, Reg: r} }
func SegOp(s SReg) Operand   { return Operand{Kind: OperSeg, Seg: s} }

func MemOp(mode AddrMode, disp int16) Operand {
	return Operand{Kind: OperMem, Mode: mode, Disp: disp, Seg: mode.defaultSeg()}
}

// Opcode enumerates every 286 mnemonic this disassembler recognizes, plus
// the prefix pseudo-ops and the BAD sentinel for undecodable bytes.
type Opcode int

const (
	OpBad Opcode = iota

	// prefixes
	OpPreLock
	OpPreRep
	OpPreRepne
	OpPreCS
	OpPreDS
	OpPreES
	OpPreSS

	// flag / misc control
	OpCLC
	OpCLI
	OpCLD
	OpSTC
	OpSTI
	OpSTD
	OpCMC
	OpNOP
	OpHLT
	OpWAIT
	OpCBW
	OpCWD
	OpLAHF
	OpSAHF
	OpPUSHF
	OpPOPF
	OpPUSHA
	OpPOPA
	OpAAA
	OpAAS
	OpDAA
	OpDAS
	OpAAM
	OpAAD
	OpXLAT
	OpSALC
	OpINTO
	OpIRET
	OpCLTS
	OpLAR

	// control transfer
	OpRET
	OpRETF
	OpINT
	OpINT3
	OpCALL
	OpCALLF
	OpJMP
	OpJMPF
	OpJCXZ
	OpLOOP
	OpLOOPE
	OpLOOPNE

	// conditional jumps
	OpJO
	OpJNO
	OpJB
	OpJAE
	OpJE
	OpJNE
	OpJBE
	OpJA
	OpJS
	OpJNS
	OpJP
	OpJNP
	OpJL
	OpJGE
	OpJLE
	OpJG

	// data movement
	OpMOV
	OpPUSH
	OpPOP
	OpXCHG
	OpIN
	OpOUT
	OpLEA
	OpLDS
	OpLES
	OpENTER
	OpLEAVE
	OpBOUND
	OpARPL

	// arithmetic / logic (group 1)
	OpADD
	OpOR
	OpADC
	OpSBB
	OpAND
	OpSUB
	OpXOR
	OpCMP
	OpTEST

	// shift / rotate (group 2)
	OpROL
	OpROR
	OpRCL
	OpRCR
	OpSHL
	OpSHR
	OpSAR

	// unary (group 3)
	OpNOT
	OpNEG
	OpMUL
	OpIMUL
	OpDIV
	OpIDIV

	// inc/dec (group 4)
	OpINC
	OpDEC

	// string operations
	OpMOVSB
	OpMOVSW
	OpCMPSB
	OpCMPSW
	OpSCASB
	OpSCASW
	OpLODSB
	OpLODSW
	OpSTOSB
	OpSTOSW
	OpINSB
	OpINSW
	OpOUTSB
	OpOUTSW

	// protection model (group 6/7)
	OpSLDT
	OpSTR
	OpLLDT
	OpLTR
	OpVERR
	OpVERW
	OpSGDT
	OpSIDT
	OpLGDT
	OpLIDT
	OpSMSW
	OpLMSW

	opcodeCount
)

var opcodeMnemonics = [opcodeCount]string{
	OpBad:     "(bad)",
	OpPreLock: "lock", OpPreRep: "rep", OpPreRepne: "repne",
	OpPreCS: "cs", OpPreDS: "ds", OpPreES: "es", OpPreSS: "ss",
	OpCLC: "clc", OpCLI: "cli", OpCLD: "cld", OpSTC: "stc", OpSTI: "sti", OpSTD: "std",
	OpCMC: "cmc", OpNOP: "nop", OpHLT: "hlt", OpWAIT: "wait",
	OpCBW: "cbw", OpCWD: "cwd", OpLAHF: "lahf", OpSAHF: "sahf",
	OpPUSHF: "pushf", OpPOPF: "popf", OpPUSHA: "pusha", OpPOPA: "popa",
	OpAAA: "aaa", OpAAS: "aas", OpDAA: "daa", OpDAS: "das",
	OpAAM: "aam", OpAAD: "aad", OpXLAT: "xlat", OpSALC: "salc", OpINTO: "into", OpIRET: "iret",
	OpCLTS: "clts", OpLAR: "lar",
	OpRET: "ret", OpRETF: "retf", OpINT: "int", OpINT3: "int3",
	OpCALL: "call", OpCALLF: "callf", OpJMP: "jmp", OpJMPF: "jmpf",
	OpJCXZ: "jcxz", OpLOOP: "loop", OpLOOPE: "loope", OpLOOPNE: "loopne",
	OpJO: "jo", OpJNO: "jno", OpJB: "jb", OpJAE: "jae", OpJE: "je", OpJNE: "jne",
	OpJBE: "jbe", OpJA: "ja", OpJS: "js", OpJNS: "jns", OpJP: "jp", OpJNP: "jnp",
	OpJL: "jl", OpJGE: "jge", OpJLE: "jle", OpJG: "jg",
	OpMOV: "mov", OpPUSH: "push", OpPOP: "pop", OpXCHG: "xchg",
	OpIN: "in", OpOUT: "out", OpLEA: "lea", OpLDS: "lds", OpLES: "les",
	OpENTER: "enter", OpLEAVE: "leave", OpBOUND: "bound", OpARPL: "arpl",
	OpADD: "add", OpOR: "or", OpADC: "adc", OpSBB: "sbb", OpAND: "and",
	OpSUB: "sub", OpXOR: "xor", OpCMP: "cmp", OpTEST: "test",
	OpROL: "rol", OpROR: "ror", OpRCL: "rcl", OpRCR: "rcr",
	OpSHL: "shl", OpSHR: "shr", OpSAR: "sar",
	OpNOT: "not", OpNEG: "neg", OpMUL: "mul", OpIMUL: "imul",
	OpDIV: "div", OpIDIV: "idiv", OpINC: "inc", OpDEC: "dec",
	OpMOVSB: "movsb", OpMOVSW: "movsw", OpCMPSB: "cmpsb", OpCMPSW: "cmpsw",
	OpSCASB: "scasb", OpSCASW: "scasw", OpLODSB: "lodsb", OpLODSW: "lodsw",
	OpSTOSB: "stosb", OpSTOSW: "stosw", OpINSB: "insb", OpINSW: "insw",
	OpOUTSB: "outsb", OpOUTSW: "outsw",
	OpSLDT: "sldt", OpSTR: "str", OpLLDT: "lldt", OpLTR: "ltr",
	OpVERR: "verr", OpVERW: "verw",
	OpSGDT: "sgdt", OpSIDT: "sidt", OpLGDT: "lgdt", OpLIDT: "lidt",
	OpSMSW: "smsw", OpLMSW: "lmsw",
}

func (op Opcode) String() string {
	if op < 0 || op >= opcodeCount {
		return fmt.Sprintf("opcode(%d)", int(op))
	}
	return opcodeMnemonics[op]
}

// Instruction is one decoded 286 instruction: its address, its encoded
// length in bytes, its opcode, and up to three operands in source-syntax
// (destination-first) order.
type Instruction struct {
	Addr   uint32
	Len    uint8
	Op     Opcode
	Opers  [3]Operand
	NOpers int
}

// IsBad reports whether decoding failed to produce a real instruction.
func (ins Instruction) IsBad() bool { return ins.Op == OpBad }

// IsPrefix reports whether ins is a standalone prefix pseudo-op.
func (ins Instruction) IsPrefix() bool {
	switch ins.Op {
	case OpPreLock, OpPreRep, OpPreRepne, OpPreCS, OpPreDS, OpPreES, OpPreSS:
		return true
	}
	return false
}

// IsTerminator reports whether control flow cannot fall through past ins.
func (ins Instruction) IsTerminator() bool {
	switch ins.Op {
	case OpJMP, OpJMPF, OpRET, OpRETF, OpIRET:
		return true
	}
	return false
}

// IsBranch reports whether ins may transfer control somewhere other than
// the next instruction.
func (ins Instruction) IsBranch() bool {
	switch ins.Op {
	case OpJO, OpJNO, OpJB, OpJAE, OpJE, OpJNE, OpJBE, OpJA, OpJS, OpJNS,
		OpJP, OpJNP, OpJL, OpJGE, OpJLE, OpJG, OpJCXZ,
		OpLOOP, OpLOOPE, OpLOOPNE, OpCALL, OpCALLF:
		return true
	}
	return ins.IsTerminator()
}

// Branch computes the absolute target address of ins, if any can be
// statically determined (direct near/short/far forms only; indirect forms
// through a register or memory operand have no concrete target).
func (ins Instruction) Branch() (target uint32, ok bool) {
	if ins.NOpers == 0 {
		return 0, false
	}
	o := ins.Opers[0]
	switch ins.Op {
	case OpJMPF, OpCALLF:
		if o.Kind != OperImm32 {
			return 0, false
		}
		seg := uint32(o.Imm >> 16)
		off := uint32(o.Imm & 0xFFFF)
		return (seg << 4) + off, true
	case OpJO, OpJNO, OpJB, OpJAE, OpJE, OpJNE, OpJBE, OpJA, OpJS, OpJNS,
		OpJP, OpJNP, OpJL, OpJGE, OpJLE, OpJG, OpJCXZ,
		OpLOOP, OpLOOPE, OpLOOPNE, OpJMP, OpCALL:
		switch o.Kind {
		case OperImm8:
			disp := int32(int8(o.Imm))
			return uint32(int32(ins.Addr) + int32(ins.Len) + disp), true
		case OperImm16:
			disp := int32(int16(o.Imm))
			return uint32(int32(ins.Addr) + int32(ins.Len) + disp), true
		}
		return 0, false
	}
	return 0, false
}
