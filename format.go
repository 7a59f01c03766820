package i286dis

import (
	"bytes"
	"fmt"
)

// Options selects rendering choices for the formatter.
type Options uint8

const (
	HexImm Options = 1 << iota
	HexDisp
	JmpType
	JmpAddr
	JmpBoth
)

// Hooks lets a caller wrap tokens — e.g. to inject ANSI color codes —
// without the formatter needing to know anything about terminal escapes.
// Any hook left nil is skipped.
type Hooks struct {
	OpcodePre  func(buf *bytes.Buffer, ins Instruction)
	OpcodePost func(buf *bytes.Buffer, ins Instruction)
	OperPre    func(buf *bytes.Buffer, o Operand)
	OperPost   func(buf *bytes.Buffer, o Operand)
}

func (h Hooks) opcodePre(buf *bytes.Buffer, ins Instruction) {
	if h.OpcodePre != nil {
		h.OpcodePre(buf, ins)
	}
}
func (h Hooks) opcodePost(buf *bytes.Buffer, ins Instruction) {
	if h.OpcodePost != nil {
		h.OpcodePost(buf, ins)
	}
}
func (h Hooks) operPre(buf *bytes.Buffer, o Operand) {
	if h.OperPre != nil {
		h.OperPre(buf, o)
	}
}
func (h Hooks) operPost(buf *bytes.Buffer, o Operand) {
	if h.OperPost != nil {
		h.OperPost(buf, o)
	}
}

// Formatter renders decoded instructions as assembly text.
type Formatter struct {
	Options Options
	Hooks   Hooks
}

func NewFormatter(opts Options) *Formatter {
	return &Formatter{Options: opts}
}

// FmtCursor drives per-token emission of one instruction across repeated
// Iterate calls, so a caller can interleave its own separators or color
// resets between tokens. state meanings: 0 = mnemonic not yet emitted,
// 1..3 = operand/branch sub-steps, -1 = done.
type FmtCursor struct {
	last  *Instruction
	state int
}

// Done reports whether the cursor has emitted every token of its current
// instruction.
func (c *FmtCursor) Done() bool { return c.state < 0 || c.last == nil }

func (f *Formatter) memoryText(o Operand) string {
	base := addrBase[o.Mode]
	hex := f.Options&HexDisp != 0

	if base == "" {
		if hex {
			return fmt.Sprintf("[0x%x]", uint16(o.Disp))
		}
		return fmt.Sprintf("[%d]", uint16(o.Disp))
	}

	seg := ""
	if o.Mode == ModeBPSI || o.Mode == ModeBPDI || o.Mode == ModeBP {
		seg = "ss:"
	}
	if o.Disp == 0 {
		return fmt.Sprintf("%s[%s]", seg, base)
	}
	sign := byte('+')
	mag := o.Disp
	if o.Disp < 0 {
		sign = '-'
		mag = -o.Disp
	}
	if hex {
		return fmt.Sprintf("%s[%s %c 0x%x]", seg, base, sign, uint16(mag))
	}
	return fmt.Sprintf("%s[%s %c %d]", seg, base, sign, uint16(mag))
}

func (f *Formatter) operandText(o Operand) string {
	hex := f.Options&HexImm != 0
	switch o.Kind {
	case OperImm8:
		if hex {
			return fmt.Sprintf("0x%x", uint8(o.Imm))
		}
		return fmt.Sprintf("%d", int8(o.Imm))
	case OperImm16:
		if hex {
			return fmt.Sprintf("0x%x", uint16(o.Imm))
		}
		return fmt.Sprintf("%d", int16(o.Imm))
	case OperImm32:
		if hex {
			return fmt.Sprintf("0x%x", o.Imm)
		}
		return fmt.Sprintf("%d", int32(o.Imm))
	case OperReg:
		return o.Reg.String()
	case OperSeg:
		return o.Seg.String()
	case OperMem:
		return f.memoryText(o)
	}
	return ""
}

func (f *Formatter) writeOper(buf *bytes.Buffer, o Operand) {
	f.Hooks.operPre(buf, o)
	buf.WriteString(f.operandText(o))
	f.Hooks.operPost(buf, o)
}

// writeBranch renders a branch-carrying instruction's target operand,
// honoring JmpType/JmpAddr/JmpBoth.
func (f *Formatter) writeBranch(buf *bytes.Buffer, ins Instruction) {
	o := ins.Opers[0]

	switch ins.Op {
	case OpJMPF, OpCALLF:
		if f.Options&JmpType != 0 {
			buf.WriteString("far ")
		}
		if o.Kind != OperImm32 {
			f.writeOper(buf, o)
			return
		}
		seg := uint16(o.Imm >> 16)
		off := uint16(o.Imm)
		fmt.Fprintf(buf, "0x%x:0x%x", seg, off)
		return
	}

	target, ok := ins.Branch()
	if !ok {
		if f.Options&JmpType != 0 {
			buf.WriteString("word ")
		}
		f.writeOper(buf, o)
		return
	}

	if o.Kind == OperImm8 && f.Options&JmpType != 0 {
		buf.WriteString("short ")
	} else if o.Kind == OperImm16 && f.Options&JmpType != 0 {
		buf.WriteString("near ")
	}

	switch {
	case f.Options&JmpAddr != 0:
		fmt.Fprintf(buf, "0x%x", target)
	case f.Options&JmpBoth != 0:
		f.writeOper(buf, o)
		fmt.Fprintf(buf, "; 0x%x", target)
	default:
		f.writeOper(buf, o)
	}
}

// Iterate emits the next token of ins into buf and advances c's state,
// returning false once the instruction is fully rendered.
func (f *Formatter) Iterate(c *FmtCursor, ins *Instruction, buf *bytes.Buffer) bool {
	if c.last != ins {
		c.last = ins
		c.state = 0
	}
	if c.Done() {
		return false
	}

	if c.state == 0 {
		f.Hooks.opcodePre(buf, *ins)
		buf.WriteString(ins.Op.String())
		f.Hooks.opcodePost(buf, *ins)
		if ins.NOpers == 0 {
			c.state = -1
		} else {
			c.state = 1
		}
		return true
	}

	if ins.IsBranch() && ins.Op != OpRET && ins.Op != OpRETF {
		f.writeBranch(buf, *ins)
		c.state = -1
		return true
	}

	idx := c.state - 1
	f.writeOper(buf, ins.Opers[idx])
	if idx+1 >= ins.NOpers {
		c.state = -1
	} else {
		c.state++
	}
	return true
}

// FormatInsn renders ins fully into buf in one call, inserting a space
// after the mnemonic and commas between subsequent operands, and
// returns the number of bytes written.
func (f *Formatter) FormatInsn(ins Instruction, buf *bytes.Buffer) int {
	start := buf.Len()
	var c FmtCursor
	i := 0
	for f.Iterate(&c, &ins, buf) {
		if !c.Done() {
			if i == 0 || ins.IsBranch() {
				buf.WriteString(" ")
			} else {
				buf.WriteString(", ")
			}
		}
		i++
	}
	return buf.Len() - start
}
