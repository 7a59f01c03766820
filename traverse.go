package i286dis

// worklistCap bounds the number of pending entry addresses the traversal
// engine will track at once. Pushes beyond this capacity are dropped; this
// is a best-effort completeness limitation, not a correctness one, carried
// over unchanged from the canonical implementation's DIS_ENTRY_N.
const worklistCap = 32

// Disassembly holds one disassembly run over a fixed byte image: the
// address-indexed decoded instructions and the pending worklist of
// addresses still to be explored.
type Disassembly struct {
	Base  uint32
	Limit uint32
	Bytes []byte

	decoded []Instruction
	have    []bool

	worklist [worklistCap]uint32
	entries  int

	// OverflowCount and SkippedEntries are best-effort diagnostics a caller
	// may surface (e.g. as CLI debug logging); traversal correctness never
	// depends on them.
	OverflowCount  int
	SkippedEntries int
}

// NewDisassembly creates a disassembly over bytes, anchored so that
// bytes[0] corresponds to address base.
func NewDisassembly(bytes []byte, base uint32) *Disassembly {
	return &Disassembly{
		Base:    base,
		Limit:   base + uint32(len(bytes)),
		Bytes:   bytes,
		decoded: make([]Instruction, len(bytes)),
		have:    make([]bool, len(bytes)),
	}
}

// PushEntry adds addr as a traversal seed. Pushes beyond worklistCap are
// silently dropped, matching the bounded LIFO worklist of the canonical
// implementation.
func (d *Disassembly) PushEntry(addr uint32) {
	if d.entries >= worklistCap {
		d.OverflowCount++
		return
	}
	d.worklist[d.entries] = addr
	d.entries++
}

func (d *Disassembly) popEntry() (uint32, bool) {
	if d.entries == 0 {
		return 0, false
	}
	d.entries--
	return d.worklist[d.entries], true
}

func (d *Disassembly) at(addr uint32) (Instruction, bool) {
	if addr < d.Base || addr >= d.Limit {
		return Instruction{}, false
	}
	idx := addr - d.Base
	return d.decoded[idx], d.have[idx]
}

func (d *Disassembly) store(ins Instruction) {
	idx := ins.Addr - d.Base
	d.decoded[idx] = ins
	d.have[idx] = true
}

// Disasm runs the recursive-descent traversal to completion: it pops
// addresses off the worklist and linear-sweeps from each until a
// terminator, a bad byte, previously-decoded territory, or the end of the
// image is reached, pushing any concretely-resolved branch targets it
// discovers along the way.
func (d *Disassembly) Disasm() {
	for {
		addr, ok := d.popEntry()
		if !ok {
			return
		}
		if addr < d.Base {
			d.SkippedEntries++
			continue
		}
		d.sweep(addr)
	}
}

func (d *Disassembly) sweep(start uint32) {
	ip := start
	for ip < d.Limit {
		if _, already := d.at(ip); already {
			return
		}

		ctx := &DecodeContext{Bytes: d.Bytes, Base: d.Base, IP: ip}
		ins := Decode(ctx)
		if ins.IsBad() {
			return
		}
		d.store(ins)

		if ins.IsBranch() {
			if target, ok := ins.Branch(); ok {
				d.PushEntry(target)
			}
		}
		if ins.IsTerminator() {
			return
		}
		ip += uint32(ins.Len)
	}
}

// Iterate walks the image in address order starting at *idx (an offset
// from Base). Each call yields either a decoded instruction (isInsn true)
// or a single raw byte that was never reached by traversal (isInsn
// false), and advances *idx past what it yielded. It returns false once
// idx reaches the end of the image.
func (d *Disassembly) Iterate(idx *uint32) (ins Instruction, isInsn bool, ok bool) {
	if *idx >= uint32(len(d.Bytes)) {
		return Instruction{}, false, false
	}
	if d.have[*idx] {
		ins = d.decoded[*idx]
		*idx += uint32(ins.Len)
		return ins, true, true
	}
	*idx++
	return Instruction{}, false, true
}
