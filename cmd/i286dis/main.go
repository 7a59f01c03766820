// Command i286dis disassembles a flat binary image of Intel 286 real-mode
// code, following control flow from one or more entry points.
//
// Its listing loop descends from the chriskillpack-bbcdisasm CLI's
// urfave/cli app structure, adapted to the -b/-e entry-point contract and
// the prefix-concatenation / printable-byte listing style of the original
// i286dis C tool's main.c and test.c.
package main

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"unicode"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
	cli "github.com/urfave/cli/v2"

	"i286dis"
)

var log = logrus.New()

func main() {
	app := &cli.App{
		Name:      "i286dis",
		Usage:     "disassemble a flat Intel 286 real-mode binary image",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "base",
				Aliases: []string{"b"},
				Value:   "0x100",
				Usage:   "load address of the image",
			},
			&cli.StringSliceFlag{
				Name:    "entry",
				Aliases: []string{"e"},
				Usage:   "traversal entry point (repeatable; defaults to --base)",
			},
			&cli.BoolFlag{
				Name:  "color",
				Usage: "colorize mnemonics and operands",
			},
			&cli.BoolFlag{
				Name:  "dec",
				Usage: "render immediates/displacements in decimal instead of hex",
			},
			&cli.BoolFlag{
				Name:  "jmp-type",
				Usage: "prefix branch operands with short/near/far/word",
			},
			&cli.BoolFlag{
				Name:  "jmp-addr",
				Usage: "render branch targets as an absolute address",
			},
			&cli.BoolFlag{
				Name:  "jmp-both",
				Usage: "render branch displacement plus an absolute-target comment",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log traversal diagnostics to stderr",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	log.SetOutput(os.Stderr)
	if c.Bool("verbose") {
		log.SetLevel(logrus.DebugLevel)
	}

	if c.Args().Len() != 1 {
		return cli.Exit("exactly one FILE argument is required", 1)
	}
	file := c.Args().First()

	base, err := parseAddr(c.String("base"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid --base: %v", err), 1)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return cli.Exit(fmt.Sprintf("could not read %s: %v", file, err), 1)
	}
	log.Debugf("loaded %d bytes from %s at base 0x%x", len(data), file, base)

	dis := i286dis.NewDisassembly(data, base)

	entries := c.StringSlice("entry")
	if len(entries) == 0 {
		dis.PushEntry(base)
	}
	for _, e := range entries {
		addr, err := parseAddr(e)
		if err != nil {
			return cli.Exit(fmt.Sprintf("invalid --entry %q: %v", e, err), 1)
		}
		dis.PushEntry(addr)
	}

	dis.Disasm()
	if dis.OverflowCount > 0 {
		log.Debugf("worklist overflowed %d time(s); discovery may be incomplete", dis.OverflowCount)
	}
	if dis.SkippedEntries > 0 {
		log.Debugf("skipped %d out-of-range entry address(es)", dis.SkippedEntries)
	}

	opts := buildOptions(c)
	hooks := i286dis.Hooks{}
	if c.Bool("color") {
		hooks = colorHooks()
	}
	l := &listing{
		dis:  dis,
		fmtr: &i286dis.Formatter{Options: opts, Hooks: hooks},
		out:  os.Stdout,
	}
	l.write()
	return nil
}

func buildOptions(c *cli.Context) i286dis.Options {
	opts := i286dis.HexImm | i286dis.HexDisp
	if c.Bool("dec") {
		opts &^= i286dis.HexImm | i286dis.HexDisp
	}
	if c.Bool("jmp-type") {
		opts |= i286dis.JmpType
	}
	if c.Bool("jmp-addr") {
		opts |= i286dis.JmpAddr
	}
	if c.Bool("jmp-both") {
		opts |= i286dis.JmpBoth
	}
	return opts
}

// sgr renders a fatih/color Attribute as the raw SGR escape sequence that
// starts it; used here instead of color.Sprint because the formatter's
// hooks bracket a token that is written separately, not a single string
// color.Sprint could wrap in one call.
func sgr(a color.Attribute) string {
	return fmt.Sprintf("\x1b[%dm", a)
}

// colorHooks wires the formatter's hook seams to github.com/fatih/color:
// mnemonics in cyan, every operand (immediate, register, segment or
// memory) in yellow.
func colorHooks() i286dis.Hooks {
	return i286dis.Hooks{
		OpcodePre: func(buf *bytes.Buffer, _ i286dis.Instruction) {
			buf.WriteString(sgr(color.FgCyan))
		},
		OpcodePost: func(buf *bytes.Buffer, _ i286dis.Instruction) {
			buf.WriteString(sgr(color.Reset))
		},
		OperPre: func(buf *bytes.Buffer, _ i286dis.Operand) {
			buf.WriteString(sgr(color.FgYellow))
		},
		OperPost: func(buf *bytes.Buffer, _ i286dis.Operand) {
			buf.WriteString(sgr(color.Reset))
		},
	}
}

func parseAddr(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

// listing renders an "addr: assembly" listing, folding consecutive prefix
// pseudo-instructions onto the following real instruction's line and
// annotating raw (undecoded) bytes with their printable character,
// mirroring the original i286dis C tool's CLI loop. Instruction lines do
// not include a dump of the instruction's encoded bytes.
type listing struct {
	dis  *i286dis.Disassembly
	fmtr *i286dis.Formatter
	out  *os.File
}

func (l *listing) write() {
	var idx uint32
	for {
		ins, isInsn, ok := l.dis.Iterate(&idx)
		if !ok {
			return
		}
		if !isInsn {
			l.writeRawByte(idx - 1)
			continue
		}
		l.writeInstructionLine(ins, &idx)
	}
}

// writeInstructionLine prints one listing line starting at first,
// concatenating any run of prefix pseudo-instructions onto the line of
// the real instruction they precede.
func (l *listing) writeInstructionLine(first i286dis.Instruction, idx *uint32) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%x: ", first.Addr)

	ins := first
	for ins.IsPrefix() {
		buf.WriteString(ins.Op.String())
		buf.WriteString(" ")
		next, nextIsInsn, nextOK := l.dis.Iterate(idx)
		if !nextOK {
			fmt.Fprintln(l.out, buf.String())
			return
		}
		if !nextIsInsn {
			fmt.Fprintln(l.out, buf.String())
			l.writeRawByte(*idx - 1)
			return
		}
		ins = next
	}

	l.fmtr.FormatInsn(ins, &buf)
	fmt.Fprintln(l.out, buf.String())
}

func (l *listing) writeRawByte(offset uint32) {
	b := l.dis.Bytes[offset]
	addr := l.dis.Base + offset
	if unicode.IsPrint(rune(b)) {
		fmt.Fprintf(l.out, "%x: db 0x%02x ; '%c'\n", addr, b, b)
		return
	}
	fmt.Fprintf(l.out, "%x: db 0x%02x\n", addr, b)
}
