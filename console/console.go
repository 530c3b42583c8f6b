// Package console is a line-oriented command interpreter for bench work on
// an LTC681x chain: wake the chain, stage configuration, run conversions and
// diagnostics, and print decoded results.
package console

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/google/shlex"

	"bmscode-go/drivers/ltc681x"
	"bmscode-go/errcode"
	"bmscode-go/x/conv"
)

type Console struct {
	dev  *ltc681x.Device
	out  io.Writer
	mode ltc681x.Mode
	line []byte
	cmds map[string]command
}

type command struct {
	help string
	run  func(c *Console, args []string) error
}

func New(dev *ltc681x.Device, out io.Writer) *Console {
	c := &Console{dev: dev, out: out, mode: ltc681x.Mode7kHz}
	c.cmds = map[string]command{
		"help":       {"list commands", (*Console).cmdHelp},
		"wake":       {"wake [sleep|idle]", (*Console).cmdWake},
		"mode":       {"mode <422|27k|7k|26>: ADC mode for later conversions", (*Console).cmdMode},
		"cfg":        {"cfg init|write|read|show|refon|adcopt|uv|ov|dcto ...", (*Console).cmdConfig},
		"discharge":  {"discharge <cell>...|clear", (*Console).cmdDischarge},
		"convert":    {"convert [cells|aux|stat]: start, poll and print", (*Console).cmdConvert},
		"cells":      {"cells: read and print cell codes", (*Console).cmdCells},
		"aux":        {"aux: read and print aux codes", (*Console).cmdAux},
		"stat":       {"stat: read and print status", (*Console).cmdStat},
		"poll":       {"poll: wait for the running conversion", (*Console).cmdPoll},
		"selftest":   {"selftest cell|aux|stat [adcopt]", (*Console).cmdSelfTest},
		"redundancy": {"redundancy aux|stat", (*Console).cmdRedundancy},
		"overlap":    {"overlap: ADOL cell overlap check", (*Console).cmdOverlap},
		"openwire":   {"openwire single|multi|gpio", (*Console).cmdOpenWire},
		"diag":       {"diag: mux self-check (DIAGN)", (*Console).cmdDiag},
		"mute":       {"mute: suspend discharge", (*Console).cmdMute},
		"unmute":     {"unmute: resume discharge", (*Console).cmdUnmute},
		"sid":        {"sid: read serial IDs", (*Console).cmdSID},
		"pec":        {"pec [reset]: PEC error counters", (*Console).cmdPEC},
	}
	return c
}

// Run executes lines from r until EOF or ctx is cancelled. Command errors are
// printed and do not stop the loop.
func (c *Console) Run(ctx context.Context, r io.Reader) error {
	sc := bufio.NewScanner(r)
	c.prompt()
	for sc.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := c.Exec(sc.Text()); err != nil {
			c.printf("error ", string(errcode.Of(err)), ": ", err.Error())
		}
		c.prompt()
	}
	return sc.Err()
}

// Exec runs one command line.
func (c *Console) Exec(line string) error {
	args, err := shlex.Split(line)
	if err != nil {
		return &errcode.E{C: errcode.InvalidParams, Op: "parse", Msg: err.Error()}
	}
	if len(args) == 0 || strings.HasPrefix(args[0], "#") {
		return nil
	}
	cmd, ok := c.cmds[strings.ToLower(args[0])]
	if !ok {
		return &errcode.E{C: errcode.UnknownCommand, Op: args[0]}
	}
	return cmd.run(c, args[1:])
}

func (c *Console) prompt() { _, _ = io.WriteString(c.out, "> ") }

// printf writes the concatenated parts and a newline.
func (c *Console) printf(parts ...string) {
	c.line = c.line[:0]
	for _, p := range parts {
		c.line = append(c.line, p...)
	}
	c.line = append(c.line, '\n')
	_, _ = c.out.Write(c.line)
}

func (c *Console) writeLine(b []byte) {
	_, _ = c.out.Write(append(b, '\n'))
}

func badArgs(op, msg string) error {
	return &errcode.E{C: errcode.InvalidParams, Op: op, Msg: msg}
}

func parseUint(op, s string, bits int) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, bits)
	if err != nil {
		return 0, badArgs(op, "bad number "+strconv.Quote(s))
	}
	return v, nil
}

func parseOnOff(op string, args []string) (bool, error) {
	if len(args) != 1 {
		return false, badArgs(op, "want on|off")
	}
	switch strings.ToLower(args[0]) {
	case "on", "1", "true":
		return true, nil
	case "off", "0", "false":
		return false, nil
	}
	return false, badArgs(op, "want on|off")
}

// ParseMode accepts the filter names used by the console and host config.
func ParseMode(s string) (ltc681x.Mode, bool) {
	switch strings.ToLower(s) {
	case "422", "422hz", "1k":
		return ltc681x.Mode422Hz, true
	case "27k", "27khz", "14k":
		return ltc681x.Mode27kHz, true
	case "7k", "7khz", "3k", "normal":
		return ltc681x.Mode7kHz, true
	case "26", "26hz", "2k", "filtered":
		return ltc681x.Mode26Hz, true
	}
	return 0, false
}

func parseKind(op string, args []string) (ltc681x.RegKind, error) {
	if len(args) < 1 {
		return 0, badArgs(op, "want cell|aux|stat")
	}
	switch strings.ToLower(args[0]) {
	case "cell", "cells":
		return ltc681x.RegCell, nil
	case "aux":
		return ltc681x.RegAux, nil
	case "stat", "status":
		return ltc681x.RegStat, nil
	}
	return 0, badArgs(op, "want cell|aux|stat")
}

// advisory prints PEC mismatches and keeps going; the data is still shown.
func (c *Console) advisory(op string, err error) error {
	var pe *ltc681x.PECError
	if err == nil {
		return nil
	}
	if ltc681x.IsPEC(err) {
		if e, ok := err.(*ltc681x.PECError); ok {
			pe = e
		}
		b := append(c.line[:0], op...)
		b = append(b, ": PEC mismatch on ic"...)
		for i := 0; i < c.dev.Len(); i++ {
			if pe == nil || pe.Failed(i) {
				b = append(b, ' ')
				b = conv.AppendInt(b, int64(i+1))
			}
		}
		c.writeLine(b)
		return nil
	}
	return err
}
