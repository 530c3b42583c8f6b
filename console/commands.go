package console

import (
	"sort"
	"strings"

	"bmscode-go/drivers/ltc681x"
	"bmscode-go/errcode"
	"bmscode-go/x/conv"
)

func (c *Console) cmdHelp(args []string) error {
	names := make([]string, 0, len(c.cmds))
	for n := range c.cmds {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		c.printf("  ", n, " - ", c.cmds[n].help)
	}
	return nil
}

func (c *Console) cmdWake(args []string) error {
	if len(args) > 0 && strings.ToLower(args[0]) == "idle" {
		return c.dev.WakeupIdle()
	}
	c.dev.WakeupSleep()
	return nil
}

func (c *Console) cmdMode(args []string) error {
	if len(args) != 1 {
		return badArgs("mode", "want 422|27k|7k|26")
	}
	md, ok := ParseMode(args[0])
	if !ok {
		return badArgs("mode", "unknown mode "+args[0])
	}
	c.mode = md
	return nil
}

func (c *Console) cmdConfig(args []string) error {
	if len(args) == 0 {
		return badArgs("cfg", "missing subcommand")
	}
	d := c.dev
	sub, rest := strings.ToLower(args[0]), args[1:]
	switch sub {
	case "init":
		d.InitConfig()
		return nil
	case "write":
		if err := d.WriteConfig(); err != nil {
			return err
		}
		if d.Variant().HasConfigB() {
			return d.WriteConfigB()
		}
		return nil
	case "read":
		if err := c.advisory("rdcfga", d.ReadConfig()); err != nil {
			return err
		}
		if d.Variant().HasConfigB() {
			if err := c.advisory("rdcfgb", d.ReadConfigB()); err != nil {
				return err
			}
		}
		c.printRegs(true)
		return nil
	case "show":
		c.printRegs(false)
		return nil
	case "refon", "adcopt":
		on, err := parseOnOff(sub, rest)
		if err != nil {
			return err
		}
		for i := range d.ICs {
			if sub == "refon" {
				d.ICs[i].SetRefOn(on)
			} else {
				d.ICs[i].SetADCOpt(on)
			}
		}
		return nil
	case "uv", "ov":
		if len(rest) != 1 {
			return badArgs(sub, "want millivolts")
		}
		mv, err := parseUint(sub, rest[0], 16)
		if err != nil {
			return err
		}
		if mv*10 > 0xFFFF {
			return badArgs(sub, "out of range")
		}
		code := uint16(mv * 10)
		for i := range d.ICs {
			if sub == "uv" {
				d.ICs[i].SetUV(code)
			} else {
				d.ICs[i].SetOV(code)
			}
		}
		return nil
	case "dcto":
		if len(rest) != 1 {
			return badArgs(sub, "want 0..15")
		}
		v, err := parseUint(sub, rest[0], 4)
		if err != nil {
			return err
		}
		for i := range d.ICs {
			d.ICs[i].SetDischargeTimeout(uint8(v))
		}
		return nil
	}
	return badArgs("cfg", "unknown subcommand "+sub)
}

func (c *Console) printRegs(rx bool) {
	for i := range c.dev.ICs {
		ic := &c.dev.ICs[i]
		b := append(c.line[:0], "ic"...)
		b = conv.AppendInt(b, int64(i+1))
		if rx {
			b = append(b, " rx cfga:"...)
			b = appendBytes(b, ic.Config.RX[:])
		} else {
			b = append(b, " tx cfga:"...)
			b = appendBytes(b, ic.Config.TX[:])
		}
		if c.dev.Variant().HasConfigB() {
			if rx {
				b = append(b, " cfgb:"...)
				b = appendBytes(b, ic.ConfigB.RX[:])
			} else {
				b = append(b, " cfgb:"...)
				b = appendBytes(b, ic.ConfigB.TX[:])
			}
		}
		c.writeLine(b)
	}
}

func appendBytes(b []byte, p []byte) []byte {
	for _, v := range p {
		b = append(b, ' ')
		b = conv.AppendHex(b, uint64(v), 2)
	}
	return b
}

func (c *Console) cmdDischarge(args []string) error {
	if len(args) == 0 {
		return badArgs("discharge", "want cell numbers or clear")
	}
	if strings.ToLower(args[0]) == "clear" {
		c.dev.ClearDischarge()
		return nil
	}
	top := c.dev.ICs[0].Limits.CellChannels
	for _, a := range args {
		v, err := parseUint("discharge", a, 8)
		if err != nil {
			return err
		}
		if int(v) > top || (v == 0 && !c.dev.Variant().HasDCC0()) {
			return badArgs("discharge", "no cell "+a)
		}
		c.dev.SetDischarge(int(v))
	}
	return nil
}

// convertAndWait starts a conversion, polls and wakes for readback.
func (c *Console) convertAndWait(start error) error {
	if start != nil {
		return start
	}
	res, err := c.dev.PollADC()
	if err != nil {
		return err
	}
	if res.TimedOut() {
		return &errcode.E{C: errcode.Timeout, Op: "pladc"}
	}
	b := append(c.line[:0], "conversion done, poll count "...)
	b = conv.AppendUint(b, uint64(res.Elapsed))
	c.writeLine(b)
	return c.dev.WakeupIdle()
}

func (c *Console) cmdConvert(args []string) error {
	what := "cells"
	if len(args) > 0 {
		what = strings.ToLower(args[0])
	}
	if err := c.dev.WakeupIdle(); err != nil {
		return err
	}
	switch what {
	case "cells", "cell":
		if err := c.convertAndWait(c.dev.ADCV(c.mode, false, ltc681x.CellAll)); err != nil {
			return err
		}
		return c.cmdCells(nil)
	case "aux":
		if err := c.convertAndWait(c.dev.ADAX(c.mode, ltc681x.AuxAll)); err != nil {
			return err
		}
		return c.cmdAux(nil)
	case "stat", "status":
		if err := c.convertAndWait(c.dev.ADSTAT(c.mode, ltc681x.StatAll)); err != nil {
			return err
		}
		return c.cmdStat(nil)
	}
	return badArgs("convert", "want cells|aux|stat")
}

func (c *Console) cmdPoll(args []string) error {
	return c.convertAndWait(nil)
}

func (c *Console) cmdCells(args []string) error {
	if err := c.advisory("rdcv", c.dev.ReadCells(0)); err != nil {
		return err
	}
	for i := range c.dev.ICs {
		ic := &c.dev.ICs[i]
		b := append(c.line[:0], "ic"...)
		b = conv.AppendInt(b, int64(i+1))
		for ch := 0; ch < ic.Limits.CellChannels; ch++ {
			b = append(b, " c"...)
			b = conv.AppendInt(b, int64(ch+1))
			b = append(b, '=')
			b = conv.AppendFixed(b, int64(ic.Cells.Codes[ch]), 4)
		}
		c.writeLine(b)
	}
	return nil
}

func (c *Console) cmdAux(args []string) error {
	if err := c.advisory("rdaux", c.dev.ReadAux(0)); err != nil {
		return err
	}
	for i := range c.dev.ICs {
		ic := &c.dev.ICs[i]
		b := append(c.line[:0], "ic"...)
		b = conv.AppendInt(b, int64(i+1))
		for k := 0; k < ic.Limits.AuxChannels && k < len(ic.Aux.Codes); k++ {
			if k == 5 {
				b = append(b, " vref2="...)
			} else {
				b = append(b, " gpio"...)
				g := k + 1
				if k > 5 {
					g = k
				}
				b = conv.AppendInt(b, int64(g))
				b = append(b, '=')
			}
			b = conv.AppendFixed(b, int64(ic.Aux.Codes[k]), 4)
		}
		c.writeLine(b)
	}
	return nil
}

func (c *Console) cmdStat(args []string) error {
	if err := c.advisory("rdstat", c.dev.ReadStatus(0)); err != nil {
		return err
	}
	v := c.dev.Variant()
	for i := range c.dev.ICs {
		s := &c.dev.ICs[i].Stat
		b := append(c.line[:0], "ic"...)
		b = conv.AppendInt(b, int64(i+1))
		b = append(b, " soc="...)
		b = conv.AppendFixed(b, int64(v.SumOfCellsMicrovolts(s.Codes[ltc681x.StatSC])/100), 4)
		b = append(b, " itmp="...)
		b = conv.AppendFixed(b, int64(ltc681x.DieTempMilliC(s.Codes[ltc681x.StatITMP])), 3)
		b = append(b, " va="...)
		b = conv.AppendFixed(b, int64(s.Codes[ltc681x.StatVA]), 4)
		b = append(b, " vd="...)
		b = conv.AppendFixed(b, int64(s.Codes[ltc681x.StatVD]), 4)
		b = append(b, " flags="...)
		b = appendBytes(b, s.Flags[:])
		if s.MuxFail {
			b = append(b, " muxfail"...)
		}
		if s.THSD {
			b = append(b, " thsd"...)
		}
		c.writeLine(b)
	}
	return nil
}

func (c *Console) cmdSelfTest(args []string) error {
	kind, err := parseKind("selftest", args)
	if err != nil {
		return err
	}
	adcopt := len(args) > 1 && strings.ToLower(args[1]) == "adcopt"
	n, err := c.dev.RunCellADCSelfTest(kind, c.mode, adcopt)
	if err != nil {
		return err
	}
	b := append(c.line[:0], "self-test errors: "...)
	b = conv.AppendInt(b, int64(n))
	c.writeLine(b)
	if n != 0 {
		return &errcode.E{C: errcode.SelfTestFailed, Op: "selftest"}
	}
	return nil
}

func (c *Console) cmdRedundancy(args []string) error {
	kind, err := parseKind("redundancy", args)
	if err != nil {
		return err
	}
	n, err := c.dev.RunRedundancySelfTest(c.mode, kind)
	if err != nil {
		return err
	}
	b := append(c.line[:0], "redundancy errors: "...)
	b = conv.AppendInt(b, int64(n))
	c.writeLine(b)
	if n != 0 {
		return &errcode.E{C: errcode.SelfTestFailed, Op: "redundancy"}
	}
	return nil
}

func (c *Console) cmdOverlap(args []string) error {
	mask, err := c.dev.RunOverlapTest()
	if err != nil {
		return err
	}
	for i := range c.dev.ICs {
		b := append(c.line[:0], "ic"...)
		b = conv.AppendInt(b, int64(i+1))
		if mask&(1<<uint(i)) != 0 {
			b = append(b, " overlap FAIL"...)
		} else {
			b = append(b, " overlap ok"...)
		}
		c.writeLine(b)
	}
	if mask != 0 {
		return &errcode.E{C: errcode.SelfTestFailed, Op: "overlap"}
	}
	return nil
}

func (c *Console) cmdOpenWire(args []string) error {
	kind := "single"
	if len(args) > 0 {
		kind = strings.ToLower(args[0])
	}
	var err error
	prefix := " C"
	switch kind {
	case "single":
		err = c.dev.RunOpenWireSingle()
	case "multi":
		err = c.dev.RunOpenWireMulti()
	case "gpio":
		err = c.dev.RunGPIOOpenWire()
		prefix = " GPIO"
	default:
		return badArgs("openwire", "want single|multi|gpio")
	}
	if err != nil {
		return err
	}
	open := false
	for i := range c.dev.ICs {
		ic := &c.dev.ICs[i]
		b := append(c.line[:0], "ic"...)
		b = conv.AppendInt(b, int64(i+1))
		if len(ic.OpenWires) == 0 {
			b = append(b, " no open wires"...)
		} else {
			open = true
			b = append(b, " open:"...)
			for _, w := range ic.OpenWires {
				b = append(b, prefix...)
				b = conv.AppendInt(b, int64(w))
			}
		}
		c.writeLine(b)
	}
	if open {
		return &errcode.E{C: errcode.OpenWire, Op: "openwire"}
	}
	return nil
}

func (c *Console) cmdDiag(args []string) error {
	if err := c.dev.Diagnose(); err != nil {
		return err
	}
	if _, err := c.dev.PollADC(); err != nil {
		return err
	}
	if err := c.dev.WakeupIdle(); err != nil {
		return err
	}
	if err := c.advisory("rdstatb", c.dev.ReadStatus(2)); err != nil {
		return err
	}
	for i := range c.dev.ICs {
		b := append(c.line[:0], "ic"...)
		b = conv.AppendInt(b, int64(i+1))
		if c.dev.ICs[i].Stat.MuxFail {
			b = append(b, " mux FAIL"...)
		} else {
			b = append(b, " mux ok"...)
		}
		c.writeLine(b)
	}
	return nil
}

func (c *Console) cmdMute(args []string) error   { return c.dev.Mute() }
func (c *Console) cmdUnmute(args []string) error { return c.dev.Unmute() }

func (c *Console) cmdSID(args []string) error {
	if err := c.advisory("rdsid", c.dev.ReadSID()); err != nil {
		return err
	}
	for i := range c.dev.ICs {
		b := append(c.line[:0], "ic"...)
		b = conv.AppendInt(b, int64(i+1))
		b = append(b, " sid:"...)
		b = appendBytes(b, c.dev.ICs[i].SID[:])
		c.writeLine(b)
	}
	return nil
}

func (c *Console) cmdPEC(args []string) error {
	if len(args) > 0 && strings.ToLower(args[0]) == "reset" {
		c.dev.ResetPECCounters()
		return nil
	}
	for i := range c.dev.ICs {
		p := &c.dev.ICs[i].PEC
		b := append(c.line[:0], "ic"...)
		b = conv.AppendInt(b, int64(i+1))
		b = append(b, " pec total="...)
		b = conv.AppendUint(b, uint64(p.Total))
		b = append(b, " cfgr="...)
		b = conv.AppendUint(b, uint64(p.CFGR))
		b = append(b, " cfgrb="...)
		b = conv.AppendUint(b, uint64(p.CFGRB))
		b = append(b, " cell="...)
		for g := 0; g < c.dev.ICs[i].Limits.NumCellReg; g++ {
			if g > 0 {
				b = append(b, ',')
			}
			b = conv.AppendUint(b, uint64(p.Cell[g]))
		}
		b = append(b, " aux="...)
		for g := 0; g < c.dev.ICs[i].Limits.NumAuxReg; g++ {
			if g > 0 {
				b = append(b, ',')
			}
			b = conv.AppendUint(b, uint64(p.Aux[g]))
		}
		b = append(b, " stat="...)
		b = conv.AppendUint(b, uint64(p.Stat[0]))
		b = append(b, ',')
		b = conv.AppendUint(b, uint64(p.Stat[1]))
		c.writeLine(b)
	}
	return nil
}
