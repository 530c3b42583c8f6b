package ltc681x

// ---------------- Generic group transfer over IC images ----------------

// writeFrom stages TX of the selected register of every IC and writes it.
func (d *Device) writeFrom(c uint16, reg func(*IC) *Register) error {
	for pos := range d.wgrp {
		d.wgrp[pos] = reg(&d.ICs[d.chainIndex(pos)]).TX
	}
	return d.Write(split(c), d.wgrp)
}

// readInto reads a group into RX of the selected register of every IC.
func (d *Device) readInto(c uint16, reg func(*IC) *Register) (uint32, error) {
	mask, err := d.read(split(c), d.rgrp)
	if err != nil {
		return 0, err
	}
	for pos := range d.rgrp {
		r := reg(&d.ICs[d.chainIndex(pos)])
		r.RX = d.rgrp[pos]
		r.PECError = mask&(1<<uint(d.chainIndex(pos))) != 0
	}
	return mask, nil
}

func cfgA(ic *IC) *Register   { return &ic.Config }
func cfgB(ic *IC) *Register   { return &ic.ConfigB }
func comm(ic *IC) *Register   { return &ic.Comm }
func pwmA(ic *IC) *Register   { return &ic.PWM }
func pwmB(ic *IC) *Register   { return &ic.PWMB }
func sctrlA(ic *IC) *Register { return &ic.SCtrl }
func sctrlB(ic *IC) *Register { return &ic.SCtrlB }

// ---------------- Configuration ----------------

func (d *Device) WriteConfig() error  { return d.writeFrom(cmdWRCFGA, cfgA) }
func (d *Device) WriteConfigB() error { return d.writeFrom(cmdWRCFGB, cfgB) }

func (d *Device) ReadConfig() error {
	mask, err := d.readInto(cmdRDCFGA, cfgA)
	if err != nil {
		return err
	}
	d.checkPEC(RegConfig, 0, 0)
	return pecErr(mask)
}

func (d *Device) ReadConfigB() error {
	mask, err := d.readInto(cmdRDCFGB, cfgB)
	if err != nil {
		return err
	}
	d.checkPEC(RegConfigB, 0, 0)
	return pecErr(mask)
}

// ---------------- Cell / aux / status groups ----------------

// groupRange resolves reg (0 = all, else 1-based) against n groups.
func groupRange(reg, n int) (first, last int, err error) {
	if reg < 0 || reg > n {
		return 0, 0, ErrInvalidRegister
	}
	if reg == 0 {
		return 1, n, nil
	}
	return reg, reg, nil
}

// ReadCellGroup reads raw cell group reg (1-based) into groups by shift
// position, without decoding.
func (d *Device) ReadCellGroup(reg int, groups [][8]byte) error {
	if reg < 1 || reg > len(cellGroupCmds) {
		return ErrInvalidRegister
	}
	return d.Read(split(cellGroupCmds[reg-1]), groups)
}

func (d *Device) ReadAuxGroup(reg int, groups [][8]byte) error {
	if reg < 1 || reg > len(auxGroupCmds) {
		return ErrInvalidRegister
	}
	return d.Read(split(auxGroupCmds[reg-1]), groups)
}

func (d *Device) ReadStatusGroup(reg int, groups [][8]byte) error {
	if reg < 1 || reg > len(statGroupCmds) {
		return ErrInvalidRegister
	}
	return d.Read(split(statGroupCmds[reg-1]), groups)
}

// ReadCells reads cell group reg (0 = every group of the variant) and decodes
// the codes into IC.Cells.
func (d *Device) ReadCells(reg int) error {
	first, last, err := groupRange(reg, d.ICs[0].Limits.NumCellReg)
	if err != nil {
		return err
	}
	var mask uint32
	for g := first; g <= last; g++ {
		m, err := d.read(split(cellGroupCmds[g-1]), d.rgrp)
		if err != nil {
			return err
		}
		mask |= m
		for pos := range d.rgrp {
			ic := &d.ICs[d.chainIndex(pos)]
			ParseCells(g, d.rgrp[pos][:], ic.Cells.Codes[:], ic.Cells.PECError[:])
		}
	}
	d.checkPEC(RegCell, first, last)
	return pecErr(mask)
}

// ReadAux reads aux group reg (0 = every group of the variant) into IC.Aux.
func (d *Device) ReadAux(reg int) error {
	first, last, err := groupRange(reg, d.ICs[0].Limits.NumAuxReg)
	if err != nil {
		return err
	}
	var mask uint32
	for g := first; g <= last; g++ {
		m, err := d.read(split(auxGroupCmds[g-1]), d.rgrp)
		if err != nil {
			return err
		}
		mask |= m
		for pos := range d.rgrp {
			ic := &d.ICs[d.chainIndex(pos)]
			ParseCells(g, d.rgrp[pos][:], ic.Aux.Codes[:], ic.Aux.PECError[:])
		}
	}
	d.checkPEC(RegAux, first, last)
	return pecErr(mask)
}

// ReadStatus reads status group reg (0 = both A and B) into IC.Stat.
func (d *Device) ReadStatus(reg int) error {
	first, last, err := groupRange(reg, len(statGroupCmds))
	if err != nil {
		return err
	}
	var mask uint32
	for g := first; g <= last; g++ {
		m, err := d.read(split(statGroupCmds[g-1]), d.rgrp)
		if err != nil {
			return err
		}
		mask |= m
		for pos := range d.rgrp {
			ic := &d.ICs[d.chainIndex(pos)]
			parseStatus(g, d.rgrp[pos][:], &ic.Stat)
		}
	}
	d.checkPEC(RegStat, first, last)
	return pecErr(mask)
}

// checkPEC adds the PEC flags of groups first..last (1-based) of kind to the
// per-IC tallies.
func (d *Device) checkPEC(kind RegKind, first, last int) {
	for i := range d.ICs {
		ic := &d.ICs[i]
		p := &ic.PEC
		switch kind {
		case RegConfig:
			if ic.Config.PECError {
				p.CFGR++
				p.Total++
			}
		case RegConfigB:
			if ic.ConfigB.PECError {
				p.CFGRB++
				p.Total++
			}
		case RegCell:
			for g := first; g <= last; g++ {
				if ic.Cells.PECError[g-1] {
					p.Cell[g-1]++
					p.Total++
				}
			}
		case RegAux:
			for g := first; g <= last; g++ {
				if ic.Aux.PECError[g-1] {
					p.Aux[g-1]++
					p.Total++
				}
			}
		case RegStat:
			for g := first; g <= last; g++ {
				if ic.Stat.PECError[g-1] {
					p.Stat[g-1]++
					p.Total++
				}
			}
		}
	}
}

// ---------------- Clears and diagnostics ----------------

func (d *Device) ClearCells() error  { return d.command(cmdCLRCELL) }
func (d *Device) ClearAux() error    { return d.command(cmdCLRAUX) }
func (d *Device) ClearStatus() error { return d.command(cmdCLRSTAT) }
func (d *Device) ClearSCtrl() error  { return d.command(cmdCLRSCTRL) }

// Diagnose starts the mux self-check; the result is StatusBank.MuxFail after
// the next ReadStatus(2).
func (d *Device) Diagnose() error { return d.command(cmdDIAGN) }

// Mute disables discharge on every IC without touching DCC bits.
func (d *Device) Mute() error   { return d.command(cmdMUTE) }
func (d *Device) Unmute() error { return d.command(cmdUNMUTE) }

// ---------------- COMM ----------------

func (d *Device) WriteComm() error { return d.writeFrom(cmdWRCOMM, comm) }

func (d *Device) ReadComm() error {
	mask, err := d.readInto(cmdRDCOMM, comm)
	if err != nil {
		return err
	}
	return pecErr(mask)
}

// StartComm issues STCOMM and clocks 3 bytes per transmitted COMM byte.
func (d *Device) StartComm(n int) error { return d.clocked(cmdSTCOMM, 3*n) }

// ---------------- PWM / S-control ----------------

// WritePWM writes PWM group A (reg 0) or group B (reg 1, LTC6812/13 through
// the shared PSB register).
func (d *Device) WritePWM(reg int) error {
	switch reg {
	case 0:
		return d.writeFrom(cmdWRPWM, pwmA)
	case 1:
		return d.WritePSB()
	}
	return ErrInvalidRegister
}

func (d *Device) ReadPWM(reg int) error {
	switch reg {
	case 0:
		mask, err := d.readInto(cmdRDPWM, pwmA)
		if err != nil {
			return err
		}
		return pecErr(mask)
	case 1:
		return d.ReadPSB()
	}
	return ErrInvalidRegister
}

func (d *Device) WriteSCtrl(reg int) error {
	switch reg {
	case 0:
		return d.writeFrom(cmdWRSCTRL, sctrlA)
	case 1:
		return d.WritePSB()
	}
	return ErrInvalidRegister
}

func (d *Device) ReadSCtrl(reg int) error {
	switch reg {
	case 0:
		mask, err := d.readInto(cmdRDSCTRL, sctrlA)
		if err != nil {
			return err
		}
		return pecErr(mask)
	case 1:
		return d.ReadPSB()
	}
	return ErrInvalidRegister
}

// StartSCtrl issues STSCTRL and clocks the 72 bytes the pulse train needs.
func (d *Device) StartSCtrl() error { return d.clocked(cmdSTSCTRL, 72) }

// WritePSB writes the combined PWM/S-control group B: bytes 0..2 from
// PWMB.TX and bytes 3..5 from SCtrlB.TX.
func (d *Device) WritePSB() error {
	for pos := range d.wgrp {
		ic := &d.ICs[d.chainIndex(pos)]
		g := &d.wgrp[pos]
		copy(g[0:3], ic.PWMB.TX[0:3])
		copy(g[3:6], ic.SCtrlB.TX[3:6])
	}
	return d.Write(split(cmdWRPSB), d.wgrp)
}

// ReadPSB reads the combined group B and splits it into PWMB.RX and
// SCtrlB.RX.
func (d *Device) ReadPSB() error {
	mask, err := d.read(split(cmdRDPSB), d.rgrp)
	if err != nil {
		return err
	}
	for pos := range d.rgrp {
		i := d.chainIndex(pos)
		ic := &d.ICs[i]
		bad := mask&(1<<uint(i)) != 0
		g := d.rgrp[pos]
		copy(ic.PWMB.RX[0:3], g[0:3])
		copy(ic.PWMB.RX[6:8], g[6:8])
		copy(ic.SCtrlB.RX[3:8], g[3:8])
		ic.PWMB.PECError = bad
		ic.SCtrlB.PECError = bad
	}
	return pecErr(mask)
}

// ---------------- Serial ID ----------------

// ReadSID reads the 48-bit serial ID of every IC into IC.SID.
func (d *Device) ReadSID() error {
	mask, err := d.read(split(cmdRDSID), d.rgrp)
	if err != nil {
		return err
	}
	for pos := range d.rgrp {
		copy(d.ICs[d.chainIndex(pos)].SID[:], d.rgrp[pos][:6])
	}
	return pecErr(mask)
}
