package ltc681x

// ---------------- CFGRA staging (IC.Config.TX) ----------------

func setBit(b *byte, mask byte, on bool) {
	if on {
		*b |= mask
	} else {
		*b &^= mask
	}
}

func (ic *IC) SetRefOn(on bool)  { setBit(&ic.Config.TX[0], cfgREFON, on) }
func (ic *IC) SetADCOpt(on bool) { setBit(&ic.Config.TX[0], cfgADCOPT, on) }
func (ic *IC) SetDTEN(on bool)   { setBit(&ic.Config.TX[0], cfgDTEN, on) }

// SetGPIO sets the GPIO1..5 pull-down-off bits; gpio[0] is GPIO1.
func (ic *IC) SetGPIO(gpio [5]bool) {
	for i, on := range gpio {
		setBit(&ic.Config.TX[0], 1<<uint(cfgGPIO1+i), on)
	}
}

// SetDischargeBits sets DCC1..DCC12; dcc[0] is DCC1.
func (ic *IC) SetDischargeBits(dcc [12]bool) {
	for i, on := range dcc {
		if i < 8 {
			setBit(&ic.Config.TX[4], 1<<uint(i), on)
		} else {
			setBit(&ic.Config.TX[5], 1<<uint(i-8), on)
		}
	}
}

// SetDischargeTimeout writes DCTO (0..15) into CFGR5[7:4].
func (ic *IC) SetDischargeTimeout(dcto uint8) {
	ic.Config.TX[5] = ic.Config.TX[5]&0x0F | (dcto&0x0F)<<4
}

// SetUV stages the undervoltage threshold, uv in 100 µV codes.
func (ic *IC) SetUV(uv uint16) {
	tmp := uv/16 - 1
	if uv < 16 {
		tmp = 0
	}
	ic.Config.TX[1] = byte(tmp)
	ic.Config.TX[2] = ic.Config.TX[2]&0xF0 | byte(tmp>>8)&0x0F
}

// SetOV stages the overvoltage threshold, ov in 100 µV codes.
func (ic *IC) SetOV(ov uint16) {
	tmp := ov / 16
	ic.Config.TX[3] = byte(tmp >> 4)
	ic.Config.TX[2] = ic.Config.TX[2]&0x0F | byte(tmp&0x0F)<<4
}

// UV and OV decode the staged thresholds back to 100 µV codes.
func (ic *IC) UV() uint16 {
	return ((uint16(ic.Config.TX[2]&0x0F)<<8 | uint16(ic.Config.TX[1])) + 1) * 16
}

func (ic *IC) OV() uint16 {
	return (uint16(ic.Config.TX[3])<<4 | uint16(ic.Config.TX[2]>>4)) * 16
}

// ---------------- CFGRB staging (IC.ConfigB.TX, LTC6812/13) ----------------

func (ic *IC) SetFDRF(on bool)  { setBit(&ic.ConfigB.TX[1], cfgbFDRF, on) }
func (ic *IC) SetDTMEN(on bool) { setBit(&ic.ConfigB.TX[1], cfgbDTMEN, on) }

// SetPathSelect writes PS[1:0] (redundancy path select).
func (ic *IC) SetPathSelect(ps uint8) {
	ic.ConfigB.TX[1] = ic.ConfigB.TX[1]&^(0x03<<cfgbPSPos) | (ps&0x03)<<cfgbPSPos
}

// SetGPIOB sets the GPIO6..9 pull-down-off bits; gpio[0] is GPIO6.
func (ic *IC) SetGPIOB(gpio [4]bool) {
	for i, on := range gpio {
		setBit(&ic.ConfigB.TX[0], 1<<uint(i), on)
	}
}

// SetDischargeB sets DCC0 and DCC13..DCC18; dcc[0] is DCC0, dcc[1] DCC13.
func (ic *IC) SetDischargeB(dcc [7]bool) {
	setBit(&ic.ConfigB.TX[1], cfgbDCC0, dcc[0])
	for i := 1; i <= 4; i++ {
		setBit(&ic.ConfigB.TX[0], 1<<uint(i+3), dcc[i])
	}
	for i := 5; i <= 6; i++ {
		setBit(&ic.ConfigB.TX[1], 1<<uint(i-5), dcc[i])
	}
}

// ---------------- Chain-wide helpers ----------------

// InitConfig stages the power-on defaults for every IC: REFON set, GPIO
// pull-downs off, ADCOPT clear, no discharge.
func (d *Device) InitConfig() {
	for i := range d.ICs {
		ic := &d.ICs[i]
		ic.Config.TX = [6]byte{}
		ic.SetRefOn(true)
		ic.SetADCOpt(false)
		ic.SetGPIO([5]bool{true, true, true, true, true})
		ic.SetDischargeBits([12]bool{})
		if d.variant.HasConfigB() {
			ic.ConfigB.TX = [6]byte{}
			ic.SetGPIOB([4]bool{true, true, true, true})
		}
	}
}

// SetDischarge stages the discharge bit of cell (1-based; 0 is the DCC0 pin
// of the LTC6810/12/13) on every IC.
func (d *Device) SetDischarge(cell int) {
	for i := range d.ICs {
		ic := &d.ICs[i]
		if d.variant == LTC6810 {
			switch {
			case cell == 0:
				ic.Config.TX[4] |= cfg6810DCC0
			case cell < 7:
				ic.Config.TX[4] |= 1 << uint(cell-1)
			}
			continue
		}
		switch {
		case cell == 0:
			ic.ConfigB.TX[1] |= cfgbDCC0
		case cell < 9:
			ic.Config.TX[4] |= 1 << uint(cell-1)
		case cell < 13:
			ic.Config.TX[5] |= 1 << uint(cell-9)
		case cell < 17:
			ic.ConfigB.TX[0] |= 1 << uint(cell-9)
		case cell < 19:
			ic.ConfigB.TX[1] |= 1 << uint(cell-17)
		}
	}
}

// ClearDischarge drops every staged discharge bit on every IC. On the
// LTC6811/12/13 CFGR5 is zeroed whole, so DCTO is cleared too. The LTC6810
// keeps CFGR4 bit 6 (MCAL) and its CFGR5.
func (d *Device) ClearDischarge() {
	for i := range d.ICs {
		ic := &d.ICs[i]
		if d.variant == LTC6810 {
			ic.Config.TX[4] &= cfg6810MCAL
			continue
		}
		ic.Config.TX[4] = 0
		ic.Config.TX[5] = 0
		if d.variant.HasConfigB() {
			ic.ConfigB.TX[0] &^= 0xF0
			ic.ConfigB.TX[1] &^= 0x07
		}
	}
}
