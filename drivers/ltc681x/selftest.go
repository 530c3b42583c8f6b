package ltc681x

import (
	"time"

	"bmscode-go/x/mathx"
)

// SelfTestPattern is the code every channel must return after a digital
// self-test conversion. Only the 27 kHz/14 kHz mode depends on ADCOPT.
func SelfTestPattern(md Mode, st SelfTest, adcopt bool) uint16 {
	if md == Mode27kHz {
		switch {
		case !adcopt && st == SelfTest1:
			return 0x9565
		case !adcopt:
			return 0x6A9A
		case st == SelfTest1:
			return 0x9553
		default:
			return 0x6AAC
		}
	}
	if st == SelfTest1 {
		return 0x9555
	}
	return 0x6AAA
}

// advisory drops PEC-only errors; diagnostics judge the decoded codes and the
// per-group PEC flags themselves.
func advisory(err error) error {
	if err != nil && IsPEC(err) {
		return nil
	}
	return err
}

// convert issues a conversion command, waits for it and wakes the chain for
// the readback.
func (d *Device) convert(cmd [2]byte) error {
	if err := d.Command(cmd); err != nil {
		return err
	}
	if _, err := d.PollADC(); err != nil {
		return err
	}
	return d.WakeupIdle()
}

// RunCellADCSelfTest runs both self-test patterns on the selected bank and
// returns the number of channels, over all ICs and both passes, that did not
// read back the expected pattern.
func (d *Device) RunCellADCSelfTest(kind RegKind, md Mode, adcopt bool) (int, error) {
	var fails int
	for st := SelfTest1; st <= SelfTest2; st++ {
		want := SelfTestPattern(md, st, adcopt)
		if err := d.WakeupIdle(); err != nil {
			return fails, err
		}
		switch kind {
		case RegCell:
			if err := d.ClearCells(); err != nil {
				return fails, err
			}
			if err := d.convert(EncodeCVST(md, st)); err != nil {
				return fails, err
			}
			if err := advisory(d.ReadCells(0)); err != nil {
				return fails, err
			}
			for i := range d.ICs {
				ic := &d.ICs[i]
				for c := 0; c < ic.Limits.CellChannels; c++ {
					if ic.Cells.Codes[c] != want {
						fails++
					}
				}
			}
		case RegAux:
			if err := d.ClearAux(); err != nil {
				return fails, err
			}
			if err := d.convert(EncodeAXST(md, st)); err != nil {
				return fails, err
			}
			d.sleep(auxSettleMs * time.Millisecond)
			if err := advisory(d.ReadAux(0)); err != nil {
				return fails, err
			}
			for i := range d.ICs {
				ic := &d.ICs[i]
				for c := 0; c < ic.Limits.AuxChannels && c < len(ic.Aux.Codes); c++ {
					if ic.Aux.Codes[c] != want {
						fails++
					}
				}
			}
		case RegStat:
			if err := d.ClearStatus(); err != nil {
				return fails, err
			}
			if err := d.convert(EncodeSTATST(md, st)); err != nil {
				return fails, err
			}
			if err := advisory(d.ReadStatus(0)); err != nil {
				return fails, err
			}
			for i := range d.ICs {
				ic := &d.ICs[i]
				for c := 0; c < ic.Limits.StatChannels; c++ {
					if ic.Stat.Codes[c] != want {
						fails++
					}
				}
			}
		default:
			return 0, ErrInvalidRegister
		}
	}
	return fails, nil
}

// RunRedundancySelfTest converts the aux or status bank with digital
// redundancy twice and counts channels reporting a redundancy fault.
func (d *Device) RunRedundancySelfTest(md Mode, kind RegKind) (int, error) {
	var fails int
	for pass := 0; pass < 2; pass++ {
		if err := d.WakeupIdle(); err != nil {
			return fails, err
		}
		switch kind {
		case RegAux:
			if err := d.ClearAux(); err != nil {
				return fails, err
			}
			if err := d.convert(EncodeADAXD(md, AuxAll)); err != nil {
				return fails, err
			}
			if err := advisory(d.ReadAux(0)); err != nil {
				return fails, err
			}
			for i := range d.ICs {
				ic := &d.ICs[i]
				for c := 0; c < ic.Limits.AuxChannels && c < len(ic.Aux.Codes); c++ {
					if ic.Aux.Codes[c] >= redundancyFault {
						fails++
					}
				}
			}
		case RegStat:
			if err := d.ClearStatus(); err != nil {
				return fails, err
			}
			if err := d.convert(EncodeADSTATD(md, StatAll)); err != nil {
				return fails, err
			}
			if err := advisory(d.ReadStatus(0)); err != nil {
				return fails, err
			}
			for i := range d.ICs {
				ic := &d.ICs[i]
				for c := 0; c < ic.Limits.StatChannels; c++ {
					if ic.Stat.Codes[c] >= redundancyFault {
						fails++
					}
				}
			}
		default:
			return 0, ErrInvalidRegister
		}
	}
	return fails, nil
}

// RunOverlapTest converts the overlapping cells on both ADCs and returns a
// mask with bit i set when IC i's two readings disagree by more than 2 mV.
func (d *Device) RunOverlapTest() (uint32, error) {
	if err := d.WakeupIdle(); err != nil {
		return 0, err
	}
	if err := d.convert(EncodeADOL(Mode7kHz, false)); err != nil {
		return 0, err
	}
	if err := advisory(d.ReadCells(0)); err != nil {
		return 0, err
	}
	pairs := d.variant.overlapPairs()
	var mask uint32
	for i := range d.ICs {
		ic := &d.ICs[i]
		ic.OverlapFail = false
		for _, p := range pairs {
			if mathx.AbsDiff(ic.Cells.Codes[p[0]], ic.Cells.Codes[p[1]]) > overlapLimit {
				ic.OverlapFail = true
			}
		}
		if ic.OverlapFail {
			mask |= 1 << uint(i)
		}
	}
	return mask, nil
}
