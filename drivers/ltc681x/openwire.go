package ltc681x

import (
	"golang.org/x/exp/slices"

	"bmscode-go/x/mathx"
)

// Open-wire detection compares cell readings taken with the ADOW pull-up and
// pull-down current sources. A disconnected input sinks the pull-down reading
// so the difference exceeds 400 mV; a disconnected C0 or top wire reads zero
// under pull-up.

// owSample runs passes ADOW conversions of one polarity and returns a copy of
// the resulting cell codes per logical IC.
func (d *Device) owSample(pup Pull, passes int) ([][18]uint16, error) {
	for k := 0; k < passes; k++ {
		if err := d.WakeupIdle(); err != nil {
			return nil, err
		}
		if err := d.ADOW(Mode26Hz, pup, CellAll, false); err != nil {
			return nil, err
		}
		if _, err := d.PollADC(); err != nil {
			return nil, err
		}
	}
	if err := d.WakeupIdle(); err != nil {
		return nil, err
	}
	if err := advisory(d.ReadCells(0)); err != nil {
		return nil, err
	}
	out := make([][18]uint16, len(d.ICs))
	for i := range d.ICs {
		out[i] = d.ICs[i].Cells.Codes
	}
	return out, nil
}

func (d *Device) owPair(passes int) (pu, pd [][18]uint16, err error) {
	d.WakeupSleep()
	if err = d.ClearCells(); err != nil {
		return nil, nil, err
	}
	if pu, err = d.owSample(PullUp, passes); err != nil {
		return nil, nil, err
	}
	if pd, err = d.owSample(PullDown, passes); err != nil {
		return nil, nil, err
	}
	return pu, pd, nil
}

// RunOpenWireSingle diagnoses open cell wires with three conversions per
// polarity. IC.OpenWires lists every open wire found; IC.OpenWire holds the
// last one (C0 and the top wire are checked last) or NoOpenWire.
func (d *Device) RunOpenWireSingle() error {
	pu, pd, err := d.owPair(openWireSinglePasses)
	if err != nil {
		return err
	}
	for i := range d.ICs {
		ic := &d.ICs[i]
		n := ic.Limits.CellChannels
		var opens []uint8
		for c := 0; c < n; c++ {
			if mathx.SubSat(pu[i][c], pd[i][c]) > openWireThreshold {
				opens = append(opens, uint8(c+1))
			}
		}
		if pu[i][0] == 0 {
			opens = append(opens, 0)
		}
		if pu[i][n-1] == 0 {
			opens = append(opens, uint8(n))
		}
		ic.setOpenWires(opens, false)
	}
	return nil
}

// RunOpenWireMulti diagnoses several adjacent open wires with five
// conversions per polarity. A run of zero pull-up codes marks every cell of
// the run except the first as open as well.
func (d *Device) RunOpenWireMulti() error {
	pu, pd, err := d.owPair(openWireMultiPasses)
	if err != nil {
		return err
	}
	for i := range d.ICs {
		ic := &d.ICs[i]
		n := ic.Limits.CellChannels
		var opens []uint8
		for c := 0; c < n; c++ {
			if mathx.SubSat(pu[i][c], pd[i][c]) > openWireThreshold {
				opens = append(opens, uint8(c+1))
			}
		}
		for c := 1; c < n; c++ {
			if pu[i][c] == 0 && pu[i][c-1] == 0 {
				opens = append(opens, uint8(c+1))
			}
		}
		if pu[i][0] == 0 {
			opens = append(opens, 0)
		}
		if pu[i][n-1] == 0 {
			opens = append(opens, uint8(n))
		}
		ic.setOpenWires(opens, true)
	}
	return nil
}

// setOpenWires stores the diagnosis. sorted selects ascending, de-duplicated
// order; otherwise detection order is kept and OpenWire is the last found.
func (ic *IC) setOpenWires(opens []uint8, sorted bool) {
	if sorted {
		slices.Sort(opens)
		opens = slices.Compact(opens)
	}
	ic.OpenWires = opens
	ic.OpenWire = NoOpenWire
	if len(opens) > 0 {
		ic.OpenWire = uint16(opens[len(opens)-1])
	}
}

// auxGPIO maps an aux code index to its GPIO number. GPIO5 and VREF2 are
// not diagnosable.
func auxGPIO(idx int) (uint8, bool) {
	switch {
	case idx < 4:
		return uint8(idx + 1), true
	case idx < 6:
		return 0, false
	default:
		return uint8(idx), true
	}
}

// RunGPIOOpenWire diagnoses open GPIO inputs with AXOW pull-up/pull-down
// conversions. Reported values are GPIO numbers.
func (d *Device) RunGPIOOpenWire() error {
	thr := d.variant.gpioOpenWireThreshold()
	d.WakeupSleep()
	if err := d.ClearAux(); err != nil {
		return err
	}
	sample := func(pup Pull) ([][9]uint16, error) {
		for k := 0; k < gpioOpenWirePasses; k++ {
			if err := d.WakeupIdle(); err != nil {
				return nil, err
			}
			if err := d.AXOW(Mode7kHz, pup); err != nil {
				return nil, err
			}
			if _, err := d.PollADC(); err != nil {
				return nil, err
			}
		}
		if err := d.WakeupIdle(); err != nil {
			return nil, err
		}
		if err := advisory(d.ReadAux(0)); err != nil {
			return nil, err
		}
		out := make([][9]uint16, len(d.ICs))
		for i := range d.ICs {
			out[i] = d.ICs[i].Aux.Codes
		}
		return out, nil
	}
	pu, err := sample(PullUp)
	if err != nil {
		return err
	}
	pd, err := sample(PullDown)
	if err != nil {
		return err
	}
	for i := range d.ICs {
		ic := &d.ICs[i]
		var opens []uint8
		for c := 0; c < ic.Limits.AuxChannels && c < len(ic.Aux.Codes); c++ {
			g, ok := auxGPIO(c)
			if !ok {
				continue
			}
			if mathx.SubSat(pu[i][c], pd[i][c]) > thr {
				opens = append(opens, g)
			}
		}
		ic.setOpenWires(opens, false)
	}
	return nil
}
