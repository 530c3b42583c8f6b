package ltc681x

import "time"

// Chip select and raw SPI framing. CS stays low for the whole transaction.

func (d *Device) csLow()  { d.cs(false) }
func (d *Device) csHigh() { d.cs(true) }

func split(c uint16) [2]byte { return [2]byte{byte(c >> 8), byte(c)} }

func (d *Device) frame(cmd [2]byte) {
	d.cmd[0], d.cmd[1] = cmd[0], cmd[1]
	putPEC(d.cmd[:], 2)
}

// scratch returns write/read buffers of n bytes, growing them if needed.
func (d *Device) scratch(n int) (w, r []byte) {
	if cap(d.tx) < n {
		d.tx = make([]byte, n)
		d.rx = make([]byte, n)
	}
	return d.tx[:n], d.rx[:n]
}

// Command sends a 2-byte command with its PEC and no payload.
func (d *Device) Command(cmd [2]byte) error {
	d.frame(cmd)
	d.csLow()
	err := d.spi.Tx(d.cmd[:], nil)
	d.csHigh()
	return err
}

func (d *Device) command(c uint16) error { return d.Command(split(c)) }

// Write sends cmd followed by one group per IC. groups is indexed by shift
// position; position n-1 (farthest) is clocked out first so every IC latches
// its own group.
func (d *Device) Write(cmd [2]byte, groups [][6]byte) error {
	n := len(d.ICs)
	if len(groups) != n {
		return ErrChainLength
	}
	d.frame(cmd)
	w, _ := d.scratch(4 + 8*n)
	copy(w, d.cmd[:])
	i := 4
	for pos := n - 1; pos >= 0; pos-- {
		copy(w[i:], groups[pos][:])
		putPEC(w[i:], 6)
		i += 8
	}
	d.csLow()
	err := d.spi.Tx(w, nil)
	d.csHigh()
	return err
}

// Read sends cmd and clocks in one 8-byte group per IC; group k comes from
// shift position k. Every group is copied out even when some PECs fail; the
// returned *PECError then marks the failing ICs by logical index.
func (d *Device) Read(cmd [2]byte, groups [][8]byte) error {
	mask, err := d.read(cmd, groups)
	if err != nil {
		return err
	}
	return pecErr(mask)
}

func (d *Device) read(cmd [2]byte, groups [][8]byte) (uint32, error) {
	n := len(d.ICs)
	if len(groups) != n {
		return 0, ErrChainLength
	}
	d.frame(cmd)
	w, r := d.scratch(4 + 8*n)
	copy(w, d.cmd[:])
	for i := 4; i < len(w); i++ {
		w[i] = 0xFF
	}
	d.csLow()
	err := d.spi.Tx(w, r)
	d.csHigh()
	if err != nil {
		return 0, err
	}
	var mask uint32
	for pos := 0; pos < n; pos++ {
		copy(groups[pos][:], r[4+8*pos:4+8*pos+8])
		if !pecOK(groups[pos][:]) {
			mask |= 1 << uint(d.chainIndex(pos))
		}
	}
	return mask, nil
}

// clocked sends cmd and then n dummy bytes under one CS assertion (STCOMM,
// STSCTRL).
func (d *Device) clocked(c uint16, n int) error {
	d.frame(split(c))
	w, _ := d.scratch(4 + n)
	copy(w, d.cmd[:])
	for i := 4; i < len(w); i++ {
		w[i] = 0xFF
	}
	d.csLow()
	err := d.spi.Tx(w, nil)
	d.csHigh()
	return err
}

// ---------------- Wakeup ----------------

// WakeupIdle brings every isoSPI port from IDLE to READY: one dummy byte per
// IC, each under its own CS pulse.
func (d *Device) WakeupIdle() error {
	for range d.ICs {
		d.csLow()
		_, err := d.spi.Transfer(0xFF)
		d.csHigh()
		if err != nil {
			return err
		}
	}
	return nil
}

// WakeupSleep brings every core from SLEEP to STANDBY by holding CS low for
// tWAKE per IC.
func (d *Device) WakeupSleep() {
	for range d.ICs {
		d.csLow()
		d.sleep(tWakeSleepUs * time.Microsecond)
		d.csHigh()
		d.sleep(tWakeReleaseUs * time.Microsecond)
	}
}
