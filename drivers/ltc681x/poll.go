package ltc681x

// PollResult reports how a PollADC wait ended. Elapsed counts pollStep per
// SDO byte read and is only a rough duration.
type PollResult struct {
	Elapsed   uint32
	Completed bool
}

func (r PollResult) TimedOut() bool { return !r.Completed }

// PLADC issues the poll command and returns the first SDO byte. Zero means a
// conversion is still running.
func (d *Device) PLADC() (byte, error) {
	d.frame(split(cmdPLADC))
	d.csLow()
	defer d.csHigh()
	if err := d.spi.Tx(d.cmd[:], nil); err != nil {
		return 0, err
	}
	return d.spi.Transfer(0xFF)
}

// PollADC holds CS low after PLADC and reads SDO until it goes non-zero or
// the configured poll limit is reached.
func (d *Device) PollADC() (PollResult, error) {
	var res PollResult
	d.frame(split(cmdPLADC))
	d.csLow()
	defer d.csHigh()
	if err := d.spi.Tx(d.cmd[:], nil); err != nil {
		return res, err
	}
	for res.Elapsed < d.pollLimit {
		b, err := d.spi.Transfer(0xFF)
		if err != nil {
			return res, err
		}
		if b != 0 {
			res.Completed = true
			return res, nil
		}
		res.Elapsed += pollStep
	}
	return res, nil
}
