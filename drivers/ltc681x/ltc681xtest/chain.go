// Package ltc681xtest provides a simulated LTC681x daisy chain that satisfies
// drivers.SPI, for exercising the driver and its users without hardware.
package ltc681xtest

import "bmscode-go/drivers/ltc681x"

// IC is one simulated monitor. Register groups hold data bytes only; the
// simulator adds PECs on the way out and checks them on the way in.
type IC struct {
	CFGA, CFGB, COMM, PWM, SCTRL, PSB, SID [6]byte

	Cells [18]uint16
	Aux   [12]uint16
	StatA [6]byte
	StatB [6]byte

	// Values returned by the next conversion of each kind.
	CellInputs  [18]uint16
	AuxInputs   [12]uint16
	StatInputs  [4]uint16
	PullUpCells [18]uint16
	PullDnCells [18]uint16
	PullUpAux   [12]uint16
	PullDnAux   [12]uint16
	// RedundantAux/RedundantStat replace inputs for ADAXD/ADSTATD when set.
	RedundantAux  *[12]uint16
	RedundantStat *[4]uint16
	// OverlapCells replaces CellInputs for ADOL when set.
	OverlapCells *[18]uint16

	Muted bool
}

// Chain simulates n ICs; ICs[0] is the one wired to the host.
type Chain struct {
	ICs []IC

	// BusyPolls is how many zero bytes SDO returns after PLADC before the
	// conversion reports done. Negative never completes.
	BusyPolls int
	// Corrupt flips a data bit in the groups returned by these shift positions.
	Corrupt map[int]bool

	// Frames holds the MOSI bytes of every completed CS-low transaction.
	Frames [][]byte
	// Commands holds every decoded command word in order.
	Commands []uint16
	// BadCommandPEC counts commands whose PEC did not match.
	BadCommandPEC int
	// BadDataPEC counts written groups whose PEC did not match.
	BadDataPEC int
	// CSHighOnTx counts bytes clocked while CS was high.
	CSHighOnTx int

	selected bool
	cur      []byte
	out      []byte
	busyLeft int
	polling  bool
}

func New(n int) *Chain {
	return &Chain{ICs: make([]IC, n)}
}

// Select is the chip-select output; wire it as the driver's PinOutput.
func (c *Chain) Select(level bool) {
	if !level {
		if !c.selected {
			c.selected = true
			c.cur = c.cur[:0]
			c.out = nil
			c.polling = false
		}
		return
	}
	if c.selected {
		c.selected = false
		frame := append([]byte(nil), c.cur...)
		c.Frames = append(c.Frames, frame)
		c.finish(frame)
	}
}

// Tx implements drivers.SPI.
func (c *Chain) Tx(w, r []byte) error {
	for i, b := range w {
		v := c.clock(b)
		if r != nil && i < len(r) {
			r[i] = v
		}
	}
	return nil
}

// Transfer implements drivers.SPI.
func (c *Chain) Transfer(b byte) (byte, error) { return c.clock(b), nil }

func (c *Chain) clock(b byte) byte {
	if !c.selected {
		c.CSHighOnTx++
		return 0xFF
	}
	c.cur = append(c.cur, b)
	i := len(c.cur) - 1
	switch {
	case i < 3:
		return 0xFF
	case i == 3:
		c.decode()
		return 0xFF
	}
	if c.polling {
		if c.BusyPolls < 0 {
			return 0
		}
		if c.busyLeft > 0 {
			c.busyLeft--
			return 0
		}
		return 0xFF
	}
	if k := i - 4; k < len(c.out) {
		return c.out[k]
	}
	return 0xFF
}

func (c *Chain) decode() {
	hdr := c.cur[:4]
	pec := ltc681x.PEC15(hdr[:2])
	if hdr[2] != byte(pec>>8) || hdr[3] != byte(pec) {
		c.BadCommandPEC++
		return
	}
	cmd := uint16(hdr[0])<<8 | uint16(hdr[1])
	c.Commands = append(c.Commands, cmd)
	if cmd == 0x0714 {
		c.polling = true
		return
	}
	if groups, ok := c.readGroups(cmd); ok {
		c.out = make([]byte, 0, 8*len(c.ICs))
		for pos, g := range groups {
			p := ltc681x.PEC15(g[:])
			if c.Corrupt[pos] {
				g[0] ^= 0x01
			}
			c.out = append(c.out, g[:]...)
			c.out = append(c.out, byte(p>>8), byte(p))
		}
		return
	}
	c.execute(cmd)
}

// finish applies write commands once the whole frame has been clocked in.
func (c *Chain) finish(frame []byte) {
	if len(frame) < 4 {
		return
	}
	cmd := uint16(frame[0])<<8 | uint16(frame[1])
	dst := c.writeTarget(cmd)
	if dst == nil {
		return
	}
	n := len(c.ICs)
	data := frame[4:]
	for k := 0; k < n && 8*k+8 <= len(data); k++ {
		g := data[8*k : 8*k+8]
		p := ltc681x.PEC15(g[:6])
		if g[6] != byte(p>>8) || g[7] != byte(p) {
			c.BadDataPEC++
			continue
		}
		// The first group shifted in ends up in the farthest IC.
		copy(dst(&c.ICs[n-1-k])[:], g[:6])
	}
}

func (c *Chain) writeTarget(cmd uint16) func(*IC) *[6]byte {
	switch cmd {
	case 0x0001:
		return func(ic *IC) *[6]byte { return &ic.CFGA }
	case 0x0024:
		return func(ic *IC) *[6]byte { return &ic.CFGB }
	case 0x0721:
		return func(ic *IC) *[6]byte { return &ic.COMM }
	case 0x0020:
		return func(ic *IC) *[6]byte { return &ic.PWM }
	case 0x0014:
		return func(ic *IC) *[6]byte { return &ic.SCTRL }
	case 0x001C:
		return func(ic *IC) *[6]byte { return &ic.PSB }
	}
	return nil
}

func codes(v []uint16) (g [6]byte) {
	for k := 0; k < 3 && k < len(v); k++ {
		g[2*k] = byte(v[k])
		g[2*k+1] = byte(v[k] >> 8)
	}
	return g
}

func (c *Chain) readGroups(cmd uint16) ([][6]byte, bool) {
	var sel func(ic *IC) [6]byte
	switch cmd {
	case 0x0002:
		sel = func(ic *IC) [6]byte { return ic.CFGA }
	case 0x0026:
		sel = func(ic *IC) [6]byte { return ic.CFGB }
	case 0x0722:
		sel = func(ic *IC) [6]byte { return ic.COMM }
	case 0x0022:
		sel = func(ic *IC) [6]byte { return ic.PWM }
	case 0x0016:
		sel = func(ic *IC) [6]byte { return ic.SCTRL }
	case 0x001E:
		sel = func(ic *IC) [6]byte { return ic.PSB }
	case 0x002C:
		sel = func(ic *IC) [6]byte { return ic.SID }
	case 0x0010:
		sel = func(ic *IC) [6]byte { return ic.StatA }
	case 0x0012:
		sel = func(ic *IC) [6]byte { return ic.StatB }
	default:
		if g, ok := cellGroup(cmd); ok {
			sel = func(ic *IC) [6]byte { return codes(ic.Cells[3*g:]) }
		} else if g, ok := auxGroup(cmd); ok {
			sel = func(ic *IC) [6]byte { return codes(ic.Aux[3*g:]) }
		} else {
			return nil, false
		}
	}
	out := make([][6]byte, len(c.ICs))
	for pos := range c.ICs {
		out[pos] = sel(&c.ICs[pos])
	}
	return out, true
}

func cellGroup(cmd uint16) (int, bool) {
	for g, v := range []uint16{0x04, 0x06, 0x08, 0x0A, 0x09, 0x0B} {
		if cmd == v {
			return g, true
		}
	}
	return 0, false
}

func auxGroup(cmd uint16) (int, bool) {
	for g, v := range []uint16{0x0C, 0x0E, 0x0D, 0x0F} {
		if cmd == v {
			return g, true
		}
	}
	return 0, false
}

func fill16(dst []uint16, v uint16) {
	for i := range dst {
		dst[i] = v
	}
}

func setStat(ic *IC, v [4]uint16) {
	ic.StatA = codes(v[:3])
	ic.StatB[0], ic.StatB[1] = byte(v[3]), byte(v[3]>>8)
}

func (c *Chain) execute(cmd uint16) {
	switch cmd {
	case 0x0711:
		for i := range c.ICs {
			fill16(c.ICs[i].Cells[:], 0xFFFF)
		}
		return
	case 0x0712:
		for i := range c.ICs {
			fill16(c.ICs[i].Aux[:], 0xFFFF)
		}
		return
	case 0x0713:
		for i := range c.ICs {
			c.ICs[i].StatA = [6]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
			c.ICs[i].StatB = [6]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
		}
		return
	case 0x0028:
		for i := range c.ICs {
			c.ICs[i].Muted = true
		}
		return
	case 0x0029:
		for i := range c.ICs {
			c.ICs[i].Muted = false
		}
		return
	}

	cmd11 := cmd & 0x07FF
	md := ltc681x.Mode((cmd11 >> 7) & 0x03)
	base := cmd11 &^ 0x0180
	st := ltc681x.SelfTest((base >> 5) & 0x03)
	switch {
	case base&^0x10 == 0x0467, base&^0x10 == 0x046F: // ADCVSC, ADCVAX
		for i := range c.ICs {
			c.ICs[i].Cells = c.ICs[i].CellInputs
		}
	case base&^0x17 == 0x0260: // ADCV
		for i := range c.ICs {
			c.ICs[i].Cells = c.ICs[i].CellInputs
		}
	case base&^0x57 == 0x0228: // ADOW
		pup := base&0x40 != 0
		for i := range c.ICs {
			if pup {
				c.ICs[i].Cells = c.ICs[i].PullUpCells
			} else {
				c.ICs[i].Cells = c.ICs[i].PullDnCells
			}
		}
	case base&^0x60 == 0x0207: // CVST
		for i := range c.ICs {
			ic := &c.ICs[i]
			fill16(ic.Cells[:], ltc681x.SelfTestPattern(md, st, ic.CFGA[0]&0x01 != 0))
		}
	case base&^0x10 == 0x0201: // ADOL
		for i := range c.ICs {
			ic := &c.ICs[i]
			if ic.OverlapCells != nil {
				ic.Cells = *ic.OverlapCells
			} else {
				ic.Cells = ic.CellInputs
			}
		}
	case base&^0x40 == 0x0410: // AXOW
		pup := base&0x40 != 0
		for i := range c.ICs {
			if pup {
				c.ICs[i].Aux = c.ICs[i].PullUpAux
			} else {
				c.ICs[i].Aux = c.ICs[i].PullDnAux
			}
		}
	case base&^0x60 == 0x0407: // AXST
		for i := range c.ICs {
			ic := &c.ICs[i]
			fill16(ic.Aux[:], ltc681x.SelfTestPattern(md, st, ic.CFGA[0]&0x01 != 0))
		}
	case base&^0x60 == 0x040F: // STATST
		for i := range c.ICs {
			ic := &c.ICs[i]
			p := ltc681x.SelfTestPattern(md, st, ic.CFGA[0]&0x01 != 0)
			setStat(ic, [4]uint16{p, p, p, p})
		}
	case base&^0x07 == 0x0460: // ADAX
		for i := range c.ICs {
			c.ICs[i].Aux = c.ICs[i].AuxInputs
		}
	case base&^0x07 == 0x0400: // ADAXD
		for i := range c.ICs {
			ic := &c.ICs[i]
			if ic.RedundantAux != nil {
				ic.Aux = *ic.RedundantAux
			} else {
				ic.Aux = ic.AuxInputs
			}
		}
	case base&^0x07 == 0x0468: // ADSTAT
		for i := range c.ICs {
			setStat(&c.ICs[i], c.ICs[i].StatInputs)
		}
	case base&^0x07 == 0x0408: // ADSTATD
		for i := range c.ICs {
			ic := &c.ICs[i]
			if ic.RedundantStat != nil {
				setStat(ic, *ic.RedundantStat)
			} else {
				setStat(ic, ic.StatInputs)
			}
		}
	}
	c.busyLeft = c.BusyPolls
}

// Reset forgets recorded traffic but keeps register contents.
func (c *Chain) Reset() {
	c.Frames = nil
	c.Commands = nil
	c.BadCommandPEC = 0
	c.BadDataPEC = 0
	c.CSHighOnTx = 0
}

// CountCommand returns how often cmd was received.
func (c *Chain) CountCommand(cmd [2]byte) int {
	want := uint16(cmd[0])<<8 | uint16(cmd[1])
	n := 0
	for _, v := range c.Commands {
		if v == want {
			n++
		}
	}
	return n
}
