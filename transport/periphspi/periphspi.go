// Package periphspi adapts a periph.io SPI connection and GPIO output to the
// bus and chip-select shapes the ltc681x driver expects, so the same driver
// runs from a Linux host (spidev) or a USB FT232H bridge.
//
// The chain needs SPI mode 3 and a chip select that stays asserted across
// several transfers (PLADC polling), so ports are opened with spi.NoCS and the
// select line is driven as a plain GPIO.
package periphspi

import (
	"errors"
	"io"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3/ftdi"

	"bmscode-go/drivers/ltc681x"
)

const DefaultFreq = 1 * physic.MegaHertz

var (
	ErrNoFT232H = errors.New("periphspi: no FT232H found")
	ErrNoConn   = errors.New("periphspi: nil connection")
)

// Conn implements drivers.SPI over an spi.Conn.
type Conn struct {
	c      spi.Conn
	w1, r1 [1]byte
}

func New(c spi.Conn) (*Conn, error) {
	if c == nil {
		return nil, ErrNoConn
	}
	return &Conn{c: c}, nil
}

// Tx clocks w out and, when r is non-nil, the same number of bytes in.
func (c *Conn) Tx(w, r []byte) error {
	if len(w) == 0 && len(r) == 0 {
		return nil
	}
	return c.c.Tx(w, r)
}

func (c *Conn) Transfer(b byte) (byte, error) {
	c.w1[0] = b
	err := c.c.Tx(c.w1[:], c.r1[:])
	return c.r1[0], err
}

func (c *Conn) String() string { return c.c.String() }

// ChipSelect drives p as the active-low chain select.
func ChipSelect(p gpio.PinOut) ltc681x.PinOutput {
	return func(level bool) {
		if err := p.Out(gpio.Level(level)); err != nil {
			println("[periphspi] chip select", p.String(), "error:", err.Error())
		}
	}
}

func connect(p spi.Port, freq physic.Frequency) (spi.Conn, error) {
	if freq == 0 {
		freq = DefaultFreq
	}
	return p.Connect(freq, spi.Mode3|spi.NoCS, 8)
}

// Open connects to a registered SPI port ("" picks the first one, e.g.
// /dev/spidev0.0). host.Init must have run.
func Open(name string, freq physic.Frequency) (*Conn, io.Closer, error) {
	p, err := spireg.Open(name)
	if err != nil {
		return nil, nil, err
	}
	sc, err := connect(p, freq)
	if err != nil {
		p.Close()
		return nil, nil, err
	}
	c, err := New(sc)
	if err != nil {
		p.Close()
		return nil, nil, err
	}
	return c, p, nil
}

// OpenFT232H connects through the first FT232H on USB. The chain select is
// wired to C0 rather than the MPSSE CS (D3) so it can be held across
// transfers.
func OpenFT232H(freq physic.Frequency) (*Conn, ltc681x.PinOutput, io.Closer, error) {
	for _, d := range ftdi.All() {
		f, ok := d.(*ftdi.FT232H)
		if !ok {
			continue
		}
		p, err := f.SPI()
		if err != nil {
			return nil, nil, nil, err
		}
		sc, err := connect(p, freq)
		if err != nil {
			p.Close()
			return nil, nil, nil, err
		}
		c, err := New(sc)
		if err != nil {
			p.Close()
			return nil, nil, nil, err
		}
		return c, ChipSelect(f.C0), p, nil
	}
	return nil, nil, nil, ErrNoFT232H
}
