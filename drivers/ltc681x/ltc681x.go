// Package ltc681x provides a TinyGo driver for a daisy chain of LTC6810,
// LTC6811, LTC6812 or LTC6813 multicell battery stack monitors.
//
// Design notes (datasheet references):
// • SPI mode 3 into the first IC (directly or through an LTC6820 isoSPI bridge).
// • Every command is CMD0 CMD1 PEC0 PEC1; PEC15 is sent MSB first.
// • Register groups are 6 data bytes + PEC per IC, shifted through the chain:
//   writes clock the farthest IC first, reads return the nearest IC first.
// • Cell/aux/status codes are little-endian, 100 µV/LSB.
// • Blocking and single-threaded; conversion completion is polled (PLADC).
package ltc681x

import (
	"errors"
	"time"

	"tinygo.org/x/drivers"
)

var (
	// Sentinel errors (TinyGo-safe; no fmt)
	ErrPEC             = errors.New("ltc681x: PEC mismatch")
	ErrInvalidRegister = errors.New("ltc681x: invalid register group")
	ErrChainLength     = errors.New("ltc681x: chain length out of range")
	ErrNoBus           = errors.New("ltc681x: no SPI bus")
)

// PECError reports which ICs returned a group with a bad PEC. Bit i of Mask
// is logical IC i. The data was still decoded; callers decide what to trust.
type PECError struct {
	Mask uint32
}

func (e *PECError) Error() string        { return ErrPEC.Error() }
func (e *PECError) Unwrap() error        { return ErrPEC }
func (e *PECError) Failed(ic int) bool   { return e.Mask&(1<<uint(ic)) != 0 }
func (e *PECError) Is(target error) bool { return target == ErrPEC }

func pecErr(mask uint32) error {
	if mask == 0 {
		return nil
	}
	return &PECError{Mask: mask}
}

// IsPEC reports whether err only signals PEC mismatches.
func IsPEC(err error) bool { return errors.Is(err, ErrPEC) }

// PinOutput drives the chip-select line; false = low (asserted).
type PinOutput func(level bool)

type Config struct {
	ChainLength int
	Variant     Variant // VariantUnknown -> LTC6813
	// Reverse maps logical IC 0 to the far end of the chain.
	Reverse   bool
	PollLimit uint32 // 0 -> DefaultPollLimit
	// Sleep is used for wake pulses and settle delays; nil -> time.Sleep.
	Sleep func(time.Duration)
}

type Device struct {
	spi       drivers.SPI
	cs        PinOutput
	sleep     func(time.Duration)
	variant   Variant
	reverse   bool
	pollLimit uint32

	// ICs is indexed by logical position.
	ICs []IC

	// Fixed buffers sized for the chain in New.
	cmd    [4]byte
	tx, rx []byte
	wgrp   [][6]byte
	rgrp   [][8]byte
}

func New(spi drivers.SPI, cs PinOutput, cfg Config) (*Device, error) {
	if spi == nil {
		return nil, ErrNoBus
	}
	if cfg.ChainLength < 1 || cfg.ChainLength > maxChainLength {
		return nil, ErrChainLength
	}
	if cs == nil {
		cs = func(bool) {}
	}
	v := cfg.Variant
	if v == VariantUnknown {
		v = LTC6813
	}
	limit := cfg.PollLimit
	if limit == 0 {
		limit = DefaultPollLimit
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = time.Sleep
	}
	n := cfg.ChainLength
	d := &Device{
		spi:       spi,
		cs:        cs,
		sleep:     sleep,
		variant:   v,
		reverse:   cfg.Reverse,
		pollLimit: limit,
		ICs:       make([]IC, n),
		tx:        make([]byte, 4+8*n),
		rx:        make([]byte, 4+8*n),
		wgrp:      make([][6]byte, n),
		rgrp:      make([][8]byte, n),
	}
	InitLimits(d.ICs, v)
	for i := range d.ICs {
		d.ICs[i].OpenWire = NoOpenWire
	}
	cs(true)
	return d, nil
}

func (d *Device) Variant() Variant { return d.variant }
func (d *Device) Len() int         { return len(d.ICs) }

// chainIndex maps a shift position (0 = nearest the host) to a logical IC
// index. The mapping is its own inverse.
func (d *Device) chainIndex(pos int) int {
	if d.reverse {
		return len(d.ICs) - 1 - pos
	}
	return pos
}

// ResetPECCounters zeroes the tallies of every IC.
func (d *Device) ResetPECCounters() {
	for i := range d.ICs {
		d.ICs[i].PEC = PECCounter{}
	}
}
