// Package gpiodcs drives the chain select from a GPIO character-device line,
// for hosts whose SPI controller cannot hold its own CS across transfers.
package gpiodcs

import (
	"github.com/warthog618/gpiod"
)

const consumer = "bmsctl-cs"

// line is the part of *gpiod.Line the select uses.
type line interface {
	SetValue(int) error
	Close() error
}

type CS struct {
	l      line
	offset int
}

// Open requests offset on chip (e.g. "gpiochip0") as an output, initially
// high so the chain is deselected.
func Open(chip string, offset int) (*CS, error) {
	c, err := gpiod.NewChip(chip, gpiod.WithConsumer(consumer))
	if err != nil {
		return nil, err
	}
	defer c.Close()
	l, err := c.RequestLine(offset, gpiod.AsOutput(1))
	if err != nil {
		return nil, err
	}
	return &CS{l: l, offset: offset}, nil
}

// Set drives the line; wire it as the driver's PinOutput (cs.Set).
func (c *CS) Set(level bool) {
	v := 0
	if level {
		v = 1
	}
	if err := c.l.SetValue(v); err != nil {
		println("[gpiodcs] line", c.offset, "error:", err.Error())
	}
}

// Close releases the line.
func (c *CS) Close() error { return c.l.Close() }
