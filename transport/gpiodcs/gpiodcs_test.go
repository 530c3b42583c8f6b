package gpiodcs

import (
	"errors"
	"testing"
	"time"

	"bmscode-go/drivers/ltc681x"
	"bmscode-go/drivers/ltc681x/ltc681xtest"
)

type fakeLine struct {
	values []int
	fail   bool
	closed bool
}

func (f *fakeLine) SetValue(v int) error {
	if f.fail {
		return errors.New("line busy")
	}
	f.values = append(f.values, v)
	return nil
}

func (f *fakeLine) Close() error { f.closed = true; return nil }

func TestSetDrivesLine(t *testing.T) {
	f := &fakeLine{}
	cs := &CS{l: f, offset: 8}
	cs.Set(false)
	cs.Set(true)
	if len(f.values) != 2 || f.values[0] != 0 || f.values[1] != 1 {
		t.Fatalf("values %v", f.values)
	}
	f.fail = true
	cs.Set(false) // logged, not fatal
	if err := cs.Close(); err != nil || !f.closed {
		t.Fatalf("close %v", err)
	}
}

func TestSelectFramesCommand(t *testing.T) {
	f := &fakeLine{}
	cs := &CS{l: f}
	sim := ltc681xtest.New(1)
	d, err := ltc681x.New(sim, func(level bool) {
		cs.Set(level)
		sim.Select(level)
	}, ltc681x.Config{ChainLength: 1, Sleep: func(time.Duration) {}})
	if err != nil {
		t.Fatal(err)
	}
	if err := d.ClearCells(); err != nil {
		t.Fatal(err)
	}
	want := []int{1, 0, 1}
	if len(f.values) != len(want) {
		t.Fatalf("values %v", f.values)
	}
	for i := range want {
		if f.values[i] != want[i] {
			t.Fatalf("values %v want %v", f.values, want)
		}
	}
	if sim.CountCommand([2]byte{0x07, 0x11}) != 1 {
		t.Fatalf("commands %X", sim.Commands)
	}
}
