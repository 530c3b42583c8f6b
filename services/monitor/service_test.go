package monitor

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/multierr"

	"bmscode-go/drivers/ltc681x"
	"bmscode-go/drivers/ltc681x/ltc681xtest"
	"bmscode-go/errcode"
)

func newDev(t *testing.T, n int) (*ltc681x.Device, *ltc681xtest.Chain) {
	t.Helper()
	sim := ltc681xtest.New(n)
	d, err := ltc681x.New(sim, sim.Select, ltc681x.Config{
		ChainLength: n,
		Variant:     ltc681x.LTC6811,
		PollLimit:   500,
		Sleep:       func(time.Duration) {},
	})
	if err != nil {
		t.Fatal(err)
	}
	return d, sim
}

func TestScanDecodesCells(t *testing.T) {
	d, sim := newDev(t, 2)
	for pos := range sim.ICs {
		for c := 0; c < 12; c++ {
			sim.ICs[pos].CellInputs[c] = 33000
		}
		sim.ICs[pos].AuxInputs[0] = 15000
	}
	s := New(d, Config{Mode: ltc681x.Mode7kHz, ReadAux: true, ReadStatus: true, Discharge: []int{3}}, nil)
	d.InitConfig()
	snap := s.Scan()
	if snap.Err != nil {
		t.Fatalf("scan error: %v", snap.Err)
	}
	if len(snap.ICs) != 2 || len(snap.ICs[1].CellsMicroV) != 12 {
		t.Fatalf("shape %+v", snap.ICs)
	}
	if snap.ICs[1].CellsMicroV[11] != 3300000 {
		t.Fatalf("cell = %d", snap.ICs[1].CellsMicroV[11])
	}
	if len(snap.ICs[0].Aux) != 6 || snap.ICs[0].Aux[0] != 15000 {
		t.Fatalf("aux %v", snap.ICs[0].Aux)
	}
	if sim.ICs[0].CFGA[4] != 0x04 {
		t.Fatalf("discharge not written: % X", sim.ICs[0].CFGA)
	}
	if next := s.Scan(); next.Seq != snap.Seq+1 {
		t.Fatalf("seq %d -> %d", snap.Seq, next.Seq)
	}
}

func TestScanCombinesErrors(t *testing.T) {
	d, sim := newDev(t, 2)
	sim.BusyPolls = -1
	sim.Corrupt = map[int]bool{1: true}
	s := New(d, Config{ReadAux: true}, nil)
	snap := s.Scan()
	if snap.Err == nil {
		t.Fatal("expected errors")
	}
	errs := multierr.Errors(snap.Err)
	var timeouts, pecs int
	for _, e := range errs {
		switch errcode.Of(e) {
		case errcode.Timeout:
			timeouts++
		case errcode.PECMismatch:
			pecs++
		}
	}
	if timeouts != 2 || pecs != 2 {
		t.Fatalf("timeouts=%d pecs=%d: %v", timeouts, pecs, snap.Err)
	}
	if !errors.Is(snap.Err, ltc681x.ErrPEC) {
		t.Fatal("ErrPEC not reachable")
	}
	if snap.PECMask != 0b10 || !snap.Conv.TimedOut() {
		t.Fatalf("mask=%b conv=%+v", snap.PECMask, snap.Conv)
	}
}

func TestScanOpenWire(t *testing.T) {
	d, sim := newDev(t, 1)
	for c := 0; c < 12; c++ {
		sim.ICs[0].PullUpCells[c] = 30000
		sim.ICs[0].PullDnCells[c] = 30000
	}
	sim.ICs[0].PullDnCells[2] = 20000
	s := New(d, Config{OpenWireEvery: 1}, nil)
	snap := s.Scan()
	if errcode.Of(multierr.Errors(snap.Err)[0]) != errcode.OpenWire {
		t.Fatalf("err %v", snap.Err)
	}
	if len(snap.ICs[0].OpenWires) != 1 || snap.ICs[0].OpenWires[0] != 3 {
		t.Fatalf("opens %v", snap.ICs[0].OpenWires)
	}
}

func TestScanOpenWireKeepsCellReadings(t *testing.T) {
	d, sim := newDev(t, 1)
	for c := 0; c < 12; c++ {
		sim.ICs[0].CellInputs[c] = 33000
		sim.ICs[0].PullUpCells[c] = 30000
		sim.ICs[0].PullDnCells[c] = 30000
	}
	s := New(d, Config{OpenWireEvery: 1}, nil)
	snap := s.Scan()
	if snap.Err != nil {
		t.Fatalf("scan error: %v", snap.Err)
	}
	for c, uv := range snap.ICs[0].CellsMicroV {
		if uv != 3300000 {
			t.Fatalf("cell %d = %d uV, want the ADCV reading 3300000", c+1, uv)
		}
	}
	if len(snap.ICs[0].OpenWires) != 0 {
		t.Fatalf("opens %v", snap.ICs[0].OpenWires)
	}
}

func TestServiceLoopEmitsAndStops(t *testing.T) {
	d, _ := newDev(t, 1)
	out := make(chan Snapshot, 4)
	s := New(d, Config{Interval: 10 * time.Millisecond}, out)
	if s.cfg.Interval != minInterval {
		t.Fatalf("interval not clamped: %v", s.cfg.Interval)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	select {
	case snap := <-out:
		if len(snap.ICs) != 1 {
			t.Fatalf("snapshot %+v", snap)
		}
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for snapshot")
	}
	if !s.Reconfigure(Config{Interval: time.Minute}) {
		t.Fatal("reconfigure rejected")
	}
}

func TestConfigDefaults(t *testing.T) {
	if c := (Config{}).withDefaults(); c.Interval != time.Second {
		t.Fatalf("default interval %v", c.Interval)
	}
	if c := (Config{Interval: 2 * time.Hour}).withDefaults(); c.Interval != time.Hour {
		t.Fatalf("max interval %v", c.Interval)
	}
}
