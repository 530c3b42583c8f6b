package main

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/warthog618/config"
	"github.com/warthog618/config/dict"
	"periph.io/x/conn/v3/physic"

	"bmscode-go/drivers/ltc681x"
	"bmscode-go/services/monitor"
)

func testConfig(over map[string]interface{}) *config.Config {
	m := map[string]interface{}{
		"bus":      "spidev",
		"port":     "",
		"freq":     "500kHz",
		"gpiochip": "gpiochip0",
		"cs":       8,
		"cspin":    "",
		"chain":    2,
		"variant":  "ltc6811",
		"reverse":  true,
		"mode":     "26",
		"monitor":  false,
		"interval": "250ms",
		"aux":      true,
		"status":   false,
		"openwire": 10,
	}
	for k, v := range over {
		m[k] = v
	}
	return config.New(dict.New(dict.WithMap(m)))
}

func TestParseSettings(t *testing.T) {
	s, err := parseSettings(testConfig(nil))
	if err != nil {
		t.Fatal(err)
	}
	if s.freq != 500*physic.KiloHertz {
		t.Fatalf("freq %v", s.freq)
	}
	want := ltc681x.Config{ChainLength: 2, Variant: ltc681x.LTC6811, Reverse: true}
	if s.dev.ChainLength != want.ChainLength || s.dev.Variant != want.Variant || !s.dev.Reverse {
		t.Fatalf("dev %+v", s.dev)
	}
	if s.mon.Mode != ltc681x.Mode26Hz || s.mon.Interval != 250*time.Millisecond || s.mon.OpenWireEvery != 10 {
		t.Fatalf("mon %+v", s.mon)
	}
	if s.cs != 8 || s.bus != "spidev" {
		t.Fatalf("bus %q cs %d", s.bus, s.cs)
	}
}

func TestParseSettingsMustSubtree(t *testing.T) {
	cfg := testConfig(map[string]interface{}{"chain": 3}).GetConfig("", config.WithMust)
	s, err := parseSettings(cfg)
	if err != nil {
		t.Fatal(err)
	}
	if s.dev.ChainLength != 3 {
		t.Fatalf("chain %d", s.dev.ChainLength)
	}
}

type closer struct {
	closed bool
	err    error
}

func (c *closer) Close() error { c.closed = true; return c.err }

func TestCloseAllClosesEvery(t *testing.T) {
	a, b := &closer{err: errors.New("busy")}, &closer{}
	closeAll([]io.Closer{a, b})
	if !a.closed || !b.closed {
		t.Fatalf("closed a=%v b=%v", a.closed, b.closed)
	}
}

func TestOpenBusRejectsBadSelect(t *testing.T) {
	s, err := parseSettings(testConfig(map[string]interface{}{"cs": -1}))
	if err != nil {
		t.Fatal(err)
	}
	if _, _, closers, err := openBus(s); err == nil || closers != nil {
		t.Fatalf("err %v closers %v", err, closers)
	}
	s.bus = "uart"
	if _, _, _, err := openBus(s); err == nil {
		t.Fatal("unknown bus accepted")
	}
}

func TestParseSettingsRejects(t *testing.T) {
	for _, over := range []map[string]interface{}{
		{"variant": "LTC6820"},
		{"mode": "fast"},
		{"freq": "lots"},
	} {
		if _, err := parseSettings(testConfig(over)); err == nil {
			t.Fatalf("%v accepted", over)
		}
	}
}

func TestAppendReading(t *testing.T) {
	r := &monitor.Reading{
		CellsMicroV: []uint32{3301200, 3299900},
		Aux:         []uint16{15000},
		OpenWires:   []uint8{2},
	}
	got := string(appendReading(nil, 7, 1, r))
	want := "7 ic2 c1=3.3012 c2=3.2999 a1=1.5000 open=C2\n"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}
