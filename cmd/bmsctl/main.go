// Command bmsctl drives an LTC681x chain from a Linux host, either as an
// interactive console on stdin or as a periodic monitor printing one line per
// IC per scan.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"bmscode-go/console"
	"bmscode-go/drivers/ltc681x"
	"bmscode-go/services/monitor"
	"bmscode-go/transport/gpiodcs"
	"bmscode-go/transport/periphspi"
	"bmscode-go/x/conv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "bmsctl: %s\n", err)
		os.Exit(1)
	}
}

// run returns instead of exiting so the bus and select line are always
// released.
func run() error {
	s, err := parseSettings(loadConfig())
	if err != nil {
		return err
	}
	if _, err := host.Init(); err != nil {
		return err
	}
	bus, cs, closers, err := openBus(s)
	if err != nil {
		return err
	}
	defer closeAll(closers)
	dev, err := ltc681x.New(bus, cs, s.dev)
	if err != nil {
		return err
	}
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if s.monitor {
		err = runMonitor(ctx, dev, s.mon)
	} else {
		err = console.New(dev, os.Stdout).Run(ctx, os.Stdin)
	}
	if err == context.Canceled {
		return nil
	}
	return err
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		if err := c.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "bmsctl: close: %s\n", err)
		}
	}
}

func openBus(s settings) (*periphspi.Conn, ltc681x.PinOutput, []io.Closer, error) {
	var closers []io.Closer
	if s.bus == "ft232h" {
		c, cs, p, err := periphspi.OpenFT232H(s.freq)
		if err != nil {
			return nil, nil, nil, err
		}
		return c, cs, append(closers, p), nil
	}
	if s.bus != "spidev" {
		return nil, nil, nil, errBadSetting("bus")
	}
	var cs ltc681x.PinOutput
	switch {
	case s.cspin != "":
		p := gpioreg.ByName(s.cspin)
		if p == nil {
			return nil, nil, nil, errBadSetting("cspin")
		}
		cs = periphspi.ChipSelect(p)
	case s.cs >= 0:
		l, err := gpiodcs.Open(s.gpiochip, s.cs)
		if err != nil {
			return nil, nil, nil, err
		}
		closers = append(closers, l)
		cs = l.Set
	default:
		return nil, nil, nil, errBadSetting("cs")
	}
	c, p, err := periphspi.Open(s.port, s.freq)
	if err != nil {
		closeAll(closers)
		return nil, nil, nil, err
	}
	return c, cs, append(closers, p), nil
}

func runMonitor(ctx context.Context, dev *ltc681x.Device, cfg monitor.Config) error {
	snaps := make(chan monitor.Snapshot, 4)
	svc := monitor.New(dev, cfg, snaps)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	var line []byte
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case snap := <-snaps:
			for i := range snap.ICs {
				line = appendReading(line[:0], snap.Seq, i, &snap.ICs[i])
				os.Stdout.Write(line)
			}
			if snap.Err != nil {
				fmt.Fprintf(os.Stderr, "scan %d: %s\n", snap.Seq, snap.Err)
			}
		}
	}
}

// appendReading formats one IC as "seq ic1 c1=3.3012 ... gpio1=1.5000 ...".
func appendReading(b []byte, seq uint32, ic int, r *monitor.Reading) []byte {
	b = conv.AppendUint(b, uint64(seq))
	b = append(b, " ic"...)
	b = conv.AppendInt(b, int64(ic+1))
	for c, uv := range r.CellsMicroV {
		b = append(b, " c"...)
		b = conv.AppendInt(b, int64(c+1))
		b = append(b, '=')
		b = conv.AppendFixed(b, int64(uv/100), 4)
	}
	for k, code := range r.Aux {
		b = append(b, " a"...)
		b = conv.AppendInt(b, int64(k+1))
		b = append(b, '=')
		b = conv.AppendFixed(b, int64(code), 4)
	}
	for _, w := range r.OpenWires {
		b = append(b, " open=C"...)
		b = conv.AppendInt(b, int64(w))
	}
	return append(b, '\n')
}
