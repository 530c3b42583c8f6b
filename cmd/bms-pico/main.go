//go:build rp2040

// Firmware for a Pico wired to an LTC681x chain through an isoSPI
// transceiver on SPI0. Press Enter on UART0 within a few seconds of boot for
// the bench console; otherwise the monitor runs and prints every scan.
package main

import (
	"context"
	"machine"
	"time"

	"github.com/jangala-dev/tinygo-uartx/uartx"

	"bmscode-go/console"
	"bmscode-go/drivers/ltc681x"
	"bmscode-go/services/monitor"
	"bmscode-go/x/conv"
	"bmscode-go/x/mathx"
)

const (
	chainLength = 2
	variant     = ltc681x.LTC6813
	consoleWait = 3 * time.Second

	pinSCK = machine.GP18
	pinSDO = machine.GP19
	pinSDI = machine.GP16
	pinCS  = machine.GP17
)

// uartIO adapts uartx to io.ReadWriter for the console.
type uartIO struct {
	ctx context.Context
	u   *uartx.UART
}

func (p uartIO) Read(b []byte) (int, error)  { return p.u.RecvSomeContext(p.ctx, b) }
func (p uartIO) Write(b []byte) (int, error) { return p.u.Write(b) }

func main() {
	time.Sleep(1500 * time.Millisecond)
	println("[bms] boot")

	u := uartx.UART0
	_ = u.Configure(uartx.UARTConfig{BaudRate: 115200, TX: machine.GP0, RX: machine.GP1})

	_ = machine.SPI0.Configure(machine.SPIConfig{
		Frequency: 1000000,
		Mode:      3,
		SCK:       pinSCK,
		SDO:       pinSDO,
		SDI:       pinSDI,
	})
	pinCS.Configure(machine.PinConfig{Mode: machine.PinOutput})
	pinCS.High()

	dev, err := ltc681x.New(machine.SPI0, pinCS.Set, ltc681x.Config{
		ChainLength: chainLength,
		Variant:     variant,
	})
	if err != nil {
		println("[bms] driver:", err.Error())
		return
	}

	ctx := context.Background()
	if wantConsole(ctx, u) {
		println("[bms] console on uart0")
		port := uartIO{ctx: ctx, u: u}
		if err := console.New(dev, port).Run(ctx, port); err != nil {
			println("[bms] console:", err.Error())
		}
		return
	}
	runMonitor(ctx, dev)
}

func wantConsole(ctx context.Context, u *uartx.UART) bool {
	_, _ = u.Write([]byte("press enter for console\r\n"))
	wctx, cancel := context.WithTimeout(ctx, consoleWait)
	defer cancel()
	var b [8]byte
	n, _ := u.RecvSomeContext(wctx, b[:])
	return n > 0
}

func runMonitor(ctx context.Context, dev *ltc681x.Device) {
	snaps := make(chan monitor.Snapshot, 2)
	svc := monitor.New(dev, monitor.Config{
		Interval:      time.Second,
		Mode:          ltc681x.Mode7kHz,
		ReadAux:       true,
		ReadStatus:    true,
		OpenWireEvery: 60,
	}, snaps)
	if err := svc.Start(ctx); err != nil {
		println("[bms] monitor:", err.Error())
		return
	}
	var line []byte
	for snap := range snaps {
		for i := range snap.ICs {
			r := &snap.ICs[i]
			line = append(line[:0], "[bms] ic"...)
			line = conv.AppendInt(line, int64(i+1))
			for c, uv := range r.CellsMicroV {
				line = append(line, " c"...)
				line = conv.AppendInt(line, int64(c+1))
				line = append(line, '=')
				line = conv.AppendFixed(line, int64(mathx.RoundDiv(uv, 1000)), 3)
			}
			if r.Stat.THSD {
				line = append(line, " THSD"...)
			}
			println(string(line))
		}
		if snap.PECMask != 0 {
			println("[bms] scan", snap.Seq, "pec mask", snap.PECMask)
		}
	}
}
