package console

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"bmscode-go/drivers/ltc681x"
	"bmscode-go/drivers/ltc681x/ltc681xtest"
	"bmscode-go/errcode"
)

func newConsole(t *testing.T, n int) (*Console, *ltc681xtest.Chain, *bytes.Buffer) {
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
	var out bytes.Buffer
	return New(d, &out), sim, &out
}

func TestConvertCellsPrintsVolts(t *testing.T) {
	c, sim, out := newConsole(t, 2)
	for pos := range sim.ICs {
		for ch := 0; ch < 12; ch++ {
			sim.ICs[pos].CellInputs[ch] = 33012
		}
	}
	if err := c.Exec("convert cells"); err != nil {
		t.Fatal(err)
	}
	s := out.String()
	if !strings.Contains(s, "ic1 c1=3.3012") || !strings.Contains(s, "ic2 c1=3.3012") {
		t.Fatalf("output:\n%s", s)
	}
	if !strings.Contains(s, "c12=3.3012\n") || strings.Contains(s, "c13=") {
		t.Fatalf("channel count wrong:\n%s", s)
	}
}

func TestPECMismatchIsReportedNotFatal(t *testing.T) {
	c, sim, out := newConsole(t, 2)
	sim.Corrupt = map[int]bool{1: true}
	if err := c.Exec("cells"); err != nil {
		t.Fatalf("cells: %v", err)
	}
	if !strings.Contains(out.String(), "rdcv: PEC mismatch on ic 2\n") {
		t.Fatalf("output:\n%s", out.String())
	}
	out.Reset()
	if err := c.Exec("pec"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "ic2 pec total=4") {
		t.Fatalf("counters:\n%s", out.String())
	}
	if err := c.Exec("pec reset"); err != nil || c.dev.ICs[1].PEC.Total != 0 {
		t.Fatalf("reset: %v %+v", err, c.dev.ICs[1].PEC)
	}
}

func TestDischargeAndConfigWrite(t *testing.T) {
	c, sim, _ := newConsole(t, 1)
	for _, line := range []string{"cfg init", "discharge 3 10", "cfg uv 3000", "cfg write"} {
		if err := c.Exec(line); err != nil {
			t.Fatalf("%q: %v", line, err)
		}
	}
	got := sim.ICs[0].CFGA
	if got[4] != 0x04 || got[5]&0x0F != 0x02 {
		t.Fatalf("CFGA % X", got)
	}
	if uv := c.dev.ICs[0].UV(); uv != 30000 {
		t.Fatalf("uv %d", uv)
	}
	if err := c.Exec("discharge 13"); errcode.Of(err) != errcode.InvalidParams {
		t.Fatalf("cell 13 on 6811: %v", err)
	}
	if err := c.Exec("discharge clear"); err != nil || c.dev.ICs[0].Config.TX[4] != 0 {
		t.Fatalf("clear: %v", err)
	}
}

func TestOpenWireReport(t *testing.T) {
	c, sim, out := newConsole(t, 1)
	for ch := 0; ch < 12; ch++ {
		sim.ICs[0].PullUpCells[ch] = 30000
		sim.ICs[0].PullDnCells[ch] = 30000
	}
	if err := c.Exec("openwire"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "ic1 no open wires") {
		t.Fatalf("output:\n%s", out.String())
	}
	sim.ICs[0].PullDnCells[4] = 20000
	out.Reset()
	if err := c.Exec("openwire single"); errcode.Of(err) != errcode.OpenWire {
		t.Fatalf("err %v", err)
	}
	if !strings.Contains(out.String(), "ic1 open: C5") {
		t.Fatalf("output:\n%s", out.String())
	}
}

func TestSIDAndSelfTest(t *testing.T) {
	c, sim, out := newConsole(t, 1)
	sim.ICs[0].SID = [6]byte{0x01, 0x02, 0xAB, 0x04, 0x05, 0x06}
	if err := c.Exec("sid"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "ic1 sid: 01 02 AB 04 05 06") {
		t.Fatalf("output:\n%s", out.String())
	}
	out.Reset()
	if err := c.Exec("selftest cell"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "self-test errors: 0") {
		t.Fatalf("output:\n%s", out.String())
	}
}

func TestExecErrors(t *testing.T) {
	c, _, _ := newConsole(t, 1)
	cases := []struct {
		line string
		want errcode.Code
	}{
		{"bogus", errcode.UnknownCommand},
		{"mode 9k", errcode.InvalidParams},
		{"mode", errcode.InvalidParams},
		{"cfg refon maybe", errcode.InvalidParams},
		{"cfg dcto 16", errcode.InvalidParams},
		{"selftest", errcode.InvalidParams},
		{"openwire sideways", errcode.InvalidParams},
		{`cells "unterminated`, errcode.InvalidParams},
	}
	for _, tc := range cases {
		if got := errcode.Of(c.Exec(tc.line)); got != tc.want {
			t.Fatalf("%q: got %q want %q", tc.line, got, tc.want)
		}
	}
	if err := c.Exec("  # comment"); err != nil {
		t.Fatal(err)
	}
	if err := c.Exec("mode 26"); err != nil || c.mode != ltc681x.Mode26Hz {
		t.Fatalf("mode: %v %v", err, c.mode)
	}
}

func TestRunKeepsGoingAfterErrors(t *testing.T) {
	c, _, out := newConsole(t, 1)
	in := strings.NewReader("bogus\nhelp\n")
	if err := c.Run(context.Background(), in); err != nil {
		t.Fatal(err)
	}
	s := out.String()
	if !strings.Contains(s, "error unknown_command") {
		t.Fatalf("missing error line:\n%s", s)
	}
	if !strings.Contains(s, "  openwire - openwire single|multi|gpio") {
		t.Fatalf("help not printed:\n%s", s)
	}
}
