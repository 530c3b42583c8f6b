package errcode

import (
	"errors"
	"testing"

	"bmscode-go/drivers/ltc681x"
)

func TestCodesAreStableStrings(t *testing.T) {
	cases := map[string]Code{
		"ok":              OK,
		"pec_mismatch":    PECMismatch,
		"invalid_params":  InvalidParams,
		"timeout":         Timeout,
		"selftest_failed": SelfTestFailed,
		"open_wire":       OpenWire,
		"error":           Error,
	}
	for want, c := range cases {
		if c.Error() != want {
			t.Fatalf("code %q mismatch: got %q", want, c)
		}
	}
}

func TestOf(t *testing.T) {
	cases := []struct {
		err  error
		want Code
	}{
		{nil, OK},
		{Timeout, Timeout},
		{&E{C: OpenWire, Op: "openwire", Msg: "C5"}, OpenWire},
		{&ltc681x.PECError{Mask: 2}, PECMismatch},
		{ltc681x.ErrPEC, PECMismatch},
		{ltc681x.ErrInvalidRegister, InvalidParams},
		{ltc681x.ErrNoBus, NoChain},
		{errors.New("spi: boom"), Error},
	}
	for _, c := range cases {
		if got := Of(c.err); got != c.want {
			t.Fatalf("Of(%v)=%q want %q", c.err, got, c.want)
		}
	}
}

func TestEFormatsAndUnwraps(t *testing.T) {
	cause := ltc681x.ErrPEC
	e := &E{C: PECMismatch, Op: "rdcv", Msg: "ic 1", Err: cause}
	if e.Error() != "rdcv: pec_mismatch: ic 1" {
		t.Fatalf("Error()=%q", e.Error())
	}
	if !errors.Is(e, ltc681x.ErrPEC) {
		t.Fatal("cause lost")
	}
}
