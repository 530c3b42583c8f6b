package ltc681x

import "testing"

func TestEncoders(t *testing.T) {
	cases := []struct {
		name string
		got  [2]byte
		want [2]byte
	}{
		{"ADCV 7k all", EncodeADCV(Mode7kHz, false, CellAll), [2]byte{0x03, 0x60}},
		{"ADCV 422Hz all", EncodeADCV(Mode422Hz, false, CellAll), [2]byte{0x02, 0x60}},
		{"ADCV 26Hz all", EncodeADCV(Mode26Hz, false, CellAll), [2]byte{0x03, 0xE0}},
		{"ADCV 27k dcp c2", EncodeADCV(Mode27kHz, true, Cell2And8), [2]byte{0x02, 0xF2}},
		{"ADCVSC 7k", EncodeADCVSC(Mode7kHz, false), [2]byte{0x05, 0x67}},
		{"ADCVAX 7k dcp", EncodeADCVAX(Mode7kHz, true), [2]byte{0x05, 0x7F}},
		{"ADOL 7k", EncodeADOL(Mode7kHz, false), [2]byte{0x03, 0x01}},
		{"CVST 7k st1", EncodeCVST(Mode7kHz, SelfTest1), [2]byte{0x03, 0x27}},
		{"CVST 7k st2", EncodeCVST(Mode7kHz, SelfTest2), [2]byte{0x03, 0x47}},
		{"AXST 7k st1", EncodeAXST(Mode7kHz, SelfTest1), [2]byte{0x05, 0x27}},
		{"STATST 7k st2", EncodeSTATST(Mode7kHz, SelfTest2), [2]byte{0x05, 0x4F}},
		{"ADAX 7k all", EncodeADAX(Mode7kHz, AuxAll), [2]byte{0x05, 0x60}},
		{"ADAX 7k vref2", EncodeADAX(Mode7kHz, AuxVRef2), [2]byte{0x05, 0x66}},
		{"ADAXD 7k all", EncodeADAXD(Mode7kHz, AuxAll), [2]byte{0x05, 0x00}},
		{"ADSTAT 7k all", EncodeADSTAT(Mode7kHz, StatAll), [2]byte{0x05, 0x68}},
		{"ADSTATD 7k itmp", EncodeADSTATD(Mode7kHz, StatChITMP), [2]byte{0x05, 0x0A}},
		{"ADOW 26Hz pu", EncodeADOW(Mode26Hz, PullUp, CellAll, false), [2]byte{0x03, 0xE8}},
		{"ADOW 26Hz pd", EncodeADOW(Mode26Hz, PullDown, CellAll, false), [2]byte{0x03, 0xA8}},
		{"ADOW 7k pu", EncodeADOW(Mode7kHz, PullUp, CellAll, false), [2]byte{0x03, 0x68}},
		{"AXOW 7k pu", EncodeAXOW(Mode7kHz, PullUp), [2]byte{0x05, 0x50}},
		{"AXOW 7k pd", EncodeAXOW(Mode7kHz, PullDown), [2]byte{0x05, 0x10}},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Fatalf("%s: got % X want % X", c.name, c.got, c.want)
		}
	}
}

func TestEncoderOutOfRangeChannelAliases(t *testing.T) {
	// CH=8 spills into bit 3 and yields the ADSTAT-like low byte.
	if got := EncodeADCV(Mode7kHz, false, CellChannel(8)); got != [2]byte{0x03, 0x68} {
		t.Fatalf("got % X", got)
	}
}

func TestSelfTestPattern(t *testing.T) {
	cases := []struct {
		md     Mode
		st     SelfTest
		adcopt bool
		want   uint16
	}{
		{Mode27kHz, SelfTest1, false, 0x9565},
		{Mode27kHz, SelfTest2, false, 0x6A9A},
		{Mode27kHz, SelfTest1, true, 0x9553},
		{Mode27kHz, SelfTest2, true, 0x6AAC},
		{Mode7kHz, SelfTest1, false, 0x9555},
		{Mode7kHz, SelfTest2, true, 0x6AAA},
		{Mode422Hz, SelfTest1, true, 0x9555},
		{Mode26Hz, SelfTest2, false, 0x6AAA},
	}
	for _, c := range cases {
		if got := SelfTestPattern(c.md, c.st, c.adcopt); got != c.want {
			t.Fatalf("SelfTestPattern(%d,%d,%v)=%#04x want %#04x", c.md, c.st, c.adcopt, got, c.want)
		}
	}
}

func TestCodeConversions(t *testing.T) {
	if got := CodeMicrovolts(33000); got != 3300000 {
		t.Fatalf("CodeMicrovolts=%d", got)
	}
	if got := LTC6813.SumOfCellsMicrovolts(20000); got != 60000000 {
		t.Fatalf("SC=%d", got)
	}
	// 298.15 K -> 22360 codes ~ 25 C
	if got := DieTempMilliC(22361); got < 24000 || got > 26000 {
		t.Fatalf("DieTempMilliC=%d", got)
	}
}
