package ltc681x

import "testing"

func TestThresholdPacking(t *testing.T) {
	var ic IC
	ic.SetUV(33000) // 3.3 V
	ic.SetOV(42000) // 4.2 V
	tmpUV := uint16(33000/16 - 1)
	if ic.Config.TX[1] != byte(tmpUV) || ic.Config.TX[2]&0x0F != byte(tmpUV>>8) {
		t.Fatalf("UV bytes % X", ic.Config.TX)
	}
	tmpOV := uint16(42000 / 16)
	if ic.Config.TX[3] != byte(tmpOV>>4) || ic.Config.TX[2]>>4 != byte(tmpOV&0x0F) {
		t.Fatalf("OV bytes % X", ic.Config.TX)
	}
	if got := ic.UV(); got != 33000-33000%16 {
		t.Fatalf("UV()=%d", got)
	}
	if got := ic.OV(); got != 42000-42000%16 {
		t.Fatalf("OV()=%d", got)
	}
}

func TestConfigBits(t *testing.T) {
	var ic IC
	ic.SetRefOn(true)
	ic.SetADCOpt(true)
	ic.SetGPIO([5]bool{true, false, true, false, true})
	if ic.Config.TX[0] != 0x04|0x01|0x08|0x20|0x80 {
		t.Fatalf("CFGR0=%#02x", ic.Config.TX[0])
	}
	ic.SetADCOpt(false)
	if ic.Config.TX[0]&cfgADCOPT != 0 {
		t.Fatal("ADCOPT not cleared")
	}
	ic.SetDischargeBits([12]bool{0: true, 7: true, 8: true, 11: true})
	if ic.Config.TX[4] != 0x81 || ic.Config.TX[5] != 0x09 {
		t.Fatalf("DCC bytes %#02x %#02x", ic.Config.TX[4], ic.Config.TX[5])
	}
	ic.SetDischargeTimeout(0xA)
	if ic.Config.TX[5] != 0xA9 {
		t.Fatalf("DCTO byte %#02x", ic.Config.TX[5])
	}
}

func TestConfigBBits(t *testing.T) {
	var ic IC
	ic.SetFDRF(true)
	ic.SetDTMEN(true)
	ic.SetPathSelect(2)
	ic.SetGPIOB([4]bool{true, true, false, false})
	ic.SetDischargeB([7]bool{true, true, false, false, true, false, true})
	if ic.ConfigB.TX[0] != 0x03|0x10|0x80 {
		t.Fatalf("CFGRB0=%#02x", ic.ConfigB.TX[0])
	}
	if ic.ConfigB.TX[1] != 0x40|0x08|0x20|0x04|0x02 {
		t.Fatalf("CFGRB1=%#02x", ic.ConfigB.TX[1])
	}
}

func TestChainDischarge(t *testing.T) {
	d := &Device{variant: LTC6813, ICs: make([]IC, 2)}
	d.InitConfig()
	for _, cell := range []int{0, 1, 8, 9, 12, 13, 16, 17, 18} {
		d.SetDischarge(cell)
	}
	ic := d.ICs[1]
	if ic.Config.TX[0] != 0xFC {
		t.Fatalf("CFGR0=%#02x", ic.Config.TX[0])
	}
	if ic.Config.TX[4] != 0x81 || ic.Config.TX[5] != 0x09 {
		t.Fatalf("CFGR4/5 %#02x %#02x", ic.Config.TX[4], ic.Config.TX[5])
	}
	if ic.ConfigB.TX[0] != 0x0F|0x10|0x80 || ic.ConfigB.TX[1] != 0x04|0x03 {
		t.Fatalf("CFGRB % X", ic.ConfigB.TX)
	}
	d.ClearDischarge()
	ic = d.ICs[0]
	if ic.Config.TX[4] != 0 || ic.Config.TX[5] != 0 || ic.ConfigB.TX[0] != 0x0F || ic.ConfigB.TX[1] != 0 {
		t.Fatalf("after clear: A % X B % X", ic.Config.TX, ic.ConfigB.TX)
	}
}

func TestChainDischarge6810(t *testing.T) {
	d := &Device{variant: LTC6810, ICs: make([]IC, 1)}
	ic := &d.ICs[0]
	ic.Config.TX[4] = cfg6810MCAL
	ic.Config.TX[5] = 0x30
	for _, cell := range []int{0, 1, 6, 7} {
		d.SetDischarge(cell)
	}
	if ic.Config.TX[4] != 0x80|0x40|0x20|0x01 {
		t.Fatalf("CFGR4=%#02x", ic.Config.TX[4])
	}
	if ic.ConfigB.TX != ([6]byte{}) || ic.Config.TX[5] != 0x30 {
		t.Fatalf("stray bits: CFGR5=%#02x CFGRB % X", ic.Config.TX[5], ic.ConfigB.TX)
	}
	d.ClearDischarge()
	if ic.Config.TX[4] != cfg6810MCAL || ic.Config.TX[5] != 0x30 {
		t.Fatalf("after clear: % X", ic.Config.TX)
	}
	if !LTC6810.HasDCC0() || LTC6811.HasDCC0() {
		t.Fatal("HasDCC0")
	}
}

func TestParseCells(t *testing.T) {
	g := []byte{0x10, 0x27, 0x20, 0x4E, 0xFF, 0xFF, 0, 0}
	putPEC(g, 6)
	var codes [18]uint16
	var bad [6]bool
	if ParseCells(2, g, codes[:], bad[:]) {
		t.Fatal("unexpected PEC mismatch")
	}
	if codes[3] != 10000 || codes[4] != 20000 || codes[5] != 0xFFFF {
		t.Fatalf("codes %v", codes[3:6])
	}
	g[6] ^= 0x01
	if !ParseCells(2, g, codes[:], bad[:]) || !bad[1] {
		t.Fatal("mismatch not flagged")
	}
	// Aux group D has slots past the bank; they are dropped.
	var aux [9]uint16
	var auxBad [4]bool
	ParseCells(4, g, aux[:], auxBad[:])
	if !auxBad[3] {
		t.Fatal("group D PEC flag not set")
	}
}

func TestVariantLimits(t *testing.T) {
	cases := []struct {
		v     Variant
		cells int
		cregs int
	}{
		{LTC6810, 6, 2},
		{LTC6811, 12, 4},
		{LTC6812, 15, 5},
		{LTC6813, 18, 6},
	}
	for _, c := range cases {
		l := c.v.Limits()
		if l.CellChannels != c.cells || l.NumCellReg != c.cregs {
			t.Fatalf("%s: %+v", c.v, l)
		}
		if v, ok := ParseVariant(c.v.String()); !ok || v != c.v {
			t.Fatalf("ParseVariant(%s)=%v,%v", c.v, v, ok)
		}
	}
	if _, ok := ParseVariant("6803"); ok {
		t.Fatal("6803 accepted")
	}
}
