package ltc681x

// Variant identifies the monitor part; all ICs in a chain share one.
type Variant uint8

const (
	VariantUnknown Variant = iota
	LTC6810
	LTC6811
	LTC6812
	LTC6813
)

func (v Variant) String() string {
	switch v {
	case LTC6810:
		return "LTC6810"
	case LTC6811:
		return "LTC6811"
	case LTC6812:
		return "LTC6812"
	case LTC6813:
		return "LTC6813"
	default:
		return "unknown"
	}
}

// ParseVariant accepts "6813", "ltc6813" or "LTC6813".
func ParseVariant(s string) (Variant, bool) {
	if len(s) > 3 && (s[:3] == "ltc" || s[:3] == "LTC") {
		s = s[3:]
	}
	switch s {
	case "6810":
		return LTC6810, true
	case "6811":
		return LTC6811, true
	case "6812":
		return LTC6812, true
	case "6813":
		return LTC6813, true
	}
	return VariantUnknown, false
}

// Limits returns the channel and register-group counts of the part.
func (v Variant) Limits() Limits {
	switch v {
	case LTC6810:
		return Limits{CellChannels: 6, StatChannels: 4, AuxChannels: 6, NumCellReg: 2, NumAuxReg: 2, NumStatReg: 3}
	case LTC6811:
		return Limits{CellChannels: 12, StatChannels: 4, AuxChannels: 6, NumCellReg: 4, NumAuxReg: 2, NumStatReg: 3}
	case LTC6812:
		return Limits{CellChannels: 15, StatChannels: 4, AuxChannels: 9, NumCellReg: 5, NumAuxReg: 4, NumStatReg: 2}
	default:
		return Limits{CellChannels: 18, StatChannels: 4, AuxChannels: 9, NumCellReg: 6, NumAuxReg: 4, NumStatReg: 2}
	}
}

// HasConfigB reports whether the part carries CFGRB, PWM/S-control group B
// and the 16..18 discharge bits.
func (v Variant) HasConfigB() bool { return v == LTC6812 || v == LTC6813 }

// HasDCC0 reports whether the part has a discharge pin below cell 1.
func (v Variant) HasDCC0() bool { return v != LTC6811 && v != VariantUnknown }

// gpioOpenWireThreshold is in 100 µV codes.
func (v Variant) gpioOpenWireThreshold() uint16 {
	if v == LTC6810 || v == LTC6811 {
		return 500
	}
	return 150
}

// overlapPairs are the cell indices measured by both ADCs during ADOL.
func (v Variant) overlapPairs() [][2]int {
	if v.HasConfigB() {
		return [][2]int{{6, 7}, {12, 13}}
	}
	return [][2]int{{6, 7}}
}

// sumOfCellsScale multiplies the SC code into the 100 µV domain.
func (v Variant) sumOfCellsScale() uint32 {
	switch v {
	case LTC6810:
		return 10
	case LTC6811:
		return 20
	default:
		return 30
	}
}

// InitLimits stamps the variant limits into every IC of the chain.
func InitLimits(ics []IC, v Variant) {
	l := v.Limits()
	for i := range ics {
		ics[i].Limits = l
	}
}
