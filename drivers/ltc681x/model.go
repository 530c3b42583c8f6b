package ltc681x

// Register is one 6-byte register group of a single IC.
type Register struct {
	TX [6]byte // staged for the next write
	RX [8]byte // last read: 6 data bytes + PEC (MSB first)
	// PECError is set when the last read of this group failed its PEC.
	PECError bool
}

// CellBank holds decoded cell codes (100 µV/LSB) and one PEC flag per group.
type CellBank struct {
	Codes    [18]uint16
	PECError [6]bool
}

// AuxBank holds GPIO and reference codes in group order:
// G1 G2 G3 | G4 G5 REF2 | G6 G7 G8. Codes beyond the bank are dropped.
type AuxBank struct {
	Codes    [9]uint16
	PECError [4]bool
}

// StatusBank holds status group A (SC, ITMP, VA, VD codes; the last in group
// B) and the flags of group B.
type StatusBank struct {
	Codes    [4]uint16
	Flags    [3]byte // cell UV/OV flags, bytes 2..4 of group B
	MuxFail  bool
	THSD     bool
	PECError [2]bool
}

// Status code indices.
const (
	StatSC = iota
	StatITMP
	StatVA
	StatVD
)

// PECCounter tallies PEC mismatches seen since the last ResetPECCounters.
type PECCounter struct {
	Total uint32
	CFGR  uint32
	CFGRB uint32
	Cell  [6]uint32
	Aux   [4]uint32
	Stat  [2]uint32
}

// Limits are the per-variant channel and register-group counts.
type Limits struct {
	CellChannels int
	StatChannels int
	AuxChannels  int
	NumCellReg   int
	NumAuxReg    int
	NumStatReg   int
}

// IC is the host-side image of one monitor in the chain.
type IC struct {
	Config  Register
	ConfigB Register
	Cells   CellBank
	Aux     AuxBank
	Stat    StatusBank
	Comm    Register
	PWM     Register
	PWMB    Register
	SCtrl   Register
	SCtrlB  Register
	SID     [6]byte

	PEC    PECCounter
	Limits Limits

	// OpenWire is the last channel diagnosed open, or NoOpenWire.
	OpenWire uint16
	// OpenWires is every channel diagnosed open by the last run, ascending.
	OpenWires   []uint8
	OverlapFail bool
}

// RegKind selects a register bank for self-tests and PEC accounting.
type RegKind uint8

const (
	RegConfig RegKind = iota
	RegCell
	RegAux
	RegStat
	RegConfigB
)

// ParseCells decodes one 8-byte group (three little-endian codes + PEC) into
// codes at the slots of group reg (1-based). It records the PEC result in
// pecErr[reg-1] and returns true on mismatch.
func ParseCells(reg int, group []byte, codes []uint16, pecErr []bool) bool {
	base := (reg - 1) * 3
	for k := 0; k < 3; k++ {
		if i := base + k; i < len(codes) {
			codes[i] = uint16(group[2*k]) | uint16(group[2*k+1])<<8
		}
	}
	bad := !pecOK(group[:8])
	if reg-1 < len(pecErr) {
		pecErr[reg-1] = bad
	}
	return bad
}

func parseStatus(reg int, group []byte, s *StatusBank) bool {
	if reg == 1 {
		for k := 0; k < 3; k++ {
			s.Codes[k] = uint16(group[2*k]) | uint16(group[2*k+1])<<8
		}
	} else {
		s.Codes[StatVD] = uint16(group[0]) | uint16(group[1])<<8
		s.Flags[0], s.Flags[1], s.Flags[2] = group[2], group[3], group[4]
		s.MuxFail = group[5]&0x02 != 0
		s.THSD = group[5]&0x01 != 0
	}
	bad := !pecOK(group[:8])
	s.PECError[reg-1] = bad
	return bad
}
