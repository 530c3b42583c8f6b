package ltc681x

// Mode selects the ADC filter. The first frequency applies with ADCOPT=0,
// the second with ADCOPT=1.
type Mode uint8

const (
	Mode422Hz Mode = iota // 422 Hz / 1 kHz
	Mode27kHz             // 27 kHz / 14 kHz
	Mode7kHz              // 7 kHz / 3 kHz (normal)
	Mode26Hz              // 26 Hz / 2 kHz (filtered)
)

// CellChannel selects the cells converted by ADCV/ADOW.
type CellChannel uint8

const (
	CellAll CellChannel = iota
	Cell1And7
	Cell2And8
	Cell3And9
	Cell4And10
	Cell5And11
	Cell6And12
)

// AuxChannel selects the GPIO/reference channel converted by ADAX/ADAXD.
type AuxChannel uint8

const (
	AuxAll AuxChannel = iota
	AuxGPIO1
	AuxGPIO2
	AuxGPIO3
	AuxGPIO4
	AuxGPIO5
	AuxVRef2
)

// StatChannel selects the status channel converted by ADSTAT/ADSTATD.
type StatChannel uint8

const (
	StatAll StatChannel = iota
	StatChSOC
	StatChITMP
	StatChVA
	StatChVD
)

// SelfTest selects one of the two digital self-test patterns.
type SelfTest uint8

const (
	SelfTest1 SelfTest = 1
	SelfTest2 SelfTest = 2
)

// Pull selects the ADOW/AXOW current source polarity.
type Pull uint8

const (
	PullDown Pull = 0
	PullUp   Pull = 1
)

// Encoders. Arguments are not range-checked: an out-of-range channel or test
// number spills into the neighbouring command bits, as on the wire.

func mdBits(md Mode) (hi, lo byte) {
	return byte(md&0x02) >> 1, byte(md&0x01) << 7
}

func b2u(b bool) byte {
	if b {
		return 1
	}
	return 0
}

// EncodeADCV encodes a cell conversion.
func EncodeADCV(md Mode, dcp bool, ch CellChannel) [2]byte {
	hi, lo := mdBits(md)
	return [2]byte{hi + adcvBase, lo + adcvLow + b2u(dcp)<<4 + byte(ch)}
}

// EncodeADCVSC encodes cells plus sum-of-cells.
func EncodeADCVSC(md Mode, dcp bool) [2]byte {
	hi, lo := mdBits(md)
	return [2]byte{hi | auxBase, lo | adcvscLow | b2u(dcp)<<4}
}

// EncodeADCVAX encodes cells plus GPIO1/2.
func EncodeADCVAX(md Mode, dcp bool) [2]byte {
	hi, lo := mdBits(md)
	return [2]byte{hi | auxBase, lo | (b2u(dcp)<<4 + adcvaxLow)}
}

// EncodeADOL encodes the overlap conversion (cell 7 and 13 on both ADCs).
func EncodeADOL(md Mode, dcp bool) [2]byte {
	hi, lo := mdBits(md)
	return [2]byte{hi + adcvBase, lo + b2u(dcp)<<4 + adolLow}
}

// EncodeCVST encodes the cell self-test.
func EncodeCVST(md Mode, st SelfTest) [2]byte {
	hi, lo := mdBits(md)
	return [2]byte{hi + adcvBase, lo + byte(st)<<5 + cvstLow}
}

// EncodeAXST encodes the aux self-test.
func EncodeAXST(md Mode, st SelfTest) [2]byte {
	hi, lo := mdBits(md)
	return [2]byte{hi + auxBase, lo + byte(st&0x03)<<5 + axstLow}
}

// EncodeSTATST encodes the status self-test.
func EncodeSTATST(md Mode, st SelfTest) [2]byte {
	hi, lo := mdBits(md)
	return [2]byte{hi + auxBase, lo + byte(st&0x03)<<5 + statstLow}
}

// EncodeADAX encodes a GPIO conversion.
func EncodeADAX(md Mode, chg AuxChannel) [2]byte {
	hi, lo := mdBits(md)
	return [2]byte{hi + auxBase, lo + adaxLow + byte(chg)}
}

// EncodeADAXD encodes a GPIO conversion with digital redundancy.
func EncodeADAXD(md Mode, chg AuxChannel) [2]byte {
	hi, lo := mdBits(md)
	return [2]byte{hi + auxBase, lo + byte(chg)}
}

// EncodeADSTAT encodes a status conversion.
func EncodeADSTAT(md Mode, chst StatChannel) [2]byte {
	hi, lo := mdBits(md)
	return [2]byte{hi + auxBase, lo + adstatLow + byte(chst)}
}

// EncodeADSTATD encodes a status conversion with digital redundancy.
func EncodeADSTATD(md Mode, chst StatChannel) [2]byte {
	hi, lo := mdBits(md)
	return [2]byte{hi + auxBase, lo + adstatdLow + byte(chst)}
}

// EncodeADOW encodes an open-wire cell conversion.
func EncodeADOW(md Mode, pup Pull, ch CellChannel, dcp bool) [2]byte {
	hi, lo := mdBits(md)
	return [2]byte{hi + adcvBase, lo + adowLow + byte(pup)<<6 + byte(ch) + b2u(dcp)<<4}
}

// EncodeAXOW encodes an open-wire GPIO conversion.
func EncodeAXOW(md Mode, pup Pull) [2]byte {
	hi, lo := mdBits(md)
	return [2]byte{hi + auxBase, lo + axowLow + byte(pup)<<6}
}

// ---------------- Conversion starters ----------------

func (d *Device) ADCV(md Mode, dcp bool, ch CellChannel) error {
	return d.Command(EncodeADCV(md, dcp, ch))
}
func (d *Device) ADCVSC(md Mode, dcp bool) error { return d.Command(EncodeADCVSC(md, dcp)) }
func (d *Device) ADCVAX(md Mode, dcp bool) error { return d.Command(EncodeADCVAX(md, dcp)) }
func (d *Device) ADOL(md Mode, dcp bool) error   { return d.Command(EncodeADOL(md, dcp)) }
func (d *Device) CVST(md Mode, st SelfTest) error {
	return d.Command(EncodeCVST(md, st))
}
func (d *Device) AXST(md Mode, st SelfTest) error {
	return d.Command(EncodeAXST(md, st))
}
func (d *Device) STATST(md Mode, st SelfTest) error {
	return d.Command(EncodeSTATST(md, st))
}
func (d *Device) ADAX(md Mode, chg AuxChannel) error {
	return d.Command(EncodeADAX(md, chg))
}
func (d *Device) ADAXD(md Mode, chg AuxChannel) error {
	return d.Command(EncodeADAXD(md, chg))
}
func (d *Device) ADSTAT(md Mode, chst StatChannel) error {
	return d.Command(EncodeADSTAT(md, chst))
}
func (d *Device) ADSTATD(md Mode, chst StatChannel) error {
	return d.Command(EncodeADSTATD(md, chst))
}
func (d *Device) ADOW(md Mode, pup Pull, ch CellChannel, dcp bool) error {
	return d.Command(EncodeADOW(md, pup, ch, dcp))
}
func (d *Device) AXOW(md Mode, pup Pull) error { return d.Command(EncodeAXOW(md, pup)) }

// ---------------- Code conversion ----------------

// CodeMicrovolts converts a cell or GPIO code (100 µV/LSB).
func CodeMicrovolts(code uint16) uint32 { return uint32(code) * 100 }

// SumOfCellsMicrovolts converts the SC status code for the variant.
func (v Variant) SumOfCellsMicrovolts(code uint16) uint32 {
	return uint32(code) * 100 * v.sumOfCellsScale()
}

// DieTempMilliC converts the ITMP status code (7.5 mV/K, 100 µV/LSB).
func DieTempMilliC(code uint16) int32 {
	return int32(int64(code)*1000/75) - 273000
}
