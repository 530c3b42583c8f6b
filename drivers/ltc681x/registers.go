// Package ltc681x provides constants for command codes and bitfields shared
// by the LTC6810/11/12/13 battery stack monitors.
package ltc681x

// 11-bit commands as (CMD0<<8 | CMD1).
const (
	// Configuration
	cmdWRCFGA = 0x0001
	cmdRDCFGA = 0x0002
	cmdWRCFGB = 0x0024 // LTC6812/13
	cmdRDCFGB = 0x0026 // LTC6812/13

	// Cell voltage groups A..F
	cmdRDCVA = 0x0004
	cmdRDCVB = 0x0006
	cmdRDCVC = 0x0008
	cmdRDCVD = 0x000A
	cmdRDCVE = 0x0009
	cmdRDCVF = 0x000B

	// Auxiliary groups A..D
	cmdRDAUXA = 0x000C
	cmdRDAUXB = 0x000E
	cmdRDAUXC = 0x000D
	cmdRDAUXD = 0x000F

	// Status groups A..B
	cmdRDSTATA = 0x0010
	cmdRDSTATB = 0x0012

	// S-control / PWM
	cmdWRSCTRL  = 0x0014
	cmdRDSCTRL  = 0x0016
	cmdWRPWM    = 0x0020
	cmdRDPWM    = 0x0022
	cmdWRPSB    = 0x001C // PWM/S-control group B, LTC6812/13
	cmdRDPSB    = 0x001E
	cmdSTSCTRL  = 0x0019
	cmdCLRSCTRL = 0x0018

	cmdRDSID  = 0x002C
	cmdMUTE   = 0x0028
	cmdUNMUTE = 0x0029

	// Clears, poll, diagnostics
	cmdCLRCELL = 0x0711
	cmdCLRAUX  = 0x0712
	cmdCLRSTAT = 0x0713
	cmdPLADC   = 0x0714
	cmdDIAGN   = 0x0715

	// COMM (I2C/SPI master on GPIO)
	cmdWRCOMM = 0x0721
	cmdRDCOMM = 0x0722
	cmdSTCOMM = 0x0723
)

var (
	cellGroupCmds = [6]uint16{cmdRDCVA, cmdRDCVB, cmdRDCVC, cmdRDCVD, cmdRDCVE, cmdRDCVF}
	auxGroupCmds  = [4]uint16{cmdRDAUXA, cmdRDAUXB, cmdRDAUXC, cmdRDAUXD}
	statGroupCmds = [2]uint16{cmdRDSTATA, cmdRDSTATB}
)

// ADC command bases. MD[1] is added to CMD0, MD[0] is bit 7 of CMD1.
const (
	adcvBase   = 0x02
	adcvLow    = 0x60
	adowLow    = 0x28
	adolLow    = 0x01
	cvstLow    = 0x07
	auxBase    = 0x04
	adaxLow    = 0x60
	adstatLow  = 0x68
	adstatdLow = 0x08
	axowLow    = 0x10
	axstLow    = 0x07
	statstLow  = 0x0F
	adcvscLow  = 0x67 // 0x60 | 0x07
	adcvaxLow  = 0x6F
)

// CFGRA bit positions (byte 0).
const (
	cfgADCOPT = 0x01
	cfgDTEN   = 0x02
	cfgREFON  = 0x04
	cfgGPIO1  = 3 // GPIO1..5 at bits 3..7
)

// LTC6810 CFGR4: DCC1..6 at bits 0..5.
const (
	cfg6810MCAL = 0x40
	cfg6810DCC0 = 0x80
)

// CFGRB bit positions.
const (
	cfgbDCC0  = 0x04 // byte 1
	cfgbDTMEN = 0x08 // byte 1
	cfgbFDRF  = 0x40 // byte 1
	cfgbPSPos = 4    // byte 1 bits 5:4
)

// Timing.
const (
	tWakeSleepUs   = 300 // CS low while the core wakes
	tWakeReleaseUs = 10  // gap before the next IC's wake pulse
	auxSettleMs    = 10
)

// Open-wire thresholds and pass counts.
const (
	openWireThreshold    = 4000 // 400 mV in 100 µV codes
	openWireSinglePasses = 3
	openWireMultiPasses  = 5
	gpioOpenWirePasses   = 3

	overlapLimit    = 20     // 2 mV
	redundancyFault = 0xFF00 // ADAXD/ADSTATD fault codes land at or above this
)

// NoOpenWire is stored in IC.OpenWire when no channel was diagnosed open.
const NoOpenWire = 0xFFFF

// DefaultPollLimit bounds PollADC; the counter advances pollStep per byte read.
const (
	DefaultPollLimit = 2000000
	pollStep         = 10
)

// maxChainLength keeps per-IC masks within a uint32.
const maxChainLength = 32
