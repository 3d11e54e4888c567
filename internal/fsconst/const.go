// Package fsconst holds the wire-level and protocol constants shared across
// the T.31 engine, its T.38 transport and its DTE transport: modem roles,
// T.38 indicator/data-field types, AT Class 1 codes and response strings,
// and the timing constants the engine schedules against.
package fsconst

import "fmt"

// Modem is the current modem role of a T.31 instance. Only one is active at
// a time; -1 (ModemNone) means quiescent.
type Modem int

const (
	ModemNone Modem = iota - 1
	ModemFlush
	ModemSilenceTX
	ModemSilenceRX
	ModemCEDTone
	ModemCNGTone
	ModemNoCNGTone
	ModemV21TX
	ModemV17TX
	ModemV27terTX
	ModemV29TX
	ModemV21RX
	ModemV17RX
	ModemV27terRX
	ModemV29RX
)

// String returns the human-readable name of the modem role.
func (m Modem) String() string {
	switch m {
	case ModemNone:
		return "none"
	case ModemFlush:
		return "flush"
	case ModemSilenceTX:
		return "silence-tx"
	case ModemSilenceRX:
		return "silence-rx"
	case ModemCEDTone:
		return "ced-tone"
	case ModemCNGTone:
		return "cng-tone"
	case ModemNoCNGTone:
		return "no-cng-tone"
	case ModemV21TX:
		return "v21-tx"
	case ModemV17TX:
		return "v17-tx"
	case ModemV27terTX:
		return "v27ter-tx"
	case ModemV29TX:
		return "v29-tx"
	case ModemV21RX:
		return "v21-rx"
	case ModemV17RX:
		return "v17-rx"
	case ModemV27terRX:
		return "v27ter-rx"
	case ModemV29RX:
		return "v29-rx"
	default:
		return fmt.Sprintf("modem(%d)", int(m))
	}
}

// IsRX reports whether the role is a receive role.
func (m Modem) IsRX() bool {
	switch m {
	case ModemV21RX, ModemV17RX, ModemV27terRX, ModemV29RX, ModemSilenceRX, ModemCNGTone, ModemNoCNGTone:
		return true
	default:
		return false
	}
}

// TimedStep is the T.38 transmit scheduler's sub-state.
type TimedStep int

const (
	TimedStepNone TimedStep = iota
	TimedStepNonECMModem
	TimedStepNonECMModem2
	TimedStepNonECMModem3
	TimedStepNonECMModem4
	TimedStepNonECMModem5
	TimedStepHDLCModem
	TimedStepHDLCModem2
	TimedStepHDLCModem3
	TimedStepHDLCModem4
	TimedStepCED
	TimedStepCED2
	TimedStepCNG
	TimedStepCNG2
	TimedStepPause
)

// DTEMode is the AT interpreter's notion of what the DTE byte stream means.
type DTEMode int

const (
	DTEModeOnHookCommand DTEMode = iota
	DTEModeOffHookCommand
	DTEModeHDLC
	DTEModeStuffed
	DTEModeDelivery
)

// Indicator is a T.38 indicator type (T.38 Table 1).
type Indicator int

const (
	IndNoSignal Indicator = iota
	IndCNG
	IndCED
	IndV21Preamble
	IndV27ter2400Training
	IndV27ter4800Training
	IndV29_7200Training
	IndV29_9600Training
	IndV17_7200ShortTraining
	IndV17_7200LongTraining
	IndV17_9600ShortTraining
	IndV17_9600LongTraining
	IndV17_12000ShortTraining
	IndV17_12000LongTraining
	IndV17_14400ShortTraining
	IndV17_14400LongTraining
	IndV8ANSam
	IndV8Signal
	IndV34CNTone
	IndV34PrTone
	IndV34CCTone
	IndV34PrEDTData
	IndV34CCEDTData
)

func (i Indicator) String() string {
	switch i {
	case IndNoSignal:
		return "no-signal"
	case IndCNG:
		return "cng"
	case IndCED:
		return "ced"
	case IndV21Preamble:
		return "v21-preamble"
	case IndV27ter2400Training:
		return "v27ter-2400-training"
	case IndV27ter4800Training:
		return "v27ter-4800-training"
	case IndV29_7200Training:
		return "v29-7200-training"
	case IndV29_9600Training:
		return "v29-9600-training"
	case IndV17_7200ShortTraining:
		return "v17-7200-short-training"
	case IndV17_7200LongTraining:
		return "v17-7200-long-training"
	case IndV17_9600ShortTraining:
		return "v17-9600-short-training"
	case IndV17_9600LongTraining:
		return "v17-9600-long-training"
	case IndV17_12000ShortTraining:
		return "v17-12000-short-training"
	case IndV17_12000LongTraining:
		return "v17-12000-long-training"
	case IndV17_14400ShortTraining:
		return "v17-14400-short-training"
	case IndV17_14400LongTraining:
		return "v17-14400-long-training"
	case IndV8ANSam, IndV8Signal, IndV34CNTone, IndV34PrTone, IndV34CCTone, IndV34PrEDTData, IndV34CCEDTData:
		return "passthrough"
	default:
		return fmt.Sprintf("indicator(%d)", int(i))
	}
}

// IsTrainingOrPreamble reports whether the indicator arms the mid-burst
// receive timeout per process_rx_indicator.
func (i Indicator) IsTrainingOrPreamble() bool {
	switch i {
	case IndV21Preamble,
		IndV27ter2400Training, IndV27ter4800Training,
		IndV29_7200Training, IndV29_9600Training,
		IndV17_7200ShortTraining, IndV17_7200LongTraining,
		IndV17_9600ShortTraining, IndV17_9600LongTraining,
		IndV17_12000ShortTraining, IndV17_12000LongTraining,
		IndV17_14400ShortTraining, IndV17_14400LongTraining:
		return true
	default:
		return false
	}
}

// DataType distinguishes the HDLC vs non-ECM T.38 data planes.
type DataType int

const (
	DataTypeNone DataType = iota
	DataTypeV21
	DataTypeV27ter2400
	DataTypeV27ter4800
	DataTypeV29_7200
	DataTypeV29_9600
	DataTypeV17_7200
	DataTypeV17_9600
	DataTypeV17_12000
	DataTypeV17_14400
)

// FieldType is a T.38 data field type (T.38 Table 2).
type FieldType int

const (
	FieldHDLCData FieldType = iota
	FieldHDLCFCSOK
	FieldHDLCFCSBad
	FieldHDLCFCSOKSigEnd
	FieldHDLCFCSBadSigEnd
	FieldHDLCSigEnd
	FieldT4NonECMData
	FieldT4NonECMSigEnd
)

func (f FieldType) String() string {
	switch f {
	case FieldHDLCData:
		return "hdlc-data"
	case FieldHDLCFCSOK:
		return "hdlc-fcs-ok"
	case FieldHDLCFCSBad:
		return "hdlc-fcs-bad"
	case FieldHDLCFCSOKSigEnd:
		return "hdlc-fcs-ok-sig-end"
	case FieldHDLCFCSBadSigEnd:
		return "hdlc-fcs-bad-sig-end"
	case FieldHDLCSigEnd:
		return "hdlc-sig-end"
	case FieldT4NonECMData:
		return "t4-non-ecm-data"
	case FieldT4NonECMSigEnd:
		return "t4-non-ecm-sig-end"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

// ATResponseCode is one of the fixed response strings the engine emits
// toward the DTE.
type ATResponseCode string

const (
	ATResponseOK         ATResponseCode = "OK"
	ATResponseError      ATResponseCode = "ERROR"
	ATResponseConnect    ATResponseCode = "CONNECT"
	ATResponseNoCarrier  ATResponseCode = "NO CARRIER"
	ATResponseFCError    ATResponseCode = "+FCERROR"
	ATResponseFRH3       ATResponseCode = "+FRH:3"
)

// ModemControlOp is a modem-control operation, either intercepted by the
// engine or deferred to the host.
type ModemControlOp int

const (
	ModemControlAnswer ModemControlOp = iota
	ModemControlCall
	ModemControlOnHook
	ModemControlRestart
	ModemControlDTETimeout
	ModemControlHangup
	ModemControlCTS
)

// DTE framing bytes.
const (
	DLE byte = 0x10
	ETX byte = 0x03
	SUB byte = 0x1A
)

// Buffer sizing and timing constants, lifted from the T.31 reference values.
const (
	TXBufLen               = 16384
	HDLCTxBufLen           = 266
	HDLCRxBufLen           = 256
	HDLCRxMaxLen           = 254
	MsPerTxChunk           = 30
	IndicatorTxCount       = 3
	DataTxCount            = 1
	DataEndTxCount         = 3
	MaxOctetsPerUnpacedChunk = 300
	MidRxTimeoutMs         = 15000
	DefaultDTETimeoutMs    = 5000
	SilenceThresholdDBm0   = -36
	CTSHoldMargin          = 1024

	// SampleRate is the fixed 8kHz sample clock every timing constant in
	// this package is expressed against.
	SampleRate = 8000
)
