package engine

import "github.com/t31hub/t31hub/internal/fsconst"

// This file declares every capability the engine consumes as an opaque
// interface with a fixed method shape, replacing the function-pointer +
// void* user-data pattern of the original C core (see the "Pattern
// re-architecture" notes this engine was built against). Implementations
// of these interfaces live outside this package: the DSP modulator/
// demodulator objects, the T.38 wire codec and the AT command interpreter
// are all explicitly out of this core's scope.

// SampleSink receives a block of 8kHz PCM samples. It is the shape of
// rx_handler: the currently installed analog receiver (a fast-modem
// demodulator, the V.21 FSK+HDLC receiver, the CNG/silence detector, or the
// no-op idle receiver).
type SampleSink interface {
	FeedSamples(amp []int16)
}

// SampleSource produces a block of 8kHz PCM samples, writing up to len(amp)
// of them and returning the count actually produced. Returning fewer than
// len(amp) signals "this source has nothing more to say right now", the
// same underflow signal tx_handler returns in t31_tx.
type SampleSource interface {
	ProduceSamples(amp []int16) int
}

// BitSink is the per-bit receive callback a fast-modem demodulator (V.17,
// V.27ter, V.29) calls back into, matching non_ecm_put_bit's shape
// including its negative special-condition codes.
type BitSink interface {
	PutBit(bit int)
}

// Special negative "bit" values carrying receiver lifecycle events,
// matching the PUTBIT_* sentinels put_bit callbacks use instead of 0/1.
const (
	BitCarrierUp = -(iota + 1)
	BitCarrierDown
	BitTrainingFailed
	BitTrainingSucceeded
	BitFramingOK
	BitEndOfData
)

// BitSource is the per-bit transmit callback a fast-modem modulator calls
// back into, matching non_ecm_get_bit's shape.
type BitSource interface {
	GetBit() int
}

// FrameSink is the per-frame receive callback the V.21 HDLC receiver calls
// back into, matching hdlc_accept's (msg, len, ok) shape. The Bit* lifecycle
// sentinels above arrive separately through AcceptEvent.
type FrameSink interface {
	AcceptFrame(msg []byte, ok bool)
	AcceptEvent(event int)
}

// HDLCFramer is the external HDLC framer the engine hands completed
// transmit frames to once DLE-unstuffed from the DTE, matching
// hdlc_tx_frame's shape. final marks the last frame of a T.30 phase.
type HDLCFramer interface {
	TxFrame(msg []byte, final bool)
}

// HDLCUnderflowSink receives the external HDLC framer's underflow
// notification once it runs out of queued frames, matching
// hdlc_tx_underflow's shape.
type HDLCUnderflowSink interface {
	HDLCTxUnderflow()
}

// ToneSpec describes one tone-generator descriptor segment (one or two
// frequencies and a duration) the way tone_gen_descriptor_t chains them; it
// carries no level.
type ToneSpec struct {
	FreqHz1    float64
	FreqHz2    float64
	DurationMs int
}

// AnalogModems is the factory for every analog DSP capability object this
// core drives but does not implement itself. Each Rx/Tx factory method
// takes the engine's own bit-level callback implementation so the DSP
// object can call back into the engine without a cyclic owning reference.
type AnalogModems interface {
	FastRx(role fsconst.Modem, bitRate int, sink BitSink) SampleSink
	FastTx(role fsconst.Modem, bitRate int, shortTrain bool, source BitSource) SampleSource
	V21Rx(sink FrameSink) SampleSink
	V21Tx(preambleOctets int, underflow HDLCUnderflowSink) (SampleSource, HDLCFramer)
	ToneGen(segments []ToneSpec) SampleSource
	SilenceGen() SampleSource
	DummyRx() SampleSink
	PowerMeter() PowerMeter
}

// PowerMeter tracks a running estimate of signal power for silence
// detection, the shape of power_meter_t.
type PowerMeter interface {
	Update(sample int16) int32
	LevelDBm0(dbm0 float64) int32
}

// T38Core is the outbound T.38 wire-protocol codec; it turns typed
// indicators and data fields into IFP packets and is responsible for
// resending them tx_count times per pacing policy.
type T38Core interface {
	SendIndicator(ind fsconst.Indicator, count int) error
	SendData(dataType fsconst.DataType, field fsconst.FieldType, buf []byte, count int) error
}

// ATResponder is the external AT command interpreter's response-code sink;
// the engine never writes AT response text itself, it asks the
// interpreter to emit one, matching at_put_response_code.
type ATResponder interface {
	PutResponseCode(code fsconst.ATResponseCode)
	SetRxMode(mode fsconst.DTEMode)
}

// ModemControlHandler receives host-level modem control requests the
// engine cannot satisfy itself (CTS assert/deassert, HANGUP), matching
// at_modem_control.
type ModemControlHandler interface {
	ModemControl(op fsconst.ModemControlOp, arg int) error
}

// ATTxHandler is where DLE-stuffed bytes destined for the DTE are written,
// matching at_tx_handler.
type ATTxHandler interface {
	WriteToDTE(buf []byte) error
}

// StatusSink is an optional external observer of modem-role transitions,
// with no equivalent in the original (which had no admin surface at all).
// An Engine with no StatusSink attached behaves exactly as if this
// interface did not exist.
type StatusSink interface {
	ModemStatusChanged(line int, modem fsconst.Modem)
}
