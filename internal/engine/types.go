// Package engine implements the T.31 Class 1 FAX modem core: the
// single-threaded, per-call state machine that mediates between a DTE
// speaking AT Class 1 and either an analog V.17/V.21/V.27ter/V.29 audio
// path or a T.38 packet gateway.
//
// The engine owns no DSP, no T.38 wire codec and no AT text parser; those
// are supplied at construction as capability objects (see callbacks.go).
// Every exported method is an entry point meant to be called synchronously
// by exactly one external driver per Engine instance; see the package
// README-equivalent, the concurrency section of the design this engine was
// built against, for the full contract.
package engine

import (
	"log/slog"
	"sync"

	"github.com/t31hub/t31hub/internal/fsconst"
	"github.com/t31hub/t31hub/internal/metrics"
	"github.com/t31hub/t31hub/internal/queue"
)

// Engine holds one call's worth of T.31 state. Create one per DTE line with
// New; an Engine is not safe for concurrent entry (see package docs).
type Engine struct {
	mu sync.Mutex

	// Identity / wiring.
	line        int
	log         *slog.Logger
	metrics     *metrics.Metrics
	t38Mode     bool
	analog      AnalogModems
	t38         T38Core
	atResponder ATResponder
	atTx        ATTxHandler
	modemCtl    ModemControlHandler
	statusSink  StatusSink

	released bool

	// Modem lifecycle (spec §3, restart_modem).
	modem      fsconst.Modem
	bitRate    int
	shortTrain bool

	rxHandler SampleSink
	txHandler SampleSource

	nextTxHandler SampleSource

	// Non-ECM TX ring buffer: image bytes from the DTE headed for a fast
	// modem. 0 <= txOutBytes <= txInBytes <= len(txData).
	txData      [fsconst.TXBufLen]byte
	txInBytes   int
	txOutBytes  int
	txHolding   bool
	txDataStarted bool
	dataFinal   bool

	// transmit is true whenever the currently installed tx_handler is
	// actively sending (as opposed to the silent or passthrough tx of the
	// NoCNG, V21RX, fast-modem RX and SilenceRX roles), matching the
	// original's transmit flag.
	transmit bool

	// Outbound HDLC frame assembly (DTE -> modem).
	hdlcTxBuf  []byte
	hdlcFinal  bool
	hdlcFramer HDLCFramer

	// Inbound HDLC frame assembly (T.38 rx or V.21 demod -> DTE).
	hdlcRxBuf [fsconst.HDLCRxBufLen]byte
	hdlcRxLen int

	// DLE-unstuff lookahead state, shared shape for both DTE framers.
	dled bool

	// Bit-to-byte accumulator for the DTE uplink (non_ecm_put_bit /
	// hdlc_accept framing).
	bitNo       int
	currentByte byte

	// Sample clock.
	samples     int64
	callSamples int64

	// T.38 transmit scheduler state (spec §4.5).
	timedStep         fsconst.TimedStep
	nextTxSamples     int64
	nextTxIndicator   fsconst.Indicator
	currentTxIndicator fsconst.Indicator
	currentTxDataType fsconst.DataType
	octetsPerDataPacket int
	msPerTxChunk      int
	indicatorTxCount  int
	dataEndTxCount    int
	trailerBytes      int
	mergeTxFields     bool
	needsPreambleFlags bool

	// T.38 receive state (spec §4.6).
	currentRxIndicator fsconst.Indicator
	currentRxType      fsconst.DataType
	currentRxDataType  fsconst.DataType
	currentRxFieldType fsconst.FieldType
	timeoutRxSamples   int64
	missingData        bool

	// Flow/timeout state.
	dteDataTimeout int64 // absolute sample deadline; 0 disarms.
	dteInactivityTimeoutMs int64
	useTEP         bool
	adaptiveReceive bool
	transmitOnIdle bool

	// Receiver phase flags.
	rxSignalPresent  bool
	rxTrained        bool
	rxMessageReceived bool

	// DTE response delivery.
	rxQueue      *queue.Queue
	dteIsWaiting bool
	okIsPending  bool

	// Silence detection (t31_rx).
	powerMeter           PowerMeter
	lastSample           int16
	silenceThresholdPower int32
	silenceHeard         int64
	silenceAwaited       int64
	doHangup             bool
}

// Config carries the tunables New needs beyond the required callbacks.
type Config struct {
	Line                int
	T38Mode             bool
	AdaptiveReceive     bool
	WithoutPacing       bool
	DefaultDTETimeoutMs int64
}
