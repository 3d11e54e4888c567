package engine

import (
	"log/slog"

	"github.com/t31hub/t31hub/internal/fsconst"
	"github.com/t31hub/t31hub/internal/metrics"
	"github.com/t31hub/t31hub/internal/queue"
)

// rxQueueCapacity bounds the number of queued DTE responses (t31_init used
// a 4096-byte atomic queue; this core's queue is message-counted instead of
// byte-counted, so the bound is expressed in messages).
const rxQueueCapacity = 64

// New constructs an Engine wired to the given capability objects. atTx and
// modemCtl are required; t38 may be nil to run analog-only.
func New(cfg Config, analog AnalogModems, t38 T38Core, atResponder ATResponder, atTx ATTxHandler, modemCtl ModemControlHandler, m *metrics.Metrics, log *slog.Logger) (*Engine, error) {
	if atTx == nil || modemCtl == nil || atResponder == nil {
		return nil, ErrNilHandler
	}
	if log == nil {
		log = slog.Default()
	}

	e := &Engine{
		line:            cfg.Line,
		log:             log.With("line", cfg.Line),
		metrics:         m,
		t38Mode:         cfg.T38Mode,
		analog:          analog,
		t38:             t38,
		atResponder:     atResponder,
		atTx:            atTx,
		modemCtl:        modemCtl,
		modem:           fsconst.ModemNone,
		rxQueue:         queue.New(rxQueueCapacity),
		adaptiveReceive: cfg.AdaptiveReceive,
		hdlcTxBuf:       make([]byte, 0, fsconst.HDLCTxBufLen),
		currentByte:     0xFF,
	}

	if analog != nil {
		e.powerMeter = analog.PowerMeter()
		e.rxHandler = analog.DummyRx()
		e.silenceThresholdPower = e.powerMeter.LevelDBm0(fsconst.SilenceThresholdDBm0)
	} else {
		e.silenceThresholdPower = silenceThresholdCode(fsconst.SilenceThresholdDBm0)
	}

	if cfg.WithoutPacing {
		e.indicatorTxCount = 0
		e.dataEndTxCount = 1
		e.msPerTxChunk = 0
	} else {
		e.indicatorTxCount = fsconst.IndicatorTxCount
		e.dataEndTxCount = fsconst.DataEndTxCount
		e.msPerTxChunk = fsconst.MsPerTxChunk
	}

	timeout := cfg.DefaultDTETimeoutMs
	if timeout == 0 {
		timeout = fsconst.DefaultDTETimeoutMs
	}
	e.dteInactivityTimeoutMs = timeout

	return e, nil
}

// silenceThresholdCode converts a dBm0 level to the internal power code
// used by PowerMeter.Update's comparisons; kept as a method on PowerMeter
// in production DSP code, approximated here as a pure function since the
// DSP object itself is supplied externally.
func silenceThresholdCode(dbm0 float64) int32 {
	// The real conversion lives in the supplied PowerMeter implementation;
	// callers needing the exact analog threshold should call
	// PowerMeter.LevelDBm0 once it is wired. This placeholder keeps New
	// usable before an AnalogModems is attached (e.g. while testing the
	// DTE framers in isolation).
	return int32(dbm0 * 100)
}

// Release tears the engine down. It is idempotent.
func (e *Engine) Release() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.released {
		return nil
	}
	e.released = true
	e.rxQueue.Flush()
	return nil
}

func (e *Engine) checkReleased() error {
	if e.released {
		return ErrNotInitialized
	}
	return nil
}

// SetStatusSink attaches (or clears, with nil) the optional modem-status
// observer. It may be called at any time; RestartModem reads it fresh on
// every transition.
func (e *Engine) SetStatusSink(s StatusSink) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.statusSink = s
}
