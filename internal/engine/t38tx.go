package engine

import (
	"context"

	"github.com/t31hub/t31hub/internal/fsconst"
	"go.opentelemetry.io/otel"
)

// This file implements the T.38 transmit scheduler: a sample-clock-driven
// linear state machine that paces indicator and data-field emission for
// CED/CNG tones, the V.21 preamble, non-ECM image data and HDLC frames,
// matching t31_t38_send_timeout.

// trailerZeroChunks is the number of zero-filled trailer chunks emitted
// after the last real non-ECM data chunk, matching the original's
// hard-coded 3-chunk padding before SIG_END.
const trailerZeroChunks = 3

const (
	noSignalLeadMs  = 75
	hdlcTrailerMs   = 60
	cedLeadSilenceMs = 200
	cedIndicatorMs  = 3000
	cngLeadSilenceMs = 200
)

// T38SendTimeout advances the T.38 transmit scheduler. samples is the
// engine's current sample-clock value; the scheduler is a no-op unless it
// has reached or passed nextTxSamples. Callers driving the engine purely
// off the T.38 packet clock (rather than a co-located sample clock via Rx)
// use this entry point instead of relying on Rx to pump the scheduler.
func (e *Engine) T38SendTimeout(samples int64) {
	_, span := otel.Tracer("t31hub").Start(context.Background(), "Engine.T38SendTimeout")
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()
	e.samples = samples
	e.advanceT38Scheduler()
}

// advanceT38Scheduler runs one scheduler step if due. Caller must hold mu.
func (e *Engine) advanceT38Scheduler() {
	if e.timedStep == fsconst.TimedStepNone {
		return
	}
	if e.samples < e.nextTxSamples {
		return
	}

	switch e.timedStep {
	case fsconst.TimedStepNonECMModem:
		e.stepNonECMModem1()
	case fsconst.TimedStepNonECMModem2:
		e.stepNonECMModem2()
	case fsconst.TimedStepNonECMModem3:
		e.stepNonECMModem3()
	case fsconst.TimedStepNonECMModem4:
		e.stepNonECMModem4()
	case fsconst.TimedStepNonECMModem5:
		e.stepNonECMModem5()
	case fsconst.TimedStepHDLCModem:
		e.stepHDLCModem1()
	case fsconst.TimedStepHDLCModem2:
		e.stepHDLCModem2()
	case fsconst.TimedStepHDLCModem3:
		e.stepHDLCModem3()
	case fsconst.TimedStepHDLCModem4:
		e.stepHDLCModem4()
	case fsconst.TimedStepCED:
		e.stepCED1()
	case fsconst.TimedStepCED2:
		e.stepCED2()
	case fsconst.TimedStepCNG:
		e.stepCNG1()
	case fsconst.TimedStepCNG2:
		e.stepCNG2()
	case fsconst.TimedStepPause:
		e.timedStep = fsconst.TimedStepNone
	}
}

func (e *Engine) armDeadlineMs(ms int) {
	e.nextTxSamples = e.samples + int64(ms)*fsconst.SampleRate/1000
}

func (e *Engine) trainingDurationMs(ind fsconst.Indicator) int {
	tt, ok := fsconst.TrainingTimes[ind]
	if !ok {
		return 0
	}
	return tt.Duration(e.useTEP, e.needsPreambleFlags)
}

// --- non-ECM image transfer --------------------------------------------

func (e *Engine) stepNonECMModem1() {
	_ = e.t38.SendIndicator(fsconst.IndNoSignal, e.indicatorTxCount)
	e.armDeadlineMs(noSignalLeadMs)
	e.timedStep = fsconst.TimedStepNonECMModem2
}

func (e *Engine) stepNonECMModem2() {
	_ = e.t38.SendIndicator(e.nextTxIndicator, e.indicatorTxCount)
	e.currentTxIndicator = e.nextTxIndicator
	e.armDeadlineMs(e.trainingDurationMs(e.nextTxIndicator))
	e.timedStep = fsconst.TimedStepNonECMModem3
	e.trailerBytes = 0
}

func (e *Engine) stepNonECMModem3() {
	n := e.octetsPerDataPacket
	avail := e.txInBytes - e.txOutBytes
	chunk := n
	if avail < chunk {
		chunk = avail
	}
	buf := make([]byte, chunk)
	copy(buf, e.txData[e.txOutBytes:e.txOutBytes+chunk])
	e.txOutBytes += chunk
	e.maybeDeassertCTS()

	_ = e.t38.SendData(e.currentTxDataType, fsconst.FieldT4NonECMData, buf, fsconst.DataTxCount)

	if chunk < n || (avail == chunk && e.dataFinal) {
		e.trailerBytes = trailerZeroChunks
		e.timedStep = fsconst.TimedStepNonECMModem4
	}
	e.armDeadlineMs(e.msPerTxChunk)
}

func (e *Engine) stepNonECMModem4() {
	if e.trailerBytes > 0 {
		e.trailerBytes--
		_ = e.t38.SendData(e.currentTxDataType, fsconst.FieldT4NonECMData, make([]byte, e.octetsPerDataPacket), fsconst.DataTxCount)
		e.armDeadlineMs(e.msPerTxChunk)
		return
	}
	_ = e.t38.SendData(e.currentTxDataType, fsconst.FieldT4NonECMSigEnd, nil, e.dataEndTxCount)
	e.armDeadlineMs(hdlcTrailerMs)
	e.timedStep = fsconst.TimedStepNonECMModem5
}

func (e *Engine) stepNonECMModem5() {
	_ = e.t38.SendIndicator(fsconst.IndNoSignal, e.indicatorTxCount)
	e.timedStep = fsconst.TimedStepNone
	e.reportTxComplete()
}

// --- HDLC frame transfer -------------------------------------------------

func (e *Engine) stepHDLCModem1() {
	_ = e.t38.SendIndicator(fsconst.IndNoSignal, e.indicatorTxCount)
	e.armDeadlineMs(noSignalLeadMs)
	e.timedStep = fsconst.TimedStepHDLCModem2
}

func (e *Engine) stepHDLCModem2() {
	_ = e.t38.SendIndicator(fsconst.IndV21Preamble, e.indicatorTxCount)
	e.armDeadlineMs(e.trainingDurationMs(fsconst.IndV21Preamble))
	e.timedStep = fsconst.TimedStepHDLCModem3
}

func (e *Engine) stepHDLCModem3() {
	if len(e.hdlcTxBuf) == 0 {
		e.armDeadlineMs(e.msPerTxChunk)
		return
	}
	n := e.octetsPerDataPacket
	final := n >= len(e.hdlcTxBuf)
	if final {
		n = len(e.hdlcTxBuf)
	}
	chunk := e.hdlcTxBuf[:n]
	e.hdlcTxBuf = e.hdlcTxBuf[n:]

	if !final {
		_ = e.t38.SendData(fsconst.DataTypeV21, fsconst.FieldHDLCData, chunk, fsconst.DataTxCount)
		e.armDeadlineMs(e.msPerTxChunk)
		return
	}

	if e.mergeTxFields {
		field := fsconst.FieldHDLCFCSOK
		if e.hdlcFinal {
			field = fsconst.FieldHDLCFCSOKSigEnd
		}
		_ = e.t38.SendData(fsconst.DataTypeV21, fsconst.FieldHDLCData, chunk, fsconst.DataTxCount)
		_ = e.t38.SendData(fsconst.DataTypeV21, field, nil, e.dataEndTxCount)
	} else {
		_ = e.t38.SendData(fsconst.DataTypeV21, fsconst.FieldHDLCData, chunk, fsconst.DataTxCount)
	}
	e.armDeadlineMs(e.msPerTxChunk)
	e.timedStep = fsconst.TimedStepHDLCModem4
}

func (e *Engine) stepHDLCModem4() {
	if !e.mergeTxFields {
		field := fsconst.FieldHDLCFCSOK
		if e.hdlcFinal {
			field = fsconst.FieldHDLCFCSOKSigEnd
		}
		_ = e.t38.SendData(fsconst.DataTypeV21, field, nil, e.dataEndTxCount)
	}
	if e.hdlcFinal {
		e.armDeadlineMs(hdlcTrailerMs)
		e.timedStep = fsconst.TimedStepNonECMModem5
		return
	}
	e.timedStep = fsconst.TimedStepNone
	e.reportTxComplete()
}

// --- tones ----------------------------------------------------------------

func (e *Engine) stepCED1() {
	_ = e.t38.SendIndicator(fsconst.IndNoSignal, e.indicatorTxCount)
	e.armDeadlineMs(cedLeadSilenceMs)
	e.timedStep = fsconst.TimedStepCED2
}

func (e *Engine) stepCED2() {
	_ = e.t38.SendIndicator(fsconst.IndCED, e.indicatorTxCount)
	e.armDeadlineMs(cedIndicatorMs)
	e.timedStep = fsconst.TimedStepPause
}

func (e *Engine) stepCNG1() {
	_ = e.t38.SendIndicator(fsconst.IndNoSignal, e.indicatorTxCount)
	e.armDeadlineMs(cngLeadSilenceMs)
	e.timedStep = fsconst.TimedStepCNG2
}

func (e *Engine) stepCNG2() {
	_ = e.t38.SendIndicator(fsconst.IndCNG, e.indicatorTxCount)
	e.timedStep = fsconst.TimedStepNone
}

// reportTxComplete notifies the host a T.38 send cycle has finished so it
// can cycle the modem role, matching the original's fall-through into
// at_modem_control(RESTART) once a scheduled transfer drains.
func (e *Engine) reportTxComplete() {
	_ = e.modemCtl.ModemControl(fsconst.ModemControlRestart, 0)
}
