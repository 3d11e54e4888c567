package engine

import (
	"context"

	"github.com/t31hub/t31hub/internal/fsconst"
	"go.opentelemetry.io/otel"
)

// This file implements the T.38 receive path: indicator and data-field
// arrival handlers plus gap detection, matching process_rx_indicator,
// process_rx_data and process_rx_missing.

const midRxTimeoutSamples = fsconst.MidRxTimeoutMs * fsconst.SampleRate / 1000

// ProcessRxIndicator handles a T.38 indicator arrival.
func (e *Engine) ProcessRxIndicator(ind fsconst.Indicator) {
	_, span := otel.Tracer("t31hub").Start(context.Background(), "Engine.ProcessRxIndicator")
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	if ind == e.currentRxIndicator {
		return
	}
	e.currentRxIndicator = ind

	if ind == fsconst.IndNoSignal {
		switch e.modem {
		case fsconst.ModemV21RX, fsconst.ModemCNGTone, fsconst.ModemNoCNGTone:
			e.acceptEventLocked(BitCarrierDown)
		}
	}
	if ind.IsTrainingOrPreamble() {
		e.timeoutRxSamples = e.samples + midRxTimeoutSamples
	}

	e.hdlcRxLen = 0
	e.missingData = false
}

// ProcessRxData handles a T.38 data-field arrival. buf is caller-owned and
// must not be retained past the call.
func (e *Engine) ProcessRxData(dataType fsconst.DataType, field fsconst.FieldType, buf []byte) {
	_, span := otel.Tracer("t31hub").Start(context.Background(), "Engine.ProcessRxData")
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()

	switch field {
	case fsconst.FieldHDLCData:
		e.handleHDLCData(buf)
	case fsconst.FieldHDLCFCSOK:
		e.deliverHDLCIfReady()
	case fsconst.FieldHDLCFCSBad:
		e.log.Debug("t38 hdlc fcs bad")
		e.hdlcRxLen = 0
	case fsconst.FieldHDLCFCSOKSigEnd:
		e.deliverHDLCIfReady()
		e.acceptEventLocked(BitCarrierDown)
		e.hdlcRxLen = 0
	case fsconst.FieldHDLCFCSBadSigEnd, fsconst.FieldHDLCSigEnd:
		e.acceptEventLocked(BitCarrierDown)
		e.hdlcRxLen = 0
	case fsconst.FieldT4NonECMData:
		e.handleNonECMData(dataType, buf)
	case fsconst.FieldT4NonECMSigEnd:
		e.handleNonECMSigEnd(dataType, field, buf)
	}
}

func (e *Engine) handleHDLCData(buf []byte) {
	if e.timeoutRxSamples == 0 {
		e.timeoutRxSamples = e.samples + midRxTimeoutSamples
		e.hdlcRxLen = 0
		e.missingData = false
	}
	if e.hdlcRxLen == 0 && len(buf) > 0 && buf[0] != 0xFF {
		e.missingData = true
	}
	for _, b := range buf {
		if e.hdlcRxLen >= fsconst.HDLCRxMaxLen {
			break
		}
		e.hdlcRxBuf[e.hdlcRxLen] = fsconst.ReverseByte(b)
		e.hdlcRxLen++
	}
	e.timeoutRxSamples = e.samples + midRxTimeoutSamples
}

// deliverHDLCIfReady is the redesign-flag fix: the original gated delivery
// on a stray tx_out_bytes check; this gates on the actually-reassembled
// frame length instead.
func (e *Engine) deliverHDLCIfReady() {
	if e.hdlcRxLen > 0 && !e.missingData && e.modem == fsconst.ModemV21RX {
		e.acceptFrameLocked(e.hdlcRxBuf[:e.hdlcRxLen], true)
	}
	e.hdlcRxLen = 0
}

func (e *Engine) handleNonECMData(dataType fsconst.DataType, buf []byte) {
	if !e.rxTrained {
		e.rxTrained = true
		e.acceptEventLocked(BitFramingOK)
	}
	for _, b := range buf {
		e.deliverNonECMByte(fsconst.ReverseByte(b))
	}
	e.timeoutRxSamples = e.samples + midRxTimeoutSamples
	e.currentRxDataType = dataType
}

func (e *Engine) handleNonECMSigEnd(dataType fsconst.DataType, field fsconst.FieldType, buf []byte) {
	if dataType == e.currentRxDataType && field == e.currentRxFieldType {
		return // duplicate SIG_END, already delivered
	}
	e.currentRxFieldType = field
	for _, b := range buf {
		e.deliverNonECMByte(fsconst.ReverseByte(b))
	}
	e.deliverNonECMEnd()
	e.timeoutRxSamples = 0
}

// deliverNonECMEnd reports the end of a T.38 non-ECM image burst the way
// nonECMCarrierDown does for the analog path: the DLE-ETX trailer, NO
// CARRIER, and a return to command mode. It is a no-op if no image byte was
// delivered since the last end.
func (e *Engine) deliverNonECMEnd() {
	if !e.rxMessageReceived {
		return
	}
	e.rxMessageReceived = false
	_ = e.atTx.WriteToDTE([]byte{fsconst.DLE, fsconst.ETX})
	e.atResponder.PutResponseCode(fsconst.ATResponseNoCarrier)
	e.atResponder.SetRxMode(fsconst.DTEModeOffHookCommand)
}

// ProcessRxMissing records a T.38 sequence-number gap, matching
// process_rx_missing.
func (e *Engine) ProcessRxMissing(rxSeqNo, expectedSeqNo int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.missingData = true
	e.log.Debug("t38 sequence gap", "got", rxSeqNo, "expected", expectedSeqNo)
}

// checkMidBurstTimeout is polled by the sample harness: if a training
// indicator's mid-burst timeout has elapsed without further data, the
// transfer is reported complete and the timeout disarmed.
func (e *Engine) checkMidBurstTimeout() {
	if e.timeoutRxSamples == 0 {
		return
	}
	if e.samples < e.timeoutRxSamples {
		return
	}
	e.timeoutRxSamples = 0
	if e.metrics != nil {
		e.metrics.MidBurstTimeoutsTotal.Inc()
	}
	e.log.Debug("t38 mid-burst timeout")
	_ = e.modemCtl.ModemControl(fsconst.ModemControlRestart, 0)
}
