package engine

import "github.com/t31hub/t31hub/internal/fsconst"

// This file implements the Engine's bit- and frame-level callbacks: the
// methods that satisfy BitSink, BitSource, FrameSink and HDLCUnderflowSink
// so an externally-supplied DSP object can drive the engine one bit or one
// frame at a time, matching non_ecm_put_bit, non_ecm_get_bit and
// hdlc_accept.

// flushThreshold is the number of queued TX bytes below which a stalled
// image transfer is considered flushed and can be abandoned; it mirrors the
// original's hard-coded 250-byte drain check in non_ecm_get_bit.
const flushThreshold = 250

// ctsAssertMargin/ctsDeassertMargin are the ring-buffer fill levels at
// which the engine asks the host to flow-control the DTE, the shape of the
// original's two CTS threshold checks in at_tx_handler/non_ecm_put_bit.
const (
	ctsDeassertMargin = fsconst.TXBufLen - fsconst.CTSHoldMargin
	ctsAssertMargin   = fsconst.CTSHoldMargin
)

// PutBit implements BitSink: it is called once per demodulated bit (or
// lifecycle sentinel) by whichever fast-modem receiver is currently
// installed.
func (e *Engine) PutBit(bit int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch bit {
	case BitCarrierUp:
		e.rxSignalPresent = true
		return
	case BitCarrierDown:
		e.nonECMCarrierDown()
		e.rxSignalPresent = false
		e.rxTrained = false
		return
	case BitTrainingFailed:
		e.rxTrained = false
		return
	case BitTrainingSucceeded:
		e.rxTrained = true
		if r, ok := e.rxHandler.(*earlyRx); ok {
			r.resolveFast()
		}
		return
	}

	e.currentByte >>= 1
	if bit != 0 {
		e.currentByte |= 0x80
	}
	e.bitNo++
	if e.bitNo < 8 {
		return
	}
	e.bitNo = 0
	e.deliverNonECMByte(e.currentByte)
	e.currentByte = 0xFF
}

// deliverNonECMByte pushes one assembled non-ECM image byte to the DTE,
// DLE-stuffing it (a literal DLE is doubled); no other byte value is
// substituted.
func (e *Engine) deliverNonECMByte(b byte) {
	if !e.rxMessageReceived {
		e.rxMessageReceived = true
	}
	e.writeStuffedToDTE([]byte{b})
}

// nonECMCarrierDown finalizes a non-ECM image transfer once the fast-modem
// demodulator reports carrier loss, emitting the DLE-ETX trailer and a
// NO CARRIER response and returning the DTE to command mode, matching
// non_ecm_put_bit's PUTBIT_CARRIER_DOWN case. It is a no-op if no carrier
// was ever detected in the first place.
func (e *Engine) nonECMCarrierDown() {
	if !e.rxSignalPresent {
		return
	}
	e.rxMessageReceived = false
	_ = e.atTx.WriteToDTE([]byte{fsconst.DLE, fsconst.ETX})
	e.atResponder.PutResponseCode(fsconst.ATResponseNoCarrier)
	e.atResponder.SetRxMode(fsconst.DTEModeOffHookCommand)
}

// GetBit implements BitSource: it is called once per bit the fast-modem
// transmitter needs next, matching non_ecm_get_bit including the redesign
// flag that replaces the original's silent clamp-on-exhaustion with an
// explicit error surfaced through ModemControl.
func (e *Engine) GetBit() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.bitNo == 0 {
		if e.txOutBytes >= e.txInBytes {
			if e.dataFinal {
				return BitEndOfData
			}
			// Buffer ran dry without a final marker: the original clamps to
			// an all-ones byte and keeps transmitting garbage forever. This
			// core instead reports the condition through ModemControl
			// (DTETimeout) at every byte boundary the buffer is still empty,
			// logging a warning if that call fails, and sends an idle
			// (all-ones) byte so the modem can still be unwound cleanly by
			// the caller.
			if err := e.modemCtl.ModemControl(fsconst.ModemControlDTETimeout, 0); err != nil {
				e.log.Warn("tx buffer exhausted", "err", ErrTxBufferExhausted)
			}
			e.currentByte = 0xFF
		} else {
			e.currentByte = e.txData[e.txOutBytes]
			e.txOutBytes++
			e.maybeDeassertCTS()
		}
		e.bitNo = 8
	}
	bit := int(e.currentByte & 1)
	e.currentByte >>= 1
	e.bitNo--
	return bit
}

// maybeDeassertCTS re-enables the DTE's transmit flow once the ring buffer
// has drained below the low-water mark, matching non_ecm_get_bit's
// companion half of the CTS handshake in at_tx_handler.
func (e *Engine) maybeDeassertCTS() {
	if e.txInBytes-e.txOutBytes < ctsDeassertMargin {
		_ = e.modemCtl.ModemControl(fsconst.ModemControlCTS, 1)
	}
}

// maybeAssertCTS holds off further DTE bytes once the ring buffer nears
// capacity, matching the other half of the same handshake.
func (e *Engine) maybeAssertCTS() {
	if fsconst.TXBufLen-e.txInBytes < ctsAssertMargin {
		_ = e.modemCtl.ModemControl(fsconst.ModemControlCTS, 0)
	}
}

// AcceptFrame implements FrameSink: called once per complete HDLC frame the
// V.21 receiver has descrambled and FCS-checked, matching hdlc_accept's
// (msg, ok) branch.
func (e *Engine) AcceptFrame(msg []byte, ok bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.acceptFrameLocked(msg, ok)
}

// acceptFrameLocked is AcceptFrame's body for callers that already hold mu
// (the T.38 receive path delivers reassembled frames the same way). It
// always delivers the frame and its FCS to the DTE and reports exactly one
// response per frame, matching hdlc_accept: OK/ERROR immediately for an
// ordinary frame, but a DCN frame's OK is deferred until the carrier
// itself drops (acceptEventLocked's BitCarrierDown case), to avoid
// redetecting the same carrier a second time.
func (e *Engine) acceptFrameLocked(msg []byte, ok bool) {
	if r, isEarly := e.rxHandler.(*earlyRx); isEarly {
		r.fast = nil
	}

	if e.okIsPending {
		// A DCN response is already queued behind the carrier dropping;
		// further frames are ignored until then, matching hdlc_accept's
		// "if (!ok_is_pending)" guard.
		return
	}

	n := copy(e.hdlcRxBuf[:], msg)
	e.hdlcRxLen = n
	e.rxMessageReceived = true

	e.writeStuffedToDTE(msg)
	_ = e.atTx.WriteToDTE([]byte{fsconst.DLE, fsconst.ETX})

	if !ok {
		e.missingData = true
		e.log.Debug("hdlc frame dropped", "len", len(msg))
		e.atResponder.PutResponseCode(fsconst.ATResponseError)
		return
	}
	e.missingData = false

	if len(msg) > 1 && msg[1] == 0x13 {
		e.okIsPending = true
		return
	}

	e.atResponder.PutResponseCode(fsconst.ATResponseOK)
}

// AcceptEvent implements FrameSink's lifecycle half: framing-OK and
// carrier-loss notifications that do not carry frame bytes.
func (e *Engine) AcceptEvent(event int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.acceptEventLocked(event)
}

// acceptEventLocked is AcceptEvent's body for callers that already hold mu.
func (e *Engine) acceptEventLocked(event int) {
	switch event {
	case BitFramingOK:
		e.rxTrained = true
		if r, isEarly := e.rxHandler.(*earlyRx); isEarly && e.adaptiveReceive {
			r.fast = nil
		}
	case BitCarrierDown:
		// hdlc_accept's PUTBIT_CARRIER_DOWN: once the carrier that was
		// delivering frames actually drops, report the final response for
		// the burst — OK if a DCN deferred it, NO CARRIER otherwise — and
		// return the DTE to command mode.
		if e.rxMessageReceived {
			code := fsconst.ATResponseNoCarrier
			if e.okIsPending {
				code = fsconst.ATResponseOK
				e.okIsPending = false
			}
			e.atResponder.PutResponseCode(code)
			e.atResponder.SetRxMode(fsconst.DTEModeOffHookCommand)
			e.rxMessageReceived = false
		}
		e.rxSignalPresent = false
		e.rxTrained = false
	case BitCarrierUp:
		e.rxSignalPresent = true
	}
}

// HDLCTxUnderflow implements HDLCUnderflowSink: the installed V.21 HDLC
// framer calls this once it has exhausted the last frame handed to it via
// TxFrame, matching hdlc_tx_underflow.
func (e *Engine) HDLCTxUnderflow() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.hdlcTxBuf) == 0 && e.hdlcFinal {
		_ = e.modemCtl.ModemControl(fsconst.ModemControlDTETimeout, 0)
		return
	}
	if len(e.hdlcTxBuf) > 0 && e.hdlcFramer != nil {
		e.hdlcFramer.TxFrame(e.hdlcTxBuf, e.hdlcFinal)
		e.hdlcTxBuf = e.hdlcTxBuf[:0]
	}
}
