package engine

import "github.com/t31hub/t31hub/internal/fsconst"

// This file is the sample-clock harness: the two entry points a caller
// drives once per audio block, matching t31_rx and t31_tx, plus the
// silence-power bookkeeping and DTE-inactivity enforcement they share.

// Rx feeds one block of 8kHz PCM samples into the engine, matching t31_rx:
// it tracks the last sample seen, advances the sample clock, enforces the
// DTE inactivity timeout and, unless a transmit is in progress (other than
// CNG, which also listens), forwards the block to the active receiver. The
// receiver itself — silenceDetector when modem is SILENCE_RX — owns the
// power-meter update for each sample; Rx never duplicates it.
func (e *Engine) Rx(amp []int16) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkReleased(); err != nil {
		return
	}

	if len(amp) > 0 {
		e.lastSample = amp[len(amp)-1]
	}
	e.callSamples += int64(len(amp))
	e.samples += int64(len(amp))

	e.checkDTEDataTimeout()
	e.checkMidBurstTimeout()

	e.advanceT38Scheduler()

	if (!e.transmit || e.modem == fsconst.ModemCNGTone) && e.rxHandler != nil {
		e.rxHandler.FeedSamples(amp)
	}
}

func (e *Engine) checkDTEDataTimeout() {
	if e.dteDataTimeout == 0 {
		return
	}
	if e.samples < e.dteDataTimeout {
		return
	}
	e.dteDataTimeout = 0
	e.atResponder.PutResponseCode(fsconst.ATResponseError)
	e.atResponder.SetRxMode(fsconst.DTEModeOffHookCommand)
	if e.metrics != nil {
		e.metrics.DTEInactivityTimeouts.Inc()
	}
	e.mu.Unlock()
	_ = e.RestartModem(fsconst.ModemSilenceTX)
	e.mu.Lock()
}

// ArmDTEDataTimeout (re)arms the inactivity watchdog for HDLC/stuffed
// transmit, to be called whenever a fresh chunk of DTE data resets the
// clock.
func (e *Engine) ArmDTEDataTimeout() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dteDataTimeout = e.samples + e.dteInactivityTimeoutMs*fsconst.SampleRate/1000
}

// DisarmDTEDataTimeout clears the watchdog once a transfer completes
// normally.
func (e *Engine) DisarmDTEDataTimeout() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.dteDataTimeout = 0
}

// Tx produces up to len(amp) samples of the current transmit stream,
// matching t31_tx: it pulls from tx_handler, and on underflow tries
// set_next_tx_type before falling back to the idle-tail response logic
// (emit OK, chain CED into V21_TX, or drop a finished fast modem into
// SILENCE_TX).
func (e *Engine) Tx(amp []int16) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.checkReleased(); err != nil || e.txHandler == nil {
		return 0
	}

	n := e.txHandler.ProduceSamples(amp)
	if n >= len(amp) {
		return n
	}

	if e.nextTxHandler != nil {
		e.txHandler = e.nextTxHandler
		e.nextTxHandler = nil
		more := e.txHandler.ProduceSamples(amp[n:])
		n += more
		if n >= len(amp) {
			return n
		}
	}

	e.onTxIdle()

	if e.transmitOnIdle {
		for i := n; i < len(amp); i++ {
			amp[i] = 0
		}
		return len(amp)
	}
	return n
}

// onTxIdle reacts to a transmit stream running dry: CED chains into
// V21_TX, a finished fast-modem or HDLC transmit drops to SILENCE_TX, and
// the response the DTE sees depends on which modem just finished.
func (e *Engine) onTxIdle() {
	switch e.modem {
	case fsconst.ModemCEDTone:
		e.mu.Unlock()
		_ = e.RestartModem(fsconst.ModemV21TX)
		e.mu.Lock()
	case fsconst.ModemV17TX, fsconst.ModemV27terTX, fsconst.ModemV29TX, fsconst.ModemV21TX:
		e.mu.Unlock()
		_ = e.RestartModem(fsconst.ModemSilenceTX)
		e.mu.Lock()
		e.atResponder.PutResponseCode(fsconst.ATResponseOK)
		e.atResponder.SetRxMode(fsconst.DTEModeOffHookCommand)
	}
}
