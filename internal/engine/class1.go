package engine

import (
	"context"

	"github.com/t31hub/t31hub/internal/fsconst"
	"go.opentelemetry.io/otel"
)

// ProcessClass1Cmd dispatches an AT Class 1 command triple (direction,
// operation, val) to a modem restart, matching process_class1_cmd. The
// returned error is non-nil only for operations/codes the dispatcher does
// not recognise. The response code is left to the tx/rx pipeline, except
// for AT+FTH=3, whose CONNECT is emitted here once the V.21 transmitter is
// installed.
//
// Like every other Engine entry point, ProcessClass1Cmd must not be called
// concurrently with another entry point on the same instance; it takes the
// engine lock only for the brief field updates that precede the modem
// restart, not across the restart itself, since RestartModem takes its own.
func (e *Engine) ProcessClass1Cmd(direction byte, operation byte, val int) error {
	_, span := otel.Tracer("t31hub").Start(context.Background(), "Engine.ProcessClass1Cmd")
	defer span.End()

	if err := e.checkReleased(); err != nil {
		return err
	}

	e.log.Debug("class1 cmd", "direction", direction, "operation", string(operation), "val", val)

	switch operation {
	case 'S':
		return e.dispatchSilence(direction, val)
	case 'H':
		if val != 3 {
			e.log.Debug("unknown class1 H code", "val", val)
			return ErrUnknownClass1Code
		}
		return e.dispatchHDLC(direction)
	default:
		return e.dispatchNumericCode(direction, val)
	}
}

func (e *Engine) dispatchSilence(direction byte, val int) error {
	ms := val * 10
	if direction == 1 {
		e.log.Debug("class1 silence tx", "ms", ms)
		if err := e.RestartModem(fsconst.ModemSilenceTX); err != nil {
			return err
		}
		e.mu.Lock()
		e.silenceAwaited = 0
		e.mu.Unlock()
		return nil
	}

	e.log.Debug("class1 silence rx", "ms", ms)
	e.mu.Lock()
	e.silenceHeard = 0
	e.silenceAwaited = int64(ms) * fsconst.SampleRate / 1000
	e.mu.Unlock()
	e.atResponder.SetRxMode(fsconst.DTEModeDelivery)
	return e.RestartModem(fsconst.ModemSilenceRX)
}

func (e *Engine) dispatchHDLC(direction byte) error {
	if direction == 1 {
		e.log.Debug("class1 hdlc tx")
		e.atResponder.SetRxMode(fsconst.DTEModeHDLC)
		if err := e.RestartModem(fsconst.ModemV21TX); err != nil {
			return err
		}
		e.atResponder.PutResponseCode(fsconst.ATResponseConnect)
		return nil
	}

	e.log.Debug("class1 hdlc rx")
	e.atResponder.SetRxMode(fsconst.DTEModeDelivery)
	if err := e.RestartModem(fsconst.ModemV21RX); err != nil {
		return err
	}
	e.drainRxQueue()
	return nil
}

func (e *Engine) dispatchNumericCode(direction byte, val int) error {
	entry, ok := fsconst.Class1Table[val]
	if !ok {
		e.log.Debug("unknown class1 numeric code", "val", val)
		return ErrUnknownClass1Code
	}
	transmit := direction == 1
	modem := entry.ModemFor(transmit)
	e.log.Debug("class1 numeric code", "val", val, "modem", modem, "transmit", transmit)

	e.mu.Lock()
	e.bitRate = entry.BitRate
	e.shortTrain = entry.ShortTrain
	e.mu.Unlock()

	if transmit {
		e.atResponder.SetRxMode(fsconst.DTEModeStuffed)
	} else {
		e.atResponder.SetRxMode(fsconst.DTEModeDelivery)
	}

	return e.RestartModem(modem)
}

// drainRxQueue flushes any responses queued while the DTE was not waiting,
// delivering them now that a command has transitioned the DTE into
// DELIVERY mode.
func (e *Engine) drainRxQueue() {
	e.mu.Lock()
	msgs := e.rxQueue.Drain()
	e.dteIsWaiting = true
	e.mu.Unlock()
	for _, msg := range msgs {
		_ = e.atTx.WriteToDTE(msg)
	}
}
