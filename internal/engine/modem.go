package engine

import (
	"context"
	"fmt"

	"github.com/t31hub/t31hub/internal/fsconst"
	"go.opentelemetry.io/otel"
)

const (
	hdlcPreambleOctets = 32
	cngToneOnMs        = 500
	cngSilenceMs       = 3000
	cedSilenceLeadMs   = 200
	cedToneMs          = 2600
	cedTrailerMs       = 75
	flushSilenceMs     = 200
)

// RestartModem is the master modem selector. Given a requested role, it is
// a no-op if the role is already current; otherwise it flushes the
// response queue, clears receiver phase flags, installs the dummy
// receiver, then wires the handlers for the requested role per the modem
// table, branching between the analog and T.38 paths on t38Mode.
//
// Unlike the source this core was built against, failures here are
// returned rather than silently swallowed: a caller that ignores the
// returned error gets exactly the original's always-succeeds behavior,
// but a caller that checks it can actually notice a wiring problem.
func (e *Engine) RestartModem(newModem fsconst.Modem) error {
	_, span := otel.Tracer("t31hub").Start(context.Background(), "Engine.RestartModem")
	defer span.End()

	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.checkReleased(); err != nil {
		return err
	}
	if e.modem == newModem {
		return nil
	}

	e.rxQueue.Flush()
	e.dataFinal = false
	e.rxSignalPresent = false
	e.rxTrained = false
	e.rxMessageReceived = false
	if e.analog != nil {
		e.rxHandler = e.analog.DummyRx()
	}
	e.transmit = newModem != fsconst.ModemV21RX && newModem != fsconst.ModemV17RX &&
		newModem != fsconst.ModemV27terRX && newModem != fsconst.ModemV29RX &&
		newModem != fsconst.ModemSilenceRX && newModem != fsconst.ModemNoCNGTone

	var err error
	switch newModem {
	case fsconst.ModemCNGTone:
		err = e.restartCNG()
	case fsconst.ModemNoCNGTone:
		err = e.restartNoCNG()
	case fsconst.ModemCEDTone:
		err = e.restartCED()
	case fsconst.ModemV21TX:
		err = e.restartV21TX()
	case fsconst.ModemV21RX:
		err = e.restartV21RX()
	case fsconst.ModemV17TX, fsconst.ModemV27terTX, fsconst.ModemV29TX:
		err = e.restartFastTX(newModem)
	case fsconst.ModemV17RX, fsconst.ModemV27terRX, fsconst.ModemV29RX:
		err = e.restartFastRX(newModem)
	case fsconst.ModemSilenceTX, fsconst.ModemFlush:
		err = e.restartSilenceTX(newModem)
	case fsconst.ModemSilenceRX:
		err = e.restartSilenceRX()
	default:
		err = fmt.Errorf("engine: unsupported modem role %s", newModem)
	}
	if err != nil {
		return fmt.Errorf("restart_modem(%s): %w", newModem, err)
	}

	e.modem = newModem
	e.bitNo = 0
	e.currentByte = 0xFF
	e.txInBytes = 0
	e.txOutBytes = 0
	if e.metrics != nil {
		e.metrics.RecordRetrain(newModem.String())
	}
	e.log.Debug("modem restarted", "modem", newModem)
	if e.statusSink != nil {
		e.statusSink.ModemStatusChanged(e.line, newModem)
	}
	return nil
}

func (e *Engine) restartCNG() error {
	if e.t38Mode {
		return e.t38.SendIndicator(fsconst.IndCNG, e.indicatorTxCount)
	}
	if e.analog == nil {
		return nil
	}
	tone := e.analog.ToneGen([]ToneSpec{
		{FreqHz1: 1100, DurationMs: cngToneOnMs},
		{FreqHz1: 0, DurationMs: cngSilenceMs},
	})
	e.rxHandler = &cngRx{e: e, v21: e.analog.V21Rx(e)}
	e.txHandler = tone
	return nil
}

func (e *Engine) restartNoCNG() error {
	if e.analog == nil {
		return nil
	}
	e.rxHandler = &cngRx{e: e, v21: e.analog.V21Rx(e)}
	e.txHandler = e.analog.SilenceGen()
	return nil
}

func (e *Engine) restartCED() error {
	if e.t38Mode {
		return e.t38.SendIndicator(fsconst.IndCED, e.indicatorTxCount)
	}
	if e.analog == nil {
		return nil
	}
	e.txHandler = e.analog.ToneGen([]ToneSpec{
		{FreqHz1: 0, DurationMs: cedSilenceLeadMs},
		{FreqHz1: 2100, DurationMs: cedToneMs},
		{FreqHz1: 0, DurationMs: cedTrailerMs},
	})
	return nil
}

func (e *Engine) restartV21TX() error {
	if e.t38Mode {
		return e.t38.SendIndicator(fsconst.IndV21Preamble, e.indicatorTxCount)
	}
	if e.analog == nil {
		return nil
	}
	source, framer := e.analog.V21Tx(hdlcPreambleOctets, e)
	e.txHandler = source
	e.hdlcFramer = framer
	return nil
}

func (e *Engine) restartV21RX() error {
	if e.t38Mode {
		return nil
	}
	if e.analog == nil {
		return nil
	}
	e.rxHandler = e.analog.V21Rx(e)
	return nil
}

func (e *Engine) restartFastTX(modem fsconst.Modem) error {
	if e.t38Mode {
		var ind fsconst.Indicator
		switch modem {
		case fsconst.ModemV17TX:
			ind = fsconst.V17Indicator(e.bitRate, e.shortTrain)
		case fsconst.ModemV27terTX:
			ind = fsconst.V27terIndicator(e.bitRate)
		case fsconst.ModemV29TX:
			ind = fsconst.V29Indicator(e.bitRate)
		}
		e.nextTxIndicator = ind
		e.currentTxDataType = fsconst.DataTypeFor(modem, e.bitRate)
		e.octetsPerDataPacket = e.paddedOctetsPerDataPacket()
		e.timedStep = fsconst.TimedStepNonECMModem
		e.nextTxSamples = e.samples
		return nil
	}
	if e.analog == nil {
		return nil
	}
	e.txHandler = e.analog.FastTx(modem, e.bitRate, e.shortTrain, e)
	return nil
}

func (e *Engine) restartFastRX(modem fsconst.Modem) error {
	if e.t38Mode {
		e.currentRxType = fsconst.DataTypeFor(modem, e.bitRate)
		return nil
	}
	if e.analog == nil {
		return nil
	}
	fast := e.analog.FastRx(modem, e.bitRate, e)
	v21 := e.analog.V21Rx(e)
	e.rxHandler = &earlyRx{engine: e, fast: fast, v21: v21, target: modem}
	return nil
}

func (e *Engine) restartSilenceTX(modem fsconst.Modem) error {
	if e.t38Mode {
		if err := e.t38.SendIndicator(fsconst.IndNoSignal, e.indicatorTxCount); err != nil {
			return err
		}
	}
	if e.analog != nil {
		e.txHandler = e.analog.SilenceGen()
	}
	if modem == fsconst.ModemFlush {
		if e.analog != nil {
			e.nextTxHandler = e.analog.ToneGen([]ToneSpec{{FreqHz1: 0, DurationMs: flushSilenceMs}})
		}
	}
	return nil
}

func (e *Engine) restartSilenceRX() error {
	if e.analog == nil {
		return nil
	}
	e.rxHandler = silenceDetector{e: e}
	e.txHandler = e.analog.SilenceGen()
	return nil
}

func (e *Engine) paddedOctetsPerDataPacket() int {
	if e.dataEndTxCount == 1 && e.msPerTxChunk == 0 {
		// unpaced/TCP mode
		return fsconst.MaxOctetsPerUnpacedChunk
	}
	return fsconst.OctetsPerDataPacket(e.bitRate)
}
