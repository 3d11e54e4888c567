// Package dteio is the serial/loopback DTE transport: it pumps raw bytes
// between a io.ReadWriteCloser (a real serial port, or a loopback pipe in
// tests) and one engine.Engine, implementing the AT Class-1 text
// interpreter the engine explicitly treats as an external collaborator
// (engine.ATResponder, engine.ATTxHandler, engine.ModemControlHandler).
//
// Grounded on the same goroutine-per-channel shape as
// internal/t38io/server.go's UDP listener, adapted to a single
// bidirectional byte stream instead of datagrams.
package dteio

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/t31hub/t31hub/internal/engine"
	"github.com/t31hub/t31hub/internal/fsconst"
)

// Line owns one serial DTE connection and the AT Class-1 interpreter state
// that decides what incoming bytes mean: an AT command line in command
// mode, or raw DLE-stuffed frame/image bytes once a command has put the
// engine into HDLC or stuffed transmit mode.
type Line struct {
	lineNo int
	log    *slog.Logger
	port   io.ReadWriteCloser
	engine *engine.Engine

	mu          sync.Mutex
	mode        fsconst.DTEMode
	ctsAsserted bool
	hungUp      bool
}

// NewLine builds a Line bound to port. Construct the Engine with the
// returned Line wired in as ATResponder/ATTxHandler/ModemControlHandler,
// hand that Engine to Attach, then call Run to start the read pump.
func NewLine(lineNo int, port io.ReadWriteCloser, log *slog.Logger) *Line {
	if log == nil {
		log = slog.Default()
	}
	return &Line{
		lineNo:      lineNo,
		log:         log.With("line", lineNo),
		port:        port,
		mode:        fsconst.DTEModeOffHookCommand,
		ctsAsserted: true,
	}
}

// Attach records the Engine this Line drives. Must be called once, before
// Run, after the Engine has been constructed with this Line as its
// ATResponder/ATTxHandler/ModemControlHandler.
func (l *Line) Attach(e *engine.Engine) {
	l.engine = e
}

// Run pumps bytes from the port until ctx is cancelled or the port errs.
func (l *Line) Run(ctx context.Context) error {
	defer l.port.Close()

	done := make(chan error, 1)
	go func() {
		done <- l.readLoop()
	}()

	select {
	case <-ctx.Done():
		return nil
	case err := <-done:
		return err
	}
}

func (l *Line) readLoop() error {
	r := bufio.NewReaderSize(l.port, dteReadBufferSize)
	cmdBuf := make([]byte, 0, maxCommandLineLen)

	for {
		b, err := r.ReadByte()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		l.mu.Lock()
		mode := l.mode
		l.mu.Unlock()

		switch mode {
		case fsconst.DTEModeHDLC:
			l.engine.ArmDTEDataTimeout()
			l.engine.FeedDTEHDLC([]byte{b})
		case fsconst.DTEModeStuffed:
			l.engine.ArmDTEDataTimeout()
			if final := l.engine.FeedDTEData([]byte{b}); final {
				l.engine.DisarmDTEDataTimeout()
			}
		case fsconst.DTEModeDelivery:
			// Any DTE byte while waiting for a queued response cancels the
			// wait and returns control to command mode.
			l.mu.Lock()
			l.mode = fsconst.DTEModeOffHookCommand
			l.mu.Unlock()
			l.PutResponseCode(fsconst.ATResponseOK)
		default: // DTEModeOffHookCommand
			if b == '\r' || b == '\n' {
				if len(cmdBuf) > 0 {
					l.handleCommandLine(cmdBuf)
					cmdBuf = cmdBuf[:0]
				}
				continue
			}
			if len(cmdBuf) < maxCommandLineLen {
				cmdBuf = append(cmdBuf, b)
			}
		}
	}
}

const (
	dteReadBufferSize = 4096
	maxCommandLineLen = 256
)

// PutResponseCode implements engine.ATResponder.
func (l *Line) PutResponseCode(code fsconst.ATResponseCode) {
	_, err := l.port.Write([]byte("\r\n" + string(code) + "\r\n"))
	if err != nil {
		l.log.Debug("failed to write response code", "error", err)
	}
}

// SetRxMode implements engine.ATResponder: it is the engine telling this
// interpreter what the DTE byte stream means from now on.
func (l *Line) SetRxMode(mode fsconst.DTEMode) {
	l.mu.Lock()
	l.mode = mode
	l.mu.Unlock()
}

// WriteToDTE implements engine.ATTxHandler: buf has already been
// DLE-stuffed by the engine.
func (l *Line) WriteToDTE(buf []byte) error {
	_, err := l.port.Write(buf)
	return err
}

// ModemControl implements engine.ModemControlHandler.
func (l *Line) ModemControl(op fsconst.ModemControlOp, arg int) error {
	switch op {
	case fsconst.ModemControlCTS:
		l.mu.Lock()
		l.ctsAsserted = arg != 0
		l.mu.Unlock()
		return nil
	case fsconst.ModemControlRestart, fsconst.ModemControlDTETimeout:
		return l.engine.RestartModem(fsconst.ModemSilenceTX)
	case fsconst.ModemControlHangup:
		l.mu.Lock()
		l.hungUp = true
		l.mu.Unlock()
		return l.engine.RestartModem(fsconst.ModemSilenceTX)
	case fsconst.ModemControlAnswer, fsconst.ModemControlCall, fsconst.ModemControlOnHook:
		l.log.Debug("modem control verb", "op", op, "arg", arg)
		return nil
	default:
		return nil
	}
}

// Status reports a point-in-time snapshot suitable for the admin API,
// satisfying httpapi.LineStatusProvider.
func (l *Line) Status() (line int, mode string, ctsAsserted bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lineNo, dteModeName(l.mode), l.ctsAsserted
}

func dteModeName(m fsconst.DTEMode) string {
	switch m {
	case fsconst.DTEModeOnHookCommand:
		return "onhook-command"
	case fsconst.DTEModeOffHookCommand:
		return "offhook-command"
	case fsconst.DTEModeHDLC:
		return "hdlc"
	case fsconst.DTEModeStuffed:
		return "stuffed"
	case fsconst.DTEModeDelivery:
		return "delivery"
	default:
		return "unknown"
	}
}
