package engine

import "errors"

// Sentinel errors covering the error taxonomy this core surfaces. Framing
// errors (bad FCS, duplicate SIG_END) and quirky-peer conditions are
// absorbed silently and never appear here; only conditions that invalidate
// the session are returned to callers.
var (
	// ErrUnknownClass1Code is returned by ProcessClass1Cmd when val does not
	// match any entry of the Class 1 table and is not an 'S' opcode, or for
	// an 'H' opcode whose val is not 3.
	ErrUnknownClass1Code = errors.New("engine: unknown class 1 code")
	// ErrDTETimeout names the DTE inactivity timeout during HDLC or stuffed
	// transmission. The engine does not return it: it reports that timeout
	// to the DTE as an ERROR response code.
	ErrDTETimeout = errors.New("engine: dte inactivity timeout")
	// ErrTxBufferExhausted replaces the original's silent clamp-and-freeze
	// behavior in non_ecm_get_bit: the transmit ring drained without a
	// data_final marker ever arriving.
	ErrTxBufferExhausted = errors.New("engine: tx buffer exhausted without end of data")
	// ErrNotInitialized is returned by entry points called on a released
	// or never-initialized Engine.
	ErrNotInitialized = errors.New("engine: not initialized")
	// ErrNilHandler is returned by New when a required callback is nil.
	ErrNilHandler = errors.New("engine: required handler is nil")
)
