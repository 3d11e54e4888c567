package engine

import "github.com/t31hub/t31hub/internal/fsconst"

// This file implements the DLE transparency codec used on both directions
// of the DTE link: writeStuffedToDTE escapes outbound bytes before they
// reach ATTxHandler, and FeedDTEData/FeedDTEHDLC unescape inbound bytes the
// DTE sends while in DTEModeStuffed/DTEModeHDLC, matching dle_unstuff and
// its write-side counterpart.

// writeStuffedToDTE DLE-stuffs buf (doubling every literal DLE byte) and
// writes it to the DTE. It never stuffs the DLE-ETX trailer itself; callers
// append that separately once the stuffed payload has been written.
func (e *Engine) writeStuffedToDTE(buf []byte) {
	if len(buf) == 0 {
		return
	}
	out := make([]byte, 0, len(buf)+4)
	for _, b := range buf {
		out = append(out, b)
		if b == fsconst.DLE {
			out = append(out, fsconst.DLE)
		}
	}
	_ = e.atTx.WriteToDTE(out)
}

// FeedDTEData unescapes a chunk of raw non-ECM image bytes the DTE is
// uploading in DTEModeStuffed, appending each unescaped byte to the
// transmit ring and returning true once a DLE-ETX trailer closes the
// transfer. It matches dle_unstuff's non-HDLC shape, which has no special
// case for DLE-SUB: it passes through as a literal SUB byte like any other.
func (e *Engine) FeedDTEData(raw []byte) (final bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := 0; i < len(raw); i++ {
		b := raw[i]
		if e.dled {
			e.dled = false
			switch b {
			case fsconst.DLE:
				e.pushTxByte(b)
			case fsconst.ETX:
				e.dataFinal = true
				return true
			default:
				e.pushTxByte(b)
			}
			continue
		}
		if b == fsconst.DLE {
			e.dled = true
			continue
		}
		e.pushTxByte(b)
	}
	return false
}

// FeedDTEHDLC unescapes a chunk of HDLC frame bytes the DTE is uploading in
// DTEModeHDLC, accumulating them into hdlcTxBuf and handing a completed
// frame to the installed HDLCFramer once a DLE-ETX trailer arrives. The
// frame's own control byte (buf[1] & 0x10) decides hdlc_final, the shape
// of dle_unstuff_hdlc, which turns a DLE-SUB pair into two literal DLE
// bytes rather than passing SUB through.
func (e *Engine) FeedDTEHDLC(raw []byte) {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i := 0; i < len(raw); i++ {
		b := raw[i]
		if e.dled {
			e.dled = false
			switch b {
			case fsconst.DLE:
				e.appendHDLCTxByte(b)
			case fsconst.ETX:
				e.hdlcFinal = len(e.hdlcTxBuf) > 1 && e.hdlcTxBuf[1]&0x10 != 0
				if e.hdlcFramer != nil {
					e.hdlcFramer.TxFrame(e.hdlcTxBuf, e.hdlcFinal)
				}
				e.hdlcTxBuf = e.hdlcTxBuf[:0]
				continue
			case fsconst.SUB:
				e.appendHDLCTxByte(fsconst.DLE)
				e.appendHDLCTxByte(fsconst.DLE)
			default:
				e.appendHDLCTxByte(b)
			}
			continue
		}
		if b == fsconst.DLE {
			e.dled = true
			continue
		}
		e.appendHDLCTxByte(b)
	}
}

func (e *Engine) pushTxByte(b byte) {
	if e.txInBytes >= len(e.txData) {
		return
	}
	e.txData[e.txInBytes] = b
	e.txInBytes++
	e.maybeAssertCTS()
}

func (e *Engine) appendHDLCTxByte(b byte) {
	if len(e.hdlcTxBuf) >= fsconst.HDLCTxBufLen {
		return
	}
	e.hdlcTxBuf = append(e.hdlcTxBuf, b)
}
