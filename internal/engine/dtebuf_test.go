package engine

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t31hub/t31hub/internal/fsconst"
)

type fakeAnalog struct{}

func (fakeAnalog) FastRx(fsconst.Modem, int, BitSink) SampleSink               { return fakeSink{} }
func (fakeAnalog) FastTx(fsconst.Modem, int, bool, BitSource) SampleSource     { return fakeSource{} }
func (fakeAnalog) V21Rx(FrameSink) SampleSink                                  { return fakeSink{} }
func (fakeAnalog) V21Tx(int, HDLCUnderflowSink) (SampleSource, HDLCFramer)     { return fakeSource{}, fakeFramer{} }
func (fakeAnalog) ToneGen([]ToneSpec) SampleSource                            { return fakeSource{} }
func (fakeAnalog) SilenceGen() SampleSource                                   { return fakeSource{} }
func (fakeAnalog) DummyRx() SampleSink                                        { return fakeSink{} }
func (fakeAnalog) PowerMeter() PowerMeter                                     { return fakePower{} }

type fakeSink struct{}

func (fakeSink) FeedSamples([]int16) {}

type fakeSource struct{}

func (fakeSource) ProduceSamples(amp []int16) int { return len(amp) }

type fakeFramer struct{}

func (fakeFramer) TxFrame([]byte, bool) {}

type fakePower struct{}

func (fakePower) Update(int16) int32          { return 0 }
func (fakePower) LevelDBm0(float64) int32     { return -3600 }

type fakeATResponder struct {
	codes []fsconst.ATResponseCode
	modes []fsconst.DTEMode
}

func (f *fakeATResponder) PutResponseCode(c fsconst.ATResponseCode) { f.codes = append(f.codes, c) }
func (f *fakeATResponder) SetRxMode(m fsconst.DTEMode)              { f.modes = append(f.modes, m) }

type fakeATTx struct {
	written [][]byte
}

func (f *fakeATTx) WriteToDTE(buf []byte) error {
	cp := append([]byte(nil), buf...)
	f.written = append(f.written, cp)
	return nil
}

type fakeModemCtl struct {
	ops []fsconst.ModemControlOp
}

func (f *fakeModemCtl) ModemControl(op fsconst.ModemControlOp, arg int) error {
	f.ops = append(f.ops, op)
	return nil
}

func newTestEngine(t *testing.T) (*Engine, *fakeATResponder, *fakeATTx, *fakeModemCtl) {
	t.Helper()
	at := &fakeATResponder{}
	tx := &fakeATTx{}
	ctl := &fakeModemCtl{}
	e, err := New(Config{Line: 1}, fakeAnalog{}, nil, at, tx, ctl, nil, slog.Default())
	require.NoError(t, err)
	return e, at, tx, ctl
}

func TestFeedDTEDataRoundTrip(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	payload := []byte{0x01, fsconst.DLE, 0x02, 0x03}
	var stuffed []byte
	for _, b := range payload {
		stuffed = append(stuffed, b)
		if b == fsconst.DLE {
			stuffed = append(stuffed, fsconst.DLE)
		}
	}
	stuffed = append(stuffed, fsconst.DLE, fsconst.ETX)

	final := e.FeedDTEData(stuffed)
	require.True(t, final, "expected DLE ETX to terminate transfer")
	assert.Equal(t, payload, e.txData[:e.txInBytes])
}

// TestFeedDTEDataSUBPassesThroughLiterally: dle_unstuff has no special
// case for DLE-SUB, unlike its HDLC sibling — SUB survives as a literal
// byte in the non-ECM stuffed stream.
func TestFeedDTEDataSUBPassesThroughLiterally(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	stuffed := []byte{fsconst.DLE, fsconst.SUB, fsconst.DLE, fsconst.ETX}
	e.FeedDTEData(stuffed)
	require.Equal(t, 1, e.txInBytes)
	assert.Equal(t, fsconst.SUB, e.txData[0])
}

// TestFeedDTEHDLCSUBBecomesTwoLiteralDLEs: dle_unstuff_hdlc turns a
// DLE-SUB pair into two literal DLE bytes in the assembled frame.
func TestFeedDTEHDLCSUBBecomesTwoLiteralDLEs(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	e.FeedDTEHDLC([]byte{0x01, fsconst.DLE, fsconst.SUB, 0x02})
	assert.Equal(t, []byte{0x01, fsconst.DLE, fsconst.DLE, 0x02}, e.hdlcTxBuf)
}

func TestWriteStuffedToDTEDoublesDLE(t *testing.T) {
	e, _, tx, _ := newTestEngine(t)
	e.writeStuffedToDTE([]byte{0x01, fsconst.DLE, 0x02})
	require.Len(t, tx.written, 1)
	assert.Equal(t, []byte{0x01, fsconst.DLE, fsconst.DLE, 0x02}, tx.written[0])
}

func TestAcceptFrameDeliversStuffedFrameWithTrailer(t *testing.T) {
	e, at, tx, _ := newTestEngine(t)
	e.modem = fsconst.ModemV21RX
	frame := []byte{0xFF, 0x03, 0x01}
	e.AcceptFrame(frame, true)

	require.Len(t, tx.written, 2, "expected 2 writes (payload, DLE ETX trailer)")
	trailer := tx.written[len(tx.written)-1]
	assert.Equal(t, []byte{fsconst.DLE, fsconst.ETX}, trailer)
	require.Len(t, at.codes, 1, "expected an immediate OK for an ordinary frame")
	assert.Equal(t, fsconst.ATResponseOK, at.codes[0])
}

func TestAcceptFrameReportsErrorOnBadFCSButStillDelivers(t *testing.T) {
	e, at, tx, _ := newTestEngine(t)
	e.modem = fsconst.ModemV21RX
	frame := []byte{0xFF, 0x03, 0x01}
	e.AcceptFrame(frame, false)

	require.Len(t, tx.written, 2, "a bad-FCS frame is still delivered to the DTE")
	require.Len(t, at.codes, 1)
	assert.Equal(t, fsconst.ATResponseError, at.codes[0])
}

func TestAcceptFrameDefersOKOnDCNUntilCarrierDown(t *testing.T) {
	e, at, _, _ := newTestEngine(t)
	e.modem = fsconst.ModemV21RX
	e.AcceptFrame([]byte{0xFF, 0x13}, true)
	assert.Empty(t, at.codes, "OK must not be sent before the carrier actually drops")

	e.AcceptEvent(BitCarrierDown)
	require.Len(t, at.codes, 1)
	assert.Equal(t, fsconst.ATResponseOK, at.codes[0])
}

func TestGetBitEndOfDataSentinel(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	e.dataFinal = true
	e.txInBytes = 0
	e.txOutBytes = 0
	e.bitNo = 0
	assert.Equal(t, BitEndOfData, e.GetBit())
}

func TestGetBitExhaustionSurfacesDTETimeout(t *testing.T) {
	e, _, _, ctl := newTestEngine(t)
	e.dataFinal = false
	e.txInBytes = 0
	e.txOutBytes = 0
	e.bitNo = 0
	e.GetBit()
	assert.Contains(t, ctl.ops, fsconst.ModemControlDTETimeout)
}

func TestHDLCRxLenInvariant(t *testing.T) {
	e, _, _, _ := newTestEngine(t)
	big := make([]byte, fsconst.HDLCRxMaxLen+50)
	e.handleHDLCData(big)
	assert.LessOrEqual(t, e.hdlcRxLen, fsconst.HDLCRxMaxLen)
}

func TestDeliverHDLCGatesOnReassembledLength(t *testing.T) {
	e, _, tx, _ := newTestEngine(t)
	e.modem = fsconst.ModemV21RX
	e.hdlcRxLen = 0
	e.deliverHDLCIfReady()
	assert.Empty(t, tx.written, "expected no delivery with zero-length reassembly")
}
