package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t31hub/t31hub/internal/fsconst"
)

// stuff mirrors writeStuffedToDTE's escaping rule for use as an
// independent reference implementation in round-trip tests.
func stuff(raw []byte) []byte {
	out := make([]byte, 0, len(raw))
	for _, b := range raw {
		out = append(out, b)
		if b == fsconst.DLE {
			out = append(out, fsconst.DLE)
		}
	}
	return out
}

// unstuff mirrors FeedDTEData's unescaping rule, stopping at DLE-ETX, for
// use as an independent reference implementation. Like dle_unstuff, it has
// no special case for DLE-SUB: SUB passes through as a literal byte.
func unstuff(stuffed []byte) []byte {
	out := make([]byte, 0, len(stuffed))
	dled := false
	for _, b := range stuffed {
		if dled {
			dled = false
			if b == fsconst.ETX {
				return out
			}
			out = append(out, b)
			continue
		}
		if b == fsconst.DLE {
			dled = true
			continue
		}
		out = append(out, b)
	}
	return out
}

// TestDLERoundTripLaw is spec's round-trip law: unstuff(stuff(x)) == x for
// every byte sequence, checked via the engine's own FeedDTEData path
// rather than the local reference functions alone.
func TestDLERoundTripLaw(t *testing.T) {
	patterns := [][]byte{
		{},
		{0x00},
		{fsconst.DLE},
		{fsconst.DLE, fsconst.DLE},
		{0x01, 0x02, 0x03},
		{fsconst.DLE, 0x01, fsconst.DLE, 0x02, fsconst.DLE},
		{0xFF, 0xFF, 0xFF},
		{fsconst.ETX, fsconst.SUB, 0x10, 0x11},
		bytesRange(0, 256),
	}

	for i, payload := range patterns {
		assert.Equalf(t, payload, unstuff(stuff(payload)), "pattern %d", i)

		e, _, _, _ := newTestEngine(t)
		wire := append(stuff(payload), fsconst.DLE, fsconst.ETX)
		final := e.FeedDTEData(wire)
		require.Truef(t, final, "pattern %d: expected DLE ETX to terminate transfer", i)
		assert.Equalf(t, payload, e.txData[:e.txInBytes], "pattern %d: FeedDTEData round trip", i)
	}
}

func bytesRange(start, end int) []byte {
	out := make([]byte, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, byte(i))
	}
	return out
}

// TestHDLCDeliveryLaw is spec's HDLC delivery law: for a frame F with FCS
// bytes P,Q, the DTE sees stuff(F||P||Q) followed by an unstuffed DLE ETX
// trailer, delivered as exactly two writes (payload, then trailer).
func TestHDLCDeliveryLaw(t *testing.T) {
	e, _, tx, _ := newTestEngine(t)
	e.modem = fsconst.ModemV21RX

	frame := []byte{0xFF, 0x03, 0x01, 0x02, fsconst.DLE, 0x55}
	fcs := []byte{0xAB, 0xCD}
	full := append(append([]byte{}, frame...), fcs...)

	e.AcceptFrame(full, true)

	require.Len(t, tx.written, 2, "expected exactly 2 writes (stuffed payload, DLE ETX trailer)")
	assert.Equal(t, stuff(full), tx.written[0])
	assert.Equal(t, []byte{fsconst.DLE, fsconst.ETX}, tx.written[1])
}

// TestHDLCDeliveryOneByteFrame is the boundary case: a 1-byte HDLC frame
// is delivered intact with its FCS, same as any other length.
func TestHDLCDeliveryOneByteFrame(t *testing.T) {
	e, _, tx, _ := newTestEngine(t)
	e.modem = fsconst.ModemV21RX

	full := []byte{0x7E, 0x01, 0x02}
	e.AcceptFrame(full, true)

	require.Len(t, tx.written, 2)
	assert.Equal(t, stuff(full), tx.written[0])
}

// TestIndicatorIdempotenceObservableState checks the same property as
// TestProcessRxIndicatorIdempotent in t38_test.go from the receiver's
// observable-state angle: repeating IndV21Preamble must not reset
// rxSignalPresent/rxTrained a second time.
func TestIndicatorIdempotenceObservableState(t *testing.T) {
	e, t38 := newTestT38Engine(t)
	e.modem = fsconst.ModemV21RX
	e.ProcessRxIndicator(fsconst.IndV21Preamble)
	e.rxSignalPresent = true
	e.ProcessRxIndicator(fsconst.IndV21Preamble)
	assert.True(t, e.rxSignalPresent, "repeated identical indicator must not clear rxSignalPresent")
	_ = t38
}

// TestSilenceThresholdExactBoundary: sample power at exactly
// silenceThresholdPower counts as silence (the spec's boundary is
// inclusive, not "strictly below").
func TestSilenceThresholdExactBoundary(t *testing.T) {
	e, at, _, _ := newTestEngine(t)
	e.modem = fsconst.ModemSilenceRX
	e.silenceThresholdPower = 100
	e.silenceAwaited = 3
	e.silenceHeard = 0
	e.powerMeter = exactPower{level: 100}

	det := silenceDetector{e: e}
	det.FeedSamples([]int16{0, 0, 0})

	require.Len(t, at.codes, 1, "expected OK once silence_awaited samples at-threshold elapsed")
	assert.Equal(t, fsconst.ATResponseOK, at.codes[0])
}

type exactPower struct{ level int32 }

func (p exactPower) Update(int16) int32      { return p.level }
func (p exactPower) LevelDBm0(float64) int32 { return p.level }

// TestOctetsPerDataPacketExactDivision is the boundary where a non-ECM
// payload divides evenly into octets_per_data_packet-sized chunks: no
// short final chunk, only whole HDLC_DATA-equivalent packets before the
// SIG_END trailer sequence.
func TestOctetsPerDataPacketExactDivision(t *testing.T) {
	e, t38 := newTestT38Engine(t)
	e.octetsPerDataPacket = 4
	e.dataEndTxCount = fsconst.DataEndTxCount
	e.msPerTxChunk = fsconst.MsPerTxChunk
	e.indicatorTxCount = fsconst.IndicatorTxCount
	e.nextTxIndicator = fsconst.IndV29_9600Training
	e.currentTxDataType = fsconst.DataTypeV29_9600
	e.timedStep = fsconst.TimedStepNonECMModem
	e.txInBytes = 8 // exactly 2 chunks of 4 with no remainder
	e.dataFinal = true

	for i := 0; i < 12; i++ {
		e.samples = e.nextTxSamples
		e.T38SendTimeout(e.samples)
	}

	dataPackets := 0
	for _, f := range t38.fields {
		if f == fsconst.FieldT4NonECMData {
			dataPackets++
		}
	}
	assert.Greaterf(t, dataPackets, 0, "expected at least one T4_NON_ECM_DATA packet, got fields %v", t38.fields)
}
