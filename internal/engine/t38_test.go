package engine

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t31hub/t31hub/internal/fsconst"
)

type fakeT38 struct {
	indicators []fsconst.Indicator
	fields     []fsconst.FieldType
	dataLens   []int
}

func (f *fakeT38) SendIndicator(ind fsconst.Indicator, count int) error {
	f.indicators = append(f.indicators, ind)
	return nil
}

func (f *fakeT38) SendData(dataType fsconst.DataType, field fsconst.FieldType, buf []byte, count int) error {
	f.fields = append(f.fields, field)
	f.dataLens = append(f.dataLens, len(buf))
	return nil
}

func newTestT38Engine(t *testing.T) (*Engine, *fakeT38) {
	t.Helper()
	t38 := &fakeT38{}
	e, err := New(Config{Line: 1, T38Mode: true}, nil, t38, &fakeATResponder{}, &fakeATTx{}, &fakeModemCtl{}, nil, slog.Default())
	require.NoError(t, err)
	return e, t38
}

func TestProcessRxIndicatorIdempotent(t *testing.T) {
	e, _ := newTestT38Engine(t)
	e.modem = fsconst.ModemV21RX
	e.ProcessRxIndicator(fsconst.IndV21Preamble)
	deadline := e.timeoutRxSamples
	e.ProcessRxIndicator(fsconst.IndV21Preamble)
	assert.Equal(t, deadline, e.timeoutRxSamples, "repeated identical indicator should not re-arm timeout")
}

func TestProcessRxIndicatorArmsMidBurstTimeout(t *testing.T) {
	e, _ := newTestT38Engine(t)
	e.samples = 1000
	e.ProcessRxIndicator(fsconst.IndV17_9600LongTraining)
	assert.Equal(t, int64(1000+midRxTimeoutSamples), e.timeoutRxSamples)
}

func TestHandleHDLCDataFlagsMissingOnBadLeadByte(t *testing.T) {
	e, _ := newTestT38Engine(t)
	e.handleHDLCData([]byte{0x00, 0x01})
	assert.True(t, e.missingData, "expected missingData set when first octet is not 0xFF")
}

func TestDeliverHDLCFCSOKRequiresV21RX(t *testing.T) {
	e, _ := newTestT38Engine(t)
	e.modem = fsconst.ModemV17RX
	e.hdlcRxLen = 3
	e.ProcessRxData(fsconst.DataTypeV21, fsconst.FieldHDLCFCSOK, nil)
	// Nothing is delivered outside V21RX, and the buffer is still reset.
	assert.Empty(t, e.atTx.(*fakeATTx).written, "no frame should be delivered unless the modem is V21RX")
	assert.Zero(t, e.hdlcRxLen, "hdlcRxLen should reset after FCS_OK processing")
}

func TestNonECMSigEndDeduplicatesRepeats(t *testing.T) {
	e, _ := newTestT38Engine(t)
	at := &fakeATResponder{}
	e.atResponder = at
	e.rxMessageReceived = true
	e.currentRxDataType = fsconst.DataTypeV29_9600
	e.currentRxFieldType = fsconst.FieldT4NonECMSigEnd
	e.ProcessRxData(fsconst.DataTypeV29_9600, fsconst.FieldT4NonECMSigEnd, nil)
	assert.Empty(t, at.codes, "duplicate SIG_END should not re-deliver")
}

func TestT38SendTimeoutNonECMSequence(t *testing.T) {
	e, t38 := newTestT38Engine(t)
	e.octetsPerDataPacket = 3
	e.dataEndTxCount = fsconst.DataEndTxCount
	e.msPerTxChunk = fsconst.MsPerTxChunk
	e.indicatorTxCount = fsconst.IndicatorTxCount
	e.nextTxIndicator = fsconst.IndV29_9600Training
	e.currentTxDataType = fsconst.DataTypeV29_9600
	e.timedStep = fsconst.TimedStepNonECMModem
	e.txInBytes = 2
	e.dataFinal = true

	for i := 0; i < 10; i++ {
		e.samples = e.nextTxSamples
		e.T38SendTimeout(e.samples)
	}

	require.GreaterOrEqualf(t, len(t38.indicators), 2, "expected at least 2 indicator emissions (no-signal, training), got %v", t38.indicators)
	foundSigEnd := false
	for _, f := range t38.fields {
		if f == fsconst.FieldT4NonECMSigEnd {
			foundSigEnd = true
		}
	}
	assert.Truef(t, foundSigEnd, "expected a SIG_END field to be emitted, got %v", t38.fields)
}

func TestClass1DispatchUnknownCode(t *testing.T) {
	e, _ := newTestT38Engine(t)
	err := e.ProcessClass1Cmd(1, 'X', 999)
	assert.ErrorIs(t, err, ErrUnknownClass1Code)
}

func TestClass1DispatchSetsBitRate(t *testing.T) {
	e, _ := newTestT38Engine(t)
	err := e.ProcessClass1Cmd(1, 0, 96)
	require.NoError(t, err)
	assert.Equal(t, 9600, e.bitRate)
	assert.Equal(t, fsconst.ModemV29TX, e.modem)
}
