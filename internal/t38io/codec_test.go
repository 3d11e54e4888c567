package t38io

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t31hub/t31hub/internal/fsconst"
)

func TestEncodeDecodeIndicatorRoundTrip(t *testing.T) {
	buf := encodeIndicator(42, fsconst.IndV21Preamble)
	pkt, err := decode(buf)
	require.NoError(t, err)
	assert.Equal(t, kindIndicator, pkt.kind)
	assert.Equal(t, uint16(42), pkt.seq)
	assert.Equal(t, fsconst.IndV21Preamble, pkt.indicator)
}

func TestEncodeDecodeDataRoundTrip(t *testing.T) {
	payload := []byte{0x01, 0x02, 0x03, 0xFF}
	buf := encodeData(7, fsconst.DataTypeV29_9600, fsconst.FieldT4NonECMData, payload)
	pkt, err := decode(buf)
	require.NoError(t, err)
	assert.Equal(t, kindData, pkt.kind)
	assert.Equal(t, uint16(7), pkt.seq)
	assert.Equal(t, fsconst.DataTypeV29_9600, pkt.dataType)
	assert.Equal(t, fsconst.FieldT4NonECMData, pkt.field)
	assert.Equal(t, payload, pkt.payload)
}

func TestDecodeDataWithEmptyPayload(t *testing.T) {
	buf := encodeData(1, fsconst.DataTypeV21, fsconst.FieldHDLCData, nil)
	pkt, err := decode(buf)
	require.NoError(t, err)
	assert.Empty(t, pkt.payload)
}

func TestDecodeShortPacket(t *testing.T) {
	_, err := decode([]byte{0x01, 0x02})
	assert.ErrorIs(t, err, ErrShortPacket)
}

func TestDecodeHeaderOnlyData(t *testing.T) {
	buf := []byte{byte(kindData), 0x00, 0x01, byte(fsconst.DataTypeV17_7200), byte(fsconst.FieldT4NonECMSigEnd)}
	pkt, err := decode(buf)
	require.NoError(t, err)
	assert.Equal(t, uint16(1), pkt.seq)
	assert.Nil(t, pkt.payload)
}
