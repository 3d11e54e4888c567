// Package t38io is the UDP transport for T.38 IFP packets: it implements
// engine.T38Core on the send side and decodes incoming packets into calls
// against engine.Engine.ProcessRxIndicator/ProcessRxData/ProcessRxMissing
// on the receive side.
//
// Grounded on the teacher's internal/dmr/servers/mmdvm/server.go: a
// net.UDPConn with SetReadBuffer/SetWriteBuffer tuning, a buffered incoming
// channel drained by one listen goroutine and a buffered outgoing channel
// drained by one subscribePackets goroutine, so UDP I/O never blocks the
// engine's own goroutine.
//
// The wire format here is a minimal, self-contained IFP encoding (type,
// sequence number, indicator-or-field, payload) rather than a byte-exact
// T.38 UDPTL/RFC 4103 implementation; the real wire codec's ASN.1 framing
// is out of scope the same way it is opaque to engine.T38Core.
package t38io

import (
	"encoding/binary"
	"errors"

	"github.com/t31hub/t31hub/internal/fsconst"
)

// packetKind distinguishes an indicator-only IFP packet from a data packet.
type packetKind byte

const (
	kindIndicator packetKind = 1
	kindData      packetKind = 2
)

// ErrShortPacket is returned by decode when buf is too small to contain a
// valid header.
var ErrShortPacket = errors.New("t38io: packet shorter than header")

const headerLen = 1 + 2 + 1 + 1 // kind, seq, indicator-or-datatype, field-or-unused

// ifpPacket is the decoded form of one UDP datagram.
type ifpPacket struct {
	kind      packetKind
	seq       uint16
	indicator fsconst.Indicator
	dataType  fsconst.DataType
	field     fsconst.FieldType
	payload   []byte
}

func encodeIndicator(seq uint16, ind fsconst.Indicator) []byte {
	buf := make([]byte, headerLen)
	buf[0] = byte(kindIndicator)
	binary.BigEndian.PutUint16(buf[1:3], seq)
	buf[3] = byte(ind)
	return buf
}

func encodeData(seq uint16, dataType fsconst.DataType, field fsconst.FieldType, payload []byte) []byte {
	buf := make([]byte, headerLen+len(payload))
	buf[0] = byte(kindData)
	binary.BigEndian.PutUint16(buf[1:3], seq)
	buf[3] = byte(dataType)
	buf[4] = byte(field)
	copy(buf[headerLen:], payload)
	return buf
}

func decode(buf []byte) (ifpPacket, error) {
	if len(buf) < headerLen {
		return ifpPacket{}, ErrShortPacket
	}
	p := ifpPacket{
		kind: packetKind(buf[0]),
		seq:  binary.BigEndian.Uint16(buf[1:3]),
	}
	switch p.kind {
	case kindIndicator:
		p.indicator = fsconst.Indicator(buf[3])
	case kindData:
		p.dataType = fsconst.DataType(buf[3])
		p.field = fsconst.FieldType(buf[4])
		if len(buf) > headerLen {
			p.payload = append([]byte(nil), buf[headerLen:]...)
		}
	}
	return p, nil
}
