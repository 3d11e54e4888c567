package t38io

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/t31hub/t31hub/internal/config"
	"github.com/t31hub/t31hub/internal/engine"
	"github.com/t31hub/t31hub/internal/fsconst"
	"go.opentelemetry.io/otel"
)

const channelBufferSize = 100
const bufferSize = 1 << 20 // 1MB, matching the teacher's UDP socket tuning

var (
	ErrOpenSocket   = errors.New("t38io: error opening socket")
	ErrSocketBuffer = errors.New("t38io: error setting socket buffer size")
)

type rawPacket struct {
	addr *net.UDPAddr
	data []byte
}

// Server is the UDP gateway multiplexing every configured line's T.38
// traffic over one socket, keyed by remote address the way the teacher's
// MMDVM server keys repeaters by IP.
type Server struct {
	cfg  *config.Config
	log  *slog.Logger
	addr net.UDPAddr
	conn *net.UDPConn

	incomingChan chan rawPacket
	outgoingChan chan rawPacket

	mu    sync.RWMutex
	lines map[string]lineBinding

	seqMu sync.Mutex
	txSeq map[string]uint16
	rxSeq map[string]uint16
}

type lineBinding struct {
	remote *net.UDPAddr
	engine *engine.Engine
	cancel context.CancelFunc
}

// pacingTickMs is the interval the pacing loop advances the T.38 transmit
// scheduler's sample clock by, independent of any analog audio I/O (there
// is none in T.38 mode): it stands in for the host's real-time timer
// backend calling t38_send_timeout on a wall-clock schedule.
const pacingTickMs = 5

// NewServer builds (but does not start) the T.38 UDP gateway.
func NewServer(cfg *config.Config, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		cfg: cfg,
		log: log,
		addr: net.UDPAddr{
			IP:   net.ParseIP(cfg.T38.Bind),
			Port: cfg.T38.Port,
		},
		incomingChan: make(chan rawPacket, channelBufferSize),
		outgoingChan: make(chan rawPacket, channelBufferSize),
		lines:        make(map[string]lineBinding),
		txSeq:        make(map[string]uint16),
		rxSeq:        make(map[string]uint16),
	}
}

// BindLine reserves remote as a peer address and returns an engine.T38Core
// adapter through which the not-yet-constructed Engine for that peer can
// send. Call this before constructing the Engine (engine.New needs a
// T38Core), then call AttachEngine once the Engine exists so incoming
// packets and the pacing loop have somewhere to deliver.
func (s *Server) BindLine(remote *net.UDPAddr) engine.T38Core {
	s.mu.Lock()
	s.lines[remote.String()] = lineBinding{remote: remote}
	s.mu.Unlock()
	return &lineCore{server: s, remote: remote}
}

// AttachEngine completes a BindLine registration once the Engine for that
// peer has been constructed, and starts its pacing loop.
func (s *Server) AttachEngine(remote *net.UDPAddr, e *engine.Engine) {
	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.lines[remote.String()] = lineBinding{remote: remote, engine: e, cancel: cancel}
	s.mu.Unlock()
	go s.pacingLoop(ctx, e)
}

// UnbindLine removes a line's peer binding and stops its pacing loop, e.g.
// once its call has ended.
func (s *Server) UnbindLine(remote *net.UDPAddr) {
	s.mu.Lock()
	binding, ok := s.lines[remote.String()]
	delete(s.lines, remote.String())
	s.mu.Unlock()
	if ok {
		binding.cancel()
	}
}

func (s *Server) pacingLoop(ctx context.Context, e *engine.Engine) {
	ticker := time.NewTicker(pacingTickMs * time.Millisecond)
	defer ticker.Stop()
	var samples int64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			samples += pacingTickMs * fsconst.SampleRate / 1000
			e.T38SendTimeout(samples)
		}
	}
}

// Start opens the UDP socket and launches the listen/send goroutines.
func (s *Server) Start(ctx context.Context) error {
	conn, err := net.ListenUDP("udp", &s.addr)
	if err != nil {
		s.log.Error("error opening t38 udp socket", "error", err)
		return ErrOpenSocket
	}
	if err := conn.SetReadBuffer(bufferSize); err != nil {
		s.log.Error("error setting t38 udp read buffer", "error", err)
		return ErrSocketBuffer
	}
	if err := conn.SetWriteBuffer(bufferSize); err != nil {
		s.log.Error("error setting t38 udp write buffer", "error", err)
		return ErrSocketBuffer
	}
	s.conn = conn

	s.log.Info("t38 udp gateway listening", "address", s.addr.String())

	go s.listen(ctx)
	go s.subscribePackets(ctx)
	go s.readLoop(ctx)

	return nil
}

// Close shuts down the UDP socket.
func (s *Server) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *Server) readLoop(ctx context.Context) {
	buf := make([]byte, 2048)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		n, remote, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			s.log.Error("error reading t38 udp socket", "error", err)
			continue
		}
		data := make([]byte, n)
		copy(data, buf[:n])
		s.incomingChan <- rawPacket{addr: remote, data: data}
	}
}

func (s *Server) listen(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case pkt := <-s.incomingChan:
			s.handlePacket(pkt.addr, pkt.data)
		}
	}
}

func (s *Server) subscribePackets(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case pkt := <-s.outgoingChan:
			if _, err := s.conn.WriteToUDP(pkt.data, pkt.addr); err != nil {
				s.log.Error("error sending t38 packet", "error", err, "remote", pkt.addr.String())
			}
		}
	}
}

func (s *Server) handlePacket(remote *net.UDPAddr, data []byte) {
	_, span := otel.Tracer("t31hub").Start(context.Background(), "Server.handlePacket")
	defer span.End()

	s.mu.RLock()
	binding, ok := s.lines[remote.String()]
	s.mu.RUnlock()
	if !ok || binding.engine == nil {
		s.log.Debug("t38 packet from unbound or not-yet-attached peer", "remote", remote.String())
		return
	}

	pkt, err := decode(data)
	if err != nil {
		s.log.Debug("dropping malformed t38 packet", "error", err, "remote", remote.String())
		return
	}

	s.seqMu.Lock()
	expected := s.rxSeq[remote.String()]
	if pkt.seq != expected {
		s.seqMu.Unlock()
		binding.engine.ProcessRxMissing(int(pkt.seq), int(expected))
		s.seqMu.Lock()
	}
	s.rxSeq[remote.String()] = pkt.seq + 1
	s.seqMu.Unlock()

	switch pkt.kind {
	case kindIndicator:
		binding.engine.ProcessRxIndicator(pkt.indicator)
	case kindData:
		binding.engine.ProcessRxData(pkt.dataType, pkt.field, pkt.payload)
	}
}

func (s *Server) send(remote *net.UDPAddr, data []byte) {
	s.outgoingChan <- rawPacket{addr: remote, data: data}
}

func (s *Server) nextTxSeq(remote *net.UDPAddr) uint16 {
	s.seqMu.Lock()
	defer s.seqMu.Unlock()
	key := remote.String()
	seq := s.txSeq[key]
	s.txSeq[key] = seq + 1
	return seq
}

// lineCore is the per-line engine.T38Core adapter bound to one peer
// address on a shared Server socket.
type lineCore struct {
	server *Server
	remote *net.UDPAddr
}

func (c *lineCore) SendIndicator(ind fsconst.Indicator, count int) error {
	if count <= 0 {
		count = 1
	}
	seq := c.server.nextTxSeq(c.remote)
	buf := encodeIndicator(seq, ind)
	for i := 0; i < count; i++ {
		c.server.send(c.remote, buf)
	}
	return nil
}

func (c *lineCore) SendData(dataType fsconst.DataType, field fsconst.FieldType, buf []byte, count int) error {
	if count <= 0 {
		count = 1
	}
	seq := c.server.nextTxSeq(c.remote)
	packet := encodeData(seq, dataType, field, buf)
	for i := 0; i < count; i++ {
		c.server.send(c.remote, packet)
	}
	return nil
}
