package transport

import (
	"io"
	"sync"
)

// Loopback is an in-memory PacketReadWriter. Packets written to one end
// are read from the peer end.
type Loopback struct {
	recvCh chan []byte
	peer   *Loopback
	closed chan struct{}
	once   sync.Once
}

// NewLoopback creates a connected pair of Loopbacks with the given queue
// size on each direction.
func NewLoopback(size int) (*Loopback, *Loopback) {
	a := &Loopback{recvCh: make(chan []byte, size), closed: make(chan struct{})}
	b := &Loopback{recvCh: make(chan []byte, size), closed: make(chan struct{})}
	a.peer, b.peer = b, a
	return a, b
}

// ReadPacket implements PacketReader. Once either end is closed, it
// returns io.EOF even if packets are still queued.
func (l *Loopback) ReadPacket() ([]byte, error) {
	if l.isClosed() {
		return nil, io.EOF
	}
	select {
	case pkt := <-l.recvCh:
		return pkt, nil
	case <-l.closed:
		return nil, io.EOF
	case <-l.peer.closed:
		return nil, io.EOF
	}
}

// WritePacket implements PacketWriter. The packet is copied.
func (l *Loopback) WritePacket(pkt []byte) error {
	if l.isClosed() {
		return io.ErrClosedPipe
	}
	cp := append([]byte(nil), pkt...)
	select {
	case l.peer.recvCh <- cp:
		return nil
	case <-l.closed:
		return io.ErrClosedPipe
	case <-l.peer.closed:
		return io.ErrClosedPipe
	}
}

func (l *Loopback) isClosed() bool {
	select {
	case <-l.closed:
		return true
	case <-l.peer.closed:
		return true
	default:
		return false
	}
}

// Close implements io.Closer.
func (l *Loopback) Close() error {
	l.once.Do(func() { close(l.closed) })
	return nil
}
