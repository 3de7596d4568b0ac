package link

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/golang/glog"

	fx "github.com/maxmix/maxmix.go/pkg/framework"
)

// DefaultTimeout is the default resync timeout.
const DefaultTimeout = 100 * time.Millisecond

// Link sends and receives frames over a byte stream.
type Link struct {
	Stream  io.ReadWriter
	Timeout time.Duration
	// OnStateChange is called from Run when the sync state changes.
	OnStateChange func(State)

	seq     Seq
	state   State
	lock    sync.RWMutex
	timer   <-chan time.Time
	decoder Decoder
	frameCh chan *Frame
	doneCh  chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// New creates a Link over a byte stream.
func New(stream io.ReadWriter) *Link {
	return &Link{
		Stream:  stream,
		Timeout: DefaultTimeout,
		seq:     NewSeq(),
		frameCh: make(chan *Frame, 16),
		doneCh:  make(chan struct{}),
	}
}

// State gets the state.
func (l *Link) State() State {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.state
}

// Send sends a frame. Seq of the frame is assigned by the link.
// ErrClosed is returned once Run exited.
func (l *Link) Send(frame *Frame) error {
	if err := frame.validate(); err != nil {
		return err
	}
	select {
	case <-l.doneCh:
		return ErrClosed
	default:
	}
	l.lock.Lock()
	defer l.lock.Unlock()
	if !l.state.IsReady() {
		return ErrNotReady
	}
	frame.Seq = l.seq
	if _, err := frame.WriteTo(l.Stream); err != nil {
		return err
	}
	l.seq = l.seq.Next()
	return nil
}

// Frames returns the chan of received frames. It's closed when Run exits.
func (l *Link) Frames() <-chan *Frame {
	return l.frameCh
}

// Run processes the link in the background. If the stream is an
// io.Closer, it's closed when Run exits so the blocked reader is released.
func (l *Link) Run(ctx context.Context) error {
	defer close(l.frameCh)
	defer close(l.doneCh)
	if _, ok := l.Stream.(io.Closer); ok {
		return fx.RunWithContextCloser(ctx, l, func() error {
			return l.run(ctx)
		})
	}
	return l.run(ctx)
}

func (l *Link) run(ctx context.Context) error {
	if err := l.apply(ctx, l.decoder.Reset()); err != nil {
		return err
	}
	byteCh, errCh := make(chan byte), make(chan error, 1)
	readCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go l.readLoop(readCtx, byteCh, errCh)
	for {
		var err error
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err = <-errCh:
			return err
		case b := <-byteCh:
			err = l.apply(ctx, l.decoder.Feed(b))
		case <-l.timer:
			err = l.apply(ctx, l.decoder.Expire())
		}
		if err != nil {
			return err
		}
	}
}

func (l *Link) readLoop(ctx context.Context, byteCh chan<- byte, errCh chan<- error) {
	buf := make([]byte, 1)
	for {
		n, err := l.Stream.Read(buf)
		if err != nil {
			errCh <- err
			return
		}
		if n == 0 {
			continue
		}
		select {
		case byteCh <- buf[0]:
		case <-ctx.Done():
			return
		}
	}
}

func (l *Link) apply(ctx context.Context, r Result) (err error) {
	var changed bool
	l.lock.Lock()
	if l.state != r.State {
		l.state, changed = r.State, true
	}
	if r.Reply != 0 {
		_, err = l.Stream.Write([]byte{r.Reply, byte(l.seq)})
	}
	l.lock.Unlock()
	if err != nil {
		return
	}

	if r.RestartTimer() {
		l.timer = time.After(l.Timeout)
	} else if r.StopTimer() {
		l.timer = nil
	}

	if changed {
		glog.V(2).Infof("link %s", r.State)
		if fn := l.OnStateChange; fn != nil {
			fn(r.State)
		}
	}
	if r.Frame != nil {
		select {
		case l.frameCh <- r.Frame:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return
}

// ReadPacket implements transport.PacketReader.
// The first byte of a packet is the frame code.
func (l *Link) ReadPacket() ([]byte, error) {
	frame, ok := <-l.frameCh
	if !ok {
		return nil, io.EOF
	}
	pkt := make([]byte, len(frame.Data)+1)
	pkt[0] = frame.Code
	copy(pkt[1:], frame.Data)
	return pkt, nil
}

// WritePacket implements transport.PacketWriter.
func (l *Link) WritePacket(pkt []byte) error {
	if len(pkt) == 0 {
		return ErrInvalidCode
	}
	return l.Send(&Frame{Code: pkt[0], Data: pkt[1:]})
}

// Close implements io.Closer. It closes the stream once if it's an
// io.Closer.
func (l *Link) Close() error {
	l.closeOnce.Do(func() {
		if closer, ok := l.Stream.(io.Closer); ok {
			l.closeErr = closer.Close()
		}
	})
	return l.closeErr
}
