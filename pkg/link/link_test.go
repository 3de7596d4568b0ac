package link

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type fakeStream struct {
	readCh  chan byte
	writeCh chan byte
}

func newFakeStream() *fakeStream {
	return &fakeStream{
		readCh:  make(chan byte, 64),
		writeCh: make(chan byte, 64),
	}
}

func (s *fakeStream) Read(p []byte) (int, error) {
	b, ok := <-s.readCh
	if !ok {
		return 0, io.EOF
	}
	p[0] = b
	return 1, nil
}

func (s *fakeStream) Write(p []byte) (int, error) {
	for _, b := range p {
		s.writeCh <- b
	}
	return len(p), nil
}

func (s *fakeStream) inject(p ...byte) {
	for _, b := range p {
		s.readCh <- b
	}
}

func (s *fakeStream) expectWritten(t *testing.T, n int) []byte {
	out := make([]byte, 0, n)
	for len(out) < n {
		select {
		case b := <-s.writeCh:
			out = append(out, b)
		case <-time.After(time.Second):
			t.Fatalf("expect %d bytes written, got %v", n, out)
		}
	}
	return out
}

func expectState(t *testing.T, ch <-chan State, expected State) {
	for {
		select {
		case s := <-ch:
			if s == expected {
				return
			}
		case <-time.After(time.Second):
			t.Fatalf("expect state %s timeout", expected)
		}
	}
}

func TestLinkSyncAndTransfer(t *testing.T) {
	stream := newFakeStream()
	l := New(stream)
	l.Timeout = time.Hour
	stateCh := make(chan State, 16)
	l.OnStateChange = func(s State) { stateCh <- s }

	require.Equal(t, ErrNotReady, l.WritePacket([]byte{1}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()

	req := stream.expectWritten(t, 2)
	require.Equal(t, SyncREQ, req[0])
	seq := Seq(req[1])
	require.True(t, seq.IsValid())

	stream.inject(SyncREQ, 7)
	require.Equal(t, []byte{SyncACK, byte(seq)}, stream.expectWritten(t, 2))
	expectState(t, stateCh, StateReady)
	require.True(t, l.State().IsReady())

	stream.inject(7, 0x12, 0xaa)
	pkt, err := l.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, []byte{0x02, 0xaa}, pkt)

	require.NoError(t, l.WritePacket([]byte{0x04, 1, 2}))
	require.Equal(t, []byte{byte(seq), 0x24, 1, 2}, stream.expectWritten(t, 4))
	require.NoError(t, l.WritePacket([]byte{0x05}))
	require.Equal(t, []byte{byte(seq.Next()), 0x05}, stream.expectWritten(t, 2))

	require.Equal(t, ErrFrameTooLarge, l.WritePacket(make([]byte, MaxDataLen+2)))
	require.Equal(t, ErrInvalidCode, l.WritePacket(nil))

	cancel()
	select {
	case err = <-errCh:
		require.Equal(t, context.Canceled, err)
	case <-time.After(time.Second):
		t.Fatal("link didn't stop")
	}
	_, err = l.ReadPacket()
	require.Equal(t, io.EOF, err)
	require.Equal(t, ErrClosed, l.WritePacket([]byte{0x04}))
}

func TestLinkStreamError(t *testing.T) {
	stream := newFakeStream()
	l := New(stream)
	close(stream.readCh)
	err := l.Run(context.Background())
	require.Equal(t, io.EOF, err)
}

func TestLinkCancelClosesStream(t *testing.T) {
	conn, peer := net.Pipe()
	defer peer.Close()
	l := New(conn)
	l.Timeout = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- l.Run(ctx) }()

	req := make([]byte, 2)
	_, err := io.ReadFull(peer, req)
	require.NoError(t, err)
	require.Equal(t, SyncREQ, req[0])

	cancel()
	select {
	case err = <-errCh:
		require.Equal(t, context.Canceled, err)
	case <-time.After(time.Second):
		t.Fatal("link didn't stop")
	}
	// the reader blocked in conn.Read is released by closing conn
	_, err = peer.Read(req)
	require.Equal(t, io.EOF, err)
	require.Equal(t, ErrClosed, l.WritePacket([]byte{1}))
	require.NoError(t, l.Close())
}
