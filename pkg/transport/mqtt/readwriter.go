package mqtt

import (
	"context"
	"io"
)

// Topic suffixes
const (
	// SuffixMsg carries packets sent by the device.
	SuffixMsg = "/msg"
	// SuffixCmd carries packets sent to the device.
	SuffixCmd = "/cmd"
)

// ReadWriter implements PacketReadWriter.
type ReadWriter struct {
	Queue    *Queue
	SubTopic string
	PubTopic string

	packetCh chan []byte
	doneCh   chan struct{}
}

// NewPacketReadWriter creates the ReadWriter.
func NewPacketReadWriter(q *Queue) *ReadWriter {
	return &ReadWriter{
		Queue:    q,
		packetCh: make(chan []byte, 16),
		doneCh:   make(chan struct{}),
	}
}

// WithTopics specifies the topics.
func (p *ReadWriter) WithTopics(sub, pub string) *ReadWriter {
	p.SubTopic, p.PubTopic = sub, pub
	return p
}

// ForDevice sets topics using default convention for the device end:
// SubTopic = id/cmd
// PubTopic = id/msg
func (p *ReadWriter) ForDevice(id string) *ReadWriter {
	return p.WithTopics(id+SuffixCmd, id+SuffixMsg)
}

// ForHost sets topics using default convention for the host end:
// SubTopic = id/msg
// PubTopic = id/cmd
func (p *ReadWriter) ForHost(id string) *ReadWriter {
	return p.WithTopics(id+SuffixMsg, id+SuffixCmd)
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-p.packetCh:
		return pkt, nil
	case <-p.doneCh:
		return nil, io.EOF
	}
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	token := p.Queue.Pub(p.PubTopic, pkt)
	token.Wait()
	return token.Error()
}

// Run implements Runnable. It connects the queue and subscribes SubTopic
// until ctx is done.
func (p *ReadWriter) Run(ctx context.Context) error {
	defer close(p.doneCh)
	token := p.Queue.Connect()
	token.Wait()
	if err := token.Error(); err != nil {
		return err
	}
	defer p.Queue.Close()
	sub := p.Queue.Sub(p.SubTopic, Handler(p.handleMsg))
	defer sub.Close()
	<-ctx.Done()
	return ctx.Err()
}

func (p *ReadWriter) handleMsg(_ string, payload []byte) {
	select {
	case p.packetCh <- payload:
	case <-p.doneCh:
	}
}
