// Package message binds a packet transport to the device state.
package message

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/golang/glog"

	"github.com/maxmix/maxmix.go/pkg/device"
	fx "github.com/maxmix/maxmix.go/pkg/framework"
	"github.com/maxmix/maxmix.go/pkg/msgs"
	"github.com/maxmix/maxmix.go/pkg/transport"
)

// DefaultMaxRead is the default number of packets handled per Read.
const DefaultMaxRead = 8

var (
	// ErrNotInitialized indicates Initialize hasn't been called.
	ErrNotInitialized = errors.New("channel not initialized")
	// ErrClosed indicates the transport stopped delivering packets.
	ErrClosed = errors.New("channel closed")
)

// Stats counts packets through the channel.
type Stats struct {
	Received uint64
	Applied  uint64
	Dropped  uint64
	Sent     uint64
	Failed   uint64
}

// Channel reads packets into the device state and writes state items as
// packets. Read and Write must be called from the goroutine owning State.
type Channel struct {
	Transport transport.PacketReadWriter
	State     *device.State
	// MaxRead bounds the number of packets handled by one Read.
	MaxRead int

	stats    Stats
	packetCh chan []byte
	cancel   context.CancelFunc
	runner   *fx.Runner
	errLock  sync.Mutex
	err      error
}

// New creates a Channel.
func New(t transport.PacketReadWriter, s *device.State) *Channel {
	return &Channel{Transport: t, State: s, MaxRead: DefaultMaxRead}
}

// Initialize starts the background runners of the transport and the
// packet pump.
func (c *Channel) Initialize(ctx context.Context) error {
	if c.runner != nil {
		return nil
	}
	ctx, c.cancel = context.WithCancel(ctx)
	c.packetCh = make(chan []byte, 32)
	c.runner = fx.NewRunnerWith(ctx)
	if runnable, ok := c.Transport.(fx.Runnable); ok {
		c.runner.Go(fx.NamedRun("transport", fx.RunFunc(func(ctx context.Context) error {
			err := runnable.Run(ctx)
			if ctx.Err() != nil {
				return nil
			}
			if err != nil {
				glog.Warningf("transport stopped: %v", err)
				c.setErr(err)
				c.closeTransport()
			}
			return err
		})))
	}
	c.runner.Go(fx.NamedRun("pump", fx.RunFunc(c.pump)))
	glog.Info("message channel initialized")
	return nil
}

func (c *Channel) pump(ctx context.Context) error {
	defer close(c.packetCh)
	for {
		pkt, err := c.Transport.ReadPacket()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if err != io.EOF {
				glog.Warningf("transport read error: %v", err)
			}
			c.setErr(err)
			return err
		}
		select {
		case c.packetCh <- pkt:
		case <-ctx.Done():
			return nil
		}
	}
}

func (c *Channel) setErr(err error) {
	c.errLock.Lock()
	if c.err == nil {
		c.err = err
	}
	c.errLock.Unlock()
}

// Err returns the error which stopped the transport, if any.
func (c *Channel) Err() error {
	c.errLock.Lock()
	defer c.errLock.Unlock()
	return c.err
}

// Read handles available inbound packets without blocking. It returns the
// number of packets applied to the state. Bad packets are logged and
// skipped. ErrClosed is returned once the transport stopped.
func (c *Channel) Read() (int, error) {
	if c.packetCh == nil {
		return 0, ErrNotInitialized
	}
	limit := c.MaxRead
	if limit <= 0 {
		limit = DefaultMaxRead
	}
	var applied int
	for i := 0; i < limit; i++ {
		select {
		case data, ok := <-c.packetCh:
			if !ok {
				return applied, ErrClosed
			}
			c.stats.Received++
			if err := c.apply(data); err != nil {
				c.stats.Dropped++
				glog.Errorf("drop inbound packet: %v", err)
				continue
			}
			c.stats.Applied++
			applied++
		default:
			return applied, nil
		}
	}
	return applied, nil
}

func (c *Channel) apply(data []byte) error {
	pkt, err := msgs.DecodePacket(data)
	if err != nil {
		return err
	}
	payload, err := pkt.Decode()
	if err != nil {
		return err
	}
	glog.V(2).Infof("RCV %s %s", pkt.Type, payload.String())
	return c.State.Apply(pkt.Type, payload)
}

// Write transmits the state item of type t.
func (c *Channel) Write(t msgs.MessageType) error {
	err := c.write(t)
	if err != nil {
		c.stats.Failed++
		return err
	}
	c.stats.Sent++
	return nil
}

func (c *Channel) write(t msgs.MessageType) error {
	payload, err := c.State.Payload(t)
	if err != nil {
		return err
	}
	pkt, err := msgs.Encode(t, payload)
	if err != nil {
		return err
	}
	glog.V(2).Infof("SND %s %s", t, payload.String())
	return c.Transport.WritePacket(pkt.Bytes())
}

// Stats returns the packet counters.
func (c *Channel) Stats() Stats {
	return c.stats
}

func (c *Channel) closeTransport() error {
	if closer, ok := c.Transport.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Close stops the runners and closes the transport.
func (c *Channel) Close() error {
	if c.runner == nil {
		return c.closeTransport()
	}
	c.cancel()
	var errs fx.AggregatedError
	errs.Add(c.closeTransport())
	if err := c.runner.Wait(); err != nil && c.Err() == nil {
		errs.Add(err)
	}
	c.runner = nil
	return errs.Aggregate()
}
