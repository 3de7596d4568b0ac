// Package harness drives the device emulation loop.
package harness

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/glog"

	"github.com/maxmix/maxmix.go/pkg/device"
	fx "github.com/maxmix/maxmix.go/pkg/framework"
	"github.com/maxmix/maxmix.go/pkg/message"
	"github.com/maxmix/maxmix.go/pkg/msgs"
)

// Defaults
const (
	DefaultDelayMin       = 10
	DefaultDelayMax       = 20
	DefaultDelayUnit      = time.Millisecond
	DefaultBroadcastEvery = 10
)

// Channel is the message transport used by the driver.
type Channel interface {
	Initialize(context.Context) error
	Read() (int, error)
	Write(msgs.MessageType) error
}

// Jitter provides random numbers in [0, n).
type Jitter interface {
	Intn(n int) int
}

// Request is executed on the loop goroutine with exclusive access to the
// state.
type Request func(*device.State, device.Writer) error

// Stats reports the progress of the driver.
type Stats struct {
	Iterations    uint64
	Broadcasts    uint64
	LastBroadcast time.Time
}

// Driver runs the setup/loop cycle.
type Driver struct {
	State   *device.State
	Channel Channel
	Clock   clock.Clock
	Jitter  Jitter

	// Delay between iterations is in [DelayMin, DelayMax) DelayUnits.
	DelayMin  int
	DelayMax  int
	DelayUnit time.Duration
	// BroadcastEvery is the number of iterations between full broadcasts.
	BroadcastEvery int

	loopCount int
	stats     Stats

	reqLock  sync.Mutex
	requests []*pendingRequest
}

type pendingRequest struct {
	fn     Request
	result chan error
}

// NewDriver creates a Driver with defaults.
func NewDriver(state *device.State, ch Channel) *Driver {
	return &Driver{
		State:          state,
		Channel:        ch,
		Clock:          clock.New(),
		Jitter:         rand.New(rand.NewSource(time.Now().UnixNano())),
		DelayMin:       DefaultDelayMin,
		DelayMax:       DefaultDelayMax,
		DelayUnit:      DefaultDelayUnit,
		BroadcastEvery: DefaultBroadcastEvery,
	}
}

// Setup initializes the channel. It's called once before Loop.
func (d *Driver) Setup(ctx context.Context) error {
	return d.Channel.Initialize(ctx)
}

// Loop runs one iteration: posted requests, inbound messages, the jittered
// delay, and the periodic broadcast. Transport errors don't stop the
// iteration and are returned aggregated. message.ErrClosed is returned as
// is, when the transport is gone.
func (d *Driver) Loop(ctx context.Context) error {
	var errs fx.AggregatedError
	d.processRequests()

	if _, err := d.Channel.Read(); err != nil {
		if err == message.ErrClosed {
			return err
		}
		errs.Add(err)
	}

	if err := d.sleep(ctx, d.Delay()); err != nil {
		return err
	}

	d.stats.Iterations++
	if d.loopCount++; d.loopCount >= d.broadcastEvery() {
		d.loopCount = 0
		d.broadcast(&errs)
	}
	return errs.Aggregate()
}

// Run calls Setup and then Loop until ctx is done or the transport is
// closed.
func (d *Driver) Run(ctx context.Context) error {
	if err := d.Setup(ctx); err != nil {
		return err
	}
	glog.Infof("harness running, broadcast every %d iterations", d.broadcastEvery())
	defer d.failRequests(context.Canceled)
	for {
		err := d.Loop(ctx)
		switch err {
		case nil:
			continue
		case context.Canceled, context.DeadlineExceeded, message.ErrClosed:
			return err
		}
		glog.Warningf("loop: %v", err)
	}
}

// Broadcast writes the full state in BroadcastOrder. All types are written
// even if some fail.
func (d *Driver) Broadcast() error {
	var errs fx.AggregatedError
	d.broadcast(&errs)
	return errs.Aggregate()
}

func (d *Driver) broadcast(errs *fx.AggregatedError) {
	for _, t := range msgs.BroadcastOrder {
		errs.Add(d.Channel.Write(t))
	}
	d.stats.Broadcasts++
	d.stats.LastBroadcast = d.Clock.Now()
}

// Delay returns the next jittered delay.
func (d *Driver) Delay() time.Duration {
	min, max := d.DelayMin, d.DelayMax
	n := min
	if max > min {
		n += d.Jitter.Intn(max - min)
	}
	unit := d.DelayUnit
	if unit == 0 {
		unit = DefaultDelayUnit
	}
	return time.Duration(n) * unit
}

func (d *Driver) broadcastEvery() int {
	if d.BroadcastEvery <= 0 {
		return DefaultBroadcastEvery
	}
	return d.BroadcastEvery
}

func (d *Driver) sleep(ctx context.Context, dur time.Duration) error {
	if err := ctx.Err(); err != nil || dur <= 0 {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-d.Clock.After(dur):
		return nil
	}
}

// LoopCount returns the iterations since the last broadcast.
// It must be called on the loop goroutine, e.g. inside a Request.
func (d *Driver) LoopCount() int {
	return d.loopCount
}

// Stats returns a copy of the progress counters.
// It must be called on the loop goroutine, e.g. inside a Request.
func (d *Driver) Stats() Stats {
	return d.stats
}

// Post queues a request for the next iteration and returns the chan which
// receives its result.
func (d *Driver) Post(fn Request) <-chan error {
	req := &pendingRequest{fn: fn, result: make(chan error, 1)}
	d.reqLock.Lock()
	d.requests = append(d.requests, req)
	d.reqLock.Unlock()
	return req.result
}

// Do posts a request and waits for its result.
func (d *Driver) Do(ctx context.Context, fn Request) error {
	select {
	case err := <-d.Post(fn):
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PreviousSession requests focusing the previous session.
func (d *Driver) PreviousSession(ctx context.Context) (moved bool, err error) {
	err = d.Do(ctx, func(s *device.State, w device.Writer) (err error) {
		moved, err = device.PreviousSession(s, w)
		return
	})
	return
}

// NextSession requests focusing the next session.
func (d *Driver) NextSession(ctx context.Context) (moved bool, err error) {
	err = d.Do(ctx, func(s *device.State, w device.Writer) (err error) {
		moved, err = device.NextSession(s, w)
		return
	})
	return
}

func (d *Driver) takeRequests() []*pendingRequest {
	d.reqLock.Lock()
	defer d.reqLock.Unlock()
	reqs := d.requests
	d.requests = nil
	return reqs
}

func (d *Driver) processRequests() {
	for _, req := range d.takeRequests() {
		req.result <- req.fn(d.State, d.Channel)
	}
}

func (d *Driver) failRequests(err error) {
	for _, req := range d.takeRequests() {
		req.result <- err
	}
}
