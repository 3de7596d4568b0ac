package harness

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/maxmix/maxmix.go/pkg/device"
	fx "github.com/maxmix/maxmix.go/pkg/framework"
	"github.com/maxmix/maxmix.go/pkg/message"
	"github.com/maxmix/maxmix.go/pkg/msgs"
	"github.com/maxmix/maxmix.go/pkg/transport"
)

// instantClock fires After immediately and advances the mock time.
type instantClock struct {
	*clock.Mock
	delays []time.Duration
}

func (c *instantClock) After(d time.Duration) <-chan time.Time {
	c.delays = append(c.delays, d)
	c.Mock.Add(d)
	ch := make(chan time.Time, 1)
	ch <- c.Mock.Now()
	return ch
}

type fixedJitter int

func (j fixedJitter) Intn(n int) int {
	if int(j) >= n {
		return n - 1
	}
	return int(j)
}

type fakeChannel struct {
	initialized bool
	reads       int
	readErr     error
	writes      []msgs.MessageType
	writeErrs   map[msgs.MessageType]error
}

func (c *fakeChannel) Initialize(context.Context) error {
	c.initialized = true
	return nil
}

func (c *fakeChannel) Read() (int, error) {
	c.reads++
	return 0, c.readErr
}

func (c *fakeChannel) Write(t msgs.MessageType) error {
	c.writes = append(c.writes, t)
	return c.writeErrs[t]
}

func newTestDriver(ch Channel) (*Driver, *instantClock) {
	clk := &instantClock{Mock: clock.NewMock()}
	d := NewDriver(&device.State{}, ch)
	d.Clock = clk
	d.Jitter = fixedJitter(0)
	return d, clk
}

func TestLoopBroadcast(t *testing.T) {
	ch := &fakeChannel{}
	d, clk := newTestDriver(ch)
	ctx := context.Background()
	require.NoError(t, d.Setup(ctx))
	require.True(t, ch.initialized)

	for i := 0; i < 9; i++ {
		require.NoError(t, d.Loop(ctx))
	}
	require.Empty(t, ch.writes)
	require.Equal(t, 9, d.LoopCount())
	require.Equal(t, 9, ch.reads)

	require.NoError(t, d.Loop(ctx))
	require.Equal(t, msgs.BroadcastOrder, ch.writes)
	require.Equal(t, 0, d.LoopCount())
	stats := d.Stats()
	require.Equal(t, uint64(10), stats.Iterations)
	require.Equal(t, uint64(1), stats.Broadcasts)
	require.Equal(t, clk.Now(), stats.LastBroadcast)

	for i := 0; i < 10; i++ {
		require.NoError(t, d.Loop(ctx))
	}
	require.Len(t, ch.writes, 2*len(msgs.BroadcastOrder))
	require.Equal(t, uint64(2), d.Stats().Broadcasts)
}

func TestBroadcastErrors(t *testing.T) {
	failure := errors.New("write failure")
	ch := &fakeChannel{writeErrs: map[msgs.MessageType]error{
		msgs.TypeSessionInfo: failure,
		msgs.TypeScreen:      failure,
	}}
	d, _ := newTestDriver(ch)
	d.BroadcastEvery = 1
	err := d.Loop(context.Background())
	require.Error(t, err)
	require.Len(t, err.(*fx.AggregatedError).Errors, 2)
	require.Equal(t, msgs.BroadcastOrder, ch.writes)
	require.Equal(t, 0, d.LoopCount())
}

func TestDelay(t *testing.T) {
	d, clk := newTestDriver(&fakeChannel{})
	require.Equal(t, 10*time.Millisecond, d.Delay())
	d.Jitter = fixedJitter(100)
	require.Equal(t, 19*time.Millisecond, d.Delay())

	d.Jitter = rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		require.NoError(t, d.Loop(context.Background()))
	}
	require.Len(t, clk.delays, 200)
	for _, delay := range clk.delays {
		require.True(t, delay >= 10*time.Millisecond && delay < 20*time.Millisecond, "delay %v", delay)
	}

	d.DelayMin, d.DelayMax = 5, 5
	require.Equal(t, 5*time.Millisecond, d.Delay())
}

func TestLoopTransportClosed(t *testing.T) {
	ch := &fakeChannel{readErr: message.ErrClosed}
	d, _ := newTestDriver(ch)
	require.Equal(t, message.ErrClosed, d.Run(context.Background()))
	require.Equal(t, uint64(0), d.Stats().Iterations)
}

func TestLoopReadError(t *testing.T) {
	failure := errors.New("read failure")
	ch := &fakeChannel{readErr: failure}
	d, _ := newTestDriver(ch)
	err := d.Loop(context.Background())
	require.Error(t, err)
	require.Equal(t, []error{failure}, err.(*fx.AggregatedError).Errors)
	require.Equal(t, uint64(1), d.Stats().Iterations)
}

func TestRequests(t *testing.T) {
	ch := &fakeChannel{}
	d, _ := newTestDriver(ch)
	d.State.SessionInfo = msgs.SessionInfo{Current: 0, Count: 2}
	d.State.Sessions.Set(device.SlotCurrent, msgs.Session{ID: 1})
	d.State.Sessions.Set(device.SlotNext, msgs.Session{ID: 2})

	result := d.Post(func(s *device.State, w device.Writer) error {
		_, err := device.NextSession(s, w)
		return err
	})
	require.NoError(t, d.Loop(context.Background()))
	require.NoError(t, <-result)
	require.Equal(t, uint32(1), d.State.SessionInfo.Current)
	require.Equal(t, int32(2), d.State.Sessions.Current().ID)
	require.Equal(t, []msgs.MessageType{msgs.TypeSessionInfo}, ch.writes)
}

func TestNavigateWhileRunning(t *testing.T) {
	ch := &fakeChannel{}
	d, _ := newTestDriver(ch)
	d.State.SessionInfo = msgs.SessionInfo{Current: 1, Count: 3}
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- d.Run(ctx) }()

	moved, err := d.PreviousSession(ctx)
	require.NoError(t, err)
	require.True(t, moved)
	moved, err = d.PreviousSession(ctx)
	require.NoError(t, err)
	require.False(t, moved)
	moved, err = d.NextSession(ctx)
	require.NoError(t, err)
	require.True(t, moved)

	var current uint32
	require.NoError(t, d.Do(ctx, func(s *device.State, w device.Writer) error {
		current = s.SessionInfo.Current
		return nil
	}))
	require.Equal(t, uint32(1), current)

	cancel()
	require.Equal(t, context.Canceled, <-errCh)
}

func TestRunCanceledByRequest(t *testing.T) {
	d, _ := newTestDriver(&fakeChannel{})
	ctx, cancel := context.WithCancel(context.Background())
	result := d.Post(func(*device.State, device.Writer) error {
		cancel()
		return nil
	})
	require.Equal(t, context.Canceled, d.Run(ctx))
	require.NoError(t, <-result)
	require.Equal(t, uint64(0), d.Stats().Iterations)
}

func TestBroadcastOverLoopback(t *testing.T) {
	end, host := transport.NewLoopback(16)
	state := &device.State{}
	state.Settings.ContinuousScroll = true
	state.SessionInfo = msgs.SessionInfo{Current: 0, Count: 1}
	state.Sessions.Set(device.SlotCurrent, msgs.Session{ID: 42, Name: "Spotify", Volume: 30})
	ch := message.New(end, state)
	d, _ := newTestDriver(ch)
	d.State = state
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer ch.Close()

	require.NoError(t, d.Setup(ctx))
	for i := 0; i < DefaultBroadcastEvery; i++ {
		require.NoError(t, d.Loop(ctx))
	}
	for _, typ := range msgs.BroadcastOrder {
		data, err := host.ReadPacket()
		require.NoError(t, err)
		pkt, err := msgs.DecodePacket(data)
		require.NoError(t, err)
		require.Equal(t, typ, pkt.Type)
		payload, err := pkt.Decode()
		require.NoError(t, err)
		switch typ {
		case msgs.TypeSettings:
			require.True(t, payload.(*msgs.Settings).ContinuousScroll)
		case msgs.TypeCurrent:
			require.Equal(t, "Spotify", payload.(*msgs.Session).Name)
		}
	}
}
