package framework

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

func TestRunnerWait(t *testing.T) {
	failure := errors.New("failure")
	r := NewRunner().Go(
		RunFunc(func(context.Context) error { return nil }),
		NamedRun("failing", RunFunc(func(context.Context) error { return failure })),
		RunFunc(func(context.Context) error { return context.Canceled }),
	)
	err := r.Wait()
	require.Error(t, err)
	require.Equal(t, []error{failure}, err.(*AggregatedError).Errors)
	require.Equal(t, "failure", err.Error())
}

func TestRunnerCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	r := NewRunnerWith(ctx).Go(RunFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))
	cancel()
	require.NoError(t, r.Wait())
}

func TestRunnerWaitFlatten(t *testing.T) {
	closed := errors.New("closed")
	err := NewRunner().Go(
		RunFunc(func(context.Context) error { return closed }),
		RunFunc(func(context.Context) error { return nil }),
	).Wait()
	require.IsType(t, &AggregatedError{}, err)
	require.Equal(t, closed, Flatten(err))

	multi := (&AggregatedError{}).Add(closed, errors.New("other")).Aggregate()
	require.Equal(t, multi, Flatten(multi))
	require.NoError(t, Flatten(nil))
	require.Equal(t, closed, Flatten(closed))
}

func TestNamedRun(t *testing.T) {
	named := NamedRun("harness", RunFunc(func(context.Context) error { return nil }))
	require.Equal(t, "harness", named.(Named).Name())
}

func TestAggregatedError(t *testing.T) {
	var errs AggregatedError
	require.NoError(t, errs.Aggregate())
	errs.Add(nil, errors.New("a"), nil, errors.New("b"))
	require.Equal(t, 2, errs.Len())
	require.Equal(t, "Multiple errors:\na\nb", errs.Aggregate().Error())
}

func TestRunWithContextCloser(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	unblock := make(chan struct{})
	closed := 0
	closer := closerFunc(func() error {
		closed++
		close(unblock)
		return nil
	})
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := RunWithContextCloser(ctx, closer, func() error {
		<-unblock
		return nil
	})
	require.Equal(t, context.Canceled, err)
	require.Equal(t, 1, closed)

	closed = 0
	unblock = make(chan struct{})
	err = RunWithContextCloser(context.Background(), closer, func() error {
		return errors.New("done")
	})
	require.EqualError(t, err, "done")
	require.Equal(t, 1, closed)
}
