package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func fixed(d time.Duration) IntervalFunc {
	return func() time.Duration { return d }
}

func TestScheduler_ErrorsDoNotStopTheLoop(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)

	var calls atomic.Int32
	reached := make(chan struct{})
	job := func(context.Context) error {
		n := calls.Add(1)
		if n == 4 {
			close(reached)
		}
		if n <= 2 {
			return errors.New("github unreachable")
		}
		if n == 3 {
			panic("boom")
		}
		return nil
	}

	s := New(fixed(time.Millisecond), job, WithCooldown(time.Millisecond), WithLogger(zap.New(core)))
	require.NoError(t, s.Start(context.Background()))

	select {
	case <-reached:
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler stopped after failing runs")
	}
	s.Stop()

	assert.Equal(t, 3, logs.FilterMessage("auto-sync error").Len())
}

func TestScheduler_WaitsForIntervalBeforeFirstRun(t *testing.T) {
	var calls atomic.Int32
	s := New(fixed(time.Hour), func(context.Context) error {
		calls.Add(1)
		return nil
	})

	require.NoError(t, s.Start(context.Background()))
	time.Sleep(20 * time.Millisecond)
	s.Stop()

	assert.Equal(t, int32(0), calls.Load())
}

func TestScheduler_RereadsInterval(t *testing.T) {
	var asked atomic.Int32
	interval := func() time.Duration {
		asked.Add(1)
		return time.Millisecond
	}

	done := make(chan struct{})
	var calls atomic.Int32
	s := New(interval, func(context.Context) error {
		if calls.Add(1) == 3 {
			close(done)
		}
		return nil
	})

	require.NoError(t, s.Start(context.Background()))
	<-done
	s.Stop()

	assert.GreaterOrEqual(t, asked.Load(), int32(3))
}

func TestScheduler_CancellationEndsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := New(fixed(time.Hour), func(context.Context) error { return nil })

	finished := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(finished)
	}()

	cancel()
	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}

func TestScheduler_CancelDuringCooldown(t *testing.T) {
	ran := make(chan struct{}, 1)
	s := New(fixed(time.Millisecond), func(context.Context) error {
		select {
		case ran <- struct{}{}:
		default:
		}
		return errors.New("fail")
	}, WithCooldown(time.Hour))

	require.NoError(t, s.Start(context.Background()))
	<-ran

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop blocked during cooldown")
	}
}

func TestScheduler_StartTwice(t *testing.T) {
	s := New(fixed(time.Hour), func(context.Context) error { return nil })

	require.NoError(t, s.Start(context.Background()))
	assert.ErrorIs(t, s.Start(context.Background()), ErrAlreadyRunning)

	s.Stop()
	s.Stop()
	require.NoError(t, s.Start(context.Background()))
	s.Stop()
}
