package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWorkingPool_ExecutesJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewWorkingPool(2, 8)

	var wg sync.WaitGroup
	wg.Add(1)
	go pool.Start(ctx, &wg)

	var executed atomic.Int32
	done := make(chan struct{})
	for i := 0; i < 5; i++ {
		pool.SubmitJob(func(context.Context) error {
			if executed.Add(1) == 5 {
				close(done)
			}
			return nil
		})
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("jobs did not finish in time")
	}

	cancel()
	wg.Wait()
	assert.Equal(t, int32(5), executed.Load())
}

func TestWorkingPool_SurvivesPanicAndError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewWorkingPool(1, 4)

	var wg sync.WaitGroup
	wg.Add(1)
	go pool.Start(ctx, &wg)

	done := make(chan struct{})
	pool.SubmitJob(func(context.Context) error { panic("boom") })
	pool.SubmitJob(func(context.Context) error { return errors.New("job failed") })
	pool.SubmitJob(func(context.Context) error {
		close(done)
		return nil
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not recover from panic")
	}

	cancel()
	wg.Wait()
}

func TestWorkingPool_SubmitAfterDelays(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewWorkingPool(1, 4)

	var wg sync.WaitGroup
	wg.Add(1)
	go pool.Start(ctx, &wg)

	start := time.Now()
	done := make(chan struct{})
	pool.SubmitAfter(ctx, 50*time.Millisecond, func(context.Context) error {
		close(done)
		return nil
	})

	select {
	case <-done:
		assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
	case <-time.After(2 * time.Second):
		t.Fatal("delayed job never ran")
	}

	cancel()
	wg.Wait()
}

func TestWorkingPool_SubmitAfterRacingShutdown(t *testing.T) {
	// Timers that fire right as the pool shuts down must either deliver or
	// drop their job, never crash the process.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	pool := NewWorkingPool(2, 4)

	var wg sync.WaitGroup
	wg.Add(1)
	go pool.Start(ctx, &wg)

	for i := 0; i < 200; i++ {
		pool.SubmitAfter(ctx, time.Duration(i)*time.Microsecond, func(context.Context) error {
			return nil
		})
		if i == 100 {
			cancel()
		}
	}

	wg.Wait()
	time.Sleep(50 * time.Millisecond)
}

func TestWorkingPool_SubmitAfterCanceledBeforeDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewWorkingPool(1, 4)

	var wg sync.WaitGroup
	wg.Add(1)
	go pool.Start(ctx, &wg)

	var executed atomic.Bool
	pool.SubmitAfter(ctx, 200*time.Millisecond, func(context.Context) error {
		executed.Store(true)
		return nil
	})

	cancel()
	wg.Wait()
	time.Sleep(300 * time.Millisecond)

	assert.False(t, executed.Load(), "canceled delayed job must not run")
}
