package workerpool_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/stockroom/pkg/logger"
	"github.com/shashiranjanraj/stockroom/pkg/workerpool"
)

func quiet(t *testing.T) {
	prev := logger.L
	logger.L = logger.Discard()
	t.Cleanup(func() { logger.L = prev })
}

func TestPool_SubmitAndExecute(t *testing.T) {
	pool := workerpool.New(4)
	defer pool.Shutdown()

	const n = 100
	var count atomic.Int64

	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		require.NoError(t, pool.SubmitWait(func() {
			defer wg.Done()
			count.Add(1)
		}))
	}
	wg.Wait()

	assert.Equal(t, int64(n), count.Load())
}

func TestPool_ErrPoolClosed(t *testing.T) {
	pool := workerpool.New(2)
	pool.Shutdown()
	pool.Shutdown()

	assert.ErrorIs(t, pool.SubmitWait(func() {}), workerpool.ErrPoolClosed)
}

func TestPool_PanicRecovery(t *testing.T) {
	quiet(t)
	pool := workerpool.New(2)
	defer pool.Shutdown()

	var wg sync.WaitGroup
	wg.Add(1)
	_ = pool.SubmitWait(func() {
		defer wg.Done()
		panic("intentional panic")
	})
	wg.Wait()

	normal := make(chan struct{})
	_ = pool.SubmitWait(func() { close(normal) })

	select {
	case <-normal:
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not recover from panic; subsequent task never ran")
	}
}

func TestPool_RunAllWaitsForEveryTask(t *testing.T) {
	pool := workerpool.New(2)
	defer pool.Shutdown()

	results := make([]int, 20)
	tasks := make([]func(), len(results))
	for i := range tasks {
		tasks[i] = func() {
			time.Sleep(time.Millisecond)
			results[i] = i * i
		}
	}
	pool.RunAll(tasks...)

	for i, got := range results {
		assert.Equal(t, i*i, got)
	}
}

func TestPool_RunAllAfterShutdownRunsInline(t *testing.T) {
	pool := workerpool.New(1)
	pool.Shutdown()

	ran := false
	pool.RunAll(func() { ran = true })
	assert.True(t, ran)
}

func TestPool_ShutdownDuringSubmitWait(t *testing.T) {
	pool := workerpool.New(1)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Either accepted or refused; never a send on a closed channel.
			_ = pool.SubmitWait(func() { time.Sleep(100 * time.Microsecond) })
		}()
	}
	pool.Shutdown()
	wg.Wait()
}
