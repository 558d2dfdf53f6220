package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueProcessesJobs(t *testing.T) {
	var processed int32
	done := make(chan struct{}, 3)
	q := NewQueue("notifications", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&processed, 1)
		done <- struct{}{}
		return nil
	}, QueueConfig{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	for i := 0; i < 3; i++ {
		require.NoError(t, q.Enqueue(Job{ID: "job", Type: "fanout"}))
	}
	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("job not processed")
		}
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&processed))
}

func TestQueueRejectsBeforeStart(t *testing.T) {
	q := NewQueue("session-status", func(context.Context, Job) error { return nil }, QueueConfig{})
	require.Error(t, q.Enqueue(Job{ID: "1"}))
	require.Error(t, q.TryEnqueue(Job{ID: "1"}))
}

func TestQueueTryEnqueueFull(t *testing.T) {
	block := make(chan struct{})
	q := NewQueue("email", func(ctx context.Context, job Job) error {
		<-block
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())
	defer func() {
		close(block)
		q.Stop()
	}()

	require.NoError(t, q.Enqueue(Job{ID: "1"}))
	// the worker may or may not have picked up job 1; fill until full
	var err error
	for i := 0; i < 3 && err == nil; i++ {
		err = q.TryEnqueue(Job{ID: "n"})
	}
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrQueueFull))
}

func TestQueueCallsOnExhausted(t *testing.T) {
	exhausted := make(chan Job, 1)
	q := NewQueue("notifications", func(context.Context, Job) error {
		return errors.New("db down")
	}, QueueConfig{
		Workers:     1,
		MaxRetries:  1,
		RetryDelay:  10 * time.Millisecond,
		OnExhausted: func(j Job, err error) { exhausted <- j },
	})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "fanout-1"}))
	select {
	case j := <-exhausted:
		assert.Equal(t, "fanout-1", j.ID)
		assert.Equal(t, 2, j.Attempt)
	case <-time.After(2 * time.Second):
		t.Fatal("expected exhaustion callback")
	}
}

func TestQueueRetryWaitsForFreeSlot(t *testing.T) {
	var attempts int32
	release := make(chan struct{})
	done := make(chan string, 4)
	q := NewQueue("notifications", func(ctx context.Context, job Job) error {
		if job.ID == "flaky" && atomic.AddInt32(&attempts, 1) == 1 {
			return errors.New("transient")
		}
		if job.ID == "slow" {
			<-release
		}
		done <- job.ID
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1, MaxRetries: 1, RetryDelay: 10 * time.Millisecond})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "flaky"}))
	// occupy the worker and the buffer while the retry is pending
	require.NoError(t, q.Enqueue(Job{ID: "slow"}))
	require.NoError(t, q.Enqueue(Job{ID: "filler"}))
	time.Sleep(50 * time.Millisecond)
	close(release)

	seen := map[string]bool{}
	for len(seen) < 3 {
		select {
		case id := <-done:
			seen[id] = true
		case <-time.After(2 * time.Second):
			t.Fatalf("retry lost, processed %v", seen)
		}
	}
	assert.True(t, seen["flaky"])
	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
}
