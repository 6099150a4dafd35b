package index

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWorkQueue_BlockUntilIdle(t *testing.T) {
	PreventStarvation.Store(true)
	defer PreventStarvation.Store(false)

	q := NewWorkQueue(2, nil)
	defer q.Close()

	var ran atomic.Bool
	q.Enqueue(func() {
		time.Sleep(10 * time.Millisecond)
		ran.Store(true)
	}, PriorityBackground)

	require.True(t, q.BlockUntilIdle(time.Second), "queue should drain")
	require.True(t, ran.Load())
	require.True(t, q.BlockUntilIdle(time.Millisecond), "an already-idle queue reports idle immediately")
}

// TestWorkQueue_NormalPreemptsBackground covers P7: a Normal task
// submitted while Background tasks are queued runs before them, right
// after the Background task already running finishes.
func TestWorkQueue_NormalPreemptsBackground(t *testing.T) {
	PreventStarvation.Store(true)
	defer PreventStarvation.Store(false)

	q := NewWorkQueue(1, nil)
	defer q.Close()

	var mu sync.Mutex
	var order []string
	record := func(name string) {
		mu.Lock()
		order = append(order, name)
		mu.Unlock()
	}

	started := make(chan struct{})
	block := make(chan struct{})
	q.Enqueue(func() {
		close(started)
		<-block
		record("bg1")
	}, PriorityBackground)
	// bg1 must be running, not queued, before the others arrive.
	<-started
	q.Enqueue(func() { record("bg2") }, PriorityBackground)
	q.Enqueue(func() { record("normal") }, PriorityNormal)

	close(block)
	require.True(t, q.BlockUntilIdle(time.Second))

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"bg1", "normal", "bg2"}, order)
}

func TestWorkQueue_StopDrainsPendingTasksWithoutRunningThem(t *testing.T) {
	q := NewWorkQueue(1, nil)

	started := make(chan struct{})
	ran := make(chan struct{})
	block := make(chan struct{})
	q.Enqueue(func() {
		close(started)
		<-block
		close(ran)
	}, PriorityBackground)
	q.Enqueue(func() { t.Fatal("second task must not run after Stop") }, PriorityBackground)

	// Stop while the first task is executing and the second is pending.
	<-started
	q.Stop()
	close(block)
	<-ran
	q.Wait()
}
