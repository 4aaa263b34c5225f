package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingSystem struct {
	mu      sync.Mutex
	events  []string
	handled int
	batched int
}

func (r *recordingSystem) HandleEvents(ctx context.Context, t Tick) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handled++
	r.events = append(r.events, "handle")
	return nil
}

func (r *recordingSystem) RunBatch(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batched++
	r.events = append(r.events, "batch")
	return nil
}

func (r *recordingSystem) Terminate() {}

func (r *recordingSystem) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	copy(out, r.events)
	return out
}

func TestBoundSystemHandleEventsPrecedesRunBatchPrecedesNextHandleEvents(t *testing.T) {
	sys := &recordingSystem{}
	p := New(1, 1, []System{sys}, nil)
	p.Start(context.Background())
	defer p.Stop()

	require.Eventually(t, func() bool {
		return sys.snapshot() != nil && len(sys.snapshot()) >= 4
	}, 2*time.Second, 5*time.Millisecond)

	events := sys.snapshot()
	for i := 0; i+1 < len(events); i += 2 {
		require.Equal(t, "handle", events[i])
		require.Equal(t, "batch", events[i+1])
	}
}

func TestChainContinuesThroughBlocks(t *testing.T) {
	p := New(1, 1, nil, nil)
	p.Start(context.Background())
	defer p.Stop()

	var mu sync.Mutex
	var ran []int
	done := make(chan struct{})

	chain := Chain{
		func() Status { mu.Lock(); ran = append(ran, 1); mu.Unlock(); return Continue },
		func() Status { mu.Lock(); ran = append(ran, 2); mu.Unlock(); return Continue },
		func() Status { mu.Lock(); ran = append(ran, 3); mu.Unlock(); close(done); return Stop },
	}
	p.QueueChain(chain, 0)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("chain did not complete")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []int{1, 2, 3}, ran)
}

func TestRepeatRerunsSameBlockUntilAdvance(t *testing.T) {
	p := New(1, 1, nil, nil)
	p.Start(context.Background())
	defer p.Stop()

	var mu sync.Mutex
	attempts := 0
	done := make(chan struct{})

	chain := Chain{
		func() Status {
			mu.Lock()
			defer mu.Unlock()
			attempts++
			if attempts < 3 {
				return Repeat
			}
			return Continue
		},
		func() Status { close(done); return Stop },
	}
	p.QueueChain(chain, 0)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("chain did not complete")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 3, attempts)
}

func TestRequeueReschedulesRemainderOfChain(t *testing.T) {
	p := New(1, 1, nil, nil)
	p.Start(context.Background())
	defer p.Stop()

	var mu sync.Mutex
	firstPassDone := false
	done := make(chan struct{})

	chain := Chain{
		func() Status {
			mu.Lock()
			already := firstPassDone
			firstPassDone = true
			mu.Unlock()
			if !already {
				return Requeue
			}
			return Continue
		},
		func() Status { close(done); return Stop },
	}
	p.QueueChain(chain, 0)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("requeued chain did not complete")
	}
}

func TestStopDiscardsRemainderOfChain(t *testing.T) {
	p := New(1, 1, nil, nil)
	p.Start(context.Background())
	defer p.Stop()

	var mu sync.Mutex
	var ran []int

	chain := Chain{
		func() Status { mu.Lock(); ran = append(ran, 1); mu.Unlock(); return Stop },
		func() Status { mu.Lock(); ran = append(ran, 2); mu.Unlock(); return Stop },
	}
	p.QueueChain(chain, 0)

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []int{1}, ran)
}
