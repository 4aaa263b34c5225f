package scheduler

import (
	"context"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/trillek-sim/corebox/log"
)

// worker runs one dispatch loop over the shared queue, optionally
// bound to a System whose HandleEvents/RunBatch pair fires once per
// tick boundary this worker crosses.
type worker struct {
	id     int
	q      *queue
	sem    *semaphore.Weighted
	system System
	enq    func(*taskRequest)
	logger *log.Logger
}

func newWorker(id int, q *queue, sem *semaphore.Weighted, system System, enq func(*taskRequest), logger *log.Logger) *worker {
	if system == nil {
		system = noopSystem{}
	}
	return &worker{id: id, q: q, sem: sem, system: system, enq: enq, logger: logger}
}

// run is the per-worker dispatch loop. It returns when ctx is
// canceled, having first called system.Terminate().
func (w *worker) run(ctx context.Context) {
	nextTick := time.Now().Add(TickDuration)

	for {
		select {
		case <-ctx.Done():
			w.system.Terminate()
			return
		default:
		}

		if time.Now().Before(nextTick) {
			if task, ok := w.q.popDue(); ok {
				w.execute(ctx, task)
				continue
			}
		}

		if !time.Now().Before(nextTick) {
			if err := w.system.HandleEvents(ctx, Tick(nextTick.UnixNano())); err != nil {
				w.logger.Error("scheduler: HandleEvents failed", "worker", w.id, "err", err)
			}
			if err := w.system.RunBatch(ctx); err != nil {
				w.logger.Error("scheduler: RunBatch failed", "worker", w.id, "err", err)
			}
			nextTick = nextTick.Add(TickDuration)
			continue
		}

		deadline := nextTick
		if due, ok := w.q.nextDue(); ok && due.Before(deadline) {
			deadline = due
		}
		w.waitWithCancel(ctx, deadline)
	}
}

// waitWithCancel blocks on the queue's condition variable until
// deadline, a push, or ctx cancellation, whichever comes first.
func (w *worker) waitWithCancel(ctx context.Context, deadline time.Time) {
	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		select {
		case <-ctx.Done():
			w.q.wakeAll()
		case <-done:
		}
	}()
	w.q.waitUntil(deadline)
	close(done)
	<-exited
}

// execute acquires a slot from the concurrency semaphore, runs the
// task, and releases the slot. A chain task's blocks are driven
// in-line per their returned Status.
func (w *worker) execute(ctx context.Context, t *taskRequest) {
	if err := w.sem.Acquire(ctx, 1); err != nil {
		return
	}
	defer w.sem.Release(1)

	switch t.kind {
	case kindFunc:
		t.fn()
	case kindChain:
		w.runChain(t)
	}
}

func (w *worker) runChain(t *taskRequest) {
	for t.next < len(t.chain) {
		status := t.chain[t.next]()
		switch status {
		case Continue:
			t.next++
		case Repeat:
			// rerun the same block
		case Stop:
			return
		case Split:
			w.enq(t.resume(splitDelay))
			t.next++
		case Requeue:
			w.enq(t.resume(splitDelay))
			return
		default:
			t.next++
		}
	}
}
