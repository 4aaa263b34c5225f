package scheduler

import "context"

// System is a simulation system a worker can be bound to. A bound
// worker calls HandleEvents then RunBatch, in that order, once per
// tick boundary it crosses, strictly serialized with respect to each
// other call on that same worker.
type System interface {
	// HandleEvents drains whatever input queue the system reads
	// (commands, orders, network events) for tick t.
	HandleEvents(ctx context.Context, t Tick) error
	// RunBatch performs the system's per-tick simulation work and
	// commits its results to the store.
	RunBatch(ctx context.Context) error
	// Terminate is called exactly once, when the worker observes the
	// pool's terminate signal, to let the system flush or release
	// resources before its worker goroutine returns.
	Terminate()
}

// noopSystem is bound to unattached workers — chain-only workers that
// exist purely to drain the shared task queue.
type noopSystem struct{}

func (noopSystem) HandleEvents(context.Context, Tick) error { return nil }
func (noopSystem) RunBatch(context.Context) error            { return nil }
func (noopSystem) Terminate()                                {}
