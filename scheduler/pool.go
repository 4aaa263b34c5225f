package scheduler

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/trillek-sim/corebox/log"
)

// Pool is the bound worker pool: N workers sharing one task queue and
// one concurrency semaphore, optionally each bound to a System.
type Pool struct {
	q       *queue
	sem     *semaphore.Weighted
	workers []*worker
	logger  *log.Logger

	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// New builds a pool of n workers sharing a concurrency cap of
// maxConcurrent simultaneously executing tasks. Pass systems (may be
// shorter than n, or nil) to bind the first len(systems) workers; the
// rest run unbound, draining only ad hoc chain/func tasks.
func New(n int, maxConcurrent int64, systems []System, logger *log.Logger) *Pool {
	if n <= 0 {
		n = DefaultWorkers
	}
	if maxConcurrent <= 0 {
		maxConcurrent = MaxConcurrentTasks
	}
	if logger == nil {
		logger = log.Root()
	}
	p := &Pool{
		q:      newQueue(),
		sem:    semaphore.NewWeighted(maxConcurrent),
		logger: logger,
	}
	for i := 0; i < n; i++ {
		var sys System
		if i < len(systems) {
			sys = systems[i]
		}
		p.workers = append(p.workers, newWorker(i, p.q, p.sem, sys, p.q.push, logger))
	}
	return p
}

// Start launches every worker's dispatch loop in its own goroutine.
// Stop (via context cancellation) causes every worker to call its
// bound system's Terminate once and return; Start does not block.
func (p *Pool) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	for _, w := range p.workers {
		w := w
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			w.run(ctx)
		}()
	}
}

// Stop signals every worker to terminate and blocks until all have
// returned.
func (p *Pool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

// QueueFunc schedules fn to run once, after delay (zero for "as soon
// as possible").
func (p *Pool) QueueFunc(fn Block, delay time.Duration) {
	p.q.push(newFuncTask(fn, delay))
}

// QueueChain schedules a chain of blocks to run, after delay.
func (p *Pool) QueueChain(c Chain, delay time.Duration) {
	p.q.push(newChainTask(c, delay))
}
