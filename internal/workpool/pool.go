// Package workpool runs batches of independent jobs on a fixed set of
// goroutines.
package workpool

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a persistent set of workers. Run may be called from several
// goroutines at once; Close must not race with Run.
type Pool struct {
	jobs    chan job
	wg      sync.WaitGroup
	workers int
	closed  atomic.Bool
}

type job struct {
	idx  int
	fn   func(int)
	done *sync.WaitGroup
}

// New starts a pool. workers <= 0 means one per CPU.
func New(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	p := &Pool{
		jobs:    make(chan job, workers*2),
		workers: workers,
	}
	for w := 0; w < workers; w++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				j.fn(j.idx)
				j.done.Done()
			}
		}()
	}
	return p
}

func (p *Pool) Workers() int {
	if p == nil {
		return 1
	}
	return p.workers
}

// Run calls fn(0) .. fn(n-1) across the workers and returns once every
// call has finished. A nil or closed pool runs the jobs inline.
func (p *Pool) Run(n int, fn func(i int)) {
	if p == nil || p.closed.Load() || n <= 1 {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}
	var done sync.WaitGroup
	done.Add(n)
	for i := 0; i < n; i++ {
		p.jobs <- job{idx: i, fn: fn, done: &done}
	}
	done.Wait()
}

// Close stops the workers after queued jobs drain.
func (p *Pool) Close() {
	if p == nil || !p.closed.CompareAndSwap(false, true) {
		return
	}
	close(p.jobs)
	p.wg.Wait()
}
