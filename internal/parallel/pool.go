// Package parallel provides the goroutine pool behind the software compute
// surface.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Pool is a fixed set of goroutines that execute index ranges in parallel.
//
// Each worker has its own queue and steals from the others when its queue is
// empty, which keeps the load balanced when some ranges are slower than
// others (e.g. a kernel with data-dependent cost).
//
// Thread safety: Run may be called from several goroutines at once; they
// share the same workers. Close must not race with Run.
type Pool struct {
	// workers is the number of worker goroutines.
	workers int

	// queues holds per-worker work queues.
	queues []chan func()

	// done signals workers to stop.
	done chan struct{}

	// wg waits for all workers to finish.
	wg sync.WaitGroup

	// running indicates whether the pool is accepting work.
	running atomic.Bool
}

// NewPool creates a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	queueSize := workers * 4
	if queueSize < 8 {
		queueSize = 8
	}

	p := &Pool{
		workers: workers,
		queues:  make([]chan func(), workers),
		done:    make(chan struct{}),
	}
	for i := range workers {
		p.queues[i] = make(chan func(), queueSize)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	mine := p.queues[id]
	for {
		select {
		case <-p.done:
			p.drain(mine)
			return
		case work := <-mine:
			work()
		default:
			if stolen := p.steal(id); stolen != nil {
				stolen()
				continue
			}
			select {
			case <-p.done:
				p.drain(mine)
				return
			case work := <-mine:
				work()
			}
		}
	}
}

func (p *Pool) drain(queue chan func()) {
	for {
		select {
		case work := <-queue:
			work()
		default:
			return
		}
	}
}

// steal takes one item from another worker's queue, or returns nil.
func (p *Pool) steal(id int) func() {
	for i := range p.workers {
		if i == id {
			continue
		}
		select {
		case work := <-p.queues[i]:
			return work
		default:
		}
	}
	return nil
}

// Run calls fn over [0, n) split into contiguous ranges of at most grain
// indices and blocks until every range has completed. Ranges run in no
// particular order and concurrently with each other.
//
// If grain is 0 or negative, n is split into roughly four ranges per worker.
// If the pool is closed, Run executes fn on the calling goroutine.
func (p *Pool) Run(n, grain int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	if grain <= 0 {
		grain = (n + p.workers*4 - 1) / (p.workers * 4)
	}
	if grain >= n || !p.running.Load() {
		fn(0, n)
		return
	}

	chunks := (n + grain - 1) / grain
	var wg sync.WaitGroup
	wg.Add(chunks)
	for c := range chunks {
		lo := c * grain
		hi := min(lo+grain, n)
		work := func() {
			defer wg.Done()
			fn(lo, hi)
		}
		select {
		case p.queues[c%p.workers] <- work:
		case <-p.done:
			work()
		}
	}
	wg.Wait()
}

// Close stops the workers after draining queued work. Safe to call more
// than once.
func (p *Pool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of worker goroutines.
func (p *Pool) Workers() int {
	return p.workers
}

// IsRunning reports whether the pool is accepting work.
func (p *Pool) IsRunning() bool {
	return p.running.Load()
}
