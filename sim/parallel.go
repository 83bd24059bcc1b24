package sim

import (
	"runtime"
	"sync"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/selkie/agent"
	"github.com/pthm-cable/selkie/env"
	"github.com/pthm-cable/selkie/nav"
)

// parallelThreshold is the minimum population to use parallel processing.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 16

// agentSnapshot captures the work for one animal this tick. Each agent
// mutates only itself against a read-only buffer set, so workers need no
// locks; the sensed result is the write-back payload.
type agentSnapshot struct {
	Entity    ecs.Entity
	Agent     *agent.Agent
	PrevState agent.State
	PrevLand  bool
}

// workChunk represents a range of agents for a worker to process.
type workChunk struct {
	start, end int
	env        nav.Env
}

// parallelState holds resources for the parallel update phase.
type parallelState struct {
	snapshots  []agentSnapshot
	results    []env.Result
	numWorkers int

	// Worker pool channels
	workChan chan workChunk
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

func newParallelState(numWorkers int) *parallelState {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	return &parallelState{
		numWorkers: numWorkers,
		snapshots:  make([]agentSnapshot, 0, 64),
		results:    make([]env.Result, 0, 64),
	}
}

// startWorkers launches persistent worker goroutines.
func (p *parallelState) startWorkers() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (p *parallelState) stopWorkers() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *parallelState) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			p.computeChunk(chunk.start, chunk.end, chunk.env)
			p.doneChan <- struct{}{}
		}
	}
}

// computeChunk advances a range of agents for a single worker.
func (p *parallelState) computeChunk(i0, i1 int, e nav.Env) {
	for i := i0; i < i1; i++ {
		p.results[i] = p.snapshots[i].Agent.Update(e)
	}
}

// run updates all snapshots, single-threaded below the threshold.
func (p *parallelState) run(e nav.Env) {
	n := len(p.snapshots)
	if n == 0 {
		return
	}

	if cap(p.results) < n {
		p.results = make([]env.Result, n)
	}
	p.results = p.results[:n]

	if n < parallelThreshold {
		p.computeChunk(0, n, e)
		return
	}

	if !p.running {
		p.startWorkers()
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers
	dispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}
		p.workChan <- workChunk{start: start, end: end, env: e}
		dispatched++
	}

	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}
}
