// Package worker runs independent generation jobs concurrently and
// limits request rates per client.
package worker

import (
	"context"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

type indexedJob struct {
	index int
	job   Job
}

type indexedResult struct {
	index  int
	result Result
}

// Pool runs jobs on a fixed number of workers. Results are returned in
// submission order.
type Pool struct {
	workers    int
	jobQueue   chan indexedJob
	results    chan indexedResult
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once
	queueOnce  sync.Once

	submitted int
	collected []indexedResult
	collector chan struct{}
}

// NewPool creates a new worker pool with the specified number of workers
func NewPool(workers int) *Pool {
	return NewPoolContext(context.Background(), workers)
}

// NewPoolContext creates a pool whose jobs see a context derived from parent
func NewPoolContext(parent context.Context, workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(parent)

	return &Pool{
		workers:    workers,
		jobQueue:   make(chan indexedJob, workers*2),
		results:    make(chan indexedResult, workers*2),
		ctx:        ctx,
		cancelFunc: cancel,
		collector:  make(chan struct{}),
	}
}

// Start starts the workers and the result collector
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	go func() {
		defer close(p.collector)
		for r := range p.results {
			p.collected = append(p.collected, r)
		}
	}()
}

func (p *Pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case j, ok := <-p.jobQueue:
			if !ok {
				return
			}
			p.results <- indexedResult{index: j.index, result: j.job.Execute(p.ctx)}
		}
	}
}

// Submit queues a job. It returns false once the pool is shut down or its
// context is done. Submit is not safe for concurrent use.
func (p *Pool) Submit(job Job) bool {
	if p.ctx.Err() != nil {
		return false
	}
	select {
	case <-p.ctx.Done():
		return false
	case p.jobQueue <- indexedJob{index: p.submitted, job: job}:
		p.submitted++
		return true
	}
}

// Wait waits for the submitted jobs and returns their results in
// submission order. Jobs that never ran have a nil result. Calling Wait
// again returns the same results.
func (p *Pool) Wait() []Result {
	p.queueOnce.Do(func() {
		close(p.jobQueue)
	})
	p.wg.Wait()
	p.closeResults()
	<-p.collector
	p.cancelFunc()

	out := make([]Result, p.submitted)
	for _, r := range p.collected {
		out[r.index] = r.result
	}
	return out
}

// Shutdown stops the workers without waiting for queued jobs
func (p *Pool) Shutdown() {
	p.cancelFunc()
	p.wg.Wait()
	p.closeResults()
}

func (p *Pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}

// Run executes jobs on a temporary pool and returns one result per job,
// in order. Jobs skipped because ctx ended have a nil result.
func Run(ctx context.Context, workers int, jobs []Job) []Result {
	if workers > len(jobs) {
		workers = len(jobs)
	}
	pool := NewPoolContext(ctx, workers)
	pool.Start()
	for _, job := range jobs {
		if !pool.Submit(job) {
			break
		}
	}

	out := make([]Result, len(jobs))
	copy(out, pool.Wait())
	return out
}
