// Package batch runs several images side by side, one machine per image,
// spread over a pool of workers.
package batch

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/oisee/gbcore/pkg/cpu"
	"github.com/oisee/gbcore/pkg/gameboy"
)

// Job is one image to run.
type Job struct {
	Name  string
	Image []uint8
}

// Result is the outcome of one job.
type Result struct {
	Name   string
	Cycles uint64
	Frames uint64
	State  cpu.State
	Err    error
}

// Pool manages parallel machine workers.
type Pool struct {
	NumWorkers int

	cycles atomic.Uint64
	failed atomic.Int64
}

// NewPool creates a pool with the given number of workers.
func NewPool(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &Pool{NumWorkers: numWorkers}
}

// Stats returns the cycles run and the jobs that failed so far. Jobs cut
// short by cancellation do not count as failed.
func (p *Pool) Stats() (cycles uint64, failed int64) {
	return p.cycles.Load(), p.failed.Load()
}

// Run builds a machine from cfg for every job and runs it for cycles machine
// cycles. Results are in job order. cfg.Profile, if set, is shared by every
// machine and ends up holding the combined profile.
func (p *Pool) Run(ctx context.Context, jobs []Job, cfg gameboy.Config, cycles uint64) []Result {
	results := make([]Result, len(jobs))
	ch := make(chan int, len(jobs))
	for i := range jobs {
		ch <- i
	}
	close(ch)

	var wg sync.WaitGroup
	for i := 0; i < p.NumWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range ch {
				results[j] = p.runJob(ctx, jobs[j], cfg, cycles)
			}
		}()
	}
	wg.Wait()
	return results
}

func (p *Pool) runJob(ctx context.Context, job Job, cfg gameboy.Config, cycles uint64) Result {
	res := Result{Name: job.Name}
	if cfg.Logger != nil {
		cfg.Logger = cfg.Logger.With("job", job.Name)
	}
	m, err := gameboy.New(job.Image, cfg)
	if err != nil {
		p.failed.Add(1)
		res.Err = err
		return res
	}
	res.Cycles, res.Err = m.Run(ctx, cycles)
	res.Frames = m.LCD.Frames()
	res.State = m.CPU.State
	p.cycles.Add(res.Cycles)
	if res.Err != nil && !errors.Is(res.Err, context.Canceled) {
		p.failed.Add(1)
	}
	return res
}
