// Package dispatch runs batches of independent outbound sends under a
// concurrency bound and a fixed-window rate cap. It knows nothing about
// storage or channels: callers supply the send function and get exactly
// one Result back per job.
package dispatch

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

const DefaultSendTimeout = 30 * time.Second

// Job is one unit of outbound work. ID identifies the job in its Result;
// Data is opaque to the dispatcher.
type Job struct {
	ID   string
	Data any
}

// Result is the outcome of exactly one job.
type Result struct {
	JobID      string
	Success    bool
	ProviderID string
	Err        string
}

type SendFunc func(ctx context.Context, job Job) Result

type Config struct {
	// Concurrency is the max number of in-flight sends; values below 1
	// are treated as 1.
	Concurrency int

	// CapPerWindow limits how many sends may start within any window of
	// length Window. Zero for either disables the rate cap.
	Window       time.Duration
	CapPerWindow int

	// SendTimeout bounds a single send; DefaultSendTimeout when zero.
	SendTimeout time.Duration
}

type Dispatcher struct {
	cfg     Config
	limiter *windowLimiter

	// OnProgress, when set, is called after each job completes.
	OnProgress func(done, total int)
}

func New(cfg Config) *Dispatcher {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = DefaultSendTimeout
	}
	d := &Dispatcher{cfg: cfg}
	if cfg.CapPerWindow > 0 && cfg.Window > 0 {
		d.limiter = newWindowLimiter(cfg.CapPerWindow, cfg.Window)
	}
	return d
}

// Run executes every job exactly once and returns one Result per job.
// Results are collected in completion order, not input order. A failing
// or panicking send is captured as a failure Result and never stops the
// rest of the batch.
func (d *Dispatcher) Run(ctx context.Context, jobs []Job, send SendFunc) []Result {
	results := make([]Result, 0, len(jobs))
	if len(jobs) == 0 {
		return results
	}

	sem := semaphore.NewWeighted(int64(d.cfg.Concurrency))
	out := make(chan Result, len(jobs))
	var wg sync.WaitGroup
	var done int64

	finish := func(res Result) {
		out <- res
		if d.OnProgress != nil {
			d.OnProgress(int(atomic.AddInt64(&done, 1)), len(jobs))
		}
	}

	for _, job := range jobs {
		// The rate cap gates job starts; the semaphore gates how many
		// run at once. Both hold at every instant.
		if d.limiter != nil {
			if err := d.limiter.Wait(ctx); err != nil {
				finish(Result{JobID: job.ID, Err: err.Error()})
				continue
			}
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			finish(Result{JobID: job.ID, Err: err.Error()})
			continue
		}

		wg.Add(1)
		go func(job Job) {
			defer wg.Done()
			defer sem.Release(1)
			finish(d.runOne(ctx, job, send))
		}(job)
	}
	wg.Wait()

	for i := 0; i < len(jobs); i++ {
		results = append(results, <-out)
	}
	return results
}

func (d *Dispatcher) runOne(ctx context.Context, job Job, send SendFunc) Result {
	sendCtx, cancel := context.WithTimeout(ctx, d.cfg.SendTimeout)
	defer cancel()

	ch := make(chan Result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- Result{JobID: job.ID, Err: fmt.Sprintf("send panicked: %v", r)}
			}
		}()
		ch <- send(sendCtx, job)
	}()

	select {
	case res := <-ch:
		return res
	case <-sendCtx.Done():
		if err := ctx.Err(); err != nil {
			return Result{JobID: job.ID, Err: err.Error()}
		}
		return Result{JobID: job.ID, Err: fmt.Sprintf("send timed out after %s", d.cfg.SendTimeout)}
	}
}
