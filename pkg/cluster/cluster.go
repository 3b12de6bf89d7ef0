// Package cluster provides the compute backend behind the aggregation job: a
// serial single-pass engine, and a worker pool that aggregates row chunks in
// parallel and merges the partials. Both produce identical results for the
// same input.
package cluster

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/quantmill/loanpipe/pkg/agg"
	"github.com/quantmill/loanpipe/pkg/frame"
)

// EnvDistributed selects the pool backend when set to "True". The variable
// name is part of the pipeline's external contract.
const EnvDistributed = "USE_RAY"

// Backend runs aggregation jobs. A started backend must be Shutdown exactly
// once before process exit.
type Backend interface {
	Start() error
	Shutdown()
	Aggregate(ctx context.Context, f *frame.Frame, spec agg.Spec) (*frame.Frame, error)
}

// FromEnv picks the backend: Pool sized to GOMAXPROCS when EnvDistributed is
// "True", Serial otherwise. The second return reports whether the pool was
// chosen.
func FromEnv() (Backend, bool) {
	if os.Getenv(EnvDistributed) == "True" {
		return NewPool(runtime.GOMAXPROCS(0)), true
	}
	return Serial{}, false
}

// Serial aggregates in a single pass on the calling goroutine. Start and
// Shutdown are no-ops.
type Serial struct{}

func (Serial) Start() error { return nil }
func (Serial) Shutdown()    {}

func (Serial) Aggregate(ctx context.Context, f *frame.Frame, spec agg.Spec) (*frame.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	t, err := agg.New(spec)
	if err != nil {
		return nil, err
	}
	if err := t.Consume(f); err != nil {
		return nil, err
	}
	return t.Frame(), nil
}

// Pool is a fixed worker-goroutine backend. Frames are split into row chunks,
// workers build partial aggregation tables, and the partials merge into one
// result.
type Pool struct {
	workers   int
	chunkRows int

	mu      sync.Mutex
	jobs    chan func()
	wg      sync.WaitGroup
	started bool
}

const defaultChunkRows = 8192

func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{workers: workers, chunkRows: defaultChunkRows}
}

// SetChunkRows overrides the rows-per-chunk split. Only meaningful before
// Aggregate calls.
func (p *Pool) SetChunkRows(n int) {
	if n > 0 {
		p.chunkRows = n
	}
}

func (p *Pool) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return errors.New("cluster: pool already started")
	}
	p.jobs = make(chan func())
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				job()
			}
		}()
	}
	p.started = true
	return nil
}

// Shutdown drains queued work and joins the workers. Safe to call once after
// Start; calling it on a never-started pool is a no-op.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	close(p.jobs)
	p.started = false
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Pool) Aggregate(ctx context.Context, f *frame.Frame, spec agg.Spec) (*frame.Frame, error) {
	p.mu.Lock()
	started := p.started
	p.mu.Unlock()
	if !started {
		return nil, errors.New("cluster: pool not started")
	}

	nchunks := (f.Rows() + p.chunkRows - 1) / p.chunkRows
	if nchunks == 0 {
		nchunks = 1
	}
	partials := make([]*agg.Table, nchunks)
	errs := make([]error, nchunks)

	var wg sync.WaitGroup
	for i := 0; i < nchunks; i++ {
		i := i
		lo := i * p.chunkRows
		hi := lo + p.chunkRows
		if hi > f.Rows() {
			hi = f.Rows()
		}
		wg.Add(1)
		p.jobs <- func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				errs[i] = err
				return
			}
			t, err := agg.New(spec)
			if err != nil {
				errs[i] = err
				return
			}
			if err := t.ConsumeRange(f, lo, hi); err != nil {
				errs[i] = err
				return
			}
			partials[i] = t
		}
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("cluster: chunk %d: %w", i, err)
		}
	}
	merged := partials[0]
	for _, t := range partials[1:] {
		if err := merged.Merge(t); err != nil {
			return nil, err
		}
	}
	return merged.Frame(), nil
}
