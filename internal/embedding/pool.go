package embedding

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// ErrPoolClosed is returned for calls made after Close.
var ErrPoolClosed = errors.New("embedding pool closed")

// WorkerPool runs embedding calls on a fixed set of worker goroutines so that CPU-bound
// inference is bounded independently of how many ingestion or query goroutines are waiting.
// Callers stop waiting when their context is cancelled; the in-flight batch still completes.
type WorkerPool struct {
	inner     Embedder
	jobs      chan embedJob
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

type embedJob struct {
	ctx   context.Context
	texts []string
	resp  chan embedResult
}

type embedResult struct {
	vecs [][]float32
	err  error
}

// NewWorkerPool starts workers goroutines in front of inner. workers <= 0 uses runtime.NumCPU().
// The pool owns inner and closes it on Close.
func NewWorkerPool(inner Embedder, workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	p := &WorkerPool{
		inner: inner,
		jobs:  make(chan embedJob),
		done:  make(chan struct{}),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.work()
	}
	return p
}

func (p *WorkerPool) work() {
	defer p.wg.Done()
	for {
		select {
		case <-p.done:
			return
		case j := <-p.jobs:
			vecs, err := p.inner.EmbedBatch(j.ctx, j.texts)
			j.resp <- embedResult{vecs: vecs, err: err}
		}
	}
}

// EmbedBatch queues texts for a worker and waits for the result.
func (p *WorkerPool) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	j := embedJob{ctx: ctx, texts: texts, resp: make(chan embedResult, 1)}
	select {
	case <-p.done:
		return nil, ErrPoolClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	case p.jobs <- j:
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-j.resp:
		return r.vecs, r.err
	}
}

// Embed queues a single text.
func (p *WorkerPool) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// Dimensions returns the inner embedder's dimension.
func (p *WorkerPool) Dimensions() int { return p.inner.Dimensions() }

// Model returns the inner embedder's model stamp.
func (p *WorkerPool) Model() string { return p.inner.Model() }

// Close stops the workers, waits for in-flight batches, and closes the inner embedder.
func (p *WorkerPool) Close() error {
	var err error
	p.closeOnce.Do(func() {
		close(p.done)
		p.wg.Wait()
		err = p.inner.Close()
	})
	return err
}
