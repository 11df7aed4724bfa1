// Package batch splits work over many items into fixed-size batches that run
// sequentially or with bounded concurrency.
package batch

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Batch size bounds.
const (
	DefaultBatchSize = 50
	MinBatchSize     = 1
	MaxBatchSize     = 1000
)

// Processing errors.
var (
	ErrInvalidBatchSize = fmt.Errorf("batch size must be between %d and %d", MinBatchSize, MaxBatchSize)
	ErrNilCallback      = errors.New("batch callback cannot be nil")
)

// Callback handles one batch. offset is the index of batch[0] in the full
// item slice, so callbacks can write results into a pre-sized slice.
type Callback[T any] func(ctx context.Context, batch []T, offset int) error

// Processor runs a Callback over items in batches.
type Processor[T any] struct {
	batchSize  int
	onProgress func(Snapshot)
}

// NewProcessor returns a Processor with the given batch size.
func NewProcessor[T any](batchSize int) (*Processor[T], error) {
	if batchSize < MinBatchSize || batchSize > MaxBatchSize {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBatchSize, batchSize)
	}
	return &Processor[T]{batchSize: batchSize}, nil
}

// WithProgress registers fn to receive a snapshot after every finished batch.
// fn may be called from several goroutines.
func (p *Processor[T]) WithProgress(fn func(Snapshot)) *Processor[T] {
	p.onProgress = fn
	return p
}

// BatchSize returns the configured batch size.
func (p *Processor[T]) BatchSize() int { return p.batchSize }

// Bounds returns the [start, end) index pairs of every batch.
func (p *Processor[T]) Bounds(total int) [][2]int {
	var out [][2]int
	for start := 0; start < total; start += p.batchSize {
		out = append(out, [2]int{start, min(start+p.batchSize, total)})
	}
	return out
}

// Process runs batches one after another and stops at the first error.
// No items is not an error.
func (p *Processor[T]) Process(ctx context.Context, items []T, fn Callback[T]) error {
	if fn == nil {
		return ErrNilCallback
	}
	bounds := p.Bounds(len(items))
	progress := newProgress(len(items), len(bounds))
	for i, b := range bounds {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(ctx, items[b[0]:b[1]], b[0]); err != nil {
			return fmt.Errorf("batch %d failed: %w", i, err)
		}
		p.report(progress.add(b[1] - b[0]))
	}
	return nil
}

// ProcessConcurrent runs up to limit batches at a time. Every batch runs even
// when another fails; the errors are joined.
func (p *Processor[T]) ProcessConcurrent(ctx context.Context, items []T, fn Callback[T], limit int) error {
	if fn == nil {
		return ErrNilCallback
	}
	limit = max(limit, 1)

	bounds := p.Bounds(len(items))
	progress := newProgress(len(items), len(bounds))
	errs := make([]error, len(bounds))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, b := range bounds {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				errs[i] = err
				return nil
			}
			if err := fn(ctx, items[b[0]:b[1]], b[0]); err != nil {
				errs[i] = fmt.Errorf("batch %d failed: %w", i, err)
				return nil
			}
			p.report(progress.add(b[1] - b[0]))
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.Join(errs...)
}

func (p *Processor[T]) report(s Snapshot) {
	if p.onProgress != nil {
		p.onProgress(s)
	}
}
