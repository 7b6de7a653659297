package search

import (
	"context"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ChrisMcGann/FragIndex/pkg/core"
	"github.com/ChrisMcGann/FragIndex/pkg/index"
)

// Outcome is the search result for one spectrum read from the input
// channel.
type Outcome struct {
	Seq      int // Position of the spectrum on the input channel
	Spectrum *core.Spectrum
	Result   Result
	Duration time.Duration
}

type job struct {
	seq      int
	spectrum *core.Spectrum
}

// Run searches every spectrum received on in with workers goroutines, each
// owning its own Scorer, and passes outcomes to emit from a single
// goroutine in completion order. It returns when in is closed and every
// outcome has been emitted, or on the first error from emit or ctx.
//
// Producers should stop sending on in once ctx is done.
func Run(ctx context.Context, idx *index.Index, params Params, workers int, in <-chan *core.Spectrum, emit func(Outcome) error) error {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	scorers := make([]*Scorer, workers)
	for i := range scorers {
		s, err := NewScorer(idx, params)
		if err != nil {
			return err
		}
		scorers[i] = s
	}

	g, ctx := errgroup.WithContext(ctx)
	jobs := make(chan job)
	results := make(chan Outcome, workers)

	g.Go(func() error {
		defer close(jobs)
		seq := 0
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case spectrum, ok := <-in:
				if !ok {
					return nil
				}
				select {
				case jobs <- job{seq: seq, spectrum: spectrum}:
					seq++
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	})

	var wg sync.WaitGroup
	for _, scorer := range scorers {
		wg.Add(1)
		g.Go(func() error {
			defer wg.Done()
			for j := range jobs {
				start := time.Now()
				res := scorer.Search(j.spectrum)
				select {
				case results <- Outcome{Seq: j.seq, Spectrum: j.spectrum, Result: res, Duration: time.Since(start)}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return nil
		})
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	g.Go(func() error {
		for o := range results {
			if err := emit(o); err != nil {
				return err
			}
		}
		return nil
	})

	return g.Wait()
}
