package analyzer

import (
	"context"
	"log/slog"
	"sync"

	"github.com/m2ix4i/korrekturtool/internal/core"
)

// task is one (chunk, category) analyzer pass.
type task struct {
	index    int // position in fan-out order, used to restore document order
	chunkIdx int
	category core.Category
	chunk    core.DocumentChunk
}

// taskResult carries one pass outcome back to the collector.
type taskResult struct {
	task        task
	suggestions []core.Suggestion
	err         error
}

// pool is a fixed-size worker pool for analyzer passes. Each chunk/category
// call is I/O-bound and independent, so passes run concurrently; results land
// in a pre-sized slice by task index, which restores document order no matter
// the completion order. Cancellation is cooperative: workers check the
// context between tasks and let in-flight calls complete.
type pool struct {
	workers int
	logger  *slog.Logger
}

func newPool(workers int, logger *slog.Logger) *pool {
	if workers <= 0 {
		workers = 1
	}
	return &pool{workers: workers, logger: logger}
}

func (p *pool) run(ctx context.Context, tasks []task, fn func(context.Context, task) ([]core.Suggestion, error)) []taskResult {
	taskCh := make(chan task)
	results := make([]taskResult, len(tasks))
	var wg sync.WaitGroup

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			p.logger.Debug("starting analyzer worker", "id", workerID)
			for t := range taskCh {
				if err := ctx.Err(); err != nil {
					results[t.index] = taskResult{task: t, err: err}
					continue
				}
				suggestions, err := fn(ctx, t)
				results[t.index] = taskResult{task: t, suggestions: suggestions, err: err}
			}
			p.logger.Debug("analyzer worker done", "id", workerID)
		}(i)
	}

	for _, t := range tasks {
		taskCh <- t
	}
	close(taskCh)
	wg.Wait()

	return results
}
