package albreport

import (
	"context"
	"sync"
)

// runWorkers drains numItems work units across a bounded pool of
// numWorkers goroutines. Each unit is owned end-to-end by one worker;
// failures are the work function's business (logged and tallied there),
// the pool keeps draining. Context cancellation stops units that have
// not acquired a worker slot yet.
func runWorkers(ctx context.Context, numWorkers, numItems int, work func(i int)) {
	var wg sync.WaitGroup
	sem := make(chan struct{}, numWorkers)

	for i := 0; i < numItems; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				return
			}

			work(i)
		}()
	}

	wg.Wait()
}
