package dump

import (
	"context"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/temirov/dumpo/internal/types"
)

type readResult struct {
	content []byte
	err     error
}

// prefetcher reads file contents ahead of the consumer with a bounded number
// of workers. Results are handed out strictly in entry order and at most
// window reads are in flight or waiting to be consumed.
type prefetcher struct {
	results      []chan readResult
	window       chan struct{}
	group        *errgroup.Group
	ctx          context.Context
	cancel       context.CancelFunc
	producerDone chan struct{}
	position     int
}

func startPrefetch(parent context.Context, entries []types.Entry, workers int) *prefetcher {
	if workers < 1 {
		workers = 1
	}
	prefetchContext, cancel := context.WithCancel(parent)
	group, groupContext := errgroup.WithContext(prefetchContext)
	group.SetLimit(workers)

	reader := &prefetcher{
		results:      make([]chan readResult, len(entries)),
		window:       make(chan struct{}, workers),
		group:        group,
		ctx:          groupContext,
		cancel:       cancel,
		producerDone: make(chan struct{}),
	}
	for index := range reader.results {
		reader.results[index] = make(chan readResult, 1)
	}
	go reader.produce(entries)
	return reader
}

func (reader *prefetcher) produce(entries []types.Entry) {
	defer close(reader.producerDone)
	for index, entry := range entries {
		select {
		case <-reader.ctx.Done():
			return
		case reader.window <- struct{}{}:
		}
		resultChannel := reader.results[index]
		absolutePath := entry.AbsolutePath
		reader.group.Go(func() error {
			if contextError := reader.ctx.Err(); contextError != nil {
				resultChannel <- readResult{err: contextError}
				return nil
			}
			content, readError := os.ReadFile(absolutePath)
			resultChannel <- readResult{content: content, err: readError}
			return nil
		})
	}
}

// next returns the contents of the next entry in order. The boolean is false
// once every entry has been handed out or the prefetcher was stopped.
func (reader *prefetcher) next() (readResult, bool) {
	if reader.position >= len(reader.results) {
		return readResult{}, false
	}
	select {
	case result := <-reader.results[reader.position]:
		reader.position++
		<-reader.window
		return result, true
	case <-reader.ctx.Done():
		return readResult{err: reader.ctx.Err()}, false
	}
}

// stop cancels outstanding reads and waits for every worker to return.
func (reader *prefetcher) stop() {
	reader.cancel()
	<-reader.producerDone
	_ = reader.group.Wait()
}
