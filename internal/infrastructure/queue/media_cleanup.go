// Package queue moves media deletions off the request path.
package queue

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/rs/zerolog"

	"github.com/streamhub/account-service/internal/core/ports"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// MediaCleanup wraps a MediaHost so that Delete is queued and executed by a
// fixed set of workers. Uploads pass straight through.
type MediaCleanup struct {
	host    ports.MediaHost
	workers []chan string
	log     zerolog.Logger
	wg      sync.WaitGroup

	// mu guards stopped; Delete holds it for reading while enqueuing.
	mu      sync.RWMutex
	stopped bool
}

// NewMediaCleanup creates a MediaCleanup with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewMediaCleanup(host ports.MediaHost, numWorkers int, log zerolog.Logger) *MediaCleanup {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	m := &MediaCleanup{
		host:    host,
		workers: make([]chan string, numWorkers),
		log:     log,
	}
	for i := range m.workers {
		m.workers[i] = make(chan string, channelBuffer)
	}
	return m
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled
// after draining what is already queued.
func (m *MediaCleanup) Start(ctx context.Context) {
	for i, ch := range m.workers {
		m.wg.Add(1)
		go m.runWorker(ctx, i, ch)
	}
}

// Wait blocks until every worker has returned.
func (m *MediaCleanup) Wait() {
	m.wg.Wait()
}

func (m *MediaCleanup) Upload(ctx context.Context, kind ports.MediaKind, file *ports.MediaFile) (string, error) {
	return m.host.Upload(ctx, kind, file)
}

// Delete queues url for removal. When the worker's buffer is full, or the
// workers have stopped, the deletion runs inline instead.
func (m *MediaCleanup) Delete(ctx context.Context, url string) error {
	m.mu.RLock()
	if !m.stopped {
		select {
		case m.workers[m.shardIndex(url)] <- url:
			m.mu.RUnlock()
			return nil
		default:
		}
	}
	m.mu.RUnlock()
	return m.host.Delete(ctx, url)
}

// stop makes later Delete calls run inline. Once it returns, no further
// URL can land in a worker channel.
func (m *MediaCleanup) stop() {
	m.mu.Lock()
	m.stopped = true
	m.mu.Unlock()
}

// shardIndex maps a URL deterministically to a worker index.
func (m *MediaCleanup) shardIndex(url string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(url))
	return int(h.Sum32() % uint32(len(m.workers)))
}

func (m *MediaCleanup) runWorker(ctx context.Context, id int, ch <-chan string) {
	defer m.wg.Done()
	for {
		select {
		case <-ctx.Done():
			m.stop()
			m.drain(id, ch)
			return
		case url := <-ch:
			m.delete(ctx, id, url)
		}
	}
}

func (m *MediaCleanup) drain(id int, ch <-chan string) {
	ctx := context.Background()
	for {
		select {
		case url := <-ch:
			m.delete(ctx, id, url)
		default:
			return
		}
	}
}

func (m *MediaCleanup) delete(ctx context.Context, id int, url string) {
	if err := m.host.Delete(ctx, url); err != nil {
		m.log.Warn().Err(err).
			Str("url", url).
			Int("worker_id", id).
			Msg("failed to delete orphaned media")
	}
}
