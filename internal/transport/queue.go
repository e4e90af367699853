package transport

import (
	"context"
	"sync/atomic"
)

// DefaultQueueSize is the number of reassembled images waiting for a consumer.
const DefaultQueueSize = 16

// Queue is a bounded hand-off between the receive path and the consumer. Producers never block.
type Queue struct {
	ch      chan *Image
	dropped atomic.Uint64
}

func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{ch: make(chan *Image, size)}
}

// TryPut enqueues img, or drops it and returns false when the queue is full.
func (q *Queue) TryPut(img *Image) bool {
	select {
	case q.ch <- img:
		return true
	default:
		q.dropped.Add(1)
		return false
	}
}

// Get blocks until an image is available or ctx is done.
func (q *Queue) Get(ctx context.Context) (*Image, error) {
	select {
	case img := <-q.ch:
		return img, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *Queue) Len() int { return len(q.ch) }

func (q *Queue) Cap() int { return cap(q.ch) }

// Dropped counts images lost to a full queue.
func (q *Queue) Dropped() uint64 { return q.dropped.Load() }
