// Package pqueue is a bounded priority queue that keeps the items with the
// lowest priority values.
package pqueue

import (
	"container/heap"
	"sort"
)

func WithCap(size uint) Option {
	return func(q *Queue) {
		q.cap = int(size)
	}
}

type Option func(*Queue)

type item struct {
	value interface{}
	prior float64
}

func New(opts ...Option) *Queue {
	q := &Queue{cap: -1}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Queue retains at most cap items; once full, pushing evicts the item with the
// highest priority value. A negative cap means unbounded.
type Queue struct {
	cap   int
	items maxHeap
}

func (q *Queue) Push(val interface{}, priority float64) {
	if q.cap == 0 {
		return
	}
	if q.cap > 0 && len(q.items) == q.cap {
		if priority >= q.items[0].prior {
			return
		}
		q.items[0] = item{value: val, prior: priority}
		heap.Fix(&q.items, 0)
		return
	}
	heap.Push(&q.items, item{value: val, prior: priority})
}

// PopAll drains the queue in ascending priority order.
func (q *Queue) PopAll() []interface{} {
	sort.Slice(q.items, func(i, j int) bool { return q.items[i].prior < q.items[j].prior })
	pulled := make([]interface{}, len(q.items))
	for i := range q.items {
		pulled[i] = q.items[i].value
	}
	q.items = q.items[:0]
	return pulled
}

// Worst returns the highest retained priority and whether the queue is at
// capacity. An unbounded queue is never full.
func (q *Queue) Worst() (float64, bool) {
	if len(q.items) == 0 {
		return 0, q.cap == 0
	}
	return q.items[0].prior, q.cap >= 0 && len(q.items) >= q.cap
}

func (q *Queue) Cap() int { return q.cap }

func (q *Queue) Len() int { return len(q.items) }

type maxHeap []item

func (h maxHeap) Len() int            { return len(h) }
func (h maxHeap) Less(i, j int) bool  { return h[i].prior > h[j].prior }
func (h maxHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x interface{}) { *h = append(*h, x.(item)) }
func (h *maxHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}
