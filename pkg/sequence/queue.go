package sequence

import "container/heap"

// PriorityItem is an entry of a PriorityQueue. Cost orders items ascending;
// Seq breaks ties in insertion order so equal costs dequeue first-in first-out.
type PriorityItem[T any] struct {
	Value T
	Cost  float64
	seq   uint64
	index int
}

type priorityQueue[T any] struct {
	items []*PriorityItem[T]
}

func (pq *priorityQueue[T]) Len() int {
	return len(pq.items)
}

func (pq *priorityQueue[T]) Less(i, j int) bool {
	a, b := pq.items[i], pq.items[j]
	if a.Cost != b.Cost {
		return a.Cost < b.Cost
	}
	return a.seq < b.seq
}

func (pq *priorityQueue[T]) Swap(i, j int) {
	pq.items[i], pq.items[j] = pq.items[j], pq.items[i]
	pq.items[i].index = i
	pq.items[j].index = j
}

func (pq *priorityQueue[T]) Push(x any) {
	item := x.(*PriorityItem[T])
	item.index = len(pq.items)
	pq.items = append(pq.items, item)
}

func (pq *priorityQueue[T]) Pop() any {
	old := pq.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	pq.items = old[0 : n-1]
	return item
}

// PriorityQueue is a min-heap keyed by cost.
type PriorityQueue[T any] struct {
	pq   priorityQueue[T]
	next uint64
}

func NewPriorityQueue[T any]() *PriorityQueue[T] {
	pq := &PriorityQueue[T]{}
	heap.Init(&pq.pq)
	return pq
}

func (pq *PriorityQueue[T]) Enqueue(value T, cost float64) *PriorityItem[T] {
	item := &PriorityItem[T]{
		Value: value,
		Cost:  cost,
		seq:   pq.next,
	}
	pq.next++
	heap.Push(&pq.pq, item)
	return item
}

// Dequeue removes the cheapest item.
func (pq *PriorityQueue[T]) Dequeue() (T, float64, bool) {
	if pq.pq.Len() == 0 {
		var zero T
		return zero, 0, false
	}
	item := heap.Pop(&pq.pq).(*PriorityItem[T])
	return item.Value, item.Cost, true
}

func (pq *PriorityQueue[T]) Peek() (T, bool) {
	if pq.pq.Len() == 0 {
		var zero T
		return zero, false
	}
	return pq.pq.items[0].Value, true
}

// Update changes the cost of an item still in the queue.
func (pq *PriorityQueue[T]) Update(item *PriorityItem[T], cost float64) {
	if item.index < 0 {
		return
	}
	item.Cost = cost
	heap.Fix(&pq.pq, item.index)
}

func (pq *PriorityQueue[T]) Len() int {
	return pq.pq.Len()
}

func (pq *PriorityQueue[T]) IsEmpty() bool {
	return pq.pq.Len() == 0
}
