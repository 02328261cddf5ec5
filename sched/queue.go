package sched

import "container/heap"

// readyQueue is a max-heap of ready operators keyed by DAGS score, with
// insertion-order tie-breaking. Entries are never deduplicated here; the
// caller tracks enqueued/scheduled membership explicitly.
type readyQueue struct {
	items []readyItem
	seq   int
}

type readyItem struct {
	score float64
	seq   int
	opID  string
}

func (q *readyQueue) Len() int { return len(q.items) }

func (q *readyQueue) Less(i, j int) bool {
	if q.items[i].score != q.items[j].score {
		return q.items[i].score > q.items[j].score
	}
	return q.items[i].seq < q.items[j].seq
}

func (q *readyQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
}

func (q *readyQueue) Push(x any) {
	q.items = append(q.items, x.(readyItem))
}

func (q *readyQueue) Pop() any {
	last := len(q.items) - 1
	item := q.items[last]
	q.items = q.items[:last]
	return item
}

func (q *readyQueue) push(score float64, opID string) {
	heap.Push(q, readyItem{score: score, seq: q.seq, opID: opID})
	q.seq++
}

func (q *readyQueue) pop() string {
	return heap.Pop(q).(readyItem).opID
}
