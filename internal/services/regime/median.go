package regime

import (
	"container/heap"
	"math"
)

type maxHeap []float64

func (h maxHeap) Len() int            { return len(h) }
func (h maxHeap) Less(i, j int) bool  { return h[i] > h[j] }
func (h maxHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *maxHeap) Push(x interface{}) { *h = append(*h, x.(float64)) }
func (h *maxHeap) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

type minHeap []float64

func (h minHeap) Len() int            { return len(h) }
func (h minHeap) Less(i, j int) bool  { return h[i] < h[j] }
func (h minHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x interface{}) { *h = append(*h, x.(float64)) }
func (h *minHeap) Pop() interface{} {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// runningMedian keeps the median of everything pushed so far using the usual
// two-heap split: lo holds the smaller half (max on top), hi the larger half
// (min on top), sizes never differing by more than one.
type runningMedian struct {
	lo maxHeap
	hi minHeap
}

func (m *runningMedian) Add(v float64) {
	if m.lo.Len() == 0 || v <= m.lo[0] {
		heap.Push(&m.lo, v)
	} else {
		heap.Push(&m.hi, v)
	}
	if m.lo.Len() > m.hi.Len()+1 {
		heap.Push(&m.hi, heap.Pop(&m.lo))
	} else if m.hi.Len() > m.lo.Len() {
		heap.Push(&m.lo, heap.Pop(&m.hi))
	}
}

func (m *runningMedian) Count() int {
	return m.lo.Len() + m.hi.Len()
}

// Median returns NaN until at least one value was added. Even counts average
// the two middle values, matching the usual median definition.
func (m *runningMedian) Median() float64 {
	switch {
	case m.Count() == 0:
		return math.NaN()
	case m.lo.Len() > m.hi.Len():
		return m.lo[0]
	default:
		return (m.lo[0] + m.hi[0]) / 2
	}
}
