package scheduler

// readyHeap is a container/heap.Interface min-heap over (priority, seq):
// lower numeric priority pops first, ties broken by insertion order.
// Negating priority and calling it a max-heap, as a naive reading of
// "max-heap keyed on (-priority, id)" suggests, is the same comparator
// with an extra sign flip; this orders directly on priority instead.
type readyHeap []*thread

func (h readyHeap) Len() int { return len(h) }

func (h readyHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority < h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h readyHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIndex = i
	h[j].heapIndex = j
}

func (h *readyHeap) Push(x any) {
	t := x.(*thread)
	t.heapIndex = len(*h)
	*h = append(*h, t)
}

func (h *readyHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return t
}
