package search

// TopN keeps the k best items pushed into it using a fixed-capacity
// min-heap whose root is the worst retained item. Pushing costs
// O(log k) and the heap never holds more than k items.
type TopN[T any] struct {
	k      int
	better func(a, b T) bool // a ranks above b
	items  []T
}

// NewTopN returns a selector for the k best items under better.
func NewTopN[T any](k int, better func(a, b T) bool) *TopN[T] {
	return &TopN[T]{
		k:      k,
		better: better,
		items:  make([]T, 0, k),
	}
}

// Len returns the number of retained items.
func (h *TopN[T]) Len() int { return len(h.items) }

// Cap returns the capacity k.
func (h *TopN[T]) Cap() int { return h.k }

// Push offers x. Once the heap is full, x replaces the current worst item
// only if it ranks above it.
func (h *TopN[T]) Push(x T) {
	if h.k <= 0 {
		return
	}
	if len(h.items) < h.k {
		h.items = append(h.items, x)
		h.siftUp(len(h.items) - 1)
		return
	}
	if !h.better(x, h.items[0]) {
		return
	}
	h.items[0] = x
	h.siftDown(0)
}

// Worst returns the lowest ranked retained item.
func (h *TopN[T]) Worst() (T, bool) {
	if len(h.items) == 0 {
		var zero T
		return zero, false
	}
	return h.items[0], true
}

// Drain appends the retained items to dst best first and empties the heap.
func (h *TopN[T]) Drain(dst []T) []T {
	n := len(h.items)
	start := len(dst)
	dst = append(dst, h.items...)
	out := dst[start:]
	for i := n - 1; i >= 0; i-- {
		out[i] = h.pop()
	}
	return dst
}

// Reset empties the heap, keeping its storage.
func (h *TopN[T]) Reset() {
	clear(h.items)
	h.items = h.items[:0]
}

func (h *TopN[T]) pop() T {
	n := len(h.items)
	root := h.items[0]
	last := h.items[n-1]
	var zero T
	h.items[n-1] = zero
	h.items = h.items[:n-1]
	if n-1 > 0 {
		h.items[0] = last
		h.siftDown(0)
	}
	return root
}

// worse orders the heap: the root is the item every other item beats.
func (h *TopN[T]) worse(i, j int) bool {
	return h.better(h.items[j], h.items[i])
}

func (h *TopN[T]) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !h.worse(i, p) {
			return
		}
		h.items[i], h.items[p] = h.items[p], h.items[i]
		i = p
	}
}

func (h *TopN[T]) siftDown(i int) {
	n := len(h.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		w := l
		if r := l + 1; r < n && h.worse(r, l) {
			w = r
		}
		if !h.worse(w, i) {
			return
		}
		h.items[i], h.items[w] = h.items[w], h.items[i]
		i = w
	}
}
