package index

import (
	"sort"

	"github.com/ChrisMcGann/FragIndex/pkg/core"
)

// BucketIndex partitions the sorted fragment table into fixed-size buckets
// and keeps the minimum m/z of each, so a tolerance window is located with
// a binary search over len(fragments)/bucketSize entries followed by an
// exact search inside the few buckets that overlap it.
//
// Invariant: mins is non-decreasing and mins[i] == fragments[i*size].MZ.
type BucketIndex struct {
	fragments []Fragment
	size      int
	mins      []float64
}

// NewBucketIndex builds bucket minima over fragments, which must be sorted
// by MZ.
func NewBucketIndex(fragments []Fragment, bucketSize int) *BucketIndex {
	n := (len(fragments) + bucketSize - 1) / bucketSize
	mins := make([]float64, n)
	for i := range mins {
		mins[i] = fragments[i*bucketSize].MZ
	}
	return &BucketIndex{
		fragments: fragments,
		size:      bucketSize,
		mins:      mins,
	}
}

// NumBuckets returns ceil(len(fragments) / bucket size).
func (b *BucketIndex) NumBuckets() int {
	return len(b.mins)
}

// BucketSize returns the number of fragments per bucket.
func (b *BucketIndex) BucketSize() int {
	return b.size
}

// Min returns the smallest m/z in bucket i.
func (b *BucketIndex) Min(i int) float64 {
	return b.mins[i]
}

// Bounds returns the fragment index range [start, end) covered by bucket i.
func (b *BucketIndex) Bounds(i int) (start, end int) {
	start = i * b.size
	return start, min(start+b.size, len(b.fragments))
}

// RangeForMZ returns the half-open range of fragment table indices whose
// m/z lies within tol of q.
func (b *BucketIndex) RangeForMZ(q float64, tol core.Tolerance) (lo, hi int) {
	t := tol.At(q)
	return b.rangeFor(max(q-t, 0), q+t)
}

func (b *BucketIndex) rangeFor(low, high float64) (lo, hi int) {
	n := len(b.mins)
	if n == 0 || high < low {
		return 0, 0
	}

	// The bucket before the first one starting at or above low may still
	// hold values >= low.
	first := sort.Search(n, func(i int) bool { return b.mins[i] >= low }) - 1
	if first < 0 {
		first = 0
	}
	last := sort.Search(n, func(i int) bool { return b.mins[i] > high })
	if last <= first {
		// Every bucket from first on starts above high.
		start, _ := b.Bounds(first)
		return start, start
	}

	start, _ := b.Bounds(first)
	_, end := b.Bounds(last - 1)
	window := b.fragments[start:end]
	lo = start + sort.Search(len(window), func(i int) bool { return window[i].MZ >= low })
	hi = start + sort.Search(len(window), func(i int) bool { return window[i].MZ > high })
	return lo, hi
}
