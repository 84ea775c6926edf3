package batch

import (
	"fmt"
	"iter"
)

const DefaultChunkSize = 500

// Count returns the number of chunks [Chunks] will yield for [n] items.
func Count(n, chunkSize int) int {
	if n <= 0 || chunkSize <= 0 {
		return 0
	}

	return (n + chunkSize - 1) / chunkSize
}

// Chunks lazily slices [in] into consecutive chunks of at most [chunkSize] items, preserving order.
// The yielded slices share the backing array of [in].
func Chunks[T any](in []T, chunkSize int) (iter.Seq2[int, []T], error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be a positive number, got: %d", chunkSize)
	}

	return func(yield func(int, []T) bool) {
		for idx, start := 0, 0; start < len(in); idx, start = idx+1, start+chunkSize {
			end := min(start+chunkSize, len(in))
			if !yield(idx, in[start:end:end]) {
				return
			}
		}
	}, nil
}
