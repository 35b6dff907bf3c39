package utils

// Chunk splits a slice into fixed-size batches; the last batch may be
// smaller. A non-positive size yields a single batch with all items.
func Chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 {
		size = len(items)
	}
	var batches [][]T
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batch := make([]T, end-start)
		copy(batch, items[start:end])
		batches = append(batches, batch)
	}
	return batches
}
