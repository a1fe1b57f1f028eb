// Package chunk partitions slices into fixed-size batches.
package chunk

// Split partitions items into consecutive batches of at most size elements.
// The last batch may be shorter. A nil or empty input yields no batches.
func Split[T any](items []T, size int) [][]T {
	if size < 1 || len(items) == 0 {
		return nil
	}

	batches := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}

	return batches
}
