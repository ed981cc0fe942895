// Package partition maps call ids onto sequencer workers.
package partition

import "hash/fnv"

// Count is the fixed number of logical partitions a call id hashes into.
// Workers own contiguous ranges, so changing the worker count never moves a
// call between partitions.
const Count = 256

// For returns the partition for a call id. Same id, same partition.
func For(callID string) int {
	h := fnv.New32a()
	h.Write([]byte(callID))
	return int(h.Sum32() % Count)
}

// Worker returns which of n workers owns callID. n must be in [1, Count].
func Worker(callID string, n int) int {
	if n <= 1 {
		return 0
	}
	return For(callID) * n / Count
}
