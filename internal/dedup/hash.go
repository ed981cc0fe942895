// Package dedup shapes raw log observations and assigns their content hashes.
package dedup

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
)

// AlgorithmXXH64 is the only supported hash algorithm.
const AlgorithmXXH64 = "xxh64"

// CheckAlgorithm rejects hash algorithm names this build cannot produce.
func CheckAlgorithm(name string) error {
	if name != AlgorithmXXH64 {
		return fmt.Errorf("unsupported hash algorithm %q (supported: %s)", name, AlgorithmXXH64)
	}
	return nil
}

// Hash returns the identity of a log entry. It covers the call id, the
// observation time in Unix microseconds and the position in microseconds, so
// it is stable across processes and independent of arrival order.
func Hash(callID string, t time.Time, pos time.Duration) int64 {
	buf := make([]byte, 0, 8+len(callID)+16)
	buf = binary.BigEndian.AppendUint64(buf, uint64(len(callID)))
	buf = append(buf, callID...)
	buf = binary.BigEndian.AppendUint64(buf, uint64(t.UnixMicro()))
	buf = binary.BigEndian.AppendUint64(buf, uint64(pos.Microseconds()))
	return int64(xxhash.Sum64(buf))
}
