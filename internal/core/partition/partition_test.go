package partition

import (
	"strconv"
	"testing"
)

func TestFor_Determinism(t *testing.T) {
	// Same input must always produce the same partition.
	id := For("county/2025/01/01/1001-1735732800_851012500.0-call_1.m4a")
	for i := 0; i < 100; i++ {
		if got := For("county/2025/01/01/1001-1735732800_851012500.0-call_1.m4a"); got != id {
			t.Fatalf("For() = %d on iteration %d, want %d", got, i, id)
		}
	}
}

func TestFor_Range(t *testing.T) {
	inputs := []string{"", "a", "call-1", "call-2", "p25/2025/12/31/a-very-long-audio-file-name-that-should-still-hash.m4a"}
	for _, s := range inputs {
		p := For(s)
		if p < 0 || p >= Count {
			t.Errorf("For(%q) = %d, want [0, %d)", s, p, Count)
		}
	}
}

func TestFor_Distribution(t *testing.T) {
	// 1 000 calls should hit at least 100 distinct partitions.
	seen := make(map[int]struct{})
	for i := 0; i < 1000; i++ {
		seen[For("call-"+strconv.Itoa(i))] = struct{}{}
	}
	if len(seen) < 100 {
		t.Errorf("only %d distinct partitions from 1000 inputs, want >= 100", len(seen))
	}
}

func TestWorker_RangeAndStability(t *testing.T) {
	for _, n := range []int{1, 3, 8, 32} {
		used := make(map[int]struct{})
		for i := 0; i < 2000; i++ {
			id := "call-" + strconv.Itoa(i)
			w := Worker(id, n)
			if w < 0 || w >= n {
				t.Fatalf("Worker(%q, %d) = %d, out of range", id, n, w)
			}
			if again := Worker(id, n); again != w {
				t.Fatalf("Worker(%q, %d) unstable: %d then %d", id, n, w, again)
			}
			used[w] = struct{}{}
		}
		if len(used) != n {
			t.Errorf("n=%d: only %d workers received calls", n, len(used))
		}
	}
}
