package recognize

import (
	"dictation/internal/task"
)

// Merge applies one segment's recognizer output to an in-progress Result,
// trimming the overlap region and appending the kept interior tokens. This
// is the dedup/merge engine of spec §4.E, ported token-for-token from the
// original recognize() pipeline: coarse time-based trim, first/final-segment
// exceptions, then a fine token-equality trim at the seam.
//
// It is a pure function of (result, segment output, segment metadata) and
// must never be called concurrently for the same task_id — the worker's
// per-task_id accumulation (see worker.go) guarantees that by construction.
func Merge(result *task.Result, seg Segment, duration, overlap, offset float64, isFinal bool) {
	L := len(seg.Timestamps)

	// 1. Coarse front trim: first index whose timestamp exceeds overlap/2.
	m := L
	for i, ts := range seg.Timestamps {
		if ts > overlap/2 {
			m = i
			break
		}
	}

	// 2. Coarse back trim: first index i (1-based walk) whose preceding
	// timestamp exceeds duration-overlap/2.
	n := L
	for i := 1; i <= L; i++ {
		n = i
		if seg.Timestamps[i-1] > duration-overlap/2 {
			break
		}
	}

	// 3. First-segment exception: nothing precedes the first segment, so
	// never trim its leading tokens.
	if len(result.Timestamps) == 0 {
		m = 0
	}

	// 4. Final-segment exception: always keep the full tail of the last
	// segment for a task_id.
	if isFinal {
		n = L
	}

	// 5. Fine boundary dedup by token equality: the coarse time trim can be
	// off by a token or two at the seam, so compare the last 1-2 accepted
	// tokens against the first 1-2 of the new window. Guarded on a
	// non-empty accumulator, mirroring the original `if result.tokens and
	// ...` — on the very first segment there is nothing to compare against.
	hasAccepted := len(result.Tokens) > 0
	window := seg.Tokens[clamp(m, 0, L):clamp(n, m, L)]
	switch {
	case hasAccepted && sliceEqual(lastN(result.Tokens, 2), firstN(window, 2)):
		m += 2
	case hasAccepted && sliceEqual(lastN(result.Tokens, 1), firstN(window, 1)):
		m += 1
	}

	m = clamp(m, 0, L)
	n = clamp(n, m, L)

	for i := m; i < n; i++ {
		result.Tokens = append(result.Tokens, seg.Tokens[i])
		result.Timestamps = append(result.Timestamps, seg.Timestamps[i]+offset)
	}

	// 6. Duration accounting.
	if isFinal {
		result.Duration += duration
	} else {
		result.Duration += duration - overlap
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// lastN returns the last min(len(s), n) elements, mirroring Python's s[-n:]
// which never errors on a short slice.
func lastN(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// firstN returns the first min(len(s), n) elements, mirroring Python's s[:n].
func firstN(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func sliceEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
