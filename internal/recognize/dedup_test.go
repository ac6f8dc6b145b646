package recognize

import (
	"reflect"
	"testing"

	"dictation/internal/task"
)

// TestNoDuplicationAtSeams is spec §8 property 2 / scenario S2: a synthetic
// recognizer returns "A B C D E" for segment [0,17) and "D E F G H" for
// segment [15,32) with overlap=2; the stitched result must be exactly
// A B C D E F G H with no duplicated seam tokens.
func TestNoDuplicationAtSeams(t *testing.T) {
	var result task.Result

	seg1 := Segment{
		Tokens:     []string{"A", "B", "C", "D", "E"},
		Timestamps: []float64{0, 4, 8, 12, 16},
	}
	Merge(&result, seg1, 17, 2, 0, false)

	seg2 := Segment{
		Tokens:     []string{"D", "E", "F", "G", "H"},
		Timestamps: []float64{0, 2, 6, 10, 14},
	}
	// Second segment starts at absolute offset 15 (stride = seg_duration).
	Merge(&result, seg2, 17, 2, 15, true)

	want := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	if !reflect.DeepEqual(result.Tokens, want) {
		t.Fatalf("tokens = %v, want %v", result.Tokens, want)
	}

	if len(result.Tokens) != len(result.Timestamps) {
		t.Fatalf("tokens/timestamps length mismatch: %d vs %d", len(result.Tokens), len(result.Timestamps))
	}
	for i := 1; i < len(result.Timestamps); i++ {
		if result.Timestamps[i] < result.Timestamps[i-1] {
			t.Fatalf("timestamps not non-decreasing at %d: %v", i, result.Timestamps)
		}
	}
}

// TestFirstSegmentNeverTrimsFront is spec §8 property 6: when
// result.Timestamps is empty, the front trim is forced to 0.
func TestFirstSegmentNeverTrimsFront(t *testing.T) {
	var result task.Result

	// The first two tokens fall at/under overlap/2 (=1.0s), so the coarse
	// front trim would naturally set m=2 and drop them — except this is the
	// first segment for the task_id, which forces m=0.
	seg := Segment{
		Tokens:     []string{"lead", "in", "hello", "world"},
		Timestamps: []float64{0.5, 0.9, 5, 6},
	}
	Merge(&result, seg, 7, 2, 0, false)

	want := []string{"lead", "in", "hello", "world"}
	if !reflect.DeepEqual(result.Tokens, want) {
		t.Fatalf("tokens = %v, want %v (leading tokens must survive on the first segment)", result.Tokens, want)
	}
}

// TestFinalSegmentKeepsFullTail is spec §4.E rule 4: the coarse back trim
// would otherwise cut "w" here (its timestamp crosses duration-overlap/2
// one token early), but the final-segment exception forces n=L.
func TestFinalSegmentKeepsFullTail(t *testing.T) {
	var result task.Result
	result.Tokens = []string{"x"}
	result.Timestamps = []float64{0.1}

	seg := Segment{
		Tokens:     []string{"y", "z", "w"},
		Timestamps: []float64{0.05, 1.0, 2.0},
	}
	Merge(&result, seg, 1 /*duration*/, 0.1 /*overlap*/, 1 /*offset*/, true)

	want := []string{"x", "z", "w"}
	if !reflect.DeepEqual(result.Tokens, want) {
		t.Fatalf("tokens = %v, want %v", result.Tokens, want)
	}
}

// TestAlignmentInvariant is spec §8 property 1: across any sequence of
// merges for one task_id, len(tokens) == len(timestamps) and timestamps
// are non-decreasing.
func TestAlignmentInvariant(t *testing.T) {
	var result task.Result
	segs := []struct {
		seg      Segment
		duration float64
		overlap  float64
		offset   float64
		final    bool
	}{
		{Segment{[]string{"a", "b", "c"}, []float64{0, 5, 10}}, 17, 2, 0, false},
		{Segment{[]string{"c", "d", "e"}, []float64{0, 5, 15}}, 17, 2, 15, false},
		{Segment{[]string{"e", "f"}, []float64{0, 3}}, 5, 2, 30, true},
	}
	for _, s := range segs {
		Merge(&result, s.seg, s.duration, s.overlap, s.offset, s.final)
		if len(result.Tokens) != len(result.Timestamps) {
			t.Fatalf("tokens/timestamps diverged: %d vs %d", len(result.Tokens), len(result.Timestamps))
		}
	}
	for i := 1; i < len(result.Timestamps); i++ {
		if result.Timestamps[i] < result.Timestamps[i-1] {
			t.Fatalf("timestamps not non-decreasing: %v", result.Timestamps)
		}
	}
}

func TestDurationAccounting(t *testing.T) {
	var result task.Result
	Merge(&result, Segment{Tokens: []string{"a"}, Timestamps: []float64{1}}, 17, 2, 0, false)
	if result.Duration != 15 {
		t.Fatalf("non-final duration = %v, want 15 (17-overlap 2)", result.Duration)
	}
	Merge(&result, Segment{Tokens: []string{"b"}, Timestamps: []float64{1}}, 8, 2, 15, true)
	if result.Duration != 23 {
		t.Fatalf("cumulative duration = %v, want 23 (15 + final 8)", result.Duration)
	}
}
