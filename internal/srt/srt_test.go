package srt

import (
	"reflect"
	"testing"
)

func TestFormatTimestamp(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00,000"},
		{1.5, "00:00:01,500"},
		{61.25, "00:01:01,250"},
		{3661.001, "01:01:01,001"},
		{-1, "00:00:00,000"},
	}
	for _, c := range cases {
		if got := formatTimestamp(c.seconds); got != c.want {
			t.Errorf("formatTimestamp(%v) = %q, want %q", c.seconds, got, c.want)
		}
	}
}

// TestLayoutCuesBreaksOnPunctuation mirrors adjust_srt.py's one-cue-per-line
// rule: a new cue starts after any token ending in CJK sentence punctuation.
func TestLayoutCuesBreaksOnPunctuation(t *testing.T) {
	tokens := []string{"你好", "，", "世界", "。", "再见"}
	timestamps := []float64{0, 0.3, 0.5, 0.8, 1.2}

	got := layoutCues(tokens, timestamps)
	want := []cue{
		{start: 0, end: 0.3, text: "你好 ，"},
		{start: 0.5, end: 0.8, text: "世界 。"},
		{start: 1.2, end: 1.2, text: "再见"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("layoutCues = %+v, want %+v", got, want)
	}
}

func TestLayoutCuesNoTrailingBreakStillFlushesAtEOF(t *testing.T) {
	tokens := []string{"hello", "world"}
	timestamps := []float64{0, 1}

	got := layoutCues(tokens, timestamps)
	if len(got) != 1 {
		t.Fatalf("len(cues) = %d, want 1: %+v", len(got), got)
	}
	if got[0].text != "hello world" || got[0].end != 1 {
		t.Fatalf("cue = %+v", got[0])
	}
}

func TestLayoutCuesEmpty(t *testing.T) {
	if got := layoutCues(nil, nil); len(got) != 0 {
		t.Fatalf("layoutCues(nil, nil) = %+v, want empty", got)
	}
}

func TestEndsInBreak(t *testing.T) {
	if !endsInBreak("你好。") {
		t.Error("expected 。 to end a cue")
	}
	if endsInBreak("hello") {
		t.Error("did not expect plain token to end a cue")
	}
	if endsInBreak("") {
		t.Error("empty token should never end a cue")
	}
}
