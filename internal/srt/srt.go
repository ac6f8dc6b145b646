// Package srt implements the SRTWriter external collaborator the design
// notes call for (spec §9, SPEC_FULL "SUPPLEMENTED FEATURES"): lays one
// subtitle cue per token run bounded by recognizer timestamps, grounded on
// the original CapsWriter-Offline's utils/adjust_srt.py / srt_from_txt
// collaborator (one cue per line, split on sentence punctuation).
package srt

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Writer is the SRT sidecar collaborator the file pipeline (H) invokes on
// a final result.
type Writer interface {
	Write(path string, tokens []string, timestamps []float64) error
}

// cueBreak is the set of CJK sentence-ending punctuation that starts a new
// subtitle cue: the file pipeline's own split-on-punctuation set
// (filejob.splitPunctuation, "，。？") plus "！", so the .srt breaks
// wherever the .txt sidecar does and also after "！".
const cueBreak = "，。？！"

// TokenWriter lays out cues by walking tokens in order, starting a new cue
// whenever a token ends with a rune in cueBreak, and bounding each cue's
// start/end by the first/last timestamp it contains.
type TokenWriter struct{}

// NewTokenWriter returns the concrete SRT writer used by the file pipeline.
func NewTokenWriter() Writer { return TokenWriter{} }

func (TokenWriter) Write(path string, tokens []string, timestamps []float64) error {
	cues := layoutCues(tokens, timestamps)

	var b strings.Builder
	for i, cue := range cues {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", i+1, formatTimestamp(cue.start), formatTimestamp(cue.end), cue.text)
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

type cue struct {
	start, end float64
	text       string
}

// layoutCues groups (token, timestamp) pairs into cues, breaking after any
// token ending in CJK sentence punctuation. A cue with no trailing break at
// end-of-stream still closes at EOF.
func layoutCues(tokens []string, timestamps []float64) []cue {
	var cues []cue
	var textParts []string
	var start float64
	haveStart := false

	flush := func(end float64) {
		if len(textParts) == 0 {
			return
		}
		cues = append(cues, cue{start: start, end: end, text: strings.Join(textParts, " ")})
		textParts = nil
		haveStart = false
	}

	for i, tok := range tokens {
		ts := 0.0
		if i < len(timestamps) {
			ts = timestamps[i]
		}
		if !haveStart {
			start = ts
			haveStart = true
		}
		textParts = append(textParts, tok)
		if endsInBreak(tok) {
			flush(ts)
		}
	}
	// Trailing partial cue at EOF: extend its end by the last token's
	// timestamp, since nothing bounds it from the right otherwise.
	if len(textParts) > 0 {
		end := start
		if len(timestamps) > 0 {
			end = timestamps[len(timestamps)-1]
		}
		flush(end)
	}
	return cues
}

func endsInBreak(tok string) bool {
	if tok == "" {
		return false
	}
	r := []rune(tok)
	last := r[len(r)-1]
	return strings.ContainsRune(cueBreak, last)
}

// formatTimestamp renders seconds as SRT's "HH:MM:SS,mmm" timecode.
func formatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	d := time.Duration(seconds * float64(time.Second))
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	ms := d / time.Millisecond
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms)
}
