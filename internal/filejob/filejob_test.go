package filejob

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"dictation/internal/wire"
)

// TestSplitPunctuationMirrorsOriginal checks the .txt sidecar's line-break
// rule against transcribe_recv's `re.sub("[，。？]", "\n", text)`.
func TestSplitPunctuationMirrorsOriginal(t *testing.T) {
	in := "你好，世界。今天天气怎么样？不错"
	want := "你好\n世界\n今天天气怎么样\n不错"
	if got := splitPunctuation.ReplaceAllString(in, "\n"); got != want {
		t.Fatalf("splitPunctuation = %q, want %q", got, want)
	}
}

func TestWriteSidecarsAllFour(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "clip.mp3")

	final := wire.ResultFrame{
		Text:       "你好，世界",
		Tokens:     []string{"你好", "，", "世界"},
		Timestamps: []float64{0, 0.3, 0.6},
	}
	cfg := Config{
		WriteMerge: true,
		WriteSplit: true,
		WriteJSON:  true,
		WriteSRT:   true,
		SRT:        fakeSRT{},
	}

	if err := writeSidecars(file, final, cfg); err != nil {
		t.Fatalf("writeSidecars: %v", err)
	}

	base := filepath.Join(dir, "clip")

	merge, err := os.ReadFile(base + ".merge.txt")
	if err != nil {
		t.Fatalf("read merge.txt: %v", err)
	}
	if string(merge) != final.Text {
		t.Errorf("merge.txt = %q, want %q", merge, final.Text)
	}

	split, err := os.ReadFile(base + ".txt")
	if err != nil {
		t.Fatalf("read txt: %v", err)
	}
	if string(split) != "你好\n世界" {
		t.Errorf("txt = %q", split)
	}

	jsonBytes, err := os.ReadFile(base + ".json")
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	var payload struct {
		Timestamps []float64 `json:"timestamps"`
		Tokens     []string  `json:"tokens"`
	}
	if err := json.Unmarshal(jsonBytes, &payload); err != nil {
		t.Fatalf("unmarshal json sidecar: %v", err)
	}
	if len(payload.Tokens) != 3 || len(payload.Timestamps) != 3 {
		t.Errorf("json payload = %+v", payload)
	}

	if _, err := os.Stat(base + ".srt"); err != nil {
		t.Errorf("expected .srt sidecar to be written: %v", err)
	}
}

func TestWriteSidecarsSkipsDisabled(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "clip.mp3")
	final := wire.ResultFrame{Text: "hello"}

	if err := writeSidecars(file, final, Config{}); err != nil {
		t.Fatalf("writeSidecars: %v", err)
	}
	base := filepath.Join(dir, "clip")
	for _, ext := range []string{".merge.txt", ".txt", ".json", ".srt"} {
		if _, err := os.Stat(base + ext); err == nil {
			t.Errorf("did not expect %s to be written", ext)
		}
	}
}

type fakeSRT struct{}

func (fakeSRT) Write(path string, tokens []string, timestamps []float64) error {
	return os.WriteFile(path, []byte("1\n00:00:00,000 --> 00:00:01,000\nstub\n\n"), 0o644)
}

// TestChunkSecondsConstant pins the 60s file-chunk window spec §4.H names.
func TestChunkSecondsConstant(t *testing.T) {
	if chunkSeconds != 60 {
		t.Fatalf("chunkSeconds = %d, want 60", chunkSeconds)
	}
}
