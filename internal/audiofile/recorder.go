// Package audiofile implements the client's optional `save_audio` sidecar:
// captured mic audio is MP3-encoded to disk (pure Go, via shine-mp3 — no
// ffmpeg dependency, same rationale as the teacher's
// session/mp3_writer_shine.go), named and relocated once the final
// transcript is known, and logged into a per-day markdown file.
//
// Grounded on the teacher's ShineMP3Writer (streaming encode, block-sized
// buffering) and the original CapsWriter-Offline's utils/audio_file.py
// (create/rename-on-finish naming scheme) and utils/markdown_file.py
// (per-day, per-keyword markdown log format).
package audiofile

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/braheezy/shine-mp3/pkg/mp3"

	"dictation/internal/hotword"
)

// Recorder streams captured mono samples to a temporary MP3 file, renamed
// to a name derived from the final transcript once recognition completes
// (spec §6 "Persisted artifacts": `YYYY/MM/assets/(YYYYMMDD-HHMMSS)<text>.mp3`).
type Recorder struct {
	file       *os.File
	encoder    *mp3.Encoder
	path       string
	sampleRate int
	buffer     []int16
}

// blockSamples is the MP3 frame size in samples; Finish zero-pads the last
// buffered block up to a multiple of it.
const blockSamples = 1152

// NewRecorder opens a temp MP3 file under YYYY/MM/assets relative to dir,
// timestamped by timeStart (epoch seconds, the utterance's recording
// start).
func NewRecorder(dir string, sampleRate int, timeStart float64) (*Recorder, error) {
	t := time.Unix(int64(timeStart), 0)
	folder := filepath.Join(dir, t.Format("2006"), t.Format("01"), "assets")
	if err := os.MkdirAll(folder, 0o755); err != nil {
		return nil, fmt.Errorf("audiofile: mkdir %s: %w", folder, err)
	}

	path := filepath.Join(folder, fmt.Sprintf("(%s)-tmp.mp3", t.Format("20060102-150405")))
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("audiofile: create %s: %w", path, err)
	}

	return &Recorder{
		file:       file,
		encoder:    mp3.NewEncoder(sampleRate, 1),
		path:       path,
		sampleRate: sampleRate,
	}, nil
}

// Write appends mono float32 samples to the recording.
func (r *Recorder) Write(samples []float32) {
	for _, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		r.buffer = append(r.buffer, int16(s*32767))
	}
	if len(r.buffer) >= blockSamples*4 {
		r.encoder.Write(r.file, r.buffer)
		r.buffer = r.buffer[:0]
	}
}

// illegalFilenameChars mirrors audio_file.py's
// `re.sub(r'[\\/:"*?<>|]', " ", file_stem)`.
var illegalFilenameChars = regexp.MustCompile(`[\\/:"*?<>|]`)

// Finish flushes and closes the MP3 file, leaving it at its temporary
// path — the final transcript (needed to name the file per spec §6) isn't
// known until the server's is_final Result arrives, which is always after
// the recording itself has stopped. Call Rename once that text is in hand.
func (r *Recorder) Finish() (string, error) {
	if len(r.buffer) > 0 {
		for len(r.buffer)%blockSamples != 0 {
			r.buffer = append(r.buffer, 0)
		}
		r.encoder.Write(r.file, r.buffer)
	}
	if err := r.file.Close(); err != nil {
		return "", fmt.Errorf("audiofile: close %s: %w", r.path, err)
	}
	return r.path, nil
}

// Rename moves a finished recording from its temporary name to the final
// `(YYYYMMDD-HHMMSS)<text>.mp3` name spec §6 specifies, truncating text to
// nameLen runes first. An empty text leaves tmpPath untouched.
func Rename(tmpPath string, timeStart float64, text string, nameLen int) (string, error) {
	if text == "" {
		return tmpPath, nil
	}

	t := time.Unix(int64(timeStart), 0)
	stem := fmt.Sprintf("(%s)%s", t.Format("20060102-150405"), truncateRunes(text, nameLen))
	stem = illegalFilenameChars.ReplaceAllString(stem, " ")

	newPath := filepath.Join(filepath.Dir(tmpPath), stem+filepath.Ext(tmpPath))
	if err := os.Rename(tmpPath, newPath); err != nil {
		return "", fmt.Errorf("audiofile: rename %s -> %s: %w", tmpPath, newPath, err)
	}
	return newPath, nil
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// WriteMarkdownLog appends one `[HH:MM:SS](relpath) text` line to the
// per-day markdown log next to audioPath, for every keyword in kwds that
// text starts with — spec §6's session log format, keyed by the hotword
// package's keyword list so a transcript routes to `<kwd>-DD.md` files.
func WriteMarkdownLog(dir string, kwds hotword.KeywordList, timeStart float64, audioPath, text string) error {
	t := time.Unix(int64(timeStart), 0)
	day := t.Format("02")
	hms := t.Format("15:04:05")
	folder := filepath.Join(dir, t.Format("2006"), t.Format("01"))

	for _, kwd := range kwds {
		if kwd != "" && !strings.HasPrefix(text, kwd) {
			continue
		}
		name := day + ".md"
		if kwd != "" {
			name = kwd + "-" + day + ".md"
		}
		mdPath := filepath.Join(folder, name)

		rel, err := filepath.Rel(folder, audioPath)
		if err != nil {
			rel = audioPath
		}
		rel = strings.ReplaceAll(filepath.ToSlash(rel), " ", "%20")

		body := strings.TrimLeft(strings.TrimPrefix(text, kwd), "，。,.")
		line := fmt.Sprintf("[%s](%s) %s\n\n", hms, rel, body)

		if err := appendFile(mdPath, line); err != nil {
			return fmt.Errorf("audiofile: write markdown log %s: %w", mdPath, err)
		}
	}
	return nil
}

func appendFile(path, content string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteString(content)
	return err
}
