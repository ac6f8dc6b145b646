// Package filejob implements the client file pipeline of spec §4.H
// (component H): decode an input media file to raw mono float32 @16kHz,
// chunk it into 60-second windows, send them sequentially over a
// clientio.Conn, and drive a receiver that prints progress and — on the
// final result — writes the four sidecar artifacts spec §6 names.
//
// Grounded on the original CapsWriter-Offline's transcribe.py
// (transcribe_send/transcribe_recv: 60s chunking, sidecar filenames) and
// the teacher's session/mp3_reader.go for the pure-Go MP3 decode path
// (go-mp3, no ffmpeg).
package filejob

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hajimehoshi/go-mp3"

	"dictation/internal/clientio"
	"dictation/internal/pcm"
	"dictation/internal/srt"
	"dictation/internal/wire"
)

// chunkSeconds is the fixed file-chunk window spec §4.H and testable
// property S3 specify.
const chunkSeconds = 60

// Config configures one file transcription job.
type Config struct {
	SegDuration float64 // server-side segmentation, seg_duration for source=file
	SegOverlap  float64

	WriteMerge bool
	WriteSplit bool
	WriteJSON  bool
	WriteSRT   bool
	SRT        srt.Writer
}

// DecodeError wraps a failure to decode the input media file (spec §7
// treats this the same family as DecoderError, but at the client rather
// than a per-segment server failure).
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("filejob: decode %s: %v", e.Path, e.Err) }
func (e *DecodeError) Unwrap() error { return e.Err }

// decodeMono16k reads path and returns mono float32 PCM at 16kHz. Only
// .mp3 and .wav are supported natively (go-mp3 plus a small stdlib WAV
// reader); anything else is a DecodeError, standing in for the original's
// "any media via ffmpeg" external decoder (spec §1 out-of-scope leaf).
func decodeMono16k(path string) ([]float32, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return decodeMP3(path)
	case ".wav":
		return decodeWAV(path)
	default:
		return nil, &DecodeError{Path: path, Err: fmt.Errorf("unsupported extension %q (no external decoder wired)", filepath.Ext(path))}
	}
}

func decodeMP3(path string) ([]float32, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	defer file.Close()

	decoder, err := mp3.NewDecoder(file)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}

	raw := make([]byte, decoder.Length())
	n, err := io.ReadFull(decoder, raw)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, &DecodeError{Path: path, Err: err}
	}
	raw = raw[:n]

	// go-mp3 always decodes to signed 16-bit stereo PCM.
	numSamples := n / 4
	mono := make([]float32, numSamples)
	for i := 0; i < numSamples; i++ {
		left := int16(uint16(raw[i*4]) | uint16(raw[i*4+1])<<8)
		right := int16(uint16(raw[i*4+2]) | uint16(raw[i*4+3])<<8)
		mono[i] = (float32(left) + float32(right)) / 2 / 32768.0
	}

	return pcm.ResampleLinear(mono, decoder.SampleRate(), 16000), nil
}

// Run decodes file, sends it through conn in chunkSeconds windows, waits
// for the terminal result, and writes the configured sidecar artifacts.
// progress is called after each sent chunk and each received partial with
// cumulative duration, mirroring transcribe_send/transcribe_recv's console
// progress lines.
func Run(conn *clientio.Conn, file string, cfg Config, progress func(sent, recognized float64)) error {
	samples, err := decodeMono16k(file)
	if err != nil {
		return err
	}
	data := pcm.EncodeF32LE(samples)
	audioDuration := float64(len(samples)) / 16000

	taskID := uuid.NewString()
	timeStart := nowSeconds()
	log.Printf("filejob: task_id=%s file=%s duration=%.2fs", taskID, file, audioDuration)

	chunkBytes := 16000 * 4 * chunkSeconds
	sendErr := make(chan error, 1)
	go func() {
		offset := 0
		for {
			end := offset + chunkBytes
			isFinal := end >= len(data)
			if isFinal {
				end = len(data)
			}
			frame := wire.AudioFrame{
				TaskID:      taskID,
				SegDuration: cfg.SegDuration,
				SegOverlap:  cfg.SegOverlap,
				IsFinal:     isFinal,
				TimeStart:   timeStart,
				TimeFrame:   nowSeconds(),
				Source:      "file",
				Data:        wire.EncodePCM(data[offset:end]),
			}
			if err := conn.Send(frame); err != nil {
				sendErr <- fmt.Errorf("filejob: send chunk: %w", err)
				return
			}
			if progress != nil {
				progress(float64(end)/4/16000, -1)
			}
			offset = end
			if isFinal {
				sendErr <- nil
				return
			}
		}
	}()

	var final wire.ResultFrame
	for {
		frame, err := conn.Recv()
		if err != nil {
			return fmt.Errorf("filejob: recv: %w", err)
		}
		if progress != nil {
			progress(-1, frame.Duration)
		}
		if frame.IsFinal {
			final = frame
			break
		}
	}
	if err := <-sendErr; err != nil {
		return err
	}

	return writeSidecars(file, final, cfg)
}

// writeSidecars writes the four artifacts spec §6 "Persisted artifacts"
// names for file jobs.
func writeSidecars(file string, final wire.ResultFrame, cfg Config) error {
	base := strings.TrimSuffix(file, filepath.Ext(file))

	if cfg.WriteMerge {
		if err := os.WriteFile(base+".merge.txt", []byte(final.Text), 0o644); err != nil {
			return fmt.Errorf("filejob: write merge.txt: %w", err)
		}
	}
	if cfg.WriteSplit {
		split := splitPunctuation.ReplaceAllString(final.Text, "\n")
		if err := os.WriteFile(base+".txt", []byte(split), 0o644); err != nil {
			return fmt.Errorf("filejob: write txt: %w", err)
		}
	}
	if cfg.WriteJSON {
		payload, err := json.Marshal(struct {
			Timestamps []float64 `json:"timestamps"`
			Tokens     []string  `json:"tokens"`
		}{Timestamps: final.Timestamps, Tokens: final.Tokens})
		if err != nil {
			return fmt.Errorf("filejob: marshal json sidecar: %w", err)
		}
		if err := os.WriteFile(base+".json", payload, 0o644); err != nil {
			return fmt.Errorf("filejob: write json: %w", err)
		}
	}
	if cfg.WriteSRT && cfg.SRT != nil {
		if err := cfg.SRT.Write(base+".srt", final.Tokens, final.Timestamps); err != nil {
			return fmt.Errorf("filejob: write srt: %w", err)
		}
	}
	return nil
}

// splitPunctuation mirrors transcribe_recv's `re.sub("[，。？]", "\n", text)`:
// sentence-ending CJK punctuation becomes a line break in the plain .txt
// sidecar, while .merge.txt keeps the raw joined text.
var splitPunctuation = regexp.MustCompile(`[，。？]`)

func nowSeconds() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}
