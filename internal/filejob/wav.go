package filejob

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"dictation/internal/pcm"
)

// decodeWAV reads a canonical RIFF/WAVE PCM file (16-bit integer or 32-bit
// float samples) and returns mono float32 PCM at 16kHz. No third-party WAV
// library appears anywhere in the retrieval pack — the teacher's own
// session/wav_writer.go writes the same canonical header by hand with
// encoding/binary — so this mirrors that rather than reaching for an
// out-of-pack dependency (see DESIGN.md).
func decodeWAV(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	defer f.Close()

	var riffHeader [12]byte
	if _, err := io.ReadFull(f, riffHeader[:]); err != nil {
		return nil, &DecodeError{Path: path, Err: err}
	}
	if string(riffHeader[0:4]) != "RIFF" || string(riffHeader[8:12]) != "WAVE" {
		return nil, &DecodeError{Path: path, Err: fmt.Errorf("not a RIFF/WAVE file")}
	}

	var (
		channels      int
		sampleRate    int
		bitsPerSample int
		audioFormat   uint16
	)

	for {
		var chunkHeader [8]byte
		if _, err := io.ReadFull(f, chunkHeader[:]); err != nil {
			return nil, &DecodeError{Path: path, Err: fmt.Errorf("reached EOF before data chunk: %w", err)}
		}
		id := string(chunkHeader[0:4])
		size := binary.LittleEndian.Uint32(chunkHeader[4:8])

		switch id {
		case "fmt ":
			body := make([]byte, size)
			if _, err := io.ReadFull(f, body); err != nil {
				return nil, &DecodeError{Path: path, Err: err}
			}
			audioFormat = binary.LittleEndian.Uint16(body[0:2])
			channels = int(binary.LittleEndian.Uint16(body[2:4]))
			sampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			bitsPerSample = int(binary.LittleEndian.Uint16(body[14:16]))

		case "data":
			body := make([]byte, size)
			if _, err := io.ReadFull(f, body); err != nil {
				return nil, &DecodeError{Path: path, Err: err}
			}
			samples, err := pcmBytesToFloat32(body, bitsPerSample, audioFormat)
			if err != nil {
				return nil, &DecodeError{Path: path, Err: err}
			}
			mono := samples
			if channels == 2 {
				mono = stereoToMono(samples)
			} else if channels > 2 {
				return nil, &DecodeError{Path: path, Err: fmt.Errorf("unsupported channel count %d", channels)}
			}
			return resampleIfNeeded(mono, sampleRate), nil

		default:
			if _, err := f.Seek(int64(size), 1); err != nil {
				return nil, &DecodeError{Path: path, Err: err}
			}
		}
	}
}

func pcmBytesToFloat32(body []byte, bitsPerSample int, audioFormat uint16) ([]float32, error) {
	switch {
	case audioFormat == 3 && bitsPerSample == 32: // IEEE float
		out := make([]float32, len(body)/4)
		for i := range out {
			out[i] = math.Float32frombits(binary.LittleEndian.Uint32(body[i*4 : i*4+4]))
		}
		return out, nil
	case bitsPerSample == 16:
		out := make([]float32, len(body)/2)
		for i := range out {
			v := int16(binary.LittleEndian.Uint16(body[i*2 : i*2+2]))
			out[i] = float32(v) / 32768.0
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported WAV sample format (bits=%d, format=%d)", bitsPerSample, audioFormat)
	}
}

func stereoToMono(samples []float32) []float32 {
	out := make([]float32, len(samples)/2)
	for i := range out {
		out[i] = (samples[2*i] + samples[2*i+1]) / 2
	}
	return out
}

func resampleIfNeeded(samples []float32, srcRate int) []float32 {
	return pcm.ResampleLinear(samples, srcRate, 16000)
}
