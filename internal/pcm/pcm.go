// Package pcm holds the small sample-format conversions shared by the
// client's capture (G) and file (H) pipelines: float32 LE encode/decode,
// the mic's 48kHz-stereo -> 16kHz-mono decimation, and a linear resampler
// for file-sourced audio at an arbitrary native rate. Grounded on the
// teacher's session/mp3_reader.go (resampleLinear) and audio/capture.go
// (the raw float32LE byte<->sample conversion duplicated in its callback).
package pcm

import (
	"encoding/binary"
	"math"

	"gonum.org/v1/gonum/stat"
)

// EncodeF32LE serializes mono float32 samples as little-endian bytes, the
// wire format spec §3 fixes for AudioFrame.Data.
func EncodeF32LE(samples []float32) []byte {
	out := make([]byte, len(samples)*4)
	for i, s := range samples {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(s))
	}
	return out
}

// DecodeF32LE is the inverse of EncodeF32LE.
func DecodeF32LE(b []byte) []float32 {
	n := len(b) / 4
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4 : i*4+4]))
	}
	return out
}

// DownsampleDecimate implements spec §4.G's `mean(data[::3], axis=1)`: take
// every third interleaved frame (no low-pass filter — the spec's Open
// Questions note this may alias, intentionally), and average the channels
// within the kept frame down to mono. data is interleaved
// frameCount*channels samples at the device's native rate.
func DownsampleDecimate(data []float32, channels int) []float32 {
	if channels <= 0 {
		channels = 1
	}
	frames := len(data) / channels
	out := make([]float32, 0, frames/3+1)
	for frame := 0; frame < frames; frame += 3 {
		start := frame * channels
		out = append(out, float32(stat.Mean(f64(data[start:start+channels]), nil)))
	}
	return out
}

// ResampleLinear converts mono samples from srcRate to dstRate by linear
// interpolation — adequate for the file pipeline's offline decode, where
// there is no real-time constraint forcing the mic path's cheap decimation.
// Grounded on the teacher's session/mp3_reader.go resampleLinear.
func ResampleLinear(samples []float32, srcRate, dstRate int) []float32 {
	if srcRate == dstRate || len(samples) == 0 {
		return samples
	}
	ratio := float64(srcRate) / float64(dstRate)
	newLen := int(float64(len(samples)) / ratio)
	out := make([]float32, newLen)
	for i := range out {
		srcPos := float64(i) * ratio
		srcIdx := int(srcPos)
		frac := float32(srcPos - float64(srcIdx))
		switch {
		case srcIdx+1 < len(samples):
			out[i] = samples[srcIdx]*(1-frac) + samples[srcIdx+1]*frac
		case srcIdx < len(samples):
			out[i] = samples[srcIdx]
		}
	}
	return out
}

// StereoToMono averages an interleaved stereo buffer down to mono.
func StereoToMono(data []float32) []float32 {
	out := make([]float32, len(data)/2)
	for i := range out {
		out[i] = (data[2*i] + data[2*i+1]) / 2
	}
	return out
}

func f64(s []float32) []float64 {
	out := make([]float64, len(s))
	for i, v := range s {
		out[i] = float64(v)
	}
	return out
}
