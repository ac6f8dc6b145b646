// Package wire implements the JSON frame codec for the client/server
// protocol: one UTF-8 JSON object per WebSocket message, no sub-message
// framing. See spec §4.A and §6.
package wire

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"dictation/internal/task"
)

// AudioFrame is a client->server message: one chunk of captured or decoded
// audio, plus the segmentation parameters the server should use for it.
type AudioFrame struct {
	TaskID      string  `json:"task_id"`
	SegDuration float64 `json:"seg_duration"`
	SegOverlap  float64 `json:"seg_overlap"`
	IsFinal     bool    `json:"is_final"`
	TimeStart   float64 `json:"time_start"`
	TimeFrame   float64 `json:"time_frame"`
	Source      string  `json:"source"`
	Data        string  `json:"data"` // base64 of mono float32 LE PCM @16kHz
}

// ResultFrame is a server->client message: the reply payload for one
// processed segment, partial or final.
type ResultFrame struct {
	TaskID       string    `json:"task_id"`
	Duration     float64   `json:"duration"`
	TimeStart    float64   `json:"time_start"`
	TimeSubmit   float64   `json:"time_submit"`
	TimeComplete float64   `json:"time_complete"`
	Tokens       []string  `json:"tokens"`
	Timestamps   []float64 `json:"timestamps"`
	Text         string    `json:"text"`
	IsFinal      bool      `json:"is_final"`
}

// BadFrameError signals a malformed or incomplete client->server frame; the
// caller must close the connection after logging it (spec §7: BadFrame).
type BadFrameError struct {
	Reason string
}

func (e *BadFrameError) Error() string { return "bad frame: " + e.Reason }

// DecodeAudioFrame parses and validates one client->server JSON message.
// Required fields absent or malformed produce a BadFrameError.
func DecodeAudioFrame(raw []byte) (AudioFrame, error) {
	var f AudioFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		return AudioFrame{}, &BadFrameError{Reason: err.Error()}
	}
	if f.TaskID == "" {
		return AudioFrame{}, &BadFrameError{Reason: "missing task_id"}
	}
	if f.Source != string(task.SourceMic) && f.Source != string(task.SourceFile) {
		return AudioFrame{}, &BadFrameError{Reason: fmt.Sprintf("invalid source %q", f.Source)}
	}
	if !f.IsFinal {
		if f.SegDuration <= 0 {
			return AudioFrame{}, &BadFrameError{Reason: "missing or non-positive seg_duration"}
		}
		if f.SegOverlap < 0 {
			return AudioFrame{}, &BadFrameError{Reason: "negative seg_overlap"}
		}
	}
	return f, nil
}

// DecodePCM base64-decodes the frame's audio payload into raw PCM bytes.
func (f AudioFrame) DecodePCM() ([]byte, error) {
	if f.Data == "" {
		return nil, nil
	}
	data, err := base64.StdEncoding.DecodeString(f.Data)
	if err != nil {
		return nil, &BadFrameError{Reason: "invalid base64 data: " + err.Error()}
	}
	if len(data)%task.SampleWidth != 0 {
		return nil, &BadFrameError{Reason: "PCM payload not a multiple of sample width"}
	}
	return data, nil
}

// EncodePCM base64-encodes raw PCM bytes for the wire.
func EncodePCM(pcm []byte) string {
	return base64.StdEncoding.EncodeToString(pcm)
}

// ResultFrameFrom converts an internal Result into the wire reply payload.
func ResultFrameFrom(r task.Result) ResultFrame {
	return ResultFrame{
		TaskID:       r.TaskID,
		Duration:     r.Duration,
		TimeStart:    r.TimeStart,
		TimeSubmit:   r.TimeSubmit,
		TimeComplete: r.TimeComplete,
		Tokens:       r.Tokens,
		Timestamps:   r.Timestamps,
		Text:         r.Text,
		IsFinal:      r.IsFinal,
	}
}
