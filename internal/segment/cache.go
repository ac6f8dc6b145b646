// Package segment implements the server-side per-connection segment buffer
// (spec §4.B, component B). It accumulates incoming audio for one WebSocket
// connection and emits fixed-size overlapped segments as Tasks.
//
// Structurally this plays the same role as the teacher's
// session.ChunkBuffer (accumulate, track an emitted/offset cursor, push
// finished spans down a channel) — but the splitting rule is different:
// the teacher cuts on silence (VAD); this cuts on fixed byte thresholds
// with a deliberate trailing overlap, per spec §4.B.
package segment

import (
	"log"

	"dictation/internal/task"
)

// Cache holds one connection's in-flight audio for the current task_id.
type Cache struct {
	chunks   []byte  // accumulated raw PCM for the current task_id
	offset   float64 // seconds of audio already emitted as tasks
	frameNum int64   // byte counter, for logging only
}

// NewCache returns an empty segment buffer.
func NewCache() *Cache {
	return &Cache{}
}

// Accept appends one AudioFrame's decoded PCM to the buffer and returns the
// Tasks it produces: zero or more non-final segments if is_final is false,
// or exactly one final Task containing the remaining tail if is_final is
// true (after which the buffer is reset for the next task_id).
//
// segDuration and segOverlap are seconds; source/taskID/socketID/timeStart
// identify the frame per spec §3's AudioFrame fields.
func (c *Cache) Accept(pcm []byte, segDuration, segOverlap float64, isFinal bool, source task.Source, taskID, socketID string, timeStart float64) []task.Task {
	c.chunks = append(c.chunks, pcm...)
	c.frameNum += int64(len(pcm))

	segBytes := bytesFor(segDuration)
	ovlBytes := bytesFor(segOverlap)
	thresholdBytes := bytesFor(segDuration + 2*segOverlap)

	var tasks []task.Task

	if !isFinal {
		for int64(len(c.chunks)) >= thresholdBytes {
			sliceLen := segBytes + ovlBytes
			data := make([]byte, sliceLen)
			copy(data, c.chunks[:sliceLen])

			tasks = append(tasks, task.Task{
				Source:     source,
				Data:       data,
				Offset:     c.offset,
				Overlap:    segOverlap,
				TaskID:     taskID,
				SocketID:   socketID,
				IsFinal:    false,
				TimeStart:  timeStart,
				TimeSubmit: task.Now(),
				SampleRate: task.SampleRate,
			})

			c.chunks = c.chunks[segBytes:]
			c.offset += segDuration
		}
		return tasks
	}

	// Final: enqueue everything remaining, then reset for the next task_id.
	data := make([]byte, len(c.chunks))
	copy(data, c.chunks)
	tasks = append(tasks, task.Task{
		Source:     source,
		Data:       data,
		Offset:     c.offset,
		Overlap:    segOverlap,
		TaskID:     taskID,
		SocketID:   socketID,
		IsFinal:    true,
		TimeStart:  timeStart,
		TimeSubmit: task.Now(),
		SampleRate: task.SampleRate,
	})
	log.Printf("segment: final flush task_id=%s bytes=%d", taskID, len(c.chunks))
	c.reset()
	return tasks
}

func (c *Cache) reset() {
	c.chunks = nil
	c.offset = 0
	c.frameNum = 0
}

// bytesFor converts a duration in seconds to a byte count at the server's
// fixed wire sample rate/width (spec §3 invariants).
func bytesFor(seconds float64) int64 {
	return int64(float64(task.SampleWidth*task.SampleRate) * seconds)
}
