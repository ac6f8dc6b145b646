// Package capture implements the client microphone capture pipeline of
// spec §4.G (component G): a malgo device callback posts raw frames to an
// internal queue, a consumer goroutine assembles them into a single
// logical utterance — buffering a short pre-trigger window so the first
// syllables spoken before the hotkey fires aren't lost — downsamples
// 48kHz stereo/mono to 16kHz mono, and emits AudioFrames over a
// clientio.Conn.
//
// Grounded on the teacher's audio/capture.go (malgo device lifecycle,
// float32 callback decoding) and the original CapsWriter-Offline's
// utils/audio_file.py send_audio coroutine (begin/data/finish dispatch,
// pre-trigger cache, is_final flush).
package capture

import (
	"fmt"
	"log"
	"time"

	"github.com/gen2brain/malgo"
	"github.com/google/uuid"

	"dictation/internal/audiofile"
	"dictation/internal/clientio"
	"dictation/internal/pcm"
	"dictation/internal/wire"
)

const (
	deviceSampleRate = 48000
	deviceChannels   = 1
)

// event is one record posted from the audio callback (or the hotkey
// listener) to the pipeline's internal queue — the Go shape of the
// original's `{type, time, data}` dict.
type event struct {
	kind string // "begin", "data", "finish"
	at   float64
	data []float32
}

// Config configures one capture pipeline run.
type Config struct {
	SegDuration float64 // seconds, sent as AudioFrame.seg_duration
	SegOverlap  float64
	Threshold   float64 // seconds of pre-trigger buffering (client config `threshold`)
	DeviceName  string  // empty = system default

	SaveAudio bool   // spec §6: write captured audio to disk
	OutputDir string // base directory for the YYYY/MM/assets tree
}

// Result is what one RecordOnce call produces: the server's final
// transcript, plus the temporary path of the recording on disk when
// SaveAudio is enabled (empty otherwise). The caller renames the file
// once it knows the final text (see audiofile.Rename).
type Result struct {
	Final     wire.ResultFrame
	AudioPath string
}

// Pipeline owns the malgo device and the consumer goroutine that turns
// device callbacks into AudioFrames on conn.
type Pipeline struct {
	cfg  Config
	conn *clientio.Conn

	ctx    *malgo.AllocatedContext
	device *malgo.Device
	events chan event
}

// Open initializes the audio context and capture device but does not yet
// start streaming; call RecordOnce to run one utterance.
func Open(cfg Config, conn *clientio.Conn) (*Pipeline, error) {
	ctx, err := malgo.InitContext(nil, malgo.ContextConfig{}, nil)
	if err != nil {
		return nil, fmt.Errorf("capture: init audio context: %w", err)
	}

	p := &Pipeline{cfg: cfg, conn: conn, ctx: ctx, events: make(chan event, 256)}

	if err := p.initDevice(); err != nil {
		ctx.Uninit()
		return nil, err
	}
	return p, nil
}

// initDevice builds the device config and opens the capture device,
// resolving cfg.DeviceName against the context's enumerated capture
// devices when set (spec §6 client config `device`). Shared by Open and
// Reopen so both apply the same device selection.
func (p *Pipeline) initDevice() error {
	deviceConfig := malgo.DefaultDeviceConfig(malgo.Capture)
	deviceConfig.Capture.Format = malgo.FormatF32
	deviceConfig.Capture.Channels = deviceChannels
	deviceConfig.SampleRate = deviceSampleRate

	if p.cfg.DeviceName != "" {
		id, err := p.findDeviceByName(p.cfg.DeviceName)
		if err != nil {
			return fmt.Errorf("capture: %w", err)
		}
		deviceConfig.Capture.DeviceID = id.Pointer()
	}

	onRecvFrames := func(_, input []byte, frameCount uint32) {
		samples := pcm.DecodeF32LE(input[:int(frameCount)*deviceChannels*4])
		p.events <- event{kind: "data", at: nowSeconds(), data: samples}
	}

	device, err := malgo.InitDevice(p.ctx.Context, deviceConfig, malgo.DeviceCallbacks{Data: onRecvFrames})
	if err != nil {
		return fmt.Errorf("capture: init device: %w", err)
	}
	p.device = device
	return nil
}

func (p *Pipeline) findDeviceByName(name string) (*malgo.DeviceID, error) {
	devices, err := p.ctx.Devices(malgo.Capture)
	if err != nil {
		return nil, fmt.Errorf("enumerate capture devices: %w", err)
	}
	for _, dev := range devices {
		if dev.Name() == name {
			id := dev.ID
			return &id, nil
		}
	}
	return nil, fmt.Errorf("capture device not found: %s", name)
}

// Reopen reinitializes the capture device in place: the AudioDeviceError
// "device removed" recovery path (spec §7). Idempotent, and must not run
// on the goroutine draining p.events since it blocks on device teardown.
func (p *Pipeline) Reopen() error {
	if p.device != nil {
		p.device.Uninit()
	}
	if err := p.initDevice(); err != nil {
		return err
	}
	return p.device.Start()
}

// Close releases the device and audio context.
func (p *Pipeline) Close() {
	if p.device != nil {
		p.device.Uninit()
	}
	p.ctx.Uninit()
	p.ctx.Free()
}

// RecordOnce runs one complete begin->...->finish utterance: starts the
// device, marshals one "begin" event, streams until stop fires, then sends
// the is_final frame and waits for the server's matching final Result.
// This mirrors main_mic's single push-to-talk cycle in the original source.
func (p *Pipeline) RecordOnce(stop <-chan struct{}) (Result, error) {
	if err := p.device.Start(); err != nil {
		return Result{}, fmt.Errorf("capture: start device: %w", err)
	}
	defer p.device.Stop()

	taskID := uuid.NewString()
	timeStart := nowSeconds()
	p.events <- event{kind: "begin", at: timeStart}

	go func() {
		<-stop
		p.events <- event{kind: "finish", at: nowSeconds()}
	}()

	return p.drain(taskID, timeStart)
}

// drain is the consumer coroutine's body: dispatches begin/data/finish
// events, buffers pre-trigger data, downsamples, and sends AudioFrames.
// When SaveAudio is enabled, it also lazily opens an audiofile.Recorder on
// the first post-threshold block (mirroring audio_file.py's
// create_audio_file-on-first-chunk) and streams native-rate samples to it.
func (p *Pipeline) drain(taskID string, timeStart float64) (Result, error) {
	var pretrigger [][]float32
	var duration float64
	var recorder *audiofile.Recorder
	var audioPath string

	for ev := range p.events {
		switch ev.kind {
		case "begin":
			timeStart = ev.at
			pretrigger = nil

		case "data":
			if ev.at-timeStart < p.cfg.Threshold {
				pretrigger = append(pretrigger, ev.data)
				continue
			}
			var data []float32
			if len(pretrigger) > 0 {
				for _, chunk := range pretrigger {
					data = append(data, chunk...)
				}
				pretrigger = nil
			}
			data = append(data, ev.data...)

			duration += float64(len(data)) / deviceSampleRate

			if p.cfg.SaveAudio && recorder == nil {
				var err error
				recorder, err = audiofile.NewRecorder(p.cfg.OutputDir, deviceSampleRate, timeStart)
				if err != nil {
					log.Printf("capture: failed to open recording, continuing without save_audio: %v", err)
				}
			}
			if recorder != nil {
				recorder.Write(data)
			}

			mono16k := pcm.DownsampleDecimate(data, deviceChannels)

			frame := wire.AudioFrame{
				TaskID:      taskID,
				SegDuration: p.cfg.SegDuration,
				SegOverlap:  p.cfg.SegOverlap,
				IsFinal:     false,
				TimeStart:   timeStart,
				TimeFrame:   ev.at,
				Source:      "mic",
				Data:        wire.EncodePCM(pcm.EncodeF32LE(mono16k)),
			}
			if err := p.conn.Send(frame); err != nil {
				log.Printf("capture: send failed, dropping frame: %v", err)
			}

		case "finish":
			log.Printf("capture: task_id=%s recorded %.2fs", taskID, duration)
			if recorder != nil {
				path, err := recorder.Finish()
				if err != nil {
					log.Printf("capture: failed to finalize recording: %v", err)
				} else {
					audioPath = path
				}
			}

			final := wire.AudioFrame{
				TaskID:      taskID,
				SegDuration: p.cfg.SegDuration,
				SegOverlap:  p.cfg.SegOverlap,
				IsFinal:     true,
				TimeStart:   timeStart,
				TimeFrame:   ev.at,
				Source:      "mic",
				Data:        "",
			}
			if err := p.conn.Send(final); err != nil {
				return Result{}, fmt.Errorf("capture: send final frame: %w", err)
			}
			resultFrame, err := p.waitFinal()
			if err != nil {
				return Result{}, err
			}
			return Result{Final: resultFrame, AudioPath: audioPath}, nil
		}
	}
	return Result{}, fmt.Errorf("capture: event channel closed before finish")
}

// waitFinal reads ResultFrames until the server's is_final reply for this
// utterance arrives, discarding partials: only the terminal result is
// returned, and partial results never reach the OutputDriver.
func (p *Pipeline) waitFinal() (wire.ResultFrame, error) {
	for {
		frame, err := p.conn.Recv()
		if err != nil {
			return wire.ResultFrame{}, err
		}
		if frame.IsFinal {
			return frame, nil
		}
	}
}

func nowSeconds() float64 {
	return float64(time.Now().UnixNano()) / 1e9
}
