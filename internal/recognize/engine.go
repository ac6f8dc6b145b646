// Package recognize hosts the recognizer worker, the Recognizer/Punctuator
// leaf interfaces, and the overlap dedup/merge engine that is the hardest
// algorithm in this system (spec §4.E).
package recognize

// Segment is one recognizer decode result for a single audio segment,
// timestamps expressed in seconds relative to the start of that segment.
type Segment struct {
	Tokens     []string
	Timestamps []float64
}

// Recognizer is the capability interface for offline ASR engines. The model
// inference itself is out of scope (spec §1); this is the seam a concrete
// engine (e.g. an ONNX-backed paraformer model) plugs into. Mirrors the
// teacher's TranscriptionEngine interface (ai/engine.go), narrowed to the
// single operation this system's worker needs.
type Recognizer interface {
	// Decode transcribes one segment of mono float32 PCM at sampleRate and
	// returns per-token text with relative timestamps.
	Decode(samples []float32, sampleRate int) (Segment, error)
	// Name identifies the engine for logging.
	Name() string
	// Close releases model resources.
	Close()
}

// Punctuator is the string->string external collaborator invoked only on
// final results (spec §4.E "Final-only post-processing").
type Punctuator interface {
	Punctuate(text string) (string, error)
	Close()
}

// ITN is the Chinese-number inverse-text-normalization collaborator,
// applied only to final text when enabled (spec §4.E, §6 format_num).
type ITN interface {
	Apply(text string) string
}

// EngineKind tags the configured recognizer implementation, the way the
// teacher's EngineManager switches on EngineType (ai/engine_manager.go).
type EngineKind string

const (
	EngineKindOffline EngineKind = "offline" // local ONNX model via sherpa-onnx-go
	EngineKindCloud   EngineKind = "cloud"   // remote streaming ASR over WebSocket
)

// EngineConfig describes how to construct the configured Recognizer. Exactly
// one of the kind-specific sub-configs is populated, following the
// spec's Open Question recommendation of a nullable, tagged-union model set.
type EngineConfig struct {
	Kind    EngineKind
	Offline OfflineEngineConfig
	Cloud   CloudEngineConfig

	// Punc is nil to disable punctuation (spec §6 punc_model: nullable).
	Punc *PunctuatorConfig
}

// NewRecognizer constructs the configured Recognizer, the tagged-union
// switch the design notes call for in place of a class hierarchy.
func NewRecognizer(cfg EngineConfig) (Recognizer, error) {
	switch cfg.Kind {
	case EngineKindOffline:
		return NewOfflineEngine(cfg.Offline)
	case EngineKindCloud:
		return NewCloudEngine(cfg.Cloud)
	default:
		return nil, unsupportedEngineError(cfg.Kind)
	}
}

// NewPunctuator constructs the configured Punctuator, or (nil, nil) if
// punctuation is disabled.
func NewPunctuator(cfg *PunctuatorConfig) (Punctuator, error) {
	if cfg == nil {
		return nil, nil
	}
	return newONNXPunctuator(*cfg)
}

type unsupportedEngineError EngineKind

func (e unsupportedEngineError) Error() string {
	return "recognize: unsupported engine kind " + string(e)
}
