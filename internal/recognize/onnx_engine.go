package recognize

import (
	"fmt"
	"log"
	"os"
	"sync"

	sherpa "github.com/k2-fsa/sherpa-onnx-go/sherpa_onnx"

	"dictation/internal/task"
)

// OfflineEngineConfig locates the on-disk offline ASR model sherpa-onnx
// loads. Model inference itself is treated as an external leaf: this engine
// only has to get bytes in and tokens out, the way the teacher's engines
// (ai/gigaam.go, ai/diarization_sherpa.go) each wrap one vendor runtime
// behind the TranscriptionEngine/Recognizer seam.
type OfflineEngineConfig struct {
	// Transducer model triple (encoder/decoder/joiner), e.g. a zipformer
	// export. Leave ParaformerModel set instead for a paraformer export.
	EncoderPath string
	DecoderPath string
	JoinerPath  string

	ParaformerModel string

	TokensPath string
	NumThreads int
	Provider   string // "cpu", "cuda", "coreml" — passed straight through.
	DecodingMethod string
	MaxActivePaths int
}

// offlineEngine is a Recognizer backed by sherpa-onnx's OfflineRecognizer.
// One stream is created per Decode call; sherpa-onnx offline streams are not
// meant to be reused across unrelated audio windows.
type offlineEngine struct {
	mu         sync.Mutex
	recognizer *sherpa.OfflineRecognizer
}

var _ Recognizer = (*offlineEngine)(nil)

// NewOfflineEngine loads model files from disk and initializes a sherpa-onnx
// offline recognizer. Missing model files are a startup-time error, mirroring
// the teacher's NewGigaAMEngineWithOptions file-existence checks.
func NewOfflineEngine(cfg OfflineEngineConfig) (Recognizer, error) {
	if err := requireFile(cfg.TokensPath); err != nil {
		return nil, err
	}

	modelConfig := sherpa.OfflineModelConfig{
		Tokens:     cfg.TokensPath,
		NumThreads: cfg.NumThreads,
		Provider:   cfg.Provider,
		Debug:      0,
	}

	if cfg.ParaformerModel != "" {
		if err := requireFile(cfg.ParaformerModel); err != nil {
			return nil, err
		}
		modelConfig.Paraformer = sherpa.OfflineParaformerModelConfig{Model: cfg.ParaformerModel}
	} else {
		for _, p := range []string{cfg.EncoderPath, cfg.DecoderPath, cfg.JoinerPath} {
			if err := requireFile(p); err != nil {
				return nil, err
			}
		}
		modelConfig.Transducer = sherpa.OfflineTransducerModelConfig{
			Encoder: cfg.EncoderPath,
			Decoder: cfg.DecoderPath,
			Joiner:  cfg.JoinerPath,
		}
	}

	decodingMethod := cfg.DecodingMethod
	if decodingMethod == "" {
		decodingMethod = "greedy_search"
	}
	maxActivePaths := cfg.MaxActivePaths
	if maxActivePaths == 0 {
		maxActivePaths = 4
	}

	config := sherpa.OfflineRecognizerConfig{
		FeatConfig: sherpa.FeatureConfig{
			SampleRate: task.SampleRate,
			FeatureDim: 80,
		},
		ModelConfig:    modelConfig,
		DecodingMethod: decodingMethod,
		MaxActivePaths: maxActivePaths,
	}

	recognizer := sherpa.NewOfflineRecognizer(&config)
	if recognizer == nil {
		return nil, fmt.Errorf("recognize: sherpa-onnx failed to create offline recognizer (tokens=%s)", cfg.TokensPath)
	}

	log.Printf("recognize: offline engine ready (provider=%s threads=%d method=%s)",
		cfg.Provider, cfg.NumThreads, decodingMethod)

	return &offlineEngine{recognizer: recognizer}, nil
}

func requireFile(path string) error {
	if path == "" {
		return fmt.Errorf("recognize: model path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("recognize: model file not found: %s: %w", path, err)
	}
	return nil
}

// Decode runs one segment of PCM through the recognizer and returns its
// tokens and token-level timestamps, relative to the start of samples.
func (e *offlineEngine) Decode(samples []float32, sampleRate int) (Segment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(samples) == 0 {
		return Segment{}, nil
	}

	stream := sherpa.NewOfflineStream(e.recognizer)
	defer sherpa.DeleteOfflineStream(stream)

	stream.AcceptWaveform(sampleRate, samples)
	e.recognizer.Decode(stream)

	result := stream.GetResult()

	timestamps := make([]float64, len(result.Timestamps))
	for i, ts := range result.Timestamps {
		timestamps[i] = float64(ts)
	}

	return Segment{Tokens: result.Tokens, Timestamps: timestamps}, nil
}

func (e *offlineEngine) Name() string { return "sherpa-onnx-offline" }

func (e *offlineEngine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.recognizer != nil {
		sherpa.DeleteOfflineRecognizer(e.recognizer)
		e.recognizer = nil
	}
}
