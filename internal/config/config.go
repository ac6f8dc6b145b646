// Package config holds the flag-parsed server and client configuration
// structs, in the shape of the teacher's internal/config/config.go: one flat
// struct, one Load() that defines and parses flags, no reflection-based
// decoding. A TOML file loader is an intentionally external seam here (a
// deployment that wants file-based config loads a TOML document into the
// same struct before or after flag.Parse, by reusing the teacher's config
// layer rather than replacing it) — see SPEC_FULL.md's ambient-stack notes.
package config

import "flag"

// ServerConfig is every knob in spec §6 "server" for the dictation server
// process.
type ServerConfig struct {
	Addr string

	EngineKind string // "offline" or "cloud"

	// Offline engine.
	OfflineEncoder    string
	OfflineDecoder    string
	OfflineJoiner     string
	OfflineParaformer string
	OfflineTokens     string
	OfflineThreads    int
	OfflineProvider   string
	DecodingMethod    string
	MaxActivePaths    int

	// Cloud engine.
	CloudURL     string
	CloudToken   string
	CloudTimeout int // seconds

	// Final-only post-processing.
	FormatSpell bool
	FormatPunc  bool
	FormatNum   bool
	PuncModel   string
	PuncVocab   string
	PuncTags    string
	PuncThreads int
}

// Load defines and parses the server's flags.
func Load() *ServerConfig {
	addr := flag.String("addr", "0.0.0.0:6016", "listen address for the dictation websocket server")

	engineKind := flag.String("engine", "offline", "recognizer engine: offline or cloud")

	encoder := flag.String("offline-encoder", "", "offline transducer encoder .onnx path")
	decoder := flag.String("offline-decoder", "", "offline transducer decoder .onnx path")
	joiner := flag.String("offline-joiner", "", "offline transducer joiner .onnx path")
	paraformer := flag.String("offline-paraformer", "", "offline paraformer .onnx path (alternative to the transducer triple)")
	tokens := flag.String("offline-tokens", "", "offline model tokens.txt path")
	threads := flag.Int("offline-threads", 4, "offline model inference threads")
	provider := flag.String("offline-provider", "cpu", "offline model execution provider: cpu, cuda, coreml")
	decodingMethod := flag.String("decoding-method", "greedy_search", "greedy_search or modified_beam_search")
	maxActivePaths := flag.Int("max-active-paths", 4, "beam width for modified_beam_search")

	cloudURL := flag.String("cloud-url", "", "cloud ASR websocket URL")
	cloudToken := flag.String("cloud-token", "", "cloud ASR bearer token")
	cloudTimeout := flag.Int("cloud-timeout", 10, "cloud ASR round-trip timeout in seconds")

	formatSpell := flag.Bool("format-spell", true, "normalize CJK/ASCII spacing in final text")
	formatPunc := flag.Bool("format-punc", false, "restore punctuation in final text")
	formatNum := flag.Bool("format-num", false, "apply Chinese inverse text normalization to final text")
	puncModel := flag.String("punc-model", "", "punctuation restoration .onnx model path")
	puncVocab := flag.String("punc-vocab", "", "punctuation model vocabulary path")
	puncTags := flag.String("punc-tags", "", "punctuation model tag table path")
	puncThreads := flag.Int("punc-threads", 2, "punctuation model inference threads")

	flag.Parse()

	return &ServerConfig{
		Addr:              *addr,
		EngineKind:        *engineKind,
		OfflineEncoder:    *encoder,
		OfflineDecoder:    *decoder,
		OfflineJoiner:     *joiner,
		OfflineParaformer: *paraformer,
		OfflineTokens:     *tokens,
		OfflineThreads:    *threads,
		OfflineProvider:   *provider,
		DecodingMethod:    *decodingMethod,
		MaxActivePaths:    *maxActivePaths,
		CloudURL:          *cloudURL,
		CloudToken:        *cloudToken,
		CloudTimeout:      *cloudTimeout,
		FormatSpell:       *formatSpell,
		FormatPunc:        *formatPunc,
		FormatNum:         *formatNum,
		PuncModel:         *puncModel,
		PuncVocab:         *puncVocab,
		PuncTags:          *puncTags,
		PuncThreads:       *puncThreads,
	}
}

// ClientConfig is every knob in spec §6 "client" for the dictation desktop
// client process.
type ClientConfig struct {
	ServerURL string

	SegDuration float64
	SegOverlap  float64

	Device      string
	PreTrigger  float64
	TrashPunc   string

	HotZH      bool
	HotEN      bool
	HotRule    bool
	HotKwd     bool
	HotwordDir string

	SaveAudio    bool
	OutputDir    string
	WriteSRT     bool
	WriteJSON    bool
	WriteMerge   bool
	SessionLog   bool
	AudioNameLen int

	OutputMode string // "paste" or "type"
}

// LoadClient defines and parses the client's flags.
func LoadClient() *ClientConfig {
	serverURL := flag.String("server", "ws://127.0.0.1:6016/ws", "dictation server websocket URL")

	segDuration := flag.Float64("seg-duration", 15, "segment duration in seconds")
	segOverlap := flag.Float64("seg-overlap", 2, "segment overlap in seconds")

	device := flag.String("device", "", "capture device name (empty = system default)")
	preTrigger := flag.Float64("pre-trigger", 0.5, "seconds of audio held before the trigger key is pressed")
	trashPunc := flag.String("trash-punc", "，。,.!?！？", "trailing punctuation stripped from the final transcript before paste/type (partial results are not delivered)")

	hotZH := flag.Bool("hot-zh", true, "apply the Chinese hot-word substitution layer")
	hotEN := flag.Bool("hot-en", true, "apply the English hot-word substitution layer")
	hotRule := flag.Bool("hot-rule", true, "apply the regex hot-word substitution layer")
	hotKwd := flag.Bool("hot-kwd", true, "load the keyword list (kwd.txt) that routes session-log entries to per-keyword files")
	hotwordDir := flag.String("hotword-dir", "hot-word", "directory containing hot-word table files")

	saveAudio := flag.Bool("save-audio", false, "write captured audio to disk as MP3 alongside the transcript")
	outputDir := flag.String("output-dir", ".", "directory for transcript/sidecar output files")
	writeSRT := flag.Bool("write-srt", false, "write an .srt sidecar for file-mode transcription")
	writeJSON := flag.Bool("write-json", false, "write a .json sidecar with tokens and timestamps")
	writeMerge := flag.Bool("write-merge", true, "write a .merge.txt sidecar with the final merged transcript")
	sessionLog := flag.Bool("session-log", false, "append each transcript to a markdown session log")
	audioNameLen := flag.Int("audio-name-len", 24, "characters of recognized text used to name a saved recording")

	outputMode := flag.String("output-mode", "paste", "how the final transcript reaches the focused window: paste or type")

	flag.Parse()

	return &ClientConfig{
		ServerURL:    *serverURL,
		SegDuration:  *segDuration,
		SegOverlap:   *segOverlap,
		Device:       *device,
		PreTrigger:   *preTrigger,
		TrashPunc:    *trashPunc,
		HotZH:        *hotZH,
		HotEN:        *hotEN,
		HotRule:      *hotRule,
		HotKwd:       *hotKwd,
		HotwordDir:   *hotwordDir,
		SaveAudio:    *saveAudio,
		OutputDir:    *outputDir,
		WriteSRT:     *writeSRT,
		WriteJSON:    *writeJSON,
		WriteMerge:   *writeMerge,
		SessionLog:   *sessionLog,
		AudioNameLen: *audioNameLen,
		OutputMode:   *outputMode,
	}
}
