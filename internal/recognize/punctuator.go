package recognize

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// PunctuatorConfig locates the punctuation-restoration ONNX model: a
// sequence tagger that reads a whitespace-tokenized sentence and emits one
// punctuation-class id per input token. Model inference is an external leaf
// the same way the offline ASR engine is — this wrapper's job is tokenize in,
// apply tags out, following the session-setup shape of the teacher's
// onnxruntime_go usage in ai/gigaam.go.
type PunctuatorConfig struct {
	ModelPath string
	VocabPath string // token -> id, one "token id" pair per line
	TagsPath  string // class id -> trailing punctuation string, one per line
	NumThreads int
}

type onnxPunctuator struct {
	mu      sync.Mutex
	session *ort.DynamicAdvancedSession
	vocab   map[string]int64
	unkID   int64
	tags    []string // index = class id
}

var _ Punctuator = (*onnxPunctuator)(nil)

// onnxEnvOnce guards the one-time onnxruntime_go environment init that must
// run before any session is created, grounded on the teacher's
// initONNXRuntime (ai/gigaam.go): resolve the shared library path, call
// SetSharedLibraryPath, then InitializeEnvironment.
var (
	onnxEnvOnce sync.Once
	onnxEnvErr  error
)

func initONNXEnvironment() error {
	onnxEnvOnce.Do(func() {
		libPath := os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH")
		if libPath == "" {
			searchPaths := []string{
				"./libonnxruntime.so",
				"./libonnxruntime.dylib",
				"./onnxruntime.dll",
			}
			for _, path := range searchPaths {
				if _, err := os.Stat(path); err == nil {
					libPath = path
					break
				}
			}
		}
		if libPath != "" {
			log.Printf("recognize: using onnxruntime shared library: %s", libPath)
			ort.SetSharedLibraryPath(libPath)
		}

		if err := ort.InitializeEnvironment(); err != nil {
			onnxEnvErr = fmt.Errorf("recognize: initialize onnxruntime environment: %w", err)
			return
		}
		log.Println("recognize: onnxruntime environment initialized")
	})
	return onnxEnvErr
}

func newONNXPunctuator(cfg PunctuatorConfig) (Punctuator, error) {
	if err := initONNXEnvironment(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("recognize: punctuation model not found: %w", err)
	}
	vocab, unkID, err := loadPunctVocab(cfg.VocabPath)
	if err != nil {
		return nil, fmt.Errorf("recognize: punctuation vocab: %w", err)
	}
	tags, err := loadPunctTags(cfg.TagsPath)
	if err != nil {
		return nil, fmt.Errorf("recognize: punctuation tag table: %w", err)
	}

	inputInfo, outputInfo, err := ort.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("recognize: punctuation model info: %w", err)
	}
	inputNames := make([]string, len(inputInfo))
	for i, info := range inputInfo {
		inputNames[i] = info.Name
	}
	outputNames := make([]string, len(outputInfo))
	for i, info := range outputInfo {
		outputNames[i] = info.Name
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("recognize: punctuation session options: %w", err)
	}
	defer options.Destroy()
	if cfg.NumThreads > 0 {
		options.SetIntraOpNumThreads(cfg.NumThreads)
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, inputNames, outputNames, options)
	if err != nil {
		return nil, fmt.Errorf("recognize: punctuation session: %w", err)
	}

	return &onnxPunctuator{session: session, vocab: vocab, unkID: unkID, tags: tags}, nil
}

// Punctuate tags each whitespace-delimited word of text with the trailing
// punctuation the model predicts for it and rejoins them. Unknown words fall
// back to the model's <unk> id rather than failing the whole sentence.
func (p *onnxPunctuator) Punctuate(text string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	words := strings.Fields(text)
	if len(words) == 0 {
		return text, nil
	}

	ids := make([]int64, len(words))
	for i, w := range words {
		if id, ok := p.vocab[strings.ToLower(w)]; ok {
			ids[i] = id
		} else {
			ids[i] = p.unkID
		}
	}

	shape := ort.NewShape(1, int64(len(ids)))
	inputTensor, err := ort.NewTensor(shape, ids)
	if err != nil {
		return "", fmt.Errorf("recognize: punctuation input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	outputs := []ort.Value{nil}
	if err := p.session.Run([]ort.Value{inputTensor}, outputs); err != nil {
		return "", fmt.Errorf("recognize: punctuation inference: %w", err)
	}
	defer func() {
		for _, o := range outputs {
			if o != nil {
				o.Destroy()
			}
		}
	}()

	out, ok := outputs[0].(*ort.Tensor[int64])
	if !ok {
		return "", fmt.Errorf("recognize: punctuation model returned unexpected output type")
	}
	classes := out.GetData()

	var b strings.Builder
	for i, w := range words {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(w)
		if i < len(classes) {
			cls := int(classes[i])
			if cls >= 0 && cls < len(p.tags) {
				b.WriteString(p.tags[cls])
			}
		}
	}
	return b.String(), nil
}

func (p *onnxPunctuator) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session != nil {
		p.session.Destroy()
		p.session = nil
	}
}

func loadPunctVocab(path string) (map[string]int64, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer file.Close()

	vocab := make(map[string]int64)
	var unkID int64
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) != 2 {
			continue
		}
		var id int64
		if _, err := fmt.Sscanf(fields[1], "%d", &id); err != nil {
			continue
		}
		vocab[fields[0]] = id
		if fields[0] == "<unk>" {
			unkID = id
		}
	}
	return vocab, unkID, scanner.Err()
}

func loadPunctTags(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var tags []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "_" {
			line = ""
		}
		tags = append(tags, line)
	}
	return tags, scanner.Err()
}
