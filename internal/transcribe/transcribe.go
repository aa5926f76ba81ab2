package transcribe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mgpai22/whisperscribe/internal/subtitle"
)

var (
	// ErrDependencyMissing means the recognition engine is not installed.
	ErrDependencyMissing = errors.New("recognition engine unavailable")
	// ErrRecognition means the engine failed to load the model or decode the audio.
	ErrRecognition = errors.New("recognition failed")
)

// transcription result
type Result struct {
	Segments            []subtitle.Segment
	Language            string
	LanguageProbability float64
	Duration            time.Duration
}

// interface for audio transcription
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*Result, error)
}

// transcription service provider
type Provider string

const (
	ProviderFasterWhisper Provider = "faster-whisper"
	ProviderOpenAI        Provider = "openai"
	ProviderGemini        Provider = "gemini"
)

// ParseProvider maps a backend name to a Provider.
func ParseProvider(name string) (Provider, error) {
	switch p := Provider(strings.ToLower(strings.TrimSpace(name))); p {
	case ProviderFasterWhisper, ProviderOpenAI, ProviderGemini:
		return p, nil
	case "":
		return ProviderFasterWhisper, nil
	default:
		return "", fmt.Errorf("unsupported backend %q: use faster-whisper, openai, or gemini", name)
	}
}

// transcription options
type Options struct {
	Model    string // resolved model path or identifier
	Language string // empty or "auto" to detect
	Task     string // transcribe or translate
	Device   string
	Threads  int
	Prompt   string

	// local engine tuning
	Python          string
	ComputeType     string
	BeamSize        int
	VADMinSilenceMs int
}

// DefaultOptions mirrors the CPU settings used for local recognition.
func DefaultOptions() Options {
	return Options{
		Model:           "base",
		Task:            "transcribe",
		Device:          "cpu",
		Threads:         8,
		Python:          "python3",
		ComputeType:     "int8",
		BeamSize:        5,
		VADMinSilenceMs: 500,
	}
}

// detectLanguage reports whether the language should be auto-detected.
func (o Options) detectLanguage() bool {
	lang := strings.ToLower(strings.TrimSpace(o.Language))
	return lang == "" || lang == "auto"
}

func (o Options) translate() bool {
	return strings.EqualFold(strings.TrimSpace(o.Task), "translate")
}

// creates transcriber based on provider
func Factory(
	ctx context.Context,
	provider Provider,
	apiKey string,
	opts Options,
) (Transcriber, error) {
	switch provider {
	case ProviderFasterWhisper:
		return NewFasterWhisperTranscriber(opts)
	case ProviderOpenAI:
		return NewOpenAITranscriber(ctx, apiKey, opts)
	case ProviderGemini:
		return NewGeminiTranscriber(ctx, apiKey, opts)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}
