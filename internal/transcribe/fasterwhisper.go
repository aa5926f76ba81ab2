package transcribe

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/mgpai22/whisperscribe/internal/config"
	"github.com/mgpai22/whisperscribe/internal/subtitle"
)

//go:embed assets/faster_whisper.py
var fasterWhisperScript []byte

// exit status the helper uses when faster_whisper cannot be imported
const helperMissingDependencyExit = 3

// implements Transcriber by running faster-whisper in a Python helper
type FasterWhisperTranscriber struct {
	options Options
}

// JSON document printed by the helper
type helperOutput struct {
	Language            string           `json:"language"`
	LanguageProbability float64          `json:"language_probability"`
	Duration            float64          `json:"duration"`
	Segments            []whisperSegment `json:"segments"`
}

func NewFasterWhisperTranscriber(opts Options) (*FasterWhisperTranscriber, error) {
	defaults := DefaultOptions()
	if opts.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if opts.Python == "" {
		opts.Python = defaults.Python
	}
	if opts.ComputeType == "" {
		opts.ComputeType = defaults.ComputeType
	}
	if opts.BeamSize <= 0 {
		opts.BeamSize = defaults.BeamSize
	}
	if opts.VADMinSilenceMs <= 0 {
		opts.VADMinSilenceMs = defaults.VADMinSilenceMs
	}
	if opts.Threads <= 0 {
		opts.Threads = defaults.Threads
	}
	if opts.Device == "" {
		opts.Device = defaults.Device
	}
	if opts.Task == "" {
		opts.Task = defaults.Task
	}

	return &FasterWhisperTranscriber{options: opts}, nil
}

// CheckDependencies verifies that the Python interpreter can be found.
func (t *FasterWhisperTranscriber) CheckDependencies() error {
	if _, err := exec.LookPath(t.options.Python); err != nil {
		return fmt.Errorf("%w: python interpreter %q not found: %v",
			ErrDependencyMissing, t.options.Python, err)
	}
	return nil
}

// transcribes single audio file
func (t *FasterWhisperTranscriber) Transcribe(
	ctx context.Context,
	audioPath string,
) (*Result, error) {
	if _, err := os.Stat(audioPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("audio file not found: %s", audioPath)
	}

	if err := t.CheckDependencies(); err != nil {
		return nil, err
	}

	script, err := os.CreateTemp("", "whisperscribe-*.py")
	if err != nil {
		return nil, fmt.Errorf("failed to create helper script: %w", err)
	}
	scriptPath := script.Name()
	defer func() { _ = os.Remove(scriptPath) }()

	if _, err := script.Write(fasterWhisperScript); err != nil {
		_ = script.Close()
		return nil, fmt.Errorf("failed to write helper script: %w", err)
	}
	if err := script.Close(); err != nil {
		return nil, fmt.Errorf("failed to write helper script: %w", err)
	}

	cmd := exec.CommandContext(ctx, t.options.Python, t.helperArgs(scriptPath, audioPath)...)
	cmd.Env = append(os.Environ(), config.ThreadEnv(t.options.Threads)...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, classifyHelperError(err, stderr.String())
	}

	return parseHelperOutput(stdout.Bytes())
}

func (t *FasterWhisperTranscriber) helperArgs(scriptPath, audioPath string) []string {
	language := t.options.Language
	if t.options.detectLanguage() {
		language = ""
	}

	return []string{
		scriptPath,
		"--audio", audioPath,
		"--model", t.options.Model,
		"--language", language,
		"--task", t.options.Task,
		"--device", t.options.Device,
		"--threads", strconv.Itoa(t.options.Threads),
		"--compute-type", t.options.ComputeType,
		"--beam-size", strconv.Itoa(t.options.BeamSize),
		"--vad-min-silence-ms", strconv.Itoa(t.options.VADMinSilenceMs),
	}
}

func classifyHelperError(err error, stderr string) error {
	stderr = strings.TrimSpace(stderr)

	if errors.Is(err, exec.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrDependencyMissing, err)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == helperMissingDependencyExit {
		return fmt.Errorf("%w: faster_whisper not importable: %s", ErrDependencyMissing, stderr)
	}

	if stderr == "" {
		return fmt.Errorf("%w: %v", ErrRecognition, err)
	}
	return fmt.Errorf("%w: %v\n%s", ErrRecognition, err, stderr)
}

// parseHelperOutput keeps segments in engine order, including blank ones;
// filtering is left to the subtitle generator.
func parseHelperOutput(raw []byte) (*Result, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty output from recognition helper", ErrRecognition)
	}

	var out helperOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: failed to parse helper output: %v", ErrRecognition, err)
	}

	segments := make([]subtitle.Segment, 0, len(out.Segments))
	for _, seg := range out.Segments {
		segments = append(segments, subtitle.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  seg.Text,
		})
	}

	return &Result{
		Segments:            segments,
		Language:            out.Language,
		LanguageProbability: out.LanguageProbability,
		Duration:            time.Duration(out.Duration * float64(time.Second)),
	}, nil
}

func (t *FasterWhisperTranscriber) Close() error {
	return nil
}
