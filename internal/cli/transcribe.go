package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/mgpai22/whisperscribe/internal/audio"
	"github.com/mgpai22/whisperscribe/internal/config"
	"github.com/mgpai22/whisperscribe/internal/logging"
	"github.com/mgpai22/whisperscribe/internal/models"
	"github.com/mgpai22/whisperscribe/internal/progress"
	"github.com/mgpai22/whisperscribe/internal/subtitle"
	"github.com/mgpai22/whisperscribe/internal/transcribe"
	"github.com/spf13/cobra"
)

// flag values for the root transcription command
type transcribeFlags struct {
	audioPath  string
	outputPath string
	model      string
	language   string
	task       string
	device     string
	threads    int
	backend    string
	apiKey     string
	maxChars   int
	format     string
	prompt     string

	configPath string
	logger     *logging.Logger
}

// final line printed on stdout
type successLine struct {
	Success  bool   `json:"success"`
	Segments int    `json:"segments"`
	Language string `json:"language"`
	Output   string `json:"output"`
}

// String renders the line with ", " and ": " separators and non-ASCII
// escaped as \uXXXX, which is what Python callers of this tool compare against.
func (l successLine) String() string {
	return fmt.Sprintf(`{"success": %t, "segments": %d, "language": %s, "output": %s}`,
		l.Success, l.Segments, asciiJSON(l.Language), asciiJSON(l.Output))
}

// asciiJSON quotes s as a JSON string using only ASCII.
func asciiJSON(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s) // strings always encode

	var out strings.Builder
	for _, r := range strings.TrimSuffix(buf.String(), "\n") {
		if r < utf8.RuneSelf {
			out.WriteRune(r)
			continue
		}
		for _, u := range utf16.Encode([]rune{r}) {
			fmt.Fprintf(&out, `\u%04x`, u)
		}
	}
	return out.String()
}

func (f *transcribeFlags) register(cmd *cobra.Command) {
	defaults := config.Default()

	cmd.Flags().StringVar(&f.audioPath, "audio", "", "Input audio file path")
	cmd.Flags().StringVar(&f.outputPath, "output", "", "Output JSON file path")
	cmd.Flags().StringVar(&f.model, "model", defaults.Model,
		"Model short name ("+strings.Join(models.KnownModels(), ", ")+"), local path, or remote identifier")
	cmd.Flags().StringVar(&f.language, "language", defaults.Language, "Language code (zh, en, ja, ko, or auto to detect)")
	cmd.Flags().StringVar(&f.task, "task", defaults.Task, "Task type (transcribe, translate)")
	cmd.Flags().StringVar(&f.device, "device", defaults.Device, "Device to run on (only cpu is supported)")
	cmd.Flags().IntVar(&f.threads, "threads", defaults.Threads, "CPU threads for the recognizer")
	cmd.Flags().StringVar(&f.backend, "backend", defaults.Backend, "Recognition backend (faster-whisper, openai, gemini)")
	cmd.Flags().StringVarP(&f.apiKey, "api-key", "k", "", "API key for hosted backends (or set OPENAI_API_KEY / GEMINI_API_KEY)")
	cmd.Flags().IntVar(&f.maxChars, "max-chars", defaults.MaxChars, "Maximum characters per subtitle entry")
	cmd.Flags().StringVarP(&f.format, "format", "f", "", "Output format (json, srt, vtt); defaults to the output extension")
	cmd.Flags().StringVar(&f.prompt, "prompt", "", "Optional prompt passed to hosted backends")

	_ = cmd.MarkFlagRequired("audio")
	_ = cmd.MarkFlagRequired("output")
}

// loadConfig layers defaults, the config file, the environment, and any
// flags set explicitly on the command line.
func (f *transcribeFlags) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv()

	flags := cmd.Flags()
	if flags.Changed("model") {
		cfg.Model = f.model
	}
	if flags.Changed("language") {
		cfg.Language = f.language
	}
	if flags.Changed("task") {
		cfg.Task = f.task
	}
	if flags.Changed("device") {
		cfg.Device = f.device
	}
	if flags.Changed("threads") {
		cfg.Threads = f.threads
	}
	if flags.Changed("backend") {
		cfg.Backend = f.backend
	}
	if flags.Changed("max-chars") {
		cfg.MaxChars = f.maxChars
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runTranscribe(cmd *cobra.Command, f *transcribeFlags) error {
	ctx := cmd.Context()
	logger := f.logger
	reporter := progress.NewReporter(cmd.ErrOrStderr())

	cfg, err := f.loadConfig(cmd)
	if err != nil {
		return err
	}

	provider, err := transcribe.ParseProvider(cfg.Backend)
	if err != nil {
		return err
	}

	format := subtitle.GetFormatFromExtension(f.outputPath)
	if f.format != "" {
		if format, err = subtitle.ParseFormat(f.format); err != nil {
			return err
		}
	}

	if _, err := os.Stat(f.audioPath); err != nil {
		return fmt.Errorf("audio file not found: %s", f.audioPath)
	}
	if !audio.IsMediaFile(f.audioPath) {
		logger.Warnw("Unrecognized audio extension, passing to recognizer anyway",
			"audio", f.audioPath,
		)
	}

	if cfg.Device != "cpu" {
		logger.Warnw("Only CPU execution is supported, ignoring device",
			"device", cfg.Device,
		)
		cfg.Device = "cpu"
	}

	if err := config.ApplyThreadEnv(cfg.Threads); err != nil {
		return err
	}

	modelPath := cfg.Model
	if provider == transcribe.ProviderFasterWhisper {
		modelPath = models.NewLocator(cfg.ModelsDir, logger).Resolve(cfg.Model)
	}

	logger.Infow("Loading model",
		"model", modelPath,
		"backend", provider,
		"threads", cfg.Threads,
	)
	reporter.Report(10)

	transcriber, err := transcriberFactory(ctx, provider, f.apiKey, transcribe.Options{
		Model:    modelPath,
		Language: cfg.Language,
		Task:     cfg.Task,
		Device:   cfg.Device,
		Threads:  cfg.Threads,
		Prompt:   f.prompt,
		Python:   cfg.Python,
	})
	if err != nil {
		return fmt.Errorf("failed to create transcriber: %w", err)
	}
	if closer, ok := transcriber.(io.Closer); ok {
		defer closer.Close()
	}

	logger.Infow("Model ready")
	reporter.Report(20)

	logger.Infow("Starting transcription",
		"audio", f.audioPath,
		"language", cfg.Language,
		"task", cfg.Task,
	)
	reporter.Report(30)

	result, err := transcriber.Transcribe(ctx, f.audioPath)
	if err != nil {
		return err
	}

	language := result.Language
	if language == "" {
		language = cfg.Language
	}
	logger.Infow("Detected language",
		"language", language,
		"probability", fmt.Sprintf("%.2f", result.LanguageProbability),
		"segments", len(result.Segments),
	)
	reporter.Report(50)

	generator := &subtitle.Generator{MaxChars: cfg.MaxChars}
	subs := generator.GenerateFunc(result.Segments, func(i, total int) {
		reporter.Report(progress.Scaled(50, 90, i, total))
	})
	subs.Language = language
	reporter.Report(90)

	writer, err := subtitle.NewWriter(format)
	if err != nil {
		return fmt.Errorf("failed to create subtitle writer: %w", err)
	}
	if err := writer.Write(subs, f.outputPath); err != nil {
		return fmt.Errorf("failed to write subtitles: %w", err)
	}

	logger.Infow("Transcription complete",
		"entries", len(subs.Entries),
		"output", f.outputPath,
	)
	reporter.Report(100)

	fmt.Fprintln(cmd.OutOrStdout(), successLine{
		Success:  true,
		Segments: len(subs.Entries),
		Language: language,
		Output:   f.outputPath,
	})

	return nil
}
