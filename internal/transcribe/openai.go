package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mgpai22/whisperscribe/internal/audio"
	"github.com/mgpai22/whisperscribe/internal/subtitle"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// implements Transcriber interface using OpenAI Audio API
type OpenAITranscriber struct {
	client  openai.Client
	model   string
	options Options
}

// segment from a whisper verbose_json response
type whisperSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// verbose_json response structure from Whisper
type whisperVerboseResponse struct {
	Text     string           `json:"text"`
	Segments []whisperSegment `json:"segments"`
	Language string           `json:"language"`
	Duration float64          `json:"duration"`
}

func NewOpenAITranscriber(
	ctx context.Context,
	apiKey string,
	opts Options,
) (*OpenAITranscriber, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required: use --api-key or set OPENAI_API_KEY")
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))

	// local model names and paths mean nothing to the hosted API
	model := opts.Model
	if model == "" || !strings.HasPrefix(model, "whisper-") {
		model = "whisper-1"
	}

	return &OpenAITranscriber{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

// transcribes single audio file
func (t *OpenAITranscriber) Transcribe(
	ctx context.Context,
	audioPath string,
) (*Result, error) {
	uploadPath, cleanup, err := prepareUpload(ctx, audioPath)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	file, err := os.Open(uploadPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio file: %w", err)
	}
	defer file.Close()

	duration, _ := audio.ProbeDuration(ctx, uploadPath)

	if t.options.translate() {
		return t.transcribeWithTranslation(ctx, file, duration)
	}

	return t.transcribeWithTimestamps(ctx, file, duration)
}

func (t *OpenAITranscriber) transcribeWithTranslation(
	ctx context.Context,
	file *os.File,
	duration time.Duration,
) (*Result, error) {
	params := openai.AudioTranslationNewParams{
		File:           file,
		Model:          openai.AudioModel(t.model),
		ResponseFormat: openai.AudioTranslationNewParamsResponseFormatVerboseJSON,
	}

	if t.options.Prompt != "" {
		params.Prompt = openai.String(t.options.Prompt)
	}

	resp, err := t.client.Audio.Translations.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: translation failed: %v", ErrRecognition, err)
	}

	parsed := t.decodeResponse(resp.RawJSON(), resp.Text, duration)

	parsed.Language = "en"
	return parsed, nil
}

func (t *OpenAITranscriber) transcribeWithTimestamps(
	ctx context.Context,
	file *os.File,
	duration time.Duration,
) (*Result, error) {
	params := openai.AudioTranscriptionNewParams{
		File:                   file,
		Model:                  openai.AudioModel(t.model),
		ResponseFormat:         openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []string{"segment"},
	}

	if !t.options.detectLanguage() {
		params.Language = openai.String(t.options.Language)
	}

	if t.options.Prompt != "" {
		params.Prompt = openai.String(t.options.Prompt)
	}

	resp, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: transcription failed: %v", ErrRecognition, err)
	}

	parsed := t.decodeResponse(resp.RawJSON(), resp.Text, duration)

	if parsed.Language == "" {
		parsed.Language = t.options.Language
	}
	return parsed, nil
}

// decodeResponse falls back to one segment covering the whole file when
// the response carries no usable segments.
func (t *OpenAITranscriber) decodeResponse(rawJSON, text string, duration time.Duration) *Result {
	parsed, err := t.parseVerboseJSONResponse(rawJSON, duration)
	if err == nil {
		return parsed
	}
	return &Result{
		Segments: []subtitle.Segment{{
			Start: 0,
			End:   duration.Seconds(),
			Text:  strings.TrimSpace(text),
		}},
		Duration: duration,
	}
}

func (t *OpenAITranscriber) parseVerboseJSONResponse(
	rawJSON string,
	fallbackDuration time.Duration,
) (*Result, error) {
	if rawJSON == "" {
		return nil, fmt.Errorf("empty response")
	}

	var verboseResp whisperVerboseResponse
	if err := json.Unmarshal([]byte(rawJSON), &verboseResp); err != nil {
		return nil, fmt.Errorf("failed to parse verbose_json response: %w", err)
	}

	dur := fallbackDuration
	if verboseResp.Duration > 0 {
		dur = time.Duration(verboseResp.Duration * float64(time.Second))
	}

	result := &Result{
		Language: languageCode(verboseResp.Language),
		Duration: dur,
	}

	if len(verboseResp.Segments) == 0 {
		if strings.TrimSpace(verboseResp.Text) == "" {
			return nil, fmt.Errorf("no segments or text in response")
		}
		result.Segments = []subtitle.Segment{{
			Start: 0,
			End:   dur.Seconds(),
			Text:  strings.TrimSpace(verboseResp.Text),
		}}
		return result, nil
	}

	result.Segments = make([]subtitle.Segment, 0, len(verboseResp.Segments))
	for _, seg := range verboseResp.Segments {
		result.Segments = append(result.Segments, subtitle.Segment{
			Start: seg.Start,
			End:   seg.End,
			Text:  seg.Text,
		})
	}

	return result, nil
}

// the API reports languages by English name
var languageNames = map[string]string{
	"chinese":  "zh",
	"english":  "en",
	"japanese": "ja",
	"korean":   "ko",
	"french":   "fr",
	"german":   "de",
	"spanish":  "es",
	"russian":  "ru",
}

func languageCode(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if code, ok := languageNames[name]; ok {
		return code
	}
	return name
}

func (t *OpenAITranscriber) Close() error {
	return nil
}
