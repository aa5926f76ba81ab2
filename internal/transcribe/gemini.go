package transcribe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/mgpai22/whisperscribe/internal/audio"
	"github.com/mgpai22/whisperscribe/internal/subtitle"
	"google.golang.org/genai"
)

// implements Transcriber interface using Google Gemini
type GeminiTranscriber struct {
	client  *genai.Client
	model   string
	options Options
}

// segment from Gemini's JSON response
type transcriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

var jsonBlockRegex = regexp.MustCompile("```(?:json)?\\s*")

func NewGeminiTranscriber(ctx context.Context, apiKey string, opts Options) (*GeminiTranscriber, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("Gemini API key is required: use --api-key or set GEMINI_API_KEY")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := opts.Model
	if !strings.HasPrefix(model, "gemini-") {
		model = "gemini-2.5-flash"
	}

	return &GeminiTranscriber{
		client:  client,
		model:   model,
		options: opts,
	}, nil
}

// transcribes single audio file
func (t *GeminiTranscriber) Transcribe(ctx context.Context, audioPath string) (*Result, error) {
	uploadPath, cleanup, err := prepareUpload(ctx, audioPath)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	uploadedFile, err := t.client.Files.UploadFromPath(ctx, uploadPath, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to upload audio file: %v", ErrRecognition, err)
	}

	defer func() {
		_, _ = t.client.Files.Delete(ctx, uploadedFile.Name, nil)
	}()

	parts := []*genai.Part{
		genai.NewPartFromText(t.buildTranscriptionPrompt()),
		genai.NewPartFromURI(uploadedFile.URI, uploadedFile.MIMEType),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	result, err := t.client.Models.GenerateContent(ctx, t.model, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: transcription failed: %v", ErrRecognition, err)
	}

	segments, err := parseTranscriptSegments(responseText(result))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse transcription: %v", ErrRecognition, err)
	}

	duration, _ := audio.ProbeDuration(ctx, uploadPath)

	language := t.options.Language
	if t.options.translate() {
		language = "en"
	}

	return &Result{
		Segments: segments,
		Language: language,
		Duration: duration,
	}, nil
}

// creates the prompt for transcription
func (t *GeminiTranscriber) buildTranscriptionPrompt() string {
	var sb strings.Builder

	sb.WriteString("Generate a detailed transcript of this audio. ")
	sb.WriteString("For each sentence or phrase, provide the start timestamp, end timestamp, and the exact text spoken. ")
	sb.WriteString("Format your response as a JSON array with objects containing 'start', 'end', and 'text' fields, ")
	sb.WriteString("where 'start' and 'end' are timestamps in seconds (as numbers). ")

	if !t.options.detectLanguage() {
		sb.WriteString(fmt.Sprintf("The audio is in language code %s. ", t.options.Language))
	}

	if t.options.translate() {
		sb.WriteString("Output the transcript translated into English. ")
	}

	if t.options.Prompt != "" {
		sb.WriteString(t.options.Prompt)
		sb.WriteString(" ")
	}

	sb.WriteString("Return ONLY the JSON array, no other text or markdown formatting.")

	return sb.String()
}

func responseText(result *genai.GenerateContentResponse) string {
	if result == nil {
		return ""
	}

	var sb strings.Builder
	for _, candidate := range result.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

// parseTranscriptSegments extracts the segment array from a model reply,
// tolerating code fences and a single wrapping object.
func parseTranscriptSegments(text string) ([]subtitle.Segment, error) {
	text = cleanJSONResponse(text)
	if text == "" {
		return nil, fmt.Errorf("no text in Gemini response")
	}

	var raw []transcriptSegment
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		var wrapped map[string][]transcriptSegment
		if werr := json.Unmarshal([]byte(text), &wrapped); werr != nil || len(wrapped) != 1 {
			return nil, fmt.Errorf("failed to parse JSON response: %w (response: %s)", err, truncateString(text, 200))
		}
		for _, v := range wrapped {
			raw = v
		}
	}

	segments := make([]subtitle.Segment, len(raw))
	for i, ts := range raw {
		segments[i] = subtitle.Segment{
			Start: ts.Start,
			End:   ts.End,
			Text:  strings.TrimSpace(ts.Text),
		}
	}

	return segments, nil
}

// removes markdown formatting from the response
func cleanJSONResponse(s string) string {
	s = strings.TrimSpace(s)
	s = jsonBlockRegex.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// truncates a string to maxLen characters
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}

func (t *GeminiTranscriber) Close() error {
	return nil
}
