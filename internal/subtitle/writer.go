package subtitle

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// JSON document {"data": [...]}
type JSONWriter struct {
	Indent string
}

// SubRip format
type SRTWriter struct{}

// WebVTT format
type VTTWriter struct{}

func NewWriter(format Format) (Writer, error) {
	switch format {
	case FormatJSON:
		return &JSONWriter{Indent: "    "}, nil
	case FormatSRT:
		return &SRTWriter{}, nil
	case FormatVTT:
		return &VTTWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// seconds renders like a float literal, keeping ".0" on whole values
type jsonSeconds float64

func (s jsonSeconds) MarshalJSON() ([]byte, error) {
	out := strconv.FormatFloat(float64(s), 'f', -1, 64)
	if !strings.ContainsAny(out, ".eE") {
		out += ".0"
	}
	return []byte(out), nil
}

type jsonEntry struct {
	Time jsonSeconds `json:"time"`
	Text string      `json:"text"`
}

type jsonDocument struct {
	Data []jsonEntry `json:"data"`
}

// Encode renders the subtitle as the JSON document. Non-ASCII and HTML
// characters are written as-is.
func (w *JSONWriter) Encode(sub *Subtitle) ([]byte, error) {
	doc := jsonDocument{Data: make([]jsonEntry, 0, len(sub.Entries))}
	for _, entry := range sub.Entries {
		doc.Data = append(doc.Data, jsonEntry{
			Time: jsonSeconds(entry.Time),
			Text: entry.Text,
		})
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", w.Indent)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode subtitles: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// writes the subtitle to a JSON file
func (w *JSONWriter) Write(sub *Subtitle, path string) error {
	data, err := w.Encode(sub)
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}

// writes the subtitle to an SRT file
func (w *SRTWriter) Write(sub *Subtitle, path string) error {
	var sb strings.Builder
	for i, entry := range sub.Entries {
		// index (1-based)
		sb.WriteString(fmt.Sprintf("%d\n", i+1))

		// timestamps: 00:00:00,000 --> 00:00:00,000
		sb.WriteString(fmt.Sprintf("%s --> %s\n",
			formatSRTTime(toDuration(entry.Time)),
			formatSRTTime(toDuration(cueEnd(sub.Entries, i)))))

		// text
		sb.WriteString(entry.Text)
		sb.WriteString("\n\n")
	}

	return writeFileAtomic(path, []byte(sb.String()))
}

// writes the subtitle to a VTT file
func (w *VTTWriter) Write(sub *Subtitle, path string) error {
	var sb strings.Builder

	// VTT header
	sb.WriteString("WEBVTT\n\n")

	for i, entry := range sub.Entries {
		// optional cue identifier
		sb.WriteString(fmt.Sprintf("%d\n", i+1))

		// timestamps: 00:00:00.000 --> 00:00:00.000
		sb.WriteString(fmt.Sprintf("%s --> %s\n",
			formatVTTTime(toDuration(entry.Time)),
			formatVTTTime(toDuration(cueEnd(sub.Entries, i)))))

		// text
		sb.WriteString(entry.Text)
		sb.WriteString("\n\n")
	}

	return writeFileAtomic(path, []byte(sb.String()))
}

// cueEnd is the entry's own end, or the next entry's time when the end is
// missing or would run backwards.
func cueEnd(entries []Entry, i int) float64 {
	end := entries[i].End
	if end > entries[i].Time {
		return end
	}
	if i+1 < len(entries) && entries[i+1].Time > entries[i].Time {
		return entries[i+1].Time
	}
	return entries[i].Time
}

func toDuration(secs float64) time.Duration {
	return time.Duration(secs * float64(time.Second)).Round(time.Millisecond)
}

func formatSRTTime(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	millis := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}

func formatVTTTime(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	millis := int(d.Milliseconds()) % 1000

	return fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, seconds, millis)
}

// writeFileAtomic writes data to a temp file beside path and renames it
// into place, so a failed write never leaves a truncated output.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}

// subtitle format based on file extension
func GetFormatFromExtension(path string) Format {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".srt":
		return FormatSRT
	case ".vtt":
		return FormatVTT
	default:
		return FormatJSON
	}
}

// ParseFormat maps a user-supplied format name to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "json":
		return FormatJSON, nil
	case "srt":
		return FormatSRT, nil
	case "vtt":
		return FormatVTT, nil
	default:
		return "", fmt.Errorf("unsupported format %q: use json, srt, or vtt", name)
	}
}
