package subtitle

import (
	"strings"
	"unicode/utf8"
)

// boundary characters a long text may be split after, full-width forms first
var boundaries = []rune{'。', '！', '？', '，', '、', '；', '.', '!', '?', ',', ';', ' '}

// Split breaks text into chunks of at most maxLen characters. Each cut is
// made after the rightmost boundary character inside the window; when the
// window has none past its first character the cut is forced at maxLen-1.
// A maxLen below 1 disables splitting.
func Split(text string, maxLen int) []string {
	if maxLen < 1 || utf8.RuneCountInString(text) <= maxLen {
		return []string{text}
	}

	var chunks []string
	rest := []rune(text)

	for len(rest) > maxLen {
		pos := lastBoundary(rest[:maxLen])
		if pos <= 0 {
			pos = maxLen - 1
		}

		chunks = append(chunks, strings.TrimSpace(string(rest[:pos+1])))
		rest = []rune(strings.TrimSpace(string(rest[pos+1:])))
	}

	if len(rest) > 0 {
		chunks = append(chunks, string(rest))
	}

	return chunks
}

// lastBoundary returns the largest index of any boundary character in
// window, or -1.
func lastBoundary(window []rune) int {
	pos := -1
	for _, b := range boundaries {
		for i := len(window) - 1; i > pos; i-- {
			if window[i] == b {
				pos = i
				break
			}
		}
	}
	return pos
}

// SplitSegment converts one transcribed segment into one or more entries.
// Split parts share the segment's duration equally. Blank text yields nil.
func SplitSegment(seg Segment, maxLen int) []Entry {
	text := strings.TrimSpace(seg.Text)
	if text == "" {
		return nil
	}

	start := round2(seg.Start)
	end := round2(seg.End)

	if maxLen < 1 || utf8.RuneCountInString(text) <= maxLen {
		return []Entry{{Time: start, Text: text, End: end}}
	}

	parts := Split(text, maxLen)

	var perPart float64
	if len(parts) > 0 {
		perPart = (end - start) / float64(len(parts))
	}

	entries := make([]Entry, 0, len(parts))
	for j, part := range parts {
		if part == "" {
			continue
		}
		entries = append(entries, Entry{
			Time: round2(start + float64(j)*perPart),
			Text: part,
			End:  round2(start + float64(j+1)*perPart),
		})
	}

	return entries
}

// Generator turns recognizer segments into subtitle entries.
type Generator struct {
	MaxChars int
}

func NewDefaultGenerator() *Generator {
	return &Generator{MaxChars: DefaultMaxChars}
}

// converts transcription segments to subtitle
func (g *Generator) Generate(segments []Segment) *Subtitle {
	return g.GenerateFunc(segments, nil)
}

// GenerateFunc is Generate with a callback invoked after each segment
// has been processed, receiving its index and the segment count.
func (g *Generator) GenerateFunc(segments []Segment, done func(i, total int)) *Subtitle {
	entries := []Entry{}

	for i, seg := range segments {
		entries = append(entries, SplitSegment(seg, g.MaxChars)...)
		if done != nil {
			done(i, len(segments))
		}
	}

	return &Subtitle{Entries: entries}
}
