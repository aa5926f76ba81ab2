package subtitle

import "strconv"

// DefaultMaxChars is the longest entry text, in characters, produced
// by the default generator.
const DefaultMaxChars = 25

// represents transcribed audio segment, times in seconds
type Segment struct {
	Start float64
	End   float64
	Text  string
}

// represents single subtitle entry
type Entry struct {
	Time float64 `json:"time"`
	Text string  `json:"text"`

	// end of the entry's share of its segment, used by cue based formats
	End float64 `json:"-"`
}

// represents complete subtitle track
type Subtitle struct {
	Entries  []Entry
	Language string
}

// represents supported subtitle formats
type Format string

const (
	FormatJSON Format = "json"
	FormatSRT  Format = "srt"
	FormatVTT  Format = "vtt"
)

// interface for writing subtitles to files
type Writer interface {
	Write(subtitle *Subtitle, path string) error
}

// round2 rounds the exact binary value to two decimal places, ties to
// even. Scaling by 100 first would add error, so 1.115 (stored just below
// 1.115) must give 1.11.
func round2(v float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 2, 64), 64)
	if err != nil {
		return v
	}
	return r
}
