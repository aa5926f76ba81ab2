package audio

import (
	"testing"
	"time"
)

func TestMediaFileDetection(t *testing.T) {
	tests := []struct {
		path  string
		audio bool
		video bool
	}{
		{"talk.mp3", true, false},
		{"talk.WAV", true, false},
		{"voice.opus", true, false},
		{"clip.m4a", true, false},
		{"movie.mp4", false, true},
		{"movie.MKV", false, true},
		{"notes.txt", false, false},
		{"noext", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := IsAudioFile(tt.path); got != tt.audio {
				t.Errorf("IsAudioFile(%q) = %v, want %v", tt.path, got, tt.audio)
			}
			if got := IsVideoFile(tt.path); got != tt.video {
				t.Errorf("IsVideoFile(%q) = %v, want %v", tt.path, got, tt.video)
			}
			if got := IsMediaFile(tt.path); got != (tt.audio || tt.video) {
				t.Errorf("IsMediaFile(%q) = %v", tt.path, got)
			}
		})
	}
}

func TestParseProbeDuration(t *testing.T) {
	got, err := parseProbeDuration([]byte(`{"format": {"duration": "12.500000"}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 12500*time.Millisecond {
		t.Errorf("got %v, want 12.5s", got)
	}

	for _, bad := range []string{``, `{"format": {}}`, `{"format": {"duration": "N/A"}}`} {
		if _, err := parseProbeDuration([]byte(bad)); err == nil {
			t.Errorf("parseProbeDuration(%q) should fail", bad)
		}
	}
}

func TestCompressAudioMissingInput(t *testing.T) {
	err := CompressAudio(t.Context(), "/nonexistent/in.wav", t.TempDir()+"/out.mp3", DefaultCompressionOptions())
	if err == nil {
		t.Error("expected error for missing input")
	}
}

func TestCompressionKwargs(t *testing.T) {
	tests := []struct {
		name      string
		opts      CompressionOptions
		wantCodec string
		wantRate  bool
	}{
		{"default mp3", DefaultCompressionOptions(), "libmp3lame", true},
		{"aac", CompressionOptions{Format: "aac", SampleRate: 16000, Channels: 1, Bitrate: "96k"}, "aac", true},
		{"unknown falls back", CompressionOptions{Format: "opus", SampleRate: 16000, Channels: 1}, "libmp3lame", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := tt.opts.kwargs()
			if args["acodec"] != tt.wantCodec {
				t.Errorf("acodec = %v, want %s", args["acodec"], tt.wantCodec)
			}
			if _, ok := args["vn"]; !ok {
				t.Error("video stream should be dropped")
			}
			if _, ok := args["b:a"]; ok != tt.wantRate {
				t.Errorf("bitrate present = %v, want %v", ok, tt.wantRate)
			}
		})
	}
}

func TestLastLine(t *testing.T) {
	if got := lastLine("a\nb\nError opening input\n"); got != "Error opening input" {
		t.Errorf("lastLine = %q", got)
	}
	if got := lastLine("single"); got != "single" {
		t.Errorf("lastLine = %q", got)
	}
}
