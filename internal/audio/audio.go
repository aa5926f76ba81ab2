package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	ffmpegbin "github.com/mgpai22/whisperscribe/internal/ffmpeg"
)

var audioExts = map[string]bool{
	".mp3": true, ".wav": true, ".aac": true, ".flac": true, ".ogg": true,
	".m4a": true, ".wma": true, ".aiff": true, ".opus": true,
}

var videoExts = map[string]bool{
	".mp4": true, ".mkv": true, ".avi": true, ".mov": true, ".wmv": true, ".flv": true,
	".webm": true, ".m4v": true, ".mpeg": true, ".mpg": true, ".3gp": true,
}

// encoder per output format; unknown formats fall back to mp3
var codecs = map[string]string{
	"mp3": "libmp3lame",
	"aac": "aac",
}

// CompressionOptions controls the re-encode done before uploading audio
// to a hosted recognizer.
type CompressionOptions struct {
	Format     string // mp3 or aac
	SampleRate int    // Hz
	Channels   int
	Bitrate    string // e.g. "64k"
}

// DefaultCompressionOptions gives 16 kHz mono mp3, which is what whisper
// models consume internally.
func DefaultCompressionOptions() CompressionOptions {
	return CompressionOptions{
		Format:     "mp3",
		SampleRate: 16000,
		Channels:   1,
		Bitrate:    "64k",
	}
}

func (o CompressionOptions) kwargs() ffmpeg.KwArgs {
	codec, ok := codecs[o.Format]
	if !ok {
		codec = codecs["mp3"]
	}
	args := ffmpeg.KwArgs{
		"vn":     "",
		"ar":     o.SampleRate,
		"ac":     o.Channels,
		"acodec": codec,
	}
	if o.Bitrate != "" {
		args["b:a"] = o.Bitrate
	}
	return args
}

// ProbeDuration asks ffprobe for the container duration of a media file.
func ProbeDuration(ctx context.Context, path string) (time.Duration, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, fmt.Errorf("file not found: %s", path)
	}

	ffprobePath, err := ffmpegbin.FFprobePath()
	if err != nil {
		return 0, err
	}

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, ffprobePath,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		path,
	)
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	return parseProbeDuration(out.Bytes())
}

func parseProbeDuration(data []byte) (time.Duration, error) {
	var probe struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	seconds, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration %q: %w", probe.Format.Duration, err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// CompressAudio re-encodes inputPath into outputPath, dropping any video
// stream. The output is overwritten.
func CompressAudio(ctx context.Context, inputPath, outputPath string, opts CompressionOptions) error {
	if _, err := os.Stat(inputPath); err != nil {
		return fmt.Errorf("input file not found: %s", inputPath)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	ffmpegPath, err := ffmpegbin.FFmpegPath()
	if err != nil {
		return err
	}

	args := ffmpeg.Input(inputPath).
		Output(outputPath, opts.kwargs()).
		OverWriteOutput().
		GetArgs()

	// run under ctx so an interrupt kills ffmpeg
	run := exec.CommandContext(ctx, ffmpegPath, args...)
	var stderr bytes.Buffer
	run.Stderr = &stderr
	if err := run.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("compression failed: %w: %s", err, lastLine(stderr.String()))
	}
	return nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

func ext(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// IsVideoFile reports whether path has a known video extension.
func IsVideoFile(path string) bool { return videoExts[ext(path)] }

// IsAudioFile reports whether path has a known audio extension.
func IsAudioFile(path string) bool { return audioExts[ext(path)] }

// IsMediaFile reports whether path is audio or video.
func IsMediaFile(path string) bool {
	return IsAudioFile(path) || IsVideoFile(path)
}
