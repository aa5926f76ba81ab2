package transcribe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mgpai22/whisperscribe/internal/audio"
)

// uploads above this size are re-encoded before being sent to a hosted API
const maxUploadBytes = 25 << 20

// prepareUpload returns a path suitable for a hosted transcription API.
// Small audio files are sent as-is; anything else is compressed to a
// mono mp3 in a temp directory removed by cleanup.
func prepareUpload(ctx context.Context, audioPath string) (string, func(), error) {
	info, err := os.Stat(audioPath)
	if err != nil {
		return "", nil, fmt.Errorf("audio file not found: %s", audioPath)
	}

	if audio.IsAudioFile(audioPath) && info.Size() <= maxUploadBytes {
		return audioPath, func() {}, nil
	}

	tempDir, err := os.MkdirTemp("", "whisperscribe-*")
	if err != nil {
		return "", nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(tempDir) }

	compressed := filepath.Join(tempDir, "audio.mp3")
	if err := audio.CompressAudio(ctx, audioPath, compressed, audio.DefaultCompressionOptions()); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("failed to compress audio: %w", err)
	}

	return compressed, cleanup, nil
}
