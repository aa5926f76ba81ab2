package models

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/mgpai22/whisperscribe/internal/logging"
)

// WeightsFile is the file whose presence marks a directory as a usable
// CTranslate2 whisper model.
const WeightsFile = "model.bin"

const snapshotsDir = "snapshots"

// short names mapped to Hugging Face cache directory names
var cacheDirs = map[string]string{
	"tiny":     "models--Systran--faster-whisper-tiny",
	"base":     "models--Systran--faster-whisper-base",
	"small":    "models--Systran--faster-whisper-small",
	"medium":   "models--Systran--faster-whisper-medium",
	"large":    "models--Systran--faster-whisper-large-v3",
	"large-v3": "models--Systran--faster-whisper-large-v3",
}

var knownOrder = []string{"tiny", "base", "small", "medium", "large", "large-v3"}

// KnownModels returns the accepted short model names.
func KnownModels() []string {
	out := make([]string, len(knownOrder))
	copy(out, knownOrder)
	return out
}

// CacheDirName returns the cache directory name for a short model name.
func CacheDirName(name string) (string, bool) {
	dir, ok := cacheDirs[name]
	return dir, ok
}

// Locator maps model identifiers to local model directories under Root.
type Locator struct {
	Root   string
	Logger *logging.Logger
}

func NewLocator(root string, logger *logging.Logger) *Locator {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Locator{Root: root, Logger: logger}
}

// Resolve is a convenience wrapper around Locator.Resolve without logging.
func Resolve(identifier, modelsRoot string) string {
	return NewLocator(modelsRoot, nil).Resolve(identifier)
}

// Resolve returns a local model directory for identifier. When nothing
// local matches, identifier is returned unchanged so the recognizer can
// try to fetch it remotely. A missing directory is never an error.
func (l *Locator) Resolve(identifier string) string {
	if HasWeights(identifier) {
		return identifier
	}

	cacheDir, ok := cacheDirs[identifier]
	if !ok {
		return identifier
	}

	if snapshot, found := l.findSnapshot(cacheDir); found {
		l.Logger.Infow("Found local model",
			"model", identifier,
			"path", snapshot,
		)
		return snapshot
	}

	l.Logger.Warnw("Model not found locally, will try remote download",
		"model", identifier,
		"models_dir", l.Root,
	)
	return identifier
}

// Cached reports the local snapshot for a short model name, if any.
func (l *Locator) Cached(name string) (string, bool) {
	cacheDir, ok := cacheDirs[name]
	if !ok {
		return "", false
	}
	return l.findSnapshot(cacheDir)
}

// findSnapshot returns the most recently modified snapshot holding the
// weights file. Ties fall back to name order so the pick is stable.
func (l *Locator) findSnapshot(cacheDir string) (string, bool) {
	dir := filepath.Join(l.Root, cacheDir, snapshotsDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		l.Logger.Debugw("No snapshots directory", "path", dir, "error", err)
		return "", false
	}

	type candidate struct {
		path    string
		name    string
		modUnix int64
	}

	var candidates []candidate
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if !HasWeights(path) {
			continue
		}
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{
			path:    path,
			name:    entry.Name(),
			modUnix: info.ModTime().UnixNano(),
		})
	}

	if len(candidates) == 0 {
		return "", false
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].modUnix != candidates[j].modUnix {
			return candidates[i].modUnix > candidates[j].modUnix
		}
		return candidates[i].name < candidates[j].name
	})

	return candidates[0].path, true
}

// HasWeights reports whether dir is a directory directly containing the
// weights file.
func HasWeights(dir string) bool {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return false
	}
	weights, err := os.Stat(filepath.Join(dir, WeightsFile))
	return err == nil && !weights.IsDir()
}
