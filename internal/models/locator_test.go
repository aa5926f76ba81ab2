package models

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mgpai22/whisperscribe/internal/logging"
)

func writeSnapshot(t *testing.T, root, cacheDir, hash string, withWeights bool) string {
	t.Helper()
	dir := filepath.Join(root, cacheDir, "snapshots", hash)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if withWeights {
		if err := os.WriteFile(filepath.Join(dir, WeightsFile), []byte("w"), 0o644); err != nil {
			t.Fatalf("write weights: %v", err)
		}
	}
	return dir
}

func TestResolveShortName(t *testing.T) {
	root := t.TempDir()
	want := writeSnapshot(t, root, "models--Systran--faster-whisper-base", "abc123", true)

	got := Resolve("base", root)
	if got != want {
		t.Errorf("Resolve(base) = %q, want %q", got, want)
	}
	if filepath.Base(got) != "abc123" {
		t.Errorf("resolved path should end in the snapshot hash, got %q", got)
	}
}

func TestResolveLargeAliases(t *testing.T) {
	root := t.TempDir()
	want := writeSnapshot(t, root, "models--Systran--faster-whisper-large-v3", "h1", true)

	for _, name := range []string{"large", "large-v3"} {
		t.Run(name, func(t *testing.T) {
			if got := Resolve(name, root); got != want {
				t.Errorf("Resolve(%s) = %q, want %q", name, got, want)
			}
		})
	}
}

func TestResolvePassThrough(t *testing.T) {
	root := t.TempDir()
	writeSnapshot(t, root, "models--Systran--faster-whisper-small", "nobin", false)

	tests := []struct {
		name       string
		identifier string
		root       string
	}{
		{"unknown identifier", "Systran/faster-whisper-base", root},
		{"known name without weights", "small", root},
		{"known name with missing root", "tiny", filepath.Join(root, "does-not-exist")},
		{"empty root", "medium", ""},
		{"nonexistent absolute path", "/nonexistent/model/dir", root},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Resolve(tt.identifier, tt.root); got != tt.identifier {
				t.Errorf("Resolve(%q) = %q, want identifier unchanged", tt.identifier, got)
			}
		})
	}
}

func TestResolveConcreteDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, WeightsFile), []byte("w"), 0o644); err != nil {
		t.Fatalf("write weights: %v", err)
	}

	if got := Resolve(dir, "/unused"); got != dir {
		t.Errorf("Resolve(dir) = %q, want %q", got, dir)
	}
}

func TestResolvePrefersNewestSnapshot(t *testing.T) {
	root := t.TempDir()
	cacheDir := "models--Systran--faster-whisper-base"
	older := writeSnapshot(t, root, cacheDir, "aaa", true)
	newer := writeSnapshot(t, root, cacheDir, "zzz", true)
	writeSnapshot(t, root, cacheDir, "empty", false)

	past := time.Now().Add(-time.Hour)
	if err := os.Chtimes(older, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	if got := Resolve("base", root); got != newer {
		t.Errorf("Resolve(base) = %q, want newest snapshot %q", got, newer)
	}
}

func TestResolveLogsWarningWhenMissing(t *testing.T) {
	var buf bytes.Buffer
	l := NewLocator(t.TempDir(), logging.New(&buf, false))

	if got := l.Resolve("tiny"); got != "tiny" {
		t.Fatalf("Resolve(tiny) = %q, want tiny", got)
	}
	if !strings.Contains(buf.String(), "not found locally") {
		t.Errorf("expected a not-found warning, got %q", buf.String())
	}
}

func TestCacheDirName(t *testing.T) {
	for _, name := range KnownModels() {
		dir, ok := CacheDirName(name)
		if !ok || !strings.HasPrefix(dir, "models--Systran--faster-whisper-") {
			t.Errorf("CacheDirName(%q) = %q, %v", name, dir, ok)
		}
	}
	if _, ok := CacheDirName("huge"); ok {
		t.Error("CacheDirName(huge) should not be known")
	}
}
