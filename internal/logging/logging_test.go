package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, false)

	logger.Debugw("hidden detail", "k", 1)
	logger.Infow("Loading model", "model", "base")
	logger.Warnw("Model not found locally", "model", "tiny")
	_ = logger.Sync()

	out := buf.String()
	if strings.Contains(out, "hidden detail") {
		t.Errorf("debug line written at info level:\n%s", out)
	}
	for _, want := range []string{"INFO", "Loading model", `"model": "base"`, "WARN"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestVerboseLogger(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, true).Debugw("detail")
	if !strings.Contains(buf.String(), "DEBUG") {
		t.Errorf("expected debug output, got %q", buf.String())
	}
}

func TestNop(t *testing.T) {
	Nop().Infow("ignored")
}
