package ffmpeg

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

func TestReleaseAsset(t *testing.T) {
	tests := []struct {
		name, goos, goarch string
		want               string
		wantErr            bool
	}{
		{"ffmpeg", "linux", "amd64", "ffmpeg-6.1-linux-64.zip", false},
		{"ffprobe", "linux", "amd64", "ffprobe-6.1-linux-64.zip", false},
		{"ffmpeg", "linux", "arm64", "ffmpeg-6.1-linux-arm-64.zip", false},
		{"ffmpeg", "darwin", "amd64", "ffmpeg-6.1-macos-64.zip", false},
		{"ffprobe", "windows", "amd64", "ffprobe-6.1-win-64.zip", false},
		{"ffmpeg", "freebsd", "amd64", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.goos+"/"+tt.goarch, func(t *testing.T) {
			got, err := releaseAsset(tt.name, tt.goos, tt.goarch)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestToolMatches(t *testing.T) {
	tests := []struct {
		tool  *tool
		entry string
		want  bool
	}{
		{ffmpegTool, "bundle/FFMPEG.exe", true},
		{ffmpegTool, "ffmpeg", true},
		{ffmpegTool, "ffprobe", false},
		{ffprobeTool, "ffprobe", true},
		{ffprobeTool, "ffmpeg", false},
	}
	for _, tt := range tests {
		if got := tt.tool.matches(tt.entry); got != tt.want {
			t.Errorf("%s.matches(%q) = %v, want %v", tt.tool.name, tt.entry, got, tt.want)
		}
	}
}

func TestToolLookupPrefersEnv(t *testing.T) {
	tl := &tool{name: "ffprobe", env: "WHISPERSCRIBE_TEST_FFPROBE"}
	t.Setenv(tl.env, "/opt/custom/ffprobe")
	if got := tl.lookup(); got != "/opt/custom/ffprobe" {
		t.Errorf("lookup() = %q, want env override", got)
	}
}

func TestToolsResolveIndependently(t *testing.T) {
	dir := t.TempDir()
	ffmpegBin := filepath.Join(dir, "ffmpeg")
	if err := os.WriteFile(ffmpegBin, []byte("bin"), 0o755); err != nil {
		t.Fatal(err)
	}

	// ffmpeg via env; ffprobe nowhere on PATH or in the cache
	t.Setenv("PATH", "")
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	mpeg := &tool{name: "ffmpeg", env: "WHISPERSCRIBE_TEST_FFMPEG"}
	t.Setenv(mpeg.env, ffmpegBin)

	got, err := mpeg.resolve()
	if err != nil {
		t.Fatalf("resolve() error = %v", err)
	}
	if got != ffmpegBin {
		t.Errorf("resolve() = %q, want %q", got, ffmpegBin)
	}
}

func TestToolResolvesFromCache(t *testing.T) {
	t.Setenv("PATH", "")
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	probe := &tool{name: "ffprobe", env: "WHISPERSCRIBE_TEST_FFPROBE"}
	cached := filepath.Join(installDir(), probe.filename())
	if err := os.MkdirAll(filepath.Dir(cached), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cached, []byte("bin"), 0o755); err != nil {
		t.Fatal(err)
	}

	got, err := probe.resolve()
	if err != nil {
		t.Fatalf("resolve() error = %v", err)
	}
	if got != cached {
		t.Errorf("resolve() = %q, want cached %q", got, cached)
	}
}

func TestIsBinary(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	full := filepath.Join(dir, "full")
	_ = os.WriteFile(empty, nil, 0o644)
	_ = os.WriteFile(full, []byte("bin"), 0o644)

	if isBinary(empty) {
		t.Error("empty file should not count as a binary")
	}
	if !isBinary(full) {
		t.Error("non-empty file should count as a binary")
	}
	if isBinary(dir) {
		t.Error("directory should not count as a binary")
	}
}

func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for name, body := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestUnpack(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "ffprobe.zip")
	writeZip(t, archive, map[string]string{
		"ffprobe":   "ffprobe-bin",
		"README.md": "docs",
	})

	out := filepath.Join(dir, "out")
	if err := os.MkdirAll(out, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := ffprobeTool.unpack(archive, out); err != nil {
		t.Fatalf("unpack() error = %v", err)
	}

	got, err := os.ReadFile(filepath.Join(out, ffprobeTool.filename()))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "ffprobe-bin" {
		t.Errorf("ffprobe content = %q", got)
	}
	if _, err := os.Stat(filepath.Join(out, "README.md")); !os.IsNotExist(err) {
		t.Error("non-binary entries should not be extracted")
	}
}

func TestUnpackMissingBinary(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "bundle.zip")
	writeZip(t, archive, map[string]string{"ffmpeg": "ffmpeg-bin"})

	if err := ffprobeTool.unpack(archive, dir); err == nil {
		t.Fatal("unpack() should fail when the archive lacks the tool")
	}
}
