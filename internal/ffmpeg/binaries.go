package ffmpeg

import (
	"archive/zip"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

const (
	releaseVersion = "6.1"
	releaseBaseURL = "https://github.com/ffbinaries/ffbinaries-prebuilt/releases/download"
)

// prebuilt bundle suffix per GOOS/GOARCH
var releasePlatforms = map[string]string{
	"linux/amd64":   "linux-64",
	"linux/arm64":   "linux-arm-64",
	"darwin/amd64":  "macos-64",
	"windows/amd64": "win-64",
}

// tool is one executable. Each resolves on its own: an explicit env path,
// then PATH, then the user cache, then a download of its release zip.
type tool struct {
	name string
	env  string

	once sync.Once
	path string
	err  error
}

var (
	ffmpegTool  = &tool{name: "ffmpeg", env: "WHISPERSCRIBE_FFMPEG_PATH"}
	ffprobeTool = &tool{name: "ffprobe", env: "WHISPERSCRIBE_FFPROBE_PATH"}
)

// FFmpegPath returns the ffmpeg executable, downloading it on first use
// when it is not installed.
func FFmpegPath() (string, error) {
	return ffmpegTool.resolve()
}

// FFprobePath is FFmpegPath for ffprobe.
func FFprobePath() (string, error) {
	return ffprobeTool.resolve()
}

func (t *tool) resolve() (string, error) {
	t.once.Do(func() {
		t.path, t.err = t.locate()
	})
	return t.path, t.err
}

func (t *tool) locate() (string, error) {
	if p := t.lookup(); p != "" {
		return p, nil
	}

	dir := installDir()
	cached := filepath.Join(dir, t.filename())
	if isBinary(cached) {
		return cached, nil
	}

	asset, err := releaseAsset(t.name, runtime.GOOS, runtime.GOARCH)
	if err != nil {
		return "", err
	}
	if err := t.install(asset, dir); err != nil {
		return "", err
	}
	if !isBinary(cached) {
		return "", fmt.Errorf("%s not found after extraction", t.name)
	}
	return cached, nil
}

// lookup returns the env override or the PATH match, or "" when neither exists.
func (t *tool) lookup() string {
	if p := os.Getenv(t.env); p != "" {
		return p
	}
	if p, err := exec.LookPath(t.name); err == nil {
		return p
	}
	return ""
}

func (t *tool) filename() string {
	if runtime.GOOS == "windows" {
		return t.name + ".exe"
	}
	return t.name
}

// matches reports whether an archive entry name is this tool's binary.
func (t *tool) matches(entry string) bool {
	base := strings.ToLower(filepath.Base(entry))
	return base == t.name || base == t.name+".exe"
}

func releaseAsset(name, goos, goarch string) (string, error) {
	suffix, ok := releasePlatforms[goos+"/"+goarch]
	if !ok {
		return "", fmt.Errorf("unsupported platform for bundled %s: %s/%s", name, goos, goarch)
	}
	return name + "-" + releaseVersion + "-" + suffix + ".zip", nil
}

func installDir() string {
	cache, err := os.UserCacheDir()
	if err != nil || cache == "" {
		cache = os.TempDir()
	}
	return filepath.Join(cache, "whisperscribe", "ffmpeg", releaseVersion, runtime.GOOS, runtime.GOARCH)
}

// install downloads the tool's release zip to a temp file and unpacks the
// binary into dir.
func (t *tool) install(asset, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create ffmpeg cache dir: %w", err)
	}

	archive, err := os.CreateTemp("", "whisperscribe-"+t.name+"-*.zip")
	if err != nil {
		return fmt.Errorf("create temp archive: %w", err)
	}
	defer func() { _ = os.Remove(archive.Name()) }()

	url := fmt.Sprintf("%s/v%s/%s", releaseBaseURL, releaseVersion, asset)
	err = fetch(url, archive)
	if closeErr := archive.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("download %s: %w", asset, err)
	}

	if err := t.unpack(archive.Name(), dir); err != nil {
		return fmt.Errorf("extract %s: %w", asset, err)
	}
	return nil
}

func fetch(url string, dst io.Writer) error {
	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	_, err = io.Copy(dst, resp.Body)
	return err
}

func (t *tool) unpack(archivePath, dir string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer func() { _ = zr.Close() }()

	for _, entry := range zr.File {
		if t.matches(entry.Name) {
			return writeExecutable(entry, filepath.Join(dir, t.filename()))
		}
	}
	return fmt.Errorf("archive has no %s binary", t.name)
}

func writeExecutable(entry *zip.File, dest string) error {
	src, err := entry.Open()
	if err != nil {
		return fmt.Errorf("open archive entry %s: %w", entry.Name, err)
	}
	defer func() { _ = src.Close() }()

	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o755)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(dest), err)
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(dest), err)
	}
	if err := out.Close(); err != nil {
		return err
	}

	// O_CREATE ignores mode for files that already existed
	if runtime.GOOS != "windows" {
		return os.Chmod(dest, 0o755)
	}
	return nil
}

// isBinary reports whether path is a non-empty regular file.
func isBinary(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Size() > 0
}
