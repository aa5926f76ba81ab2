package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultModelsDir is used when WHISPER_MODELS_DIR is unset.
const DefaultModelsDir = "/root/.cache/huggingface"

const (
	EnvModelsDir = "WHISPER_MODELS_DIR"
	EnvPython    = "WHISPERSCRIBE_PYTHON"
)

// environment variables read by the inference runtime to size its
// thread pools
var threadEnvVars = []string{"OMP_NUM_THREADS", "MKL_NUM_THREADS"}

// Config holds the transcription settings.
type Config struct {
	ModelsDir string `yaml:"models_dir"`
	Model     string `yaml:"model"`
	Language  string `yaml:"language"`
	Task      string `yaml:"task"`
	Device    string `yaml:"device"`
	Threads   int    `yaml:"threads"`
	Backend   string `yaml:"backend"`
	MaxChars  int    `yaml:"max_chars"`
	Python    string `yaml:"python"`
}

// Default returns a Config with the stock CLI defaults.
func Default() *Config {
	return &Config{
		ModelsDir: DefaultModelsDir,
		Model:     "base",
		Language:  "zh",
		Task:      "transcribe",
		Device:    "cpu",
		Threads:   8,
		Backend:   "faster-whisper",
		MaxChars:  25,
		Python:    "python3",
	}
}

// Load reads a YAML config file on top of the defaults. Fields missing
// from the file keep their default values. A leading ~ in models_dir is
// expanded to the user's home directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.ModelsDir = expandHome(cfg.ModelsDir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays values from the process environment.
func (c *Config) ApplyEnv() {
	if dir := strings.TrimSpace(os.Getenv(EnvModelsDir)); dir != "" {
		c.ModelsDir = expandHome(dir)
	}
	if py := strings.TrimSpace(os.Getenv(EnvPython)); py != "" {
		c.Python = py
	}
}

// Validate checks values that cannot be passed to a recognizer as-is.
func (c *Config) Validate() error {
	switch c.Task {
	case "transcribe", "translate":
	default:
		return fmt.Errorf("task must be transcribe or translate, got %q", c.Task)
	}
	if c.Threads < 1 {
		return fmt.Errorf("threads must be at least 1, got %d", c.Threads)
	}
	if c.MaxChars < 1 {
		return fmt.Errorf("max chars must be at least 1, got %d", c.MaxChars)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("model must not be empty")
	}
	return nil
}

// ApplyThreadEnv sets the process-wide thread count variables read by the
// inference runtime. It must run before the recognizer is created.
func ApplyThreadEnv(threads int) error {
	for _, name := range threadEnvVars {
		if err := os.Setenv(name, strconv.Itoa(threads)); err != nil {
			return fmt.Errorf("setting %s: %w", name, err)
		}
	}
	return nil
}

// ThreadEnv returns the thread variables as KEY=value pairs for a child
// process environment.
func ThreadEnv(threads int) []string {
	out := make([]string, 0, len(threadEnvVars))
	for _, name := range threadEnvVars {
		out = append(out, name+"="+strconv.Itoa(threads))
	}
	return out
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~"))
	}
	return path
}
