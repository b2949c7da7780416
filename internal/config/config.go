package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir   string `toml:"data_dir"`
	MediaDir  string `toml:"media_dir"`
	LogDir    string `toml:"log_dir"`
	StaticDir string `toml:"static_dir"`
}

// Server contains companion server and supervisor settings.
type Server struct {
	Host               string `toml:"host"`
	BasePort           int    `toml:"base_port"`
	PortSpan           int    `toml:"port_span"`
	ProxyBind          string `toml:"proxy_bind"`
	HealthAttempts     int    `toml:"health_attempts"`
	HealthBaseDelayMS  int    `toml:"health_base_delay_ms"`
	HealthMaxDelayMS   int    `toml:"health_max_delay_ms"`
	LockStaleSeconds   int    `toml:"lock_stale_seconds"`
	ShutdownGraceSecs  int    `toml:"shutdown_grace_seconds"`
	CompanionBinary    string `toml:"companion_binary"`
	CompanionLogToFile bool   `toml:"companion_log_to_file"`
}

// Downloads contains media download settings.
type Downloads struct {
	MaxConcurrent  int     `toml:"max_concurrent"`
	StartsPerMin   float64 `toml:"starts_per_minute"`
	OutputTemplate string  `toml:"output_template"`
}

// Transcription contains whisper settings.
type Transcription struct {
	Model    string `toml:"model"`
	Language string `toml:"language"`
}

// Analysis contains Ollama connection and analysis tuning.
type Analysis struct {
	OllamaEndpoint     string `toml:"ollama_endpoint"`
	Model              string `toml:"model"`
	ChunkMinutes       int    `toml:"chunk_minutes"`
	CustomInstructions string `toml:"custom_instructions"`
	TimeoutSeconds     int    `toml:"timeout_seconds"`
}

// Workflow contains worker timing settings.
type Workflow struct {
	PollInterval       int `toml:"poll_interval"`
	ErrorRetryInterval int `toml:"error_retry_interval"`
}

// Logging contains log output configuration.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for ClipChimp.
//
// Configuration sections by subsystem:
//   - Paths: data, media, log, and static asset directories
//   - Server: companion bind settings and supervisor behavior
//   - Downloads: yt-dlp concurrency and output template
//   - Transcription: whisper model and language
//   - Analysis: Ollama endpoint, model, and chunking
//   - Workflow: worker polling intervals
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Server        Server        `toml:"server"`
	Downloads     Downloads     `toml:"downloads"`
	Transcription Transcription `toml:"transcription"`
	Analysis      Analysis      `toml:"analysis"`
	Workflow      Workflow      `toml:"workflow"`
	Logging       Logging       `toml:"logging"`

	sourcePath string
}

// SourcePath returns the resolved location of the configuration file this
// Config was loaded from, even when the file did not exist.
func (c *Config) SourcePath() string {
	return c.sourcePath
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/clipchimp/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized. The boolean reports
// whether a file existed at the resolved path.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	cfg.sourcePath = resolvedPath
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("clipchimp.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the companion needs at runtime.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.MediaDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}
