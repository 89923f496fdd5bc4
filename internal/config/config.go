package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	InboxDir   string `toml:"inbox_dir"`
	StagingDir string `toml:"staging_dir"`
	ArchiveDir string `toml:"archive_dir"`
	LogDir     string `toml:"log_dir"`
	APIBind    string `toml:"api_bind"`
	APIToken   string `toml:"api_token"`
}

// Show contains show-level metadata applied to every episode.
type Show struct {
	Name        string   `toml:"name"`
	Author      string   `toml:"author"`
	Description string   `toml:"description"`
	Homepage    string   `toml:"homepage"`
	Category    string   `toml:"category"`
	Language    string   `toml:"language"`
	Hashtags    []string `toml:"hashtags"`
	Explicit    bool     `toml:"explicit"`
}

// Workflow contains configuration for daemon timing and intervals.
type Workflow struct {
	QueuePollInterval  int  `toml:"queue_poll_interval"`
	ErrorRetryInterval int  `toml:"error_retry_interval"`
	HeartbeatInterval  int  `toml:"heartbeat_interval"`
	HeartbeatTimeout   int  `toml:"heartbeat_timeout"`
	InboxSettleSeconds int  `toml:"inbox_settle_seconds"`
	ArchiveProcessed   bool `toml:"archive_processed"`
}

// Audio contains configuration for the ffmpeg conditioning pass.
type Audio struct {
	SampleRate         int     `toml:"sample_rate"`
	Channels           int     `toml:"channels"`
	NormalizeLoudness  bool    `toml:"normalize_loudness"`
	TrimSilence        bool    `toml:"trim_silence"`
	SilenceThresholdDB float64 `toml:"silence_threshold_db"`
	IntroPath          string  `toml:"intro_path"`
	OutroPath          string  `toml:"outro_path"`
	FFmpegTimeout      int     `toml:"ffmpeg_timeout"`
}

// Transcription contains configuration for the speech-to-text service.
type Transcription struct {
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	Language       string `toml:"language"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	MaxUploadMiB   int    `toml:"max_upload_mib"`
}

// Content contains LLM connection settings for episode content generation.
type Content struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	Referer        string `toml:"referer"`
	Title          string `toml:"title"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Art19 contains configuration for the podcast host connector.
type Art19 struct {
	APIToken    string `toml:"api_token"`
	BaseURL     string `toml:"base_url"`
	SeriesID    string `toml:"series_id"`
	AutoPublish bool   `toml:"auto_publish"`
}

// Website contains configuration for the static site connector.
type Website struct {
	DeployHook    string `toml:"deploy_hook"`
	ContentAPIURL string `toml:"content_api_url"`
	ContentAPIKey string `toml:"content_api_key"`
	PublicBaseURL string `toml:"public_base_url"`
}

// Social contains configuration for the social announcement connector.
type Social struct {
	BearerToken string `toml:"bearer_token"`
	BaseURL     string `toml:"base_url"`
}

// Platforms contains the enabled platform set and per-platform tables.
// Enabled is the only source of truth for fan-out membership; connectors are
// never probed for availability.
type Platforms struct {
	Enabled        []string `toml:"enabled"`
	PublishTimeout int      `toml:"publish_timeout"`
	Art19          Art19    `toml:"art19"`
	Website        Website  `toml:"website"`
	Social         Social   `toml:"social"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for Podmill.
//
// Configuration sections by subsystem:
//   - Paths: directories and API bind address
//   - Show: show-level metadata applied to every episode
//   - Workflow: daemon polling intervals and timeouts
//   - Audio: ffmpeg conditioning settings
//   - Transcription: speech-to-text service connection
//   - Content: LLM connection settings for content generation
//   - Platforms: enabled platform set plus art19/website/social tables
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Show          Show          `toml:"show"`
	Workflow      Workflow      `toml:"workflow"`
	Audio         Audio         `toml:"audio"`
	Transcription Transcription `toml:"transcription"`
	Content       Content       `toml:"content"`
	Platforms     Platforms     `toml:"platforms"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/podmill/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized. Secrets may arrive via the
// environment or a .env file next to the config; both override file values.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	loadEnvFiles(resolvedPath)

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

	return &cfg, resolvedPath, exists, nil
}

// loadEnvFiles reads .env files into the process environment. Values already
// present in the environment win; missing files are fine.
func loadEnvFiles(configPath string) {
	candidates := []string{".env"}
	if dir := filepath.Dir(configPath); dir != "" && dir != "." {
		candidates = append(candidates, filepath.Join(dir, ".env"))
	}
	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			_ = godotenv.Load(candidate)
		}
	}
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

	defaultPath, err := expandPath("~/.config/podmill/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("podmill.toml")
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

// EnsureDirectories creates required directories for daemon operation.
// ArchiveDir is created on a best-effort basis so the daemon can run when
// archive storage is temporarily unavailable.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.InboxDir, c.Paths.StagingDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if strings.TrimSpace(c.Paths.ArchiveDir) != "" {
		// Best-effort to avoid failing config load when storage is offline.
		_ = os.MkdirAll(c.Paths.ArchiveDir, 0o755)
	}
	return nil
}

// QueueDatabasePath returns the SQLite database location for the queue store.
func (c *Config) QueueDatabasePath() string {
	return filepath.Join(c.Paths.LogDir, "queue.db")
}

// FFmpegBinary returns the ffmpeg executable name used for audio conditioning.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for media inspection.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
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

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	sample := sampleConfig

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// LLMConfig contains common LLM settings used across features.
type LLMConfig struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
}

// ContentLLM returns the LLM connection settings for content generation.
func (c *Config) ContentLLM() LLMConfig {
	return LLMConfig{
		APIKey:         strings.TrimSpace(c.Content.APIKey),
		BaseURL:        strings.TrimSpace(c.Content.BaseURL),
		Model:          strings.TrimSpace(c.Content.Model),
		Referer:        strings.TrimSpace(c.Content.Referer),
		Title:          strings.TrimSpace(c.Content.Title),
		TimeoutSeconds: c.Content.TimeoutSeconds,
	}
}

// PlatformEnabled reports whether the named platform is in the enabled set.
func (c *Config) PlatformEnabled(name string) bool {
	for _, enabled := range c.Platforms.Enabled {
		if enabled == name {
			return true
		}
	}
	return false
}

// PublishTimeout returns the per-platform publish deadline.
func (c *Config) PublishTimeout() time.Duration {
	return time.Duration(c.Platforms.PublishTimeout) * time.Second
}
