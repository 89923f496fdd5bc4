package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeShow()
	if err := c.normalizeAudio(); err != nil {
		return err
	}
	c.normalizeTranscription()
	c.normalizeContent()
	c.normalizePlatforms()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.InboxDir, err = expandPath(c.Paths.InboxDir); err != nil {
		return fmt.Errorf("paths.inbox_dir: %w", err)
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.ArchiveDir, err = expandPath(c.Paths.ArchiveDir); err != nil {
		return fmt.Errorf("paths.archive_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeShow() {
	c.Show.Name = strings.TrimSpace(c.Show.Name)
	c.Show.Author = strings.TrimSpace(c.Show.Author)
	c.Show.Description = strings.TrimSpace(c.Show.Description)
	c.Show.Homepage = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(c.Show.Homepage), "/"))
	c.Show.Category = strings.TrimSpace(c.Show.Category)
	if c.Show.Category == "" {
		c.Show.Category = defaultShowCategory
	}
	c.Show.Language = strings.TrimSpace(c.Show.Language)
	if c.Show.Language == "" {
		c.Show.Language = defaultShowLanguage
	}
	if len(c.Show.Hashtags) > 0 {
		tags := make([]string, 0, len(c.Show.Hashtags))
		seen := make(map[string]struct{}, len(c.Show.Hashtags))
		for _, tag := range c.Show.Hashtags {
			normalized := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(tag), "#"))
			if normalized == "" {
				continue
			}
			if _, exists := seen[strings.ToLower(normalized)]; exists {
				continue
			}
			seen[strings.ToLower(normalized)] = struct{}{}
			tags = append(tags, normalized)
		}
		c.Show.Hashtags = tags
	}
}

func (c *Config) normalizeAudio() error {
	if c.Audio.SampleRate <= 0 {
		c.Audio.SampleRate = defaultAudioSampleRate
	}
	if c.Audio.Channels <= 0 {
		c.Audio.Channels = defaultAudioChannels
	}
	if c.Audio.SilenceThresholdDB >= 0 {
		c.Audio.SilenceThresholdDB = defaultSilenceThresholdDB
	}
	if c.Audio.FFmpegTimeout <= 0 {
		c.Audio.FFmpegTimeout = defaultFFmpegTimeout
	}
	var err error
	if strings.TrimSpace(c.Audio.IntroPath) != "" {
		if c.Audio.IntroPath, err = expandPath(c.Audio.IntroPath); err != nil {
			return fmt.Errorf("audio.intro_path: %w", err)
		}
	} else {
		c.Audio.IntroPath = ""
	}
	if strings.TrimSpace(c.Audio.OutroPath) != "" {
		if c.Audio.OutroPath, err = expandPath(c.Audio.OutroPath); err != nil {
			return fmt.Errorf("audio.outro_path: %w", err)
		}
	} else {
		c.Audio.OutroPath = ""
	}
	return nil
}

func (c *Config) normalizeTranscription() {
	c.Transcription.BaseURL = strings.TrimSuffix(strings.TrimSpace(c.Transcription.BaseURL), "/")
	if c.Transcription.BaseURL == "" {
		c.Transcription.BaseURL = defaultTranscriptionBaseURL
	}
	c.Transcription.Model = strings.TrimSpace(c.Transcription.Model)
	if c.Transcription.Model == "" {
		c.Transcription.Model = defaultTranscriptionModel
	}
	c.Transcription.Language = strings.TrimSpace(c.Transcription.Language)
	if c.Transcription.TimeoutSeconds <= 0 {
		c.Transcription.TimeoutSeconds = defaultTranscriptionTimeout
	}
	if c.Transcription.MaxUploadMiB <= 0 {
		c.Transcription.MaxUploadMiB = defaultTranscriptionMaxMiB
	}
	c.Transcription.APIKey = strings.TrimSpace(c.Transcription.APIKey)
	if value, ok := os.LookupEnv("WHISPER_API_KEY"); ok && strings.TrimSpace(value) != "" {
		c.Transcription.APIKey = strings.TrimSpace(value)
	} else if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok && strings.TrimSpace(value) != "" && c.Transcription.APIKey == "" {
		c.Transcription.APIKey = strings.TrimSpace(value)
	}
}

func (c *Config) normalizeContent() {
	c.Content.BaseURL = strings.TrimSpace(c.Content.BaseURL)
	if c.Content.BaseURL == "" {
		c.Content.BaseURL = defaultContentBaseURL
	}
	c.Content.Model = strings.TrimSpace(c.Content.Model)
	if c.Content.Model == "" {
		c.Content.Model = defaultContentModel
	}
	c.Content.Referer = strings.TrimSpace(c.Content.Referer)
	if c.Content.Referer == "" {
		c.Content.Referer = defaultContentReferer
	}
	c.Content.Title = strings.TrimSpace(c.Content.Title)
	if c.Content.Title == "" {
		c.Content.Title = defaultContentTitle
	}
	if c.Content.TimeoutSeconds <= 0 {
		c.Content.TimeoutSeconds = defaultContentTimeoutSeconds
	}
	c.Content.APIKey = strings.TrimSpace(c.Content.APIKey)
	if value, ok := os.LookupEnv("OPENROUTER_API_KEY"); ok && strings.TrimSpace(value) != "" {
		c.Content.APIKey = strings.TrimSpace(value)
	}
}

func (c *Config) normalizePlatforms() {
	if len(c.Platforms.Enabled) > 0 {
		names := make([]string, 0, len(c.Platforms.Enabled))
		seen := make(map[string]struct{}, len(c.Platforms.Enabled))
		for _, name := range c.Platforms.Enabled {
			normalized := strings.ToLower(strings.TrimSpace(name))
			if normalized == "" {
				continue
			}
			if _, exists := seen[normalized]; exists {
				continue
			}
			seen[normalized] = struct{}{}
			names = append(names, normalized)
		}
		c.Platforms.Enabled = names
	}
	if c.Platforms.PublishTimeout <= 0 {
		c.Platforms.PublishTimeout = defaultPublishTimeout
	}

	c.Platforms.Art19.BaseURL = strings.TrimSuffix(strings.TrimSpace(c.Platforms.Art19.BaseURL), "/")
	if c.Platforms.Art19.BaseURL == "" {
		c.Platforms.Art19.BaseURL = defaultArt19BaseURL
	}
	c.Platforms.Art19.SeriesID = strings.TrimSpace(c.Platforms.Art19.SeriesID)
	c.Platforms.Art19.APIToken = strings.TrimSpace(c.Platforms.Art19.APIToken)
	if value, ok := os.LookupEnv("ART19_API_TOKEN"); ok && strings.TrimSpace(value) != "" {
		c.Platforms.Art19.APIToken = strings.TrimSpace(value)
	}

	c.Platforms.Website.DeployHook = strings.TrimSpace(c.Platforms.Website.DeployHook)
	if value, ok := os.LookupEnv("VERCEL_DEPLOY_HOOK"); ok && strings.TrimSpace(value) != "" {
		c.Platforms.Website.DeployHook = strings.TrimSpace(value)
	}
	c.Platforms.Website.ContentAPIURL = strings.TrimSpace(c.Platforms.Website.ContentAPIURL)
	c.Platforms.Website.ContentAPIKey = strings.TrimSpace(c.Platforms.Website.ContentAPIKey)
	c.Platforms.Website.PublicBaseURL = strings.TrimSuffix(strings.TrimSpace(c.Platforms.Website.PublicBaseURL), "/")

	c.Platforms.Social.BaseURL = strings.TrimSuffix(strings.TrimSpace(c.Platforms.Social.BaseURL), "/")
	if c.Platforms.Social.BaseURL == "" {
		c.Platforms.Social.BaseURL = defaultSocialBaseURL
	}
	c.Platforms.Social.BearerToken = strings.TrimSpace(c.Platforms.Social.BearerToken)
	if value, ok := os.LookupEnv("TWITTER_BEARER_TOKEN"); ok && strings.TrimSpace(value) != "" {
		c.Platforms.Social.BearerToken = strings.TrimSpace(value)
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
