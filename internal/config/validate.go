package config

import (
	"errors"
	"fmt"
	"strings"
)

// PlatformHost, PlatformWebsite, and PlatformSocial are the connector names
// accepted in platforms.enabled.
const (
	PlatformHost    = "host"
	PlatformWebsite = "website"
	PlatformSocial  = "social"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateAudio(); err != nil {
		return err
	}
	if err := c.validatePlatforms(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateTranscription() error {
	if c.Transcription.APIKey == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/podmill/config.toml"
		}
		return fmt.Errorf("transcription.api_key is required. Set WHISPER_API_KEY env var or edit %s (create with 'podmill config init')", defaultPath)
	}
	if c.Transcription.TimeoutSeconds <= 0 {
		return errors.New("transcription.timeout_seconds must be positive")
	}
	if c.Transcription.MaxUploadMiB <= 0 {
		return errors.New("transcription.max_upload_mib must be positive")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.queue_poll_interval":  c.Workflow.QueuePollInterval,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	}); err != nil {
		return err
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		return errors.New("workflow.heartbeat_interval must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= 0 {
		return errors.New("workflow.heartbeat_timeout must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must be greater than workflow.heartbeat_interval")
	}
	if c.Workflow.InboxSettleSeconds < 0 {
		return errors.New("workflow.inbox_settle_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateAudio() error {
	if c.Audio.SampleRate <= 0 {
		return errors.New("audio.sample_rate must be positive")
	}
	if c.Audio.Channels != 1 && c.Audio.Channels != 2 {
		return errors.New("audio.channels must be 1 (mono) or 2 (stereo)")
	}
	if c.Audio.FFmpegTimeout <= 0 {
		return errors.New("audio.ffmpeg_timeout must be positive (seconds)")
	}
	return nil
}

func (c *Config) validatePlatforms() error {
	known := map[string]struct{}{
		PlatformHost:    {},
		PlatformWebsite: {},
		PlatformSocial:  {},
	}
	for _, name := range c.Platforms.Enabled {
		if _, ok := known[name]; !ok {
			return fmt.Errorf("platforms.enabled contains unknown platform %q (known: host, website, social)", name)
		}
	}
	if c.Platforms.PublishTimeout <= 0 {
		return errors.New("platforms.publish_timeout must be positive (seconds)")
	}
	if c.PlatformEnabled(PlatformHost) {
		if strings.TrimSpace(c.Platforms.Art19.APIToken) == "" {
			return errors.New("platforms.art19.api_token must be set when host platform is enabled (or set ART19_API_TOKEN)")
		}
		if strings.TrimSpace(c.Platforms.Art19.SeriesID) == "" {
			return errors.New("platforms.art19.series_id must be set when host platform is enabled")
		}
	}
	if c.PlatformEnabled(PlatformWebsite) {
		if strings.TrimSpace(c.Platforms.Website.DeployHook) == "" && strings.TrimSpace(c.Platforms.Website.ContentAPIURL) == "" {
			return errors.New("platforms.website requires deploy_hook or content_api_url when website platform is enabled")
		}
	}
	if c.PlatformEnabled(PlatformSocial) {
		if strings.TrimSpace(c.Platforms.Social.BearerToken) == "" {
			return errors.New("platforms.social.bearer_token must be set when social platform is enabled (or set TWITTER_BEARER_TOKEN)")
		}
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
