package config

const (
	defaultInboxDir              = "~/.local/share/podmill/inbox"
	defaultStagingDir            = "~/.local/share/podmill/staging"
	defaultArchiveDir            = "~/.local/share/podmill/archive"
	defaultLogDir                = "~/.local/share/podmill/logs"
	defaultLogRetentionDays      = 60
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultAPIBind               = "127.0.0.1:7591"
	defaultQueuePollInterval     = 5
	defaultErrorRetryInterval    = 10
	defaultHeartbeatInterval     = 15
	defaultHeartbeatTimeout      = 120
	defaultInboxSettleSeconds    = 10
	defaultAudioSampleRate       = 44100
	defaultAudioChannels         = 2
	defaultSilenceThresholdDB    = -50.0
	defaultFFmpegTimeout         = 900
	defaultTranscriptionBaseURL  = "https://api.openai.com/v1"
	defaultTranscriptionModel    = "whisper-1"
	defaultTranscriptionTimeout  = 600
	defaultTranscriptionMaxMiB   = 25
	defaultContentBaseURL        = "https://openrouter.ai/api/v1/chat/completions"
	defaultContentModel          = "google/gemini-3-flash-preview"
	defaultContentReferer        = "https://github.com/podmill/podmill"
	defaultContentTitle          = "Podmill Content Generator"
	defaultContentTimeoutSeconds = 120
	defaultArt19BaseURL          = "https://api.art19.com"
	defaultSocialBaseURL         = "https://api.twitter.com"
	defaultPublishTimeout        = 120
	defaultShowLanguage          = "en"
	defaultShowCategory          = "Technology"
	defaultNotifyRequestTimeout  = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InboxDir:   defaultInboxDir,
			StagingDir: defaultStagingDir,
			ArchiveDir: defaultArchiveDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
		},
		Show: Show{
			Language: defaultShowLanguage,
			Category: defaultShowCategory,
		},
		Workflow: Workflow{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
			HeartbeatInterval:  defaultHeartbeatInterval,
			HeartbeatTimeout:   defaultHeartbeatTimeout,
			InboxSettleSeconds: defaultInboxSettleSeconds,
			ArchiveProcessed:   true,
		},
		Audio: Audio{
			SampleRate:         defaultAudioSampleRate,
			Channels:           defaultAudioChannels,
			NormalizeLoudness:  true,
			TrimSilence:        true,
			SilenceThresholdDB: defaultSilenceThresholdDB,
			FFmpegTimeout:      defaultFFmpegTimeout,
		},
		Transcription: Transcription{
			BaseURL:        defaultTranscriptionBaseURL,
			Model:          defaultTranscriptionModel,
			TimeoutSeconds: defaultTranscriptionTimeout,
			MaxUploadMiB:   defaultTranscriptionMaxMiB,
		},
		Content: Content{
			BaseURL:        defaultContentBaseURL,
			Model:          defaultContentModel,
			Referer:        defaultContentReferer,
			Title:          defaultContentTitle,
			TimeoutSeconds: defaultContentTimeoutSeconds,
		},
		Platforms: Platforms{
			PublishTimeout: defaultPublishTimeout,
			Art19: Art19{
				BaseURL: defaultArt19BaseURL,
			},
			Social: Social{
				BaseURL: defaultSocialBaseURL,
			},
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
