package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"podmill/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Transcription.APIKey = "test"
	cfgVal.Paths.InboxDir = filepath.Join(base, "inbox")
	cfgVal.Paths.StagingDir = filepath.Join(base, "staging")
	cfgVal.Paths.ArchiveDir = filepath.Join(base, "archive")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.APIBind = "127.0.0.1:0"
	cfgVal.Show.Name = "Test Show"
	cfgVal.Show.Author = "Test Author"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithTranscriptionKey sets the speech-to-text API key on the test config.
func WithTranscriptionKey(key string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Transcription.APIKey = key
	}
}

// WithPlatforms enables the named platforms and fills their required
// credentials with test values.
func WithPlatforms(names ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Platforms.Enabled = names
		for _, name := range names {
			switch name {
			case config.PlatformHost:
				if b.cfg.Platforms.Art19.APIToken == "" {
					b.cfg.Platforms.Art19.APIToken = "test-art19-token"
				}
				if b.cfg.Platforms.Art19.SeriesID == "" {
					b.cfg.Platforms.Art19.SeriesID = "test-series"
				}
			case config.PlatformWebsite:
				if b.cfg.Platforms.Website.DeployHook == "" {
					b.cfg.Platforms.Website.DeployHook = "https://deploy.test/hook"
				}
			case config.PlatformSocial:
				if b.cfg.Platforms.Social.BearerToken == "" {
					b.cfg.Platforms.Social.BearerToken = "test-bearer"
				}
			}
		}
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, the default external binaries are
// stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		script := []byte("#!/bin/sh\nexit 0\n")
		for _, name := range names {
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StagingDir)
}
