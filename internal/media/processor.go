package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"podmill/internal/config"
	"podmill/internal/logging"
	"podmill/internal/media/ffprobe"
	"podmill/internal/textutil"
)

// ProcessedAudio describes the conditioned output of one episode.
type ProcessedAudio struct {
	Path            string  `json:"path"`
	DurationSeconds float64 `json:"duration_seconds"`
	SampleRate      int     `json:"sample_rate"`
	Channels        int     `json:"channels"`
	SizeBytes       int64   `json:"size_bytes"`
	Format          string  `json:"format"`
}

// Processor runs the ffmpeg conditioning pass for raw episode audio.
type Processor struct {
	cfg           *config.Config
	logger        *slog.Logger
	commandRunner func(ctx context.Context, name string, args ...string) error
	prober        func(ctx context.Context, binary, path string) (ffprobe.Result, error)
}

// NewProcessor creates an audio processor bound to the supplied configuration.
func NewProcessor(cfg *config.Config, logger *slog.Logger) *Processor {
	return &Processor{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "media"),
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (p *Processor) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	p.commandRunner = runner
}

// WithProber sets a custom ffprobe implementation (for testing).
func (p *Processor) WithProber(prober func(ctx context.Context, binary, path string) (ffprobe.Result, error)) {
	p.prober = prober
}

// Process conditions the source audio and writes the result into the staging
// directory. The returned ProcessedAudio always points at an existing file.
func (p *Processor) Process(ctx context.Context, sourcePath string) (ProcessedAudio, error) {
	var out ProcessedAudio
	sourcePath = strings.TrimSpace(sourcePath)
	if sourcePath == "" {
		return out, errors.New("audio process: source path required")
	}
	if _, err := os.Stat(sourcePath); err != nil {
		return out, fmt.Errorf("audio process: stat source: %w", err)
	}

	source, err := p.probe(ctx, sourcePath)
	if err != nil {
		return out, fmt.Errorf("audio process: %w", err)
	}
	if source.AudioStreamCount() == 0 {
		return out, fmt.Errorf("audio process: no audio streams in %s", filepath.Base(sourcePath))
	}

	if err := os.MkdirAll(p.cfg.Paths.StagingDir, 0o755); err != nil {
		return out, fmt.Errorf("audio process: ensure staging dir: %w", err)
	}
	dest := p.outputPath(sourcePath)
	spec := p.conditionSpec(sourcePath)

	runCtx := ctx
	if timeout := p.ffmpegTimeout(); timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	started := time.Now()
	if err := p.run(runCtx, p.cfg.FFmpegBinary(), buildConditionArgs(spec, dest)...); err != nil {
		return out, fmt.Errorf("audio process: ffmpeg: %w", err)
	}

	info, err := os.Stat(dest)
	if err != nil {
		return out, fmt.Errorf("audio process: output missing: %w", err)
	}

	out = ProcessedAudio{
		Path:       dest,
		SampleRate: spec.SampleRate,
		Channels:   spec.Channels,
		SizeBytes:  info.Size(),
		Format:     "wav",
	}
	if processed, err := p.probe(ctx, dest); err == nil {
		if d := processed.DurationSeconds(); !math.IsNaN(d) && d > 0 {
			out.DurationSeconds = d
		}
		if stream, ok := processed.FirstAudioStream(); ok {
			if rate := stream.SampleRateHz(); rate > 0 {
				out.SampleRate = rate
			}
			if stream.Channels > 0 {
				out.Channels = stream.Channels
			}
		}
	} else {
		p.logger.Warn("processed audio probe failed; keeping configured parameters", logging.Error(err))
	}

	p.logger.Info("audio conditioning complete",
		logging.String("source", filepath.Base(sourcePath)),
		logging.String("output", filepath.Base(dest)),
		logging.Float64("duration_seconds", out.DurationSeconds),
		logging.Int64("size_bytes", out.SizeBytes),
		logging.Duration("elapsed", time.Since(started)),
	)
	return out, nil
}

// conditionSpec resolves the conditioning parameters, dropping intro/outro
// stingers whose files are missing.
func (p *Processor) conditionSpec(sourcePath string) conditionSpec {
	audio := p.cfg.Audio
	spec := conditionSpec{
		SourcePath:         sourcePath,
		SampleRate:         audio.SampleRate,
		Channels:           audio.Channels,
		TrimSilence:        audio.TrimSilence,
		NormalizeLoudness:  audio.NormalizeLoudness,
		SilenceThresholdDB: audio.SilenceThresholdDB,
	}
	if path := strings.TrimSpace(audio.IntroPath); path != "" {
		if _, err := os.Stat(path); err == nil {
			spec.IntroPath = path
		} else {
			p.logger.Warn("intro file missing; skipping", logging.String("path", path))
		}
	}
	if path := strings.TrimSpace(audio.OutroPath); path != "" {
		if _, err := os.Stat(path); err == nil {
			spec.OutroPath = path
		} else {
			p.logger.Warn("outro file missing; skipping", logging.String("path", path))
		}
	}
	return spec
}

func (p *Processor) outputPath(sourcePath string) string {
	stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	if sanitized := textutil.SanitizeFileName(stem); sanitized != "" {
		stem = sanitized
	}
	return filepath.Join(p.cfg.Paths.StagingDir, stem+"_processed.wav")
}

func (p *Processor) ffmpegTimeout() time.Duration {
	if p.cfg.Audio.FFmpegTimeout <= 0 {
		return 0
	}
	return time.Duration(p.cfg.Audio.FFmpegTimeout) * time.Second
}

func (p *Processor) probe(ctx context.Context, path string) (ffprobe.Result, error) {
	if p.prober != nil {
		return p.prober(ctx, p.cfg.FFprobeBinary(), path)
	}
	return ffprobe.Inspect(ctx, p.cfg.FFprobeBinary(), path)
}

// run executes a command, using the custom runner if set.
func (p *Processor) run(ctx context.Context, name string, args ...string) error {
	if p.commandRunner != nil {
		return p.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}
