package workflow

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"podmill/internal/config"
	"podmill/internal/content"
	"podmill/internal/logging"
	"podmill/internal/media"
	"podmill/internal/notifications"
	"podmill/internal/queue"
	"podmill/internal/services"
)

// TransitionHook observes status changes as a run progresses. It fires after
// the Result reflects the new status; stage is the stage that drove the
// change. The queue manager uses it to persist item transitions.
type TransitionHook func(ctx context.Context, result *Result, stage Stage)

// Coordinator runs the four pipeline stages in order against its
// collaborators.
type Coordinator struct {
	cfg      *config.Config
	logger   *slog.Logger
	collab   Collaborators
	notifier notifications.Service
	hook     TransitionHook
}

// NewCoordinator constructs a coordinator. The notifier defaults to the
// configured notification service (a noop when no topic is set).
func NewCoordinator(cfg *config.Config, logger *slog.Logger, collab Collaborators) *Coordinator {
	return &Coordinator{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "workflow"),
		collab:   collab,
		notifier: notifications.NewService(cfg),
	}
}

// WithNotifier replaces the notification service.
func (c *Coordinator) WithNotifier(notifier notifications.Service) {
	if notifier != nil {
		c.notifier = notifier
	}
}

// WithTransitionHook registers an observer for status changes.
func (c *Coordinator) WithTransitionHook(hook TransitionHook) {
	c.hook = hook
}

// Run drives one episode through audio processing, transcription, content
// generation, and publishing. It never returns an error; the Result carries
// the failure when a stage fails, and no later stage runs after one does.
func (c *Coordinator) Run(ctx context.Context, req Request) *Result {
	result := &Result{
		RunID:     uuid.NewString(),
		Status:    queue.StatusPending,
		Request:   req,
		StartedAt: time.Now().UTC(),
	}
	ctx = services.WithRunID(ctx, result.RunID)
	logger := logging.WithContext(ctx, c.logger)

	logger.Info("workflow started",
		logging.String(logging.FieldEventType, "workflow_start"),
		logging.String("source_file", strings.TrimSpace(req.AudioPath)),
		logging.String("language_hint", strings.TrimSpace(req.Language)),
	)
	c.notify(ctx, notifications.EventWorkflowStarted, notifications.Payload{
		"title": filepath.Base(req.AudioPath),
	})

	if err := checkInput(req); err != nil {
		return c.fail(ctx, result, StageAudioProcessing, err)
	}

	// Stage 1: condition the source recording.
	stage := StageAudioProcessing
	stageCtx, stageLogger, started := c.beginStage(ctx, result, stage)
	if c.collab.Audio == nil {
		return c.fail(ctx, result, stage, missingCollaborator(stage, "audio processor"))
	}
	audio, err := c.collab.Audio.Process(stageCtx, req.AudioPath)
	if err != nil {
		return c.fail(ctx, result, stage, err)
	}
	if err := verifyProcessedAudio(audio); err != nil {
		return c.fail(ctx, result, stage, err)
	}
	result.Audio = &audio
	c.completeStage(stageLogger, started,
		logging.String("processed_file", audio.Path),
		logging.Float64("duration_seconds", audio.DurationSeconds),
	)

	// Stage 2: transcribe the processed audio, not the source.
	stage = StageTranscription
	stageCtx, stageLogger, started = c.beginStage(ctx, result, stage)
	if c.collab.Transcriber == nil {
		return c.fail(ctx, result, stage, missingCollaborator(stage, "transcriber"))
	}
	transcript, err := c.collab.Transcriber.Transcribe(stageCtx, audio.Path, req.Language)
	if err != nil {
		return c.fail(ctx, result, stage, err)
	}
	if strings.TrimSpace(transcript.Text) == "" {
		return c.fail(ctx, result, stage, services.Wrap(
			services.ErrValidation, string(stage), "verify transcript",
			"transcription produced no text", nil))
	}
	result.Transcript = &transcript
	result.DetectedLanguage = strings.TrimSpace(transcript.Language)
	if result.DetectedLanguage == "" {
		result.DetectedLanguage = strings.TrimSpace(req.Language)
	}
	c.completeStage(stageLogger, started,
		logging.Int("word_count", transcript.WordCount),
		logging.String("language", result.DetectedLanguage),
	)

	// Stage 3: generate episode copy in the detected language.
	stage = StageContentGeneration
	stageCtx, stageLogger, started = c.beginStage(ctx, result, stage)
	if c.collab.Content == nil {
		return c.fail(ctx, result, stage, missingCollaborator(stage, "content generator"))
	}
	episode, err := c.collab.Content.Generate(stageCtx, content.Request{
		Transcript:    transcript.Text,
		Language:      result.DetectedLanguage,
		SourceName:    filepath.Base(req.AudioPath),
		EpisodeNumber: req.Metadata.EpisodeNumber,
	})
	if err != nil {
		return c.fail(ctx, result, stage, err)
	}
	if missing := missingContentFields(episode); len(missing) > 0 {
		return c.fail(ctx, result, stage, services.Wrap(
			services.ErrValidation, string(stage), "validate content",
			"generated content missing "+strings.Join(missing, ", "), nil))
	}
	result.Content = &episode
	result.ContentDegraded = episode.Fallback
	if episode.Fallback {
		stageLogger.Warn("using transcript-derived fallback content",
			logging.Alert("content_degraded"),
			logging.String("provider", episode.Provider),
		)
	}
	c.completeStage(stageLogger, started,
		logging.String("title", episode.Title),
		logging.Bool("fallback", episode.Fallback),
	)

	// Stage 4: distribute. Platform failures are recorded in the Outcome,
	// not raised; only a Publish call error fails the workflow.
	stage = StagePublishing
	stageCtx, stageLogger, started = c.beginStage(ctx, result, stage)
	if c.collab.Publisher == nil {
		return c.fail(ctx, result, stage, missingCollaborator(stage, "publisher"))
	}
	outcome, err := c.collab.Publisher.Publish(stageCtx, audio.Path, episode, req.Metadata)
	if err != nil {
		return c.fail(ctx, result, stage, err)
	}
	if outcome == nil {
		return c.fail(ctx, result, stage, services.Wrap(
			services.ErrValidation, string(stage), "verify outcome",
			"publisher returned no outcome", nil))
	}
	result.Publishing = outcome
	result.EpisodeID = outcome.EpisodeID
	if len(outcome.Published) == 0 {
		stageLogger.Warn("no platform accepted the episode",
			logging.Alert("publish_rejected_everywhere"),
			logging.Int("attempted", len(outcome.Results)),
		)
	}
	c.notify(ctx, notifications.EventEpisodePublished, notifications.Payload{
		"title":     episode.Title,
		"published": strconv.Itoa(len(outcome.Published)),
		"total":     strconv.Itoa(len(outcome.Results)),
		"url":       outcome.EpisodeURL,
	})
	c.completeStage(stageLogger, started,
		logging.String(logging.FieldEpisodeID, outcome.EpisodeID),
		logging.Int("published", len(outcome.Published)),
		logging.Int("failed", len(outcome.Failed)),
	)

	result.Status = queue.StatusCompleted
	result.FinishedAt = time.Now().UTC()
	c.transition(ctx, result, StagePublishing)
	logger.Info("workflow completed",
		logging.String(logging.FieldEventType, "workflow_complete"),
		logging.String(logging.FieldEpisodeID, result.EpisodeID),
		logging.Bool("content_degraded", result.ContentDegraded),
		logging.Duration("run_duration", result.FinishedAt.Sub(result.StartedAt)),
	)
	c.notify(ctx, notifications.EventWorkflowCompleted, notifications.Payload{
		"title": episode.Title,
	})
	return result
}

func (c *Coordinator) beginStage(ctx context.Context, result *Result, stage Stage) (context.Context, *slog.Logger, time.Time) {
	result.Status = StageStatus(stage)
	stageCtx := services.WithStage(ctx, string(stage))
	c.transition(stageCtx, result, stage)
	stageLogger := logging.WithContext(stageCtx, c.logger)
	stageLogger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))
	return stageCtx, stageLogger, time.Now()
}

func (c *Coordinator) completeStage(logger *slog.Logger, started time.Time, attrs ...any) {
	args := append([]any{
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", time.Since(started)),
	}, attrs...)
	logger.Info("stage completed", args...)
}

func (c *Coordinator) fail(ctx context.Context, result *Result, stage Stage, err error) *Result {
	result.Status = queue.StatusFailed
	result.Failure = &StageError{Stage: stage, Err: err}
	result.FinishedAt = time.Now().UTC()

	details := services.Details(err)
	logging.WithContext(ctx, c.logger).Error("workflow failed",
		logging.String(logging.FieldEventType, "stage_failed"),
		logging.String(logging.FieldStage, string(stage)),
		logging.String(logging.FieldErrorKind, string(details.Kind)),
		logging.Error(err),
	)
	c.transition(ctx, result, stage)
	c.notify(ctx, notifications.EventWorkflowFailed, notifications.Payload{
		"stage": string(stage),
		"error": details.Message,
	})
	return result
}

func (c *Coordinator) transition(ctx context.Context, result *Result, stage Stage) {
	if c.hook != nil {
		c.hook(ctx, result, stage)
	}
}

func (c *Coordinator) notify(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.Publish(ctx, event, payload); err != nil {
		logging.WithContext(ctx, c.logger).Warn("notification delivery failed",
			logging.Error(err),
			logging.String("notify_event", string(event)),
		)
	}
}

// checkInput rejects a run before stage 1 when the source file is absent.
func checkInput(req Request) error {
	path := strings.TrimSpace(req.AudioPath)
	if path == "" {
		return services.Wrap(services.ErrNotFound, string(StageAudioProcessing), "check input",
			"missing input: audio path is empty", nil)
	}
	if _, err := os.Stat(path); err != nil {
		return services.Wrap(services.ErrNotFound, string(StageAudioProcessing), "check input",
			"missing input: "+path, err)
	}
	return nil
}

// verifyProcessedAudio enforces the stage 1 gate: the processor must report
// an output path that exists on disk.
func verifyProcessedAudio(audio media.ProcessedAudio) error {
	path := strings.TrimSpace(audio.Path)
	if path == "" {
		return services.Wrap(services.ErrExternalTool, string(StageAudioProcessing), "verify output",
			"audio processor reported no output path", nil)
	}
	if _, err := os.Stat(path); err != nil {
		return services.Wrap(services.ErrExternalTool, string(StageAudioProcessing), "verify output",
			"processed audio missing from disk", err)
	}
	return nil
}

// missingContentFields lists the required episode fields the generator left
// empty, in a stable order.
func missingContentFields(episode content.Episode) []string {
	var missing []string
	if strings.TrimSpace(episode.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(episode.Description) == "" {
		missing = append(missing, "description")
	}
	if strings.TrimSpace(episode.ShowNotes) == "" {
		missing = append(missing, "show_notes")
	}
	return missing
}

func missingCollaborator(stage Stage, name string) error {
	return services.Wrap(services.ErrConfiguration, string(stage), "execute", name+" not configured", nil)
}
