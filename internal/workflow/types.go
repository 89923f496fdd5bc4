package workflow

import (
	"encoding/json"
	"fmt"
	"time"

	"podmill/internal/content"
	"podmill/internal/media"
	"podmill/internal/publishing"
	"podmill/internal/queue"
	"podmill/internal/services/whisper"
)

// Stage identifies one of the four pipeline stages.
type Stage string

const (
	StageAudioProcessing   Stage = "audio_processing"
	StageTranscription     Stage = "transcription"
	StageContentGeneration Stage = "content_generation"
	StagePublishing        Stage = "publishing"
)

// Stages returns the pipeline stages in execution order.
func Stages() []Stage {
	return []Stage{StageAudioProcessing, StageTranscription, StageContentGeneration, StagePublishing}
}

// StageStatus maps a stage to the queue status an item holds while that
// stage runs.
func StageStatus(stage Stage) queue.Status {
	switch stage {
	case StageAudioProcessing:
		return queue.StatusProcessingAudio
	case StageTranscription:
		return queue.StatusTranscribing
	case StageContentGeneration:
		return queue.StatusGeneratingContent
	case StagePublishing:
		return queue.StatusPublishing
	default:
		return queue.StatusPending
	}
}

// StageLabel returns the human-readable progress label for a stage.
func StageLabel(stage Stage) string {
	switch stage {
	case StageAudioProcessing:
		return "Processing audio"
	case StageTranscription:
		return "Transcribing"
	case StageContentGeneration:
		return "Generating content"
	case StagePublishing:
		return "Publishing"
	default:
		return "Queued"
	}
}

// StageError records which stage failed and why. The wrapped error carries
// the services sentinel so callers can classify the failure.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// MarshalJSON flattens the wrapped error into its message so a failure
// survives the round trip through the queue result snapshot.
func (e *StageError) MarshalJSON() ([]byte, error) {
	msg := ""
	if e.Err != nil {
		msg = e.Err.Error()
	}
	return json.Marshal(struct {
		Stage Stage  `json:"stage"`
		Error string `json:"error"`
	}{Stage: e.Stage, Error: msg})
}

// Request describes one episode to run through the pipeline.
type Request struct {
	// AudioPath is the source recording. Required; it must exist on disk.
	AudioPath string `json:"audio_path"`
	// Language is a BCP-47 hint for the transcriber. The detected language
	// wins downstream when the transcriber reports one.
	Language string `json:"language,omitempty"`
	// Metadata carries operator-supplied episode fields through to
	// publishing untouched.
	Metadata publishing.EpisodeMetadata `json:"metadata,omitempty"`
}

// Result captures a complete run. Stage payload pointers stay nil until
// their stage completes, so a failed run shows exactly how far it got.
type Result struct {
	RunID      string       `json:"run_id"`
	Status     queue.Status `json:"status"`
	Request    Request      `json:"request"`
	StartedAt  time.Time    `json:"started_at"`
	FinishedAt time.Time    `json:"finished_at"`

	Audio      *media.ProcessedAudio `json:"audio,omitempty"`
	Transcript *whisper.Transcript   `json:"transcript,omitempty"`
	Content    *content.Episode      `json:"content,omitempty"`
	Publishing *publishing.Outcome   `json:"publishing,omitempty"`

	// DetectedLanguage is the transcript language, falling back to the
	// requested hint when the transcriber reported none.
	DetectedLanguage string `json:"detected_language,omitempty"`
	// EpisodeID is the identifier the publishing stage settled on.
	EpisodeID string `json:"episode_id,omitempty"`
	// ContentDegraded is set when the generator fell back to
	// transcript-derived content instead of model output.
	ContentDegraded bool `json:"content_degraded,omitempty"`

	// Failure is nil exactly when Status is completed.
	Failure *StageError `json:"failure,omitempty"`
}

// Success reports whether the run completed.
func (r *Result) Success() bool {
	return r != nil && r.Status == queue.StatusCompleted
}
