package workflow

import (
	"context"

	"podmill/internal/content"
	"podmill/internal/media"
	"podmill/internal/publishing"
	"podmill/internal/services/whisper"
)

// AudioProcessor conditions a source recording into the distribution format.
type AudioProcessor interface {
	Process(ctx context.Context, sourcePath string) (media.ProcessedAudio, error)
}

// Transcriber turns processed audio into a transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, languageHint string) (whisper.Transcript, error)
}

// ContentGenerator writes episode copy from a transcript.
type ContentGenerator interface {
	Generate(ctx context.Context, req content.Request) (content.Episode, error)
}

// EpisodePublisher distributes a finished episode across platforms.
type EpisodePublisher interface {
	Publish(ctx context.Context, audioPath string, episode content.Episode, meta publishing.EpisodeMetadata) (*publishing.Outcome, error)
}

// Collaborators bundles the four stage implementations the Coordinator
// drives. Tests swap in fakes; production wiring comes from NewCollaborators.
type Collaborators struct {
	Audio       AudioProcessor
	Transcriber Transcriber
	Content     ContentGenerator
	Publisher   EpisodePublisher
}
