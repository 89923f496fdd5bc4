package publishing

import (
	"context"
	"time"
)

// Connector publishes one episode to one platform. Implementations translate
// their transport and API errors into a failed PlatformResult where they can;
// a returned error is converted by the coordinator as the second line of
// defense.
type Connector interface {
	Name() string
	Publish(ctx context.Context, episode EpisodeData) (PlatformResult, error)
}

// PlatformResult records one platform's publish attempt.
type PlatformResult struct {
	Platform     string        `json:"platform"`
	Success      bool          `json:"success"`
	PublishedURL string        `json:"published_url,omitempty"`
	RemoteID     string        `json:"remote_id,omitempty"`
	Err          string        `json:"error,omitempty"`
	Duration     time.Duration `json:"duration,omitempty"`
}

// Outcome aggregates the fan-out. Every attempted platform appears in
// Results (launch order) and in exactly one of Published or Failed.
type Outcome struct {
	EpisodeID   string           `json:"episode_id"`
	Results     []PlatformResult `json:"results"`
	Published   []string         `json:"published,omitempty"`
	Failed      []string         `json:"failed,omitempty"`
	EpisodeURL  string           `json:"episode_url,omitempty"`
	CompletedAt time.Time        `json:"completed_at"`
}
