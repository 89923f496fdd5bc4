package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"podmill/internal/config"
	"podmill/internal/language"
	"podmill/internal/logging"
	"podmill/internal/services"
	"podmill/internal/textutil"
)

// HTTPDoer abstracts http.Client.Do for testing.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Transcript is the result of a transcription call.
type Transcript struct {
	// Text is the full transcript, whitespace-normalized.
	Text string `json:"text"`
	// Language is the detected language as an ISO 639-1 code when the
	// service's answer is recognizable, otherwise the raw value it reported.
	Language string `json:"language,omitempty"`
	// Confidence estimates transcript quality in [0, 1] from the segment
	// log probabilities. Zero when the service reported no segments.
	Confidence float64 `json:"confidence,omitempty"`
	// WordCount counts whitespace-separated tokens in Text.
	WordCount int `json:"word_count,omitempty"`
}

// Service transcribes audio files through a hosted speech-to-text API.
type Service struct {
	cfg    config.Transcription
	logger *slog.Logger
	client HTTPDoer
}

// NewService creates a transcription service from the loaded configuration.
func NewService(cfg *config.Config, logger *slog.Logger) *Service {
	timeout := time.Duration(cfg.Transcription.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}
	return &Service{
		cfg:    cfg.Transcription,
		logger: logging.NewComponentLogger(logger, "whisper"),
		client: &http.Client{Timeout: timeout},
	}
}

// WithHTTPClient sets a custom HTTP client (for testing).
func (s *Service) WithHTTPClient(client HTTPDoer) {
	if client != nil {
		s.client = client
	}
}

// Transcribe uploads the audio file and returns the transcript. languageHint
// narrows recognition when non-empty; it accepts any identifier the language
// package recognizes and is forwarded as an ISO 639-1 code.
func (s *Service) Transcribe(ctx context.Context, audioPath, languageHint string) (Transcript, error) {
	var transcript Transcript

	audioPath = strings.TrimSpace(audioPath)
	if audioPath == "" {
		return transcript, services.Wrap(services.ErrValidation, "transcription", "transcribe", "audio path required", nil)
	}
	info, err := os.Stat(audioPath)
	if err != nil {
		return transcript, services.Wrap(services.ErrNotFound, "transcription", "transcribe", fmt.Sprintf("audio file missing: %s", audioPath), err)
	}
	if limit := int64(s.cfg.MaxUploadMiB) * 1024 * 1024; limit > 0 && info.Size() > limit {
		detail := fmt.Sprintf("audio file is %.1f MiB, upload limit is %d MiB", float64(info.Size())/(1024*1024), s.cfg.MaxUploadMiB)
		return transcript, services.Wrap(services.ErrValidation, "transcription", "transcribe", detail, nil)
	}
	if s.cfg.APIKey == "" {
		return transcript, services.Wrap(services.ErrConfiguration, "transcription", "transcribe", "transcription api_key not configured", nil)
	}

	hint := language.Hint(languageHint)
	if languageHint == "" {
		hint = language.Hint(s.cfg.Language)
	}

	started := time.Now()
	s.logger.Info("transcription upload starting",
		logging.String("file", filepath.Base(audioPath)),
		logging.Int64("size_bytes", info.Size()),
		logging.String("model", s.cfg.Model),
		logging.String("language_hint", hint))

	body, contentType, err := buildUploadBody(audioPath, s.cfg.Model, hint)
	if err != nil {
		return transcript, services.Wrap(services.ErrTransient, "transcription", "transcribe", "build upload request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.BaseURL+"/audio/transcriptions", body)
	if err != nil {
		return transcript, services.Wrap(services.ErrTransient, "transcription", "transcribe", "build upload request", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := s.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return transcript, services.Wrap(services.ErrTimeout, "transcription", "transcribe", "upload timed out", err)
		}
		return transcript, services.Wrap(services.ErrTransient, "transcription", "transcribe", "contact transcription service", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return transcript, services.Wrap(services.ErrTransient, "transcription", "transcribe", "read transcription response", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return transcript, statusError(resp.StatusCode, payload)
	}

	var decoded verboseTranscription
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return transcript, services.Wrap(services.ErrTransient, "transcription", "transcribe", "parse transcription response", err)
	}

	transcript.Text = strings.Join(strings.Fields(decoded.Text), " ")
	transcript.Language = detectedLanguage(decoded.Language, hint)
	transcript.Confidence = segmentConfidence(decoded.Segments)
	transcript.WordCount = len(strings.Fields(transcript.Text))

	s.logger.Info("transcription complete",
		logging.String("file", filepath.Base(audioPath)),
		logging.Int("words", transcript.WordCount),
		logging.String("language", transcript.Language),
		logging.Float64("confidence", transcript.Confidence),
		logging.Duration("elapsed", time.Since(started)))
	return transcript, nil
}

// HealthCheck verifies the configured endpoint answers at all. It hits the
// models listing because the transcription route only accepts uploads.
func (s *Service) HealthCheck(ctx context.Context) error {
	if s.cfg.APIKey == "" {
		return services.Wrap(services.ErrConfiguration, "transcription", "health", "transcription api_key not configured", nil)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.cfg.BaseURL+"/models", nil)
	if err != nil {
		return services.Wrap(services.ErrTransient, "transcription", "health", "build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	resp, err := s.client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "transcription", "health", "contact transcription service", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096)) //nolint:errcheck
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return services.Wrap(services.ErrConfiguration, "transcription", "health", fmt.Sprintf("credentials rejected (HTTP %d)", resp.StatusCode), nil)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return services.Wrap(services.ErrTransient, "transcription", "health", fmt.Sprintf("service unavailable (HTTP %d)", resp.StatusCode), nil)
	}
	return nil
}

// verboseTranscription mirrors the verbose_json response shape.
type verboseTranscription struct {
	Text     string                 `json:"text"`
	Language string                 `json:"language"`
	Duration float64                `json:"duration"`
	Segments []transcriptionSegment `json:"segments"`
}

type transcriptionSegment struct {
	Text       string  `json:"text"`
	AvgLogprob float64 `json:"avg_logprob"`
}

func buildUploadBody(audioPath, model, hint string) (*bytes.Buffer, string, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	buf := &bytes.Buffer{}
	writer := multipart.NewWriter(buf)
	part, err := writer.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", err
	}
	if err := writer.WriteField("model", model); err != nil {
		return nil, "", err
	}
	if err := writer.WriteField("response_format", "verbose_json"); err != nil {
		return nil, "", err
	}
	if hint != "" {
		if err := writer.WriteField("language", hint); err != nil {
			return nil, "", err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return buf, writer.FormDataContentType(), nil
}

func statusError(status int, payload []byte) error {
	snippet := textutil.TruncateRunes(strings.Join(strings.Fields(string(payload)), " "), 160)
	detail := fmt.Sprintf("transcription service returned HTTP %d", status)
	if snippet != "" {
		detail = fmt.Sprintf("%s: %s", detail, snippet)
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return services.Wrap(services.ErrConfiguration, "transcription", "transcribe", detail, nil)
	case status == http.StatusRequestEntityTooLarge:
		return services.Wrap(services.ErrValidation, "transcription", "transcribe", detail, nil)
	default:
		return services.Wrap(services.ErrTransient, "transcription", "transcribe", detail, nil)
	}
}

// detectedLanguage normalizes whatever the service reported. Whisper-style
// APIs answer with English names ("english") rather than codes.
func detectedLanguage(reported, hint string) string {
	if code := language.Hint(reported); code != "" {
		return code
	}
	if trimmed := strings.TrimSpace(reported); trimmed != "" {
		return trimmed
	}
	return hint
}

func segmentConfidence(segments []transcriptionSegment) float64 {
	if len(segments) == 0 {
		return 0
	}
	var total float64
	for _, seg := range segments {
		p := math.Exp(seg.AvgLogprob)
		if p > 1 {
			p = 1
		}
		total += p
	}
	return total / float64(len(segments))
}
