package whisper_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"podmill/internal/logging"
	"podmill/internal/services"
	"podmill/internal/services/whisper"
	"podmill/internal/testsupport"
)

func newService(t *testing.T, baseURL string) (*whisper.Service, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Transcription.BaseURL = baseURL
	audioPath := filepath.Join(cfg.Paths.StagingDir, "episode_processed.wav")
	testsupport.WriteFile(t, audioPath, 4096)
	return whisper.NewService(cfg, logging.NewNop()), audioPath
}

func TestTranscribeSendsMultipartUpload(t *testing.T) {
	var gotModel, gotFormat, gotLanguage, gotAuth string
	var gotFileBytes int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/audio/transcriptions" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(16 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		gotModel = r.FormValue("model")
		gotFormat = r.FormValue("response_format")
		gotLanguage = r.FormValue("language")
		file, _, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("read form file: %v", err)
		}
		defer file.Close()
		data, _ := io.ReadAll(file)
		gotFileBytes = len(data)

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"text": "  Hello   world. This is   a test. ",
			"language": "english",
			"duration": 12.5,
			"segments": [
				{"text": "Hello world.", "avg_logprob": 0},
				{"text": "This is a test.", "avg_logprob": -0.6931471805599453}
			]
		}`)
	}))
	defer server.Close()

	svc, audioPath := newService(t, server.URL)
	transcript, err := svc.Transcribe(context.Background(), audioPath, "English")
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}

	if gotAuth != "Bearer test" {
		t.Errorf("unexpected auth header %q", gotAuth)
	}
	if gotModel != "whisper-1" || gotFormat != "verbose_json" {
		t.Errorf("unexpected form fields model=%q format=%q", gotModel, gotFormat)
	}
	if gotLanguage != "en" {
		t.Errorf("expected ISO 639-1 hint, got %q", gotLanguage)
	}
	if gotFileBytes != 4096 {
		t.Errorf("expected full file upload, got %d bytes", gotFileBytes)
	}
	if transcript.Text != "Hello world. This is a test." {
		t.Errorf("unexpected text %q", transcript.Text)
	}
	if transcript.Language != "en" {
		t.Errorf("expected detected language en, got %q", transcript.Language)
	}
	if transcript.WordCount != 6 {
		t.Errorf("unexpected word count %d", transcript.WordCount)
	}
	if transcript.Confidence < 0.74 || transcript.Confidence > 0.76 {
		t.Errorf("unexpected confidence %v", transcript.Confidence)
	}
}

func TestTranscribeFallsBackToHintLanguage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"text": "Hola a todos.", "language": ""}`)
	}))
	defer server.Close()

	svc, audioPath := newService(t, server.URL)
	transcript, err := svc.Transcribe(context.Background(), audioPath, "es")
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}
	if transcript.Language != "es" {
		t.Errorf("expected hint fallback es, got %q", transcript.Language)
	}
	if transcript.Confidence != 0 {
		t.Errorf("expected zero confidence without segments, got %v", transcript.Confidence)
	}
}

func TestTranscribeRejectsOversizedUpload(t *testing.T) {
	var called bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t)
	cfg.Transcription.BaseURL = server.URL
	cfg.Transcription.MaxUploadMiB = 1
	audioPath := filepath.Join(cfg.Paths.StagingDir, "big.wav")
	testsupport.WriteFile(t, audioPath, 2<<20)

	svc := whisper.NewService(cfg, logging.NewNop())
	_, err := svc.Transcribe(context.Background(), audioPath, "")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if called {
		t.Fatal("oversized file must not be uploaded")
	}
}

func TestTranscribeMissingFile(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	svc := whisper.NewService(cfg, logging.NewNop())

	_, err := svc.Transcribe(context.Background(), filepath.Join(cfg.Paths.StagingDir, "nope.wav"), "")
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestTranscribeServerFailureClassification(t *testing.T) {
	cases := []struct {
		name   string
		status int
		marker error
	}{
		{"unauthorized", http.StatusUnauthorized, services.ErrConfiguration},
		{"payload too large", http.StatusRequestEntityTooLarge, services.ErrValidation},
		{"server error", http.StatusInternalServerError, services.ErrTransient},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				io.WriteString(w, `{"error": {"message": "nope"}}`)
			}))
			defer server.Close()

			svc, audioPath := newService(t, server.URL)
			_, err := svc.Transcribe(context.Background(), audioPath, "")
			if !errors.Is(err, tc.marker) {
				t.Fatalf("expected %v classification, got %v", tc.marker, err)
			}
		})
	}
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		io.WriteString(w, `{"data": []}`)
	}))
	defer server.Close()

	svc, _ := newService(t, server.URL)
	if err := svc.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestHealthCheckRejectedCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	svc, _ := newService(t, server.URL)
	if err := svc.HealthCheck(context.Background()); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
