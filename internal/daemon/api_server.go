package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"podmill/internal/config"
	"podmill/internal/logging"
	"podmill/internal/publishing"
	"podmill/internal/queue"
)

// queueItemView is the wire shape of a queue item.
type queueItemView struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	SourcePath      string    `json:"source_path"`
	Status          string    `json:"status"`
	Language        string    `json:"language,omitempty"`
	ProcessedFile   string    `json:"processed_file,omitempty"`
	TranscriptFile  string    `json:"transcript_file,omitempty"`
	ProgressStage   string    `json:"progress_stage,omitempty"`
	ProgressPercent float64   `json:"progress_percent"`
	ProgressMessage string    `json:"progress_message,omitempty"`
	ErrorMessage    string    `json:"error_message,omitempty"`
	NeedsReview     bool      `json:"needs_review,omitempty"`
	ReviewReason    string    `json:"review_reason,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func itemView(item *queue.Item) queueItemView {
	return queueItemView{
		ID:              item.ID,
		Title:           item.Title,
		SourcePath:      item.SourcePath,
		Status:          string(item.Status),
		Language:        item.Language,
		ProcessedFile:   item.ProcessedFile,
		TranscriptFile:  item.TranscriptFile,
		ProgressStage:   item.ProgressStage,
		ProgressPercent: item.ProgressPercent,
		ProgressMessage: item.ProgressMessage,
		ErrorMessage:    item.ErrorMessage,
		NeedsReview:     item.NeedsReview,
		ReviewReason:    item.ReviewReason,
		CreatedAt:       item.CreatedAt,
		UpdatedAt:       item.UpdatedAt,
	}
}

type statusResponse struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	QueueDBPath  string         `json:"queue_db_path"`
	LockFilePath string         `json:"lock_file_path"`
	LastError    string         `json:"last_error,omitempty"`
	LastItem     *queueItemView `json:"last_item,omitempty"`
	QueueStats   map[string]int `json:"queue_stats"`
}

type enqueueRequest struct {
	Path     string                      `json:"path"`
	Language string                      `json:"language,omitempty"`
	Metadata *publishing.EpisodeMetadata `json:"metadata,omitempty"`
}

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:   bind,
		logger: logging.NewComponentLogger(logger, "api-server"),
		daemon: d,
	}

	token := strings.TrimSpace(cfg.Paths.APIToken)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", authMiddleware(token, srv.handleStatus))
	mux.HandleFunc("/api/queue", authMiddleware(token, srv.handleQueue))
	mux.HandleFunc("/api/queue/", authMiddleware(token, srv.handleQueueItem))
	mux.HandleFunc("/api/episodes", authMiddleware(token, srv.handleEpisodes))
	mux.HandleFunc("/api/health", srv.handleHealth)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status(r.Context())
	payload := statusResponse{
		Running:      status.Running,
		PID:          status.PID,
		QueueDBPath:  status.QueueDBPath,
		LockFilePath: status.LockFilePath,
		LastError:    status.Workflow.LastError,
		QueueStats:   make(map[string]int, len(status.Workflow.QueueStats)),
	}
	for state, count := range status.Workflow.QueueStats {
		payload.QueueStats[string(state)] = count
	}
	if status.Workflow.LastItem != nil {
		view := itemView(status.Workflow.LastItem)
		payload.LastItem = &view
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleQueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var statuses []queue.Status
	for _, value := range r.URL.Query()["status"] {
		parsed, ok := queue.ParseStatus(value)
		if !ok {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", value))
			return
		}
		statuses = append(statuses, parsed)
	}

	items, err := s.daemon.ListQueue(r.Context(), statuses)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	views := make([]queueItemView, 0, len(items))
	for _, item := range items {
		views = append(views, itemView(item))
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"items": views})
}

func (s *apiServer) handleQueueItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	idStr := strings.TrimPrefix(r.URL.Path, "/api/queue/")
	if idStr == "" || strings.Contains(idStr, "/") {
		s.writeError(w, http.StatusNotFound, "queue item not found")
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid queue item id")
		return
	}
	item, err := s.daemon.store.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if item == nil {
		s.writeError(w, http.StatusNotFound, "queue item not found")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"item": itemView(item)})
}

func (s *apiServer) handleEpisodes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req enqueueRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	item, err := s.daemon.AddFile(r.Context(), req.Path, EnqueueOptions{
		Language: req.Language,
		Metadata: req.Metadata,
	})
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{"item": itemView(item)})
}

func (s *apiServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	health, err := s.daemon.QueueHealth(r.Context())
	if err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "degraded",
			"error":  err.Error(),
		})
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"queue": map[string]int{
			"total":      health.Total,
			"pending":    health.Pending,
			"processing": health.Processing,
			"failed":     health.Failed,
			"completed":  health.Completed,
		},
	})
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
