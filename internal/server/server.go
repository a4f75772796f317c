// ABOUTME: HTTP surface for the migration planner: upload files, receive Plan.md
// ABOUTME: Multipart and JSON endpoints share one pipeline and one error mapping
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harper/migration-planner/internal/core"
	"github.com/harper/migration-planner/internal/ingest"
	"github.com/harper/migration-planner/internal/models"
)

const (
	// ServiceName is reported by the info and health endpoints
	ServiceName = "WebMethods to Boomi Migration Tool"
	// PlanFilename is the attachment name of the generated plan
	PlanFilename = "Plan.md"
	// MaxUploadBytes bounds a whole request body
	MaxUploadBytes = 32 << 20
)

// Planner generates a migration plan for a document batch
type Planner interface {
	Run(ctx context.Context, docs []models.Document) (*core.Result, error)
}

// MigrationRequest is the JSON upload body
type MigrationRequest struct {
	Files []models.Document `json:"files"`
}

// MigrationResponse is the JSON endpoint reply
type MigrationResponse struct {
	Success     bool   `json:"success"`
	PlanContent string `json:"plan_content,omitempty"`
	Error       string `json:"error,omitempty"`
	Filename    string `json:"filename"`
}

// Server serves the planner over HTTP
type Server struct {
	planner Planner
	version string
	logger  *log.Logger
}

// New creates a Server; planner may be nil until the backend is configured
func New(planner Planner, version string, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Server{planner: planner, version: version, logger: logger}
}

// Handler returns the routed handler with CORS applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /migrate", s.handleMigrate)
	mux.HandleFunc("POST /migrate/json", s.handleMigrateJSON)
	return withCORS(mux)
}

// ListenAndServe serves on addr until ctx is cancelled, then drains in-flight requests
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}

	httpServer := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- httpServer.Serve(listener)
	}()
	s.logger.Info("listening", "addr", listener.Addr().String())

	select {
	case err := <-serverErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return httpServer.Shutdown(shutdownCtx) //nolint:contextcheck // parent ctx is already cancelled
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": ServiceName + " API",
		"version": s.version,
		"endpoints": map[string]string{
			"migrate":      "/migrate",
			"migrate_json": "/migrate/json",
			"health":       "/health",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":              "healthy",
		"service":             ServiceName,
		"planner_initialized": s.planner != nil,
	})
}

func (s *Server) handleMigrate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		writeDetail(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart upload: %v", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeDetail(w, http.StatusBadRequest, "No files provided")
		return
	}

	docs := make([]models.Document, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			writeDetail(w, http.StatusBadRequest, fmt.Sprintf("reading %s: %v", fh.Filename, err))
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeDetail(w, http.StatusBadRequest, fmt.Sprintf("reading %s: %v", fh.Filename, err))
			return
		}
		doc, err := ingest.Decode(fh.Filename, data)
		if err != nil {
			writeDetail(w, http.StatusBadRequest, err.Error())
			return
		}
		docs = append(docs, doc)
	}

	plan, status, err := s.generate(r.Context(), docs)
	if err != nil {
		writeDetail(w, status, fmt.Sprintf("Error processing migration: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+PlanFilename)
	w.Header().Set("Access-Control-Expose-Headers", "Content-Disposition")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, plan)
}

func (s *Server) handleMigrateJSON(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)

	var req MigrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, MigrationResponse{Error: fmt.Sprintf("invalid JSON: %v", err), Filename: PlanFilename})
		return
	}
	if len(req.Files) == 0 {
		writeJSON(w, http.StatusBadRequest, MigrationResponse{Error: "No files provided", Filename: PlanFilename})
		return
	}

	docs := make([]models.Document, 0, len(req.Files))
	for _, f := range req.Files {
		doc, err := ingest.Decode(f.Name, []byte(f.Content))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, MigrationResponse{Error: err.Error(), Filename: PlanFilename})
			return
		}
		docs = append(docs, doc)
	}

	plan, status, err := s.generate(r.Context(), docs)
	if err != nil {
		writeJSON(w, status, MigrationResponse{Error: err.Error(), Filename: PlanFilename})
		return
	}

	writeJSON(w, http.StatusOK, MigrationResponse{Success: true, PlanContent: plan, Filename: PlanFilename})
}

// generate runs the pipeline and maps failures to an HTTP status
func (s *Server) generate(ctx context.Context, docs []models.Document) (string, int, error) {
	if s.planner == nil {
		return "", http.StatusServiceUnavailable, errors.New("planner not initialized")
	}

	result, err := s.planner.Run(ctx, docs)
	if err != nil {
		status := statusFor(err)
		s.logger.Error("migration failed", "files", len(docs), "status", status, "err", err)
		return "", status, err
	}

	s.logger.Info("migration plan generated", "run", result.RunID, "files", len(docs), "failed_chunks", result.Failed())
	return result.Plan, http.StatusOK, nil
}

// statusFor maps pipeline errors to HTTP status codes
func statusFor(err error) int {
	var synthErr *core.SynthesisError
	var cancelErr *core.CancelledError
	switch {
	case errors.Is(err, core.ErrNoDocuments):
		return http.StatusBadRequest
	case errors.As(err, &synthErr):
		return http.StatusBadGateway
	case errors.As(err, &cancelErr):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// withCORS allows any origin, matching a browser front end served from elsewhere
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "*")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
