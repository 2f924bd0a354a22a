package httpapi

import (
	"encoding/json"
	"errors"
	"log"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"tubegrab/internal/adapters/localstore"
	"tubegrab/internal/core/domain"
	"tubegrab/internal/core/ports"
)

// Client-facing response strings.
const (
	msgURLRequired   = "URL is required"
	msgMissingParams = "Missing parameters"
	msgAuthRequired  = "Authentication required"
	msgAuthGuidance  = "Please provide YouTube cookies in cookies.txt file"
	msgInternal      = "An unexpected error occurred"
	msgDownloadDone  = "Download completed"
)

// Handler exposes the media service over HTTP.
type Handler struct {
	svc     ports.MediaService
	store   *localstore.Store
	limiter *rate.Limiter
	logger  *log.Logger
	started time.Time

	probes    int64
	downloads int64
}

// New creates a Handler around the service and artifact store.
func New(svc ports.MediaService, store *localstore.Store, limiter *rate.Limiter, logger *log.Logger) *Handler {
	return &Handler{
		svc:     svc,
		store:   store,
		limiter: limiter,
		logger:  logger,
		started: time.Now(),
	}
}

// Register wires all routes onto mux. staticDir is served at the root.
func (h *Handler) Register(mux *http.ServeMux, staticDir string) {
	mux.HandleFunc("/api/info", h.rateLimited(h.handleInfo))
	mux.HandleFunc("/api/download", h.rateLimited(h.handleDownload))
	mux.HandleFunc("/downloads/", h.handleArtifact)
	mux.HandleFunc("/health", h.handleHealth)
	mux.Handle("/", http.FileServer(http.Dir(staticDir)))
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type downloadBody struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Filename string `json:"filename"`
}

func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	enableCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "Method not allowed"})
		return
	}

	var req struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: msgURLRequired})
		return
	}

	atomic.AddInt64(&h.probes, 1)
	meta, err := h.svc.Resolve(r.Context(), req.URL)
	if err != nil {
		// Probe failures all map to 400, whatever the kind.
		_, body := errorResponse(err)
		writeJSON(w, http.StatusBadRequest, body)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	enableCORS(w)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "Method not allowed"})
		return
	}

	var req domain.DownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: msgMissingParams})
		return
	}
	if req.URL == "" || req.Class == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: msgMissingParams})
		return
	}

	reqID := uuid.New().String()
	h.logger.Printf("[REQ %s] download requested: %s type=%s resolution=%d", reqID, req.URL, req.Class, req.Height)

	obs := ports.ProgressFunc(func(ev ports.ProgressEvent) {
		h.logger.Printf("[REQ %s] %s: %s (%.1f%%)", reqID, ev.Status, ev.Filename, ev.Percent)
	})

	atomic.AddInt64(&h.downloads, 1)
	res, err := h.svc.Download(r.Context(), req, obs)
	if err != nil {
		h.logger.Printf("[REQ %s] failed: %v", reqID, err)
		status, body := errorResponse(err)
		writeJSON(w, status, body)
		return
	}

	h.logger.Printf("[REQ %s] completed: %s", reqID, res.Filename)
	writeJSON(w, http.StatusOK, downloadBody{
		Success:  res.Success,
		Message:  msgDownloadDone,
		Filename: res.Filename,
	})
}

func (h *Handler) handleArtifact(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "Method not allowed"})
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/downloads/")
	path, err := h.store.Resolve(name)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "File not found"})
		return
	}

	ctype := mime.TypeByExtension(filepath.Ext(path))
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ctype)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(path)+`"`)
	http.ServeFile(w, r, path)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"uptime":    time.Since(h.started).Round(time.Second).String(),
		"probes":    atomic.LoadInt64(&h.probes),
		"downloads": atomic.LoadInt64(&h.downloads),
	})
}

// errorResponse maps service error kinds onto status codes and client
// bodies. Internal detail never leaves the process.
func errorResponse(err error) (int, errorBody) {
	switch {
	case errors.Is(err, domain.ErrAuthenticationRequired):
		return http.StatusUnauthorized, errorBody{Error: msgAuthRequired, Message: msgAuthGuidance}
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, errorBody{Error: err.Error()}
	case errors.Is(err, domain.ErrInternal):
		return http.StatusInternalServerError, errorBody{Error: msgInternal}
	}
	var exErr *domain.ExtractionError
	if errors.As(err, &exErr) {
		return http.StatusBadRequest, errorBody{Error: exErr.Message}
	}
	return http.StatusInternalServerError, errorBody{Error: msgInternal}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
