package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sakif/student-profiles/internal/apperror"
)

// DownloadHandler proxies a hosted PDF so the browser saves it under a
// chosen filename.
type DownloadHandler struct {
	client       *http.Client
	allowedHosts map[string]bool
	logger       *slog.Logger
}

// NewDownloadHandler creates a DownloadHandler. An empty allowedHosts list
// allows any host.
func NewDownloadHandler(timeout time.Duration, allowedHosts []string, logger *slog.Logger) *DownloadHandler {
	hosts := make(map[string]bool, len(allowedHosts))
	for _, h := range allowedHosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			hosts[h] = true
		}
	}
	return &DownloadHandler{
		client:       &http.Client{Timeout: timeout},
		allowedHosts: hosts,
		logger:       logger,
	}
}

// HandleDownloadCV fetches ?url= and streams it back as an attachment named
// ?name= (default "CV.pdf").
//
// HTTP: GET /api/download-cv?url=...&name=...
func (h *DownloadHandler) HandleDownloadCV(w http.ResponseWriter, r *http.Request) {
	fileURL := r.URL.Query().Get("url")
	if fileURL == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "Missing URL"})
		return
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "CV.pdf"
	}

	target, err := url.Parse(fileURL)
	if err != nil || (target.Scheme != "http" && target.Scheme != "https") || target.Host == "" {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "Invalid URL"})
		return
	}
	if len(h.allowedHosts) > 0 && !h.allowedHosts[strings.ToLower(target.Hostname())] {
		writeError(w, apperror.Forbidden("URL host not allowed"))
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, target.String(), nil)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "Invalid URL"})
		return
	}

	resp, err := h.client.Do(req)
	if err != nil {
		h.logger.Warn("cv download failed", slog.String("host", target.Host), slog.String("error", err.Error()))
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "File not found"})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		h.logger.Warn("cv download upstream status", slog.String("host", target.Host), slog.Int("status", resp.StatusCode))
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "not_found", Message: "File not found"})
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="`+encodeFilename(name)+`"`)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, resp.Body); err != nil {
		h.logger.Warn("cv download interrupted", slog.String("error", err.Error()))
	}
}

// encodeFilename percent-encodes name the way encodeURIComponent does for the
// characters that matter in a header: spaces become %20, not "+".
func encodeFilename(name string) string {
	return strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
}
