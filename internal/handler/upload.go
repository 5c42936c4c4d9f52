package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/student-profiles/internal/service"
)

// UploadHandler accepts multipart file uploads and stores them through the
// upload service.
type UploadHandler struct {
	uploads  *service.UploadService
	maxBytes int64
	logger   *slog.Logger
}

// NewUploadHandler creates an UploadHandler. Request bodies over maxBytes are
// rejected with 400.
func NewUploadHandler(uploads *service.UploadService, maxBytes int64, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{uploads: uploads, maxBytes: maxBytes, logger: logger}
}

// HandleUpload stores an image or a PDF document.
//
// HTTP: POST /api/upload (multipart/form-data, field "file")
// RESPONSE: {"url": "...", "originalName": "photo.png"}
func (h *UploadHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, h.uploads.Upload)
}

// HandleUploadCV stores a CV. PDFs only.
//
// HTTP: POST /api/upload/cv (multipart/form-data, field "file")
func (h *UploadHandler) HandleUploadCV(w http.ResponseWriter, r *http.Request) {
	h.handle(w, r, h.uploads.UploadCV)
}

type uploadFunc func(ctx context.Context, f service.File) (*service.UploadResult, error)

func (h *UploadHandler) handle(w http.ResponseWriter, r *http.Request, upload uploadFunc) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.Warn("upload rejected: body too large", slog.Int64("limit", h.maxBytes))
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "File too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "validation_error", Message: "No file provided"})
		return
	}
	defer file.Close()

	res, err := upload(r.Context(), service.File{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Body:        file,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
