package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/sakif/student-profiles/internal/apperror"
	"github.com/sakif/student-profiles/internal/storage"
)

const (
	folderImages    = "student-images"
	folderDocuments = "student-documents"
	folderCVs       = "student-cvs"

	pdfMIME = "application/pdf"
	pdfExt  = ".pdf"
)

var (
	whitespace = regexp.MustCompile(`\s+`)
	pdfSuffix  = regexp.MustCompile(`(?i)\.pdf$`)
)

// File is one uploaded multipart file.
type File struct {
	Name        string
	ContentType string
	Body        io.Reader
}

// UploadResult is what the upload endpoints return.
type UploadResult struct {
	URL          string `json:"url"`
	OriginalName string `json:"originalName"`
}

// upload is a buffered file with its detected type.
type upload struct {
	data  []byte
	mime  *mimetype.MIME
	isPDF bool
}

// isImage reports whether the content is a raster image. SVG is refused
// because browsers run script inside it.
func (u upload) isImage() bool {
	return strings.HasPrefix(u.mime.String(), "image/") && !u.mime.Is("image/svg+xml")
}

// UploadService stores profile images and documents on the hosted file store.
type UploadService struct {
	store  storage.Uploader
	now    func() time.Time
	logger *slog.Logger
}

// NewUploadService creates an UploadService over store.
func NewUploadService(store storage.Uploader, logger *slog.Logger) *UploadService {
	return &UploadService{store: store, now: time.Now, logger: logger}
}

// Upload stores an image or a PDF document. PDFs go to the documents folder
// as raw files and get an attachment URL. Images are recognised by content;
// anything else is rejected.
func (s *UploadService) Upload(ctx context.Context, f File) (*UploadResult, error) {
	up, err := s.readFile(f)
	if err != nil {
		return nil, err
	}
	if !up.isPDF && !up.isImage() {
		s.logger.Info("upload rejected",
			slog.String("file", f.Name),
			slog.String("detected", up.mime.String()),
		)
		return nil, apperror.ValidationFailed("file", "Invalid file type")
	}
	data, isPDF := up.data, up.isPDF

	obj := storage.Object{
		Folder:       folderImages,
		PublicID:     s.uniqueID(f.Name),
		ResourceType: storage.ResourceImage,
		Filename:     f.Name,
		Ext:          up.mime.Extension(),
		Body:         bytes.NewReader(data),
	}
	if isPDF {
		obj.Folder = folderDocuments
		obj.ResourceType = storage.ResourceRaw
		obj.Ext = pdfExt
	}

	url, err := s.store.Upload(ctx, obj)
	if err != nil {
		s.logger.Error("upload failed",
			slog.String("file", f.Name),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Upstream("Error uploading file", err)
	}
	if isPDF {
		url = attachmentURL(url)
	}

	s.logger.Info("file uploaded",
		slog.String("folder", obj.Folder),
		slog.String("publicID", obj.PublicID),
		slog.Int("bytes", len(data)),
	)
	return &UploadResult{URL: url, OriginalName: f.Name}, nil
}

// UploadCV stores a CV. Only PDFs are accepted. The public id is derived from
// the file name alone, so uploading the same name again replaces the file.
func (s *UploadService) UploadCV(ctx context.Context, f File) (*UploadResult, error) {
	up, err := s.readFile(f)
	if err != nil {
		return nil, err
	}
	if !up.isPDF {
		return nil, apperror.ValidationFailed("file", "Only PDF files are allowed")
	}
	data := up.data

	obj := storage.Object{
		Folder:       folderCVs,
		PublicID:     pdfSuffix.ReplaceAllString(whitespace.ReplaceAllString(f.Name, "_"), ""),
		ResourceType: storage.ResourceRaw,
		Overwrite:    true,
		Filename:     f.Name,
		Ext:          pdfExt,
		Body:         bytes.NewReader(data),
	}

	url, err := s.store.Upload(ctx, obj)
	if err != nil {
		s.logger.Error("cv upload failed",
			slog.String("file", f.Name),
			slog.String("error", err.Error()),
		)
		return nil, apperror.Upstream("Failed to upload PDF", err)
	}

	s.logger.Info("cv uploaded",
		slog.String("publicID", obj.PublicID),
		slog.Int("bytes", len(data)),
	)
	return &UploadResult{URL: attachmentURL(url), OriginalName: f.Name}, nil
}

// uniqueID builds "<base>_<unix millis>_<random>" with whitespace replaced.
func (s *UploadService) uniqueID(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	id := fmt.Sprintf("%s_%d_%s", base, s.now().UnixMilli(), random)
	return whitespace.ReplaceAllString(id, "_")
}

// readFile buffers the upload and detects its type. A file is a PDF by
// declared type or by content.
func (s *UploadService) readFile(f File) (upload, error) {
	if f.Body == nil {
		return upload{}, apperror.ValidationFailed("file", "No file provided")
	}

	data, err := io.ReadAll(f.Body)
	if err != nil {
		s.logger.Warn("reading upload failed",
			slog.String("file", f.Name),
			slog.String("error", err.Error()),
		)
		return upload{}, apperror.ValidationFailed("file", "Could not read file")
	}

	mime := mimetype.Detect(data)
	return upload{
		data:  data,
		mime:  mime,
		isPDF: f.ContentType == pdfMIME || mime.Is(pdfMIME),
	}, nil
}

// attachmentURL asks the CDN to serve the file as a download.
func attachmentURL(url string) string {
	return strings.Replace(url, "/upload/", "/upload/fl_attachment/", 1)
}
