package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/student-profiles/internal/apperror"
	"github.com/sakif/student-profiles/internal/storage"
)

const pdfBytes = "%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n"

// pngHeader is the 8-byte PNG signature plus an IHDR chunk start.
const pngHeader = "\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"

func newTestUploadService(up *fakeUploader) *UploadService {
	svc := NewUploadService(up, testLogger())
	svc.now = func() time.Time { return time.UnixMilli(1700000000000) }
	return svc
}

func TestUpload_Image(t *testing.T) {
	up := &fakeUploader{}
	svc := newTestUploadService(up)

	res, err := svc.Upload(context.Background(), File{
		Name:        "my photo.png",
		ContentType: "image/png",
		Body:        strings.NewReader(pngHeader),
	})
	require.NoError(t, err)

	assert.Equal(t, "my photo.png", res.OriginalName)
	assert.Equal(t, "student-images", up.last.Folder)
	assert.Equal(t, storage.ResourceImage, up.last.ResourceType)
	assert.Regexp(t, `^my_photo_1700000000000_[0-9a-f]{12}$`, up.last.PublicID)
	assert.NotContains(t, res.URL, "fl_attachment")
	assert.Equal(t, pngHeader, string(up.body))
	assert.Equal(t, ".png", up.last.Ext)
}

func TestUpload_ExtensionFollowsContent(t *testing.T) {
	up := &fakeUploader{}
	svc := newTestUploadService(up)

	_, err := svc.Upload(context.Background(), File{Name: "avatar.html", ContentType: "text/html", Body: strings.NewReader(pngHeader)})
	require.NoError(t, err)
	assert.Equal(t, ".png", up.last.Ext, "the client extension must not survive")
}

func TestUpload_RejectsNonImageContent(t *testing.T) {
	tests := []struct {
		name, filename, contentType, body string
	}{
		{"html page", "evil.html", "text/html", "<!DOCTYPE html><html><script>alert(1)</script></html>"},
		{"html claiming png", "evil.png", "image/png", "<html><script>alert(1)</script></html>"},
		{"svg", "logo.svg", "image/svg+xml", `<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`},
		{"plain text", "notes.txt", "text/plain", "just some notes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := &fakeUploader{}
			svc := newTestUploadService(up)

			_, err := svc.Upload(context.Background(), File{Name: tt.filename, ContentType: tt.contentType, Body: strings.NewReader(tt.body)})
			require.ErrorIs(t, err, apperror.ErrValidation)

			var appErr *apperror.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, "Invalid file type", appErr.Message)
			assert.Empty(t, up.last.Folder, "nothing may be uploaded")
		})
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestUpload_ReadFailureIsValidation(t *testing.T) {
	svc := newTestUploadService(&fakeUploader{})

	_, err := svc.Upload(context.Background(), File{Name: "a.png", Body: failingReader{}})
	require.ErrorIs(t, err, apperror.ErrValidation)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "Could not read file", appErr.Message)
}

func TestUpload_PDFByDeclaredType(t *testing.T) {
	up := &fakeUploader{}
	svc := newTestUploadService(up)

	res, err := svc.Upload(context.Background(), File{
		Name:        "transcript.pdf",
		ContentType: "application/pdf",
		Body:        strings.NewReader("not really a pdf"),
	})
	require.NoError(t, err)

	assert.Equal(t, "student-documents", up.last.Folder)
	assert.Equal(t, storage.ResourceRaw, up.last.ResourceType)
	assert.Equal(t, ".pdf", up.last.Ext)
	assert.Contains(t, res.URL, "/raw/upload/fl_attachment/v1/student-documents/")
}

func TestUpload_PDFBySniffing(t *testing.T) {
	up := &fakeUploader{}
	svc := newTestUploadService(up)

	_, err := svc.Upload(context.Background(), File{
		Name:        "scan.bin",
		ContentType: "application/octet-stream",
		Body:        strings.NewReader(pdfBytes),
	})
	require.NoError(t, err)
	assert.Equal(t, "student-documents", up.last.Folder)
}

func TestUpload_StoreFailure(t *testing.T) {
	svc := newTestUploadService(&fakeUploader{err: errors.New("503 from cdn")})

	_, err := svc.Upload(context.Background(), File{Name: "a.png", Body: strings.NewReader(pngHeader)})
	require.ErrorIs(t, err, apperror.ErrUpstream)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "Error uploading file", appErr.Message)
}

func TestUpload_NoBody(t *testing.T) {
	svc := newTestUploadService(&fakeUploader{})

	_, err := svc.Upload(context.Background(), File{Name: "a.png"})
	assert.ErrorIs(t, err, apperror.ErrValidation)
}

func TestUploadCV(t *testing.T) {
	up := &fakeUploader{}
	svc := newTestUploadService(up)

	res, err := svc.UploadCV(context.Background(), File{
		Name:        "Ada Lovelace CV.PDF",
		ContentType: "application/pdf",
		Body:        strings.NewReader(pdfBytes),
	})
	require.NoError(t, err)

	assert.Equal(t, "student-cvs", up.last.Folder)
	assert.Equal(t, "Ada_Lovelace_CV", up.last.PublicID)
	assert.True(t, up.last.Overwrite)
	assert.Equal(t, storage.ResourceRaw, up.last.ResourceType)
	assert.Equal(t, "https://res.cloudinary.com/demo/raw/upload/fl_attachment/v1/student-cvs/Ada_Lovelace_CV", res.URL)
	assert.Equal(t, "Ada Lovelace CV.PDF", res.OriginalName)
}

func TestUploadCV_RejectsNonPDF(t *testing.T) {
	up := &fakeUploader{}
	svc := newTestUploadService(up)

	_, err := svc.UploadCV(context.Background(), File{
		Name:        "cv.docx",
		ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		Body:        strings.NewReader("PK\x03\x04"),
	})
	require.ErrorIs(t, err, apperror.ErrValidation)

	var appErr *apperror.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "Only PDF files are allowed", appErr.Message)
	assert.Empty(t, up.last.Folder, "nothing may be uploaded")
}
