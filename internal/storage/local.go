package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Local stores objects on the server's filesystem under basePath and serves
// them from baseURL. It is the development backend and the one used in tests.
type Local struct {
	basePath string
	baseURL  string
	logger   *slog.Logger
}

var _ Uploader = (*Local)(nil)

// NewLocal creates basePath if needed.
func NewLocal(basePath, baseURL string, logger *slog.Logger) (*Local, error) {
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("local storage: creating %s: %w", basePath, err)
	}
	return &Local{
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   logger,
	}, nil
}

// Upload writes obj to <basePath>/<folder>/<publicID><ext>. Without Overwrite
// an existing file is an error. An empty PublicID gets a random uuid.
func (l *Local) Upload(ctx context.Context, obj Object) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	folder := safeName(obj.Folder)
	publicID := safeName(obj.PublicID)
	if publicID == "" {
		publicID = uuid.NewString()
	}
	ext := obj.Ext
	if ext == "" {
		ext = filepath.Ext(obj.Filename)
	}
	name := publicID + strings.ToLower(ext)

	dir := filepath.Join(l.basePath, folder)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("local storage: creating %s: %w", dir, err)
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if obj.Overwrite {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}

	dstPath := filepath.Join(dir, name)
	dst, err := os.OpenFile(dstPath, flags, 0o644)
	if err != nil {
		return "", fmt.Errorf("local storage: creating %s: %w", dstPath, err)
	}

	if _, err := io.Copy(dst, obj.Body); err != nil {
		dst.Close()
		_ = os.Remove(dstPath)
		return "", fmt.Errorf("local storage: writing %s: %w", dstPath, err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("local storage: closing %s: %w", dstPath, err)
	}

	url := l.baseURL + "/" + name
	if folder != "" {
		url = l.baseURL + "/" + folder + "/" + name
	}
	l.logger.Debug("file stored",
		slog.String("path", dstPath),
		slog.String("url", url),
	)
	return url, nil
}

// safeName reduces s to a single path element so callers cannot escape the
// storage root.
func safeName(s string) string {
	s = filepath.Base(filepath.Clean("/" + s))
	if s == "/" || s == "." {
		return ""
	}
	return s
}
