package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// ErrS3NotConfigured is returned when S3 operations are attempted
// without proper configuration.
var ErrS3NotConfigured = errors.New("S3 storage is not configured")

// maxNameAttempts bounds the retries when two uploads land on the same
// millisecond with the same name.
const maxNameAttempts = 100

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Compile-time check that LocalStorage implements Storage.
var _ Storage = (*LocalStorage)(nil)

// LocalStorage implements Storage on local disk. It does not support S3
// unless wrapped with S3Storage.
type LocalStorage struct {
	uploadDir string
	now       func() time.Time
}

// NewLocalStorage creates a new LocalStorage writing into uploadDir, which is
// created if it doesn't exist.
func NewLocalStorage(uploadDir string) (*LocalStorage, error) {
	if uploadDir == "" {
		uploadDir = filepath.Join(os.TempDir(), "video-summarizer", "uploads")
	}

	if err := os.MkdirAll(uploadDir, 0750); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}

	return &LocalStorage{uploadDir: uploadDir, now: time.Now}, nil
}

// UploadDir returns the uploads directory path.
func (s *LocalStorage) UploadDir() string {
	return s.uploadDir
}

// UploadName builds the stored file name for an upload:
// <name>-<unix millis><ext>. Path components are dropped and characters
// outside [A-Za-z0-9._-] become underscores.
func UploadName(originalName string, at time.Time) string {
	base := filepath.Base(strings.ReplaceAll(originalName, `\`, "/"))
	if base == "." || base == "/" {
		base = ""
	}
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)

	name = strings.Trim(unsafeChars.ReplaceAllString(name, "_"), "._")
	ext = unsafeChars.ReplaceAllString(ext, "")
	if name == "" {
		name = "video"
	}
	return fmt.Sprintf("%s-%d%s", name, at.UnixMilli(), ext)
}

// SaveUpload writes data under a fresh name in the uploads directory.
func (s *LocalStorage) SaveUpload(ctx context.Context, originalName string, data io.Reader) (string, error) {
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	at := s.now()
	var f *os.File
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		path := filepath.Join(s.uploadDir, UploadName(originalName, at))
		var err error
		f, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600) // #nosec G304 - name is sanitized
		if err == nil {
			break
		}
		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("create upload file: %w", err)
		}
		at = at.Add(time.Millisecond)
	}
	if f == nil {
		return "", fmt.Errorf("create upload file: no free name for %q", originalName)
	}

	fileName := f.Name()
	if _, err := io.Copy(f, data); err != nil {
		_ = f.Close()
		_ = os.Remove(fileName)
		return "", fmt.Errorf("write upload file: %w", err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(fileName)
		return "", fmt.Errorf("close upload file: %w", err)
	}

	return fileName, nil
}

// Remove deletes the given files. Missing files are ignored; the first
// other error is returned after every path was tried.
func (s *LocalStorage) Remove(ctx context.Context, paths []string) error {
	var firstErr error
	for _, p := range paths {
		select {
		case <-ctx.Done():
			return fmt.Errorf("context cancelled: %w", ctx.Err())
		default:
		}

		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			if firstErr == nil {
				firstErr = fmt.Errorf("remove file %s: %w", p, err)
			}
		}
	}
	return firstErr
}

// UploadToS3 is not supported by LocalStorage and returns ErrS3NotConfigured.
func (s *LocalStorage) UploadToS3(_ context.Context, _ string, _ io.Reader) (string, error) {
	return "", ErrS3NotConfigured
}
