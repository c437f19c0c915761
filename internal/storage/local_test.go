package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewLocalStorage(t *testing.T) {
	t.Run("creates directory if not exists", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "data", "uploads")

		storage, err := NewLocalStorage(dir)
		if err != nil {
			t.Fatalf("NewLocalStorage() error = %v", err)
		}

		if storage.UploadDir() != dir {
			t.Errorf("UploadDir() = %v, want %v", storage.UploadDir(), dir)
		}

		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("directory not created: %v", err)
		}
		if !info.IsDir() {
			t.Error("expected directory, got file")
		}
	})

	t.Run("uses default directory when empty", func(t *testing.T) {
		storage, err := NewLocalStorage("")
		if err != nil {
			t.Fatalf("NewLocalStorage() error = %v", err)
		}

		expected := filepath.Join(os.TempDir(), "video-summarizer", "uploads")
		if storage.UploadDir() != expected {
			t.Errorf("UploadDir() = %v, want %v", storage.UploadDir(), expected)
		}
	})
}

func TestUploadName(t *testing.T) {
	at := time.UnixMilli(1718000000123)

	tests := []struct {
		original string
		want     string
	}{
		{"talk.mp4", "talk-1718000000123.mp4"},
		{"My Holiday (1).MOV", "My_Holiday_1-1718000000123.MOV"},
		{"../../etc/passwd", "passwd-1718000000123"},
		{`C:\videos\clip.webm`, "clip-1718000000123.webm"},
		{"", "video-1718000000123"},
		{".mp4", "video-1718000000123.mp4"},
		{"archive.tar.mkv", "archive.tar-1718000000123.mkv"},
	}

	for _, tt := range tests {
		t.Run(tt.original, func(t *testing.T) {
			if got := UploadName(tt.original, at); got != tt.want {
				t.Errorf("UploadName(%q) = %q, want %q", tt.original, got, tt.want)
			}
		})
	}
}

func TestLocalStorage_SaveUpload(t *testing.T) {
	storage := setupTestStorage(t)
	storage.now = func() time.Time { return time.UnixMilli(1700000000000) }
	ctx := context.Background()

	t.Run("saves data under timestamped name", func(t *testing.T) {
		path, err := storage.SaveUpload(ctx, "talk.mp4", bytes.NewReader([]byte("video bytes")))
		if err != nil {
			t.Fatalf("SaveUpload() error = %v", err)
		}

		if filepath.Base(path) != "talk-1700000000000.mp4" {
			t.Errorf("unexpected file name %s", filepath.Base(path))
		}
		if filepath.Dir(path) != storage.UploadDir() {
			t.Errorf("file not in upload dir: %s", path)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read file: %v", err)
		}
		if string(content) != "video bytes" {
			t.Errorf("content = %q, want %q", content, "video bytes")
		}
	})

	t.Run("same name in same millisecond gets next free name", func(t *testing.T) {
		path, err := storage.SaveUpload(ctx, "talk.mp4", strings.NewReader("second"))
		if err != nil {
			t.Fatalf("SaveUpload() error = %v", err)
		}
		if filepath.Base(path) != "talk-1700000000001.mp4" {
			t.Errorf("unexpected file name %s", filepath.Base(path))
		}
	})

	t.Run("failed copy leaves no file", func(t *testing.T) {
		before, _ := os.ReadDir(storage.UploadDir())

		_, err := storage.SaveUpload(ctx, "broken.mp4", &failingReader{})
		if err == nil {
			t.Fatal("expected error")
		}

		after, _ := os.ReadDir(storage.UploadDir())
		if len(after) != len(before) {
			t.Errorf("expected %d files, got %d", len(before), len(after))
		}
	})

	t.Run("respects cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := storage.SaveUpload(cctx, "x.mp4", strings.NewReader("x"))
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestLocalStorage_Remove(t *testing.T) {
	storage := setupTestStorage(t)
	ctx := context.Background()

	p1, _ := storage.SaveUpload(ctx, "a.mp4", strings.NewReader("a"))
	p2, _ := storage.SaveUpload(ctx, "b.mp4", strings.NewReader("b"))

	err := storage.Remove(ctx, []string{p1, filepath.Join(storage.UploadDir(), "already-gone.mp4"), p2})
	if err != nil {
		t.Fatalf("Remove() error = %v", err)
	}

	for _, p := range []string{p1, p2} {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Errorf("expected %s to be removed", p)
		}
	}
}

func TestLocalStorage_UploadToS3(t *testing.T) {
	storage := setupTestStorage(t)

	_, err := storage.UploadToS3(context.Background(), "key", bytes.NewReader([]byte("data")))
	if err != ErrS3NotConfigured {
		t.Errorf("expected ErrS3NotConfigured, got %v", err)
	}
}

type failingReader struct{}

func (f *failingReader) Read([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func setupTestStorage(t *testing.T) *LocalStorage {
	t.Helper()
	storage, err := NewLocalStorage(filepath.Join(t.TempDir(), "uploads"))
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	return storage
}
