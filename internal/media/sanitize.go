package media

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/maauso/video-summarizer/internal/failure"
)

// ClearFrames removes every sampled frame file from dir and leaves all
// other entries untouched. It attempts every deletion before returning;
// failed deletions are joined into a single error. Nothing is rolled back.
func ClearFrames(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("%w: list %s: %w", failure.ErrIO, dir, err)
	}

	var errs []error
	for _, entry := range entries {
		if entry.IsDir() || !IsFrameName(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("remove %s: %w", path, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: clear frames in %s: %w", failure.ErrIO, dir, errors.Join(errs...))
	}
	return nil
}
