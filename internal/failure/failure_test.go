package failure

import (
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"io", fmt.Errorf("%w: list dir: %w", ErrIO, os.ErrNotExist), "io"},
		{"extraction", fmt.Errorf("%w: ffmpeg", ErrExtraction), "extraction"},
		{"validation", ErrValidation, "validation"},
		{"transcription", fmt.Errorf("wrap: %w", ErrTranscription), "transcription"},
		{"summarization", ErrSummarization, "summarization"},
		{"persistence", ErrPersistence, "persistence"},
		{"unknown", errors.New("boom"), "unknown"},
		{"nil", nil, "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestHasKind(t *testing.T) {
	assert.True(t, HasKind(fmt.Errorf("%w: x", ErrPersistence)))
	assert.False(t, HasKind(errors.New("plain")))
}
