package media

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/video-summarizer/internal/failure"
)

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("skip")
	require.NoError(t, err)
	assert.Equal(t, PolicySkip, p)

	p, err = ParsePolicy("strict")
	require.NoError(t, err)
	assert.Equal(t, PolicyStrict, p)

	_, err = ParsePolicy("lenient")
	assert.ErrorIs(t, err, ErrUnknownPolicy)
}

func TestNewEncoder_Defaults(t *testing.T) {
	e := NewEncoder("")
	assert.Equal(t, PolicySkip, e.Policy())
	assert.Equal(t, DefaultEncodeConcurrency, e.concurrency)

	e = NewEncoder(PolicyStrict, WithConcurrency(0))
	assert.Equal(t, DefaultEncodeConcurrency, e.concurrency)
}

func TestEncodeFile_RoundTrip(t *testing.T) {
	data := []byte{0x89, 'P', 'N', 'G', 0x00, 0xff, 0x10, 0x80, '\n'}
	path := filepath.Join(t.TempDir(), "frame-001.png")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	payload, err := EncodeFile(path)
	require.NoError(t, err)

	decoded, err := base64.StdEncoding.DecodeString(payload)
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestEncodeFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := EncodeFile(filepath.Join(dir, "frame-001.png"))
	assert.ErrorIs(t, err, failure.ErrIO)

	empty := filepath.Join(dir, "frame-002.png")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	_, err = EncodeFile(empty)
	assert.ErrorIs(t, err, failure.ErrIO)
	assert.ErrorIs(t, err, ErrEmptyFrame)
}

func TestEncoder_Policies(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "frame-001.png", "frame-002.png", "image.jpg")
	paths := []string{
		filepath.Join(dir, "frame-001.png"),
		filepath.Join(dir, "image.jpg"),
		filepath.Join(dir, "frame-002.png"),
	}

	t.Run("strict rejects the whole call", func(t *testing.T) {
		payloads, err := NewEncoder(PolicyStrict).Encode(context.Background(), paths)
		require.Error(t, err)
		assert.ErrorIs(t, err, failure.ErrValidation)
		assert.Nil(t, payloads)
	})

	t.Run("skip drops the mismatch", func(t *testing.T) {
		payloads, err := NewEncoder(PolicySkip).Encode(context.Background(), paths)
		require.NoError(t, err)
		assert.Equal(t, []string{
			base64.StdEncoding.EncodeToString([]byte("frame-001.png")),
			base64.StdEncoding.EncodeToString([]byte("frame-002.png")),
		}, payloads)
	})
}

func TestEncoder_PreservesSequenceOrder(t *testing.T) {
	dir := t.TempDir()
	var paths []string
	// Write in reverse so neither directory nor input order matches sequence order.
	for i := 40; i >= 1; i-- {
		name := FrameName(i)
		writeFiles(t, dir, name)
		paths = append(paths, filepath.Join(dir, name))
	}

	payloads, err := NewEncoder(PolicyStrict, WithConcurrency(8)).Encode(context.Background(), paths)
	require.NoError(t, err)
	require.Len(t, payloads, 40)

	for i, payload := range payloads {
		decoded, err := base64.StdEncoding.DecodeString(payload)
		require.NoError(t, err)
		assert.Equal(t, FrameName(i+1), string(decoded), fmt.Sprintf("payload %d", i))
	}
}

func TestEncoder_ReadFailure(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "frame-001.png")
	paths := []string{
		filepath.Join(dir, "frame-001.png"),
		filepath.Join(dir, "frame-002.png"), // never written
	}

	_, err := NewEncoder(PolicySkip).Encode(context.Background(), paths)
	require.Error(t, err)
	assert.ErrorIs(t, err, failure.ErrIO)
}

func TestEncoder_Empty(t *testing.T) {
	payloads, err := NewEncoder(PolicySkip).Encode(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, payloads)
}
