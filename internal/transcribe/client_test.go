package transcribe

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/video-summarizer/internal/failure"
)

func writeAudio(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "talk.mp3")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNewClient_MissingAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := NewClient("")
	assert.ErrorIs(t, err, ErrAPIKeyNotSet)
}

func TestNewClient_FromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")

	c, err := NewClient("")
	require.NoError(t, err)
	assert.Equal(t, DefaultModel, c.model)
}

func TestNewClient_Options(t *testing.T) {
	hc := &http.Client{}
	c, err := NewClient("key", WithModel("gpt-4o-transcribe"), WithLanguage("en"), WithHTTPClient(hc))
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-transcribe", c.model)
	assert.Equal(t, "en", c.language)
	assert.Same(t, hc, c.httpClient)
}

func TestTranscribe_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "text", r.FormValue("response_format"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "talk.mp3", header.Filename)
		body, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "fake-mp3-bytes", string(body))

		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("  hello from the video\n"))
	}))
	defer server.Close()

	c, err := NewClient("test-key", WithBaseURL(server.URL+"/v1"))
	require.NoError(t, err)

	text, err := c.Transcribe(context.Background(), writeAudio(t, "fake-mp3-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "hello from the video", text)
}

func TestTranscribe_UpstreamErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"model overloaded","type":"server_error"}}`))
	}))
	defer server.Close()

	c, err := NewClient("test-key", WithBaseURL(server.URL+"/v1"))
	require.NoError(t, err)

	_, err = c.Transcribe(context.Background(), writeAudio(t, "bytes"))
	require.Error(t, err)
	assert.ErrorIs(t, err, failure.ErrTranscription)
	assert.Contains(t, err.Error(), "model overloaded")
	assert.Equal(t, int32(1), calls.Load())
}

func TestTranscribe_MissingFile(t *testing.T) {
	c, err := NewClient("test-key", WithBaseURL("http://127.0.0.1:0/v1"))
	require.NoError(t, err)

	_, err = c.Transcribe(context.Background(), filepath.Join(t.TempDir(), "absent.mp3"))
	assert.ErrorIs(t, err, failure.ErrTranscription)
}
