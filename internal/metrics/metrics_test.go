package metrics

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/video-summarizer/internal/failure"
	"github.com/maauso/video-summarizer/internal/pipeline"
)

func walk(m *Metrics, states []pipeline.State, err error) {
	ctx := context.Background()
	from := pipeline.StateReceived
	for _, to := range states {
		t := pipeline.Transition{From: from, To: to, Elapsed: 100 * time.Millisecond}
		if to == pipeline.StateFailed {
			t.Err = err
		}
		m.OnTransition(ctx, t)
		from = to
	}
}

func TestOnTransition_CompletedRun(t *testing.T) {
	m := New()

	walk(m, []pipeline.State{
		pipeline.StateSampling, pipeline.StateEncoding, pipeline.StateExtractingAudio,
		pipeline.StateTranscribing, pipeline.StateSummarizing, pipeline.StatePersisting,
		pipeline.StateCompleted,
	}, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("COMPLETED")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RunsInProgress))
	assert.Equal(t, 6, testutil.CollectAndCount(m.StageDuration))
	assert.Equal(t, 0, testutil.CollectAndCount(m.StageFailuresTotal))
}

func TestOnTransition_FailedRun(t *testing.T) {
	m := New()
	cause := &pipeline.StageError{
		Stage: pipeline.StateTranscribing,
		Err:   fmt.Errorf("%w: boom", failure.ErrTranscription),
	}

	walk(m, []pipeline.State{
		pipeline.StateSampling, pipeline.StateEncoding, pipeline.StateExtractingAudio,
		pipeline.StateTranscribing, pipeline.StateFailed,
	}, cause)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("FAILED")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.StageFailuresTotal.WithLabelValues("TRANSCRIBING", "transcription")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.RunsInProgress))
}

func TestOnTransition_InProgress(t *testing.T) {
	m := New()

	walk(m, []pipeline.State{pipeline.StateSampling, pipeline.StateEncoding}, nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsInProgress))
}

func TestRecordUpload(t *testing.T) {
	m := New()

	m.RecordUpload(5 << 20)
	m.RecordUpload(1 << 20)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.UploadsTotal))
}

func TestMiddleware_UsesRoutePattern(t *testing.T) {
	m := New()

	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/jobs/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b"} {
		req := httptest.NewRequest(http.MethodGet, "/jobs/"+id, nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/jobs/{id}", "404")))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	m := New()
	m.RecordUpload(1)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "video_summarizer_uploads_total 1"))
	assert.True(t, strings.Contains(string(body), "go_goroutines"))
}
