package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"JobMatch-backend/internal/model"
)

func testInput() Input {
	return Input{
		Resume:         []byte("%PDF-1.4 resume"),
		Filename:       "alice.pdf",
		ContentType:    "application/pdf",
		JobID:          7,
		JobTitle:       "Backend Engineer",
		JobDescription: "Go and PostgreSQL",
		TargetYears:    3,
		ShortlistSize:  2,
	}
}

func TestScoreResumeSendsForm(t *testing.T) {
	var got map[string]string
	var gotFile []byte
	var gotPartType string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, SubmitPath, r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		got = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			got[k] = v[0]
		}
		f, hdr, err := r.FormFile("resume_file")
		require.NoError(t, err)
		defer f.Close()
		gotFile, _ = io.ReadAll(f)
		gotPartType = hdr.Header.Get("Content-Type")

		_ = json.NewEncoder(w).Encode(map[string]any{
			"similarity": 0.82,
			"reason":     "Strong Go background",
			"skills":     "Go, SQL",
			"projects":   "Payments API",
			"n_years":    4,
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second, t.TempDir())
	analysis, err := c.ScoreResume(context.Background(), testInput())
	require.NoError(t, err)

	assert.Equal(t, model.CVAnalysis{
		Similarity: 0.82,
		Reason:     "Strong Go background",
		Skills:     "Go, SQL",
		Projects:   "Payments API",
		NYears:     4,
	}, analysis)

	assert.Equal(t, "Backend Engineer", got["job_title"])
	assert.Equal(t, "Go and PostgreSQL", got["job_description"])
	assert.Equal(t, "7", got["job_id"])
	assert.Equal(t, "3", got["n_years"])
	assert.Equal(t, "2", got["N"])
	assert.Equal(t, []byte("%PDF-1.4 resume"), gotFile)
	assert.Equal(t, "application/pdf", gotPartType)
}

func TestScoreResumeRemovesStagedFile(t *testing.T) {
	dir := t.TempDir()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entries, err := os.ReadDir(dir)
		assert.NoError(t, err)
		assert.Len(t, entries, 1, "resume should be staged while the request is in flight")
		_, _ = w.Write([]byte(`{"similarity": 0.5}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, time.Second, dir).ScoreResume(context.Background(), testInput())
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestScoreResumeNormalizesPartialResponse(t *testing.T) {
	tests := []struct {
		name string
		body string
		want model.CVAnalysis
	}{
		{
			name: "only similarity",
			body: `{"similarity": 0.4}`,
			want: model.CVAnalysis{Similarity: 0.4, Reason: NoReason},
		},
		{
			name: "empty object",
			body: `{}`,
			want: model.CVAnalysis{Reason: NoReason},
		},
		{
			name: "similarity above range",
			body: `{"similarity": 1.7, "reason": "great"}`,
			want: model.CVAnalysis{Similarity: 1, Reason: "great"},
		},
		{
			name: "negative values",
			body: `{"similarity": -0.2, "n_years": -3}`,
			want: model.CVAnalysis{Reason: NoReason},
		},
		{
			name: "nulls",
			body: `{"similarity": null, "reason": null, "skills": null, "projects": null, "n_years": null}`,
			want: model.CVAnalysis{Reason: NoReason},
		},
		{
			name: "extra fields ignored",
			body: `{"similarity": 0.9, "rank": 1, "skills": "Go"}`,
			want: model.CVAnalysis{Similarity: 0.9, Reason: NoReason, Skills: "Go"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			got, err := NewClient(srv.URL, time.Second, t.TempDir()).ScoreResume(context.Background(), testInput())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.NoError(t, got.Validate())
		})
	}
}

func TestScoreResumeErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		checkFn func(t *testing.T, err error)
	}{
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   "boom",
			checkFn: func(t *testing.T, err error) {
				var se *StatusError
				require.ErrorAs(t, err, &se)
				assert.Equal(t, http.StatusInternalServerError, se.StatusCode)
				assert.Equal(t, "boom", se.Body)
			},
		},
		{
			name:   "not json",
			status: http.StatusOK,
			body:   "<html>oops</html>",
			checkFn: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrMalformedResponse)
			},
		},
		{
			name:   "wrong field type",
			status: http.StatusOK,
			body:   `{"similarity": "high"}`,
			checkFn: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrMalformedResponse)
			},
		},
		{
			name:   "array instead of object",
			status: http.StatusOK,
			body:   `[0.5]`,
			checkFn: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrMalformedResponse)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, time.Second, t.TempDir()).ScoreResume(context.Background(), testInput())
			require.Error(t, err)
			tt.checkFn(t, err)
		})
	}
}

func TestScoreResumeTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	_, err := NewClient(srv.URL, 100*time.Millisecond, t.TempDir()).ScoreResume(context.Background(), testInput())
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestScoreResumeUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, time.Second, t.TempDir()).ScoreResume(context.Background(), testInput())
	assert.Error(t, err)
}

func TestScoreResumeEmpty(t *testing.T) {
	in := testInput()
	in.Resume = nil
	_, err := NewClient("http://127.0.0.1:1", time.Second, t.TempDir()).ScoreResume(context.Background(), in)
	assert.ErrorIs(t, err, ErrEmptyResume)
}

func TestSentinel(t *testing.T) {
	s := Sentinel()
	assert.True(t, s.Failed())
	assert.Equal(t, 0.0, s.Similarity)
	assert.Equal(t, model.CVAnalysisFailedReason, s.Reason)
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, clamp01(-1))
	assert.Equal(t, 0.25, clamp01(0.25))
	assert.Equal(t, 1.0, clamp01(3))
}
