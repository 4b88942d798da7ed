package review

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strings"
	"time"

	"JobMatch-backend/internal/resume"
)

// ReviewPath is the scorer endpoint that reviews a resume.
const ReviewPath = "/review_resume/"

// ScorerReviewer forwards the resume to the scoring service.
type ScorerReviewer struct {
	baseURL    string
	httpClient *http.Client
}

// NewScorerReviewer creates a reviewer backed by the scoring service at
// baseURL.
func NewScorerReviewer(baseURL string, timeout time.Duration) *ScorerReviewer {
	return &ScorerReviewer{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: withDefaultTimeout(timeout)},
	}
}

// Review implements Reviewer.
func (s *ScorerReviewer) Review(ctx context.Context, f resume.File) (Result, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	name := filepath.Base(f.Filename)
	if name == "." || name == "/" || name == "" {
		name = "resume" + resume.ExtensionFor(f.ContentType)
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="resume_file"; filename=%q`, name))
	header.Set("Content-Type", f.ContentType)
	part, err := w.CreatePart(header)
	if err != nil {
		return Result{}, err
	}
	if _, err := part.Write(f.Data); err != nil {
		return Result{}, err
	}
	if err := w.Close(); err != nil {
		return Result{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+ReviewPath, body)
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("review request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, fmt.Errorf("failed to read review response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Result{}, fmt.Errorf("reviewer responded with status %d", resp.StatusCode)
	}

	var decoded struct {
		Review       *string `json:"review"`
		Optimization *string `json:"optimization"`
	}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Result{}, fmt.Errorf("malformed review response: %w", err)
	}

	var r Result
	if decoded.Review != nil {
		r.Review = *decoded.Review
	}
	if decoded.Optimization != nil {
		r.Optimization = *decoded.Optimization
	}
	return finish(r)
}
