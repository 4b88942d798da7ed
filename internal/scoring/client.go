// Package scoring talks to the external CV analysis service that rates how
// well a resume matches a job.
package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"JobMatch-backend/internal/model"
	"JobMatch-backend/internal/resume"
)

// SubmitPath is the scorer endpoint that analyses one resume against one job.
const SubmitPath = "/submit_application/"

// DefaultTimeout bounds a single scorer call.
const DefaultTimeout = 60 * time.Second

// NoReason is stored when the scorer omits the reason.
const NoReason = "No reason provided"

// maxResponseBytes caps how much of a scorer response is read.
const maxResponseBytes = 1 << 20

var (
	// ErrEmptyResume is returned when there are no resume bytes to send.
	ErrEmptyResume = errors.New("resume is empty")
	// ErrMalformedResponse is returned when the body is not the expected JSON.
	ErrMalformedResponse = errors.New("malformed scorer response")
)

// StatusError is returned for a non-2xx scorer response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("scorer responded with status %d: %s", e.StatusCode, e.Body)
}

// Input is everything the scorer needs to rate one resume.
type Input struct {
	Resume         []byte
	Filename       string
	ContentType    string
	JobID          uint
	JobTitle       string
	JobDescription string
	TargetYears    int
	ShortlistSize  int
}

// Scorer rates a resume against a job.
type Scorer interface {
	ScoreResume(ctx context.Context, in Input) (model.CVAnalysis, error)
}

// Sentinel is the analysis recorded when scoring fails.
func Sentinel() model.CVAnalysis {
	return model.FailedCVAnalysis()
}

// fields are pointers so missing and zero can be told apart
type scoreResponse struct {
	Similarity *float64 `json:"similarity"`
	Reason     *string  `json:"reason"`
	Skills     *string  `json:"skills"`
	Projects   *string  `json:"projects"`
	NYears     *float64 `json:"n_years"`
}

const responseSchema = `{
  "type": "object",
  "properties": {
    "similarity": {"type": ["number", "null"]},
    "reason":     {"type": ["string", "null"]},
    "skills":     {"type": ["string", "null"]},
    "projects":   {"type": ["string", "null"]},
    "n_years":    {"type": ["number", "null"]}
  }
}`

var compiledSchema = mustCompileSchema(responseSchema)

func mustCompileSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("invalid scorer response schema: %v", err))
	}
	return schema
}

// Client is the HTTP Scorer.
type Client struct {
	baseURL    string
	timeout    time.Duration
	tempDir    string
	httpClient *http.Client
}

// NewClient creates a scorer client for baseURL. A zero timeout uses
// DefaultTimeout and an empty tempDir uses os.TempDir.
func NewClient(baseURL string, timeout time.Duration, tempDir string) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		tempDir:    tempDir,
		httpClient: &http.Client{},
	}
}

// ScoreResume sends the resume and job details to the scorer and returns the
// normalized analysis.
func (c *Client) ScoreResume(ctx context.Context, in Input) (model.CVAnalysis, error) {
	if len(in.Resume) == 0 {
		return model.CVAnalysis{}, ErrEmptyResume
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	staged, err := c.stage(in)
	if err != nil {
		return model.CVAnalysis{}, err
	}
	defer func() {
		_ = staged.Close()
		_ = os.Remove(staged.Name())
	}()

	body, contentType, err := buildForm(staged, in)
	if err != nil {
		return model.CVAnalysis{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+SubmitPath, body)
	if err != nil {
		return model.CVAnalysis{}, fmt.Errorf("failed to build scorer request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.CVAnalysis{}, fmt.Errorf("scorer request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return model.CVAnalysis{}, fmt.Errorf("failed to read scorer response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.CVAnalysis{}, &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(raw), 200)}
	}

	return parseResponse(raw)
}

// stage writes the resume to a temp file. The caller closes and removes it.
func (c *Client) stage(in Input) (*os.File, error) {
	ext := filepath.Ext(in.Filename)
	if ext == "" {
		ext = resume.ExtensionFor(in.ContentType)
	}

	f, err := os.CreateTemp(c.tempDir, "resume-*"+ext)
	if err != nil {
		return nil, fmt.Errorf("failed to stage resume: %w", err)
	}
	if _, err := f.Write(in.Resume); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("failed to stage resume: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return nil, fmt.Errorf("failed to stage resume: %w", err)
	}
	return f, nil
}

func buildForm(staged *os.File, in Input) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	filename := in.Filename
	if filename == "" {
		filename = filepath.Base(staged.Name())
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="resume_file"; filename="%s"`, escapeQuotes(filepath.Base(filename))))
	header.Set("Content-Type", resume.ContentTypeForExtension(filename))
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build scorer form: %w", err)
	}
	if _, err := io.Copy(part, staged); err != nil {
		return nil, "", fmt.Errorf("failed to build scorer form: %w", err)
	}

	fields := [][2]string{
		{"job_title", in.JobTitle},
		{"job_description", in.JobDescription},
		{"job_id", strconv.FormatUint(uint64(in.JobID), 10)},
		{"n_years", strconv.Itoa(in.TargetYears)},
		{"N", strconv.Itoa(in.ShortlistSize)},
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("failed to build scorer form: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to build scorer form: %w", err)
	}
	return body, w.FormDataContentType(), nil
}

func parseResponse(raw []byte) (model.CVAnalysis, error) {
	result, err := compiledSchema.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return model.CVAnalysis{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			msgs = append(msgs, desc.String())
		}
		return model.CVAnalysis{}, fmt.Errorf("%w: %s", ErrMalformedResponse, strings.Join(msgs, "; "))
	}

	var decoded scoreResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return model.CVAnalysis{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return normalize(decoded), nil
}

func normalize(r scoreResponse) model.CVAnalysis {
	out := model.CVAnalysis{Reason: NoReason}
	if r.Similarity != nil {
		out.Similarity = clamp01(*r.Similarity)
	}
	if r.Reason != nil && strings.TrimSpace(*r.Reason) != "" {
		out.Reason = *r.Reason
	}
	if r.Skills != nil {
		out.Skills = *r.Skills
	}
	if r.Projects != nil {
		out.Projects = *r.Projects
	}
	if r.NYears != nil && *r.NYears > 0 && !math.IsInf(*r.NYears, 0) {
		out.NYears = *r.NYears
	}
	return out
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
