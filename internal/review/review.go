// Package review produces a free-text review of a resume with optimization
// suggestions. Reviews are stateless and never stored.
package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"JobMatch-backend/internal/config"
	"JobMatch-backend/internal/resume"
)

// Review providers
const (
	ProviderScorer = "scorer"
	ProviderGemini = "gemini"
)

// ErrEmptyReview is returned when the provider answered without any text.
var ErrEmptyReview = errors.New("reviewer returned an empty review")

// Result is the review of one resume.
type Result struct {
	Review       string `json:"review"`
	Optimization string `json:"optimization"`
}

// Reviewer reviews a resume.
type Reviewer interface {
	Review(ctx context.Context, f resume.File) (Result, error)
}

// New creates the reviewer selected by cfg.Provider. The returned close
// function releases provider resources.
func New(ctx context.Context, cfg config.Review, scorer config.Scorer) (Reviewer, func() error, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderScorer:
		return NewScorerReviewer(scorer.URL, scorer.Timeout), func() error { return nil }, nil
	case ProviderGemini:
		g, err := NewGeminiReviewer(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, nil, err
		}
		return g, g.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown review provider %q", cfg.Provider)
	}
}

func withDefaultTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return 60 * time.Second
	}
	return d
}

func finish(r Result) (Result, error) {
	r.Review = strings.TrimSpace(r.Review)
	r.Optimization = strings.TrimSpace(r.Optimization)
	if r.Review == "" && r.Optimization == "" {
		return Result{}, ErrEmptyReview
	}
	return r, nil
}
