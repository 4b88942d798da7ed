package model

import (
	"fmt"
	"math"
)

// CVAnalysisFailedReason is the reason shown whenever the scorer could not
// produce a result for a resume.
const CVAnalysisFailedReason = "CV analysis failed. Please try again later."

// CVAnalysis is the structured match result between a resume and a job.
type CVAnalysis struct {
	Similarity float64 `json:"similarity"`
	Reason     string  `json:"reason"`
	Skills     string  `json:"skills"`
	Projects   string  `json:"projects"`
	NYears     float64 `json:"n_years"`
}

// FailedCVAnalysis returns the sentinel analysis stored when scoring fails.
func FailedCVAnalysis() CVAnalysis {
	return CVAnalysis{
		Similarity: 0,
		Reason:     CVAnalysisFailedReason,
		Skills:     "",
		Projects:   "",
		NYears:     0,
	}
}

// Failed reports whether the analysis is the scorer-failure sentinel.
func (a CVAnalysis) Failed() bool {
	return a.Similarity == 0 && a.Reason == CVAnalysisFailedReason
}

// Validate checks the value ranges accepted by the applications table.
func (a CVAnalysis) Validate() error {
	if math.IsNaN(a.Similarity) || a.Similarity < 0 || a.Similarity > 1 {
		return fmt.Errorf("similarity must be within [0, 1], got %v", a.Similarity)
	}
	if math.IsNaN(a.NYears) || a.NYears < 0 {
		return fmt.Errorf("n_years must be non-negative, got %v", a.NYears)
	}
	return nil
}
