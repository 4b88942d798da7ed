package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Application statuses
const (
	// ApplicationStatusPending indicates that the application was just submitted
	ApplicationStatusPending = "pending"
	// ApplicationStatusReviewing indicates that the application made the shortlist and is being reviewed
	ApplicationStatusReviewing = "reviewing"
	// ApplicationStatusShortlisted indicates that the recruiter shortlisted the application by hand
	ApplicationStatusShortlisted = "shortlisted"
	// ApplicationStatusInterviewing indicates that the candidate is in the interview process
	ApplicationStatusInterviewing = "interviewing"
	// ApplicationStatusAccepted indicates that the candidate got an offer
	ApplicationStatusAccepted = "accepted"
	// ApplicationStatusRejected indicates that the application has been rejected
	ApplicationStatusRejected = "rejected"
)

// ApplicationStatuses lists every status an application can be in.
var ApplicationStatuses = []string{
	ApplicationStatusPending,
	ApplicationStatusReviewing,
	ApplicationStatusShortlisted,
	ApplicationStatusInterviewing,
	ApplicationStatusAccepted,
	ApplicationStatusRejected,
}

// IsValidApplicationStatus reports whether status is one of ApplicationStatuses.
func IsValidApplicationStatus(status string) bool {
	for _, s := range ApplicationStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// ContactInfo is the free-form contact data a candidate attaches to an application
type ContactInfo struct {
	PhoneNumber      string  `gorm:"type:text" json:"phoneNumber"`
	LinkedinProfile  *string `gorm:"type:text" json:"linkedinProfile"`
	PortfolioWebsite *string `gorm:"type:text" json:"portfolioWebsite"`
}

// Application represents one candidate's submission to one job.
// (job_id, applicant_id) is unique.
type Application struct {
	ID uint `gorm:"primaryKey;autoIncrement" json:"id"`

	JobID uint `gorm:"not null;uniqueIndex:idx_application_job_applicant,priority:1" json:"jobId"`
	Job   *Job `gorm:"foreignKey:JobID;references:ID" json:"job,omitempty"`

	ApplicantID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_application_job_applicant,priority:2;index" json:"applicantId"`
	Applicant   User      `gorm:"foreignKey:ApplicantID;references:ID;constraint:OnDelete:CASCADE" json:"applicant"`

	ResumeURL   string      `gorm:"type:text;not null" json:"resumeUrl"`
	CoverLetter *string     `gorm:"type:text" json:"coverLetter"`
	Status      string      `gorm:"type:text;not null;default:'pending'" json:"status"`
	CVAnalysis  *CVAnalysis `gorm:"type:jsonb;serializer:json" json:"cvAnalysis"`
	ContactInfo `gorm:"embedded"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// BeforeSave validates the status and analysis before they reach the table.
func (a *Application) BeforeSave(tx *gorm.DB) error {
	if a.Status == "" {
		a.Status = ApplicationStatusPending
	}
	if !IsValidApplicationStatus(a.Status) {
		return fmt.Errorf("invalid status: %s", a.Status)
	}
	if a.CVAnalysis != nil {
		if err := a.CVAnalysis.Validate(); err != nil {
			return fmt.Errorf("invalid cv analysis: %w", err)
		}
	}
	return nil
}

// Similarity returns the match score used for ranking, 0 when the
// application has no analysis.
func (a *Application) Similarity() float64 {
	if a.CVAnalysis == nil {
		return 0
	}
	return a.CVAnalysis.Similarity
}

// Summary builds the cache entry stored in Job.Applicants for an application.
func (a *Application) Summary() ApplicantSummary {
	analysis := FailedCVAnalysis()
	if a.CVAnalysis != nil {
		analysis = *a.CVAnalysis
	}
	return ApplicantSummary{
		ApplicationID:    a.ID,
		Similarity:       analysis.Similarity,
		Reason:           analysis.Reason,
		Skills:           analysis.Skills,
		Projects:         analysis.Projects,
		NYears:           analysis.NYears,
		PhoneNumber:      a.PhoneNumber,
		LinkedinProfile:  a.LinkedinProfile,
		PortfolioWebsite: a.PortfolioWebsite,
	}
}
