package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultShortlistSize is used when a job is created without a shortlist size.
const DefaultShortlistSize = 5

// EditableJobInfo is part of job that can be edited by its recruiter
type EditableJobInfo struct {
	Title             string         `gorm:"type:text;not null" json:"title"`
	Company           string         `gorm:"type:text" json:"company"`
	Location          string         `gorm:"type:text" json:"location"`
	Description       string         `gorm:"type:text" json:"description"`
	Requirements      string         `gorm:"type:text" json:"requirements"`
	JobType           string         `gorm:"type:text" json:"jobType"`
	ExperienceLevel   string         `gorm:"type:text" json:"experienceLevel"`
	Industry          string         `gorm:"type:text" json:"industry"`
	Salary            *string        `gorm:"type:text" json:"salary"`
	IsRemote          bool           `gorm:"type:boolean;default:false" json:"isRemote"`
	YearsOfExperience int            `gorm:"not null;default:0" json:"yearsOfExperience"`
	NumberOfRoles     int            `gorm:"not null;default:1" json:"numberOfRoles"`
	ShortlistSize     int            `gorm:"not null;default:5;check:chk_jobs_shortlist_size,shortlist_size >= 1" json:"shortlistSize"`
	Tags              pq.StringArray `gorm:"type:text[]" json:"tags"`
	ContactEmail      *string        `gorm:"type:text" json:"contactEmail"`
	ApplicationURL    *string        `gorm:"type:text" json:"applicationUrl"`
	Expiring          *time.Time     `gorm:"type:timestamp" json:"expiresAt,omitempty"`
}

// ApplicantSummary is the lightweight score summary mirrored onto a job for
// fast recruiter listings. It can lag behind the application record.
type ApplicantSummary struct {
	ApplicationID    uint    `json:"applicationId"`
	Similarity       float64 `json:"similarity"`
	Reason           string  `json:"reason"`
	Skills           string  `json:"skills"`
	Projects         string  `json:"projects"`
	NYears           float64 `json:"n_years"`
	PhoneNumber      string  `json:"phoneNumber"`
	LinkedinProfile  *string `json:"linkedinProfile"`
	PortfolioWebsite *string `json:"portfolioWebsite"`
}

// ApplicantIndex maps applicant id to its summary.
type ApplicantIndex map[string]ApplicantSummary

// Job is gorm model for store job data in DB
type Job struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	RecruiterID uuid.UUID `gorm:"type:uuid;not null;index;<-:create" json:"recruiterId"`
	Recruiter   User      `gorm:"foreignKey:RecruiterID;references:ID" json:"recruiter"`
	EditableJobInfo
	IsActive     bool                               `gorm:"type:boolean;not null;default:true" json:"isActive"`
	Applicants   datatypes.JSONType[ApplicantIndex] `gorm:"type:jsonb;not null;default:'{}'" json:"applicants"`
	PostTime     time.Time                          `gorm:"type:timestamp;default:CURRENT_TIMESTAMP;<-:create" json:"createdAt"`
	UpdatedAt    time.Time                          `json:"updatedAt"`
	Applications []Application                      `gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE" json:"-"`
}

// ErrInvalidShortlistSize is returned when a job would be saved with a
// shortlist size below one.
var ErrInvalidShortlistSize = errors.New("shortlistSize must be at least 1")

// BeforeCreate fills defaults for a new job.
func (j *Job) BeforeCreate(tx *gorm.DB) error {
	if j.ShortlistSize == 0 {
		j.ShortlistSize = DefaultShortlistSize
	}
	if j.NumberOfRoles == 0 {
		j.NumberOfRoles = 1
	}
	if j.Applicants.Data() == nil {
		j.Applicants = datatypes.NewJSONType(ApplicantIndex{})
	}
	return j.Validate()
}

// AfterFind keeps the applicant index a JSON object when the column was
// not selected.
func (j *Job) AfterFind(tx *gorm.DB) error {
	if j.Applicants.Data() == nil {
		j.Applicants = datatypes.NewJSONType(ApplicantIndex{})
	}
	return nil
}

// Validate checks the job invariants that must hold before a write.
func (j *Job) Validate() error {
	if j.ShortlistSize < 1 {
		return ErrInvalidShortlistSize
	}
	if j.NumberOfRoles < 0 || j.YearsOfExperience < 0 {
		return errors.New("numberOfRoles and yearsOfExperience must not be negative")
	}
	return nil
}
