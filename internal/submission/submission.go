// Package submission turns a candidate's upload into a stored, scored
// application.
package submission

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"JobMatch-backend/internal/apperror"
	"JobMatch-backend/internal/model"
	"JobMatch-backend/internal/resume"
	"JobMatch-backend/internal/scoring"
	"JobMatch-backend/internal/storage"
	"JobMatch-backend/internal/store"
)

// Store is the part of the application store used by submissions.
type Store interface {
	Exists(ctx context.Context, jobID uint, applicantID uuid.UUID) (bool, error)
	Create(ctx context.Context, app *model.Application) error
	MirrorApplicant(ctx context.Context, jobID uint, applicantID uuid.UUID, summary model.ApplicantSummary) error
}

// JobSnapshot is the job data sent to the scorer.
type JobSnapshot struct {
	Title             string `validate:"required"`
	Description       string
	YearsOfExperience int `validate:"gte=0"`
	ShortlistSize     int `validate:"gte=0"`
}

// SnapshotOf takes the scoring snapshot of job. The requirements are
// appended to the description.
func SnapshotOf(job model.Job) JobSnapshot {
	return JobSnapshot{
		Title:             job.Title,
		Description:       strings.TrimSpace(job.Description + "\n" + job.Requirements),
		YearsOfExperience: job.YearsOfExperience,
		ShortlistSize:     job.ShortlistSize,
	}
}

// Request is one candidate submission.
type Request struct {
	JobID       uint      `validate:"required"`
	ApplicantID uuid.UUID `validate:"required"`
	Resume      resume.File
	CoverLetter *string `validate:"omitempty,max=10000"`
	Contact     model.ContactInfo
	Job         JobSnapshot
}

// Service runs the submission pipeline.
type Service struct {
	Store    Store
	Resumes  storage.ResumeStorage
	Scorer   scoring.Scorer
	validate *validator.Validate
}

// NewService creates a submission service.
func NewService(st Store, resumes storage.ResumeStorage, scorer scoring.Scorer) *Service {
	return &Service{
		Store:    st,
		Resumes:  resumes,
		Scorer:   scorer,
		validate: validator.New(),
	}
}

// Submit validates req, stores the resume, scores it and records the
// application. A scorer failure never fails the submission: the application
// is stored with the sentinel analysis instead.
func (s *Service) Submit(ctx context.Context, req Request) (*model.Application, error) {
	if err := s.validateRequest(&req); err != nil {
		return nil, err
	}

	resumeURL, err := s.Resumes.Save(ctx, req.Resume)
	if err != nil {
		return nil, apperror.NewStorage("Failed to store resume", err)
	}

	exists, err := s.Store.Exists(ctx, req.JobID, req.ApplicantID)
	if err != nil {
		s.discardResume(ctx, resumeURL)
		return nil, apperror.NewStorage("Failed to check existing applications", err)
	}
	if exists {
		s.discardResume(ctx, resumeURL)
		return nil, apperror.NewDuplicate("You have already applied to this job")
	}

	analysis := s.score(ctx, req)

	app := &model.Application{
		JobID:       req.JobID,
		ApplicantID: req.ApplicantID,
		ResumeURL:   resumeURL,
		CoverLetter: req.CoverLetter,
		Status:      model.ApplicationStatusPending,
		CVAnalysis:  &analysis,
		ContactInfo: req.Contact,
	}
	if err := s.Store.Create(ctx, app); err != nil {
		s.discardResume(ctx, resumeURL)
		switch {
		case errors.Is(err, store.ErrDuplicate):
			return nil, apperror.NewDuplicate("You have already applied to this job")
		case errors.Is(err, store.ErrJobNotFound):
			return nil, apperror.NewValidation("Job not found")
		default:
			return nil, apperror.NewStorage("Failed to save application", err)
		}
	}

	if err := s.Store.MirrorApplicant(ctx, app.JobID, app.ApplicantID, app.Summary()); err != nil {
		log.Printf("submission: failed to mirror application %d onto job %d: %v", app.ID, app.JobID, err)
	}

	return app, nil
}

func (s *Service) validateRequest(req *Request) error {
	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Namespace())
			}
			return apperror.New(apperror.Validation, "Invalid submission: "+strings.Join(fields, ", "), err)
		}
		return apperror.New(apperror.Validation, "Invalid submission", err)
	}

	if len(req.Resume.Data) == 0 {
		return apperror.NewValidation("Resume file is required")
	}

	ct, err := resume.ResolveContentType(req.Resume)
	if err != nil {
		return apperror.New(apperror.Validation, "Only PDF, DOC and DOCX resumes are accepted", err)
	}
	req.Resume.ContentType = ct

	for _, link := range []*string{req.Contact.LinkedinProfile, req.Contact.PortfolioWebsite} {
		if link == nil || *link == "" {
			continue
		}
		if err := s.validate.Var(*link, "url"); err != nil {
			return apperror.New(apperror.Validation, "Invalid link: "+*link, err)
		}
	}
	return nil
}

func (s *Service) score(ctx context.Context, req Request) model.CVAnalysis {
	if s.Scorer == nil {
		return scoring.Sentinel()
	}

	analysis, err := s.Scorer.ScoreResume(ctx, scoring.Input{
		Resume:         req.Resume.Data,
		Filename:       req.Resume.Filename,
		ContentType:    req.Resume.ContentType,
		JobID:          req.JobID,
		JobTitle:       req.Job.Title,
		JobDescription: req.Job.Description,
		TargetYears:    req.Job.YearsOfExperience,
		ShortlistSize:  req.Job.ShortlistSize,
	})
	if err != nil {
		log.Printf("submission: scoring failed for job %d: %v", req.JobID, err)
		return scoring.Sentinel()
	}
	if err := analysis.Validate(); err != nil {
		log.Printf("submission: scorer returned invalid analysis for job %d: %v", req.JobID, err)
		return scoring.Sentinel()
	}
	return analysis
}

func (s *Service) discardResume(ctx context.Context, uri string) {
	if err := s.Resumes.Delete(context.WithoutCancel(ctx), uri); err != nil {
		log.Printf("submission: failed to delete resume %s: %v", uri, err)
	}
}
