// Package store is the postgres-backed application store.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"JobMatch-backend/internal/model"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

var (
	// ErrDuplicate is returned when the applicant already applied to the job.
	ErrDuplicate = errors.New("application already exists for this job and applicant")
	// ErrJobNotFound is returned when the referenced job does not exist.
	ErrJobNotFound = errors.New("job not found")
	// ErrNotFound is returned when an application does not exist.
	ErrNotFound = errors.New("application not found")
)

// DecideFunc maps each application id to its new status.
type DecideFunc func(apps []model.Application) (map[uint]string, error)

// ApplicationStore reads and writes applications with GORM.
type ApplicationStore struct {
	db *gorm.DB
}

// New creates an ApplicationStore over db.
func New(db *gorm.DB) *ApplicationStore {
	return &ApplicationStore{db: db}
}

// Exists reports whether applicantID already applied to jobID.
func (s *ApplicationStore) Exists(ctx context.Context, jobID uint, applicantID uuid.UUID) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Application{}).
		Where("job_id = ? AND applicant_id = ?", jobID, applicantID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check existing application: %w", err)
	}
	return count > 0, nil
}

// Create inserts app. The unique index on (job_id, applicant_id) decides
// duplicates.
func (s *ApplicationStore) Create(ctx context.Context, app *model.Application) error {
	if app.Status == "" {
		app.Status = model.ApplicationStatusPending
	}
	err := s.db.WithContext(ctx).Omit(clause.Associations).Create(app).Error
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return ErrDuplicate
		case pgForeignKeyViolation:
			if strings.Contains(pgErr.ConstraintName, "job") {
				return ErrJobNotFound
			}
		}
	}
	return fmt.Errorf("failed to create application: %w", err)
}

// jobWithoutApplicants preloads an application's job without the applicant
// index, which holds other applicants' contact details.
func jobWithoutApplicants(db *gorm.DB) *gorm.DB {
	return db.Omit("applicants")
}

// Get loads one application with its applicant and job.
func (s *ApplicationStore) Get(ctx context.Context, id uint) (*model.Application, error) {
	var app model.Application
	err := s.db.WithContext(ctx).Preload("Applicant").Preload("Job", jobWithoutApplicants).First(&app, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load application %d: %w", id, err)
	}
	return &app, nil
}

// ListByJob returns every application of a job in insertion order.
func (s *ApplicationStore) ListByJob(ctx context.Context, jobID uint) ([]model.Application, error) {
	var apps []model.Application
	err := s.db.WithContext(ctx).Preload("Applicant").
		Where("job_id = ?", jobID).
		Order("id ASC").
		Find(&apps).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list applications of job %d: %w", jobID, err)
	}
	return apps, nil
}

// ApplicantFilter narrows a candidate's application list.
type ApplicantFilter struct {
	Status string
	Offset int
	Limit  int
}

// ListByApplicant returns a page of an applicant's applications, newest
// first, and the total count matching the filter.
func (s *ApplicationStore) ListByApplicant(ctx context.Context, applicantID uuid.UUID, f ApplicantFilter) ([]model.Application, int64, error) {
	base := func() *gorm.DB {
		q := s.db.WithContext(ctx).Model(&model.Application{}).Where("applicant_id = ?", applicantID)
		if f.Status != "" && f.Status != "all" {
			q = q.Where("status = ?", f.Status)
		}
		return q
	}

	var (
		apps  []model.Application
		total int64
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		return base().Count(&total).Error
	})
	g.Go(func() error {
		q := base().Preload("Job", jobWithoutApplicants).Order("created_at DESC").Order("id DESC").Offset(f.Offset)
		if f.Limit > 0 {
			q = q.Limit(f.Limit)
		}
		return q.Find(&apps).Error
	})
	if err := g.Wait(); err != nil {
		return nil, 0, fmt.Errorf("failed to list applications: %w", err)
	}
	return apps, total, nil
}

// UpdateStatus sets the status of one application of jobID.
func (s *ApplicationStore) UpdateStatus(ctx context.Context, jobID, appID uint, status string) (*model.Application, error) {
	if !model.IsValidApplicationStatus(status) {
		return nil, fmt.Errorf("invalid status: %s", status)
	}

	res := s.db.WithContext(ctx).Model(&model.Application{}).
		Where("id = ? AND job_id = ?", appID, jobID).
		UpdateColumns(map[string]any{"status": status, "updated_at": time.Now()})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update application status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.Get(ctx, appID)
}

// UpdateAnalysis replaces the stored analysis of an application.
func (s *ApplicationStore) UpdateAnalysis(ctx context.Context, appID uint, analysis model.CVAnalysis) error {
	if err := analysis.Validate(); err != nil {
		return fmt.Errorf("invalid cv analysis: %w", err)
	}
	raw, err := json.Marshal(analysis)
	if err != nil {
		return fmt.Errorf("failed to encode cv analysis: %w", err)
	}
	res := s.db.WithContext(ctx).Model(&model.Application{}).
		Where("id = ?", appID).
		UpdateColumns(map[string]any{"cv_analysis": datatypes.JSON(raw), "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("failed to update cv analysis: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListFailedAnalyses returns applications whose stored analysis is the
// scoring-failure sentinel, optionally limited to one job.
func (s *ApplicationStore) ListFailedAnalyses(ctx context.Context, jobID uint) ([]model.Application, error) {
	q := s.db.WithContext(ctx).Preload("Job", jobWithoutApplicants).
		Where("cv_analysis IS NULL OR cv_analysis->>'reason' = ?", model.CVAnalysisFailedReason)
	if jobID != 0 {
		q = q.Where("job_id = ?", jobID)
	}
	var apps []model.Application
	if err := q.Order("id ASC").Find(&apps).Error; err != nil {
		return nil, fmt.Errorf("failed to list unscored applications: %w", err)
	}
	return apps, nil
}

// MirrorApplicant writes the applicant's summary into the job's applicant
// cache. Each call rewrites only that applicant's key.
func (s *ApplicationStore) MirrorApplicant(ctx context.Context, jobID uint, applicantID uuid.UUID, summary model.ApplicantSummary) error {
	res := s.db.WithContext(ctx).Model(&model.Job{}).
		Where("id = ?", jobID).
		UpdateColumn("applicants", datatypes.JSONSet("applicants").Set("{"+applicantID.String()+"}", summary))
	if res.Error != nil {
		return fmt.Errorf("failed to mirror applicant on job %d: %w", jobID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrJobNotFound
	}
	return nil
}

// ApplyStatuses runs decide over every application of jobID and writes the
// result in one transaction. The job row is locked for the duration so no
// application can be inserted for it concurrently.
func (s *ApplicationStore) ApplyStatuses(ctx context.Context, jobID uint, decide DecideFunc) (map[uint]string, error) {
	var decisions map[uint]string

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job model.Job
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Select("id").First(&job, jobID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrJobNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock job %d: %w", jobID, err)
		}

		var apps []model.Application
		if err := tx.Preload("Applicant").Where("job_id = ?", jobID).Order("id ASC").Find(&apps).Error; err != nil {
			return fmt.Errorf("failed to read applications: %w", err)
		}

		decisions, err = decide(apps)
		if err != nil {
			return err
		}

		groups := make(map[string][]uint)
		for id, status := range decisions {
			if !model.IsValidApplicationStatus(status) {
				return fmt.Errorf("invalid status: %s", status)
			}
			groups[status] = append(groups[status], id)
		}

		statuses := make([]string, 0, len(groups))
		for status := range groups {
			statuses = append(statuses, status)
		}
		sort.Strings(statuses)

		now := time.Now()
		for _, status := range statuses {
			ids := groups[status]
			sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
			res := tx.Model(&model.Application{}).
				Where("job_id = ? AND id IN ?", jobID, ids).
				UpdateColumns(map[string]any{"status": status, "updated_at": now})
			if res.Error != nil {
				return fmt.Errorf("failed to set %s: %w", status, res.Error)
			}
			if res.RowsAffected != int64(len(ids)) {
				return fmt.Errorf("expected to update %d applications to %s, updated %d", len(ids), status, res.RowsAffected)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return decisions, nil
}
