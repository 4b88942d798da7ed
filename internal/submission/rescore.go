package submission

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"JobMatch-backend/internal/model"
	"JobMatch-backend/internal/scoring"
)

// RescoreStore is the part of the application store used by Rescorer.
type RescoreStore interface {
	ListFailedAnalyses(ctx context.Context, jobID uint) ([]model.Application, error)
	UpdateAnalysis(ctx context.Context, appID uint, analysis model.CVAnalysis) error
	MirrorApplicant(ctx context.Context, jobID uint, applicantID uuid.UUID, summary model.ApplicantSummary) error
}

// ResumeReader loads a stored resume back.
type ResumeReader interface {
	ReadAll(ctx context.Context, uri string) (*model.File, []byte, error)
}

// RescoreReport counts what a rescore run did.
type RescoreReport struct {
	Attempted int
	Rescored  int
	Failed    int
}

// Rescorer retries scoring for applications stored with the failure sentinel.
type Rescorer struct {
	Store   RescoreStore
	Resumes ResumeReader
	Scorer  scoring.Scorer
}

// Rescore scores every failed application of jobID again, or of every job
// when jobID is 0. Applications that still cannot be scored keep the
// sentinel. Only listing errors abort the run.
func (r *Rescorer) Rescore(ctx context.Context, jobID uint) (RescoreReport, error) {
	apps, err := r.Store.ListFailedAnalyses(ctx, jobID)
	if err != nil {
		return RescoreReport{}, err
	}

	report := RescoreReport{Attempted: len(apps)}
	for i := range apps {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := r.rescoreOne(ctx, &apps[i]); err != nil {
			log.Printf("rescore: application %d: %v", apps[i].ID, err)
			report.Failed++
			continue
		}
		report.Rescored++
	}
	return report, nil
}

func (r *Rescorer) rescoreOne(ctx context.Context, app *model.Application) error {
	if app.Job == nil {
		return fmt.Errorf("job %d not loaded", app.JobID)
	}

	file, data, err := r.Resumes.ReadAll(ctx, app.ResumeURL)
	if err != nil {
		return fmt.Errorf("failed to read resume: %w", err)
	}

	snap := SnapshotOf(*app.Job)
	analysis, err := r.Scorer.ScoreResume(ctx, scoring.Input{
		Resume:         data,
		Filename:       fmt.Sprint(file.ID) + file.Extension,
		ContentType:    file.ContentType,
		JobID:          app.JobID,
		JobTitle:       snap.Title,
		JobDescription: snap.Description,
		TargetYears:    snap.YearsOfExperience,
		ShortlistSize:  snap.ShortlistSize,
	})
	if err != nil {
		return err
	}
	if err := analysis.Validate(); err != nil {
		return err
	}
	if analysis.Failed() {
		return fmt.Errorf("scorer returned no result")
	}

	if err := r.Store.UpdateAnalysis(ctx, app.ID, analysis); err != nil {
		return err
	}
	app.CVAnalysis = &analysis
	if err := r.Store.MirrorApplicant(ctx, app.JobID, app.ApplicantID, app.Summary()); err != nil {
		log.Printf("rescore: failed to mirror application %d onto job %d: %v", app.ID, app.JobID, err)
	}
	return nil
}
