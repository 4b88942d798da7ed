// Package results declares the outcome of a job: every application becomes
// either reviewing (shortlisted) or rejected.
package results

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"JobMatch-backend/internal/apperror"
	"JobMatch-backend/internal/model"
	"JobMatch-backend/internal/store"
)

// Store applies a status decision to all of a job's applications atomically.
type Store interface {
	ApplyStatuses(ctx context.Context, jobID uint, decide store.DecideFunc) (map[uint]string, error)
}

// Outcome summarises a declaration.
type Outcome struct {
	JobID     uint   `json:"jobId"`
	Reviewing []uint `json:"reviewing"`
	Rejected  []uint `json:"rejected"`
}

// UnknownApplicationsError lists shortlisted ids that do not belong to the job.
type UnknownApplicationsError struct {
	IDs []uint
}

func (e *UnknownApplicationsError) Error() string {
	parts := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		parts[i] = fmt.Sprint(id)
	}
	return "applications not found for this job: " + strings.Join(parts, ", ")
}

// Partition assigns reviewing to every application in shortlisted and
// rejected to every other application. The rejected set is always the
// complement of shortlisted within apps. Repeated ids collapse.
func Partition(apps []model.Application, shortlisted []uint) (map[uint]string, error) {
	inJob := make(map[uint]struct{}, len(apps))
	for _, app := range apps {
		inJob[app.ID] = struct{}{}
	}

	selected := make(map[uint]struct{}, len(shortlisted))
	var unknown []uint
	for _, id := range shortlisted {
		if _, seen := selected[id]; seen {
			continue
		}
		if _, ok := inJob[id]; !ok {
			unknown = append(unknown, id)
			continue
		}
		selected[id] = struct{}{}
	}
	if len(unknown) > 0 {
		sort.Slice(unknown, func(i, j int) bool { return unknown[i] < unknown[j] })
		return nil, &UnknownApplicationsError{IDs: dedupe(unknown)}
	}

	decisions := make(map[uint]string, len(apps))
	for _, app := range apps {
		if _, ok := selected[app.ID]; ok {
			decisions[app.ID] = model.ApplicationStatusReviewing
		} else {
			decisions[app.ID] = model.ApplicationStatusRejected
		}
	}
	return decisions, nil
}

// Service runs declarations against the store.
type Service struct {
	Store Store
}

// NewService creates a results service.
func NewService(st Store) *Service {
	return &Service{Store: st}
}

// DeclareResults partitions every application of jobID in one transaction.
// On any failure nothing is changed and the whole call can be retried.
func (s *Service) DeclareResults(ctx context.Context, jobID uint, shortlisted []uint) (Outcome, error) {
	decisions, err := s.Store.ApplyStatuses(ctx, jobID, func(apps []model.Application) (map[uint]string, error) {
		return Partition(apps, shortlisted)
	})
	if err != nil {
		var unknown *UnknownApplicationsError
		switch {
		case errors.As(err, &unknown):
			return Outcome{}, apperror.New(apperror.Validation, unknown.Error(), err)
		case errors.Is(err, store.ErrJobNotFound):
			return Outcome{}, apperror.New(apperror.NotFound, "Job not found", err)
		default:
			return Outcome{}, apperror.NewDeclaration("Failed to declare results, no application was changed", err)
		}
	}

	out := Outcome{JobID: jobID, Reviewing: []uint{}, Rejected: []uint{}}
	for id, status := range decisions {
		if status == model.ApplicationStatusReviewing {
			out.Reviewing = append(out.Reviewing, id)
		} else {
			out.Rejected = append(out.Rejected, id)
		}
	}
	sort.Slice(out.Reviewing, func(i, j int) bool { return out.Reviewing[i] < out.Reviewing[j] })
	sort.Slice(out.Rejected, func(i, j int) bool { return out.Rejected[i] < out.Rejected[j] })
	return out, nil
}

func dedupe(sorted []uint) []uint {
	out := sorted[:0]
	for i, id := range sorted {
		if i == 0 || id != sorted[i-1] {
			out = append(out, id)
		}
	}
	return out
}
