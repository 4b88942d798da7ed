package results

import (
	"context"
	"errors"
	"log"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"JobMatch-backend/internal/apperror"
	"JobMatch-backend/internal/database"
	"JobMatch-backend/internal/model"
	"JobMatch-backend/internal/store"
)

var testDB *database.DBinstanceStruct

func TestMain(m *testing.M) {
	teardown, db, err := database.GetTestDB()
	if err != nil {
		log.Fatalf("could not start postgres container: %v", err)
	}
	testDB = db

	m.Run()

	if teardown != nil && teardown(context.Background()) != nil {
		log.Fatalf("could not teardown postgres container: %v", err)
	}
}

func apps(ids ...uint) []model.Application {
	out := make([]model.Application, len(ids))
	for i, id := range ids {
		out[i] = model.Application{ID: id, Status: model.ApplicationStatusPending}
	}
	return out
}

func TestPartition(t *testing.T) {
	tests := []struct {
		name        string
		apps        []model.Application
		shortlisted []uint
		want        map[uint]string
		wantUnknown []uint
	}{
		{
			name:        "two of four",
			apps:        apps(1, 2, 3, 4),
			shortlisted: []uint{1, 2},
			want:        map[uint]string{1: "reviewing", 2: "reviewing", 3: "rejected", 4: "rejected"},
		},
		{
			name:        "empty shortlist rejects everyone",
			apps:        apps(1, 2),
			shortlisted: nil,
			want:        map[uint]string{1: "rejected", 2: "rejected"},
		},
		{
			name:        "everyone shortlisted",
			apps:        apps(5, 6),
			shortlisted: []uint{6, 5},
			want:        map[uint]string{5: "reviewing", 6: "reviewing"},
		},
		{
			name:        "duplicates collapse",
			apps:        apps(1, 2, 3),
			shortlisted: []uint{2, 2, 2},
			want:        map[uint]string{1: "rejected", 2: "reviewing", 3: "rejected"},
		},
		{
			name: "no applications",
			apps: nil,
			want: map[uint]string{},
		},
		{
			name:        "unknown ids",
			apps:        apps(1, 2),
			shortlisted: []uint{9, 1, 7, 9},
			wantUnknown: []uint{7, 9},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Partition(tt.apps, tt.shortlisted)
			if tt.wantUnknown != nil {
				var unknown *UnknownApplicationsError
				require.ErrorAs(t, err, &unknown)
				assert.Equal(t, tt.wantUnknown, unknown.IDs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPartitionIsTotal(t *testing.T) {
	all := apps(1, 2, 3, 4, 5, 6, 7)
	got, err := Partition(all, []uint{3, 6})
	require.NoError(t, err)
	require.Len(t, got, len(all))
	for _, a := range all {
		status := got[a.ID]
		assert.Contains(t, []string{model.ApplicationStatusReviewing, model.ApplicationStatusRejected}, status)
	}
}

type fakeStore struct {
	apps []model.Application
	err  error
}

func (f *fakeStore) ApplyStatuses(_ context.Context, _ uint, decide store.DecideFunc) (map[uint]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return decide(f.apps)
}

func TestDeclareResultsErrors(t *testing.T) {
	tests := []struct {
		name string
		st   *fakeStore
		ids  []uint
		kind apperror.Kind
	}{
		{name: "unknown id", st: &fakeStore{apps: apps(1, 2)}, ids: []uint{3}, kind: apperror.Validation},
		{name: "missing job", st: &fakeStore{err: store.ErrJobNotFound}, kind: apperror.NotFound},
		{name: "database failure", st: &fakeStore{err: errors.New("connection reset")}, kind: apperror.Declaration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewService(tt.st).DeclareResults(context.Background(), 1, tt.ids)
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperror.KindOf(err))
		})
	}
}

func TestDeclareResultsAgainstDatabase(t *testing.T) {
	ctx := context.Background()
	st := store.New(testDB.DB)
	svc := NewService(st)

	job := model.Job{
		RecruiterID:     database.TestRecruiterUser1.ID,
		EditableJobInfo: model.EditableJobInfo{Title: "Declare results", ShortlistSize: 2},
	}
	require.NoError(t, testDB.Create(&job).Error)

	extra := model.User{Username: "declare_extra_" + uuid.NewString()[:8], Role: model.RoleCandidate}
	require.NoError(t, testDB.Create(&extra).Error)

	applicants := []uuid.UUID{database.TestCandidate1.ID, database.TestCandidate2.ID, database.TestCandidate3.ID, extra.ID}
	ids := make([]uint, len(applicants))
	for i, applicant := range applicants {
		a := &model.Application{
			JobID:       job.ID,
			ApplicantID: applicant,
			ResumeURL:   "/api/v1/file/1",
			CVAnalysis:  &model.CVAnalysis{Similarity: 0.5, Reason: "ok"},
		}
		require.NoError(t, st.Create(ctx, a))
		ids[i] = a.ID
	}
	// a recruiter may have moved someone along before declaring
	_, err := st.UpdateStatus(ctx, job.ID, ids[3], model.ApplicationStatusInterviewing)
	require.NoError(t, err)

	check := func() {
		stored, err := st.ListByJob(ctx, job.ID)
		require.NoError(t, err)
		require.Len(t, stored, 4)
		for _, a := range stored {
			switch a.ID {
			case ids[0], ids[1]:
				assert.Equal(t, model.ApplicationStatusReviewing, a.Status)
			default:
				assert.Equal(t, model.ApplicationStatusRejected, a.Status)
			}
		}
	}

	out, err := svc.DeclareResults(ctx, job.ID, []uint{ids[0], ids[1]})
	require.NoError(t, err)
	assert.Equal(t, []uint{ids[0], ids[1]}, out.Reviewing)
	assert.Equal(t, []uint{ids[2], ids[3]}, out.Rejected)
	check()

	_, err = svc.DeclareResults(ctx, job.ID, []uint{ids[1], ids[0], ids[0]})
	require.NoError(t, err)
	check()

	_, err = svc.DeclareResults(ctx, job.ID, []uint{ids[0], 999999})
	assert.True(t, apperror.Is(err, apperror.Validation))
	check()
}
