package store

import (
	"context"
	"errors"
	"log"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"JobMatch-backend/internal/database"
	"JobMatch-backend/internal/model"
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

func newJob(t *testing.T, shortlist int) model.Job {
	t.Helper()
	job := model.Job{
		RecruiterID:     database.TestRecruiterUser1.ID,
		EditableJobInfo: model.EditableJobInfo{Title: "Store test " + t.Name(), ShortlistSize: shortlist},
	}
	require.NoError(t, testDB.Create(&job).Error)
	return job
}

func newApplication(jobID uint, applicant uuid.UUID, similarity float64) *model.Application {
	return &model.Application{
		JobID:       jobID,
		ApplicantID: applicant,
		ResumeURL:   "/api/v1/file/1",
		CVAnalysis:  &model.CVAnalysis{Similarity: similarity, Reason: "fit", Skills: "Go", Projects: "api", NYears: 2},
		ContactInfo: model.ContactInfo{PhoneNumber: "0812345678"},
	}
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	s := New(testDB.DB)
	job := newJob(t, 2)

	app := newApplication(job.ID, database.TestCandidate1.ID, 0.73)
	require.NoError(t, s.Create(ctx, app))
	require.NotZero(t, app.ID)
	assert.Equal(t, model.ApplicationStatusPending, app.Status)

	got, err := s.Get(ctx, app.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CVAnalysis)
	assert.Equal(t, *app.CVAnalysis, *got.CVAnalysis)
	assert.Equal(t, database.TestCandidate1.Username, got.Applicant.Username)
	require.NotNil(t, got.Job)
	assert.Equal(t, job.ID, got.Job.ID)

	_, err = s.Get(ctx, 999999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateDuplicate(t *testing.T) {
	ctx := context.Background()
	s := New(testDB.DB)
	job := newJob(t, 2)

	require.NoError(t, s.Create(ctx, newApplication(job.ID, database.TestCandidate1.ID, 0.5)))

	exists, err := s.Exists(ctx, job.ID, database.TestCandidate1.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	err = s.Create(ctx, newApplication(job.ID, database.TestCandidate1.ID, 0.9))
	assert.ErrorIs(t, err, ErrDuplicate)

	apps, err := s.ListByJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Len(t, apps, 1)
}

func TestCreateConcurrentDuplicates(t *testing.T) {
	ctx := context.Background()
	s := New(testDB.DB)
	job := newJob(t, 2)

	const attempts = 8
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		created    int
		duplicates int
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.Create(ctx, newApplication(job.ID, database.TestCandidate2.ID, 0.4))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case errors.Is(err, ErrDuplicate):
				duplicates++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, attempts-1, duplicates)
}

func TestCreateUnknownJob(t *testing.T) {
	err := New(testDB.DB).Create(context.Background(), newApplication(987654, database.TestCandidate1.ID, 0.2))
	assert.ErrorIs(t, err, ErrJobNotFound)
}

func TestCreateRejectsInvalidAnalysis(t *testing.T) {
	job := newJob(t, 2)
	app := newApplication(job.ID, database.TestCandidate3.ID, 1.5)

	err := New(testDB.DB).Create(context.Background(), app)
	assert.ErrorContains(t, err, "similarity")
}

func TestSentinelRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New(testDB.DB)
	job := newJob(t, 2)

	sentinel := model.FailedCVAnalysis()
	app := newApplication(job.ID, database.TestCandidate1.ID, 0)
	app.CVAnalysis = &sentinel
	require.NoError(t, s.Create(ctx, app))

	got, err := s.Get(ctx, app.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CVAnalysis)
	assert.True(t, got.CVAnalysis.Failed())

	failed, err := s.ListFailedAnalyses(ctx, job.ID)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, app.ID, failed[0].ID)

	rescored := model.CVAnalysis{Similarity: 0.66, Reason: "rescored", Skills: "Go", NYears: 1}
	require.NoError(t, s.UpdateAnalysis(ctx, app.ID, rescored))

	got, err = s.Get(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, rescored, *got.CVAnalysis)

	failed, err = s.ListFailedAnalyses(ctx, job.ID)
	require.NoError(t, err)
	assert.Empty(t, failed)

	assert.Error(t, s.UpdateAnalysis(ctx, app.ID, model.CVAnalysis{Similarity: -1}))
	assert.ErrorIs(t, s.UpdateAnalysis(ctx, 999999, rescored), ErrNotFound)
}

func TestListByApplicant(t *testing.T) {
	ctx := context.Background()
	s := New(testDB.DB)
	applicant := database.TestCandidate3.ID

	jobs := []model.Job{newJob(t, 1), newJob(t, 1), newJob(t, 1)}
	var ids []uint
	for _, j := range jobs {
		app := newApplication(j.ID, applicant, 0.5)
		require.NoError(t, s.Create(ctx, app))
		ids = append(ids, app.ID)
	}
	_, err := s.UpdateStatus(ctx, jobs[0].ID, ids[0], model.ApplicationStatusRejected)
	require.NoError(t, err)

	page, total, err := s.ListByApplicant(ctx, applicant, ApplicantFilter{Limit: 2})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, total, int64(3))
	require.Len(t, page, 2)
	assert.Equal(t, ids[2], page[0].ID, "newest first")
	require.NotNil(t, page[0].Job)

	rejected, total, err := s.ListByApplicant(ctx, applicant, ApplicantFilter{Status: model.ApplicationStatusRejected, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, rejected, 1)
	assert.Equal(t, ids[0], rejected[0].ID)
}

func TestUpdateStatus(t *testing.T) {
	ctx := context.Background()
	s := New(testDB.DB)
	job := newJob(t, 2)
	other := newJob(t, 2)

	app := newApplication(job.ID, database.TestCandidate2.ID, 0.5)
	require.NoError(t, s.Create(ctx, app))

	got, err := s.UpdateStatus(ctx, job.ID, app.ID, model.ApplicationStatusInterviewing)
	require.NoError(t, err)
	assert.Equal(t, model.ApplicationStatusInterviewing, got.Status)

	_, err = s.UpdateStatus(ctx, other.ID, app.ID, model.ApplicationStatusAccepted)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.UpdateStatus(ctx, job.ID, app.ID, "hired")
	assert.Error(t, err)
}

func TestMirrorApplicant(t *testing.T) {
	ctx := context.Background()
	s := New(testDB.DB)
	job := newJob(t, 2)

	a1 := newApplication(job.ID, database.TestCandidate1.ID, 0.8)
	a2 := newApplication(job.ID, database.TestCandidate2.ID, 0.3)
	require.NoError(t, s.Create(ctx, a1))
	require.NoError(t, s.Create(ctx, a2))

	require.NoError(t, s.MirrorApplicant(ctx, job.ID, a1.ApplicantID, a1.Summary()))
	require.NoError(t, s.MirrorApplicant(ctx, job.ID, a2.ApplicantID, a2.Summary()))

	var reloaded model.Job
	require.NoError(t, testDB.First(&reloaded, job.ID).Error)
	index := reloaded.Applicants.Data()
	require.Len(t, index, 2)
	assert.Equal(t, a1.ID, index[a1.ApplicantID.String()].ApplicationID)
	assert.InDelta(t, 0.8, index[a1.ApplicantID.String()].Similarity, 1e-9)
	assert.Equal(t, "0812345678", index[a2.ApplicantID.String()].PhoneNumber)

	assert.ErrorIs(t, s.MirrorApplicant(ctx, 999999, a1.ApplicantID, a1.Summary()), ErrJobNotFound)

	got, err := s.Get(ctx, a1.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Job)
	assert.Empty(t, got.Job.Applicants.Data())

	apps, _, err := s.ListByApplicant(ctx, a2.ApplicantID, ApplicantFilter{Limit: 100})
	require.NoError(t, err)
	for _, a := range apps {
		require.NotNil(t, a.Job)
		assert.Empty(t, a.Job.Applicants.Data())
	}
}

func TestApplyStatuses(t *testing.T) {
	ctx := context.Background()
	s := New(testDB.DB)
	job := newJob(t, 2)

	var apps []*model.Application
	for i, c := range []model.User{database.TestCandidate1, database.TestCandidate2, database.TestCandidate3} {
		app := newApplication(job.ID, c.ID, float64(i)/10)
		require.NoError(t, s.Create(ctx, app))
		apps = append(apps, app)
	}

	decide := func(got []model.Application) (map[uint]string, error) {
		assert.Len(t, got, 3)
		out := map[uint]string{}
		for _, a := range got {
			out[a.ID] = model.ApplicationStatusRejected
		}
		out[apps[1].ID] = model.ApplicationStatusReviewing
		return out, nil
	}

	decisions, err := s.ApplyStatuses(ctx, job.ID, decide)
	require.NoError(t, err)
	assert.Len(t, decisions, 3)

	stored, err := s.ListByJob(ctx, job.ID)
	require.NoError(t, err)
	for _, a := range stored {
		if a.ID == apps[1].ID {
			assert.Equal(t, model.ApplicationStatusReviewing, a.Status)
		} else {
			assert.Equal(t, model.ApplicationStatusRejected, a.Status)
		}
	}
}

func TestApplyStatusesRollsBack(t *testing.T) {
	ctx := context.Background()
	s := New(testDB.DB)
	job := newJob(t, 2)

	app1 := newApplication(job.ID, database.TestCandidate1.ID, 0.9)
	app2 := newApplication(job.ID, database.TestCandidate2.ID, 0.1)
	require.NoError(t, s.Create(ctx, app1))
	require.NoError(t, s.Create(ctx, app2))

	// an id outside the job makes the second grouped update fall short
	decide := func([]model.Application) (map[uint]string, error) {
		return map[uint]string{
			app1.ID: model.ApplicationStatusReviewing,
			app2.ID: model.ApplicationStatusRejected,
			999999:  model.ApplicationStatusRejected,
		}, nil
	}
	_, err := s.ApplyStatuses(ctx, job.ID, decide)
	require.Error(t, err)

	stored, err := s.ListByJob(ctx, job.ID)
	require.NoError(t, err)
	for _, a := range stored {
		assert.Equal(t, model.ApplicationStatusPending, a.Status)
	}

	boom := errors.New("boom")
	_, err = s.ApplyStatuses(ctx, job.ID, func([]model.Application) (map[uint]string, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	_, err = s.ApplyStatuses(ctx, 999999, decide)
	assert.ErrorIs(t, err, ErrJobNotFound)
}
