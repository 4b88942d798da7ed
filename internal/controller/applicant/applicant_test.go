package applicant

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"JobMatch-backend/internal/audit"
	"JobMatch-backend/internal/auth"
	"JobMatch-backend/internal/database"
	"JobMatch-backend/internal/export"
	"JobMatch-backend/internal/middleware"
	"JobMatch-backend/internal/model"
	"JobMatch-backend/internal/resume"
	"JobMatch-backend/internal/results"
	"JobMatch-backend/internal/scoring"
	"JobMatch-backend/internal/storage"
	"JobMatch-backend/internal/store"
	"JobMatch-backend/internal/submission"
	"JobMatch-backend/internal/testutil"
)

var testDB *database.DBinstanceStruct

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	var err error
	var midTeardown func(context.Context) error
	midTeardown, testDB, err = database.GetTestDB()
	if err != nil {
		os.Exit(1)
	}
	code := m.Run()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if midTeardown != nil {
		_ = midTeardown(ctx)
	}
	os.Exit(code)
}

// filenameScorer scores a resume by its file name.
type filenameScorer map[string]float64

func (s filenameScorer) ScoreResume(_ context.Context, in scoring.Input) (model.CVAnalysis, error) {
	score, ok := s[in.Filename]
	if !ok {
		return model.CVAnalysis{}, fmt.Errorf("scorer unavailable")
	}
	return model.CVAnalysis{Similarity: score, Reason: "matched " + in.Filename, Skills: "go", NYears: 2}, nil
}

type fixture struct {
	router      *gin.Engine
	store       *store.ApplicationStore
	submissions *submission.Service
}

func newFixture(scorer scoring.Scorer) fixture {
	st := store.New(testDB.DB)
	ac := NewApplicantController(testDB, st, results.NewService(st), audit.New(false, ""))

	requireAuth := middleware.RequireAuth(testDB, auth.TestTokenIssuer)
	recruiterOnly := middleware.CheckRole(model.RoleRecruiter, model.RoleAdmin)

	r := gin.New()
	r.GET("/jobs/:id/applicants", requireAuth, recruiterOnly, ac.ListApplicants)
	r.GET("/jobs/:id/applicants/export", requireAuth, recruiterOnly, ac.ExportApplicants)
	r.PATCH("/jobs/:id/applicants/:applicationId/status", requireAuth, recruiterOnly, ac.UpdateApplicationStatus)
	r.POST("/jobs/:id/declare-results", requireAuth, recruiterOnly, ac.DeclareResults)

	return fixture{
		router:      r,
		store:       st,
		submissions: submission.NewService(st, storage.NewDBResumeStorage(testDB.DB, nil), scorer),
	}
}

func newJob(t *testing.T, recruiter model.User, shortlistSize int) model.Job {
	t.Helper()
	job := model.Job{
		RecruiterID: recruiter.ID,
		EditableJobInfo: model.EditableJobInfo{
			Title:             "Go Developer " + t.Name(),
			Description:       "Write Go services",
			YearsOfExperience: 2,
			ShortlistSize:     shortlistSize,
		},
	}
	require.NoError(t, testDB.Create(&job).Error)
	return job
}

func token(t *testing.T, user model.User) string {
	t.Helper()
	tok, err := auth.GetAccessToken(t, testDB, user.Username, database.TestSeedPassword)
	require.NoError(t, err)
	return tok
}

func apply(t *testing.T, f fixture, job model.Job, applicant model.User, filename string) *model.Application {
	t.Helper()
	app, err := f.submissions.Submit(context.Background(), submission.Request{
		JobID:       job.ID,
		ApplicantID: applicant.ID,
		Resume:      resume.File{Filename: filename, ContentType: "application/pdf", Data: testutil.PDFBytes},
		Job:         submission.JobSnapshot{Title: job.Title, Description: job.Description, ShortlistSize: job.ShortlistSize},
	})
	require.NoError(t, err)
	return app
}

func applicantIDs(t *testing.T, resp map[string]interface{}) []float64 {
	t.Helper()
	list, ok := resp["applicants"].([]interface{})
	require.True(t, ok, resp)
	ids := make([]float64, len(list))
	for i, a := range list {
		ids[i] = a.(map[string]interface{})["id"].(float64)
	}
	return ids
}

func path(job model.Job, suffix string) string {
	return fmt.Sprintf("/jobs/%d%s", job.ID, suffix)
}

func TestScenario_ShortlistAndDeclare(t *testing.T) {
	f := newFixture(filenameScorer{"x.pdf": 0.95, "y.pdf": 0.6, "z.pdf": 0.3})
	job := newJob(t, database.TestRecruiterUser1, 2)
	owner := token(t, database.TestRecruiterUser1)

	z := apply(t, f, job, database.TestCandidate3, "z.pdf")
	x := apply(t, f, job, database.TestCandidate1, "x.pdf")
	y := apply(t, f, job, database.TestCandidate2, "y.pdf")

	rec, resp := testutil.MakeJSONRequest(nil, owner, f.router, path(job, "/applicants"), http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code, resp)
	assert.Equal(t, []float64{float64(x.ID), float64(y.ID), float64(z.ID)}, applicantIDs(t, resp))
	first := resp["applicants"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, float64(1), first["rank"])
	assert.Equal(t, database.TestCandidate1.Username, first["applicant"].(map[string]interface{})["username"])

	rec, resp = testutil.MakeJSONRequest(nil, owner, f.router, path(job, "/applicants?shortlisted=true"), http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []float64{float64(x.ID), float64(y.ID)}, applicantIDs(t, resp))

	body := gin.H{"shortlistedApplicantIds": []uint{x.ID, y.ID}}
	rec, resp = testutil.MakeJSONRequest(body, owner, f.router, path(job, "/declare-results"), http.MethodPost)
	require.Equal(t, http.StatusOK, rec.Code, resp)
	assert.Equal(t, true, resp["success"])
	assert.ElementsMatch(t, []interface{}{float64(x.ID), float64(y.ID)}, resp["reviewing"])
	assert.Equal(t, []interface{}{float64(z.ID)}, resp["rejected"])

	want := map[uint]string{
		x.ID: model.ApplicationStatusReviewing,
		y.ID: model.ApplicationStatusReviewing,
		z.ID: model.ApplicationStatusRejected,
	}
	for id, status := range want {
		app, err := f.store.Get(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, status, app.Status, "application %d", id)
	}

	// same declaration again leaves the same state
	rec, _ = testutil.MakeJSONRequest(body, owner, f.router, path(job, "/declare-results"), http.MethodPost)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, resp = testutil.MakeJSONRequest(nil, owner, f.router, path(job, "/applicants?status=rejected"), http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []float64{float64(z.ID)}, applicantIDs(t, resp))
	assert.Equal(t, float64(1), resp["applicants"].([]interface{})[0].(map[string]interface{})["rank"])
}

func TestListApplicants_SearchAndScorerFailure(t *testing.T) {
	f := newFixture(filenameScorer{"good.pdf": 0.8})
	job := newJob(t, database.TestRecruiterUser1, 1)
	owner := token(t, database.TestRecruiterUser1)

	good := apply(t, f, job, database.TestCandidate1, "good.pdf")
	failed := apply(t, f, job, database.TestCandidate2, "unknown.pdf")
	require.NotNil(t, failed.CVAnalysis)
	assert.True(t, failed.CVAnalysis.Failed())

	rec, resp := testutil.MakeJSONRequest(nil, owner, f.router, path(job, "/applicants"), http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []float64{float64(good.ID), float64(failed.ID)}, applicantIDs(t, resp))

	rec, resp = testutil.MakeJSONRequest(nil, owner, f.router, path(job, "/applicants?search=BOB"), http.MethodGet)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []float64{float64(failed.ID)}, applicantIDs(t, resp))

	rec, _ = testutil.MakeJSONRequest(nil, owner, f.router, path(job, "/applicants?status=archived"), http.MethodGet)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApplicantEndpoints_Ownership(t *testing.T) {
	f := newFixture(filenameScorer{})
	job := newJob(t, database.TestRecruiterUser1, 2)

	tests := []struct {
		name string
		user model.User
		code int
	}{
		{"other recruiter", database.TestRecruiterUser2, http.StatusForbidden},
		{"candidate", database.TestCandidate1, http.StatusForbidden},
		{"admin", database.TestAdminUser, http.StatusOK},
		{"owner", database.TestRecruiterUser1, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := testutil.MakeJSONRequest(nil, token(t, tt.user), f.router, path(job, "/applicants"), http.MethodGet)
			assert.Equal(t, tt.code, rec.Code)
		})
	}

	rec, _ := testutil.MakeJSONRequest(nil, token(t, database.TestRecruiterUser1), f.router, "/jobs/999999/applicants", http.MethodGet)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeclareResults_UnknownIDsChangeNothing(t *testing.T) {
	f := newFixture(filenameScorer{"a.pdf": 0.7, "b.pdf": 0.4})
	job := newJob(t, database.TestRecruiterUser2, 1)
	other := newJob(t, database.TestRecruiterUser2, 1)
	owner := token(t, database.TestRecruiterUser2)

	a := apply(t, f, job, database.TestCandidate1, "a.pdf")
	apply(t, f, job, database.TestCandidate2, "b.pdf")
	foreign := apply(t, f, other, database.TestCandidate3, "a.pdf")

	body := gin.H{"shortlistedApplicantIds": []uint{a.ID, foreign.ID}}
	rec, resp := testutil.MakeJSONRequest(body, owner, f.router, path(job, "/declare-results"), http.MethodPost)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, resp["error"], fmt.Sprint(foreign.ID))

	apps, err := f.store.ListByJob(context.Background(), job.ID)
	require.NoError(t, err)
	for _, app := range apps {
		assert.Equal(t, model.ApplicationStatusPending, app.Status)
	}

	// an empty shortlist rejects everyone
	rec, resp = testutil.MakeJSONRequest(gin.H{"shortlistedApplicantIds": []uint{}}, owner, f.router, path(job, "/declare-results"), http.MethodPost)
	require.Equal(t, http.StatusOK, rec.Code, resp)
	assert.Empty(t, resp["reviewing"])
	assert.Len(t, resp["rejected"], 2)
}

func TestUpdateApplicationStatus(t *testing.T) {
	f := newFixture(filenameScorer{"c.pdf": 0.5})
	job := newJob(t, database.TestRecruiterUser1, 1)
	owner := token(t, database.TestRecruiterUser1)
	app := apply(t, f, job, database.TestCandidate1, "c.pdf")

	statusPath := path(job, fmt.Sprintf("/applicants/%d/status", app.ID))
	rec, resp := testutil.MakeJSONRequest(gin.H{"status": model.ApplicationStatusInterviewing}, owner, f.router, statusPath, http.MethodPatch)
	require.Equal(t, http.StatusOK, rec.Code, resp)
	assert.Equal(t, model.ApplicationStatusInterviewing, resp["status"])

	rec, _ = testutil.MakeJSONRequest(gin.H{"status": "hired"}, owner, f.router, statusPath, http.MethodPatch)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = testutil.MakeJSONRequest(gin.H{"status": model.ApplicationStatusAccepted}, owner, f.router,
		path(job, "/applicants/999999/status"), http.MethodPatch)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportApplicants(t *testing.T) {
	f := newFixture(filenameScorer{"e1.pdf": 0.9, "e2.pdf": 0.2})
	job := newJob(t, database.TestRecruiterUser1, 1)
	apply(t, f, job, database.TestCandidate1, "e1.pdf")
	apply(t, f, job, database.TestCandidate2, "e2.pdf")

	req := httptest.NewRequest(http.MethodGet, path(job, "/applicants/export"), nil)
	req.Header.Set("Authorization", "Bearer "+token(t, database.TestRecruiterUser1))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), export.Filename(job))

	wb, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer func() { _ = wb.Close() }()
	rows, err := wb.GetRows(export.CandidatesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, database.TestCandidate1.Name, rows[1][1])
	assert.Equal(t, "Yes", rows[1][12])
	assert.Equal(t, "No", rows[2][12])
}
