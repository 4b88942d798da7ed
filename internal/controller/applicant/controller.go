// Package applicant provides the recruiter side of applications: ranked
// listings, export, manual status changes and result declaration.
package applicant

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"JobMatch-backend/internal/apperror"
	"JobMatch-backend/internal/audit"
	"JobMatch-backend/internal/database"
	"JobMatch-backend/internal/export"
	"JobMatch-backend/internal/model"
	"JobMatch-backend/internal/ranking"
	"JobMatch-backend/internal/results"
	"JobMatch-backend/internal/store"
	"JobMatch-backend/internal/utilities"
)

// ApplicantController handles the applicant endpoints of a job
type ApplicantController struct {
	DB      *database.DBinstanceStruct
	Store   *store.ApplicationStore
	Results *results.Service
	Audit   *audit.Logger
}

// ListResponse is the ranked view of a job's applicants.
type ListResponse struct {
	Job        model.Job        `json:"job"`
	Applicants []ranking.Ranked `json:"applicants"`
}

// StatusRequest sets the status of one application.
type StatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// DeclareRequest lists the applications that made the shortlist.
type DeclareRequest struct {
	ShortlistedApplicantIDs []uint `json:"shortlistedApplicantIds" binding:"required"`
}

// DeclareResponse is returned after results are declared.
type DeclareResponse struct {
	Success bool `json:"success"`
	results.Outcome
}

// NewApplicantController creates a new instance of ApplicantController
func NewApplicantController(db *database.DBinstanceStruct, st *store.ApplicationStore, res *results.Service, auditLog *audit.Logger) *ApplicantController {
	return &ApplicantController{
		DB:      db,
		Store:   st,
		Results: res,
		Audit:   auditLog,
	}
}

// ListApplicants returns the job's applications ranked by match score.
// @Summary List ranked applicants of a job
// @Description Applicants are ordered by similarity, earlier applications first on ties. shortlisted=true returns the top shortlistSize applicants and ignores status.
// @Tags Applicant
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path integer true "ID of the job"
// @Param status query string false "Application status, all for every status"
// @Param search query string false "Case insensitive search over name, email, skills, reason and projects"
// @Param shortlisted query boolean false "Only the shortlist"
// @Success 200 {object} ListResponse "Ranked applicants"
// @Failure 400 {object} utilities.ErrorResponse "Invalid job id or status"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not the recruiter of this job"
// @Failure 404 {object} utilities.ErrorResponse "Job not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /jobs/{id}/applicants [get]
func (ac *ApplicantController) ListApplicants(c *gin.Context) {
	job, ok := ac.ownedJob(c)
	if !ok {
		return
	}

	q, ok := parseQuery(c)
	if !ok {
		return
	}

	apps, err := ac.Store.ListByJob(c.Request.Context(), job.ID)
	if err != nil {
		utilities.RespondError(c, apperror.NewUnexpected("Failed to fetch applicants", err))
		return
	}

	c.JSON(http.StatusOK, ListResponse{
		Job:        job,
		Applicants: ranking.Apply(apps, job.ShortlistSize, q),
	})
}

// ExportApplicants streams the ranked applicants as an Excel workbook.
// @Summary Export ranked applicants to Excel
// @Tags Applicant
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path integer true "ID of the job"
// @Param shortlisted query boolean false "Only the shortlist"
// @Success 200 {file} file "Workbook"
// @Failure 400 {object} utilities.ErrorResponse "Invalid job id"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not the recruiter of this job"
// @Failure 404 {object} utilities.ErrorResponse "Job not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /jobs/{id}/applicants/export [get]
func (ac *ApplicantController) ExportApplicants(c *gin.Context) {
	job, ok := ac.ownedJob(c)
	if !ok {
		return
	}

	apps, err := ac.Store.ListByJob(c.Request.Context(), job.ID)
	if err != nil {
		utilities.RespondError(c, apperror.NewUnexpected("Failed to fetch applicants", err))
		return
	}
	ranked := ranking.Apply(apps, job.ShortlistSize, ranking.Query{Shortlisted: c.Query("shortlisted") == "true"})

	var buf bytes.Buffer
	if err := export.WriteShortlist(&buf, job, ranked, time.Now()); err != nil {
		utilities.RespondError(c, apperror.NewUnexpected("Failed to build workbook", err))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename(job)))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

// UpdateApplicationStatus sets one application's status by hand.
// @Summary Update status of an application
// @Tags Applicant
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path integer true "ID of the job"
// @Param applicationId path integer true "ID of the application"
// @Param status body StatusRequest true "New status"
// @Success 200 {object} model.Application "Updated application"
// @Failure 400 {object} utilities.ErrorResponse "Invalid status"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not the recruiter of this job"
// @Failure 404 {object} utilities.ErrorResponse "Job or application not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /jobs/{id}/applicants/{applicationId}/status [patch]
func (ac *ApplicantController) UpdateApplicationStatus(c *gin.Context) {
	job, ok := ac.ownedJob(c)
	if !ok {
		return
	}
	appID, ok := utilities.ParseIDParam(c, "applicationId")
	if !ok {
		return
	}

	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utilities.RespondError(c, apperror.NewValidation("status is required"))
		return
	}
	if !model.IsValidApplicationStatus(req.Status) {
		utilities.RespondError(c, apperror.NewValidation(fmt.Sprintf(
			"Invalid status, must be one of: %s", strings.Join(model.ApplicationStatuses, ", "))))
		return
	}

	app, err := ac.Store.UpdateStatus(c.Request.Context(), job.ID, appID, req.Status)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utilities.RespondError(c, apperror.NewNotFound("Application not found"))
			return
		}
		utilities.RespondError(c, apperror.NewUnexpected("Failed to update application status", err))
		return
	}

	ac.Audit.Log(audit.LevelInfo, "application_status", audit.StatusSuccess, recruiterName(c),
		fmt.Sprintf("job %d application %d set to %s", job.ID, app.ID, app.Status))
	c.JSON(http.StatusOK, app)
}

// DeclareResults marks the shortlisted applications as reviewing and every
// other application of the job as rejected, all at once.
// @Summary Declare the results of a job
// @Description Every application of the job not listed is rejected. Nothing changes when any id does not belong to the job. Safe to retry.
// @Tags Applicant
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path integer true "ID of the job"
// @Param body body DeclareRequest true "Shortlisted application ids"
// @Success 200 {object} DeclareResponse "Declared results"
// @Failure 400 {object} utilities.ErrorResponse "Invalid body or unknown application ids"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not the recruiter of this job"
// @Failure 404 {object} utilities.ErrorResponse "Job not found"
// @Failure 500 {object} utilities.ErrorResponse "Declaration failed, nothing was changed"
// @Router /jobs/{id}/declare-results [post]
func (ac *ApplicantController) DeclareResults(c *gin.Context) {
	job, ok := ac.ownedJob(c)
	if !ok {
		return
	}

	var req DeclareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utilities.RespondError(c, apperror.NewValidation("Invalid request body: "+err.Error()))
		return
	}

	outcome, err := ac.Results.DeclareResults(c.Request.Context(), job.ID, req.ShortlistedApplicantIDs)
	if err != nil {
		ac.Audit.Log(audit.LevelError, "declare_results", audit.StatusFail, recruiterName(c),
			fmt.Sprintf("job %d: %s", job.ID, err.Error()))
		utilities.RespondError(c, err)
		return
	}

	ac.Audit.Log(audit.LevelInfo, "declare_results", audit.StatusSuccess, recruiterName(c),
		fmt.Sprintf("job %d: %d reviewing, %d rejected", job.ID, len(outcome.Reviewing), len(outcome.Rejected)))
	c.JSON(http.StatusOK, DeclareResponse{Success: true, Outcome: outcome})
}

// ownedJob loads the :id job and checks that the caller owns it or is an admin.
func (ac *ApplicantController) ownedJob(c *gin.Context) (model.Job, bool) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return model.Job{}, false
	}

	jobID, ok := utilities.ParseIDParam(c, "id")
	if !ok {
		return model.Job{}, false
	}

	var job model.Job
	if err := ac.DB.WithContext(c.Request.Context()).First(&job, jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utilities.RespondError(c, apperror.NewNotFound("Job not found"))
			return model.Job{}, false
		}
		utilities.RespondError(c, apperror.NewUnexpected("Failed to fetch job", err))
		return model.Job{}, false
	}

	if job.RecruiterID != user.ID && user.Role != model.RoleAdmin {
		utilities.RespondError(c, apperror.NewForbidden("You are not the recruiter of this job"))
		return model.Job{}, false
	}
	return job, true
}

func parseQuery(c *gin.Context) (ranking.Query, bool) {
	q := ranking.Query{
		Status:      strings.TrimSpace(c.Query("status")),
		Search:      c.Query("search"),
		Shortlisted: c.Query("shortlisted") == "true",
	}
	if q.Status != "" && !strings.EqualFold(q.Status, ranking.StatusAll) && !model.IsValidApplicationStatus(q.Status) {
		utilities.RespondError(c, apperror.NewValidation("Invalid status filter: "+q.Status))
		return ranking.Query{}, false
	}
	return q, true
}

func recruiterName(c *gin.Context) string {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		return ""
	}
	return user.Username
}
