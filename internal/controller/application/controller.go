// Package application provides HTTP handlers for job application operations.
package application

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"JobMatch-backend/internal/database"
	"JobMatch-backend/internal/model"
	"JobMatch-backend/internal/resume"
	"JobMatch-backend/internal/store"
	"JobMatch-backend/internal/submission"
	"JobMatch-backend/internal/utilities"
)

// DefaultMaxResumeBytes is used when the controller has no explicit limit.
const DefaultMaxResumeBytes int64 = 10 << 20

// ApplicationController handles job application related endpoints
type ApplicationController struct {
	DB             *database.DBinstanceStruct
	Store          *store.ApplicationStore
	Submissions    *submission.Service
	MaxResumeBytes int64
}

// SubmitResponse is returned after a successful submission.
type SubmitResponse struct {
	Success       bool              `json:"success"`
	ApplicationID uint              `json:"applicationId"`
	Application   model.Application `json:"application"`
}

// ListResponse is a page of the candidate's own applications.
type ListResponse struct {
	Applications []model.Application `json:"applications"`
	Pagination   utilities.Pagination `json:"pagination"`
}

// NewApplicationController creates a new instance of ApplicationController.
func NewApplicationController(db *database.DBinstanceStruct, st *store.ApplicationStore, submissions *submission.Service, maxResumeBytes int64) *ApplicationController {
	if maxResumeBytes <= 0 {
		maxResumeBytes = DefaultMaxResumeBytes
	}
	return &ApplicationController{
		DB:             db,
		Store:          st,
		Submissions:    submissions,
		MaxResumeBytes: maxResumeBytes,
	}
}

// SubmitApplication handles a candidate applying to a job with a resume.
// @Summary Apply to a job
// @Description Only candidates can apply. The resume must be a PDF, DOC or DOCX file. The resume is scored against the job, a scoring failure still records the application.
// @Tags Application
// @Accept mpfd
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param jobId formData integer true "ID of the job"
// @Param resume formData file true "Resume file"
// @Param coverLetter formData string false "Cover letter"
// @Param phoneNumber formData string false "Phone number"
// @Param linkedinProfile formData string false "LinkedIn profile URL"
// @Param portfolioWebsite formData string false "Portfolio URL"
// @Success 201 {object} SubmitResponse "Application created"
// @Failure 400 {object} utilities.ErrorResponse "Invalid form, unsupported resume, inactive job"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as candidate"
// @Failure 404 {object} utilities.ErrorResponse "Job not found"
// @Failure 409 {object} utilities.ErrorResponse "Already applied to this job"
// @Failure 413 {object} utilities.ErrorResponse "Resume is too large"
// @Failure 500 {object} utilities.ErrorResponse "Storage error"
// @Router /applications [post]
func (ac *ApplicationController) SubmitApplication(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		var maxBytesError *http.MaxBytesError
		if errors.As(err, &maxBytesError) {
			c.JSON(http.StatusRequestEntityTooLarge, utilities.ErrorResponse{Error: "Resume is too large"})
			return
		}
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Invalid multipart form"})
		return
	}

	jobID, err := strconv.ParseUint(c.PostForm("jobId"), 10, 64)
	if err != nil || jobID == 0 {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "jobId is required"})
		return
	}

	file, ok := ac.readResume(c)
	if !ok {
		return
	}

	job := model.Job{}
	if err := ac.DB.WithContext(c.Request.Context()).First(&job, jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{Error: "Failed to retrieve job"})
		return
	}
	if !job.IsActive || (job.Expiring != nil && job.Expiring.Before(time.Now())) {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "This job is no longer accepting applications"})
		return
	}

	req := submission.Request{
		JobID:       job.ID,
		ApplicantID: user.ID,
		Resume:      file,
		CoverLetter: optional(c.PostForm("coverLetter")),
		Contact: model.ContactInfo{
			PhoneNumber:      strings.TrimSpace(c.PostForm("phoneNumber")),
			LinkedinProfile:  optional(c.PostForm("linkedinProfile")),
			PortfolioWebsite: optional(c.PostForm("portfolioWebsite")),
		},
		Job: submission.SnapshotOf(job),
	}

	app, err := ac.Submissions.Submit(c.Request.Context(), req)
	if err != nil {
		utilities.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, SubmitResponse{Success: true, ApplicationID: app.ID, Application: *app})
}

func (ac *ApplicationController) readResume(c *gin.Context) (resume.File, bool) {
	rawFile, err := c.FormFile("resume")
	var maxBytesError *http.MaxBytesError
	if errors.As(err, &maxBytesError) {
		c.JSON(http.StatusRequestEntityTooLarge, utilities.ErrorResponse{Error: "Resume is too large"})
		return resume.File{}, false
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Resume file is required"})
		return resume.File{}, false
	}
	if rawFile.Size > ac.MaxResumeBytes {
		c.JSON(http.StatusRequestEntityTooLarge, utilities.ErrorResponse{
			Error: fmt.Sprintf("Resume is larger than %d MB", ac.MaxResumeBytes>>20),
		})
		return resume.File{}, false
	}

	f, err := rawFile.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{Error: "Cannot open file"})
		return resume.File{}, false
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{Error: "Cannot read file"})
		return resume.File{}, false
	}

	return resume.File{
		Filename:    rawFile.Filename,
		ContentType: rawFile.Header.Get("Content-Type"),
		Data:        data,
	}, true
}

// GetMyApplications lists the applications of the logged in candidate.
// @Summary List my applications
// @Tags Application
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param page query integer false "Page number, starts at 1"
// @Param limit query integer false "Page size, at most 100"
// @Param status query string false "Only applications in this status, all for every status"
// @Success 200 {object} ListResponse "Applications, newest first"
// @Failure 400 {object} utilities.ErrorResponse "Invalid status"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /applications [get]
func (ac *ApplicationController) GetMyApplications(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	status := c.Query("status")
	if status != "" && status != "all" && !model.IsValidApplicationStatus(status) {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Invalid status: " + status})
		return
	}

	page, limit := utilities.ParsePage(c, 10, 100)
	apps, total, err := ac.Store.ListByApplicant(c.Request.Context(), user.ID, store.ApplicantFilter{
		Status: status,
		Offset: (page - 1) * limit,
		Limit:  limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{Error: "Failed to fetch applications"})
		return
	}
	if apps == nil {
		apps = []model.Application{}
	}

	c.JSON(http.StatusOK, ListResponse{Applications: apps, Pagination: utilities.NewPagination(page, limit, total)})
}

// GetApplication returns one application.
// @Summary Get application by ID
// @Description The applicant, the recruiter that owns the job, or an admin can read it
// @Tags Application
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path integer true "ID of the application"
// @Success 200 {object} model.Application "Application"
// @Failure 400 {object} utilities.ErrorResponse "Invalid id"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not allowed to see this application"
// @Failure 404 {object} utilities.ErrorResponse "Application not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /applications/{id} [get]
func (ac *ApplicationController) GetApplication(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	id, ok := utilities.ParseIDParam(c, "id")
	if !ok {
		return
	}

	app, err := ac.Store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Application not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{Error: "Failed to retrieve application"})
		return
	}

	ownsJob := app.Job != nil && app.Job.RecruiterID == user.ID
	if app.ApplicantID != user.ID && !ownsJob && user.Role != model.RoleAdmin {
		c.JSON(http.StatusForbidden, utilities.ErrorResponse{Error: "You are not allowed to see this application"})
		return
	}

	c.JSON(http.StatusOK, app)
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
