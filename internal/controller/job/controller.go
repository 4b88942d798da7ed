// Package job provides HTTP handlers for job related operations.
package job

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"JobMatch-backend/internal/audit"
	"JobMatch-backend/internal/database"
	"JobMatch-backend/internal/model"
	"JobMatch-backend/internal/utilities"
)

// JobController handles job related endpoints
type JobController struct {
	DB    *database.DBinstanceStruct
	Audit *audit.Logger
}

// ListResponse is a page of jobs.
type ListResponse struct {
	Jobs       []model.Job          `json:"jobs"`
	Pagination utilities.Pagination `json:"pagination"`
}

// StatusRequest toggles whether a job accepts applications.
type StatusRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// NewJobController creates a new instance of JobController
func NewJobController(db *database.DBinstanceStruct, auditLog *audit.Logger) *JobController {
	return &JobController{
		DB:    db,
		Audit: auditLog,
	}
}

// CreateJob handles the creation of a new job by a recruiter.
// @Summary Create job based on given json structure
// @Description shortlistSize defaults to 5 and numberOfRoles to 1 when omitted
// @Tags Job
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param Job body model.EditableJobInfo true "Input job information"
// @Success 201 {object} model.Job "Successfully create job"
// @Failure 400 {object} utilities.ErrorResponse "Invalid authorization header, or invalid job struct"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not logged in as recruiter"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /jobs [post]
func (jc *JobController) CreateJob(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	job := model.Job{}
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&job.EditableJobInfo); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Invalid request body: %s", err.Error()),
		})
		return
	}
	if strings.TrimSpace(job.Title) == "" {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "title is required"})
		return
	}
	if job.ShortlistSize < 0 {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: model.ErrInvalidShortlistSize.Error()})
		return
	}

	job.RecruiterID = user.ID
	job.IsActive = true
	if err := jc.DB.Omit(clause.Associations).Create(&job).Error; err != nil {
		if errors.Is(err, model.ErrInvalidShortlistSize) {
			c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprint("Failed to create job: ", err),
		})
		return
	}

	jc.Audit.Log(audit.LevelInfo, "create_job", audit.StatusSuccess, user.Username, fmt.Sprintf("job %d created", job.ID))
	c.JSON(http.StatusCreated, job)
}

// GetJobs fetches jobs that match the query and returns one page of them.
// @Summary Get active, non-expired jobs based on query
// @Description Every query is optional. mine=true lists the caller's own jobs including inactive ones.
// @Tags Job
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param search query string false "Search from job title, substring and case insensitive"
// @Param type query string false "Job type, substring and case insensitive"
// @Param tag query string false "Jobs whose tags contain tag, case insensitive"
// @Param location query string false "Location, substring and case insensitive"
// @Param company query string false "Company, substring and case insensitive"
// @Param industry query string false "Industry, substring and case insensitive"
// @Param exp query string false "Experience level, exact match"
// @Param remote query boolean false "Only remote jobs when true"
// @Param mine query boolean false "Only jobs posted by the caller"
// @Param desc query boolean false "Newest first when true"
// @Param page query integer false "Page number, starts at 1"
// @Param limit query integer false "Page size, at most 100"
// @Success 200 {object} ListResponse "Jobs"
// @Failure 400 {object} utilities.ErrorResponse "Invalid authorization header"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /jobs [get]
func (jc *JobController) GetJobs(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	filtered := func() *gorm.DB {
		q := jc.DB.WithContext(c.Request.Context()).Model(&model.Job{})

		if c.Query("mine") == "true" {
			q = q.Where("recruiter_id = ?", user.ID)
		} else {
			q = q.Where("is_active = ?", true).Where("expiring > ? OR expiring IS NULL", time.Now())
		}
		if v := c.Query("search"); v != "" {
			q = q.Where("title ILIKE ?", "%"+v+"%")
		}
		if v := c.Query("type"); v != "" {
			q = q.Where("job_type ILIKE ?", "%"+v+"%")
		}
		if v := c.Query("tag"); v != "" {
			q = q.Where("? ILIKE ANY(tags)", v)
		}
		if v := c.Query("location"); v != "" {
			q = q.Where("location ILIKE ?", "%"+v+"%")
		}
		if v := c.Query("company"); v != "" {
			q = q.Where("company ILIKE ?", "%"+v+"%")
		}
		if v := c.Query("industry"); v != "" {
			q = q.Where("industry ILIKE ?", "%"+v+"%")
		}
		if v := c.Query("exp"); v != "" {
			q = q.Where("experience_level = ?", v)
		}
		if c.Query("remote") == "true" {
			q = q.Where("is_remote = ?", true)
		}
		return q
	}

	page, limit := utilities.ParsePage(c, 20, 100)
	var (
		jobs  []model.Job
		total int64
	)
	g, _ := errgroup.WithContext(c.Request.Context())
	g.Go(func() error {
		return filtered().Count(&total).Error
	})
	g.Go(func() error {
		return filtered().
			Preload("Recruiter").
			Order(clause.OrderByColumn{
				Column: clause.Column{Name: "post_time"},
				Desc:   strings.ToLower(c.Query("desc")) == "true",
			}).
			Order("id").
			Offset((page - 1) * limit).Limit(limit).
			Find(&jobs).Error
	})
	if err := g.Wait(); err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprint("Failed to fetch jobs: ", err.Error()),
		})
		return
	}

	if jobs == nil {
		jobs = []model.Job{}
	}
	for i := range jobs {
		hideApplicants(&jobs[i], user)
	}

	c.JSON(http.StatusOK, ListResponse{Jobs: jobs, Pagination: utilities.NewPagination(page, limit, total)})
}

// GetJobByID fetches a job by its ID.
// @Summary Get job by ID
// @Description The applicant cache is only included for the owning recruiter and admins
// @Tags Job
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path integer true "ID of desired job"
// @Success 200 {object} model.Job "Return the job with the specified ID"
// @Failure 400 {object} utilities.ErrorResponse "Invalid authorization header"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 404 {object} utilities.ErrorResponse "Job not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /jobs/{id} [get]
func (jc *JobController) GetJobByID(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	job, ok := jc.findJob(c)
	if !ok {
		return
	}
	hideApplicants(&job, user)

	c.JSON(http.StatusOK, job)
}

// EditJob allows a recruiter to update a job they own.
// @Summary Edit job based on given json structure
// @Description Only the recruiter that owns the job or an admin can edit it. Omitted fields are left unchanged.
// @Tags Job
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path integer true "ID of desired job"
// @Param Job body model.EditableJobInfo true "Input job information"
// @Success 200 {object} model.Job "Successfully update job"
// @Failure 400 {object} utilities.ErrorResponse "Invalid authorization header, or invalid job struct"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Do not have permission to edit"
// @Failure 404 {object} utilities.ErrorResponse "Job not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /jobs/{id} [patch]
func (jc *JobController) EditJob(c *gin.Context) {
	user, job, ok := jc.findOwnedJob(c, "edit")
	if !ok {
		return
	}

	updated := model.Job{}
	decoder := json.NewDecoder(c.Request.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&updated.EditableJobInfo); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to parse request body: %s", err.Error()),
		})
		return
	}
	utilities.MergeNonEmpty(&job.EditableJobInfo, &updated.EditableJobInfo)
	if err := job.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	if err := jc.DB.Model(&job).Omit(clause.Associations).Updates(model.Job{EditableJobInfo: job.EditableJobInfo}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to update job: %s", err.Error()),
		})
		return
	}

	if err := jc.DB.First(&job, job.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve updated job: %s", err.Error()),
		})
		return
	}

	jc.Audit.Log(audit.LevelInfo, "edit_job", audit.StatusSuccess, user.Username, fmt.Sprintf("job %d edited", job.ID))
	c.JSON(http.StatusOK, job)
}

// SetJobStatus opens or closes a job for applications.
// @Summary Activate or deactivate a job
// @Tags Job
// @Accept json
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path integer true "ID of desired job"
// @Param status body StatusRequest true "New status"
// @Success 200 {object} model.Job "Updated job"
// @Failure 400 {object} utilities.ErrorResponse "Invalid request body"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Do not have permission to edit"
// @Failure 404 {object} utilities.ErrorResponse "Job not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /jobs/{id}/status [patch]
func (jc *JobController) SetJobStatus(c *gin.Context) {
	user, job, ok := jc.findOwnedJob(c, "edit")
	if !ok {
		return
	}

	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "isActive is required"})
		return
	}

	if err := jc.DB.Model(&job).Update("is_active", *req.IsActive).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to update job status: %s", err.Error()),
		})
		return
	}
	job.IsActive = *req.IsActive

	jc.Audit.Log(audit.LevelInfo, "job_status", audit.StatusSuccess, user.Username,
		fmt.Sprintf("job %d isActive=%t", job.ID, job.IsActive))
	c.JSON(http.StatusOK, job)
}

// DeleteJob allows a recruiter to delete a job they own. Its applications
// are deleted with it.
// @Summary Delete given job ID
// @Description Only the recruiter that owns the job or an admin can delete it
// @Tags Job
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path integer true "ID of desired job"
// @Success 200 {object} utilities.MessageResponse "Successfully delete job"
// @Failure 400 {object} utilities.ErrorResponse "Invalid authorization header"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Do not have permission to delete this job"
// @Failure 404 {object} utilities.ErrorResponse "Job not found"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /jobs/{id} [delete]
func (jc *JobController) DeleteJob(c *gin.Context) {
	user, job, ok := jc.findOwnedJob(c, "delete")
	if !ok {
		return
	}

	if err := jc.DB.Delete(&model.Job{}, job.ID).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to delete job: %s", err.Error()),
		})
		return
	}

	jc.Audit.Log(audit.LevelInfo, "delete_job", audit.StatusSuccess, user.Username, fmt.Sprintf("job %d deleted", job.ID))
	c.JSON(http.StatusOK, utilities.MessageResponse{Message: "Job deleted"})
}

func (jc *JobController) findJob(c *gin.Context) (model.Job, bool) {
	id, ok := utilities.ParseIDParam(c, "id")
	if !ok {
		return model.Job{}, false
	}

	job := model.Job{}
	if err := jc.DB.Preload("Recruiter").First(&job, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "Job not found"})
			return model.Job{}, false
		}
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed to retrieve job: %s", err.Error()),
		})
		return model.Job{}, false
	}
	return job, true
}

func (jc *JobController) findOwnedJob(c *gin.Context, action string) (model.User, model.Job, bool) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return model.User{}, model.Job{}, false
	}

	job, ok := jc.findJob(c)
	if !ok {
		return model.User{}, model.Job{}, false
	}

	if job.RecruiterID != user.ID && user.Role != model.RoleAdmin {
		c.JSON(http.StatusForbidden, utilities.ErrorResponse{
			Error: fmt.Sprintf("You are not allowed to %s this job", action),
		})
		return model.User{}, model.Job{}, false
	}
	return user, job, true
}

func hideApplicants(job *model.Job, user model.User) {
	if job.RecruiterID == user.ID || user.Role == model.RoleAdmin {
		return
	}
	job.Applicants = datatypes.NewJSONType(model.ApplicantIndex{})
}
