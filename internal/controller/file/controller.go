// Package file provides HTTP handlers for file-related operations.
package file

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"JobMatch-backend/internal/database"
	"JobMatch-backend/internal/model"
	"JobMatch-backend/internal/storage"
	"JobMatch-backend/internal/utilities"
)

// FileController handles file related endpoints
type FileController struct {
	DB      *database.DBinstanceStruct
	Storage *storage.DBResumeStorage
}

// NewFileController creates a new instance of FileController
func NewFileController(db *database.DBinstanceStruct, resumes *storage.DBResumeStorage) *FileController {
	return &FileController{
		DB:      db,
		Storage: resumes,
	}
}

// GetFile function retrieves a resume and sends it as a downloadable attachment in
// the response.
// @Summary Retrieve dowloadable resume
// @Description Only the applicant who uploaded the resume, the recruiter of the job it was sent to, or an admin can download it
// @Tags File
// @Produce octet-stream
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param id path string true "ID of wanted file"
// @Success 200 {string} binary "Successfully retrieve file"
// @Failure 400 {object} utilities.ErrorResponse "Invalid authorization header"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 403 {object} utilities.ErrorResponse "Not allowed to access this file"
// @Failure 404 {object} utilities.ErrorResponse "Given file id not found"
// @Failure 500 {object} utilities.ErrorResponse "Fail to send file content"
// @Router /file/{id} [get]
func (fc *FileController) GetFile(c *gin.Context) {
	user, err := utilities.ExtractUser(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{Error: err.Error()})
		return
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "File not found"})
		return
	}

	var count int64
	if err := fc.DB.Model(&model.File{}).Where("id = ?", id).Count(&count).Error; err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{Error: "Failed to retrieve file"})
		return
	}
	if count == 0 {
		c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "File not found"})
		return
	}

	allowed, err := fc.canAccess(c, user, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{Error: "Failed to check file access"})
		return
	}
	if !allowed {
		c.JSON(http.StatusForbidden, utilities.ErrorResponse{Error: "You are not allowed to access this file"})
		return
	}

	file, reader, size, err := fc.Storage.Open(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			c.JSON(http.StatusNotFound, utilities.ErrorResponse{Error: "File not found"})
			return
		}
		log.Printf("file: failed to open file %d: %v", id, err)
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{Error: "Failed to retrieve file"})
		return
	}
	defer func() {
		if err := reader.Close(); err != nil {
			log.Printf("failed to close storage reader: %v", err)
		}
	}()

	writeFileResponse(c, file, reader, size)
}

// canAccess reports whether user may read the resume with the given file id.
func (fc *FileController) canAccess(c *gin.Context, user model.User, id int) (bool, error) {
	if user.Role == model.RoleAdmin {
		return true, nil
	}

	var count int64
	err := fc.DB.WithContext(c.Request.Context()).
		Model(&model.Application{}).
		Joins("JOIN jobs ON jobs.id = applications.job_id").
		Where("applications.resume_url = ?", storage.URIFor(id)).
		Where("applications.applicant_id = ? OR jobs.recruiter_id = ?", user.ID, user.ID).
		Count(&count).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	return count > 0, nil
}

func writeFileResponse(c *gin.Context, file *model.File, reader io.Reader, size int64) {
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Writer.Header().Set("Content-Disposition", "attachment; filename="+fmt.Sprint(file.ID)+file.Extension)
	c.Writer.Header().Set("Content-Type", contentType)
	if size > 0 {
		c.Writer.Header().Set("Content-Length", fmt.Sprint(size))
	}

	if _, err := io.Copy(c.Writer, reader); err != nil {
		handleWriterError(c)
	}
}

func handleWriterError(c *gin.Context) {
	if !c.Writer.Written() {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: "Failed to send file content",
		})
	} else {
		c.Abort()
	}
}
