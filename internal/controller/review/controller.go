// Package review provides the resume review endpoint.
package review

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"JobMatch-backend/internal/resume"
	"JobMatch-backend/internal/review"
	"JobMatch-backend/internal/utilities"
)

// ReviewController handles resume review requests
type ReviewController struct {
	Reviewer       review.Reviewer
	MaxResumeBytes int64
}

// NewReviewController creates a new instance of ReviewController
func NewReviewController(reviewer review.Reviewer, maxResumeBytes int64) *ReviewController {
	if maxResumeBytes <= 0 {
		maxResumeBytes = 10 << 20
	}
	return &ReviewController{
		Reviewer:       reviewer,
		MaxResumeBytes: maxResumeBytes,
	}
}

// ReviewResume returns feedback on an uploaded resume. Nothing is stored.
// @Summary Review a resume
// @Description Returns a review and optimization suggestions for a PDF, DOC or DOCX resume
// @Tags Resume
// @Accept mpfd
// @Produce json
// @Param Authorization header string true "Insert your access token" default(Bearer <your access token>)
// @Param resume formData file true "Resume file"
// @Success 200 {object} review.Result "Review of the resume"
// @Failure 400 {object} utilities.ErrorResponse "Missing or unsupported resume"
// @Failure 401 {object} utilities.ErrorResponse "Invalid token"
// @Failure 413 {object} utilities.ErrorResponse "Resume is too large"
// @Failure 502 {object} utilities.ErrorResponse "Review service unavailable"
// @Router /resume/review [post]
func (rc *ReviewController) ReviewResume(c *gin.Context) {
	rawFile, err := c.FormFile("resume")
	var maxBytesError *http.MaxBytesError
	if errors.As(err, &maxBytesError) {
		c.JSON(http.StatusRequestEntityTooLarge, utilities.ErrorResponse{Error: "Resume is too large"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Resume file is required"})
		return
	}
	if rawFile.Size > rc.MaxResumeBytes {
		c.JSON(http.StatusRequestEntityTooLarge, utilities.ErrorResponse{
			Error: fmt.Sprintf("Resume is larger than %d MB", rc.MaxResumeBytes>>20),
		})
		return
	}

	f, err := rawFile.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{Error: "Cannot open file"})
		return
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{Error: "Cannot read file"})
		return
	}

	file := resume.File{
		Filename:    rawFile.Filename,
		ContentType: rawFile.Header.Get("Content-Type"),
		Data:        data,
	}
	if len(file.Data) == 0 {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: "Resume file is empty"})
		return
	}
	contentType, err := resume.ResolveContentType(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{Error: err.Error()})
		return
	}
	file.ContentType = contentType

	result, err := rc.Reviewer.Review(c.Request.Context(), file)
	if err != nil {
		log.Printf("review: failed to review %s: %v", file.Filename, err)
		c.JSON(http.StatusBadGateway, utilities.ErrorResponse{Error: "Resume review is unavailable, please try again later"})
		return
	}

	c.JSON(http.StatusOK, result)
}
