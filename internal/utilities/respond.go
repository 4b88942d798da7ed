package utilities

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"JobMatch-backend/internal/apperror"
)

// RespondError writes err as an ErrorResponse with the status of its kind.
// Only the public message is sent, wrapped causes stay in the logs.
func RespondError(c *gin.Context, err error) {
	status := apperror.HTTPStatus(apperror.KindOf(err))
	if status >= http.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, ErrorResponse{Error: apperror.Message(err)})
}

// ParseIDParam reads a positive integer path parameter. It writes a 400 and
// returns false when the value is not valid.
func ParseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}
