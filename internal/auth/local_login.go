package auth

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"JobMatch-backend/internal/audit"
	"JobMatch-backend/internal/database"
	"JobMatch-backend/internal/model"
	"JobMatch-backend/internal/utilities"
)

// LocalAuthHandler holds the dependencies of the register and login endpoints.
type LocalAuthHandler struct {
	DB     *database.DBinstanceStruct
	Tokens *TokenIssuer
	Audit  *audit.Logger
}

// NewLocalAuthHandler creates a new instance of LocalAuthHandler.
func NewLocalAuthHandler(db *database.DBinstanceStruct, tokens *TokenIssuer, auditLog *audit.Logger) *LocalAuthHandler {
	return &LocalAuthHandler{
		DB:     db,
		Tokens: tokens,
		Audit:  auditLog,
	}
}

type registerInfo struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
	Email    string `json:"email" binding:"omitempty,email"`
	Role     string `json:"role" binding:"required,oneof=candidate recruiter"`
}

type loginInfo struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LocalRegisterHandler creates a candidate or recruiter account and returns an access token.
// @Summary Register with username and password
// @Description Username must not already exist and password must be at least 8 characters long
// @Tags Auth
// @Accept json
// @Produce json
// @Param Info body registerInfo true "role can be only 'candidate' or 'recruiter'"
// @Success 201 {object} model.AuthResponse "Account created"
// @Failure 400 {object} utilities.ErrorResponse "Info provided not met the condition"
// @Failure 409 {object} utilities.ErrorResponse "Username already exist"
// @Failure 500 {object} utilities.ErrorResponse "Database or password hashing error"
// @Router /auth/register [post]
func (lh *LocalAuthHandler) LocalRegisterHandler(c *gin.Context) {
	var info registerInfo

	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Username, password, and Role (Only 'candidate' or 'recruiter') must be provided",
		})
		return
	}

	var existing model.User
	err := lh.DB.Where("username = ?", info.Username).First(&existing).Error

	switch {
	case err == nil:
		c.JSON(http.StatusConflict, utilities.ErrorResponse{
			Error: "Username already exist",
		})
		return

	case errors.Is(err, gorm.ErrRecordNotFound):
		// Do nothing

	default:
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: "Database error",
		})
		return
	}

	if len(info.Password) < 8 {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Password should longer or equal to 8 characters",
		})
		return
	}

	hashedPassword, err := utilities.HashPassword(info.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: fmt.Sprintf("Failed hash password: %s", err.Error()),
		})
		return
	}

	user := model.User{
		Username: info.Username,
		Name:     info.Name,
		Password: hashedPassword,
		Role:     info.Role,
	}
	if info.Email != "" {
		user.Email = &info.Email
	}
	if user.Name == "" {
		user.Name = info.Username
	}

	if err := lh.DB.Create(&user).Error; err != nil {
		lh.Audit.Log(audit.LevelError, "Register", audit.StatusFail, info.Username, err.Error())
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: "Failed to create user",
		})
		return
	}

	lh.respondWithToken(c, http.StatusCreated, user, "Register")
}

// LocalLoginHandler checks the credentials and returns an access token.
// @Summary Login with username and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param Info body loginInfo true "Credentials for login"
// @Success 200 {object} model.AuthResponse "Logged in"
// @Failure 400 {object} utilities.ErrorResponse "Info provided not met the condition"
// @Failure 401 {object} utilities.ErrorResponse "Username not exist or password incorrect"
// @Failure 500 {object} utilities.ErrorResponse "Database error"
// @Router /auth/login [post]
func (lh *LocalAuthHandler) LocalLoginHandler(c *gin.Context) {
	var info loginInfo

	if err := c.ShouldBindJSON(&info); err != nil {
		c.JSON(http.StatusBadRequest, utilities.ErrorResponse{
			Error: "Username or password is not provided",
		})
		return
	}

	var user model.User
	err := lh.DB.Where("username = ?", info.Username).First(&user).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		lh.Audit.Log(audit.LevelWarning, "Login", audit.StatusFail, info.Username, "unknown username")
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{
			Error: "Username or password is incorrect",
		})
		return

	case err == nil:
		// Do nothing

	default:
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: "Database error",
		})
		return
	}

	if user.Password == "" || !utilities.VerifyPassword(info.Password, user.Password) {
		lh.Audit.Log(audit.LevelWarning, "Login", audit.StatusFail, info.Username, "wrong password")
		c.JSON(http.StatusUnauthorized, utilities.ErrorResponse{
			Error: "Username or password is incorrect",
		})
		return
	}

	lh.respondWithToken(c, http.StatusOK, user, "Login")
}

func (lh *LocalAuthHandler) respondWithToken(c *gin.Context, status int, user model.User, action string) {
	accessToken, err := lh.Tokens.GenerateStandardToken(user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, utilities.ErrorResponse{
			Error: "Failed to generate access token",
		})
		return
	}

	lh.Audit.Log(audit.LevelInfo, action, audit.StatusSuccess, user.Username, "")
	c.JSON(status, model.AuthResponse{
		User:        user,
		AccessToken: accessToken,
	})
}
