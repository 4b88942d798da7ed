// Package server contain implementation of go-gin-server and each route handlers
package server

import (
	"fmt"
	"net/http"
	"time"

	"JobMatch-backend/internal/audit"
	"JobMatch-backend/internal/auth"
	"JobMatch-backend/internal/config"
	"JobMatch-backend/internal/database"
	"JobMatch-backend/internal/review"
	"JobMatch-backend/internal/scoring"
	"JobMatch-backend/internal/storage"
)

// MyServer holds the dependencies shared by every route handler
type MyServer struct {
	Config    *config.Config
	DB        *database.DBinstanceStruct
	Tokens    *auth.TokenIssuer
	Blacklist auth.JwtBlacklistStore
	Audit     *audit.Logger
	Resumes   *storage.DBResumeStorage
	Scorer    scoring.Scorer
	Reviewer  review.Reviewer
}

// NewServer construct new http.Server serving s on the configured port
func NewServer(s *MyServer) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", s.Config.Port),
		Handler:           s.RegisterRoutes(),
		IdleTimeout:       time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// scoring a resume can take up to the scorer timeout
		WriteTimeout: s.Config.Scorer.Timeout + 30*time.Second,
	}
}
