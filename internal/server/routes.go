package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	// Init swagger doc
	_ "JobMatch-backend/docs"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"JobMatch-backend/internal/auth"
	"JobMatch-backend/internal/controller/applicant"
	"JobMatch-backend/internal/controller/application"
	"JobMatch-backend/internal/controller/file"
	"JobMatch-backend/internal/controller/job"
	reviewController "JobMatch-backend/internal/controller/review"
	"JobMatch-backend/internal/middleware"
	"JobMatch-backend/internal/model"
	"JobMatch-backend/internal/results"
	"JobMatch-backend/internal/store"
	"JobMatch-backend/internal/submission"
)

// RegisterRoutes will register each http endpoint routes to bound Server instance
func (s *MyServer) RegisterRoutes() http.Handler {
	r := gin.Default()

	appStore := store.New(s.DB.DB)
	submissions := submission.NewService(appStore, s.Resumes, s.Scorer)

	lAuth := auth.NewLocalAuthHandler(s.DB, s.Tokens, s.Audit)
	logout := auth.NewLogoutController(s.Blacklist)
	jobs := job.NewJobController(s.DB, s.Audit)
	applications := application.NewApplicationController(s.DB, appStore, submissions, s.Config.MaxResumeBytes)
	applicants := applicant.NewApplicantController(s.DB, appStore, results.NewService(appStore), s.Audit)
	files := file.NewFileController(s.DB, s.Resumes)
	reviews := reviewController.NewReviewController(s.Reviewer, s.Config.MaxResumeBytes)

	rateLimit := middleware.RateLimiterMiddleware(s.Config.RateLimitPerSecond)
	sizeLimit := middleware.SizeLimit(s.Config.MaxResumeBytes)
	recruiterOnly := middleware.CheckRole(model.RoleRecruiter, model.RoleAdmin)

	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.Config.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Disposition"},
		AllowCredentials: true,
	}))
	r.Use(middleware.SafeHeader())

	r.GET("/health", s.healthHandler)
	v1 := r.Group("/api/v1")
	{
		authRoute := v1.Group("/auth")
		{
			authRoute.POST("login", lAuth.LocalLoginHandler)
			authRoute.POST("register", lAuth.LocalRegisterHandler)
			authRoute.POST("logout", middleware.JwtBlacklistCheck(s.Blacklist), middleware.RequireAuth(s.DB, s.Tokens), logout.LogoutHandler)
		}

		needAuth := v1.Group("")
		{
			needAuth.Use(middleware.JwtBlacklistCheck(s.Blacklist), middleware.RequireAuth(s.DB, s.Tokens))

			needAuth.GET("file/:id", files.GetFile)
			needAuth.POST("resume/review", rateLimit, sizeLimit, reviews.ReviewResume)

			jobRoute := needAuth.Group("/jobs")
			{
				jobRoute.GET("", jobs.GetJobs)
				jobRoute.GET("/:id", jobs.GetJobByID)

				jobRoute.POST("", recruiterOnly, jobs.CreateJob)
				jobRoute.PATCH("/:id", recruiterOnly, jobs.EditJob)
				jobRoute.PATCH("/:id/status", recruiterOnly, jobs.SetJobStatus)
				jobRoute.DELETE("/:id", recruiterOnly, jobs.DeleteJob)

				jobRoute.GET("/:id/applicants", recruiterOnly, applicants.ListApplicants)
				jobRoute.GET("/:id/applicants/export", recruiterOnly, applicants.ExportApplicants)
				jobRoute.PATCH("/:id/applicants/:applicationId/status", recruiterOnly, applicants.UpdateApplicationStatus)
				jobRoute.POST("/:id/declare-results", recruiterOnly, applicants.DeclareResults)
			}

			applicationRoute := needAuth.Group("/applications")
			{
				applicationRoute.GET("/:id", applications.GetApplication)

				applicationRoute.Use(middleware.CheckRole(model.RoleCandidate))
				applicationRoute.POST("", rateLimit, sizeLimit, applications.SubmitApplication)
				applicationRoute.GET("", applications.GetMyApplications)
			}
		}
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

func (s *MyServer) healthHandler(c *gin.Context) {
	stats := s.DB.Health()
	if stats["status"] != "up" {
		c.JSON(http.StatusServiceUnavailable, stats)
		return
	}
	c.JSON(http.StatusOK, stats)
}
