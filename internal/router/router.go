package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/examsecure/examsecure-backend/internal/config"
	"github.com/examsecure/examsecure-backend/internal/handler"
	"github.com/examsecure/examsecure-backend/internal/middleware"
	"github.com/examsecure/examsecure-backend/internal/response"
	"github.com/examsecure/examsecure-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth          *handler.AuthHandler
	Exam          *handler.ExamHandler
	Attempt       *handler.AttemptHandler
	QuestionImage *handler.QuestionImageHandler
	SignalWS      *handler.SignalWSHandler
	Monitor       *handler.MonitorHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for credential-bearing routes (30 requests per minute
	// per IP): login and exam start both take passwords.
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group ─────────────────────────────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", authLimiter.Middleware(), handlers.Auth.Login)

		// Profile and identity routes accept any valid role; teachers log
		// in through the same endpoint.
		authed := auth.Group("")
		authed.Use(middleware.RequireAnyJWT(authService))
		{
			authed.POST("/logout", handlers.Auth.Logout)
			authed.GET("/me", handlers.Auth.Me)
			authed.GET("/identity", handlers.Auth.IdentityStatus)
			authed.POST("/identity/verify", handlers.Auth.VerifyIdentity)
			authed.POST("/identity/enroll", handlers.Auth.EnrollIdentity)
			authed.DELETE("/identity", handlers.Auth.ClearIdentity)
		}
	}

	// ─── 2. Student Group (JWT + Single Device) ────────────────────────
	studentAPI := router.Group("/api/v1")
	studentAPI.Use(
		middleware.RequireStudentJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		studentAPI.GET("/exams", handlers.Attempt.ListExams)
		studentAPI.POST("/exams/:examId/start", authLimiter.Middleware(), handlers.Attempt.Start)

		studentAPI.GET("/attempt", handlers.Attempt.State)
		studentAPI.POST("/attempt/answer", handlers.Attempt.Answer)
		studentAPI.POST("/attempt/flag", handlers.Attempt.Flag)
		studentAPI.POST("/attempt/unflag", handlers.Attempt.Unflag)
		studentAPI.POST("/attempt/navigate", handlers.Attempt.Navigate)
		studentAPI.POST("/attempt/submit", handlers.Attempt.Submit)
		studentAPI.GET("/attempt/events", handlers.Attempt.Events)
		studentAPI.GET("/attempt/questions/:number/image",
			middleware.NoStore(),
			handlers.QuestionImage.Image,
		)

		studentAPI.GET("/results", handlers.Attempt.MyResults)
	}

	// ─── 3. WebSocket Group (Student WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireStudentWSAuth(authService))
	{
		ws.GET("/attempt/signals", handlers.SignalWS.Stream)
	}

	// ─── 4. Teacher/Admin Group ────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireTeacherJWT(authService))
	{
		adminAPI.GET("/exams", handlers.Exam.ListExams)
		adminAPI.POST("/exams", handlers.Exam.CreateExam)
		adminAPI.GET("/exams/stats", handlers.Exam.Stats)
		adminAPI.GET("/exams/:examId", handlers.Exam.GetExam)
		adminAPI.DELETE("/exams/:examId", handlers.Exam.DeleteExam)
		adminAPI.PATCH("/exams/:examId/status", handlers.Exam.UpdateExamStatus)
		adminAPI.PATCH("/exams/:examId/retake", handlers.Exam.ToggleRetake)
		adminAPI.GET("/results", handlers.Exam.ListResults)

		adminAPI.GET("/monitor", handlers.Monitor.Overview)
		adminAPI.GET("/attempts/:userId/events", handlers.Monitor.AttemptEvents)
	}

	return router
}
