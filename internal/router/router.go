package router

import (
	"net/http"
	"time"

	"github.com/examgate/backend/internal/config"
	"github.com/examgate/backend/internal/handler"
	"github.com/examgate/backend/internal/middleware"
	"github.com/examgate/backend/internal/response"
	"github.com/examgate/backend/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth     *handler.AuthHandler
	User     *handler.UserHandler
	Exam     *handler.ExamHandler
	Question *handler.QuestionHandler
	Portal   *handler.PortalHandler
	WS       *handler.WSHandler
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

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/login", handlers.Auth.Login)

		// Authenticated profile routes
		auth.GET("/me", middleware.RequireStaffOrStudentJWT(authService), handlers.Auth.Me)
		auth.POST("/logout", middleware.RequireStaffOrStudentJWT(authService), handlers.Auth.Logout)
	}

	// ─── 2. Student Group (JWT + Single Device) ────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(
		middleware.RequireStudentJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		studentAPI.GET("/lobby", handlers.Portal.GetLobby)
		studentAPI.GET("/lobby/stream", handlers.Portal.LobbyStream)
		studentAPI.GET("/attempts", handlers.Portal.MyAttempts)

		studentAPI.POST("/exams/:id/start", handlers.Portal.StartAttempt)
		studentAPI.GET("/attempt", handlers.Portal.GetAttempt)
		studentAPI.POST("/attempt/answer", handlers.Portal.SelectAnswer)
		studentAPI.POST("/attempt/navigate", handlers.Portal.Navigate)
		studentAPI.POST("/attempt/finish", handlers.Portal.Finish)
		studentAPI.POST("/attempt/abandon", handlers.Portal.Abandon)

		studentAPI.GET("/proctor/status", handlers.Portal.ProctorStatus)
		studentAPI.GET("/proctor/video-url", handlers.Portal.ProctorVideoURL)
	}

	// ─── 3. WebSocket Group (Student WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireStudentWSAuth(authService))
	{
		ws.GET("/exams/:id/stream", handlers.WS.AttemptStream)
	}

	// ─── 4. Teacher Group (Teacher or Admin JWT) ───────────────────────
	teacherAPI := router.Group("/api/v1/teacher")
	teacherAPI.Use(middleware.RequireStaffJWT(authService))
	{
		teacherAPI.GET("/exams", handlers.Exam.List)
		teacherAPI.POST("/exams", handlers.Exam.Create)
		teacherAPI.GET("/exams/:id", handlers.Exam.Get)
		teacherAPI.PUT("/exams/:id", handlers.Exam.Update)
		teacherAPI.DELETE("/exams/:id", handlers.Exam.Delete)
		teacherAPI.GET("/exams/:id/results", handlers.Exam.Results)
		teacherAPI.DELETE("/exams/:id/results/:student_id", handlers.Exam.DeleteResult)

		teacherAPI.GET("/exams/:id/questions", handlers.Question.List)
		teacherAPI.POST("/exams/:id/questions", handlers.Question.Add)
		teacherAPI.PUT("/exams/:id/questions/:question_id", handlers.Question.Update)
		teacherAPI.DELETE("/exams/:id/questions/:question_id", handlers.Question.Delete)
	}

	// ─── 5. Admin Group (Admin JWT) ────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		adminAPI.GET("/users", handlers.User.List)
		adminAPI.POST("/users", handlers.User.Create)
		adminAPI.GET("/users/:id", handlers.User.Get)
		adminAPI.PUT("/users/:id", handlers.User.Update)
		adminAPI.DELETE("/users/:id", handlers.User.Delete)
		adminAPI.POST("/users/:id/reset-session", handlers.User.ResetSession)
	}

	return router
}
