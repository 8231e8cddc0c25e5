package router

import (
	"net/http"
	"time"

	"github.com/campora/taskgate-backend/internal/config"
	"github.com/campora/taskgate-backend/internal/handler"
	"github.com/campora/taskgate-backend/internal/middleware"
	"github.com/campora/taskgate-backend/internal/response"
	"github.com/campora/taskgate-backend/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth          *handler.AuthHandler
	StudentPortal *handler.StudentPortalHandler
	Task          *handler.TaskHandler
	WS            *handler.WSHandler
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

	// ─── 1. Auth Group (Public) ────────────────────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/student/login", handlers.Auth.StudentLogin)
		auth.POST("/instructor/login", handlers.Auth.InstructorLogin)

		// Authenticated profile routes
		auth.POST("/student/logout", middleware.RequireStudentJWT(authService), handlers.Auth.StudentLogout)
		auth.GET("/student/me", middleware.RequireStudentJWT(authService), handlers.Auth.GetStudentProfile)
		auth.PUT("/student/me/settings", middleware.RequireStudentJWT(authService), handlers.Auth.UpdateStudentSettings)
		auth.GET("/instructor/me", middleware.RequireInstructorJWT(authService), handlers.Auth.GetInstructorProfile)
		auth.PUT("/instructor/me/settings", middleware.RequireInstructorJWT(authService), handlers.Auth.UpdateInstructorSettings)
	}

	// ─── 2. Student Group (JWT + Single Device) ────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(
		middleware.RequireStudentJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		studentAPI.GET("/courses/:course_id/tasks", handlers.StudentPortal.ListTasks)
		studentAPI.GET("/tasks/:task_id", handlers.StudentPortal.GetTask)
		studentAPI.POST("/tasks/:task_id/timer", handlers.StudentPortal.StartTimer)
		studentAPI.GET("/tasks/:task_id/timer", handlers.StudentPortal.GetTimer)
		studentAPI.GET("/tasks/:task_id/submission", handlers.StudentPortal.GetSubmission)
		studentAPI.POST("/tasks/:task_id/submission", handlers.StudentPortal.CreateSubmission)
		studentAPI.PUT("/tasks/:task_id/draft", handlers.StudentPortal.SaveDraft)
		studentAPI.GET("/tasks/:task_id/draft", handlers.StudentPortal.GetDraft)
	}

	// ─── 3. WebSocket Group (Student WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireStudentWSAuth(authService))
	{
		ws.GET("/student/tasks/:task_id/timer/stream", handlers.WS.TimerStream)
	}

	// ─── 4. Instructor Group (JWT) ─────────────────────────────────────
	instructorAPI := router.Group("/api/v1/instructor")
	instructorAPI.Use(middleware.RequireInstructorJWT(authService))
	{
		instructorAPI.POST("/tasks", handlers.Task.CreateTask)
		instructorAPI.GET("/tasks/:task_id", handlers.Task.GetTask)
		instructorAPI.GET("/courses/:course_id/tasks", handlers.Task.ListTasks)
		instructorAPI.PUT("/tasks/:task_id", handlers.Task.UpdateTask)
		instructorAPI.POST("/tasks/:task_id/publish", handlers.Task.PublishTask)
		instructorAPI.DELETE("/tasks/:task_id", handlers.Task.DeleteTask)
		instructorAPI.GET("/tasks/:task_id/submissions", handlers.Task.ListSubmissions)
		instructorAPI.PUT("/tasks/:task_id/submissions/:student_id/feedback", handlers.Task.SetFeedback)
	}

	return router
}
