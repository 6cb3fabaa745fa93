package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/quizgate/quizgate-backend/internal/clock"
	"github.com/quizgate/quizgate-backend/internal/config"
	"github.com/quizgate/quizgate-backend/internal/handler"
	"github.com/quizgate/quizgate-backend/internal/middleware"
	"github.com/quizgate/quizgate-backend/internal/response"
	"github.com/quizgate/quizgate-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth          *handler.AuthHandler
	Quiz          *handler.QuizHandler
	AdminQuestion *handler.AdminQuestionHandler
	AdminUser     *handler.AdminUserHandler
	AdminResult   *handler.AdminResultHandler
	Monitor       *handler.MonitorHandler
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

	// Rate limiter for auth routes, budget from config.
	authLimiter := middleware.NewRateLimiter(cfg.AuthRateLimit, cfg.AuthRateWindow, clock.System())

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)

		// Authenticated profile routes
		auth.POST("/logout", middleware.RequireJWT(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. Quiz Group (JWT + Single Device) ───────────────────────────
	quizAPI := router.Group("/api/v1/quiz")
	quizAPI.Use(
		middleware.RequireJWT(authService),
		middleware.CheckSingleDeviceLogin(authService),
	)
	{
		quizAPI.POST("/start", handlers.Quiz.Start)
		quizAPI.GET("/current", handlers.Quiz.GetCurrent)
		quizAPI.POST("/advance", handlers.Quiz.Advance)
		quizAPI.POST("/violation", handlers.Quiz.ReportViolation)
		quizAPI.GET("/result", handlers.Quiz.GetResult)
	}

	// ─── 3. WebSocket Group (WS Auth via query token) ──────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireWSAuth(authService))
	{
		ws.GET("/quiz/stream", handlers.WS.ProctorStream)
	}

	// ─── 4. Admin Group (Admin JWT) ────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		// Question bank management
		adminAPI.GET("/questions", handlers.AdminQuestion.ListQuestions)
		adminAPI.POST("/questions", handlers.AdminQuestion.CreateQuestion)
		adminAPI.PUT("/questions/:id", handlers.AdminQuestion.UpdateQuestion)
		adminAPI.DELETE("/questions/:id", handlers.AdminQuestion.DeleteQuestion)

		// Taker account management
		adminAPI.DELETE("/users/:id", handlers.AdminUser.DeleteUser)

		// Results
		adminAPI.GET("/results", handlers.AdminResult.ListResults)
		adminAPI.GET("/results/export", handlers.AdminResult.ExportResults)

		// Live proctoring monitor
		adminAPI.GET("/monitor", handlers.Monitor.Snapshot)
		adminAPI.GET("/monitor/stream", handlers.Monitor.MonitorSSE)
	}

	return router
}
