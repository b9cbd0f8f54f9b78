package handler

import (
	"database/sql"

	"audio_classifier/internal/auth"
	"audio_classifier/internal/blob"
	"audio_classifier/internal/config"
	"audio_classifier/internal/middleware"
	"audio_classifier/internal/observability"
	"audio_classifier/internal/queue"
	"audio_classifier/internal/task"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/rabbitmq/amqp091-go"
)

// SetupHandler initializes all dependencies and routes
func SetupHandler(db *sql.DB, conn *amqp091.Connection, redisClient *redis.Client, cfg *config.Config) *gin.Engine {

	r := gin.Default()

	// Must be registered before the routes so the handler chains include it
	r.Use(middleware.PrometheusMiddleware(observability.GlobalMetrics))

	taskRepo := task.NewTaskRepository()
	blobRepo := blob.NewBlobRepository()
	publisher := queue.NewEventPublisher(conn)

	taskService := task.NewTaskService(taskRepo, blobRepo, db, publisher, redisClient)

	taskController := task.NewTaskController(taskService)
	authController := auth.NewAuthController(cfg.Auth.JWTSecret, cfg.Auth.AdminPasswordHash)

	setupRoutes(r, taskController, authController, redisClient, cfg.Auth.JWTSecret)

	return r
}

// setupRoutes configures all application routes
func setupRoutes(r *gin.Engine, taskCtrl *task.TaskController, authCtrl *auth.AuthController, redisClient *redis.Client, jwtSecret string) {

	// Admin authentication (for manual requeue)
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/login", middleware.RateLimiterMiddleware(redisClient, middleware.StrictRateLimiter()), authCtrl.Login)
		authGroup.POST("/refresh", authCtrl.RefreshToken)
	}

	api := r.Group("/api/v1")
	{
		// Upload is heavy: tight per-IP bucket
		api.POST("/audio", middleware.RateLimiterMiddleware(redisClient, middleware.UploadRateLimiter()), taskCtrl.UploadAudio)

		// Dashboard reads
		readLimiter := middleware.RateLimiterMiddleware(redisClient, middleware.GenerousRateLimiter())
		api.GET("/tasks", readLimiter, taskCtrl.ListTasks)
		api.GET("/tasks/:id", readLimiter, taskCtrl.GetTask)
		api.GET("/results", readLimiter, taskCtrl.ListResults)
		api.GET("/stats", readLimiter, taskCtrl.GetStats)

		// Manual re-enqueue of failed tasks, admin only
		api.POST("/tasks/:id/requeue", middleware.AuthMiddleware(jwtSecret), taskCtrl.RequeueTask)
	}
}
