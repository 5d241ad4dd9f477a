package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/hoaxify/hoaxify/config"
	"github.com/hoaxify/hoaxify/controllers"
	"github.com/hoaxify/hoaxify/middleware"
	"github.com/hoaxify/hoaxify/services"
	"github.com/hoaxify/hoaxify/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, hoaxService *services.HoaxService, feedService *services.FeedService, fileService *services.FileService, userService *services.UserService) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	// Attachment bytes are addressed by their opaque generated name
	r.Static("/images", cfg.UploadPath)

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(db)
	hoaxController := controllers.NewHoaxController(db, hoaxService, feedService)
	fileController := controllers.NewFileController(db, fileService)
	userController := controllers.NewUserController(db, userService)

	api := r.Group("/api/1.0")

	limited := api.Group("")
	limited.Use(middleware.RateLimitMiddleware())
	limited.POST("/users", authController.Register)
	limited.POST("/login", authController.Login)

	api.GET("/users", userController.ListUsers)
	api.GET("/users/:username", authController.GetUser)
	api.GET("/hoaxes", hoaxController.GetHoaxes)
	api.GET("/hoaxes/:id", hoaxController.GetHoaxesRelative)
	api.GET("/users/:username/hoaxes", hoaxController.GetHoaxesOfUser)
	api.GET("/users/:username/hoaxes/:id", hoaxController.GetHoaxesRelativeOfUser)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.RateLimitMiddleware())
	protected.POST("/logout", authController.Logout)
	protected.GET("/me", authController.Me)
	protected.PUT("/users/:id", userController.UpdateUser)
	protected.POST("/hoaxes", hoaxController.CreateHoax)
	protected.DELETE("/hoaxes/:id", hoaxController.DeleteHoax)
	protected.POST("/hoaxes/upload", fileController.UploadAttachment)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
