package main

import (
	"time"

	"github.com/hoaxify/hoaxify/config"
	"github.com/hoaxify/hoaxify/models"
	"github.com/hoaxify/hoaxify/routes"
	"github.com/hoaxify/hoaxify/services"
	"github.com/hoaxify/hoaxify/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(&models.User{}, &models.Hoax{}, &models.FileAttachment{})

	fileService, err := services.NewFileService(db, cfg.AttachmentsPath(), cfg.ProfileImagesPath(), utils.Sugar)
	if err != nil {
		utils.Sugar.Fatalf("failed to prepare upload storage: %v", err)
	}
	hoaxService := services.NewHoaxService(db, fileService, utils.Sugar)
	feedService := services.NewFeedService(db)
	userService := services.NewUserService(db, fileService, utils.Sugar)

	r := routes.SetupRouter(db, hoaxService, feedService, fileService, userService)

	// Background sweep for uploads that never got linked to a hoax
	fileService.StartCleanup(
		time.Duration(cfg.CleanupIntervalMinutes)*time.Minute,
		time.Duration(cfg.AttachmentMaxAgeMinutes)*time.Minute,
	)

	srv := utils.NewServer(":"+cfg.AppPort, r)
	srv.OnShutdown(fileService.StopCleanup)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := srv.ListenAndServe(); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
