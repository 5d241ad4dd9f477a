package services

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hoaxify/hoaxify/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Hoax{}, &models.FileAttachment{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func testFileService(t *testing.T, db *gorm.DB) *FileService {
	t.Helper()
	fs, err := NewFileService(db, t.TempDir(), t.TempDir(), zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("new file service: %v", err)
	}
	return fs
}

func createUser(t *testing.T, db *gorm.DB, username string) models.User {
	t.Helper()
	user := models.User{
		Username:     username,
		DisplayName:  username + "-display",
		PasswordHash: "not-a-real-hash",
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", username, err)
	}
	return user
}

func createHoaxes(t *testing.T, db *gorm.DB, user models.User, n int) []models.Hoax {
	t.Helper()
	hoaxes := make([]models.Hoax, 0, n)
	for i := 0; i < n; i++ {
		hoax := models.Hoax{
			Content:   fmt.Sprintf("hoax number %d from %s", i+1, user.Username),
			Timestamp: time.Now(),
			UserID:    user.ID,
		}
		if err := db.Create(&hoax).Error; err != nil {
			t.Fatalf("create hoax %d: %v", i+1, err)
		}
		hoaxes = append(hoaxes, hoax)
	}
	return hoaxes
}

func strOfLen(n int) string {
	return strings.Repeat("a", n)
}
