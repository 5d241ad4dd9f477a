package services

import (
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hoaxify/hoaxify/models"
)

// UserPage is the pagination envelope for user listings. Pages are zero based.
type UserPage struct {
	Content       []models.User `json:"content"`
	Page          int           `json:"page"`
	Size          int           `json:"size"`
	TotalElements int64         `json:"total_elements"`
	TotalPages    int           `json:"total_pages"`
}

// UserService lists users and updates profiles. Profile image replacement
// goes through the FileService so old images do not pile up on disk.
type UserService struct {
	db    *gorm.DB
	files *FileService
	log   *zap.SugaredLogger
}

// NewUserService creates a UserService.
func NewUserService(db *gorm.DB, files *FileService, log *zap.SugaredLogger) *UserService {
	return &UserService{db: db, files: files, log: log}
}

// ListUsers returns one page of users ordered by id. When excludeUsername is
// set that account is left out, so an authenticated caller does not see
// themselves in the listing.
func (s *UserService) ListUsers(page, size int, excludeUsername string) (UserPage, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	q := s.db.Model(&models.User{})
	if excludeUsername != "" {
		q = q.Where("username <> ?", excludeUsername)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return UserPage{}, err
	}

	var users []models.User
	if err := q.Order("id ASC").Offset(page * size).Limit(size).Find(&users).Error; err != nil {
		return UserPage{}, err
	}

	return UserPage{
		Content:       users,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    int((total + int64(size) - 1) / int64(size)),
	}, nil
}

// UpdateProfile changes a user's display name and, when image bytes are
// given, stores them as the new profile image and removes the previous one.
// Only PNG and JPEG images are accepted; the type is detected from the
// bytes. The old image is deleted only after the row update succeeds, so a
// failed update never loses the current image.
func (s *UserService) UpdateProfile(id uint, displayName string, image []byte) (models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}

	oldImage := ""
	user.DisplayName = displayName
	if image != nil {
		switch s.files.DetectType(image) {
		case "image/png", "image/jpeg":
		default:
			return models.User{}, ErrImageType
		}
		name, err := s.files.SaveProfileImage(image)
		if err != nil {
			return models.User{}, err
		}
		oldImage = user.Image
		user.Image = name
	}

	if err := s.db.Save(&user).Error; err != nil {
		if user.Image != "" && image != nil {
			_ = s.files.DeleteProfileImage(user.Image)
		}
		return models.User{}, err
	}

	if oldImage != "" {
		if err := s.files.DeleteProfileImage(oldImage); err != nil {
			s.log.Errorf("failed to delete replaced profile image %s: %v", oldImage, err)
		}
	}
	return user, nil
}
