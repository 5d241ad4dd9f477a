package services

import (
	"errors"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hoaxify/hoaxify/models"
)

// Content length bounds in characters.
const (
	ContentMinLength = 10
	ContentMaxLength = 5000
)

// HoaxService creates and deletes hoaxes. Creation and attachment linking
// run in one transaction so a failed save never leaves an attachment
// pointing at a hoax that does not exist.
type HoaxService struct {
	db    *gorm.DB
	files *FileService
	log   *zap.SugaredLogger
}

// NewHoaxService creates a HoaxService.
func NewHoaxService(db *gorm.DB, files *FileService, log *zap.SugaredLogger) *HoaxService {
	return &HoaxService{db: db, files: files, log: log}
}

// Save persists a new hoax for the user, stamping the server-side timestamp.
// When attachmentID is given, the referenced attachment is claimed inside
// the same transaction; an id that no longer resolves (never existed, or
// already reaped) fails the whole creation with ErrAttachmentNotFound, and
// an attachment already owned by another hoax fails with ErrAttachmentInUse.
func (s *HoaxService) Save(user models.User, content string, attachmentID *uint) (models.Hoax, error) {
	if n := utf8.RuneCountInString(content); n < ContentMinLength || n > ContentMaxLength {
		return models.Hoax{}, ErrContentLength
	}

	hoax := models.Hoax{
		Content:   content,
		Timestamp: time.Now(),
		UserID:    user.ID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&hoax).Error; err != nil {
			return err
		}
		if attachmentID == nil {
			return nil
		}
		// Claim the attachment only while it is still unowned. HoaxID is set
		// at most once; a second claim loses here no matter how it races.
		res := tx.Model(&models.FileAttachment{}).
			Where("id = ? AND hoax_id IS NULL", *attachmentID).
			Update("hoax_id", hoax.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.FileAttachment{}).Where("id = ?", *attachmentID).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return ErrAttachmentNotFound
			}
			return ErrAttachmentInUse
		}
		return nil
	})
	if err != nil {
		return models.Hoax{}, err
	}

	if err := s.db.Preload("User").Preload("Attachment").First(&hoax, hoax.ID).Error; err != nil {
		return models.Hoax{}, err
	}
	return hoax, nil
}

// Delete removes a hoax and cascades its attachment: the attachment row goes
// in the same transaction, the backing file afterwards, best effort.
func (s *HoaxService) Delete(id uint, requester models.User, admin bool) error {
	var hoax models.Hoax
	if err := s.db.Preload("Attachment").First(&hoax, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrHoaxNotFound
		}
		return err
	}
	if hoax.UserID != requester.ID && !admin {
		return ErrNotOwner
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if hoax.Attachment != nil {
			if err := tx.Delete(&models.FileAttachment{}, hoax.Attachment.ID).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Hoax{}, hoax.ID).Error
	})
	if err != nil {
		return err
	}

	if hoax.Attachment != nil {
		if err := s.files.DeleteAttachmentFile(hoax.Attachment.Name); err != nil {
			s.log.Errorf("failed to delete attachment file %s: %v", hoax.Attachment.Name, err)
		}
	}
	return nil
}
