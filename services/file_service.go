package services

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/hoaxify/hoaxify/models"
)

// FileService stores attachment bytes and profile images on disk, keeps the
// attachment records in the database, and runs the periodic sweep that reaps
// attachments which were uploaded but never linked to a hoax.
type FileService struct {
	db         *gorm.DB
	dir        string
	profileDir string
	log        *zap.SugaredLogger

	sweepMu  sync.Mutex // single-flight guard: overlapping sweeps are skipped
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewFileService creates the storage directories if needed and returns a
// FileService writing into them.
func NewFileService(db *gorm.DB, attachmentsDir, profileImagesDir string, log *zap.SugaredLogger) (*FileService, error) {
	for _, dir := range []string{attachmentsDir, profileImagesDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	return &FileService{db: db, dir: attachmentsDir, profileDir: profileImagesDir, log: log}, nil
}

// randomName generates the opaque storage key for an attachment. UUIDv4
// carries 122 random bits, so collisions are treated as negligible.
func randomName() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// DetectType sniffs the MIME type from file content. Client supplied
// metadata is never trusted.
func (s *FileService) DetectType(data []byte) string {
	// http.DetectContentType reads at most the first 512 bytes
	return http.DetectContentType(data)
}

// SaveAttachment writes the bytes under a fresh random name and persists an
// unlinked attachment record. Any failure aborts the upload: when the row
// insert fails the file is removed again so no partial state survives.
func (s *FileService) SaveAttachment(data []byte) (models.FileAttachment, error) {
	attachment := models.FileAttachment{
		Name:      randomName(),
		FileType:  s.DetectType(data),
		CreatedAt: time.Now(),
	}

	path := filepath.Join(s.dir, attachment.Name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return models.FileAttachment{}, err
	}
	if err := s.db.Create(&attachment).Error; err != nil {
		_ = os.Remove(path)
		return models.FileAttachment{}, err
	}
	return attachment, nil
}

// DeleteAttachmentFile removes the backing bytes for an attachment name.
// A file that is already gone counts as success.
func (s *FileService) DeleteAttachmentFile(name string) error {
	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// SaveProfileImage writes a profile image under a fresh random name and
// returns the name. Profile images have no database record; the user row
// holds the name.
func (s *FileService) SaveProfileImage(data []byte) (string, error) {
	name := randomName()
	if err := os.WriteFile(filepath.Join(s.profileDir, name), data, 0o644); err != nil {
		return "", err
	}
	return name, nil
}

// DeleteProfileImage removes a stored profile image. A file that is already
// gone counts as success.
func (s *FileService) DeleteProfileImage(name string) error {
	err := os.Remove(filepath.Join(s.profileDir, name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// CleanupOrphans reaps attachments created before now-maxAge that were never
// linked to a hoax, returning how many rows it removed. The sweep is best
// effort: individual failures are logged and the remaining candidates are
// still processed. When a previous sweep is still running the call returns
// immediately.
func (s *FileService) CleanupOrphans(now time.Time, maxAge time.Duration) int {
	if !s.sweepMu.TryLock() {
		return 0
	}
	defer s.sweepMu.Unlock()

	cutoff := now.Add(-maxAge)
	var orphans []models.FileAttachment
	if err := s.db.Where("created_at < ? AND hoax_id IS NULL", cutoff).Find(&orphans).Error; err != nil {
		s.log.Errorf("attachment cleanup query failed: %v", err)
		return 0
	}

	removed := 0
	for _, attachment := range orphans {
		// The row goes first, guarded on hoax_id still being NULL: a hoax may
		// have claimed the attachment since the candidate query ran, and the
		// link always wins over the reaper. The file is only removed once the
		// guarded delete took the row, which also makes deletion at-most-once.
		res := s.db.Where("hoax_id IS NULL").Delete(&models.FileAttachment{}, attachment.ID)
		if res.Error != nil {
			s.log.Errorf("attachment cleanup row delete failed for id=%d: %v", attachment.ID, res.Error)
			continue
		}
		if res.RowsAffected == 0 {
			continue
		}
		if err := s.DeleteAttachmentFile(attachment.Name); err != nil {
			s.log.Errorf("attachment cleanup file delete failed for %s: %v", attachment.Name, err)
		}
		removed++
	}
	if removed > 0 {
		s.log.Infof("attachment cleanup removed %d orphaned uploads", removed)
	}
	return removed
}

// StartCleanup launches the background sweep on a fixed interval. The first
// sweep runs one interval after start, not immediately. Stop with
// StopCleanup; the server shutdown hook calls it.
func (s *FileService) StartCleanup(interval, maxAge time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	if maxAge <= 0 {
		maxAge = interval
	}
	s.stop = make(chan struct{})
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.stop:
				return
			case <-ticker.C:
				s.CleanupOrphans(time.Now(), maxAge)
			}
		}
	}()
}

// StopCleanup stops the background sweep and waits for an in-flight run.
func (s *FileService) StopCleanup() {
	if s.stop == nil {
		return
	}
	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()
}
