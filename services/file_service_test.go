package services

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hoaxify/hoaxify/models"
)

var (
	pngHeader  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}
	jpegHeader = []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
)

func TestSaveAttachmentDetectsTypeFromBytes(t *testing.T) {
	db := testDB(t)
	fs := testFileService(t, db)

	png, err := fs.SaveAttachment(pngHeader)
	if err != nil {
		t.Fatalf("save png: %v", err)
	}
	if png.FileType != "image/png" {
		t.Fatalf("expected image/png, got %q", png.FileType)
	}
	if png.Name == "" || png.HoaxID != nil {
		t.Fatalf("unexpected attachment record: %#v", png)
	}

	jpeg, err := fs.SaveAttachment(jpegHeader)
	if err != nil {
		t.Fatalf("save jpeg: %v", err)
	}
	if jpeg.FileType != "image/jpeg" {
		t.Fatalf("expected image/jpeg, got %q", jpeg.FileType)
	}

	text, err := fs.SaveAttachment([]byte("just some words"))
	if err != nil {
		t.Fatalf("save text: %v", err)
	}
	if text.FileType != "text/plain; charset=utf-8" {
		t.Fatalf("expected text/plain, got %q", text.FileType)
	}
	if text.Name == png.Name || text.Name == jpeg.Name {
		t.Fatalf("two uploads share the storage name %q", text.Name)
	}

	if _, err := os.Stat(filepath.Join(fs.dir, png.Name)); err != nil {
		t.Fatalf("png bytes missing: %v", err)
	}
}

func TestCleanupOrphansReapsOnlyOldUnlinked(t *testing.T) {
	db := testDB(t)
	fs := testFileService(t, db)
	user := createUser(t, db, "user1")

	oldOrphan, err := fs.SaveAttachment([]byte("old orphan bytes"))
	if err != nil {
		t.Fatalf("save old orphan: %v", err)
	}
	freshOrphan, err := fs.SaveAttachment([]byte("fresh orphan bytes"))
	if err != nil {
		t.Fatalf("save fresh orphan: %v", err)
	}
	linked, err := fs.SaveAttachment([]byte("linked bytes"))
	if err != nil {
		t.Fatalf("save linked: %v", err)
	}

	// Age the old orphan and the linked attachment past the threshold
	aged := time.Now().Add(-2 * time.Hour)
	for _, id := range []uint{oldOrphan.ID, linked.ID} {
		if err := db.Model(&models.FileAttachment{}).Where("id = ?", id).Update("created_at", aged).Error; err != nil {
			t.Fatalf("age attachment %d: %v", id, err)
		}
	}

	hoaxes := NewHoaxService(db, fs, fs.log)
	if _, err := hoaxes.Save(user, "content long enough", &linked.ID); err != nil {
		t.Fatalf("save hoax with attachment: %v", err)
	}

	removed := fs.CleanupOrphans(time.Now(), time.Hour)
	if removed != 1 {
		t.Fatalf("expected 1 reaped attachment, got %d", removed)
	}

	var count int64
	if err := db.Model(&models.FileAttachment{}).Where("id = ?", oldOrphan.ID).Count(&count).Error; err != nil || count != 0 {
		t.Fatalf("old orphan row should be gone, count=%d err=%v", count, err)
	}
	if _, err := os.Stat(filepath.Join(fs.dir, oldOrphan.Name)); !os.IsNotExist(err) {
		t.Fatalf("old orphan file should be gone, stat err=%v", err)
	}

	for _, name := range []string{freshOrphan.Name, linked.Name} {
		if _, err := os.Stat(filepath.Join(fs.dir, name)); err != nil {
			t.Fatalf("file %s should survive cleanup: %v", name, err)
		}
	}
	if err := db.Model(&models.FileAttachment{}).Where("id IN ?", []uint{freshOrphan.ID, linked.ID}).Count(&count).Error; err != nil || count != 2 {
		t.Fatalf("expected 2 surviving rows, count=%d err=%v", count, err)
	}
}

func TestCleanupOrphansToleratesMissingFile(t *testing.T) {
	db := testDB(t)
	fs := testFileService(t, db)

	orphan, err := fs.SaveAttachment([]byte("bytes that will vanish"))
	if err != nil {
		t.Fatalf("save orphan: %v", err)
	}
	aged := time.Now().Add(-2 * time.Hour)
	if err := db.Model(&models.FileAttachment{}).Where("id = ?", orphan.ID).Update("created_at", aged).Error; err != nil {
		t.Fatalf("age orphan: %v", err)
	}
	if err := os.Remove(filepath.Join(fs.dir, orphan.Name)); err != nil {
		t.Fatalf("remove file: %v", err)
	}

	if removed := fs.CleanupOrphans(time.Now(), time.Hour); removed != 1 {
		t.Fatalf("expected the row to be reaped despite missing file, removed=%d", removed)
	}
	var count int64
	if err := db.Model(&models.FileAttachment{}).Count(&count).Error; err != nil || count != 0 {
		t.Fatalf("expected no attachment rows, count=%d err=%v", count, err)
	}
}

func TestCleanupOrphansSkipsWhenSweepRunning(t *testing.T) {
	db := testDB(t)
	fs := testFileService(t, db)

	orphan, err := fs.SaveAttachment([]byte("orphan under contention"))
	if err != nil {
		t.Fatalf("save orphan: %v", err)
	}
	aged := time.Now().Add(-2 * time.Hour)
	if err := db.Model(&models.FileAttachment{}).Where("id = ?", orphan.ID).Update("created_at", aged).Error; err != nil {
		t.Fatalf("age orphan: %v", err)
	}

	fs.sweepMu.Lock()
	removed := fs.CleanupOrphans(time.Now(), time.Hour)
	fs.sweepMu.Unlock()
	if removed != 0 {
		t.Fatalf("overlapping sweep should be skipped, removed=%d", removed)
	}

	if removed := fs.CleanupOrphans(time.Now(), time.Hour); removed != 1 {
		t.Fatalf("follow-up sweep should reap the orphan, removed=%d", removed)
	}
}

func TestStartCleanupStopIsIdempotent(t *testing.T) {
	db := testDB(t)
	fs := testFileService(t, db)

	orphan, err := fs.SaveAttachment([]byte("orphan for the ticker"))
	if err != nil {
		t.Fatalf("save orphan: %v", err)
	}
	aged := time.Now().Add(-2 * time.Hour)
	if err := db.Model(&models.FileAttachment{}).Where("id = ?", orphan.ID).Update("created_at", aged).Error; err != nil {
		t.Fatalf("age orphan: %v", err)
	}

	fs.StartCleanup(10*time.Millisecond, time.Hour)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		var count int64
		if err := db.Model(&models.FileAttachment{}).Count(&count).Error; err == nil && count == 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	var count int64
	if err := db.Model(&models.FileAttachment{}).Count(&count).Error; err != nil || count != 0 {
		t.Fatalf("ticker sweep never reaped the orphan, count=%d err=%v", count, err)
	}

	fs.StopCleanup()
	fs.StopCleanup()
}
