package services

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hoaxify/hoaxify/models"
)

func newUserService(t *testing.T) (*UserService, *FileService) {
	t.Helper()
	db := testDB(t)
	fs := testFileService(t, db)
	return NewUserService(db, fs, fs.log), fs
}

func TestListUsersPaginates(t *testing.T) {
	users, fs := newUserService(t)
	for _, name := range []string{"alice", "bob", "carol"} {
		createUser(t, fs.db, name)
	}

	page, err := users.ListUsers(0, 2, "")
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if page.TotalElements != 3 || page.TotalPages != 2 {
		t.Fatalf("expected 3 users over 2 pages, got total=%d pages=%d", page.TotalElements, page.TotalPages)
	}
	if len(page.Content) != 2 || page.Content[0].Username != "alice" {
		t.Fatalf("unexpected first page: %d items", len(page.Content))
	}

	page, err = users.ListUsers(1, 2, "")
	if err != nil {
		t.Fatalf("list users page 1: %v", err)
	}
	if len(page.Content) != 1 || page.Content[0].Username != "carol" {
		t.Fatalf("unexpected second page: %d items", len(page.Content))
	}
}

func TestListUsersExcludesGivenUsername(t *testing.T) {
	users, fs := newUserService(t)
	createUser(t, fs.db, "alice")
	createUser(t, fs.db, "bob")

	page, err := users.ListUsers(0, 10, "alice")
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if page.TotalElements != 1 || len(page.Content) != 1 || page.Content[0].Username != "bob" {
		t.Fatalf("expected only bob, got total=%d len=%d", page.TotalElements, len(page.Content))
	}
}

func TestUpdateProfileReplacesImage(t *testing.T) {
	users, fs := newUserService(t)
	user := createUser(t, fs.db, "user1")

	updated, err := users.UpdateProfile(user.ID, "first display", pngHeader)
	if err != nil {
		t.Fatalf("first update: %v", err)
	}
	if updated.Image == "" || updated.DisplayName != "first display" {
		t.Fatalf("unexpected updated user: %#v", updated)
	}
	firstImage := updated.Image
	if _, err := os.Stat(filepath.Join(fs.profileDir, firstImage)); err != nil {
		t.Fatalf("first image bytes missing: %v", err)
	}

	updated, err = users.UpdateProfile(user.ID, "second display", pngHeader)
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if updated.Image == firstImage {
		t.Fatal("image name was not replaced")
	}
	if _, err := os.Stat(filepath.Join(fs.profileDir, firstImage)); !os.IsNotExist(err) {
		t.Fatalf("replaced image should be gone, stat err=%v", err)
	}
	if _, err := os.Stat(filepath.Join(fs.profileDir, updated.Image)); err != nil {
		t.Fatalf("new image bytes missing: %v", err)
	}
}

func TestUpdateProfileKeepsImageWhenNoneGiven(t *testing.T) {
	users, fs := newUserService(t)
	user := createUser(t, fs.db, "user1")

	updated, err := users.UpdateProfile(user.ID, "with image", pngHeader)
	if err != nil {
		t.Fatalf("update with image: %v", err)
	}
	image := updated.Image

	updated, err = users.UpdateProfile(user.ID, "name only", nil)
	if err != nil {
		t.Fatalf("update without image: %v", err)
	}
	if updated.Image != image {
		t.Fatalf("image changed without new bytes: %q -> %q", image, updated.Image)
	}
	if _, err := os.Stat(filepath.Join(fs.profileDir, image)); err != nil {
		t.Fatalf("existing image bytes missing: %v", err)
	}
}

func TestUpdateProfileRejectsNonImageBytes(t *testing.T) {
	users, fs := newUserService(t)
	user := createUser(t, fs.db, "user1")

	if _, err := users.UpdateProfile(user.ID, "valid name", []byte("just some words")); !errors.Is(err, ErrImageType) {
		t.Fatalf("expected ErrImageType, got %v", err)
	}

	var inDB models.User
	if err := fs.db.First(&inDB, user.ID).Error; err != nil {
		t.Fatalf("reload user: %v", err)
	}
	if inDB.Image != "" || inDB.DisplayName != user.DisplayName {
		t.Fatalf("rejected update must not persist changes: %#v", inDB)
	}
}

func TestUpdateProfileUnknownUser(t *testing.T) {
	users, _ := newUserService(t)

	if _, err := users.UpdateProfile(99999, "valid name", nil); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
