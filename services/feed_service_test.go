package services

import (
	"testing"
)

func TestGetHoaxesReturnsNewestFirst(t *testing.T) {
	db := testDB(t)
	feed := NewFeedService(db)
	user := createUser(t, db, "user1")
	createHoaxes(t, db, user, 5)

	page, err := feed.GetHoaxes(0, 10, nil)
	if err != nil {
		t.Fatalf("get hoaxes: %v", err)
	}
	if page.TotalElements != 5 {
		t.Fatalf("expected 5 total elements, got %d", page.TotalElements)
	}
	if len(page.Content) != 5 {
		t.Fatalf("expected 5 hoaxes, got %d", len(page.Content))
	}
	for i := 1; i < len(page.Content); i++ {
		if page.Content[i].ID >= page.Content[i-1].ID {
			t.Fatalf("ids not strictly descending at index %d: %d then %d", i, page.Content[i-1].ID, page.Content[i].ID)
		}
	}
}

func TestGetHoaxesPaginates(t *testing.T) {
	db := testDB(t)
	feed := NewFeedService(db)
	user := createUser(t, db, "user1")
	hoaxes := createHoaxes(t, db, user, 5)

	page, err := feed.GetHoaxes(1, 2, nil)
	if err != nil {
		t.Fatalf("get hoaxes: %v", err)
	}
	if page.TotalPages != 3 {
		t.Fatalf("expected 3 total pages, got %d", page.TotalPages)
	}
	if len(page.Content) != 2 {
		t.Fatalf("expected 2 hoaxes on page 1, got %d", len(page.Content))
	}
	// Page 1 of size 2 over ids 5..1 descending holds the 3rd and 2nd hoax
	if page.Content[0].ID != hoaxes[2].ID || page.Content[1].ID != hoaxes[1].ID {
		t.Fatalf("unexpected page content ids: %d, %d", page.Content[0].ID, page.Content[1].ID)
	}
}

func TestGetHoaxesNormalizesPageArguments(t *testing.T) {
	db := testDB(t)
	feed := NewFeedService(db)
	user := createUser(t, db, "user1")
	createHoaxes(t, db, user, 3)

	page, err := feed.GetHoaxes(-5, 0, nil)
	if err != nil {
		t.Fatalf("get hoaxes: %v", err)
	}
	if page.Page != 0 || page.Size != DefaultPageSize {
		t.Fatalf("expected normalized page=0 size=%d, got page=%d size=%d", DefaultPageSize, page.Page, page.Size)
	}
	if len(page.Content) != 3 {
		t.Fatalf("expected 3 hoaxes, got %d", len(page.Content))
	}
}

func TestGetHoaxesScopedToUser(t *testing.T) {
	db := testDB(t)
	feed := NewFeedService(db)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	createHoaxes(t, db, alice, 3)
	createHoaxes(t, db, bob, 2)

	username := "alice"
	page, err := feed.GetHoaxes(0, 10, &username)
	if err != nil {
		t.Fatalf("get hoaxes of alice: %v", err)
	}
	if page.TotalElements != 3 {
		t.Fatalf("expected 3 hoaxes for alice, got %d", page.TotalElements)
	}
	for _, hoax := range page.Content {
		if hoax.User.Username != "alice" {
			t.Fatalf("hoax %d belongs to %s, not alice", hoax.ID, hoax.User.Username)
		}
	}
}

func TestScopedQueriesFailForUnknownUser(t *testing.T) {
	db := testDB(t)
	feed := NewFeedService(db)
	user := createUser(t, db, "user1")
	hoaxes := createHoaxes(t, db, user, 2)
	pivot := hoaxes[0].ID
	unknown := "nobody"

	if _, err := feed.GetHoaxes(0, 10, &unknown); err != ErrUserNotFound {
		t.Fatalf("GetHoaxes: expected ErrUserNotFound, got %v", err)
	}
	if _, err := feed.GetOldHoaxes(pivot, 0, 10, &unknown); err != ErrUserNotFound {
		t.Fatalf("GetOldHoaxes: expected ErrUserNotFound, got %v", err)
	}
	if _, err := feed.GetNewHoaxes(pivot, false, &unknown); err != ErrUserNotFound {
		t.Fatalf("GetNewHoaxes: expected ErrUserNotFound, got %v", err)
	}
	if _, err := feed.GetNewHoaxesCount(pivot, &unknown); err != ErrUserNotFound {
		t.Fatalf("GetNewHoaxesCount: expected ErrUserNotFound, got %v", err)
	}
}

func TestRelativeQueriesAroundPivot(t *testing.T) {
	db := testDB(t)
	feed := NewFeedService(db)
	user := createUser(t, db, "user1")
	hoaxes := createHoaxes(t, db, user, 5) // P1..P5
	pivot := hoaxes[3].ID                  // P4

	older, err := feed.GetOldHoaxes(pivot, 0, 5, nil)
	if err != nil {
		t.Fatalf("get old hoaxes: %v", err)
	}
	if older.TotalElements != 3 || len(older.Content) != 3 {
		t.Fatalf("expected 3 older hoaxes, got total=%d len=%d", older.TotalElements, len(older.Content))
	}
	// Newest first: P3, P2, P1
	want := []uint{hoaxes[2].ID, hoaxes[1].ID, hoaxes[0].ID}
	for i, id := range want {
		if older.Content[i].ID != id {
			t.Fatalf("older[%d]: expected id %d, got %d", i, id, older.Content[i].ID)
		}
	}

	newer, err := feed.GetNewHoaxes(pivot, false, nil)
	if err != nil {
		t.Fatalf("get new hoaxes: %v", err)
	}
	if len(newer) != 1 || newer[0].ID != hoaxes[4].ID {
		t.Fatalf("expected exactly P5 newer than P4, got %d items", len(newer))
	}

	count, err := feed.GetNewHoaxesCount(pivot, nil)
	if err != nil {
		t.Fatalf("count new hoaxes: %v", err)
	}
	if count != int64(len(newer)) {
		t.Fatalf("count %d disagrees with list length %d", count, len(newer))
	}
}

func TestGetNewHoaxesOrdering(t *testing.T) {
	db := testDB(t)
	feed := NewFeedService(db)
	user := createUser(t, db, "user1")
	hoaxes := createHoaxes(t, db, user, 4)
	pivot := hoaxes[0].ID

	desc, err := feed.GetNewHoaxes(pivot, false, nil)
	if err != nil {
		t.Fatalf("get new hoaxes desc: %v", err)
	}
	asc, err := feed.GetNewHoaxes(pivot, true, nil)
	if err != nil {
		t.Fatalf("get new hoaxes asc: %v", err)
	}
	if len(desc) != 3 || len(asc) != 3 {
		t.Fatalf("expected 3 newer hoaxes, got %d and %d", len(desc), len(asc))
	}
	for i := range desc {
		if desc[i].ID != asc[len(asc)-1-i].ID {
			t.Fatalf("asc is not the reverse of desc at index %d", i)
		}
	}
}

func TestRelativeQueriesCombineScopeAndPivot(t *testing.T) {
	db := testDB(t)
	feed := NewFeedService(db)
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	aliceHoaxes := createHoaxes(t, db, alice, 2)
	createHoaxes(t, db, bob, 2)
	moreAlice := createHoaxes(t, db, alice, 2)

	username := "alice"
	pivot := aliceHoaxes[1].ID

	count, err := feed.GetNewHoaxesCount(pivot, &username)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 newer alice hoaxes, got %d", count)
	}

	newer, err := feed.GetNewHoaxes(pivot, true, &username)
	if err != nil {
		t.Fatalf("get newer: %v", err)
	}
	if len(newer) != 2 || newer[0].ID != moreAlice[0].ID || newer[1].ID != moreAlice[1].ID {
		t.Fatalf("unexpected scoped newer result: %d items", len(newer))
	}
}
