package services

import (
	"errors"

	"gorm.io/gorm"

	"github.com/hoaxify/hoaxify/models"
)

const (
	// DefaultPageSize applies when the caller does not ask for a size.
	DefaultPageSize = 10
	// MaxPageSize caps a single feed page.
	MaxPageSize = 100
)

// Page is the pagination envelope for feed queries. Pages are zero based.
type Page struct {
	Content       []models.Hoax `json:"content"`
	Page          int           `json:"page"`
	Size          int           `json:"size"`
	TotalElements int64         `json:"total_elements"`
	TotalPages    int           `json:"total_pages"`
}

// FeedService answers the feed query shapes: offset pages over the whole
// feed or one author, and pivot-relative older/newer retrieval. All ordering
// is by id; ids increase strictly with creation order, so id descending is
// exactly newest first with no secondary sort key.
type FeedService struct {
	db *gorm.DB
}

// NewFeedService creates a FeedService on the given database handle.
func NewFeedService(db *gorm.DB) *FeedService {
	return &FeedService{db: db}
}

// GetHoaxes returns one page of the feed, newest first, optionally scoped to
// a single author. A scope username that resolves to no user yields
// ErrUserNotFound rather than an empty page.
func (s *FeedService) GetHoaxes(page, size int, username *string) (Page, error) {
	q, err := s.feedQuery(username)
	if err != nil {
		return Page{}, err
	}
	return s.paginate(q, page, size)
}

// GetOldHoaxes returns one page of hoaxes older than the pivot id, newest
// first, optionally author scoped.
func (s *FeedService) GetOldHoaxes(pivotID uint, page, size int, username *string) (Page, error) {
	q, err := s.feedQuery(username)
	if err != nil {
		return Page{}, err
	}
	return s.paginate(q.Where("id < ?", pivotID), page, size)
}

// GetNewHoaxes returns every hoax newer than the pivot id, optionally author
// scoped. The result is unpaginated: it is expected to be small by
// construction, since the pivot is the newest item the client has seen.
func (s *FeedService) GetNewHoaxes(pivotID uint, ascending bool, username *string) ([]models.Hoax, error) {
	q, err := s.feedQuery(username)
	if err != nil {
		return nil, err
	}
	order := "id DESC"
	if ascending {
		order = "id ASC"
	}
	var hoaxes []models.Hoax
	if err := q.Where("id > ?", pivotID).
		Preload("User").Preload("Attachment").
		Order(order).
		Find(&hoaxes).Error; err != nil {
		return nil, err
	}
	return hoaxes, nil
}

// GetNewHoaxesCount returns only the number of hoaxes newer than the pivot,
// so clients can poll cheaply without transferring bodies.
func (s *FeedService) GetNewHoaxesCount(pivotID uint, username *string) (int64, error) {
	q, err := s.feedQuery(username)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := q.Where("id > ?", pivotID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// feedQuery builds the base hoax query, applying the author scope when given.
func (s *FeedService) feedQuery(username *string) (*gorm.DB, error) {
	q := s.db.Model(&models.Hoax{})
	if username == nil {
		return q, nil
	}
	var user models.User
	if err := s.db.Where("username = ?", *username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return q.Where("user_id = ?", user.ID), nil
}

func (s *FeedService) paginate(q *gorm.DB, page, size int) (Page, error) {
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return Page{}, err
	}

	var hoaxes []models.Hoax
	if err := q.Preload("User").Preload("Attachment").
		Order("id DESC").
		Offset(page * size).Limit(size).
		Find(&hoaxes).Error; err != nil {
		return Page{}, err
	}

	return Page{
		Content:       hoaxes,
		Page:          page,
		Size:          size,
		TotalElements: total,
		TotalPages:    int((total + int64(size) - 1) / int64(size)),
	}, nil
}
