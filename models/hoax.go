package models

import "time"

// Hoax is a single short message posted by a user. IDs are assigned by the
// database in strictly increasing order, so id order equals creation order;
// the relative feed queries depend on that.
type Hoax struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	Content    string          `gorm:"size:5000;not null" json:"content"`
	Timestamp  time.Time       `gorm:"index;not null" json:"timestamp"`
	UserID     uint            `gorm:"index;not null" json:"-"`
	User       User            `gorm:"constraint:OnDelete:CASCADE" json:"user"`
	Attachment *FileAttachment `gorm:"foreignKey:HoaxID" json:"attachment,omitempty"`
}
