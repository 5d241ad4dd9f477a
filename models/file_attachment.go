package models

import "time"

// FileAttachment records one uploaded file. It is created before the hoax
// that will reference it exists; HoaxID stays NULL until the owning hoax is
// saved and is set at most once. Unlinked rows past the age threshold are
// removed by the background cleaner together with their file.
type FileAttachment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255;not null;uniqueIndex" json:"name"`
	FileType  string    `gorm:"size:255" json:"file_type"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	HoaxID    *uint     `gorm:"index" json:"-"`
}
