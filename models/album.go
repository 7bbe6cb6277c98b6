package models

import (
	"time"

	"gorm.io/gorm"
)

// Album is a persisted, user-contributed GIF clip with structured metadata.
// Source and ThumbSource are durable object-storage URIs; Hash fingerprints
// the original upload bytes and is used for duplicate detection.
type Album struct {
	ID                uint           `json:"id" gorm:"primaryKey;autoIncrement"`
	Source            string         `json:"source" gorm:"size:512"`
	ThumbSource       string         `json:"thumbSource" gorm:"size:512"`
	Hash              string         `json:"-" gorm:"size:512;index"`
	ContributorUserID *string        `json:"contributorUserId" gorm:"size:128"` // null after user deletion
	PvCount           int            `json:"pvCount" gorm:"not null;default:0"`
	DownloadCount     int            `json:"downloadCount" gorm:"not null;default:0"`
	GamemodeID        uint           `json:"gamemodeId" gorm:"not null"`
	PlayedAt          time.Time      `json:"playedAt" gorm:"not null"`
	CreatedAt         time.Time      `json:"createdAt"`
	UpdatedAt         time.Time      `json:"updatedAt"`
	DeletedAt         gorm.DeletedAt `json:"-" gorm:"index"` // soft delete
}

// TableName explicitly sets the table name for GORM.
func (Album) TableName() string {
	return "albums"
}

// Page is one frame of an album's GIF. Index is the 0-based display position,
// unique within the album; Description and PlayerName start out OCR-derived
// and stay editable afterwards.
type Page struct {
	ID          uint      `json:"-" gorm:"primaryKey;autoIncrement"`
	AlbumID     uint      `json:"-" gorm:"not null;index:idx_pages_album_index,unique,priority:1"`
	Index       int       `json:"index" gorm:"column:page_index;not null;index:idx_pages_album_index,unique,priority:2"`
	Description string    `json:"description" gorm:"size:256"`
	PlayerName  string    `json:"playerName" gorm:"size:256"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// TableName explicitly sets the table name for GORM.
func (Page) TableName() string {
	return "pages"
}
