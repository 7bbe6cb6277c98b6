package models

import (
	"time"

	"gorm.io/gorm"
)

// TempAlbum is an unconfirmed, time-limited pending upload awaiting metadata
// confirmation. DeletedAt doubles as the consumed/expired marker; CreatedAt is
// the expiry clock read by the sweeper.
type TempAlbum struct {
	UUID      string         `json:"uuid" gorm:"primaryKey;size:128"`
	PageCount int            `json:"pageCount" gorm:"not null"`
	Hash      string         `json:"-" gorm:"size:128;index"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// TableName explicitly sets the table name for GORM.
func (TempAlbum) TableName() string {
	return "temp_albums"
}
