package models

import "time"

// Gamemode is the game mode an album was recorded in. Deletion is refused
// while any album still references it.
type Gamemode struct {
	ID        uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	Name      string    `json:"name" gorm:"size:256;uniqueIndex;not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName explicitly sets the table name for GORM.
func (Gamemode) TableName() string {
	return "gamemodes"
}
