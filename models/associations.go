package models

// AlbumTag links albums and tags (many-to-many). Managed explicitly so album
// updates can reconcile the tag set and garbage-collect orphaned tags inside
// one transaction.
type AlbumTag struct {
	AlbumID uint `gorm:"primaryKey;autoIncrement:false"`
	TagID   uint `gorm:"primaryKey;autoIncrement:false"`
}

// TableName explicitly sets the table name for GORM.
func (AlbumTag) TableName() string {
	return "album_tags"
}

// Bookmark links users to the albums they bookmarked.
type Bookmark struct {
	UserID  string `gorm:"primaryKey;size:128"`
	AlbumID uint   `gorm:"primaryKey;autoIncrement:false"`
}

// TableName explicitly sets the table name for GORM.
func (Bookmark) TableName() string {
	return "bookmarks"
}
