package repository

import (
	"time"

	"github.com/purplearchive/purple-archive-server/models"
)

// AlbumRepositoryInterface defines the methods for album data operations
type AlbumRepositoryInterface interface {
	List(opts ListOptions) (int64, []AlbumSummary, error)
	GetByID(id uint, viewerUserID string) (*AlbumDetail, error)
	GetByHash(hash string) (*models.Album, error)
	CreateFromTemp(params CreateAlbumParams) (*AlbumDetail, error)
	Update(albumID, gamemodeID uint, tagIDs []uint, pages []PageMeta) error
	SoftDelete(id uint) error
	IncrementPvCount(id uint) error
	IncrementDownloadCount(id uint) error
}

// TempAlbumRepositoryInterface defines the methods for the pending-upload store
type TempAlbumRepositoryInterface interface {
	Create(uuid, hash string, pageCount int) (*models.TempAlbum, error)
	Get(uuid string) (*models.TempAlbum, error)
	ListExpired(cutoff time.Time) ([]models.TempAlbum, error)
	SoftDelete(uuid string) error
}

// TagRepositoryInterface defines the methods for tag data operations
type TagRepositoryInterface interface {
	List(partialName string, offset, limit int) (int64, []models.Tag, error)
	Create(name string) (*models.Tag, error)
}

// GamemodeRepositoryInterface defines the methods for gamemode data operations
type GamemodeRepositoryInterface interface {
	List(partialName string, offset, limit int) (int64, []models.Gamemode, error)
	Create(name string) (*models.Gamemode, error)
	Delete(id uint) error
}

// UserRepositoryInterface defines the methods for user data operations
type UserRepositoryInterface interface {
	Create(user *models.User) error
	GetByID(id string) (*models.User, error)
	List(offset, limit int) (int64, []models.User, error)

	// bookmark management; both return the user's resulting bookmarked id set
	AddBookmarks(userID string, albumIDs []uint) ([]uint, error)
	RemoveBookmarks(userID string, albumIDs []uint) ([]uint, error)
}
