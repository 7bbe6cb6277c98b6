package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/purplearchive/purple-archive-server/apperrors"
	"github.com/purplearchive/purple-archive-server/models"
)

// UserRepository handles database operations for User entities, including
// their album bookmarks.
type UserRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new instance of UserRepository
func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user, failing with ErrDuplicate when the id is taken.
// The caller is expected to have set the password hash already.
func (r *UserRepository) Create(user *models.User) error {
	var existing models.User
	err := r.db.Unscoped().Where("id = ?", user.ID).First(&existing).Error
	if err == nil {
		return fmt.Errorf("specified user ID already exists: %w", apperrors.ErrDuplicate)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check user id %q: %w", user.ID, err)
	}

	if err := r.db.Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user %q: %w", user.ID, err)
	}
	return nil
}

// GetByID retrieves an active user by id.
func (r *UserRepository) GetByID(id string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("specified user does not exist: %w", apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user %q: %w", id, err)
	}
	return &user, nil
}

// List returns the total count of active users plus the requested page,
// ordered by id.
func (r *UserRepository) List(offset, limit int) (int64, []models.User, error) {
	if limit <= 0 {
		limit = 100
	}

	var total int64
	if err := r.db.Model(&models.User{}).Count(&total).Error; err != nil {
		return 0, nil, fmt.Errorf("failed to count users: %w", err)
	}

	var users []models.User
	if err := r.db.Order("id ASC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return 0, nil, fmt.Errorf("failed to list users: %w", err)
	}
	return total, users, nil
}

// bookmarkedAlbumIDs returns the user's current bookmarks restricted to active
// albums, ordered by album id.
func (r *UserRepository) bookmarkedAlbumIDs(userID string) ([]uint, error) {
	ids := []uint{}
	err := r.db.Model(&models.Bookmark{}).
		Joins("JOIN albums ON albums.id = bookmarks.album_id AND albums.deleted_at IS NULL").
		Where("bookmarks.user_id = ?", userID).
		Order("bookmarks.album_id ASC").
		Pluck("bookmarks.album_id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list bookmarks of user %q: %w", userID, err)
	}
	return ids, nil
}

// AddBookmarks attaches the given albums to the user's bookmark set. Every
// album must exist and be active; already-bookmarked albums are left as-is.
// Returns the resulting bookmarked id set.
func (r *UserRepository) AddBookmarks(userID string, albumIDs []uint) ([]uint, error) {
	ids := uniqueIDs(albumIDs)
	if len(ids) > 0 {
		var activeCount int64
		if err := r.db.Model(&models.Album{}).Where("id IN ?", ids).Count(&activeCount).Error; err != nil {
			return nil, fmt.Errorf("failed to check albums for bookmarking: %w", err)
		}
		if activeCount != int64(len(ids)) {
			return nil, fmt.Errorf("specified album does not exist: %w", apperrors.ErrNotFound)
		}

		for _, albumID := range ids {
			bookmark := models.Bookmark{UserID: userID, AlbumID: albumID}
			if err := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&bookmark).Error; err != nil {
				return nil, fmt.Errorf("failed to bookmark album %d for user %q: %w", albumID, userID, err)
			}
		}
	}
	return r.bookmarkedAlbumIDs(userID)
}

// RemoveBookmarks detaches the given albums from the user's bookmark set.
// Removing an album that was never bookmarked is a no-op. Returns the
// resulting bookmarked id set.
func (r *UserRepository) RemoveBookmarks(userID string, albumIDs []uint) ([]uint, error) {
	ids := uniqueIDs(albumIDs)
	if len(ids) > 0 {
		err := r.db.Where("user_id = ? AND album_id IN ?", userID, ids).Delete(&models.Bookmark{}).Error
		if err != nil {
			return nil, fmt.Errorf("failed to remove bookmarks for user %q: %w", userID, err)
		}
	}
	return r.bookmarkedAlbumIDs(userID)
}
