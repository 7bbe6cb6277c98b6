package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/purplearchive/purple-archive-server/apperrors"
	"github.com/purplearchive/purple-archive-server/models"
)

// GamemodeRepository handles database operations for Gamemode entities
type GamemodeRepository struct {
	db *gorm.DB
}

// NewGamemodeRepository creates a new instance of GamemodeRepository
func NewGamemodeRepository(db *gorm.DB) *GamemodeRepository {
	return &GamemodeRepository{db: db}
}

// List returns the total count of gamemodes matching partialName plus the
// requested page, ordered by id.
func (r *GamemodeRepository) List(partialName string, offset, limit int) (int64, []models.Gamemode, error) {
	if limit <= 0 {
		limit = 100
	}
	query := r.db.Model(&models.Gamemode{})
	if partialName != "" {
		query = query.Where(`name LIKE ? ESCAPE '\'`, likePattern(partialName))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, nil, fmt.Errorf("failed to count gamemodes: %w", err)
	}

	var gamemodes []models.Gamemode
	if err := query.Order("id ASC").Offset(offset).Limit(limit).Find(&gamemodes).Error; err != nil {
		return 0, nil, fmt.Errorf("failed to list gamemodes: %w", err)
	}
	return total, gamemodes, nil
}

// Create inserts a new gamemode, failing with ErrDuplicate when the name is
// taken.
func (r *GamemodeRepository) Create(name string) (*models.Gamemode, error) {
	var existing models.Gamemode
	err := r.db.Where("name = ?", name).First(&existing).Error
	if err == nil {
		return nil, fmt.Errorf("specified name already exists: %w", apperrors.ErrDuplicate)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check gamemode name %q: %w", name, err)
	}

	gamemode := models.Gamemode{Name: name}
	if err := r.db.Create(&gamemode).Error; err != nil {
		return nil, fmt.Errorf("failed to create gamemode %q: %w", name, err)
	}
	return &gamemode, nil
}

// Delete removes a gamemode. The delete is refused while any album, including
// soft-deleted ones, still references it.
func (r *GamemodeRepository) Delete(id uint) error {
	var gamemode models.Gamemode
	if err := r.db.First(&gamemode, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("specified gamemode does not exist: %w", apperrors.ErrNotFound)
		}
		return fmt.Errorf("failed to get gamemode %d: %w", id, err)
	}

	var referencing int64
	if err := r.db.Unscoped().Model(&models.Album{}).Where("gamemode_id = ?", id).Count(&referencing).Error; err != nil {
		return fmt.Errorf("failed to count albums referencing gamemode %d: %w", id, err)
	}
	if referencing > 0 {
		return fmt.Errorf("specified gamemode is still referenced by albums: %w", apperrors.ErrInvalidArgument)
	}

	if err := r.db.Delete(&models.Gamemode{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete gamemode %d: %w", id, err)
	}
	return nil
}
