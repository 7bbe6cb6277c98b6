package repository

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/purplearchive/purple-archive-server/apperrors"
	"github.com/purplearchive/purple-archive-server/models"
)

// TagRepository handles database operations for Tag entities
type TagRepository struct {
	db *gorm.DB
}

// NewTagRepository creates a new instance of TagRepository
func NewTagRepository(db *gorm.DB) *TagRepository {
	return &TagRepository{db: db}
}

// List returns the total count of tags matching partialName plus the requested
// page, ordered by id.
func (r *TagRepository) List(partialName string, offset, limit int) (int64, []models.Tag, error) {
	if limit <= 0 {
		limit = 100
	}
	query := r.db.Model(&models.Tag{})
	if partialName != "" {
		query = query.Where(`name LIKE ? ESCAPE '\'`, likePattern(partialName))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, nil, fmt.Errorf("failed to count tags: %w", err)
	}

	var tags []models.Tag
	if err := query.Order("id ASC").Offset(offset).Limit(limit).Find(&tags).Error; err != nil {
		return 0, nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return total, tags, nil
}

// Create inserts a new tag, failing with ErrDuplicate when the name is taken.
func (r *TagRepository) Create(name string) (*models.Tag, error) {
	var existing models.Tag
	err := r.db.Where("name = ?", name).First(&existing).Error
	if err == nil {
		return nil, fmt.Errorf("specified name already exists: %w", apperrors.ErrDuplicate)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check tag name %q: %w", name, err)
	}

	tag := models.Tag{Name: name}
	if err := r.db.Create(&tag).Error; err != nil {
		return nil, fmt.Errorf("failed to create tag %q: %w", name, err)
	}
	return &tag, nil
}
