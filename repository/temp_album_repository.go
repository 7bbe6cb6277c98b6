package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/purplearchive/purple-archive-server/apperrors"
	"github.com/purplearchive/purple-archive-server/models"
)

// TempAlbumRepository handles the ephemeral pending-upload records.
type TempAlbumRepository struct {
	db *gorm.DB
}

// NewTempAlbumRepository creates a new instance of TempAlbumRepository
func NewTempAlbumRepository(db *gorm.DB) *TempAlbumRepository {
	return &TempAlbumRepository{db: db}
}

// Create inserts a fresh pending record for an upload.
func (r *TempAlbumRepository) Create(uuid, hash string, pageCount int) (*models.TempAlbum, error) {
	temp := models.TempAlbum{
		UUID:      uuid,
		Hash:      hash,
		PageCount: pageCount,
	}
	if err := r.db.Create(&temp).Error; err != nil {
		return nil, fmt.Errorf("failed to create temp album %s: %w", uuid, err)
	}
	return &temp, nil
}

// Get returns an active (not consumed, not expired) record by identifier.
func (r *TempAlbumRepository) Get(uuid string) (*models.TempAlbum, error) {
	var temp models.TempAlbum
	if err := r.db.First(&temp, "uuid = ?", uuid).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("specified temporary album does not exist: %w", apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get temp album %s: %w", uuid, err)
	}
	return &temp, nil
}

// ListExpired returns active records created before the cutoff, oldest first.
func (r *TempAlbumRepository) ListExpired(cutoff time.Time) ([]models.TempAlbum, error) {
	var expired []models.TempAlbum
	err := r.db.Where("created_at < ?", cutoff).Order("created_at ASC").Find(&expired).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list expired temp albums: %w", err)
	}
	return expired, nil
}

// SoftDelete retires a pending record (consumed or expired).
func (r *TempAlbumRepository) SoftDelete(uuid string) error {
	res := r.db.Where("uuid = ?", uuid).Delete(&models.TempAlbum{})
	if res.Error != nil {
		return fmt.Errorf("failed to soft-delete temp album %s: %w", uuid, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("specified temporary album does not exist: %w", apperrors.ErrNotFound)
	}
	return nil
}
