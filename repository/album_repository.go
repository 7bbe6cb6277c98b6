package repository

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/purplearchive/purple-archive-server/apperrors"
	"github.com/purplearchive/purple-archive-server/models"
)

// AlbumRepository handles database operations for Album entities
type AlbumRepository struct {
	db *gorm.DB
}

// NewAlbumRepository creates a new instance of AlbumRepository
func NewAlbumRepository(db *gorm.DB) *AlbumRepository {
	return &AlbumRepository{db: db}
}

// PageMeta is the caller-supplied metadata for one page, applied positionally.
type PageMeta struct {
	Description string `json:"description"`
	PlayerName  string `json:"playerName"`
}

// CreateAlbumParams carries everything needed to promote a temp album into a
// persisted one. Source/ThumbSource are the already-uploaded storage URIs.
type CreateAlbumParams struct {
	TempAlbumUUID     string
	GamemodeID        uint
	TagIDs            []uint
	PlayedAt          time.Time
	Pages             []PageMeta
	Source            string
	ThumbSource       string
	Hash              string
	ContributorUserID *string
}

// AlbumDetail is the fully joined view of a single album.
type AlbumDetail struct {
	AlbumSummary
	ContributorUserID *string         `json:"contributorUserId"`
	Gamemode          models.Gamemode `json:"gamemode"`
	Tags              []models.Tag    `json:"tags"`
	Pages             []models.Page   `json:"pages"`
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// resolveTags loads the requested tag set, failing with ErrNotFound when any
// id does not exist.
func resolveTags(tx *gorm.DB, tagIDs []uint) ([]models.Tag, error) {
	ids := uniqueIDs(tagIDs)
	if len(ids) == 0 {
		return nil, nil
	}
	var tags []models.Tag
	if err := tx.Where("id IN ?", ids).Find(&tags).Error; err != nil {
		return nil, fmt.Errorf("failed to load tags: %w", err)
	}
	if len(tags) != len(ids) {
		return nil, fmt.Errorf("specified tag does not exist: %w", apperrors.ErrNotFound)
	}
	return tags, nil
}

// CreateFromTemp promotes a pending upload into a persisted album. Everything
// runs in one transaction: the temp album is consumed with a conditional
// soft-delete (the guard against two concurrent promotions of the same
// upload), then the album, its pages and its tag associations are created
// together or not at all.
func (r *AlbumRepository) CreateFromTemp(params CreateAlbumParams) (*AlbumDetail, error) {
	var albumID uint
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var temp models.TempAlbum
		if err := tx.First(&temp, "uuid = ?", params.TempAlbumUUID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("specified temporary album does not exist: %w", apperrors.ErrNotFound)
			}
			return fmt.Errorf("failed to load temp album %s: %w", params.TempAlbumUUID, err)
		}

		if len(params.Pages) != temp.PageCount {
			return fmt.Errorf("%w: got %d entries, temp album has %d pages",
				apperrors.ErrPageCountMismatch, len(params.Pages), temp.PageCount)
		}

		// consume-if-not-already; soft delete scoping makes this conditional
		res := tx.Where("uuid = ?", temp.UUID).Delete(&models.TempAlbum{})
		if res.Error != nil {
			return fmt.Errorf("failed to consume temp album %s: %w", temp.UUID, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("temporary album already consumed: %w", apperrors.ErrNotFound)
		}

		var gamemodeCount int64
		if err := tx.Model(&models.Gamemode{}).Where("id = ?", params.GamemodeID).Count(&gamemodeCount).Error; err != nil {
			return fmt.Errorf("failed to check gamemode %d: %w", params.GamemodeID, err)
		}
		if gamemodeCount == 0 {
			return fmt.Errorf("specified gamemode does not exist: %w", apperrors.ErrNotFound)
		}

		tags, err := resolveTags(tx, params.TagIDs)
		if err != nil {
			return err
		}

		album := models.Album{
			Source:            params.Source,
			ThumbSource:       params.ThumbSource,
			Hash:              params.Hash,
			ContributorUserID: params.ContributorUserID,
			GamemodeID:        params.GamemodeID,
			PlayedAt:          params.PlayedAt,
		}
		if err := tx.Create(&album).Error; err != nil {
			return fmt.Errorf("failed to create album: %w", err)
		}

		pages := make([]models.Page, len(params.Pages))
		for i, meta := range params.Pages {
			pages[i] = models.Page{
				AlbumID:     album.ID,
				Index:       i,
				Description: meta.Description,
				PlayerName:  meta.PlayerName,
			}
		}
		if len(pages) > 0 {
			if err := tx.Create(&pages).Error; err != nil {
				return fmt.Errorf("failed to create pages for album %d: %w", album.ID, err)
			}
		}

		for _, tag := range tags {
			if err := tx.Create(&models.AlbumTag{AlbumID: album.ID, TagID: tag.ID}).Error; err != nil {
				return fmt.Errorf("failed to attach tag %d to album %d: %w", tag.ID, album.ID, err)
			}
		}

		albumID = album.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	viewer := ""
	if params.ContributorUserID != nil {
		viewer = *params.ContributorUserID
	}
	return r.GetByID(albumID, viewer)
}

// Update replaces an album's gamemode, tag set and page metadata. Page
// metadata is applied positionally and must cover every existing page. Tags
// are reconciled by symmetric difference; a detached tag left with zero album
// associations is deleted inside the same transaction.
func (r *AlbumRepository) Update(albumID, gamemodeID uint, tagIDs []uint, pages []PageMeta) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var album models.Album
		if err := tx.First(&album, albumID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("specified album does not exist: %w", apperrors.ErrNotFound)
			}
			return fmt.Errorf("failed to load album %d: %w", albumID, err)
		}

		var pageCount int64
		if err := tx.Model(&models.Page{}).Where("album_id = ?", albumID).Count(&pageCount).Error; err != nil {
			return fmt.Errorf("failed to count pages of album %d: %w", albumID, err)
		}
		if int64(len(pages)) != pageCount {
			return fmt.Errorf("%w: got %d entries, album has %d pages",
				apperrors.ErrPageCountMismatch, len(pages), pageCount)
		}

		var gamemodeCount int64
		if err := tx.Model(&models.Gamemode{}).Where("id = ?", gamemodeID).Count(&gamemodeCount).Error; err != nil {
			return fmt.Errorf("failed to check gamemode %d: %w", gamemodeID, err)
		}
		if gamemodeCount == 0 {
			return fmt.Errorf("specified gamemode does not exist: %w", apperrors.ErrNotFound)
		}

		wantTags, err := resolveTags(tx, tagIDs)
		if err != nil {
			return err
		}
		wantSet := make(map[uint]struct{}, len(wantTags))
		for _, tag := range wantTags {
			wantSet[tag.ID] = struct{}{}
		}

		var current []models.AlbumTag
		if err := tx.Where("album_id = ?", albumID).Find(&current).Error; err != nil {
			return fmt.Errorf("failed to load tag associations of album %d: %w", albumID, err)
		}
		currentSet := make(map[uint]struct{}, len(current))
		for _, at := range current {
			currentSet[at.TagID] = struct{}{}
		}

		for _, at := range current {
			if _, keep := wantSet[at.TagID]; keep {
				continue
			}
			if err := tx.Where("album_id = ? AND tag_id = ?", albumID, at.TagID).Delete(&models.AlbumTag{}).Error; err != nil {
				return fmt.Errorf("failed to detach tag %d from album %d: %w", at.TagID, albumID, err)
			}
			// tag garbage collection: drop the tag once nothing references it
			var remaining int64
			if err := tx.Model(&models.AlbumTag{}).Where("tag_id = ?", at.TagID).Count(&remaining).Error; err != nil {
				return fmt.Errorf("failed to count associations of tag %d: %w", at.TagID, err)
			}
			if remaining == 0 {
				if err := tx.Delete(&models.Tag{}, at.TagID).Error; err != nil {
					return fmt.Errorf("failed to delete orphaned tag %d: %w", at.TagID, err)
				}
			}
		}

		for _, tag := range wantTags {
			if _, had := currentSet[tag.ID]; had {
				continue
			}
			if err := tx.Create(&models.AlbumTag{AlbumID: albumID, TagID: tag.ID}).Error; err != nil {
				return fmt.Errorf("failed to attach tag %d to album %d: %w", tag.ID, albumID, err)
			}
		}

		for i, meta := range pages {
			err := tx.Model(&models.Page{}).
				Where("album_id = ? AND page_index = ?", albumID, i).
				Updates(map[string]interface{}{
					"description": meta.Description,
					"player_name": meta.PlayerName,
				}).Error
			if err != nil {
				return fmt.Errorf("failed to update page %d of album %d: %w", i, albumID, err)
			}
		}

		if err := tx.Model(&models.Album{}).Where("id = ?", albumID).
			Update("gamemode_id", gamemodeID).Error; err != nil {
			return fmt.Errorf("failed to update album %d: %w", albumID, err)
		}
		return nil
	})
}

// GetByID retrieves an active album with its gamemode, tags and ordered pages.
func (r *AlbumRepository) GetByID(id uint, viewerUserID string) (*AlbumDetail, error) {
	var album models.Album
	if err := r.db.First(&album, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("specified album does not exist: %w", apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get album by ID %d: %w", id, err)
	}

	detail := AlbumDetail{
		AlbumSummary: AlbumSummary{
			ID:            album.ID,
			Source:        album.Source,
			ThumbSource:   album.ThumbSource,
			PvCount:       album.PvCount,
			DownloadCount: album.DownloadCount,
			PlayedAt:      album.PlayedAt,
			CreatedAt:     album.CreatedAt,
			UpdatedAt:     album.UpdatedAt,
		},
		ContributorUserID: album.ContributorUserID,
	}

	if err := r.db.First(&detail.Gamemode, album.GamemodeID).Error; err != nil {
		return nil, fmt.Errorf("failed to load gamemode of album %d: %w", id, err)
	}

	if err := r.db.Model(&models.Tag{}).
		Joins("JOIN album_tags ON album_tags.tag_id = tags.id").
		Where("album_tags.album_id = ?", id).
		Order("tags.id ASC").
		Find(&detail.Tags).Error; err != nil {
		return nil, fmt.Errorf("failed to load tags of album %d: %w", id, err)
	}

	if err := r.db.Where("album_id = ?", id).Order("page_index ASC").Find(&detail.Pages).Error; err != nil {
		return nil, fmt.Errorf("failed to load pages of album %d: %w", id, err)
	}
	detail.PageCount = len(detail.Pages)

	var bookmarkCount int64
	if err := r.db.Model(&models.Bookmark{}).Where("album_id = ?", id).Count(&bookmarkCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count bookmarks of album %d: %w", id, err)
	}
	detail.BookmarkCount = int(bookmarkCount)

	if viewerUserID != "" {
		var mine int64
		if err := r.db.Model(&models.Bookmark{}).
			Where("album_id = ? AND user_id = ?", id, viewerUserID).
			Count(&mine).Error; err != nil {
			return nil, fmt.Errorf("failed to check bookmark of album %d: %w", id, err)
		}
		detail.IsBookmarked = mine > 0
	}

	return &detail, nil
}

// GetByHash returns the newest active album whose upload fingerprint matches,
// used for duplicate detection on upload.
func (r *AlbumRepository) GetByHash(hash string) (*models.Album, error) {
	var album models.Album
	err := r.db.Where("hash = ?", hash).Order("id DESC").First(&album).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no album with matching hash: %w", apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get album by hash: %w", err)
	}
	return &album, nil
}

// SoftDelete marks an album deleted. Pages, tags and bookmarks stay attached
// but the album disappears from every read path.
func (r *AlbumRepository) SoftDelete(id uint) error {
	res := r.db.Delete(&models.Album{}, id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete album %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("specified album does not exist: %w", apperrors.ErrNotFound)
	}
	return nil
}

// IncrementPvCount bumps the view counter of an active album.
func (r *AlbumRepository) IncrementPvCount(id uint) error {
	return r.incrementCounter(id, "pv_count")
}

// IncrementDownloadCount bumps the download counter of an active album.
func (r *AlbumRepository) IncrementDownloadCount(id uint) error {
	return r.incrementCounter(id, "download_count")
}

func (r *AlbumRepository) incrementCounter(id uint, column string) error {
	res := r.db.Model(&models.Album{}).Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + 1"))
	if res.Error != nil {
		return fmt.Errorf("failed to increment %s of album %d: %w", column, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("specified album does not exist: %w", apperrors.ErrNotFound)
	}
	return nil
}
