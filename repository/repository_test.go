package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/purplearchive/purple-archive-server/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Gamemode{},
		&models.Tag{},
		&models.Album{},
		&models.Page{},
		&models.AlbumTag{},
		&models.Bookmark{},
		&models.TempAlbum{},
	)
	require.NoError(t, err)

	return db
}

func seedUser(t *testing.T, db *gorm.DB, id string) *models.User {
	user := &models.User{ID: id, DisplayName: id}
	require.NoError(t, user.SetPassword("password"))
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedGamemode(t *testing.T, db *gorm.DB, name string) *models.Gamemode {
	gamemode := &models.Gamemode{Name: name}
	require.NoError(t, db.Create(gamemode).Error)
	return gamemode
}

func seedTag(t *testing.T, db *gorm.DB, name string) *models.Tag {
	tag := &models.Tag{Name: name}
	require.NoError(t, db.Create(tag).Error)
	return tag
}

var tempSeq int

// seedAlbum promotes a fresh temp album so every test album goes through the
// real creation path.
func seedAlbum(t *testing.T, db *gorm.DB, gamemodeID uint, playedAt time.Time, pages []PageMeta, tagIDs []uint) *AlbumDetail {
	tempSeq++
	uuid := fmt.Sprintf("temp-%d", tempSeq)

	tempRepo := NewTempAlbumRepository(db)
	_, err := tempRepo.Create(uuid, fmt.Sprintf("hash-%s", uuid), len(pages))
	require.NoError(t, err)

	albumRepo := NewAlbumRepository(db)
	detail, err := albumRepo.CreateFromTemp(CreateAlbumParams{
		TempAlbumUUID: uuid,
		GamemodeID:    gamemodeID,
		TagIDs:        tagIDs,
		PlayedAt:      playedAt,
		Pages:         pages,
		Source:        fmt.Sprintf("https://s3.test/albums/%s.gif", uuid),
		ThumbSource:   fmt.Sprintf("https://s3.test/albums/%s_thumb.gif", uuid),
		Hash:          fmt.Sprintf("hash-%s", uuid),
	})
	require.NoError(t, err)
	return detail
}
