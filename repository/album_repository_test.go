package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/purplearchive/purple-archive-server/apperrors"
	"github.com/purplearchive/purple-archive-server/models"
)

func TestCreateFromTemp(t *testing.T) {
	t.Run("round trip with pages and tags", func(t *testing.T) {
		db := setupTestDB(t)
		gamemode := seedGamemode(t, db, "normal")
		tagA := seedTag(t, db, "funny")
		tagB := seedTag(t, db, "classic")
		user := seedUser(t, db, "alice")

		tempRepo := NewTempAlbumRepository(db)
		_, err := tempRepo.Create("temp-rt", "hash-rt", 3)
		require.NoError(t, err)

		repo := NewAlbumRepository(db)
		playedAt := time.Date(2026, 8, 1, 20, 0, 0, 0, time.UTC)
		detail, err := repo.CreateFromTemp(CreateAlbumParams{
			TempAlbumUUID: "temp-rt",
			GamemodeID:    gamemode.ID,
			TagIDs:        []uint{tagA.ID, tagB.ID},
			PlayedAt:      playedAt,
			Pages: []PageMeta{
				{Description: "first", PlayerName: "alice"},
				{Description: "second", PlayerName: "bob"},
				{Description: "third", PlayerName: "carol"},
			},
			Source:            "https://s3.test/albums/temp-rt.gif",
			ThumbSource:       "https://s3.test/albums/temp-rt_thumb.gif",
			Hash:              "hash-rt",
			ContributorUserID: &user.ID,
		})
		require.NoError(t, err)

		assert.Equal(t, 3, detail.PageCount)
		require.Len(t, detail.Pages, 3)
		for i, page := range detail.Pages {
			assert.Equal(t, i, page.Index)
		}
		assert.Equal(t, "second", detail.Pages[1].Description)
		assert.Equal(t, "bob", detail.Pages[1].PlayerName)
		assert.Len(t, detail.Tags, 2)
		assert.Equal(t, gamemode.ID, detail.Gamemode.ID)
		require.NotNil(t, detail.ContributorUserID)
		assert.Equal(t, "alice", *detail.ContributorUserID)

		// the temp album is consumed
		_, err = tempRepo.Get("temp-rt")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("second promotion of the same temp album fails", func(t *testing.T) {
		db := setupTestDB(t)
		gamemode := seedGamemode(t, db, "normal")

		tempRepo := NewTempAlbumRepository(db)
		_, err := tempRepo.Create("temp-once", "hash-once", 1)
		require.NoError(t, err)

		repo := NewAlbumRepository(db)
		params := CreateAlbumParams{
			TempAlbumUUID: "temp-once",
			GamemodeID:    gamemode.ID,
			PlayedAt:      time.Now(),
			Pages:         []PageMeta{{Description: "only"}},
			Source:        "https://s3.test/albums/temp-once.gif",
			ThumbSource:   "https://s3.test/albums/temp-once_thumb.gif",
			Hash:          "hash-once",
		}

		_, err = repo.CreateFromTemp(params)
		require.NoError(t, err)

		_, err = repo.CreateFromTemp(params)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})

	t.Run("page metadata length must match page count", func(t *testing.T) {
		db := setupTestDB(t)
		gamemode := seedGamemode(t, db, "normal")

		tempRepo := NewTempAlbumRepository(db)
		_, err := tempRepo.Create("temp-mismatch", "hash-mismatch", 2)
		require.NoError(t, err)

		repo := NewAlbumRepository(db)
		_, err = repo.CreateFromTemp(CreateAlbumParams{
			TempAlbumUUID: "temp-mismatch",
			GamemodeID:    gamemode.ID,
			PlayedAt:      time.Now(),
			Pages:         []PageMeta{{Description: "only one"}},
			Hash:          "hash-mismatch",
		})
		assert.ErrorIs(t, err, apperrors.ErrPageCountMismatch)

		// the failed promotion must not consume the temp album
		_, err = tempRepo.Get("temp-mismatch")
		assert.NoError(t, err)
	})

	t.Run("missing gamemode rolls everything back", func(t *testing.T) {
		db := setupTestDB(t)

		tempRepo := NewTempAlbumRepository(db)
		_, err := tempRepo.Create("temp-nogm", "hash-nogm", 1)
		require.NoError(t, err)

		repo := NewAlbumRepository(db)
		_, err = repo.CreateFromTemp(CreateAlbumParams{
			TempAlbumUUID: "temp-nogm",
			GamemodeID:    999,
			PlayedAt:      time.Now(),
			Pages:         []PageMeta{{Description: "page"}},
			Hash:          "hash-nogm",
		})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)

		var albumCount int64
		require.NoError(t, db.Model(&models.Album{}).Count(&albumCount).Error)
		assert.Zero(t, albumCount)

		// rollback restores the temp album too
		_, err = tempRepo.Get("temp-nogm")
		assert.NoError(t, err)
	})
}

func TestListAlbums(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	t.Run("total count is independent of pagination", func(t *testing.T) {
		db := setupTestDB(t)
		gamemode := seedGamemode(t, db, "normal")
		for i := 0; i < 5; i++ {
			seedAlbum(t, db, gamemode.ID, base.Add(time.Duration(i)*time.Hour), []PageMeta{{Description: "p"}}, nil)
		}

		repo := NewAlbumRepository(db)
		total, rows, err := repo.List(ListOptions{Offset: 1, Limit: 2})
		require.NoError(t, err)
		assert.EqualValues(t, 5, total)
		assert.Len(t, rows, 2)
	})

	t.Run("default order is playedAt descending", func(t *testing.T) {
		db := setupTestDB(t)
		gamemode := seedGamemode(t, db, "normal")
		oldest := seedAlbum(t, db, gamemode.ID, base, []PageMeta{{}}, nil)
		newest := seedAlbum(t, db, gamemode.ID, base.Add(2*time.Hour), []PageMeta{{}}, nil)
		middle := seedAlbum(t, db, gamemode.ID, base.Add(time.Hour), []PageMeta{{}}, nil)

		repo := NewAlbumRepository(db)
		_, rows, err := repo.List(ListOptions{})
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, newest.ID, rows[0].ID)
		assert.Equal(t, middle.ID, rows[1].ID)
		assert.Equal(t, oldest.ID, rows[2].ID)
	})

	t.Run("equal sort keys tie-break on playedAt descending", func(t *testing.T) {
		db := setupTestDB(t)
		gamemode := seedGamemode(t, db, "normal")
		// identical pv counts, distinct played_at
		first := seedAlbum(t, db, gamemode.ID, base, []PageMeta{{}}, nil)
		second := seedAlbum(t, db, gamemode.ID, base.Add(time.Hour), []PageMeta{{}}, nil)
		third := seedAlbum(t, db, gamemode.ID, base.Add(2*time.Hour), []PageMeta{{}}, nil)

		repo := NewAlbumRepository(db)
		_, rows, err := repo.List(ListOptions{OrderBy: OrderByPvCount, Order: OrderAsc})
		require.NoError(t, err)
		require.Len(t, rows, 3)
		assert.Equal(t, third.ID, rows[0].ID)
		assert.Equal(t, second.ID, rows[1].ID)
		assert.Equal(t, first.ID, rows[2].ID)
	})

	t.Run("orders by aggregate page count", func(t *testing.T) {
		db := setupTestDB(t)
		gamemode := seedGamemode(t, db, "normal")
		small := seedAlbum(t, db, gamemode.ID, base, []PageMeta{{}}, nil)
		big := seedAlbum(t, db, gamemode.ID, base.Add(time.Hour), []PageMeta{{}, {}, {}}, nil)

		repo := NewAlbumRepository(db)
		_, rows, err := repo.List(ListOptions{OrderBy: OrderByPageCount, Order: OrderDesc})
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, big.ID, rows[0].ID)
		assert.Equal(t, 3, rows[0].PageCount)
		assert.Equal(t, small.ID, rows[1].ID)
		assert.Equal(t, 1, rows[1].PageCount)
	})

	t.Run("rejects unknown order tokens before querying", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewAlbumRepository(db)

		_, _, err := repo.List(ListOptions{OrderBy: "albums.id; DROP TABLE albums"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)

		_, _, err = repo.List(ListOptions{Order: "sideways"})
		assert.ErrorIs(t, err, apperrors.ErrInvalidArgument)
	})

	t.Run("substring filters treat wildcards literally", func(t *testing.T) {
		db := setupTestDB(t)
		gamemode := seedGamemode(t, db, "normal")
		match := seedAlbum(t, db, gamemode.ID, base, []PageMeta{{Description: "100% legit"}}, nil)
		seedAlbum(t, db, gamemode.ID, base, []PageMeta{{Description: "100x legit"}}, nil)

		repo := NewAlbumRepository(db)
		total, rows, err := repo.List(ListOptions{PartialDescription: "100%"})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, rows, 1)
		assert.Equal(t, match.ID, rows[0].ID)
	})

	t.Run("filters by player name, tag, gamemode and played range", func(t *testing.T) {
		db := setupTestDB(t)
		normal := seedGamemode(t, db, "normal")
		ranked := seedGamemode(t, db, "ranked")
		funny := seedTag(t, db, "funny")

		tagged := seedAlbum(t, db, normal.ID, base, []PageMeta{{PlayerName: "alice"}}, []uint{funny.ID})
		other := seedAlbum(t, db, ranked.ID, base.Add(48*time.Hour), []PageMeta{{PlayerName: "bob"}}, nil)

		repo := NewAlbumRepository(db)

		_, rows, err := repo.List(ListOptions{PartialPlayerName: "lic"})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, tagged.ID, rows[0].ID)

		_, rows, err = repo.List(ListOptions{PartialTag: "fun"})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, tagged.ID, rows[0].ID)

		_, rows, err = repo.List(ListOptions{GamemodeID: &ranked.ID})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, other.ID, rows[0].ID)

		from := base.Add(24 * time.Hour)
		_, rows, err = repo.List(ListOptions{PlayedFrom: &from})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, other.ID, rows[0].ID)

		until := base.Add(24 * time.Hour)
		_, rows, err = repo.List(ListOptions{PlayedUntil: &until})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, tagged.ID, rows[0].ID)
	})

	t.Run("bookmark filter and isBookmarked per viewer", func(t *testing.T) {
		db := setupTestDB(t)
		gamemode := seedGamemode(t, db, "normal")
		alice := seedUser(t, db, "alice")
		seedUser(t, db, "bob")

		marked := seedAlbum(t, db, gamemode.ID, base, []PageMeta{{}}, nil)
		seedAlbum(t, db, gamemode.ID, base.Add(time.Hour), []PageMeta{{}}, nil)
		require.NoError(t, db.Create(&models.Bookmark{UserID: alice.ID, AlbumID: marked.ID}).Error)

		repo := NewAlbumRepository(db)

		total, rows, err := repo.List(ListOptions{BookmarkedBy: "alice", ViewerUserID: "alice"})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, rows, 1)
		assert.Equal(t, marked.ID, rows[0].ID)
		assert.True(t, rows[0].IsBookmarked)
		assert.Equal(t, 1, rows[0].BookmarkCount)

		_, rows, err = repo.List(ListOptions{ViewerUserID: "bob"})
		require.NoError(t, err)
		for _, row := range rows {
			assert.False(t, row.IsBookmarked)
		}

		total, _, err = repo.List(ListOptions{BookmarkedBy: "bob"})
		require.NoError(t, err)
		assert.Zero(t, total)
	})

	t.Run("soft-deleted albums are invisible", func(t *testing.T) {
		db := setupTestDB(t)
		gamemode := seedGamemode(t, db, "normal")
		gone := seedAlbum(t, db, gamemode.ID, base, []PageMeta{{}}, nil)
		kept := seedAlbum(t, db, gamemode.ID, base.Add(time.Hour), []PageMeta{{}}, nil)

		repo := NewAlbumRepository(db)
		require.NoError(t, repo.SoftDelete(gone.ID))

		total, rows, err := repo.List(ListOptions{})
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, rows, 1)
		assert.Equal(t, kept.ID, rows[0].ID)

		_, err = repo.GetByID(gone.ID, "")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestUpdateAlbum(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	t.Run("replaces gamemode, tags and page metadata", func(t *testing.T) {
		db := setupTestDB(t)
		normal := seedGamemode(t, db, "normal")
		ranked := seedGamemode(t, db, "ranked")
		tagA := seedTag(t, db, "old")
		tagB := seedTag(t, db, "kept")
		tagC := seedTag(t, db, "new")

		album := seedAlbum(t, db, normal.ID, base,
			[]PageMeta{{Description: "one"}, {Description: "two"}},
			[]uint{tagA.ID, tagB.ID})

		repo := NewAlbumRepository(db)
		err := repo.Update(album.ID, ranked.ID, []uint{tagB.ID, tagC.ID}, []PageMeta{
			{Description: "uno", PlayerName: "alice"},
			{Description: "dos", PlayerName: "bob"},
		})
		require.NoError(t, err)

		detail, err := repo.GetByID(album.ID, "")
		require.NoError(t, err)
		assert.Equal(t, ranked.ID, detail.Gamemode.ID)
		require.Len(t, detail.Tags, 2)
		assert.Equal(t, "kept", detail.Tags[0].Name)
		assert.Equal(t, "new", detail.Tags[1].Name)
		require.Len(t, detail.Pages, 2)
		assert.Equal(t, "uno", detail.Pages[0].Description)
		assert.Equal(t, "dos", detail.Pages[1].Description)
		assert.Equal(t, "bob", detail.Pages[1].PlayerName)
	})

	t.Run("detached tag with no remaining albums is deleted", func(t *testing.T) {
		db := setupTestDB(t)
		gamemode := seedGamemode(t, db, "normal")
		orphan := seedTag(t, db, "orphan")
		shared := seedTag(t, db, "shared")

		album := seedAlbum(t, db, gamemode.ID, base, []PageMeta{{}}, []uint{orphan.ID, shared.ID})
		seedAlbum(t, db, gamemode.ID, base, []PageMeta{{}}, []uint{shared.ID})

		repo := NewAlbumRepository(db)
		require.NoError(t, repo.Update(album.ID, gamemode.ID, nil, []PageMeta{{}}))

		var orphanCount, sharedCount int64
		require.NoError(t, db.Model(&models.Tag{}).Where("id = ?", orphan.ID).Count(&orphanCount).Error)
		require.NoError(t, db.Model(&models.Tag{}).Where("id = ?", shared.ID).Count(&sharedCount).Error)
		assert.Zero(t, orphanCount, "orphaned tag should be garbage collected")
		assert.EqualValues(t, 1, sharedCount, "tag still referenced elsewhere must survive")
	})

	t.Run("page metadata length must match existing pages", func(t *testing.T) {
		db := setupTestDB(t)
		gamemode := seedGamemode(t, db, "normal")
		album := seedAlbum(t, db, gamemode.ID, base, []PageMeta{{}, {}}, nil)

		repo := NewAlbumRepository(db)
		err := repo.Update(album.ID, gamemode.ID, nil, []PageMeta{{}})
		assert.ErrorIs(t, err, apperrors.ErrPageCountMismatch)
	})

	t.Run("updating a missing album fails", func(t *testing.T) {
		db := setupTestDB(t)
		gamemode := seedGamemode(t, db, "normal")

		repo := NewAlbumRepository(db)
		err := repo.Update(12345, gamemode.ID, nil, nil)
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestAlbumCounters(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	t.Run("increments survive repeated calls", func(t *testing.T) {
		db := setupTestDB(t)
		gamemode := seedGamemode(t, db, "normal")
		album := seedAlbum(t, db, gamemode.ID, base, []PageMeta{{}}, nil)

		repo := NewAlbumRepository(db)
		require.NoError(t, repo.IncrementPvCount(album.ID))
		require.NoError(t, repo.IncrementPvCount(album.ID))
		require.NoError(t, repo.IncrementDownloadCount(album.ID))

		detail, err := repo.GetByID(album.ID, "")
		require.NoError(t, err)
		assert.Equal(t, 2, detail.PvCount)
		assert.Equal(t, 1, detail.DownloadCount)
	})

	t.Run("incrementing a deleted album fails", func(t *testing.T) {
		db := setupTestDB(t)
		gamemode := seedGamemode(t, db, "normal")
		album := seedAlbum(t, db, gamemode.ID, base, []PageMeta{{}}, nil)

		repo := NewAlbumRepository(db)
		require.NoError(t, repo.SoftDelete(album.ID))
		assert.ErrorIs(t, repo.IncrementPvCount(album.ID), apperrors.ErrNotFound)
		assert.ErrorIs(t, repo.IncrementDownloadCount(album.ID), apperrors.ErrNotFound)
	})
}

func TestGetByHash(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	t.Run("returns the newest active match", func(t *testing.T) {
		db := setupTestDB(t)
		gamemode := seedGamemode(t, db, "normal")

		// two albums sharing a hash, inserted directly
		older := models.Album{Source: "a", ThumbSource: "a", Hash: "dup", GamemodeID: gamemode.ID, PlayedAt: base}
		newer := models.Album{Source: "b", ThumbSource: "b", Hash: "dup", GamemodeID: gamemode.ID, PlayedAt: base}
		require.NoError(t, db.Create(&older).Error)
		require.NoError(t, db.Create(&newer).Error)

		repo := NewAlbumRepository(db)
		found, err := repo.GetByHash("dup")
		require.NoError(t, err)
		assert.Equal(t, newer.ID, found.ID)

		require.NoError(t, repo.SoftDelete(newer.ID))
		found, err = repo.GetByHash("dup")
		require.NoError(t, err)
		assert.Equal(t, older.ID, found.ID)
	})

	t.Run("no match", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewAlbumRepository(db)
		_, err := repo.GetByHash(fmt.Sprintf("missing-%d", time.Now().UnixNano()))
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}
