package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/purplearchive/purple-archive-server/apperrors"
	"github.com/purplearchive/purple-archive-server/config"
	"github.com/purplearchive/purple-archive-server/media"
	"github.com/purplearchive/purple-archive-server/repository"
	"github.com/purplearchive/purple-archive-server/storage"
)

func parseIntQuery(r *http.Request, name string, defaultVal int) int {
	valStr := r.URL.Query().Get(name)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil || val < 0 {
		return defaultVal
	}
	return val
}

func parseUintParam(r *http.Request, name string) (uint, error) {
	valStr := chi.URLParam(r, name)
	val, err := strconv.ParseUint(valStr, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("%s must be a positive integer: %w", name, apperrors.ErrInvalidArgument)
	}
	return uint(val), nil
}

type AlbumHandler struct {
	AlbumRepo repository.AlbumRepositoryInterface
	TempRepo  repository.TempAlbumRepositoryInterface
	Store     storage.ObjectStorage
	Cfg       config.Config
}

func NewAlbumHandler(albumRepo repository.AlbumRepositoryInterface, tempRepo repository.TempAlbumRepositoryInterface, store storage.ObjectStorage, cfg config.Config) *AlbumHandler {
	return &AlbumHandler{AlbumRepo: albumRepo, TempRepo: tempRepo, Store: store, Cfg: cfg}
}

type AlbumListResponse struct {
	AlbumsCountAll int64                     `json:"albumsCountAll"`
	Albums         []repository.AlbumSummary `json:"albums"`
}

// List returns a filtered, sorted, paginated page of albums together with the
// filter-wide total.
func (h *AlbumHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r)
	if !ok {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "could not retrieve user from context")
		return
	}

	q := r.URL.Query()
	opts := repository.ListOptions{
		PartialDescription: q.Get("partialDescription"),
		PartialPlayerName:  q.Get("partialPlayerName"),
		PartialTag:         q.Get("partialTag"),
		ViewerUserID:       user.ID,
		OrderBy:            q.Get("orderBy"),
		Order:              q.Get("order"),
		Offset:             parseIntQuery(r, "offset", 0),
		Limit:              parseIntQuery(r, "limit", 100),
	}

	if from := q.Get("playedFrom"); from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			WriteAPIError(w, http.StatusBadRequest, "invalid_argument", "playedFrom must be an RFC 3339 timestamp")
			return
		}
		opts.PlayedFrom = &t
	}
	if until := q.Get("playedUntil"); until != "" {
		t, err := time.Parse(time.RFC3339, until)
		if err != nil {
			WriteAPIError(w, http.StatusBadRequest, "invalid_argument", "playedUntil must be an RFC 3339 timestamp")
			return
		}
		opts.PlayedUntil = &t
	}
	if gm := q.Get("gamemodeId"); gm != "" {
		val, err := strconv.ParseUint(gm, 10, 32)
		if err != nil {
			WriteAPIError(w, http.StatusBadRequest, "invalid_argument", "gamemodeId must be a positive integer")
			return
		}
		gamemodeID := uint(val)
		opts.GamemodeID = &gamemodeID
	}
	if q.Get("myBookmark") == "true" {
		opts.BookmarkedBy = user.ID
	}

	total, albums, err := h.AlbumRepo.List(opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, AlbumListResponse{AlbumsCountAll: total, Albums: albums})
}

// Get returns the full detail of one album. A non-empty incrementPv query
// parameter bumps the view counter before the read.
func (h *AlbumHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r)
	if !ok {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "could not retrieve user from context")
		return
	}

	id, err := parseUintParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if r.URL.Query().Get("incrementPv") != "" {
		if err := h.AlbumRepo.IncrementPvCount(id); err != nil {
			writeError(w, err)
			return
		}
	}

	detail, err := h.AlbumRepo.GetByID(id, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// GetRaw streams the album's original GIF. The object is pulled from storage
// into a scratch file that is removed once the response is written.
func (h *AlbumHandler) GetRaw(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r)
	if !ok {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "could not retrieve user from context")
		return
	}

	id, err := parseUintParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	detail, err := h.AlbumRepo.GetByID(id, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	key, err := h.Store.KeyFromURL(detail.Source)
	if err != nil {
		writeError(w, err)
		return
	}

	scratchPath := filepath.Join(h.Cfg.ScratchPath, fmt.Sprintf("album_%d_%s.gif", id, uuid.NewString()))
	if err := h.Store.Download(key, scratchPath); err != nil {
		writeError(w, err)
		return
	}
	defer func() {
		if err := os.Remove(scratchPath); err != nil {
			log.Printf("Error removing scratch file %s: %v", scratchPath, err)
		}
	}()

	w.Header().Set("Content-Type", "image/gif")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=album_%d.gif", id))
	http.ServeFile(w, r, scratchPath)
}

type CreateAlbumPayload struct {
	TemporaryAlbumUUID string                `json:"temporaryAlbumUuid"`
	GamemodeID         uint                  `json:"gamemodeId"`
	TagIDs             []uint                `json:"tagIds"`
	PlayedAt           string                `json:"playedAt"`
	PageMetaData       []repository.PageMeta `json:"pageMetaData"`
}

// Create promotes a temporary album into a persisted one: the GIF and its
// animated thumbnail are uploaded to object storage, then the album row, its
// pages, and its tag links are written in one transaction.
func (h *AlbumHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r)
	if !ok {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "could not retrieve user from context")
		return
	}

	var payload CreateAlbumPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusUnprocessableEntity, "invalid_body", "invalid request body: "+err.Error())
		return
	}
	if payload.TemporaryAlbumUUID == "" {
		WriteAPIError(w, http.StatusUnprocessableEntity, "invalid_body", "temporaryAlbumUuid is required")
		return
	}

	// offset-less timestamps are rejected rather than guessed at
	playedAt, err := time.Parse(time.RFC3339, payload.PlayedAt)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_argument", "playedAt must be an RFC 3339 timestamp with UTC offset")
		return
	}

	temp, err := h.TempRepo.Get(payload.TemporaryAlbumUUID)
	if err != nil {
		writeError(w, err)
		return
	}
	if len(payload.PageMetaData) != temp.PageCount {
		writeError(w, fmt.Errorf("expected %d page metadata entries, got %d: %w",
			temp.PageCount, len(payload.PageMetaData), apperrors.ErrPageCountMismatch))
		return
	}

	gifPath := media.GifPath(h.Cfg.TempUploadsPath, temp.UUID)
	data, err := os.ReadFile(gifPath)
	if err != nil {
		if os.IsNotExist(err) {
			writeError(w, fmt.Errorf("temporary album file is gone: %w", apperrors.ErrNotFound))
			return
		}
		writeError(w, fmt.Errorf("failed to read temp upload %s: %w", gifPath, err))
		return
	}

	thumb, err := media.Thumbnail(data, h.Cfg.ThumbnailMaxSize)
	if err != nil {
		writeError(w, fmt.Errorf("failed to build thumbnail for %s: %w", temp.UUID, err))
		return
	}
	thumbPath := media.GifPath(h.Cfg.TempUploadsPath, temp.UUID+"_thumb")
	if err := os.WriteFile(thumbPath, thumb, 0644); err != nil {
		writeError(w, fmt.Errorf("failed to write thumbnail %s: %w", thumbPath, err))
		return
	}
	defer os.Remove(thumbPath)

	sourceURL, err := h.Store.Upload(gifPath, storage.AlbumKey(temp.UUID), "image/gif")
	if err != nil {
		writeError(w, err)
		return
	}
	thumbURL, err := h.Store.Upload(thumbPath, storage.AlbumThumbKey(temp.UUID), "image/gif")
	if err != nil {
		writeError(w, err)
		return
	}

	detail, err := h.AlbumRepo.CreateFromTemp(repository.CreateAlbumParams{
		TempAlbumUUID:     temp.UUID,
		GamemodeID:        payload.GamemodeID,
		TagIDs:            payload.TagIDs,
		PlayedAt:          playedAt,
		Pages:             payload.PageMetaData,
		Source:            sourceURL,
		ThumbSource:       thumbURL,
		Hash:              temp.Hash,
		ContributorUserID: &user.ID,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	// the sweeper would get to this eventually; reclaim it now
	if err := os.Remove(gifPath); err != nil {
		log.Printf("Error removing promoted temp upload %s: %v", gifPath, err)
	}

	writeJSON(w, http.StatusCreated, detail)
}

type UpdateAlbumPayload struct {
	GamemodeID   uint                  `json:"gamemodeId"`
	TagIDs       []uint                `json:"tagIds"`
	PageMetaData []repository.PageMeta `json:"pageMetaData"`
}

// Update replaces an album's gamemode, tag set, and per-page metadata.
func (h *AlbumHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r)
	if !ok {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "could not retrieve user from context")
		return
	}

	id, err := parseUintParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	var payload UpdateAlbumPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusUnprocessableEntity, "invalid_body", "invalid request body: "+err.Error())
		return
	}

	if err := h.AlbumRepo.Update(id, payload.GamemodeID, payload.TagIDs, payload.PageMetaData); err != nil {
		writeError(w, err)
		return
	}

	detail, err := h.AlbumRepo.GetByID(id, user.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// Delete soft-deletes an album. Pages, tags, and bookmarks stay in place for a
// possible restore.
func (h *AlbumHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseUintParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.AlbumRepo.SoftDelete(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// IncrementDownloadCount bumps the album's download counter.
func (h *AlbumHandler) IncrementDownloadCount(w http.ResponseWriter, r *http.Request) {
	id, err := parseUintParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.AlbumRepo.IncrementDownloadCount(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
