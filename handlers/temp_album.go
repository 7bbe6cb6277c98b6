package handlers

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/google/uuid"

	"github.com/purplearchive/purple-archive-server/apperrors"
	"github.com/purplearchive/purple-archive-server/config"
	"github.com/purplearchive/purple-archive-server/media"
	"github.com/purplearchive/purple-archive-server/ocr"
	"github.com/purplearchive/purple-archive-server/repository"
)

type TempAlbumHandler struct {
	AlbumRepo repository.AlbumRepositoryInterface
	TempRepo  repository.TempAlbumRepositoryInterface
	Annotator ocr.Annotator
	Cfg       config.Config
}

func NewTempAlbumHandler(albumRepo repository.AlbumRepositoryInterface, tempRepo repository.TempAlbumRepositoryInterface, annotator ocr.Annotator, cfg config.Config) *TempAlbumHandler {
	return &TempAlbumHandler{AlbumRepo: albumRepo, TempRepo: tempRepo, Annotator: annotator, Cfg: cfg}
}

type CreateTempAlbumPayload struct {
	Data string `json:"data"`
}

type TempAlbumResponse struct {
	TemporaryAlbumUUID string               `json:"temporaryAlbumUuid"`
	HashMatchResult    *uint                `json:"hashMatchResult"`
	PageMetaData       []ocr.PageAnnotation `json:"pageMetaData"`
}

// Create accepts a base64 GIF, stores it as a pending upload, OCRs every frame
// and reports whether an identical upload already exists as an active album.
func (h *TempAlbumHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload CreateTempAlbumPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusUnprocessableEntity, "invalid_body", "invalid request body: "+err.Error())
		return
	}
	if payload.Data == "" {
		WriteAPIError(w, http.StatusUnprocessableEntity, "invalid_body", "data is required")
		return
	}

	raw, err := base64.StdEncoding.DecodeString(payload.Data)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_argument", "data must be valid base64")
		return
	}

	sum := sha256.Sum256(raw)
	hash := hex.EncodeToString(sum[:])

	frames, err := media.ExtractFrames(raw)
	if err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_argument", "data must be a GIF image")
		return
	}

	id := uuid.NewString()
	gifPath := media.GifPath(h.Cfg.TempUploadsPath, id)
	if err := os.WriteFile(gifPath, raw, 0644); err != nil {
		writeError(w, fmt.Errorf("failed to save temp upload %s: %w", gifPath, err))
		return
	}

	// the record must exist before anything can fail past this point: the
	// sweeper only reclaims backing files it finds a record for
	temp, err := h.TempRepo.Create(id, hash, len(frames))
	if err != nil {
		if removeErr := os.Remove(gifPath); removeErr != nil {
			log.Printf("Error removing unrecorded temp upload %s: %v", gifPath, removeErr)
		}
		writeError(w, err)
		return
	}

	annotations, err := h.Annotator.AnnotateImages(r.Context(), frames)
	if err != nil {
		writeError(w, err)
		return
	}

	var hashMatch *uint
	if existing, err := h.AlbumRepo.GetByHash(hash); err == nil {
		hashMatch = &existing.ID
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, TempAlbumResponse{
		TemporaryAlbumUUID: temp.UUID,
		HashMatchResult:    hashMatch,
		PageMetaData:       annotations,
	})
}
