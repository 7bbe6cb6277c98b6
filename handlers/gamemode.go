package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/purplearchive/purple-archive-server/models"
	"github.com/purplearchive/purple-archive-server/repository"
)

type GamemodeHandler struct {
	GamemodeRepo repository.GamemodeRepositoryInterface
}

func NewGamemodeHandler(gamemodeRepo repository.GamemodeRepositoryInterface) *GamemodeHandler {
	return &GamemodeHandler{GamemodeRepo: gamemodeRepo}
}

type GamemodeListResponse struct {
	GamemodesCountAll int64             `json:"gamemodesCountAll"`
	Gamemodes         []models.Gamemode `json:"gamemodes"`
}

// List returns gamemodes whose name contains partialName, paginated.
func (h *GamemodeHandler) List(w http.ResponseWriter, r *http.Request) {
	partialName := r.URL.Query().Get("partialName")
	offset := parseIntQuery(r, "offset", 0)
	limit := parseIntQuery(r, "limit", 100)

	total, gamemodes, err := h.GamemodeRepo.List(partialName, offset, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, GamemodeListResponse{GamemodesCountAll: total, Gamemodes: gamemodes})
}

// Create adds a new gamemode with a unique name.
func (h *GamemodeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload CreateNamePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusUnprocessableEntity, "invalid_body", "invalid request body: "+err.Error())
		return
	}
	if payload.Name == "" {
		WriteAPIError(w, http.StatusUnprocessableEntity, "invalid_body", "name is required")
		return
	}

	gamemode, err := h.GamemodeRepo.Create(payload.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, gamemode)
}

// Delete removes a gamemode that no album references.
func (h *GamemodeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseUintParam(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.GamemodeRepo.Delete(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
