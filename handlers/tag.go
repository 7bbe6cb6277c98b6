package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/purplearchive/purple-archive-server/models"
	"github.com/purplearchive/purple-archive-server/repository"
)

type TagHandler struct {
	TagRepo repository.TagRepositoryInterface
}

func NewTagHandler(tagRepo repository.TagRepositoryInterface) *TagHandler {
	return &TagHandler{TagRepo: tagRepo}
}

type TagListResponse struct {
	TagsCountAll int64        `json:"tagsCountAll"`
	Tags         []models.Tag `json:"tags"`
}

type CreateNamePayload struct {
	Name string `json:"name"`
}

// List returns tags whose name contains partialName, paginated.
func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	partialName := r.URL.Query().Get("partialName")
	offset := parseIntQuery(r, "offset", 0)
	limit := parseIntQuery(r, "limit", 100)

	total, tags, err := h.TagRepo.List(partialName, offset, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TagListResponse{TagsCountAll: total, Tags: tags})
}

// Create adds a new tag with a unique name.
func (h *TagHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload CreateNamePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusUnprocessableEntity, "invalid_body", "invalid request body: "+err.Error())
		return
	}
	if payload.Name == "" {
		WriteAPIError(w, http.StatusUnprocessableEntity, "invalid_body", "name is required")
		return
	}

	tag, err := h.TagRepo.Create(payload.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, tag)
}
