package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/purplearchive/purple-archive-server/models"
	"github.com/purplearchive/purple-archive-server/repository"
)

type UserHandler struct {
	UserRepo repository.UserRepositoryInterface
}

func NewUserHandler(userRepo repository.UserRepositoryInterface) *UserHandler {
	return &UserHandler{UserRepo: userRepo}
}

type CreateUserPayload struct {
	ID          string `json:"id"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

type UserListResponse struct {
	UsersCountAll int64         `json:"usersCountAll"`
	Users         []models.User `json:"users"`
}

// Create registers a new user. Registration is open; the chosen id must be
// unused.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var payload CreateUserPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusUnprocessableEntity, "invalid_body", "invalid request body: "+err.Error())
		return
	}
	if payload.ID == "" || payload.Password == "" {
		WriteAPIError(w, http.StatusUnprocessableEntity, "invalid_body", "id and password are required")
		return
	}

	user := &models.User{
		ID:          payload.ID,
		DisplayName: payload.DisplayName,
	}
	if err := user.SetPassword(payload.Password); err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "failed to hash password")
		return
	}

	if err := h.UserRepo.Create(user); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// List returns all active users, paginated and ordered by id.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	offset := parseIntQuery(r, "offset", 0)
	limit := parseIntQuery(r, "limit", 100)

	total, users, err := h.UserRepo.List(offset, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, UserListResponse{UsersCountAll: total, Users: users})
}

// GetMe returns the authenticated user.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r)
	if !ok {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "could not retrieve user from context")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// GetByID returns a single user by id.
func (h *UserHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	user, err := h.UserRepo.GetByID(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type BookmarkPayload struct {
	AlbumIDs []uint `json:"albumIds"`
}

type BookmarkResponse struct {
	AlbumIDs []uint `json:"albumIds"`
}

// AddBookmarks attaches albums to the authenticated user's bookmark set and
// returns the resulting set.
func (h *UserHandler) AddBookmarks(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r)
	if !ok {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "could not retrieve user from context")
		return
	}

	var payload BookmarkPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusUnprocessableEntity, "invalid_body", "invalid request body: "+err.Error())
		return
	}

	ids, err := h.UserRepo.AddBookmarks(user.ID, payload.AlbumIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BookmarkResponse{AlbumIDs: ids})
}

// RemoveBookmarks detaches albums from the authenticated user's bookmark set
// and returns the resulting set. Detaching an album that was never bookmarked
// is a no-op.
func (h *UserHandler) RemoveBookmarks(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r)
	if !ok {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "could not retrieve user from context")
		return
	}

	var payload BookmarkPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusUnprocessableEntity, "invalid_body", "invalid request body: "+err.Error())
		return
	}

	ids, err := h.UserRepo.RemoveBookmarks(user.ID, payload.AlbumIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BookmarkResponse{AlbumIDs: ids})
}
