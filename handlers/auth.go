package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/purplearchive/purple-archive-server/repository"
)

type AuthHandler struct {
	UserRepo    repository.UserRepositoryInterface
	JWTSecret   []byte
	TokenExpiry time.Duration
}

func NewAuthHandler(userRepo repository.UserRepositoryInterface, jwtSecret []byte, tokenExpiry time.Duration) *AuthHandler {
	return &AuthHandler{UserRepo: userRepo, JWTSecret: jwtSecret, TokenExpiry: tokenExpiry}
}

type LoginPayload struct {
	ID       string `json:"id"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string    `json:"accessToken"`
	TokenType   string    `json:"tokenType"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

// Login exchanges user credentials for a bearer token. Failures never reveal
// whether the id or the password was wrong.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload LoginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		WriteAPIError(w, http.StatusUnprocessableEntity, "invalid_body", "invalid request body: "+err.Error())
		return
	}
	if payload.ID == "" || payload.Password == "" {
		WriteAPIError(w, http.StatusUnprocessableEntity, "invalid_body", "id and password are required")
		return
	}

	user, err := h.UserRepo.GetByID(payload.ID)
	if err != nil {
		WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "invalid user ID or password")
		return
	}
	if !user.CheckPassword(payload.Password) {
		WriteAPIError(w, http.StatusUnauthorized, "unauthorized", "invalid user ID or password")
		return
	}

	expiresAt := time.Now().Add(h.TokenExpiry)
	claims := &jwt.RegisteredClaims{
		Subject:   user.ID,
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		Issuer:    "purple-archive-server",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(h.JWTSecret)
	if err != nil {
		WriteAPIError(w, http.StatusInternalServerError, "internal_error", "failed to generate token")
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		AccessToken: tokenString,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
	})
}
