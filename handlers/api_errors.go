package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/purplearchive/purple-archive-server/apperrors"
)

// APIErrorDetail represents a single error in the standardized error response.
type APIErrorDetail struct {
	Code   string `json:"code"`
	Status string `json:"status"`
	Detail string `json:"detail"`
}

// APIErrorResponse represents the standardized error response body.
type APIErrorResponse struct {
	Errors []APIErrorDetail `json:"errors"`
}

// WriteAPIError writes a standardized error response with the given HTTP status, code, and detail.
func WriteAPIError(w http.ResponseWriter, httpStatus int, code string, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)

	resp := APIErrorResponse{
		Errors: []APIErrorDetail{
			{
				Code:   code,
				Status: strconv.Itoa(httpStatus),
				Detail: detail,
			},
		},
	}

	_ = json.NewEncoder(w).Encode(resp)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			log.Printf("Error encoding JSON response: %v", err)
		}
	}
}

// writeError maps a domain error onto the standardized error contract. Every
// handler funnels repository and collaborator failures through here so the
// status mapping lives in exactly one place.
func writeError(w http.ResponseWriter, err error) {
	var extErr *apperrors.ExternalServiceError
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		WriteAPIError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, apperrors.ErrUnauthorized):
		WriteAPIError(w, http.StatusUnauthorized, "unauthorized", err.Error())
	case errors.Is(err, apperrors.ErrDuplicate):
		WriteAPIError(w, http.StatusBadRequest, "duplicate", err.Error())
	case errors.Is(err, apperrors.ErrPageCountMismatch):
		WriteAPIError(w, http.StatusBadRequest, "page_count_mismatch", err.Error())
	case errors.Is(err, apperrors.ErrInvalidArgument):
		WriteAPIError(w, http.StatusBadRequest, "invalid_argument", err.Error())
	case errors.As(err, &extErr):
		log.Printf("External service failure: %v", err)
		WriteAPIError(w, http.StatusBadGateway, "external_service_error",
			"call to "+extErr.Service+" failed")
	default:
		log.Printf("Internal error: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_error",
			"an unexpected error occurred")
	}
}
