package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/vasiliy-maslov/marketplace/internal/apperr"
	"github.com/vasiliy-maslov/marketplace/internal/db"
)

type errorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"kind":"internal","message":"failed to marshal response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(response); err != nil {
		log.Error().Err(err).Msg("failed to write JSON response")
	}
}

// respondWithError maps an engine error to a status code and a stable
// machine-readable kind, with the human message alongside.
func respondWithError(w http.ResponseWriter, err error) {
	code, kind := classify(err)
	switch code {
	case http.StatusInternalServerError:
		// Internal details stay in the log.
		respondWithJSON(w, code, errorResponse{Kind: kind, Message: "internal error"})
	case http.StatusServiceUnavailable:
		respondWithJSON(w, code, errorResponse{Kind: kind, Message: "store unavailable"})
	default:
		respondWithJSON(w, code, errorResponse{Kind: kind, Message: err.Error()})
	}
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, apperr.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, apperr.ErrInvalidToken):
		return http.StatusUnprocessableEntity, "invalid_token"
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperr.ErrEmptyCart):
		return http.StatusBadRequest, "empty_cart"
	case errors.Is(err, apperr.ErrInvalidArgument):
		return http.StatusBadRequest, "invalid_argument"
	case errors.Is(err, apperr.ErrEmailExists):
		return http.StatusConflict, "email_exists"
	case errors.Is(err, apperr.ErrStoreUnavailable), db.IsUnavailable(err):
		return http.StatusServiceUnavailable, "store_unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithJSON(w, http.StatusBadRequest, errorResponse{
			Kind:    "invalid_argument",
			Message: "invalid request body",
		})
		return false
	}
	return true
}
