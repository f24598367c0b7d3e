package http

import (
	"fmt"
	"net/http"

	"github.com/gofrs/uuid"

	"github.com/vasiliy-maslov/marketplace/internal/apperr"
	"github.com/vasiliy-maslov/marketplace/internal/auth"
	"github.com/vasiliy-maslov/marketplace/internal/user"
)

type ProfileHandler struct {
	users user.Service
}

func NewProfileHandler(users user.Service) *ProfileHandler {
	return &ProfileHandler{users: users}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	userID, err := uuid.FromString(identity.ID)
	if err != nil {
		respondWithError(w, fmt.Errorf("%w: malformed user id", apperr.ErrInvalidArgument))
		return
	}

	u, err := h.users.GetByID(r.Context(), userID)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, u)
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	userID, err := uuid.FromString(identity.ID)
	if err != nil {
		respondWithError(w, fmt.Errorf("%w: malformed user id", apperr.ErrInvalidArgument))
		return
	}

	var input user.UpdateInput
	if !decodeBody(w, r, &input) {
		return
	}

	u, err := h.users.Update(r.Context(), userID, input)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, u)
}
