package http

import (
	"net/http"

	"github.com/vasiliy-maslov/marketplace/internal/user"
)

type AuthHandler struct {
	users user.Service
}

func NewAuthHandler(users user.Service) *AuthHandler {
	return &AuthHandler{users: users}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input user.RegisterInput
	if !decodeBody(w, r, &input) {
		return
	}

	u, err := h.users.Register(r.Context(), input)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, u)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &input) {
		return
	}

	token, u, err := h.users.Login(r.Context(), input.Email, input.Password)
	if err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  u,
	})
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email string `json:"email"`
	}
	if !decodeBody(w, r, &input) {
		return
	}

	if err := h.users.ForgotPassword(r.Context(), input.Email); err != nil {
		respondWithError(w, err)
		return
	}

	// Always the same answer, known email or not.
	respondWithJSON(w, http.StatusOK, map[string]string{
		"message": "if the address is registered, a reset mail has been sent",
	})
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Token       string `json:"token"`
		NewPassword string `json:"new_password"`
	}
	if !decodeBody(w, r, &input) {
		return
	}

	if err := h.users.ResetPassword(r.Context(), input.Token, input.NewPassword); err != nil {
		respondWithError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "password has been reset"})
}
