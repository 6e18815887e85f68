package handlers

import (
	"net/http"
	"strings"

	"rfphub/internal/apperr"
	"rfphub/internal/auth"
	"rfphub/models"
)

// RegisterHandler creates a user account. Role is fixed at registration.
func (h *Handler) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username     string `json:"username"`
		Email        string `json:"email"`
		Password     string `json:"password"`
		Role         string `json:"role"`
		Organization string `json:"organization"`
		Phone        string `json:"phone"`
	}
	if err := decodeJSON(w, r, &input); err != nil {
		h.writeError(w, err)
		return
	}

	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.TrimSpace(input.Email)
	if input.Username == "" || input.Email == "" {
		h.writeError(w, apperr.New(apperr.Validation, "username and email are required"))
		return
	}
	if len(input.Password) < 8 {
		h.writeError(w, apperr.New(apperr.Validation, "password must be at least 8 characters"))
		return
	}
	if input.Role != models.RoleRequester && input.Role != models.RoleResponder {
		h.writeError(w, apperr.New(apperr.Validation, "role must be requester or responder"))
		return
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		h.writeError(w, err)
		return
	}

	user := &models.User{
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		Role:         input.Role,
		Organization: input.Organization,
		Phone:        input.Phone,
	}
	if err := h.Store.CreateUser(r.Context(), user); err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// LoginHandler verifies credentials and mints a bearer token.
func (h *Handler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &input); err != nil {
		h.writeError(w, err)
		return
	}

	user, err := h.Store.GetUserByUsername(r.Context(), input.Username)
	if err != nil || !user.Active || !auth.CheckPassword(user.PasswordHash, input.Password) {
		// Identical response for unknown user and wrong password.
		http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateToken(user.ID, h.JWTSecret, h.TokenTTL)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token": token,
		"user":  user,
	})
}

// MeHandler returns the authenticated user.
func (h *Handler) MeHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, auth.UserFrom(r.Context()))
}
