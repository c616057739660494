package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/theLastOfCats/series-browser/internal/auth"
	"github.com/theLastOfCats/series-browser/internal/db"
	"github.com/theLastOfCats/series-browser/internal/logging"
	"github.com/theLastOfCats/series-browser/internal/model"
)

const msgBadCredentials = "Invalid email or password"

type AuthHandler struct {
	DB *db.DB
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !decode(w, r, &req) {
		return
	}

	email := strings.TrimSpace(req.Email)
	name := strings.TrimSpace(req.DisplayName)
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		internalError(w, r, err, "failed to hash password")
		return
	}

	userID, err := h.DB.CreateUser(r.Context(), name, email, hash)
	if errors.Is(err, db.ErrConflict) {
		JSONError(w, "Email already registered", http.StatusConflict)
		return
	}
	if err != nil {
		internalError(w, r, err, "failed to register user")
		return
	}

	logging.Info().Int64("user_id", userID).Msg("user registered")
	writeJSON(w, http.StatusCreated, model.RegisterResponse{
		Message:     "User created",
		UserID:      userID,
		DisplayName: name,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decode(w, r, &req) {
		return
	}

	user, err := h.DB.GetUserByEmail(r.Context(), strings.TrimSpace(req.Email))
	if errors.Is(err, db.ErrNotFound) {
		JSONError(w, msgBadCredentials, http.StatusUnauthorized)
		return
	}
	if err != nil {
		internalError(w, r, err, "failed to load user")
		return
	}

	match, err := auth.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		internalError(w, r, err, "failed to verify password")
		return
	}
	if !match {
		JSONError(w, msgBadCredentials, http.StatusUnauthorized)
		return
	}

	token, err := auth.GenerateToken(user.ID)
	if err != nil {
		internalError(w, r, err, "failed to generate token")
		return
	}

	writeJSON(w, http.StatusOK, model.LoginResponse{
		Message:     "Logged in",
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		Token:       token,
	})
}
