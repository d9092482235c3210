package auth

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"tripbite/utils"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	UserID       string `json:"userId"`
	RefreshToken string `json:"refreshToken"`
}

func respondErrors(w http.ResponseWriter, code int, msgs ...string) {
	utils.RespondWithJSON(w, code, map[string][]string{"errors": msgs})
}

// POST /api/auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in credentials
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		respondErrors(w, http.StatusBadRequest, "Invalid input")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	user, err := h.svc.Register(ctx, in.Email, in.Password)
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		respondErrors(w, http.StatusBadRequest, verr.Errors...)
		return
	case errors.Is(err, ErrEmailTaken):
		respondErrors(w, http.StatusConflict, "Email already in use.")
		return
	case err != nil:
		log.Printf("Failed to register %s: %v", in.Email, err)
		respondErrors(w, http.StatusInternalServerError, "Error registering.  Contact support.")
		return
	}

	utils.SendResponse(w, http.StatusCreated, map[string]string{"userid": user.UserID}, "Registration successful", nil)
}

// POST /api/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in credentials
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		respondErrors(w, http.StatusBadRequest, "Invalid input")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sess, err := h.svc.Login(ctx, in.Email, in.Password)
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		respondErrors(w, http.StatusBadRequest, verr.Errors...)
		return
	case errors.Is(err, ErrInvalidCredentials):
		respondErrors(w, http.StatusUnauthorized, "Invalid credentials.")
		return
	case err != nil:
		log.Printf("Login failed for %s: %v", in.Email, err)
		respondErrors(w, http.StatusInternalServerError, "Login failed.")
		return
	}

	utils.SendResponse(w, http.StatusOK, sess, "Login successful", nil)
}

// POST /api/auth/token
func (h *Handler) RefreshToken(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in refreshRequest
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	sess, err := h.svc.Refresh(ctx, in.UserID, in.RefreshToken)
	if errors.Is(err, ErrInvalidRefresh) {
		utils.RespondWithError(w, http.StatusUnauthorized, "Invalid refresh token")
		return
	}
	if err != nil {
		log.Printf("Token refresh failed for %s: %v", in.UserID, err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to refresh token")
		return
	}

	utils.SendResponse(w, http.StatusOK, sess, "Token refreshed successfully", nil)
}

// POST /api/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var in refreshRequest
	if err := utils.DecodeJSON(w, r, &in); err != nil {
		utils.RespondWithError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.svc.Logout(ctx, in.RefreshToken); err != nil {
		if errors.Is(err, ErrInvalidRefresh) {
			utils.RespondWithError(w, http.StatusBadRequest, "refreshToken is required")
			return
		}
		log.Printf("Logout failed: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to log out")
		return
	}

	utils.SendResponse(w, http.StatusOK, nil, "User logged out successfully", nil)
}
