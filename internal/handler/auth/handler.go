package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	authservice "github.com/vraj62023/MultimodalChatbot/internal/service/auth"
	"github.com/vraj62023/MultimodalChatbot/internal/store"
	"github.com/vraj62023/MultimodalChatbot/pkg/utils"
)

// Handler serves registration, login and token refresh.
type Handler struct {
	authSvc *authservice.Service
}

// New creates the auth handler.
func New(authSvc *authservice.Service) *Handler {
	return &Handler{authSvc: authSvc}
}

// RegisterRoutes mounts the auth routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
	r.Post("/refresh", h.handleRefresh)
}

type credentialsPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload credentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	usr, tokens, err := h.authSvc.Register(r.Context(), payload.Email, payload.Password)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrEmailTaken):
			utils.RespondError(w, http.StatusBadRequest, "user already exists")
		case errors.Is(err, authservice.ErrMissingFields),
			errors.Is(err, authservice.ErrPasswordTooShort):
			utils.RespondError(w, http.StatusBadRequest, err.Error())
		default:
			utils.RespondError(w, http.StatusInternalServerError, "server error during registration")
		}
		return
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]string{
		"id":           usr.ID,
		"email":        usr.Email,
		"accessToken":  tokens.AccessToken,
		"refreshToken": tokens.RefreshToken,
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload credentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	usr, tokens, err := h.authSvc.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		if errors.Is(err, authservice.ErrInvalidCredentials) {
			utils.RespondError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		utils.RespondError(w, http.StatusInternalServerError, "server error during login")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"id":           usr.ID,
		"email":        usr.Email,
		"accessToken":  tokens.AccessToken,
		"refreshToken": tokens.RefreshToken,
	})
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.Token == "" {
		utils.RespondError(w, http.StatusUnauthorized, "no token provided")
		return
	}

	accessToken, err := h.authSvc.Refresh(payload.Token)
	if err != nil {
		utils.RespondError(w, http.StatusForbidden, "invalid refresh token")
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{"accessToken": accessToken})
}
