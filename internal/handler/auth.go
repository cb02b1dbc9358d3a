package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/contentdesk/admin-api/internal/audit"
	apperrors "github.com/contentdesk/admin-api/internal/errors"
	"github.com/contentdesk/admin-api/internal/middleware"
	"github.com/contentdesk/admin-api/internal/model"
	"github.com/contentdesk/admin-api/internal/service"
)

type AuthHandler struct {
	authService    *service.AuthService
	authMiddleware func(http.Handler) http.Handler
	rateLimit      func(http.Handler) http.Handler
	cookie         CookieConfig
}

func NewAuthHandler(
	authService *service.AuthService,
	authMiddleware func(http.Handler) http.Handler,
	rateLimit func(http.Handler) http.Handler,
	cookie CookieConfig,
) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		authMiddleware: authMiddleware,
		rateLimit:      rateLimit,
		cookie:         cookie,
	}
}

func (h *AuthHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(h.rateLimit).Post("/login", h.Login)
	r.Post("/refresh", h.Refresh)
	r.Get("/refresh", h.Refresh)

	r.Group(func(r chi.Router) {
		r.Use(h.authMiddleware)
		r.Post("/logout", h.Logout)
		r.Get("/me", h.Me)
	})

	return r
}

type loginAdmin struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Role  model.Role `json:"role"`
}

type loginResponse struct {
	AccessToken string     `json:"accessToken"`
	Admin       loginAdmin `json:"admin"`
}

// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if code := apperrors.GetCode(err); code != apperrors.ErrCodeMissingCredentials {
			audit.LogFromRequest(r, audit.Event{
				Type:    audit.EventLoginFailure,
				Email:   model.NormalizeEmail(req.Email),
				Details: map[string]interface{}{"code": string(code)},
			})
		}
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventLoginSuccess,
		AdminID: result.Admin.ID,
	})

	setRefreshCookie(w, result.RefreshToken, h.cookie)
	writeData(w, http.StatusOK, loginResponse{
		AccessToken: result.AccessToken,
		Admin: loginAdmin{
			ID:    result.Admin.ID,
			Name:  result.Admin.Name,
			Email: result.Admin.Email,
			Role:  result.Admin.Role,
		},
	})
}

// POST|GET /auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	token := readRefreshCookie(r)
	if token == "" && r.Method == http.MethodPost {
		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		token = req.RefreshToken
	}

	accessToken, err := h.authService.Refresh(r.Context(), token)
	if err != nil {
		audit.LogFromRequest(r, audit.Event{
			Type:    audit.EventRefreshFailure,
			Details: map[string]interface{}{"code": string(apperrors.GetCode(err))},
		})
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, map[string]string{"accessToken": accessToken})
}

// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		writeError(w, apperrors.Unauthorized("Not authenticated"))
		return
	}

	if err := h.authService.Logout(r.Context(), identity.ID); err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventLogout,
		AdminID: identity.ID,
	})

	clearRefreshCookie(w, h.cookie)
	writeMessage(w, http.StatusOK, "Logged out successfully")
}

// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		writeError(w, apperrors.Unauthorized("Not authenticated"))
		return
	}

	admin, err := h.authService.Me(r.Context(), identity.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, admin.Public())
}
