package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/contentdesk/admin-api/internal/audit"
	apperrors "github.com/contentdesk/admin-api/internal/errors"
	"github.com/contentdesk/admin-api/internal/middleware"
	"github.com/contentdesk/admin-api/internal/model"
	"github.com/contentdesk/admin-api/internal/service"
	"github.com/contentdesk/admin-api/internal/util"
)

type AdminHandler struct {
	adminService   *service.AdminService
	authMiddleware func(http.Handler) http.Handler
	apiRateLimit   func(http.Handler) http.Handler
}

func NewAdminHandler(
	adminService *service.AdminService,
	authMiddleware func(http.Handler) http.Handler,
	apiRateLimit func(http.Handler) http.Handler,
) *AdminHandler {
	return &AdminHandler{
		adminService:   adminService,
		authMiddleware: authMiddleware,
		apiRateLimit:   apiRateLimit,
	}
}

func (h *AdminHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(h.apiRateLimit)
	r.Use(h.authMiddleware)
	r.Use(middleware.RequireRole(model.RoleSuperAdmin))

	r.Post("/", h.CreateAdmin)
	r.Get("/", h.ListAdmins)
	r.Patch("/{id}", h.UpdateAdmin)
	r.Post("/{id}/revoke-sessions", h.RevokeSessions)

	return r
}

// POST /admins
func (h *AdminHandler) CreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	admin, err := h.adminService.Register(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventAdminCreate,
		AdminID: admin.ID,
		ActorID: actorID(r),
		Details: map[string]interface{}{"role": string(admin.Role)},
	})

	writeData(w, http.StatusCreated, admin.Public())
}

// GET /admins
func (h *AdminHandler) ListAdmins(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r.URL.Query())

	list, err := h.adminService.List(r.Context(), page.Limit, page.Offset)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, http.StatusOK, list)
}

// PATCH /admins/{id}
func (h *AdminHandler) UpdateAdmin(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !util.IsValidUUID(id) {
		writeError(w, apperrors.NotFound("Admin"))
		return
	}

	var req service.UpdateInput
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	admin, err := h.adminService.Update(r.Context(), actorID(r), id, req)
	if err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventAdminUpdate,
		AdminID: admin.ID,
		ActorID: actorID(r),
		Details: map[string]interface{}{"role": string(admin.Role), "is_active": admin.IsActive},
	})

	writeData(w, http.StatusOK, admin.Public())
}

// POST /admins/{id}/revoke-sessions
func (h *AdminHandler) RevokeSessions(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !util.IsValidUUID(id) {
		writeError(w, apperrors.NotFound("Admin"))
		return
	}

	if err := h.adminService.RevokeSessions(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	audit.LogFromRequest(r, audit.Event{
		Type:    audit.EventSessionsRevoked,
		AdminID: id,
		ActorID: actorID(r),
	})

	writeMessage(w, http.StatusOK, "Sessions revoked")
}

func actorID(r *http.Request) string {
	if identity := middleware.GetIdentity(r.Context()); identity != nil {
		return identity.ID
	}
	return ""
}
