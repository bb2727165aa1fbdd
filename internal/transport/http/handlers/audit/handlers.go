package audithandler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/audit"
	"hrms/internal/domain/user"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
)

type Handler struct {
	Audit *audit.Service
}

func NewHandler(auditSvc *audit.Service) *Handler {
	return &Handler{Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/audit", h.handleList)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	principal, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}
	if principal.Role != user.RoleHR {
		api.Fail(w, http.StatusForbidden, "forbidden", "hr role required", reqID)
		return
	}

	events, err := h.Audit.List(r.Context(), audit.Query{
		Action:  r.URL.Query().Get("action"),
		ActorID: r.URL.Query().Get("actorId"),
	})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "audit_failed", "failed to list audit events", reqID)
		return
	}
	api.Success(w, events, reqID)
}
