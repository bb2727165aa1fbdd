package leavehandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/audit"
	"hrms/internal/domain/leave"
	"hrms/internal/domain/user"
	"hrms/internal/platform/email"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type Handler struct {
	Service   *leave.Service
	Users     *user.Store
	Audit     *audit.Service
	Mailer    email.Mailer
	EmailFrom string
}

func NewHandler(service *leave.Service, users *user.Store, auditSvc *audit.Service, mailer email.Mailer, emailFrom string) *Handler {
	return &Handler{Service: service, Users: users, Audit: auditSvc, Mailer: mailer, EmailFrom: emailFrom}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leave", func(r chi.Router) {
		r.Post("/apply", h.handleApply)
		r.Get("/my", h.handleMy)
		r.Get("/all", h.handleAll)
		r.Get("/stats", h.handleStats)
		r.Put("/{leaveID}/approve", h.handleDecide)
	})
}

type joined struct {
	leave.Request
	User     *userRef `json:"user,omitempty"`
	Approver *userRef `json:"approver,omitempty"`
}

type userRef struct {
	Name       string `json:"name"`
	EmployeeID string `json:"employeeId,omitempty"`
	Email      string `json:"email,omitempty"`
}

type applyPayload struct {
	Type    string `json:"type"`
	From    string `json:"from"`
	To      string `json:"to"`
	Remarks string `json:"remarks"`
}

func (h *Handler) handleApply(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	principal, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	var payload applyPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if payload.Type == "" || payload.From == "" || payload.To == "" {
		api.Fail(w, http.StatusBadRequest, "missing_fields", "type, from date, and to date are required", reqID)
		return
	}
	from, err := shared.ParseDate(payload.From)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_date", "invalid from date", reqID)
		return
	}
	to, err := shared.ParseDate(payload.To)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_date", "invalid to date", reqID)
		return
	}

	req, err := h.Service.Apply(r.Context(), principal.UserID, payload.Type, from, to, payload.Remarks)
	switch {
	case errors.Is(err, leave.ErrInvalidRange):
		api.Fail(w, http.StatusBadRequest, "invalid_range", "from date must be before to date", reqID)
		return
	case errors.Is(err, leave.ErrPastDate):
		api.Fail(w, http.StatusBadRequest, "past_date", "cannot apply leave for past dates", reqID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "leave_apply_failed", "failed to apply leave", reqID)
		return
	}
	api.Created(w, req, reqID)
}

func (h *Handler) handleMy(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	principal, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	requests, err := h.Service.Store().List(leave.Query{UserID: principal.UserID})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_list_failed", "failed to list leaves", reqID)
		return
	}
	api.Success(w, h.joinAll(requests, false), reqID)
}

func (h *Handler) handleAll(w http.ResponseWriter, r *http.Request) {
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

	requests, err := h.Service.Store().List(leave.Query{Status: r.URL.Query().Get("status")})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_list_failed", "failed to list leaves", reqID)
		return
	}
	api.Success(w, h.joinAll(requests, true), reqID)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	principal, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	targetID := principal.UserID
	if principal.Role == user.RoleHR && r.URL.Query().Get("userId") != "" {
		targetID = r.URL.Query().Get("userId")
	}

	stats, err := h.Service.Stats(r.Context(), targetID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "leave_stats_failed", "failed to compute stats", reqID)
		return
	}
	api.Success(w, stats, reqID)
}

type decidePayload struct {
	Action        string `json:"action"`
	AdminComments string `json:"adminComments"`
}

func (h *Handler) handleDecide(w http.ResponseWriter, r *http.Request) {
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

	var payload decidePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	leaveID := chi.URLParam(r, "leaveID")
	req, err := h.Service.Decide(r.Context(), leaveID, principal.UserID, payload.Action, payload.AdminComments)
	switch {
	case errors.Is(err, leave.ErrInvalidAction):
		api.Fail(w, http.StatusBadRequest, "invalid_action", "action must be approve or reject", reqID)
		return
	case errors.Is(err, leave.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "leave not found", reqID)
		return
	case errors.Is(err, leave.ErrAlreadyProcessed):
		api.Fail(w, http.StatusConflict, "already_processed", "leave already processed", reqID)
		return
	case err != nil:
		// the decision may have landed before reconciliation stopped;
		// report the failure rather than pretend the range is consistent
		api.Fail(w, http.StatusInternalServerError, "leave_decide_failed", "failed to process leave decision", reqID)
		return
	}

	if err := h.Audit.Record(r.Context(), principal.UserID, "leave."+payload.Action, "leave", leaveID, reqID, shared.ClientIP(r), map[string]any{"status": req.Status}); err != nil {
		slog.Warn("audit leave decision failed", "err", err)
	}
	h.notifyDecision(r, req)

	api.Success(w, map[string]any{
		"message": fmt.Sprintf("leave %s successfully", strings.ToLower(req.Status)),
		"leave":   req,
	}, reqID)
}

func (h *Handler) notifyDecision(r *http.Request, req leave.Request) {
	owner, err := h.Users.FindByID(req.UserID)
	if err != nil {
		return
	}
	subject := fmt.Sprintf("Leave request %s", strings.ToLower(req.Status))
	body := fmt.Sprintf("Your leave from %s to %s is %s.",
		req.From.Format("2006-01-02"), req.To.Format("2006-01-02"), strings.ToLower(req.Status))
	if err := h.Mailer.Send(r.Context(), h.EmailFrom, owner.Email, subject, body); err != nil {
		slog.Warn("leave decision mail failed", "err", err, "leaveId", req.ID)
	}
}

func (h *Handler) joinAll(requests []leave.Request, includeOwner bool) []joined {
	users, err := h.Users.List(user.Query{})
	if err != nil {
		users = nil
	}
	byID := make(map[string]user.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	out := make([]joined, 0, len(requests))
	for _, req := range requests {
		row := joined{Request: req}
		if includeOwner {
			if u, ok := byID[req.UserID]; ok {
				row.User = &userRef{Name: u.Name, EmployeeID: u.EmployeeID, Email: u.Email}
			}
		}
		if req.ApprovedBy != "" {
			if u, ok := byID[req.ApprovedBy]; ok {
				row.Approver = &userRef{Name: u.Name}
			}
		}
		out = append(out, row)
	}
	return out
}
