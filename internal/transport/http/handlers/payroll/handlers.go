package payrollhandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/audit"
	"hrms/internal/domain/payroll"
	"hrms/internal/domain/user"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type Handler struct {
	Service *payroll.Service
	Users   *user.Store
	Audit   *audit.Service
}

func NewHandler(service *payroll.Service, users *user.Store, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Users: users, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll", func(r chi.Router) {
		r.Get("/my", h.handleMy)
		r.Get("/all", h.handleAll)
		r.Get("/user/{userID}", h.handleByUser)
		r.Get("/payslip", h.handlePayslip)
		r.Put("/{userID}", h.handleUpdate)
	})
}

type joined struct {
	payroll.Payroll
	User *userRef `json:"user,omitempty"`
}

type userRef struct {
	Name       string `json:"name"`
	EmployeeID string `json:"employeeId"`
	Email      string `json:"email,omitempty"`
	Department string `json:"department,omitempty"`
	Position   string `json:"position,omitempty"`
}

func (h *Handler) handleMy(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	principal, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	payslip, err := h.Service.My(r.Context(), principal.UserID)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payroll_failed", "failed to load payroll", reqID)
		return
	}
	api.Success(w, h.join(payslip), reqID)
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

	payrolls, err := h.Service.All(r.Context())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payroll_failed", "failed to list payrolls", reqID)
		return
	}

	users, err := h.Users.List(user.Query{})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payroll_failed", "failed to join users", reqID)
		return
	}
	byID := make(map[string]user.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	out := make([]joined, 0, len(payrolls))
	for _, p := range payrolls {
		row := joined{Payroll: p}
		if u, ok := byID[p.UserID]; ok {
			row.User = &userRef{Name: u.Name, EmployeeID: u.EmployeeID, Email: u.Email, Department: u.Department, Position: u.Position}
		}
		out = append(out, row)
	}
	api.Success(w, out, reqID)
}

func (h *Handler) handleByUser(w http.ResponseWriter, r *http.Request) {
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

	payslip, err := h.Service.ByUser(r.Context(), chi.URLParam(r, "userID"))
	if errors.Is(err, payroll.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "payroll not found", reqID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payroll_failed", "failed to load payroll", reqID)
		return
	}
	api.Success(w, h.join(payslip), reqID)
}

type updatePayload struct {
	BaseSalary float64 `json:"baseSalary"`
	Allowances float64 `json:"allowances"`
	Deductions float64 `json:"deductions"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
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

	var payload updatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	userID := chi.URLParam(r, "userID")
	updated, err := h.Service.Update(r.Context(), userID, payload.BaseSalary, payload.Allowances, payload.Deductions)
	if errors.Is(err, user.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "user not found", reqID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payroll_update_failed", "failed to update payroll", reqID)
		return
	}

	if err := h.Audit.Record(r.Context(), principal.UserID, "payroll.update", "payroll", updated.ID, reqID, shared.ClientIP(r), map[string]any{
		"userId":    userID,
		"netSalary": updated.NetSalary,
	}); err != nil {
		slog.Warn("audit payroll.update failed", "err", err)
	}
	api.Success(w, h.join(updated), reqID)
}

// handlePayslip streams the caller's payslip PDF; HR may fetch any user's
// via ?userId=.
func (h *Handler) handlePayslip(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	principal, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	targetID := principal.UserID
	if requested := r.URL.Query().Get("userId"); requested != "" && requested != principal.UserID {
		if principal.Role != user.RoleHR {
			api.Fail(w, http.StatusForbidden, "forbidden", "hr role required", reqID)
			return
		}
		targetID = requested
	}

	pdfBytes, err := h.Service.GeneratePayslipPDF(r.Context(), targetID)
	if errors.Is(err, user.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "user not found", reqID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "payslip_failed", "failed to generate payslip", reqID)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="payslip.pdf"`)
	if _, err := w.Write(pdfBytes); err != nil {
		slog.Warn("payslip write failed", "err", err)
	}
}

func (h *Handler) join(p payroll.Payroll) joined {
	row := joined{Payroll: p}
	if u, err := h.Users.FindByID(p.UserID); err == nil {
		row.User = &userRef{Name: u.Name, EmployeeID: u.EmployeeID, Email: u.Email}
	}
	return row
}
