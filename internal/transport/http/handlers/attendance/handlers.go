package attendancehandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hrms/internal/domain/attendance"
	"hrms/internal/domain/audit"
	"hrms/internal/domain/user"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
	"hrms/internal/transport/http/shared"
)

type Handler struct {
	Store *attendance.Store
	Users *user.Store
	Audit *audit.Service
}

func NewHandler(store *attendance.Store, users *user.Store, auditSvc *audit.Service) *Handler {
	return &Handler{Store: store, Users: users, Audit: auditSvc}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/attendance", func(r chi.Router) {
		r.Post("/checkin", h.handleCheckIn)
		r.Post("/checkout", h.handleCheckOut)
		r.Get("/my", h.handleMy)
		r.Get("/today", h.handleToday)
		r.Get("/all", h.handleAll)
		r.Put("/{attendanceID}", h.handleUpdate)
	})
}

// joined is a record with the owning user's identity attached for display.
type joined struct {
	attendance.Record
	User *userRef `json:"user,omitempty"`
}

type userRef struct {
	Name       string `json:"name"`
	EmployeeID string `json:"employeeId"`
	Email      string `json:"email,omitempty"`
}

func (h *Handler) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	principal, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	rec, err := h.Store.CheckIn(principal.UserID, time.Now())
	if errors.Is(err, attendance.ErrAlreadyCheckedIn) {
		api.Fail(w, http.StatusBadRequest, "already_checked_in", "already checked in today", reqID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "checkin_failed", "failed to check in", reqID)
		return
	}
	api.Success(w, rec, reqID)
}

func (h *Handler) handleCheckOut(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	principal, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	rec, err := h.Store.CheckOut(principal.UserID, time.Now())
	switch {
	case errors.Is(err, attendance.ErrNotCheckedIn):
		api.Fail(w, http.StatusBadRequest, "not_checked_in", "please check in first", reqID)
		return
	case errors.Is(err, attendance.ErrAlreadyCheckedOut):
		api.Fail(w, http.StatusBadRequest, "already_checked_out", "already checked out today", reqID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "checkout_failed", "failed to check out", reqID)
		return
	}
	api.Success(w, rec, reqID)
}

func (h *Handler) handleMy(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	principal, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	query, err := rangeQuery(r, principal.UserID)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_date", "invalid date range", reqID)
		return
	}
	records, err := h.Store.List(query)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "attendance_failed", "failed to list attendance", reqID)
		return
	}
	api.Success(w, records, reqID)
}

func (h *Handler) handleToday(w http.ResponseWriter, r *http.Request) {
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

	rec, found, err := h.Store.FindForDay(targetID, time.Now())
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "attendance_failed", "failed to load attendance", reqID)
		return
	}
	if !found {
		api.Success(w, nil, reqID)
		return
	}
	api.Success(w, h.join(rec), reqID)
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

	query, err := rangeQuery(r, r.URL.Query().Get("userId"))
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_date", "invalid date range", reqID)
		return
	}
	records, err := h.Store.List(query)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "attendance_failed", "failed to list attendance", reqID)
		return
	}

	users, err := h.Users.List(user.Query{})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "attendance_failed", "failed to join users", reqID)
		return
	}
	byID := make(map[string]user.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	out := make([]joined, 0, len(records))
	for _, rec := range records {
		row := joined{Record: rec}
		if u, ok := byID[rec.UserID]; ok {
			row.User = &userRef{Name: u.Name, EmployeeID: u.EmployeeID, Email: u.Email}
		}
		out = append(out, row)
	}
	api.Success(w, out, reqID)
}

type updatePayload struct {
	Status *string `json:"status"`
	Date   *string `json:"date"`
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

	patch := attendance.Patch{Status: payload.Status}
	if payload.Date != nil {
		parsed, err := shared.ParseDate(*payload.Date)
		if err != nil || parsed.IsZero() {
			api.Fail(w, http.StatusBadRequest, "invalid_date", "invalid date", reqID)
			return
		}
		patch.Date = &parsed
	}

	attendanceID := chi.URLParam(r, "attendanceID")
	updated, err := h.Store.UpdateByID(attendanceID, patch)
	switch {
	case errors.Is(err, attendance.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "attendance record not found", reqID)
		return
	case errors.Is(err, attendance.ErrInvalidStatus):
		api.Fail(w, http.StatusBadRequest, "invalid_status", "invalid attendance status", reqID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "attendance_update_failed", "failed to update attendance", reqID)
		return
	}

	if err := h.Audit.Record(r.Context(), principal.UserID, "attendance.update", "attendance", attendanceID, reqID, shared.ClientIP(r), map[string]any{"status": updated.Status}); err != nil {
		slog.Warn("audit attendance.update failed", "err", err)
	}
	api.Success(w, updated, reqID)
}

func (h *Handler) join(rec attendance.Record) joined {
	row := joined{Record: rec}
	if u, err := h.Users.FindByID(rec.UserID); err == nil {
		row.User = &userRef{Name: u.Name, EmployeeID: u.EmployeeID}
	}
	return row
}

// rangeQuery builds the list filter from startDate/endDate query params,
// defaulting to the last 30 days.
func rangeQuery(r *http.Request, userID string) (attendance.Query, error) {
	q := attendance.Query{UserID: userID}
	start := r.URL.Query().Get("startDate")
	end := r.URL.Query().Get("endDate")
	if start != "" && end != "" {
		from, err := shared.ParseDate(start)
		if err != nil {
			return attendance.Query{}, err
		}
		to, err := shared.ParseDate(end)
		if err != nil {
			return attendance.Query{}, err
		}
		q.From, q.To = from, to
		return q, nil
	}
	now := time.Now()
	q.From = now.AddDate(0, 0, -30)
	q.To = now
	return q, nil
}
