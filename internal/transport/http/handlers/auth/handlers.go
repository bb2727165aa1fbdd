package authhandler

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"hrms/internal/auth"
	"hrms/internal/domain/user"
	"hrms/internal/platform/email"
	"hrms/internal/transport/http/api"
	"hrms/internal/transport/http/middleware"
)

type Handler struct {
	Users     *user.Store
	Mailer    email.Mailer
	Secret    string
	TokenTTL  time.Duration
	EmailFrom string
}

func NewHandler(users *user.Store, mailer email.Mailer, secret string, tokenTTL time.Duration, emailFrom string) *Handler {
	return &Handler{Users: users, Mailer: mailer, Secret: secret, TokenTTL: tokenTTL, EmailFrom: emailFrom}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.handleRegister)
		r.Post("/login", h.handleLogin)
		r.Get("/verify-email/{token}", h.handleVerifyEmail)
		r.Get("/profile", h.handleGetProfile)
		r.Put("/profile", h.handleUpdateProfile)
		r.Get("/users", h.handleListUsers)
	})
}

type registerPayload struct {
	EmployeeID string `json:"employeeId"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       string `json:"role"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var payload registerPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if payload.EmployeeID == "" || payload.Name == "" || payload.Email == "" || payload.Password == "" || payload.Role == "" {
		api.Fail(w, http.StatusBadRequest, "missing_fields", "all fields are required", reqID)
		return
	}
	if !user.ValidRole(payload.Role) {
		api.Fail(w, http.StatusBadRequest, "invalid_role", "role must be Employee or HR", reqID)
		return
	}
	if err := auth.ValidatePassword(payload.Password); err != nil {
		api.Fail(w, http.StatusBadRequest, "weak_password", err.Error(), reqID)
		return
	}

	hashed, err := auth.HashPassword(payload.Password)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "hash_failed", "failed to process password", reqID)
		return
	}

	token, err := verificationToken()
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_failed", "failed to generate verification token", reqID)
		return
	}

	created, err := h.Users.Create(user.User{
		EmployeeID:             payload.EmployeeID,
		Name:                   payload.Name,
		Email:                  payload.Email,
		Password:               hashed,
		Role:                   payload.Role,
		EmailVerificationToken: token,
		// verification mail is simulated; accounts are usable immediately
		EmailVerified: true,
	})
	switch {
	case errors.Is(err, user.ErrEmailTaken):
		api.Fail(w, http.StatusBadRequest, "email_taken", "email already exists", reqID)
		return
	case errors.Is(err, user.ErrEmployeeIDTaken):
		api.Fail(w, http.StatusBadRequest, "employee_id_taken", "employee id already exists", reqID)
		return
	case err != nil:
		api.Fail(w, http.StatusInternalServerError, "register_failed", "failed to register user", reqID)
		return
	}

	body := fmt.Sprintf("Welcome %s. Verify your email by opening /api/auth/verify-email/%s", created.Name, token)
	if err := h.Mailer.Send(r.Context(), h.EmailFrom, created.Email, "Verify your account", body); err != nil {
		slog.Warn("verification mail failed", "err", err, "userId", created.ID)
	}

	api.Created(w, map[string]string{"userId": created.ID}, reqID)
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())

	var payload loginPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if payload.Email == "" || payload.Password == "" {
		api.Fail(w, http.StatusBadRequest, "missing_fields", "email and password are required", reqID)
		return
	}

	account, err := h.Users.FindByEmail(payload.Email)
	if errors.Is(err, user.ErrNotFound) {
		api.Fail(w, http.StatusBadRequest, "invalid_credentials", "invalid email or password", reqID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "login_failed", "failed to load user", reqID)
		return
	}
	if !account.EmailVerified {
		api.Fail(w, http.StatusBadRequest, "email_unverified", "please verify your email before logging in", reqID)
		return
	}
	if err := auth.CheckPassword(account.Password, payload.Password); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_credentials", "invalid email or password", reqID)
		return
	}

	token, err := auth.GenerateToken(h.Secret, auth.Claims{
		UserID:     account.ID,
		Role:       account.Role,
		EmployeeID: account.EmployeeID,
	}, h.TokenTTL)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "token_failed", "failed to generate token", reqID)
		return
	}

	api.Success(w, map[string]string{
		"token":      token,
		"role":       account.Role,
		"name":       account.Name,
		"employeeId": account.EmployeeID,
		"userId":     account.ID,
	}, reqID)
}

func (h *Handler) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	token := chi.URLParam(r, "token")

	account, err := h.Users.FindByVerificationToken(token)
	if errors.Is(err, user.ErrNotFound) {
		api.Fail(w, http.StatusBadRequest, "invalid_token", "invalid verification token", reqID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "verify_failed", "failed to verify email", reqID)
		return
	}

	verified := true
	if _, err := h.Users.UpdateByID(account.ID, user.Patch{EmailVerified: &verified, ClearToken: true}); err != nil {
		api.Fail(w, http.StatusInternalServerError, "verify_failed", "failed to verify email", reqID)
		return
	}
	api.Success(w, map[string]string{"message": "email verified successfully"}, reqID)
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	principal, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	account, err := h.Users.FindByID(principal.UserID)
	if errors.Is(err, user.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "user not found", reqID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "profile_failed", "failed to load profile", reqID)
		return
	}
	api.Success(w, account.Redacted(), reqID)
}

type profilePayload struct {
	UserID         string  `json:"userId"`
	Name           *string `json:"name"`
	Role           *string `json:"role"`
	Department     *string `json:"department"`
	Position       *string `json:"position"`
	Phone          *string `json:"phone"`
	Address        *string `json:"address"`
	ProfilePicture *string `json:"profilePicture"`
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	principal, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}

	var payload profilePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}

	targetID := principal.UserID
	var patch user.Patch
	if principal.Role == user.RoleHR {
		if payload.UserID != "" {
			targetID = payload.UserID
		}
		if payload.Role != nil && !user.ValidRole(*payload.Role) {
			api.Fail(w, http.StatusBadRequest, "invalid_role", "role must be Employee or HR", reqID)
			return
		}
		patch = user.Patch{
			Name:           payload.Name,
			Role:           payload.Role,
			Department:     payload.Department,
			Position:       payload.Position,
			Phone:          payload.Phone,
			Address:        payload.Address,
			ProfilePicture: payload.ProfilePicture,
		}
	} else {
		// employees may only touch their own contact details
		patch = user.Patch{
			Phone:          payload.Phone,
			Address:        payload.Address,
			ProfilePicture: payload.ProfilePicture,
		}
	}

	updated, err := h.Users.UpdateByID(targetID, patch)
	if errors.Is(err, user.ErrNotFound) {
		api.Fail(w, http.StatusNotFound, "not_found", "user not found", reqID)
		return
	}
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "profile_update_failed", "failed to update profile", reqID)
		return
	}
	api.Success(w, updated.Redacted(), reqID)
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
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

	users, err := h.Users.List(user.Query{Role: r.URL.Query().Get("role")})
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "users_failed", "failed to list users", reqID)
		return
	}
	out := make([]user.User, 0, len(users))
	for _, u := range users {
		out = append(out, u.Redacted())
	}
	api.Success(w, out, reqID)
}

func verificationToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
