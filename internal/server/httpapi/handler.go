// Package httpapi is the thin transport adapter: each route maps 1:1 to an
// account lifecycle operation and translates domain error kinds to HTTP
// status codes. No business logic lives here.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dkotelnikov/accountd/internal/logging"
	"github.com/dkotelnikov/accountd/internal/server/account"
)

type Handler struct {
	accounts *account.Service
	logger   logging.Logger
}

func NewHandler(accounts *account.Service, logger logging.Logger) *Handler {
	return &Handler{accounts: accounts, logger: logger.With("module", "httpapi")}
}

// Router returns the mux with all routes registered, wrapped in the
// request-logging middleware.
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("alive"))
	})
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("healthy"))
	})
	mux.HandleFunc("POST /auth/account-registration", h.register)
	mux.HandleFunc("POST /auth/token", h.newToken)
	mux.HandleFunc("DELETE /auth/token", h.logout)
	mux.HandleFunc("POST /auth/email-verification", h.verifyEmail)
	mux.HandleFunc("POST /auth/email-verification-request", h.requestEmailVerification)
	mux.HandleFunc("POST /auth/password-reset-request", h.requestPasswordReset)
	mux.HandleFunc("POST /auth/password-reset", h.resetPassword)
	return h.withRequestLog(mux)
}

type registrationRequest struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	EmailAddress string `json:"emailAddress"`
	Password     string `json:"password"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registrationRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.FirstName == "" || req.LastName == "" || req.EmailAddress == "" || req.Password == "" {
		h.writeValidationError(w, "firstName, lastName, emailAddress and password are required")
		return
	}
	if err := h.accounts.Register(r.Context(), req.FirstName, req.LastName, req.EmailAddress, req.Password); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"message": "created"})
}

type newTokenRequest struct {
	EmailAddress string `json:"emailAddress"`
	Password     string `json:"password"`
	RefreshToken string `json:"refreshToken"`
}

func (h *Handler) newToken(w http.ResponseWriter, r *http.Request) {
	var req newTokenRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.EmailAddress == "" {
		h.writeValidationError(w, "emailAddress is required")
		return
	}
	pair, err := h.accounts.GetAccessToken(r.Context(), req.EmailAddress, req.Password, req.RefreshToken)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{
		"jwt":          pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

type logoutRequest struct {
	EmailAddress string `json:"emailAddress"`
	RefreshToken string `json:"refreshToken"`
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	var req logoutRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.EmailAddress == "" || req.RefreshToken == "" {
		h.writeValidationError(w, "emailAddress and refreshToken are required")
		return
	}
	if err := h.accounts.Logout(r.Context(), req.EmailAddress, req.RefreshToken); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type tokenRequest struct {
	EmailAddress string `json:"emailAddress"`
	Token        string `json:"token"`
}

func (h *Handler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.EmailAddress == "" || req.Token == "" {
		h.writeValidationError(w, "emailAddress and token are required")
		return
	}
	if err := h.accounts.VerifyEmail(r.Context(), req.EmailAddress, req.Token); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "email verified"})
}

type emailOnlyRequest struct {
	EmailAddress string `json:"emailAddress"`
}

func (h *Handler) requestEmailVerification(w http.ResponseWriter, r *http.Request) {
	var req emailOnlyRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.EmailAddress == "" {
		h.writeValidationError(w, "emailAddress is required")
		return
	}
	if err := h.accounts.RequestEmailVerification(r.Context(), req.EmailAddress); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusAccepted, map[string]string{"message": "verification requested"})
}

func (h *Handler) requestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req emailOnlyRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.EmailAddress == "" {
		h.writeValidationError(w, "emailAddress is required")
		return
	}
	if err := h.accounts.RequestPasswordReset(r.Context(), req.EmailAddress); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusAccepted, map[string]string{"message": "reset requested"})
}

type resetPasswordRequest struct {
	EmailAddress string `json:"emailAddress"`
	Password     string `json:"password"`
	Token        string `json:"token"`
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.EmailAddress == "" || req.Password == "" || req.Token == "" {
		h.writeValidationError(w, "emailAddress, password and token are required")
		return
	}
	if err := h.accounts.ResetPassword(r.Context(), req.EmailAddress, req.Password, req.Token); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "password reset"})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.writeValidationError(w, "invalid JSON body")
		return false
	}
	return true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (h *Handler) writeValidationError(w http.ResponseWriter, msg string) {
	h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": msg})
}

// writeError translates a domain error to a status per the error taxonomy;
// everything else is an internal error and the cause stays in the log.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var domainErr *account.Error
	if !errors.As(err, &domainErr) {
		h.logger.Error(r.Context(), "internal error", "path", r.URL.Path, "error", err.Error())
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": account.ErrInternal.Message})
		return
	}

	status := http.StatusBadRequest
	switch {
	case errors.Is(domainErr, account.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(domainErr, account.ErrInvalidPassword):
		status = http.StatusUnauthorized
	case errors.Is(domainErr, account.ErrInternal):
		h.logger.Error(r.Context(), "internal error", "path", r.URL.Path, "error", err.Error())
		status = http.StatusInternalServerError
	}
	h.writeJSON(w, status, map[string]string{
		"error": domainErr.Message,
		"code":  domainErr.Code,
	})
}
