package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"challenge-hub/internal/middleware"
	"challenge-hub/internal/model"
	"challenge-hub/internal/service"
	"challenge-hub/pkg/apierror"
)

// refreshCookiePath scopes the refresh cookie to the auth endpoints so it is
// not replayed on every API call.
const refreshCookiePath = "/api/v1/auth"

type AuthHandler struct {
	service      *service.AuthService
	cookieSecure bool
}

func NewAuthHandler(service *service.AuthService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{service: service, cookieSecure: cookieSecure}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	if problems := payload.Validate(); len(problems) > 0 {
		writeValidationError(w, problems)
		return
	}

	tokens, refreshToken, err := h.service.Register(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setRefreshCookie(w, refreshToken)
	writeSuccess(w, http.StatusCreated, tokens, nil)
}

// Login checks the password and mails a one-time code. No tokens are issued
// until the code comes back through VerifyOTP.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	if problems := payload.Validate(); len(problems) > 0 {
		writeValidationError(w, problems)
		return
	}

	result, err := h.service.Login(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, result, nil)
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	if problems := payload.Validate(); len(problems) > 0 {
		writeValidationError(w, problems)
		return
	}

	tokens, refreshToken, err := h.service.VerifyOTP(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setRefreshCookie(w, refreshToken)
	writeSuccess(w, http.StatusOK, tokens, nil)
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	var payload model.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.BadRequest("invalid JSON body", ""))
		return
	}

	if problems := payload.Validate(); len(problems) > 0 {
		writeValidationError(w, problems)
		return
	}

	if err := h.service.ChangePassword(r.Context(), claims.UserID, payload); err != nil {
		writeError(w, err)
		return
	}

	// Every refresh token minted before this point is now rejected; the
	// client must log in again.
	h.clearRefreshCookie(w)
	writeSuccess(w, http.StatusOK, map[string]any{"message": "Password changed successfully."}, nil)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearRefreshCookie(w)
	writeSuccess(w, http.StatusOK, map[string]any{"logged_out": true}, nil)
}

// LogoutAll bumps the account token version, cutting off refresh tokens on
// every device, not just the cookie on this one.
func (h *AuthHandler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	if err := h.service.RevokeAllSessions(r.Context(), claims.UserID); err != nil {
		writeError(w, err)
		return
	}

	h.clearRefreshCookie(w)
	writeSuccess(w, http.StatusOK, map[string]any{"logged_out": true}, nil)
}

func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.RefreshCookieName,
		Value:    token,
		Path:     refreshCookiePath,
		MaxAge:   int(h.service.RefreshTTL() / time.Second),
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.RefreshCookieName,
		Value:    "",
		Path:     refreshCookiePath,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}
