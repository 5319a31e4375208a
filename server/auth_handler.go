package server

import (
	"errors"
	"net/http"
	"strings"

	"soundfolio/core/auth"
	"soundfolio/logger"
)

// LoginRequest represents the login request body
type LoginRequest struct {
	Password string `json:"password"`
}

// LoginHandler handles admin login requests
func (h *APIHandler) LoginHandler(w http.ResponseWriter, r *http.Request) {
	if h.issuer == nil {
		writeError(w, http.StatusNotFound, "authentication is disabled")
		return
	}

	var req LoginRequest
	if err := decodeBody(w, r, &req); err != nil {
		logger.Warn("[Login] failed to decode request body", logger.ErrorField(err))
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Password == "" {
		writeError(w, http.StatusBadRequest, "password is required")
		return
	}

	token, exp, err := h.issuer.Login(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			logger.Warn("[Login] password rejected", logger.String("remote", r.RemoteAddr))
			writeError(w, http.StatusUnauthorized, "invalid password")
			return
		}
		logger.Error("[Login] failed to issue token", logger.ErrorField(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	logger.Info("[Login] login succeeded", logger.String("remote", r.RemoteAddr))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"token":     token,
		"expiresAt": exp,
	})
}

// AuthMiddleware checks for a valid bearer token when authentication is enabled.
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	if h.issuer == nil {
		return next
	}
	return func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeError(w, http.StatusUnauthorized, "authorization header is required")
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			writeError(w, http.StatusUnauthorized, "invalid authorization header format")
			return
		}

		if _, err := h.issuer.ParseToken(parts[1]); err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	}
}
