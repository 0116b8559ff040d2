package server

import (
	"errors"
	"log/slog"
	"net/http"
	"time"
)

type adminSession struct {
	ID        string
	AdminID   string
	Email     string
	ExpiresAt time.Time
}

var errNoAdminSession = errors.New("no valid admin session")

const adminCookieName = "admin_session"

func setAdminCookie(w http.ResponseWriter, value string, expires time.Time) {
	c := &http.Cookie{
		Name:     adminCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	if value == "" {
		c.MaxAge = -1
	} else {
		c.Expires = expires
	}
	http.SetCookie(w, c)
}

// adminFromRequest resolves the admin_session cookie.
func adminFromRequest(r *http.Request, admin AdminStore) (adminSession, error) {
	cookie, err := r.Cookie(adminCookieName)
	if err != nil || cookie.Value == "" {
		return adminSession{}, errNoAdminSession
	}
	return admin.AdminFromSession(r.Context(), cookie.Value)
}

// AdminLoginRequest is the request body for POST /api/admin/login.
type AdminLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AdminMeResponse describes the signed-in administrator.
type AdminMeResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func meResponse(s adminSession) AdminMeResponse {
	return AdminMeResponse{ID: s.AdminID, Email: s.Email, ExpiresAt: s.ExpiresAt}
}

func handleAdminLogin(logger *slog.Logger, admin AdminStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AdminLoginRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if normalizeEmail(req.Email) == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "email and password are required")
			return
		}

		acct, err := admin.Authenticate(r.Context(), req.Email, req.Password)
		if errors.Is(err, ErrNotFound) {
			logger.Warn("admin login rejected", "email", normalizeEmail(req.Email))
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		if err != nil {
			logger.Error("authenticating admin", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		sess, err := admin.CreateAdminSession(r.Context(), acct.AdminID)
		if err != nil {
			logger.Error("creating admin session", "error", err)
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		sess.Email = acct.Email

		setAdminCookie(w, sess.ID, sess.ExpiresAt)
		logger.Info("admin logged in", "admin_id", sess.AdminID)
		writeJSON(w, http.StatusOK, meResponse(sess))
	}
}

func handleAdminLogout(logger *slog.Logger, admin AdminStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if cookie, err := r.Cookie(adminCookieName); err == nil && cookie.Value != "" {
			if err := admin.DeleteAdminSession(r.Context(), cookie.Value); err != nil {
				logger.Warn("deleting admin session", "error", err)
			}
		}
		setAdminCookie(w, "", time.Time{})
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func handleAdminMe(admin AdminStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := adminFromRequest(r, admin)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		writeJSON(w, http.StatusOK, meResponse(sess))
	}
}
