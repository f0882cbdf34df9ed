package handlers

import (
	"net/http"
	"strings"

	"case_desk_app_go/middleware"

	"github.com/labstack/echo/v4"
)

// LoginRequest is the body of POST /api/login
type LoginRequest struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// Login checks the credentials and opens a session
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
	}
	email := strings.TrimSpace(req.Email)
	if email == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Email is required"})
	}

	user, err := h.Store.Authenticate(email, req.Password)
	if err != nil {
		h.Log.Warnw("Login failed", "email", email, "ip", c.RealIP())
		return h.respondError(c, err)
	}

	session, err := h.Sessions.Create(user.ID)
	if err != nil {
		return h.respondError(c, err)
	}
	middleware.SetSessionCookie(c, session)

	h.Log.Infow("User logged in", "user", user.Name, "ip", c.RealIP(), "sessions", h.Sessions.Count())
	return c.JSON(http.StatusOK, map[string]interface{}{
		"user":      user,
		"expiresAt": session.ExpiresAt,
	})
}

// Logout ends the current session
func (h *Handler) Logout(c echo.Context) error {
	if session := middleware.GetCurrentSession(c); session != nil {
		h.Sessions.Delete(session.Token)
	}
	middleware.ClearSessionCookie(c)
	return c.NoContent(http.StatusNoContent)
}

// Me returns the logged in user
func (h *Handler) Me(c echo.Context) error {
	user := middleware.GetCurrentUser(c)
	if user == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}
	return c.JSON(http.StatusOK, user)
}
